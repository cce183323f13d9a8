// Package obsstore is the append-only log of business observations.
// An observation is never mutated once written, history questions are
// answered by created_at ordering alone.
package obsstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"kyb-backend/lib/obsstore/db"
	"kyb-backend/lib/textutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/obsstore")

var ErrWrite = errors.New("failed to write observation")

type ChangeCategory string

const (
	// CategoryNewEntity tags both a first-time observation and a
	// repeat observation with no detected change.
	CategoryNewEntity      ChangeCategory = "new_entity"
	CategoryBusinessGrowth ChangeCategory = "business_growth"
	CategoryOrgGrowth      ChangeCategory = "org_growth"
)

type ReviewsSnapshot struct {
	DisplayName string  `json:"display_name,omitempty"`
	Rating      float64 `json:"rating"`
	ReviewCount int64   `json:"review_count"`
	Address     string  `json:"address,omitempty"`
}

type MapsSnapshot struct {
	DisplayName  string   `json:"display_name,omitempty"`
	Address      string   `json:"address,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Rating       float64  `json:"rating"`
	TotalRatings int64    `json:"total_ratings"`
	Website      string   `json:"website,omitempty"`
	OpeningHours []string `json:"opening_hours,omitempty"`
}

type NetworkSnapshot struct {
	DisplayName string   `json:"display_name,omitempty"`
	VanityName  string   `json:"vanity_name,omitempty"`
	Description string   `json:"description,omitempty"`
	Website     string   `json:"website,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	// nil means the provider knows the company but not its headcount
	CompanySize *int64   `json:"company_size"`
	Followers   int64    `json:"followers,omitempty"`
	FoundedYear int64    `json:"founded_year,omitempty"`
	Locations   []string `json:"locations,omitempty"`
	Specialties []string `json:"specialties,omitempty"`
}

// GrowthDeltas is only populated for growth categories, absent fields
// are omitted from the stored record.
type GrowthDeltas struct {
	OldYelpReviews   *int64 `json:"old_yelp_reviews,omitempty"`
	NewYelpReviews   *int64 `json:"new_yelp_reviews,omitempty"`
	OldGoogleReviews *int64 `json:"old_google_reviews,omitempty"`
	NewGoogleReviews *int64 `json:"new_google_reviews,omitempty"`
	OldCompanySize   *int64 `json:"old_company_size,omitempty"`
	NewCompanySize   *int64 `json:"new_company_size,omitempty"`
}

type Observation struct {
	Id              int64           `json:"id"`
	CreatedAt       time.Time       `json:"created_at"`
	Category        ChangeCategory  `json:"change_category"`
	BusinessUrl     string          `json:"business_url"`
	BusinessName    string          `json:"business_name"`
	BusinessSummary string          `json:"business_summary"`
	Reviews         ReviewsSnapshot `json:"reviews"`
	Maps            MapsSnapshot    `json:"maps"`
	Network         NetworkSnapshot `json:"network"`
	Deltas          GrowthDeltas    `json:"deltas"`
}

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

const queryLatestTimeout = time.Second * 10
const queryLatestBackoff = time.Second

// QueryLatest returns the most recent observation for a business url,
// or nil when none exists. Transient backend errors are retried with a
// fixed backoff until the overall timeout runs out.
func (s Store) QueryLatest(ctx context.Context, businessUrl string) (*Observation, error) {
	ctx, span := tracer.Start(ctx, "QueryLatest")
	defer span.End()

	key := textutil.NormalizeURL(businessUrl)
	span.SetAttributes(attribute.String("business_url", key))

	ctx, cancel := context.WithTimeout(ctx, queryLatestTimeout)
	defer cancel()

	for {
		row, err := s.qry.GetLatestObservation(ctx, key)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err == nil {
			obs, err := rowToObservation(row)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "failed to decode stored observation")
				return nil, err
			}
			return obs, nil
		}
		if !isTransient(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "latest observation query failed")
			return nil, err
		}

		select {
		case <-ctx.Done():
			err := fmt.Errorf("latest observation query timed out: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "retries exhausted")
			return nil, err
		case <-time.After(queryLatestBackoff):
		}
	}
}

// Append writes one observation and returns its id. It never retries,
// any backend failure is fatal to the caller's run.
func (s Store) Append(ctx context.Context, obs Observation) (int64, error) {
	ctx, span := tracer.Start(ctx, "Append")
	defer span.End()

	key := textutil.NormalizeURL(obs.BusinessUrl)
	span.SetAttributes(
		attribute.String("business_url", key),
		attribute.String("change_category", string(obs.Category)),
	)

	reviews, err := json.Marshal(obs.Reviews)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrWrite, err)
	}
	maps, err := json.Marshal(obs.Maps)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrWrite, err)
	}
	network, err := json.Marshal(obs.Network)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrWrite, err)
	}
	deltas, err := json.Marshal(obs.Deltas)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrWrite, err)
	}

	id, err := s.qry.CreateObservation(ctx, db.CreateObservationParams{
		BusinessUrl:     key,
		CreatedAt:       obs.CreatedAt.Unix(),
		ChangeCategory:  string(obs.Category),
		BusinessName:    obs.BusinessName,
		BusinessSummary: obs.BusinessSummary,
		Reviews:         string(reviews),
		Maps:            string(maps),
		Network:         string(network),
		Deltas:          string(deltas),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert observation")
		return 0, fmt.Errorf("%w: %s", ErrWrite, err)
	}
	return id, nil
}

func rowToObservation(row db.Observation) (*Observation, error) {
	out := &Observation{
		Id:              row.ID,
		CreatedAt:       time.Unix(row.CreatedAt, 0),
		Category:        ChangeCategory(row.ChangeCategory),
		BusinessUrl:     row.BusinessUrl,
		BusinessName:    row.BusinessName,
		BusinessSummary: row.BusinessSummary,
	}
	err := json.Unmarshal([]byte(row.Reviews), &out.Reviews)
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal([]byte(row.Maps), &out.Maps)
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal([]byte(row.Network), &out.Network)
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal([]byte(row.Deltas), &out.Deltas)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "locked") || strings.Contains(msg, "busy")
}
