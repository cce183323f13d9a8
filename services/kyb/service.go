// Package kyb researches a business from its public website: it
// scrapes the site, asks a language model for a canonical name and
// summary, cross-references the reviews, places and professional
// network directories, and appends a classified observation to the
// observation log.
package kyb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"kyb-backend/lib/directories/gmaps"
	"kyb-backend/lib/directories/linkedin"
	"kyb-backend/lib/directories/yelp"
	"kyb-backend/lib/htmlutil"
	"kyb-backend/lib/obsstore"
	"kyb-backend/lib/restyutil"
	"kyb-backend/lib/telemetry"
	"kyb-backend/lib/textutil"
	"kyb-backend/lib/timezone"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/antzucaro/matchr"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/kyb")

var restyInstrumentOutput restyutil.InstrumentOutput

func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyInstrumentOutput = output
}

var ErrFetch = errors.New("failed to fetch the business website")

// ObservationStore is the append-only log the pipeline writes to,
// satisfied by obsstore.Store.
type ObservationStore interface {
	QueryLatest(ctx context.Context, businessUrl string) (*obsstore.Observation, error)
	Append(ctx context.Context, obs obsstore.Observation) (int64, error)
}

type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type ReviewsDirectory interface {
	Search(ctx context.Context, term, location string) (*yelp.Business, error)
}

type PlacesDirectory interface {
	Lookup(ctx context.Context, name, city string) (*gmaps.Place, error)
}

type NetworkDirectory interface {
	Lookup(ctx context.Context, name string) (*linkedin.Company, error)
}

type ServiceOptions struct {
	Store   ObservationStore
	Llm     CompletionClient
	Reviews ReviewsDirectory
	Places  PlacesDirectory
	Network NetworkDirectory
	// DefaultCity seeds the location term of the reviews/places
	// lookups, it defaults to "New York City".
	DefaultCity string
}

type Service struct {
	store   ObservationStore
	llm     CompletionClient
	reviews ReviewsDirectory
	places  PlacesDirectory
	network NetworkDirectory
	city    string
	http    *resty.Client
}

func NewService(opts ServiceOptions) Service {
	city := opts.DefaultCity
	if city == "" {
		city = "New York City"
	}

	client := resty.New()
	client.SetTimeout(time.Second * 5)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	telemetry.InstrumentResty(client, "services/kyb/http")
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return Service{
		store:   opts.Store,
		llm:     opts.Llm,
		reviews: opts.Reviews,
		places:  opts.Places,
		network: opts.Network,
		city:    city,
		http:    client,
	}
}

// Research runs the full pipeline for one business url and returns the
// stored observation. A fetch or summarization failure aborts the run
// before anything is written, directory lookups only ever degrade.
func (s Service) Research(ctx context.Context, businessUrl string) (*obsstore.Observation, error) {
	ctx, span := tracer.Start(ctx, "Research")
	defer span.End()

	span.SetAttributes(attribute.String("business_url", businessUrl))

	markup, err := s.fetchPage(ctx, businessUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "page fetch failed")
		return nil, err
	}
	text := htmlutil.ExtractText(markup)

	summary, err := s.summarizeEntity(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "summarization failed")
		return nil, err
	}
	span.SetAttributes(attribute.String("entity_name", summary.EntityName))
	slog.InfoContext(ctx, "entity summarized", "name", summary.EntityName)

	cur := s.lookupDirectories(ctx, summary.EntityName)

	prior, err := s.store.QueryLatest(ctx, businessUrl)
	if err != nil {
		// degrading to "no prior" here masks true history: the run
		// will be recorded as new_entity even if the business has
		// been observed before
		slog.ErrorContext(
			ctx, "failed to query observation history, treating as first observation",
			"business_url", businessUrl,
			"err", err,
		)
		prior = nil
	}

	category, deltas := classify(prior, cur)
	if category == obsstore.CategoryNewEntity && prior != nil {
		slog.InfoContext(ctx, "no meaningful change detected", "business_url", businessUrl)
	}
	span.SetAttributes(attribute.String("change_category", string(category)))

	obs := obsstore.Observation{
		CreatedAt:       timezone.Now(),
		Category:        category,
		BusinessUrl:     textutil.NormalizeURL(businessUrl),
		BusinessName:    summary.EntityName,
		BusinessSummary: summary.Summary,
		Reviews:         cur.Reviews,
		Maps:            cur.Maps,
		Network:         cur.Network,
		Deltas:          deltas,
	}

	id, err := s.store.Append(ctx, obs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to append observation")
		return nil, err
	}
	obs.Id = id

	slog.InfoContext(
		ctx, "observation recorded",
		"id", id,
		"business_url", obs.BusinessUrl,
		"change_category", category,
	)
	return &obs, nil
}

func (s Service) fetchPage(ctx context.Context, pageUrl string) (string, error) {
	ctx, span := tracer.Start(ctx, "fetchPage")
	defer span.End()

	res, err := s.http.R().
		SetContext(ctx).
		Get(pageUrl)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrFetch, err)
	}
	if res.StatusCode() >= 300 {
		return "", fmt.Errorf("%w: status code %d", ErrFetch, res.StatusCode())
	}
	return res.String(), nil
}

// the three directories are independent of each other, they are always
// queried concurrently and merged after all of them finish
func (s Service) lookupDirectories(ctx context.Context, entityName string) observed {
	ctx, span := tracer.Start(ctx, "lookupDirectories")
	defer span.End()

	cur := observed{
		ReviewsAttempted: true,
		MapsAttempted:    true,
		NetworkAttempted: true,
	}
	// absent directory data keeps explicit zero defaults, the
	// classifier depends on every snapshot being present
	zeroSize := int64(0)
	cur.Network.CompanySize = &zeroSize

	var mu sync.Mutex
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		business, err := s.reviews.Search(ctx, entityName, s.city)
		if err != nil {
			slog.WarnContext(ctx, "reviews lookup degraded", "name", entityName, "err", err)
			return
		}
		if business == nil {
			slog.DebugContext(ctx, "no reviews listing found", "name", entityName)
			return
		}
		logMatchConfidence(ctx, "reviews", entityName, business.Name)

		mu.Lock()
		defer mu.Unlock()
		cur.Reviews = obsstore.ReviewsSnapshot{
			DisplayName: business.Name,
			Rating:      business.Rating,
			ReviewCount: business.ReviewCount,
			Address:     business.Address,
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		place, err := s.places.Lookup(ctx, entityName, s.city)
		if err != nil {
			slog.WarnContext(ctx, "places lookup degraded", "name", entityName, "err", err)
			return
		}
		if place == nil {
			slog.DebugContext(ctx, "no places listing found", "name", entityName)
			return
		}
		logMatchConfidence(ctx, "places", entityName, place.Name)

		mu.Lock()
		defer mu.Unlock()
		cur.Maps = obsstore.MapsSnapshot{
			DisplayName:  place.Name,
			Address:      place.Address,
			Phone:        place.Phone,
			Rating:       place.Rating,
			TotalRatings: place.TotalRatings,
			Website:      place.Website,
			OpeningHours: place.OpeningHours,
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		company, err := s.network.Lookup(ctx, entityName)
		if err != nil {
			slog.WarnContext(ctx, "network lookup degraded", "name", entityName, "err", err)
			return
		}
		if company == nil {
			slog.DebugContext(ctx, "no network listing found", "name", entityName)
			return
		}
		logMatchConfidence(ctx, "network", entityName, company.Name)

		mu.Lock()
		defer mu.Unlock()
		cur.Network = obsstore.NetworkSnapshot{
			DisplayName: company.Name,
			VanityName:  company.VanityName,
			Description: company.Description,
			Website:     company.Website,
			Industry:    company.Industry,
			CompanySize: company.CompanySize,
			Followers:   company.Followers,
			FoundedYear: company.FoundedYear,
			Locations:   company.Locations,
			Specialties: company.Specialties,
		}
	}()

	wg.Wait()
	return cur
}

func logMatchConfidence(ctx context.Context, directory, expected, actual string) {
	if actual == "" {
		return
	}
	similarity := matchr.JaroWinkler(
		textutil.NormalizeName(expected),
		textutil.NormalizeName(actual),
		false,
	)
	if similarity < 0.8 {
		slog.WarnContext(
			ctx, "directory match may be a different business",
			"directory", directory,
			"expected", expected,
			"actual", actual,
			"similarity", similarity,
		)
	}
}
