package db

import (
	"context"
	"database/sql"
)

type Queries struct {
	db *sql.DB
}

func New(database *sql.DB) *Queries {
	return &Queries{db: database}
}

type Observation struct {
	ID              int64
	BusinessUrl     string
	CreatedAt       int64
	ChangeCategory  string
	BusinessName    string
	BusinessSummary string
	Reviews         string
	Maps            string
	Network         string
	Deltas          string
}

type CreateObservationParams struct {
	BusinessUrl     string
	CreatedAt       int64
	ChangeCategory  string
	BusinessName    string
	BusinessSummary string
	Reviews         string
	Maps            string
	Network         string
	Deltas          string
}

const createObservation = `
INSERT INTO observations (
    business_url, created_at, change_category,
    business_name, business_summary,
    reviews, maps, network, deltas
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateObservation(ctx context.Context, params CreateObservationParams) (int64, error) {
	res, err := q.db.ExecContext(
		ctx, createObservation,
		params.BusinessUrl,
		params.CreatedAt,
		params.ChangeCategory,
		params.BusinessName,
		params.BusinessSummary,
		params.Reviews,
		params.Maps,
		params.Network,
		params.Deltas,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// most recent first, insertion order breaks created_at ties
const getLatestObservation = `
SELECT id, business_url, created_at, change_category,
       business_name, business_summary,
       reviews, maps, network, deltas
FROM observations
WHERE business_url = ?
ORDER BY created_at DESC, id DESC
LIMIT 1
`

func (q *Queries) GetLatestObservation(ctx context.Context, businessUrl string) (Observation, error) {
	row := q.db.QueryRowContext(ctx, getLatestObservation, businessUrl)

	var out Observation
	err := row.Scan(
		&out.ID,
		&out.BusinessUrl,
		&out.CreatedAt,
		&out.ChangeCategory,
		&out.BusinessName,
		&out.BusinessSummary,
		&out.Reviews,
		&out.Maps,
		&out.Network,
		&out.Deltas,
	)
	return out, err
}
