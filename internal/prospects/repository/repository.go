// Package repository implements prospect persistence.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadgate_backend/internal/scoring/engine"
	"leadgate_backend/platform/apperr"
)

// Prospect is a stored prospect record. Contact fields hold the full
// values; redaction is applied at read time, never at write time.
type Prospect struct {
	ID             uuid.UUID
	Company        string
	Industry       string
	Location       string
	CompanySize    string
	ContactName    string
	Email          string
	Phone          string
	Responses      []engine.FieldResponse
	QualityScore   *int
	Tier           string
	ScoreVersion   int
	ScoreRationale string
	UsedFallback   bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Repository is the pgx-backed prospect store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a prospect repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const prospectColumns = `
	id, company, industry, location, company_size, contact_name, email, phone,
	responses, quality_score, tier, score_version, score_rationale, used_fallback,
	created_at, updated_at`

// Create inserts a new prospect.
func (r *Repository) Create(ctx context.Context, p Prospect) (Prospect, error) {
	responses, err := json.Marshal(p.Responses)
	if err != nil {
		return Prospect{}, fmt.Errorf("marshal responses: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO prospects (company, industry, location, company_size, contact_name, email, phone, responses)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+prospectColumns,
		p.Company, p.Industry, p.Location, p.CompanySize, p.ContactName, p.Email, p.Phone, responses)

	created, err := scanProspect(row)
	if err != nil {
		return Prospect{}, fmt.Errorf("create prospect: %w", err)
	}
	return created, nil
}

// GetByID fetches one prospect.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Prospect, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+prospectColumns+` FROM prospects WHERE id = $1`, id)

	p, err := scanProspect(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Prospect{}, apperr.NotFound("prospect not found")
	}
	if err != nil {
		return Prospect{}, fmt.Errorf("get prospect: %w", err)
	}
	return p, nil
}

// ListByIDs fetches the given prospects. Missing IDs are silently absent
// from the result.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Prospect, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+prospectColumns+` FROM prospects WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("list prospects: %w", err)
	}
	defer rows.Close()

	return collectProspects(rows)
}

// List returns prospects ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]Prospect, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+prospectColumns+`
		FROM prospects
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list prospects: %w", err)
	}
	defer rows.Close()

	return collectProspects(rows)
}

// SetScore persists a scoring result and bumps the score version.
func (r *Repository) SetScore(ctx context.Context, id uuid.UUID, score int, tier, rationale string, usedFallback bool) (int, error) {
	var version int
	err := r.pool.QueryRow(ctx, `
		UPDATE prospects
		SET quality_score = $2, tier = $3, score_rationale = $4, used_fallback = $5,
		    score_version = score_version + 1, updated_at = now()
		WHERE id = $1
		RETURNING score_version`, id, score, tier, rationale, usedFallback).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperr.NotFound("prospect not found")
	}
	if err != nil {
		return 0, fmt.Errorf("set score: %w", err)
	}
	return version, nil
}

func scanProspect(row pgx.Row) (Prospect, error) {
	var p Prospect
	var responses []byte
	err := row.Scan(
		&p.ID, &p.Company, &p.Industry, &p.Location, &p.CompanySize,
		&p.ContactName, &p.Email, &p.Phone,
		&responses, &p.QualityScore, &p.Tier, &p.ScoreVersion,
		&p.ScoreRationale, &p.UsedFallback, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return Prospect{}, err
	}
	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &p.Responses); err != nil {
			return Prospect{}, fmt.Errorf("unmarshal responses: %w", err)
		}
	}
	return p, nil
}

func collectProspects(rows pgx.Rows) ([]Prospect, error) {
	var prospects []Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prospect: %w", err)
		}
		prospects = append(prospects, p)
	}
	return prospects, rows.Err()
}
