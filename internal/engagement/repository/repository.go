// Package repository persists engagement rescores. The engagement marker
// and the score update commit in one transaction so a crash can never
// apply a delta twice or mark an event as applied without scoring it.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadgate_backend/internal/engagement/rescorer"
	"leadgate_backend/platform/apperr"
)

// RescoreResult reports the score state after applying engagement events.
type RescoreResult struct {
	Score        int
	ScoreVersion int
	Applied      []rescorer.EventType
}

// Repository is the pgx-backed engagement store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates an engagement repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ApplyEvents marks the given events as applied and bumps the prospect's
// score accordingly. Events already recorded for the prospect are skipped
// via the composite primary key, which makes delivery retries harmless.
// tierFor derives the stored tier from the updated score.
func (r *Repository) ApplyEvents(ctx context.Context, prospectID uuid.UUID, events []rescorer.Applied, tierFor func(int) string) (RescoreResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return RescoreResult{}, apperr.Wrap(apperr.KindUnavailable, "engagement store unavailable", err)
	}
	defer tx.Rollback(ctx)

	totalDelta := 0
	var applied []rescorer.EventType
	for _, e := range events {
		tag, err := tx.Exec(ctx, `
			INSERT INTO prospect_engagements (prospect_id, event_type, delta)
			VALUES ($1, $2, $3)
			ON CONFLICT (prospect_id, event_type) DO NOTHING`,
			prospectID, string(e.Type), e.Delta)
		if err != nil {
			return RescoreResult{}, fmt.Errorf("record engagement: %w", err)
		}
		if tag.RowsAffected() == 1 {
			totalDelta += e.Delta
			applied = append(applied, e.Type)
		}
	}

	var result RescoreResult
	result.Applied = applied

	if totalDelta > 0 {
		err = tx.QueryRow(ctx, `
			UPDATE prospects
			SET quality_score = LEAST(COALESCE(quality_score, 0) + $2, 100),
			    score_version = score_version + 1,
			    updated_at = now()
			WHERE id = $1
			RETURNING quality_score, score_version`, prospectID, totalDelta).
			Scan(&result.Score, &result.ScoreVersion)
	} else {
		err = tx.QueryRow(ctx, `
			SELECT COALESCE(quality_score, 0), score_version FROM prospects WHERE id = $1`,
			prospectID).Scan(&result.Score, &result.ScoreVersion)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return RescoreResult{}, apperr.NotFound("prospect not found")
	}
	if err != nil {
		return RescoreResult{}, fmt.Errorf("apply rescore: %w", err)
	}

	if totalDelta > 0 {
		if _, err := tx.Exec(ctx, `UPDATE prospects SET tier = $2 WHERE id = $1`,
			prospectID, tierFor(result.Score)); err != nil {
			return RescoreResult{}, fmt.Errorf("update tier: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return RescoreResult{}, apperr.Wrap(apperr.KindUnavailable, "rescore commit failed", err)
	}
	return result, nil
}
