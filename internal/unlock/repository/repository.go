// Package repository implements the entitlement store. Entitlements are
// written exactly once per (requester, prospect) pair, enforced by the
// composite primary key, and never updated or deleted.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadgate_backend/internal/ledger/ledgererr"
	ledgerrepo "leadgate_backend/internal/ledger/repository"
	"leadgate_backend/platform/apperr"
)

const unlockReason = "prospect_unlock"

// Entitlement records that a requester has unlocked a prospect.
type Entitlement struct {
	RequesterID    uuid.UUID
	ProspectID     uuid.UUID
	Cost           int64
	IdempotencyKey string
	CreatedAt      time.Time
}

// Repository is the pgx-backed entitlement store. It holds the ledger
// repository so bulk unlocks can debit and entitle in one transaction.
type Repository struct {
	pool   *pgxpool.Pool
	ledger *ledgerrepo.Repository
}

// New creates an entitlement repository.
func New(pool *pgxpool.Pool, ledgerRepo *ledgerrepo.Repository) *Repository {
	return &Repository{pool: pool, ledger: ledgerRepo}
}

// Exists reports whether the pair is already entitled.
func (r *Repository) Exists(ctx context.Context, requesterID, prospectID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM unlock_entitlements WHERE requester_id = $1 AND prospect_id = $2
		)`, requesterID, prospectID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("entitlement exists: %w", err)
	}
	return exists, nil
}

// EntitledSet returns which of the given prospects the requester has
// already unlocked.
func (r *Repository) EntitledSet(ctx context.Context, requesterID uuid.UUID, prospectIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	entitled := make(map[uuid.UUID]bool, len(prospectIDs))
	if len(prospectIDs) == 0 {
		return entitled, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT prospect_id FROM unlock_entitlements
		WHERE requester_id = $1 AND prospect_id = ANY($2)`, requesterID, prospectIDs)
	if err != nil {
		return nil, fmt.Errorf("entitled set: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan entitlement: %w", err)
		}
		entitled[id] = true
	}
	return entitled, rows.Err()
}

// Get fetches an entitlement.
func (r *Repository) Get(ctx context.Context, requesterID, prospectID uuid.UUID) (Entitlement, error) {
	var e Entitlement
	err := r.pool.QueryRow(ctx, `
		SELECT requester_id, prospect_id, cost, idempotency_key, created_at
		FROM unlock_entitlements
		WHERE requester_id = $1 AND prospect_id = $2`, requesterID, prospectID).
		Scan(&e.RequesterID, &e.ProspectID, &e.Cost, &e.IdempotencyKey, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entitlement{}, apperr.NotFound("entitlement not found")
	}
	if err != nil {
		return Entitlement{}, fmt.Errorf("get entitlement: %w", err)
	}
	return e, nil
}

// Create inserts the entitlement. Returns false when the pair already
// exists: a concurrent unlock won the race, which callers treat as
// already-unlocked, never as a failure.
func (r *Repository) Create(ctx context.Context, requesterID, prospectID uuid.UUID, cost int64, idempotencyKey string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO unlock_entitlements (requester_id, prospect_id, cost, idempotency_key)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (requester_id, prospect_id) DO NOTHING`,
		requesterID, prospectID, cost, idempotencyKey)
	if err != nil {
		return false, fmt.Errorf("create entitlement: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// BulkUnlock debits and entitles every given prospect inside a single
// database transaction, making the batch all-or-nothing. A pair that
// became entitled concurrently aborts with ledgererr.ErrConflict so the
// caller can recompute the batch and retry.
func (r *Repository) BulkUnlock(ctx context.Context, requesterID uuid.UUID, prospectIDs []uuid.UUID, costEach int64, keyFor func(uuid.UUID) string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "entitlement store unavailable", err)
	}
	defer tx.Rollback(ctx)

	for _, prospectID := range prospectIDs {
		if _, err := r.ledger.DebitInTx(ctx, tx, requesterID, costEach, keyFor(prospectID), unlockReason); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO unlock_entitlements (requester_id, prospect_id, cost, idempotency_key)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (requester_id, prospect_id) DO NOTHING`,
			requesterID, prospectID, costEach, keyFor(prospectID))
		if err != nil {
			return fmt.Errorf("bulk entitlement insert: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ledgererr.ErrConflict
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.KindUnavailable, "bulk unlock commit failed", err)
	}
	return nil
}
