// Package repository implements the credit ledger store. It is the only
// code allowed to mutate requester balances, and every mutation lands in
// the append-only transaction log within the same database transaction.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadgate_backend/internal/ledger/ledgererr"
	"leadgate_backend/platform/apperr"
)

const pgUniqueViolation = "23505"

// Account is a requester's credit account.
type Account struct {
	ID            uuid.UUID
	Balance       int64
	TotalDebited  int64
	TotalCredited int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Transaction is one append-only ledger entry. Delta is signed: negative
// for debits, positive for credits.
type Transaction struct {
	ID             uuid.UUID
	RequesterID    uuid.UUID
	Delta          int64
	Reason         string
	IdempotencyKey string
	BalanceAfter   int64
	CreatedAt      time.Time
}

// MutationResult is the outcome of a debit or credit. Replayed means the
// idempotency key was already spent and the original outcome is returned.
type MutationResult struct {
	TransactionID uuid.UUID
	BalanceAfter  int64
	Replayed      bool
}

// Repository is the pgx-backed ledger store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a ledger repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetAccount fetches a requester account.
func (r *Repository) GetAccount(ctx context.Context, requesterID uuid.UUID) (Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, balance, total_debited, total_credited, created_at, updated_at
		FROM requester_accounts
		WHERE id = $1`, requesterID).
		Scan(&a.ID, &a.Balance, &a.TotalDebited, &a.TotalCredited, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, apperr.NotFound("requester account not found")
	}
	if err != nil {
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// EnsureAccount creates the account with a zero balance if it does not
// exist yet. Used by the top-up flow only.
func (r *Repository) EnsureAccount(ctx context.Context, requesterID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO requester_accounts (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING`, requesterID)
	if err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}
	return nil
}

// ListTransactions returns the requester's ledger entries, newest first.
func (r *Repository) ListTransactions(ctx context.Context, requesterID uuid.UUID, limit, offset int) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, requester_id, delta, reason, idempotency_key, balance_after, created_at
		FROM ledger_transactions
		WHERE requester_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, requesterID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.RequesterID, &t.Delta, &t.Reason, &t.IdempotencyKey, &t.BalanceAfter, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// Debit removes amount credits from the requester's balance in a single
// transaction. A replayed idempotency key returns the original result
// without mutating anything.
func (r *Repository) Debit(ctx context.Context, requesterID uuid.UUID, amount int64, idempotencyKey, reason string) (MutationResult, error) {
	return r.mutate(ctx, requesterID, -amount, idempotencyKey, reason)
}

// Credit adds amount credits. Shares the idempotency discipline of Debit.
func (r *Repository) Credit(ctx context.Context, requesterID uuid.UUID, amount int64, idempotencyKey, reason string) (MutationResult, error) {
	return r.mutate(ctx, requesterID, amount, idempotencyKey, reason)
}

func (r *Repository) mutate(ctx context.Context, requesterID uuid.UUID, delta int64, idempotencyKey, reason string) (MutationResult, error) {
	if delta == 0 {
		return MutationResult{}, apperr.Validation("ledger delta must be non-zero")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return MutationResult{}, apperr.Wrap(apperr.KindUnavailable, "ledger store unavailable", err)
	}
	defer tx.Rollback(ctx)

	result, err := r.mutateInTx(ctx, tx, requesterID, delta, idempotencyKey, reason)
	if errors.Is(err, ledgererr.ErrConflict) {
		// Lost the idempotency-key race. The winner may already be
		// committed; if so, replay its outcome.
		_ = tx.Rollback(ctx)
		if winner, found, lookupErr := r.FindByKey(ctx, idempotencyKey); lookupErr == nil && found {
			return MutationResult{TransactionID: winner.ID, BalanceAfter: winner.BalanceAfter, Replayed: true}, nil
		}
		return MutationResult{}, ledgererr.ErrConflict
	}
	if err != nil {
		return MutationResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return MutationResult{}, apperr.Wrap(apperr.KindUnavailable, "ledger commit failed", err)
	}
	return result, nil
}

// DebitInTx performs a debit inside a caller-owned transaction. Bulk
// unlock uses this to make N debits and N entitlements all-or-nothing.
func (r *Repository) DebitInTx(ctx context.Context, tx pgx.Tx, requesterID uuid.UUID, amount int64, idempotencyKey, reason string) (MutationResult, error) {
	return r.mutateInTx(ctx, tx, requesterID, -amount, idempotencyKey, reason)
}

func (r *Repository) mutateInTx(ctx context.Context, tx pgx.Tx, requesterID uuid.UUID, delta int64, idempotencyKey, reason string) (MutationResult, error) {
	// Replay check first: a known key returns the original outcome.
	var existing Transaction
	err := tx.QueryRow(ctx, `
		SELECT id, balance_after FROM ledger_transactions WHERE idempotency_key = $1`,
		idempotencyKey).Scan(&existing.ID, &existing.BalanceAfter)
	if err == nil {
		return MutationResult{TransactionID: existing.ID, BalanceAfter: existing.BalanceAfter, Replayed: true}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return MutationResult{}, fmt.Errorf("idempotency lookup: %w", err)
	}

	var balanceAfter int64
	if delta < 0 {
		amount := -delta
		// Atomic conditional update: zero rows means the balance cannot
		// cover the debit, which keeps the balance non-negative even
		// under concurrent debits.
		err = tx.QueryRow(ctx, `
			UPDATE requester_accounts
			SET balance = balance - $2, total_debited = total_debited + $2, updated_at = now()
			WHERE id = $1 AND balance >= $2
			RETURNING balance`, requesterID, amount).Scan(&balanceAfter)
		if errors.Is(err, pgx.ErrNoRows) {
			return MutationResult{}, r.insufficientOrMissing(ctx, tx, requesterID, amount)
		}
	} else {
		err = tx.QueryRow(ctx, `
			UPDATE requester_accounts
			SET balance = balance + $2, total_credited = total_credited + $2, updated_at = now()
			WHERE id = $1
			RETURNING balance`, requesterID, delta).Scan(&balanceAfter)
		if errors.Is(err, pgx.ErrNoRows) {
			return MutationResult{}, apperr.NotFound("requester account not found")
		}
	}
	if err != nil {
		return MutationResult{}, fmt.Errorf("apply balance change: %w", err)
	}

	var txnID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO ledger_transactions (requester_id, delta, reason, idempotency_key, balance_after)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`, requesterID, delta, reason, idempotencyKey, balanceAfter).Scan(&txnID)
	if isUniqueViolation(err) {
		return MutationResult{}, ledgererr.ErrConflict
	}
	if err != nil {
		return MutationResult{}, fmt.Errorf("insert ledger transaction: %w", err)
	}

	return MutationResult{TransactionID: txnID, BalanceAfter: balanceAfter}, nil
}

func (r *Repository) insufficientOrMissing(ctx context.Context, tx pgx.Tx, requesterID uuid.UUID, required int64) error {
	var balance int64
	err := tx.QueryRow(ctx, `SELECT balance FROM requester_accounts WHERE id = $1`, requesterID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("requester account not found")
	}
	if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	return &ledgererr.InsufficientCreditsError{Balance: balance, Required: required}
}

// FindByKey looks up the committed transaction for an idempotency key.
// The unlock coordinator uses it to recognize debits that were reversed
// by a compensating credit.
func (r *Repository) FindByKey(ctx context.Context, idempotencyKey string) (Transaction, bool, error) {
	var t Transaction
	err := r.pool.QueryRow(ctx, `
		SELECT id, requester_id, delta, reason, idempotency_key, balance_after, created_at
		FROM ledger_transactions
		WHERE idempotency_key = $1`, idempotencyKey).
		Scan(&t.ID, &t.RequesterID, &t.Delta, &t.Reason, &t.IdempotencyKey, &t.BalanceAfter, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, false, nil
	}
	if err != nil {
		return Transaction{}, false, err
	}
	return t, true, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
