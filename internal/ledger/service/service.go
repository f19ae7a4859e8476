// Package service exposes ledger operations to handlers and to the unlock
// coordinator.
package service

import (
	"context"

	"github.com/google/uuid"

	domainevents "leadgate_backend/internal/events"
	"leadgate_backend/internal/ledger/repository"
	"leadgate_backend/platform/events"
	"leadgate_backend/platform/logger"
)

const topupReason = "credit_topup"

// Service wraps the ledger repository with logging and domain events.
type Service struct {
	repo *repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a ledger service.
func New(repo *repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// GetAccount returns the requester's account.
func (s *Service) GetAccount(ctx context.Context, requesterID uuid.UUID) (repository.Account, error) {
	return s.repo.GetAccount(ctx, requesterID)
}

// ListTransactions returns the requester's ledger history, newest first.
func (s *Service) ListTransactions(ctx context.Context, requesterID uuid.UUID, limit, offset int) ([]repository.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListTransactions(ctx, requesterID, limit, offset)
}

// Debit removes credits from the requester's balance. Callers outside the
// unlock coordinator must not use this for unlocks.
func (s *Service) Debit(ctx context.Context, requesterID uuid.UUID, amount int64, idempotencyKey, reason string) (repository.MutationResult, error) {
	return s.repo.Debit(ctx, requesterID, amount, idempotencyKey, reason)
}

// Credit adds credits to the requester's balance.
func (s *Service) Credit(ctx context.Context, requesterID uuid.UUID, amount int64, idempotencyKey, reason string) (repository.MutationResult, error) {
	return s.repo.Credit(ctx, requesterID, amount, idempotencyKey, reason)
}

// FindTransaction looks up the committed transaction for an idempotency key.
func (s *Service) FindTransaction(ctx context.Context, idempotencyKey string) (repository.Transaction, bool, error) {
	return s.repo.FindByKey(ctx, idempotencyKey)
}

// Topup credits the requester from a payment-provider confirmation. The
// provider reference doubles as the idempotency key so webhook retries
// never credit twice. First top-up creates the account.
func (s *Service) Topup(ctx context.Context, requesterID uuid.UUID, amount int64, providerReference string) (repository.MutationResult, error) {
	if err := s.repo.EnsureAccount(ctx, requesterID); err != nil {
		return repository.MutationResult{}, err
	}

	result, err := s.repo.Credit(ctx, requesterID, amount, "topup:"+providerReference, topupReason)
	if err != nil {
		return repository.MutationResult{}, err
	}

	if !result.Replayed {
		s.log.Info("credits topped up",
			"requesterId", requesterID, "amount", amount, "balance", result.BalanceAfter)
		s.bus.Publish(ctx, domainevents.NewCreditsToppedUp(requesterID, amount, result.BalanceAfter))
	}
	return result, nil
}
