// Package service implements the unlock coordinator: the only component
// that exchanges credits for entitlements, and the only caller of the
// ledger's debit operation for unlocks.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	domainevents "leadgate_backend/internal/events"
	"leadgate_backend/internal/ledger/ledgererr"
	ledgerrepo "leadgate_backend/internal/ledger/repository"
	prospectsvc "leadgate_backend/internal/prospects/service"
	"leadgate_backend/platform/apperr"
	"leadgate_backend/platform/events"
	"leadgate_backend/platform/logger"
)

const (
	unlockReason       = "prospect_unlock"
	compensationReason = "unlock_compensation"
)

// Status is the per-prospect unlock outcome.
type Status string

const (
	StatusUnlocked        Status = "unlocked"
	StatusAlreadyUnlocked Status = "already_unlocked"
)

// Ledger is the balance store, implemented by the ledger service.
type Ledger interface {
	GetAccount(ctx context.Context, requesterID uuid.UUID) (ledgerrepo.Account, error)
	Debit(ctx context.Context, requesterID uuid.UUID, amount int64, idempotencyKey, reason string) (ledgerrepo.MutationResult, error)
	Credit(ctx context.Context, requesterID uuid.UUID, amount int64, idempotencyKey, reason string) (ledgerrepo.MutationResult, error)
	FindTransaction(ctx context.Context, idempotencyKey string) (ledgerrepo.Transaction, bool, error)
}

// Entitlements is the entitlement store, implemented by the unlock
// repository.
type Entitlements interface {
	Exists(ctx context.Context, requesterID, prospectID uuid.UUID) (bool, error)
	EntitledSet(ctx context.Context, requesterID uuid.UUID, prospectIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	Create(ctx context.Context, requesterID, prospectID uuid.UUID, cost int64, idempotencyKey string) (bool, error)
	BulkUnlock(ctx context.Context, requesterID uuid.UUID, prospectIDs []uuid.UUID, costEach int64, keyFor func(uuid.UUID) string) error
}

// ProspectViews resolves requester-facing prospect views. Reveal derives
// visibility from entitlement existence, so calling it after a successful
// unlock yields the full record.
type ProspectViews interface {
	Reveal(ctx context.Context, requesterID, prospectID uuid.UUID) (prospectsvc.View, error)
}

// Outcome is the result for one prospect in an unlock request.
type Outcome struct {
	ProspectID uuid.UUID
	Status     Status
	View       prospectsvc.View
}

// Service is the unlock coordinator.
type Service struct {
	ledger       Ledger
	entitlements Entitlements
	views        ProspectViews
	bus          events.Bus
	cost         int64
	log          *logger.Logger
}

// New creates the coordinator. cost is the fixed per-unlock price in credits.
func New(ledgerStore Ledger, entitlements Entitlements, views ProspectViews, bus events.Bus, cost int64, log *logger.Logger) *Service {
	return &Service{
		ledger:       ledgerStore,
		entitlements: entitlements,
		views:        views,
		bus:          bus,
		cost:         cost,
		log:          log,
	}
}

// UnlockKey derives the deterministic idempotency key for an unlock, so a
// retried request or a concurrent duplicate can never debit twice.
func UnlockKey(requesterID, prospectID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:unlock", requesterID, prospectID)
}

func compensationKey(unlockKey string) string {
	return unlockKey + ":compensate"
}

// activeUnlockKey walks past unlock keys whose debit has already been
// reversed by a compensating credit. Without this, a retry after a
// compensated entitlement-write failure would replay the refunded debit
// and obtain the unlock for free. Each hop derives the next key from the
// compensation transaction's ID, so concurrent retries still converge on
// one shared key.
func (s *Service) activeUnlockKey(ctx context.Context, key string) (string, error) {
	for {
		comp, found, err := s.ledger.FindTransaction(ctx, compensationKey(key))
		if err != nil {
			return "", err
		}
		if !found {
			return key, nil
		}
		key = fmt.Sprintf("%s:%s", key, comp.ID)
	}
}

// Unlock exchanges credits for permanent access to one prospect.
func (s *Service) Unlock(ctx context.Context, requesterID, prospectID uuid.UUID) (Outcome, error) {
	return s.unlock(ctx, requesterID, prospectID, 1)
}

func (s *Service) unlock(ctx context.Context, requesterID, prospectID uuid.UUID, retries int) (Outcome, error) {
	// Entitlement check first: an existing pair returns the full view
	// with no ledger call at all.
	entitled, err := s.entitlements.Exists(ctx, requesterID, prospectID)
	if err != nil {
		return Outcome{}, err
	}
	if entitled {
		return s.outcome(ctx, requesterID, prospectID, StatusAlreadyUnlocked)
	}

	key, err := s.activeUnlockKey(ctx, UnlockKey(requesterID, prospectID))
	if err != nil {
		return Outcome{}, err
	}

	result, err := s.ledger.Debit(ctx, requesterID, s.cost, key, unlockReason)
	if err != nil {
		var insufficient *ledgererr.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			return Outcome{}, insufficientError(insufficient)
		}
		if errors.Is(err, ledgererr.ErrConflict) && retries > 0 {
			return s.unlock(ctx, requesterID, prospectID, retries-1)
		}
		return Outcome{}, err
	}

	created, err := s.entitlements.Create(ctx, requesterID, prospectID, s.cost, key)
	if err != nil {
		// Paid but not entitled: reverse the debit and surface the
		// failure. The distinct key suffix keeps the compensation
		// idempotent and auditable.
		s.compensate(ctx, requesterID, prospectID, key)
		return Outcome{}, apperr.Wrap(apperr.KindUnavailable, "unlock could not be completed", err)
	}

	if created && !result.Replayed {
		s.bus.Publish(ctx, domainevents.NewProspectUnlocked(requesterID, prospectID, s.cost))
	}

	status := StatusUnlocked
	if !created {
		// A concurrent unlock for the same pair won the entitlement
		// insert. Its debit and ours share the idempotency key, so
		// exactly one transaction exists either way.
		status = StatusAlreadyUnlocked
	}
	return s.outcome(ctx, requesterID, prospectID, status)
}

// BulkUnlock unlocks several prospects all-or-nothing. Already-entitled
// prospects are returned free; the batch is rejected outright when the
// balance cannot cover every remaining prospect.
func (s *Service) BulkUnlock(ctx context.Context, requesterID uuid.UUID, prospectIDs []uuid.UUID) ([]Outcome, error) {
	prospectIDs = dedupe(prospectIDs)

	for attempt := 0; ; attempt++ {
		entitled, err := s.entitlements.EntitledSet(ctx, requesterID, prospectIDs)
		if err != nil {
			return nil, err
		}

		var toUnlock []uuid.UUID
		for _, id := range prospectIDs {
			if !entitled[id] {
				toUnlock = append(toUnlock, id)
			}
		}

		if len(toUnlock) > 0 {
			total := s.cost * int64(len(toUnlock))

			account, err := s.ledger.GetAccount(ctx, requesterID)
			if err != nil {
				return nil, err
			}
			if account.Balance < total {
				return nil, insufficientError(&ledgererr.InsufficientCreditsError{
					Balance:  account.Balance,
					Required: total,
				})
			}

			keys := make(map[uuid.UUID]string, len(toUnlock))
			for _, id := range toUnlock {
				key, err := s.activeUnlockKey(ctx, UnlockKey(requesterID, id))
				if err != nil {
					return nil, err
				}
				keys[id] = key
			}

			err = s.entitlements.BulkUnlock(ctx, requesterID, toUnlock, s.cost, func(prospectID uuid.UUID) string {
				return keys[prospectID]
			})
			if err != nil {
				var insufficient *ledgererr.InsufficientCreditsError
				if errors.As(err, &insufficient) {
					// A concurrent spend drained the balance between
					// the precheck and the transaction.
					return nil, insufficientError(insufficient)
				}
				if errors.Is(err, ledgererr.ErrConflict) && attempt == 0 {
					continue
				}
				return nil, err
			}

			for _, id := range toUnlock {
				s.bus.Publish(ctx, domainevents.NewProspectUnlocked(requesterID, id, s.cost))
			}
		}

		outcomes := make([]Outcome, 0, len(prospectIDs))
		for _, id := range prospectIDs {
			status := StatusUnlocked
			if entitled[id] {
				status = StatusAlreadyUnlocked
			}
			outcome, err := s.outcome(ctx, requesterID, id, status)
			if err != nil {
				return nil, err
			}
			outcomes = append(outcomes, outcome)
		}
		return outcomes, nil
	}
}

func (s *Service) outcome(ctx context.Context, requesterID, prospectID uuid.UUID, status Status) (Outcome, error) {
	view, err := s.views.Reveal(ctx, requesterID, prospectID)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{ProspectID: prospectID, Status: status, View: view}, nil
}

func (s *Service) compensate(ctx context.Context, requesterID, prospectID uuid.UUID, unlockKey string) {
	key := compensationKey(unlockKey)
	if _, err := s.ledger.Credit(ctx, requesterID, s.cost, key, compensationReason); err != nil {
		s.log.Error("compensating credit failed, manual intervention required",
			"requesterId", requesterID, "prospectId", prospectID, "key", key, "error", err)
		return
	}

	s.log.LedgerAnomaly(compensationReason, requesterID.String(), key, s.cost)
	s.bus.Publish(ctx, domainevents.NewCompensationIssued(requesterID, prospectID, s.cost, key))
}

func insufficientError(e *ledgererr.InsufficientCreditsError) error {
	return apperr.PaymentRequired("insufficient credits").WithDetails(map[string]int64{
		"balance":   e.Balance,
		"required":  e.Required,
		"shortfall": e.Shortfall(),
	})
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
