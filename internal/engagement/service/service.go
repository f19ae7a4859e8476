// Package service applies engagement events to prospect scores.
package service

import (
	"context"

	"github.com/google/uuid"

	"leadgate_backend/internal/engagement/repository"
	"leadgate_backend/internal/engagement/rescorer"
	"leadgate_backend/internal/scoring/engine"
	"leadgate_backend/platform/logger"
)

// Store persists engagement rescores, implemented by the pgx repository.
type Store interface {
	ApplyEvents(ctx context.Context, prospectID uuid.UUID, events []rescorer.Applied, tierFor func(int) string) (repository.RescoreResult, error)
}

// Service turns raw interaction events into score adjustments.
type Service struct {
	store Store
	log   *logger.Logger
}

// New creates an engagement service.
func New(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// Apply rescores the prospect for the given event types. Unknown types
// are dropped with a warning; duplicates within the batch collapse to one
// application per type, and the store skips types applied in earlier
// batches.
func (s *Service) Apply(ctx context.Context, prospectID uuid.UUID, eventTypes []string) (repository.RescoreResult, error) {
	seen := make(map[rescorer.EventType]bool, len(eventTypes))
	events := make([]rescorer.Applied, 0, len(eventTypes))
	for _, raw := range eventTypes {
		t := rescorer.EventType(raw)
		delta, known := rescorer.Delta(t)
		if !known {
			s.log.Warn("ignoring unknown engagement event type",
				"prospectId", prospectID, "type", raw)
			continue
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		events = append(events, rescorer.Applied{Type: t, Delta: delta})
	}

	result, err := s.store.ApplyEvents(ctx, prospectID, events, func(score int) string {
		return string(engine.TierForScore(score))
	})
	if err != nil {
		return repository.RescoreResult{}, err
	}

	if len(result.Applied) > 0 {
		s.log.Info("prospect rescored from engagement",
			"prospectId", prospectID, "score", result.Score,
			"scoreVersion", result.ScoreVersion, "applied", result.Applied)
	}
	return result, nil
}
