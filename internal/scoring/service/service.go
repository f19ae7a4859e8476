// Package service orchestrates prospect scoring: AI first, deterministic
// rubric on any AI failure.
package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"leadgate_backend/internal/scoring/ai"
	"leadgate_backend/internal/scoring/engine"
	"leadgate_backend/platform/logger"
)

// maxConcurrentScores bounds parallel AI calls during batch scoring.
const maxConcurrentScores = 4

// Assessor is the AI scoring provider. Implemented by ai.Client; tests
// substitute a fake.
type Assessor interface {
	Assess(ctx context.Context, p engine.Prospect) (*ai.Assessment, error)
}

// Service scores prospects. A nil assessor disables the AI path entirely.
type Service struct {
	engine    *engine.Engine
	assessor  Assessor
	aiTimeout time.Duration
	log       *logger.Logger
}

// New creates a scoring service.
func New(eng *engine.Engine, assessor Assessor, aiTimeout time.Duration, log *logger.Logger) *Service {
	return &Service{
		engine:    eng,
		assessor:  assessor,
		aiTimeout: aiTimeout,
		log:       log,
	}
}

// Score produces a quality score for the prospect. AI failures are
// recovered locally: the caller only sees them as UsedFallback=true.
func (s *Service) Score(ctx context.Context, p engine.Prospect) engine.Result {
	if s.assessor != nil {
		aiCtx, cancel := context.WithTimeout(ctx, s.aiTimeout)
		assessment, err := s.assessor.Assess(aiCtx, p)
		cancel()

		if err == nil {
			return resultFromAssessment(assessment)
		}
		s.log.Warn("ai scoring failed, using deterministic fallback", "error", err)
	}

	result := s.engine.Score(p)
	result.UsedFallback = true
	return result
}

// ScoreBatch scores multiple prospects concurrently. Individual results
// never fail (the fallback absorbs AI errors), so the only returned error
// is context cancellation.
func (s *Service) ScoreBatch(ctx context.Context, prospects []engine.Prospect) ([]engine.Result, error) {
	results := make([]engine.Result, len(prospects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentScores)

	for i, p := range prospects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.Score(gctx, p)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func resultFromAssessment(a *ai.Assessment) engine.Result {
	signals := a.KeySignals
	if a.BuyingIntent != "" {
		signals = append(signals, "buying intent: "+a.BuyingIntent)
	}

	return engine.Result{
		Score:     a.QualityScore,
		Tier:      engine.TierForScore(a.QualityScore),
		Rationale: a.QualificationReason,
		Signals:   signals,
		RedFlags:  a.RedFlags,
	}
}
