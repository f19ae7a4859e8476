package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"leadgate_backend/internal/scoring/ai"
	"leadgate_backend/internal/scoring/engine"
	"leadgate_backend/platform/logger"
)

type fakeAssessor struct {
	assessment *ai.Assessment
	err        error
	delay      time.Duration
	calls      int
}

func (f *fakeAssessor) Assess(ctx context.Context, p engine.Prospect) (*ai.Assessment, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.assessment, nil
}

func newTestService(assessor Assessor) *Service {
	return New(engine.New("NL"), assessor, 50*time.Millisecond, logger.New("test"))
}

func TestScoreUsesAIResult(t *testing.T) {
	assessor := &fakeAssessor{assessment: &ai.Assessment{
		QualityScore:        72,
		QualificationReason: "clear project and budget",
		BuyingIntent:        "high",
	}}
	svc := newTestService(assessor)

	result := svc.Score(context.Background(), engine.Prospect{Company: "Acme"})

	if result.UsedFallback {
		t.Fatal("UsedFallback = true, want false when AI succeeds")
	}
	if result.Score != 72 {
		t.Errorf("score = %d, want 72", result.Score)
	}
	if result.Tier != engine.TierWarm {
		t.Errorf("tier = %q, want %q", result.Tier, engine.TierWarm)
	}
}

func TestScoreFallsBackOnAIError(t *testing.T) {
	assessor := &fakeAssessor{err: errors.New("quota exceeded")}
	svc := newTestService(assessor)

	result := svc.Score(context.Background(), engine.Prospect{Email: "k.jansen@jansenbouw.nl"})

	if !result.UsedFallback {
		t.Fatal("UsedFallback = false, want true after AI failure")
	}
	if result.Score < 0 || result.Score > 100 {
		t.Errorf("fallback score %d out of [0,100]", result.Score)
	}
}

func TestScoreFallsBackOnAITimeout(t *testing.T) {
	assessor := &fakeAssessor{
		delay:      time.Second,
		assessment: &ai.Assessment{QualityScore: 90},
	}
	svc := newTestService(assessor)

	start := time.Now()
	result := svc.Score(context.Background(), engine.Prospect{})

	if !result.UsedFallback {
		t.Fatal("UsedFallback = false, want true after AI timeout")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("score took %v, want prompt fallback after the 50ms timeout", elapsed)
	}
}

func TestScoreWithoutAssessorUsesFallback(t *testing.T) {
	svc := newTestService(nil)

	result := svc.Score(context.Background(), engine.Prospect{})

	if !result.UsedFallback {
		t.Fatal("UsedFallback = false, want true when no assessor is configured")
	}
}

func TestScoreBatch(t *testing.T) {
	assessor := &fakeAssessor{err: errors.New("unreachable")}
	svc := newTestService(assessor)

	prospects := []engine.Prospect{
		{Email: "a@acme.nl"},
		{},
		{Phone: "+31612345678"},
	}

	results, err := svc.ScoreBatch(context.Background(), prospects)
	if err != nil {
		t.Fatalf("ScoreBatch: %v", err)
	}
	if len(results) != len(prospects) {
		t.Fatalf("got %d results, want %d", len(results), len(prospects))
	}
	for i, r := range results {
		if !r.UsedFallback {
			t.Errorf("result %d: UsedFallback = false, want true", i)
		}
	}
}
