package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"leadgate_backend/internal/prospects/repository"
	"leadgate_backend/internal/scoring/engine"
	"leadgate_backend/platform/apperr"
	"leadgate_backend/platform/events"
	"leadgate_backend/platform/logger"
)

type fakeStore struct {
	prospects map[uuid.UUID]repository.Prospect
}

func newFakeStore() *fakeStore {
	return &fakeStore{prospects: make(map[uuid.UUID]repository.Prospect)}
}

func (f *fakeStore) Create(_ context.Context, p repository.Prospect) (repository.Prospect, error) {
	p.ID = uuid.New()
	f.prospects[p.ID] = p
	return p, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Prospect, error) {
	p, ok := f.prospects[id]
	if !ok {
		return repository.Prospect{}, apperr.NotFound("prospect not found")
	}
	return p, nil
}

func (f *fakeStore) ListByIDs(_ context.Context, ids []uuid.UUID) ([]repository.Prospect, error) {
	var out []repository.Prospect
	for _, id := range ids {
		if p, ok := f.prospects[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) List(_ context.Context, limit, offset int) ([]repository.Prospect, error) {
	var out []repository.Prospect
	for _, p := range f.prospects {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) SetScore(_ context.Context, id uuid.UUID, score int, tier, rationale string, usedFallback bool) (int, error) {
	p, ok := f.prospects[id]
	if !ok {
		return 0, apperr.NotFound("prospect not found")
	}
	p.QualityScore = &score
	p.Tier = tier
	p.ScoreRationale = rationale
	p.UsedFallback = usedFallback
	p.ScoreVersion++
	f.prospects[id] = p
	return p.ScoreVersion, nil
}

type fakeEntitlements struct {
	pairs map[string]bool
}

func pairKey(r, p uuid.UUID) string { return r.String() + "/" + p.String() }

func (f *fakeEntitlements) Exists(_ context.Context, requesterID, prospectID uuid.UUID) (bool, error) {
	return f.pairs[pairKey(requesterID, prospectID)], nil
}

func (f *fakeEntitlements) EntitledSet(_ context.Context, requesterID uuid.UUID, prospectIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool)
	for _, id := range prospectIDs {
		if f.pairs[pairKey(requesterID, id)] {
			out[id] = true
		}
	}
	return out, nil
}

type rubricScorer struct{}

func (rubricScorer) Score(_ context.Context, p engine.Prospect) engine.Result {
	result := engine.New("NL").Score(p)
	result.UsedFallback = true
	return result
}

func newTestService(store *fakeStore, ents *fakeEntitlements) *Service {
	log := logger.New("test")
	return New(store, ents, rubricScorer{}, events.NewInMemoryBus(log), "NL", log)
}

func seedProspect(store *fakeStore) repository.Prospect {
	p := repository.Prospect{
		Company:     "Jansen Bouw",
		ContactName: "Kees Jansen",
		Email:       "k.jansen@jansenbouw.nl",
		Phone:       "+31612345678",
	}
	p.ID = uuid.New()
	store.prospects[p.ID] = p
	return p
}

func TestRevealWithoutEntitlementMasks(t *testing.T) {
	store := newFakeStore()
	ents := &fakeEntitlements{pairs: make(map[string]bool)}
	svc := newTestService(store, ents)
	p := seedProspect(store)
	requester := uuid.New()

	view, err := svc.Reveal(context.Background(), requester, p.ID)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}

	if view.Revealed {
		t.Fatal("Revealed = true without entitlement")
	}
	if view.Email == p.Email {
		t.Errorf("email not masked: %q", view.Email)
	}
	if view.Phone == p.Phone {
		t.Errorf("phone not masked: %q", view.Phone)
	}
	if strings.Contains(view.ContactName, "Jansen") {
		t.Errorf("name not masked: %q", view.ContactName)
	}
}

func TestRevealWithEntitlementReturnsFullRecord(t *testing.T) {
	store := newFakeStore()
	ents := &fakeEntitlements{pairs: make(map[string]bool)}
	svc := newTestService(store, ents)
	p := seedProspect(store)
	requester := uuid.New()
	ents.pairs[pairKey(requester, p.ID)] = true

	view, err := svc.Reveal(context.Background(), requester, p.ID)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}

	if !view.Revealed {
		t.Fatal("Revealed = false with entitlement")
	}
	if view.Email != p.Email || view.Phone != p.Phone || view.ContactName != p.ContactName {
		t.Errorf("full view differs from record: %+v", view)
	}
}

func TestPreviewSetsRevealedPerPair(t *testing.T) {
	store := newFakeStore()
	ents := &fakeEntitlements{pairs: make(map[string]bool)}
	svc := newTestService(store, ents)
	unlocked := seedProspect(store)
	locked := seedProspect(store)
	requester := uuid.New()
	ents.pairs[pairKey(requester, unlocked.ID)] = true

	views, err := svc.Preview(context.Background(), requester, []uuid.UUID{unlocked.ID, locked.ID})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d views, want 2", len(views))
	}

	byID := make(map[uuid.UUID]View)
	for _, v := range views {
		byID[v.ID] = v
	}
	if !byID[unlocked.ID].Revealed {
		t.Error("entitled prospect not revealed in preview")
	}
	if byID[locked.ID].Revealed {
		t.Error("unentitled prospect revealed in preview")
	}
}

func TestImportScoresAndPersists(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeEntitlements{pairs: make(map[string]bool)})

	created, result, err := svc.Import(context.Background(), engine.Prospect{
		Company: "Jansen Bouw",
		Email:   "k.jansen@jansenbouw.nl",
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if created.QualityScore == nil || *created.QualityScore != result.Score {
		t.Errorf("persisted score %v, want %d", created.QualityScore, result.Score)
	}
	if created.ScoreVersion != 1 {
		t.Errorf("score version = %d, want 1 after first scoring", created.ScoreVersion)
	}
	if !result.UsedFallback {
		t.Error("expected fallback scoring in test setup")
	}
}
