// Package service implements prospect business logic: import with
// immediate scoring, masked previews and the single reveal decision point.
package service

import (
	"context"

	"github.com/google/uuid"

	domainevents "leadgate_backend/internal/events"
	"leadgate_backend/internal/prospects/repository"
	"leadgate_backend/internal/prospects/visibility"
	"leadgate_backend/internal/scoring/engine"
	"leadgate_backend/platform/events"
	"leadgate_backend/platform/logger"
)

// Store is the prospect persistence interface, implemented by the
// pgx-backed repository.
type Store interface {
	Create(ctx context.Context, p repository.Prospect) (repository.Prospect, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Prospect, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]repository.Prospect, error)
	List(ctx context.Context, limit, offset int) ([]repository.Prospect, error)
	SetScore(ctx context.Context, id uuid.UUID, score int, tier, rationale string, usedFallback bool) (int, error)
}

// EntitlementReader reports whether a requester has unlocked a prospect.
// Implemented by the unlock module's store; injected to avoid a direct
// module dependency.
type EntitlementReader interface {
	Exists(ctx context.Context, requesterID, prospectID uuid.UUID) (bool, error)
	EntitledSet(ctx context.Context, requesterID uuid.UUID, prospectIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

// Scorer produces a quality score for a prospect. Implemented by the
// scoring service.
type Scorer interface {
	Score(ctx context.Context, p engine.Prospect) engine.Result
}

// View is a prospect projection for one requester. Contact fields are
// masked unless Revealed is true.
type View struct {
	ID             uuid.UUID
	Company        string
	Industry       string
	Location       string
	CompanySize    string
	ContactName    string
	Email          string
	Phone          string
	QualityScore   *int
	Tier           string
	ScoreVersion   int
	ScoreRationale string
	UsedFallback   bool
	Revealed       bool
}

// Service implements prospect use cases.
type Service struct {
	repo         Store
	entitlements EntitlementReader
	scorer       Scorer
	bus          events.Bus
	region       string
	log          *logger.Logger
}

// New creates a prospect service.
func New(repo Store, entitlements EntitlementReader, scorer Scorer, bus events.Bus, region string, log *logger.Logger) *Service {
	return &Service{
		repo:         repo,
		entitlements: entitlements,
		scorer:       scorer,
		bus:          bus,
		region:       region,
		log:          log,
	}
}

// Import stores a new prospect and scores it synchronously. The score is
// computed outside any transaction; only the finished result is persisted.
func (s *Service) Import(ctx context.Context, input engine.Prospect) (repository.Prospect, engine.Result, error) {
	created, err := s.repo.Create(ctx, repository.Prospect{
		Company:     input.Company,
		Industry:    input.Industry,
		Location:    input.Location,
		CompanySize: input.CompanySize,
		ContactName: input.ContactName,
		Email:       input.Email,
		Phone:       input.Phone,
		Responses:   input.Responses,
	})
	if err != nil {
		return repository.Prospect{}, engine.Result{}, err
	}

	result := s.scorer.Score(ctx, input)

	version, err := s.repo.SetScore(ctx, created.ID, result.Score, string(result.Tier), result.Rationale, result.UsedFallback)
	if err != nil {
		return repository.Prospect{}, engine.Result{}, err
	}

	created.QualityScore = &result.Score
	created.Tier = string(result.Tier)
	created.ScoreRationale = result.Rationale
	created.UsedFallback = result.UsedFallback
	created.ScoreVersion = version

	s.bus.Publish(ctx, domainevents.NewProspectScored(created.ID, result.Score, string(result.Tier), result.UsedFallback))

	return created, result, nil
}

// Preview returns masked views for the given prospects, with the revealed
// flag set for pairs the requester has already unlocked.
func (s *Service) Preview(ctx context.Context, requesterID uuid.UUID, prospectIDs []uuid.UUID) ([]View, error) {
	prospects, err := s.repo.ListByIDs(ctx, prospectIDs)
	if err != nil {
		return nil, err
	}

	entitled, err := s.entitlements.EntitledSet(ctx, requesterID, prospectIDs)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(prospects))
	for _, p := range prospects {
		views = append(views, s.project(p, entitled[p.ID]))
	}
	return views, nil
}

// List returns masked views over a page of prospects.
func (s *Service) List(ctx context.Context, requesterID uuid.UUID, limit, offset int) ([]View, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	prospects, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(prospects))
	for _, p := range prospects {
		ids = append(ids, p.ID)
	}

	entitled, err := s.entitlements.EntitledSet(ctx, requesterID, ids)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(prospects))
	for _, p := range prospects {
		views = append(views, s.project(p, entitled[p.ID]))
	}
	return views, nil
}

// Reveal is the only code path that returns un-redacted contact fields.
// It derives the decision from entitlement existence, never from a
// caller-supplied flag.
func (s *Service) Reveal(ctx context.Context, requesterID, prospectID uuid.UUID) (View, error) {
	p, err := s.repo.GetByID(ctx, prospectID)
	if err != nil {
		return View{}, err
	}

	entitled, err := s.entitlements.Exists(ctx, requesterID, prospectID)
	if err != nil {
		return View{}, err
	}

	return s.project(p, entitled), nil
}

// project builds the requester-facing view. revealed comes from the
// entitlement store exclusively.
func (s *Service) project(p repository.Prospect, revealed bool) View {
	view := View{
		ID:             p.ID,
		Company:        p.Company,
		Industry:       p.Industry,
		Location:       p.Location,
		CompanySize:    p.CompanySize,
		QualityScore:   p.QualityScore,
		Tier:           p.Tier,
		ScoreVersion:   p.ScoreVersion,
		ScoreRationale: p.ScoreRationale,
		UsedFallback:   p.UsedFallback,
		Revealed:       revealed,
	}

	if revealed {
		view.ContactName = p.ContactName
		view.Email = p.Email
		view.Phone = p.Phone
		return view
	}

	masked := visibility.Mask(p.ContactName, p.Email, p.Phone, s.region)
	view.ContactName = masked.ContactName
	view.Email = masked.Email
	view.Phone = masked.Phone
	return view
}
