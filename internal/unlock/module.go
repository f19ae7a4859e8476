// Package unlock wires the unlock coordinator and its HTTP endpoint.
package unlock

import (
	apphttp "leadgate_backend/internal/http"
	ledgersvc "leadgate_backend/internal/ledger/service"
	"leadgate_backend/internal/unlock/handler"
	"leadgate_backend/internal/unlock/repository"
	"leadgate_backend/internal/unlock/service"
	"leadgate_backend/platform/events"
	"leadgate_backend/platform/logger"
	"leadgate_backend/platform/validator"
)

// Module bundles the unlock feature.
type Module struct {
	repo    *repository.Repository
	service *service.Service
	handler *handler.Handler
}

// NewModule assembles the unlock module. The entitlement repository is
// constructed by the composition root because the prospects module needs
// it as entitlement reader before this module exists.
func NewModule(repo *repository.Repository, ledgerService *ledgersvc.Service, views service.ProspectViews, bus events.Bus, cost int64, validate *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(ledgerService, repo, views, bus, cost, log)
	return &Module{
		repo:    repo,
		service: svc,
		handler: handler.New(svc, validate),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "unlock" }

// Repository exposes the entitlement store.
func (m *Module) Repository() *repository.Repository { return m.repo }

// RegisterRoutes mounts the unlock endpoint behind the requester-keyed
// rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/unlock")
	if ctx.UnlockLimiter != nil {
		group.Use(ctx.UnlockLimiter.Middleware())
	}
	group.POST("", m.handler.Unlock)
}
