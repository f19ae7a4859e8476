// Package prospects wires prospect storage, masking and HTTP endpoints.
package prospects

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "leadgate_backend/internal/http"
	"leadgate_backend/internal/prospects/handler"
	"leadgate_backend/internal/prospects/repository"
	"leadgate_backend/internal/prospects/service"
	"leadgate_backend/platform/events"
	"leadgate_backend/platform/logger"
	"leadgate_backend/platform/validator"
)

// Module bundles the prospects feature.
type Module struct {
	service *service.Service
	handler *handler.Handler
}

// NewModule assembles the prospects module. The entitlement reader comes
// from the unlock module's store; the scorer from the scoring module.
func NewModule(pool *pgxpool.Pool, entitlements service.EntitlementReader, scorer service.Scorer, bus events.Bus, region string, validate *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), entitlements, scorer, bus, region, log)
	return &Module{
		service: svc,
		handler: handler.New(svc, validate),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "prospects" }

// Service exposes prospect views to the unlock coordinator.
func (m *Module) Service() *service.Service { return m.service }

// RegisterRoutes mounts the prospect endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/preview", m.handler.Preview)

	group := ctx.Protected.Group("/prospects")
	group.POST("", m.handler.Import)
	group.GET("", m.handler.List)
	group.GET("/:id", m.handler.Get)
}
