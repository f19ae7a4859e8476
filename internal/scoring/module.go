// Package scoring wires the scoring engine, AI client and HTTP endpoints.
package scoring

import (
	"time"

	apphttp "leadgate_backend/internal/http"
	"leadgate_backend/internal/scoring/engine"
	"leadgate_backend/internal/scoring/handler"
	"leadgate_backend/internal/scoring/service"
	"leadgate_backend/platform/logger"
	"leadgate_backend/platform/validator"
)

// Module bundles the scoring feature.
type Module struct {
	service *service.Service
	handler *handler.Handler
}

// NewModule assembles the scoring module. assessor may be nil when no AI
// provider is configured; scoring then always uses the deterministic rubric.
func NewModule(region string, assessor service.Assessor, aiTimeout time.Duration, validate *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(engine.New(region), assessor, aiTimeout, log)
	return &Module{
		service: svc,
		handler: handler.New(svc, validate),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "scoring" }

// Service exposes the scoring service to other modules.
func (m *Module) Service() *service.Service { return m.service }

// RegisterRoutes mounts the scoring endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/score")
	group.POST("", m.handler.Score)
	group.POST("/batch", m.handler.ScoreBatch)
}
