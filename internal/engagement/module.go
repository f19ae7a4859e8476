// Package engagement wires the engagement rescorer: event intake over
// HTTP, delivery through the queue or the in-process bus, and score
// application.
package engagement

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"leadgate_backend/internal/engagement/handler"
	"leadgate_backend/internal/engagement/repository"
	"leadgate_backend/internal/engagement/service"
	domainevents "leadgate_backend/internal/events"
	apphttp "leadgate_backend/internal/http"
	"leadgate_backend/platform/events"
	"leadgate_backend/platform/logger"
	"leadgate_backend/platform/validator"
)

// Module bundles the engagement feature.
type Module struct {
	service *service.Service
	handler *handler.Handler
}

// NewModule assembles the engagement module.
func NewModule(pool *pgxpool.Pool, enqueuer handler.Enqueuer, bus events.Bus, validate *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), log)
	return &Module{
		service: svc,
		handler: handler.New(enqueuer, bus, validate),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "engagement" }

// Service exposes the rescorer to the background worker.
func (m *Module) Service() *service.Service { return m.service }

// RegisterRoutes mounts the engagement intake endpoint.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/prospects/:id/engagement", m.handler.Intake)
}

// RegisterHandlers subscribes to the in-process delivery path used when
// the background queue is not configured.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(domainevents.EngagementRecordedEvent, events.HandlerFunc(
		func(ctx context.Context, event events.Event) error {
			recorded, ok := event.(*domainevents.EngagementRecorded)
			if !ok {
				return fmt.Errorf("unexpected event payload for %s", event.EventName())
			}
			_, err := m.service.Apply(ctx, recorded.ProspectID, recorded.Events)
			return err
		}))
}
