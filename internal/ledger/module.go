// Package ledger wires the credit ledger: the balance store, the credits
// endpoints and the debit/credit operations used by the unlock coordinator.
package ledger

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "leadgate_backend/internal/http"
	"leadgate_backend/internal/ledger/handler"
	"leadgate_backend/internal/ledger/repository"
	"leadgate_backend/internal/ledger/service"
	"leadgate_backend/platform/events"
	"leadgate_backend/platform/logger"
	"leadgate_backend/platform/validator"
)

// Module bundles the ledger feature.
type Module struct {
	repo    *repository.Repository
	service *service.Service
	handler *handler.Handler
}

// NewModule assembles the ledger module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, validate *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	return &Module{
		repo:    repo,
		service: svc,
		handler: handler.New(svc, validate),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "ledger" }

// Service exposes ledger operations to the unlock coordinator.
func (m *Module) Service() *service.Service { return m.service }

// Repository exposes the store for transactional composition in bulk unlock.
func (m *Module) Repository() *repository.Repository { return m.repo }

// RegisterRoutes mounts the credits endpoints.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/credits")
	group.GET("/balance", m.handler.Balance)
	group.POST("/topup", m.handler.Topup)
	group.GET("/transactions", m.handler.Transactions)
}
