// Package handler exposes the credits HTTP endpoints.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"leadgate_backend/internal/ledger/service"
	"leadgate_backend/internal/ledger/transport"
	"leadgate_backend/platform/httpkit"
	"leadgate_backend/platform/validator"
)

// Handler handles credit account requests.
type Handler struct {
	service  *service.Service
	validate *validator.Validator
}

// New creates a credits handler.
func New(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{service: svc, validate: validate}
}

// Balance handles GET /credits/balance.
func (h *Handler) Balance(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	account, err := h.service.GetAccount(c.Request.Context(), id.RequesterID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.FromAccount(account))
}

// Topup handles POST /credits/topup.
func (h *Handler) Topup(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Topup(c.Request.Context(), id.RequesterID(), req.Amount, req.Reference)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.TopupResponse{Balance: result.BalanceAfter, Replayed: result.Replayed})
}

// Transactions handles GET /credits/transactions.
func (h *Handler) Transactions(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txns, err := h.service.ListTransactions(c.Request.Context(), id.RequesterID(), limit, offset)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"transactions": transport.FromTransactions(txns)})
}
