// Package handler exposes the scoring HTTP endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadgate_backend/internal/scoring/engine"
	"leadgate_backend/internal/scoring/service"
	"leadgate_backend/internal/scoring/transport"
	"leadgate_backend/platform/httpkit"
	"leadgate_backend/platform/validator"
)

// Handler handles scoring requests.
type Handler struct {
	service  *service.Service
	validate *validator.Validator
}

// New creates a scoring handler.
func New(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{service: svc, validate: validate}
}

// Score handles POST /score. Scoring is side-effect free: nothing is
// persisted, so a degraded AI provider never turns into a request error.
func (h *Handler) Score(c *gin.Context) {
	var req transport.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.service.Score(c.Request.Context(), req.ToProspect())
	c.JSON(http.StatusOK, transport.FromResult(result))
}

// ScoreBatch handles POST /score/batch.
func (h *Handler) ScoreBatch(c *gin.Context) {
	var req transport.ScoreBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inputs := make([]engine.Prospect, 0, len(req.Prospects))
	for _, p := range req.Prospects {
		inputs = append(inputs, p.ToProspect())
	}

	results, err := h.service.ScoreBatch(c.Request.Context(), inputs)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	responses := make([]transport.ScoreResponse, 0, len(results))
	for _, r := range results {
		responses = append(responses, transport.FromResult(r))
	}
	c.JSON(http.StatusOK, gin.H{"results": responses})
}
