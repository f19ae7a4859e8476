// Package handler exposes the unlock HTTP endpoint.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadgate_backend/internal/unlock/service"
	"leadgate_backend/internal/unlock/transport"
	"leadgate_backend/platform/httpkit"
	"leadgate_backend/platform/validator"
)

// Handler handles unlock requests.
type Handler struct {
	service  *service.Service
	validate *validator.Validator
}

// New creates an unlock handler.
func New(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{service: svc, validate: validate}
}

// Unlock handles POST /unlock for one or many prospects.
func (h *Handler) Unlock(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	var req transport.UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prospectIDs := make([]uuid.UUID, 0, len(req.ProspectIDs))
	for _, raw := range req.ProspectIDs {
		prospectID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prospect id"})
			return
		}
		prospectIDs = append(prospectIDs, prospectID)
	}

	ctx := c.Request.Context()

	if len(prospectIDs) == 1 {
		outcome, err := h.service.Unlock(ctx, id.RequesterID(), prospectIDs[0])
		if err != nil {
			httpkit.HandleError(c, err)
			return
		}
		httpkit.OK(c, gin.H{"results": transport.FromOutcomes([]service.Outcome{outcome})})
		return
	}

	outcomes, err := h.service.BulkUnlock(ctx, id.RequesterID(), prospectIDs)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"results": transport.FromOutcomes(outcomes)})
}
