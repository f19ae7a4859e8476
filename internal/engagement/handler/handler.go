// Package handler exposes the engagement intake endpoint.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainevents "leadgate_backend/internal/events"
	"leadgate_backend/platform/events"
	"leadgate_backend/platform/httpkit"
	"leadgate_backend/platform/validator"
)

// Enqueuer hands engagement events to the background queue. Implemented
// by the scheduler client; nil when Redis is not configured.
type Enqueuer interface {
	EnqueueEngagementRescore(ctx context.Context, prospectID uuid.UUID, eventTypes []string) error
}

// IntakeRequest reports interaction events observed for a prospect.
type IntakeRequest struct {
	Events []string `json:"events" validate:"required,min=1,max=20,dive,max=50"`
}

// Handler accepts engagement events and routes them to the rescorer,
// through the queue when available and the in-process bus otherwise.
type Handler struct {
	enqueuer Enqueuer
	bus      events.Bus
	validate *validator.Validator
}

// New creates an engagement handler.
func New(enqueuer Enqueuer, bus events.Bus, validate *validator.Validator) *Handler {
	return &Handler{enqueuer: enqueuer, bus: bus, validate: validate}
}

// Intake handles POST /prospects/:id/engagement. Rescoring runs
// out-of-band; the response only acknowledges receipt.
func (h *Handler) Intake(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	prospectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prospect id"})
		return
	}

	var req IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	if h.enqueuer != nil {
		if err := h.enqueuer.EnqueueEngagementRescore(ctx, prospectID, req.Events); err == nil {
			c.JSON(http.StatusAccepted, gin.H{"queued": true})
			return
		}
		// Queue unavailable; fall through to in-process delivery so the
		// events are not lost.
	}

	if err := h.bus.PublishSync(ctx, domainevents.NewEngagementRecorded(prospectID, req.Events)); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": false})
}
