// Package handler exposes the prospect HTTP endpoints.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leadgate_backend/internal/prospects/service"
	"leadgate_backend/internal/prospects/transport"
	"leadgate_backend/platform/httpkit"
	"leadgate_backend/platform/validator"
)

const maxPreviewIDs = 100

var (
	errNoIDs      = errors.New("ids query parameter is required")
	errTooManyIDs = fmt.Errorf("at most %d ids per request", maxPreviewIDs)
)

func errInvalidID(value string) error {
	return fmt.Errorf("invalid prospect id %q", value)
}

// Handler handles prospect requests.
type Handler struct {
	service  *service.Service
	validate *validator.Validator
}

// New creates a prospect handler.
func New(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{service: svc, validate: validate}
}

// Import handles POST /prospects: store and score a new prospect.
func (h *Handler) Import(c *gin.Context) {
	var req transport.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, result, err := h.service.Import(c.Request.Context(), req.ToProspect())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":           created.ID.String(),
		"score":        result.Score,
		"tier":         string(result.Tier),
		"usedFallback": result.UsedFallback,
	})
}

// Preview handles GET /preview?ids=a,b,c: masked views with per-prospect
// revealed flags for the calling requester.
func (h *Handler) Preview(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	ids, err := parseIDList(c.Query("ids"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	views, err := h.service.Preview(c.Request.Context(), id.RequesterID(), ids)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"prospects": transport.FromViews(views)})
}

// List handles GET /prospects: a masked page of prospects.
func (h *Handler) List(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	views, err := h.service.List(c.Request.Context(), id.RequesterID(), limit, offset)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, gin.H{"prospects": transport.FromViews(views)})
}

// Get handles GET /prospects/:id: a single view, revealed only when the
// requester holds an entitlement.
func (h *Handler) Get(c *gin.Context) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return
	}

	prospectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid prospect id"})
		return
	}

	view, err := h.service.Reveal(c.Request.Context(), id.RequesterID(), prospectID)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.FromView(view))
}

func parseIDList(raw string) ([]uuid.UUID, error) {
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		id, err := uuid.Parse(trimmed)
		if err != nil {
			return nil, errInvalidID(trimmed)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errNoIDs
	}
	if len(ids) > maxPreviewIDs {
		return nil, errTooManyIDs
	}
	return ids, nil
}
