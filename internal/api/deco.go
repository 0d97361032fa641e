package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/logger"
	"github.com/castawaytv/castaway/internal/models"
)

// Request/Response DTOs

// CreateDecoRequest represents a request to create a deco
type CreateDecoRequest struct {
	Name             string                   `json:"name" binding:"required"`
	WatermarkID      *string                  `json:"watermark_id,omitempty"`
	GraphicsElements []models.GraphicsElement `json:"graphics_elements,omitempty"`
	DeadAirFallback  *ContentRefRequest       `json:"dead_air_fallback,omitempty"`
	BreakContent     *ContentRefRequest       `json:"break_content,omitempty"`
	UseDuringFiller  bool                     `json:"use_during_filler"`
}

// CreateDecoTemplateRequest represents a request to create a deco template
type CreateDecoTemplateRequest struct {
	Name  string                    `json:"name" binding:"required"`
	Items []DecoTemplateItemRequest `json:"items"`
}

// DecoTemplateItemRequest scopes a deco to a minute window within the day
type DecoTemplateItemRequest struct {
	DecoID       string `json:"deco_id" binding:"required"`
	StartMinutes int    `json:"start_minutes" binding:"gte=0,lt=1440"`
	EndMinutes   int    `json:"end_minutes" binding:"gte=0,lt=1440"`
}

// CreateDecoAssignmentRequest binds a deco template to a playout
type CreateDecoAssignmentRequest struct {
	DecoTemplateID string                `json:"deco_template_id" binding:"required"`
	Priority       int                   `json:"priority"`
	Rule           ActivationRuleRequest `json:"rule"`
}

// DecoHandler handles deco-related API requests
type DecoHandler struct {
	repos *db.Repositories
}

// NewDecoHandler creates a new deco handler instance
func NewDecoHandler(repos *db.Repositories) *DecoHandler {
	return &DecoHandler{repos: repos}
}

// CreateDeco handles POST /api/decos
func (h *DecoHandler) CreateDeco(c *gin.Context) {
	var req CreateDecoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	now := time.Now().UTC()
	deco := &models.Deco{
		ID:               uuid.New(),
		Name:             req.Name,
		GraphicsElements: req.GraphicsElements,
		UseDuringFiller:  req.UseDuringFiller,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var err error
	deco.WatermarkID, err = parseOptionalID(req.WatermarkID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_watermark_id",
			Message: "Invalid watermark ID format",
		})
		return
	}
	if req.DeadAirFallback != nil {
		deco.DeadAirFallback, err = toContentRef(*req.DeadAirFallback)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_content",
				Message: "Invalid dead-air fallback target ID",
			})
			return
		}
	}
	if req.BreakContent != nil {
		deco.BreakContent, err = toContentRef(*req.BreakContent)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_content",
				Message: "Invalid break content target ID",
			})
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repos.Decos.Create(ctx, deco); err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", req.Name).
			Msg("Failed to create deco")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create deco",
		})
		return
	}

	c.JSON(http.StatusCreated, deco)
}

// ListDecos handles GET /api/decos
func (h *DecoHandler) ListDecos(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	decos, err := h.repos.Decos.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve decos",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"decos": decos})
}

// GetDeco handles GET /api/decos/:id
func (h *DecoHandler) GetDeco(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deco, err := h.repos.Decos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Deco not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve deco",
		})
		return
	}

	c.JSON(http.StatusOK, deco)
}

// CreateDecoTemplate handles POST /api/deco-templates
func (h *DecoHandler) CreateDecoTemplate(c *gin.Context) {
	var req CreateDecoTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	template := &models.DecoTemplate{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repos.Decos.CreateTemplate(ctx, template); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create deco template",
		})
		return
	}

	for _, item := range req.Items {
		decoID, err := uuid.Parse(item.DecoID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_deco_id",
				Message: "Invalid deco ID format: " + item.DecoID,
			})
			return
		}
		member := &models.DecoTemplateItem{
			ID:             uuid.New(),
			DecoTemplateID: template.ID,
			DecoID:         decoID,
			StartMinutes:   item.StartMinutes,
			EndMinutes:     item.EndMinutes,
		}
		if err := h.repos.Decos.CreateTemplateItem(ctx, member); err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "create_failed",
				Message: "Failed to add deco template item",
			})
			return
		}
	}

	c.JSON(http.StatusCreated, template)
}

// AssignDecoTemplate handles POST /api/playouts/:id/decos
func (h *DecoHandler) AssignDecoTemplate(c *gin.Context) {
	playoutID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateDecoAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	templateID, err := uuid.Parse(req.DecoTemplateID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_template_id",
			Message: "Invalid deco template ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	assignment := &models.DecoAssignment{
		ID:             uuid.New(),
		PlayoutID:      playoutID,
		DecoTemplateID: templateID,
		Priority:       req.Priority,
		Rule:           toActivationRule(req.Rule),
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.repos.Decos.CreateAssignment(ctx, assignment); err != nil {
		logger.Log.Error().
			Err(err).
			Str("playout_id", playoutID.String()).
			Str("deco_template_id", templateID.String()).
			Msg("Failed to assign deco template")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to assign deco template",
		})
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

// SetupDecoRoutes registers deco-related routes
func SetupDecoRoutes(apiGroup *gin.RouterGroup, repos *db.Repositories) {
	handler := NewDecoHandler(repos)

	apiGroup.POST("/decos", handler.CreateDeco)
	apiGroup.GET("/decos", handler.ListDecos)
	apiGroup.GET("/decos/:id", handler.GetDeco)
	apiGroup.POST("/deco-templates", handler.CreateDecoTemplate)
	apiGroup.POST("/playouts/:id/decos", handler.AssignDecoTemplate)
}
