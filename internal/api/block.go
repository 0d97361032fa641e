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

// CreateBlockRequest represents a request to create a block
type CreateBlockRequest struct {
	Name            string             `json:"name" binding:"required"`
	DurationMinutes int                `json:"duration_minutes" binding:"required,gt=0"`
	StopScheduling  bool               `json:"stop_scheduling"`
	Items           []BlockItemRequest `json:"items"`
}

// BlockItemRequest represents one content reference inside a block
type BlockItemRequest struct {
	Position      int               `json:"position" binding:"gte=0"`
	Content       ContentRefRequest `json:"content" binding:"required"`
	PlaybackOrder string            `json:"playback_order"`
}

// CreateTemplateRequest represents a request to create a block template
type CreateTemplateRequest struct {
	Name  string                `json:"name" binding:"required"`
	Items []TemplateItemRequest `json:"items"`
}

// TemplateItemRequest places one block at a start time within the day
type TemplateItemRequest struct {
	BlockID      string `json:"block_id" binding:"required"`
	StartMinutes int    `json:"start_minutes" binding:"gte=0,lt=1440"`
}

// CreateTemplateAssignmentRequest binds a template to a block schedule
type CreateTemplateAssignmentRequest struct {
	TemplateID string                `json:"template_id" binding:"required"`
	Priority   int                   `json:"priority"`
	Rule       ActivationRuleRequest `json:"rule"`
}

// BlockHandler handles block and template API requests
type BlockHandler struct {
	repos *db.Repositories
}

// NewBlockHandler creates a new block handler instance
func NewBlockHandler(repos *db.Repositories) *BlockHandler {
	return &BlockHandler{repos: repos}
}

// CreateBlock handles POST /api/blocks
func (h *BlockHandler) CreateBlock(c *gin.Context) {
	var req CreateBlockRequest
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
	block := &models.Block{
		ID:              uuid.New(),
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		StopScheduling:  req.StopScheduling,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.repos.Blocks.CreateBlock(ctx, block); err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", req.Name).
			Msg("Failed to create block")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create block",
		})
		return
	}

	for _, item := range req.Items {
		content, err := toContentRef(item.Content)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_content",
				Message: "Invalid content target ID",
			})
			return
		}
		order := models.PlaybackOrder(item.PlaybackOrder)
		if order == "" {
			order = models.PlaybackOrderShuffle
		}
		member := &models.BlockItem{
			ID:            uuid.New(),
			BlockID:       block.ID,
			Position:      item.Position,
			Content:       content,
			PlaybackOrder: order,
		}
		if err := h.repos.Blocks.CreateBlockItem(ctx, member); err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "create_failed",
				Message: "Failed to add block item",
			})
			return
		}
	}

	c.JSON(http.StatusCreated, block)
}

// GetBlock handles GET /api/blocks/:id
func (h *BlockHandler) GetBlock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	block, err := h.repos.Blocks.GetBlockByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Block not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve block",
		})
		return
	}

	items, err := h.repos.Blocks.GetBlockItems(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve block items",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"block": block,
		"items": items,
	})
}

// CreateTemplate handles POST /api/templates
func (h *BlockHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
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
	template := &models.Template{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repos.Blocks.CreateTemplate(ctx, template); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create template",
		})
		return
	}

	for _, item := range req.Items {
		blockID, err := uuid.Parse(item.BlockID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_block_id",
				Message: "Invalid block ID format: " + item.BlockID,
			})
			return
		}
		member := &models.TemplateItem{
			ID:           uuid.New(),
			TemplateID:   template.ID,
			BlockID:      blockID,
			StartMinutes: item.StartMinutes,
		}
		if err := h.repos.Blocks.CreateTemplateItem(ctx, member); err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "create_failed",
				Message: "Failed to add template item",
			})
			return
		}
	}

	c.JSON(http.StatusCreated, template)
}

// AssignTemplate handles POST /api/schedules/:id/templates
func (h *BlockHandler) AssignTemplate(c *gin.Context) {
	scheduleID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateTemplateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_template_id",
			Message: "Invalid template ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	assignment := &models.TemplateAssignment{
		ID:         uuid.New(),
		ScheduleID: scheduleID,
		TemplateID: templateID,
		Priority:   req.Priority,
		Rule:       toActivationRule(req.Rule),
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.repos.Blocks.CreateAssignment(ctx, assignment); err != nil {
		logger.Log.Error().
			Err(err).
			Str("schedule_id", scheduleID.String()).
			Str("template_id", templateID.String()).
			Msg("Failed to assign template")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to assign template",
		})
		return
	}

	c.JSON(http.StatusCreated, assignment)
}

// SetupBlockRoutes registers block and template routes
func SetupBlockRoutes(apiGroup *gin.RouterGroup, repos *db.Repositories) {
	handler := NewBlockHandler(repos)

	apiGroup.POST("/blocks", handler.CreateBlock)
	apiGroup.GET("/blocks/:id", handler.GetBlock)
	apiGroup.POST("/templates", handler.CreateTemplate)
	apiGroup.POST("/schedules/:id/templates", handler.AssignTemplate)
}
