package api

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/logger"
	"github.com/castawaytv/castaway/internal/models"
	"github.com/castawaytv/castaway/internal/playout"
)

// Request/Response DTOs

// CreatePlayoutRequest represents a request to create a playout
type CreatePlayoutRequest struct {
	ChannelID           string `json:"channel_id" binding:"required"`
	ScheduleID          string `json:"schedule_id" binding:"required"`
	LookaheadHours      *int   `json:"lookahead_hours,omitempty"`
	DailyRebuildMinutes *int   `json:"daily_rebuild_minutes,omitempty"`
	Seed                *int64 `json:"seed,omitempty"`
}

// BuildResponse acknowledges an accepted build request
type BuildResponse struct {
	PlayoutID string `json:"playout_id"`
	Mode      string `json:"mode"`
	Message   string `json:"message"`
}

// PlayoutHandler handles playout-related API requests
type PlayoutHandler struct {
	repos   *db.Repositories
	builder *playout.Builder
}

// NewPlayoutHandler creates a new playout handler instance
func NewPlayoutHandler(repos *db.Repositories, builder *playout.Builder) *PlayoutHandler {
	return &PlayoutHandler{
		repos:   repos,
		builder: builder,
	}
}

// CreatePlayout handles POST /api/playouts
func (h *PlayoutHandler) CreatePlayout(c *gin.Context) {
	var req CreatePlayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	channelID, err := uuid.Parse(req.ChannelID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_channel_id",
			Message: "Invalid channel ID format",
		})
		return
	}
	scheduleID, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_schedule_id",
			Message: "Invalid schedule ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repos.Channels.GetByID(ctx, channelID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "channel_not_found",
				Message: "Channel not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to verify channel",
		})
		return
	}
	if _, err := h.repos.Schedules.GetByID(ctx, scheduleID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "schedule_not_found",
				Message: "Schedule not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to verify schedule",
		})
		return
	}

	seed := rand.Int63()
	if req.Seed != nil {
		seed = *req.Seed
	}
	p := models.NewPlayout(channelID, scheduleID, seed, time.Now().UTC())
	p.DailyRebuildMinutes = req.DailyRebuildMinutes
	if req.LookaheadHours != nil && *req.LookaheadHours > 0 {
		p.LookaheadHours = *req.LookaheadHours
	}

	if err := h.repos.Playouts.Create(ctx, p); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", channelID.String()).
			Msg("Failed to create playout")

		if db.IsDuplicate(err) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_playout",
				Message: "Channel already has a playout",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create playout",
		})
		return
	}

	logger.Log.Info().
		Str("playout_id", p.ID.String()).
		Str("channel_id", channelID.String()).
		Str("schedule_id", scheduleID.String()).
		Msg("Playout created")

	c.JSON(http.StatusCreated, p)
}

// ListPlayouts handles GET /api/playouts
func (h *PlayoutHandler) ListPlayouts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	playouts, err := h.repos.Playouts.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve playouts",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"playouts": playouts})
}

// GetPlayout handles GET /api/playouts/:id
func (h *PlayoutHandler) GetPlayout(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	p, err := h.repos.Playouts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Playout not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve playout",
		})
		return
	}

	c.JSON(http.StatusOK, p)
}

// DeletePlayout handles DELETE /api/playouts/:id
func (h *PlayoutHandler) DeletePlayout(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repos.Playouts.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Playout not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "delete_failed",
			Message: "Failed to delete playout",
		})
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{
		Message: "Playout deleted successfully",
	})
}

// RebuildPlayout handles POST /api/playouts/:id/rebuild
func (h *PlayoutHandler) RebuildPlayout(c *gin.Context) {
	h.triggerBuild(c, playout.BuildModeReset)
}

// ExtendPlayout handles POST /api/playouts/:id/extend
func (h *PlayoutHandler) ExtendPlayout(c *gin.Context) {
	h.triggerBuild(c, playout.BuildModeContinue)
}

// triggerBuild starts a build asynchronously. The result lands in the
// playout's build status.
func (h *PlayoutHandler) triggerBuild(c *gin.Context, mode playout.BuildMode) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repos.Playouts.GetByID(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Playout not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve playout",
		})
		return
	}

	go func() {
		if err := h.builder.Build(context.Background(), id, mode); err != nil {
			if errors.Is(err, playout.ErrBuildInProgress) {
				logger.Log.Warn().
					Str("playout_id", id.String()).
					Msg("Build request ignored: build already in progress")
				return
			}
			logger.Log.Error().
				Err(err).
				Str("playout_id", id.String()).
				Msg("Requested build failed")
		}
	}()

	c.JSON(http.StatusAccepted, BuildResponse{
		PlayoutID: id.String(),
		Mode:      string(mode),
		Message:   "Build started",
	})
}

// GetBuildStatus handles GET /api/playouts/:id/status
func (h *PlayoutHandler) GetBuildStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := h.repos.Playouts.GetBuildStatus(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "No build has run for this playout",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve build status",
		})
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetGaps handles GET /api/playouts/:id/gaps
func (h *PlayoutHandler) GetGaps(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	gaps, err := h.repos.Playouts.GetGaps(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve gaps",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"gaps": gaps})
}

// GetItems handles GET /api/playouts/:id/items
func (h *PlayoutHandler) GetItems(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	items, err := h.repos.Playouts.GetItems(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve playout items",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// SetupPlayoutRoutes registers playout-related routes
func SetupPlayoutRoutes(apiGroup *gin.RouterGroup, repos *db.Repositories, builder *playout.Builder) {
	handler := NewPlayoutHandler(repos, builder)

	apiGroup.POST("/playouts", handler.CreatePlayout)
	apiGroup.GET("/playouts", handler.ListPlayouts)
	apiGroup.GET("/playouts/:id", handler.GetPlayout)
	apiGroup.DELETE("/playouts/:id", handler.DeletePlayout)
	apiGroup.POST("/playouts/:id/rebuild", handler.RebuildPlayout)
	apiGroup.POST("/playouts/:id/extend", handler.ExtendPlayout)
	apiGroup.GET("/playouts/:id/status", handler.GetBuildStatus)
	apiGroup.GET("/playouts/:id/gaps", handler.GetGaps)
	apiGroup.GET("/playouts/:id/items", handler.GetItems)
}
