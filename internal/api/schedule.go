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

// CreateScheduleRequest represents a request to create a schedule
type CreateScheduleRequest struct {
	Name                          string `json:"name" binding:"required"`
	Kind                          string `json:"kind"`
	KeepMultiPartEpisodesTogether bool   `json:"keep_multi_part_episodes_together"`
	RandomStartPoint              bool   `json:"random_start_point"`
}

// ContentRefRequest is the wire form of a content reference
type ContentRefRequest struct {
	Kind     string `json:"kind" binding:"required"`
	TargetID string `json:"target_id"`
	FakeKey  string `json:"fake_key"`
}

// ScheduleItemRequest represents one classic schedule instruction
type ScheduleItemRequest struct {
	AlternateID        *string           `json:"alternate_id,omitempty"`
	Position           int               `json:"position" binding:"gte=0"`
	Content            ContentRefRequest `json:"content" binding:"required"`
	PlaybackOrder      string            `json:"playback_order"`
	Mode               string            `json:"mode"`
	MultipleCount      int               `json:"multiple_count"`
	TargetSeconds      int64             `json:"target_seconds"`
	StartMinutes       *int              `json:"start_minutes,omitempty"`
	FixedStartBehavior string            `json:"fixed_start_behavior"`
	RerunMode          string            `json:"rerun_mode"`
	PreRollFillerID    *string           `json:"pre_roll_filler_id,omitempty"`
	MidRollFillerID    *string           `json:"mid_roll_filler_id,omitempty"`
	PostRollFillerID   *string           `json:"post_roll_filler_id,omitempty"`
	TailFillerID       *string           `json:"tail_filler_id,omitempty"`
	FallbackFillerID   *string           `json:"fallback_filler_id,omitempty"`
	WatermarkID        *string           `json:"watermark_id,omitempty"`
	CustomTitle        *string           `json:"custom_title,omitempty"`
	GuideFiller        bool              `json:"guide_filler"`
}

// ActivationRuleRequest is the wire form of an activation rule
type ActivationRuleRequest struct {
	Weekdays   []int      `json:"weekdays,omitempty"`
	Monthdays  []int      `json:"monthdays,omitempty"`
	Months     []int      `json:"months,omitempty"`
	RangeStart *time.Time `json:"range_start,omitempty"`
	RangeEnd   *time.Time `json:"range_end,omitempty"`
}

// CreateAlternateRequest represents a request to create a schedule alternate
type CreateAlternateRequest struct {
	Name     string                `json:"name" binding:"required"`
	Priority int                   `json:"priority"`
	Rule     ActivationRuleRequest `json:"rule"`
}

// CreateFillerPresetRequest represents a request to create a filler preset
type CreateFillerPresetRequest struct {
	Name          string            `json:"name" binding:"required"`
	Slot          string            `json:"slot" binding:"required"`
	Mode          string            `json:"mode"`
	Count         int               `json:"count"`
	TargetSeconds int64             `json:"target_seconds"`
	TrimToFit     bool              `json:"trim_to_fit"`
	PadMinutes    int               `json:"pad_minutes"`
	Expression    string            `json:"expression"`
	Content       ContentRefRequest `json:"content" binding:"required"`
	PlaybackOrder string            `json:"playback_order"`
}

// CreateWatermarkRequest represents a request to create a watermark
type CreateWatermarkRequest struct {
	Name      string `json:"name" binding:"required"`
	ImagePath string `json:"image_path" binding:"required"`
	Location  string `json:"location"`
	Opacity   *int   `json:"opacity,omitempty"`
}

// ScheduleHandler handles schedule-related API requests
type ScheduleHandler struct {
	repos *db.Repositories
}

// NewScheduleHandler creates a new schedule handler instance
func NewScheduleHandler(repos *db.Repositories) *ScheduleHandler {
	return &ScheduleHandler{repos: repos}
}

func toContentRef(req ContentRefRequest) (models.ContentRef, error) {
	ref := models.ContentRef{
		Kind:    models.ContentKind(req.Kind),
		FakeKey: req.FakeKey,
	}
	if req.TargetID != "" {
		targetID, err := uuid.Parse(req.TargetID)
		if err != nil {
			return models.ContentRef{}, err
		}
		ref.TargetID = targetID
	}
	return ref, nil
}

func toActivationRule(req ActivationRuleRequest) models.ActivationRule {
	return models.ActivationRule{
		Weekdays:   req.Weekdays,
		Monthdays:  req.Monthdays,
		Months:     req.Months,
		RangeStart: req.RangeStart,
		RangeEnd:   req.RangeEnd,
	}
}

func parseOptionalID(value *string) (*uuid.UUID, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// CreateSchedule handles POST /api/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	kind := models.ScheduleKind(req.Kind)
	if kind == "" {
		kind = models.ScheduleKindClassic
	}
	if kind != models.ScheduleKindClassic && kind != models.ScheduleKindBlock {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_kind",
			Message: "Schedule kind must be classic or block",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	schedule := &models.Schedule{
		ID:                            uuid.New(),
		Name:                          req.Name,
		Kind:                          kind,
		KeepMultiPartEpisodesTogether: req.KeepMultiPartEpisodesTogether,
		RandomStartPoint:              req.RandomStartPoint,
		Active:                        true,
		CreatedAt:                     now,
		UpdatedAt:                     now,
	}
	if err := h.repos.Schedules.Create(ctx, schedule); err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", req.Name).
			Msg("Failed to create schedule")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create schedule",
		})
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

// ListSchedules handles GET /api/schedules
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	schedules, err := h.repos.Schedules.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve schedules",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

// GetSchedule handles GET /api/schedules/:id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	schedule, err := h.repos.Schedules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Schedule not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve schedule",
		})
		return
	}

	items, err := h.repos.Schedules.GetBaseItems(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve schedule items",
		})
		return
	}

	alternates, err := h.repos.Schedules.GetAlternates(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve schedule alternates",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"schedule":   schedule,
		"items":      items,
		"alternates": alternates,
	})
}

// AddScheduleItem handles POST /api/schedules/:id/items
func (h *ScheduleHandler) AddScheduleItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ScheduleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	content, err := toContentRef(req.Content)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_content",
			Message: "Invalid content target ID",
		})
		return
	}

	item := &models.ScheduleItem{
		ID:            uuid.New(),
		ScheduleID:    id,
		Position:      req.Position,
		Content:       content,
		PlaybackOrder: models.PlaybackOrder(req.PlaybackOrder),
		Mode:          models.PlayoutMode(req.Mode),
		MultipleCount: req.MultipleCount,
		TargetSeconds: req.TargetSeconds,
		StartMinutes:  req.StartMinutes,
		RerunMode:     models.RerunMode(req.RerunMode),
		CustomTitle:   req.CustomTitle,
		GuideFiller:   req.GuideFiller,
	}
	if item.PlaybackOrder == "" {
		item.PlaybackOrder = models.PlaybackOrderShuffle
	}
	if item.Mode == "" {
		item.Mode = models.PlayoutModeOne
	}
	if item.RerunMode == "" {
		item.RerunMode = models.RerunModeNone
	}
	item.FixedStartBehavior = models.FixedStartBehavior(req.FixedStartBehavior)
	if item.FixedStartBehavior == "" {
		item.FixedStartBehavior = models.FixedStartStrict
	}

	ids := []struct {
		src *string
		dst **uuid.UUID
	}{
		{req.PreRollFillerID, &item.PreRollFillerID},
		{req.MidRollFillerID, &item.MidRollFillerID},
		{req.PostRollFillerID, &item.PostRollFillerID},
		{req.TailFillerID, &item.TailFillerID},
		{req.FallbackFillerID, &item.FallbackFillerID},
		{req.WatermarkID, &item.WatermarkID},
	}
	for _, ref := range ids {
		parsed, err := parseOptionalID(ref.src)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_id",
				Message: "Invalid referenced ID format",
			})
			return
		}
		*ref.dst = parsed
	}
	item.AlternateID, err = parseOptionalID(req.AlternateID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_alternate_id",
			Message: "Invalid alternate ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repos.Schedules.CreateItem(ctx, item); err != nil {
		logger.Log.Error().
			Err(err).
			Str("schedule_id", id.String()).
			Msg("Failed to create schedule item")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create schedule item",
		})
		return
	}

	c.JSON(http.StatusCreated, item)
}

// CreateAlternate handles POST /api/schedules/:id/alternates
func (h *ScheduleHandler) CreateAlternate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateAlternateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	alternate := &models.ScheduleAlternate{
		ID:         uuid.New(),
		ScheduleID: id,
		Name:       req.Name,
		Priority:   req.Priority,
		Rule:       toActivationRule(req.Rule),
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.repos.Schedules.CreateAlternate(ctx, alternate); err != nil {
		logger.Log.Error().
			Err(err).
			Str("schedule_id", id.String()).
			Msg("Failed to create schedule alternate")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create schedule alternate",
		})
		return
	}

	c.JSON(http.StatusCreated, alternate)
}

// DeactivateSchedule handles POST /api/schedules/:id/deactivate
func (h *ScheduleHandler) DeactivateSchedule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repos.Schedules.SetActive(ctx, id, false); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Schedule not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "update_failed",
			Message: "Failed to deactivate schedule",
		})
		return
	}

	logger.Log.Info().
		Str("schedule_id", id.String()).
		Msg("Schedule deactivated")

	c.JSON(http.StatusOK, gin.H{"message": "Schedule deactivated"})
}

// ActivateSchedule handles POST /api/schedules/:id/activate
func (h *ScheduleHandler) ActivateSchedule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repos.Schedules.SetActive(ctx, id, true); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Schedule not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "update_failed",
			Message: "Failed to activate schedule",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Schedule activated"})
}

// DeleteSchedule handles DELETE /api/schedules/:id
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repos.Schedules.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Schedule not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "delete_failed",
			Message: "Failed to delete schedule",
		})
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{
		Message: "Schedule deleted successfully",
	})
}

// CreateFillerPreset handles POST /api/filler-presets
func (h *ScheduleHandler) CreateFillerPreset(c *gin.Context) {
	var req CreateFillerPresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	content, err := toContentRef(req.Content)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_content",
			Message: "Invalid content target ID",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	preset := &models.FillerPreset{
		ID:            uuid.New(),
		Name:          req.Name,
		Slot:          models.FillerSlot(req.Slot),
		Mode:          models.FillerMode(req.Mode),
		Count:         req.Count,
		TargetSeconds: req.TargetSeconds,
		TrimToFit:     req.TrimToFit,
		PadMinutes:    req.PadMinutes,
		Expression:    req.Expression,
		Content:       content,
		PlaybackOrder: models.PlaybackOrder(req.PlaybackOrder),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if preset.Mode == "" {
		preset.Mode = models.FillerModeCount
	}
	if preset.PlaybackOrder == "" {
		preset.PlaybackOrder = models.PlaybackOrderShuffle
	}

	if err := h.repos.Schedules.CreateFillerPreset(ctx, preset); err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", req.Name).
			Msg("Failed to create filler preset")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create filler preset",
		})
		return
	}

	c.JSON(http.StatusCreated, preset)
}

// CreateWatermark handles POST /api/watermarks
func (h *ScheduleHandler) CreateWatermark(c *gin.Context) {
	var req CreateWatermarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	watermark := &models.Watermark{
		ID:        uuid.New(),
		Name:      req.Name,
		ImagePath: req.ImagePath,
		Location:  req.Location,
		Opacity:   100,
		CreatedAt: time.Now().UTC(),
	}
	if watermark.Location == "" {
		watermark.Location = "bottom_right"
	}
	if req.Opacity != nil {
		watermark.Opacity = *req.Opacity
	}

	if err := h.repos.Schedules.CreateWatermark(ctx, watermark); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create watermark",
		})
		return
	}

	c.JSON(http.StatusCreated, watermark)
}

// SetupScheduleRoutes registers schedule-related routes
func SetupScheduleRoutes(apiGroup *gin.RouterGroup, repos *db.Repositories) {
	handler := NewScheduleHandler(repos)

	apiGroup.POST("/schedules", handler.CreateSchedule)
	apiGroup.GET("/schedules", handler.ListSchedules)
	apiGroup.GET("/schedules/:id", handler.GetSchedule)
	apiGroup.DELETE("/schedules/:id", handler.DeleteSchedule)
	apiGroup.POST("/schedules/:id/items", handler.AddScheduleItem)
	apiGroup.POST("/schedules/:id/alternates", handler.CreateAlternate)
	apiGroup.POST("/schedules/:id/deactivate", handler.DeactivateSchedule)
	apiGroup.POST("/schedules/:id/activate", handler.ActivateSchedule)

	apiGroup.POST("/filler-presets", handler.CreateFillerPreset)
	apiGroup.POST("/watermarks", handler.CreateWatermark)
}
