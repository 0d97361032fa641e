package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/library"
	"github.com/castawaytv/castaway/internal/logger"
	"github.com/castawaytv/castaway/internal/models"
)

// Request/Response DTOs

// ScanRequest represents a request to trigger a media library scan
type ScanRequest struct {
	Path string `json:"path"` // Optional: defaults to config if not provided
}

// ScanResponse represents the response after triggering a scan
type ScanResponse struct {
	ScanID  string `json:"scan_id"`
	Message string `json:"message"`
}

// MediaListResponse represents a paginated list of media items
type MediaListResponse struct {
	Items  []*models.MediaItem `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// UpdateMediaRequest represents a request to update media metadata
type UpdateMediaRequest struct {
	Title    *string `json:"title,omitempty"`
	ShowName *string `json:"show_name,omitempty"`
	Season   *int    `json:"season,omitempty"`
	Episode  *int    `json:"episode,omitempty"`
}

// DeleteResponse represents a successful delete operation
type DeleteResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// MediaHandler handles media-related API requests
type MediaHandler struct {
	scanner     *library.Scanner
	repos       *db.Repositories
	defaultPath string
}

// NewMediaHandler creates a new media handler instance
func NewMediaHandler(scanner *library.Scanner, repos *db.Repositories, defaultPath string) *MediaHandler {
	return &MediaHandler{
		scanner:     scanner,
		repos:       repos,
		defaultPath: defaultPath,
	}
}

// TriggerScan handles POST /api/media/scan
func (h *MediaHandler) TriggerScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Empty body is acceptable - use default path
		if c.Request.ContentLength > 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid request body",
			})
			return
		}
	}

	if req.Path == "" {
		req.Path = h.defaultPath
	}
	if req.Path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_path",
			Message: "Media library path is required",
		})
		return
	}

	// The scan runs asynchronously and should not be tied to the HTTP
	// request lifecycle
	scanID, err := h.scanner.StartScan(context.Background(), req.Path)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("path", req.Path).
			Msg("Failed to start media scan")

		if errors.Is(err, library.ErrScanAlreadyRunning) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "scan_in_progress",
				Message: "A scan is already running",
			})
			return
		}

		if errors.Is(err, library.ErrInvalidDirectory) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_directory",
				Message: err.Error(),
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "scan_failed",
			Message: "Failed to start media scan",
		})
		return
	}

	logger.Log.Info().
		Str("scan_id", scanID).
		Str("path", req.Path).
		Msg("Media scan started")

	c.JSON(http.StatusCreated, ScanResponse{
		ScanID:  scanID,
		Message: "Scan started",
	})
}

// GetScanStatus handles GET /api/media/scan/:scanId/status
func (h *MediaHandler) GetScanStatus(c *gin.Context) {
	scanID := c.Param("scanId")

	progress, err := h.scanner.GetScanProgress(scanID)
	if err != nil {
		if errors.Is(err, library.ErrScanNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "scan_not_found",
				Message: "Scan not found",
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Str("scan_id", scanID).
			Msg("Failed to get scan progress")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to retrieve scan progress",
		})
		return
	}

	c.JSON(http.StatusOK, progress)
}

// CancelScan handles DELETE /api/media/scan/:scanId
func (h *MediaHandler) CancelScan(c *gin.Context) {
	scanID := c.Param("scanId")

	if err := h.scanner.CancelScan(scanID); err != nil {
		if errors.Is(err, library.ErrScanNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "scan_not_found",
				Message: "Scan not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "cancel_failed",
			Message: "Failed to cancel scan",
		})
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{
		Message: "Scan cancelled",
	})
}

// ListMedia handles GET /api/media
func (h *MediaHandler) ListMedia(c *gin.Context) {
	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
			if limit > 10000 {
				limit = 10000
			}
		}
	}

	offset := 0
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var items []*models.MediaItem
	var err error

	if showName := c.Query("show"); showName != "" {
		items, err = h.repos.MediaItems.ListByShow(ctx, showName)
	} else if query := c.Query("q"); query != "" {
		items, err = h.repos.MediaItems.Search(ctx, "%"+query+"%")
	} else {
		items, err = h.repos.MediaItems.List(ctx, limit, offset)
	}
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list media")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve media list",
		})
		return
	}

	total, err := h.repos.MediaItems.Count(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to count media")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve media count",
		})
		return
	}

	c.JSON(http.StatusOK, MediaListResponse{
		Items:  items,
		Total:  int(total),
		Limit:  limit,
		Offset: offset,
	})
}

// GetMedia handles GET /api/media/:id
func (h *MediaHandler) GetMedia(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item, err := h.repos.MediaItems.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Media not found",
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Str("id", id.String()).
			Msg("Failed to get media by ID")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve media",
		})
		return
	}

	c.JSON(http.StatusOK, item)
}

// UpdateMedia handles PUT /api/media/:id
func (h *MediaHandler) UpdateMedia(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item, err := h.repos.MediaItems.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Media not found",
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Str("id", id.String()).
			Msg("Failed to get media for update")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve media",
		})
		return
	}

	// Apply partial updates
	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.ShowName != nil {
		item.ShowName = req.ShowName
	}
	if req.Season != nil {
		item.Season = req.Season
	}
	if req.Episode != nil {
		item.Episode = req.Episode
	}

	if err := h.repos.MediaItems.Update(ctx, item); err != nil {
		logger.Log.Error().
			Err(err).
			Str("id", id.String()).
			Msg("Failed to update media")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "update_failed",
			Message: "Failed to update media",
		})
		return
	}

	logger.Log.Info().
		Str("id", id.String()).
		Msg("Media updated successfully")

	c.JSON(http.StatusOK, item)
}

// DeleteMedia handles DELETE /api/media/:id
func (h *MediaHandler) DeleteMedia(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.repos.MediaItems.GetByID(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Media not found",
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Str("id", id.String()).
			Msg("Failed to check media existence")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to check media",
		})
		return
	}

	if err := h.repos.MediaItems.Delete(ctx, id); err != nil {
		logger.Log.Error().
			Err(err).
			Str("id", id.String()).
			Msg("Failed to delete media")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "delete_failed",
			Message: "Failed to delete media",
		})
		return
	}

	logger.Log.Info().
		Str("id", id.String()).
		Msg("Media deleted successfully")

	c.JSON(http.StatusOK, DeleteResponse{
		Message: "Media deleted successfully",
	})
}

// parseID validates a UUID path parameter, writing a 400 response on failure
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid " + param + " format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// SetupMediaRoutes registers media-related routes
func SetupMediaRoutes(apiGroup *gin.RouterGroup, scanner *library.Scanner, repos *db.Repositories, defaultPath string) {
	handler := NewMediaHandler(scanner, repos, defaultPath)

	// Scan endpoints
	apiGroup.POST("/media/scan", handler.TriggerScan)
	apiGroup.GET("/media/scan/:scanId/status", handler.GetScanStatus)
	apiGroup.DELETE("/media/scan/:scanId", handler.CancelScan)

	// Media CRUD endpoints
	apiGroup.GET("/media", handler.ListMedia)
	apiGroup.GET("/media/:id", handler.GetMedia)
	apiGroup.PUT("/media/:id", handler.UpdateMedia)
	apiGroup.DELETE("/media/:id", handler.DeleteMedia)
}
