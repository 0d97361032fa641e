package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/guide"
)

// GuideHandler handles program-guide API requests
type GuideHandler struct {
	service *guide.Service
}

// NewGuideHandler creates a new guide handler instance
func NewGuideHandler(service *guide.Service) *GuideHandler {
	return &GuideHandler{service: service}
}

// parseWindow reads from/to query parameters, defaulting to the next
// 24 hours from now.
func parseWindow(c *gin.Context) (time.Time, time.Time, bool) {
	from := time.Now().UTC()
	to := from.Add(24 * time.Hour)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_from",
				Message: "Invalid 'from' timestamp, expected RFC 3339",
			})
			return time.Time{}, time.Time{}, false
		}
		from = parsed.UTC()
		to = from.Add(24 * time.Hour)
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_to",
				Message: "Invalid 'to' timestamp, expected RFC 3339",
			})
			return time.Time{}, time.Time{}, false
		}
		to = parsed.UTC()
	}
	if !to.After(from) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_window",
			Message: "'to' must be after 'from'",
		})
		return time.Time{}, time.Time{}, false
	}

	return from, to, true
}

// GetGuide handles GET /api/channels/:id/guide
func (h *GuideHandler) GetGuide(c *gin.Context) {
	channelID, ok := parseID(c, "id")
	if !ok {
		return
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	entries, err := h.service.Entries(ctx, channelID, from, to)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Channel has no playout",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to build guide",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from":    from,
		"to":      to,
		"entries": entries,
	})
}

// GetNowPlaying handles GET /api/channels/:id/guide/now
func (h *GuideHandler) GetNowPlaying(c *gin.Context) {
	channelID, ok := parseID(c, "id")
	if !ok {
		return
	}

	at := time.Now().UTC()
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_at",
				Message: "Invalid 'at' timestamp, expected RFC 3339",
			})
			return
		}
		at = parsed.UTC()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.ActiveItem(ctx, channelID, at)
	if err != nil {
		if errors.Is(err, guide.ErrNoActiveItem) || errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "no_active_item",
				Message: "Nothing is scheduled at the requested time",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve active item",
		})
		return
	}

	c.JSON(http.StatusOK, item)
}

// GetPlaylist handles GET /api/channels/:id/guide/playlist.m3u8
func (h *GuideHandler) GetPlaylist(c *gin.Context) {
	channelID, ok := parseID(c, "id")
	if !ok {
		return
	}
	from, to, ok := parseWindow(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	data, err := h.service.Playlist(ctx, channelID, from, to)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Channel has no playout",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "playlist_failed",
			Message: "Failed to build playlist",
		})
		return
	}

	c.Data(http.StatusOK, "application/vnd.apple.mpegurl", data)
}

// SetupGuideRoutes registers guide-related routes
func SetupGuideRoutes(apiGroup *gin.RouterGroup, service *guide.Service) {
	handler := NewGuideHandler(service)

	apiGroup.GET("/channels/:id/guide", handler.GetGuide)
	apiGroup.GET("/channels/:id/guide/now", handler.GetNowPlaying)
	apiGroup.GET("/channels/:id/guide/playlist.m3u8", handler.GetPlaylist)
}
