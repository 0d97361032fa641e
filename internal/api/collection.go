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

// CreateCollectionRequest represents a request to create a static collection
type CreateCollectionRequest struct {
	Name           string `json:"name" binding:"required"`
	UseCustomOrder bool   `json:"use_custom_order"`
}

// CollectionItemRequest represents one item in a collection update
type CollectionItemRequest struct {
	MediaItemID string `json:"media_item_id" binding:"required"`
	Position    int    `json:"position" binding:"gte=0"`
}

// ReplaceCollectionItemsRequest replaces a collection's full member list
type ReplaceCollectionItemsRequest struct {
	Items []CollectionItemRequest `json:"items" binding:"required"`
}

// CreateSmartCollectionRequest represents a request to create a smart collection
type CreateSmartCollectionRequest struct {
	Name  string `json:"name" binding:"required"`
	Query string `json:"query" binding:"required"`
}

// CreateMultiCollectionRequest represents a request to create a multi-collection
type CreateMultiCollectionRequest struct {
	Name  string                       `json:"name" binding:"required"`
	Items []MultiCollectionItemRequest `json:"items"`
}

// MultiCollectionItemRequest links one collection into a multi-collection
type MultiCollectionItemRequest struct {
	CollectionID    string `json:"collection_id" binding:"required"`
	ScheduleAsGroup bool   `json:"schedule_as_group"`
	Position        int    `json:"position" binding:"gte=0"`
}

// CreatePlaylistRequest represents a request to create a playlist
type CreatePlaylistRequest struct {
	Name  string                  `json:"name" binding:"required"`
	Items []CollectionItemRequest `json:"items"`
}

// CreateFillGroupRequest represents a request to create a fill group
type CreateFillGroupRequest struct {
	Name  string                  `json:"name" binding:"required"`
	Items []CollectionItemRequest `json:"items"`
}

// CollectionHandler handles collection-related API requests
type CollectionHandler struct {
	repos *db.Repositories
}

// NewCollectionHandler creates a new collection handler instance
func NewCollectionHandler(repos *db.Repositories) *CollectionHandler {
	return &CollectionHandler{repos: repos}
}

// CreateCollection handles POST /api/collections
func (h *CollectionHandler) CreateCollection(c *gin.Context) {
	var req CreateCollectionRequest
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
	collection := &models.Collection{
		ID:             uuid.New(),
		Name:           req.Name,
		UseCustomOrder: req.UseCustomOrder,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.repos.Collections.Create(ctx, collection); err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", req.Name).
			Msg("Failed to create collection")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create collection",
		})
		return
	}

	c.JSON(http.StatusCreated, collection)
}

// ListCollections handles GET /api/collections
func (h *CollectionHandler) ListCollections(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	collections, err := h.repos.Collections.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list collections")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve collections",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"collections": collections})
}

// GetCollection handles GET /api/collections/:id
func (h *CollectionHandler) GetCollection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	collection, err := h.repos.Collections.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Collection not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve collection",
		})
		return
	}

	items, err := h.repos.Collections.GetItems(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve collection items",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collection": collection,
		"items":      items,
	})
}

// ReplaceCollectionItems handles PUT /api/collections/:id/items
func (h *CollectionHandler) ReplaceCollectionItems(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req ReplaceCollectionItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	items := make([]*models.CollectionItem, 0, len(req.Items))
	for _, item := range req.Items {
		mediaItemID, err := uuid.Parse(item.MediaItemID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_media_item_id",
				Message: "Invalid media item ID format: " + item.MediaItemID,
			})
			return
		}
		items = append(items, &models.CollectionItem{
			ID:           uuid.New(),
			CollectionID: id,
			MediaItemID:  mediaItemID,
			Position:     item.Position,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if _, err := h.repos.Collections.GetByID(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Collection not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve collection",
		})
		return
	}

	if err := h.repos.Collections.ReplaceItems(ctx, id, items); err != nil {
		logger.Log.Error().
			Err(err).
			Str("collection_id", id.String()).
			Msg("Failed to replace collection items")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "update_failed",
			Message: "Failed to replace collection items",
		})
		return
	}

	logger.Log.Info().
		Str("collection_id", id.String()).
		Int("item_count", len(items)).
		Msg("Collection items replaced")

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// DeleteCollection handles DELETE /api/collections/:id
func (h *CollectionHandler) DeleteCollection(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repos.Collections.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Collection not found",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "delete_failed",
			Message: "Failed to delete collection",
		})
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{
		Message: "Collection deleted successfully",
	})
}

// CreateSmartCollection handles POST /api/collections/smart
func (h *CollectionHandler) CreateSmartCollection(c *gin.Context) {
	var req CreateSmartCollectionRequest
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
	smart := &models.SmartCollection{
		ID:        uuid.New(),
		Name:      req.Name,
		Query:     req.Query,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repos.Collections.CreateSmart(ctx, smart); err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", req.Name).
			Msg("Failed to create smart collection")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create smart collection",
		})
		return
	}

	c.JSON(http.StatusCreated, smart)
}

// CreateMultiCollection handles POST /api/collections/multi
func (h *CollectionHandler) CreateMultiCollection(c *gin.Context) {
	var req CreateMultiCollectionRequest
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
	multi := &models.MultiCollection{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repos.Collections.CreateMulti(ctx, multi); err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", req.Name).
			Msg("Failed to create multi-collection")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create multi-collection",
		})
		return
	}

	for _, item := range req.Items {
		collectionID, err := uuid.Parse(item.CollectionID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_collection_id",
				Message: "Invalid collection ID format: " + item.CollectionID,
			})
			return
		}
		member := &models.MultiCollectionItem{
			ID:                uuid.New(),
			MultiCollectionID: multi.ID,
			CollectionID:      collectionID,
			ScheduleAsGroup:   item.ScheduleAsGroup,
			Position:          item.Position,
		}
		if err := h.repos.Collections.AddMultiItem(ctx, member); err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "create_failed",
				Message: "Failed to add multi-collection member",
			})
			return
		}
	}

	c.JSON(http.StatusCreated, multi)
}

// CreatePlaylist handles POST /api/collections/playlists
func (h *CollectionHandler) CreatePlaylist(c *gin.Context) {
	var req CreatePlaylistRequest
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
	playlist := &models.Playlist{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repos.Collections.CreatePlaylist(ctx, playlist); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create playlist",
		})
		return
	}

	for _, item := range req.Items {
		mediaItemID, err := uuid.Parse(item.MediaItemID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_media_item_id",
				Message: "Invalid media item ID format: " + item.MediaItemID,
			})
			return
		}
		entry := &models.PlaylistItem{
			ID:          uuid.New(),
			PlaylistID:  playlist.ID,
			MediaItemID: mediaItemID,
			Position:    item.Position,
		}
		if err := h.repos.Collections.AddPlaylistItem(ctx, entry); err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "create_failed",
				Message: "Failed to add playlist item",
			})
			return
		}
	}

	c.JSON(http.StatusCreated, playlist)
}

// CreateFillGroup handles POST /api/collections/fill-groups
func (h *CollectionHandler) CreateFillGroup(c *gin.Context) {
	var req CreateFillGroupRequest
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
	group := &models.FillGroup{
		ID:        uuid.New(),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repos.Collections.CreateFillGroup(ctx, group); err != nil {
		if db.IsDuplicate(err) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_name",
				Message: "A fill group with this name already exists",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "create_failed",
			Message: "Failed to create fill group",
		})
		return
	}

	for _, item := range req.Items {
		mediaItemID, err := uuid.Parse(item.MediaItemID)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_media_item_id",
				Message: "Invalid media item ID format: " + item.MediaItemID,
			})
			return
		}
		member := &models.FillGroupItem{
			ID:          uuid.New(),
			FillGroupID: group.ID,
			MediaItemID: mediaItemID,
			Position:    item.Position,
		}
		if err := h.repos.Collections.AddFillGroupItem(ctx, member); err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "create_failed",
				Message: "Failed to add fill group item",
			})
			return
		}
	}

	c.JSON(http.StatusCreated, group)
}

// SetupCollectionRoutes registers collection-related routes
func SetupCollectionRoutes(apiGroup *gin.RouterGroup, repos *db.Repositories) {
	handler := NewCollectionHandler(repos)

	apiGroup.POST("/collections", handler.CreateCollection)
	apiGroup.GET("/collections", handler.ListCollections)
	apiGroup.POST("/collections/smart", handler.CreateSmartCollection)
	apiGroup.POST("/collections/multi", handler.CreateMultiCollection)
	apiGroup.POST("/collections/playlists", handler.CreatePlaylist)
	apiGroup.POST("/collections/fill-groups", handler.CreateFillGroup)
	apiGroup.GET("/collections/:id", handler.GetCollection)
	apiGroup.PUT("/collections/:id/items", handler.ReplaceCollectionItems)
	apiGroup.DELETE("/collections/:id", handler.DeleteCollection)
}
