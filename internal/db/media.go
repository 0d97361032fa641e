package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/castawaytv/castaway/internal/models"
)

// MediaItemRepository handles database operations for media items
type MediaItemRepository struct {
	db *DB
}

// NewMediaItemRepository creates a new media item repository
func NewMediaItemRepository(db *DB) *MediaItemRepository {
	return &MediaItemRepository{db: db}
}

// Create inserts a new media item into the database
func (r *MediaItemRepository) Create(ctx context.Context, item *models.MediaItem) error {
	result := r.db.WithContext(ctx).Create(item)
	if result.Error != nil {
		return fmt.Errorf("failed to create media item: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a media item by its UUID
func (r *MediaItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaItem, error) {
	var item models.MediaItem
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&item)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &item, nil
}

// GetByIDs retrieves media items for a set of UUIDs, unordered
func (r *MediaItemRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.MediaItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	var items []*models.MediaItem
	result := r.db.WithContext(ctx).Where("id IN ?", keys).Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get media items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// GetByPath retrieves a media item by its file path (for duplicate checking)
func (r *MediaItemRepository) GetByPath(ctx context.Context, path string) (*models.MediaItem, error) {
	var item models.MediaItem
	result := r.db.WithContext(ctx).Where("file_path = ?", path).First(&item)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &item, nil
}

// List retrieves all media items with pagination
func (r *MediaItemRepository) List(ctx context.Context, limit, offset int) ([]*models.MediaItem, error) {
	var items []*models.MediaItem
	query := r.db.WithContext(ctx).Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	result := query.Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list media items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// ListByShow retrieves media items filtered by show name, ordered by
// season and episode with NULLs sorted last using COALESCE
func (r *MediaItemRepository) ListByShow(ctx context.Context, showName string) ([]*models.MediaItem, error) {
	var items []*models.MediaItem
	// Use COALESCE to sort NULLs last (SQLite sorts NULLs first by default)
	result := r.db.WithContext(ctx).
		Where("show_name = ?", showName).
		Order("COALESCE(season, 9999999) ASC, COALESCE(episode, 9999999) ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list media items by show: %w", MapGormError(result.Error))
	}
	return items, nil
}

// Search retrieves media items whose title or show name matches the
// given LIKE pattern; smart collections resolve through this query
func (r *MediaItemRepository) Search(ctx context.Context, pattern string) ([]*models.MediaItem, error) {
	var items []*models.MediaItem
	result := r.db.WithContext(ctx).
		Where("title LIKE ? OR show_name LIKE ?", pattern, pattern).
		Order("COALESCE(released_at, created_at) ASC, title ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to search media items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// Count returns the total number of media items
func (r *MediaItemRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.MediaItem{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count media items: %w", MapGormError(result.Error))
	}
	return count, nil
}

// Update updates an existing media item
// Note: Uses map-based updates to support setting fields to zero values
func (r *MediaItemRepository) Update(ctx context.Context, item *models.MediaItem) error {
	updates := map[string]interface{}{
		"file_path":   item.FilePath,
		"title":       item.Title,
		"show_name":   item.ShowName,
		"season":      item.Season,
		"episode":     item.Episode,
		"duration":    item.Duration,
		"released_at": item.ReleasedAt,
		"video_codec": item.VideoCodec,
		"audio_codec": item.AudioCodec,
		"resolution":  item.Resolution,
		"file_size":   item.FileSize,
	}

	result := r.db.WithContext(ctx).Model(&models.MediaItem{}).Where("id = ?", item.ID.String()).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update media item: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a media item by its UUID
func (r *MediaItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.MediaItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete media item: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
