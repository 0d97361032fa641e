package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/castawaytv/castaway/internal/models"
)

// CollectionRepository handles database operations for collections,
// smart collections, multi-collections, playlists and fill groups
type CollectionRepository struct {
	db *DB
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(db *DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

// Create inserts a new collection into the database
func (r *CollectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	result := r.db.WithContext(ctx).Create(collection)
	if result.Error != nil {
		return fmt.Errorf("failed to create collection: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a collection by its UUID
func (r *CollectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	var collection models.Collection
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&collection)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &collection, nil
}

// List retrieves all collections ordered by name
func (r *CollectionRepository) List(ctx context.Context) ([]*models.Collection, error) {
	var collections []*models.Collection
	result := r.db.WithContext(ctx).Order("name ASC").Find(&collections)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list collections: %w", MapGormError(result.Error))
	}
	return collections, nil
}

// Delete deletes a collection by its UUID
func (r *CollectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Collection{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete collection: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetItems retrieves a collection's member rows ordered by position
func (r *CollectionRepository) GetItems(ctx context.Context, collectionID uuid.UUID) ([]*models.CollectionItem, error) {
	var items []*models.CollectionItem
	result := r.db.WithContext(ctx).
		Where("collection_id = ?", collectionID.String()).
		Order("position ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get collection items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// AddItem appends a media item to a collection
func (r *CollectionRepository) AddItem(ctx context.Context, item *models.CollectionItem) error {
	result := r.db.WithContext(ctx).Create(item)
	if result.Error != nil {
		return fmt.Errorf("failed to add collection item: %w", MapGormError(result.Error))
	}
	return nil
}

// RemoveItem removes one member row from a collection
func (r *CollectionRepository) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", itemID.String()).Delete(&models.CollectionItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove collection item: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceItems swaps a collection's membership in one transaction
func (r *CollectionRepository) ReplaceItems(ctx context.Context, collectionID uuid.UUID, items []*models.CollectionItem) error {
	return r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", collectionID.String()).Delete(&models.CollectionItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear collection items: %w", MapGormError(err))
		}
		for _, item := range items {
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("failed to insert collection item: %w", MapGormError(err))
			}
		}
		return nil
	})
}

// Smart collections

// CreateSmart inserts a new smart collection
func (r *CollectionRepository) CreateSmart(ctx context.Context, sc *models.SmartCollection) error {
	result := r.db.WithContext(ctx).Create(sc)
	if result.Error != nil {
		return fmt.Errorf("failed to create smart collection: %w", MapGormError(result.Error))
	}
	return nil
}

// GetSmartByID retrieves a smart collection by its UUID
func (r *CollectionRepository) GetSmartByID(ctx context.Context, id uuid.UUID) (*models.SmartCollection, error) {
	var sc models.SmartCollection
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&sc)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &sc, nil
}

// Multi-collections

// CreateMulti inserts a new multi-collection
func (r *CollectionRepository) CreateMulti(ctx context.Context, mc *models.MultiCollection) error {
	result := r.db.WithContext(ctx).Create(mc)
	if result.Error != nil {
		return fmt.Errorf("failed to create multi-collection: %w", MapGormError(result.Error))
	}
	return nil
}

// GetMultiByID retrieves a multi-collection by its UUID
func (r *CollectionRepository) GetMultiByID(ctx context.Context, id uuid.UUID) (*models.MultiCollection, error) {
	var mc models.MultiCollection
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&mc)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &mc, nil
}

// GetMultiItems retrieves a multi-collection's member collections in order
func (r *CollectionRepository) GetMultiItems(ctx context.Context, multiID uuid.UUID) ([]*models.MultiCollectionItem, error) {
	var items []*models.MultiCollectionItem
	result := r.db.WithContext(ctx).
		Where("multi_collection_id = ?", multiID.String()).
		Order("position ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get multi-collection items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// AddMultiItem links a collection into a multi-collection
func (r *CollectionRepository) AddMultiItem(ctx context.Context, item *models.MultiCollectionItem) error {
	result := r.db.WithContext(ctx).Create(item)
	if result.Error != nil {
		return fmt.Errorf("failed to add multi-collection item: %w", MapGormError(result.Error))
	}
	return nil
}

// Playlists

// CreatePlaylist inserts a new playlist
func (r *CollectionRepository) CreatePlaylist(ctx context.Context, playlist *models.Playlist) error {
	result := r.db.WithContext(ctx).Create(playlist)
	if result.Error != nil {
		return fmt.Errorf("failed to create playlist: %w", MapGormError(result.Error))
	}
	return nil
}

// GetPlaylistByID retrieves a playlist by its UUID
func (r *CollectionRepository) GetPlaylistByID(ctx context.Context, id uuid.UUID) (*models.Playlist, error) {
	var playlist models.Playlist
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&playlist)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &playlist, nil
}

// GetPlaylistItems retrieves playlist entries ordered by position
func (r *CollectionRepository) GetPlaylistItems(ctx context.Context, playlistID uuid.UUID) ([]*models.PlaylistItem, error) {
	var items []*models.PlaylistItem
	result := r.db.WithContext(ctx).
		Where("playlist_id = ?", playlistID.String()).
		Order("position ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get playlist items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// AddPlaylistItem appends a media item to a playlist
func (r *CollectionRepository) AddPlaylistItem(ctx context.Context, item *models.PlaylistItem) error {
	result := r.db.WithContext(ctx).Create(item)
	if result.Error != nil {
		return fmt.Errorf("failed to add playlist item: %w", MapGormError(result.Error))
	}
	return nil
}

// Fill groups

// CreateFillGroup inserts a new fill group
func (r *CollectionRepository) CreateFillGroup(ctx context.Context, group *models.FillGroup) error {
	result := r.db.WithContext(ctx).Create(group)
	if result.Error != nil {
		return fmt.Errorf("failed to create fill group: %w", MapGormError(result.Error))
	}
	return nil
}

// GetFillGroupByID retrieves a fill group by its UUID
func (r *CollectionRepository) GetFillGroupByID(ctx context.Context, id uuid.UUID) (*models.FillGroup, error) {
	var group models.FillGroup
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&group)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &group, nil
}

// GetFillGroupItems retrieves a fill group's members ordered by position
func (r *CollectionRepository) GetFillGroupItems(ctx context.Context, groupID uuid.UUID) ([]*models.FillGroupItem, error) {
	var items []*models.FillGroupItem
	result := r.db.WithContext(ctx).
		Where("fill_group_id = ?", groupID.String()).
		Order("position ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get fill group items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// AddFillGroupItem appends a media item to a fill group
func (r *CollectionRepository) AddFillGroupItem(ctx context.Context, item *models.FillGroupItem) error {
	result := r.db.WithContext(ctx).Create(item)
	if result.Error != nil {
		return fmt.Errorf("failed to add fill group item: %w", MapGormError(result.Error))
	}
	return nil
}
