package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/castawaytv/castaway/internal/models"
)

// PlayoutRepository handles database operations for playouts, their
// materialized items, enumerator cursors, gaps and build status
type PlayoutRepository struct {
	db *DB
}

// NewPlayoutRepository creates a new playout repository
func NewPlayoutRepository(db *DB) *PlayoutRepository {
	return &PlayoutRepository{db: db}
}

// Create inserts a new playout into the database
func (r *PlayoutRepository) Create(ctx context.Context, playout *models.Playout) error {
	result := r.db.WithContext(ctx).Create(playout)
	if result.Error != nil {
		return fmt.Errorf("failed to create playout: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a playout by its UUID
func (r *PlayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Playout, error) {
	var playout models.Playout
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&playout)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &playout, nil
}

// GetByChannelID retrieves the playout owned by a channel
func (r *PlayoutRepository) GetByChannelID(ctx context.Context, channelID uuid.UUID) (*models.Playout, error) {
	var playout models.Playout
	result := r.db.WithContext(ctx).Where("channel_id = ?", channelID.String()).First(&playout)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &playout, nil
}

// List retrieves all playouts
func (r *PlayoutRepository) List(ctx context.Context) ([]*models.Playout, error) {
	var playouts []*models.Playout
	result := r.db.WithContext(ctx).Order("created_at ASC").Find(&playouts)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list playouts: %w", MapGormError(result.Error))
	}
	return playouts, nil
}

// Delete deletes a playout by its UUID (cascade to all materialized state)
func (r *PlayoutRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Playout{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete playout: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveAnchorTx persists the playout's anchor columns inside a build
// transaction. The anchor and the items it points past must commit
// together; committing them separately could leave the anchor pointing
// beyond persisted items and silently skip content on the next build.
func (r *PlayoutRepository) SaveAnchorTx(tx *gorm.DB, playout *models.Playout) error {
	playout.UpdatedAt = time.Now().UTC()
	result := tx.Model(&models.Playout{}).
		Where("id = ?", playout.ID.String()).
		Select("anchor_next", "anchor_item_index", "multiple_remaining", "duration_finish",
			"in_flood", "in_duration_filler", "next_guide_group", "seed", "updated_at").
		Updates(playout)
	if result.Error != nil {
		return fmt.Errorf("failed to save playout anchor: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Playout items

// GetItems retrieves a playout's items ordered by start time
func (r *PlayoutRepository) GetItems(ctx context.Context, playoutID uuid.UUID) ([]*models.PlayoutItem, error) {
	var items []*models.PlayoutItem
	result := r.db.WithContext(ctx).
		Where("playout_id = ?", playoutID.String()).
		Order("start ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get playout items: %w", MapGormError(result.Error))
	}
	return items, nil
}

// GetItemsInWindow retrieves playout items overlapping [from, to)
func (r *PlayoutRepository) GetItemsInWindow(ctx context.Context, playoutID uuid.UUID, from, to time.Time) ([]*models.PlayoutItem, error) {
	var items []*models.PlayoutItem
	result := r.db.WithContext(ctx).
		Where("playout_id = ? AND finish > ? AND start < ?", playoutID.String(), from.UTC(), to.UTC()).
		Order("start ASC").
		Find(&items)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get playout items in window: %w", MapGormError(result.Error))
	}
	return items, nil
}

// GetItemAt retrieves the playout item active at the given moment
func (r *PlayoutRepository) GetItemAt(ctx context.Context, playoutID uuid.UUID, at time.Time) (*models.PlayoutItem, error) {
	var item models.PlayoutItem
	result := r.db.WithContext(ctx).
		Where("playout_id = ? AND start <= ? AND finish > ?", playoutID.String(), at.UTC(), at.UTC()).
		Order("start DESC").
		First(&item)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &item, nil
}

// GetLastItem retrieves the playout item with the latest finish time
func (r *PlayoutRepository) GetLastItem(ctx context.Context, playoutID uuid.UUID) (*models.PlayoutItem, error) {
	var item models.PlayoutItem
	result := r.db.WithContext(ctx).
		Where("playout_id = ?", playoutID.String()).
		Order("finish DESC").
		First(&item)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &item, nil
}

// CreateItemTx inserts a playout item inside a build transaction
func (r *PlayoutRepository) CreateItemTx(tx *gorm.DB, item *models.PlayoutItem) error {
	if err := tx.Create(item).Error; err != nil {
		return fmt.Errorf("failed to create playout item: %w", MapGormError(err))
	}
	return nil
}

// DeleteItemsFromTx removes items starting at or after the cutoff,
// inside a build transaction (full-rebuild discard)
func (r *PlayoutRepository) DeleteItemsFromTx(tx *gorm.DB, playoutID uuid.UUID, cutoff time.Time) error {
	err := tx.Where("playout_id = ? AND start >= ?", playoutID.String(), cutoff.UTC()).
		Delete(&models.PlayoutItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete playout items: %w", MapGormError(err))
	}
	return nil
}

// Enumerator states

// GetEnumeratorStates retrieves all persisted cursors for a playout
func (r *PlayoutRepository) GetEnumeratorStates(ctx context.Context, playoutID uuid.UUID) ([]*models.EnumeratorState, error) {
	var states []*models.EnumeratorState
	result := r.db.WithContext(ctx).
		Where("playout_id = ?", playoutID.String()).
		Find(&states)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get enumerator states: %w", MapGormError(result.Error))
	}
	return states, nil
}

// SaveEnumeratorStateTx upserts one cursor inside a build transaction
func (r *PlayoutRepository) SaveEnumeratorStateTx(tx *gorm.DB, state *models.EnumeratorState) error {
	state.UpdatedAt = time.Now().UTC()
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "playout_id"}, {Name: "collection_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"seed", "position", "version_tag", "updated_at",
		}),
	}).Create(state).Error
	if err != nil {
		return fmt.Errorf("failed to save enumerator state: %w", MapGormError(err))
	}
	return nil
}

// InvalidateEnumeratorStates clears version tags for cursors keyed by
// the given collection keys, forcing re-resolution on the next build
func (r *PlayoutRepository) InvalidateEnumeratorStates(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.EnumeratorState{}).
		Where("collection_key IN ?", keys).
		Update("version_tag", "")
	if result.Error != nil {
		return fmt.Errorf("failed to invalidate enumerator states: %w", MapGormError(result.Error))
	}
	return nil
}

// Gaps

// GetGaps retrieves all recorded gaps for a playout ordered by start
func (r *PlayoutRepository) GetGaps(ctx context.Context, playoutID uuid.UUID) ([]*models.PlayoutGap, error) {
	var gaps []*models.PlayoutGap
	result := r.db.WithContext(ctx).
		Where("playout_id = ?", playoutID.String()).
		Order("start ASC").
		Find(&gaps)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get playout gaps: %w", MapGormError(result.Error))
	}
	return gaps, nil
}

// CreateGapTx records a gap inside a build transaction
func (r *PlayoutRepository) CreateGapTx(tx *gorm.DB, gap *models.PlayoutGap) error {
	if err := tx.Create(gap).Error; err != nil {
		return fmt.Errorf("failed to create playout gap: %w", MapGormError(err))
	}
	return nil
}

// DeleteGapsFromTx removes gaps starting at or after the cutoff
func (r *PlayoutRepository) DeleteGapsFromTx(tx *gorm.DB, playoutID uuid.UUID, cutoff time.Time) error {
	err := tx.Where("playout_id = ? AND start >= ?", playoutID.String(), cutoff.UTC()).
		Delete(&models.PlayoutGap{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete playout gaps: %w", MapGormError(err))
	}
	return nil
}

// Build status

// GetBuildStatus retrieves the last build outcome for a playout
func (r *PlayoutRepository) GetBuildStatus(ctx context.Context, playoutID uuid.UUID) (*models.BuildStatus, error) {
	var status models.BuildStatus
	result := r.db.WithContext(ctx).Where("playout_id = ?", playoutID.String()).First(&status)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &status, nil
}

// SaveBuildStatus upserts the build status row for a playout. This is
// deliberately outside the build transaction so a failed or rolled-back
// build still records its outcome.
func (r *PlayoutRepository) SaveBuildStatus(ctx context.Context, status *models.BuildStatus) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "playout_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"built_at", "outcome", "message"}),
	}).Create(status).Error
	if err != nil {
		return fmt.Errorf("failed to save build status: %w", MapGormError(err))
	}
	return nil
}
