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

// HistoryRepository handles database operations for the append-only
// history ledger and the rerun first-run ledger
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// AppendTx appends a history entry inside a build transaction. Entries
// are write-once; there is no update path.
func (r *HistoryRepository) AppendTx(tx *gorm.DB, entry *models.HistoryEntry) error {
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append history entry: %w", MapGormError(err))
	}
	return nil
}

// GetForKey retrieves history entries for one (playout, collection key)
// pair, newest first, limited
func (r *HistoryRepository) GetForKey(ctx context.Context, playoutID uuid.UUID, collectionKey string, limit int) ([]*models.HistoryEntry, error) {
	var entries []*models.HistoryEntry
	query := r.db.WithContext(ctx).
		Where("playout_id = ? AND collection_key = ?", playoutID.String(), collectionKey).
		Order("start DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	result := query.Find(&entries)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get history entries: %w", MapGormError(result.Error))
	}
	return entries, nil
}

// GetLastForKey retrieves the most recent history entry for a key
func (r *HistoryRepository) GetLastForKey(ctx context.Context, playoutID uuid.UUID, collectionKey string) (*models.HistoryEntry, error) {
	var entry models.HistoryEntry
	result := r.db.WithContext(ctx).
		Where("playout_id = ? AND collection_key = ?", playoutID.String(), collectionKey).
		Order("start DESC").
		First(&entry)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &entry, nil
}

// Rerun ledger

// MarkFirstRunTx records that an item aired as first-run, inside a
// build transaction. Re-marking an already-marked item is a no-op.
func (r *HistoryRepository) MarkFirstRunTx(tx *gorm.DB, playoutID uuid.UUID, collectionKey string, mediaItemID uuid.UUID, at time.Time) error {
	row := &models.RerunHistory{
		ID:            uuid.New(),
		PlayoutID:     playoutID,
		CollectionKey: collectionKey,
		MediaItemID:   mediaItemID,
		FirstRunAt:    at.UTC(),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "playout_id"}, {Name: "collection_key"}, {Name: "media_item_id"}},
		DoNothing: true,
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to mark first run: %w", MapGormError(err))
	}
	return nil
}

// HasAiredFirstRun reports whether the item has a first-run ledger entry
func (r *HistoryRepository) HasAiredFirstRun(ctx context.Context, playoutID uuid.UUID, collectionKey string, mediaItemID uuid.UUID) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.RerunHistory{}).
		Where("playout_id = ? AND collection_key = ? AND media_item_id = ?",
			playoutID.String(), collectionKey, mediaItemID.String()).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check first run: %w", MapGormError(result.Error))
	}
	return count > 0, nil
}

// FirstRunItemsTx retrieves the set of media item ids marked first-run
// for a key. Reads through the build transaction so marks written
// earlier in the same cycle are visible to later rerun slots.
func (r *HistoryRepository) FirstRunItemsTx(tx *gorm.DB, playoutID uuid.UUID, collectionKey string) (map[uuid.UUID]struct{}, error) {
	var rows []*models.RerunHistory
	result := tx.
		Where("playout_id = ? AND collection_key = ?", playoutID.String(), collectionKey).
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get first run items: %w", MapGormError(result.Error))
	}
	aired := make(map[uuid.UUID]struct{}, len(rows))
	for _, row := range rows {
		aired[row.MediaItemID] = struct{}{}
	}
	return aired, nil
}
