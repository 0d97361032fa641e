package models

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one append-only record of an emission. Entries are
// never mutated; they suppress immediate repeats and drive rerun pairing.
type HistoryEntry struct {
	ID            uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	PlayoutID     uuid.UUID `json:"playout_id" gorm:"type:text;not null;index:idx_history_playout_key;column:playout_id" validate:"required"`
	CollectionKey string    `json:"collection_key" gorm:"type:text;not null;index:idx_history_playout_key;column:collection_key" validate:"required"`
	MediaItemID   uuid.UUID `json:"media_item_id" gorm:"type:text;not null;column:media_item_id" validate:"required"`

	Start  time.Time `json:"start" gorm:"type:datetime;not null;column:start"`
	Finish time.Time `json:"finish" gorm:"type:datetime;not null;column:finish"`

	// Seed and Position record the enumerator cursor used for the
	// emission, for reproducible rebuilds
	Seed     int64 `json:"seed" gorm:"type:integer;not null;column:seed"`
	Position int   `json:"position" gorm:"type:integer;not null;column:position"`

	// MultiPartChild marks the entry as the current child of a still-open
	// multi-part sequence; the next shuffle pass must not repeat it
	MultiPartChild bool `json:"multi_part_child" gorm:"type:integer;not null;default:0;column:multi_part_child"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// NewHistoryEntry creates a new HistoryEntry with generated UUID and timestamp
func NewHistoryEntry(playoutID uuid.UUID, collectionKey string, mediaItemID uuid.UUID, start, finish time.Time, seed int64, position int) *HistoryEntry {
	return &HistoryEntry{
		ID:            uuid.New(),
		PlayoutID:     playoutID,
		CollectionKey: collectionKey,
		MediaItemID:   mediaItemID,
		Start:         start,
		Finish:        finish,
		Seed:          seed,
		Position:      position,
		CreatedAt:     time.Now().UTC(),
	}
}

// RerunHistory records, per item, that it has aired as first-run. A
// rerun slot may only emit items present in this ledger.
type RerunHistory struct {
	ID            uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	PlayoutID     uuid.UUID `json:"playout_id" gorm:"type:text;not null;uniqueIndex:idx_rerun_playout_key_item;column:playout_id" validate:"required"`
	CollectionKey string    `json:"collection_key" gorm:"type:text;not null;uniqueIndex:idx_rerun_playout_key_item;column:collection_key" validate:"required"`
	MediaItemID   uuid.UUID `json:"media_item_id" gorm:"type:text;not null;uniqueIndex:idx_rerun_playout_key_item;column:media_item_id" validate:"required"`
	FirstRunAt    time.Time `json:"first_run_at" gorm:"type:datetime;not null;column:first_run_at"`
}
