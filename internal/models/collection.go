package models

import (
	"time"

	"github.com/google/uuid"
)

// Collection is a static, optionally ordered set of media items
type Collection struct {
	ID              uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name            string    `json:"name" gorm:"type:text;not null;column:name" validate:"required"`
	UseCustomOrder  bool      `json:"use_custom_order" gorm:"type:integer;not null;default:0;column:use_custom_order"`
	CreatedAt       time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// CollectionItem is one member of a static collection
type CollectionItem struct {
	ID           uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	CollectionID uuid.UUID `json:"collection_id" gorm:"type:text;not null;index;column:collection_id" validate:"required"`
	MediaItemID  uuid.UUID `json:"media_item_id" gorm:"type:text;not null;column:media_item_id" validate:"required"`
	Position     int       `json:"position" gorm:"type:integer;not null;column:position" validate:"gte=0"`

	// Populated by joins, not stored in database
	MediaItem *MediaItem `json:"media_item,omitempty" gorm:"-"`
}

// SmartCollection is a query-defined set of media items
type SmartCollection struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name      string    `json:"name" gorm:"type:text;not null;column:name" validate:"required"`
	Query     string    `json:"query" gorm:"type:text;not null;column:query" validate:"required"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// MultiCollection groups several collections that play as a unit
type MultiCollection struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name      string    `json:"name" gorm:"type:text;not null;column:name" validate:"required"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// MultiCollectionItem links one collection into a multi-collection.
// ScheduleAsGroup keeps the member collection's items adjacent and in
// chronological order when the multi-collection is shuffled.
type MultiCollectionItem struct {
	ID                uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	MultiCollectionID uuid.UUID `json:"multi_collection_id" gorm:"type:text;not null;index;column:multi_collection_id" validate:"required"`
	CollectionID      uuid.UUID `json:"collection_id" gorm:"type:text;not null;column:collection_id" validate:"required"`
	ScheduleAsGroup   bool      `json:"schedule_as_group" gorm:"type:integer;not null;default:0;column:schedule_as_group"`
	Position          int       `json:"position" gorm:"type:integer;not null;column:position" validate:"gte=0"`
}

// Playlist is an explicitly ordered list of media items played verbatim
type Playlist struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name      string    `json:"name" gorm:"type:text;not null;column:name" validate:"required"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// PlaylistItem is one entry in a playlist
type PlaylistItem struct {
	ID          uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	PlaylistID  uuid.UUID `json:"playlist_id" gorm:"type:text;not null;index;column:playlist_id" validate:"required"`
	MediaItemID uuid.UUID `json:"media_item_id" gorm:"type:text;not null;column:media_item_id" validate:"required"`
	Position    int       `json:"position" gorm:"type:integer;not null;column:position" validate:"gte=0"`

	// Populated by joins, not stored in database
	MediaItem *MediaItem `json:"media_item,omitempty" gorm:"-"`
}

// FillGroup is a named filler rotation pool. Filler presets referencing
// the same group share one enumerator state and stay in lockstep.
type FillGroup struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name      string    `json:"name" gorm:"type:text;not null;uniqueIndex;column:name" validate:"required"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// FillGroupItem is one member of a fill group
type FillGroupItem struct {
	ID          uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	FillGroupID uuid.UUID `json:"fill_group_id" gorm:"type:text;not null;index;column:fill_group_id" validate:"required"`
	MediaItemID uuid.UUID `json:"media_item_id" gorm:"type:text;not null;column:media_item_id" validate:"required"`
	Position    int       `json:"position" gorm:"type:integer;not null;column:position" validate:"gte=0"`
}
