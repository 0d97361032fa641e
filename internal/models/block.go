package models

import (
	"time"

	"github.com/google/uuid"
)

// Block is a named, fixed-duration ordered list of content references
// used by block schedules
type Block struct {
	ID              uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name            string    `json:"name" gorm:"type:text;not null;column:name" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" gorm:"type:integer;not null;column:duration_minutes" validate:"gt=0"`
	// StopScheduling ends the block immediately when its content runs
	// out instead of padding to the block duration
	StopScheduling bool      `json:"stop_scheduling" gorm:"type:integer;not null;default:0;column:stop_scheduling"`
	CreatedAt      time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// BlockItem is one content reference inside a block
type BlockItem struct {
	ID       uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	BlockID  uuid.UUID `json:"block_id" gorm:"type:text;not null;index;column:block_id" validate:"required"`
	Position int       `json:"position" gorm:"type:integer;not null;column:position" validate:"gte=0"`

	Content       ContentRef    `json:"content" gorm:"embedded;embeddedPrefix:content_"`
	PlaybackOrder PlaybackOrder `json:"playback_order" gorm:"type:text;not null;default:shuffle;column:playback_order"`
}

// Template lays blocks out over a broadcast day
type Template struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name      string    `json:"name" gorm:"type:text;not null;column:name" validate:"required"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// TemplateItem places one block at a start time within the template's day
type TemplateItem struct {
	ID         uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	TemplateID uuid.UUID `json:"template_id" gorm:"type:text;not null;index;column:template_id" validate:"required"`
	BlockID    uuid.UUID `json:"block_id" gorm:"type:text;not null;column:block_id" validate:"required"`
	// StartMinutes is minutes past midnight
	StartMinutes int `json:"start_minutes" gorm:"type:integer;not null;column:start_minutes" validate:"gte=0,lt=1440"`

	// Populated by joins, not stored in database
	Block *Block `json:"block,omitempty" gorm:"-"`
}

// TemplateAssignment binds a template to a block schedule under an
// activation rule, using the same matching/priority semantics as
// schedule alternates
type TemplateAssignment struct {
	ID         uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	ScheduleID uuid.UUID `json:"schedule_id" gorm:"type:text;not null;index;column:schedule_id" validate:"required"`
	TemplateID uuid.UUID `json:"template_id" gorm:"type:text;not null;column:template_id" validate:"required"`
	Priority   int       `json:"priority" gorm:"type:integer;not null;default:0;column:priority"`

	Rule ActivationRule `json:"rule" gorm:"embedded"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}
