package models

import (
	"time"

	"github.com/google/uuid"
)

// FillerSlot is where a filler preset plays relative to primary content
type FillerSlot string

// Filler slots
const (
	FillerSlotPreRoll  FillerSlot = "pre_roll"
	FillerSlotMidRoll  FillerSlot = "mid_roll"
	FillerSlotPostRoll FillerSlot = "post_roll"
	FillerSlotTail     FillerSlot = "tail"
	FillerSlotFallback FillerSlot = "fallback"
)

// FillerMode controls how much filler a preset emits
type FillerMode string

// Filler modes
const (
	// FillerModeCount emits a fixed number of filler items
	FillerModeCount FillerMode = "count"
	// FillerModeDuration emits filler up to a duration target
	FillerModeDuration FillerMode = "duration"
	// FillerModePad emits filler up to the next pad boundary (e.g. the
	// next 30-minute mark after the primary item finishes)
	FillerModePad FillerMode = "pad"
	// FillerModeChapters inserts filler at the primary item's chapter marks
	FillerModeChapters FillerMode = "chapters"
	// FillerModeExpression evaluates an expression to a duration target
	FillerModeExpression FillerMode = "expression"
)

// FillerPreset configures one filler slot for a schedule item
type FillerPreset struct {
	ID   uuid.UUID  `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name string     `json:"name" gorm:"type:text;not null;column:name" validate:"required"`
	Slot FillerSlot `json:"slot" gorm:"type:text;not null;column:slot" validate:"required"`
	Mode FillerMode `json:"mode" gorm:"type:text;not null;default:count;column:mode"`

	Count         int   `json:"count" gorm:"type:integer;not null;default:0;column:count"`
	TargetSeconds int64 `json:"target_seconds" gorm:"type:integer;not null;default:0;column:target_seconds"`
	// TrimToFit clips the last filler item so the slot lands exactly on
	// the duration target instead of undershooting
	TrimToFit  bool `json:"trim_to_fit" gorm:"type:integer;not null;default:0;column:trim_to_fit"`
	PadMinutes int  `json:"pad_minutes" gorm:"type:integer;not null;default:0;column:pad_minutes"`
	// Expression is evaluated with item/slot variables when mode is
	// expression; the result is a duration target in seconds
	Expression string `json:"expression" gorm:"type:text;column:expression"`

	Content       ContentRef    `json:"content" gorm:"embedded;embeddedPrefix:content_"`
	PlaybackOrder PlaybackOrder `json:"playback_order" gorm:"type:text;not null;default:shuffle;column:playback_order"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}
