package models

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleKind selects the scheduling strategy for a playout
type ScheduleKind string

// Schedule kinds
const (
	ScheduleKindClassic ScheduleKind = "classic"
	ScheduleKindBlock   ScheduleKind = "block"
)

// PlaybackOrder controls how a content reference is enumerated
type PlaybackOrder string

// Playback orders
const (
	PlaybackOrderSequential     PlaybackOrder = "sequential"
	PlaybackOrderShuffle        PlaybackOrder = "shuffle"
	PlaybackOrderRandom         PlaybackOrder = "random"
	PlaybackOrderShuffleInOrder PlaybackOrder = "shuffle_in_order"
)

// PlayoutMode is the instruction kind of a classic schedule item
type PlayoutMode string

// Playout modes
const (
	// PlayoutModeOne emits a single item
	PlayoutModeOne PlayoutMode = "one"
	// PlayoutModeMultiple emits a fixed count of items
	PlayoutModeMultiple PlayoutMode = "multiple"
	// PlayoutModeDuration emits items until a cumulative duration target
	PlayoutModeDuration PlayoutMode = "duration"
	// PlayoutModeFlood emits items until the next item's fixed start time
	PlayoutModeFlood PlayoutMode = "flood"
)

// FixedStartBehavior controls how strictly a fixed start time is honored
type FixedStartBehavior string

// Fixed start behaviors
const (
	// FixedStartStrict waits for the configured wall-clock time, leaving
	// dead air (or tail filler) until it arrives
	FixedStartStrict FixedStartBehavior = "strict"
	// FixedStartFlexible starts immediately when the previous item ran long
	FixedStartFlexible FixedStartBehavior = "flexible"
)

// Schedule is the abstract program definition owned by a playout.
// A classic schedule carries an ordered item list (plus alternates); a
// block schedule carries template assignments.
type Schedule struct {
	ID        uuid.UUID    `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name      string       `json:"name" gorm:"type:text;not null;column:name" validate:"required"`
	Kind      ScheduleKind `json:"kind" gorm:"type:text;not null;default:classic;column:kind"`
	// KeepMultiPartEpisodesTogether keeps "Part N" titles adjacent
	// regardless of playback order
	KeepMultiPartEpisodesTogether bool      `json:"keep_multi_part_episodes_together" gorm:"type:integer;not null;default:0;column:keep_multi_part_episodes_together"`
	RandomStartPoint              bool      `json:"random_start_point" gorm:"type:integer;not null;default:0;column:random_start_point"`
	Active                        bool      `json:"active" gorm:"type:integer;not null;default:1;column:active"`
	CreatedAt                     time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt                     time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// ScheduleItem is one entry in a classic schedule's item list
type ScheduleItem struct {
	ID         uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	ScheduleID uuid.UUID `json:"schedule_id" gorm:"type:text;not null;index;column:schedule_id" validate:"required"`
	// AlternateID scopes the item to a schedule alternate; items with a
	// nil alternate form the base (unconditional) list
	AlternateID *uuid.UUID `json:"alternate_id,omitempty" gorm:"type:text;index;column:alternate_id"`
	Position    int        `json:"position" gorm:"type:integer;not null;column:position" validate:"gte=0"`

	Content       ContentRef    `json:"content" gorm:"embedded;embeddedPrefix:content_"`
	PlaybackOrder PlaybackOrder `json:"playback_order" gorm:"type:text;not null;default:shuffle;column:playback_order"`

	Mode PlayoutMode `json:"mode" gorm:"type:text;not null;default:one;column:mode"`
	// MultipleCount is the emission count for PlayoutModeMultiple; zero
	// means one full pass of the collection
	MultipleCount int `json:"multiple_count" gorm:"type:integer;not null;default:0;column:multiple_count"`
	// TargetSeconds is the cumulative duration target for PlayoutModeDuration
	TargetSeconds int64 `json:"target_seconds" gorm:"type:integer;not null;default:0;column:target_seconds"`

	// StartMinutes is minutes past midnight for a fixed start; nil means
	// the item starts whenever the previous one finishes
	StartMinutes       *int               `json:"start_minutes,omitempty" gorm:"type:integer;column:start_minutes"`
	FixedStartBehavior FixedStartBehavior `json:"fixed_start_behavior" gorm:"type:text;not null;default:strict;column:fixed_start_behavior"`

	// Rerun pairing: when set, this item consumes the shared pool as a
	// first-run or rerun slot using the named playback orders
	RerunMode RerunMode `json:"rerun_mode" gorm:"type:text;not null;default:none;column:rerun_mode"`

	PreRollFillerID  *uuid.UUID `json:"pre_roll_filler_id,omitempty" gorm:"type:text;column:pre_roll_filler_id"`
	MidRollFillerID  *uuid.UUID `json:"mid_roll_filler_id,omitempty" gorm:"type:text;column:mid_roll_filler_id"`
	PostRollFillerID *uuid.UUID `json:"post_roll_filler_id,omitempty" gorm:"type:text;column:post_roll_filler_id"`
	TailFillerID     *uuid.UUID `json:"tail_filler_id,omitempty" gorm:"type:text;column:tail_filler_id"`
	FallbackFillerID *uuid.UUID `json:"fallback_filler_id,omitempty" gorm:"type:text;column:fallback_filler_id"`

	WatermarkID *uuid.UUID `json:"watermark_id,omitempty" gorm:"type:text;column:watermark_id"`
	CustomTitle *string    `json:"custom_title,omitempty" gorm:"type:text;column:custom_title"`
	// GuideFiller hides the emission from the program guide
	GuideFiller bool `json:"guide_filler" gorm:"type:integer;not null;default:0;column:guide_filler"`
}

// RerunMode marks a schedule item's role in a rerun pairing
type RerunMode string

// Rerun modes
const (
	RerunModeNone     RerunMode = "none"
	RerunModeFirstRun RerunMode = "first_run"
	RerunModeRerun    RerunMode = "rerun"
)

// ScheduleAlternate supersedes the base item list when its activation
// rule matches. Among matching alternates the highest priority index
// wins; ties break to the lowest id for determinism.
type ScheduleAlternate struct {
	ID         uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	ScheduleID uuid.UUID `json:"schedule_id" gorm:"type:text;not null;index;column:schedule_id" validate:"required"`
	Name       string    `json:"name" gorm:"type:text;not null;column:name" validate:"required"`
	Priority   int       `json:"priority" gorm:"type:integer;not null;default:0;column:priority"`

	Rule ActivationRule `json:"rule" gorm:"embedded"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}
