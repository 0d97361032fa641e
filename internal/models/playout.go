package models

import (
	"time"

	"github.com/google/uuid"
)

// FillerKind tags a playout item with the filler slot that produced it
type FillerKind string

// Filler kinds
const (
	FillerKindNone      FillerKind = ""
	FillerKindPreRoll   FillerKind = "pre_roll"
	FillerKindMidRoll   FillerKind = "mid_roll"
	FillerKindPostRoll  FillerKind = "post_roll"
	FillerKindTail      FillerKind = "tail"
	FillerKindFallback  FillerKind = "fallback"
	FillerKindDeadAir   FillerKind = "dead_air"
	FillerKindGuideMode FillerKind = "guide_mode"
)

// BuildOutcome is the result class of the last build attempt
type BuildOutcome string

// Build outcomes
const (
	BuildOutcomeSuccess   BuildOutcome = "success"
	BuildOutcomeFailed    BuildOutcome = "failed"
	BuildOutcomeCancelled BuildOutcome = "cancelled"
)

// Playout is the aggregate root for one channel's materialized timeline.
// The anchor columns are the sole resumable cursor for classic-mode
// sequencing; block mode additionally relies on enumerator states.
type Playout struct {
	ID         uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	ChannelID  uuid.UUID `json:"channel_id" gorm:"type:text;not null;uniqueIndex;column:channel_id" validate:"required"`
	ScheduleID uuid.UUID `json:"schedule_id" gorm:"type:text;not null;column:schedule_id" validate:"required"`

	// DailyRebuildMinutes is the minutes-past-midnight cutoff for the
	// daily full rebuild; nil means the playout builds on demand only
	DailyRebuildMinutes *int `json:"daily_rebuild_minutes,omitempty" gorm:"type:integer;column:daily_rebuild_minutes"`
	LookaheadHours      int  `json:"lookahead_hours" gorm:"type:integer;not null;default:48;column:lookahead_hours"`

	Seed int64 `json:"seed" gorm:"type:integer;not null;column:seed"`

	// Anchor: resumable cursor state
	AnchorNext        time.Time  `json:"anchor_next" gorm:"type:datetime;not null;column:anchor_next"`
	AnchorItemIndex   int        `json:"anchor_item_index" gorm:"type:integer;not null;default:0;column:anchor_item_index"`
	MultipleRemaining *int       `json:"multiple_remaining,omitempty" gorm:"type:integer;column:multiple_remaining"`
	DurationFinish    *time.Time `json:"duration_finish,omitempty" gorm:"type:datetime;column:duration_finish"`
	InFlood           bool       `json:"in_flood" gorm:"type:integer;not null;default:0;column:in_flood"`
	InDurationFiller  bool       `json:"in_duration_filler" gorm:"type:integer;not null;default:0;column:in_duration_filler"`
	NextGuideGroup    int        `json:"next_guide_group" gorm:"type:integer;not null;default:1;column:next_guide_group"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewPlayout creates a playout for a channel with a fresh random-ish seed
func NewPlayout(channelID, scheduleID uuid.UUID, seed int64, start time.Time) *Playout {
	now := time.Now().UTC()
	return &Playout{
		ID:             uuid.New(),
		ChannelID:      channelID,
		ScheduleID:     scheduleID,
		LookaheadHours: 48,
		Seed:           seed,
		AnchorNext:     start.UTC(),
		NextGuideGroup: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// EnumeratorState is the persisted (seed, position) cursor for one
// (playout, collection key) pair. Replaying the same seed and content
// ordering from position always yields the same next item.
type EnumeratorState struct {
	ID            uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	PlayoutID     uuid.UUID `json:"playout_id" gorm:"type:text;not null;uniqueIndex:idx_enum_playout_key;column:playout_id" validate:"required"`
	CollectionKey string    `json:"collection_key" gorm:"type:text;not null;uniqueIndex:idx_enum_playout_key;column:collection_key" validate:"required"`
	Seed          int64     `json:"seed" gorm:"type:integer;not null;column:seed"`
	Position      int       `json:"position" gorm:"type:integer;not null;default:0;column:position"`
	// VersionTag detects that the underlying collection changed shape
	// since the cursor was last advanced
	VersionTag string    `json:"version_tag" gorm:"type:text;column:version_tag"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// PlayoutItem is one materialized, time-bounded timeline entry
type PlayoutItem struct {
	ID          uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	PlayoutID   uuid.UUID `json:"playout_id" gorm:"type:text;not null;index:idx_playout_item_start;column:playout_id" validate:"required"`
	MediaItemID uuid.UUID `json:"media_item_id" gorm:"type:text;not null;column:media_item_id" validate:"required"`

	Content ContentRef `json:"content" gorm:"embedded;embeddedPrefix:content_"`

	Start  time.Time `json:"start" gorm:"type:datetime;not null;index:idx_playout_item_start;column:start"`
	Finish time.Time `json:"finish" gorm:"type:datetime;not null;column:finish"`
	// GuideStart/GuideFinish override the guide-visible window for
	// entries that are hidden or merged in the program guide
	GuideStart  *time.Time `json:"guide_start,omitempty" gorm:"type:datetime;column:guide_start"`
	GuideFinish *time.Time `json:"guide_finish,omitempty" gorm:"type:datetime;column:guide_finish"`

	// InSeconds/OutSeconds are trim points within the media item
	InSeconds  int64 `json:"in_seconds" gorm:"type:integer;not null;default:0;column:in_seconds"`
	OutSeconds int64 `json:"out_seconds" gorm:"type:integer;not null;column:out_seconds"`

	FillerKind  FillerKind `json:"filler_kind" gorm:"type:text;not null;default:'';column:filler_kind"`
	GuideGroup  int        `json:"guide_group" gorm:"type:integer;not null;default:0;column:guide_group"`
	CustomTitle *string    `json:"custom_title,omitempty" gorm:"type:text;column:custom_title"`

	WatermarkID      *uuid.UUID        `json:"watermark_id,omitempty" gorm:"type:text;column:watermark_id"`
	GraphicsElements []GraphicsElement `json:"graphics_elements,omitempty" gorm:"type:text;serializer:json;column:graphics_elements"`

	// CollectionKey + VersionTag detect that the source collection changed
	// shape since this item was built
	CollectionKey string `json:"collection_key" gorm:"type:text;not null;column:collection_key"`
	VersionTag    string `json:"version_tag" gorm:"type:text;column:version_tag"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`

	// Populated by joins, not stored in database
	MediaItem *MediaItem `json:"media_item,omitempty" gorm:"-"`
}

// PlayoutGap records an interval where no content was available
type PlayoutGap struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	PlayoutID uuid.UUID `json:"playout_id" gorm:"type:text;not null;index;column:playout_id" validate:"required"`
	Start     time.Time `json:"start" gorm:"type:datetime;not null;column:start"`
	Finish    time.Time `json:"finish" gorm:"type:datetime;not null;column:finish"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// BuildStatus is the last build outcome for a playout, overwritten on
// every attempt (one row per playout, not a log)
type BuildStatus struct {
	PlayoutID uuid.UUID    `json:"playout_id" gorm:"type:text;primaryKey;column:playout_id"`
	BuiltAt   time.Time    `json:"built_at" gorm:"type:datetime;not null;column:built_at"`
	Outcome   BuildOutcome `json:"outcome" gorm:"type:text;not null;column:outcome"`
	Message   string       `json:"message" gorm:"type:text;column:message"`
}
