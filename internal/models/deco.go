package models

import (
	"time"

	"github.com/google/uuid"
)

// Watermark is an image overlay applied to scheduled content
type Watermark struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name      string    `json:"name" gorm:"type:text;not null;column:name" validate:"required"`
	ImagePath string    `json:"image_path" gorm:"type:text;not null;column:image_path" validate:"required"`
	// Location is a corner keyword: top_left, top_right, bottom_left, bottom_right
	Location  string    `json:"location" gorm:"type:text;not null;default:bottom_right;column:location"`
	Opacity   int       `json:"opacity" gorm:"type:integer;not null;default:100;column:opacity" validate:"gte=0,lte=100"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// GraphicsElement is one templated graphics overlay with variables
type GraphicsElement struct {
	Path      string            `json:"path"`
	Variables map[string]string `json:"variables,omitempty"`
}

// Deco is a named overlay bundle resolved independently of content
// selection: watermark, graphics elements, dead-air fallback content and
// break content.
type Deco struct {
	ID   uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name string    `json:"name" gorm:"type:text;not null;column:name" validate:"required"`

	WatermarkID      *uuid.UUID        `json:"watermark_id,omitempty" gorm:"type:text;column:watermark_id"`
	GraphicsElements []GraphicsElement `json:"graphics_elements,omitempty" gorm:"type:text;serializer:json;column:graphics_elements"`

	// DeadAirFallback plays when nothing else could be scheduled
	DeadAirFallback ContentRef `json:"dead_air_fallback" gorm:"embedded;embeddedPrefix:dead_air_"`
	// BreakContent plays during filler breaks governed by this deco
	BreakContent ContentRef `json:"break_content" gorm:"embedded;embeddedPrefix:break_"`

	// UseDuringFiller applies the overlay set to filler emissions too
	UseDuringFiller bool `json:"use_during_filler" gorm:"type:integer;not null;default:0;column:use_during_filler"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// DecoTemplate lays decos out over a broadcast day
type DecoTemplate struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name      string    `json:"name" gorm:"type:text;not null;column:name" validate:"required"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// DecoTemplateItem scopes a deco to a time window within the day.
// EndMinutes may wrap past midnight when smaller than StartMinutes.
type DecoTemplateItem struct {
	ID             uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	DecoTemplateID uuid.UUID `json:"deco_template_id" gorm:"type:text;not null;index;column:deco_template_id" validate:"required"`
	DecoID         uuid.UUID `json:"deco_id" gorm:"type:text;not null;column:deco_id" validate:"required"`
	StartMinutes   int       `json:"start_minutes" gorm:"type:integer;not null;column:start_minutes" validate:"gte=0,lt=1440"`
	EndMinutes     int       `json:"end_minutes" gorm:"type:integer;not null;column:end_minutes" validate:"gte=0,lt=1440"`

	// Populated by joins, not stored in database
	Deco *Deco `json:"deco,omitempty" gorm:"-"`
}

// DecoAssignment binds a deco template to a playout under an activation
// rule, with the same priority semantics as schedule alternates
type DecoAssignment struct {
	ID             uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	PlayoutID      uuid.UUID `json:"playout_id" gorm:"type:text;not null;index;column:playout_id" validate:"required"`
	DecoTemplateID uuid.UUID `json:"deco_template_id" gorm:"type:text;not null;column:deco_template_id" validate:"required"`
	Priority       int       `json:"priority" gorm:"type:integer;not null;default:0;column:priority"`

	Rule ActivationRule `json:"rule" gorm:"embedded"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}
