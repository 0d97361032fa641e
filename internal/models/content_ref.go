package models

import (
	"fmt"

	"github.com/google/uuid"
)

// ContentKind discriminates what a ContentRef points at
type ContentKind string

// Content reference kinds
const (
	ContentKindMediaItem       ContentKind = "media_item"
	ContentKindCollection      ContentKind = "collection"
	ContentKindSmartCollection ContentKind = "smart_collection"
	ContentKindMultiCollection ContentKind = "multi_collection"
	ContentKindPlaylist        ContentKind = "playlist"
	ContentKindFillGroup       ContentKind = "fill_group"
	ContentKindFake            ContentKind = "fake"
)

// ContentRef is a discriminated reference to schedulable content.
// It is embedded into schedule items, block items, filler presets and
// playout items; once resolved for a build step it is immutable.
type ContentRef struct {
	Kind     ContentKind `json:"kind" gorm:"type:text;column:kind"`
	TargetID uuid.UUID   `json:"target_id" gorm:"type:text;column:target_id"`
	// FakeKey names a virtual collection with no backing library rows (kind=fake)
	FakeKey string `json:"fake_key,omitempty" gorm:"type:text;column:fake_key"`
}

// IsZero reports whether the reference is unset
func (r ContentRef) IsZero() bool {
	return r.Kind == ""
}

// CollectionKey returns the stable key used for enumerator state and
// history bookkeeping. Two schedule items sharing a key share rotation.
func (r ContentRef) CollectionKey() string {
	if r.Kind == ContentKindFake {
		return fmt.Sprintf("%s:%s", r.Kind, r.FakeKey)
	}
	return fmt.Sprintf("%s:%s", r.Kind, r.TargetID)
}
