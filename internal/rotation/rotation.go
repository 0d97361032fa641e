// Package rotation provides deterministic, resumable enumeration over
// resolved content members. Every enumerator is a pure function of
// (seed, position, member ordering): replaying the same state over the
// same members always yields the same emission sequence, which is what
// makes playout rebuilds reproducible across process restarts.
package rotation

import (
	"errors"

	"github.com/castawaytv/castaway/internal/models"
)

// ErrEmptyContentSource indicates the resolved content reference has no
// eligible members. Callers treat this as a gap trigger, not a fatal
// error.
var ErrEmptyContentSource = errors.New("content source has no eligible items")

// State is the persisted cursor for one enumerator
type State struct {
	Seed     int64 `json:"seed"`
	Position int   `json:"position"`
}

// Member is one eligible item within a resolved content reference.
// GroupKey is non-empty when the member belongs to a sub-collection
// that should be scheduled as a unit (shuffle-in-order).
type Member struct {
	MediaItem *models.MediaItem
	GroupKey  string
}

// Enumerator walks a resolved member list in some order
type Enumerator interface {
	// Current returns the member at the cursor; false when the source is empty
	Current() (*models.MediaItem, bool)
	// MoveNext advances the cursor
	MoveNext()
	// State returns the persistable cursor
	State() State
	// Count returns the number of members per pass
	Count() int
}

// Options tweaks enumerator construction
type Options struct {
	// KeepMultiPartTogether keeps "Part N" titles adjacent regardless of
	// playback order
	KeepMultiPartTogether bool
	// SuppressHeadID rejects reseeded permutations whose first emission
	// would repeat the given item (the just-aired child of an open
	// multi-part sequence, or the previous pass's tail)
	SuppressHeadID string
}

// New constructs the enumerator for a playback order. The persisted
// state is clamped when the member set shrank underneath it; a stale
// cursor is recovered, never raised.
func New(order models.PlaybackOrder, members []Member, state State, opts Options) (Enumerator, error) {
	if len(members) == 0 {
		return nil, ErrEmptyContentSource
	}

	switch order {
	case models.PlaybackOrderSequential:
		return newSequential(members, state), nil
	case models.PlaybackOrderRandom:
		return newRandom(members, state), nil
	case models.PlaybackOrderShuffleInOrder:
		return newShuffleInOrder(members, state), nil
	default:
		// shuffle is the default order
		return newShuffle(members, state, opts), nil
	}
}

// Next is the single-step form of the enumerator contract: resolve one
// emission and return the advanced state. Filler slots use this shape.
func Next(order models.PlaybackOrder, members []Member, state State, opts Options) (*models.MediaItem, State, error) {
	enum, err := New(order, members, state, opts)
	if err != nil {
		return nil, state, err
	}
	item, ok := enum.Current()
	if !ok {
		return nil, state, ErrEmptyContentSource
	}
	enum.MoveNext()
	return item, enum.State(), nil
}

// clampPosition recovers a persisted position that ran past the member
// count, advancing the seed so the fresh pass does not replay the
// previous permutation
func clampPosition(state State, count int) State {
	if count > 0 && state.Position >= count {
		state.Position = 0
		state.Seed = nextSeed(state.Seed)
	}
	return state
}
