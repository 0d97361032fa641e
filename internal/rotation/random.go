package rotation

import (
	"math/rand"

	"github.com/castawaytv/castaway/internal/models"
)

// randomEnumerator samples independently on every call. No permutation
// is persisted; the running position only exists so a rebuild pass over
// the same seed reproduces the same draws.
type randomEnumerator struct {
	members []Member
	state   State
}

func newRandom(members []Member, state State) *randomEnumerator {
	return &randomEnumerator{members: members, state: state}
}

func (e *randomEnumerator) Current() (*models.MediaItem, bool) {
	if len(e.members) == 0 {
		return nil, false
	}
	// derive the draw from (seed, position) so each position is a fixed,
	// replayable sample
	rng := rand.New(rand.NewSource(e.state.Seed + int64(e.state.Position)*0x9E3779B9))
	return e.members[rng.Intn(len(e.members))].MediaItem, true
}

func (e *randomEnumerator) MoveNext() {
	e.state.Position++
}

func (e *randomEnumerator) State() State {
	return e.state
}

func (e *randomEnumerator) Count() int {
	return len(e.members)
}
