package rotation

import (
	"github.com/castawaytv/castaway/internal/models"
)

// sequentialEnumerator walks members in their resolved order, wrapping
// modulo the member count
type sequentialEnumerator struct {
	members []Member
	state   State
}

func newSequential(members []Member, state State) *sequentialEnumerator {
	if state.Position >= len(members) {
		state.Position %= len(members)
	}
	return &sequentialEnumerator{members: members, state: state}
}

func (e *sequentialEnumerator) Current() (*models.MediaItem, bool) {
	if len(e.members) == 0 {
		return nil, false
	}
	return e.members[e.state.Position%len(e.members)].MediaItem, true
}

func (e *sequentialEnumerator) MoveNext() {
	e.state.Position = (e.state.Position + 1) % len(e.members)
}

func (e *sequentialEnumerator) State() State {
	return e.state
}

func (e *sequentialEnumerator) Count() int {
	return len(e.members)
}
