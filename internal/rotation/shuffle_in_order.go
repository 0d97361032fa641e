package rotation

import (
	"math/rand"
	"sort"

	"github.com/castawaytv/castaway/internal/models"
)

// shuffleInOrderEnumerator shuffles which group plays next while keeping
// each group's members in their resolved (chronological) order. Members
// with no group key form one ungrouped pool that is itself shuffled.
type shuffleInOrderEnumerator struct {
	members []Member
	state   State
	ordered []Member
}

func newShuffleInOrder(members []Member, state State) *shuffleInOrderEnumerator {
	state = clampPosition(state, len(members))
	return &shuffleInOrderEnumerator{
		members: members,
		state:   state,
		ordered: interleaveGroups(members, state.Seed),
	}
}

func (e *shuffleInOrderEnumerator) Current() (*models.MediaItem, bool) {
	if len(e.ordered) == 0 {
		return nil, false
	}
	return e.ordered[e.state.Position%len(e.ordered)].MediaItem, true
}

func (e *shuffleInOrderEnumerator) MoveNext() {
	if (e.state.Position+1)%len(e.ordered) == 0 {
		e.state.Position = 0
		e.state.Seed = nextSeed(e.state.Seed)
		e.ordered = interleaveGroups(e.members, e.state.Seed)
		return
	}
	e.state.Position++
}

func (e *shuffleInOrderEnumerator) State() State {
	return e.state
}

func (e *shuffleInOrderEnumerator) Count() int {
	return len(e.ordered)
}

// interleaveGroups spreads each group's members evenly across the pass
// (a balanced shuffle): group order within a slot is seeded, member
// order within a group is preserved.
func interleaveGroups(members []Member, seed int64) []Member {
	rng := rand.New(rand.NewSource(seed))

	// bucket members by group, preserving resolved order within each
	byGroup := make(map[string][]Member)
	var keys []string
	for _, m := range members {
		key := m.GroupKey
		if _, seen := byGroup[key]; !seen {
			keys = append(keys, key)
		}
		byGroup[key] = append(byGroup[key], m)
	}
	sort.Strings(keys)

	// ungrouped members rotate as one shuffled pool
	if pool, ok := byGroup[""]; ok && len(pool) > 1 {
		rng.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
		byGroup[""] = pool
	}

	type cursor struct {
		items []Member
		next  int
	}
	cursors := make([]*cursor, 0, len(keys))
	longest := 0
	for _, key := range keys {
		items := byGroup[key]
		if len(items) > longest {
			longest = len(items)
		}
		cursors = append(cursors, &cursor{items: items})
	}

	// walk rounds of the longest group, drawing one member from every
	// group that still owes emissions this round, in seeded order
	result := make([]Member, 0, len(members))
	for round := 0; round < longest; round++ {
		batch := make([]*cursor, 0, len(cursors))
		for _, c := range cursors {
			// spread shorter groups across the pass instead of front-loading
			if c.next < len(c.items) && float64(c.next) <= float64(round+1)*float64(len(c.items))/float64(longest)-1+1e-9 {
				batch = append(batch, c)
			}
		}
		rng.Shuffle(len(batch), func(i, j int) {
			batch[i], batch[j] = batch[j], batch[i]
		})
		for _, c := range batch {
			result = append(result, c.items[c.next])
			c.next++
		}
	}

	// anything left over (rounding) drains in group order
	for _, c := range cursors {
		for c.next < len(c.items) {
			result = append(result, c.items[c.next])
			c.next++
		}
	}
	return result
}
