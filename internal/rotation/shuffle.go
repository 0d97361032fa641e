package rotation

import (
	"math/rand"

	"github.com/castawaytv/castaway/internal/models"
)

// reseedAttempts bounds how many times a reseed may be retried to avoid
// an immediate head repeat
const reseedAttempts = 10

// shuffleEnumerator emits a seeded permutation per full pass. On
// exhaustion it reseeds and reshuffles, rejecting permutations whose
// head would repeat the previous pass's tail (an audible "restart").
type shuffleEnumerator struct {
	members  []Member
	state    State
	shuffled []Member
	suppress string
}

func newShuffle(members []Member, state State, opts Options) *shuffleEnumerator {
	state = clampPosition(state, len(members))

	e := &shuffleEnumerator{
		members:  members,
		state:    state,
		suppress: opts.SuppressHeadID,
	}
	e.shuffled = shufflePass(members, state.Seed, opts.KeepMultiPartTogether)

	// a fresh pass must not lead with a suppressed item
	if state.Position == 0 && e.suppress != "" && len(members) > 1 {
		e.avoidHead(e.suppress)
	}
	return e
}

func (e *shuffleEnumerator) Current() (*models.MediaItem, bool) {
	if len(e.shuffled) == 0 {
		return nil, false
	}
	return e.shuffled[e.state.Position%len(e.shuffled)].MediaItem, true
}

func (e *shuffleEnumerator) MoveNext() {
	if (e.state.Position+1)%len(e.shuffled) == 0 {
		tail, _ := e.Current()
		e.state.Position = 0
		e.state.Seed = nextSeed(e.state.Seed)
		e.shuffled = shufflePass(e.members, e.state.Seed, false)
		if tail != nil && len(e.members) > 1 {
			e.avoidHead(tail.ID.String())
		}
		return
	}
	e.state.Position++
}

func (e *shuffleEnumerator) State() State {
	return e.state
}

func (e *shuffleEnumerator) Count() int {
	return len(e.shuffled)
}

// avoidHead reseeds until the permutation does not open with the given
// item, bounded so two-item sources cannot loop forever
func (e *shuffleEnumerator) avoidHead(id string) {
	for attempt := 0; attempt < reseedAttempts; attempt++ {
		head, ok := e.Current()
		if !ok || head.ID.String() != id {
			return
		}
		e.state.Seed = nextSeed(e.state.Seed)
		e.shuffled = shufflePass(e.members, e.state.Seed, false)
	}
}

// shufflePass produces the seeded permutation for one full pass
func shufflePass(members []Member, seed int64, keepMultiPart bool) []Member {
	shuffled := make([]Member, len(members))
	copy(shuffled, members)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if keepMultiPart {
		shuffled = groupMultiPart(shuffled)
	}
	return shuffled
}

// nextSeed advances a seed by a fixed, deterministic step
func nextSeed(seed int64) int64 {
	return rand.New(rand.NewSource(seed)).Int63()
}
