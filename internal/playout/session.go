package playout

import (
	"context"
	"hash/fnv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/history"
	"github.com/castawaytv/castaway/internal/library"
	"github.com/castawaytv/castaway/internal/models"
	"github.com/castawaytv/castaway/internal/rotation"
)

// session holds the enumerator cursors touched by one build cycle.
// Membership is re-resolved on every Enumerator call so a library
// mutation mid-build is observed instead of raced; cursor state lives
// here until the build transaction persists it.
type session struct {
	repos   *db.Repositories
	library *library.Service
	ledger  *history.Service
	playout *models.Playout
	opts    rotation.Options

	enums  map[string]*sessionEnum
	states map[string]*models.EnumeratorState
}

type sessionEnum struct {
	enum    rotation.Enumerator
	order   models.PlaybackOrder
	version string
	members []rotation.Member
}

func newSession(ctx context.Context, repos *db.Repositories, lib *library.Service, ledger *history.Service, playout *models.Playout, opts rotation.Options) (*session, error) {
	persisted, err := repos.Playouts.GetEnumeratorStates(ctx, playout.ID)
	if err != nil {
		return nil, err
	}
	states := make(map[string]*models.EnumeratorState, len(persisted))
	for _, state := range persisted {
		states[state.CollectionKey] = state
	}
	return &session{
		repos:   repos,
		library: lib,
		ledger:  ledger,
		playout: playout,
		opts:    opts,
		enums:   make(map[string]*sessionEnum),
		states:  states,
	}, nil
}

// Enumerator returns the positioned enumerator for a content
// reference. The collection key identifies the cursor so schedule
// items and filler presets sharing a source stay in lockstep.
func (s *session) Enumerator(ctx context.Context, ref models.ContentRef, order models.PlaybackOrder) (rotation.Enumerator, string, error) {
	key := ref.CollectionKey()

	resolution, err := s.library.Resolve(ctx, ref)
	if err != nil {
		return nil, key, err
	}
	if len(resolution.Members) == 0 {
		return nil, key, rotation.ErrEmptyContentSource
	}

	if cached, ok := s.enums[key]; ok {
		if cached.version == resolution.Version && cached.order == order {
			return cached.enum, key, nil
		}
		// membership changed under a live cursor: rebuild over the new
		// members carrying the cursor forward (clamping recovers any
		// out-of-range position)
		enum, err := rotation.New(order, resolution.Members, cached.enum.State(), s.opts)
		if err != nil {
			return nil, key, err
		}
		cached.enum = enum
		cached.order = order
		cached.version = resolution.Version
		cached.members = resolution.Members
		return enum, key, nil
	}

	state := s.initialState(key, resolution.Version)
	opts := s.opts
	open, err := s.ledger.OpenMultiPart(ctx, s.playout.ID, key)
	if err != nil {
		return nil, key, err
	}
	if open != nil {
		// a reseeded pass must not immediately repeat the just-aired
		// child of an unfinished multi-part sequence
		opts.SuppressHeadID = open.MediaItemID.String()
	}
	enum, err := rotation.New(order, resolution.Members, state, opts)
	if err != nil {
		return nil, key, err
	}
	s.enums[key] = &sessionEnum{enum: enum, order: order, version: resolution.Version, members: resolution.Members}
	return enum, key, nil
}

// membersFor returns the resolved member list behind a live enumerator
func (s *session) membersFor(key string) []rotation.Member {
	if cached, ok := s.enums[key]; ok {
		return cached.members
	}
	return nil
}

// initialState loads the persisted cursor for a key, resetting the
// position when the collection's version tag changed since it was
// saved. Fresh sources derive their seed from the playout seed and the
// key so distinct sources rotate independently but reproducibly.
func (s *session) initialState(key, version string) rotation.State {
	if persisted, ok := s.states[key]; ok {
		state := rotation.State{Seed: persisted.Seed, Position: persisted.Position}
		if persisted.VersionTag != "" && persisted.VersionTag != version {
			state.Position = 0
		}
		return state
	}
	return rotation.State{Seed: deriveSeed(s.playout.Seed, key)}
}

// stateFor returns the live cursor for a key, for history recording
func (s *session) stateFor(key string) rotation.State {
	if cached, ok := s.enums[key]; ok {
		return cached.enum.State()
	}
	return rotation.State{}
}

// versionFor returns the resolved version tag for a key
func (s *session) versionFor(key string) string {
	if cached, ok := s.enums[key]; ok {
		return cached.version
	}
	return ""
}

// persistTx saves every touched cursor inside the build transaction
func (s *session) persistTx(tx *gorm.DB) error {
	for key, cached := range s.enums {
		state := cached.enum.State()
		row, ok := s.states[key]
		if !ok {
			row = &models.EnumeratorState{
				ID:            uuid.New(),
				PlayoutID:     s.playout.ID,
				CollectionKey: key,
			}
			s.states[key] = row
		}
		row.Seed = state.Seed
		row.Position = state.Position
		row.VersionTag = cached.version
		if err := s.repos.Playouts.SaveEnumeratorStateTx(tx, row); err != nil {
			return err
		}
	}
	return nil
}

// deriveSeed mixes the playout seed with a key hash so each content
// source gets a stable, distinct seed
func deriveSeed(playoutSeed int64, key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return playoutSeed ^ int64(h.Sum64())
}
