// Package history tracks what each playout has aired per content
// source. The ledger drives sequential resume across rebuilds and the
// first-run/rerun pairing rules.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/logger"
	"github.com/castawaytv/castaway/internal/models"
	"github.com/castawaytv/castaway/internal/rotation"
)

// ErrRerunPairingExhausted is returned when no candidate satisfying
// the rerun mode was found within the retry bound. Callers treat it
// like an empty content source.
var ErrRerunPairingExhausted = errors.New("no candidate satisfies rerun pairing within retry bound")

// Service answers rerun eligibility questions and records airings
type Service struct {
	repos *db.Repositories
}

// NewService creates a new history service instance
func NewService(repos *db.Repositories) *Service {
	return &Service{repos: repos}
}

// SelectNextTx returns the enumerator's current item after skipping
// candidates ruled out by the rerun mode. The enumerator is left
// positioned at the returned item; maxAttempts bounds the search so a
// source with no eligible item cannot spin forever. The first-run
// ledger is read through the build transaction so a rerun slot pairs
// with first runs aired earlier in the same cycle.
func (s *Service) SelectNextTx(tx *gorm.DB, playoutID uuid.UUID, collectionKey string, enum rotation.Enumerator, mode models.RerunMode, maxAttempts int) (*models.MediaItem, error) {
	if mode == models.RerunModeNone || mode == "" {
		item, ok := enum.Current()
		if !ok {
			return nil, rotation.ErrEmptyContentSource
		}
		return item, nil
	}

	aired, err := s.repos.History.FirstRunItemsTx(tx, playoutID, collectionKey)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		item, ok := enum.Current()
		if !ok {
			return nil, rotation.ErrEmptyContentSource
		}

		_, hasAired := aired[item.ID]
		switch mode {
		case models.RerunModeFirstRun:
			if !hasAired {
				return item, nil
			}
		case models.RerunModeRerun:
			if hasAired {
				return item, nil
			}
		}
		enum.MoveNext()
	}

	logger.Log.Warn().
		Str("playout_id", playoutID.String()).
		Str("collection_key", collectionKey).
		Str("rerun_mode", string(mode)).
		Int("attempts", maxAttempts).
		Msg("Rerun pairing exhausted, treating source as empty")

	return nil, ErrRerunPairingExhausted
}

// RecordAiringTx appends a ledger entry for an emission and, when
// markFirstRun is set, records the item so later rerun slots can pair
// with it. Runs inside the build transaction.
func (s *Service) RecordAiringTx(tx *gorm.DB, playoutID uuid.UUID, collectionKey string, item *models.MediaItem, start, finish time.Time, state rotation.State, markFirstRun, multiPartChild bool) error {
	entry := models.NewHistoryEntry(playoutID, collectionKey, item.ID, start, finish, state.Seed, state.Position)
	entry.MultiPartChild = multiPartChild
	if err := s.repos.History.AppendTx(tx, entry); err != nil {
		return err
	}

	if markFirstRun {
		return s.repos.History.MarkFirstRunTx(tx, playoutID, collectionKey, item.ID, start)
	}
	return nil
}

// ResumeState returns the persisted enumerator state of the last
// airing for a source, or nil when the source has no history yet.
func (s *Service) ResumeState(ctx context.Context, playoutID uuid.UUID, collectionKey string) (*rotation.State, error) {
	last, err := s.repos.History.GetLastForKey(ctx, playoutID, collectionKey)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &rotation.State{Seed: last.Seed, Position: last.Position}, nil
}

// OpenMultiPart returns the last airing for a source when it was a
// multi-part episode with later parts still unaired, so a reseeded
// pass can keep the sequence adjacent. Nil when the sequence is
// closed or the source has no history.
func (s *Service) OpenMultiPart(ctx context.Context, playoutID uuid.UUID, collectionKey string) (*models.HistoryEntry, error) {
	last, err := s.repos.History.GetLastForKey(ctx, playoutID, collectionKey)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !last.MultiPartChild {
		return nil, nil
	}
	return last, nil
}
