// Package playout builds and maintains the materialized timeline for
// each channel: it walks the active schedule, pulls content through
// deterministic enumerators, wraps it with filler and decoration, and
// commits the result atomically.
package playout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/castawaytv/castaway/internal/config"
	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/deco"
	"github.com/castawaytv/castaway/internal/filler"
	"github.com/castawaytv/castaway/internal/history"
	"github.com/castawaytv/castaway/internal/library"
	"github.com/castawaytv/castaway/internal/logger"
	"github.com/castawaytv/castaway/internal/models"
	"github.com/castawaytv/castaway/internal/rotation"
	"github.com/castawaytv/castaway/internal/schedule"
)

// BuildMode selects how a build treats the existing timeline
type BuildMode string

// Build modes
const (
	// BuildModeReset discards items from the cutoff forward and
	// regenerates them; earlier items, history and enumerator seeds are
	// preserved
	BuildModeReset BuildMode = "reset"
	// BuildModeContinue extends strictly forward from the anchor
	BuildModeContinue BuildMode = "continue"
)

var (
	// ErrBuildInProgress means a concurrent trigger was coalesced away
	ErrBuildInProgress = errors.New("a build is already running for this playout")
	ErrBuildFailed     = errors.New("playout build failed")
)

// Builder orchestrates playout builds
type Builder struct {
	database  *db.DB
	repos     *db.Repositories
	library   *library.Service
	schedules *schedule.Resolver
	decos     *deco.Resolver
	injector  *filler.Injector
	ledger    *history.Service
	cfg       config.PlayoutConfig

	locks *lockMap
	// now is the clock source, overridable in tests
	now func() time.Time
}

// NewBuilder creates a playout builder wired to its collaborators
func NewBuilder(database *db.DB, repos *db.Repositories, lib *library.Service, cfg config.PlayoutConfig) *Builder {
	return &Builder{
		database:  database,
		repos:     repos,
		library:   lib,
		schedules: schedule.NewResolver(repos),
		decos:     deco.NewResolver(repos),
		injector:  filler.NewInjector(),
		ledger:    history.NewService(repos),
		cfg:       cfg,
		locks:     newLockMap(),
		now:       time.Now,
	}
}

// buildRun carries the working state of one build cycle
type buildRun struct {
	playout  *models.Playout
	schedule *models.Schedule
	sess     *session
	pos      time.Time
	horizon  time.Time
	// cancelled is set when the context expired between steps; the work
	// committed so far stands
	cancelled bool
	// presets caches filler presets loaded during the run
	presets map[uuid.UUID]*models.FillerPreset
}

// Build runs one build cycle for a playout. A second trigger while a
// build is in flight returns ErrBuildInProgress instead of queueing.
// The cycle's items, anchor, enumerator states and history commit in
// one transaction; failure rolls everything back and the previous
// timeline stays servable either way.
func (b *Builder) Build(ctx context.Context, playoutID uuid.UUID, mode BuildMode) error {
	lock := b.locks.get(playoutID)
	if !lock.TryLock() {
		logger.Log.Debug().
			Str("playout_id", playoutID.String()).
			Msg("Build already in flight, coalescing trigger")
		return ErrBuildInProgress
	}
	defer lock.Unlock()

	startedAt := b.now().UTC()

	playout, err := b.repos.Playouts.GetByID(ctx, playoutID)
	if err != nil {
		return err
	}
	sched, err := b.repos.Schedules.GetByID(ctx, playout.ScheduleID)
	if err != nil {
		return err
	}
	if !sched.Active {
		b.recordStatus(playoutID, models.BuildOutcomeFailed, "schedule is not active")
		return nil
	}

	run, err := b.prepare(ctx, playout, sched, mode, startedAt)
	if err != nil {
		b.recordStatus(playoutID, models.BuildOutcomeFailed, err.Error())
		return fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	err = b.database.WithTransaction(ctx, func(tx *gorm.DB) error {
		if mode == BuildModeReset {
			if err := b.repos.Playouts.DeleteItemsFromTx(tx, playout.ID, run.pos); err != nil {
				return err
			}
			if err := b.repos.Playouts.DeleteGapsFromTx(tx, playout.ID, run.pos); err != nil {
				return err
			}
		}

		switch sched.Kind {
		case models.ScheduleKindBlock:
			if err := b.buildBlocks(ctx, tx, run); err != nil {
				return err
			}
		default:
			if err := b.buildClassic(ctx, tx, run); err != nil {
				return err
			}
		}

		playout.AnchorNext = run.pos
		playout.UpdatedAt = b.now().UTC()
		if err := b.repos.Playouts.SaveAnchorTx(tx, playout); err != nil {
			return err
		}
		return run.sess.persistTx(tx)
	})
	if err != nil {
		b.recordStatus(playoutID, models.BuildOutcomeFailed, err.Error())
		return fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	outcome := models.BuildOutcomeSuccess
	message := fmt.Sprintf("built to %s", run.pos.Format(time.RFC3339))
	if run.cancelled {
		outcome = models.BuildOutcomeCancelled
		message = fmt.Sprintf("cancelled at %s", run.pos.Format(time.RFC3339))
	}
	b.recordStatus(playoutID, outcome, message)

	logger.Log.Info().
		Str("playout_id", playoutID.String()).
		Str("mode", string(mode)).
		Str("outcome", string(outcome)).
		Time("anchor_next", run.pos).
		Dur("elapsed", b.now().UTC().Sub(startedAt)).
		Msg("Playout build finished")

	return nil
}

// prepare computes the build window and opens the enumerator session
func (b *Builder) prepare(ctx context.Context, playout *models.Playout, sched *models.Schedule, mode BuildMode, now time.Time) (*buildRun, error) {
	lookahead := playout.LookaheadHours
	if lookahead <= 0 {
		lookahead = b.cfg.LookaheadHours
	}
	horizon := now.Add(time.Duration(lookahead) * time.Hour)

	pos := playout.AnchorNext
	if mode == BuildModeReset || pos.IsZero() || pos.Before(now.Add(-24*time.Hour)) {
		pos = now
		// forward sequencing state is recomputed from the cutoff
		playout.MultipleRemaining = nil
		playout.DurationFinish = nil
		playout.InFlood = false
		playout.InDurationFiller = false
	}

	opts := rotation.Options{KeepMultiPartTogether: sched.KeepMultiPartEpisodesTogether}
	sess, err := newSession(ctx, b.repos, b.library, b.ledger, playout, opts)
	if err != nil {
		return nil, err
	}

	return &buildRun{
		playout:  playout,
		schedule: sched,
		sess:     sess,
		pos:      pos,
		horizon:  horizon,
		presets:  make(map[uuid.UUID]*models.FillerPreset),
	}, nil
}

// buildClassic walks the classic item list from the anchor until the
// horizon, handling fixed starts, instruction modes and gap recording
func (b *Builder) buildClassic(ctx context.Context, tx *gorm.DB, run *buildRun) error {
	emptyStreak := 0

	for run.pos.Before(run.horizon) {
		if ctx.Err() != nil {
			run.cancelled = true
			return nil
		}

		items, err := b.schedules.ActiveItems(ctx, run.playout.ScheduleID, run.pos)
		if err != nil {
			return err
		}
		cursor := schedule.NewCursor(items, run.playout.AnchorItemIndex)
		item := cursor.Current()

		start := schedule.ItemStart(item, run.pos)
		if start.After(run.pos) {
			fillTo := start
			if fillTo.After(run.horizon) {
				fillTo = run.horizon
			}
			if err := b.emitDeadAir(ctx, tx, run, run.pos, fillTo); err != nil {
				return err
			}
			run.pos = start
		}

		done, err := b.emitScheduleItem(ctx, tx, run, items, cursor.Index, item)
		switch {
		case isEmptySource(err):
			resume := run.horizon
			if next := schedule.NextFixedStart(items, cursor.Index, run.pos); next != nil && next.Before(run.horizon) {
				resume = *next
			}
			if err := b.recordGap(tx, run, run.pos, resume); err != nil {
				return err
			}
			run.pos = resume
			cursor.Advance()
			run.playout.AnchorItemIndex = cursor.Index
			emptyStreak++
			if emptyStreak >= b.cfg.GapRetries {
				logger.Log.Warn().
					Str("playout_id", run.playout.ID.String()).
					Int("empty_sources", emptyStreak).
					Msg("Consecutive empty sources, abandoning window")
				run.pos = run.horizon
				return nil
			}
			continue
		case err != nil:
			return err
		}

		emptyStreak = 0
		if done {
			cursor.Advance()
			run.playout.AnchorItemIndex = cursor.Index
		}
	}
	return nil
}

// recordGap persists a gap interval, skipping degenerate spans
func (b *Builder) recordGap(tx *gorm.DB, run *buildRun, start, finish time.Time) error {
	if !finish.After(start) {
		return nil
	}
	logger.Log.Warn().
		Str("playout_id", run.playout.ID.String()).
		Time("start", start).
		Time("finish", finish).
		Msg("Recording playout gap")
	gap := &models.PlayoutGap{
		ID:        uuid.New(),
		PlayoutID: run.playout.ID,
		Start:     start,
		Finish:    finish,
		CreatedAt: b.now().UTC(),
	}
	return b.repos.Playouts.CreateGapTx(tx, gap)
}

// recordStatus upserts the build outcome outside the build
// transaction so a rolled-back build still reports what happened
func (b *Builder) recordStatus(playoutID uuid.UUID, outcome models.BuildOutcome, message string) {
	status := &models.BuildStatus{
		PlayoutID: playoutID,
		BuiltAt:   b.now().UTC(),
		Outcome:   outcome,
		Message:   message,
	}
	if err := b.repos.Playouts.SaveBuildStatus(context.Background(), status); err != nil {
		logger.Log.Error().
			Err(err).
			Str("playout_id", playoutID.String()).
			Msg("Failed to record build status")
	}
}

// fillerPreset loads a preset by id through the run cache
func (b *Builder) fillerPreset(ctx context.Context, run *buildRun, id *uuid.UUID) (*models.FillerPreset, error) {
	if id == nil {
		return nil, nil
	}
	if preset, ok := run.presets[*id]; ok {
		return preset, nil
	}
	preset, err := b.repos.Schedules.GetFillerPreset(ctx, *id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	run.presets[*id] = preset
	return preset, nil
}

func isEmptySource(err error) bool {
	return errors.Is(err, rotation.ErrEmptyContentSource) ||
		errors.Is(err, history.ErrRerunPairingExhausted) ||
		errors.Is(err, filler.ErrNoFillerContent)
}
