package playout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/logger"
	"github.com/castawaytv/castaway/internal/models"
)

// Worker keeps every playout built out to its lookahead. It ticks on a
// fixed interval, extending each playout incrementally and running the
// daily full rebuild when a playout's cutoff time passes.
type Worker struct {
	builder  *Builder
	repos    *db.Repositories
	interval time.Duration
	now      func() time.Time

	mu         sync.Mutex
	lastReset  map[uuid.UUID]time.Time
	cancelFunc context.CancelFunc
	done       chan struct{}
}

func NewWorker(builder *Builder, repos *db.Repositories, interval time.Duration) *Worker {
	return &Worker{
		builder:   builder,
		repos:     repos,
		interval:  interval,
		now:       func() time.Time { return time.Now().UTC() },
		lastReset: make(map[uuid.UUID]time.Time),
	}
}

// Start launches the tick loop. An immediate pass runs before the
// first tick so playouts are built right after startup.
func (w *Worker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancelFunc = cancel
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	go func() {
		defer close(done)
		logger.Log.Info().
			Dur("interval", w.interval).
			Msg("Playout worker started")

		w.tick(ctx)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Log.Info().Msg("Playout worker stopped")
				return
			case <-ticker.C:
				w.tick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight pass to finish
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancelFunc
	done := w.done
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (w *Worker) tick(ctx context.Context) {
	playouts, err := w.repos.Playouts.List(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list playouts")
		return
	}

	for _, playout := range playouts {
		if ctx.Err() != nil {
			return
		}
		mode := BuildModeContinue
		if w.dailyRebuildDue(playout) {
			mode = BuildModeReset
		}
		if err := w.builder.Build(ctx, playout.ID, mode); err != nil {
			if errors.Is(err, ErrBuildInProgress) {
				continue
			}
			logger.Log.Error().
				Err(err).
				Str("playout_id", playout.ID.String()).
				Msg("Scheduled build failed")
			continue
		}
		if mode == BuildModeReset {
			w.mu.Lock()
			w.lastReset[playout.ID] = w.now()
			w.mu.Unlock()
		}
	}
}

// dailyRebuildDue reports whether the playout's rebuild cutoff has
// passed since the last reset build
func (w *Worker) dailyRebuildDue(playout *models.Playout) bool {
	if playout.DailyRebuildMinutes == nil {
		return false
	}
	now := w.now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := day.Add(time.Duration(*playout.DailyRebuildMinutes) * time.Minute)
	if now.Before(cutoff) {
		return false
	}

	w.mu.Lock()
	last, ok := w.lastReset[playout.ID]
	w.mu.Unlock()
	return !ok || last.Before(cutoff)
}

// NotifyLibraryChanged invalidates persisted enumerator cursors whose
// collections may have changed shape. Affected playouts pick up the
// change on their next build through the version tag mismatch.
func (w *Worker) NotifyLibraryChanged(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := w.repos.Playouts.InvalidateEnumeratorStates(ctx, keys); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to invalidate enumerator states")
	}
}
