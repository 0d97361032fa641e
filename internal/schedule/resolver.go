// Package schedule resolves which program definition governs a playout
// at a point in time and sequences its items. A classic schedule walks
// an ordered item list with per-item instruction modes; a block
// schedule walks the active template's block layout.
package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/logger"
	"github.com/castawaytv/castaway/internal/models"
)

// ErrNoActiveItems is returned when a schedule resolves to an empty
// item list for the requested instant. The builder reports it through
// build status rather than failing the trigger call.
var ErrNoActiveItems = errors.New("schedule resolves to no items")

// Resolver selects the item list or template governing an instant
type Resolver struct {
	repos *db.Repositories
}

// NewResolver creates a new schedule resolver instance
func NewResolver(repos *db.Repositories) *Resolver {
	return &Resolver{repos: repos}
}

// ActiveItems returns the classic item list in effect at the given
// instant: the highest-priority matching alternate's items, or the
// base list when no alternate matches. Alternates are evaluated in
// priority order with id as the deterministic tie-break (the repository
// orders them that way).
func (r *Resolver) ActiveItems(ctx context.Context, scheduleID uuid.UUID, at time.Time) ([]*models.ScheduleItem, error) {
	alternates, err := r.repos.Schedules.GetAlternates(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	for _, alternate := range alternates {
		if alternate.Rule.Matches(at) {
			items, err := r.repos.Schedules.GetAlternateItems(ctx, alternate.ID)
			if err != nil {
				return nil, err
			}
			if len(items) > 0 {
				return items, nil
			}
			logger.Log.Warn().
				Str("schedule_id", scheduleID.String()).
				Str("alternate_id", alternate.ID.String()).
				Msg("Matching alternate has no items, falling back to base list")
			break
		}
	}

	items, err := r.repos.Schedules.GetBaseItems(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoActiveItems
	}
	return items, nil
}

// ActiveTemplate returns the block template in effect at the given
// instant using the same matching and priority semantics. A nil
// template means nothing is assigned for that instant.
func (r *Resolver) ActiveTemplate(ctx context.Context, scheduleID uuid.UUID, at time.Time) (*models.Template, error) {
	assignments, err := r.repos.Blocks.GetAssignments(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	for _, assignment := range assignments {
		if assignment.Rule.Matches(at) {
			return r.repos.Blocks.GetTemplateByID(ctx, assignment.TemplateID)
		}
	}
	return nil, nil
}
