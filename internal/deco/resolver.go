// Package deco resolves the decoration active at a point in time:
// watermark, graphics overlays, dead-air fallback and break content.
// Decoration resolution is independent of content selection, so a
// rebuild can restyle a playout without changing what airs.
package deco

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/models"
)

// Resolved is the decoration applicable to one scheduled item. A zero
// Resolved (nil Deco) means no decoration applies.
type Resolved struct {
	Deco *models.Deco
	// ForFiller reports whether the deco's overlays also apply to
	// filler emissions
	ForFiller bool
}

// Resolver selects the active deco for a playout at a given time
type Resolver struct {
	repos *db.Repositories
}

// NewResolver creates a new deco resolver instance
func NewResolver(repos *db.Repositories) *Resolver {
	return &Resolver{repos: repos}
}

// Resolve returns the decoration in effect for a playout at the given
// instant. Assignment selection follows activation rules with
// priority order; within the winning template the item whose minute
// window covers the instant wins. Windows may wrap past midnight.
func (r *Resolver) Resolve(ctx context.Context, playoutID uuid.UUID, at time.Time) (*Resolved, error) {
	assignments, err := r.repos.Decos.GetAssignments(ctx, playoutID)
	if err != nil {
		return nil, err
	}

	for _, assignment := range assignments {
		if !assignment.Rule.Matches(at) {
			continue
		}

		items, err := r.repos.Decos.GetTemplateItems(ctx, assignment.DecoTemplateID)
		if err != nil {
			return nil, err
		}

		minute := at.Hour()*60 + at.Minute()
		for _, item := range items {
			if !windowContains(item.StartMinutes, item.EndMinutes, minute) {
				continue
			}
			deco := item.Deco
			if deco == nil {
				deco, err = r.repos.Decos.GetByID(ctx, item.DecoID)
				if err != nil {
					return nil, err
				}
			}
			return &Resolved{Deco: deco, ForFiller: deco.UseDuringFiller}, nil
		}

		// the winning template has no window covering this instant;
		// lower-priority assignments do not apply
		break
	}

	return &Resolved{}, nil
}

// windowContains reports whether a [start, end) minute window covers
// the given minute, wrapping past midnight when end <= start
func windowContains(startMinutes, endMinutes, minute int) bool {
	if startMinutes == endMinutes {
		// degenerate window covers the whole day
		return true
	}
	if startMinutes < endMinutes {
		return minute >= startMinutes && minute < endMinutes
	}
	return minute >= startMinutes || minute < endMinutes
}
