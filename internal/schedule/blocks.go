package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// BlockInstance is one block placed on the wall clock by the active
// template of its day
type BlockInstance struct {
	BlockID        uuid.UUID
	Start          time.Time
	End            time.Time
	StopScheduling bool
}

// BlocksBetween materializes the block layout overlapping [from, to).
// The active template is re-resolved for each broadcast day so a
// template change mid-window takes effect on its own day.
func (r *Resolver) BlocksBetween(ctx context.Context, scheduleID uuid.UUID, from, to time.Time) ([]BlockInstance, error) {
	var instances []BlockInstance

	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for !day.After(to) {
		template, err := r.ActiveTemplate(ctx, scheduleID, day)
		if err != nil {
			return nil, err
		}
		if template != nil {
			items, err := r.repos.Blocks.GetTemplateItems(ctx, template.ID)
			if err != nil {
				return nil, err
			}
			for _, item := range items {
				if item.Block == nil {
					continue
				}
				start := day.Add(time.Duration(item.StartMinutes) * time.Minute)
				end := start.Add(time.Duration(item.Block.DurationMinutes) * time.Minute)
				if end.After(from) && start.Before(to) {
					instances = append(instances, BlockInstance{
						BlockID:        item.BlockID,
						Start:          start,
						End:            end,
						StopScheduling: item.Block.StopScheduling,
					})
				}
			}
		}
		day = day.Add(24 * time.Hour)
	}

	sort.Slice(instances, func(i, j int) bool {
		return instances[i].Start.Before(instances[j].Start)
	})
	return instances, nil
}
