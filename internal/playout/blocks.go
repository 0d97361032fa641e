package playout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/castawaytv/castaway/internal/logger"
	"github.com/castawaytv/castaway/internal/models"
	"github.com/castawaytv/castaway/internal/schedule"
)

// buildBlocks materializes a block schedule between the anchor and the
// horizon. Each block instance plays its items in order from the top;
// item rotations continue across instances through the shared
// enumerator states.
func (b *Builder) buildBlocks(ctx context.Context, tx *gorm.DB, run *buildRun) error {
	instances, err := b.schedules.BlocksBetween(ctx, run.playout.ScheduleID, run.pos, run.horizon)
	if err != nil {
		return err
	}
	if len(instances) == 0 {
		logger.Log.Warn().
			Str("playout_id", run.playout.ID.String()).
			Time("from", run.pos).
			Time("to", run.horizon).
			Msg("no block instances in build window")
		if err := b.emitDeadAir(ctx, tx, run, run.pos, run.horizon); err != nil {
			return err
		}
		run.pos = run.horizon
		return nil
	}

	blockItems := make(map[uuid.UUID][]*models.BlockItem)

	for _, instance := range instances {
		if ctx.Err() != nil {
			run.cancelled = true
			return nil
		}
		if !instance.End.After(run.pos) {
			continue
		}

		// idle time before the block gets the dead-air treatment
		if instance.Start.After(run.pos) {
			if err := b.emitDeadAir(ctx, tx, run, run.pos, instance.Start); err != nil {
				return err
			}
			run.pos = instance.Start
		}

		items, ok := blockItems[instance.BlockID]
		if !ok {
			items, err = b.repos.Blocks.GetBlockItems(ctx, instance.BlockID)
			if err != nil {
				return err
			}
			blockItems[instance.BlockID] = items
		}
		if len(items) == 0 {
			if err := b.recordGap(tx, run, run.pos, instance.End); err != nil {
				return err
			}
			run.pos = instance.End
			continue
		}

		if err := b.buildBlockInstance(ctx, tx, run, instance, items); err != nil {
			return err
		}
	}

	if run.pos.Before(run.horizon) {
		if err := b.emitDeadAir(ctx, tx, run, run.pos, run.horizon); err != nil {
			return err
		}
		run.pos = run.horizon
	}
	return nil
}

func (b *Builder) buildBlockInstance(ctx context.Context, tx *gorm.DB, run *buildRun, instance schedule.BlockInstance, items []*models.BlockItem) error {
	end := instance.End
	index := 0
	emptyStreak := 0
	passed := false

	for run.pos.Before(end) {
		if ctx.Err() != nil {
			run.cancelled = true
			return nil
		}
		// wrapping past the end of the list restarts the block, unless
		// the block stops scheduling when its content is spent
		if index >= len(items) {
			if instance.StopScheduling {
				break
			}
			index = 0
			passed = true
		}

		item := items[index]
		scheduleItem := &models.ScheduleItem{
			Content:       item.Content,
			PlaybackOrder: item.PlaybackOrder,
			Mode:          models.PlayoutModeOne,
		}
		before := run.pos
		if _, err := b.emitPrimary(ctx, tx, run, scheduleItem, &end); err != nil {
			if !isEmptySource(err) {
				return err
			}
			emptyStreak++
			if emptyStreak >= len(items) {
				// a full pass with nothing playable
				if instance.StopScheduling || passed {
					return nil
				}
				if err := b.recordGap(tx, run, run.pos, end); err != nil {
					return err
				}
				run.pos = end
				return nil
			}
		} else {
			if !run.pos.After(before) {
				break
			}
			emptyStreak = 0
		}
		index++
	}
	return nil
}
