package playout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/castawaytv/castaway/internal/deco"
	"github.com/castawaytv/castaway/internal/filler"
	"github.com/castawaytv/castaway/internal/models"
	"github.com/castawaytv/castaway/internal/rotation"
	"github.com/castawaytv/castaway/internal/schedule"
)

// emitScheduleItem plays out one classic schedule item according to
// its instruction mode. Returns done=false when the horizon landed
// mid-item; the partial sequencing state is persisted on the anchor so
// the next build resumes exactly where this one stopped.
func (b *Builder) emitScheduleItem(ctx context.Context, tx *gorm.DB, run *buildRun, items []*models.ScheduleItem, index int, item *models.ScheduleItem) (bool, error) {
	switch item.Mode {
	case models.PlayoutModeMultiple:
		return b.emitMultiple(ctx, tx, run, item)
	case models.PlayoutModeDuration:
		return b.emitDuration(ctx, tx, run, item)
	case models.PlayoutModeFlood:
		return b.emitFlood(ctx, tx, run, items, index, item)
	default:
		if _, err := b.emitPrimary(ctx, tx, run, item, nil); err != nil {
			return false, err
		}
		return true, nil
	}
}

func (b *Builder) emitMultiple(ctx context.Context, tx *gorm.DB, run *buildRun, item *models.ScheduleItem) (bool, error) {
	remaining := run.playout.MultipleRemaining
	if remaining == nil {
		count := item.MultipleCount
		if count <= 0 {
			// zero means one full pass of the collection
			enum, _, err := run.sess.Enumerator(ctx, item.Content, item.PlaybackOrder)
			if err != nil {
				return false, err
			}
			count = enum.Count()
		}
		remaining = &count
	}

	for *remaining > 0 && run.pos.Before(run.horizon) {
		if ctx.Err() != nil {
			run.cancelled = true
			run.playout.MultipleRemaining = remaining
			return false, nil
		}
		if _, err := b.emitPrimary(ctx, tx, run, item, nil); err != nil {
			if isEmptySource(err) {
				run.playout.MultipleRemaining = nil
			}
			return false, err
		}
		*remaining--
	}

	if *remaining == 0 {
		run.playout.MultipleRemaining = nil
		return true, nil
	}
	run.playout.MultipleRemaining = remaining
	return false, nil
}

func (b *Builder) emitDuration(ctx context.Context, tx *gorm.DB, run *buildRun, item *models.ScheduleItem) (bool, error) {
	finish := run.playout.DurationFinish
	if finish == nil {
		f := run.pos.Add(time.Duration(item.TargetSeconds) * time.Second)
		finish = &f
	}

	windowStart := run.pos
	misses := 0
	emitted := false

	for run.pos.Before(*finish) && run.pos.Before(run.horizon) {
		if ctx.Err() != nil {
			run.cancelled = true
			run.playout.DurationFinish = finish
			return false, nil
		}

		enum, key, err := run.sess.Enumerator(ctx, item.Content, item.PlaybackOrder)
		if err != nil {
			if isEmptySource(err) {
				break
			}
			return false, err
		}
		candidate, err := b.ledger.SelectNextTx(tx, run.playout.ID, key, enum, item.RerunMode, b.cfg.RerunRetries)
		if err != nil {
			if isEmptySource(err) {
				break
			}
			return false, err
		}

		// discard-and-retry when the candidate would overshoot the
		// duration target, bounded before force-finishing the window
		if run.pos.Add(candidate.PlayoutDuration()).After(*finish) {
			misses++
			if misses >= b.cfg.DurationRetries {
				break
			}
			enum.MoveNext()
			continue
		}

		if _, err := b.emitPrimary(ctx, tx, run, item, nil); err != nil {
			return false, err
		}
		emitted = true
		misses = 0
	}

	if run.pos.Before(*finish) && !run.pos.Before(run.horizon) {
		// horizon landed inside the window
		run.playout.DurationFinish = finish
		return false, nil
	}

	// close the remainder with tail and fallback filler
	filled, err := b.fillRemainder(ctx, tx, run, item, *finish)
	if err != nil {
		return false, err
	}
	if !emitted && !filled {
		if err := b.recordGap(tx, run, windowStart, *finish); err != nil {
			return false, err
		}
	}
	run.pos = *finish
	run.playout.DurationFinish = nil
	return true, nil
}

func (b *Builder) emitFlood(ctx context.Context, tx *gorm.DB, run *buildRun, items []*models.ScheduleItem, index int, item *models.ScheduleItem) (bool, error) {
	limit := run.horizon
	bounded := false
	if next := schedule.NextFixedStart(items, index, run.pos); next != nil {
		bounded = true
		if next.Before(run.horizon) {
			limit = *next
		} else {
			limit = run.horizon
			bounded = false
		}
	}

	emitted := false
	for run.pos.Before(limit) {
		if ctx.Err() != nil {
			run.cancelled = true
			run.playout.InFlood = true
			return false, nil
		}
		if _, err := b.emitPrimary(ctx, tx, run, item, &limit); err != nil {
			if isEmptySource(err) && emitted {
				// the source ran dry mid-flood: the uncovered remainder is
				// a gap, not silently skipped time
				if err := b.recordGap(tx, run, run.pos, limit); err != nil {
					return false, err
				}
				run.pos = limit
				break
			}
			return false, err
		}
		emitted = true
	}

	if bounded {
		run.playout.InFlood = false
		run.pos = limit
		return true, nil
	}
	// flood to the horizon never completes; the next build keeps flooding
	run.playout.InFlood = true
	return false, nil
}

// fillRemainder closes the tail of a duration window with the item's
// tail and fallback presets
func (b *Builder) fillRemainder(ctx context.Context, tx *gorm.DB, run *buildRun, item *models.ScheduleItem, finish time.Time) (bool, error) {
	remaining := finish.Sub(run.pos)
	if remaining < time.Second {
		return false, nil
	}

	tail, err := b.fillerPreset(ctx, run, item.TailFillerID)
	if err != nil {
		return false, err
	}
	fallback, err := b.fillerPreset(ctx, run, item.FallbackFillerID)
	if err != nil {
		return false, err
	}
	if tail == nil && fallback == nil {
		return false, nil
	}

	run.playout.InDurationFiller = true
	defer func() { run.playout.InDurationFiller = false }()

	emissions, _, err := b.injector.FillRemainder(ctx, run.sess, tail, fallback, remaining, run.pos)
	if err != nil {
		return false, err
	}
	if len(emissions) == 0 {
		return false, nil
	}

	decoration, err := b.decos.Resolve(ctx, run.playout.ID, run.pos)
	if err != nil {
		return false, err
	}

	group := b.nextGuideGroup(run)
	cursor := run.pos
	for _, emission := range emissions {
		next := cursor.Add(emission.Duration())
		if err := b.persistEmission(tx, run, emission, item, cursor, next, group, nil, nil, decoration); err != nil {
			return false, err
		}
		if err := b.recordEmissionHistory(tx, run, emission, cursor, next, false); err != nil {
			return false, err
		}
		cursor = next
	}
	run.pos = cursor
	return true, nil
}

// emitPrimary selects the next primary item for a schedule row, wraps
// it with filler and decoration, and persists the resulting playout
// items. When limit is set the sequence is clipped there.
func (b *Builder) emitPrimary(ctx context.Context, tx *gorm.DB, run *buildRun, item *models.ScheduleItem, limit *time.Time) (time.Time, error) {
	enum, key, err := run.sess.Enumerator(ctx, item.Content, item.PlaybackOrder)
	if err != nil {
		return run.pos, err
	}
	primary, err := b.ledger.SelectNextTx(tx, run.playout.ID, key, enum, item.RerunMode, b.cfg.RerunRetries)
	if err != nil {
		return run.pos, err
	}
	primaryState := enum.State()

	presets, err := b.slotPresets(ctx, run, item)
	if err != nil {
		return run.pos, err
	}
	emissions, err := b.injector.Surround(ctx, run.sess, primary, item.Content, key, presets, run.pos)
	if err != nil {
		return run.pos, err
	}

	decoration, err := b.decos.Resolve(ctx, run.playout.ID, run.pos)
	if err != nil {
		return run.pos, err
	}

	// lay the emissions on the clock, clipping at the limit
	type placed struct {
		emission      filler.Emission
		start, finish time.Time
	}
	var sequence []placed
	cursor := run.pos
	for _, emission := range emissions {
		finish := cursor.Add(emission.Duration())
		if limit != nil && finish.After(*limit) {
			clip := int64(limit.Sub(cursor)/time.Second) + emission.InSeconds
			if clip <= emission.InSeconds {
				break
			}
			emission.OutSeconds = clip
			finish = *limit
		}
		sequence = append(sequence, placed{emission: emission, start: cursor, finish: finish})
		cursor = finish
		if limit != nil && !cursor.Before(*limit) {
			break
		}
	}
	if len(sequence) == 0 {
		return run.pos, nil
	}

	// the whole surround shares one guide group spanning first start to
	// last finish
	group := b.nextGuideGroup(run)
	guideStart := sequence[0].start
	guideFinish := sequence[len(sequence)-1].finish

	var primaryStart, primaryFinish time.Time
	sawPrimary := false
	for _, p := range sequence {
		if p.emission.Kind == models.FillerKindNone {
			if !sawPrimary {
				primaryStart = p.start
				sawPrimary = true
			}
			primaryFinish = p.finish
		}
		if err := b.persistEmission(tx, run, p.emission, item, p.start, p.finish, group, &guideStart, &guideFinish, decoration); err != nil {
			return run.pos, err
		}
		if p.emission.Kind != models.FillerKindNone {
			if err := b.recordEmissionHistory(tx, run, p.emission, p.start, p.finish, false); err != nil {
				return run.pos, err
			}
		}
	}

	if sawPrimary {
		markFirstRun := item.RerunMode != models.RerunModeRerun
		// an airing of a non-final "Part N" leaves the sequence open; a
		// reseeded pass must not replay this child at its head
		openPart := rotation.HasLaterPart(run.sess.membersFor(key), primary)
		if err := b.ledger.RecordAiringTx(tx, run.playout.ID, key, primary, primaryStart, primaryFinish, primaryState, markFirstRun, openPart); err != nil {
			return run.pos, err
		}
		enum.MoveNext()
	}

	run.pos = cursor
	return cursor, nil
}

// emitDeadAir fills idle time before a strict fixed start with the
// active deco's dead-air fallback content, trimmed to the window. The
// window stays empty (and guide-invisible) when no fallback is
// configured.
func (b *Builder) emitDeadAir(ctx context.Context, tx *gorm.DB, run *buildRun, from, to time.Time) error {
	decoration, err := b.decos.Resolve(ctx, run.playout.ID, from)
	if err != nil {
		return err
	}
	if decoration.Deco == nil || decoration.Deco.DeadAirFallback.IsZero() {
		return nil
	}
	ref := decoration.Deco.DeadAirFallback

	group := b.nextGuideGroup(run)
	cursor := from
	for cursor.Before(to) {
		enum, key, err := run.sess.Enumerator(ctx, ref, models.PlaybackOrderShuffle)
		if err != nil {
			if isEmptySource(err) {
				// a deco pointing at an empty source leaves the window dark
				return nil
			}
			return err
		}
		item, ok := enum.Current()
		if !ok {
			return nil
		}
		enum.MoveNext()

		emission := filler.Emission{
			MediaItem:     item,
			Kind:          models.FillerKindDeadAir,
			Content:       ref,
			CollectionKey: key,
		}
		finish := cursor.Add(emission.Duration())
		if finish.After(to) {
			emission.OutSeconds = int64(to.Sub(cursor) / time.Second)
			if emission.OutSeconds == 0 {
				return nil
			}
			finish = to
		}
		if err := b.persistEmission(tx, run, emission, nil, cursor, finish, group, nil, nil, decoration); err != nil {
			return err
		}
		if err := b.recordEmissionHistory(tx, run, emission, cursor, finish, false); err != nil {
			return err
		}
		cursor = finish
	}
	return nil
}

// persistEmission writes one playout item, applying decoration and
// schedule-item presentation settings
func (b *Builder) persistEmission(tx *gorm.DB, run *buildRun, emission filler.Emission, schedItem *models.ScheduleItem, start, finish time.Time, group int, guideStart, guideFinish *time.Time, decoration *deco.Resolved) error {
	isFiller := emission.Kind != models.FillerKindNone

	item := &models.PlayoutItem{
		ID:            uuid.New(),
		PlayoutID:     run.playout.ID,
		MediaItemID:   emission.MediaItem.ID,
		Content:       emission.Content,
		Start:         start,
		Finish:        finish,
		InSeconds:     emission.InSeconds,
		OutSeconds:    emission.OutSeconds,
		FillerKind:    emission.Kind,
		GuideGroup:    group,
		CollectionKey: emission.CollectionKey,
		VersionTag:    run.sess.versionFor(emission.CollectionKey),
		CreatedAt:     b.now().UTC(),
	}
	if item.OutSeconds == 0 {
		item.OutSeconds = emission.MediaItem.Duration
	}

	if !isFiller {
		item.GuideStart = guideStart
		item.GuideFinish = guideFinish
		if schedItem != nil {
			item.CustomTitle = schedItem.CustomTitle
			if schedItem.GuideFiller {
				item.FillerKind = models.FillerKindGuideMode
			}
		}
	}

	decorate := decoration != nil && decoration.Deco != nil && (!isFiller || decoration.ForFiller)
	if decorate {
		item.WatermarkID = decoration.Deco.WatermarkID
		item.GraphicsElements = decoration.Deco.GraphicsElements
	}
	if !isFiller && schedItem != nil && schedItem.WatermarkID != nil {
		// an explicit schedule-item watermark beats the deco's
		item.WatermarkID = schedItem.WatermarkID
	}

	return b.repos.Playouts.CreateItemTx(tx, item)
}

// recordEmissionHistory appends a ledger entry for a filler or
// dead-air emission so its rotation does not repeat across builds
func (b *Builder) recordEmissionHistory(tx *gorm.DB, run *buildRun, emission filler.Emission, start, finish time.Time, markFirstRun bool) error {
	state := run.sess.stateFor(emission.CollectionKey)
	return b.ledger.RecordAiringTx(tx, run.playout.ID, emission.CollectionKey, emission.MediaItem, start, finish, state, markFirstRun, false)
}

// slotPresets loads the filler presets referenced by a schedule item
func (b *Builder) slotPresets(ctx context.Context, run *buildRun, item *models.ScheduleItem) (filler.SlotPresets, error) {
	var presets filler.SlotPresets
	var err error
	if presets.PreRoll, err = b.fillerPreset(ctx, run, item.PreRollFillerID); err != nil {
		return presets, err
	}
	if presets.MidRoll, err = b.fillerPreset(ctx, run, item.MidRollFillerID); err != nil {
		return presets, err
	}
	if presets.PostRoll, err = b.fillerPreset(ctx, run, item.PostRollFillerID); err != nil {
		return presets, err
	}
	if presets.Tail, err = b.fillerPreset(ctx, run, item.TailFillerID); err != nil {
		return presets, err
	}
	if presets.Fallback, err = b.fillerPreset(ctx, run, item.FallbackFillerID); err != nil {
		return presets, err
	}
	return presets, nil
}

func (b *Builder) nextGuideGroup(run *buildRun) int {
	group := run.playout.NextGuideGroup
	run.playout.NextGuideGroup++
	if run.playout.NextGuideGroup > 10000 {
		run.playout.NextGuideGroup = 1
	}
	return group
}
