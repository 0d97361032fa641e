// Package filler expands a primary scheduled item into the full
// emission sequence around it: pre-roll, mid-roll at chapter breaks,
// post-roll, and window-remainder filling with tail and fallback
// content.
package filler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/casbin/govaluate"

	"github.com/castawaytv/castaway/internal/logger"
	"github.com/castawaytv/castaway/internal/models"
	"github.com/castawaytv/castaway/internal/rotation"
)

// fit-search bound for duration filling: after this many consecutive
// non-fitting candidates the window is considered unfillable
const durationFitAttempts = 10

var (
	ErrNoFillerContent = errors.New("filler preset resolved to no content")
	ErrBadExpression   = errors.New("invalid filler duration expression")
)

// EnumeratorProvider hands out positioned enumerators for content
// references. The playout builder implements it with its per-build
// enumerator cache so filler advances persist with everything else.
type EnumeratorProvider interface {
	Enumerator(ctx context.Context, ref models.ContentRef, order models.PlaybackOrder) (rotation.Enumerator, string, error)
}

// Emission is one filler airing. InSeconds/OutSeconds carry trim
// points when the item is cut to fit; OutSeconds zero means play to
// the natural end.
type Emission struct {
	MediaItem     *models.MediaItem
	Kind          models.FillerKind
	Content       models.ContentRef
	CollectionKey string
	InSeconds     int64
	OutSeconds    int64
}

// Duration returns the playing time of the emission after trimming
func (e Emission) Duration() time.Duration {
	out := e.MediaItem.Duration
	if e.OutSeconds > 0 {
		out = e.OutSeconds
	}
	return time.Duration(out-e.InSeconds) * time.Second
}

// SlotPresets holds the filler presets attached to one schedule item
type SlotPresets struct {
	PreRoll  *models.FillerPreset
	MidRoll  *models.FillerPreset
	PostRoll *models.FillerPreset
	Tail     *models.FillerPreset
	Fallback *models.FillerPreset
}

// Injector expands primary items with filler emissions
type Injector struct{}

// NewInjector creates a new filler injector instance
func NewInjector() *Injector {
	return &Injector{}
}

// Surround returns the emission sequence for one primary item: any
// pre-roll, the primary (split at chapter marks when a chapters-mode
// mid-roll preset applies), then any post-roll. The primary segments
// carry an empty Kind.
func (inj *Injector) Surround(ctx context.Context, provider EnumeratorProvider, primary *models.MediaItem, primaryRef models.ContentRef, primaryKey string, presets SlotPresets, at time.Time) ([]Emission, error) {
	var emissions []Emission

	if presets.PreRoll != nil {
		pre, err := inj.expand(ctx, provider, presets.PreRoll, models.FillerKindPreRoll, at, 0)
		if err != nil {
			return nil, err
		}
		emissions = append(emissions, pre...)
	}

	segments, err := inj.splitPrimary(ctx, provider, primary, primaryRef, primaryKey, presets.MidRoll, at)
	if err != nil {
		return nil, err
	}
	emissions = append(emissions, segments...)

	if presets.PostRoll != nil {
		post, err := inj.expand(ctx, provider, presets.PostRoll, models.FillerKindPostRoll, at, 0)
		if err != nil {
			return nil, err
		}
		emissions = append(emissions, post...)
	}

	return emissions, nil
}

// splitPrimary emits the primary item, breaking it at chapter marks
// with mid-roll filler between segments when the preset uses chapter
// mode. Items without chapter marks air unbroken.
func (inj *Injector) splitPrimary(ctx context.Context, provider EnumeratorProvider, primary *models.MediaItem, primaryRef models.ContentRef, primaryKey string, midRoll *models.FillerPreset, at time.Time) ([]Emission, error) {
	whole := Emission{MediaItem: primary, Content: primaryRef, CollectionKey: primaryKey}

	if midRoll == nil || midRoll.Mode != models.FillerModeChapters || len(primary.ChapterMarks) == 0 {
		return []Emission{whole}, nil
	}

	var emissions []Emission
	var cursor int64
	for _, mark := range primary.ChapterMarks {
		if mark <= cursor || mark >= primary.Duration {
			continue
		}
		emissions = append(emissions, Emission{
			MediaItem:     primary,
			Content:       primaryRef,
			CollectionKey: primaryKey,
			InSeconds:     cursor,
			OutSeconds:    mark,
		})
		breakFill, err := inj.expand(ctx, provider, midRoll, models.FillerKindMidRoll, at, 0)
		if err != nil {
			return nil, err
		}
		emissions = append(emissions, breakFill...)
		cursor = mark
	}
	emissions = append(emissions, Emission{
		MediaItem:     primary,
		Content:       primaryRef,
		CollectionKey: primaryKey,
		InSeconds:     cursor,
	})
	return emissions, nil
}

// FillRemainder fills a trailing window with tail filler, then closes
// any residue with fallback content trimmed to fit exactly. Either
// preset may be nil; whatever cannot be filled is returned as the
// leftover duration for the caller to record.
func (inj *Injector) FillRemainder(ctx context.Context, provider EnumeratorProvider, tail, fallback *models.FillerPreset, remaining time.Duration, at time.Time) ([]Emission, time.Duration, error) {
	var emissions []Emission

	if tail != nil && remaining > 0 {
		fill, err := inj.expand(ctx, provider, tail, models.FillerKindTail, at, remaining)
		if err != nil {
			return nil, remaining, err
		}
		for _, e := range fill {
			remaining -= e.Duration()
		}
		emissions = append(emissions, fill...)
	}

	if fallback != nil && remaining >= time.Second {
		closer, err := inj.fallbackFill(ctx, provider, fallback, remaining)
		if err != nil && !errors.Is(err, ErrNoFillerContent) {
			return nil, remaining, err
		}
		if closer != nil {
			remaining -= closer.Duration()
			emissions = append(emissions, *closer)
		}
	}

	return emissions, remaining, nil
}

// expand produces the emissions for one preset. The window argument
// only applies to duration-derived modes; count mode ignores it.
func (inj *Injector) expand(ctx context.Context, provider EnumeratorProvider, preset *models.FillerPreset, kind models.FillerKind, at time.Time, window time.Duration) ([]Emission, error) {
	enum, key, err := provider.Enumerator(ctx, preset.Content, preset.PlaybackOrder)
	if err != nil {
		return nil, err
	}

	switch preset.Mode {
	case models.FillerModeCount:
		return inj.countFill(enum, preset.Content, key, kind, preset.Count)

	case models.FillerModeDuration:
		target := time.Duration(preset.TargetSeconds) * time.Second
		if window > 0 && (target == 0 || target > window) {
			target = window
		}
		return inj.durationFill(enum, preset.Content, key, kind, target, preset.TrimToFit)

	case models.FillerModePad:
		target := padTarget(at, preset.PadMinutes)
		return inj.durationFill(enum, preset.Content, key, kind, target, preset.TrimToFit)

	case models.FillerModeExpression:
		target, err := inj.expressionTarget(preset.Expression, at, window)
		if err != nil {
			return nil, err
		}
		return inj.durationFill(enum, preset.Content, key, kind, target, preset.TrimToFit)

	case models.FillerModeChapters:
		// chapter mode governs primary splitting; between chapters a
		// single filler item airs
		return inj.countFill(enum, preset.Content, key, kind, 1)

	default:
		return nil, fmt.Errorf("unknown filler mode %q", preset.Mode)
	}
}

func (inj *Injector) countFill(enum rotation.Enumerator, ref models.ContentRef, key string, kind models.FillerKind, count int) ([]Emission, error) {
	var emissions []Emission
	for i := 0; i < count; i++ {
		item, ok := enum.Current()
		if !ok {
			if len(emissions) == 0 {
				return nil, ErrNoFillerContent
			}
			break
		}
		emissions = append(emissions, Emission{MediaItem: item, Kind: kind, Content: ref, CollectionKey: key})
		enum.MoveNext()
	}
	return emissions, nil
}

// durationFill adds items while they fit the target. Non-fitting
// candidates are skipped in place (the enumerator advances) up to a
// bound; when TrimToFit is set the first over-long candidate is cut to
// close the window instead.
func (inj *Injector) durationFill(enum rotation.Enumerator, ref models.ContentRef, key string, kind models.FillerKind, target time.Duration, trimToFit bool) ([]Emission, error) {
	var emissions []Emission
	remaining := target
	misses := 0

	for remaining >= time.Second && misses < durationFitAttempts {
		item, ok := enum.Current()
		if !ok {
			break
		}
		d := item.PlayoutDuration()
		switch {
		case d <= remaining:
			emissions = append(emissions, Emission{MediaItem: item, Kind: kind, Content: ref, CollectionKey: key})
			remaining -= d
			misses = 0
		case trimToFit:
			emissions = append(emissions, Emission{
				MediaItem:     item,
				Kind:          kind,
				Content:       ref,
				CollectionKey: key,
				OutSeconds:    int64(remaining / time.Second),
			})
			remaining = 0
		default:
			misses++
		}
		enum.MoveNext()
	}

	if misses >= durationFitAttempts {
		logger.Log.Debug().
			Str("collection_key", key).
			Dur("remaining", remaining).
			Msg("No filler candidate fits remaining window")
	}
	return emissions, nil
}

// fallbackFill trims a single fallback item to exactly close a window
func (inj *Injector) fallbackFill(ctx context.Context, provider EnumeratorProvider, preset *models.FillerPreset, remaining time.Duration) (*Emission, error) {
	enum, key, err := provider.Enumerator(ctx, preset.Content, preset.PlaybackOrder)
	if err != nil {
		return nil, err
	}
	item, ok := enum.Current()
	if !ok {
		return nil, ErrNoFillerContent
	}
	enum.MoveNext()

	emission := &Emission{MediaItem: item, Kind: models.FillerKindFallback, Content: preset.Content, CollectionKey: key}
	if item.PlayoutDuration() > remaining {
		emission.OutSeconds = int64(remaining / time.Second)
	}
	return emission, nil
}

// expressionTarget evaluates a duration expression to target seconds.
// Available variables: minute_of_day, hour, weekday (0=Sunday) and
// window_seconds (remaining window, zero outside remainder filling).
func (inj *Injector) expressionTarget(expression string, at time.Time, window time.Duration) (time.Duration, error) {
	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadExpression, err)
	}

	parameters := map[string]interface{}{
		"minute_of_day":  float64(at.Hour()*60 + at.Minute()),
		"hour":           float64(at.Hour()),
		"weekday":        float64(int(at.Weekday())),
		"window_seconds": window.Seconds(),
	}

	result, err := expr.Evaluate(parameters)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadExpression, err)
	}
	seconds, ok := result.(float64)
	if !ok || seconds < 0 {
		return 0, fmt.Errorf("%w: expression must yield a non-negative number", ErrBadExpression)
	}
	return time.Duration(seconds) * time.Second, nil
}

// padTarget returns the time until the next multiple-of-pad boundary
func padTarget(at time.Time, padMinutes int) time.Duration {
	if padMinutes <= 0 {
		return 0
	}
	pad := time.Duration(padMinutes) * time.Minute
	boundary := at.Truncate(pad)
	if !boundary.After(at) {
		boundary = boundary.Add(pad)
	}
	return boundary.Sub(at)
}
