package filler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castawaytv/castaway/internal/models"
	"github.com/castawaytv/castaway/internal/rotation"
)

// fakeProvider serves sequential enumerators over a fixed pool per
// content key, sharing cursor state across calls like the build session
type fakeProvider struct {
	pools map[string][]rotation.Member
	enums map[string]rotation.Enumerator
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		pools: make(map[string][]rotation.Member),
		enums: make(map[string]rotation.Enumerator),
	}
}

func (p *fakeProvider) add(ref models.ContentRef, durations ...int64) {
	members := make([]rotation.Member, len(durations))
	for i, d := range durations {
		members[i] = rotation.Member{MediaItem: &models.MediaItem{
			ID:       uuid.New(),
			Title:    "filler",
			Duration: d,
		}}
	}
	p.pools[ref.CollectionKey()] = members
}

func (p *fakeProvider) Enumerator(_ context.Context, ref models.ContentRef, _ models.PlaybackOrder) (rotation.Enumerator, string, error) {
	key := ref.CollectionKey()
	if enum, ok := p.enums[key]; ok {
		return enum, key, nil
	}
	enum, err := rotation.New(models.PlaybackOrderSequential, p.pools[key], rotation.State{}, rotation.Options{})
	if err != nil {
		return nil, key, err
	}
	p.enums[key] = enum
	return enum, key, nil
}

func fillerRef(name string) models.ContentRef {
	return models.ContentRef{Kind: models.ContentKindFake, FakeKey: name}
}

func primaryItem(duration int64, marks ...int64) *models.MediaItem {
	return &models.MediaItem{
		ID:           uuid.New(),
		Title:        "feature",
		Duration:     duration,
		ChapterMarks: marks,
	}
}

func TestSurroundWithoutPresetsEmitsPrimaryOnly(t *testing.T) {
	inj := NewInjector()
	primary := primaryItem(1800)

	emissions, err := inj.Surround(context.Background(), newFakeProvider(), primary, models.ContentRef{}, "key", SlotPresets{}, time.Now())
	require.NoError(t, err)

	require.Len(t, emissions, 1)
	assert.Equal(t, models.FillerKindNone, emissions[0].Kind)
	assert.Equal(t, primary.ID, emissions[0].MediaItem.ID)
}

func TestSurroundPreAndPostRoll(t *testing.T) {
	provider := newFakeProvider()
	preRef := fillerRef("bumpers")
	postRef := fillerRef("promos")
	provider.add(preRef, 30, 30)
	provider.add(postRef, 60)

	presets := SlotPresets{
		PreRoll:  &models.FillerPreset{Mode: models.FillerModeCount, Count: 2, Content: preRef},
		PostRoll: &models.FillerPreset{Mode: models.FillerModeCount, Count: 1, Content: postRef},
	}

	inj := NewInjector()
	emissions, err := inj.Surround(context.Background(), provider, primaryItem(1800), models.ContentRef{}, "key", presets, time.Now())
	require.NoError(t, err)

	require.Len(t, emissions, 4)
	assert.Equal(t, models.FillerKindPreRoll, emissions[0].Kind)
	assert.Equal(t, models.FillerKindPreRoll, emissions[1].Kind)
	assert.Equal(t, models.FillerKindNone, emissions[2].Kind)
	assert.Equal(t, models.FillerKindPostRoll, emissions[3].Kind)
}

func TestSurroundSplitsAtChapterMarks(t *testing.T) {
	provider := newFakeProvider()
	midRef := fillerRef("ads")
	provider.add(midRef, 30, 30)

	presets := SlotPresets{
		MidRoll: &models.FillerPreset{Mode: models.FillerModeChapters, Content: midRef},
	}

	inj := NewInjector()
	primary := primaryItem(3600, 1200, 2400)
	emissions, err := inj.Surround(context.Background(), provider, primary, models.ContentRef{}, "key", presets, time.Now())
	require.NoError(t, err)

	// segment, break, segment, break, segment
	require.Len(t, emissions, 5)
	assert.Equal(t, int64(0), emissions[0].InSeconds)
	assert.Equal(t, int64(1200), emissions[0].OutSeconds)
	assert.Equal(t, models.FillerKindMidRoll, emissions[1].Kind)
	assert.Equal(t, int64(1200), emissions[2].InSeconds)
	assert.Equal(t, int64(2400), emissions[2].OutSeconds)
	assert.Equal(t, models.FillerKindMidRoll, emissions[3].Kind)
	assert.Equal(t, int64(2400), emissions[4].InSeconds)
	assert.Equal(t, int64(0), emissions[4].OutSeconds, "last segment plays to the natural end")

	total := time.Duration(0)
	for _, e := range emissions {
		if e.Kind == models.FillerKindNone {
			total += e.Duration()
		}
	}
	assert.Equal(t, time.Hour, total, "segments reassemble the whole primary")
}

func TestSurroundIgnoresMarksOutsideItem(t *testing.T) {
	provider := newFakeProvider()
	midRef := fillerRef("ads")
	provider.add(midRef, 30)

	presets := SlotPresets{
		MidRoll: &models.FillerPreset{Mode: models.FillerModeChapters, Content: midRef},
	}

	inj := NewInjector()
	primary := primaryItem(1800, 0, 1800, 2400)
	emissions, err := inj.Surround(context.Background(), provider, primary, models.ContentRef{}, "key", presets, time.Now())
	require.NoError(t, err)

	require.Len(t, emissions, 1, "degenerate marks should not split the item")
}

func TestFillRemainderTailThenFallback(t *testing.T) {
	provider := newFakeProvider()
	tailRef := fillerRef("shorts")
	fallbackRef := fillerRef("cards")
	provider.add(tailRef, 120, 120)
	provider.add(fallbackRef, 600)

	tail := &models.FillerPreset{Mode: models.FillerModeDuration, Content: tailRef, PlaybackOrder: models.PlaybackOrderSequential}
	fallback := &models.FillerPreset{Mode: models.FillerModeCount, Count: 1, Content: fallbackRef}

	inj := NewInjector()
	emissions, leftover, err := inj.FillRemainder(context.Background(), provider, tail, fallback, 5*time.Minute, time.Now())
	require.NoError(t, err)

	// two 120s shorts fit a 300s window, one trimmed fallback closes it
	require.Len(t, emissions, 3)
	assert.Equal(t, models.FillerKindTail, emissions[0].Kind)
	assert.Equal(t, models.FillerKindTail, emissions[1].Kind)
	assert.Equal(t, models.FillerKindFallback, emissions[2].Kind)
	assert.Equal(t, int64(60), emissions[2].OutSeconds, "fallback is cut to close the window")
	assert.Equal(t, time.Duration(0), leftover)
}

func TestFillRemainderReportsLeftover(t *testing.T) {
	inj := NewInjector()

	emissions, leftover, err := inj.FillRemainder(context.Background(), newFakeProvider(), nil, nil, 4*time.Minute, time.Now())
	require.NoError(t, err)
	assert.Empty(t, emissions)
	assert.Equal(t, 4*time.Minute, leftover, "nothing configured leaves the window open")
}

func TestDurationFillSkipsOversizedCandidates(t *testing.T) {
	provider := newFakeProvider()
	ref := fillerRef("mixed")
	provider.add(ref, 600, 60, 60)

	preset := &models.FillerPreset{
		Mode:          models.FillerModeDuration,
		TargetSeconds: 150,
		Content:       ref,
		PlaybackOrder: models.PlaybackOrderSequential,
	}

	inj := NewInjector()
	emissions, err := inj.expand(context.Background(), provider, preset, models.FillerKindTail, time.Now(), 0)
	require.NoError(t, err)

	// the 600s item does not fit and is skipped in place
	require.Len(t, emissions, 2)
	assert.Equal(t, int64(60), emissions[0].MediaItem.Duration)
	assert.Equal(t, int64(60), emissions[1].MediaItem.Duration)
}

func TestDurationFillTrimToFit(t *testing.T) {
	provider := newFakeProvider()
	ref := fillerRef("loops")
	provider.add(ref, 600)

	preset := &models.FillerPreset{
		Mode:          models.FillerModeDuration,
		TargetSeconds: 90,
		TrimToFit:     true,
		Content:       ref,
		PlaybackOrder: models.PlaybackOrderSequential,
	}

	inj := NewInjector()
	emissions, err := inj.expand(context.Background(), provider, preset, models.FillerKindTail, time.Now(), 0)
	require.NoError(t, err)

	require.Len(t, emissions, 1)
	assert.Equal(t, int64(90), emissions[0].OutSeconds)
	assert.Equal(t, 90*time.Second, emissions[0].Duration())
}

func TestPadTarget(t *testing.T) {
	at := time.Date(2026, 3, 10, 14, 12, 0, 0, time.UTC)

	assert.Equal(t, 18*time.Minute, padTarget(at, 30))
	assert.Equal(t, 3*time.Minute, padTarget(at, 15))
	assert.Equal(t, time.Duration(0), padTarget(at, 0))

	// exactly on a boundary pads a full interval
	onBoundary := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, 30*time.Minute, padTarget(onBoundary, 30))
}

func TestExpressionTarget(t *testing.T) {
	inj := NewInjector()
	at := time.Date(2026, 3, 10, 20, 15, 0, 0, time.UTC)

	target, err := inj.expressionTarget("hour >= 20 ? 300 : 60", at, 0)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, target)

	target, err = inj.expressionTarget("window_seconds / 2", at, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, target)

	_, err = inj.expressionTarget("not valid ((", at, 0)
	assert.ErrorIs(t, err, ErrBadExpression)

	_, err = inj.expressionTarget("0 - 10", at, 0)
	assert.ErrorIs(t, err, ErrBadExpression)
}

func TestCountFillEmptySource(t *testing.T) {
	provider := newFakeProvider()
	ref := fillerRef("missing")

	preset := &models.FillerPreset{Mode: models.FillerModeCount, Count: 2, Content: ref}

	inj := NewInjector()
	_, err := inj.expand(context.Background(), provider, preset, models.FillerKindPreRoll, time.Now(), 0)
	assert.ErrorIs(t, err, rotation.ErrEmptyContentSource)
}
