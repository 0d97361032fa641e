//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/models"
	"github.com/castawaytv/castaway/internal/playout"
)

// assignDeadAirDeco binds an all-day deco with the given dead-air
// fallback content to a playout
func assignDeadAirDeco(t *testing.T, repos *db.Repositories, playoutID uuid.UUID, fallback models.ContentRef) {
	t.Helper()

	ctx := context.Background()
	d := &models.Deco{
		ID:              uuid.New(),
		Name:            "station deco",
		DeadAirFallback: fallback,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	require.NoError(t, repos.Decos.Create(ctx, d))

	template := &models.DecoTemplate{
		ID:        uuid.New(),
		Name:      "station template",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repos.Decos.CreateTemplate(ctx, template))
	require.NoError(t, repos.Decos.CreateTemplateItem(ctx, &models.DecoTemplateItem{
		ID:             uuid.New(),
		DecoTemplateID: template.ID,
		DecoID:         d.ID,
		StartMinutes:   0,
		EndMinutes:     0,
	}))
	require.NoError(t, repos.Decos.CreateAssignment(ctx, &models.DecoAssignment{
		ID:             uuid.New(),
		PlayoutID:      playoutID,
		DecoTemplateID: template.ID,
		Priority:       1,
		CreatedAt:      time.Now().UTC(),
	}))
}

func TestDeadAirFillsIdleWindow(t *testing.T) {
	database := openTestDatabase(t)
	defer database.close()

	ctx := context.Background()
	showID := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000040")
	createTestMediaInDB(t, database.repos, showID, "morning-show", 1800)
	showCollection := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000041")
	createTestCollection(t, database.repos, showCollection, "morning", []uuid.UUID{showID})

	bumperIDs := []uuid.UUID{
		uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000042"),
		uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000043"),
	}
	for i, id := range bumperIDs {
		createTestMediaInDB(t, database.repos, id, "bumper-"+string(rune('a'+i)), 600)
	}
	bumperCollection := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000044")
	createTestCollection(t, database.repos, bumperCollection, "bumpers", bumperIDs)

	// the show starts an hour out, leaving an idle strict window
	fixed := time.Now().UTC().Add(time.Hour)
	startMinutes := fixed.Hour()*60 + fixed.Minute()
	createEmptySchedule(t, database.repos, fixtureScheduleID)
	addScheduleItem(t, database.repos, fixtureScheduleID, showCollection, 0, models.PlayoutModeOne, models.RerunModeNone, &startMinutes)

	ch := createTestChannel(t, database.repos, "20")
	p := createTestPlayout(t, database.repos, ch.ID, fixtureScheduleID, 9, time.Now().UTC())
	assignDeadAirDeco(t, database.repos, p.ID, models.ContentRef{
		Kind:     models.ContentKindCollection,
		TargetID: bumperCollection,
	})

	builder := newTestBuilder(database.db, database.repos)
	require.NoError(t, builder.Build(ctx, p.ID, playout.BuildModeReset))

	items, err := database.repos.Playouts.GetItems(ctx, p.ID)
	require.NoError(t, err)
	require.NotEmpty(t, items)

	var primaries int
	for _, item := range items {
		switch item.FillerKind {
		case models.FillerKindNone:
			primaries++
			assert.Equal(t, showID, item.MediaItemID)
		case models.FillerKindDeadAir:
		default:
			t.Fatalf("unexpected filler kind %q", item.FillerKind)
		}
	}
	assert.Equal(t, 1, primaries, "exactly one scheduled airing in the window")

	// fallback content closes every idle second up to the horizon
	for i := 1; i < len(items); i++ {
		assert.True(t, items[i-1].Finish.Equal(items[i].Start),
			"item %d should start when item %d finishes", i, i-1)
	}
	last := items[len(items)-1]
	horizon := time.Now().UTC().Add(6 * time.Hour)
	assert.True(t, last.Finish.After(horizon.Add(-time.Minute)),
		"dead-air fill should reach the horizon, got %s", last.Finish)

	gaps, err := database.repos.Playouts.GetGaps(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, gaps, "a filled window leaves no gaps")
}

func TestDeadAirEmptySourceLeavesWindowDark(t *testing.T) {
	database := openTestDatabase(t)
	defer database.close()

	ctx := context.Background()
	showID := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000045")
	createTestMediaInDB(t, database.repos, showID, "evening-show", 1800)
	showCollection := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000046")
	createTestCollection(t, database.repos, showCollection, "evening", []uuid.UUID{showID})

	// fallback points at a collection with no members
	emptyCollection := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000047")
	createTestCollection(t, database.repos, emptyCollection, "unstocked", nil)

	fixed := time.Now().UTC().Add(time.Hour)
	startMinutes := fixed.Hour()*60 + fixed.Minute()
	createEmptySchedule(t, database.repos, fixtureScheduleID)
	addScheduleItem(t, database.repos, fixtureScheduleID, showCollection, 0, models.PlayoutModeOne, models.RerunModeNone, &startMinutes)

	ch := createTestChannel(t, database.repos, "21")
	p := createTestPlayout(t, database.repos, ch.ID, fixtureScheduleID, 9, time.Now().UTC())
	assignDeadAirDeco(t, database.repos, p.ID, models.ContentRef{
		Kind:     models.ContentKindCollection,
		TargetID: emptyCollection,
	})

	builder := newTestBuilder(database.db, database.repos)
	require.NoError(t, builder.Build(ctx, p.ID, playout.BuildModeReset))

	// the idle window stays dark instead of failing the build
	items, err := database.repos.Playouts.GetItems(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.FillerKindNone, items[0].FillerKind)
	assert.Equal(t, showID, items[0].MediaItemID)

	status, err := database.repos.Playouts.GetBuildStatus(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BuildOutcomeSuccess, status.Outcome)
}
