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
	"github.com/castawaytv/castaway/internal/schedule"
)

func addAlternateItem(t *testing.T, repos *db.Repositories, scheduleID, alternateID, targetID uuid.UUID) {
	t.Helper()

	item := &models.ScheduleItem{
		ID:          uuid.New(),
		ScheduleID:  scheduleID,
		AlternateID: &alternateID,
		Position:    0,
		Content: models.ContentRef{
			Kind:     models.ContentKindCollection,
			TargetID: targetID,
		},
		PlaybackOrder:      models.PlaybackOrderSequential,
		Mode:               models.PlayoutModeOne,
		FixedStartBehavior: models.FixedStartStrict,
		RerunMode:          models.RerunModeNone,
	}
	require.NoError(t, repos.Schedules.CreateItem(context.Background(), item))
}

func addAlternate(t *testing.T, repos *db.Repositories, scheduleID uuid.UUID, name string, priority int, rule models.ActivationRule) uuid.UUID {
	t.Helper()

	alternate := &models.ScheduleAlternate{
		ID:         uuid.New(),
		ScheduleID: scheduleID,
		Name:       name,
		Priority:   priority,
		Rule:       rule,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repos.Schedules.CreateAlternate(context.Background(), alternate))
	return alternate.ID
}

func TestActiveItemsPicksHighestPriorityMatchingAlternate(t *testing.T) {
	database := openTestDatabase(t)
	defer database.close()

	ctx := context.Background()
	baseTarget := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000050")
	weekendTarget := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000051")
	marathonTarget := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000052")

	createEmptySchedule(t, database.repos, fixtureScheduleID)
	addScheduleItem(t, database.repos, fixtureScheduleID, baseTarget, 0, models.PlayoutModeOne, models.RerunModeNone, nil)

	weekendID := addAlternate(t, database.repos, fixtureScheduleID, "weekend", 1, models.ActivationRule{
		Weekdays: []int{int(time.Saturday)},
	})
	addAlternateItem(t, database.repos, fixtureScheduleID, weekendID, weekendTarget)

	rangeStart := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rangeEnd := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)
	marathonID := addAlternate(t, database.repos, fixtureScheduleID, "marathon week", 2, models.ActivationRule{
		RangeStart: &rangeStart,
		RangeEnd:   &rangeEnd,
	})
	addAlternateItem(t, database.repos, fixtureScheduleID, marathonID, marathonTarget)

	resolver := schedule.NewResolver(database.repos)

	// a Saturday inside the marathon range matches both; the higher
	// priority alternate wins
	items, err := resolver.ActiveItems(ctx, fixtureScheduleID, time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, marathonTarget, items[0].Content.TargetID)

	// a Saturday outside the range falls to the weekend alternate
	items, err = resolver.ActiveItems(ctx, fixtureScheduleID, time.Date(2026, 3, 21, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, weekendTarget, items[0].Content.TargetID)

	// a weekday outside the range matches nothing and uses the base list
	items, err = resolver.ActiveItems(ctx, fixtureScheduleID, time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, baseTarget, items[0].Content.TargetID)
}

func TestActiveItemsFallsBackWhenAlternateIsEmpty(t *testing.T) {
	database := openTestDatabase(t)
	defer database.close()

	ctx := context.Background()
	baseTarget := uuid.MustParse("a1b2c3d4-0000-0000-0000-000000000053")

	createEmptySchedule(t, database.repos, fixtureScheduleID)
	addScheduleItem(t, database.repos, fixtureScheduleID, baseTarget, 0, models.PlayoutModeOne, models.RerunModeNone, nil)

	// an empty rule matches every instant, but the alternate has no items
	addAlternate(t, database.repos, fixtureScheduleID, "hollow", 5, models.ActivationRule{})

	resolver := schedule.NewResolver(database.repos)
	items, err := resolver.ActiveItems(ctx, fixtureScheduleID, time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, baseTarget, items[0].Content.TargetID)
}
