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
	"gorm.io/gorm"

	"github.com/castawaytv/castaway/internal/history"
	"github.com/castawaytv/castaway/internal/models"
	"github.com/castawaytv/castaway/internal/rotation"
)

// newLedgerPlayout seeds the rows the history ledger's foreign keys
// require and returns the playout id
func newLedgerPlayout(t *testing.T, database *testDatabase) uuid.UUID {
	t.Helper()

	ctx := context.Background()
	sched := &models.Schedule{
		ID:        uuid.New(),
		Name:      "ledger schedule",
		Kind:      models.ScheduleKindClassic,
		Active:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, database.repos.Schedules.Create(ctx, sched))

	ch := models.NewChannel("Ledger "+uuid.New().String()[:8], uuid.New().String()[:8])
	require.NoError(t, database.repos.Channels.Create(ctx, ch))

	p := models.NewPlayout(ch.ID, sched.ID, 1, time.Now().UTC())
	require.NoError(t, database.repos.Playouts.Create(ctx, p))
	return p.ID
}

func airingMembers(n int) []rotation.Member {
	members := make([]rotation.Member, n)
	for i := range members {
		members[i] = rotation.Member{MediaItem: &models.MediaItem{
			ID:       uuid.New(),
			Title:    "item",
			Duration: 1800,
		}}
	}
	return members
}

func recordAiring(t *testing.T, database *testDatabase, ledger *history.Service, playoutID uuid.UUID, key string, item *models.MediaItem, firstRun bool) {
	t.Helper()
	err := database.db.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		return ledger.RecordAiringTx(tx, playoutID, key, item,
			time.Now().UTC(), time.Now().UTC().Add(30*time.Minute),
			rotation.State{Seed: 1, Position: 0}, firstRun, false)
	})
	require.NoError(t, err)
}

func TestSelectNextWithoutPairingReturnsCurrent(t *testing.T) {
	database := openTestDatabase(t)
	defer database.close()

	members := airingMembers(3)
	enum, err := rotation.New(models.PlaybackOrderSequential, members, rotation.State{}, rotation.Options{})
	require.NoError(t, err)

	ledger := history.NewService(database.repos)
	item, err := ledger.SelectNextTx(database.db.DB, uuid.New(), "k", enum, models.RerunModeNone, 10)
	require.NoError(t, err)
	assert.Equal(t, members[0].MediaItem.ID, item.ID)
	assert.Equal(t, 0, enum.State().Position, "selection must not advance the cursor")
}

func TestSelectNextFirstRunSkipsAiredItems(t *testing.T) {
	database := openTestDatabase(t)
	defer database.close()

	playoutID := newLedgerPlayout(t, database)
	members := airingMembers(3)
	ledger := history.NewService(database.repos)

	// the first member already aired as a first run
	recordAiring(t, database, ledger, playoutID, "k", members[0].MediaItem, true)

	enum, err := rotation.New(models.PlaybackOrderSequential, members, rotation.State{}, rotation.Options{})
	require.NoError(t, err)

	item, err := ledger.SelectNextTx(database.db.DB, playoutID, "k", enum, models.RerunModeFirstRun, 10)
	require.NoError(t, err)
	assert.Equal(t, members[1].MediaItem.ID, item.ID, "aired item should be skipped for a first-run slot")
}

func TestSelectNextRerunRequiresAiredItem(t *testing.T) {
	database := openTestDatabase(t)
	defer database.close()

	playoutID := newLedgerPlayout(t, database)
	members := airingMembers(3)
	ledger := history.NewService(database.repos)

	enum, err := rotation.New(models.PlaybackOrderSequential, members, rotation.State{}, rotation.Options{})
	require.NoError(t, err)

	// nothing has aired: a rerun slot has no eligible candidates
	_, err = ledger.SelectNextTx(database.db.DB, playoutID, "k", enum, models.RerunModeRerun, 6)
	assert.ErrorIs(t, err, history.ErrRerunPairingExhausted)

	// after a first run, the rerun slot pairs with it
	recordAiring(t, database, ledger, playoutID, "k", members[2].MediaItem, true)

	enum, err = rotation.New(models.PlaybackOrderSequential, members, rotation.State{}, rotation.Options{})
	require.NoError(t, err)

	item, err := ledger.SelectNextTx(database.db.DB, playoutID, "k", enum, models.RerunModeRerun, 10)
	require.NoError(t, err)
	assert.Equal(t, members[2].MediaItem.ID, item.ID)
}

func TestSelectNextScopesHistoryPerKey(t *testing.T) {
	database := openTestDatabase(t)
	defer database.close()

	playoutID := newLedgerPlayout(t, database)
	members := airingMembers(2)
	ledger := history.NewService(database.repos)

	recordAiring(t, database, ledger, playoutID, "movies", members[0].MediaItem, true)

	enum, err := rotation.New(models.PlaybackOrderSequential, members, rotation.State{}, rotation.Options{})
	require.NoError(t, err)

	// a different key shares no first-run ledger
	_, err = ledger.SelectNextTx(database.db.DB, playoutID, "cartoons", enum, models.RerunModeRerun, 4)
	assert.ErrorIs(t, err, history.ErrRerunPairingExhausted)
}

func TestResumeState(t *testing.T) {
	database := openTestDatabase(t)
	defer database.close()

	playoutID := newLedgerPlayout(t, database)
	ledger := history.NewService(database.repos)

	state, err := ledger.ResumeState(context.Background(), playoutID, "k")
	require.NoError(t, err)
	assert.Nil(t, state, "no history means no resume state")

	item := airingMembers(1)[0].MediaItem
	err = database.db.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		return ledger.RecordAiringTx(tx, playoutID, "k", item,
			time.Now().UTC(), time.Now().UTC().Add(time.Hour),
			rotation.State{Seed: 77, Position: 4}, false, false)
	})
	require.NoError(t, err)

	state, err = ledger.ResumeState(context.Background(), playoutID, "k")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, int64(77), state.Seed)
	assert.Equal(t, 4, state.Position)
}

func TestMarkFirstRunIsIdempotent(t *testing.T) {
	database := openTestDatabase(t)
	defer database.close()

	playoutID := newLedgerPlayout(t, database)
	ledger := history.NewService(database.repos)
	item := airingMembers(1)[0].MediaItem

	// the same item airing twice as first-run must not violate the
	// per-(playout, key, item) uniqueness
	recordAiring(t, database, ledger, playoutID, "k", item, true)
	recordAiring(t, database, ledger, playoutID, "k", item, true)

	aired, err := database.repos.History.HasAiredFirstRun(context.Background(), playoutID, "k", item.ID)
	require.NoError(t, err)
	assert.True(t, aired)
}

func TestOpenMultiPartTracksLastAiring(t *testing.T) {
	database := openTestDatabase(t)
	defer database.close()

	playoutID := newLedgerPlayout(t, database)
	ledger := history.NewService(database.repos)
	ctx := context.Background()
	base := time.Now().UTC()

	part1 := &models.MediaItem{ID: uuid.New(), Title: "Heist (Part 1)", Duration: 1800}
	finale := &models.MediaItem{ID: uuid.New(), Title: "Heist (Part 2)", Duration: 1800}

	open, err := ledger.OpenMultiPart(ctx, playoutID, "k")
	require.NoError(t, err)
	assert.Nil(t, open, "no history means no open sequence")

	// part 1 airs with the finale still unaired
	err = database.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		return ledger.RecordAiringTx(tx, playoutID, "k", part1,
			base, base.Add(30*time.Minute), rotation.State{Seed: 1}, false, true)
	})
	require.NoError(t, err)

	open, err = ledger.OpenMultiPart(ctx, playoutID, "k")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, part1.ID, open.MediaItemID)

	// the finale closes the sequence
	err = database.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		return ledger.RecordAiringTx(tx, playoutID, "k", finale,
			base.Add(30*time.Minute), base.Add(time.Hour), rotation.State{Seed: 1, Position: 1}, false, false)
	})
	require.NoError(t, err)

	open, err = ledger.OpenMultiPart(ctx, playoutID, "k")
	require.NoError(t, err)
	assert.Nil(t, open)
}
