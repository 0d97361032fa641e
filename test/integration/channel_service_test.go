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

	"github.com/castawaytv/castaway/internal/channel"
	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/models"
	"github.com/castawaytv/castaway/internal/playout"
)

func TestChannelUniqueness(t *testing.T) {
	tdb := openTestDatabase(t)
	defer tdb.close()

	svc := channel.NewChannelService(tdb.repos)
	ctx := context.Background()

	_, err := svc.CreateChannel(ctx, "Retro TV", "42", nil)
	require.NoError(t, err)

	// names collide case-insensitively
	_, err = svc.CreateChannel(ctx, "retro tv", "43", nil)
	assert.ErrorIs(t, err, channel.ErrDuplicateChannelName)

	_, err = svc.CreateChannel(ctx, "Movie Night", "42", nil)
	assert.ErrorIs(t, err, channel.ErrDuplicateChannelNumber)

	_, err = svc.CreateChannel(ctx, "Movie Night", "43", nil)
	assert.NoError(t, err)
}

func TestChannelUpdateValidation(t *testing.T) {
	tdb := openTestDatabase(t)
	defer tdb.close()

	svc := channel.NewChannelService(tdb.repos)
	ctx := context.Background()

	first, err := svc.CreateChannel(ctx, "Retro TV", "42", nil)
	require.NoError(t, err)
	second, err := svc.CreateChannel(ctx, "Movie Night", "43", nil)
	require.NoError(t, err)

	// renaming onto an existing name is rejected
	second.Name = "Retro TV"
	assert.ErrorIs(t, svc.UpdateChannel(ctx, second), channel.ErrDuplicateChannelName)

	// renaming only itself is allowed, case change included
	first.Name = "RETRO TV"
	assert.NoError(t, svc.UpdateChannel(ctx, first))

	missing := models.NewChannel("Ghost", "99")
	missing.ID = uuid.New()
	assert.ErrorIs(t, svc.UpdateChannel(ctx, missing), channel.ErrChannelNotFound)
}

func TestDeleteChannelCascadesPlayout(t *testing.T) {
	tdb := openTestDatabase(t)
	defer tdb.close()

	svc := channel.NewChannelService(tdb.repos)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	media := createTestMediaInDB(t, tdb.repos, uuid.New(), "Cascade Episode", 1800)
	collection := createTestCollection(t, tdb.repos, uuid.New(), "cascade collection", []uuid.UUID{media.ID})
	sched := createTestSchedule(t, tdb.repos, uuid.New(), collection.ID)
	ch := createTestChannel(t, tdb.repos, "77")
	p := createTestPlayout(t, tdb.repos, ch.ID, sched.ID, 7, start)

	builder := newTestBuilder(tdb.db, tdb.repos)
	require.NoError(t, builder.Build(ctx, p.ID, playout.BuildModeReset))

	items, err := tdb.repos.Playouts.GetItems(ctx, p.ID)
	require.NoError(t, err)
	require.NotEmpty(t, items)

	require.NoError(t, svc.DeleteChannel(ctx, ch.ID))

	_, err = svc.GetByID(ctx, ch.ID)
	assert.ErrorIs(t, err, channel.ErrChannelNotFound)
	_, err = tdb.repos.Playouts.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, db.ErrNotFound)

	items, err = tdb.repos.Playouts.GetItems(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, items, "playout items should cascade with the playout")

	states, err := tdb.repos.Playouts.GetEnumeratorStates(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, states, "enumerator states should cascade with the playout")
}
