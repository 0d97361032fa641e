//go:build integration
// +build integration

package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/castawaytv/castaway/internal/api"
	"github.com/castawaytv/castaway/internal/channel"
	"github.com/castawaytv/castaway/internal/config"
	"github.com/castawaytv/castaway/internal/db"
	"github.com/castawaytv/castaway/internal/guide"
	"github.com/castawaytv/castaway/internal/library"
	"github.com/castawaytv/castaway/internal/models"
	"github.com/castawaytv/castaway/internal/playout"
)

// setupTestDB creates an in-memory test database with migrations applied
func setupTestDB(t *testing.T) (*db.DB, *db.Repositories, func()) {
	t.Helper()

	// Create a throwaway on-disk database. A ":memory:" DSN gives every
	// pooled connection its own empty database, so migrated tables would
	// vanish whenever the pool opens a second connection.
	database, err := db.New(filepath.Join(t.TempDir(), "castaway_test.db"))
	require.NoError(t, err, "Failed to create in-memory database")

	// Run migrations
	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err, "Failed to get SQL DB")

	// Get absolute path to migrations directory relative to this file
	// This ensures tests work regardless of working directory
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	testDir := filepath.Dir(filename)
	rootDir := filepath.Dir(filepath.Dir(testDir))
	migrationsPath := "file://" + filepath.Join(rootDir, "migrations")

	err = db.RunMigrations(sqlDB, migrationsPath)
	require.NoError(t, err, "Failed to run migrations")

	// Create repositories
	repos := db.NewRepositories(database)

	// Cleanup function
	cleanup := func() {
		database.Close()
	}

	return database, repos, cleanup
}

// testDatabase bundles a database with its repositories for fixtures
type testDatabase struct {
	db    *db.DB
	repos *db.Repositories
	close func()
}

// openTestDatabase is setupTestDB in a bundled form
func openTestDatabase(t *testing.T) *testDatabase {
	t.Helper()

	database, repos, cleanup := setupTestDB(t)
	return &testDatabase{db: database, repos: repos, close: cleanup}
}

// testPlayoutConfig returns build tuning suitable for tests
func testPlayoutConfig() config.PlayoutConfig {
	return config.PlayoutConfig{
		LookaheadHours:  6,
		RebuildInterval: time.Minute,
		DurationRetries: 5,
		RerunRetries:    10,
		GapRetries:      3,
	}
}

// newTestBuilder wires a playout builder against the given database
func newTestBuilder(database *db.DB, repos *db.Repositories) *playout.Builder {
	return playout.NewBuilder(database, repos, library.NewService(repos), testPlayoutConfig())
}

// setupTestRouter creates a test Gin router with all API routes configured
func setupTestRouter(database *db.DB, repos *db.Repositories) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Add recovery middleware to catch panics in tests
	router.Use(gin.Recovery())

	apiGroup := router.Group("/api")
	api.SetupHealthRoutes(apiGroup, database)
	api.SetupMediaRoutes(apiGroup, library.NewScanner(repos), repos, "")
	api.SetupChannelRoutes(apiGroup, channel.NewChannelService(repos))
	api.SetupCollectionRoutes(apiGroup, repos)
	api.SetupScheduleRoutes(apiGroup, repos)
	api.SetupBlockRoutes(apiGroup, repos)
	api.SetupDecoRoutes(apiGroup, repos)
	api.SetupPlayoutRoutes(apiGroup, repos, newTestBuilder(database, repos))
	api.SetupGuideRoutes(apiGroup, guide.NewService(repos))

	return router
}

// createTestMediaInDB creates a media item with a fixed id directly in
// the database. Fixed ids keep content keys identical across databases
// seeded with the same fixtures.
func createTestMediaInDB(t *testing.T, repos *db.Repositories, id uuid.UUID, title string, duration int64) *models.MediaItem {
	t.Helper()

	item := models.NewMediaItem("/library/"+title+".mp4", title, duration)
	item.ID = id

	err := repos.MediaItems.Create(context.Background(), item)
	require.NoError(t, err, "Failed to create test media item")

	return item
}

// createTestCollection creates a collection containing the given media
// items in order
func createTestCollection(t *testing.T, repos *db.Repositories, id uuid.UUID, name string, mediaIDs []uuid.UUID) *models.Collection {
	t.Helper()

	ctx := context.Background()
	collection := &models.Collection{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repos.Collections.Create(ctx, collection), "Failed to create test collection")

	for i, mediaID := range mediaIDs {
		item := &models.CollectionItem{
			ID:           uuid.New(),
			CollectionID: id,
			MediaItemID:  mediaID,
			Position:     i,
		}
		require.NoError(t, repos.Collections.AddItem(ctx, item), "Failed to add collection item")
	}

	return collection
}

// createTestSchedule creates an active classic schedule with a single
// sequential item playing the given collection
func createTestSchedule(t *testing.T, repos *db.Repositories, id uuid.UUID, collectionID uuid.UUID) *models.Schedule {
	t.Helper()

	ctx := context.Background()
	sched := &models.Schedule{
		ID:        id,
		Name:      "test schedule",
		Kind:      models.ScheduleKindClassic,
		Active:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repos.Schedules.Create(ctx, sched), "Failed to create test schedule")

	item := &models.ScheduleItem{
		ID:         uuid.New(),
		ScheduleID: id,
		Position:   0,
		Content: models.ContentRef{
			Kind:     models.ContentKindCollection,
			TargetID: collectionID,
		},
		PlaybackOrder:      models.PlaybackOrderSequential,
		Mode:               models.PlayoutModeOne,
		FixedStartBehavior: models.FixedStartStrict,
		RerunMode:          models.RerunModeNone,
	}
	require.NoError(t, repos.Schedules.CreateItem(ctx, item), "Failed to create test schedule item")

	return sched
}

// createTestChannel creates a channel with a unique number
func createTestChannel(t *testing.T, repos *db.Repositories, number string) *models.Channel {
	t.Helper()

	ch := models.NewChannel(fmt.Sprintf("Channel %s", number), number)
	require.NoError(t, repos.Channels.Create(context.Background(), ch), "Failed to create test channel")
	return ch
}

// createTestPlayout creates a playout with a fixed seed anchored at start
func createTestPlayout(t *testing.T, repos *db.Repositories, channelID, scheduleID uuid.UUID, seed int64, start time.Time) *models.Playout {
	t.Helper()

	p := models.NewPlayout(channelID, scheduleID, seed, start)
	p.LookaheadHours = 6
	require.NoError(t, repos.Playouts.Create(context.Background(), p), "Failed to create test playout")
	return p
}
