//go:build integration
// +build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/castawaytv/castaway/internal/guide"
	"github.com/castawaytv/castaway/internal/models"
)

// guideFixture is a channel with a hand-built playout timeline:
//
//	12:00-12:01  pre-roll bumper          (group 1)
//	12:01-12:16  show chapter 1           (group 1, guide start 12:00)
//	12:16-12:17  mid-roll bumper          (group 1)
//	12:17-12:32  show chapter 2           (group 1)
//	12:40-14:10  movie, custom title      (group 2)
//
// The break between 12:32 and 12:40 is deliberate so playlist
// rendering has a discontinuity to mark.
type guideFixture struct {
	channel *models.Channel
	base    time.Time
	show    *models.MediaItem
	movie   *models.MediaItem
	bumper  *models.MediaItem
}

func seedGuideFixture(t *testing.T, tdb *testDatabase) *guideFixture {
	t.Helper()

	ctx := context.Background()
	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	show := models.NewMediaItem("/library/morning-show-s01e03.mp4", "The Pilot", 1800)
	showName := "Morning Show"
	season, episode := 1, 3
	show.ShowName = &showName
	show.Season = &season
	show.Episode = &episode
	require.NoError(t, tdb.repos.MediaItems.Create(ctx, show))

	movie := models.NewMediaItem("/library/saturday-feature.mp4", "Saturday Feature", 5400)
	require.NoError(t, tdb.repos.MediaItems.Create(ctx, movie))

	bumper := models.NewMediaItem("/library/station-bumper.mp4", "Station Bumper", 60)
	require.NoError(t, tdb.repos.MediaItems.Create(ctx, bumper))

	suffix := uuid.New().String()[:8]
	collection := createTestCollection(t, tdb.repos, uuid.New(), "guide fixture "+suffix, []uuid.UUID{show.ID})
	sched := createTestSchedule(t, tdb.repos, uuid.New(), collection.ID)
	channel := createTestChannel(t, tdb.repos, suffix)
	playout := createTestPlayout(t, tdb.repos, channel.ID, sched.ID, 1, base)

	guideStart := base
	items := []*models.PlayoutItem{
		guideItem(playout.ID, bumper.ID, base, 60, models.FillerKindPreRoll, 1),
		guideItem(playout.ID, show.ID, base.Add(1*time.Minute), 900, models.FillerKindNone, 1),
		guideItem(playout.ID, bumper.ID, base.Add(16*time.Minute), 60, models.FillerKindMidRoll, 1),
		guideItem(playout.ID, show.ID, base.Add(17*time.Minute), 900, models.FillerKindNone, 1),
		guideItem(playout.ID, movie.ID, base.Add(40*time.Minute), 5400, models.FillerKindNone, 2),
	}
	items[1].GuideStart = &guideStart
	customTitle := "Saturday Matinee"
	items[4].CustomTitle = &customTitle

	require.NoError(t, tdb.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		for _, item := range items {
			if err := tdb.repos.Playouts.CreateItemTx(tx, item); err != nil {
				return err
			}
		}
		return nil
	}))

	return &guideFixture{channel: channel, base: base, show: show, movie: movie, bumper: bumper}
}

func guideItem(playoutID, mediaID uuid.UUID, start time.Time, seconds int64, kind models.FillerKind, group int) *models.PlayoutItem {
	return &models.PlayoutItem{
		ID:            uuid.New(),
		PlayoutID:     playoutID,
		MediaItemID:   mediaID,
		Start:         start,
		Finish:        start.Add(time.Duration(seconds) * time.Second),
		OutSeconds:    seconds,
		FillerKind:    kind,
		GuideGroup:    group,
		CollectionKey: fmt.Sprintf("media:%s", mediaID),
	}
}

func TestGuideEntriesHideFillerAndMergeGroups(t *testing.T) {
	tdb := openTestDatabase(t)
	defer tdb.close()

	fx := seedGuideFixture(t, tdb)
	svc := guide.NewService(tdb.repos)

	entries, err := svc.Entries(context.Background(), fx.channel.ID, fx.base, fx.base.Add(4*time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 2, "fillers should be folded into their guide groups")

	// the show entry spans the whole surround group via its guide start
	assert.Equal(t, fx.base, entries[0].Start)
	assert.Equal(t, fx.base.Add(32*time.Minute), entries[0].Finish)
	assert.Equal(t, "The Pilot", entries[0].Title)
	require.NotNil(t, entries[0].ShowName)
	assert.Equal(t, "Morning Show", *entries[0].ShowName)
	require.NotNil(t, entries[0].Season)
	assert.Equal(t, 1, *entries[0].Season)
	require.NotNil(t, entries[0].Episode)
	assert.Equal(t, 3, *entries[0].Episode)

	// custom titles win over media metadata
	assert.Equal(t, "Saturday Matinee", entries[1].Title)
	assert.Equal(t, fx.base.Add(40*time.Minute), entries[1].Start)
	assert.Equal(t, fx.base.Add(130*time.Minute), entries[1].Finish)
	assert.Nil(t, entries[1].ShowName)
}

func TestGuideEntriesWindowing(t *testing.T) {
	tdb := openTestDatabase(t)
	defer tdb.close()

	fx := seedGuideFixture(t, tdb)
	svc := guide.NewService(tdb.repos)

	// a window covering only the movie skips the earlier group
	entries, err := svc.Entries(context.Background(), fx.channel.ID, fx.base.Add(35*time.Minute), fx.base.Add(4*time.Hour))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Saturday Matinee", entries[0].Title)

	// an empty window yields no rows, not an error
	entries, err = svc.Entries(context.Background(), fx.channel.ID, fx.base.Add(-2*time.Hour), fx.base.Add(-1*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestActiveItemIncludesFiller(t *testing.T) {
	tdb := openTestDatabase(t)
	defer tdb.close()

	fx := seedGuideFixture(t, tdb)
	svc := guide.NewService(tdb.repos)
	ctx := context.Background()

	item, err := svc.ActiveItem(ctx, fx.channel.ID, fx.base.Add(16*time.Minute+30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, fx.bumper.ID, item.MediaItemID)
	assert.Equal(t, models.FillerKindMidRoll, item.FillerKind)
	require.NotNil(t, item.MediaItem)
	assert.Equal(t, "/library/station-bumper.mp4", item.MediaItem.FilePath)

	// the 12:32-12:40 break has nothing on air
	_, err = svc.ActiveItem(ctx, fx.channel.ID, fx.base.Add(35*time.Minute))
	assert.ErrorIs(t, err, guide.ErrNoActiveItem)
}

func TestPlaylistMarksDiscontinuities(t *testing.T) {
	tdb := openTestDatabase(t)
	defer tdb.close()

	fx := seedGuideFixture(t, tdb)
	svc := guide.NewService(tdb.repos)

	data, err := svc.Playlist(context.Background(), fx.channel.ID, fx.base, fx.base.Add(4*time.Hour))
	require.NoError(t, err)

	playlist := string(data)
	assert.Contains(t, playlist, "#EXTM3U")
	assert.Contains(t, playlist, "#EXTINF")
	assert.Contains(t, playlist, "#EXT-X-PROGRAM-DATE-TIME")
	assert.Contains(t, playlist, "/library/saturday-feature.mp4")
	// the 12:32-12:40 break separates the movie from the show block
	assert.Contains(t, playlist, "#EXT-X-DISCONTINUITY")
	assert.Contains(t, playlist, "#EXT-X-ENDLIST")
}

func TestGuideEndpoints(t *testing.T) {
	tdb := openTestDatabase(t)
	defer tdb.close()

	fx := seedGuideFixture(t, tdb)
	router := setupTestRouter(tdb.db, tdb.repos)

	from := fx.base.Format(time.RFC3339)
	to := fx.base.Add(4 * time.Hour).Format(time.RFC3339)

	w := performRequest(router, http.MethodGet,
		fmt.Sprintf("/api/channels/%s/guide?from=%s&to=%s", fx.channel.ID, from, to), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Saturday Matinee")

	w = performRequest(router, http.MethodGet,
		fmt.Sprintf("/api/channels/%s/guide/playlist.m3u8?from=%s&to=%s", fx.channel.ID, from, to), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.apple.mpegurl", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "#EXTM3U")

	// a channel with no playout has no guide
	w = performRequest(router, http.MethodGet,
		fmt.Sprintf("/api/channels/%s/guide?from=%s&to=%s", uuid.New(), from, to), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
