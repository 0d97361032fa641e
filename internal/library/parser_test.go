package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePathDashedPattern(t *testing.T) {
	parsed := ParsePath("/media/tv/Breaking News - S02E05 - The Scoop.mkv")

	require.NotNil(t, parsed.ShowName)
	assert.Equal(t, "Breaking News", *parsed.ShowName)
	require.NotNil(t, parsed.Season)
	assert.Equal(t, 2, *parsed.Season)
	require.NotNil(t, parsed.Episode)
	assert.Equal(t, 5, *parsed.Episode)
	assert.Equal(t, "Breaking News - S02E05", parsed.Title)
}

func TestParsePathDottedPattern(t *testing.T) {
	parsed := ParsePath("/media/tv/Space.Rangers.S01E10.1080p.mkv")

	require.NotNil(t, parsed.ShowName)
	assert.Equal(t, "Space Rangers", *parsed.ShowName)
	require.NotNil(t, parsed.Season)
	assert.Equal(t, 1, *parsed.Season)
	require.NotNil(t, parsed.Episode)
	assert.Equal(t, 10, *parsed.Episode)
}

func TestParsePathCrossPattern(t *testing.T) {
	parsed := ParsePath("/media/tv/Old.Show.3x07.avi")

	require.NotNil(t, parsed.ShowName)
	assert.Equal(t, "Old Show", *parsed.ShowName)
	require.NotNil(t, parsed.Season)
	assert.Equal(t, 3, *parsed.Season)
	require.NotNil(t, parsed.Episode)
	assert.Equal(t, 7, *parsed.Episode)
}

func TestParsePathSeasonDirectory(t *testing.T) {
	parsed := ParsePath("/media/tv/Cartoon Classics/Season 1/04 - The Chase.mp4")

	require.NotNil(t, parsed.ShowName)
	assert.Equal(t, "Cartoon Classics", *parsed.ShowName)
	require.NotNil(t, parsed.Season)
	assert.Equal(t, 1, *parsed.Season)
	require.NotNil(t, parsed.Episode)
	assert.Equal(t, 4, *parsed.Episode)
	assert.Equal(t, "Cartoon Classics - S01E04", parsed.Title)
}

func TestParsePathReleaseYear(t *testing.T) {
	parsed := ParsePath("/media/movies/The Long Night (1997).mp4")

	require.NotNil(t, parsed.ReleasedAt)
	assert.Equal(t, 1997, parsed.ReleasedAt.Year())
	assert.Nil(t, parsed.ShowName)

	parsed = ParsePath("/media/movies/Another.Story.2014.1080p.mkv")
	require.NotNil(t, parsed.ReleasedAt)
	assert.Equal(t, 2014, parsed.ReleasedAt.Year())
}

func TestParsePathUnstructuredFallsBackToCleanedTitle(t *testing.T) {
	parsed := ParsePath("/media/misc/station_ident_blue.mp4")

	assert.Nil(t, parsed.ShowName)
	assert.Nil(t, parsed.Season)
	assert.Nil(t, parsed.Episode)
	assert.Equal(t, "station ident blue", parsed.Title)
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "Some Show Name", cleanName("Some.Show_Name"))
	assert.Equal(t, "spaced out", cleanName("  spaced   out  "))
}
