package rotation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castawaytv/castaway/internal/models"
)

func makeMembers(titles ...string) []Member {
	members := make([]Member, len(titles))
	for i, title := range titles {
		members[i] = Member{MediaItem: &models.MediaItem{
			ID:       uuid.New(),
			FilePath: "/library/" + title + ".mp4",
			Title:    title,
			Duration: 1800,
		}}
	}
	return members
}

func drain(e Enumerator, n int) []string {
	titles := make([]string, 0, n)
	for i := 0; i < n; i++ {
		item, ok := e.Current()
		if !ok {
			break
		}
		titles = append(titles, item.Title)
		e.MoveNext()
	}
	return titles
}

func TestNewRejectsEmptySource(t *testing.T) {
	_, err := New(models.PlaybackOrderShuffle, nil, State{}, Options{})
	assert.ErrorIs(t, err, ErrEmptyContentSource)

	_, _, err = Next(models.PlaybackOrderSequential, nil, State{}, Options{})
	assert.ErrorIs(t, err, ErrEmptyContentSource)
}

func TestSequentialWrapsInOrder(t *testing.T) {
	members := makeMembers("a", "b", "c")
	e, err := New(models.PlaybackOrderSequential, members, State{}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "a", "b"}, drain(e, 5))
}

func TestSequentialResumesFromState(t *testing.T) {
	members := makeMembers("a", "b", "c")
	e, err := New(models.PlaybackOrderSequential, members, State{Position: 2}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "a"}, drain(e, 2))
}

func TestShuffleIsDeterministic(t *testing.T) {
	members := makeMembers("a", "b", "c", "d", "e")

	first, err := New(models.PlaybackOrderShuffle, members, State{Seed: 42}, Options{})
	require.NoError(t, err)
	second, err := New(models.PlaybackOrderShuffle, members, State{Seed: 42}, Options{})
	require.NoError(t, err)

	assert.Equal(t, drain(first, 20), drain(second, 20),
		"same seed should replay the same sequence")
}

func TestShufflePassIsAPermutation(t *testing.T) {
	members := makeMembers("a", "b", "c", "d", "e")
	e, err := New(models.PlaybackOrderShuffle, members, State{Seed: 7}, Options{})
	require.NoError(t, err)

	pass := drain(e, len(members))
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e"}, pass,
		"one pass should emit every member exactly once")
}

func TestShuffleAvoidsHeadRepeatAcrossPasses(t *testing.T) {
	members := makeMembers("a", "b", "c", "d", "e")

	for seed := int64(0); seed < 50; seed++ {
		e, err := New(models.PlaybackOrderShuffle, members, State{Seed: seed}, Options{})
		require.NoError(t, err)

		sequence := drain(e, 2*len(members))
		tail := sequence[len(members)-1]
		head := sequence[len(members)]
		assert.NotEqual(t, tail, head,
			"seed %d: pass boundary should not repeat %q back to back", seed, tail)
	}
}

func TestShuffleResumesMidPass(t *testing.T) {
	members := makeMembers("a", "b", "c", "d", "e")

	e, err := New(models.PlaybackOrderShuffle, members, State{Seed: 11}, Options{})
	require.NoError(t, err)

	prefix := drain(e, 3)
	resumed, err := New(models.PlaybackOrderShuffle, members, e.State(), Options{})
	require.NoError(t, err)

	full, err := New(models.PlaybackOrderShuffle, members, State{Seed: 11}, Options{})
	require.NoError(t, err)
	whole := drain(full, 8)

	assert.Equal(t, whole[:3], prefix)
	assert.Equal(t, whole[3:], drain(resumed, 5),
		"a resumed cursor should continue where the original left off")
}

func TestShuffleSuppressedHead(t *testing.T) {
	members := makeMembers("a", "b", "c", "d")

	for seed := int64(0); seed < 50; seed++ {
		suppress := members[0].MediaItem.ID.String()
		e, err := New(models.PlaybackOrderShuffle, members, State{Seed: seed}, Options{SuppressHeadID: suppress})
		require.NoError(t, err)

		head, ok := e.Current()
		require.True(t, ok)
		assert.NotEqual(t, members[0].MediaItem.ID, head.ID,
			"seed %d: suppressed item should not open a fresh pass", seed)
	}
}

func TestShuffleClampsStalePosition(t *testing.T) {
	members := makeMembers("a", "b", "c")

	// the persisted cursor points past the shrunken member set
	e, err := New(models.PlaybackOrderShuffle, members, State{Seed: 3, Position: 9}, Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, e.State().Position, "stale position should reset")
	assert.NotEqual(t, int64(3), e.State().Seed, "recovery should advance the seed")

	_, ok := e.Current()
	assert.True(t, ok)
}

func TestRandomDrawsAreReplayable(t *testing.T) {
	members := makeMembers("a", "b", "c", "d", "e")

	first, err := New(models.PlaybackOrderRandom, members, State{Seed: 99}, Options{})
	require.NoError(t, err)
	second, err := New(models.PlaybackOrderRandom, members, State{Seed: 99}, Options{})
	require.NoError(t, err)

	assert.Equal(t, drain(first, 30), drain(second, 30))
}

func TestShuffleInOrderKeepsGroupOrder(t *testing.T) {
	show := func(name, title string) Member {
		return Member{
			MediaItem: &models.MediaItem{ID: uuid.New(), Title: title, Duration: 1800},
			GroupKey:  name,
		}
	}
	members := []Member{
		show("alpha", "alpha-1"), show("alpha", "alpha-2"), show("alpha", "alpha-3"),
		show("beta", "beta-1"), show("beta", "beta-2"), show("beta", "beta-3"),
	}

	e, err := New(models.PlaybackOrderShuffleInOrder, members, State{Seed: 5}, Options{})
	require.NoError(t, err)

	pass := drain(e, len(members))
	assert.ElementsMatch(t, []string{"alpha-1", "alpha-2", "alpha-3", "beta-1", "beta-2", "beta-3"}, pass)

	// within each group, emissions stay chronological
	positions := make(map[string]int)
	for i, title := range pass {
		positions[title] = i
	}
	assert.Less(t, positions["alpha-1"], positions["alpha-2"])
	assert.Less(t, positions["alpha-2"], positions["alpha-3"])
	assert.Less(t, positions["beta-1"], positions["beta-2"])
	assert.Less(t, positions["beta-2"], positions["beta-3"])
}

func TestKeepMultiPartTogether(t *testing.T) {
	members := makeMembers("Heist (Part 2)", "Standalone", "Heist (Part 1)", "Another One")

	for seed := int64(0); seed < 20; seed++ {
		e, err := New(models.PlaybackOrderShuffle, members, State{Seed: seed}, Options{KeepMultiPartTogether: true})
		require.NoError(t, err)

		pass := drain(e, len(members))
		partOne := -1
		for i, title := range pass {
			if title == "Heist (Part 1)" {
				partOne = i
			}
		}
		require.GreaterOrEqual(t, partOne, 0)
		require.Less(t, partOne+1, len(pass), "part 2 must follow part 1 within the pass")
		assert.Equal(t, "Heist (Part 2)", pass[partOne+1],
			"seed %d: multi-part episodes should play adjacent and in order", seed)
	}
}

func TestNextSingleStep(t *testing.T) {
	members := makeMembers("a", "b")

	item, state, err := Next(models.PlaybackOrderSequential, members, State{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "a", item.Title)
	assert.Equal(t, 1, state.Position)

	item, state, err = Next(models.PlaybackOrderSequential, members, state, Options{})
	require.NoError(t, err)
	assert.Equal(t, "b", item.Title)
	assert.Equal(t, 0, state.Position, "wrap resets the cursor")
}

func TestParsePart(t *testing.T) {
	members := makeMembers("Heist (Part 2)", "Heist - Part 1", "Finale Part 10", "Standalone Episode")

	key, number, ok := ParsePart(members[0].MediaItem)
	require.True(t, ok)
	assert.Equal(t, "Heist", key)
	assert.Equal(t, 2, number)

	key, number, ok = ParsePart(members[1].MediaItem)
	require.True(t, ok)
	assert.Equal(t, "Heist", key)
	assert.Equal(t, 1, number)

	_, number, ok = ParsePart(members[2].MediaItem)
	require.True(t, ok)
	assert.Equal(t, 10, number)

	_, _, ok = ParsePart(members[3].MediaItem)
	assert.False(t, ok)

	// the show name keeps same-titled parts of different shows apart
	show := "Cop Drama"
	members[0].MediaItem.ShowName = &show
	key, _, ok = ParsePart(members[0].MediaItem)
	require.True(t, ok)
	assert.Equal(t, "Cop Drama/Heist", key)
}

func TestHasLaterPart(t *testing.T) {
	members := makeMembers("Heist (Part 1)", "Heist (Part 2)", "Standalone")

	assert.True(t, HasLaterPart(members, members[0].MediaItem),
		"part 1 leaves the sequence open while part 2 is in the source")
	assert.False(t, HasLaterPart(members, members[1].MediaItem),
		"the final part closes the sequence")
	assert.False(t, HasLaterPart(members, members[2].MediaItem))

	// a different show's same-numbered title is not a sibling
	other := makeMembers("Heist (Part 1)", "Heist (Part 2)")
	show := "Other Show"
	other[1].MediaItem.ShowName = &show
	assert.False(t, HasLaterPart(other, other[0].MediaItem))
}
