package timeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ready(total int, live bool) *Controller {
	c := New()
	c.Select(total, live)
	return c
}

func TestSelectDefaultsToLatest(t *testing.T) {
	c := ready(40, true)
	s := c.Snapshot()
	require.Equal(t, Ready, s.State)
	require.Equal(t, 40, s.Current)
	require.True(t, s.FollowLatest)

	c = ready(12, false)
	require.False(t, c.Snapshot().FollowLatest)
}

func TestIdleIgnoresNavigation(t *testing.T) {
	c := New()
	c.GoTo(5)
	c.Play()
	c.SetMoveCount(10, true)
	require.Equal(t, Idle, c.State())
	require.Zero(t, c.Current())
	require.False(t, c.Playing())
}

func TestGoToWithinBounds(t *testing.T) {
	c := ready(20, false)
	for n := 0; n <= 20; n++ {
		require.Equal(t, n, c.GoTo(n))
		require.Equal(t, n, c.Current())
	}
}

func TestGoToClamps(t *testing.T) {
	c := ready(20, false)
	require.Equal(t, 0, c.GoTo(-5))
	require.Equal(t, 20, c.GoTo(25))
}

func TestGoToBehindEdgeLeavesFollow(t *testing.T) {
	c := ready(20, true)
	c.GoTo(10)
	require.False(t, c.Snapshot().FollowLatest)

	c.GoTo(20)
	require.False(t, c.Snapshot().FollowLatest, "reaching the edge manually does not re-enable follow")
}

func TestGoToEdgeKeepsFollow(t *testing.T) {
	c := ready(20, true)
	c.GoTo(20)
	require.True(t, c.Snapshot().FollowLatest)
}

func TestFollowSnapsToLatest(t *testing.T) {
	for _, start := range []int{0, 7, 20} {
		c := ready(20, true)
		c.GoTo(start)
		c.SetFollowLatest(true)
		require.Equal(t, 20, c.Current())
	}
}

func TestToggleFollow(t *testing.T) {
	c := ready(20, true)
	require.False(t, c.ToggleFollowLatest())
	c.GoTo(3)
	require.True(t, c.ToggleFollowLatest())
	require.Equal(t, 20, c.Current())
}

func TestGrowthFollowsWhenFollowing(t *testing.T) {
	c := ready(30, true)
	c.SetMoveCount(31, true)
	require.Equal(t, 31, c.Current())
}

func TestGrowthKeepsScrollbackPosition(t *testing.T) {
	c := ready(30, true)
	c.GoTo(12)
	c.SetMoveCount(31, true)
	require.Equal(t, 12, c.Current())
	require.Equal(t, 31, c.Snapshot().Total)
}

func TestShrinkClampsPosition(t *testing.T) {
	c := ready(30, false)
	c.SetMoveCount(25, false)
	require.Equal(t, 25, c.Current())
}

func TestFinishedMatchDoesNotPin(t *testing.T) {
	c := ready(30, true)
	c.SetMoveCount(32, false)
	require.Equal(t, 30, c.Current())
}

func TestPlayFromEndRewinds(t *testing.T) {
	c := ready(3, true)
	c.Play()
	require.True(t, c.Playing())
	require.Equal(t, 0, c.Current())
	require.False(t, c.Snapshot().FollowLatest)

	require.True(t, c.Tick())
	require.True(t, c.Tick())
	require.True(t, c.Tick())
	require.Equal(t, 3, c.Current())
	require.False(t, c.Playing(), "reaching the end stops playback")
	require.False(t, c.Tick())
}

func TestPlayFromMiddle(t *testing.T) {
	c := ready(10, false)
	c.GoTo(4)
	c.Play()
	c.Tick()
	require.Equal(t, 5, c.Current())
}

func TestPauseKeepsPosition(t *testing.T) {
	c := ready(10, false)
	c.GoTo(2)
	c.Play()
	c.Tick()
	c.Pause()
	require.False(t, c.Playing())
	require.Equal(t, 3, c.Current())
	require.False(t, c.Tick())
}

func TestGoToStopsPlayback(t *testing.T) {
	c := ready(10, false)
	c.GoTo(0)
	c.Play()
	c.GoTo(6)
	require.False(t, c.Playing())
}

func TestPlayOnEmptyMatch(t *testing.T) {
	c := ready(0, true)
	c.Play()
	require.False(t, c.Playing())
}

func TestDeselect(t *testing.T) {
	c := ready(10, true)
	c.Deselect()
	require.Equal(t, Snapshot{}, c.Snapshot())
}
