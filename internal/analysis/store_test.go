package analysis

import (
	"testing"

	"baduklive/internal/match"

	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func rec(n int, wr float64) match.MoveAnalysis {
	return match.MoveAnalysis{MoveNumber: n, Winrate: f(wr)}
}

func TestGetAbsentIsNotAnError(t *testing.T) {
	s := NewStore()
	_, ok := s.Get(3)
	require.False(t, ok)
	_, ok = s.Get(-1)
	require.False(t, ok)
}

func TestMergeIsIdempotent(t *testing.T) {
	s := NewStore()
	notified := 0
	s.Subscribe(func() { notified++ })

	res := s.Merge(map[int]match.MoveAnalysis{3: rec(3, 0.6)})
	require.Equal(t, 1, res.Changed)
	first, ok := s.Get(3)
	require.True(t, ok)

	res = s.Merge(map[int]match.MoveAnalysis{3: rec(3, 0.6)})
	require.Equal(t, 0, res.Changed)
	second, ok := s.Get(3)
	require.True(t, ok)
	require.Equal(t, first, second)
	require.Equal(t, 1, notified, "identical merge must not notify")
	require.Equal(t, 1, s.Len())
}

func TestMergeDifferentIndexLeavesOthersAlone(t *testing.T) {
	s := NewStore()
	s.Merge(map[int]match.MoveAnalysis{5: rec(5, 0.4)})
	before, _ := s.Get(5)

	s.Merge(map[int]match.MoveAnalysis{2: rec(2, 0.9)})
	after, ok := s.Get(5)
	require.True(t, ok)
	require.Equal(t, before, after)
	require.Equal(t, 2, s.Len())
}

func TestMergeOverwritesSameIndex(t *testing.T) {
	s := NewStore()
	s.Merge(map[int]match.MoveAnalysis{1: rec(1, 0.4)})
	s.Merge(map[int]match.MoveAnalysis{1: rec(1, 0.7)})
	got, ok := s.Get(1)
	require.True(t, ok)
	require.InDelta(t, 0.7, got.WinrateValue(), 1e-9)
	require.Equal(t, 1, s.Len())
}

func TestMergeRejectsOutOfRange(t *testing.T) {
	s := NewStore()
	res := s.Merge(map[int]match.MoveAnalysis{-1: rec(-1, 0.5), MaxMoveIndex + 1: rec(0, 0.5), 0: rec(0, 0.5)})
	require.Equal(t, 2, res.Rejected)
	require.Equal(t, 1, res.Changed)
}

func TestEntriesAscendingAndSnapshot(t *testing.T) {
	s := NewStore()
	s.Merge(map[int]match.MoveAnalysis{10: rec(10, 0.1), 0: rec(0, 0.5), 4: rec(4, 0.3)})
	entries := s.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, []int{0, 4, 10}, []int{entries[0].Move, entries[1].Move, entries[2].Move})

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	require.Contains(t, snap, 10)
}

func TestResetClearsAndNotifies(t *testing.T) {
	s := NewStore()
	calls := 0
	unsub := s.Subscribe(func() { calls++ })
	s.Merge(map[int]match.MoveAnalysis{3: rec(3, 0.5)})
	s.Reset()
	require.Equal(t, 2, calls)
	_, ok := s.Get(3)
	require.False(t, ok)
	require.Zero(t, s.Len())

	unsub()
	s.Merge(map[int]match.MoveAnalysis{1: rec(1, 0.5)})
	require.Equal(t, 2, calls)
}
