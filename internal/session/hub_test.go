package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"baduklive/internal/match"

	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, src *fakeSource) *Hub {
	t.Helper()
	opts := slowOptions(src)
	opts.IdleTimeout = 24 * time.Hour
	opts.ListInterval = time.Hour
	h := NewHub(context.Background(), opts)
	t.Cleanup(h.Close)
	return h
}

func TestGetReturnsSameSession(t *testing.T) {
	h := newTestHub(t, newFakeSource())
	a, err := h.Get("s1")
	require.NoError(t, err)
	b, err := h.Get("s1")
	require.NoError(t, err)
	require.Same(t, a, b)
	require.Equal(t, 1, h.Len())

	_, ok := h.Lookup("other")
	require.False(t, ok)
}

func TestCleanupRemovesIdleSessions(t *testing.T) {
	h := newTestHub(t, newFakeSource())
	s, err := h.Get("test")
	require.NoError(t, err)

	// Last seen 23 hours ago: kept.
	s.Mu.Lock()
	s.LastSeen = time.Now().Add(-23 * time.Hour)
	s.Mu.Unlock()
	require.Zero(t, h.Cleanup(time.Now()))
	_, ok := h.Lookup("test")
	require.True(t, ok)

	// Last seen 25 hours ago: removed and closed.
	s.Mu.Lock()
	s.LastSeen = time.Now().Add(-25 * time.Hour)
	s.Mu.Unlock()
	require.Equal(t, 1, h.Cleanup(time.Now()))
	_, ok = h.Lookup("test")
	require.False(t, ok)

	_, err = s.GoTo(1)
	require.ErrorIs(t, err, ErrClosed)
}

func TestCleanupKeepsWatchedSessions(t *testing.T) {
	h := newTestHub(t, newFakeSource())
	s, err := h.Get("watched")
	require.NoError(t, err)

	ch := make(chan []byte, 1)
	s.AddWatcher(ch)
	s.Mu.Lock()
	s.LastSeen = time.Now().Add(-48 * time.Hour)
	s.Mu.Unlock()

	require.Zero(t, h.Cleanup(time.Now()))
}

func TestMatchListIsCached(t *testing.T) {
	src := newFakeSource()
	src.list = match.List{Matches: []match.Summary{{ID: "m1", Status: match.StatusLive}}, LiveCount: 1, Total: 1}
	h := newTestHub(t, src)

	require.Eventually(t, func() bool { return len(h.Matches().List.Matches) == 1 }, time.Second, time.Millisecond)

	src.mu.Lock()
	src.listErr = errors.New("upstream down")
	src.mu.Unlock()
	h.RefreshList()

	st := h.Matches()
	require.Equal(t, "upstream down", st.Error)
	require.Len(t, st.List.Matches, 1, "last good list is kept")
}

func TestCloseClosesSessions(t *testing.T) {
	h := NewHub(context.Background(), slowOptions(newFakeSource()))
	s, err := h.Get("s1")
	require.NoError(t, err)

	h.Close()
	<-s.Done()
	_, err = h.Get("s2")
	require.ErrorIs(t, err, ErrClosed)
}
