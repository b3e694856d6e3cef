package session

import (
	"context"
	"sync"
	"time"

	"baduklive/internal/logging"
	"baduklive/internal/match"
	"baduklive/internal/metrics"
	"baduklive/internal/schedule"

	"github.com/sourcegraph/conc"
)

const (
	defaultIdleTimeout     = 24 * time.Hour
	defaultCleanupInterval = 5 * time.Minute
	defaultListInterval    = 30 * time.Second
)

// ListState is the cached result of the match list poller
type ListState struct {
	List      match.List `json:"list"`
	Error     string     `json:"error,omitempty"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Hub manages all kiosk sessions and the shared match list
type Hub struct {
	Mu       sync.Mutex
	Sessions map[string]*Session

	opts   Options
	ctx    context.Context
	cancel context.CancelFunc

	cleanupTask *schedule.Task
	listTask    *schedule.Task

	listMu sync.RWMutex
	list   ListState
}

// NewHub creates a hub with its cleanup and match list tasks running
func NewHub(parent context.Context, opts Options) *Hub {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.ListInterval <= 0 {
		opts.ListInterval = defaultListInterval
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		Sessions: make(map[string]*Session),
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		list:     ListState{List: match.List{Matches: []match.Summary{}}},
	}
	h.cleanupTask = schedule.Every(ctx, opts.CleanupInterval, func() { h.Cleanup(time.Now()) })
	go h.RefreshList()
	h.listTask = schedule.Every(ctx, opts.ListInterval, h.RefreshList)
	return h
}

// Get retrieves an existing session or creates a new one
func (h *Hub) Get(id string) (*Session, error) {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	if h.ctx.Err() != nil {
		return nil, ErrClosed
	}
	if s, ok := h.Sessions[id]; ok {
		return s, nil
	}
	s := newSession(h.ctx, id, h.opts)
	h.Sessions[id] = s
	metrics.Sessions.Set(float64(len(h.Sessions)))
	logging.Debugf("session %s created", id)
	return s, nil
}

// Lookup returns an existing session without creating one
func (h *Hub) Lookup(id string) (*Session, bool) {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	s, ok := h.Sessions[id]
	return s, ok
}

// Len returns the number of sessions
func (h *Hub) Len() int {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	return len(h.Sessions)
}

// Cleanup closes sessions without watchers that have been idle longer than the
// idle timeout, measured at now.
func (h *Hub) Cleanup(now time.Time) int {
	h.Mu.Lock()
	var idle []*Session
	for id, s := range h.Sessions {
		s.Mu.Lock()
		expired := len(s.Watchers) == 0 && now.Sub(s.LastSeen) > h.opts.IdleTimeout
		s.Mu.Unlock()
		if expired {
			idle = append(idle, s)
			delete(h.Sessions, id)
		}
	}
	metrics.Sessions.Set(float64(len(h.Sessions)))
	h.Mu.Unlock()

	closeAll(idle)
	if len(idle) > 0 {
		logging.Info().Int("closed", len(idle)).Msg("idle sessions removed")
	}
	return len(idle)
}

// RefreshList fetches the match list now and caches the outcome. A failed fetch keeps
// the previous list.
func (h *Hub) RefreshList() {
	if h.opts.Source == nil {
		return
	}
	ctx, cancel := context.WithTimeout(h.ctx, h.fetchTimeout())
	defer cancel()
	list, err := h.opts.Source.ListMatches(ctx, match.ListFilter{Limit: h.opts.ListLimit})

	h.listMu.Lock()
	defer h.listMu.Unlock()
	if err != nil {
		if h.ctx.Err() == nil {
			logging.Warn().Err(err).Msg("match list fetch failed")
		}
		h.list.Error = err.Error()
		return
	}
	h.list = ListState{List: list, FetchedAt: time.Now()}
}

// Matches returns the cached match list
func (h *Hub) Matches() ListState {
	h.listMu.RLock()
	defer h.listMu.RUnlock()
	return h.list
}

// Close stops the hub tasks and closes every session
func (h *Hub) Close() {
	h.cancel()
	h.cleanupTask.Stop()
	h.listTask.Stop()

	h.Mu.Lock()
	all := make([]*Session, 0, len(h.Sessions))
	for id, s := range h.Sessions {
		all = append(all, s)
		delete(h.Sessions, id)
	}
	metrics.Sessions.Set(0)
	h.Mu.Unlock()

	closeAll(all)
}

func (h *Hub) fetchTimeout() time.Duration {
	if h.opts.Intervals.FetchTimeout > 0 {
		return h.opts.Intervals.FetchTimeout
	}
	return 10 * time.Second
}

func closeAll(sessions []*Session) {
	var wg conc.WaitGroup
	for _, s := range sessions {
		wg.Go(s.Close)
	}
	wg.Wait()
}
