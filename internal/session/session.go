package session

import (
	"bytes"
	"context"
	"sync"
	"time"

	"baduklive/internal/analysis"
	"baduklive/internal/annotate"
	"baduklive/internal/freshness"
	"baduklive/internal/logging"
	"baduklive/internal/match"
	"baduklive/internal/metrics"
	"baduklive/internal/perspective"
	"baduklive/internal/schedule"
	"baduklive/internal/timeline"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

type event struct {
	fn   func()
	done chan struct{}
}

// Session is one kiosk screen. All match state is owned by a single goroutine that
// executes events in order; commands, timer ticks and fetch results are all events.
type Session struct {
	ID string

	events chan event
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	log    zerolog.Logger

	// owned by the loop
	store    *analysis.Store
	ctl      *timeline.Controller
	coord    *freshness.Coordinator
	matchID  string
	detail   *match.Detail
	loading  bool
	err      string
	playTask *schedule.Task
	limit    int

	dirty     bool
	trendLen  int
	trend     []annotate.TrendPoint
	brilliant []analysis.Entry
	problems  []analysis.Entry
	last      []byte

	// Mu guards the fields below, which are read from HTTP handlers.
	Mu       sync.Mutex
	Watchers map[chan []byte]struct{}
	LastSeen time.Time
	view     View
}

func newSession(parent context.Context, id string, opts Options) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:       id,
		events:   make(chan event, 64),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		log:      logging.With().Str("session", id).Logger(),
		store:    analysis.NewStore(),
		ctl:      timeline.New(),
		limit:    opts.RecommendationLimit,
		dirty:    true,
		Watchers: make(map[chan []byte]struct{}),
		LastSeen: time.Now(),
	}
	if s.limit <= 0 {
		s.limit = perspective.DefaultLimit
	}
	s.coord = freshness.New(ctx, opts.Source, s.post, s, opts.Intervals)
	s.store.Subscribe(func() { s.dirty = true })
	s.view = s.buildView()
	go s.run()
	return s
}

func (s *Session) run() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			s.coord.Close()
			s.playTask.Stop()
			return
		case ev := <-s.events:
			ev.fn()
			s.publish()
			if ev.done != nil {
				close(ev.done)
			}
		}
	}
}

// post queues fn on the loop. It never blocks past Close.
func (s *Session) post(fn func()) {
	select {
	case s.events <- event{fn: fn}:
	case <-s.ctx.Done():
	}
}

// exec runs fn on the loop and waits for the resulting view
func (s *Session) exec(fn func()) (View, error) {
	ev := event{fn: fn, done: make(chan struct{})}
	select {
	case s.events <- ev:
	case <-s.ctx.Done():
		return View{}, ErrClosed
	}
	select {
	case <-ev.done:
	case <-s.done:
		return View{}, ErrClosed
	}
	s.Touch()
	return s.View(), nil
}

// Select switches the session to matchID. An empty id clears the selection and
// selecting the current match again changes nothing.
func (s *Session) Select(matchID string) (View, error) {
	return s.exec(func() {
		if matchID == s.matchID {
			return
		}
		s.stopPlayback()
		s.store.Reset()
		s.ctl.Deselect()
		s.detail = nil
		s.err = ""
		s.matchID = matchID
		s.loading = matchID != ""
		if matchID == "" {
			s.coord.Deselect()
			s.log.Info().Msg("selection cleared")
			return
		}
		s.coord.Select(matchID)
		s.log.Info().Str("match", matchID).Msg("match selected")
	})
}

// GoTo jumps to move n, clamped to the match bounds
func (s *Session) GoTo(n int) (View, error) {
	return s.exec(func() {
		s.ctl.GoTo(n)
		s.syncPlayback()
	})
}

// Play starts auto-advance
func (s *Session) Play() (View, error) {
	return s.exec(func() {
		s.ctl.Play()
		s.syncPlayback()
	})
}

// Pause stops auto-advance
func (s *Session) Pause() (View, error) {
	return s.exec(func() {
		s.ctl.Pause()
		s.syncPlayback()
	})
}

// SetFollowLatest turns follow mode on or off
func (s *Session) SetFollowLatest(on bool) (View, error) {
	return s.exec(func() {
		s.ctl.SetFollowLatest(on)
		s.syncPlayback()
	})
}

// ToggleFollowLatest flips follow mode
func (s *Session) ToggleFollowLatest() (View, error) {
	return s.exec(func() {
		s.ctl.ToggleFollowLatest()
		s.syncPlayback()
	})
}

// Refresh re-fetches detail and analysis now
func (s *Session) Refresh() (View, error) {
	return s.exec(s.coord.Refresh)
}

// Analysis returns the selected match id together with a copy of its records, read in one loop event
func (s *Session) Analysis() (string, map[int]match.MoveAnalysis, error) {
	var (
		id   string
		recs map[int]match.MoveAnalysis
	)
	_, err := s.exec(func() {
		id = s.matchID
		recs = s.store.Snapshot()
	})
	return id, recs, err
}

// View returns the last published view
func (s *Session) View() View {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.view
}

// Touch updates the last seen timestamp
func (s *Session) Touch() {
	s.Mu.Lock()
	s.LastSeen = time.Now()
	s.Mu.Unlock()
}

// AddWatcher registers ch for view frames
func (s *Session) AddWatcher(ch chan []byte) {
	s.Mu.Lock()
	s.Watchers[ch] = struct{}{}
	s.LastSeen = time.Now()
	s.Mu.Unlock()
	s.post(func() {})
}

// RemoveWatcher unregisters ch
func (s *Session) RemoveWatcher(ch chan []byte) {
	s.Mu.Lock()
	delete(s.Watchers, ch)
	s.LastSeen = time.Now()
	s.Mu.Unlock()
	s.post(func() {})
}

// Frame returns the last published view encoded for the wire
func (s *Session) Frame() []byte {
	data, _ := json.Marshal(s.View())
	return data
}

// Done is closed once the session loop has exited
func (s *Session) Done() <-chan struct{} { return s.done }

// Close stops polling and playback and waits for the loop to exit
func (s *Session) Close() {
	s.cancel()
	<-s.done
}

// DetailLoaded implements freshness.Handler
func (s *Session) DetailLoaded(d match.Detail) {
	if s.detail != nil && s.detail.Status == match.StatusFinished {
		return
	}
	if s.detail == nil {
		s.ctl.Select(d.MoveCount, d.Live())
	} else {
		s.ctl.SetMoveCount(d.MoveCount, d.Live())
	}
	s.detail = &d
	s.loading = false
	s.err = ""
	s.syncPlayback()
}

// DetailFailed implements freshness.Handler
func (s *Session) DetailFailed(err error) {
	s.loading = false
	s.err = err.Error()
	s.log.Warn().Err(err).Str("match", s.matchID).Msg("match detail fetch failed")
}

// AnalysisLoaded implements freshness.Handler
func (s *Session) AnalysisLoaded(records map[int]match.MoveAnalysis) {
	res := s.store.Merge(records)
	metrics.AnalysisMerged.Add(float64(res.Changed))
	if res.Rejected > 0 {
		s.log.Warn().Int("rejected", res.Rejected).Str("match", s.matchID).Msg("analysis records out of range")
	}
}

// AnalysisFailed implements freshness.Handler
func (s *Session) AnalysisFailed(err error) {
	s.log.Warn().Err(err).Str("match", s.matchID).Msg("analysis fetch failed")
}

// syncPlayback keeps the playback task running exactly while the controller plays
func (s *Session) syncPlayback() {
	playing := s.ctl.Playing()
	switch {
	case playing && s.playTask.Stopped():
		var t *schedule.Task
		t = schedule.Every(s.ctx, timeline.PlaybackInterval, func() {
			s.post(func() {
				if t.Stopped() {
					return
				}
				s.ctl.Tick()
				s.syncPlayback()
			})
		})
		s.playTask = t
	case !playing:
		s.stopPlayback()
	}
}

func (s *Session) stopPlayback() {
	s.playTask.Stop()
	s.playTask = nil
}

// publish rebuilds the view and fans it out when it changed
func (s *Session) publish() {
	v := s.buildView()
	s.Mu.Lock()
	v.Watchers = len(s.Watchers)
	s.view = v
	s.Mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error().Err(err).Msg("encode view")
		return
	}
	if bytes.Equal(data, s.last) {
		return
	}
	s.last = data

	s.Mu.Lock()
	for ch := range s.Watchers {
		select {
		case ch <- data:
		default:
		}
	}
	s.Mu.Unlock()
}

func (s *Session) buildView() View {
	snap := s.ctl.Snapshot()
	v := View{
		Kind:      "state",
		SessionID: s.ID,
		MatchID:   s.matchID,
		State:     snap.State.String(),
		Loading:   s.loading,
		Error:     s.err,
		Polling:   s.coord.Polling(),
		Snapshot:  snap,
		Match:     s.detail,
		Analyzed:  s.store.Len(),
	}
	if snap.State != timeline.Ready {
		v.Trend = []annotate.TrendPoint{}
		v.Brilliant = []analysis.Entry{}
		v.Problems = []analysis.Entry{}
		return v
	}

	if s.dirty || s.trendLen != snap.Total {
		s.trend = annotate.TrendSeries(s.store, snap.Total)
		s.brilliant = annotate.BrilliantMoves(s.store)
		s.problems = annotate.ProblemMoves(s.store)
		s.trendLen = snap.Total
		s.dirty = false
	}
	v.Trend = s.trend
	v.Brilliant = s.brilliant
	v.Problems = s.problems

	actual, _ := s.detail.MoveAt(snap.Current)
	rec, ok := s.store.Get(snap.Current)
	pos := perspective.Evaluate(rec, ok, snap.Current, actual, s.limit)
	v.Position = &pos
	return v
}
