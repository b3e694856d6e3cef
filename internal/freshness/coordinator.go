// Package freshness decides when a selected match is re-fetched and hands fetch
// results back to the owner's event loop, dropping results that belong to an older
// selection.
package freshness

import (
	"context"
	"time"

	"baduklive/internal/logging"
	"baduklive/internal/match"
	"baduklive/internal/metrics"
	"baduklive/internal/schedule"
)

// Source fetches match detail and analysis for one match
type Source interface {
	FetchMatch(ctx context.Context, id string, includeDetail bool) (match.Detail, error)
	FetchAnalysis(ctx context.Context, id string, preload bool) (map[int]match.MoveAnalysis, error)
}

// Handler receives fetch outcomes. Every method runs on the owner's event loop.
type Handler interface {
	DetailLoaded(d match.Detail)
	DetailFailed(err error)
	AnalysisLoaded(records map[int]match.MoveAnalysis)
	AnalysisFailed(err error)
}

// Post schedules fn on the owner's single-threaded event loop
type Post func(fn func())

// Intervals configures polling cadence for a live match
type Intervals struct {
	Detail       time.Duration
	Analysis     time.Duration
	FetchTimeout time.Duration
}

// DefaultIntervals polls a live match every five seconds
func DefaultIntervals() Intervals {
	return Intervals{
		Detail:       5 * time.Second,
		Analysis:     5 * time.Second,
		FetchTimeout: 10 * time.Second,
	}
}

const (
	kindDetail   = "detail"
	kindAnalysis = "analysis"
)

// Coordinator owns the poll tasks for the selected match. All methods must be called
// from the owner's event loop.
type Coordinator struct {
	src  Source
	post Post
	h    Handler
	iv   Intervals

	root   context.Context
	ctx    context.Context
	cancel context.CancelFunc

	matchID    string
	generation uint64
	status     match.Status

	detailTask   *schedule.Task
	analysisTask *schedule.Task

	detailInFlight   bool
	analysisInFlight bool
}

// New creates a Coordinator. root bounds every task and fetch it starts.
func New(root context.Context, src Source, post Post, h Handler, iv Intervals) *Coordinator {
	def := DefaultIntervals()
	if iv.Detail <= 0 {
		iv.Detail = def.Detail
	}
	if iv.Analysis <= 0 {
		iv.Analysis = def.Analysis
	}
	if iv.FetchTimeout <= 0 {
		iv.FetchTimeout = def.FetchTimeout
	}
	return &Coordinator{src: src, post: post, h: h, iv: iv, root: root}
}

// Select starts tracking matchID: one detail fetch and one preload analysis fetch
// are issued immediately. Polling starts once a detail reports the match live.
func (c *Coordinator) Select(matchID string) {
	c.reset()
	c.matchID = matchID
	c.ctx, c.cancel = context.WithCancel(c.root)
	logging.Debugf("freshness: select %s generation %d", matchID, c.generation)
	c.fetchDetail()
	c.fetchAnalysis(true)
}

// Deselect stops polling and orphans in-flight fetches
func (c *Coordinator) Deselect() {
	c.reset()
}

// Close is Deselect for owner teardown
func (c *Coordinator) Close() {
	c.reset()
}

// Refresh forces an immediate detail and analysis fetch outside the poll cadence
func (c *Coordinator) Refresh() {
	if c.matchID == "" {
		return
	}
	c.fetchDetail()
	c.fetchAnalysis(false)
}

// MatchID returns the tracked match, empty when none
func (c *Coordinator) MatchID() string { return c.matchID }

// Polling reports whether live polling tasks are running
func (c *Coordinator) Polling() bool {
	return !c.detailTask.Stopped() || !c.analysisTask.Stopped()
}

func (c *Coordinator) reset() {
	c.stopPolling()
	if c.cancel != nil {
		c.cancel()
	}
	c.generation++
	c.matchID = ""
	c.status = ""
	c.detailInFlight = false
	c.analysisInFlight = false
}

func (c *Coordinator) stopPolling() {
	c.detailTask.Stop()
	c.analysisTask.Stop()
	c.detailTask = nil
	c.analysisTask = nil
}

// observe reacts to the status carried by a fresh detail. finished is terminal for
// the selection.
func (c *Coordinator) observe(status match.Status) {
	if c.status == match.StatusFinished {
		return
	}
	c.status = status
	if status != match.StatusLive {
		if c.Polling() {
			logging.Info().Str("match", c.matchID).Str("status", string(status)).Msg("polling stopped")
		}
		c.stopPolling()
		return
	}
	c.ensurePolling()
}

// ensurePolling starts whichever poll task is not running
func (c *Coordinator) ensurePolling() {
	if c.detailTask.Stopped() {
		c.detailTask = c.every(c.iv.Detail, c.pollDetail)
	}
	if c.analysisTask.Stopped() {
		c.analysisTask = c.every(c.iv.Analysis, c.pollAnalysis)
	}
}

// every starts a task whose ticks are posted to the loop and ignored once the task
// has been stopped.
func (c *Coordinator) every(interval time.Duration, fn func()) *schedule.Task {
	var t *schedule.Task
	t = schedule.Every(c.ctx, interval, func() {
		c.post(func() {
			if t.Stopped() {
				return
			}
			fn()
		})
	})
	return t
}

func (c *Coordinator) pollDetail() {
	if c.detailInFlight {
		return
	}
	c.fetchDetail()
}

func (c *Coordinator) pollAnalysis() {
	if c.analysisInFlight {
		return
	}
	c.fetchAnalysis(false)
}

func (c *Coordinator) fetchDetail() {
	gen, id, ctx := c.generation, c.matchID, c.ctx
	c.detailInFlight = true
	go func() {
		fctx, cancel := context.WithTimeout(ctx, c.iv.FetchTimeout)
		defer cancel()
		d, err := c.src.FetchMatch(fctx, id, true)
		c.post(func() {
			if gen != c.generation {
				metrics.StaleResponses.WithLabelValues(kindDetail).Inc()
				return
			}
			c.detailInFlight = false
			if err != nil {
				// Keep retrying on the poll cadence unless the match is known finished.
				if c.status != match.StatusFinished {
					c.ensurePolling()
				}
				c.h.DetailFailed(err)
				return
			}
			c.observe(d.Status)
			c.h.DetailLoaded(d)
		})
	}()
}

func (c *Coordinator) fetchAnalysis(preload bool) {
	gen, id, ctx := c.generation, c.matchID, c.ctx
	c.analysisInFlight = true
	go func() {
		fctx, cancel := context.WithTimeout(ctx, c.iv.FetchTimeout)
		defer cancel()
		records, err := c.src.FetchAnalysis(fctx, id, preload)
		c.post(func() {
			if gen != c.generation {
				metrics.StaleResponses.WithLabelValues(kindAnalysis).Inc()
				return
			}
			c.analysisInFlight = false
			if err != nil {
				c.h.AnalysisFailed(err)
				return
			}
			c.h.AnalysisLoaded(records)
		})
	}()
}
