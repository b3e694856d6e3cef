package session

import (
	"context"
	"errors"
	"time"

	"baduklive/internal/analysis"
	"baduklive/internal/annotate"
	"baduklive/internal/freshness"
	"baduklive/internal/match"
	"baduklive/internal/perspective"
	"baduklive/internal/timeline"
)

// ErrClosed is returned by commands sent to a closed session
var ErrClosed = errors.New("session closed")

// Source is everything a hub needs from the match data service
type Source interface {
	freshness.Source
	ListMatches(ctx context.Context, f match.ListFilter) (match.List, error)
}

// Options configures sessions created by a Hub
type Options struct {
	Source              Source
	Intervals           freshness.Intervals
	RecommendationLimit int

	ListInterval    time.Duration
	ListLimit       int
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
}

// View is the full state of a kiosk session, pushed to every attached screen
type View struct {
	Kind      string `json:"kind"`
	SessionID string `json:"session_id"`
	MatchID   string `json:"match_id,omitempty"`
	State     string `json:"state"`
	Loading   bool   `json:"loading"`
	Error     string `json:"error,omitempty"`
	Polling   bool   `json:"polling"`

	timeline.Snapshot

	Match     *match.Detail         `json:"match,omitempty"`
	Position  *perspective.Position `json:"position,omitempty"`
	Trend     []annotate.TrendPoint `json:"trend"`
	Brilliant []analysis.Entry      `json:"brilliant"`
	Problems  []analysis.Entry      `json:"problems"`
	Analyzed  int                   `json:"analyzed"`
	Watchers  int                   `json:"watchers"`
}
