// Package timeline owns the displayed move index of a match and its playback state.
//
// The controller is the product automaton {Idle, Ready} x {follow, manual} x
// {stopped, playing}. It is not safe for concurrent use; the owning session drives it
// from a single goroutine.
package timeline

import "time"

// PlaybackInterval is the auto-advance period while playing
const PlaybackInterval = time.Second

// State is the selection state of the controller
type State int

const (
	Idle State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "idle"
}

// Snapshot is an immutable copy of the controller state
type Snapshot struct {
	State        State `json:"-"`
	Current      int   `json:"current_move"`
	Total        int   `json:"move_count"`
	Live         bool  `json:"live"`
	FollowLatest bool  `json:"follow_latest"`
	Playing      bool  `json:"playing"`
}

// Controller is the only component allowed to change the displayed move index
type Controller struct {
	state   State
	current int
	total   int
	live    bool
	follow  bool
	playing bool
}

// New returns an Idle controller
func New() *Controller {
	return &Controller{}
}

// Select loads a match: the latest position is shown and follow mode is on only for
// live matches.
func (c *Controller) Select(moveCount int, live bool) {
	if moveCount < 0 {
		moveCount = 0
	}
	c.state = Ready
	c.total = moveCount
	c.current = moveCount
	c.live = live
	c.follow = live
	c.playing = false
}

// Deselect returns to Idle
func (c *Controller) Deselect() {
	*c = Controller{}
}

// GoTo navigates manually. It clamps n, stops playback and leaves follow mode when n
// is behind the last move. Landing exactly on the last move keeps follow as it was.
func (c *Controller) GoTo(n int) int {
	if c.state != Ready {
		return 0
	}
	c.current = c.clamp(n)
	c.playing = false
	if c.current < c.total {
		c.follow = false
	}
	return c.current
}

// SetFollowLatest turns follow mode on or off. Turning it on snaps to the last move.
func (c *Controller) SetFollowLatest(on bool) {
	if c.state != Ready {
		return
	}
	c.follow = on
	if on {
		c.current = c.total
		c.playing = false
	}
}

// ToggleFollowLatest flips follow mode and returns the new value
func (c *Controller) ToggleFollowLatest() bool {
	c.SetFollowLatest(!c.follow)
	return c.follow
}

// Play starts auto-advance, rewinding to the empty board when already at the end.
func (c *Controller) Play() {
	if c.state != Ready || c.total == 0 {
		return
	}
	if c.current >= c.total {
		c.current = 0
		c.follow = false
	}
	c.playing = true
}

// Pause stops auto-advance in place
func (c *Controller) Pause() {
	c.playing = false
}

// Tick advances one move while playing and stops at the last move. It reports
// whether the position changed.
func (c *Controller) Tick() bool {
	if c.state != Ready || !c.playing {
		return false
	}
	if c.current >= c.total {
		c.playing = false
		return false
	}
	c.current++
	if c.current >= c.total {
		c.playing = false
	}
	return true
}

// SetMoveCount applies a new authoritative move count. In follow mode on a live
// match the position moves to the new last move; otherwise it stays put, clamped.
func (c *Controller) SetMoveCount(n int, live bool) {
	if c.state != Ready {
		return
	}
	if n < 0 {
		n = 0
	}
	c.total = n
	c.live = live
	if c.follow && live {
		c.current = n
	}
	c.current = c.clamp(c.current)
	if c.playing && c.current >= c.total {
		c.playing = false
	}
}

// Current returns the displayed move index
func (c *Controller) Current() int { return c.current }

// Playing reports whether auto-advance is running
func (c *Controller) Playing() bool { return c.playing }

// State returns the selection state
func (c *Controller) State() State { return c.state }

// Snapshot copies the controller state
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:        c.state,
		Current:      c.current,
		Total:        c.total,
		Live:         c.live,
		FollowLatest: c.follow,
		Playing:      c.playing,
	}
}

func (c *Controller) clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > c.total {
		return c.total
	}
	return n
}
