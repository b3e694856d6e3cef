package match

// Status is the lifecycle state of a match
type Status string

const (
	StatusLive     Status = "live"
	StatusFinished Status = "finished"
)

// Side identifies a player by stone color
type Side string

const (
	SideBlack Side = "B"
	SideWhite Side = "W"
)

// CanonicalSide is the side whose perspective raw winrate and score lead are reported in.
const CanonicalSide = SideBlack

// Other returns the opposing side
func (s Side) Other() Side {
	if s == SideBlack {
		return SideWhite
	}
	return SideBlack
}

const (
	defaultWinrate   = 0.5
	defaultScoreLead = 0.0
)

// Summary is the list-level view of a match
type Summary struct {
	ID             string   `json:"id"`
	Tournament     string   `json:"tournament"`
	Round          string   `json:"round"`
	Date           string   `json:"date"`
	BlackPlayer    string   `json:"black_player"`
	BlackRank      string   `json:"black_rank"`
	WhitePlayer    string   `json:"white_player"`
	WhiteRank      string   `json:"white_rank"`
	BoardSize      int      `json:"board_size"`
	Komi           float64  `json:"komi"`
	Rules          string   `json:"rules"`
	Source         string   `json:"source"`
	Status         Status   `json:"status"`
	Result         string   `json:"result"`
	MoveCount      int      `json:"move_count"`
	CurrentWinrate *float64 `json:"current_winrate,omitempty"`
	CurrentScore   *float64 `json:"current_score,omitempty"`
	LastUpdated    string   `json:"last_updated,omitempty"`
}

// Live reports whether the match is still being played
func (s Summary) Live() bool { return s.Status == StatusLive }

// Detail is a Summary plus the ordered move list. MoveCount is authoritative for
// timeline bounds; Moves may lag behind it.
type Detail struct {
	Summary
	Moves []string `json:"moves"`
	SGF   string   `json:"sgf,omitempty"`
}

// MoveAt returns the coordinate of the move played from position i, if known.
func (d Detail) MoveAt(i int) (string, bool) {
	if i < 0 || i >= len(d.Moves) {
		return "", false
	}
	return d.Moves[i], true
}

// TopMove is one candidate continuation proposed by the analysis engine
type TopMove struct {
	Move      string   `json:"move"`
	Visits    int      `json:"visits"`
	Winrate   *float64 `json:"winrate,omitempty"`
	ScoreLead *float64 `json:"score_lead,omitempty"`
	Prior     float64  `json:"prior"`
	PV        []string `json:"pv,omitempty"`
	PSV       float64  `json:"psv"`
}

// WinrateValue returns the candidate winrate, 0.5 when missing.
func (t TopMove) WinrateValue() float64 {
	if t.Winrate == nil {
		return defaultWinrate
	}
	return *t.Winrate
}

// ScoreLeadValue returns the candidate score lead, 0 when missing.
func (t TopMove) ScoreLeadValue() float64 {
	if t.ScoreLead == nil {
		return defaultScoreLead
	}
	return *t.ScoreLead
}

// MoveAnalysis is the engine's verdict on the position after MoveNumber plies.
// Winrate and ScoreLead are from CanonicalSide's point of view.
type MoveAnalysis struct {
	MoveNumber     int         `json:"move_number"`
	Move           *string     `json:"move,omitempty"`
	Color          Side        `json:"color,omitempty"`
	Winrate        *float64    `json:"winrate,omitempty"`
	ScoreLead      *float64    `json:"score_lead,omitempty"`
	TopMoves       []TopMove   `json:"top_moves,omitempty"`
	Ownership      [][]float64 `json:"ownership,omitempty"`
	IsBrilliant    bool        `json:"is_brilliant"`
	IsMistake      bool        `json:"is_mistake"`
	IsQuestionable bool        `json:"is_questionable"`
	DeltaScore     *float64    `json:"delta_score,omitempty"`
	DeltaWinrate   *float64    `json:"delta_winrate,omitempty"`
}

// WinrateValue returns the canonical-side winrate, 0.5 when missing.
func (a MoveAnalysis) WinrateValue() float64 {
	if a.Winrate == nil {
		return defaultWinrate
	}
	return *a.Winrate
}

// ScoreLeadValue returns the canonical-side score lead, 0 when missing.
func (a MoveAnalysis) ScoreLeadValue() float64 {
	if a.ScoreLead == nil {
		return defaultScoreLead
	}
	return *a.ScoreLead
}

// IsProblem reports whether the producer flagged the move as a mistake or questionable.
func (a MoveAnalysis) IsProblem() bool { return a.IsMistake || a.IsQuestionable }

// ListFilter narrows a match list request
type ListFilter struct {
	Status Status
	Source string
	Limit  int
}

// List is a page of match summaries with live/total counters
type List struct {
	Matches   []Summary `json:"matches"`
	LiveCount int       `json:"live_count"`
	Total     int       `json:"total"`
}
