// Package perspective converts canonical-side engine numbers into the point of view
// of the side to move and ranks candidate moves for display.
package perspective

import (
	"strings"

	"baduklive/internal/match"
)

// DefaultLimit is the number of candidates shown when the caller does not choose.
const DefaultLimit = 3

// NextSide returns the side to move at move index i. Index 0 is the empty board,
// so even indices belong to the first-moving side.
func NextSide(i int) match.Side {
	if i%2 == 0 {
		return match.CanonicalSide
	}
	return match.CanonicalSide.Other()
}

// NormalizeWinrate returns the chance that next wins, given a canonical-side winrate.
func NormalizeWinrate(raw float64, next match.Side) float64 {
	if next == match.CanonicalSide {
		return raw
	}
	return 1 - raw
}

// NormalizeScoreLead returns the point lead of next, given a canonical-side lead.
func NormalizeScoreLead(raw float64, next match.Side) float64 {
	if next == match.CanonicalSide {
		return raw
	}
	return -raw
}

// Recommendation is a candidate move prepared for display
type Recommendation struct {
	Move         string   `json:"move"`
	Visits       int      `json:"visits"`
	Winrate      float64  `json:"winrate"`
	ScoreLead    float64  `json:"score_lead"`
	Prior        float64  `json:"prior"`
	PSV          float64  `json:"psv"`
	PV           []string `json:"pv,omitempty"`
	IsActualMove bool     `json:"is_actual_move"`
	Percent      float64  `json:"percent"`
}

func fromTopMove(t match.TopMove, actual string) Recommendation {
	return Recommendation{
		Move:         t.Move,
		Visits:       t.Visits,
		Winrate:      t.WinrateValue(),
		ScoreLead:    t.ScoreLeadValue(),
		Prior:        t.Prior,
		PSV:          t.PSV,
		PV:           t.PV,
		IsActualMove: actual != "" && sameMove(t.Move, actual),
	}
}

func sameMove(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// RankRecommendations keeps the first limit candidates in producer order and makes
// sure the move actually played (when known) is present and tagged. If the played
// move is not among the candidates at all, a zero-visit placeholder carrying the
// position's own winrate and score is appended. Winrate and score stay canonical.
func RankRecommendations(top []match.TopMove, actual string, limit int, posWinrate, posScore float64) []Recommendation {
	if limit <= 0 || limit > len(top) {
		limit = len(top)
	}
	out := make([]Recommendation, 0, limit+1)
	found := false
	for _, t := range top[:limit] {
		r := fromTopMove(t, actual)
		found = found || r.IsActualMove
		out = append(out, r)
	}
	if actual == "" || found {
		return out
	}
	for _, t := range top[limit:] {
		if sameMove(t.Move, actual) {
			return append(out, fromTopMove(t, actual))
		}
	}
	return append(out, Recommendation{
		Move:         actual,
		Winrate:      posWinrate,
		ScoreLead:    posScore,
		IsActualMove: true,
	})
}

// WeightByPSV sets Percent on each entry from its share of the summed PSV, falling
// back to visit share when no entry carries PSV, and to zero when neither does.
func WeightByPSV(entries []Recommendation) []Recommendation {
	var psvSum, visitSum float64
	for _, e := range entries {
		psvSum += e.PSV
		visitSum += float64(e.Visits)
	}
	for i := range entries {
		switch {
		case psvSum > 0:
			entries[i].Percent = entries[i].PSV / psvSum * 100
		case visitSum > 0:
			entries[i].Percent = float64(entries[i].Visits) / visitSum * 100
		default:
			entries[i].Percent = 0
		}
	}
	return entries
}
