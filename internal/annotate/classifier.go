// Package annotate derives chart series and flagged-move lists from stored analysis.
// It never thresholds on its own; the flags come from the analysis producer.
package annotate

import (
	"baduklive/internal/analysis"
	"baduklive/internal/match"
)

// Reader is the read side of the analysis store
type Reader interface {
	Get(i int) (match.MoveAnalysis, bool)
	Entries() []analysis.Entry
}

// TrendPoint is one sample of the winrate/score chart, canonical side perspective
type TrendPoint struct {
	Move      int     `json:"move"`
	Winrate   float64 `json:"winrate"`
	ScoreLead float64 `json:"score_lead"`
	Analyzed  bool    `json:"analyzed"`
}

// TrendSeries returns a dense series for moves 0..moveCount; gaps read as even.
func TrendSeries(r Reader, moveCount int) []TrendPoint {
	if moveCount < 0 {
		moveCount = 0
	}
	out := make([]TrendPoint, moveCount+1)
	for i := range out {
		out[i] = TrendPoint{Move: i, Winrate: 0.5}
		if rec, ok := r.Get(i); ok {
			out[i].Winrate = rec.WinrateValue()
			out[i].ScoreLead = rec.ScoreLeadValue()
			out[i].Analyzed = true
		}
	}
	return out
}

// BrilliantMoves lists records flagged brilliant, ascending by move
func BrilliantMoves(r Reader) []analysis.Entry {
	return filter(r, func(a match.MoveAnalysis) bool { return a.IsBrilliant })
}

// ProblemMoves lists records flagged as mistakes or questionable, ascending by move
func ProblemMoves(r Reader) []analysis.Entry {
	return filter(r, match.MoveAnalysis.IsProblem)
}

func filter(r Reader, keep func(match.MoveAnalysis) bool) []analysis.Entry {
	out := []analysis.Entry{}
	for _, e := range r.Entries() {
		if keep(e.Record) {
			out = append(out, e)
		}
	}
	return out
}
