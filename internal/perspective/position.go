package perspective

import "baduklive/internal/match"

// Position is the evaluation of one timeline position from the mover's point of view
type Position struct {
	MoveIndex       int              `json:"move_index"`
	NextSide        match.Side       `json:"next_side"`
	Analyzed        bool             `json:"analyzed"`
	Winrate         float64          `json:"winrate"`
	ScoreLead       float64          `json:"score_lead"`
	ActualMove      string           `json:"actual_move,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Evaluate builds the Position for move index i. When ok is false the position is
// reported as pending with neutral numbers.
func Evaluate(rec match.MoveAnalysis, ok bool, i int, actual string, limit int) Position {
	next := NextSide(i)
	pos := Position{
		MoveIndex:       i,
		NextSide:        next,
		Analyzed:        ok,
		ActualMove:      actual,
		Recommendations: []Recommendation{},
	}
	if !ok {
		pos.Winrate = NormalizeWinrate(0.5, next)
		return pos
	}

	wr, lead := rec.WinrateValue(), rec.ScoreLeadValue()
	pos.Winrate = NormalizeWinrate(wr, next)
	pos.ScoreLead = NormalizeScoreLead(lead, next)

	recs := WeightByPSV(RankRecommendations(rec.TopMoves, actual, limit, wr, lead))
	for j := range recs {
		recs[j].Winrate = NormalizeWinrate(recs[j].Winrate, next)
		recs[j].ScoreLead = NormalizeScoreLead(recs[j].ScoreLead, next)
	}
	pos.Recommendations = recs
	return pos
}
