package perspective

import (
	"testing"

	"baduklive/internal/match"

	"github.com/stretchr/testify/require"
)

func fp(v float64) *float64 { return &v }

func top(move string, visits int, psv float64) match.TopMove {
	return match.TopMove{Move: move, Visits: visits, PSV: psv, Winrate: fp(0.5), ScoreLead: fp(0)}
}

func moves(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Move
	}
	return out
}

func TestNextSideParity(t *testing.T) {
	require.Equal(t, match.SideBlack, NextSide(0))
	require.Equal(t, match.SideWhite, NextSide(1))
	require.Equal(t, match.SideBlack, NextSide(42))
}

func TestNormalizeWinrate(t *testing.T) {
	require.InDelta(t, 0.7, NormalizeWinrate(0.7, match.CanonicalSide), 1e-9)
	require.InDelta(t, 0.3, NormalizeWinrate(0.7, match.CanonicalSide.Other()), 1e-9)
}

func TestNormalizeScoreLead(t *testing.T) {
	require.InDelta(t, 4.5, NormalizeScoreLead(4.5, match.SideBlack), 1e-9)
	require.InDelta(t, -4.5, NormalizeScoreLead(4.5, match.SideWhite), 1e-9)
}

func TestRankActualInTop(t *testing.T) {
	cands := []match.TopMove{top("A", 10, 0), top("B", 8, 0), top("C", 5, 0), top("D", 5, 0)}
	got := RankRecommendations(cands, "B", 3, 0.5, 0)
	require.Equal(t, []string{"A", "B", "C"}, moves(got))
	require.False(t, got[0].IsActualMove)
	require.True(t, got[1].IsActualMove)
	require.False(t, got[2].IsActualMove)
}

func TestRankActualOutsideTopIsAppended(t *testing.T) {
	cands := []match.TopMove{top("A", 10, 0), top("B", 8, 0), top("C", 6, 0), top("D", 5, 0)}
	got := RankRecommendations(cands, "D", 3, 0.5, 0)
	require.Equal(t, []string{"A", "B", "C", "D"}, moves(got))
	require.True(t, got[3].IsActualMove)
	require.Equal(t, 5, got[3].Visits)
}

func TestRankActualMissingGetsPlaceholder(t *testing.T) {
	cands := []match.TopMove{top("A", 10, 0), top("B", 8, 0), top("C", 6, 0), top("D", 5, 0)}
	got := RankRecommendations(cands, "E", 3, 0.62, 3.5)
	require.Equal(t, []string{"A", "B", "C", "E"}, moves(got))
	placeholder := got[3]
	require.True(t, placeholder.IsActualMove)
	require.Zero(t, placeholder.Visits)
	require.Zero(t, placeholder.PSV)
	require.InDelta(t, 0.62, placeholder.Winrate, 1e-9)
	require.InDelta(t, 3.5, placeholder.ScoreLead, 1e-9)
}

func TestRankMatchesCaseInsensitively(t *testing.T) {
	got := RankRecommendations([]match.TopMove{top("Q16", 3, 0)}, "q16", 3, 0.5, 0)
	require.Len(t, got, 1)
	require.True(t, got[0].IsActualMove)
}

func TestRankWithoutActualMove(t *testing.T) {
	got := RankRecommendations([]match.TopMove{top("A", 1, 0), top("B", 1, 0)}, "", 3, 0.5, 0)
	require.Equal(t, []string{"A", "B"}, moves(got))
}

func TestWeightByPSV(t *testing.T) {
	got := WeightByPSV([]Recommendation{{PSV: 3}, {PSV: 1}})
	require.InDelta(t, 75, got[0].Percent, 1e-9)
	require.InDelta(t, 25, got[1].Percent, 1e-9)
}

func TestWeightFallsBackToVisits(t *testing.T) {
	got := WeightByPSV([]Recommendation{{Visits: 9}, {Visits: 1}})
	require.InDelta(t, 90, got[0].Percent, 1e-9)
	require.InDelta(t, 10, got[1].Percent, 1e-9)
}

func TestWeightAllZero(t *testing.T) {
	got := WeightByPSV([]Recommendation{{}, {}})
	require.Zero(t, got[0].Percent)
	require.Zero(t, got[1].Percent)
}

func TestEvaluateNormalizesForWhite(t *testing.T) {
	rec := match.MoveAnalysis{
		MoveNumber: 1,
		Winrate:    fp(0.8),
		ScoreLead:  fp(6),
		TopMoves: []match.TopMove{
			{Move: "D4", Visits: 30, PSV: 3, Winrate: fp(0.75), ScoreLead: fp(5)},
			{Move: "Q4", Visits: 10, PSV: 1, Winrate: fp(0.85), ScoreLead: fp(7)},
		},
	}
	pos := Evaluate(rec, true, 1, "Q4", 3)
	require.Equal(t, match.SideWhite, pos.NextSide)
	require.True(t, pos.Analyzed)
	require.InDelta(t, 0.2, pos.Winrate, 1e-9)
	require.InDelta(t, -6, pos.ScoreLead, 1e-9)
	require.Len(t, pos.Recommendations, 2)
	require.InDelta(t, 0.25, pos.Recommendations[0].Winrate, 1e-9)
	require.InDelta(t, 75, pos.Recommendations[0].Percent, 1e-9)
	require.True(t, pos.Recommendations[1].IsActualMove)
}

func TestEvaluateMissingFieldsDefault(t *testing.T) {
	pos := Evaluate(match.MoveAnalysis{MoveNumber: 2}, true, 2, "", 3)
	require.InDelta(t, 0.5, pos.Winrate, 1e-9)
	require.Zero(t, pos.ScoreLead)
	require.Empty(t, pos.Recommendations)
}

func TestEvaluatePending(t *testing.T) {
	pos := Evaluate(match.MoveAnalysis{}, false, 7, "C3", 3)
	require.False(t, pos.Analyzed)
	require.InDelta(t, 0.5, pos.Winrate, 1e-9)
	require.NotNil(t, pos.Recommendations)
}
