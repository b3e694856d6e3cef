package storage

import (
	"fmt"
	"time"

	"baduklive/internal/match"

	"github.com/goccy/go-json"
)

// Match is the archived copy of a match detail.
type Match struct {
	ID          string `gorm:"primaryKey"`
	Tournament  string
	BlackPlayer string
	WhitePlayer string
	Source      string `gorm:"index"`
	Status      string `gorm:"index"`
	Result      string
	MoveCount   int
	Payload     string `gorm:"type:jsonb"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MoveAnalysis stores the engine analysis of a single position.
type MoveAnalysis struct {
	MatchID        string `gorm:"primaryKey"`
	MoveNumber     int    `gorm:"primaryKey;autoIncrement:false"`
	Winrate        *float64
	ScoreLead      *float64
	IsBrilliant    bool
	IsMistake      bool
	IsQuestionable bool
	Payload        string `gorm:"type:jsonb"`
	UpdatedAt      time.Time
}

func matchRow(d match.Detail) (Match, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return Match{}, fmt.Errorf("encode match %s: %w", d.ID, err)
	}
	return Match{
		ID:          d.ID,
		Tournament:  d.Tournament,
		BlackPlayer: d.BlackPlayer,
		WhitePlayer: d.WhitePlayer,
		Source:      d.Source,
		Status:      string(d.Status),
		Result:      d.Result,
		MoveCount:   d.MoveCount,
		Payload:     string(payload),
	}, nil
}

func (m Match) detail() (match.Detail, error) {
	var d match.Detail
	if err := json.Unmarshal([]byte(m.Payload), &d); err != nil {
		return match.Detail{}, fmt.Errorf("decode match %s: %w", m.ID, err)
	}
	return d, nil
}

func analysisRow(matchID string, idx int, rec match.MoveAnalysis) (MoveAnalysis, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return MoveAnalysis{}, fmt.Errorf("encode analysis %s/%d: %w", matchID, idx, err)
	}
	return MoveAnalysis{
		MatchID:        matchID,
		MoveNumber:     idx,
		Winrate:        rec.Winrate,
		ScoreLead:      rec.ScoreLead,
		IsBrilliant:    rec.IsBrilliant,
		IsMistake:      rec.IsMistake,
		IsQuestionable: rec.IsQuestionable,
		Payload:        string(payload),
	}, nil
}

func (a MoveAnalysis) record() (match.MoveAnalysis, error) {
	var rec match.MoveAnalysis
	if err := json.Unmarshal([]byte(a.Payload), &rec); err != nil {
		return match.MoveAnalysis{}, fmt.Errorf("decode analysis %s/%d: %w", a.MatchID, a.MoveNumber, err)
	}
	return rec, nil
}
