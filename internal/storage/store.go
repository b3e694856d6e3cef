package storage

import (
	"context"
	"errors"
	"sort"

	"baduklive/internal/match"
	"baduklive/internal/metrics"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps a gorm DB instance and provides helper methods for archiving matches.
// A nil Store is valid and archives nothing.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store helper from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// DB exposes the underlying gorm DB instance.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// ErrNotFound is returned when a record is not found.
var ErrNotFound = gorm.ErrRecordNotFound

const analysisBatch = 200

// SaveMatch upserts the archived copy of d.
func (s *Store) SaveMatch(ctx context.Context, d match.Detail) error {
	if s == nil {
		return nil
	}
	row, err := matchRow(d)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"tournament", "black_player", "white_player", "source", "status", "result", "move_count", "payload", "updated_at"}),
		}).
		Create(&row).Error
	metrics.ArchiveWrites.WithLabelValues("matches", metrics.Outcome(err)).Inc()
	return err
}

// LoadMatch fetches an archived match.
func (s *Store) LoadMatch(ctx context.Context, id string) (match.Detail, error) {
	if s == nil {
		return match.Detail{}, ErrNotFound
	}
	var row Match
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return match.Detail{}, err
	}
	return row.detail()
}

// SaveAnalysis upserts every record of a match.
func (s *Store) SaveAnalysis(ctx context.Context, matchID string, records map[int]match.MoveAnalysis) error {
	if s == nil || len(records) == 0 {
		return nil
	}
	idx := make([]int, 0, len(records))
	for i := range records {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	rows := make([]MoveAnalysis, 0, len(records))
	for _, i := range idx {
		row, err := analysisRow(matchID, i, records[i])
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "match_id"}, {Name: "move_number"}},
			DoUpdates: clause.AssignmentColumns([]string{"winrate", "score_lead", "is_brilliant", "is_mistake", "is_questionable", "payload", "updated_at"}),
		}).
		CreateInBatches(&rows, analysisBatch).Error
	metrics.ArchiveWrites.WithLabelValues("move_analyses", metrics.Outcome(err)).Inc()
	return err
}

// LoadAnalysis returns every archived record of a match, keyed by move number.
func (s *Store) LoadAnalysis(ctx context.Context, matchID string) (map[int]match.MoveAnalysis, error) {
	if s == nil {
		return nil, ErrNotFound
	}
	var rows []MoveAnalysis
	if err := s.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("move_number").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int]match.MoveAnalysis, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		out[row.MoveNumber] = rec
	}
	return out, nil
}

// Stats represents aggregate counts for the archive.
type Stats struct {
	Archived int64 `json:"archived"`
	Live     int64 `json:"live"`
	Finished int64 `json:"finished"`
	Analyses int64 `json:"analyses"`
}

// FetchStats aggregates counts for display on the home page.
func (s *Store) FetchStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if s == nil {
		return stats, nil
	}
	db := s.db.WithContext(ctx)
	if err := db.Model(&Match{}).Count(&stats.Archived).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&Match{}).Where("status = ?", string(match.StatusLive)).Count(&stats.Live).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&Match{}).Where("status = ?", string(match.StatusFinished)).Count(&stats.Finished).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&MoveAnalysis{}).Count(&stats.Analyses).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

// IsNotFound reports whether err means the archive has no such row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
