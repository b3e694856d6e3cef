package storage

import (
	"context"
	"time"

	"baduklive/internal/logging"
	"baduklive/internal/match"
)

// Upstream is the live match data service
type Upstream interface {
	ListMatches(ctx context.Context, f match.ListFilter) (match.List, error)
	FetchMatch(ctx context.Context, id string, includeDetail bool) (match.Detail, error)
	FetchAnalysis(ctx context.Context, id string, preload bool) (map[int]match.MoveAnalysis, error)
}

const writeTimeout = 5 * time.Second

// ArchivedSource copies successful fetches into the archive and serves archived
// finished matches while the upstream is failing.
type ArchivedSource struct {
	up    Upstream
	store *Store
}

// NewArchivedSource decorates up. A nil store makes it a pass-through.
func NewArchivedSource(up Upstream, store *Store) *ArchivedSource {
	return &ArchivedSource{up: up, store: store}
}

// ListMatches is not archived
func (a *ArchivedSource) ListMatches(ctx context.Context, f match.ListFilter) (match.List, error) {
	return a.up.ListMatches(ctx, f)
}

// FetchMatch fetches from upstream, falling back to an archived finished copy.
func (a *ArchivedSource) FetchMatch(ctx context.Context, id string, includeDetail bool) (match.Detail, error) {
	d, err := a.up.FetchMatch(ctx, id, includeDetail)
	if err == nil {
		if includeDetail {
			a.write(ctx, "match", id, func(wctx context.Context) error { return a.store.SaveMatch(wctx, d) })
		}
		return d, nil
	}
	if archived, ok := a.finished(ctx, id); ok {
		logging.Info().Str("match", id).Err(err).Msg("serving archived match")
		return archived, nil
	}
	return match.Detail{}, err
}

// FetchAnalysis fetches from upstream, falling back to the archived analysis of a
// finished match.
func (a *ArchivedSource) FetchAnalysis(ctx context.Context, id string, preload bool) (map[int]match.MoveAnalysis, error) {
	recs, err := a.up.FetchAnalysis(ctx, id, preload)
	if err == nil {
		a.write(ctx, "analysis", id, func(wctx context.Context) error { return a.store.SaveAnalysis(wctx, id, recs) })
		return recs, nil
	}
	if _, ok := a.finished(ctx, id); ok {
		archived, lerr := a.store.LoadAnalysis(ctx, id)
		if lerr == nil && len(archived) > 0 {
			logging.Info().Str("match", id).Err(err).Msg("serving archived analysis")
			return archived, nil
		}
	}
	return nil, err
}

func (a *ArchivedSource) finished(ctx context.Context, id string) (match.Detail, bool) {
	if a.store == nil {
		return match.Detail{}, false
	}
	d, err := a.store.LoadMatch(ctx, id)
	if err != nil {
		if !IsNotFound(err) {
			logging.Warn().Err(err).Str("match", id).Msg("archive lookup failed")
		}
		return match.Detail{}, false
	}
	return d, d.Status == match.StatusFinished
}

// write persists without letting archive failures reach the caller
func (a *ArchivedSource) write(ctx context.Context, what, id string, fn func(context.Context) error) {
	if a.store == nil {
		return
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := fn(wctx); err != nil {
		logging.Warn().Err(err).Str("match", id).Str("what", what).Msg("archive write failed")
	}
}
