// Package source is the REST client for the match data service: match lists,
// match detail and per-move engine analysis.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"baduklive/internal/logging"
	"baduklive/internal/match"
	"baduklive/internal/metrics"
	"baduklive/pkg/utils"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 16 << 20

// Options configures a Client
type Options struct {
	BaseURL         string
	Timeout         time.Duration
	RateLimit       float64
	Burst           int
	MaxTries        uint
	RetryInitial    time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	HTTPClient      *http.Client
}

// Client talks to the match data service
type Client struct {
	base     *url.URL
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]byte]
	maxTries uint
	initial  time.Duration
}

// New builds a Client from opts
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("source: invalid base url %q", opts.BaseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	tries := opts.MaxTries
	if tries == 0 {
		tries = 3
	}
	initial := opts.RetryInitial
	if initial <= 0 {
		initial = 200 * time.Millisecond
	}
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	c := &Client{
		base:     base,
		http:     hc,
		limiter:  rate.NewLimiter(limit, burst),
		maxTries: tries,
		initial:  initial,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "source",
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.Set(float64(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("upstream breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			code := CodeOf(err)
			return code == CodeNotFound || code == CodeInvalid
		},
	})
	return c, nil
}

// ListMatches fetches match summaries
func (c *Client) ListMatches(ctx context.Context, f match.ListFilter) (match.List, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Source != "" {
		q.Set("source", f.Source)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	var out match.List
	if err := c.getJSON(ctx, "list", q, &out, "matches"); err != nil {
		return match.List{}, err
	}
	if out.Matches == nil {
		out.Matches = []match.Summary{}
	}
	return out, nil
}

// FetchMatch fetches one match, with its move list when includeDetail is set
func (c *Client) FetchMatch(ctx context.Context, id string, includeDetail bool) (match.Detail, error) {
	q := url.Values{}
	if includeDetail {
		q.Set("detail", "true")
	}
	var out match.Detail
	if err := c.getJSON(ctx, "detail", q, &out, "matches", id); err != nil {
		return match.Detail{}, err
	}
	return out, nil
}

type analysisEnvelope struct {
	Analysis map[string]match.MoveAnalysis `json:"analysis"`
}

// FetchAnalysis fetches every analysis record computed so far. preload asks the
// service to prioritise the still-pending positions of this match.
func (c *Client) FetchAnalysis(ctx context.Context, id string, preload bool) (map[int]match.MoveAnalysis, error) {
	q := url.Values{}
	if preload {
		q.Set("preload", "true")
	}
	var env analysisEnvelope
	if err := c.getJSON(ctx, "analysis", q, &env, "matches", id, "analysis"); err != nil {
		return nil, err
	}
	out := make(map[int]match.MoveAnalysis, len(env.Analysis))
	for k, rec := range env.Analysis {
		idx, err := strconv.Atoi(k)
		if err != nil {
			logging.Debugf("source: skipping analysis key %q for %s", k, id)
			continue
		}
		out[idx] = rec
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, kind string, q url.Values, dst any, segments ...string) error {
	start := time.Now()
	body, err := c.get(ctx, kind, q, segments)
	metrics.FetchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err == nil {
		if derr := json.Unmarshal(body, dst); derr != nil {
			err = newError(kind, CodeDecode, 0, "unexpected response body", derr)
		}
	}
	metrics.FetchTotal.WithLabelValues(kind, metrics.Outcome(err)).Inc()
	return err
}

func (c *Client) get(ctx context.Context, kind string, q url.Values, segments []string) ([]byte, error) {
	u := c.base.JoinPath(segments...)
	u.RawQuery = q.Encode()
	target := u.String()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initial
	b.MaxInterval = 5 * time.Second

	return backoff.Retry(ctx, func() ([]byte, error) {
		body, err := c.attempt(ctx, kind, target)
		if err == nil {
			return body, nil
		}
		var e *Error
		if errors.As(err, &e) && !e.Retryable() {
			return nil, backoff.Permanent(err)
		}
		logging.Debugf("source: %s %s failed, retrying: %v", kind, target, err)
		return nil, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.maxTries))
}

func (c *Client) attempt(ctx context.Context, kind, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("source: rate limiter: %w", err))
	}
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, kind, target)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, newError(kind, CodeUnavailable, 0, "circuit open", err)
	}
	return body, err
}

func (c *Client) do(ctx context.Context, kind, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, newError(kind, CodeInvalid, 0, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, newError(kind, CodeNetwork, 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, newError(kind, CodeNetwork, resp.StatusCode, "read body", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, newError(kind, CodeNotFound, resp.StatusCode, snippet(body), nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, newError(kind, CodeRateLimited, resp.StatusCode, snippet(body), nil)
	case resp.StatusCode >= 500:
		return nil, newError(kind, CodeUnavailable, resp.StatusCode, snippet(body), nil)
	default:
		return nil, newError(kind, CodeInvalid, resp.StatusCode, snippet(body), nil)
	}
}

func snippet(body []byte) string {
	return utils.Truncate(string(body), 200)
}
