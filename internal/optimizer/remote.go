package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

type RemoteConfig struct {
	BaseURL string
	Path    string
	Timeout time.Duration

	BreakerFailures int
	BreakerOpenFor  time.Duration
	BreakerInterval time.Duration
}

// RemoteOptimizer posts the request to the optimizer service through a
// circuit breaker. It never retries.
type RemoteOptimizer struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

var _ Optimizer = (*RemoteOptimizer)(nil)

func NewRemoteOptimizer(cfg RemoteConfig, log zerolog.Logger) *RemoteOptimizer {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	path := cfg.Path
	if strings.TrimSpace(path) == "" {
		path = "/api/optimize"
	}
	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	fails := cfg.BreakerFailures
	if fails < 1 {
		fails = 1
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = 10 * time.Second
	}

	l := log.With().Str("component", "remote-optimizer").Logger()
	return &RemoteOptimizer{
		url:    base + path,
		client: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "optimizer-service",
			Interval: cfg.BreakerInterval,
			Timeout:  cfg.BreakerOpenFor,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= uint32(fails)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				l.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("breaker state change")
			},
		}),
		log: l,
	}
}

// BreakerState is reported by the gateway readiness probe.
func (r *RemoteOptimizer) BreakerState() gobreaker.State {
	return r.breaker.State()
}

func (r *RemoteOptimizer) Optimize(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	body, err := json.Marshal(EncodeRequest(req))
	if err != nil {
		return Result{}, fmt.Errorf("marshal optimize request: %w", err)
	}

	out, err := r.breaker.Execute(func() (interface{}, error) {
		return r.post(ctx, req, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Result{}, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
		}
		return Result{}, err
	}
	res := out.(Result)
	res.Provenance = ProvenanceOptimized
	return res, nil
}

func (r *RemoteOptimizer) post(ctx context.Context, req Request, body []byte) (Result, error) {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: build request: %w", ErrServiceUnavailable, err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.client.Do(hreq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read body: %w", ErrServiceUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, resp.StatusCode, truncate(data, 256))
	}

	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if err := checkResult(req, res); err != nil {
		return Result{}, err
	}
	r.log.Debug().Int("farms", len(req.Farms)).Dur("took", time.Since(start)).Msg("optimize ok")
	return res, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return strings.TrimSpace(string(b))
}
