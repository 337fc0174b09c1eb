package optimizer

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Observer receives one call per resolved request.
type Observer interface {
	ObserveOptimize(provenance string, d time.Duration)
}

// Resolver picks the remote optimizer when the connectivity check passes
// and falls back immediately otherwise. Results are always tagged with
// their provenance.
type Resolver struct {
	remote       Optimizer
	fallback     Optimizer
	prober       Prober
	probeTimeout time.Duration
	observer     Observer
	log          zerolog.Logger
}

type ResolverOption func(*Resolver)

// WithProber enables the connectivity check ahead of each remote call.
func WithProber(p Prober, timeout time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.prober = p
		if timeout > 0 {
			r.probeTimeout = timeout
		}
	}
}

func WithObserver(o Observer) ResolverOption {
	return func(r *Resolver) { r.observer = o }
}

// WithFallback replaces the deterministic fallback (tests).
func WithFallback(o Optimizer) ResolverOption {
	return func(r *Resolver) { r.fallback = o }
}

// NewResolver accepts a nil remote: every request then takes the fallback path.
func NewResolver(remote Optimizer, log zerolog.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		remote:       remote,
		fallback:     DeterministicFallbackOptimizer{},
		probeTimeout: time.Second,
		log:          log.With().Str("component", "resolver").Logger(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

var _ Optimizer = (*Resolver)(nil)

func (r *Resolver) Optimize(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	if err := req.Validate(); err != nil {
		r.observe("rejected", start)
		return Result{}, err
	}
	if warnings, err := req.Config.Validate(); err != nil {
		r.observe("rejected", start)
		return Result{}, err
	} else if len(warnings) > 0 {
		r.log.Info().Strs("warnings", warnings).Msg("optimizer config")
	}

	if r.remote == nil {
		return r.degrade(ctx, req, start, "remote optimizer not configured")
	}
	if r.prober != nil {
		pctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
		err := r.prober.Probe(pctx)
		cancel()
		if err != nil {
			return r.degrade(ctx, req, start, err.Error())
		}
	}

	res, err := r.remote.Optimize(ctx, req)
	if err != nil {
		if Recoverable(err) {
			return r.degrade(ctx, req, start, err.Error())
		}
		r.observe("rejected", start)
		return Result{}, err
	}
	res.Provenance = ProvenanceOptimized
	r.observe(string(ProvenanceOptimized), start)
	return res, nil
}

func (r *Resolver) degrade(ctx context.Context, req Request, start time.Time, reason string) (Result, error) {
	r.log.Warn().Str("reason", reason).Int("farms", len(req.Farms)).Msg("using fallback allocation")
	res, err := r.fallback.Optimize(ctx, req)
	if err != nil {
		r.observe("rejected", start)
		return Result{}, err
	}
	res.Provenance = ProvenanceFallback
	if res.Warning == "" {
		res.Warning = FallbackWarning
	}
	r.observe(string(ProvenanceFallback), start)
	return res, nil
}

func (r *Resolver) observe(provenance string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveOptimize(provenance, time.Since(start))
	}
}
