// Package resolver turns image references into displayable sources.
//
// A reference is loaded as given; when it fails or stays silent past the timeout it is
// rewritten once into the other Drive URL form, and when that fails too the element is
// pointed at a placeholder. Every handle settles within two timeouts.
package resolver

import (
	"context"

	"github.com/google/uuid"
	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
)

// Resolver hands out handles. It holds no per-image state.
type Resolver struct {
	cfg    Config
	prober Prober
}

// New creates a Resolver that loads candidates with prober.
func New(prober Prober, cfg Config) *Resolver {
	return &Resolver{
		cfg:    cfg.withDefaults(),
		prober: prober,
	}
}

// Config returns the effective configuration.
func (r *Resolver) Config() Config {
	return r.cfg
}

// Resolve binds a new element to ref and returns immediately. The element starts in the
// loading state and its source changes as attempts complete. ctx is the owning view:
// cancelling it abandons pending timers and probes.
func (r *Resolver) Resolve(ctx context.Context, ref domain.ImageReference, alt string) *Handle {
	h := newHandle(ctx, uuid.NewString(), ref, alt, r.cfg, r.prober)
	h.assign(ref)
	go h.run()
	return h
}
