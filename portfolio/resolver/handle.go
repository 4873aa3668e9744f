package resolver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/marcolomele/makeup-portfolio/portfolio/domain"
	"github.com/rs/zerolog/log"
)

// Status is what the view needs to know about a handle.
type Status string

const (
	StatusPending  Status = "pending"
	StatusLoaded   Status = "loaded"
	StatusFallback Status = "fallback"
)

// Outcome is the most recent result of the attempt chain.
type Outcome string

const (
	OutcomePending           Outcome = "pending"
	OutcomeLoaded            Outcome = "loaded"
	OutcomeFailedTimeout     Outcome = "failed-timeout"
	OutcomeFailedError       Outcome = "failed-error"
	OutcomeExhaustedFallback Outcome = "exhausted-fallback"
)

type phase int

const (
	phaseOriginal phase = iota
	phaseRewritten
	phaseTerminal
)

// VisualState is how the image element should be drawn.
type VisualState struct {
	Opacity    float64
	BlurPx     float64
	Background string
}

var (
	loadingVisual  = VisualState{Opacity: 0.6, BlurPx: 1}
	loadedVisual   = VisualState{Opacity: 1}
	degradedVisual = VisualState{Opacity: 0.7, Background: "#f8f9fa"}
)

// Style renders the state as an inline CSS declaration list.
func (v VisualState) Style() string {
	var b strings.Builder
	b.WriteString("opacity: ")
	b.WriteString(strconv.FormatFloat(v.Opacity, 'f', -1, 64))
	b.WriteString("; transition: opacity 0.4s ease; filter: ")
	if v.BlurPx > 0 {
		b.WriteString("blur(" + strconv.FormatFloat(v.BlurPx, 'f', -1, 64) + "px)")
	} else {
		b.WriteString("none")
	}
	if v.Background != "" {
		b.WriteString("; background: " + v.Background)
	}
	return b.String()
}

// Result is a point-in-time copy of a handle.
type Result struct {
	ElementID  string
	Alt        string
	Original   domain.ImageReference
	Source     domain.ImageReference
	Status     Status
	Outcome    Outcome
	Rewrites   int
	Generation uint64
	Visual     VisualState
	LastErr    error
	Detached   bool
}

type eventKind int

const (
	eventLoaded eventKind = iota
	eventFailed
	eventTimeout
)

type event struct {
	gen  uint64
	kind eventKind
	err  error
}

// Two events per source assignment and at most two assignments.
const eventBuffer = 4

// candidate is one source assignment and the signals registered for it.
type candidate struct {
	gen    uint64
	ref    domain.ImageReference
	loaded atomic.Bool
	timer  Timer
	cancel context.CancelFunc
}

func (c *candidate) release() {
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.cancel != nil {
		c.cancel()
	}
}

// Handle is bound to one image element and tracks its source as attempts complete.
type Handle struct {
	elementID string
	alt       string
	original  domain.ImageReference

	cfg    Config
	prober Prober
	ctx    context.Context

	events chan event
	done   chan struct{}

	// owned by the event loop
	current *candidate
	phase   phase

	mu       sync.RWMutex
	source   domain.ImageReference
	status   Status
	outcome  Outcome
	gen      uint64
	rewrites int
	visual   VisualState
	lastErr  error
	detached bool
}

func newHandle(ctx context.Context, elementID string, ref domain.ImageReference, alt string, cfg Config, prober Prober) *Handle {
	return &Handle{
		elementID: elementID,
		alt:       alt,
		original:  ref,
		cfg:       cfg,
		prober:    prober,
		ctx:       ctx,
		events:    make(chan event, eventBuffer),
		done:      make(chan struct{}),
		status:    StatusPending,
		outcome:   OutcomePending,
	}
}

func (h *Handle) ElementID() string               { return h.elementID }
func (h *Handle) Alt() string                     { return h.alt }
func (h *Handle) Original() domain.ImageReference { return h.original }

// Done is closed once the handle is terminal or its owning context is gone.
func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) Source() domain.ImageReference {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.source
}

func (h *Handle) Status() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

func (h *Handle) Outcome() Outcome {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.outcome
}

func (h *Handle) Rewrites() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rewrites
}

// Generation counts source assignments. It starts at 1.
func (h *Handle) Generation() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.gen
}

func (h *Handle) Visual() VisualState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.visual
}

// Detached reports whether the owning context went away before the handle settled.
func (h *Handle) Detached() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.detached
}

func (h *Handle) Result() Result {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Result{
		ElementID:  h.elementID,
		Alt:        h.alt,
		Original:   h.original,
		Source:     h.source,
		Status:     h.status,
		Outcome:    h.outcome,
		Rewrites:   h.rewrites,
		Generation: h.gen,
		Visual:     h.visual,
		LastErr:    h.lastErr,
		Detached:   h.detached,
	}
}

// Wait blocks until the handle settles or ctx is done, and returns the latest result either way.
func (h *Handle) Wait(ctx context.Context) (Result, error) {
	select {
	case <-h.done:
		return h.Result(), nil
	case <-ctx.Done():
		return h.Result(), ctx.Err()
	}
}

// assign points the element at ref and registers the load and timeout signals for it.
func (h *Handle) assign(ref domain.ImageReference) {
	h.mu.Lock()
	h.gen++
	gen := h.gen
	h.source = ref
	h.visual = loadingVisual
	h.mu.Unlock()

	probeCtx, cancel := context.WithCancel(h.ctx)
	c := &candidate{gen: gen, ref: ref, cancel: cancel}
	c.timer = h.cfg.Clock.AfterFunc(h.cfg.Timeout, func() {
		h.post(event{gen: gen, kind: eventTimeout})
	})
	h.current = c

	go h.probe(probeCtx, c)
}

func (h *Handle) probe(ctx context.Context, c *candidate) {
	err := h.prober.Probe(ctx, c.ref)
	if err == nil {
		c.loaded.Store(true)
		h.post(event{gen: c.gen, kind: eventLoaded})
		return
	}
	h.post(event{gen: c.gen, kind: eventFailed, err: err})
}

func (h *Handle) post(ev event) {
	select {
	case h.events <- ev:
	case <-h.done:
	}
}

func (h *Handle) run() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.detach()
			return
		case ev := <-h.events:
			if h.step(ev) {
				return
			}
		}
	}
}

// step applies one event and reports whether the handle is now terminal.
// Events for an earlier source assignment are ignored.
func (h *Handle) step(ev event) bool {
	if h.phase == phaseTerminal {
		return true
	}
	// Cancelling the owner also fails the in-flight probe; that is teardown, not a load error.
	if h.ctx.Err() != nil {
		h.detach()
		return true
	}
	if h.current == nil || ev.gen != h.current.gen {
		return false
	}

	switch ev.kind {
	case eventLoaded:
		h.succeed()
		return true
	case eventTimeout:
		// The element may have finished loading while the timeout was queued.
		if h.current.loaded.Load() {
			h.succeed()
			return true
		}
		return h.fail(OutcomeFailedTimeout, ErrTimeoutExceeded)
	case eventFailed:
		err := ev.err
		if !errors.Is(err, ErrNetworkOrDecode) {
			err = fmt.Errorf("%w: %w", ErrNetworkOrDecode, err)
		}
		return h.fail(OutcomeFailedError, err)
	}
	return false
}

func (h *Handle) succeed() {
	h.current.release()
	h.phase = phaseTerminal

	h.mu.Lock()
	h.status = StatusLoaded
	h.outcome = OutcomeLoaded
	h.visual = loadedVisual
	h.lastErr = nil
	h.mu.Unlock()

	log.Debug().Str("element", h.elementID).Str("source", string(h.current.ref)).Msg("Image loaded")
	h.notify()
}

// fail retires the current candidate and either rewrites it once or falls back.
func (h *Handle) fail(outcome Outcome, err error) bool {
	failed := h.current
	failed.release()

	h.mu.Lock()
	h.outcome = outcome
	h.lastErr = err
	h.mu.Unlock()

	log.Warn().Err(err).Str("element", h.elementID).Str("source", string(failed.ref)).Msg("Failed to load image")

	if h.phase == phaseOriginal {
		if next, ok := domain.Rewrite(failed.ref, h.cfg.SizeHint); ok {
			h.phase = phaseRewritten
			h.mu.Lock()
			h.rewrites++
			h.mu.Unlock()

			log.Debug().Str("element", h.elementID).Str("form", domain.Classify(next).String()).Str("source", string(next)).Msg("Trying alternate reference form")
			h.assign(next)
			return false
		}

		h.mu.Lock()
		h.lastErr = fmt.Errorf("%w: %w", ErrUnrecognizedForm, err)
		h.mu.Unlock()
	}

	h.fallback()
	return true
}

func (h *Handle) fallback() {
	h.phase = phaseTerminal

	h.mu.Lock()
	h.source = domain.ImageReference(h.cfg.Placeholder)
	h.status = StatusFallback
	h.outcome = OutcomeExhaustedFallback
	h.visual = degradedVisual
	h.mu.Unlock()

	log.Warn().Str("element", h.elementID).Str("original", string(h.original)).Msg("Using placeholder image")
	h.notify()
}

func (h *Handle) detach() {
	if h.current != nil {
		h.current.release()
	}
	h.phase = phaseTerminal

	h.mu.Lock()
	h.detached = true
	h.mu.Unlock()
}

func (h *Handle) notify() {
	if h.cfg.Observer != nil {
		h.cfg.Observer(h.Result())
	}
}
