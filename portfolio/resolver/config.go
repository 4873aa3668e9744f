package resolver

import (
	"time"
)

const (
	// DefaultTimeout is how long a candidate may stay silent before it is treated as failed.
	DefaultTimeout = 10 * time.Second
	// DefaultPlaceholder is shown when neither reference form loads.
	DefaultPlaceholder = "https://via.placeholder.com/800x600/cccccc/666666?text=Image+Loading..."
	// DefaultSizeHint is appended when rewriting an export reference to the thumbnail form.
	DefaultSizeHint = "w800"
)

// Config holds the resolver knobs. The timeout is fixed per resolver and never adapts.
type Config struct {
	Timeout     time.Duration
	Placeholder string
	SizeHint    string

	// Clock creates the timeout timers. Defaults to the wall clock.
	Clock Clock
	// Observer, when set, is called once with the terminal result of every handle
	// that reaches loaded or fallback. It runs on the handle's goroutine.
	Observer func(Result)
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Placeholder == "" {
		c.Placeholder = DefaultPlaceholder
	}
	if c.SizeHint == "" {
		c.SizeHint = DefaultSizeHint
	}
	if c.Clock == nil {
		c.Clock = wallClock{}
	}
	return c
}

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
