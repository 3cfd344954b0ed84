// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package watchdog implements the two wall-clock budgets that keep a
// search from running away.
//
// The soft deadline triggers graceful degradation: pipeline stages stop
// starting expensive new work (extra pagination, fresh verification
// batches) and fall back to cheaper answers. The hard deadline is the
// unconditional abort signal: the engine stops issuing fetches, finalizes
// whatever it has, and reports. Every blocking stage checks the soft
// deadline before new work and observes the hard deadline through the
// derived context.
package watchdog

import (
	"context"
	"time"
)

// Kind selects which of the two deadlines an operation asks about.
type Kind int

const (
	Soft Kind = iota
	Hard
)

// DefaultHardBudget and DefaultSoftBudget are the stock wall-clock
// ceilings. The soft budget must be strictly less than the hard one so
// degradation has a window to produce an answer before the abort.
const (
	DefaultHardBudget = 100 * time.Second
	DefaultSoftBudget = 98 * time.Second
)

// Watchdog holds the deadline pair for one search. Created at search
// start, read-only afterwards; safe for concurrent use.
type Watchdog struct {
	start time.Time
	soft  time.Duration
	hard  time.Duration
	now   func() time.Time
}

// Option customizes a Watchdog.
type Option func(*Watchdog)

// WithClock substitutes the time source. Tests use this to cross
// deadlines without sleeping.
func WithClock(now func() time.Time) Option {
	return func(w *Watchdog) { w.now = now }
}

// New starts a Watchdog with the given budgets. A soft budget that is
// zero, negative, or not strictly below hard is clamped to hard minus
// two seconds (or hard/2 for very small hard budgets).
func New(soft, hard time.Duration, opts ...Option) *Watchdog {
	if hard <= 0 {
		hard = DefaultHardBudget
	}
	if soft <= 0 || soft >= hard {
		if hard > 4*time.Second {
			soft = hard - 2*time.Second
		} else {
			soft = hard / 2
		}
	}
	w := &Watchdog{soft: soft, hard: hard, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	w.start = w.now()
	return w
}

// Remaining returns the time left on the given deadline, never negative.
func (w *Watchdog) Remaining(kind Kind) time.Duration {
	budget := w.hard
	if kind == Soft {
		budget = w.soft
	}
	left := budget - w.now().Sub(w.start)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the given deadline has passed.
func (w *Watchdog) Expired(kind Kind) bool {
	return w.Remaining(kind) == 0
}

// Elapsed returns wall-clock time since the search started.
func (w *Watchdog) Elapsed() time.Duration {
	return w.now().Sub(w.start)
}

// HardContext derives a context that is cancelled at the hard deadline.
// All remote fetches run under it, so in-flight requests are abandoned
// the moment the abort fires.
func (w *Watchdog) HardContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, w.Remaining(Hard))
}
