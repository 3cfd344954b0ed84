// Copyright (C) 2026 Wikipath contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package limiter provides the bounded admission gate for outbound
// fetches. One Limiter is shared by both search directions, so in-flight
// remote requests never exceed capacity no matter how many nodes the
// engine wants to expand in parallel.
package limiter

import "context"

// Limiter is a counting semaphore. Safe for concurrent use.
type Limiter struct {
	ch chan struct{}
}

// New creates a Limiter admitting up to capacity concurrent holders.
// A non-positive capacity is clamped to 1.
func New(capacity int) *Limiter {
	if capacity <= 0 {
		capacity = 1
	}
	return &Limiter{ch: make(chan struct{}, capacity)}
}

// Acquire blocks until a slot is free or ctx is done. The error is the
// context's error on cancellation; the engine treats it as the signal to
// stop issuing new fetches.
func (l *Limiter) Acquire(ctx context.Context) error {
	// An already-expired context must never win a slot.
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot without blocking.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a slot. Must be called exactly once per successful
// Acquire/TryAcquire, on every exit path.
func (l *Limiter) Release() {
	select {
	case <-l.ch:
	default:
		panic("limiter: release without acquire")
	}
}

// InFlight returns the number of slots currently held.
func (l *Limiter) InFlight() int {
	return len(l.ch)
}

// Capacity returns the configured maximum.
func (l *Limiter) Capacity() int {
	return cap(l.ch)
}
