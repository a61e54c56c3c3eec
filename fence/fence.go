// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package fence provides shareable completion fences.
//
// A Fence is a handle to one or more hardware or software completion
// events. Handles are cheap to duplicate: Dup returns an independent
// handle to the same underlying events, mirroring how native fence
// descriptors are duplicated across subsystems. A fence signals exactly
// once and stays signaled.
package fence

import (
	"errors"
	"sync"
	"time"
)

// Package errors.
var (
	// ErrTimeout is returned by Wait when the timeout expires before the
	// fence signals.
	ErrTimeout = errors.New("fence: wait timed out")

	// ErrInvalid is returned when waiting on an invalid fence.
	ErrInvalid = errors.New("fence: invalid fence")
)

// event is one completion event shared by every duplicated handle.
type event struct {
	mu   sync.Mutex
	done chan struct{}
	at   time.Time
}

func newEvent() *event {
	return &event{done: make(chan struct{})}
}

// signal marks the event complete. Idempotent; only the first call
// records the signal time.
func (e *event) signal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	select {
	case <-e.done:
	default:
		e.at = time.Now()
		close(e.done)
	}
}

func (e *event) signaled() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

func (e *event) signalTime() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.at
}

// Fence is a handle to a set of completion events. The zero value and
// nil are both valid "no fence" handles: IsValid reports false and Wait
// returns immediately.
type Fence struct {
	events []*event
}

// NoFence is the canonical invalid fence. Waiting on it succeeds
// immediately; it never signals and has no signal time.
var NoFence = &Fence{}

// New creates a fence together with the function that signals it. The
// signal function is idempotent and safe to call from any goroutine;
// typically the platform driver calls it when the hardware operation the
// fence represents completes.
func New() (*Fence, func()) {
	e := newEvent()
	return &Fence{events: []*event{e}}, e.signal
}

// Merge combines fences into one that is signaled once every valid input
// is signaled. Invalid inputs are skipped; merging nothing valid yields
// an invalid fence.
func Merge(fences ...*Fence) *Fence {
	var events []*event
	for _, f := range fences {
		if f.IsValid() {
			events = append(events, f.events...)
		}
	}
	return &Fence{events: events}
}

// IsValid reports whether the handle refers to any completion event.
func (f *Fence) IsValid() bool {
	return f != nil && len(f.events) > 0
}

// Dup returns an independent handle to the same completion events,
// like duplicating a native fence descriptor. Dup of an invalid fence
// returns an invalid fence.
func (f *Fence) Dup() *Fence {
	if !f.IsValid() {
		return NoFence
	}
	events := make([]*event, len(f.events))
	copy(events, f.events)
	return &Fence{events: events}
}

// Signaled reports whether every underlying event has completed.
// An invalid fence reports false.
func (f *Fence) Signaled() bool {
	if !f.IsValid() {
		return false
	}
	for _, e := range f.events {
		if !e.signaled() {
			return false
		}
	}
	return true
}

// Wait blocks until the fence signals or the timeout expires. Waiting on
// an invalid fence returns nil immediately: no event means nothing to
// wait for. A negative timeout waits forever.
func (f *Fence) Wait(timeout time.Duration) error {
	if !f.IsValid() {
		return nil
	}
	if timeout < 0 {
		return f.WaitForever()
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for _, e := range f.events {
		select {
		case <-e.done:
		case <-deadline.C:
			return ErrTimeout
		}
	}
	return nil
}

// WaitForever blocks until the fence signals.
func (f *Fence) WaitForever() error {
	if !f.IsValid() {
		return nil
	}
	for _, e := range f.events {
		<-e.done
	}
	return nil
}

// SignalTime returns when the fence signaled. ok is false while any
// event is still pending or the fence is invalid. For merged fences the
// latest event time is returned.
func (f *Fence) SignalTime() (at time.Time, ok bool) {
	if !f.Signaled() {
		return time.Time{}, false
	}
	for _, e := range f.events {
		if t := e.signalTime(); t.After(at) {
			at = t
		}
	}
	return at, true
}

// Time snapshots a fence's signal time for cheap repeated queries. The
// first query after the fence signals caches the timestamp and drops the
// fence reference; later queries never touch the fence again.
//
// Time is safe for concurrent use.
type Time struct {
	mu    sync.Mutex
	fence *Fence
	at    time.Time
	known bool
}

// NewTime creates a snapshot for f. f may be invalid, in which case the
// time is never known.
func NewTime(f *Fence) *Time {
	return &Time{fence: f}
}

// Time returns the cached signal time. ok is false until the underlying
// fence has signaled.
func (t *Time) Time() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.known {
		return t.at, true
	}
	if at, ok := t.fence.SignalTime(); ok {
		t.at = at
		t.known = true
		t.fence = nil
		return at, true
	}
	return time.Time{}, false
}
