// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texstream

import "errors"

// Package errors for the texture-stream consumer.
var (
	// ErrAbandoned is returned by every operation after the consumer has
	// been abandoned. Terminal: no call touches the queue afterwards.
	ErrAbandoned = errors.New("texstream: consumer is abandoned")

	// ErrInvalidContext is returned when the caller's active GPU
	// display/device pair does not match the one adopted on the first
	// update. This is a caller bug, not a retryable condition.
	ErrInvalidContext = errors.New("texstream: invalid display or device for this consumer")

	// ErrNoBufferAvailable is returned by Queue.AcquireBuffer when no
	// buffer is pending. UpdateTexImage treats it as success and rebinds
	// the previous texture.
	ErrNoBufferAvailable = errors.New("texstream: no buffer available")

	// ErrImageCreation is returned when the platform image for a slot
	// could not be created. Retryable: the cache is left empty and the
	// next update tries again.
	ErrImageCreation = errors.New("texstream: image creation failed")

	// ErrFence is returned when a sync object could not be created,
	// exported, or waited on. Ignoring it may leave a GPU read/write
	// hazard unresolved.
	ErrFence = errors.New("texstream: fence operation failed")

	// ErrBindFailed is returned when the current image could not be bound
	// to the texture target. Fatal for the call; a stale texture stays
	// bound rather than none.
	ErrBindFailed = errors.New("texstream: texture bind failed")

	// ErrNoCurrentImage is returned when binding is requested before any
	// buffer has ever been bound.
	ErrNoCurrentImage = errors.New("texstream: no currently bound image")

	// ErrBadSlot is returned when the queue hands out a slot index outside
	// the bounded slot array.
	ErrBadSlot = errors.New("texstream: slot index out of range")
)
