// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texstream

import (
	"image"

	"github.com/gogpu/texstream/fence"
)

// MaxSlots is the capacity of the slot array: the largest number of
// buffers a queue may have outstanding at once.
const MaxSlots = 64

// InvalidSlot marks "no slot", used for the current-texture marker before
// the first successful update and after the bound slot is freed.
const InvalidSlot = -1

// Queue is the producer/consumer buffer queue the consumer drains. The
// host implements it (or wraps an existing queue with it); texstream owns
// no slot allocation or producer handshake.
//
// The consumer calls Queue methods while holding its own lock, so an
// implementation must not call back into the consumer from them.
type Queue interface {
	// AcquireBuffer returns the next pending buffer. presentWhen is the
	// presentation-time budget in nanoseconds (0 for "whatever is
	// ready"); maxFrameNumber, when non-zero, bounds how far ahead the
	// queue may hand out frames. Returns ErrNoBufferAvailable when
	// nothing is pending, which the consumer treats as success.
	AcquireBuffer(presentWhen int64, maxFrameNumber uint64) (*BufferItem, error)

	// ReleaseBuffer returns a buffer to the producer. releaseFence, when
	// valid, must signal before the producer may write the buffer again.
	ReleaseBuffer(slot int, buf *GraphicBuffer, releaseFence *fence.Fence) error

	// AddReleaseFence attaches an additional fence to a buffer the
	// consumer still holds, to be honored at its eventual release.
	AddReleaseFence(slot int, buf *GraphicBuffer, f *fence.Fence) error

	// SetDefaultBufferSize sets the dimensions of buffers allocated when
	// the producer does not override them.
	SetDefaultBufferSize(width, height uint32) error

	// SetConsumerUsageBits sets the usage flags merged into every
	// allocation request.
	SetConsumerUsageBits(usage uint64) error
}

// BufferItem is everything AcquireBuffer reports about one frame.
type BufferItem struct {
	// Slot is the queue slot holding the buffer.
	Slot int

	// Buffer is the graphic buffer, or nil if this slot's buffer was
	// already handed over on a previous acquire and is unchanged.
	Buffer *GraphicBuffer

	// Crop is the source rectangle the producer wants shown.
	Crop image.Rectangle

	// Transform is the stored orientation of the content.
	Transform Transform

	// ScalingMode is the producer's fitting policy.
	ScalingMode ScalingMode

	// Timestamp is the frame's presentation time in nanoseconds.
	Timestamp int64

	// Dataspace tags the color encoding of the content.
	Dataspace Dataspace

	// Fence signals when the producer's writes are visible. Sampling
	// before it signals reads garbage.
	Fence *fence.Fence

	// FenceTime is the snapshot handle for Fence's signal time. The
	// consumer builds one from Fence if the queue leaves it nil.
	FenceTime *fence.Time

	// FrameNumber is the producer's monotonically increasing frame
	// counter.
	FrameNumber uint64
}
