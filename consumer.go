// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texstream

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/texstream/fence"
	"golang.org/x/image/math/f32"
)

// Consumer drains a buffer queue into a GPU texture unit. It owns the
// per-slot image cache and the single currently-bound state, and it
// carries the two synchronization obligations of the queue contract: the
// GPU must not sample a buffer before the producer's ready fence signals,
// and the producer must not get a buffer back while the GPU may still be
// reading it.
//
// One mutex protects all mutable state; every public operation holds it
// for its full duration, so a Consumer is safe for concurrent callers
// but executes them strictly one at a time. There are no internal
// goroutines. The only blocking point is the legacy fence wait, a
// bounded hardware stall.
type Consumer struct {
	mu sync.Mutex

	name  string
	queue Queue
	caps  Capabilities

	provider Provider

	// Baseline adopted on the first update; later updates must present
	// the same display/device/queue identity.
	display Display
	device  gpucontext.Device
	gpuq    gpucontext.Queue

	texTarget uint32
	texName   uint32

	abandoned bool

	slots [MaxSlots]slot

	// Current binding. currentImage is shared with the slot cache and
	// may outlive its slot entry; see cachedImage.
	currentTexture     int
	currentImage       *cachedImage
	currentCrop        image.Rectangle
	currentTransform   Transform
	currentScalingMode ScalingMode
	currentTimestamp   int64
	currentDataspace   Dataspace
	currentFence       *fence.Fence
	currentFenceTime   *fence.Time
	currentFrameNumber uint64
	currentMatrix      f32.Mat4

	defaultWidth     uint32
	defaultHeight    uint32
	filteringEnabled bool
}

// slot pairs a queue slot's buffer with its cached platform image.
type slot struct {
	buffer *GraphicBuffer
	image  *cachedImage
}

// ReleaseOutcome is the tagged result of a deferred-release update:
// either the previous buffer was released immediately (the default), or
// its release is pending and the caller must apply it later with
// ReleasePendingBuffer. Deferred release supports cross-consumer buffer
// sharing, where handing the buffer back at commit time would be too
// early.
type ReleaseOutcome struct {
	pending bool
	slot    int
	buffer  *GraphicBuffer
}

// Pending reports whether a release is outstanding.
func (r ReleaseOutcome) Pending() bool { return r.pending }

// Slot returns the slot of the pending buffer. Only meaningful when
// Pending reports true.
func (r ReleaseOutcome) Slot() int { return r.slot }

// Buffer returns the pending buffer. Only meaningful when Pending
// reports true.
func (r ReleaseOutcome) Buffer() *GraphicBuffer { return r.buffer }

// New creates a consumer draining queue into the texture object texName
// on target texTarget. Platform capabilities are probed once from the
// provider's display.
func New(queue Queue, provider Provider, texTarget, texName uint32) *Consumer {
	return NewWithCaps(queue, provider, texTarget, texName, DetectCapabilities(provider.Display()))
}

// NewWithCaps is New with explicitly injected capability flags, for
// hosts that probe differently and for tests.
func NewWithCaps(queue Queue, provider Provider, texTarget, texName uint32, caps Capabilities) *Consumer {
	c := &Consumer{
		queue:            queue,
		provider:         provider,
		caps:             caps,
		texTarget:        texTarget,
		texName:          texName,
		currentTexture:   InvalidSlot,
		currentFence:     fence.NoFence,
		currentFenceTime: fence.NewTime(fence.NoFence),
		currentMatrix:    mtxIdentity,
		defaultWidth:     1,
		defaultHeight:    1,
		filteringEnabled: true,
	}
	if err := queue.SetConsumerUsageBits(DefaultUsageFlags); err != nil {
		Logger().Warn("texstream: failed to set baseline usage bits",
			"consumer", c.name, "error", err)
	}
	return c
}

// SetName attaches a name to all log records this consumer emits.
func (c *Consumer) SetName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// UpdateTexImage acquires the next buffer from the queue, binds it to
// the texture target, and waits for its content to become sampleable.
// The previously bound buffer is released back to the queue with a fence
// covering all GPU reads issued against it.
//
// An empty queue is success: the previous texture stays bound and no
// state changes. On any error some texture (possibly the stale previous
// one) remains bound, so downstream sampling is never undefined.
func (c *Consumer) UpdateTexImage() error {
	_, err := c.updateTexImage(false)
	return err
}

// UpdateTexImageDeferred is UpdateTexImage, except that the previous
// buffer is not released: the returned outcome carries it for the caller
// to hand to ReleasePendingBuffer once every sharer is done with it.
func (c *Consumer) UpdateTexImageDeferred() (ReleaseOutcome, error) {
	return c.updateTexImage(true)
}

func (c *Consumer) updateTexImage(deferRelease bool) (ReleaseOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.abandoned {
		Logger().Error("texstream: updateTexImage on abandoned consumer", "consumer", c.name)
		return ReleaseOutcome{}, ErrAbandoned
	}

	if err := c.checkAndUpdateContextLocked(); err != nil {
		return ReleaseOutcome{}, err
	}

	item, err := c.acquireBufferLocked(0, 0)
	if err != nil {
		if errors.Is(err, ErrNoBufferAvailable) {
			// We always bind the texture even if there is nothing new
			// to show on it.
			Logger().Debug("texstream: updateTexImage: no buffers available", "consumer", c.name)
			c.bindExistingLocked()
			return ReleaseOutcome{}, nil
		}
		Logger().Error("texstream: updateTexImage: acquire failed",
			"consumer", c.name, "error", err)
		return ReleaseOutcome{}, err
	}

	outcome, err := c.updateAndReleaseLocked(item, deferRelease)
	if err != nil {
		c.bindExistingLocked()
		return outcome, err
	}

	return outcome, c.bindTextureImageLocked()
}

// acquireBufferLocked pulls the next item off the queue. When the item
// carries a fresh buffer the slot has been reassigned since we last saw
// it, so any cached image there wraps a stale buffer and is replaced.
func (c *Consumer) acquireBufferLocked(presentWhen int64, maxFrameNumber uint64) (*BufferItem, error) {
	item, err := c.queue.AcquireBuffer(presentWhen, maxFrameNumber)
	if err != nil {
		return nil, err
	}
	if item.Slot < 0 || item.Slot >= MaxSlots {
		return nil, fmt.Errorf("%w: %d", ErrBadSlot, item.Slot)
	}
	if item.Buffer != nil {
		s := &c.slots[item.Slot]
		if s.image != nil {
			s.image.release()
		}
		s.buffer = item.Buffer
		s.image = newCachedImage(item.Buffer)
	}
	return item, nil
}

// updateAndReleaseLocked runs image-ensure, release-sync, and commit for
// an acquired item. Any failure before commit releases the newly
// acquired buffer (it was never bound, so that is always safe) and
// leaves the existing binding untouched. A release failure during commit
// does not stop the commit: the new state is current and the error is
// surfaced to the caller.
func (c *Consumer) updateAndReleaseLocked(item *BufferItem, deferRelease bool) (ReleaseOutcome, error) {
	var outcome ReleaseOutcome

	slotIdx := item.Slot

	if err := c.checkAndUpdateContextLocked(); err != nil {
		c.releaseBufferLocked(slotIdx, c.slots[slotIdx].buffer, nil)
		return outcome, err
	}

	// The slot may have been acquired before with the same buffer, in
	// which case item.Buffer was nil and the cached image is reused.
	next := c.slots[slotIdx].image
	if next == nil {
		c.releaseBufferLocked(slotIdx, c.slots[slotIdx].buffer, nil)
		return outcome, fmt.Errorf("%w: slot %d has no buffer", ErrBadSlot, slotIdx)
	}
	if err := next.ensure(c.display, item.Crop, c.caps); err != nil {
		Logger().Warn("texstream: updateAndRelease: unable to create image",
			"consumer", c.name, "slot", slotIdx)
		c.releaseBufferLocked(slotIdx, c.slots[slotIdx].buffer, nil)
		return outcome, err
	}

	// Sync with the GPU before the old slot's buffer can be recycled.
	// Only a slot change needs it; rebinding the same slot leaves the
	// same buffer in place.
	if slotIdx != c.currentTexture {
		if err := c.syncForReleaseLocked(); err != nil {
			// It is not safe to release the old buffer, so drop the new
			// frame instead: the acquire is still under our lock.
			c.releaseBufferLocked(slotIdx, c.slots[slotIdx].buffer, nil)
			return outcome, err
		}
	}

	Logger().Debug("texstream: updateAndRelease",
		"consumer", c.name, "fromSlot", c.currentTexture, "toSlot", slotIdx,
		"frame", item.FrameNumber)

	// Hold a reference before releasing the old binding: in shared-buffer
	// mode old and new may be the same entry.
	next.retain()

	var commitErr error
	if c.currentTexture != InvalidSlot {
		if deferRelease {
			outcome = ReleaseOutcome{
				pending: true,
				slot:    c.currentTexture,
				buffer:  c.currentImage.graphicBuffer(),
			}
		} else if err := c.queue.ReleaseBuffer(c.currentTexture, c.currentImage.graphicBuffer(), nil); err != nil {
			Logger().Warn("texstream: updateAndRelease: failed to release buffer",
				"consumer", c.name, "slot", c.currentTexture, "error", err)
			// Commit regardless; the caller sees the error.
			commitErr = fmt.Errorf("texstream: release failed: %w", err)
		}
	}
	if c.currentImage != nil {
		c.currentImage.release()
	}

	c.currentTexture = slotIdx
	c.currentImage = next
	c.currentCrop = item.Crop
	c.currentTransform = item.Transform
	c.currentScalingMode = item.ScalingMode
	c.currentTimestamp = item.Timestamp
	c.currentDataspace = item.Dataspace
	c.currentFence = item.Fence
	if c.currentFence == nil {
		c.currentFence = fence.NoFence
	}
	c.currentFenceTime = item.FenceTime
	if c.currentFenceTime == nil {
		c.currentFenceTime = fence.NewTime(c.currentFence)
	}
	c.currentFrameNumber = item.FrameNumber

	c.computeCurrentTransformMatrixLocked()

	return outcome, commitErr
}

// bindTextureImageLocked binds the current image to the texture target
// and waits until its content is ready to sample.
func (c *Consumer) bindTextureImageLocked() error {
	if c.display == nil {
		Logger().Error("texstream: bindTextureImage: no display", "consumer", c.name)
		return ErrInvalidContext
	}

	c.bindExistingLocked()
	if c.currentTexture == InvalidSlot && c.currentImage == nil {
		Logger().Error("texstream: bindTextureImage: no currently bound texture", "consumer", c.name)
		return ErrNoCurrentImage
	}

	if err := c.currentImage.ensure(c.display, c.currentCrop, c.caps); err != nil {
		Logger().Warn("texstream: bindTextureImage: can't create image",
			"consumer", c.name, "slot", c.currentTexture)
		return err
	}
	if err := c.currentImage.bind(c.texTarget, c.texName); err != nil {
		return err
	}

	// Wait for the producer's writes to land before anyone samples.
	return c.fenceWaitLocked()
}

// bindExistingLocked rebinds the texture object itself, without
// attaching new content. Failure paths rely on it so something is always
// bound.
func (c *Consumer) bindExistingLocked() {
	if c.display == nil {
		return
	}
	if err := c.display.BindTexture(c.texTarget, c.texName); err != nil {
		Logger().Warn("texstream: bind texture failed",
			"consumer", c.name, "texture", c.texName, "error", err)
	}
}

// checkAndUpdateContextLocked adopts the caller's display/device/queue
// on the first call and rejects any mismatch afterwards. Images and sync
// objects are only valid against the display they were created for, so a
// changed context is a caller bug, not something to retry.
func (c *Consumer) checkAndUpdateContextLocked() error {
	display := c.provider.Display()
	device := c.provider.Device()
	gpuq := c.provider.Queue()

	if c.display == nil {
		c.display = display
	}
	if c.device == nil {
		c.device = device
		c.gpuq = gpuq
	}

	if c.display != display || display == nil {
		Logger().Error("texstream: invalid current display", "consumer", c.name)
		return ErrInvalidContext
	}
	if c.device != device || device == nil || c.gpuq != gpuq {
		Logger().Error("texstream: invalid current device", "consumer", c.name)
		return ErrInvalidContext
	}
	return nil
}

// releaseBufferLocked hands a buffer back to the queue, logging but not
// propagating failures (callers are already on an error path or treat
// release as best-effort).
func (c *Consumer) releaseBufferLocked(slotIdx int, buf *GraphicBuffer, releaseFence *fence.Fence) {
	if err := c.queue.ReleaseBuffer(slotIdx, buf, releaseFence); err != nil {
		Logger().Warn("texstream: release buffer failed",
			"consumer", c.name, "slot", slotIdx, "error", err)
	}
}

// ReleasePendingBuffer applies a deferred release from
// UpdateTexImageDeferred. releaseFence, when valid, gates the producer's
// reuse of the buffer. Applying a non-pending outcome is a no-op.
func (c *Consumer) ReleasePendingBuffer(r ReleaseOutcome, releaseFence *fence.Fence) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.abandoned {
		return ErrAbandoned
	}
	if !r.pending {
		return nil
	}
	if err := c.queue.ReleaseBuffer(r.slot, r.buffer, releaseFence); err != nil {
		return fmt.Errorf("texstream: release failed: %w", err)
	}
	return nil
}

// SetReleaseFence records a downstream consumption fence for the
// currently bound buffer; the queue honors it before recycling the
// buffer to the producer. Invalid fences and an empty binding are
// ignored.
func (c *Consumer) SetReleaseFence(f *fence.Fence) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !f.IsValid() || c.currentTexture == InvalidSlot {
		return
	}
	if err := c.queue.AddReleaseFence(c.currentTexture, c.currentImage.graphicBuffer(), f); err != nil {
		Logger().Error("texstream: setReleaseFence: failed to add fence",
			"consumer", c.name, "slot", c.currentTexture, "error", err)
	}
}

// SetFilteringEnabled toggles bilinear filtering. The transform matrix
// depends on it (crop edge shrink), so a change recomputes the matrix if
// an image is bound.
func (c *Consumer) SetFilteringEnabled(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.abandoned {
		Logger().Error("texstream: setFilteringEnabled on abandoned consumer", "consumer", c.name)
		return ErrAbandoned
	}
	changed := c.filteringEnabled != enabled
	c.filteringEnabled = enabled
	if changed && c.currentImage != nil {
		c.computeCurrentTransformMatrixLocked()
	}
	return nil
}

// SetDefaultBufferSize sets the size of buffers the queue allocates when
// the producer does not pick one. It also becomes the target rect for
// the scale-crop scaling mode.
func (c *Consumer) SetDefaultBufferSize(width, height uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.abandoned {
		Logger().Error("texstream: setDefaultBufferSize on abandoned consumer", "consumer", c.name)
		return ErrAbandoned
	}
	c.defaultWidth = width
	c.defaultHeight = height
	return c.queue.SetDefaultBufferSize(width, height)
}

// SetConsumerUsageBits forwards usage flags to the queue, always merged
// with the baseline the consumer cannot work without.
func (c *Consumer) SetConsumerUsageBits(usage uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.abandoned {
		return ErrAbandoned
	}
	return c.queue.SetConsumerUsageBits(usage | DefaultUsageFlags)
}

// computeCurrentTransformMatrixLocked refreshes the derived matrix from
// the current binding. When the platform image itself carries the crop,
// the matrix must not correct for it a second time.
func (c *Consumer) computeCurrentTransformMatrixLocked() {
	var buf *GraphicBuffer
	if c.currentImage != nil {
		buf = c.currentImage.graphicBuffer()
	} else {
		Logger().Debug("texstream: computeTransformMatrix with no current image", "consumer", c.name)
	}
	crop := c.currentCrop
	if isImageCroppable(crop, c.caps) {
		crop = image.Rectangle{}
	}
	ComputeTransformMatrix(&c.currentMatrix, buf, crop, c.currentTransform, c.filteringEnabled)
}

// GetTransformMatrix copies the current sampling matrix into dst.
// Column-major, GL convention; see ComputeTransformMatrix.
func (c *Consumer) GetTransformMatrix(dst *f32.Mat4) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*dst = c.currentMatrix
}

// GetCurrentBuffer returns the bound buffer and its slot, or (nil,
// InvalidSlot) before the first update.
func (c *Consumer) GetCurrentBuffer() (*GraphicBuffer, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentImage == nil {
		return nil, c.currentTexture
	}
	return c.currentImage.graphicBuffer(), c.currentTexture
}

// GetCurrentCrop returns the bound crop rect. In the scale-crop scaling
// mode the rect is first center-cropped to the default buffer size's
// aspect ratio.
func (c *Consumer) GetCurrentCrop() image.Rectangle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentScalingMode == ScalingModeScaleCrop {
		return ScaleDownCrop(c.currentCrop, c.defaultWidth, c.defaultHeight)
	}
	return c.currentCrop
}

// GetCurrentTransform returns the bound orientation bitmask.
func (c *Consumer) GetCurrentTransform() Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTransform
}

// GetCurrentScalingMode returns the bound scaling mode.
func (c *Consumer) GetCurrentScalingMode() ScalingMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentScalingMode
}

// GetTimestamp returns the bound frame's presentation time in
// nanoseconds.
func (c *Consumer) GetTimestamp() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTimestamp
}

// GetCurrentDataSpace returns the bound frame's dataspace tag.
func (c *Consumer) GetCurrentDataSpace() Dataspace {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentDataspace
}

// GetFrameNumber returns the bound frame's producer counter.
func (c *Consumer) GetFrameNumber() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentFrameNumber
}

// GetCurrentFence returns the bound frame's producer-ready fence.
func (c *Consumer) GetCurrentFence() *fence.Fence {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentFence
}

// GetCurrentFenceTime returns the snapshot handle for the bound frame's
// fence signal time.
func (c *Consumer) GetCurrentFenceTime() *fence.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentFenceTime
}

// FreeBufferSlot is the queue's slot-free notification: the slot is
// being reassigned or torn down, so its cached image is destroyed
// unconditionally. If the freed slot is the bound one the marker is
// cleared, but the image object itself survives until the binding drops
// its reference.
func (c *Consumer) FreeBufferSlot(slotIdx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slotIdx < 0 || slotIdx >= MaxSlots {
		return
	}
	Logger().Debug("texstream: freeBufferSlot", "consumer", c.name, "slot", slotIdx)
	if slotIdx == c.currentTexture {
		c.currentTexture = InvalidSlot
	}
	s := &c.slots[slotIdx]
	if s.image != nil {
		s.image.release()
		s.image = nil
	}
	s.buffer = nil
}

// Abandon is the queue's abandon notification and the terminal state of
// a consumer: every slot is freed, the current image reference dropped,
// and every later operation returns ErrAbandoned without touching the
// queue.
func (c *Consumer) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.abandoned {
		return
	}
	Logger().Debug("texstream: abandon", "consumer", c.name)
	c.abandoned = true
	if c.currentImage != nil {
		c.currentImage.release()
		c.currentImage = nil
	}
	c.currentTexture = InvalidSlot
	for i := range c.slots {
		s := &c.slots[i]
		if s.image != nil {
			s.image.release()
			s.image = nil
		}
		s.buffer = nil
	}
}

// IsAbandoned reports whether Abandon has run.
func (c *Consumer) IsAbandoned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.abandoned
}

// Dump returns a diagnostic description of the binding state, each line
// prefixed with prefix.
func (c *Consumer) Dump(prefix string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("%stexName=%d currentTexture=%d\n%scurrentCrop=[%d,%d,%d,%d] currentTransform=%#x\n",
		prefix, c.texName, c.currentTexture,
		prefix, c.currentCrop.Min.X, c.currentCrop.Min.Y,
		c.currentCrop.Max.X, c.currentCrop.Max.Y, uint32(c.currentTransform))
}

// legacyWaitTimeout bounds the CPU-side drain in the legacy sync
// strategy so a wedged GPU cannot hang the caller forever.
const legacyWaitTimeout = 5 * time.Second
