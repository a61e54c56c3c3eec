// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texstream

import (
	"errors"
	"fmt"

	"github.com/gogpu/texstream/fence"
)

// Fence synchronization runs one of two strategies, picked once from the
// capability flags and used symmetrically on both sides of the buffer
// hand-off:
//
//   - release side: before the old buffer goes back to the queue, emit a
//     signal covering "all GPU reads of it have been issued";
//   - bind side: before returning from an update, honor the producer's
//     "writes are visible" fence.
//
// Native: sync objects tied to the GPU command stream, exported as
// portable fences (release) or waited on the command stream (bind); the
// calling thread never blocks. Legacy: no exportable sync, so the CPU
// drains the device (release) or blocks on the fence (bind) instead.

// syncForReleaseLocked emits the release-side signal for the currently
// bound buffer. Called only on a slot change; rebinding the same slot
// leaves the same buffer in place and needs no barrier.
func (c *Consumer) syncForReleaseLocked() error {
	if c.currentTexture == InvalidSlot {
		return nil
	}

	if !c.caps.NativeFenceSync {
		// Legacy: drain the device so every read of the old buffer has
		// finished by the time the queue recycles it. A bounded
		// hardware stall, not a yield point.
		c.device.(interface{ Poll(wait bool) }).Poll(true)
		return nil
	}

	sync, err := c.display.CreateSync()
	if err != nil {
		return fmt.Errorf("%w: creating sync: %v", ErrFence, err)
	}
	defer sync.Destroy()

	if err := c.display.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %v", ErrFence, err)
	}
	f, err := sync.Export()
	if err != nil {
		return fmt.Errorf("%w: exporting sync: %v", ErrFence, err)
	}

	if err := c.queue.AddReleaseFence(c.currentTexture, c.currentImage.graphicBuffer(), f); err != nil {
		Logger().Error("texstream: syncForRelease: error adding release fence",
			"consumer", c.name, "slot", c.currentTexture, "error", err)
		return fmt.Errorf("texstream: add release fence: %w", err)
	}
	return nil
}

// fenceWaitLocked honors the bound buffer's producer-ready fence before
// the update returns. The context is validated again: a GPU-side wait
// lands on whatever command stream is current.
func (c *Consumer) fenceWaitLocked() error {
	if err := c.checkAndUpdateContextLocked(); err != nil {
		return err
	}
	if !c.currentFence.IsValid() {
		return nil
	}

	if c.caps.WaitSync {
		sync, err := c.display.ImportSync(c.currentFence.Dup())
		if err != nil {
			return fmt.Errorf("%w: importing fence: %v", ErrFence, err)
		}
		defer sync.Destroy()
		if err := sync.WaitServer(); err != nil {
			return fmt.Errorf("%w: waiting for fence: %v", ErrFence, err)
		}
		return nil
	}

	// Legacy: block the calling thread. Warn once if the producer is
	// suspiciously slow, then keep waiting; giving up would hand the
	// GPU an unwritten buffer.
	if err := c.currentFence.Wait(legacyWaitTimeout); err != nil {
		if !errors.Is(err, fence.ErrTimeout) {
			return fmt.Errorf("%w: waiting for fence: %v", ErrFence, err)
		}
		Logger().Warn("texstream: fence wait exceeded timeout, still waiting",
			"consumer", c.name, "timeout", legacyWaitTimeout)
		if err := c.currentFence.WaitForever(); err != nil {
			return fmt.Errorf("%w: waiting for fence: %v", ErrFence, err)
		}
	}
	return nil
}
