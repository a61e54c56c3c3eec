// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texstream

import (
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/texstream/fence"
)

// Display is the platform surface the consumer creates images and sync
// objects against. The host bootstraps the display and hands it to the
// consumer through a Provider; the consumer never creates or terminates
// one.
//
// Display values are compared by identity: the consumer adopts the
// display seen on its first update and rejects any other afterwards, so
// implementations must be comparable (pointer receivers are fine).
type Display interface {
	// Extensions returns the space-separated platform extension tokens.
	// The capability probe matches exact tokens against it.
	Extensions() string

	// BindTexture makes texName the active texture on target without
	// attaching new content. Used to rebind the previous (possibly
	// stale) texture so downstream sampling is never undefined.
	BindTexture(target, texName uint32) error

	// CreateImage derives a platform image from a buffer. The returned
	// image owns its platform handle until Destroy.
	CreateImage(desc *ImageDesc) (Image, error)

	// CreateSync creates a sync object tied to the current GPU command
	// stream: it signals when all GPU work issued so far completes.
	CreateSync() (Sync, error)

	// ImportSync wraps an incoming fence in a sync object the GPU can
	// wait on.
	ImportSync(f *fence.Fence) (Sync, error)

	// Flush submits all pending GPU work without blocking.
	Flush() error
}

// ImageDesc describes the image to derive from a buffer.
type ImageDesc struct {
	// Buffer is the backing graphic buffer.
	Buffer *GraphicBuffer

	// Crop is the source rectangle in buffer pixels.
	Crop image.Rectangle

	// UseCrop attaches Crop as a platform image attribute. When false
	// the platform samples the full buffer and the crop is corrected in
	// the transform matrix instead.
	UseCrop bool

	// Protected requests a protected-content image. Only set when the
	// buffer usage asks for it and the platform supports it.
	Protected bool
}

// Image is a platform GPU resource wrapping a graphic buffer for texture
// sampling.
type Image interface {
	// Bind attaches the image to the texture object texName on target.
	Bind(target, texName uint32) error

	// Destroy releases the platform handle. The wrapping cache calls it
	// exactly once, when the last reference to the image drops.
	Destroy()
}

// Sync wraps a platform synchronization primitive.
type Sync interface {
	// Export duplicates the sync into a portable fence that other
	// subsystems can wait on. Only syncs from Display.CreateSync are
	// exportable.
	Export() (*fence.Fence, error)

	// WaitServer makes the GPU command stream wait for the sync without
	// blocking the calling thread.
	WaitServer() error

	// Destroy releases the sync object. The exported fence, if any,
	// stays valid.
	Destroy()
}

// Provider hands the consumer its GPU plumbing: the gpucontext device and
// queue the caller is driving, plus the platform display. The consumer
// queries it on every update; returning a different device, queue, or
// display than the first call adopted is reported as ErrInvalidContext.
type Provider interface {
	gpucontext.DeviceProvider

	// Display returns the caller's active platform display.
	Display() Display
}
