// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgputex

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
	types "github.com/gogpu/gputypes"

	"github.com/gogpu/texstream"
	"github.com/gogpu/texstream/fence"
)

// displayExtensions is what the capability probe sees: HAL fences give
// us exportable sync and bounded waits, but there is no image crop
// attribute and no protected memory path in wgpu.
const displayExtensions = texstream.ExtNativeFenceSync + " " + texstream.ExtWaitSync

// DefaultFenceTimeout bounds device waits on HAL fences.
const DefaultFenceTimeout = 5 * time.Second

// Display implements texstream.Display on a gogpu/wgpu HAL device/queue
// pair.
//
// Display is safe for concurrent use; the HAL device and queue it wraps
// must be too (they are in the wgpu backends).
type Display struct {
	device hal.Device
	queue  hal.Queue

	// fenceTimeout bounds Wait calls for sync objects.
	fenceTimeout time.Duration
}

// NewDisplay wraps a HAL device and queue in a texstream display.
func NewDisplay(device hal.Device, queue hal.Queue) (*Display, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if queue == nil {
		return nil, ErrNilQueue
	}
	return &Display{
		device:       device,
		queue:        queue,
		fenceTimeout: DefaultFenceTimeout,
	}, nil
}

// SetFenceTimeout overrides the bound on device fence waits.
func (d *Display) SetFenceTimeout(timeout time.Duration) {
	d.fenceTimeout = timeout
}

// Extensions implements texstream.Display.
func (d *Display) Extensions() string { return displayExtensions }

// BindTexture implements texstream.Display. wgpu has no texture-unit
// state to rebind; hosts fetch the bound texture via Image.Texture
// instead, so this records nothing and succeeds.
func (d *Display) BindTexture(target, texName uint32) error { return nil }

// Flush implements texstream.Display: an empty submit pushes all
// previously encoded work to the queue without waiting for it.
func (d *Display) Flush() error {
	return d.queue.Submit(nil, nil, 0)
}

// CreateImage implements texstream.Display. The buffer's pixels are
// uploaded into a fresh sampleable HAL texture. Crop attributes are
// never requested (the display does not advertise them); a protected
// request is a consumer bug and fails.
func (d *Display) CreateImage(desc *texstream.ImageDesc) (texstream.Image, error) {
	if desc.Protected {
		return nil, ErrProtectedContent
	}
	buf := desc.Buffer
	format, err := convertFormat(buf.Format())
	if err != nil {
		return nil, err
	}

	halDesc := &hal.TextureDescriptor{
		Label: "texstream-image",
		Size: hal.Extent3D{
			Width:              buf.Width(),
			Height:             buf.Height(),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     types.TextureDimension2D,
		Format:        format,
		Usage:         types.TextureUsageTextureBinding | types.TextureUsageCopyDst,
	}
	texture, err := d.device.CreateTexture(halDesc)
	if err != nil {
		return nil, fmt.Errorf("wgputex: create texture: %w", err)
	}

	if data := buf.Data(); data != nil {
		bpp := uint32(buf.Format().BytesPerPixel())
		dst := &hal.ImageCopyTexture{
			Texture:  texture,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:   types.TextureAspectAll,
		}
		layout := &hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  buf.Stride() * bpp,
			RowsPerImage: buf.Height(),
		}
		size := &hal.Extent3D{
			Width:              buf.Width(),
			Height:             buf.Height(),
			DepthOrArrayLayers: 1,
		}
		d.queue.WriteTexture(dst, data, layout, size)
	}

	return &Image{display: d, texture: texture}, nil
}

// convertFormat maps a buffer format to the HAL texture format, or fails
// for formats WebGPU cannot sample directly.
func convertFormat(f texstream.PixelFormat) (types.TextureFormat, error) {
	switch f {
	case texstream.PixelFormatRGBA8888, texstream.PixelFormatRGBX8888:
		return types.TextureFormatRGBA8Unorm, nil
	case texstream.PixelFormatBGRA8888:
		return types.TextureFormatBGRA8Unorm, nil
	default:
		return types.TextureFormatUndefined, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// Image implements texstream.Image as a HAL texture.
type Image struct {
	display *Display

	mu        sync.Mutex
	texture   hal.Texture
	destroyed bool
}

// Texture returns the underlying HAL texture for the sampling side, or
// nil after Destroy.
func (i *Image) Texture() hal.Texture {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		return nil
	}
	return i.texture
}

// Bind implements texstream.Image. wgpu binds textures through bind
// groups built by the host, so success here only means the image is
// alive; the host picks it up via Texture.
func (i *Image) Bind(target, texName uint32) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		return ErrImageDestroyed
	}
	return nil
}

// Destroy implements texstream.Image.
func (i *Image) Destroy() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.destroyed {
		return
	}
	i.destroyed = true
	i.display.device.DestroyTexture(i.texture)
	i.texture = nil
}

// Provider bundles a gpucontext device provider with a wgputex display,
// implementing texstream.Provider for hosts that drive one device.
type Provider struct {
	gpucontext.DeviceProvider
	display *Display
}

// NewProvider wraps the host's device provider and display.
func NewProvider(dp gpucontext.DeviceProvider, display *Display) *Provider {
	return &Provider{DeviceProvider: dp, display: display}
}

// Display implements texstream.Provider.
func (p *Provider) Display() texstream.Display { return p.display }

// CreateSync implements texstream.Display. The HAL fence is submitted to
// the queue immediately, so it signals once all GPU work issued so far
// completes, which is exactly the release-side barrier the consumer
// needs.
func (d *Display) CreateSync() (texstream.Sync, error) {
	halFence, err := d.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("wgputex: create fence: %w", err)
	}
	if err := d.queue.Submit(nil, halFence, 1); err != nil {
		d.device.DestroyFence(halFence)
		return nil, fmt.Errorf("wgputex: submit fence: %w", err)
	}
	return &deviceSync{display: d, halFence: halFence}, nil
}

// ImportSync implements texstream.Display.
func (d *Display) ImportSync(f *fence.Fence) (texstream.Sync, error) {
	if !f.IsValid() {
		return nil, fence.ErrInvalid
	}
	return &importedSync{display: d, f: f}, nil
}

// deviceSync is a sync backed by a submitted HAL fence.
type deviceSync struct {
	display  *Display
	halFence hal.Fence

	mu        sync.Mutex
	exported  bool
	destroyed bool
}

// Export duplicates the sync into a portable fence. A watcher goroutine
// observes the HAL fence with a device wait and signals the portable
// fence; it owns the HAL fence from here on, so Destroy on the sync
// object cannot invalidate an exported fence.
func (s *deviceSync) Export() (*fence.Fence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil, ErrSyncDestroyed
	}
	if s.exported {
		return nil, ErrNotExportable
	}
	s.exported = true

	f, signal := fence.New()
	d := s.display
	halFence := s.halFence
	go func() {
		ok, err := d.device.Wait(halFence, 1, d.fenceTimeout)
		if err != nil || !ok {
			texstream.Logger().Warn("wgputex: exported fence wait failed",
				"ok", ok, "error", err)
		}
		// Signal regardless: a wedged device must not deadlock the
		// producer, and the wait bound has already passed.
		signal()
		d.device.DestroyFence(halFence)
	}()
	return f, nil
}

// WaitServer blocks on the HAL fence. wgpu has no server-side wait yet,
// so this is a bounded device wait rather than a command-stream one.
func (s *deviceSync) WaitServer() error {
	s.mu.Lock()
	if s.destroyed || s.exported {
		s.mu.Unlock()
		return ErrSyncDestroyed
	}
	halFence := s.halFence
	s.mu.Unlock()

	ok, err := s.display.device.Wait(halFence, 1, s.display.fenceTimeout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFenceWait, err)
	}
	if !ok {
		return ErrFenceWait
	}
	return nil
}

// Destroy releases the HAL fence unless Export handed it to the watcher.
func (s *deviceSync) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.destroyed = true
	if !s.exported {
		s.display.device.DestroyFence(s.halFence)
	}
	s.halFence = nil
}

// importedSync wraps an incoming portable fence. wgpu cannot make the
// command stream wait on an external fence, so WaitServer degrades to a
// bounded CPU wait.
type importedSync struct {
	display *Display
	f       *fence.Fence
}

func (s *importedSync) Export() (*fence.Fence, error) { return nil, ErrNotExportable }

func (s *importedSync) WaitServer() error {
	if err := s.f.Wait(s.display.fenceTimeout); err != nil {
		return fmt.Errorf("%w: %v", ErrFenceWait, err)
	}
	return nil
}

func (s *importedSync) Destroy() {}
