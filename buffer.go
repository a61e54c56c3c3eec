// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texstream

import (
	"fmt"
	"image"
)

// GraphicBuffer describes one producer-allocated buffer: its geometry,
// pixel format, usage flags, and a handle to the native allocation.
// Buffers are shared between the queue and the consumer; Go references
// keep the descriptor alive, while the native allocation itself belongs
// to the queue.
//
// The fields are fixed at allocation time; a GraphicBuffer is immutable
// once published and safe to read concurrently.
type GraphicBuffer struct {
	width  uint32
	height uint32
	stride uint32
	format PixelFormat
	usage  uint64
	handle uintptr
	data   []byte
}

// NewGraphicBuffer builds a buffer descriptor. stride is in pixels and
// must be >= width. data may be nil for buffers whose content is only
// reachable through the native handle (protected or device-local memory).
func NewGraphicBuffer(width, height, stride uint32, format PixelFormat, usage uint64, handle uintptr, data []byte) *GraphicBuffer {
	return &GraphicBuffer{
		width:  width,
		height: height,
		stride: stride,
		format: format,
		usage:  usage,
		handle: handle,
		data:   data,
	}
}

// Width returns the buffer width in pixels.
func (b *GraphicBuffer) Width() uint32 { return b.width }

// Height returns the buffer height in pixels.
func (b *GraphicBuffer) Height() uint32 { return b.height }

// Stride returns the row stride in pixels.
func (b *GraphicBuffer) Stride() uint32 { return b.stride }

// Format returns the pixel format.
func (b *GraphicBuffer) Format() PixelFormat { return b.format }

// Usage returns the allocation usage flags.
func (b *GraphicBuffer) Usage() uint64 { return b.usage }

// NativeHandle returns the opaque platform handle of the allocation.
func (b *GraphicBuffer) NativeHandle() uintptr { return b.handle }

// Data returns the CPU-visible pixels, or nil if the buffer has none.
func (b *GraphicBuffer) Data() []byte { return b.data }

// Bounds returns the full buffer rectangle.
func (b *GraphicBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(b.width), int(b.height))
}

// String formats the buffer metadata the way failure logs report it.
func (b *GraphicBuffer) String() string {
	return fmt.Sprintf("%dx%d st=%d usage=%#x fmt=%s",
		b.width, b.height, b.stride, b.usage, b.format)
}
