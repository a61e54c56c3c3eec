// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texstream

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// PixelFormat describes the pixel layout of a graphic buffer as allocated
// by the producer side. The values cover the formats a compositing
// consumer has to reason about; anything it does not recognize is treated
// conservatively as chroma-subsampled (see ChromaSubsampled).
type PixelFormat uint32

const (
	// PixelFormatUnknown is an unrecognized or unset format.
	PixelFormatUnknown PixelFormat = 0

	// PixelFormatRGBA8888 is 32-bit RGBA, 8 bits per channel.
	PixelFormatRGBA8888 PixelFormat = 1

	// PixelFormatRGBX8888 is 32-bit RGB with an ignored alpha byte.
	PixelFormatRGBX8888 PixelFormat = 2

	// PixelFormatRGB888 is packed 24-bit RGB.
	PixelFormatRGB888 PixelFormat = 3

	// PixelFormatRGB565 is 16-bit RGB.
	PixelFormatRGB565 PixelFormat = 4

	// PixelFormatBGRA8888 is 32-bit BGRA, 8 bits per channel.
	PixelFormatBGRA8888 PixelFormat = 5

	// PixelFormatYCbCr420SP is the semi-planar YUV 4:2:0 format common
	// for camera and video producers.
	PixelFormatYCbCr420SP PixelFormat = 17

	// PixelFormatRGBAFP16 is 64-bit RGBA with half-float channels.
	PixelFormatRGBAFP16 PixelFormat = 22

	// PixelFormatRGBA1010102 is 32-bit RGBA with 10-bit color channels.
	PixelFormatRGBA1010102 PixelFormat = 43
)

// String returns a human-readable name for the format.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatUnknown:
		return "Unknown"
	case PixelFormatRGBA8888:
		return "RGBA8888"
	case PixelFormatRGBX8888:
		return "RGBX8888"
	case PixelFormatRGB888:
		return "RGB888"
	case PixelFormatRGB565:
		return "RGB565"
	case PixelFormatBGRA8888:
		return "BGRA8888"
	case PixelFormatYCbCr420SP:
		return "YCbCr420SP"
	case PixelFormatRGBAFP16:
		return "RGBAFP16"
	case PixelFormatRGBA1010102:
		return "RGBA1010102"
	default:
		return fmt.Sprintf("PixelFormat(%d)", uint32(f))
	}
}

// BytesPerPixel returns the number of bytes per pixel for packed formats,
// or 0 for planar/subsampled formats where the notion does not apply.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatRGBA8888, PixelFormatRGBX8888, PixelFormatBGRA8888, PixelFormatRGBA1010102:
		return 4
	case PixelFormatRGB888:
		return 3
	case PixelFormatRGB565:
		return 2
	case PixelFormatRGBAFP16:
		return 8
	default:
		return 0
	}
}

// ChromaSubsampled reports whether the format may carry subsampled chroma
// channels. The RGB family is known not to; every other or unrecognized
// format is assumed to be YUV 4:2:0, the conservative worst case for the
// crop edge shrink in ComputeTransformMatrix.
func (f PixelFormat) ChromaSubsampled() bool {
	switch f {
	case PixelFormatRGBA8888, PixelFormatRGBX8888, PixelFormatRGBAFP16,
		PixelFormatRGBA1010102, PixelFormatRGB888, PixelFormatRGB565,
		PixelFormatBGRA8888:
		return false
	default:
		return true
	}
}

// ToWGPUFormat converts to the matching gputypes.TextureFormat, or
// TextureFormatUndefined for formats WebGPU cannot sample directly
// (planar YUV, packed 16/24-bit RGB).
func (f PixelFormat) ToWGPUFormat() gputypes.TextureFormat {
	switch f {
	case PixelFormatRGBA8888, PixelFormatRGBX8888:
		return gputypes.TextureFormatRGBA8Unorm
	case PixelFormatBGRA8888:
		return gputypes.TextureFormatBGRA8Unorm
	default:
		return gputypes.TextureFormatUndefined
	}
}
