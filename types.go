// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texstream

import "fmt"

// Transform is a bitmask describing the stored orientation of a buffer:
// the producer rendered its content with these operations applied, so the
// consumer must undo them while sampling.
// These flags can be combined with bitwise OR.
type Transform uint32

const (
	// TransformFlipH mirrors the buffer horizontally.
	TransformFlipH Transform = 1 << iota

	// TransformFlipV mirrors the buffer vertically.
	TransformFlipV

	// TransformRot90 rotates the buffer 90 degrees clockwise.
	TransformRot90
)

// Composite transforms expressible with the three base flags.
const (
	TransformRot180 = TransformFlipH | TransformFlipV
	TransformRot270 = TransformFlipH | TransformFlipV | TransformRot90
)

// String returns a human-readable form of the bitmask.
func (t Transform) String() string {
	switch t {
	case 0:
		return "none"
	case TransformFlipH:
		return "flipH"
	case TransformFlipV:
		return "flipV"
	case TransformRot90:
		return "rot90"
	case TransformRot180:
		return "rot180"
	case TransformRot270:
		return "rot270"
	default:
		return fmt.Sprintf("Transform(%#x)", uint32(t))
	}
}

// ScalingMode is the policy for fitting buffer content into a differently
// sized or shaped output window.
type ScalingMode uint32

const (
	// ScalingModeFreeze presents the buffer at its own size.
	ScalingModeFreeze ScalingMode = iota

	// ScalingModeScaleToWindow stretches the buffer to the window.
	ScalingModeScaleToWindow

	// ScalingModeScaleCrop scales preserving aspect ratio and center-crops
	// the overflowing axis. GetCurrentCrop applies ScaleDownCrop in this
	// mode.
	ScalingModeScaleCrop

	// ScalingModeNoScaleCrop crops without scaling.
	ScalingModeNoScaleCrop
)

// String returns a human-readable name for the scaling mode.
func (m ScalingMode) String() string {
	switch m {
	case ScalingModeFreeze:
		return "freeze"
	case ScalingModeScaleToWindow:
		return "scaleToWindow"
	case ScalingModeScaleCrop:
		return "scaleCrop"
	case ScalingModeNoScaleCrop:
		return "noScaleCrop"
	default:
		return fmt.Sprintf("ScalingMode(%d)", uint32(m))
	}
}

// Dataspace tags the color encoding and gamut of a buffer's content.
// The consumer carries it through to whoever samples the texture; it does
// not interpret it.
type Dataspace uint32

const (
	// DataspaceUnknown means the producer attached no color metadata.
	DataspaceUnknown Dataspace = iota

	// DataspaceSRGBLinear is linear sRGB.
	DataspaceSRGBLinear

	// DataspaceSRGB is gamma-encoded sRGB.
	DataspaceSRGB

	// DataspaceBT601 is SD video color space.
	DataspaceBT601

	// DataspaceBT709 is HD video color space.
	DataspaceBT709

	// DataspaceBT2020 is UHD/wide-gamut video color space.
	DataspaceBT2020
)

// Buffer usage flags, merged into every allocation request the queue
// forwards to the producer. These can be combined with bitwise OR.
const (
	// UsageSWRead allows CPU reads of the buffer.
	UsageSWRead uint64 = 1 << 0

	// UsageSWWrite allows CPU writes to the buffer.
	UsageSWWrite uint64 = 1 << 1

	// UsageHWTexture allows the GPU to sample the buffer as a texture.
	UsageHWTexture uint64 = 1 << 8

	// UsageHWRender allows the GPU to render into the buffer.
	UsageHWRender uint64 = 1 << 9

	// UsageHWComposer allows the display controller to scan the buffer out.
	UsageHWComposer uint64 = 1 << 11

	// UsageProtected requests a buffer whose content is inaccessible to
	// the CPU (DRM-protected paths). A created image carries the protected
	// attribute only if the platform reports support for it.
	UsageProtected uint64 = 1 << 14
)

// DefaultUsageFlags is the baseline usage every consumer requires: the
// whole point of the consumer is to sample buffers as textures.
const DefaultUsageFlags = UsageHWTexture
