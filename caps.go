// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texstream

import (
	"slices"
	"strings"
	"sync"
)

// Extension tokens the capability probe looks for in Display.Extensions.
const (
	// ExtImageCrop advertises crop attributes on platform images.
	ExtImageCrop = "image_crop"

	// ExtProtectedContent advertises protected-content images.
	ExtProtectedContent = "protected_content"

	// ExtNativeFenceSync advertises sync objects exportable as portable
	// fences.
	ExtNativeFenceSync = "native_fence_sync"

	// ExtWaitSync advertises GPU-side (non-blocking) fence waits.
	ExtWaitSync = "wait_sync"
)

// Capabilities are the platform feature flags the consumer's strategies
// key off. They are computed at most once per display and are read-only
// afterwards.
type Capabilities struct {
	// ImageCrop: crop rects can be attached to platform images, and a
	// changed crop invalidates a cached image.
	ImageCrop bool

	// ProtectedContent: protected images can be created.
	ProtectedContent bool

	// NativeFenceSync: release-side signals use an exportable sync
	// object instead of a CPU-blocking drain.
	NativeFenceSync bool

	// WaitSync: bind-side waits run on the GPU command stream instead of
	// blocking the calling thread.
	WaitSync bool
}

// capsCache maps Display identity to its computed *Capabilities.
// LoadOrStore keeps the computation idempotent: a first-use race may
// probe twice with identical results, but only one value is ever
// published and nothing is recomputed afterwards.
var capsCache sync.Map // Display -> *Capabilities

// DetectCapabilities probes the display's extension string, computing the
// flags at most once per display.
func DetectCapabilities(d Display) Capabilities {
	if v, ok := capsCache.Load(d); ok {
		return *v.(*Capabilities)
	}
	exts := d.Extensions()
	c := &Capabilities{
		ImageCrop:        hasExtension(exts, ExtImageCrop),
		ProtectedContent: hasExtension(exts, ExtProtectedContent),
		NativeFenceSync:  hasExtension(exts, ExtNativeFenceSync),
		WaitSync:         hasExtension(exts, ExtWaitSync),
	}
	v, _ := capsCache.LoadOrStore(d, c)
	return *v.(*Capabilities)
}

// hasExtension reports whether name appears as an exact space-separated
// token in exts. Substring hits inside longer tokens do not count.
func hasExtension(exts, name string) bool {
	return slices.Contains(strings.Fields(exts), name)
}
