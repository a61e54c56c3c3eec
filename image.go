// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texstream

import (
	"fmt"
	"image"
	"sync/atomic"
)

// cachedImage is the per-slot platform image cache entry: a buffer
// reference plus the lazily created platform image derived from it.
//
// The handle's validity is tied exactly to the (display, crop) pair it
// was created against; ensure destroys and recreates it on any mismatch,
// never mutating in place. The entry itself is reference counted: the
// slot holds one reference and the current binding may hold another, so
// a slot being freed while its image is still bound just drops the
// slot's reference and the platform handle lives until the binding lets
// go. Destruction order resolves from the last release, never manually.
//
// All methods are called with the consumer lock held; only the refcount
// is atomic (release can race with nothing, but keeping it atomic makes
// the ownership rule self-contained).
type cachedImage struct {
	buffer    *GraphicBuffer
	img       Image
	display   Display
	crop      image.Rectangle
	protected bool
	refs      atomic.Int32
}

// newCachedImage wraps a freshly acquired buffer. The caller owns the
// single initial reference; no platform image exists until ensure.
func newCachedImage(buf *GraphicBuffer) *cachedImage {
	ci := &cachedImage{buffer: buf}
	ci.refs.Store(1)
	return ci
}

// retain adds a reference.
func (ci *cachedImage) retain() {
	ci.refs.Add(1)
}

// release drops a reference, destroying the platform handle when the
// last one goes.
func (ci *cachedImage) release() {
	if ci.refs.Add(-1) > 0 {
		return
	}
	if ci.img != nil {
		ci.img.Destroy()
		ci.img = nil
		ci.display = nil
	}
}

// graphicBuffer returns the backing buffer.
func (ci *cachedImage) graphicBuffer() *GraphicBuffer {
	return ci.buffer
}

// ensure makes the platform image valid for (display, crop).
//
// An existing image is destroyed first if it was created against a
// different display, or against a different crop on platforms where the
// crop is an image attribute. Creation attaches the crop only when the
// platform can honor it (crop support and origin at (0,0)); otherwise
// the crop is left off and the transform matrix corrects the geometry.
// The protected attribute is attached iff the buffer asks for it and the
// platform supports it.
//
// On failure the cache is left empty so the next call can retry; the
// buffer metadata is logged for the platform bug report.
func (ci *cachedImage) ensure(display Display, crop image.Rectangle, caps Capabilities) error {
	haveImage := ci.img != nil
	displayInvalid := haveImage && ci.display != display
	cropInvalid := haveImage && caps.ImageCrop && ci.crop != crop
	if haveImage && (displayInvalid || cropInvalid) {
		ci.img.Destroy()
		ci.img = nil
		ci.display = nil
	}

	if ci.img == nil {
		protected := ci.buffer.Usage()&UsageProtected != 0 && caps.ProtectedContent
		img, err := display.CreateImage(&ImageDesc{
			Buffer:    ci.buffer,
			Crop:      crop,
			UseCrop:   isImageCroppable(crop, caps),
			Protected: protected,
		})
		if err != nil {
			ci.display = nil
			ci.crop = image.Rectangle{}
			Logger().Warn("texstream: failed to create image",
				"buffer", ci.buffer.String(), "error", err)
			return fmt.Errorf("%w: %v", ErrImageCreation, err)
		}
		ci.img = img
		ci.display = display
		ci.crop = crop
		ci.protected = protected
	}

	return nil
}

// bind attaches the image to the texture target.
func (ci *cachedImage) bind(target, texName uint32) error {
	if ci.img == nil {
		return ErrNoCurrentImage
	}
	if err := ci.img.Bind(target, texName); err != nil {
		return fmt.Errorf("%w: %v", ErrBindFailed, err)
	}
	return nil
}

// isImageCroppable reports whether the crop can be expressed as a
// platform image attribute: the platform supports crops at all, and the
// rect starts at the origin (the only case the crop attribute allows).
func isImageCroppable(crop image.Rectangle, caps Capabilities) bool {
	return caps.ImageCrop && crop.Min.X == 0 && crop.Min.Y == 0
}
