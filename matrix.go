// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package texstream

import (
	"image"

	"golang.org/x/image/math/f32"
)

// The 4x4 matrices below use the GL convention: column-major storage,
// column vectors, translation in elements 12 and 13. Texture coordinates
// transform as uv' = M * (u, v, 0, 1).
var (
	mtxIdentity = f32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	mtxFlipH = f32.Mat4{
		-1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		1, 0, 0, 1,
	}
	mtxFlipV = f32.Mat4{
		1, 0, 0, 0,
		0, -1, 0, 0,
		0, 0, 1, 0,
		0, 1, 0, 1,
	}
	mtxRot90 = f32.Mat4{
		0, 1, 0, 0,
		-1, 0, 0, 0,
		0, 0, 1, 0,
		1, 0, 0, 1,
	}
)

// mulMat4 returns a*b in column-major storage.
func mulMat4(a, b f32.Mat4) f32.Mat4 {
	var r f32.Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += a[k*4+row] * b[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

// ComputeTransformMatrix fills dst with the matrix that maps output
// texture coordinates onto the buffer, undoing the stored orientation and
// restricting sampling to the crop rectangle.
//
// The stages compose in a fixed, load-bearing order:
//
//  1. Orientation: flip-H, then flip-V, then rot-90, one factor per set
//     bit in transform.
//  2. Crop: a scale/offset stage in normalized coordinates, with the
//     vertical axis measured from the bottom of the buffer. When
//     filtering is enabled each cropped edge is pulled in so bilinear
//     taps stay inside the crop: half a texel for formats with no chroma
//     subsampling, a full texel otherwise (a 4:2:0 chroma sample covers
//     two luma texels). An axis is only shrunk if the crop is strictly
//     smaller than the buffer on that axis.
//  3. A final vertical flip, applied after everything else, so that the
//     consumer's output convention (buffer top at coordinate 0) holds no
//     matter what the previous stages did. Do not reorder it.
//
// buf may be nil when nothing has been bound yet; the crop stage is
// skipped since there is no geometry to crop against.
func ComputeTransformMatrix(dst *f32.Mat4, buf *GraphicBuffer, crop image.Rectangle, transform Transform, filtering bool) {
	xform := mtxIdentity
	if transform&TransformFlipH != 0 {
		xform = mulMat4(xform, mtxFlipH)
	}
	if transform&TransformFlipV != 0 {
		xform = mulMat4(xform, mtxFlipV)
	}
	if transform&TransformRot90 != 0 {
		xform = mulMat4(xform, mtxRot90)
	}

	if buf != nil && !crop.Empty() {
		tx, ty := float32(0), float32(0)
		sx, sy := float32(1), float32(1)
		bufferWidth := float32(buf.Width())
		bufferHeight := float32(buf.Height())
		var shrink float32
		if filtering {
			if buf.Format().ChromaSubsampled() {
				shrink = 1.0
			} else {
				shrink = 0.5
			}
		}
		if float32(crop.Dx()) < bufferWidth {
			tx = (float32(crop.Min.X) + shrink) / bufferWidth
			sx = (float32(crop.Dx()) - 2*shrink) / bufferWidth
		}
		if float32(crop.Dy()) < bufferHeight {
			ty = (bufferHeight - float32(crop.Max.Y) + shrink) / bufferHeight
			sy = (float32(crop.Dy()) - 2*shrink) / bufferHeight
		}
		cropMtx := f32.Mat4{
			sx, 0, 0, 0,
			0, sy, 0, 0,
			0, 0, 1, 0,
			tx, ty, 0, 1,
		}
		xform = mulMat4(cropMtx, xform)
	}

	*dst = mulMat4(mtxFlipV, xform)
}

// ScaleDownCrop shrinks crop to the aspect ratio of targetWidth x
// targetHeight, center-cropping the oversized axis. The shrink is split
// between the two edges of that axis: the leading edge moves by
// floor(delta/2) and the trailing edge by the remainder, so an odd delta
// biases the extra pixel to the trailing edge. Pure and deterministic.
// A zero target dimension has no aspect ratio to match; the crop is
// returned unchanged.
func ScaleDownCrop(crop image.Rectangle, targetWidth, targetHeight uint32) image.Rectangle {
	if targetWidth == 0 || targetHeight == 0 {
		return crop
	}

	out := crop

	newWidth := uint32(crop.Dx())
	newHeight := uint32(crop.Dy())

	if newWidth*targetHeight > newHeight*targetWidth {
		newWidth = newHeight * targetWidth / targetHeight
	} else if newWidth*targetHeight < newHeight*targetWidth {
		newHeight = newWidth * targetHeight / targetWidth
	}

	currentWidth := uint32(crop.Dx())
	currentHeight := uint32(crop.Dy())

	if newWidth < currentWidth {
		dw := currentWidth - newWidth
		halfdw := dw / 2
		out.Min.X += int(halfdw)
		// Not halfdw: that would trim 1 too few when dw is odd.
		out.Max.X -= int(dw - halfdw)
	} else if newHeight < currentHeight {
		dh := currentHeight - newHeight
		halfdh := dh / 2
		out.Min.Y += int(halfdh)
		// Not halfdh: that would trim 1 too few when dh is odd.
		out.Max.Y -= int(dh - halfdh)
	}

	return out
}
