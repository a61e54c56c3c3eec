// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgputex provides a texstream display backend for hosts running
// on gogpu/wgpu.
//
// Platform images become HAL textures with the buffer pixels uploaded
// through the queue; native sync objects become HAL fences submitted to
// the queue and observed with Device.Wait. The display advertises
// native-fence and wait-sync support; image crop and protected content
// are not advertised, so crop geometry is corrected by the consumer's
// transform matrix and protected buffers are refused.
//
// The sampling side retrieves the bound HAL texture with [Image.Texture]
// (wgpu has no bind-by-name texture unit, so Display.BindTexture is a
// recorded no-op).
package wgputex
