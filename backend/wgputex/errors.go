// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgputex

import "errors"

// Package errors for the wgputex backend.
var (
	// ErrNilDevice is returned when creating a display without a HAL device.
	ErrNilDevice = errors.New("wgputex: HAL device is nil")

	// ErrNilQueue is returned when creating a display without a HAL queue.
	ErrNilQueue = errors.New("wgputex: HAL queue is nil")

	// ErrUnsupportedFormat is returned for buffer formats WebGPU cannot
	// sample directly.
	ErrUnsupportedFormat = errors.New("wgputex: unsupported pixel format")

	// ErrProtectedContent is returned for protected-content image
	// requests; the display does not advertise the capability, so seeing
	// one is a consumer bug.
	ErrProtectedContent = errors.New("wgputex: protected content not supported")

	// ErrImageDestroyed is returned when operating on a destroyed image.
	ErrImageDestroyed = errors.New("wgputex: image has been destroyed")

	// ErrSyncDestroyed is returned when operating on a destroyed sync.
	ErrSyncDestroyed = errors.New("wgputex: sync has been destroyed")

	// ErrNotExportable is returned when exporting an imported sync;
	// only syncs from Display.CreateSync carry a device fence.
	ErrNotExportable = errors.New("wgputex: sync is not exportable")

	// ErrFenceWait is returned when the device wait on a HAL fence fails
	// or times out.
	ErrFenceWait = errors.New("wgputex: fence wait failed")
)
