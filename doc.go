// Package texstream binds graphics buffers arriving from a producer/consumer
// queue to GPU texture units.
//
// # Overview
//
// texstream sits between a buffer queue (the producer side: a decoder, a
// capture pipeline, another process) and the GPU sampling side of a
// compositor. Each call to [Consumer.UpdateTexImage] acquires the next
// buffer from the queue, ensures a platform image exists for the buffer's
// slot, synchronizes the release of the previously bound buffer, commits
// the new binding, binds the image to the consumer's texture target, and
// waits on the producer's ready fence before returning.
//
// The two hard guarantees:
//
//   - The GPU never samples a buffer before the producer's writes are
//     visible (the bind-side fence wait).
//   - The producer never gets a buffer back while the GPU may still be
//     reading it (the release-side fence).
//
// # Quick Start
//
//	c := texstream.New(queue, provider, texTarget, texName)
//	if err := c.UpdateTexImage(); err != nil {
//	    // previous texture is still bound; decide whether to retry
//	}
//	var mtx f32.Mat4
//	c.GetTransformMatrix(&mtx)
//
// # Integration
//
// texstream RECEIVES its GPU plumbing from the host, it does not create
// any. The host implements [Display] (platform image and sync creation)
// and [Provider] (current device/queue/display), and implements or wraps
// a [Queue]. The backend/wgputex package provides a ready-made Display
// for hosts on gogpu/wgpu.
//
// A Consumer is safe for concurrent callers: a single mutex protects all
// mutable state. It is still designed for sequential use per instance,
// since platform images are tied to one display/context pair at a time.
package texstream
