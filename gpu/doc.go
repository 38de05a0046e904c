// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu binds a WebGPU device to a corethread dispatcher.
//
// A GPU device context must be created, used, and released on one thread.
// This package owns that state on the dispatcher's core thread: the
// Context initializes the wgpu instance, adapter, device, and queue by
// queueing the work to the consumer, and every accessor is guarded by the
// dispatcher's thread-affinity checks.
//
// # Creating a Context
//
//	ct, _ := corethread.New()
//	defer ct.Stop()
//
//	gctx, err := gpu.NewContext(ct)
//	if err != nil {
//	    // no GPU available; run headless
//	}
//	defer gctx.Close()
//
// # Host Integration
//
// Applications that already own a device through the gpucontext ecosystem
// can instead bind their provider with Bind, which confines all device
// access to the core thread without creating any GPU resources.
package gpu
