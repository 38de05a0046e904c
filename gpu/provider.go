// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"github.com/gogpu/corethread"
	"github.com/gogpu/gpucontext"
)

// DeviceHandle is the host integration point: applications that already
// own a GPU device through the gpucontext ecosystem (e.g. gogpu.App)
// implement this and pass it to Bind. The library receives the device
// from the host; it does not create one.
type DeviceHandle = gpucontext.DeviceProvider

// BoundProvider confines a host-provided device to the dispatcher's core
// thread. It creates no GPU resources of its own; it only enforces that
// the handles are read and used where the device contract allows.
type BoundProvider struct {
	ct       *corethread.CoreThread
	provider gpucontext.DeviceProvider
}

// Bind wraps a host device provider with the dispatcher's thread-affinity
// guards.
func Bind(ct *corethread.CoreThread, provider gpucontext.DeviceProvider) *BoundProvider {
	return &BoundProvider{
		ct:       ct,
		provider: provider,
	}
}

// Device returns the host device. Restricted to the core thread.
func (b *BoundProvider) Device() (gpucontext.Device, error) {
	if err := b.ct.EnsureCoreThread(); err != nil {
		return nil, err
	}
	return b.provider.Device(), nil
}

// Queue returns the host queue. Restricted to the core thread.
func (b *BoundProvider) Queue() (gpucontext.Queue, error) {
	if err := b.ct.EnsureCoreThread(); err != nil {
		return nil, err
	}
	return b.provider.Queue(), nil
}

// With queues fn to the core thread with the host device and queue in
// scope. With block set, With returns after fn has executed.
func (b *BoundProvider) With(fn func(gpucontext.Device, gpucontext.Queue), block bool) error {
	if fn == nil {
		return corethread.ErrNilCommand
	}
	return b.ct.Submit(func() {
		fn(b.provider.Device(), b.provider.Queue())
	}, block)
}
