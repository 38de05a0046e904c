// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/corethread"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
)

// Package errors for the gpu binding.
var (
	// ErrNoGPU is returned when no suitable adapter is available.
	ErrNoGPU = errors.New("gpu: no GPU adapter available")

	// ErrNotInitialized is returned when operations are called before
	// NewContext succeeded or after Close.
	ErrNotInitialized = errors.New("gpu: context not initialized")
)

// Info contains information about the selected GPU.
type Info struct {
	// Name is the GPU name (e.g., "NVIDIA GeForce RTX 3080").
	Name string
	// Vendor is the GPU vendor.
	Vendor string
	// DeviceType is the type of GPU (discrete, integrated, etc.).
	DeviceType gputypes.DeviceType
	// Backend is the graphics API in use (Vulkan, Metal, DX12).
	Backend gputypes.Backend
	// Driver is the driver version string.
	Driver string
}

// String returns a human-readable description of the GPU.
func (g *Info) String() string {
	return fmt.Sprintf("%s (%s, %s)", g.Name, g.DeviceType, g.Backend)
}

// Context owns the wgpu instance, adapter, device, and queue. All four
// are created, used, and released on the dispatcher's core thread; the
// raw handles are only handed out there.
type Context struct {
	ct *corethread.CoreThread

	instance *core.Instance
	adapter  core.AdapterID
	device   core.DeviceID
	queue    core.QueueID

	info *Info

	shaders *shaderCache

	initialized bool
}

// NewContext creates GPU state on the dispatcher's core thread and blocks
// until it is ready. Returns an error wrapping ErrNoGPU when no adapter
// can be acquired.
func NewContext(ct *corethread.CoreThread, opts ...ContextOption) (*Context, error) {
	o := defaultContextOptions()
	for _, opt := range opts {
		opt(&o)
	}

	gctx := &Context{
		ct:      ct,
		shaders: newShaderCache(),
	}

	op, err := ct.SubmitReturn(func(op *corethread.AsyncOp) {
		op.Complete(gctx.initLocked(&o))
	}, true)
	if err != nil {
		return nil, err
	}
	if initErr, ok := op.Value().(error); ok && initErr != nil {
		return nil, initErr
	}

	return gctx, nil
}

// initLocked runs on the core thread and performs the four-step WebGPU
// bring-up: instance, adapter, device, queue.
func (gctx *Context) initLocked(o *contextOptions) error {
	log := corethread.Logger()

	desc := &gputypes.InstanceDescriptor{
		Backends: gputypes.BackendsPrimary,
		Flags:    0,
	}
	gctx.instance = core.NewInstance(desc)

	adapterID, err := gctx.instance.RequestAdapter(&gputypes.RequestAdapterOptions{
		PowerPreference: o.power,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoGPU, err)
	}
	gctx.adapter = adapterID

	if info, err := core.GetAdapterInfo(adapterID); err == nil {
		gctx.info = &Info{
			Name:       info.Name,
			Vendor:     info.Vendor,
			DeviceType: info.DeviceType,
			Backend:    info.Backend,
			Driver:     info.Driver,
		}
		log.Info("gpu: adapter selected", slog.String("gpu", gctx.info.String()))
	}

	deviceID, err := core.RequestDevice(adapterID, &gputypes.DeviceDescriptor{
		Label:            o.label,
		RequiredFeatures: nil,
		RequiredLimits:   gputypes.DefaultLimits(),
	})
	if err != nil {
		gctx.releaseLocked()
		return fmt.Errorf("gpu: device creation failed: %w", err)
	}
	gctx.device = deviceID

	queueID, err := core.GetDeviceQueue(deviceID)
	if err != nil {
		gctx.releaseLocked()
		return fmt.Errorf("gpu: queue retrieval failed: %w", err)
	}
	gctx.queue = queueID

	gctx.initialized = true
	return nil
}

// releaseLocked drops GPU resources in reverse order of creation. Runs on
// the core thread.
func (gctx *Context) releaseLocked() {
	log := corethread.Logger()

	if !gctx.device.IsZero() {
		if err := core.DeviceDrop(gctx.device); err != nil {
			log.Warn("gpu: error releasing device", slog.Any("error", err))
		}
		gctx.device = core.DeviceID{}
	}
	if !gctx.adapter.IsZero() {
		if err := core.AdapterDrop(gctx.adapter); err != nil {
			log.Warn("gpu: error releasing adapter", slog.Any("error", err))
		}
		gctx.adapter = core.AdapterID{}
	}

	gctx.instance = nil
	gctx.queue = core.QueueID{}
	gctx.initialized = false
}

// Close releases all GPU resources on the core thread and blocks until
// they are gone. The context must not be used afterwards.
func (gctx *Context) Close() {
	_ = gctx.ct.Submit(func() {
		gctx.shaders.clear()
		gctx.releaseLocked()
	}, true)
}

// Info returns information about the selected GPU, or nil when adapter
// info was unavailable. Safe from any goroutine: the value is written
// once during initialization.
func (gctx *Context) Info() *Info {
	return gctx.info
}

// DeviceID returns the raw device handle. Restricted to the core thread;
// the handle must never leak to code running elsewhere.
func (gctx *Context) DeviceID() (core.DeviceID, error) {
	if err := gctx.ct.EnsureCoreThread(); err != nil {
		return core.DeviceID{}, err
	}
	if !gctx.initialized {
		return core.DeviceID{}, ErrNotInitialized
	}
	return gctx.device, nil
}

// QueueID returns the raw queue handle. Restricted to the core thread.
func (gctx *Context) QueueID() (core.QueueID, error) {
	if err := gctx.ct.EnsureCoreThread(); err != nil {
		return core.QueueID{}, err
	}
	if !gctx.initialized {
		return core.QueueID{}, ErrNotInitialized
	}
	return gctx.queue, nil
}

// CheckLimits logs basic device limits. Runs on the core thread via the
// dispatcher.
func (gctx *Context) CheckLimits() error {
	return gctx.ct.Submit(func() {
		if !gctx.initialized {
			return
		}
		limits, err := core.GetDeviceLimits(gctx.device)
		if err != nil {
			corethread.Logger().Warn("gpu: failed to get device limits", slog.Any("error", err))
			return
		}
		corethread.Logger().Debug("gpu: device limits",
			slog.Uint64("max_texture_dimension_2d", uint64(limits.MaxTextureDimension2D)),
			slog.Uint64("max_buffer_size", limits.MaxBufferSize))
	}, true)
}

// ContextOption configures a Context during creation.
type ContextOption func(*contextOptions)

type contextOptions struct {
	label string
	power gputypes.PowerPreference
}

func defaultContextOptions() contextOptions {
	return contextOptions{
		label: "corethread-device",
		power: gputypes.PowerPreferenceHighPerformance,
	}
}

// WithLabel sets the debug label of the created device.
func WithLabel(label string) ContextOption {
	return func(o *contextOptions) {
		if label != "" {
			o.label = label
		}
	}
}

// WithPowerPreference selects the adapter power preference.
func WithPowerPreference(p gputypes.PowerPreference) ContextOption {
	return func(o *contextOptions) {
		o.power = p
	}
}
