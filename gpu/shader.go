// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/corethread"
	"github.com/gogpu/naga"
)

// shaderCache holds compiled SPIR-V keyed by label. It is owned by the
// core thread; the Context only touches it from queued commands.
type shaderCache struct {
	modules map[string][]uint32
}

func newShaderCache() *shaderCache {
	return &shaderCache{
		modules: make(map[string][]uint32),
	}
}

func (c *shaderCache) clear() {
	c.modules = make(map[string][]uint32)
}

// spirvWords converts compiled shader bytes into the 32-bit words the
// device API consumes. SPIR-V is little-endian.
func spirvWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words
}

// CompileShader compiles WGSL source to SPIR-V on the core thread and
// caches the result under label. Blocks until compilation has finished;
// a cached module is returned without recompiling.
func (gctx *Context) CompileShader(label, wgsl string) ([]uint32, error) {
	op, err := gctx.ct.SubmitReturn(func(op *corethread.AsyncOp) {
		if cached, ok := gctx.shaders.modules[label]; ok {
			op.Complete(cached)
			return
		}

		spirvBytes, err := naga.Compile(wgsl)
		if err != nil {
			op.Complete(fmt.Errorf("gpu: failed to compile shader %q: %w", label, err))
			return
		}

		words := spirvWords(spirvBytes)
		gctx.shaders.modules[label] = words
		corethread.Logger().Debug("gpu: shader compiled",
			slog.String("label", label),
			slog.Int("words", len(words)))
		op.Complete(words)
	}, true)
	if err != nil {
		return nil, err
	}

	switch v := op.Value().(type) {
	case error:
		return nil, v
	case []uint32:
		return v, nil
	default:
		return nil, ErrNotInitialized
	}
}

// ShaderCount returns the number of cached shader modules. Restricted to
// the core thread.
func (gctx *Context) ShaderCount() (int, error) {
	if err := gctx.ct.EnsureCoreThread(); err != nil {
		return 0, err
	}
	return len(gctx.shaders.modules), nil
}
