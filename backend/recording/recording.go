// Package recording provides a Backend implementation that performs no
// real GPU work: it records every call it receives and hands back
// monotonically increasing fake handles. It exists so gl package tests can
// exercise the full flush pipeline (pipeline caching, uniform block
// application, draw submission) without a GPU, mirroring the call-counter
// mock-device pattern used to test HAL buffer code elsewhere in the
// ecosystem.
package recording

import (
	"fmt"
	"sync"

	"github.com/webglnative/runtime/backend"
)

// Call is one recorded backend invocation, in order.
type Call struct {
	Method string
	Args   []any
}

// Backend records every call made to it and answers deterministically:
// Make* calls return sequential handles starting at 1 (0 stays reserved so
// a zero-value handle always reads as "none").
type Backend struct {
	mu sync.Mutex

	Calls []Call

	nextBuffer   uint64
	nextImage    uint64
	nextView     uint64
	nextSampler  uint64
	nextShader   uint64
	nextPipeline uint64

	buffers   map[backend.BufferHandle][]byte
	shaderOK  map[backend.ShaderHandle]bool
	pipelines map[backend.PipelineHandle]backend.PipelineDescriptor

	// AppliedBlocks records the last ApplyUniformBlock payload seen per
	// (pipeline, stage), so tests can assert on what a flush actually wrote.
	AppliedBlocks map[backend.PipelineHandle]map[backend.ShaderStage][]byte

	// FailMakePipeline, when set, makes MakePipeline return this error
	// instead of succeeding — used to exercise gl's error paths.
	FailMakePipeline error
}

// New constructs an empty recording backend.
func New() *Backend {
	return &Backend{
		buffers:       make(map[backend.BufferHandle][]byte),
		shaderOK:      make(map[backend.ShaderHandle]bool),
		pipelines:     make(map[backend.PipelineHandle]backend.PipelineDescriptor),
		AppliedBlocks: make(map[backend.PipelineHandle]map[backend.ShaderStage][]byte),
	}
}

func (b *Backend) record(method string, args ...any) {
	b.Calls = append(b.Calls, Call{Method: method, Args: args})
}

func (b *Backend) MakeBuffer(size int, usage backend.BufferUsage) (backend.BufferHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextBuffer++
	h := backend.BufferHandle(b.nextBuffer)
	b.buffers[h] = make([]byte, size)
	b.record("MakeBuffer", size, usage)
	return h, nil
}

func (b *Backend) UpdateBuffer(h backend.BufferHandle, byteOffset int, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, ok := b.buffers[h]
	if !ok {
		return fmt.Errorf("recording: unknown buffer handle %d", h)
	}
	if byteOffset+len(data) > len(buf) {
		return fmt.Errorf("recording: update out of bounds")
	}
	copy(buf[byteOffset:], data)
	b.record("UpdateBuffer", h, byteOffset, len(data))
	return nil
}

func (b *Backend) DestroyBuffer(h backend.BufferHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.buffers, h)
	b.record("DestroyBuffer", h)
}

func (b *Backend) MakeImage(desc backend.ImageDescriptor) (backend.ImageHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextImage++
	b.record("MakeImage", desc)
	return backend.ImageHandle(b.nextImage), nil
}

func (b *Backend) UpdateImage(h backend.ImageHandle, level int, pixels []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("UpdateImage", h, level, len(pixels))
	return nil
}

func (b *Backend) MakeView(h backend.ImageHandle) (backend.ViewHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextView++
	b.record("MakeView", h)
	return backend.ViewHandle(b.nextView), nil
}

func (b *Backend) MakeSampler(desc backend.SamplerDescriptor) (backend.SamplerHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSampler++
	b.record("MakeSampler", desc)
	return backend.SamplerHandle(b.nextSampler), nil
}

func (b *Backend) DestroyImage(h backend.ImageHandle)     { b.record("DestroyImage", h) }
func (b *Backend) DestroyView(h backend.ViewHandle)       { b.record("DestroyView", h) }
func (b *Backend) DestroySampler(h backend.SamplerHandle) { b.record("DestroySampler", h) }

func (b *Backend) MakeShader(stage backend.ShaderStage, source string) (backend.ShaderHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextShader++
	h := backend.ShaderHandle(b.nextShader)
	b.shaderOK[h] = true
	b.record("MakeShader", stage, len(source))
	return h, nil
}

func (b *Backend) DestroyShader(h backend.ShaderHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.shaderOK, h)
	b.record("DestroyShader", h)
}

func (b *Backend) QueryShaderValid(h backend.ShaderHandle) (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shaderOK[h], ""
}

func (b *Backend) MakePipeline(desc backend.PipelineDescriptor) (backend.PipelineHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailMakePipeline != nil {
		return 0, b.FailMakePipeline
	}
	b.nextPipeline++
	h := backend.PipelineHandle(b.nextPipeline)
	b.pipelines[h] = desc
	b.AppliedBlocks[h] = make(map[backend.ShaderStage][]byte)
	b.record("MakePipeline", desc)
	return h, nil
}

func (b *Backend) DestroyPipeline(h backend.PipelineHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pipelines, h)
	delete(b.AppliedBlocks, h)
	b.record("DestroyPipeline", h)
}

// GetUniformLocation fabricates a deterministic location by linear-scanning
// the pipeline's recorded uniform blocks for a member named name.
func (b *Backend) GetUniformLocation(p backend.PipelineHandle, name string) (backend.UniformLocation, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	desc, ok := b.pipelines[p]
	if !ok {
		return 0, false
	}
	var loc uint64 = 1
	for _, block := range desc.UniformBlocks {
		for _, m := range block.Uniforms {
			if m.Name == name {
				return backend.UniformLocation(loc), true
			}
			loc++
		}
	}
	return 0, false
}

func (b *Backend) UniformMatrix2fv(p backend.PipelineHandle, loc backend.UniformLocation, data []float32) error {
	b.record("UniformMatrix2fv", p, loc, len(data))
	return nil
}

func (b *Backend) UniformMatrix3fv(p backend.PipelineHandle, loc backend.UniformLocation, data []float32) error {
	b.record("UniformMatrix3fv", p, loc, len(data))
	return nil
}

func (b *Backend) UniformMatrix4fv(p backend.PipelineHandle, loc backend.UniformLocation, data []float32) error {
	b.record("UniformMatrix4fv", p, loc, len(data))
	return nil
}

func (b *Backend) ApplyPipeline(p backend.PipelineHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.pipelines[p]; !ok {
		return fmt.Errorf("recording: unknown pipeline handle %d", p)
	}
	b.record("ApplyPipeline", p)
	return nil
}

func (b *Backend) ApplyBindings(p backend.PipelineHandle, bindings backend.BindingsDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("ApplyBindings", p, bindings)
	return nil
}

func (b *Backend) ApplyUniformBlock(p backend.PipelineHandle, stage backend.ShaderStage, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	blocks, ok := b.AppliedBlocks[p]
	if !ok {
		return fmt.Errorf("recording: unknown pipeline handle %d", p)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	blocks[stage] = cp
	b.record("ApplyUniformBlock", p, stage, len(data))
	return nil
}

func (b *Backend) Draw(d backend.DrawDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Draw", d)
	return nil
}

var _ backend.Backend = (*Backend)(nil)
