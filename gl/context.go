package gl

import (
	"github.com/webglnative/runtime/backend"
	"github.com/webglnative/runtime/handle"
	"github.com/webglnative/runtime/staging"
)

// MaxTextureUnits bounds the active_texture unit range (spec §4.7).
const MaxTextureUnits = 16

// Context is one WebGL-subset graphics context: its own handle tables,
// bind-point state, draw-state machine, command queue, and pipeline
// cache, all sharing a single backend. The runtime package constructs one
// Context. Contexts are not allocated from a handle table, and nothing in
// this package limits how many are constructed; each is fully independent.
type Context struct {
	backend backend.Backend

	buffers  *handle.Table[Buffer]
	shaders  *handle.Table[ShaderEntity]
	programs *handle.Table[Program]
	textures *handle.Table[Texture]

	bufferStaging  *staging.Pool
	textureStaging *staging.Pool

	boundArrayBuffer   handle.Handle
	boundElementBuffer handle.Handle
	boundProgram       handle.Handle

	activeTextureUnit int
	boundTextures     [MaxTextureUnits]handle.Handle

	drawState DrawState
	queue     *CommandQueue
	pipelines *PipelineCache
}

// NewContext constructs a Context backed by b, with fresh handle tables at
// the spec's fixed capacities and fresh staging pools sized per spec §4.2.
func NewContext(b backend.Backend) *Context {
	return &Context{
		backend:            b,
		buffers:            handle.NewTable[Buffer](MaxBuffers),
		shaders:            handle.NewTable[ShaderEntity](MaxShaders),
		programs:           handle.NewTable[Program](MaxPrograms),
		textures:           handle.NewTable[Texture](MaxTextures),
		bufferStaging:      staging.NewPool(staging.BufferPoolBlockSize, staging.BufferPoolBlockCount),
		textureStaging:     staging.NewPool(staging.TexturePoolBlockSize, staging.TexturePoolBlockCount),
		queue:              NewCommandQueue(MaxQueuedCommands),
		pipelines:          NewPipelineCache(PipelineCacheSlots),
		boundArrayBuffer:   handle.Invalid,
		boundElementBuffer: handle.Invalid,
		boundProgram:       handle.Invalid,
	}
}

// Backend returns the backend the context was constructed with.
func (c *Context) Backend() backend.Backend { return c.backend }

// PipelineCacheStats reports the cumulative hit/miss/eviction counters of
// this context's pipeline cache (spec §8 "pipeline cache idempotence"),
// surfaced by the runtime package through its debug profiler.
func (c *Context) PipelineCacheStats() (hits, misses, evictions int) {
	return c.pipelines.Hits, c.pipelines.Misses, c.pipelines.Evictions
}
