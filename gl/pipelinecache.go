package gl

import (
	"hash/fnv"

	"github.com/webglnative/runtime/backend"
	"github.com/webglnative/runtime/handle"
)

type pipelineCacheEntry struct {
	occupied    bool
	fingerprint uint64
	pipeline    backend.PipelineHandle
}

// PipelineCache is the C9 content-addressed pipeline cache: a direct-mapped
// fixed-size table keyed by a 64-bit fingerprint of (program, draw state).
// A fingerprint collision at the same slot evicts whatever previously
// occupied it — which, since each slot holds exactly one entry, is always
// the one entry that could be "oldest" there (spec §4.9).
type PipelineCache struct {
	slots      []pipelineCacheEntry
	Hits       int
	Misses     int
	Evictions  int
}

// NewPipelineCache constructs a cache with the given fixed slot count.
func NewPipelineCache(slots int) *PipelineCache {
	return &PipelineCache{slots: make([]pipelineCacheEntry, slots)}
}

// Fingerprint hashes everything that determines a pipeline's shape: the
// program's linked identity and the subset of draw state a pipeline
// object freezes (attribute layout, blend, depth, cull). Two draws with
// identical fingerprints are guaranteed interchangeable pipelines (spec
// §4.9 step 1).
func Fingerprint(programHandle handle.Handle, state DrawState) uint64 {
	h := fnv.New64a()
	write := func(v uint32) {
		h.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
	}
	write(uint32(programHandle))
	for _, a := range state.Attribs {
		if !a.Enabled {
			write(0)
			continue
		}
		write(1)
		write(uint32(a.Components))
		write(uint32(a.ByteOffset))
		write(uint32(a.ByteStride))
		if a.Normalized {
			write(1)
		} else {
			write(0)
		}
	}
	write(uint32(state.Blend))
	write(uint32(state.CullMode))
	if state.DepthTest {
		write(1)
	} else {
		write(0)
	}
	if state.DepthWrite {
		write(1)
	} else {
		write(0)
	}
	return h.Sum64()
}

// pipelineFor resolves the pipeline for (programHandle, prog, state),
// reusing a cached backend pipeline on a fingerprint hit or building and
// caching a new one on a miss (spec §4.9 steps 2-5). Called only from
// Flush, after the program's shaders are known to exist.
func (c *Context) pipelineFor(programHandle handle.Handle, prog *Program, state DrawState) (backend.PipelineHandle, error) {
	fp := Fingerprint(programHandle, state)
	slot := int(fp % uint64(len(c.pipelines.slots)))
	entry := &c.pipelines.slots[slot]

	if entry.occupied && entry.fingerprint == fp {
		c.pipelines.Hits++
		return entry.pipeline, nil
	}

	desc := buildPipelineDescriptor(prog, state)
	ph, err := c.backend.MakePipeline(desc)
	if err != nil {
		return 0, ErrBackendFailed
	}

	if entry.occupied {
		c.backend.DestroyPipeline(entry.pipeline)
		c.pipelines.Evictions++
	}
	c.pipelines.Misses++
	entry.occupied = true
	entry.fingerprint = fp
	entry.pipeline = ph
	return ph, nil
}

func buildPipelineDescriptor(prog *Program, state DrawState) backend.PipelineDescriptor {
	var layout []backend.VertexAttribute
	for i, a := range state.Attribs {
		if !a.Enabled {
			continue
		}
		layout = append(layout, backend.VertexAttribute{
			Location:   i,
			Components: a.Components,
			ByteOffset: a.ByteOffset,
			ByteStride: a.ByteStride,
			Normalized: a.Normalized,
		})
	}

	blocks := []backend.UniformBlockLayout{
		uniformBlockLayout(backend.StageVertex, prog.uniforms, prog.vertexBlockSize, true),
		uniformBlockLayout(backend.StageFragment, prog.uniforms, prog.fragmentBlockSize, false),
	}

	return backend.PipelineDescriptor{
		VertexShader:   prog.backendVertex,
		FragmentShader: prog.backendFragment,
		VertexLayout:   layout,
		UniformBlocks:  blocks,
		SamplerCount:   len(prog.samplers),
		Blend:          state.Blend,
		DepthTest:      state.DepthTest,
		DepthWrite:     state.DepthWrite,
		CullMode:       state.CullMode,
	}
}

func uniformBlockLayout(stage backend.ShaderStage, uniforms []programUniform, blockSize int, vertex bool) backend.UniformBlockLayout {
	var members []backend.UniformBlockMember
	for _, u := range uniforms {
		if vertex && u.inVertex {
			members = append(members, backend.UniformBlockMember{Name: u.name, ByteOffset: u.vertexDesc.ByteOffset, ByteSize: u.vertexDesc.ByteSize})
		}
		if !vertex && u.inFragment {
			members = append(members, backend.UniformBlockMember{Name: u.name, ByteOffset: u.fragDesc.ByteOffset, ByteSize: u.fragDesc.ByteSize})
		}
	}
	return backend.UniformBlockLayout{Stage: stage, ByteSize: blockSize, Uniforms: members}
}
