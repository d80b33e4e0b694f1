package gl

import (
	"testing"

	"github.com/webglnative/runtime/backend"
	"github.com/webglnative/runtime/backend/recording"
	"github.com/webglnative/runtime/handle"
)

func TestFingerprintStableForIdenticalState(t *testing.T) {
	state := DrawState{}
	state.Attribs[0] = AttribPointer{Enabled: true, Components: 3, ByteOffset: 0, ByteStride: 12}
	a := Fingerprint(handle.Handle(1), state)
	b := Fingerprint(handle.Handle(1), state)
	if a != b {
		t.Fatal("expected identical (program, state) pairs to fingerprint identically")
	}

	state2 := state
	state2.CullMode = backend.CullBack
	if Fingerprint(handle.Handle(1), state2) == a {
		t.Fatal("expected differing cull mode to change the fingerprint")
	}
}

func TestPipelineCacheHitsAndEvicts(t *testing.T) {
	rb := recording.New()
	c := NewContext(rb)
	c.pipelines = NewPipelineCache(1) // force collisions onto a single slot

	_, _, p1 := linkTestProgram(t, c)
	prog1 := c.programs.Get(p1)

	state := DrawState{}
	ph1, err := c.pipelineFor(p1, prog1, state)
	if err != nil {
		t.Fatalf("pipelineFor (first): %v", err)
	}
	if c.pipelines.Misses != 1 {
		t.Fatalf("expected 1 miss, got %d", c.pipelines.Misses)
	}

	ph1Again, err := c.pipelineFor(p1, prog1, state)
	if err != nil {
		t.Fatalf("pipelineFor (repeat): %v", err)
	}
	if ph1Again != ph1 {
		t.Fatal("expected a repeat fingerprint to hit the cache and return the same pipeline")
	}
	if c.pipelines.Hits != 1 {
		t.Fatalf("expected 1 hit, got %d", c.pipelines.Hits)
	}

	state.CullMode = backend.CullBack
	if _, err := c.pipelineFor(p1, prog1, state); err != nil {
		t.Fatalf("pipelineFor (different state): %v", err)
	}
	if c.pipelines.Evictions != 1 {
		t.Fatalf("expected the single-slot cache to evict on the differing fingerprint, got %d evictions", c.pipelines.Evictions)
	}
}
