package gl

import (
	"testing"

	"github.com/webglnative/runtime/backend"
	"github.com/webglnative/runtime/backend/recording"
)

func TestFlushExecutesQueuedDrawCommand(t *testing.T) {
	rb := recording.New()
	c := NewContext(rb)
	_, _, p := linkTestProgram(t, c)
	if err := c.UseProgram(p); err != nil {
		t.Fatalf("UseProgram: %v", err)
	}

	vb, err := c.CreateBuffer()
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	if err := c.BindBuffer(TargetArrayBuffer, vb); err != nil {
		t.Fatalf("BindBuffer: %v", err)
	}
	verts := make([]byte, 3*3*4) // 3 vertices * vec3 * float32
	if err := c.BufferData(TargetArrayBuffer, verts, UsageStaticDraw); err != nil {
		t.Fatalf("BufferData: %v", err)
	}

	loc, err := c.GetAttribLocation(p, "position")
	if err != nil {
		t.Fatalf("GetAttribLocation: %v", err)
	}
	if err := c.EnableVertexAttribArray(loc); err != nil {
		t.Fatalf("EnableVertexAttribArray: %v", err)
	}
	if err := c.VertexAttribPointer(loc, 3, 0, 12, false); err != nil {
		t.Fatalf("VertexAttribPointer: %v", err)
	}

	mvLoc, err := c.GetUniformLocation(p, "modelViewMatrix")
	if err != nil {
		t.Fatalf("GetUniformLocation(modelViewMatrix): %v", err)
	}
	identity := []float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	if err := c.UniformMatrix4fv(mvLoc, identity); err != nil {
		t.Fatalf("UniformMatrix4fv: %v", err)
	}

	rotLoc, err := c.GetUniformLocation(p, "rotation")
	if err != nil {
		t.Fatalf("GetUniformLocation(rotation): %v", err)
	}
	if err := c.UniformMatrix2fv(rotLoc, []float32{1, 0, 0, 1}); err != nil {
		t.Fatalf("UniformMatrix2fv: %v", err)
	}

	colorLoc, err := c.GetUniformLocation(p, "uColor")
	if err != nil {
		t.Fatalf("GetUniformLocation(uColor): %v", err)
	}
	if err := c.Uniform3f(colorLoc, 0.1, 0.2, 0.3); err != nil {
		t.Fatalf("Uniform3f: %v", err)
	}

	if err := c.DrawArrays(3); err != nil {
		t.Fatalf("DrawArrays: %v", err)
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	prog := c.programs.Get(p)
	if !prog.hasPipeline {
		t.Fatal("expected flush to resolve and cache a pipeline")
	}

	sawDraw := false
	sawMatrix2fv := false
	for _, call := range rb.Calls {
		switch call.Method {
		case "Draw":
			sawDraw = true
		case "UniformMatrix2fv":
			sawMatrix2fv = true
		}
	}
	if !sawDraw {
		t.Fatal("expected Flush to issue a backend Draw call")
	}
	if !sawMatrix2fv {
		t.Fatal("expected the mat2 uniform to flush through the out-of-band UniformMatrix2fv path")
	}

	blocks := rb.AppliedBlocks[prog.pipeline]
	if len(blocks[backend.StageVertex]) == 0 {
		t.Fatal("expected a non-empty vertex uniform block to have been applied")
	}
	if len(blocks[backend.StageFragment]) == 0 {
		t.Fatal("expected a non-empty fragment uniform block to have been applied")
	}
}

// TestFlushSkipsStaleDrawAndStillRendersSubsequent is the stale-handle
// testable property (spec §8) and seed scenario 3: the first of two
// recorded draws references a vertex buffer deleted after it was
// recorded, so it is skipped individually; the second draw, recorded
// against a buffer that is still live, still renders. Flush itself must
// not return an error for this.
func TestFlushSkipsStaleDrawAndStillRendersSubsequent(t *testing.T) {
	rb := recording.New()
	c := NewContext(rb)
	_, _, p := linkTestProgram(t, c)
	if err := c.UseProgram(p); err != nil {
		t.Fatalf("UseProgram: %v", err)
	}

	staleVB, err := c.CreateBuffer()
	if err != nil {
		t.Fatalf("CreateBuffer(stale): %v", err)
	}
	if err := c.BindBuffer(TargetArrayBuffer, staleVB); err != nil {
		t.Fatalf("BindBuffer(stale): %v", err)
	}
	if err := c.BufferData(TargetArrayBuffer, make([]byte, 36), UsageStaticDraw); err != nil {
		t.Fatalf("BufferData(stale): %v", err)
	}
	if err := c.DrawArrays(3); err != nil {
		t.Fatalf("DrawArrays(stale): %v", err)
	}
	if err := c.DeleteBuffer(staleVB); err != nil {
		t.Fatalf("DeleteBuffer(stale): %v", err)
	}

	liveVB, err := c.CreateBuffer()
	if err != nil {
		t.Fatalf("CreateBuffer(live): %v", err)
	}
	if err := c.BindBuffer(TargetArrayBuffer, liveVB); err != nil {
		t.Fatalf("BindBuffer(live): %v", err)
	}
	if err := c.BufferData(TargetArrayBuffer, make([]byte, 36), UsageStaticDraw); err != nil {
		t.Fatalf("BufferData(live): %v", err)
	}
	if err := c.DrawArrays(3); err != nil {
		t.Fatalf("DrawArrays(live): %v", err)
	}

	if err := c.Flush(); err != nil {
		t.Fatalf("expected Flush to skip the stale draw and still render the live one without error, got: %v", err)
	}

	drawCount := 0
	for _, call := range rb.Calls {
		if call.Method == "Draw" {
			drawCount++
		}
	}
	if drawCount != 1 {
		t.Fatalf("expected exactly one backend Draw call (the live draw), got %d", drawCount)
	}
}
