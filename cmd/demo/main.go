// Command demo wires a real platform window, the native WebGPU backend, and
// a Runtime together and drives it with a fixed, hand-written sequence of
// bridge calls reproducing the cube-draw and texture-lifecycle scenarios —
// there is no script engine in scope to host a guest bundle, so this plays
// the role the teacher's examples/many_cubes.go plays for oxy-go: a
// standalone program that proves the whole stack moves real frames.
package main

import (
	"encoding/binary"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/webglnative/runtime/backend/wgpu"
	"github.com/webglnative/runtime/bridge"
	"github.com/webglnative/runtime/runtime"
	"github.com/webglnative/runtime/window"
)

func main() {
	w := window.NewWindow(
		window.WithTitle("webglnative runtime — demo"),
		window.WithWidth(800),
		window.WithHeight(600),
	)

	b, err := wgpu.New(w.SurfaceDescriptor(), w.Width(), w.Height())
	if err != nil {
		log.Fatalf("demo: backend bring-up failed: %v", err)
	}

	rt := runtime.New(runtime.Config{
		Width: w.Width(), Height: w.Height(), Title: "webglnative runtime — demo",
		TargetFrameRate: 60, Debug: true,
	}, b, runtime.WithWindow(w))

	br := rt.Bridge()
	progH := buildCubeProgram(br)
	vbH := buildCubeGeometry(br, progH)
	setMVP(br, progH)
	buildDemoTexture(br)

	rt.SetTickCallback(func(deltaTime float32) {
		if _, err := br.UseProgram(bridge.Args{progH}); err != nil {
			log.Printf("demo: UseProgram: %v", err)
			return
		}
		if _, err := br.BindBuffer(bridge.Args{float64(0), vbH}); err != nil {
			log.Printf("demo: BindBuffer: %v", err)
			return
		}
		if _, err := br.DrawElements(bridge.Args{float64(36), float64(0)}); err != nil {
			log.Printf("demo: DrawElements: %v", err)
		}
	})

	log.Println("demo: starting frame loop — Esc closes the window")
	rt.Run()
}

// buildCubeProgram compiles a passthrough vertex shader and a solid-color
// fragment shader and links them, reproducing Testable Properties scenario
// 1's shader pair.
func buildCubeProgram(br *bridge.Bridge) float64 {
	vsV, err := br.CreateShader(bridge.Args{float64(0)})
	must(err, "CreateShader(vertex)")
	fsV, err := br.CreateShader(bridge.Args{float64(1)})
	must(err, "CreateShader(fragment)")
	vsH, fsH := float64(vsV.(uint32)), float64(fsV.(uint32))

	vsSrc := `
attribute vec3 position;
uniform mat4 modelViewMatrix;
uniform mat4 projectionMatrix;
void main() {
	gl_Position = projectionMatrix * modelViewMatrix * vec4(position, 1.0);
}`
	fsSrc := `
precision mediump float;
uniform vec3 uColor;
void main() {
	gl_FragColor = vec4(uColor, 1.0);
}`
	_, err = br.ShaderSource(bridge.Args{vsH, vsSrc})
	must(err, "ShaderSource(vertex)")
	_, err = br.ShaderSource(bridge.Args{fsH, fsSrc})
	must(err, "ShaderSource(fragment)")
	_, err = br.CompileShader(bridge.Args{vsH})
	must(err, "CompileShader(vertex)")
	_, err = br.CompileShader(bridge.Args{fsH})
	must(err, "CompileShader(fragment)")

	progV, err := br.CreateProgram(bridge.Args{})
	must(err, "CreateProgram")
	progH := float64(progV.(uint32))
	_, err = br.AttachShader(bridge.Args{progH, vsH})
	must(err, "AttachShader(vertex)")
	_, err = br.AttachShader(bridge.Args{progH, fsH})
	must(err, "AttachShader(fragment)")
	_, err = br.LinkProgram(bridge.Args{progH})
	must(err, "LinkProgram")
	return progH
}

// buildCubeGeometry uploads the 8-vertex, 36-index box named in scenario 1.
func buildCubeGeometry(br *bridge.Bridge, progH float64) float64 {
	_, err := br.UseProgram(bridge.Args{progH})
	must(err, "UseProgram")

	verts := []float32{
		-0.5, -0.5, -0.5, 0.5, -0.5, -0.5, 0.5, 0.5, -0.5, -0.5, 0.5, -0.5,
		-0.5, -0.5, 0.5, 0.5, -0.5, 0.5, 0.5, 0.5, 0.5, -0.5, 0.5, 0.5,
	}
	indices := []uint16{
		0, 1, 2, 2, 3, 0,
		4, 6, 5, 6, 4, 7,
		4, 0, 3, 3, 7, 4,
		1, 5, 6, 6, 2, 1,
		3, 2, 6, 6, 7, 3,
		4, 5, 1, 1, 0, 4,
	}

	vertBytes := make([]byte, len(verts)*4)
	for i, f := range verts {
		binary.LittleEndian.PutUint32(vertBytes[i*4:], math.Float32bits(f))
	}
	idxBytes := make([]byte, len(indices)*2)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(idxBytes[i*2:], idx)
	}

	vbV, err := br.CreateBuffer(bridge.Args{})
	must(err, "CreateBuffer(vertex)")
	vbH := float64(vbV.(uint32))
	_, err = br.BindBuffer(bridge.Args{float64(0), vbH})
	must(err, "BindBuffer(array)")
	_, err = br.BufferData(bridge.Args{float64(0), vertBytes, float64(0)})
	must(err, "BufferData(vertex)")

	posLoc, err := br.GetAttribLocation(bridge.Args{progH, "position"})
	must(err, "GetAttribLocation")
	loc := posLoc.(int)
	_, err = br.EnableVertexAttribArray(bridge.Args{float64(loc)})
	must(err, "EnableVertexAttribArray")
	_, err = br.VertexAttribPointer(bridge.Args{float64(loc), float64(3), float64(0), float64(12), false})
	must(err, "VertexAttribPointer")

	ibV, err := br.CreateBuffer(bridge.Args{})
	must(err, "CreateBuffer(index)")
	ibH := float64(ibV.(uint32))
	_, err = br.BindBuffer(bridge.Args{float64(1), ibH})
	must(err, "BindBuffer(element)")
	_, err = br.BufferData(bridge.Args{float64(1), idxBytes, float64(0)})
	must(err, "BufferData(index)")

	return vbH
}

// setMVP writes the model-view and projection matrices through the
// std140 mat4 uniform path, built with mgl32 rather than hand-rolled
// matrix math.
func setMVP(br *bridge.Bridge, progH float64) {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 800.0/600.0, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{3, 3, 3}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})

	mvLoc, err := br.GetUniformLocation(bridge.Args{progH, "modelViewMatrix"})
	must(err, "GetUniformLocation(modelViewMatrix)")
	_, err = br.UniformMatrix4fv(bridge.Args{float64(mvLoc.(uint32)), matrixBytes(view)})
	must(err, "UniformMatrix4fv(modelViewMatrix)")

	projLoc, err := br.GetUniformLocation(bridge.Args{progH, "projectionMatrix"})
	must(err, "GetUniformLocation(projectionMatrix)")
	_, err = br.UniformMatrix4fv(bridge.Args{float64(projLoc.(uint32)), matrixBytes(proj)})
	must(err, "UniformMatrix4fv(projectionMatrix)")

	colorLoc, err := br.GetUniformLocation(bridge.Args{progH, "uColor"})
	must(err, "GetUniformLocation(uColor)")
	_, err = br.Uniform3f(bridge.Args{float64(colorLoc.(uint32)), 0.2, 0.6, 0.9})
	must(err, "Uniform3f(uColor)")
}

// buildDemoTexture reproduces Testable Properties scenario 2: a 64x64 RGB
// texture with its min filter coerced to LINEAR when no mipmaps are present.
func buildDemoTexture(br *bridge.Bridge) {
	texV, err := br.CreateTexture(bridge.Args{})
	must(err, "CreateTexture")
	texH := float64(texV.(uint32))
	_, err = br.BindTexture(bridge.Args{texH, false})
	must(err, "BindTexture")

	const w, h = 64, 64
	pixels := make([]byte, w*h*3)
	for i := range pixels {
		pixels[i] = byte(i % 256)
	}
	_, err = br.TexImage2D(bridge.Args{float64(w), float64(h), float64(1), pixels}) // 1 = SourceRGB
	must(err, "TexImage2D")
	// MIN_FILTER=LINEAR_MIPMAP_LINEAR; no mipmaps were uploaded, so the
	// texture manager coerces this down to LINEAR (Testable Properties
	// scenario 2).
	_, err = br.TexParameteri(bridge.Args{float64(2), float64(1), float64(0), float64(0)})
	must(err, "TexParameteri")
}

func matrixBytes(m mgl32.Mat4) []byte {
	out := make([]byte, 16*4)
	for i, f := range m {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func must(err error, step string) {
	if err != nil {
		log.Fatalf("demo: %s: %v", step, err)
	}
}
