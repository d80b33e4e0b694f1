package glsl

import (
	"strconv"
	"strings"
	"testing"
)

const testVertexSource = `
precision highp float;
attribute vec3 position;
varying vec2 vUv;
uniform mat4 modelViewMatrix;
uniform mat4 projectionMatrix;
void main() {
	vUv = position.xy;
	gl_Position = projectionMatrix * modelViewMatrix * vec4(position, 1.0);
}
`

const testFragmentSource = `
precision mediump float;
varying vec2 vUv;
uniform sampler2D map;
uniform mat4 modelViewMatrix;
void main() {
	gl_FragColor = texture2D(map, vUv);
}
`

func TestTranslateVertexRewritesAttributeAndVarying(t *testing.T) {
	res, err := Translate(testVertexSource, StageVertex)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if !strings.Contains(res.Source, "in vec3 position;") {
		t.Fatalf("expected attribute rewritten to 'in', got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "out vec2 vUv;") {
		t.Fatalf("expected varying rewritten to 'out' in vertex stage, got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "#version 330") {
		t.Fatalf("expected #version 330 header, got:\n%s", res.Source)
	}
	if len(res.Attributes) != 1 || res.Attributes[0] != "position" {
		t.Fatalf("expected single attribute 'position', got %v", res.Attributes)
	}
	if len(res.Uniforms) != 2 {
		t.Fatalf("expected 2 uniforms, got %d", len(res.Uniforms))
	}
}

func TestTranslateFragmentRewritesTextureAndFragColor(t *testing.T) {
	res, err := Translate(testFragmentSource, StageFragment)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if !strings.Contains(res.Source, "in vec2 vUv;") {
		t.Fatalf("expected varying rewritten to 'in' in fragment stage, got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "texture(map, vUv)") {
		t.Fatalf("expected texture2D rewritten to texture(), got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "out vec4 webglFragColor;") {
		t.Fatalf("expected synthetic fragment output declared, got:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "webglFragColor = texture(map, vUv)") {
		t.Fatalf("expected gl_FragColor rewritten to synthetic output, got:\n%s", res.Source)
	}
	if len(res.Samplers) != 1 || res.Samplers[0].Name != "map" {
		t.Fatalf("expected single sampler 'map', got %v", res.Samplers)
	}
}

func TestComputeLayoutMat2ThenMat3(t *testing.T) {
	a := &UniformDescriptor{Name: "a", Type: Mat2}
	b := &UniformDescriptor{Name: "b", Type: Mat3}
	size, err := ComputeLayout([]*UniformDescriptor{a, b})
	if err != nil {
		t.Fatalf("compute layout: %v", err)
	}
	if a.ByteOffset != 0 || a.ByteSize != 32 {
		t.Fatalf("mat2 expected offset 0 size 32, got offset=%d size=%d", a.ByteOffset, a.ByteSize)
	}
	if b.ByteOffset != 32 || b.ByteSize != 48 {
		t.Fatalf("mat3 expected offset 32 size 48, got offset=%d size=%d", b.ByteOffset, b.ByteSize)
	}
	if size != 80 {
		t.Fatalf("expected block size 80, got %d", size)
	}
}

func TestComputeLayoutVec4Array(t *testing.T) {
	a := &UniformDescriptor{Name: "lights", Type: Vec4, ArrayCount: 3}
	size, err := ComputeLayout([]*UniformDescriptor{a})
	if err != nil {
		t.Fatalf("compute layout: %v", err)
	}
	if a.ByteStride != 16 || a.ByteSize != 48 {
		t.Fatalf("expected stride 16 size 48, got stride=%d size=%d", a.ByteStride, a.ByteSize)
	}
	if size != 48 {
		t.Fatalf("expected block size 48, got %d", size)
	}
}

func TestComputeLayoutRejectsUnsupportedArrayType(t *testing.T) {
	a := &UniformDescriptor{Name: "values", Type: Float, ArrayCount: 4}
	if _, err := ComputeLayout([]*UniformDescriptor{a}); err != ErrUnsupportedArrayType {
		t.Fatalf("expected ErrUnsupportedArrayType, got %v", err)
	}
}

func TestUsesIdentifierWholeWordOnly(t *testing.T) {
	body := "vec4 color = texture(map, vUv);"
	if !UsesIdentifier(body, "map") {
		t.Fatalf("expected 'map' to be found")
	}
	if UsesIdentifier(body, "ap") {
		t.Fatalf("expected partial token 'ap' not to match")
	}
	if UsesIdentifier(body, "mapX") {
		t.Fatalf("expected unrelated token 'mapX' not to match")
	}
}

func TestPreprocessorIfdefElseEndif(t *testing.T) {
	src := "#define USE_MAP\n#ifdef USE_MAP\nuniform sampler2D map;\n#else\nuniform vec4 color;\n#endif\n"
	macros := map[string]bool{}
	res, err := Parse(src, StageFragment, macros)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Samplers) != 1 {
		t.Fatalf("expected #ifdef branch taken, got samplers=%v", res.Samplers)
	}
	if len(res.Uniforms) != 0 {
		t.Fatalf("expected #else branch skipped, got uniforms=%v", res.Uniforms)
	}
}

func TestPreprocessorIfndefTakesElseWhenDefined(t *testing.T) {
	src := "#define USE_MAP\n#ifndef USE_MAP\nuniform sampler2D map;\n#else\nuniform vec4 color;\n#endif\n"
	res, err := Parse(src, StageFragment, map[string]bool{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Uniforms) != 1 || res.Uniforms[0].Name != "color" {
		t.Fatalf("expected else branch taken, got uniforms=%v", res.Uniforms)
	}
}

func TestTooManyUniformsRejected(t *testing.T) {
	src := "void main() {}\n"
	for i := 0; i < MaxUniformsPerStage+1; i++ {
		src = "uniform float u" + strconv.Itoa(i) + ";\n" + src
	}
	if _, err := Translate(src, StageVertex); err != ErrTooManyUniforms {
		t.Fatalf("expected ErrTooManyUniforms, got %v", err)
	}
}
