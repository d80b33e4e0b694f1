package gl

import (
	"testing"

	"github.com/webglnative/runtime/glsl"
	"github.com/webglnative/runtime/handle"
)

const testVertexSource = `attribute vec3 position;
uniform mat4 modelViewMatrix;
uniform mat2 rotation;
varying vec3 vColor;
void main() {
  vec2 r = rotation * position.xy;
  vColor = position;
  gl_Position = modelViewMatrix * vec4(r, position.z, 1.0);
}
`

const testFragmentSource = `precision mediump float;
varying vec3 vColor;
uniform vec3 uColor;
void main() {
  gl_FragColor = vec4(vColor + uColor, 1.0);
}
`

func linkTestProgram(t *testing.T, c *Context) (vsh, fsh, prog handle.Handle) {
	t.Helper()
	vs, err := c.CreateShader(glsl.StageVertex)
	if err != nil {
		t.Fatalf("CreateShader(vertex): %v", err)
	}
	if err := c.ShaderSource(vs, testVertexSource); err != nil {
		t.Fatalf("ShaderSource(vertex): %v", err)
	}
	if err := c.CompileShader(vs); err != nil {
		t.Fatalf("CompileShader(vertex): %v", err)
	}

	fs, err := c.CreateShader(glsl.StageFragment)
	if err != nil {
		t.Fatalf("CreateShader(fragment): %v", err)
	}
	if err := c.ShaderSource(fs, testFragmentSource); err != nil {
		t.Fatalf("ShaderSource(fragment): %v", err)
	}
	if err := c.CompileShader(fs); err != nil {
		t.Fatalf("CompileShader(fragment): %v", err)
	}

	p, err := c.CreateProgram()
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	if err := c.AttachShader(p, vs); err != nil {
		t.Fatalf("AttachShader(vertex): %v", err)
	}
	if err := c.AttachShader(p, fs); err != nil {
		t.Fatalf("AttachShader(fragment): %v", err)
	}
	if err := c.LinkProgram(p); err != nil {
		status, _ := c.GetShaderCompileStatus(vs)
		t.Fatalf("LinkProgram: %v (vertex compile status %v)", err, status)
	}
	return vs, fs, p
}

func TestLinkProgramMirrorsAttributesAndUniforms(t *testing.T) {
	c := newTestContext()
	_, _, p := linkTestProgram(t, c)

	if loc, err := c.GetAttribLocation(p, "position"); err != nil || loc != 0 {
		t.Fatalf("GetAttribLocation(position) = %d, %v", loc, err)
	}

	if _, err := c.GetUniformLocation(p, "modelViewMatrix"); err != nil {
		t.Fatalf("GetUniformLocation(modelViewMatrix): %v", err)
	}
	if _, err := c.GetUniformLocation(p, "rotation"); err != nil {
		t.Fatalf("GetUniformLocation(rotation): %v", err)
	}
	if _, err := c.GetUniformLocation(p, "uColor"); err != nil {
		t.Fatalf("GetUniformLocation(uColor): %v", err)
	}
	if _, err := c.GetUniformLocation(p, "doesNotExist"); err == nil {
		t.Fatal("expected ErrUnknownUniform for an undeclared uniform name")
	}
}

func TestGetUniformLocationEncodesMatrixKindForMat2Mat3Only(t *testing.T) {
	c := newTestContext()
	_, _, p := linkTestProgram(t, c)

	rotLoc, err := c.GetUniformLocation(p, "rotation")
	if err != nil {
		t.Fatalf("GetUniformLocation(rotation): %v", err)
	}
	if rotLoc.kind() != UniformKindMatrix {
		t.Fatalf("expected mat2 uniform to encode UniformKindMatrix, got %v", rotLoc.kind())
	}

	mvLoc, err := c.GetUniformLocation(p, "modelViewMatrix")
	if err != nil {
		t.Fatalf("GetUniformLocation(modelViewMatrix): %v", err)
	}
	if mvLoc.kind() != UniformKindBlockMember {
		t.Fatalf("expected mat4 uniform to encode UniformKindBlockMember, got %v", mvLoc.kind())
	}
}

func TestUniformSettersRejectWrongType(t *testing.T) {
	c := newTestContext()
	_, _, p := linkTestProgram(t, c)
	if err := c.UseProgram(p); err != nil {
		t.Fatalf("UseProgram: %v", err)
	}

	loc, err := c.GetUniformLocation(p, "uColor")
	if err != nil {
		t.Fatalf("GetUniformLocation(uColor): %v", err)
	}
	if err := c.Uniform1f(loc, 1.0); err == nil {
		t.Fatal("expected ErrWrongUniformType setting a vec3 uniform via Uniform1f")
	}
	if err := c.Uniform3f(loc, 1, 2, 3); err != nil {
		t.Fatalf("Uniform3f(uColor): %v", err)
	}
}
