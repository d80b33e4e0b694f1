package gl

import (
	"fmt"

	"github.com/webglnative/runtime/backend"
	"github.com/webglnative/runtime/glsl"
	"github.com/webglnative/runtime/handle"
)

// CreateProgram allocates a new, unlinked Program.
func (c *Context) CreateProgram() (handle.Handle, error) {
	h, err := c.programs.Alloc(Program{vertex: handle.Invalid, fragment: handle.Invalid})
	if err != nil {
		return handle.Invalid, ErrAtCapacity
	}
	return h, nil
}

// AttachShader attaches sh to p's vertex or fragment stage, as determined
// by sh's own stage. Attaching a second shader for the same stage replaces
// the first (spec §4.6 step 2).
func (c *Context) AttachShader(p handle.Handle, sh handle.Handle) error {
	prog := c.programs.Get(p)
	if prog == nil {
		return ErrInvalidHandle
	}
	shEnt := c.shaders.Get(sh)
	if shEnt == nil {
		return ErrInvalidHandle
	}
	switch shEnt.stage {
	case glsl.StageVertex:
		prog.vertex = sh
	case glsl.StageFragment:
		prog.fragment = sh
	}
	return nil
}

// LinkProgram runs the full two-pass translation and link algorithm (spec
// §4.6 steps 3-9):
//
//  1. Harvest each stage's own declared uniforms/samplers (already done by
//     CompileShader; reused here).
//  2. Build the cross-stage union, rejecting conflicting re-declarations.
//  3. Re-translate each stage, emitting only the union members that
//     actually appear as tokens in that stage's body.
//  4. Compute std140 layout per stage over the surviving members.
//  5. Emit final desktop-GLSL source per stage and hand it to the backend.
func (c *Context) LinkProgram(p handle.Handle) error {
	prog := c.programs.Get(p)
	if prog == nil {
		return ErrInvalidHandle
	}
	prog.linked = false
	prog.infoLog = ""

	vsh := c.shaders.Get(prog.vertex)
	fsh := c.shaders.Get(prog.fragment)
	if vsh == nil || fsh == nil {
		prog.infoLog = "program missing an attached vertex or fragment shader"
		return ErrLinkFailed
	}
	if vsh.status != CompileSuccess || fsh.status != CompileSuccess {
		prog.infoLog = "attached shader has not compiled successfully"
		return ErrLinkFailed
	}

	union := map[string]glsl.UniformType{}
	order := []string{}
	addOwn := func(uniforms []glsl.UniformDescriptor) error {
		for _, u := range uniforms {
			if existing, ok := union[u.Name]; ok {
				if existing != u.Type {
					return fmt.Errorf("uniform %q redeclared with a different type across stages", u.Name)
				}
				continue
			}
			union[u.Name] = u.Type
			order = append(order, u.Name)
		}
		return nil
	}
	if err := addOwn(vsh.translated.Uniforms); err != nil {
		prog.infoLog = err.Error()
		return ErrLinkFailed
	}
	if err := addOwn(fsh.translated.Uniforms); err != nil {
		prog.infoLog = err.Error()
		return ErrLinkFailed
	}

	samplerUnion := map[string]glsl.SamplerKind{}
	samplerOrder := []string{}
	for _, stageRes := range []*glsl.ParseResult{vsh.translated, fsh.translated} {
		for _, s := range stageRes.Samplers {
			if _, ok := samplerUnion[s.Name]; !ok {
				samplerUnion[s.Name] = s.Kind
				samplerOrder = append(samplerOrder, s.Name)
			}
		}
	}

	vUniforms, vSamplers, vNeedsFragOut := filterForStage(glsl.StageVertex, vsh.translated.Body, order, union, samplerOrder, samplerUnion, false)
	fUniforms, fSamplers, fNeedsFragOut := filterForStage(glsl.StageFragment, fsh.translated.Body, order, union, samplerOrder, samplerUnion, fsh.translated.FragColorUsed && !fsh.translated.UserDeclaredOut)

	vDescs := toPtrSlice(vUniforms)
	vBlockSize, err := glsl.ComputeLayout(vDescs)
	if err != nil {
		prog.infoLog = err.Error()
		return ErrLinkFailed
	}
	fDescs := toPtrSlice(fUniforms)
	fBlockSize, err := glsl.ComputeLayout(fDescs)
	if err != nil {
		prog.infoLog = err.Error()
		return ErrLinkFailed
	}

	vSource := glsl.EmitSource(glsl.StageVertex, vUniforms, vSamplers, vNeedsFragOut, vsh.translated.Body)
	fSource := glsl.EmitSource(glsl.StageFragment, fUniforms, fSamplers, fNeedsFragOut, fsh.translated.Body)

	backendVS, err := c.backend.MakeShader(backend.StageVertex, vSource)
	if err != nil {
		prog.infoLog = fmt.Sprintf("backend rejected vertex shader: %v", err)
		return ErrLinkFailed
	}
	if valid, log := c.backend.QueryShaderValid(backendVS); !valid {
		prog.infoLog = log
		return ErrLinkFailed
	}
	backendFS, err := c.backend.MakeShader(backend.StageFragment, fSource)
	if err != nil {
		prog.infoLog = fmt.Sprintf("backend rejected fragment shader: %v", err)
		return ErrLinkFailed
	}
	if valid, log := c.backend.QueryShaderValid(backendFS); !valid {
		prog.infoLog = log
		return ErrLinkFailed
	}

	prog.uniforms = mergeUniforms(vUniforms, fUniforms)
	prog.samplers = mergeSamplers(vSamplers, fSamplers)
	prog.attributes = vsh.translated.Attributes
	prog.vertexBlockSize = vBlockSize
	prog.fragmentBlockSize = fBlockSize
	prog.vertexBlockBytes = make([]byte, vBlockSize)
	prog.fragmentBlockBytes = make([]byte, fBlockSize)
	prog.backendVertex = backendVS
	prog.backendFragment = backendFS
	prog.hasPipeline = false
	prog.linked = true
	return nil
}

func toPtrSlice(d []glsl.UniformDescriptor) []*glsl.UniformDescriptor {
	out := make([]*glsl.UniformDescriptor, len(d))
	for i := range d {
		out[i] = &d[i]
	}
	return out
}

// filterForStage builds the emitted uniform/sampler lists for one stage: a
// union member survives only if its name appears as a whole-word token in
// that stage's rewritten body (spec §4.5 step 4, §4.6 step 4).
func filterForStage(
	stage glsl.Stage,
	body string,
	uniformOrder []string,
	uniformUnion map[string]glsl.UniformType,
	samplerOrder []string,
	samplerUnion map[string]glsl.SamplerKind,
	forceFragOut bool,
) (uniforms []glsl.UniformDescriptor, samplers []glsl.SamplerDescriptor, needsFragOut bool) {
	for _, name := range uniformOrder {
		if glsl.UsesIdentifier(body, name) {
			uniforms = append(uniforms, glsl.UniformDescriptor{Name: name, Type: uniformUnion[name]})
		}
	}
	for _, name := range samplerOrder {
		if glsl.UsesIdentifier(body, name) {
			samplers = append(samplers, glsl.SamplerDescriptor{Name: name, Kind: samplerUnion[name], Stage: stage})
		}
	}
	return uniforms, samplers, forceFragOut
}

func mergeUniforms(v, f []glsl.UniformDescriptor) []programUniform {
	byName := map[string]*programUniform{}
	var out []programUniform
	for _, u := range v {
		pu := programUniform{name: u.Name, typ: u.Type, arrayCount: u.ArrayCount, inVertex: true, vertexDesc: u}
		out = append(out, pu)
		byName[u.Name] = &out[len(out)-1]
	}
	for _, u := range f {
		if existing, ok := byName[u.Name]; ok {
			existing.inFragment = true
			existing.fragDesc = u
			continue
		}
		pu := programUniform{name: u.Name, typ: u.Type, arrayCount: u.ArrayCount, inFragment: true, fragDesc: u}
		out = append(out, pu)
		byName[u.Name] = &out[len(out)-1]
	}
	return out
}

func mergeSamplers(v, f []glsl.SamplerDescriptor) []programSampler {
	var out []programSampler
	unit := 0
	for _, s := range v {
		out = append(out, programSampler{name: s.Name, kind: s.Kind, stage: glsl.StageVertex, unit: unit})
		unit++
	}
	for _, s := range f {
		out = append(out, programSampler{name: s.Name, kind: s.Kind, stage: glsl.StageFragment, unit: unit})
		unit++
	}
	return out
}

// DeleteProgram releases p's backend shader resources (if any) and its
// handle-table slot.
func (c *Context) DeleteProgram(p handle.Handle) error {
	prog := c.programs.Get(p)
	if prog == nil {
		return ErrInvalidHandle
	}
	if prog.linked {
		c.backend.DestroyShader(prog.backendVertex)
		c.backend.DestroyShader(prog.backendFragment)
	}
	if prog.hasPipeline {
		c.backend.DestroyPipeline(prog.pipeline)
	}
	if c.boundProgram == p {
		c.boundProgram = handle.Invalid
	}
	c.programs.Free(p)
	return nil
}

// UseProgram makes p the context's current program for subsequent uniform
// setter and draw calls.
func (c *Context) UseProgram(p handle.Handle) error {
	if p.IsZero() {
		c.boundProgram = handle.Invalid
		return nil
	}
	prog := c.programs.Get(p)
	if prog == nil {
		return ErrInvalidHandle
	}
	if !prog.linked {
		return ErrNotLinked
	}
	c.boundProgram = p
	return nil
}

func (c *Context) findUniform(prog *Program, name string) int {
	for i := range prog.uniforms {
		if prog.uniforms[i].name == name {
			return i
		}
	}
	return -1
}

// GetUniformLocation encodes name's position in p's uniform union as an
// opaque location the guest can pass back to the uniform setters (spec
// §4.6's "encoded uniform locations").
func (c *Context) GetUniformLocation(p handle.Handle, name string) (EncodedLocation, error) {
	prog := c.programs.Get(p)
	if prog == nil {
		return 0, ErrInvalidHandle
	}
	if !prog.linked {
		return 0, ErrNotLinked
	}
	idx := c.findUniform(prog, name)
	if idx < 0 {
		return 0, ErrUnknownUniform
	}
	kind := UniformKindBlockMember
	switch prog.uniforms[idx].typ {
	case glsl.Mat2, glsl.Mat3:
		kind = UniformKindMatrix
	}
	return encodeLocation(kind, idx), nil
}

// GetAttribLocation returns name's declaration-order index among p's
// vertex attributes, or -1 if no such attribute was declared.
func (c *Context) GetAttribLocation(p handle.Handle, name string) (int, error) {
	prog := c.programs.Get(p)
	if prog == nil {
		return -1, ErrInvalidHandle
	}
	for i, a := range prog.attributes {
		if a == name {
			return i, nil
		}
	}
	return -1, nil
}
