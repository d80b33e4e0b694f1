package glsl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reAttributeWord  = regexp.MustCompile(`\battribute\b`)
	reVaryingWord    = regexp.MustCompile(`\bvarying\b`)
	reTexture2DCall  = regexp.MustCompile(`\btexture2D\b`)
	reTextureCubeCall = regexp.MustCompile(`\btextureCube\b`)
	reFragColorWord  = regexp.MustCompile(`\bgl_FragColor\b`)
)

var scalarTypeTokens = map[string]UniformType{
	"float": Float,
	"int":   Int,
	"bool":  Int,
	"vec2":  Vec2,
	"ivec2": IVec2,
	"vec3":  Vec3,
	"ivec3": IVec3,
	"vec4":  Vec4,
	"ivec4": IVec4,
	"mat2":  Mat2,
	"mat3":  Mat3,
	"mat4":  Mat4,
}

var samplerTypeTokens = map[string]SamplerKind{
	"sampler2D":   Sampler2D,
	"samplerCube": SamplerCube,
}

// ParseResult is the raw, unlaid-out output of Parse: a rewritten body plus
// the uniform/sampler/attribute declarations this stage's own source named.
// Offsets in Uniforms are zero; the caller runs ComputeLayout once the
// cross-stage uniform union is known (spec §4.6 steps 3-5).
type ParseResult struct {
	Stage           Stage
	Body            string
	Uniforms        []UniformDescriptor
	Samplers        []SamplerDescriptor
	Attributes      []string
	FragColorUsed   bool
	UserDeclaredOut bool
}

func stripLineComment(s string) string {
	if i := strings.Index(s, "//"); i >= 0 {
		return s[:i]
	}
	return s
}

func stripSemicolon(s string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
}

// parseNameAndArray splits a declaration tail such as "modelViewMatrix" or
// "values[4]" into its bare name and array count (0 when not an array).
func parseNameAndArray(tail string) (name string, arrayCount int, err error) {
	tail = stripSemicolon(tail)
	open := strings.Index(tail, "[")
	if open < 0 {
		return tail, 0, nil
	}
	closeIdx := strings.Index(tail, "]")
	if closeIdx < open {
		return "", 0, ErrMalformedDeclaration
	}
	name = strings.TrimSpace(tail[:open])
	n, convErr := strconv.Atoi(strings.TrimSpace(tail[open+1 : closeIdx]))
	if convErr != nil {
		return "", 0, ErrMalformedDeclaration
	}
	return name, n, nil
}

// Parse runs the preprocessor over source, then classifies and rewrites
// every surviving line for the given stage, collecting uniform, sampler,
// and attribute declarations along the way. See spec §4.5 steps 1-4 and 6.
func Parse(source string, stage Stage, macros map[string]bool) (*ParseResult, error) {
	if macros == nil {
		macros = map[string]bool{}
	}
	lines, err := preprocess(source, macros)
	if err != nil {
		return nil, err
	}

	res := &ParseResult{Stage: stage}
	bodyLines := make([]string, 0, len(lines))
	uniformCount := 0
	samplerCount := 0

	for _, pl := range lines {
		if !pl.active {
			continue
		}
		code := stripLineComment(pl.text)
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		fields := strings.Fields(trimmed)

		switch {
		case fields[0] == "precision":
			continue

		case fields[0] == "uniform":
			if len(fields) < 3 {
				return nil, fmt.Errorf("%w: malformed uniform declaration %q", ErrMalformedDeclaration, trimmed)
			}
			typeTok := fields[1]
			name, arrayCount, perr := parseNameAndArray(strings.Join(fields[2:], " "))
			if perr != nil {
				return nil, perr
			}
			if len(name) > MaxUniformNameLen {
				return nil, ErrUniformNameTooLong
			}
			if arrayCount > MaxUniformArrayCount {
				return nil, ErrUniformArrayTooLarge
			}
			if kind, ok := samplerTypeTokens[typeTok]; ok {
				samplerCount++
				if samplerCount > MaxSamplersTotal {
					return nil, ErrTooManySamplers
				}
				res.Samplers = append(res.Samplers, SamplerDescriptor{Name: name, Kind: kind, Stage: stage})
				continue
			}
			ut, ok := scalarTypeTokens[typeTok]
			if !ok {
				return nil, fmt.Errorf("%w: unknown uniform type %q", ErrMalformedDeclaration, typeTok)
			}
			uniformCount++
			if uniformCount > MaxUniformsPerStage {
				return nil, ErrTooManyUniforms
			}
			res.Uniforms = append(res.Uniforms, UniformDescriptor{Name: name, Type: ut, ArrayCount: arrayCount})
			continue

		case fields[0] == "attribute", stage == StageVertex && fields[0] == "in":
			name, _, perr := parseNameAndArray(strings.Join(fields[2:], " "))
			if perr != nil {
				return nil, perr
			}
			if len(res.Attributes) >= MaxAttributes {
				return nil, fmt.Errorf("%w: too many attributes", ErrMalformedDeclaration)
			}
			res.Attributes = append(res.Attributes, name)
			rewritten := reAttributeWord.ReplaceAllString(trimmed, "in")
			bodyLines = append(bodyLines, rewritten)
			continue

		case fields[0] == "varying":
			target := "in"
			if stage == StageVertex {
				target = "out"
			}
			rewritten := reVaryingWord.ReplaceAllString(trimmed, target)
			bodyLines = append(bodyLines, rewritten)
			continue

		case stage == StageFragment && fields[0] == "out":
			res.UserDeclaredOut = true
			bodyLines = append(bodyLines, trimmed)
			continue

		default:
			rewritten := trimmed
			if stage == StageFragment {
				if reFragColorWord.MatchString(rewritten) {
					res.FragColorUsed = true
				}
			}
			rewritten = reTexture2DCall.ReplaceAllString(rewritten, "texture")
			rewritten = reTextureCubeCall.ReplaceAllString(rewritten, "texture")
			bodyLines = append(bodyLines, rewritten)
		}
	}

	if stage == StageFragment && res.FragColorUsed && !res.UserDeclaredOut {
		for i, l := range bodyLines {
			bodyLines[i] = reFragColorWord.ReplaceAllString(l, fragColorOutputName)
		}
	}

	res.Body = strings.Join(bodyLines, "\n")
	return res, nil
}

// fragColorOutputName is the synthetic fragment-output variable substituted
// for gl_FragColor when no user-declared output exists (spec §4.5 step 3).
const fragColorOutputName = "webglFragColor"

// UsesIdentifier reports whether name appears as a whole-word token in body.
// Used by the program store to decide, per stage, which members of the
// cross-stage uniform union actually survive emission (spec §4.5 step 4).
func UsesIdentifier(body, name string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	return re.MatchString(body)
}

// EmitSource assembles the final desktop-GLSL source for a stage: the
// #version header, the synthetic fragment-output declaration (if needed),
// one "uniform <T> <name>[N];" line per surviving uniform, one sampler
// declaration per surviving sampler, and finally the rewritten body (spec
// §4.5 step 7).
func EmitSource(stage Stage, uniforms []UniformDescriptor, samplers []SamplerDescriptor, needsFragOut bool, body string) string {
	var b strings.Builder
	b.WriteString("#version 330\n")
	if stage == StageFragment && needsFragOut {
		fmt.Fprintf(&b, "out vec4 %s;\n", fragColorOutputName)
	}
	for _, u := range uniforms {
		if u.ArrayCount > 1 {
			fmt.Fprintf(&b, "uniform %s %s[%d];\n", u.Type.GLSLName(), u.Name, u.ArrayCount)
		} else {
			fmt.Fprintf(&b, "uniform %s %s;\n", u.Type.GLSLName(), u.Name)
		}
	}
	for _, s := range samplers {
		name := "sampler2D"
		if s.Kind == SamplerCube {
			name = "samplerCube"
		}
		fmt.Fprintf(&b, "uniform %s %s;\n", name, s.Name)
	}
	b.WriteString(body)
	return b.String()
}

// Translate runs a single-stage translation with no cross-stage uniform
// filtering: every uniform and sampler this stage's own source declares is
// emitted. Used directly by callers that only need one stage translated in
// isolation (tests, tooling); the program store's link algorithm instead
// drives Parse/EmitSource itself across both stages so it can filter the
// uniform union (spec §4.6).
func Translate(source string, stage Stage) (*Result, error) {
	pr, err := Parse(source, stage, map[string]bool{})
	if err != nil {
		return nil, err
	}

	descs := make([]*UniformDescriptor, len(pr.Uniforms))
	for i := range pr.Uniforms {
		descs[i] = &pr.Uniforms[i]
	}
	if _, err := ComputeLayout(descs); err != nil {
		return nil, err
	}

	needsFragOut := stage == StageFragment && pr.FragColorUsed && !pr.UserDeclaredOut
	src := EmitSource(stage, pr.Uniforms, pr.Samplers, needsFragOut, pr.Body)

	return &Result{
		Source:     src,
		Body:       pr.Body,
		Uniforms:   pr.Uniforms,
		Samplers:   pr.Samplers,
		Attributes: pr.Attributes,
	}, nil
}
