package glsl

import (
	"fmt"
	"strings"
)

// condFrame tracks one level of #ifdef/#ifndef nesting while the
// preprocessor scans a shader source line by line.
type condFrame struct {
	// parentActive records whether the enclosing frame was active when this
	// frame was entered; a frame can never be active if its parent was not.
	parentActive bool
	// branchActive is true while the currently-taken branch (the #ifdef/
	// #ifndef arm, or the #else arm) of this frame is active.
	branchActive bool
	// tookBranch is true once any arm of this frame has been active, so a
	// later #else knows not to also activate.
	tookBranch bool
}

// preprocessLine is one source line annotated with whether it survived
// conditional-compilation scanning.
type preprocessLine struct {
	text   string
	active bool
	lineNo int
}

// preprocess evaluates #define/#ifdef/#ifndef/#else/#endif directives over
// source and returns every non-directive line tagged with whether it is
// reachable under the resulting macro environment. Directive lines
// themselves are not returned; they exist only to drive the conditional
// stack and the macro set. See spec §4.5 step 1.
//
// macros is seeded by the caller (stage-specific defines such as a renderer
// feature flag) and mutated in place as #define lines are scanned.
func preprocess(source string, macros map[string]bool) ([]preprocessLine, error) {
	if len(source) > MaxSourceBytes {
		return nil, ErrTooLarge
	}

	rawLines := strings.Split(source, "\n")
	out := make([]preprocessLine, 0, len(rawLines))
	stack := make([]condFrame, 0, MaxPreprocessorDepth)

	activeNow := func() bool {
		for i := len(stack) - 1; i >= 0; i-- {
			if !stack[i].branchActive {
				return false
			}
		}
		return true
	}

	for i, line := range rawLines {
		lineNo := i + 1
		if len(line) > MaxLineLength {
			return nil, ErrLineTooLong
		}

		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			out = append(out, preprocessLine{text: line, active: activeNow(), lineNo: lineNo})
			continue
		}

		fields := strings.Fields(trimmed)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "#define":
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: line %d: #define missing name", ErrMalformedDeclaration, lineNo)
			}
			if activeNow() {
				macros[fields[1]] = true
			}
		case "#undef":
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: line %d: #undef missing name", ErrMalformedDeclaration, lineNo)
			}
			if activeNow() {
				delete(macros, fields[1])
			}
		case "#ifdef", "#ifndef":
			if len(stack) >= MaxPreprocessorDepth {
				return nil, ErrPreprocessorNesting
			}
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: line %d: %s missing name", ErrMalformedDeclaration, lineNo, fields[0])
			}
			parentActive := activeNow()
			defined := macros[fields[1]]
			want := fields[0] == "#ifdef"
			branch := parentActive && (defined == want)
			stack = append(stack, condFrame{
				parentActive: parentActive,
				branchActive: branch,
				tookBranch:   branch,
			})
		case "#else":
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: line %d: #else without #ifdef/#ifndef", ErrMalformedDeclaration, lineNo)
			}
			top := &stack[len(stack)-1]
			if top.tookBranch || !top.parentActive {
				top.branchActive = false
			} else {
				top.branchActive = true
				top.tookBranch = true
			}
		case "#endif":
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: line %d: #endif without #ifdef/#ifndef", ErrMalformedDeclaration, lineNo)
			}
			stack = stack[:len(stack)-1]
		case "#version", "#precision":
			// Dropped: the header is regenerated wholesale at emit time.
		default:
			// Unknown directives (#extension and similar) are dropped like
			// every other directive line; this translator never claims to
			// support them.
		}
	}

	return out, nil
}
