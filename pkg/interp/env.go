package interp

import "github.com/rbscript-lang/rbscript/pkg/value"

// frame is a named-value map representing one lexical scope, modeled on
// an ancestor-linked frame/scope split simplified to the flat
// name->Value map rbscript's dynamic scoping needs (no slot indices —
// rbscript has no static compilation pass).
type frame struct {
	vars map[string]value.Value
}

func newFrame() *frame { return &frame{vars: make(map[string]value.Value)} }

// env is the interpreter's environment: a stack of lexical frames plus one
// global frame. frames[0] is always the global frame; frames[len-1] is the
// innermost frame currently executing.
type env struct {
	frames []*frame
}

func newEnv() *env {
	return &env{frames: []*frame{newFrame()}}
}

func (e *env) global() *frame { return e.frames[0] }
func (e *env) top() *frame    { return e.frames[len(e.frames)-1] }

// push enters a new lexical frame (user-function call entry).
func (e *env) push() { e.frames = append(e.frames, newFrame()) }

// pop exits the current frame (user-function return, normal or early).
func (e *env) pop() { e.frames = e.frames[:len(e.frames)-1] }

// get reads a variable: the innermost frame that declares the name wins,
// else the global frame.
func (e *env) get(name string) (value.Value, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if v, ok := e.frames[i].vars[name]; ok {
			return v, true
		}
	}
	return value.Value{}, false
}

// set writes a variable: the innermost frame that declares the name wins;
// else the global frame if declared there; else it is declared in
// whichever frame is currently innermost.
func (e *env) set(name string, v value.Value) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if _, ok := e.frames[i].vars[name]; ok {
			e.frames[i].vars[name] = v
			return
		}
	}
	e.top().vars[name] = v
}

// declare forces name into the currently innermost frame, overwriting any
// shadowed outer binding for the duration of this frame. Used for
// function parameters and the counted-for loop variable.
func (e *env) declare(name string, v value.Value) {
	e.top().vars[name] = v
}

// names returns the set of variable names visible in the currently
// innermost frame, used by tests asserting scope hygiene.
func (e *env) names() map[string]bool {
	out := make(map[string]bool, len(e.top().vars))
	for k := range e.top().vars {
		out[k] = true
	}
	return out
}
