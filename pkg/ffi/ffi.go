// Package ffi defines the foreign-function-interface external collaborator:
// the front end only parses and forwards FFI declarations; the Loader below
// is the abstract call-by-signature boundary that keeps the interpreter and
// transpiled runtime from ever dereferencing a raw pointer directly.
package ffi

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/rbscript-lang/rbscript/pkg/value"
)

// Param is one (name, type tag) entry of a declared signature.
type Param struct {
	Name string
	Type string // integer, double, string, boolean, pointer, or "<type>*"
}

// Signature is a declared native binding:
// (library-name, return-type-tag, (parameter-name, type-tag) list).
type Signature struct {
	Library    string
	ReturnType string
	Params     []Param
}

// Error is an FFI-time error: library load failure, missing symbol,
// argument marshalling failure, or null-pointer dereference.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// Loader is the abstract FFI collaborator. The core declares signatures at
// parse time and calls by name at run time; the Loader owns library
// lifecycle — cleanup on driver exit releases each library handle.
type Loader interface {
	Declare(name string, sig Signature) error
	Call(name string, args []value.Value) (value.Value, error)
	Close() error
}

// symbol is a resolved C function: the raw address purego.SyscallN dispatches
// through, paired with the signature used to marshal arguments and unmarshal
// the return value.
type symbol struct {
	addr uintptr
	sig  Signature
}

// PluginLoader is the default Loader adapter: it opens each declared
// library's `.so`/`.dylib`/`.dll` with purego.Dlopen and resolves each
// declared function by name with purego.Dlsym, then dispatches calls
// through purego.SyscallN against the C ABI directly — no cgo toolchain,
// no Go-plugin build mode, and no hand-rolled dlopen/dlsym cgo shim.
type PluginLoader struct {
	mu      sync.Mutex
	sigs    map[string]Signature
	handles map[string]uintptr // library path -> dlopen handle
	syms    map[string]symbol  // declared name -> resolved symbol
}

// NewPluginLoader creates an empty PluginLoader.
func NewPluginLoader() *PluginLoader {
	return &PluginLoader{
		sigs:    make(map[string]Signature),
		handles: make(map[string]uintptr),
		syms:    make(map[string]symbol),
	}
}

// Declare registers a signature. The library is not opened until first Call,
// so interpreting a program that declares but never calls an FFI routine
// never needs the library to exist.
func (l *PluginLoader) Declare(name string, sig Signature) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sigs[name] = sig
	return nil
}

func (l *PluginLoader) resolve(name string) (symbol, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if sym, ok := l.syms[name]; ok {
		return sym, nil
	}
	sig, ok := l.sigs[name]
	if !ok {
		return symbol{}, &Error{Msg: fmt.Sprintf("ffi function %q not declared", name)}
	}

	handle, ok := l.handles[sig.Library]
	if !ok {
		h, err := purego.Dlopen(sig.Library, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			return symbol{}, &Error{Msg: fmt.Sprintf("failed to load library %q: %v", sig.Library, err)}
		}
		handle = h
		l.handles[sig.Library] = handle
	}

	addr, err := purego.Dlsym(handle, name)
	if err != nil {
		return symbol{}, &Error{Msg: fmt.Sprintf("symbol %q not found in %q: %v", name, sig.Library, err)}
	}

	sym := symbol{addr: addr, sig: sig}
	l.syms[name] = sym
	return sym, nil
}

// Call marshals args per the declared signature's arity and invokes the
// resolved native routine via purego.SyscallN. An error is returned for an
// undeclared name, an arity mismatch, a resolution failure, an argument
// that cannot be marshalled for its pointer or struct-pointer tag, or a
// non-zero errno from the call.
func (l *PluginLoader) Call(name string, args []value.Value) (value.Value, error) {
	l.mu.Lock()
	sig, declared := l.sigs[name]
	l.mu.Unlock()
	if !declared {
		return value.Value{}, &Error{Msg: fmt.Sprintf("ffi function %q not declared", name)}
	}
	if len(args) != len(sig.Params) {
		return value.Value{}, &Error{Msg: fmt.Sprintf("ffi function %q expects %d arguments, got %d", name, len(sig.Params), len(args))}
	}

	sym, err := l.resolve(name)
	if err != nil {
		return value.Value{}, err
	}

	raw := make([]uintptr, len(args))
	var pinned [][]byte // keeps C-string buffers alive through the call
	for i, a := range args {
		u, keep, err := marshal(sig.Params[i].Type, a)
		if err != nil {
			return value.Value{}, &Error{Msg: fmt.Sprintf("ffi function %q argument %d: %v", name, i, err)}
		}
		raw[i] = u
		if keep != nil {
			pinned = append(pinned, keep)
		}
	}

	ret, _, errno := purego.SyscallN(sym.addr, raw...)
	runtime.KeepAlive(pinned)
	if errno != 0 {
		return value.Value{}, &Error{Msg: fmt.Sprintf("ffi function %q: %v", name, errno)}
	}
	return unmarshal(sig.ReturnType, ret), nil
}

// Close forgets every opened library handle and resolved symbol. purego
// exposes no portable unload primitive, so this clears the loader's own
// bookkeeping only and does not unload the libraries;
// process exit is what actually releases the mappings.
func (l *PluginLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handles = make(map[string]uintptr)
	l.syms = make(map[string]symbol)
	return nil
}

// marshal converts one declared argument to the uintptr purego.SyscallN
// expects. A string argument is copied into a null-terminated byte buffer
// that the caller must keep alive (via the returned slice) for the
// duration of the call, since SyscallN only sees its address.
func marshal(typeTag string, v value.Value) (uintptr, []byte, error) {
	switch typeTag {
	case "integer":
		return uintptr(v.I), nil, nil
	case "double":
		return *(*uintptr)(unsafe.Pointer(&v.F)), nil, nil
	case "boolean":
		if v.B {
			return 1, nil, nil
		}
		return 0, nil, nil
	case "string":
		buf := append([]byte(v.S), 0)
		return uintptr(unsafe.Pointer(&buf[0])), buf, nil
	case "pointer":
		if v.Kind == value.NullPointer {
			return 0, nil, nil
		}
		if p, ok := v.Ptr.(uintptr); ok {
			return p, nil, nil
		}
		return 0, nil, fmt.Errorf("value is not an opaque pointer")
	default:
		// "<type>*" struct-pointer tags carry the same opaque uintptr payload.
		if v.Kind == value.NullPointer {
			return 0, nil, nil
		}
		if p, ok := v.Ptr.(uintptr); ok {
			return p, nil, nil
		}
		return 0, nil, fmt.Errorf("unrecognized ffi type tag %q", typeTag)
	}
}

// unmarshal converts a raw SyscallN return word back into an rbscript
// Value per the declared return-type tag.
func unmarshal(typeTag string, raw uintptr) value.Value {
	switch typeTag {
	case "integer":
		return value.Int(int64(raw))
	case "double":
		return value.Dbl(*(*float64)(unsafe.Pointer(&raw)))
	case "boolean":
		return value.Bool(raw != 0)
	case "string":
		return value.Str(goString(raw))
	case "pointer":
		if raw == 0 {
			return value.NullPtr()
		}
		return value.Value{Kind: value.OpaquePointer, PtrTypeName: "pointer", Ptr: raw}
	default:
		if raw == 0 {
			return value.NullPtr()
		}
		return value.Value{Kind: value.OpaquePointer, PtrTypeName: typeTag, Ptr: raw}
	}
}

// goString reads a null-terminated C string out of raw memory. Used only
// for routines declared with a "string" return type, where the callee is
// trusted (by the declaration) to have returned a valid C string pointer.
func goString(raw uintptr) string {
	if raw == 0 {
		return ""
	}
	p := (*byte)(unsafe.Pointer(raw))
	n := 0
	for *(*byte)(unsafe.Pointer(uintptr(unsafe.Pointer(p)) + uintptr(n))) != 0 {
		n++
	}
	b := unsafe.Slice(p, n)
	return string(b)
}
