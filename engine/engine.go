// Package engine abstracts the WebAssembly engine behind the small surface
// the hook core needs: load and validate a module, instantiate it against a
// table of host imports, invoke an exported function, read the instruction
// counter, and access guest linear memory.
package engine

import (
	"errors"
)

// ErrHalted is returned by Invoke when a host function stopped the guest
// (accept, rollback, guard violation). It is the normal termination path for
// hook executions.
var ErrHalted = errors.New("engine: guest halted by host function")

// haltSignal unwinds the guest stack from inside a host call.
type haltSignal struct{}

// Halt aborts the running guest. Only call from inside a host function.
func Halt() {
	panic(haltSignal{})
}

// Memory is a view over guest linear memory.
type Memory interface {
	Size() uint32
	// ReadAt copies length bytes starting at off, false when out of range.
	ReadAt(off, length uint32) ([]byte, bool)
	// WriteAt copies data into memory at off, false when out of range.
	WriteAt(off uint32, data []byte) bool
}

// HostFunc is one host import: a fixed arity and the function body. Args
// arrive as the guest's raw operand values.
type HostFunc struct {
	NumArgs int
	Fn      func(args []int64) int64
}

// ImportTable maps import names (module "env") to host functions.
type ImportTable map[string]HostFunc

// Instance is an instantiated guest module. Instances are single-use and not
// safe for concurrent use.
type Instance interface {
	// Invoke runs an exported function with a single i32 argument.
	Invoke(name string, arg int32) (int32, error)
	// InstructionCount reports instructions executed so far.
	InstructionCount() uint64
	Memory() Memory
}

// Engine loads and instantiates guest modules.
type Engine interface {
	// Validate checks that code parses and validates as a module.
	Validate(code []byte) error
	// Instantiate prepares a fresh instance with the given host imports.
	Instantiate(code []byte, imports ImportTable) (Instance, error)
}

// recoverHalt converts a halt panic into ErrHalted; other panics resume.
func recoverHalt(err *error) {
	if r := recover(); r != nil {
		if _, ok := r.(haltSignal); ok {
			*err = ErrHalted
			return
		}
		panic(r)
	}
}
