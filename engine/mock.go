package engine

import (
	"fmt"
)

// Mock is a scripted engine for tests: the "guest program" is a Go function
// driving the import table directly, standing in for compiled bytecode.
type Mock struct {
	// ValidateErr, when set, is returned by Validate.
	ValidateErr error
	// Program runs in place of guest code. It receives the instance so it
	// can call imports and touch memory the way a real guest would.
	Program func(m *MockInstance, entry string, arg int32) int32
	// Instructions is reported as the instruction count after Invoke.
	Instructions uint64
}

func (e *Mock) Validate(code []byte) error {
	return e.ValidateErr
}

func (e *Mock) Instantiate(code []byte, imports ImportTable) (Instance, error) {
	return &MockInstance{
		engine:  e,
		Code:    code,
		imports: imports,
		mem:     &MockMemory{data: make([]byte, 65536)},
	}, nil
}

// MockInstance is the instance side of Mock.
type MockInstance struct {
	engine  *Mock
	Code    []byte // the "bytecode", so programs can branch per hook
	imports ImportTable
	mem     *MockMemory
	instrs  uint64
}

// Call dispatches a host import by name, like a guest call instruction.
func (m *MockInstance) Call(name string, args ...int64) int64 {
	hf, ok := m.imports[name]
	if !ok {
		panic(fmt.Sprintf("mock guest called unknown import %q", name))
	}
	if len(args) != hf.NumArgs {
		panic(fmt.Sprintf("mock guest called %q with %d args, want %d", name, len(args), hf.NumArgs))
	}
	return hf.Fn(args)
}

func (m *MockInstance) Invoke(name string, arg int32) (ret int32, err error) {
	defer recoverHalt(&err)
	if m.engine.Program == nil {
		return 0, fmt.Errorf("mock engine has no program")
	}
	ret = m.engine.Program(m, name, arg)
	m.instrs = m.engine.Instructions
	return ret, nil
}

func (m *MockInstance) InstructionCount() uint64 {
	if m.instrs != 0 {
		return m.instrs
	}
	return m.engine.Instructions
}

func (m *MockInstance) Memory() Memory { return m.mem }

// MockMemory is one 64 KiB page of guest memory.
type MockMemory struct {
	data []byte
}

func (m *MockMemory) Size() uint32 { return uint32(len(m.data)) }

func (m *MockMemory) ReadAt(off, length uint32) ([]byte, bool) {
	end := uint64(off) + uint64(length)
	if end > uint64(len(m.data)) {
		return nil, false
	}
	out := make([]byte, length)
	copy(out, m.data[off:end])
	return out, true
}

func (m *MockMemory) WriteAt(off uint32, data []byte) bool {
	end := uint64(off) + uint64(len(data))
	if end > uint64(len(m.data)) {
		return false
	}
	copy(m.data[off:end], data)
	return true
}
