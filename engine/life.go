package engine

import (
	"fmt"

	"github.com/perlin-network/life/compiler"
	"github.com/perlin-network/life/exec"
)

// LifeEngine executes guest modules with the pure-Go life interpreter.
// Gas is charged at one unit per instruction, so the gas counter doubles as
// the deterministic instruction counter.
type LifeEngine struct {
	// InstructionLimit caps executed instructions; 0 means no cap beyond
	// the static worst-case bound enforced at install time.
	InstructionLimit uint64
}

func NewLifeEngine() *LifeEngine {
	return &LifeEngine{}
}

func (e *LifeEngine) vmConfig() exec.VMConfig {
	gasLimit := e.InstructionLimit
	if gasLimit == 0 {
		gasLimit = ^uint64(0)
	}
	return exec.VMConfig{
		DisableFloatingPoint:     true,
		DefaultMemoryPages:       1,
		MaxMemoryPages:           1,
		DefaultTableSize:         20,
		GasLimit:                 gasLimit,
		ReturnOnGasLimitExceeded: true,
	}
}

type nopResolver struct{}

func (nopResolver) ResolveFunc(module, field string) exec.FunctionImport {
	return func(vm *exec.VirtualMachine) int64 { return 0 }
}

func (nopResolver) ResolveGlobal(module, field string) int64 { return 0 }

// Validate instantiates the module against permissive stubs; life performs
// decoding and validation during construction.
func (e *LifeEngine) Validate(code []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine: invalid module: %v", r)
		}
	}()
	_, err = exec.NewVirtualMachine(code, e.vmConfig(), nopResolver{}, nil)
	return err
}

type importResolver struct {
	imports ImportTable
}

func (r *importResolver) ResolveFunc(module, field string) exec.FunctionImport {
	hf, ok := r.imports[field]
	if module != "env" || !ok {
		// unreachable for validated modules; treat as a fatal guest error
		return func(vm *exec.VirtualMachine) int64 {
			panic(fmt.Sprintf("unresolved import %s.%s", module, field))
		}
	}
	n := hf.NumArgs
	fn := hf.Fn
	return func(vm *exec.VirtualMachine) int64 {
		frame := vm.GetCurrentFrame()
		return fn(frame.Locals[:n])
	}
}

func (r *importResolver) ResolveGlobal(module, field string) int64 { return 0 }

func (e *LifeEngine) Instantiate(code []byte, imports ImportTable) (inst Instance, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine: instantiate: %v", r)
		}
	}()
	vm, err := exec.NewVirtualMachine(code, e.vmConfig(), &importResolver{imports: imports}, &compiler.SimpleGasPolicy{GasPerInstruction: 1})
	if err != nil {
		return nil, err
	}
	return &lifeInstance{vm: vm}, nil
}

type lifeInstance struct {
	vm *exec.VirtualMachine
}

func (i *lifeInstance) Invoke(name string, arg int32) (ret int32, err error) {
	defer recoverHalt(&err)
	entry, ok := i.vm.GetFunctionExport(name)
	if !ok {
		return 0, fmt.Errorf("engine: no exported function %q", name)
	}
	r, err := i.vm.Run(entry, int64(arg))
	if err != nil {
		return 0, err
	}
	return int32(r), nil
}

func (i *lifeInstance) InstructionCount() uint64 {
	return i.vm.Gas
}

func (i *lifeInstance) Memory() Memory {
	return &lifeMemory{vm: i.vm}
}

type lifeMemory struct {
	vm *exec.VirtualMachine
}

func (m *lifeMemory) Size() uint32 {
	return uint32(len(m.vm.Memory))
}

func (m *lifeMemory) ReadAt(off, length uint32) ([]byte, bool) {
	end := uint64(off) + uint64(length)
	if end > uint64(len(m.vm.Memory)) {
		return nil, false
	}
	out := make([]byte, length)
	copy(out, m.vm.Memory[off:end])
	return out, true
}

func (m *lifeMemory) WriteAt(off uint32, data []byte) bool {
	end := uint64(off) + uint64(len(data))
	if end > uint64(len(m.vm.Memory)) {
		return false
	}
	copy(m.vm.Memory[off:end], data)
	return true
}
