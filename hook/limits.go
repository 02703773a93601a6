package hook

// Hard limits of the execution context and the install path.
const (
	MaxSlots         = 255
	MaxNonces        = 255
	MaxEmittedTxns   = 255
	MaxParams        = 16
	MaxGrants        = 8
	EtxnDetailsSize  = 105
	MaxExitReasonLen = 32

	MaxHookChainLength = 10
)

// Storage and install-object size bounds. The parameter key bound is shared
// with hook-state keys.
func MaxHookStateDataSize() uint32 { return 128 }

func MaxHookWasmSize() uint32 { return 0xFFFF }

func MaxHookParameterKeySize() uint32 { return 32 }

func MaxHookParameterValueSize() uint32 { return 128 }

// Ceiling on the worst-case instruction count a candidate module may have.
func MaxInstructionCount() uint64 { return 0xFFFFF }
