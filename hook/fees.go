package hook

import (
	"github.com/holiman/uint256"
)

// Fee parameters. Constants until a voteable-config mechanism exists.
// The base multiplier 1.1 is carried as a ratio to stay integral.
const (
	DropsPerByte         = 31250
	feeBaseMultiplierNum = 11
	feeBaseMultiplierDen = 10
	creationFeePerByte   = 500
	executionFeeFloor    = 10
	instructionsPerDrop  = 10000
)

// ComputeExecutionFee converts an instruction count into the fee charged for
// one hook execution. Charged even when the hook rolls back.
func ComputeExecutionFee(instructionCount uint64) uint64 {
	fee := new(uint256.Int).SetUint64(instructionCount)
	fee.Div(fee, uint256.NewInt(instructionsPerDrop))
	fee.AddUint64(fee, executionFeeFloor)
	return fee.Uint64()
}

// ComputeCreationFee is the fee for installing a new hook definition,
// proportional to the bytecode size.
func ComputeCreationFee(byteCount uint64) uint64 {
	fee := new(uint256.Int).SetUint64(byteCount)
	fee.Mul(fee, uint256.NewInt(creationFeePerByte))
	return fee.Uint64()
}

// EtxnFeeBase returns ceil(byteCount * DropsPerByte * 1.1), the minimum fee
// an emitted transaction of the given serialized size must declare.
func EtxnFeeBase(byteCount uint64) int64 {
	fee := new(uint256.Int).SetUint64(byteCount)
	fee.Mul(fee, uint256.NewInt(DropsPerByte))
	fee.Mul(fee, uint256.NewInt(feeBaseMultiplierNum))
	rem := new(uint256.Int)
	fee.DivMod(fee, uint256.NewInt(feeBaseMultiplierDen), rem)
	if !rem.IsZero() {
		fee.AddUint64(fee, 1)
	}
	if !fee.IsUint64() || fee.Uint64() > uint64(1)<<62 {
		return FEE_TOO_LARGE
	}
	return int64(fee.Uint64())
}
