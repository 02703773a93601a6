// Package hook implements the hook execution core: the host-function API
// surface exposed to guest WebAssembly modules, the per-invocation execution
// context (slots, state cache, guards, emitted transactions), install-time
// static validation of candidate modules, and the chain orchestration and
// finalisation that tie hook executions into transaction application.
package hook

// Host-API return codes. These are the guest ABI: every host function
// returns int64, negative values come from this closed set and must not be
// renumbered.
const (
	SUCCESS                         int64 = 0  // return codes > 0 are reserved for host apis to return "success"
	OUT_OF_BOUNDS                   int64 = -1 // could not read or write to a pointer provided by the hook
	INTERNAL_ERROR                  int64 = -2 // eg directory is corrupt
	TOO_BIG                         int64 = -3 // something you tried to store was too big
	TOO_SMALL                       int64 = -4 // something you tried to store or provide was too small
	DOESNT_EXIST                    int64 = -5 // something you requested wasn't found
	NO_FREE_SLOTS                   int64 = -6 // when trying to load an object there is a maximum of 255 slots
	INVALID_ARGUMENT                int64 = -7
	ALREADY_SET                     int64 = -8     // returned when a one-time parameter was already set by the hook
	PREREQUISITE_NOT_MET            int64 = -9     // returned if a required param wasn't set before calling
	FEE_TOO_LARGE                   int64 = -10    // returned if the attempted operation would result in an absurd fee
	EMISSION_FAILURE                int64 = -11    // returned if an emitted tx was not accepted by the ledger
	TOO_MANY_NONCES                 int64 = -12    // a hook has a maximum of 255 nonces
	TOO_MANY_EMITTED_TXN            int64 = -13    // a hook has emitted more than its stated number of emitted txn
	NOT_IMPLEMENTED                 int64 = -14    // an api was called that is reserved for a future version
	INVALID_ACCOUNT                 int64 = -15    // an api expected an account id but got something else
	GUARD_VIOLATION                 int64 = -16    // a guarded loop or function iterated over its maximum
	INVALID_FIELD                   int64 = -17    // the field requested is returning an invalid field id
	PARSE_ERROR                     int64 = -18    // the hook asked the host to parse something that was invalid
	RC_ROLLBACK                     int64 = -19    // hook should terminate due to a rollback() call
	RC_ACCEPT                       int64 = -20    // hook should terminate due to an accept() call
	NO_SUCH_KEYLET                  int64 = -21    // invalid keylet or keylet type
	NOT_AN_ARRAY                    int64 = -22    // if a count of an sle is requested but it's not an array
	NOT_AN_OBJECT                   int64 = -23    // if a subfield is requested from something that isn't an object
	INVALID_FLOAT                   int64 = -10024 // specially selected value that will never be a valid float encoding
	DIVISION_BY_ZERO                int64 = -25
	MANTISSA_OVERSIZED              int64 = -26
	MANTISSA_UNDERSIZED             int64 = -27
	EXPONENT_OVERSIZED              int64 = -28
	EXPONENT_UNDERSIZED             int64 = -29
	OVERFLOW                        int64 = -30 // if an operation with a float results in an overflow
	NOT_IOU_AMOUNT                  int64 = -31
	NOT_AN_AMOUNT                   int64 = -32
	CANT_RETURN_NEGATIVE            int64 = -33
	NOT_AUTHORIZED                  int64 = -34
	PREVIOUS_FAILURE_PREVENTS_RETRY int64 = -35
	TOO_MANY_PARAMS                 int64 = -36
)

// ExitType records how a hook execution terminated.
type ExitType uint8

const (
	ExitUnset ExitType = iota
	ExitWasmError
	ExitRollback
	ExitAccept
)

func (e ExitType) String() string {
	switch e {
	case ExitUnset:
		return "unset"
	case ExitWasmError:
		return "wasm_error"
	case ExitRollback:
		return "rollback"
	case ExitAccept:
		return "accept"
	default:
		return "unknown"
	}
}

// Comparison modes for float_compare.
const (
	COMPARE_EQUAL   uint32 = 1
	COMPARE_LESS    uint32 = 2
	COMPARE_GREATER uint32 = 4
)
