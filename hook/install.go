package hook

import (
	"github.com/pantyukhov/xrpld-hooks/common"
	"github.com/pantyukhov/xrpld-hooks/ledger"
)

// HookSet flags.
const (
	HsfOVERRIDE uint32 = 1 << 0 // override or delete hook
	HsfNSDELETE uint32 = 1 << 1 // delete namespace
)

// HookSetOperation classifies one entry of a HookSet transaction.
type HookSetOperation int8

const (
	HsoINVALID  HookSetOperation = -1
	HsoNOOP     HookSetOperation = 0
	HsoCREATE   HookSetOperation = 1
	HsoINSTALL  HookSetOperation = 2
	HsoDELETE   HookSetOperation = 3
	HsoNSDELETE HookSetOperation = 4
	HsoUPDATE   HookSetOperation = 5
)

// HookSetParam is one named install parameter.
type HookSetParam struct {
	Name  []byte
	Value []byte
}

// HookSetEntry is one position of a HookSet transaction: at most one of
// CreateCode and HookHash, plus the installation fields being set.
type HookSetEntry struct {
	CreateCode []byte
	HookHash   *common.Hash
	Namespace  *common.Namespace
	HookOn     *uint64
	ApiVersion *uint16
	Params     []HookSetParam
	Grants     []ledger.Grant
	HasGrants  bool
	Flags      uint32
}

func (e *HookSetEntry) empty() bool {
	return len(e.CreateCode) == 0 && e.HookHash == nil && e.Namespace == nil &&
		e.HookOn == nil && e.ApiVersion == nil && len(e.Params) == 0 && !e.HasGrants
}

// Operation derives the entry's intent from its fields and flags.
func (e *HookSetEntry) Operation() HookSetOperation {
	switch {
	case e.Flags&HsfNSDELETE != 0:
		return HsoNSDELETE
	case e.empty() && e.Flags == 0:
		return HsoNOOP
	case e.HookHash != nil && len(e.CreateCode) > 0:
		return HsoINVALID
	case len(e.CreateCode) > 0:
		return HsoCREATE
	case e.HookHash != nil:
		return HsoINSTALL
	case e.Flags&HsfOVERRIDE != 0 && e.empty():
		return HsoDELETE
	default:
		// installation fields without code or hash: an in-place update
		return HsoUPDATE
	}
}

const currentHookApiVersion uint16 = 0

// ValidateHookSetEntry runs the install-transaction invariants narrated by
// log codes 9 through 26 against one entry at a chain position. existing is
// the installation at that position, nil when the position is empty.
func ValidateHookSetEntry(e *HookSetEntry, existing *ledger.HookInstallation) *ValidationError {
	if e.Flags&^(HsfOVERRIDE|HsfNSDELETE) != 0 {
		return validationErr(FLAGS_INVALID, "unknown hook set flags %#x", e.Flags)
	}
	if e.HookHash != nil && len(e.CreateCode) > 0 {
		return validationErr(HASH_OR_CODE, "hook set entry contains both CreateCode and HookHash")
	}

	if len(e.Params) > MaxParams {
		return validationErr(PARAMETERS_ILLEGAL, "too many parameters: %d", len(e.Params))
	}
	for _, p := range e.Params {
		if len(p.Name) == 0 {
			return validationErr(PARAMETERS_NAME, "parameter lacked a name")
		}
		if uint32(len(p.Name)) > MaxHookParameterKeySize() {
			return validationErr(PARAMETERS_FIELD, "parameter key too large: %d bytes", len(p.Name))
		}
		if uint32(len(p.Value)) > MaxHookParameterValueSize() {
			return validationErr(PARAMETERS_FIELD, "parameter value too large: %d bytes", len(p.Value))
		}
	}

	if e.HasGrants {
		if len(e.Grants) == 0 {
			return validationErr(GRANTS_EMPTY, "grants array present but empty, remove it")
		}
		if len(e.Grants) > MaxGrants {
			return validationErr(GRANTS_EXCESS, "too many grants: %d", len(e.Grants))
		}
		for _, g := range e.Grants {
			if g.HookHash.IsZero() {
				return validationErr(GRANTS_FIELD, "grant without a hook hash")
			}
		}
	}

	switch e.Operation() {
	case HsoNOOP:
		return nil
	case HsoINVALID:
		return validationErr(HASH_OR_CODE, "hook set entry is not a valid operation")
	case HsoCREATE:
		if e.ApiVersion == nil {
			return validationErr(API_MISSING, "hook set entry lacked HookApiVersion")
		}
		if *e.ApiVersion != currentHookApiVersion {
			return validationErr(API_INVALID, "unrecognised hook api version %d", *e.ApiVersion)
		}
		if e.Namespace == nil {
			return validationErr(NAMESPACE_MISSING, "hook set entry lacked HookNamespace")
		}
		if e.HookOn == nil {
			return validationErr(HOOKON_MISSING, "hook set entry lacked HookOn")
		}
		if existing != nil && e.Flags&HsfOVERRIDE == 0 {
			return validationErr(OVERRIDE_MISSING, "replacing an installed hook requires hsfOVERRIDE")
		}
	case HsoINSTALL:
		if e.ApiVersion != nil {
			return validationErr(API_ILLEGAL, "HookApiVersion cannot be set for an existing definition")
		}
		if e.Namespace == nil {
			return validationErr(NAMESPACE_MISSING, "hook set entry lacked HookNamespace")
		}
		if existing != nil && e.Flags&HsfOVERRIDE == 0 {
			return validationErr(OVERRIDE_MISSING, "replacing an installed hook requires hsfOVERRIDE")
		}
	case HsoDELETE:
		if e.Flags&HsfOVERRIDE == 0 {
			return validationErr(OVERRIDE_MISSING, "deleting a hook requires hsfOVERRIDE")
		}
		if len(e.Params) > 0 || e.HasGrants || e.Namespace != nil || e.HookOn != nil || e.ApiVersion != nil {
			return validationErr(DELETE_FIELD, "delete operation carries extra fields")
		}
		if existing == nil {
			return validationErr(DELETE_FIELD, "no hook installed at this position")
		}
	case HsoNSDELETE:
		if e.Flags != HsfNSDELETE {
			return validationErr(NSDELETE_FLAGS, "namespace delete must carry exactly hsfNSDELETE")
		}
		if e.Namespace == nil {
			return validationErr(NSDELETE_FIELD, "namespace delete lacked HookNamespace")
		}
		if len(e.CreateCode) > 0 || e.HookHash != nil || len(e.Params) > 0 || e.HasGrants || e.HookOn != nil || e.ApiVersion != nil {
			return validationErr(NSDELETE_FIELD, "namespace delete carries extra fields")
		}
	case HsoUPDATE:
		if e.Flags&HsfOVERRIDE == 0 {
			return validationErr(OVERRIDE_MISSING, "updating a hook requires hsfOVERRIDE")
		}
		if existing == nil {
			return validationErr(DELETE_FIELD, "no hook installed at this position")
		}
		if e.ApiVersion != nil {
			return validationErr(API_ILLEGAL, "HookApiVersion cannot change on update")
		}
	}
	return nil
}

// ApplyHookSet validates and applies a HookSet transaction's entries to an
// account's chain, position by position. Fees for created definitions
// accrue into the returned total.
func ApplyHookSet(applyCtx *ledger.ApplyContext, account common.AccountID, entries []HookSetEntry) (uint64, *ValidationError) {
	if len(entries) > MaxHookChainLength {
		return 0, validationErr(FLAGS_INVALID, "hook chain limited to %d positions", MaxHookChainLength)
	}
	chain := append([]ledger.HookInstallation(nil), applyCtx.View.Hooks(account)...)
	for len(chain) < len(entries) {
		chain = append(chain, ledger.HookInstallation{})
	}

	var fee uint64
	for pos := range entries {
		e := &entries[pos]
		var existing *ledger.HookInstallation
		if !chain[pos].HookHash.IsZero() {
			existing = &chain[pos]
		}
		if verr := ValidateHookSetEntry(e, existing); verr != nil {
			LogHookSet(verr.Code, account, verr.Msg)
			return fee, verr
		}

		switch e.Operation() {
		case HsoNOOP:

		case HsoCREATE:
			count, verr := ValidateModule(e.CreateCode)
			if verr != nil {
				LogHookSet(verr.Code, account, verr.Msg)
				return fee, verr
			}
			LogHookSet(INSTRUCTION_COUNT, account, "worst case instruction count computed")
			hash := common.SHA512Half(e.CreateCode)
			if _, ok := applyCtx.View.HookDefinition(hash); !ok {
				applyCtx.View.SetHookDefinition(&ledger.HookDefinition{
					Hash:             hash,
					Code:             append([]byte(nil), e.CreateCode...),
					ApiVersion:       *e.ApiVersion,
					HookOn:           *e.HookOn,
					InstructionCount: count,
					ReferenceCount:   1,
				})
				fee += ComputeCreationFee(uint64(len(e.CreateCode)))
			}
			chain[pos] = ledger.HookInstallation{
				HookHash:  hash,
				Namespace: *e.Namespace,
				HookOn:    *e.HookOn,
				Params:    paramsToMap(e.Params),
				Grants:    e.Grants,
			}

		case HsoINSTALL:
			def, ok := applyCtx.View.HookDefinition(*e.HookHash)
			if !ok {
				verr := validationErr(HASH_OR_CODE, "no hook definition with the given hash")
				LogHookSet(verr.Code, account, verr.Msg)
				return fee, verr
			}
			hookOn := def.HookOn
			if e.HookOn != nil {
				hookOn = *e.HookOn
			}
			chain[pos] = ledger.HookInstallation{
				HookHash:  def.Hash,
				Namespace: *e.Namespace,
				HookOn:    hookOn,
				Params:    paramsToMap(e.Params),
				Grants:    e.Grants,
			}

		case HsoDELETE:
			chain[pos] = ledger.HookInstallation{}

		case HsoNSDELETE:
			applyCtx.View.EraseNamespace(account, *e.Namespace)

		case HsoUPDATE:
			inst := chain[pos]
			if e.Namespace != nil {
				inst.Namespace = *e.Namespace
			}
			if e.HookOn != nil {
				inst.HookOn = *e.HookOn
			}
			if len(e.Params) > 0 {
				if inst.Params == nil {
					inst.Params = make(map[string][]byte)
				}
				for _, p := range e.Params {
					if len(p.Value) == 0 {
						delete(inst.Params, string(p.Name))
					} else {
						inst.Params[string(p.Name)] = append([]byte(nil), p.Value...)
					}
				}
			}
			if e.HasGrants {
				inst.Grants = e.Grants
			}
			chain[pos] = inst
		}
	}

	// drop empty tail positions
	end := len(chain)
	for end > 0 && chain[end-1].HookHash.IsZero() {
		end--
	}
	applyCtx.View.SetHooks(account, chain[:end])
	return fee, nil
}

func paramsToMap(params []HookSetParam) map[string][]byte {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string][]byte, len(params))
	for _, p := range params {
		out[string(p.Name)] = append([]byte(nil), p.Value...)
	}
	return out
}
