package hook

import (
	"github.com/pantyukhov/xrpld-hooks/common"
	"github.com/pantyukhov/xrpld-hooks/ledger"
	"github.com/pantyukhov/xrpld-hooks/sto"
)

// Transactional-stakeholder rights.
type TSHFlags uint8

const (
	TshNONE     TSHFlags = 0
	TshROLLBACK TSHFlags = 1 // stakeholder hooks may veto the transaction
	TshCOLLECT  TSHFlags = 2 // stakeholder hooks observe; rollback is demoted
)

// tshAllowances classifies non-sender stakeholders by transaction type.
// Types absent from the table resolve to TshNONE, so new transaction types
// stay inert until classified.
var tshAllowances = map[uint16]TSHFlags{
	ledger.TtPayment:        TshROLLBACK,
	ledger.TtEscrowCreate:   TshROLLBACK,
	ledger.TtEscrowFinish:   TshROLLBACK,
	ledger.TtAccountSet:     TshNONE,
	ledger.TtEscrowCancel:   TshCOLLECT,
	ledger.TtRegularKeySet:  TshNONE,
	ledger.TtOfferCreate:    TshCOLLECT,
	ledger.TtOfferCancel:    TshNONE,
	ledger.TtTicketCreate:   TshNONE,
	ledger.TtSignerListSet:  TshROLLBACK,
	ledger.TtPaychanCreate:  TshROLLBACK,
	ledger.TtPaychanFund:    TshCOLLECT,
	ledger.TtPaychanClaim:   TshCOLLECT,
	ledger.TtCheckCreate:    TshROLLBACK,
	ledger.TtCheckCash:      TshROLLBACK,
	ledger.TtCheckCancel:    TshCOLLECT,
	ledger.TtDepositPreauth: TshROLLBACK,
	ledger.TtTrustSet:       TshCOLLECT,
	ledger.TtAccountDelete:  TshROLLBACK,
	ledger.TtHookSet:        TshNONE,
}

// Stakeholder is one account whose hooks run for a transaction.
type Stakeholder struct {
	Account        common.AccountID
	RollbackRights bool
}

// TransactionalStakeholders resolves the ordered stakeholder list for a
// transaction: the sender first (always with rollback rights), then the
// counterparty the transaction type designates.
func TransactionalStakeholders(txn *ledger.Txn, rv ledger.ReadView) []Stakeholder {
	out := []Stakeholder{{Account: txn.Account, RollbackRights: true}}

	flags := tshAllowances[txn.Type]
	if flags == TshNONE {
		return out
	}
	dest, ok := txnCounterparty(txn)
	if !ok || dest == txn.Account {
		return out
	}
	out = append(out, Stakeholder{
		Account:        dest,
		RollbackRights: flags == TshROLLBACK,
	})
	return out
}

func txnCounterparty(txn *ledger.Txn) (common.AccountID, bool) {
	if off, l, err := sto.Subfield(txn.Raw, sto.SfDestination); err == nil && l == 20 {
		return accountAt(txn.Raw, off)
	}
	// trust lines and offers carry the counterparty inside the amount issuer
	if off, l, err := sto.Subfield(txn.Raw, sto.SfAmount); err == nil && l == 48 {
		return accountAt(txn.Raw, off+28)
	}
	return common.AccountID{}, false
}

func accountAt(buf []byte, off int) (common.AccountID, bool) {
	var a common.AccountID
	copy(a[:], buf[off:off+20])
	return a, !a.IsZero()
}

// CanHook reports whether a hook with the given HookOn mask fires for a
// transaction type. A raised bit suppresses that type and a clear bit lets
// it fire; HookSet gets no special treatment.
func CanHook(txType uint16, hookOn uint64) bool {
	if txType > 63 {
		return false
	}
	return hookOn&(uint64(1)<<txType) == 0
}

// HookOnBit is the mask bit for one transaction type.
func HookOnBit(txType uint16) uint64 {
	return uint64(1) << txType
}
