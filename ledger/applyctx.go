package ledger

import (
	"github.com/pantyukhov/xrpld-hooks/log"
)

// ApplyContext carries everything one transaction application needs: the
// mutable view, the originating transaction, and a journal.
type ApplyContext struct {
	View    ApplyView
	Txn     *Txn
	Journal log.Logger
}

func NewApplyContext(view ApplyView, txn *Txn) *ApplyContext {
	return &ApplyContext{
		View:    view,
		Txn:     txn,
		Journal: log.Root(),
	}
}
