package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pantyukhov/xrpld-hooks/common"
	"github.com/pantyukhov/xrpld-hooks/engine"
	"github.com/pantyukhov/xrpld-hooks/hook"
	"github.com/pantyukhov/xrpld-hooks/ledger"
	"github.com/pantyukhov/xrpld-hooks/log"
	"github.com/pantyukhov/xrpld-hooks/sto"
)

var logLevel string

func main() {
	rootCmd := &cobra.Command{
		Use:   "hooksd",
		Short: "Inspect, validate and run ledger hooks",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.InitLogger(logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "info", "log level (trace|debug|info|warn|error)")
	rootCmd.AddCommand(validateCmd(), execCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <hook.wasm>",
		Short: "Run install-time static analysis on hook bytecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			count, verr := hook.ValidateModule(code)
			if verr != nil {
				fmt.Printf("rejected: HookSet(%d): %s\n", verr.Code, verr.Msg)
				os.Exit(1)
			}
			fmt.Printf("ok: worst case instruction count %d\n", count)
			fmt.Printf("hook hash %s\n", common.SHA512Half(code).Hex())
			return nil
		},
	}
}

func execCmd() *cobra.Command {
	var txType uint16
	cmd := &cobra.Command{
		Use:   "exec <hook.wasm>",
		Short: "Install a hook on a scratch ledger and apply a transaction through it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			store := ledger.NewMemStore()
			defer store.Close()
			view := ledger.NewOverlayView(store, 1, common.Hash{})

			var sender, dest common.AccountID
			sender[0], dest[0] = 0x01, 0x02

			// install on the destination so payment-style transactions
			// trigger it
			installCtx := ledger.NewApplyContext(view, &ledger.Txn{Account: dest})
			apiVersion := uint16(0)
			hookOn := uint64(0)
			ns := common.HexToHash("0x01")
			if _, verr := hook.ApplyHookSet(installCtx, dest, []hook.HookSetEntry{{
				CreateCode: code,
				Namespace:  &ns,
				HookOn:     &hookOn,
				ApiVersion: &apiVersion,
			}}); verr != nil {
				return verr
			}

			txn, ok := ledger.ParseTxn(paymentTxn(sender, dest, txType))
			if !ok {
				return fmt.Errorf("internal: scratch transaction failed to parse")
			}
			applyCtx := ledger.NewApplyContext(view, txn)
			chain := hook.NewChain(engine.NewLifeEngine(), applyCtx)
			result := chain.ProcessTransaction(context.Background())

			for _, r := range result.Results {
				hook.FinalizeHookResult(r, applyCtx, result.Code == hook.TesSUCCESS)
			}
			if result.Code == hook.TesSUCCESS {
				hook.FinalizeHookState(chain.StateMap, applyCtx, common.SHA512Half(code))
				if err := view.Commit(); err != nil {
					return err
				}
			}

			out, _ := json.MarshalIndent(struct {
				Code    string             `json:"result"`
				Fee     uint64             `json:"fee"`
				Results []*hook.HookResult `json:"executions"`
			}{result.Code.String(), result.Fee, result.Results}, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().Uint16Var(&txType, "txtype", ledger.TtPayment, "transaction type to apply")
	return cmd
}

func paymentTxn(sender, dest common.AccountID, txType uint16) []byte {
	tt := make([]byte, 2)
	binary.BigEndian.PutUint16(tt, txType)
	out := sto.EncodeField(sto.SfTransactionType, tt)
	out = append(out, sto.EncodeField(sto.SfAccount, sender.Bytes())...)
	out = append(out, sto.EncodeField(sto.SfDestination, dest.Bytes())...)
	return out
}
