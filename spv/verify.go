// Package spv composes the script interpreter and the Merkle-path
// verifier into end-to-end transaction verification: walking the source
// chain of an unconfirmed transaction down to anchored, mined ancestors.
package spv

import (
	"context"
	"fmt"

	"github.com/torrejonv/ts-sdk/chainhash"
	"github.com/torrejonv/ts-sdk/script/interpreter"
	"github.com/torrejonv/ts-sdk/transaction"
)

// VerifyMode selects how thorough Verify is.
type VerifyMode int

const (
	// ScriptsOnly validates every script and Merkle-path anchor but does
	// not check the transaction's fee.
	ScriptsOnly VerifyMode = iota
	// Full additionally requires the transaction's fee to meet feeModel
	// for its serialized size.
	Full
)

// ChainTracker is the external oracle anchored Merkle roots are checked
// against.
type ChainTracker interface {
	CurrentHeight(ctx context.Context) (uint32, error)
	IsValidRootForHeight(ctx context.Context, root chainhash.Hash, height uint32) (bool, error)
}

// Verify walks tx's source chain and validates every non-anchored
// input's script, and every anchored ancestor's Merkle path against
// tracker. In Full mode it additionally requires tx's fee to meet
// feeModel for its own serialized size.
func Verify(ctx context.Context, tx *transaction.Transaction, mode VerifyMode, tracker ChainTracker, feeModel transaction.FeeModel, limits interpreter.Limits) error {
	visited := make(map[chainhash.Hash]bool)
	if err := verifyTransaction(ctx, tx, tracker, limits, visited); err != nil {
		return err
	}
	if mode == Full {
		if err := checkFee(tx, feeModel); err != nil {
			return err
		}
	}
	return nil
}

func verifyTransaction(ctx context.Context, tx *transaction.Transaction, tracker ChainTracker, limits interpreter.Limits, visited map[chainhash.Hash]bool) error {
	txid := tx.TXID()
	if visited[txid] {
		return nil
	}
	visited[txid] = true

	for i, in := range tx.Inputs {
		if err := verifyInputAnchorOrAncestor(ctx, in, tracker, limits, visited); err != nil {
			return err
		}
		if err := verifyInputScript(tx, i, limits); err != nil {
			return err
		}
	}
	return nil
}

func verifyInputAnchorOrAncestor(ctx context.Context, in *transaction.Input, tracker ChainTracker, limits interpreter.Limits, visited map[chainhash.Hash]bool) error {
	if in.SourceTransaction == nil {
		// No in-memory ancestor to recurse into and no anchor to check;
		// the script check alone (against the resolved source hint, if
		// any) is all that can be done for this input.
		return nil
	}
	ancestor := in.SourceTransaction

	if mp := ancestor.MerklePath; mp != nil {
		root, err := mp.ComputeRoot(ancestor.TXID())
		if err != nil {
			return fmt.Errorf("%w: %s", ErrBadMerkleRoot, err)
		}
		ok, err := tracker.IsValidRootForHeight(ctx, root, mp.BlockHeight())
		if err != nil {
			return fmt.Errorf("%w: %s", ErrOracleUnavailable, err)
		}
		if !ok {
			return &BadMerkleRootError{Height: mp.BlockHeight()}
		}
		return nil
	}
	if len(ancestor.Inputs) == 0 {
		return ErrUnanchoredChain
	}

	if int(in.SourceOutputIndex) >= len(ancestor.Outputs) {
		return fmt.Errorf("spv: ancestor %s has no output %d", ancestor.TXID(), in.SourceOutputIndex)
	}
	if err := verifyTransaction(ctx, ancestor, tracker, limits, visited); err != nil {
		return err
	}
	return nil
}

func verifyInputScript(tx *transaction.Transaction, inputIndex int, limits interpreter.Limits) error {
	in := tx.Inputs[inputIndex]
	if in.UnlockingScript == nil {
		return fmt.Errorf("%w: input %d has no unlocking script", ErrBadScript, inputIndex)
	}
	sourceOut, err := in.ResolvedSourceOutput()
	if err != nil {
		return ErrUnanchoredChain
	}

	tx.SetExecutingInputIndex(inputIndex)
	res, serr := interpreter.Execute(*in.UnlockingScript, *sourceOut.LockingScript, limits, tx, tx.OracleOrDefault())
	if serr != nil {
		return &BadScriptError{InputIndex: inputIndex, Err: serr}
	}
	if !res.Success {
		return &BadScriptError{InputIndex: inputIndex, Err: fmt.Errorf("script did not leave a single true stack element")}
	}
	return nil
}

func checkFee(tx *transaction.Transaction, feeModel transaction.FeeModel) error {
	size, totalIn, totalOut, err := tx.FeeAccounting()
	if err != nil {
		return err
	}
	required := feeModel.Compute(size)
	if totalIn < totalOut+required {
		return ErrInsufficientFee
	}
	return nil
}
