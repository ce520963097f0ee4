package transaction

// Sign materializes every input's unlocking script in input order (index
// 0 first), since some sighash scopes commit to other inputs by
// position. Fee must have already fixed every output's satoshi value;
// an input with a materialized UnlockingScript already is left alone.
func (tx *Transaction) Sign() error {
	if !tx.feeComputed {
		return ErrSignBeforeFee
	}
	for i, in := range tx.Inputs {
		if in.UnlockingScript != nil {
			continue
		}
		if in.UnlockingScriptTemplate == nil {
			return ErrSigningMissingSource
		}
		tx.executingInputIndex = i
		sig, err := in.UnlockingScriptTemplate.Sign(tx, i)
		if err != nil {
			return err
		}
		in.UnlockingScript = sig
		in.UnlockingScriptTemplate = nil
	}
	tx.signed = true
	return nil
}
