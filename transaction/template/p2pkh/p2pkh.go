// Package p2pkh implements the pay-to-public-key-hash script template:
// the canonical locking script and its matching unlocking-script
// signer, satisfying transaction.UnlockingScriptTemplate.
package p2pkh

import (
	"fmt"

	"github.com/torrejonv/ts-sdk/crypto"
	"github.com/torrejonv/ts-sdk/script"
	"github.com/torrejonv/ts-sdk/transaction"
)

// estimatedUnlockingLength is the worst-case byte length of a P2PKH
// unlocking script: push(1+72 DER signature+sighash byte) +
// push(1+33 compressed pubkey).
const estimatedUnlockingLength = 108

// Lock builds the standard `OP_DUP OP_HASH160 <hash> OP_EQUALVERIFY
// OP_CHECKSIG` locking script for a 20-byte public key hash.
func Lock(pubKeyHash []byte) (*script.Script, error) {
	if len(pubKeyHash) != 20 {
		return nil, fmt.Errorf("p2pkh: public key hash must be 20 bytes, got %d", len(pubKeyHash))
	}
	s := script.New().
		AppendOpcode(script.OP_DUP).
		AppendOpcode(script.OP_HASH160).
		AppendPushData(pubKeyHash).
		AppendOpcode(script.OP_EQUALVERIFY).
		AppendOpcode(script.OP_CHECKSIG)
	return &s, nil
}

// Unlocker implements transaction.UnlockingScriptTemplate, deferring
// signature production until the transaction's other outputs (and
// therefore its fee) are fixed.
type Unlocker struct {
	PrivateKey      crypto.PrivateKey
	SighashScope    transaction.SighashScope
	AnyoneCanPay    bool
}

// Unlock returns an Unlocker for key using scope, adding FORKID
// automatically and ANYONECANPAY when requested. scope defaults to
// SighashAll when zero.
func Unlock(key crypto.PrivateKey, scope transaction.SighashScope, anyoneCanPay bool) *Unlocker {
	if scope == 0 {
		scope = transaction.SighashAll
	}
	return &Unlocker{PrivateKey: key, SighashScope: scope, AnyoneCanPay: anyoneCanPay}
}

func (u *Unlocker) scopeByte() transaction.SighashScope {
	s := u.SighashScope | transaction.SighashForkID
	if u.AnyoneCanPay {
		s |= transaction.SighashAnyoneCanPay
	}
	return s
}

// EstimateLength returns the worst-case P2PKH unlocking script length,
// used by the fee engine before any signature exists.
func (u *Unlocker) EstimateLength() uint32 {
	return estimatedUnlockingLength
}

// Sign computes the sighash preimage for inputIndex against tx's locking
// script at that input's source output, signs it, and returns the
// completed `<sig+scope> <pubkey>` unlocking script.
func (u *Unlocker) Sign(tx *transaction.Transaction, inputIndex int) (*script.Script, error) {
	if inputIndex < 0 || inputIndex >= len(tx.Inputs) {
		return nil, fmt.Errorf("p2pkh: input index %d out of range", inputIndex)
	}
	in := tx.Inputs[inputIndex]
	sourceOut, err := in.ResolvedSourceOutput()
	if err != nil {
		return nil, err
	}

	oracle := tx.OracleOrDefault()
	scope := u.scopeByte()
	preimage, err := transaction.ComputePreimage(tx, inputIndex, *sourceOut.LockingScript, sourceOut.SatoshisValue(), scope)
	if err != nil {
		return nil, err
	}
	digest := oracle.SHA256D(preimage)

	sig, err := oracle.ECDSASign(u.PrivateKey, digest)
	if err != nil {
		return nil, fmt.Errorf("p2pkh: sign: %w", err)
	}
	sigWithScope := append(append([]byte{}, sig...), byte(scope))

	pub, err := oracle.DerivePublicKey(u.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("p2pkh: derive public key: %w", err)
	}

	unlocking := script.New().AppendPushData(sigWithScope).AppendPushData(pub.Compressed())
	return &unlocking, nil
}
