package transaction

import (
	"fmt"

	"github.com/torrejonv/ts-sdk/binary"
	"github.com/torrejonv/ts-sdk/chainhash"
	"github.com/torrejonv/ts-sdk/crypto"
	"github.com/torrejonv/ts-sdk/script"
)

// SighashScope is the one-byte sighash flag appended to a signature,
// selecting which parts of the transaction it commits to. FORKID is
// mandatory on every scope this package produces or accepts.
type SighashScope byte

const (
	SighashAll    SighashScope = 0x01
	SighashNone   SighashScope = 0x02
	SighashSingle SighashScope = 0x03

	SighashForkID       SighashScope = 0x40
	SighashAnyoneCanPay SighashScope = 0x80

	sighashBaseMask = 0x1f
)

func (s SighashScope) base() SighashScope {
	return s & sighashBaseMask
}

func (s SighashScope) anyoneCanPay() bool {
	return s&SighashAnyoneCanPay != 0
}

// validate rejects any scope byte outside {ALL,NONE,SINGLE} combined with
// the mandatory FORKID bit and the optional ANYONECANPAY bit.
func (s SighashScope) validate() error {
	base := s.base()
	if base != SighashAll && base != SighashNone && base != SighashSingle {
		return fmt.Errorf("%w: base scope %#x", ErrInvalidSighashFlag, base)
	}
	if s&SighashForkID == 0 {
		return fmt.Errorf("%w: missing mandatory FORKID bit", ErrInvalidSighashFlag)
	}
	known := sighashBaseMask | SighashForkID | SighashAnyoneCanPay
	if s&^known != 0 {
		return fmt.Errorf("%w: reserved bits set", ErrInvalidSighashFlag)
	}
	return nil
}

// ComputePreimage builds the BIP-143-derived, FORKID-hardened sighash
// preimage for inputIndex, signing against subscript (the locking script
// from the most recent OP_CODESEPARATOR onward, with signature bytes
// already stripped by the caller) and sourceSatoshis (that input's source
// output value, required because the amount is part of the preimage).
func ComputePreimage(tx *Transaction, inputIndex int, subscript script.Script, sourceSatoshis uint64, scope SighashScope) ([]byte, error) {
	if inputIndex < 0 || inputIndex >= len(tx.Inputs) {
		return nil, fmt.Errorf("transaction: sighash input index %d out of range", inputIndex)
	}
	if err := scope.validate(); err != nil {
		return nil, err
	}
	in := tx.Inputs[inputIndex]

	hashPrevouts := chainhash.Hash{}
	if !scope.anyoneCanPay() {
		w := binary.NewWriter()
		for _, other := range tx.Inputs {
			txid := other.SourceTXIDValue()
			w.WriteBytes(txid[:])
			w.WriteUint32LE(other.SourceOutputIndex)
		}
		hashPrevouts = chainhash.Sum256d(w.Bytes())
	}

	base := scope.base()
	hashSequence := chainhash.Hash{}
	if !scope.anyoneCanPay() && base != SighashNone && base != SighashSingle {
		w := binary.NewWriter()
		for _, other := range tx.Inputs {
			w.WriteUint32LE(other.sequenceOrDefault())
		}
		hashSequence = chainhash.Sum256d(w.Bytes())
	}

	hashOutputs, err := hashOutputsForScope(tx, inputIndex, base)
	if err != nil {
		return nil, err
	}

	w := binary.NewWriter()
	w.WriteUint32LE(tx.Version)
	w.WriteBytes(hashPrevouts[:])
	w.WriteBytes(hashSequence[:])
	txid := in.SourceTXIDValue()
	w.WriteBytes(txid[:])
	w.WriteUint32LE(in.SourceOutputIndex)
	w.WriteVarBytes(subscript)
	w.WriteUint64LE(sourceSatoshis)
	w.WriteUint32LE(in.sequenceOrDefault())
	w.WriteBytes(hashOutputs[:])
	w.WriteUint32LE(tx.LockTime)
	w.WriteUint32LE(uint32(scope))
	return w.Bytes(), nil
}

func hashOutputsForScope(tx *Transaction, inputIndex int, base SighashScope) (chainhash.Hash, error) {
	switch base {
	case SighashAll:
		w := binary.NewWriter()
		for _, out := range tx.Outputs {
			if err := writeOutput(w, out); err != nil {
				return chainhash.Hash{}, err
			}
		}
		return chainhash.Sum256d(w.Bytes()), nil
	case SighashSingle:
		if inputIndex >= len(tx.Outputs) {
			return chainhash.Hash{}, nil
		}
		w := binary.NewWriter()
		if err := writeOutput(w, tx.Outputs[inputIndex]); err != nil {
			return chainhash.Hash{}, err
		}
		return chainhash.Sum256d(w.Bytes()), nil
	default: // SighashNone
		return chainhash.Hash{}, nil
	}
}

// CheckSignature implements interpreter.SignatureChecker: it recomputes
// the preimage this signature must have committed to (the scope byte is
// the signature's own trailing byte) and verifies it with the
// transaction's crypto oracle. subscript is the already-stripped script
// supplied by the interpreter; the source amount for the input currently
// executing is resolved from its source output.
func (tx *Transaction) CheckSignature(sig, pubKey, subscript []byte) (bool, error) {
	idx := tx.executingInputIndex
	if len(sig) == 0 {
		return false, fmt.Errorf("transaction: empty signature")
	}
	scope := SighashScope(sig[len(sig)-1])
	rawSig := sig[:len(sig)-1]

	amount, err := tx.sourceSatoshisForInput(idx)
	if err != nil {
		return false, err
	}
	preimage, err := ComputePreimage(tx, idx, script.NewFromBytes(subscript), amount, scope)
	if err != nil {
		return false, err
	}
	digest := tx.oracle().SHA256D(preimage)
	pk, err := tx.oracle().ParsePublicKey(pubKey)
	if err != nil {
		return false, err
	}
	return tx.oracle().ECDSAVerify(pk, digest, crypto.Signature(rawSig))
}

// CheckLockTime implements interpreter.SignatureChecker for
// OP_CHECKLOCKTIMEVERIFY: the candidate locktime must not exceed the
// transaction's own, and the executing input must not be final.
func (tx *Transaction) CheckLockTime(locktime int64) error {
	if (tx.LockTime < 500000000) != (locktime < 500000000) {
		return fmt.Errorf("transaction: locktime type mismatch")
	}
	if locktime > int64(tx.LockTime) {
		return fmt.Errorf("transaction: locktime not yet reached")
	}
	idx := tx.executingInputIndex
	if idx >= 0 && idx < len(tx.Inputs) && tx.Inputs[idx].sequenceOrDefault() == DefaultSequence {
		return fmt.Errorf("transaction: input is final, locktime is not enforced")
	}
	return nil
}

// CheckSequence implements interpreter.SignatureChecker for
// OP_CHECKSEQUENCEVERIFY per BIP-112's relative-locktime rules.
func (tx *Transaction) CheckSequence(sequence int64) error {
	const sequenceLockTimeDisableFlag = 1 << 31
	const sequenceLockTimeTypeFlag = 1 << 22
	const sequenceLockTimeMask = 0x0000ffff

	if sequence&sequenceLockTimeDisableFlag != 0 {
		return nil
	}
	idx := tx.executingInputIndex
	if idx < 0 || idx >= len(tx.Inputs) {
		return fmt.Errorf("transaction: no executing input for CSV")
	}
	txSeq := int64(tx.Inputs[idx].sequenceOrDefault())
	if txSeq&sequenceLockTimeDisableFlag != 0 {
		return fmt.Errorf("transaction: input sequence disables relative locktime")
	}
	if (txSeq&sequenceLockTimeTypeFlag) != (sequence & sequenceLockTimeTypeFlag) {
		return fmt.Errorf("transaction: sequence type mismatch")
	}
	if sequence&sequenceLockTimeMask > txSeq&sequenceLockTimeMask {
		return fmt.Errorf("transaction: relative locktime not yet reached")
	}
	return nil
}

// sourceSatoshisForInput resolves the source output's value for idx,
// either from a shared in-memory ancestor or, when the ancestor is
// unresolved, from the source hint set by SetSourceHint or by EF decoding.
func (tx *Transaction) sourceSatoshisForInput(idx int) (uint64, error) {
	if idx < 0 || idx >= len(tx.Inputs) {
		return 0, ErrSigningMissingSource
	}
	out, err := tx.Inputs[idx].ResolvedSourceOutput()
	if err != nil {
		return 0, err
	}
	return out.satoshisValue(), nil
}
