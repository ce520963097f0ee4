// Package transaction implements the Bitcoin transaction data model:
// inputs, outputs, legacy and Extended-Format wire serialization, TXID,
// the SIGHASH preimage, the signing loop, and the fee/change solver.
package transaction

import (
	"github.com/torrejonv/ts-sdk/chainhash"
	"github.com/torrejonv/ts-sdk/crypto"
	"github.com/torrejonv/ts-sdk/script"
)

// DefaultSequence is the sequence number used when an Input does not set
// one explicitly.
const DefaultSequence uint32 = 0xffffffff

// Outpoint identifies a specific output of a prior transaction.
type Outpoint struct {
	TXID  chainhash.Hash
	Index uint32
}

// UnlockingScriptTemplate is the deferred-signing capability an Input may
// carry instead of a materialized unlocking script: the fee engine calls
// EstimateLength before the transaction is signed (since signature length
// is not yet known), and the sign loop calls Sign once real amounts and
// scripts are all fixed. Per spec's design notes, this is a small
// boxed-capability interface, not an inheritance hierarchy.
type UnlockingScriptTemplate interface {
	Sign(tx *Transaction, inputIndex int) (*script.Script, error)
	EstimateLength() uint32
}

// Input is one spent outpoint. Exactly one of SourceTXID/SourceTransaction
// identifies the ancestor, and (at sign time) exactly one of
// UnlockingScript/UnlockingScriptTemplate supplies the unlocking script.
type Input struct {
	SourceTXID         chainhash.Hash      // set when the ancestor is not resolved in-memory
	SourceTransaction  *Transaction        // set when the ancestor is a resolved, shared Transaction
	SourceOutputIndex  uint32

	UnlockingScript         *script.Script           // materialized; set after Sign()
	UnlockingScriptTemplate UnlockingScriptTemplate   // deferred; cleared once Sign() materializes the script

	Sequence uint32

	// sourceSatoshisHint lets EF-format decoding and tests supply a
	// source output's amount without a resolved SourceTransaction, since
	// the sighash preimage needs that amount even when the ancestor
	// itself was never fully materialized in memory.
	sourceSatoshisHint      *uint64
	sourceLockingScriptHint *script.Script
}

// SourceTXIDValue returns the TXID of the input's ancestor, resolving it
// from SourceTransaction when the ancestor object is shared in-memory.
func (in *Input) SourceTXIDValue() chainhash.Hash {
	if in.SourceTransaction != nil {
		return in.SourceTransaction.TXID()
	}
	return in.SourceTXID
}

// SourceOutput returns the Output this input spends, when the ancestor is
// a resolved, in-memory Transaction.
func (in *Input) SourceOutput() (*Output, error) {
	if in.SourceTransaction == nil {
		return nil, ErrUnresolvedSource
	}
	if int(in.SourceOutputIndex) >= len(in.SourceTransaction.Outputs) {
		return nil, ErrUnresolvedSource
	}
	return in.SourceTransaction.Outputs[in.SourceOutputIndex], nil
}

// ResolvedSourceOutput returns the Output this input spends, resolving
// it from a shared in-memory ancestor when available and otherwise from
// a source hint set by EF decoding or SetSourceHint. Unlike SourceOutput,
// callers that only need the amount and locking script (signing,
// sighash, fee estimation) can use this without requiring a fully
// materialized ancestor Transaction.
func (in *Input) ResolvedSourceOutput() (*Output, error) {
	if out, err := in.SourceOutput(); err == nil {
		return out, nil
	}
	if in.sourceSatoshisHint != nil && in.sourceLockingScriptHint != nil {
		return &Output{Satoshis: in.sourceSatoshisHint, LockingScript: in.sourceLockingScriptHint}, nil
	}
	return nil, ErrUnresolvedSource
}

// sequenceOrDefault returns Sequence, substituting DefaultSequence when
// the caller never set one (the zero value would otherwise mean
// "finalized with relative-locktime 0", which Input never intends as a
// default).
func (in *Input) sequenceOrDefault() uint32 {
	if in.Sequence == 0 {
		return DefaultSequence
	}
	return in.Sequence
}

// Output is one created output. Satoshis is a pointer so a change
// placeholder (undefined value) can be distinguished from an explicit
// zero -- spec 3's invariant is that every Output's Satoshis is defined
// by the time a Transaction is serialized.
type Output struct {
	Satoshis      *uint64
	LockingScript *script.Script

	// LooksSuspicious is set by the wire decoder when Satoshis exceeds
	// the 53-bit range a builder would ever accept through SetSatoshis.
	// The decoder still accepts the value as-is -- round-trip fidelity
	// for wire bytes beats validation on read -- and leaves the call on
	// what to do with it to the caller.
	LooksSuspicious bool
}

// IsChangePlaceholder reports whether this output's value has not yet
// been assigned by the fee engine.
func (o *Output) IsChangePlaceholder() bool {
	return o.Satoshis == nil
}

// SetSatoshis assigns a satoshi value, refusing values a correctly-built
// transaction cannot hold (spec's Open Question 2 resolution): negative
// values are impossible for a uint64 parameter, so this only rejects
// values that would not round-trip through the 53-bit float precision a
// lot of JSON-based wallet tooling in this ecosystem assumes.
func (o *Output) SetSatoshis(v uint64) error {
	if v > (uint64(1)<<53 - 1) {
		return ErrSatoshiOutOfRange
	}
	o.Satoshis = &v
	return nil
}

// satoshisValue panics-free accessor returning 0 for an unset placeholder,
// used internally by size estimation before the fee engine has run.
func (o *Output) satoshisValue() uint64 {
	if o.Satoshis == nil {
		return 0
	}
	return *o.Satoshis
}

// SatoshisValue is the exported form of satoshisValue, for script
// templates signing against a source output outside this package.
func (o *Output) SatoshisValue() uint64 {
	return o.satoshisValue()
}

// Transaction is the core mutable builder type. It is created empty, its
// inputs/outputs mutated freely, then sealed by Fee (which fixes every
// output's satoshi value) and Sign (which materializes every unlocking
// script). After Sign, the object should be treated as immutable for
// transport.
type Transaction struct {
	Version  uint32
	Inputs   []*Input
	Outputs  []*Output
	LockTime uint32

	// MerklePath, when present, anchors this transaction to a mined
	// block; it is not part of the TXID preimage.
	MerklePath MerklePathProvider

	// Oracle supplies the cryptographic primitives used when signing and
	// verifying this transaction's own signatures. It defaults lazily to
	// crypto.NewDefaultOracle() the first time it is needed.
	Oracle crypto.Oracle

	feeComputed bool
	signed      bool

	// executingInputIndex is set by Sign and by the SPV verifier around
	// each interpreter.Execute call, so CheckSignature/CheckLockTime/
	// CheckSequence (which implement interpreter.SignatureChecker) know
	// which input they are being asked about.
	executingInputIndex int
}

// MerklePathProvider is the part of merklepath.MerklePath that
// Transaction.MerklePath exposes (ComputeRoot against a TXID and
// BlockHeight). *merklepath.MerklePath satisfies it; this package does
// not import merklepath.
type MerklePathProvider interface {
	ComputeRoot(txid chainhash.Hash) (chainhash.Hash, error)
	BlockHeight() uint32
}

// New returns an empty Transaction with the conventional version 1.
func New() *Transaction {
	return &Transaction{Version: 1}
}

func (tx *Transaction) oracle() crypto.Oracle {
	if tx.Oracle == nil {
		tx.Oracle = crypto.NewDefaultOracle()
	}
	return tx.Oracle
}

// OracleOrDefault is the exported form of oracle, for script templates
// outside this package that need the same crypto capability the
// transaction itself uses to verify signatures.
func (tx *Transaction) OracleOrDefault() crypto.Oracle {
	return tx.oracle()
}

// AddInput appends an input.
func (tx *Transaction) AddInput(in *Input) {
	if in.Sequence == 0 {
		in.Sequence = DefaultSequence
	}
	tx.Inputs = append(tx.Inputs, in)
}

// AddOutput appends an output.
func (tx *Transaction) AddOutput(out *Output) {
	tx.Outputs = append(tx.Outputs, out)
}

// IsSigned reports whether Sign has materialized every input's unlocking
// script.
func (tx *Transaction) IsSigned() bool {
	return tx.signed
}

// SetExecutingInputIndex records which input the interpreter is
// currently validating, so CheckSignature/CheckLockTime/CheckSequence
// know which input they are being asked about. Callers driving
// interpreter.Execute directly (the SPV verifier) must call this
// immediately before each input's script runs.
func (tx *Transaction) SetExecutingInputIndex(i int) {
	tx.executingInputIndex = i
}

// FeeAccounting returns the transaction's estimated serialized size,
// total input value, and total output value, for callers (the SPV
// verifier's full-mode fee check) that need the raw numbers rather than
// a solved fee.
func (tx *Transaction) FeeAccounting() (size int, totalIn, totalOut uint64, err error) {
	size = tx.estimateSize()
	for i := range tx.Inputs {
		sats, serr := tx.sourceSatoshisForInput(i)
		if serr != nil {
			return 0, 0, 0, serr
		}
		totalIn += sats
	}
	for _, out := range tx.Outputs {
		totalOut += out.satoshisValue()
	}
	return size, totalIn, totalOut, nil
}
