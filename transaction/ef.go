package transaction

import (
	"fmt"

	"github.com/torrejonv/ts-sdk/binary"
	"github.com/torrejonv/ts-sdk/script"
)

// efMarker is the 6-byte sequence signaling Extended Format, placed
// immediately after the version field and before the input count.
var efMarker = [6]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0xef}

// EFBytes serializes the transaction in Extended Format: the legacy
// layout with each input additionally carrying its source satoshis and
// source locking script, so a verifier can validate scripts without
// resolving any ancestor transaction. Every input's source output must be
// resolvable, either via SourceTransaction or a hint set by the caller.
func (tx *Transaction) EFBytes() ([]byte, error) {
	w := binary.NewWriter()
	w.WriteUint32LE(tx.Version)
	w.WriteBytes(efMarker[:])
	w.WriteVarInt(uint64(len(tx.Inputs)))
	for i, in := range tx.Inputs {
		if err := writeInput(w, in); err != nil {
			return nil, fmt.Errorf("transaction: ef input %d: %w", i, err)
		}
		sats, lockScript, err := tx.resolveEFSource(in)
		if err != nil {
			return nil, fmt.Errorf("transaction: ef input %d source: %w", i, err)
		}
		w.WriteUint64LE(sats)
		w.WriteVarBytes(lockScript)
	}
	w.WriteVarInt(uint64(len(tx.Outputs)))
	for i, out := range tx.Outputs {
		if err := writeOutput(w, out); err != nil {
			return nil, fmt.Errorf("transaction: ef output %d: %w", i, err)
		}
	}
	w.WriteUint32LE(tx.LockTime)
	return w.Bytes(), nil
}

func (tx *Transaction) resolveEFSource(in *Input) (uint64, []byte, error) {
	out, err := in.ResolvedSourceOutput()
	if err != nil {
		return 0, nil, err
	}
	return out.satoshisValue(), *out.LockingScript, nil
}

// SetSourceHint records a source output's amount and locking script for
// an input whose ancestor transaction is not resolved in memory -- used
// when building from an Extended Format transaction or a BEEF entry whose
// ancestors are only known by TXID.
func (in *Input) SetSourceHint(satoshis uint64, lockingScript script.Script) {
	in.sourceSatoshisHint = &satoshis
	in.sourceLockingScriptHint = &lockingScript
}

// IsEFBytes reports whether b carries the Extended Format marker
// immediately after the version field.
func IsEFBytes(b []byte) bool {
	if len(b) < 4+6 {
		return false
	}
	var marker [6]byte
	copy(marker[:], b[4:10])
	return marker == efMarker
}

// NewFromEFBytes decodes an Extended Format transaction, populating each
// input's source hint from the embedded satoshi amount and locking
// script.
func NewFromEFBytes(b []byte) (*Transaction, error) {
	if !IsEFBytes(b) {
		return nil, fmt.Errorf("transaction: not an extended-format transaction")
	}
	r := binary.NewReader(b)
	tx := New()
	var err error
	if tx.Version, err = r.ReadUint32LE(); err != nil {
		return nil, fmt.Errorf("transaction: ef version: %w", err)
	}
	if _, err := r.ReadBytes(6); err != nil {
		return nil, fmt.Errorf("transaction: ef marker: %w", err)
	}

	nIn, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("transaction: ef input count: %w", err)
	}
	tx.Inputs = make([]*Input, nIn)
	for i := range tx.Inputs {
		in, err := readInput(r)
		if err != nil {
			return nil, fmt.Errorf("transaction: ef input %d: %w", i, err)
		}
		sats, err := r.ReadUint64LE()
		if err != nil {
			return nil, fmt.Errorf("transaction: ef input %d source satoshis: %w", i, err)
		}
		lockBytes, err := r.ReadVarBytes()
		if err != nil {
			return nil, fmt.Errorf("transaction: ef input %d source script: %w", i, err)
		}
		in.SetSourceHint(sats, script.NewFromBytes(lockBytes))
		tx.Inputs[i] = in
	}

	nOut, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("transaction: ef output count: %w", err)
	}
	tx.Outputs = make([]*Output, nOut)
	for i := range tx.Outputs {
		out, err := readOutput(r)
		if err != nil {
			return nil, fmt.Errorf("transaction: ef output %d: %w", i, err)
		}
		tx.Outputs[i] = out
	}

	if tx.LockTime, err = r.ReadUint32LE(); err != nil {
		return nil, fmt.Errorf("transaction: ef locktime: %w", err)
	}
	return tx, nil
}
