package transaction

import (
	"fmt"

	"github.com/torrejonv/ts-sdk/binary"
	"github.com/torrejonv/ts-sdk/chainhash"
	"github.com/torrejonv/ts-sdk/script"
)

// Bytes serializes the transaction in the legacy wire format:
// version | varint(nIn) | inputs | varint(nOut) | outputs | lockTime.
// Every input's unlocking script must already be materialized.
func (tx *Transaction) Bytes() ([]byte, error) {
	w := binary.NewWriter()
	w.WriteUint32LE(tx.Version)
	w.WriteVarInt(uint64(len(tx.Inputs)))
	for i, in := range tx.Inputs {
		if err := writeInput(w, in); err != nil {
			return nil, fmt.Errorf("transaction: input %d: %w", i, err)
		}
	}
	w.WriteVarInt(uint64(len(tx.Outputs)))
	for i, out := range tx.Outputs {
		if err := writeOutput(w, out); err != nil {
			return nil, fmt.Errorf("transaction: output %d: %w", i, err)
		}
	}
	w.WriteUint32LE(tx.LockTime)
	return w.Bytes(), nil
}

func writeInput(w *binary.Writer, in *Input) error {
	if in.UnlockingScript == nil {
		return ErrSigningMissingSource
	}
	txid := in.SourceTXIDValue()
	w.WriteBytes(txid[:])
	w.WriteUint32LE(in.SourceOutputIndex)
	w.WriteVarBytes(*in.UnlockingScript)
	w.WriteUint32LE(in.sequenceOrDefault())
	return nil
}

func writeOutput(w *binary.Writer, out *Output) error {
	if out.IsChangePlaceholder() {
		return fmt.Errorf("transaction: output satoshis undefined at serialize time")
	}
	w.WriteUint64LE(out.satoshisValue())
	w.WriteVarBytes(*out.LockingScript)
	return nil
}

// TXID computes the transaction identifier: SHA-256d of the legacy
// serialization (excluding the merkle path), in internal byte order;
// its String form is the reversed display hex.
func (tx *Transaction) TXID() chainhash.Hash {
	b, err := tx.Bytes()
	if err != nil {
		// A transaction with unsigned inputs has no stable TXID; callers
		// computing TXID before Sign get the identity of the
		// currently-materialized (e.g. empty) unlocking scripts.
		b = tx.unsafeBytesForIdentity()
	}
	return chainhash.Sum256d(b)
}

// unsafeBytesForIdentity serializes with empty unlocking scripts
// substituted for any input missing one, so an unsigned transaction still
// has a well-defined (and distinct from its signed form) identity.
func (tx *Transaction) unsafeBytesForIdentity() []byte {
	w := binary.NewWriter()
	w.WriteUint32LE(tx.Version)
	w.WriteVarInt(uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		txid := in.SourceTXIDValue()
		w.WriteBytes(txid[:])
		w.WriteUint32LE(in.SourceOutputIndex)
		if in.UnlockingScript != nil {
			w.WriteVarBytes(*in.UnlockingScript)
		} else {
			w.WriteVarBytes(nil)
		}
		w.WriteUint32LE(in.sequenceOrDefault())
	}
	w.WriteVarInt(uint64(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		w.WriteUint64LE(out.satoshisValue())
		if out.LockingScript != nil {
			w.WriteVarBytes(*out.LockingScript)
		} else {
			w.WriteVarBytes(nil)
		}
	}
	w.WriteUint32LE(tx.LockTime)
	return w.Bytes()
}

// NewFromBytes decodes a legacy-format transaction. Source output/amount
// information for each input is not recoverable from legacy bytes alone
// (it lives in the Extended Format or must be resolved externally).
func NewFromBytes(b []byte) (*Transaction, error) {
	return DecodeFrom(binary.NewReader(b))
}

// DecodeFrom decodes a single legacy-format transaction from r, consuming
// exactly its own bytes and leaving r positioned immediately after. BEEF
// and other stream-based container formats that embed transactions
// back-to-back without a length prefix use this directly instead of
// NewFromBytes.
func DecodeFrom(r *binary.Reader) (*Transaction, error) {
	tx := New()
	var err error
	if tx.Version, err = r.ReadUint32LE(); err != nil {
		return nil, fmt.Errorf("transaction: version: %w", err)
	}

	nIn, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("transaction: input count: %w", err)
	}
	tx.Inputs = make([]*Input, nIn)
	for i := range tx.Inputs {
		in, err := readInput(r)
		if err != nil {
			return nil, fmt.Errorf("transaction: input %d: %w", i, err)
		}
		tx.Inputs[i] = in
	}

	nOut, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("transaction: output count: %w", err)
	}
	tx.Outputs = make([]*Output, nOut)
	for i := range tx.Outputs {
		out, err := readOutput(r)
		if err != nil {
			return nil, fmt.Errorf("transaction: output %d: %w", i, err)
		}
		tx.Outputs[i] = out
	}

	if tx.LockTime, err = r.ReadUint32LE(); err != nil {
		return nil, fmt.Errorf("transaction: locktime: %w", err)
	}
	return tx, nil
}

func readInput(r *binary.Reader) (*Input, error) {
	txidBytes, err := r.ReadBytes(chainhash.Size)
	if err != nil {
		return nil, err
	}
	txid, err := chainhash.NewFromBytes(txidBytes)
	if err != nil {
		return nil, err
	}
	idx, err := r.ReadUint32LE()
	if err != nil {
		return nil, err
	}
	scriptBytes, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	seq, err := r.ReadUint32LE()
	if err != nil {
		return nil, err
	}
	s := script.NewFromBytes(scriptBytes)
	return &Input{
		SourceTXID:        txid,
		SourceOutputIndex: idx,
		UnlockingScript:   &s,
		Sequence:          seq,
	}, nil
}

func readOutput(r *binary.Reader) (*Output, error) {
	sats, err := r.ReadUint64LE()
	if err != nil {
		return nil, err
	}
	scriptBytes, err := r.ReadVarBytes()
	if err != nil {
		return nil, err
	}
	s := script.NewFromBytes(scriptBytes)
	out := &Output{LockingScript: &s}
	out.Satoshis = &sats
	out.LooksSuspicious = sats > (uint64(1)<<53 - 1)
	return out, nil
}

// ScriptOffset describes where a variable-length script lives within a
// raw transaction buffer, for zero-copy callers.
type ScriptOffset struct {
	Offset int
	Length int
}

// ScriptOffsets is the result of ParseScriptOffsets: per-input and
// per-output script locations within the original byte slice.
type ScriptOffsets struct {
	Inputs  []ScriptOffset
	Outputs []ScriptOffset
}

// ParseScriptOffsets is a zero-copy preparser: it walks a raw legacy
// transaction just far enough to record where each script lives, without
// allocating Input/Output objects. Performance-critical callers (e.g. a
// broadcaster scanning many transactions for a specific locking-script
// pattern) use this instead of NewFromBytes.
func ParseScriptOffsets(b []byte) (*ScriptOffsets, error) {
	r := binary.NewReader(b)
	if _, err := r.ReadUint32LE(); err != nil {
		return nil, fmt.Errorf("transaction: version: %w", err)
	}
	nIn, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("transaction: input count: %w", err)
	}
	out := &ScriptOffsets{}
	for i := uint64(0); i < nIn; i++ {
		if _, err := r.ReadBytes(chainhash.Size + 4); err != nil {
			return nil, fmt.Errorf("transaction: input %d outpoint: %w", i, err)
		}
		n, err := r.ReadVarInt()
		if err != nil {
			return nil, fmt.Errorf("transaction: input %d script length: %w", i, err)
		}
		off := r.Pos()
		if _, err := r.ReadBytes(int(n)); err != nil {
			return nil, fmt.Errorf("transaction: input %d script: %w", i, err)
		}
		out.Inputs = append(out.Inputs, ScriptOffset{Offset: off, Length: int(n)})
		if _, err := r.ReadUint32LE(); err != nil {
			return nil, fmt.Errorf("transaction: input %d sequence: %w", i, err)
		}
	}
	nOut, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("transaction: output count: %w", err)
	}
	for i := uint64(0); i < nOut; i++ {
		if _, err := r.ReadUint64LE(); err != nil {
			return nil, fmt.Errorf("transaction: output %d satoshis: %w", i, err)
		}
		n, err := r.ReadVarInt()
		if err != nil {
			return nil, fmt.Errorf("transaction: output %d script length: %w", i, err)
		}
		off := r.Pos()
		if _, err := r.ReadBytes(int(n)); err != nil {
			return nil, fmt.Errorf("transaction: output %d script: %w", i, err)
		}
		out.Outputs = append(out.Outputs, ScriptOffset{Offset: off, Length: int(n)})
	}
	return out, nil
}
