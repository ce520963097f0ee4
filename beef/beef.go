// Package beef implements the BEEF (Background Evaluation Extended
// Format) binary container: a topologically ordered bundle of
// transactions together with the deduplicated Merkle paths (BUMPs)
// anchoring their mined ancestors, plus the Atomic-BEEF framing that
// pins a single subject transaction inside a bundle.
package beef

import (
	"fmt"

	"github.com/torrejonv/ts-sdk/binary"
	"github.com/torrejonv/ts-sdk/chainhash"
	"github.com/torrejonv/ts-sdk/merklepath"
	"github.com/torrejonv/ts-sdk/transaction"
)

const (
	versionV1 uint32 = 0x0100BEEF
	versionV2 uint32 = 0x0200BEEF

	atomicPrefix uint32 = 0x01010101
)

// TxEntry is one transaction inside a bundle: either mined (BumpIndex
// names the anchoring BUMP) or unmined (BumpIndex is -1, and the entry's
// own inputs must resolve to earlier entries or mined ancestors).
// HasParents only has meaning in a V2 bundle; it is true whenever the
// entry's source transactions are themselves present in the bundle
// (false marks a deliberately pruned, opaque ancestor).
type TxEntry struct {
	TX         *transaction.Transaction
	BumpIndex  int
	HasParents bool
}

func (e *TxEntry) isMined() bool {
	return e.BumpIndex >= 0
}

// Beef is a decoded bundle: its BUMPs and its transaction entries in the
// order they appeared on the wire (which must be topological).
type Beef struct {
	Version uint32
	BUMPs   []*merklepath.MerklePath
	Entries []*TxEntry
}

// NewV1 returns an empty V1 bundle.
func NewV1() *Beef { return &Beef{Version: versionV1} }

// NewV2 returns an empty V2 bundle.
func NewV2() *Beef { return &Beef{Version: versionV2} }

// FindTransaction returns the transaction of the entry matching txid, or
// nil if absent.
func (b *Beef) FindTransaction(txid chainhash.Hash) *transaction.Transaction {
	for _, e := range b.Entries {
		if e.TX.TXID() == txid {
			return e.TX
		}
	}
	return nil
}

// Validate checks the two structural invariants a reader must enforce:
// every non-mined entry's source TXIDs resolve to an earlier entry or a
// mined ancestor, and every BumpIndex is in range. A V2 entry with
// HasParents false is exempt from the reference check (it is
// deliberately pruned and opaque).
func (b *Beef) Validate() error {
	seen := make(map[chainhash.Hash]bool, len(b.Entries))
	for i, e := range b.Entries {
		if e.isMined() && e.BumpIndex >= len(b.BUMPs) {
			return fmt.Errorf("%w: entry %d bump index %d", ErrInvalidBumpIndex, i, e.BumpIndex)
		}
		if !e.isMined() && b.Version == versionV2 && !e.HasParents {
			seen[e.TX.TXID()] = true
			continue
		}
		if !e.isMined() {
			for _, in := range e.TX.Inputs {
				src := in.SourceTXIDValue()
				if !seen[src] {
					return fmt.Errorf("%w: entry %d references %s", ErrDanglingReference, i, src)
				}
			}
		}
		seen[e.TX.TXID()] = true
	}
	return nil
}

// Bytes serializes the bundle per the V1/V2 wire layout: magic, BUMPs,
// then transaction entries in their current (assumed topological) order.
func (b *Beef) Bytes() ([]byte, error) {
	w := binary.NewWriter()
	w.WriteUint32LE(b.Version)

	w.WriteVarInt(uint64(len(b.BUMPs)))
	for _, bump := range b.BUMPs {
		w.WriteBytes(bump.Bytes())
	}

	w.WriteVarInt(uint64(len(b.Entries)))
	for i, e := range b.Entries {
		txBytes, err := e.TX.Bytes()
		if err != nil {
			return nil, fmt.Errorf("beef: entry %d: %w", i, err)
		}
		w.WriteBytes(txBytes)
		if e.isMined() {
			w.WriteByte(1) //nolint:errcheck // bytes.Buffer.WriteByte never errors.
			w.WriteVarInt(uint64(e.BumpIndex))
		} else {
			w.WriteByte(0) //nolint:errcheck // bytes.Buffer.WriteByte never errors.
		}
		if b.Version == versionV2 {
			if e.HasParents {
				w.WriteByte(1) //nolint:errcheck // bytes.Buffer.WriteByte never errors.
			} else {
				w.WriteByte(0) //nolint:errcheck // bytes.Buffer.WriteByte never errors.
			}
		}
	}
	return w.Bytes(), nil
}

// NewBeefFromBytes decodes a V1 or V2 bundle, deduplicating repeated
// transaction entries by TXID (later occurrences are dropped rather than
// rejected, per the ecosystem's tolerant-reader convention for this
// format) and validating topological order.
func NewBeefFromBytes(b []byte) (*Beef, error) {
	r := binary.NewReader(b)
	magic, err := r.ReadUint32LE()
	if err != nil {
		return nil, fmt.Errorf("beef: magic: %w", err)
	}
	if magic != versionV1 && magic != versionV2 {
		return nil, fmt.Errorf("%w: %#x", ErrUnknownVersion, magic)
	}
	bundle := &Beef{Version: magic}

	bumpMerklePaths, err := decodeBumps(r)
	if err != nil {
		return nil, err
	}
	bundle.BUMPs = bumpMerklePaths

	nTx, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("beef: tx count: %w", err)
	}

	seen := make(map[chainhash.Hash]bool, nTx)
	for i := uint64(0); i < nTx; i++ {
		tx, err := transaction.DecodeFrom(r)
		if err != nil {
			return nil, fmt.Errorf("beef: entry %d transaction: %w", i, err)
		}
		hasBump, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("beef: entry %d bump flag: %w", i, err)
		}
		entry := &TxEntry{TX: tx, BumpIndex: -1}
		if hasBump == 1 {
			idx, err := r.ReadVarInt()
			if err != nil {
				return nil, fmt.Errorf("beef: entry %d bump index: %w", i, err)
			}
			entry.BumpIndex = int(idx)
		}
		if bundle.Version == versionV2 {
			flag, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("beef: entry %d has-parents flag: %w", i, err)
			}
			entry.HasParents = flag == 1
		}

		txid := tx.TXID()
		if seen[txid] {
			continue
		}
		seen[txid] = true
		bundle.Entries = append(bundle.Entries, entry)
	}

	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	bundle.resolveReferences()
	return bundle, nil
}

// resolveReferences links each entry's inputs to the in-bundle ancestor
// they reference and anchors every mined entry's transaction to its BUMP,
// so a decoded bundle is ready for spv.Verify without the caller having
// to walk Entries itself.
func (b *Beef) resolveReferences() {
	for _, e := range b.Entries {
		if e.isMined() && e.BumpIndex < len(b.BUMPs) {
			e.TX.MerklePath = b.BUMPs[e.BumpIndex]
		}
		for _, in := range e.TX.Inputs {
			if in.SourceTransaction != nil {
				continue
			}
			if src := b.FindTransaction(in.SourceTXID); src != nil {
				in.SourceTransaction = src
			}
		}
	}
}

func decodeBumps(r *binary.Reader) ([]*merklepath.MerklePath, error) {
	nBumps, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("beef: bump count: %w", err)
	}
	bumps := make([]*merklepath.MerklePath, nBumps)
	for i := range bumps {
		mp, err := merklepath.DecodeFrom(r)
		if err != nil {
			return nil, fmt.Errorf("beef: bump %d: %w", i, err)
		}
		bumps[i] = mp
	}
	return bumps, nil
}

// ToAtomicBytes wraps the bundle in Atomic-BEEF framing, pinning subject
// as the transaction of interest. subject must already be present in
// the bundle.
func (b *Beef) ToAtomicBytes(subject chainhash.Hash) ([]byte, error) {
	if b.FindTransaction(subject) == nil {
		return nil, ErrSubjectMissing
	}
	bundleBytes, err := b.Bytes()
	if err != nil {
		return nil, err
	}
	w := binary.NewWriter()
	w.WriteUint32LE(atomicPrefix)
	w.WriteBytes(subject[:])
	w.WriteBytes(bundleBytes)
	return w.Bytes(), nil
}

// NewBeefFromAtomicBytes decodes an Atomic-BEEF, returning the embedded
// bundle's subject transaction. It fails with ErrSubjectMissing if the
// declared subject is not present in the embedded bundle.
func NewBeefFromAtomicBytes(b []byte) (*transaction.Transaction, chainhash.Hash, error) {
	r := binary.NewReader(b)
	prefix, err := r.ReadUint32LE()
	if err != nil {
		return nil, chainhash.Hash{}, fmt.Errorf("beef: atomic prefix: %w", err)
	}
	if prefix != atomicPrefix {
		return nil, chainhash.Hash{}, ErrNotAtomic
	}
	subjectBytes, err := r.ReadBytes(chainhash.Size)
	if err != nil {
		return nil, chainhash.Hash{}, fmt.Errorf("beef: atomic subject: %w", err)
	}
	subject, err := chainhash.NewFromBytes(subjectBytes)
	if err != nil {
		return nil, chainhash.Hash{}, err
	}

	bundle, err := NewBeefFromBytes(b[r.Pos():])
	if err != nil {
		return nil, chainhash.Hash{}, err
	}
	tx := bundle.FindTransaction(subject)
	if tx == nil {
		return nil, chainhash.Hash{}, ErrSubjectMissing
	}
	return tx, subject, nil
}
