// Package merklepath implements the BRC-74 compact Merkle inclusion
// proof (BUMP): root computation against a block's coinbase-to-leaf
// tree, verification against an external chain oracle, and the
// combine-rule for merging two paths anchored to the same block.
package merklepath

import (
	"context"
	"fmt"

	"github.com/torrejonv/ts-sdk/binary"
	"github.com/torrejonv/ts-sdk/chainhash"
)

// Leaf is one entry at a given level of the tree: either an explicit
// hash, a duplicate-of-sibling marker, or (level 0 only) a TXID being
// proved.
type Leaf struct {
	Offset    uint32
	Hash      chainhash.Hash
	Duplicate bool
	IsTXID    bool
}

// Level is the ordered set of leaves known at one height of the tree,
// indexed by Offset (not necessarily contiguous or starting at 0).
type Level []Leaf

// MerklePath is a BUMP: the block height the path is anchored to, plus
// one Level per tree height from the leaves (level 0) to the row below
// the root.
type MerklePath struct {
	Height uint32
	Levels []Level
}

// ChainTracker is the external oracle a MerklePath is verified against:
// it knows the chain's current height and which Merkle roots are valid
// at a given height.
type ChainTracker interface {
	CurrentHeight(ctx context.Context) (uint32, error)
	IsValidRootForHeight(ctx context.Context, root chainhash.Hash, height uint32) (bool, error)
}

func (l Level) find(offset uint32) (Leaf, bool) {
	for _, leaf := range l {
		if leaf.Offset == offset {
			return leaf, true
		}
	}
	return Leaf{}, false
}

// ComputeRoot walks the tree bottom-up from txid's level-0 leaf to the
// root, pairing each offset with its sibling (offset+1 if even,
// offset-1 if odd). A sibling marked Duplicate contributes the current
// hash itself, so that node is paired with its own copy.
func (mp *MerklePath) ComputeRoot(txid chainhash.Hash) (chainhash.Hash, error) {
	if len(mp.Levels) == 0 {
		return chainhash.Hash{}, fmt.Errorf("merklepath: empty path")
	}
	offset, cur, err := mp.locateLeaf(txid)
	if err != nil {
		return chainhash.Hash{}, err
	}

	for depth := 0; depth < len(mp.Levels); depth++ {
		level := mp.Levels[depth]
		var siblingOffset uint32
		var left, right chainhash.Hash
		if offset%2 == 0 {
			siblingOffset = offset + 1
			sib, ok := level.find(siblingOffset)
			if !ok {
				return chainhash.Hash{}, fmt.Errorf("merklepath: missing sibling at level %d offset %d", depth, siblingOffset)
			}
			left, right = cur, mp.resolveLeaf(sib, cur)
		} else {
			siblingOffset = offset - 1
			sib, ok := level.find(siblingOffset)
			if !ok {
				return chainhash.Hash{}, fmt.Errorf("merklepath: missing sibling at level %d offset %d", depth, siblingOffset)
			}
			left, right = mp.resolveLeaf(sib, cur), cur
		}
		cur = hashPair(left, right)
		offset /= 2
	}
	return cur, nil
}

// resolveLeaf returns the sibling's contribution to the pairing: its own
// hash, unless it is marked Duplicate, in which case the pairing
// self-pairs with self (the hash currently being carried up).
func (mp *MerklePath) resolveLeaf(sibling Leaf, self chainhash.Hash) chainhash.Hash {
	if sibling.Duplicate {
		return self
	}
	return sibling.Hash
}

func (mp *MerklePath) locateLeaf(txid chainhash.Hash) (uint32, chainhash.Hash, error) {
	if len(mp.Levels) == 0 {
		return 0, chainhash.Hash{}, fmt.Errorf("merklepath: empty path")
	}
	for _, leaf := range mp.Levels[0] {
		if leaf.IsTXID && leaf.Hash == txid {
			return leaf.Offset, leaf.Hash, nil
		}
	}
	return 0, chainhash.Hash{}, fmt.Errorf("merklepath: txid %s not present at level 0", txid)
}

func hashPair(left, right chainhash.Hash) chainhash.Hash {
	buf := make([]byte, 0, chainhash.Size*2)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return chainhash.Sum256d(buf)
}

// BlockHeight implements transaction.MerklePathProvider.
func (mp *MerklePath) BlockHeight() uint32 {
	return mp.Height
}

// Verify reports whether the path's computed root for txid is accepted
// by tracker at the path's anchored height.
func (mp *MerklePath) Verify(ctx context.Context, txid chainhash.Hash, tracker ChainTracker) (bool, error) {
	root, err := mp.ComputeRoot(txid)
	if err != nil {
		return false, err
	}
	return tracker.IsValidRootForHeight(ctx, root, mp.Height)
}

// Combine merges two paths anchored to the same block height, zipping
// their levels and unioning leaves by offset. A leaf present in both at
// the same offset must carry an identical hash, or Combine fails.
func Combine(a, b *MerklePath) (*MerklePath, error) {
	if a.Height != b.Height {
		return nil, fmt.Errorf("merklepath: cannot combine paths anchored at different heights (%d != %d)", a.Height, b.Height)
	}
	if len(a.Levels) != len(b.Levels) {
		return nil, fmt.Errorf("merklepath: cannot combine paths with different depths (%d != %d)", len(a.Levels), len(b.Levels))
	}
	out := &MerklePath{Height: a.Height, Levels: make([]Level, len(a.Levels))}
	for depth := range a.Levels {
		merged, err := combineLevel(a.Levels[depth], b.Levels[depth])
		if err != nil {
			return nil, fmt.Errorf("merklepath: level %d: %w", depth, err)
		}
		out.Levels[depth] = merged
	}
	return out, nil
}

func combineLevel(a, b Level) (Level, error) {
	byOffset := make(map[uint32]Leaf, len(a)+len(b))
	order := make([]uint32, 0, len(a)+len(b))
	for _, leaf := range a {
		byOffset[leaf.Offset] = leaf
		order = append(order, leaf.Offset)
	}
	for _, leaf := range b {
		existing, ok := byOffset[leaf.Offset]
		if ok {
			if existing.Hash != leaf.Hash || existing.Duplicate != leaf.Duplicate {
				return nil, fmt.Errorf("offset %d conflicts between paths", leaf.Offset)
			}
			if leaf.IsTXID {
				existing.IsTXID = true
				byOffset[leaf.Offset] = existing
			}
			continue
		}
		byOffset[leaf.Offset] = leaf
		order = append(order, leaf.Offset)
	}
	merged := make(Level, 0, len(order))
	seen := make(map[uint32]bool, len(order))
	for _, off := range order {
		if seen[off] {
			continue
		}
		seen[off] = true
		merged = append(merged, byOffset[off])
	}
	return merged, nil
}

// Bytes encodes the path in BRC-74 form: varint(height), varint(levels),
// then per level varint(nLeaves) followed by leaves each as
// varint(offset), u8 flags, hash? (flags bit 0 = duplicate, bit 1 =
// txid-anchor; the hash is omitted only when Duplicate is set).
func (mp *MerklePath) Bytes() []byte {
	w := binary.NewWriter()
	w.WriteVarInt(uint64(mp.Height))
	w.WriteVarInt(uint64(len(mp.Levels)))
	for _, level := range mp.Levels {
		w.WriteVarInt(uint64(len(level)))
		for _, leaf := range level {
			w.WriteVarInt(uint64(leaf.Offset))
			var flags byte
			if leaf.Duplicate {
				flags |= 0x01
			}
			if leaf.IsTXID {
				flags |= 0x02
			}
			w.WriteByte(flags) //nolint:errcheck // bytes.Buffer.WriteByte never errors.
			if !leaf.Duplicate {
				w.WriteBytes(leaf.Hash[:])
			}
		}
	}
	return w.Bytes()
}

// NewFromBytes decodes a BRC-74 Merkle path.
func NewFromBytes(b []byte) (*MerklePath, error) {
	return DecodeFrom(binary.NewReader(b))
}

// DecodeFrom decodes a single BRC-74 Merkle path from r, consuming
// exactly its own bytes. BEEF's BUMP list embeds paths back-to-back
// without a length prefix, so it decodes directly from a shared reader
// rather than through NewFromBytes.
func DecodeFrom(r *binary.Reader) (*MerklePath, error) {
	height, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("merklepath: height: %w", err)
	}
	nLevels, err := r.ReadVarInt()
	if err != nil {
		return nil, fmt.Errorf("merklepath: level count: %w", err)
	}
	mp := &MerklePath{Height: uint32(height), Levels: make([]Level, nLevels)}
	for d := range mp.Levels {
		nLeaves, err := r.ReadVarInt()
		if err != nil {
			return nil, fmt.Errorf("merklepath: level %d leaf count: %w", d, err)
		}
		level := make(Level, nLeaves)
		for i := range level {
			offset, err := r.ReadVarInt()
			if err != nil {
				return nil, fmt.Errorf("merklepath: level %d leaf %d offset: %w", d, i, err)
			}
			flags, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("merklepath: level %d leaf %d flags: %w", d, i, err)
			}
			leaf := Leaf{
				Offset:    uint32(offset),
				Duplicate: flags&0x01 != 0,
				IsTXID:    flags&0x02 != 0,
			}
			if !leaf.Duplicate {
				hb, err := r.ReadBytes(chainhash.Size)
				if err != nil {
					return nil, fmt.Errorf("merklepath: level %d leaf %d hash: %w", d, i, err)
				}
				h, err := chainhash.NewFromBytes(hb)
				if err != nil {
					return nil, err
				}
				leaf.Hash = h
			}
			level[i] = leaf
		}
		mp.Levels[d] = level
	}
	return mp, nil
}
