package transaction

import (
	"github.com/torrejonv/ts-sdk/binary"
)

// FeeModel computes the fee owed for a transaction of the given
// serialized byte size.
type FeeModel interface {
	Compute(size int) uint64
}

// SatoshisPerKilobyte is a linear fee model: Rate satoshis per 1000
// serialized bytes, rounded up so a transaction never underpays.
type SatoshisPerKilobyte struct {
	Rate uint64
}

func (m SatoshisPerKilobyte) Compute(size int) uint64 {
	return (uint64(size)*m.Rate + 999) / 1000
}

// Fixed is a flat fee regardless of transaction size.
type Fixed struct {
	Satoshis uint64
}

func (m Fixed) Compute(int) uint64 {
	return m.Satoshis
}

// ChangeDistribution selects how a change remainder is spread across the
// transaction's change outputs.
type ChangeDistribution int

const (
	// Equal splits the remainder as evenly as integer division allows,
	// folding any residual into the fee rather than losing it.
	Equal ChangeDistribution = iota
	// Random draws a uniform partition of the remainder across the
	// change outputs, each receiving at least one satoshi.
	Random
)

// Fee runs the two-pass fee and change solver: estimate size, compute
// fee, distribute the remainder across every output whose Satoshis is
// still undefined (a change output), and fix every output's value. If
// distribution would leave a change output at zero satoshis, that output
// is dropped and the solve is retried exactly once.
func (tx *Transaction) Fee(model FeeModel, dist ChangeDistribution) error {
	changeOutputs := make([]*Output, 0, len(tx.Outputs))
	for _, out := range tx.Outputs {
		if out.IsChangePlaceholder() {
			changeOutputs = append(changeOutputs, out)
		}
	}

	if err := tx.solveFee(model, dist, changeOutputs); err != nil {
		return err
	}
	if !anyZero(changeOutputs) {
		tx.feeComputed = true
		return nil
	}

	tx.Outputs = removeZeroChange(tx.Outputs, changeOutputs)
	retained := make([]*Output, 0, len(changeOutputs))
	for _, out := range changeOutputs {
		if out.satoshisValue() != 0 {
			retained = append(retained, out)
		}
		out.Satoshis = nil
	}

	if err := tx.solveFee(model, dist, retained); err != nil {
		return err
	}
	if anyZero(retained) {
		return ErrFeeSolverDidNotConverge
	}
	tx.feeComputed = true
	return nil
}

func anyZero(outs []*Output) bool {
	for _, o := range outs {
		if o.satoshisValue() == 0 {
			return true
		}
	}
	return false
}

func removeZeroChange(all, change []*Output) []*Output {
	drop := make(map[*Output]bool, len(change))
	for _, c := range change {
		if c.satoshisValue() == 0 {
			drop[c] = true
		}
	}
	if len(drop) == 0 {
		return all
	}
	kept := make([]*Output, 0, len(all))
	for _, o := range all {
		if !drop[o] {
			kept = append(kept, o)
		}
	}
	return kept
}

// solveFee estimates the serialized size, computes the fee, and
// distributes the remainder across changeOutputs in place.
func (tx *Transaction) solveFee(model FeeModel, dist ChangeDistribution, changeOutputs []*Output) error {
	var totalIn uint64
	for _, in := range tx.Inputs {
		sats, err := tx.sourceSatoshisForInput(indexOfInput(tx, in))
		if err != nil {
			return err
		}
		totalIn += sats
	}

	var totalFixedOut uint64
	for _, out := range tx.Outputs {
		if !out.IsChangePlaceholder() {
			totalFixedOut += out.satoshisValue()
		}
	}

	size := tx.estimateSize()
	fee := model.Compute(size)

	if totalIn < totalFixedOut+fee {
		return ErrInsufficientFunds
	}
	remainder := totalIn - totalFixedOut - fee

	if len(changeOutputs) == 0 {
		// No change output to absorb any surplus; it becomes extra fee.
		return nil
	}

	shares := distributeRemainder(remainder, len(changeOutputs), dist)
	for i, out := range changeOutputs {
		v := shares[i]
		out.Satoshis = &v
	}
	return nil
}

// distributeRemainder splits remainder across n outputs per dist. Equal
// gives every entry remainder/n and leaves the residual of the integer
// division unassigned, so it goes to the fee. Random's last entry absorbs
// whatever the partition leaves over, so its shares sum to exactly
// remainder.
func distributeRemainder(remainder uint64, n int, dist ChangeDistribution) []uint64 {
	shares := make([]uint64, n)
	if n == 0 {
		return shares
	}
	switch dist {
	case Random:
		return partitionUniform(remainder, n)
	default: // Equal
		base := remainder / uint64(n)
		for i := range shares {
			shares[i] = base
		}
		return shares
	}
}

// partitionUniform draws n-1 cut points from a deterministic stream
// derived from remainder itself (this package has no ambient randomness
// source wired in -- see the fee engine's design note), producing a
// uniform-looking partition where every share is non-zero and the sum is
// exactly remainder; the last share absorbs the remainder.
func partitionUniform(remainder uint64, n int) []uint64 {
	shares := make([]uint64, n)
	if n == 1 {
		shares[0] = remainder
		return shares
	}
	if remainder < uint64(n) {
		// Not enough satoshis for every output to get at least one; the
		// caller's zero-change retry logic drops the resulting
		// zero-value outputs and re-solves.
		for i := 0; i < int(remainder); i++ {
			shares[i] = 1
		}
		return shares
	}

	w := binary.NewWriter()
	w.WriteUint64LE(remainder)
	w.WriteVarInt(uint64(n))
	seed := w.Bytes()

	avg := remainder / uint64(n)
	var distributed uint64
	for i := 0; i < n-1; i++ {
		jitter := uint64(seed[i%len(seed)]) % (avg + 1)
		share := avg/2 + jitter
		if share == 0 {
			share = 1
		}
		shares[i] = share
		distributed += share
	}
	shares[n-1] = remainder - distributed
	if shares[n-1] == 0 {
		shares[n-1] = 1
		// Borrow one satoshi from the largest other share to keep the sum
		// exact.
		maxIdx := 0
		for i := 1; i < n-1; i++ {
			if shares[i] > shares[maxIdx] {
				maxIdx = i
			}
		}
		shares[maxIdx]--
	}
	return shares
}

func indexOfInput(tx *Transaction, target *Input) int {
	for i, in := range tx.Inputs {
		if in == target {
			return i
		}
	}
	return -1
}

// estimateSize computes the provisional serialized byte size used by the
// fee model: static overhead plus each input's outpoint/script/sequence
// and each output's satoshis/script, using EstimateLength for any input
// still carrying a deferred signing template.
func (tx *Transaction) estimateSize() int {
	const staticOverhead = 4 + 4 + 1 + 1 // version, locktime, input-count varint, output-count varint (1-byte case)
	size := staticOverhead
	for _, in := range tx.Inputs {
		scriptLen := 0
		switch {
		case in.UnlockingScript != nil:
			scriptLen = in.UnlockingScript.Len()
		case in.UnlockingScriptTemplate != nil:
			scriptLen = int(in.UnlockingScriptTemplate.EstimateLength())
		}
		size += 36 + binary.VarIntLen(uint64(scriptLen)) + scriptLen + 4
	}
	for _, out := range tx.Outputs {
		scriptLen := 0
		if out.LockingScript != nil {
			scriptLen = out.LockingScript.Len()
		}
		size += 8 + binary.VarIntLen(uint64(scriptLen)) + scriptLen
	}
	return size
}
