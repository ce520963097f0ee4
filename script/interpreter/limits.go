package interpreter

import "fmt"

// Limits is the resource-bound configuration passed explicitly to every
// Execute call -- no package-level default is mutated, per the "no
// process-wide mutable state" design note.
type Limits struct {
	// MaxScriptMemory bounds the live sum of byte-lengths of every
	// element on the stack and altstack. Default 100MB for validation;
	// callers handling untrusted wire input should lower this to <=1MB.
	MaxScriptMemory int64

	// MaxOpCount bounds the number of non-push opcodes executed. Zero
	// means unbounded, matching BSV's removal of the legacy 201-opcode
	// ceiling; the field exists so callers can impose their own policy.
	MaxOpCount int64

	// MaxScriptNumberLen bounds the byte length of the script numbers
	// decoded as counts and positions: the PICK/ROLL depth, the SPLIT
	// position, the NUM2BIN size and the CHECKMULTISIG key and signature
	// counts. 4 by default. It does not bound the arithmetic, comparison
	// or boolean opcodes (ADD, NUMEQUAL, WITHIN, ...), whose operands are
	// decoded at any length save for MaxScriptMemory, nor IF conditions,
	// which are read as booleans. CLTV/CSV operands use a fixed 5-byte
	// ceiling of their own.
	MaxScriptNumberLen int
}

// DefaultLimits returns the validation-context defaults: 100MB script
// memory, unbounded op count, 4-byte script numbers.
func DefaultLimits() Limits {
	return Limits{
		MaxScriptMemory:    100 * 1024 * 1024,
		MaxOpCount:         0,
		MaxScriptNumberLen: 4,
	}
}

// UntrustedLimits returns the tighter ceiling recommended when validating
// transactions received over the wire from an untrusted peer.
func UntrustedLimits() Limits {
	l := DefaultLimits()
	l.MaxScriptMemory = 1024 * 1024
	return l
}

// Validate checks the limits are internally consistent.
func (l Limits) Validate() error {
	if l.MaxScriptMemory <= 0 {
		return fmt.Errorf("interpreter: MaxScriptMemory must be positive")
	}
	if l.MaxScriptNumberLen <= 0 {
		return fmt.Errorf("interpreter: MaxScriptNumberLen must be positive")
	}
	if l.MaxOpCount < 0 {
		return fmt.Errorf("interpreter: MaxOpCount must not be negative")
	}
	return nil
}
