package interpreter

// SignatureChecker is the capability the transaction package implements
// so OP_CHECKSIG/OP_CHECKMULTISIG and the locktime opcodes can consult
// transaction context without the interpreter importing the transaction
// package -- the same small-capability-interface pattern as the
// Broadcaster/ChainTracker boundaries elsewhere in this module.
type SignatureChecker interface {
	// CheckSignature verifies a single (signature, pubkey) pair against
	// the preimage built from subscript and the scope encoded in the
	// signature's trailing hashtype byte.
	CheckSignature(sig, pubKey, subscript []byte) (bool, error)

	// CheckLockTime reports whether the given absolute locktime operand
	// (from OP_CHECKLOCKTIMEVERIFY) is satisfied by the enclosing
	// transaction and input.
	CheckLockTime(locktime int64) error

	// CheckSequence reports whether the given relative-locktime operand
	// (from OP_CHECKSEQUENCEVERIFY) is satisfied by the enclosing input.
	CheckSequence(sequence int64) error
}
