package transaction

import "errors"

var (
	// ErrUnresolvedSource indicates an input's ancestor transaction or
	// output could not be resolved.
	ErrUnresolvedSource = errors.New("transaction: unresolved source output")

	// ErrInsufficientFunds indicates total input value cannot cover the
	// fixed outputs plus fee.
	ErrInsufficientFunds = errors.New("transaction: insufficient funds")

	// ErrFeeSolverDidNotConverge indicates the change-distribution
	// zero-output retry still produced a zero-satoshi change output.
	ErrFeeSolverDidNotConverge = errors.New("transaction: fee solver did not converge")

	// ErrSignBeforeFee indicates Sign was called before Fee fixed every
	// output's satoshi value.
	ErrSignBeforeFee = errors.New("transaction: sign called before fee")

	// ErrSigningMissingSource indicates an input has neither a
	// materialized unlocking script nor a template, or its source
	// output/amount could not be resolved for sighash purposes.
	ErrSigningMissingSource = errors.New("transaction: input missing source or unlocking capability")

	// ErrSatoshiOutOfRange indicates a satoshi value exceeds what this
	// builder accepts (see Output.SetSatoshis).
	ErrSatoshiOutOfRange = errors.New("transaction: satoshi value out of accepted range")

	// ErrInvalidSighashFlag indicates a SighashScope byte set reserved
	// bits or omitted the mandatory FORKID bit.
	ErrInvalidSighashFlag = errors.New("transaction: invalid sighash flag")

	// ErrTruncatedInput indicates the wire bytes ended before a
	// transaction could be fully decoded.
	ErrTruncatedInput = errors.New("transaction: truncated input")

	// ErrNotSigned indicates Broadcast was called before Sign
	// materialized every input's unlocking script.
	ErrNotSigned = errors.New("transaction: not signed")
)
