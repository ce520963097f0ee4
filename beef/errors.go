package beef

import "errors"

var (
	// ErrUnknownVersion indicates the 4-byte magic did not match a
	// recognized BEEF version.
	ErrUnknownVersion = errors.New("beef: unknown version magic")

	// ErrDanglingReference indicates a transaction's input refers to a
	// TXID that never appears earlier in the bundle and carries no BUMP.
	ErrDanglingReference = errors.New("beef: dangling reference to unresolved ancestor")

	// ErrInvalidBumpIndex indicates a transaction entry names a BUMP
	// index outside the bundle's BUMP list.
	ErrInvalidBumpIndex = errors.New("beef: invalid bump index")

	// ErrSubjectMissing indicates an Atomic-BEEF's declared subject TXID
	// is not present among the embedded bundle's transactions.
	ErrSubjectMissing = errors.New("beef: subject transaction missing from bundle")

	// ErrNotAtomic indicates the 4-byte atomic prefix did not match.
	ErrNotAtomic = errors.New("beef: not an atomic-beef prefix")
)
