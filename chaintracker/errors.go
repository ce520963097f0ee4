package chaintracker

import "errors"

var (
	// ErrHeightNotFound indicates no root has been recorded for the
	// requested height.
	ErrHeightNotFound = errors.New("chaintracker: height not found")

	// ErrNilRoot indicates a caller tried to record a nil/zero root.
	ErrNilRoot = errors.New("chaintracker: nil root")
)
