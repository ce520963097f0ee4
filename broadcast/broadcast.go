// Package broadcast defines the Broadcaster capability a Transaction
// submits itself through, and an ARC-style default HTTP implementation.
package broadcast

import (
	"context"

	"github.com/torrejonv/ts-sdk/chainhash"
)

// FailureCode is the small, closed set of broadcast rejection reasons a
// Broadcaster maps its transport's response onto.
type FailureCode string

const (
	RejectedByNetwork FailureCode = "REJECTED_BY_NETWORK"
	DoubleSpend       FailureCode = "DOUBLE_SPEND"
	InvalidTx         FailureCode = "INVALID_TRANSACTION"
	ServiceUnavailable FailureCode = "SERVICE_UNAVAILABLE"
	Unknown           FailureCode = "UNKNOWN"
)

// Success is the result of an accepted broadcast.
type Success struct {
	TxID    chainhash.Hash
	Message string
}

// Failure is the result of a rejected or failed broadcast.
type Failure struct {
	Code        FailureCode
	Description string
}

func (f Failure) Error() string {
	return string(f.Code) + ": " + f.Description
}

// Result is the BroadcastResult sum type: exactly one of Success or
// Failure is non-nil.
type Result struct {
	Success *Success
	Failure *Failure
}

// Broadcaster is the capability a Transaction submits itself through.
// Implementations never panic on rejection -- a deterministic rejection
// is returned inside Result.Failure, not as the method's error, which is
// reserved for transport-level failures the caller might retry.
type Broadcaster interface {
	Broadcast(ctx context.Context, rawTx []byte) (Result, error)
}
