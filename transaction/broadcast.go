package transaction

import (
	"context"

	"github.com/torrejonv/ts-sdk/broadcast"
)

// Broadcast serializes the transaction and submits it through b, or
// through broadcast.DefaultBroadcaster when b is nil. Sign must already
// have materialized every input's unlocking script.
func (tx *Transaction) Broadcast(ctx context.Context, b broadcast.Broadcaster) (broadcast.Result, error) {
	if !tx.signed {
		return broadcast.Result{}, ErrNotSigned
	}
	if b == nil {
		b = broadcast.DefaultBroadcaster
	}
	raw, err := tx.Bytes()
	if err != nil {
		return broadcast.Result{}, err
	}
	return b.Broadcast(ctx, raw)
}
