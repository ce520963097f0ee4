// Package chaintracker provides a reference, in-memory implementation of
// the merklepath.ChainTracker capability: a simple height-to-root map
// suitable for tests and for applications that already maintain their
// own header store and just need the two-method query surface the SPV
// verifier depends on.
package chaintracker

import (
	"context"
	"sync"

	"github.com/torrejonv/ts-sdk/chainhash"
)

// MemoryTracker is an in-memory, concurrency-safe ChainTracker backed by
// a height-to-root map. It never fetches headers itself; callers
// populate it from whatever header source they trust.
type MemoryTracker struct {
	mu      sync.RWMutex
	roots   map[uint32]chainhash.Hash
	highest uint32
	hasAny  bool
}

// NewMemoryTracker returns an empty tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{roots: make(map[uint32]chainhash.Hash)}
}

// PutRoot records the accepted Merkle root for height, per the tracker's
// own trust source (a header chain, a trusted API, ...).
func (t *MemoryTracker) PutRoot(height uint32, root chainhash.Hash) error {
	if root.IsZero() {
		return ErrNilRoot
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.roots[height] = root
	if !t.hasAny || height > t.highest {
		t.highest = height
		t.hasAny = true
	}
	return nil
}

// CurrentHeight returns the greatest height PutRoot has recorded.
func (t *MemoryTracker) CurrentHeight(_ context.Context) (uint32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.hasAny {
		return 0, ErrHeightNotFound
	}
	return t.highest, nil
}

// IsValidRootForHeight reports whether root matches the recorded root
// for height. An unrecorded height is treated as invalid, not an error,
// since a chain tracker answering "I don't know" and "that's wrong" the
// same way is exactly what a verifier needs to reject unanchored claims.
func (t *MemoryTracker) IsValidRootForHeight(_ context.Context, root chainhash.Hash, height uint32) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	known, ok := t.roots[height]
	if !ok {
		return false, nil
	}
	return known == root, nil
}
