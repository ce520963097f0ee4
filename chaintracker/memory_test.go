package chaintracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/torrejonv/ts-sdk/chainhash"
)

func TestMemoryTrackerPutAndQuery(t *testing.T) {
	tr := NewMemoryTracker()
	root := chainhash.Sum256([]byte("block-100-root"))

	require.NoError(t, tr.PutRoot(100, root))

	ok, err := tr.IsValidRootForHeight(context.Background(), root, 100)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tr.IsValidRootForHeight(context.Background(), root, 101)
	require.NoError(t, err)
	assert.False(t, ok)

	height, err := tr.CurrentHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint32(100), height)
}

func TestMemoryTrackerRejectsNilRoot(t *testing.T) {
	tr := NewMemoryTracker()
	assert.ErrorIs(t, tr.PutRoot(1, chainhash.Hash{}), ErrNilRoot)
}

func TestMemoryTrackerUnknownHeightBeforeAnyPut(t *testing.T) {
	tr := NewMemoryTracker()
	_, err := tr.CurrentHeight(context.Background())
	assert.ErrorIs(t, err, ErrHeightNotFound)
}
