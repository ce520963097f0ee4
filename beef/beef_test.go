package beef

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/torrejonv/ts-sdk/chainhash"
	"github.com/torrejonv/ts-sdk/crypto"
	"github.com/torrejonv/ts-sdk/internal/testfixtures"
	"github.com/torrejonv/ts-sdk/merklepath"
	"github.com/torrejonv/ts-sdk/script"
	"github.com/torrejonv/ts-sdk/script/interpreter"
	"github.com/torrejonv/ts-sdk/spv"
	"github.com/torrejonv/ts-sdk/transaction"
	"github.com/torrejonv/ts-sdk/transaction/template/p2pkh"
)

type stubTracker struct {
	valid map[uint32]chainhash.Hash
}

func (s stubTracker) CurrentHeight(context.Context) (uint32, error) { return 100, nil }
func (s stubTracker) IsValidRootForHeight(_ context.Context, root chainhash.Hash, height uint32) (bool, error) {
	return s.valid[height] == root, nil
}

func simpleTx(lockTime uint32) *transaction.Transaction {
	tx := transaction.New()
	tx.LockTime = lockTime
	out := script.New().AppendOpcode(script.OP_TRUE)
	tx.AddOutput(&transaction.Output{LockingScript: &out})
	sats := uint64(1000)
	tx.Outputs[0].Satoshis = &sats
	return tx
}

func TestBytesRoundTripV1(t *testing.T) {
	b := NewV1()
	tx := simpleTx(0)
	b.Entries = append(b.Entries, &TxEntry{TX: tx, BumpIndex: -1})

	encoded, err := b.Bytes()
	require.NoError(t, err)

	decoded, err := NewBeefFromBytes(encoded)
	require.NoError(t, err)
	assert.Equal(t, b.Version, decoded.Version)
	require.Len(t, decoded.Entries, 1)
	assert.Equal(t, tx.TXID(), decoded.Entries[0].TX.TXID())

	reencoded, err := decoded.Bytes()
	require.NoError(t, err)
	assert.Equal(t, encoded, reencoded)
}

func TestValidateRejectsDanglingReference(t *testing.T) {
	child := transaction.New()
	child.AddInput(&transaction.Input{SourceTXID: chainhash.Sum256([]byte("nonexistent"))})
	out := script.New().AppendOpcode(script.OP_TRUE)
	child.AddOutput(&transaction.Output{LockingScript: &out})
	sats := uint64(500)
	child.Outputs[0].Satoshis = &sats
	unlocking := script.New()
	child.Inputs[0].UnlockingScript = &unlocking

	b := NewV1()
	b.Entries = append(b.Entries, &TxEntry{TX: child, BumpIndex: -1})
	assert.ErrorIs(t, b.Validate(), ErrDanglingReference)
}

func TestDeduplicatesRepeatedEntries(t *testing.T) {
	tx := simpleTx(0)
	unlocking := script.New()
	tx.AddInput(&transaction.Input{SourceTXID: chainhash.Sum256([]byte("parent")), UnlockingScript: &unlocking})

	b := NewV1()
	b.Entries = append(b.Entries,
		&TxEntry{TX: tx, BumpIndex: 0},
		&TxEntry{TX: tx, BumpIndex: 0},
	)
	mp := &merklepath.MerklePath{Height: 1, Levels: []merklepath.Level{{{Offset: 0, IsTXID: true}}}}
	b.BUMPs = append(b.BUMPs, mp)

	encoded, err := b.Bytes()
	require.NoError(t, err)

	decoded, err := NewBeefFromBytes(encoded)
	require.NoError(t, err)
	assert.Len(t, decoded.Entries, 1)
}

func TestAtomicBracket(t *testing.T) {
	tx := simpleTx(42)
	b := NewV1()
	b.Entries = append(b.Entries, &TxEntry{TX: tx, BumpIndex: -1})

	atomicBytes, err := b.ToAtomicBytes(tx.TXID())
	require.NoError(t, err)

	gotTx, subject, err := NewBeefFromAtomicBytes(atomicBytes)
	require.NoError(t, err)
	assert.Equal(t, tx.TXID(), subject)
	assert.Equal(t, tx.TXID(), gotTx.TXID())
}

func TestAtomicMissingSubjectFails(t *testing.T) {
	tx := simpleTx(0)
	b := NewV1()
	b.Entries = append(b.Entries, &TxEntry{TX: tx, BumpIndex: -1})

	_, err := b.ToAtomicBytes(chainhash.Sum256([]byte("not-present")))
	assert.ErrorIs(t, err, ErrSubjectMissing)
}

// TestValidatesRealTopologicalOrder builds a bundle from two real,
// previously broadcast transactions (the second spends the first's
// output 0), with the mined parent listed before its unmined child,
// then validates it after a genuine decode from bytes rather than an
// in-memory SourceTransaction link. This is the scenario a wire-format
// byte-order mistake in the transaction package's input codec breaks:
// the child's decoded outpoint must equal the parent's independently
// computed TXID for Validate to accept the reference.
func TestValidatesRealTopologicalOrder(t *testing.T) {
	parentBytes, err := hex.DecodeString(testfixtures.KnownParentTxHex)
	require.NoError(t, err)
	parent, err := transaction.NewFromBytes(parentBytes)
	require.NoError(t, err)
	require.Equal(t, testfixtures.KnownParentTXID, parent.TXID().String())

	childBytes, err := hex.DecodeString(testfixtures.KnownChildTxHex)
	require.NoError(t, err)
	child, err := transaction.NewFromBytes(childBytes)
	require.NoError(t, err)
	require.Equal(t, testfixtures.KnownChildTXID, child.TXID().String())

	bump := &merklepath.MerklePath{
		Height: 500000,
		Levels: []merklepath.Level{
			{{Offset: 0, Hash: parent.TXID(), IsTXID: true}, {Offset: 1, Duplicate: true}},
		},
	}

	b := NewV1()
	b.BUMPs = append(b.BUMPs, bump)
	b.Entries = append(b.Entries,
		&TxEntry{TX: parent, BumpIndex: 0},
		&TxEntry{TX: child, BumpIndex: -1},
	)

	encoded, err := b.Bytes()
	require.NoError(t, err)

	decoded, err := NewBeefFromBytes(encoded)
	require.NoError(t, err)
	require.Len(t, decoded.Entries, 2)
	assert.NoError(t, decoded.Validate())
}

// TestDecodeWiresAncestorsForSPVVerify builds a bundle whose child entry
// spends a mined ancestor entry, decodes it purely from bytes, and checks
// the result passes spv.Verify. A decode that leaves Input.SourceTransaction
// and Transaction.MerklePath unset fails this at the first anchor check.
func TestDecodeWiresAncestorsForSPVVerify(t *testing.T) {
	oracle := crypto.NewDefaultOracle()
	priv, err := crypto.NewPrivateKeyFromBytes(testfixtures.DeterministicKey(11))
	require.NoError(t, err)
	pub, err := oracle.DerivePublicKey(priv)
	require.NoError(t, err)
	hash := oracle.Hash160(pub.Compressed())

	ancestor := transaction.New()
	lock, err := p2pkh.Lock(hash[:])
	require.NoError(t, err)
	ancestor.AddOutput(&transaction.Output{LockingScript: lock})
	require.NoError(t, ancestor.Outputs[0].SetSatoshis(5000))

	ancestorTXID := ancestor.TXID()
	bump := &merklepath.MerklePath{
		Height: 100,
		Levels: []merklepath.Level{
			{{Offset: 0, Hash: ancestorTXID, IsTXID: true}, {Offset: 1, Duplicate: true}},
		},
	}
	root, err := bump.ComputeRoot(ancestorTXID)
	require.NoError(t, err)
	tracker := &stubTracker{valid: map[uint32]chainhash.Hash{100: root}}

	spender := transaction.New()
	spender.AddInput(&transaction.Input{SourceTransaction: ancestor, SourceOutputIndex: 0,
		UnlockingScriptTemplate: p2pkh.Unlock(priv, transaction.SighashAll, false)})
	outLock := script.New().AppendOpcode(script.OP_TRUE)
	spender.AddOutput(&transaction.Output{LockingScript: &outLock})
	require.NoError(t, spender.Fee(transaction.Fixed{Satoshis: 200}, transaction.Equal))
	require.NoError(t, spender.Sign())

	b := NewV1()
	b.BUMPs = append(b.BUMPs, bump)
	b.Entries = append(b.Entries,
		&TxEntry{TX: ancestor, BumpIndex: 0},
		&TxEntry{TX: spender, BumpIndex: -1},
	)

	encoded, err := b.Bytes()
	require.NoError(t, err)

	decoded, err := NewBeefFromBytes(encoded)
	require.NoError(t, err)

	decodedSpender := decoded.FindTransaction(spender.TXID())
	require.NotNil(t, decodedSpender)
	require.NotNil(t, decodedSpender.Inputs[0].SourceTransaction)
	require.NotNil(t, decodedSpender.Inputs[0].SourceTransaction.MerklePath)

	err = spv.Verify(context.Background(), decodedSpender, spv.ScriptsOnly, tracker, nil, interpreter.DefaultLimits())
	assert.NoError(t, err)
}
