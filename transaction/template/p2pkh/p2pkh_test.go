package p2pkh_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torrejonv/ts-sdk/crypto"
	"github.com/torrejonv/ts-sdk/internal/testfixtures"
	"github.com/torrejonv/ts-sdk/script"
	"github.com/torrejonv/ts-sdk/script/interpreter"
	"github.com/torrejonv/ts-sdk/transaction"
	"github.com/torrejonv/ts-sdk/transaction/template/p2pkh"
)

func makeKey(t *testing.T, seed byte) (crypto.PrivateKey, []byte) {
	t.Helper()
	key, err := crypto.NewPrivateKeyFromBytes(testfixtures.DeterministicKey(seed))
	require.NoError(t, err)
	oracle := crypto.DefaultOracle{}
	pub, err := oracle.DerivePublicKey(key)
	require.NoError(t, err)
	hash := oracle.Hash160(pub.Compressed())
	return key, hash[:]
}

func TestLockRejectsWrongLength(t *testing.T) {
	_, err := p2pkh.Lock([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestSignProducesValidSignature(t *testing.T) {
	key, pubKeyHash := makeKey(t, 0x07)
	lockScript, err := p2pkh.Lock(pubKeyHash)
	require.NoError(t, err)

	tx := transaction.New()
	in := &transaction.Input{}
	in.SetSourceHint(5000, *lockScript)
	in.UnlockingScriptTemplate = p2pkh.Unlock(key, 0, false)
	tx.AddInput(in)

	change := script.New().AppendOpcode(script.OP_TRUE)
	out := &transaction.Output{LockingScript: &change}
	tx.AddOutput(out)

	require.NoError(t, tx.Fee(transaction.SatoshisPerKilobyte{Rate: 1}, transaction.Equal))
	require.NoError(t, tx.Sign())
	require.True(t, tx.IsSigned())
	require.NotNil(t, tx.Inputs[0].UnlockingScript)

	res, scriptErr := interpreter.Execute(*tx.Inputs[0].UnlockingScript, *lockScript, interpreter.DefaultLimits(), tx, crypto.DefaultOracle{})
	require.Nil(t, scriptErr)
	assert.True(t, res.Success)
}

func TestEstimateLengthMatchesWorstCase(t *testing.T) {
	u := p2pkh.Unlock(nil, 0, false)
	assert.Equal(t, uint32(108), u.EstimateLength())
}
