package interpreter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/torrejonv/ts-sdk/crypto"
	"github.com/torrejonv/ts-sdk/script"
)

type stubChecker struct {
	sigOK bool
}

func (s stubChecker) CheckSignature(sig, pubKey, subscript []byte) (bool, error) {
	if len(sig) == 0 {
		return false, errors.New("empty signature")
	}
	return s.sigOK, nil
}
func (s stubChecker) CheckLockTime(locktime int64) error { return nil }
func (s stubChecker) CheckSequence(sequence int64) error { return nil }

func TestSimpleEqualSuccess(t *testing.T) {
	locking := script.New().AppendOpcode(script.OP_EQUAL)
	unlocking := script.New().AppendPushData([]byte("x")).AppendPushData([]byte("x"))

	res, serr := Execute(unlocking, locking, DefaultLimits(), stubChecker{}, crypto.NewDefaultOracle())
	require.Nil(t, serr)
	assert.True(t, res.Success)
}

func TestEqualFailure(t *testing.T) {
	locking := script.New().AppendOpcode(script.OP_EQUAL)
	unlocking := script.New().AppendPushData([]byte("x")).AppendPushData([]byte("y"))

	res, serr := Execute(unlocking, locking, DefaultLimits(), stubChecker{}, crypto.NewDefaultOracle())
	require.Nil(t, serr)
	assert.False(t, res.Success)
}

func TestUnlockingMustBePushOnly(t *testing.T) {
	locking := script.New().AppendOpcode(script.OP_1)
	unlocking := script.New().AppendOpcode(script.OP_DUP)

	_, serr := Execute(unlocking, locking, DefaultLimits(), stubChecker{}, crypto.NewDefaultOracle())
	require.NotNil(t, serr)
	assert.Equal(t, KindPushOnlyRequired, serr.Kind)
}

func TestIfElseBranching(t *testing.T) {
	locking := script.New().AppendOpcode(script.OP_IF).
		AppendPushData([]byte("true-branch")).
		AppendOpcode(script.OP_ELSE).
		AppendPushData([]byte("false-branch")).
		AppendOpcode(script.OP_ENDIF)

	unlockTrue := script.New().AppendOpcode(script.OP_1)
	res, serr := Execute(unlockTrue, locking, DefaultLimits(), stubChecker{}, crypto.NewDefaultOracle())
	require.Nil(t, serr)
	assert.True(t, bytes.Equal(res.Stack[0], []byte("true-branch")))

	unlockFalse := script.New().AppendOpcode(script.OP_0)
	res, serr = Execute(unlockFalse, locking, DefaultLimits(), stubChecker{}, crypto.NewDefaultOracle())
	require.Nil(t, serr)
	assert.True(t, bytes.Equal(res.Stack[0], []byte("false-branch")))
}

func TestUnbalancedIfFails(t *testing.T) {
	locking := script.New().AppendOpcode(script.OP_IF).AppendPushData([]byte("x"))
	unlocking := script.New().AppendOpcode(script.OP_1)

	_, serr := Execute(unlocking, locking, DefaultLimits(), stubChecker{}, crypto.NewDefaultOracle())
	require.NotNil(t, serr)
	assert.Equal(t, KindControlStackMismatch, serr.Kind)
}

func TestCheckSigSuccess(t *testing.T) {
	locking := script.New().AppendOpcode(script.OP_CHECKSIG)
	unlocking := script.New().AppendPushData([]byte{0x30, 0x01}).AppendPushData([]byte("pubkey"))

	res, serr := Execute(unlocking, locking, DefaultLimits(), stubChecker{sigOK: true}, crypto.NewDefaultOracle())
	require.Nil(t, serr)
	assert.True(t, res.Success)
}

func TestP2PKHShape(t *testing.T) {
	oracle := crypto.NewDefaultOracle()
	pubKey := []byte("fake-pubkey-bytes-but-matching-h")
	hash := oracle.Hash160(pubKey)

	unlocking := script.New().AppendPushData([]byte{0x30, 0x01}).AppendPushData(pubKey)
	locking := script.New().
		AppendOpcode(script.OP_DUP).
		AppendOpcode(script.OP_HASH160).
		AppendPushData(hash[:]).
		AppendOpcode(script.OP_EQUALVERIFY).
		AppendOpcode(script.OP_CHECKSIG)

	res, serr := Execute(unlocking, locking, DefaultLimits(), stubChecker{sigOK: true}, oracle)
	require.Nil(t, serr)
	assert.True(t, res.Success)
}

func TestStackMemoryGuardAgainstDupExplosion(t *testing.T) {
	// Push one byte, then OP_DUP enough times to exceed a tiny ceiling.
	locking := script.New()
	for i := 0; i < 30; i++ {
		locking = locking.AppendOpcode(script.OP_DUP)
	}
	unlocking := script.New().AppendPushData([]byte{0xff})

	limits := DefaultLimits()
	limits.MaxScriptMemory = 16 // bytes

	_, serr := Execute(unlocking, locking, limits, stubChecker{}, crypto.NewDefaultOracle())
	require.NotNil(t, serr)
	assert.Equal(t, KindStackMemoryExceeded, serr.Kind)
}

func TestStackMemoryGuardAgainstSquaring(t *testing.T) {
	// OP_2 OP_MUL (OP_DUP OP_MUL)* OP_DROP, per spec scenario 6: each
	// OP_DUP OP_MUL squares the top element, doubling its bit-length.
	// A small ceiling is used here (rather than the scenario's 32MB) so
	// the test converges in a handful of iterations instead of needing
	// gigabit-scale big.Int multiplication to prove the same mechanism.
	locking := script.New().AppendOpcode(script.OP_MUL)
	for i := 0; i < 20; i++ {
		locking = locking.AppendOpcode(script.OP_DUP).AppendOpcode(script.OP_MUL)
	}
	locking = locking.AppendOpcode(script.OP_DROP)
	unlocking := script.New().AppendOpcode(script.OP_2).AppendOpcode(script.OP_2)

	limits := DefaultLimits()
	limits.MaxScriptMemory = 256 // bytes

	_, serr := Execute(unlocking, locking, limits, stubChecker{}, crypto.NewDefaultOracle())
	require.NotNil(t, serr)
	assert.Equal(t, KindStackMemoryExceeded, serr.Kind)
}

func TestArithmeticOps(t *testing.T) {
	locking := script.New().AppendOpcode(script.OP_ADD)
	unlocking := script.New().AppendNumber(2).AppendNumber(3)

	res, serr := Execute(unlocking, locking, DefaultLimits(), stubChecker{}, crypto.NewDefaultOracle())
	require.Nil(t, serr)
	n, ok := script.DecodeScriptNumber(res.Stack[0], 8)
	require.True(t, ok)
	assert.Equal(t, int64(5), n)
}

func TestDisabledOpcodeFails(t *testing.T) {
	locking := script.New().AppendOpcode(script.OP_VER)
	unlocking := script.New()

	_, serr := Execute(unlocking, locking, DefaultLimits(), stubChecker{}, crypto.NewDefaultOracle())
	require.NotNil(t, serr)
	assert.Equal(t, KindDisabledOpcode, serr.Kind)
}
