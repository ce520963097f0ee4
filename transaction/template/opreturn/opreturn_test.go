package opreturn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torrejonv/ts-sdk/script"
	"github.com/torrejonv/ts-sdk/transaction/template/opreturn"
)

func TestLockRejectsNoPushes(t *testing.T) {
	_, err := opreturn.Lock(nil)
	assert.Error(t, err)
}

func TestLockStartsWithFalseReturn(t *testing.T) {
	s, err := opreturn.Lock([][]byte{[]byte("hello"), []byte("world")})
	require.NoError(t, err)

	b := []byte(*s)
	require.True(t, len(b) >= 2)
	assert.Equal(t, byte(script.OP_FALSE), b[0])
	assert.Equal(t, byte(script.OP_RETURN), b[1])
}
