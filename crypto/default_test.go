package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash160(t *testing.T) {
	o := NewDefaultOracle()
	h := o.Hash160([]byte("hello"))
	assert.Len(t, h, 20)
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	o := NewDefaultOracle()
	priv, err := NewPrivateKeyFromBytes(bytes.Repeat([]byte{0x07}, 32))
	require.NoError(t, err)

	pub, err := o.DerivePublicKey(priv)
	require.NoError(t, err)

	digest := o.SHA256([]byte("sign me"))
	sig, err := o.ECDSASign(priv, digest)
	require.NoError(t, err)

	ok, err := o.ECDSAVerify(pub, digest, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectsTamperedDigest(t *testing.T) {
	o := NewDefaultOracle()
	priv, err := NewPrivateKeyFromBytes(bytes.Repeat([]byte{0x09}, 32))
	require.NoError(t, err)
	pub, err := o.DerivePublicKey(priv)
	require.NoError(t, err)

	digest := o.SHA256([]byte("original"))
	sig, err := o.ECDSASign(priv, digest)
	require.NoError(t, err)

	tampered := o.SHA256([]byte("tampered"))
	ok, err := o.ECDSAVerify(pub, tampered, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParsePublicKeyRoundTrip(t *testing.T) {
	o := NewDefaultOracle()
	priv, err := NewPrivateKeyFromBytes(bytes.Repeat([]byte{0x0a}, 32))
	require.NoError(t, err)
	pub, err := o.DerivePublicKey(priv)
	require.NoError(t, err)

	parsed, err := o.ParsePublicKey(pub.Compressed())
	require.NoError(t, err)
	assert.Equal(t, pub.Compressed(), parsed.Compressed())
}
