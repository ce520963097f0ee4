package crypto

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // BSV hash160 requires RIPEMD-160.
)

// defaultPrivateKey wraps a btcec private key so it satisfies PrivateKey
// without leaking the curve library outside this package.
type defaultPrivateKey struct {
	key *btcec.PrivateKey
}

func (k defaultPrivateKey) Bytes() []byte {
	b := k.key.Serialize()
	return b
}

// defaultPublicKey wraps a btcec public key.
type defaultPublicKey struct {
	key *btcec.PublicKey
}

func (k defaultPublicKey) Compressed() []byte {
	return k.key.SerializeCompressed()
}

// NewPrivateKeyFromBytes builds a PrivateKey handle from a raw 32-byte
// scalar, for callers that need to hand the default oracle a key.
func NewPrivateKeyFromBytes(b []byte) (PrivateKey, error) {
	priv, pub := btcec.PrivKeyFromBytes(b)
	if priv == nil || pub == nil {
		return nil, fmt.Errorf("crypto: invalid private key bytes")
	}
	return defaultPrivateKey{key: priv}, nil
}

// DefaultOracle implements Oracle with SHA-256 (stdlib), RIPEMD-160
// (golang.org/x/crypto), and secp256k1 ECDSA (github.com/btcsuite/btcd/btcec/v2).
type DefaultOracle struct{}

// NewDefaultOracle constructs the default, in-process Oracle.
func NewDefaultOracle() *DefaultOracle {
	return &DefaultOracle{}
}

func (DefaultOracle) SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

func (o DefaultOracle) SHA256D(data []byte) [32]byte {
	first := o.SHA256(data)
	return o.SHA256(first[:])
}

func (DefaultOracle) RIPEMD160(data []byte) [20]byte {
	h := ripemd160.New()
	h.Write(data) //nolint:errcheck // ripemd160.Write never errors.
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (o DefaultOracle) Hash160(data []byte) [20]byte {
	sha := o.SHA256(data)
	return o.RIPEMD160(sha[:])
}

func (DefaultOracle) ECDSASign(priv PrivateKey, digest [32]byte) (Signature, error) {
	dk, ok := priv.(defaultPrivateKey)
	if !ok {
		return nil, fmt.Errorf("crypto: private key not produced by DefaultOracle")
	}
	sig := ecdsa.Sign(dk.key, digest[:])
	return Signature(sig.Serialize()), nil
}

func (DefaultOracle) ECDSAVerify(pub PublicKey, digest [32]byte, sig Signature) (bool, error) {
	dp, ok := pub.(defaultPublicKey)
	if !ok {
		return false, fmt.Errorf("crypto: public key not produced by DefaultOracle")
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false, nil
	}
	return parsed.Verify(digest[:], dp.key), nil
}

func (DefaultOracle) DerivePublicKey(priv PrivateKey) (PublicKey, error) {
	dk, ok := priv.(defaultPrivateKey)
	if !ok {
		return nil, fmt.Errorf("crypto: private key not produced by DefaultOracle")
	}
	return defaultPublicKey{key: dk.key.PubKey()}, nil
}

func (DefaultOracle) ParsePublicKey(b []byte) (PublicKey, error) {
	pub, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("crypto: parse public key: %w", err)
	}
	return defaultPublicKey{key: pub}, nil
}
