// Package crypto defines the external cryptography capability (§6.1) the
// transaction engine consumes: hashing, ECDSA sign/verify, and public-key
// derivation. The interpreter and transaction packages never touch a
// curve-math or hash-primitive library directly -- they hold an Oracle and
// call through it, exactly like the teacher's capability-interface
// broadcaster/chain-tracker pattern.
package crypto

// PrivateKey is an opaque scalar handed back to the caller. The engine
// never inspects its internals; it only ever round-trips it to ECDSASign
// and DerivePublicKey.
type PrivateKey interface {
	// Bytes returns the raw 32-byte scalar.
	Bytes() []byte
}

// PublicKey is an opaque curve point.
type PublicKey interface {
	// Compressed returns the 33-byte SEC1-compressed encoding.
	Compressed() []byte
}

// Signature is a DER-encoded, low-S ECDSA signature.
type Signature []byte

// Oracle is the full capability surface consumed by the core. A default,
// concrete implementation lives in DefaultOracle; callers may substitute
// their own (HSM-backed, remote signer, ...).
type Oracle interface {
	SHA256(data []byte) [32]byte
	SHA256D(data []byte) [32]byte
	RIPEMD160(data []byte) [20]byte
	Hash160(data []byte) [20]byte

	// ECDSASign produces a low-S DER signature over a 32-byte digest.
	ECDSASign(priv PrivateKey, digest [32]byte) (Signature, error)

	// ECDSAVerify checks a DER signature over a 32-byte digest.
	ECDSAVerify(pub PublicKey, digest [32]byte, sig Signature) (bool, error)

	// DerivePublicKey returns the compressed public key for a private key.
	DerivePublicKey(priv PrivateKey) (PublicKey, error)

	// ParsePublicKey decodes a compressed or uncompressed SEC1 public key.
	ParsePublicKey(b []byte) (PublicKey, error)
}
