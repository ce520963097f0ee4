package script

import "math/big"

// BSV's post-Genesis arithmetic opcodes (OP_ADD, OP_MUL, ...) operate on
// unbounded big integers rather than the 4-byte CScriptNum of legacy
// Bitcoin Core; only the script memory ceiling bounds how large an
// operand may grow. EncodeScriptBigNumber/DecodeScriptBigNumber give
// those opcodes a sign-and-magnitude codec compatible with the bounded
// EncodeScriptNumber/DecodeScriptNumber used by comparison and
// control-flow opcodes.

// EncodeScriptBigNumber encodes an arbitrary-precision integer into
// sign-and-magnitude, little-endian bytes.
func EncodeScriptBigNumber(n *big.Int) []byte {
	if n.Sign() == 0 {
		return nil
	}
	abs := new(big.Int).Abs(n)
	be := abs.Bytes() // big-endian magnitude
	out := make([]byte, len(be))
	for i, b := range be {
		out[len(be)-1-i] = b
	}
	if out[len(out)-1]&0x80 != 0 {
		out = append(out, 0)
	}
	if n.Sign() < 0 {
		out[len(out)-1] |= 0x80
	}
	return out
}

// DecodeScriptBigNumber decodes a sign-and-magnitude byte string into a
// big.Int, with no length bound.
func DecodeScriptBigNumber(b []byte) *big.Int {
	if len(b) == 0 {
		return new(big.Int)
	}
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	neg := be[0]&0x80 != 0
	be[0] &^= 0x80
	n := new(big.Int).SetBytes(be)
	if neg {
		n.Neg(n)
	}
	return n
}
