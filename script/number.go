package script

// Script numbers are sign-and-magnitude, little-endian byte strings: the
// high bit of the last byte is the sign flag, the remaining bits are the
// unsigned magnitude. The empty string encodes zero.

// EncodeScriptNumber encodes n into the minimal sign-and-magnitude form.
func EncodeScriptNumber(n int64) []byte {
	if n == 0 {
		return nil
	}
	neg := n < 0
	abs := n
	if neg {
		abs = -n
	}
	var out []byte
	for abs > 0 {
		out = append(out, byte(abs&0xff))
		abs >>= 8
	}
	// If the most significant bit of the last byte is already set, that
	// bit is the sign flag for the magnitude, so an extra zero byte is
	// needed to keep it unambiguous.
	if out[len(out)-1]&0x80 != 0 {
		out = append(out, 0)
	}
	if neg {
		out[len(out)-1] |= 0x80
	}
	return out
}

// DecodeScriptNumber decodes a sign-and-magnitude byte string into an
// int64. maxLen bounds the accepted input length (4 by default, 5 for
// CLTV/CSV operands per spec 4.3); exceeding it returns ok=false.
func DecodeScriptNumber(b []byte, maxLen int) (n int64, ok bool) {
	if len(b) > maxLen {
		return 0, false
	}
	if len(b) == 0 {
		return 0, true
	}
	var result int64
	for i, by := range b {
		if i == len(b)-1 {
			result |= int64(by&0x7f) << (8 * i)
			if by&0x80 != 0 {
				result = -result
			}
		} else {
			result |= int64(by) << (8 * i)
		}
	}
	return result, true
}

// IsTrue interprets a popped stack element as a Script boolean: false iff
// the value is empty, or is all zero bytes except for an allowed trailing
// sign bit on the last byte (e.g. the "negative zero" encoding 0x80).
func IsTrue(b []byte) bool {
	for i, v := range b {
		if v != 0 {
			if i == len(b)-1 && v == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}

// EncodeBool encodes a Script boolean as the canonical empty/one-byte form.
func EncodeBool(b bool) []byte {
	if !b {
		return nil
	}
	return []byte{1}
}
