package interpreter

import (
	"bytes"

	"github.com/torrejonv/ts-sdk/script"
)

// splitEqualOps covers the splice/bitwise/equality opcodes, kept in their
// own table so engine.go's dispatcher stays a flat lookup.
var splitEqualOps = map[byte]func(*Engine) error{
	script.OP_CAT:      opCat,
	script.OP_SPLIT:    opSplit,
	script.OP_SIZE:     opSize,
	script.OP_NUM2BIN:  opNum2Bin,
	script.OP_BIN2NUM:  opBin2Num,
	script.OP_EQUAL:    opEqual,
	script.OP_EQUALVERIFY: opEqualVerify,
	script.OP_INVERT:   opInvert,
	script.OP_AND:      opBitwise(func(a, b byte) byte { return a & b }),
	script.OP_OR:       opBitwise(func(a, b byte) byte { return a | b }),
	script.OP_XOR:      opBitwise(func(a, b byte) byte { return a ^ b }),
}

func opCat(e *Engine) error {
	b, err := e.main.pop()
	if err != nil {
		return err
	}
	a, err := e.main.pop()
	if err != nil {
		return err
	}
	out := make([]byte, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return e.main.push(out)
}

func opSplit(e *Engine) error {
	nBytes, err := e.main.pop()
	if err != nil {
		return err
	}
	v, err := e.main.pop()
	if err != nil {
		return err
	}
	n, ok := script.DecodeScriptNumber(nBytes, e.limits.MaxScriptNumberLen)
	if !ok || n < 0 || int(n) > len(v) {
		return newErr(KindNumericOverflow, 0, script.OP_SPLIT, "split index out of range")
	}
	left := clone(v[:n])
	right := clone(v[n:])
	if err := e.main.push(left); err != nil {
		return err
	}
	return e.main.push(right)
}

func opSize(e *Engine) error {
	v, err := e.main.peek(0)
	if err != nil {
		return err
	}
	return e.main.push(script.EncodeScriptNumber(int64(len(v))))
}

func opNum2Bin(e *Engine) error {
	sizeBytes, err := e.main.pop()
	if err != nil {
		return err
	}
	v, err := e.main.pop()
	if err != nil {
		return err
	}
	size, ok := script.DecodeScriptNumber(sizeBytes, e.limits.MaxScriptNumberLen)
	if !ok || size < 0 || int(size) < len(v) {
		return newErr(KindNumericOverflow, 0, script.OP_NUM2BIN, "NUM2BIN target size too small")
	}
	out := make([]byte, size)
	var sign byte
	if len(v) > 0 {
		sign = v[len(v)-1] & 0x80
		copy(out, v)
		out[len(v)-1] &^= 0x80
	}
	if size > 0 {
		out[size-1] |= sign
	}
	return e.main.push(out)
}

func opBin2Num(e *Engine) error {
	v, err := e.main.pop()
	if err != nil {
		return err
	}
	n := script.DecodeScriptBigNumber(v)
	return e.main.push(script.EncodeScriptBigNumber(n))
}

func opEqual(e *Engine) error {
	b, err := e.main.pop()
	if err != nil {
		return err
	}
	a, err := e.main.pop()
	if err != nil {
		return err
	}
	return e.main.push(script.EncodeBool(bytes.Equal(a, b)))
}

func opEqualVerify(e *Engine) error {
	if err := opEqual(e); err != nil {
		return err
	}
	return e.execVerify()
}

func opInvert(e *Engine) error {
	v, err := e.main.pop()
	if err != nil {
		return err
	}
	out := make([]byte, len(v))
	for i, b := range v {
		out[i] = ^b
	}
	return e.main.push(out)
}

func opBitwise(f func(a, b byte) byte) func(*Engine) error {
	return func(e *Engine) error {
		b, err := e.main.pop()
		if err != nil {
			return err
		}
		a, err := e.main.pop()
		if err != nil {
			return err
		}
		if len(a) != len(b) {
			return newErr(KindMalformed, 0, 0, "bitwise operands must be equal length")
		}
		out := make([]byte, len(a))
		for i := range a {
			out[i] = f(a[i], b[i])
		}
		return e.main.push(out)
	}
}
