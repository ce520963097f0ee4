package interpreter

import (
	"math/big"

	"github.com/torrejonv/ts-sdk/script"
)

// arithmeticOps covers the numeric opcodes. BSV's post-Genesis arithmetic
// is unbounded: operands and results are big.Int, constrained only by the
// shared memory ceiling (spec 8 scenario 6's squaring attack depends on
// this). The comparison and boolean opcodes in this table decode their
// operands the same unbounded way; Limits.MaxScriptNumberLen does not
// apply to any opcode here.
var arithmeticOps = map[byte]func(*Engine) error{
	script.OP_1ADD:    unaryBig(func(n *big.Int) *big.Int { return new(big.Int).Add(n, big.NewInt(1)) }),
	script.OP_1SUB:    unaryBig(func(n *big.Int) *big.Int { return new(big.Int).Sub(n, big.NewInt(1)) }),
	script.OP_2MUL:    unaryBig(func(n *big.Int) *big.Int { return new(big.Int).Mul(n, big.NewInt(2)) }),
	script.OP_2DIV:    unaryBig(func(n *big.Int) *big.Int { return new(big.Int).Div(n, big.NewInt(2)) }),
	script.OP_NEGATE:  unaryBig(func(n *big.Int) *big.Int { return new(big.Int).Neg(n) }),
	script.OP_ABS:     unaryBig(func(n *big.Int) *big.Int { return new(big.Int).Abs(n) }),
	script.OP_ADD:     binaryBig(func(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) }),
	script.OP_SUB:     binaryBig(func(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) }),
	script.OP_MUL:     binaryBig(func(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) }),
	script.OP_DIV:     binaryBigChecked(divBig),
	script.OP_MOD:     binaryBigChecked(modBig),
	script.OP_LSHIFT:  binaryBigChecked(lshiftBig),
	script.OP_RSHIFT:  binaryBigChecked(rshiftBig),

	script.OP_NOT:                 unaryBool(func(n *big.Int) bool { return n.Sign() == 0 }),
	script.OP_0NOTEQUAL:           unaryBool(func(n *big.Int) bool { return n.Sign() != 0 }),
	script.OP_BOOLAND:             binaryBool(func(a, b *big.Int) bool { return a.Sign() != 0 && b.Sign() != 0 }),
	script.OP_BOOLOR:              binaryBool(func(a, b *big.Int) bool { return a.Sign() != 0 || b.Sign() != 0 }),
	script.OP_NUMEQUAL:            binaryBool(func(a, b *big.Int) bool { return a.Cmp(b) == 0 }),
	script.OP_NUMNOTEQUAL:         binaryBool(func(a, b *big.Int) bool { return a.Cmp(b) != 0 }),
	script.OP_LESSTHAN:            binaryBool(func(a, b *big.Int) bool { return a.Cmp(b) < 0 }),
	script.OP_GREATERTHAN:         binaryBool(func(a, b *big.Int) bool { return a.Cmp(b) > 0 }),
	script.OP_LESSTHANOREQUAL:     binaryBool(func(a, b *big.Int) bool { return a.Cmp(b) <= 0 }),
	script.OP_GREATERTHANOREQUAL:  binaryBool(func(a, b *big.Int) bool { return a.Cmp(b) >= 0 }),
	script.OP_NUMEQUALVERIFY:      numEqualVerify,
	script.OP_MIN:                 binaryBig(func(a, b *big.Int) *big.Int {
		if a.Cmp(b) < 0 {
			return a
		}
		return b
	}),
	script.OP_MAX: binaryBig(func(a, b *big.Int) *big.Int {
		if a.Cmp(b) > 0 {
			return a
		}
		return b
	}),
	script.OP_WITHIN: within,
}

func divBig(a, b *big.Int) (*big.Int, bool) {
	if b.Sign() == 0 {
		return nil, false
	}
	return new(big.Int).Quo(a, b), true
}

func modBig(a, b *big.Int) (*big.Int, bool) {
	if b.Sign() == 0 {
		return nil, false
	}
	return new(big.Int).Rem(a, b), true
}

func lshiftBig(a, b *big.Int) (*big.Int, bool) {
	if b.Sign() < 0 || !b.IsUint64() {
		return nil, false
	}
	return new(big.Int).Lsh(a, uint(b.Uint64())), true
}

func rshiftBig(a, b *big.Int) (*big.Int, bool) {
	if b.Sign() < 0 || !b.IsUint64() {
		return nil, false
	}
	return new(big.Int).Rsh(a, uint(b.Uint64())), true
}

func (e *Engine) popBig() (*big.Int, error) {
	v, err := e.main.pop()
	if err != nil {
		return nil, err
	}
	return script.DecodeScriptBigNumber(v), nil
}

func unaryBig(f func(*big.Int) *big.Int) func(*Engine) error {
	return func(e *Engine) error {
		n, err := e.popBig()
		if err != nil {
			return err
		}
		return e.main.push(script.EncodeScriptBigNumber(f(n)))
	}
}

func binaryBig(f func(a, b *big.Int) *big.Int) func(*Engine) error {
	return func(e *Engine) error {
		b, err := e.popBig()
		if err != nil {
			return err
		}
		a, err := e.popBig()
		if err != nil {
			return err
		}
		return e.main.push(script.EncodeScriptBigNumber(f(a, b)))
	}
}

func binaryBigChecked(f func(a, b *big.Int) (*big.Int, bool)) func(*Engine) error {
	return func(e *Engine) error {
		b, err := e.popBig()
		if err != nil {
			return err
		}
		a, err := e.popBig()
		if err != nil {
			return err
		}
		result, ok := f(a, b)
		if !ok {
			return newErr(KindNumericOverflow, 0, 0, "arithmetic operation invalid (e.g. division by zero)")
		}
		return e.main.push(script.EncodeScriptBigNumber(result))
	}
}

func unaryBool(f func(*big.Int) bool) func(*Engine) error {
	return func(e *Engine) error {
		n, err := e.popBig()
		if err != nil {
			return err
		}
		return e.main.push(script.EncodeBool(f(n)))
	}
}

func binaryBool(f func(a, b *big.Int) bool) func(*Engine) error {
	return func(e *Engine) error {
		b, err := e.popBig()
		if err != nil {
			return err
		}
		a, err := e.popBig()
		if err != nil {
			return err
		}
		return e.main.push(script.EncodeBool(f(a, b)))
	}
}

func numEqualVerify(e *Engine) error {
	b, err := e.popBig()
	if err != nil {
		return err
	}
	a, err := e.popBig()
	if err != nil {
		return err
	}
	if a.Cmp(b) != 0 {
		return newErr(KindVerifyFailed, 0, script.OP_NUMEQUALVERIFY, "OP_NUMEQUALVERIFY: operands not equal")
	}
	return nil
}

func within(e *Engine) error {
	max, err := e.popBig()
	if err != nil {
		return err
	}
	min, err := e.popBig()
	if err != nil {
		return err
	}
	x, err := e.popBig()
	if err != nil {
		return err
	}
	ok := x.Cmp(min) >= 0 && x.Cmp(max) < 0
	return e.main.push(script.EncodeBool(ok))
}
