package interpreter

import "github.com/torrejonv/ts-sdk/script"

// execCheckLockTimeVerify implements OP_CHECKLOCKTIMEVERIFY: the top
// stack element (read, not popped) is compared against the enclosing
// transaction's locktime via the injected SignatureChecker. Per spec
// 4.3, CLTV/CSV operands are decoded with a 5-byte ceiling rather than
// the default 4.
func (e *Engine) execCheckLockTimeVerify() error {
	v, err := e.main.peek(0)
	if err != nil {
		return err
	}
	n, ok := script.DecodeScriptNumber(v, 5)
	if !ok || n < 0 {
		return newErr(KindNumericOverflow, 0, script.OP_CHECKLOCKTIMEVERIFY, "locktime operand out of range")
	}
	if err := e.checker.CheckLockTime(n); err != nil {
		return newErr(KindVerifyFailed, 0, script.OP_CHECKLOCKTIMEVERIFY, err.Error())
	}
	return nil
}

// execCheckSequenceVerify implements OP_CHECKSEQUENCEVERIFY analogously,
// against the spending input's own sequence field.
func (e *Engine) execCheckSequenceVerify() error {
	v, err := e.main.peek(0)
	if err != nil {
		return err
	}
	n, ok := script.DecodeScriptNumber(v, 5)
	if !ok || n < 0 {
		return newErr(KindNumericOverflow, 0, script.OP_CHECKSEQUENCEVERIFY, "sequence operand out of range")
	}
	if err := e.checker.CheckSequence(n); err != nil {
		return newErr(KindVerifyFailed, 0, script.OP_CHECKSEQUENCEVERIFY, err.Error())
	}
	return nil
}
