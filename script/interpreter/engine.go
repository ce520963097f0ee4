// Package interpreter implements the bounded Bitcoin Script stack machine:
// unlocking-then-locking execution, altstack, control stack, resource
// ceilings, and the OP_CHECKSIG/OP_CHECKMULTISIG hooks into an injected
// SignatureChecker. Script failure is an ordinary, expected result --
// every entry point returns a *ScriptError rather than panicking.
package interpreter

import (
	"github.com/torrejonv/ts-sdk/crypto"
	"github.com/torrejonv/ts-sdk/script"
)

// condState is the tri-state control-stack entry for OP_IF/NOTIF/ELSE/ENDIF.
type condState int

const (
	condFalse condState = iota // branch condition was false
	condTrue                   // branch condition was true
	condSkip                   // enclosing branch not taken; this one is inert
)

// Result is the terminal state of a successful evaluation.
type Result struct {
	// Stack is the main stack's contents when the locking script ran
	// out of opcodes, top element last.
	Stack [][]byte
	// Success reports whether the top stack element is script-true and
	// the stack holds exactly one element, per spec's final verification
	// rule for two-script evaluation.
	Success bool
}

// Engine holds the mutable state of a single script evaluation: it is not
// safe for concurrent use, but independent Engines (one per transaction
// input) may run on separate goroutines, per spec's concurrency model.
type Engine struct {
	main    *stack
	alt     *stack
	cond    []condState
	budget  *memoryBudget
	opCount int64
	limits  Limits
	checker SignatureChecker
	oracle  crypto.Oracle

	chunks        []script.Chunk
	lastSeparator int // index into chunks right after the most recent OP_CODESEPARATOR
}

// executing reports whether the current control-stack state allows
// ordinary opcode execution (vs. being skipped inside a not-taken branch).
func (e *Engine) executing() bool {
	for _, c := range e.cond {
		if c != condTrue {
			return false
		}
	}
	return true
}

// Execute runs the unlocking script then the locking script in sequence,
// sharing one stack across both (the unlocking-script stack-copy boundary
// of spec 4.3: only push opcodes are permitted while running unlocking).
func Execute(unlocking, locking script.Script, limits Limits, checker SignatureChecker, oracle crypto.Oracle) (*Result, *ScriptError) {
	if err := limits.Validate(); err != nil {
		return nil, newErr(KindMalformed, -1, 0, err.Error())
	}

	budget := &memoryBudget{limit: limits.MaxScriptMemory}
	e := &Engine{
		main:    newStack(budget),
		alt:     newStack(budget),
		budget:  budget,
		limits:  limits,
		checker: checker,
		oracle:  oracle,
	}

	unlockChunks, err := unlocking.Chunks()
	if err != nil {
		return nil, newErr(KindMalformed, -1, 0, "unlocking script: "+err.Error())
	}
	pushOnly, err := unlocking.IsPushOnly()
	if err != nil {
		return nil, newErr(KindMalformed, -1, 0, "unlocking script: "+err.Error())
	}
	if !pushOnly {
		return nil, newErr(KindPushOnlyRequired, -1, 0, "unlocking script must contain only push opcodes")
	}

	e.chunks = unlockChunks
	if serr := e.run(); serr != nil {
		return nil, serr
	}
	if len(e.cond) != 0 {
		return nil, newErr(KindControlStackMismatch, len(unlockChunks)-1, 0, "unbalanced IF/ENDIF in unlocking script")
	}

	lockChunks, err := locking.Chunks()
	if err != nil {
		return nil, newErr(KindMalformed, -1, 0, "locking script: "+err.Error())
	}
	e.chunks = lockChunks
	e.lastSeparator = 0
	if serr := e.run(); serr != nil {
		return nil, serr
	}
	if len(e.cond) != 0 {
		return nil, newErr(KindControlStackMismatch, len(lockChunks)-1, 0, "unbalanced IF/ENDIF in locking script")
	}

	res := &Result{Stack: e.main.elems}
	res.Success = e.main.depth() == 1 && script.IsTrue(e.main.elems[0])
	return res, nil
}

// run executes e.chunks from the top, starting with empty control state
// (it is called once for the unlocking script and once for the locking
// script, continuing to share the main/alt stacks between calls).
func (e *Engine) run() *ScriptError {
	for i, c := range e.chunks {
		if script.IsDisabled(c.Op) {
			// Disabled opcodes fail even inside a dead branch, matching
			// legacy consensus behavior of never allowing them to appear
			// in a script at all.
			return newErr(KindDisabledOpcode, i, c.Op, "opcode is disabled")
		}

		branchActive := e.executing()

		// Control-flow opcodes always run so that a dead branch can still
		// be escaped via ELSE/ENDIF; everything else is skipped while
		// inside a not-taken branch.
		isControl := c.Op == script.OP_IF || c.Op == script.OP_NOTIF || c.Op == script.OP_ELSE || c.Op == script.OP_ENDIF
		if !branchActive && !isControl {
			continue
		}

		if c.IsPush() {
			if err := e.execPush(c); err != nil {
				return toScriptError(err, i, c.Op)
			}
			continue
		}

		e.opCount++
		if e.limits.MaxOpCount > 0 && e.opCount > e.limits.MaxOpCount {
			return newErr(KindOpCountExceeded, i, c.Op, "operation count ceiling exceeded")
		}

		if err := e.execOpcode(i, c); err != nil {
			return toScriptError(err, i, c.Op)
		}
	}
	return nil
}

func toScriptError(err error, idx int, op byte) *ScriptError {
	if se, ok := err.(*ScriptError); ok {
		out := *se
		out.OpcodeIndex = idx
		if out.Opcode == 0 {
			out.Opcode = op
		}
		if out.Reason == "" {
			out.Reason = string(out.Kind)
		}
		return &out
	}
	return newErr(KindMalformed, idx, op, err.Error())
}

// execPush pushes a data push chunk or a small-integer opcode's number.
func (e *Engine) execPush(c script.Chunk) error {
	switch {
	case c.Op == script.OP_0:
		return e.main.push(nil)
	case c.Op == script.OP_1NEGATE:
		return e.main.push(script.EncodeScriptNumber(-1))
	case c.Op >= script.OP_1 && c.Op <= script.OP_16:
		return e.main.push(script.EncodeScriptNumber(int64(c.Op-script.OP_1) + 1))
	default:
		return e.main.push(c.Data)
	}
}

// execOpcode dispatches a single non-push opcode. Split across this file
// and arithmetic.go/splice.go/crypto_ops.go/locktime.go by concern.
func (e *Engine) execOpcode(idx int, c script.Chunk) error {
	switch c.Op {
	case script.OP_NOP, script.OP_NOP1, script.OP_NOP4, script.OP_NOP5,
		script.OP_NOP6, script.OP_NOP7, script.OP_NOP8, script.OP_NOP9, script.OP_NOP10:
		return nil

	case script.OP_IF, script.OP_NOTIF:
		return e.execIf(c.Op)
	case script.OP_ELSE:
		return e.execElse()
	case script.OP_ENDIF:
		return e.execEndif()
	case script.OP_VERIFY:
		return e.execVerify()
	case script.OP_RETURN:
		return newErr(KindVerifyFailed, idx, c.Op, "OP_RETURN")

	case script.OP_TOALTSTACK:
		v, err := e.main.pop()
		if err != nil {
			return err
		}
		return e.alt.push(v)
	case script.OP_FROMALTSTACK:
		v, err := e.alt.pop()
		if err != nil {
			return err
		}
		return e.main.push(v)

	case script.OP_DROP:
		_, err := e.main.pop()
		return err
	case script.OP_2DROP:
		if _, err := e.main.pop(); err != nil {
			return err
		}
		_, err := e.main.pop()
		return err
	case script.OP_DUP:
		return e.dupN(1)
	case script.OP_2DUP:
		return e.dupN(2)
	case script.OP_3DUP:
		return e.dupN(3)
	case script.OP_OVER:
		v, err := e.main.peek(1)
		if err != nil {
			return err
		}
		return e.main.push(clone(v))
	case script.OP_2OVER:
		a, err := e.main.peek(3)
		if err != nil {
			return err
		}
		b, err := e.main.peek(2)
		if err != nil {
			return err
		}
		if err := e.main.push(clone(a)); err != nil {
			return err
		}
		return e.main.push(clone(b))
	case script.OP_NIP:
		_, err := e.main.remove(1)
		return err
	case script.OP_SWAP:
		a, err := e.main.remove(1)
		if err != nil {
			return err
		}
		return e.main.push(a)
	case script.OP_2SWAP:
		a, err := e.main.remove(3)
		if err != nil {
			return err
		}
		b, err := e.main.remove(2)
		if err != nil {
			return err
		}
		if err := e.main.push(a); err != nil {
			return err
		}
		return e.main.push(b)
	case script.OP_TUCK:
		v, err := e.main.peek(0)
		if err != nil {
			return err
		}
		return e.main.insert(2, clone(v))
	case script.OP_IFDUP:
		v, err := e.main.peek(0)
		if err != nil {
			return err
		}
		if script.IsTrue(v) {
			return e.main.push(clone(v))
		}
		return nil
	case script.OP_DEPTH:
		return e.main.push(script.EncodeScriptNumber(int64(e.main.depth())))
	case script.OP_ROT:
		v, err := e.main.remove(2)
		if err != nil {
			return err
		}
		return e.main.push(v)
	case script.OP_2ROT:
		v, err := e.main.remove(5)
		if err != nil {
			return err
		}
		w, err := e.main.remove(4)
		if err != nil {
			return err
		}
		if err := e.main.push(v); err != nil {
			return err
		}
		return e.main.push(w)
	case script.OP_PICK, script.OP_ROLL:
		nBytes, err := e.main.pop()
		if err != nil {
			return err
		}
		n, ok := script.DecodeScriptNumber(nBytes, e.limits.MaxScriptNumberLen)
		if !ok || n < 0 {
			return newErr(KindNumericOverflow, 0, c.Op, "PICK/ROLL index out of range")
		}
		if c.Op == script.OP_PICK {
			v, err := e.main.peek(int(n))
			if err != nil {
				return err
			}
			return e.main.push(clone(v))
		}
		v, err := e.main.remove(int(n))
		if err != nil {
			return err
		}
		return e.main.push(v)

	default:
		if h, ok := splitEqualOps[c.Op]; ok {
			return h(e)
		}
		if h, ok := arithmeticOps[c.Op]; ok {
			return h(e)
		}
		if h, ok := cryptoOps[c.Op]; ok {
			return h(e, idx)
		}
		if c.Op == script.OP_CHECKLOCKTIMEVERIFY {
			return e.execCheckLockTimeVerify()
		}
		if c.Op == script.OP_CHECKSEQUENCEVERIFY {
			return e.execCheckSequenceVerify()
		}
		return newErr(KindMalformed, idx, c.Op, "unimplemented opcode")
	}
}

func (e *Engine) dupN(n int) error {
	vals := make([][]byte, n)
	for i := 0; i < n; i++ {
		v, err := e.main.peek(n - 1 - i)
		if err != nil {
			return err
		}
		vals[i] = clone(v)
	}
	for _, v := range vals {
		if err := e.main.push(v); err != nil {
			return err
		}
	}
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (e *Engine) execIf(op byte) error {
	if !e.executing() {
		// nested inside a dead branch: push a skip marker so the matching
		// ENDIF/ELSE still balances the control stack.
		e.cond = append(e.cond, condSkip)
		return nil
	}
	v, err := e.main.pop()
	if err != nil {
		return err
	}
	taken := script.IsTrue(v)
	if op == script.OP_NOTIF {
		taken = !taken
	}
	if taken {
		e.cond = append(e.cond, condTrue)
	} else {
		e.cond = append(e.cond, condFalse)
	}
	return nil
}

func (e *Engine) execElse() error {
	if len(e.cond) == 0 {
		return newErr(KindControlStackMismatch, 0, script.OP_ELSE, "ELSE without matching IF")
	}
	top := len(e.cond) - 1
	switch e.cond[top] {
	case condTrue:
		e.cond[top] = condFalse
	case condFalse:
		e.cond[top] = condTrue
	case condSkip:
		// stays skipped
	}
	return nil
}

func (e *Engine) execEndif() error {
	if len(e.cond) == 0 {
		return newErr(KindControlStackMismatch, 0, script.OP_ENDIF, "ENDIF without matching IF")
	}
	e.cond = e.cond[:len(e.cond)-1]
	return nil
}

func (e *Engine) execVerify() error {
	v, err := e.main.pop()
	if err != nil {
		return err
	}
	if !script.IsTrue(v) {
		return newErr(KindVerifyFailed, 0, script.OP_VERIFY, "OP_VERIFY: top of stack is false")
	}
	return nil
}
