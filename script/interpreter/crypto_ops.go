package interpreter

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // OP_SHA1 is a legacy opcode, required for script compatibility.

	"github.com/torrejonv/ts-sdk/script"
)

var cryptoOps = map[byte]func(*Engine, int) error{
	script.OP_RIPEMD160:             opHash1(func(e *Engine, v []byte) []byte { h := e.oracle.RIPEMD160(v); return h[:] }),
	script.OP_SHA1:                  opHash1(func(e *Engine, v []byte) []byte { h := sha1.Sum(v); return h[:] }),
	script.OP_SHA256:                opHash1(func(e *Engine, v []byte) []byte { h := e.oracle.SHA256(v); return h[:] }),
	script.OP_HASH160:               opHash1(func(e *Engine, v []byte) []byte { h := e.oracle.Hash160(v); return h[:] }),
	script.OP_HASH256:               opHash1(func(e *Engine, v []byte) []byte { h := e.oracle.SHA256D(v); return h[:] }),
	script.OP_CODESEPARATOR:         opCodeSeparator,
	script.OP_CHECKSIG:              opCheckSig,
	script.OP_CHECKSIGVERIFY:        opCheckSigVerify,
	script.OP_CHECKMULTISIG:         opCheckMultiSig,
	script.OP_CHECKMULTISIGVERIFY:   opCheckMultiSigVerify,
}

func opHash1(f func(e *Engine, v []byte) []byte) func(*Engine, int) error {
	return func(e *Engine, idx int) error {
		v, err := e.main.pop()
		if err != nil {
			return err
		}
		return e.main.push(f(e, v))
	}
}

func opCodeSeparator(e *Engine, idx int) error {
	e.lastSeparator = idx + 1
	return nil
}

// subscript re-serializes chunks[e.lastSeparator:] with any push chunk
// whose data equals sig removed, per spec 4.3's OP_CHECKSIG subscript
// construction rule.
func (e *Engine) subscript(sig []byte) []byte {
	out := script.New()
	for _, c := range e.chunks[e.lastSeparator:] {
		dataPush := c.Op > script.OP_0 && c.Op <= script.OP_PUSHDATA4
		if dataPush && bytes.Equal(c.Data, sig) {
			continue
		}
		if dataPush {
			out = out.AppendPushData(c.Data)
		} else {
			out = out.AppendOpcode(c.Op)
		}
	}
	return out
}

func opCheckSig(e *Engine, idx int) error {
	pubKey, err := e.main.pop()
	if err != nil {
		return err
	}
	sig, err := e.main.pop()
	if err != nil {
		return err
	}
	ok, verr := e.checker.CheckSignature(sig, pubKey, e.subscript(sig))
	if verr != nil {
		return newErr(KindInvalidSignatureEncoding, idx, script.OP_CHECKSIG, verr.Error())
	}
	return e.main.push(script.EncodeBool(ok))
}

func opCheckSigVerify(e *Engine, idx int) error {
	if err := opCheckSig(e, idx); err != nil {
		return err
	}
	return e.execVerify()
}

// opCheckMultiSig implements the classic N-of-M multisig with the
// "extra pop" quirk preserved: one more stack item than the opcode
// actually needs is consumed, for on-chain compatibility with a historic
// off-by-one in the reference client.
func opCheckMultiSig(e *Engine, idx int) error {
	nKeysBytes, err := e.main.pop()
	if err != nil {
		return err
	}
	nKeys, ok := script.DecodeScriptNumber(nKeysBytes, e.limits.MaxScriptNumberLen)
	if !ok || nKeys < 0 || nKeys > 20 {
		return newErr(KindNumericOverflow, idx, script.OP_CHECKMULTISIG, "pubkey count out of range")
	}
	pubKeys := make([][]byte, nKeys)
	for i := int64(0); i < nKeys; i++ {
		pubKeys[i], err = e.main.pop()
		if err != nil {
			return err
		}
	}
	nSigsBytes, err := e.main.pop()
	if err != nil {
		return err
	}
	nSigs, ok := script.DecodeScriptNumber(nSigsBytes, e.limits.MaxScriptNumberLen)
	if !ok || nSigs < 0 || nSigs > nKeys {
		return newErr(KindNumericOverflow, idx, script.OP_CHECKMULTISIG, "signature count out of range")
	}
	sigs := make([][]byte, nSigs)
	for i := int64(0); i < nSigs; i++ {
		sigs[i], err = e.main.pop()
		if err != nil {
			return err
		}
	}
	// The extra-pop quirk: one more item than required by the spec is
	// popped off the stack and discarded.
	if _, err := e.main.pop(); err != nil {
		return err
	}

	// Signatures must match pubkeys in order, but not every pubkey need
	// have a signature: walk both lists once, greedily consuming pubkeys.
	sigIdx, keyIdx := 0, 0
	for sigIdx < len(sigs) && keyIdx < len(pubKeys) {
		subscript := e.subscript(sigs[sigIdx])
		ok, verr := e.checker.CheckSignature(sigs[sigIdx], pubKeys[keyIdx], subscript)
		if verr != nil {
			return newErr(KindInvalidSignatureEncoding, idx, script.OP_CHECKMULTISIG, verr.Error())
		}
		if ok {
			sigIdx++
		}
		keyIdx++
	}
	success := sigIdx == len(sigs)
	return e.main.push(script.EncodeBool(success))
}

func opCheckMultiSigVerify(e *Engine, idx int) error {
	if err := opCheckMultiSig(e, idx); err != nil {
		return err
	}
	return e.execVerify()
}
