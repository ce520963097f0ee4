package script

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/torrejonv/ts-sdk/binary"
)

// Script is a raw, serialized sequence of opcodes and pushes, kept as a
// byte slice rather than a pre-parsed chunk list. The interpreter builds
// signature-hashing subscripts by re-encoding decoded chunks.
type Script []byte

// Chunk is one decoded element of a Script. Data holds the pushed bytes
// of an explicit push (opcodes 0x01-0x4e); it is nil for every other
// opcode, including OP_0, OP_1NEGATE and OP_1..OP_16.
type Chunk struct {
	Op   byte
	Data []byte
}

// IsPush reports whether this chunk pushes data (including OP_0/OP_1NEGATE
// through OP_16, which push a script-number rather than raw bytes).
func (c Chunk) IsPush() bool {
	return c.Op <= OP_PUSHDATA4 || (c.Op >= OP_1NEGATE && c.Op <= OP_16)
}

// New returns an empty Script.
func New() Script {
	return Script{}
}

// NewFromBytes wraps raw bytes as a Script without validating them --
// chunk decoding happens lazily via Chunks().
func NewFromBytes(b []byte) Script {
	out := make(Script, len(b))
	copy(out, b)
	return out
}

// NewFromHex decodes a hex string into a Script.
func NewFromHex(s string) (Script, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("script: invalid hex: %w", err)
	}
	return Script(b), nil
}

// Hex renders the script's raw bytes, as stored, as lowercase hex.
func (s Script) Hex() string {
	return hex.EncodeToString(s)
}

// Len returns the length of the raw script bytes.
func (s Script) Len() int {
	return len(s)
}

// Chunks decodes the script into its chunk sequence, accepting any valid
// push-length encoding (not only the canonical minimal one). Returns an
// error if a push's declared length runs past the end of the script.
func (s Script) Chunks() ([]Chunk, error) {
	var out []Chunk
	r := binary.NewReader(s)
	for r.Remaining() > 0 {
		op, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch {
		case op >= 1 && op <= 75:
			data, err := r.ReadBytes(int(op))
			if err != nil {
				return nil, fmt.Errorf("script: truncated push at opcode %d: %w", op, err)
			}
			out = append(out, Chunk{Op: op, Data: data})
		case op == OP_PUSHDATA1:
			n, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			data, err := r.ReadBytes(int(n))
			if err != nil {
				return nil, fmt.Errorf("script: truncated OP_PUSHDATA1: %w", err)
			}
			out = append(out, Chunk{Op: op, Data: data})
		case op == OP_PUSHDATA2:
			n, err := r.ReadUint16LE()
			if err != nil {
				return nil, err
			}
			data, err := r.ReadBytes(int(n))
			if err != nil {
				return nil, fmt.Errorf("script: truncated OP_PUSHDATA2: %w", err)
			}
			out = append(out, Chunk{Op: op, Data: data})
		case op == OP_PUSHDATA4:
			n, err := r.ReadUint32LE()
			if err != nil {
				return nil, err
			}
			data, err := r.ReadBytes(int(n))
			if err != nil {
				return nil, fmt.Errorf("script: truncated OP_PUSHDATA4: %w", err)
			}
			out = append(out, Chunk{Op: op, Data: data})
		default:
			out = append(out, Chunk{Op: op})
		}
	}
	return out, nil
}

// AppendOpcode appends a single non-push opcode.
func (s Script) AppendOpcode(op byte) Script {
	return append(s, op)
}

// AppendPushData appends data using the shortest canonical push encoding:
// implicit push opcodes for <=75 bytes, OP_PUSHDATA1 for 76-255,
// OP_PUSHDATA2 for 256-65535, OP_PUSHDATA4 beyond that.
func (s Script) AppendPushData(data []byte) Script {
	n := len(data)
	switch {
	case n <= 75:
		s = append(s, byte(n))
	case n <= 0xff:
		s = append(s, OP_PUSHDATA1, byte(n))
	case n <= 0xffff:
		s = append(s, OP_PUSHDATA2)
		s = append(s, byte(n), byte(n>>8))
	default:
		s = append(s, OP_PUSHDATA4)
		s = append(s, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
	}
	return append(s, data...)
}

// AppendNumber appends the minimal-length script-number push for n,
// preferring OP_0/OP_1NEGATE/OP_1..OP_16 where applicable.
func (s Script) AppendNumber(n int64) Script {
	switch {
	case n == 0:
		return append(s, OP_0)
	case n == -1:
		return append(s, OP_1NEGATE)
	case n >= 1 && n <= 16:
		return append(s, byte(OP_1+n-1))
	default:
		return s.AppendPushData(EncodeScriptNumber(n))
	}
}

// ToASM renders the script in human-readable assembly: opcode mnemonics
// for non-push opcodes, hex literals for pushed data.
func (s Script) ToASM() (string, error) {
	chunks, err := s.Chunks()
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.IsPush() && c.Op != OP_0 && !(c.Op >= OP_1 && c.Op <= OP_16) && c.Op != OP_1NEGATE {
			parts = append(parts, hex.EncodeToString(c.Data))
		} else {
			parts = append(parts, Name(c.Op))
		}
	}
	return strings.Join(parts, " "), nil
}

// FromASM parses human-readable assembly into a canonical Script. Each
// token is first looked up as an opcode mnemonic; otherwise an
// even-length hex token becomes a data push; otherwise a decimal integer
// becomes a minimal number push. A digit-only token of even length is
// therefore read as hex, not as a decimal number.
func FromASM(asm string) (Script, error) {
	out := New()
	if strings.TrimSpace(asm) == "" {
		return out, nil
	}
	for _, tok := range strings.Fields(asm) {
		if op, ok := mnemonicToOp[tok]; ok {
			out = out.AppendOpcode(op)
			continue
		}
		if data, err := hex.DecodeString(tok); err == nil && len(tok)%2 == 0 {
			out = out.AppendPushData(data)
			continue
		}
		if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
			out = out.AppendNumber(n)
			continue
		}
		return nil, fmt.Errorf("script: unrecognized ASM token %q", tok)
	}
	return out, nil
}

var mnemonicToOp = func() map[string]byte {
	m := make(map[string]byte, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = op
	}
	return m
}()

// IsPushOnly reports whether every chunk in the script is a push -- the
// boundary enforced on unlocking scripts per spec 4.3.
func (s Script) IsPushOnly() (bool, error) {
	chunks, err := s.Chunks()
	if err != nil {
		return false, err
	}
	for _, c := range chunks {
		if !c.IsPush() {
			return false, nil
		}
	}
	return true, nil
}
