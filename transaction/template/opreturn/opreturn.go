// Package opreturn builds provably-unspendable data-carrier locking
// scripts. It has no unlocker: an OP_RETURN output is never an input's
// source, only ever a fixed-value destination the fee engine treats like
// any other non-change output.
package opreturn

import (
	"fmt"

	"github.com/torrejonv/ts-sdk/script"
)

// Lock builds `OP_FALSE OP_RETURN <push>...`, one push per element of
// pushes, in order. At least one push is required.
func Lock(pushes [][]byte) (*script.Script, error) {
	if len(pushes) == 0 {
		return nil, fmt.Errorf("opreturn: at least one data push is required")
	}
	s := script.New().
		AppendOpcode(script.OP_FALSE).
		AppendOpcode(script.OP_RETURN)
	for _, p := range pushes {
		s = s.AppendPushData(p)
	}
	return &s, nil
}
