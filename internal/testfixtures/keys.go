// Package testfixtures holds binary test data shared across this
// module's package tests, mirroring the teacher's
// generateTestKeyPair-style helpers shared across its tx test files.
package testfixtures

// DeterministicKey returns a reproducible 32-byte scalar for seed, for
// tests that need a private key but don't care which one.
func DeterministicKey(seed byte) []byte {
	b := make([]byte, 32)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return b
}

// KnownParentTxHex and KnownChildTxHex are a real, previously broadcast
// parent/child pair of legacy-format transactions: KnownChildTxHex's
// sole input spends output 0 of KnownParentTxHex. Both the TXIDs below
// are independently published values, not derived from this module's
// own hashing code, so a round-trip through Bytes/NewFromBytes alone
// cannot make a wrong answer look right.
const (
	KnownParentTxHex = "0100000001f24d19b6980927dbe47c30fd13b1cc12e56a11cc019efed67a1b4d3937b74bab010000006a47304402201711a033c1b829719716c81419294214a7fce0f0f1f9f51b6821ca3a5beebbdd022059b7bdd0bf1fe08aa4b4654360732d2a1f97c602b2e198a41e7bc53d81376c9a0121028896955d043b5a43957b21901f2cce9f0bfb484531b03ad6cd3153e45e73ee2effffffff022823000000000000160014d849b1e1cede2ac7d7188cf8700e97d6975c91c4b2f9fd00000000001976a914d849b1e1cede2ac7d7188cf8700e97d6975c91c488ac00000000"
	KnownParentTXID  = "5e13ca34cf527e7b443afc0d6958a67bf7950a11f6ec3e05f8e3f3e802fbdf99"

	KnownChildTxHex = "010000000199dffb02e8f3e3f8053eecf6110a95f77ba658690dfc3a447b7e52cf34ca135e0000000000ffffffff02581b000000000000160014d849b1e1cede2ac7d7188cf8700e97d6975c91c4e8030000000000001976a914d849b1e1cede2ac7d7188cf8700e97d6975c91c488ac00000000"
	KnownChildTXID   = "ec367c260ead9e3c91583175f35382e22b66df6d59fd0aac175bb36519b664f7"
)
