// Package integrity provides tamper-evident hashing for audit trails. All
// functions are pure and deterministic.
package integrity

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"time"
)

// Hash version prefix. Length-prefixed encoding avoids delimiter collisions
// when freeform fields (explanations) contain separator characters.
const hashV1Prefix = "v1:"

// ComputeEntryHash produces a versioned SHA-256 hex digest over the canonical
// fields of one audit entry.
func ComputeEntryHash(traceID, userID, role, decision string, ts time.Time) string {
	return hashV1Prefix + computeHash(traceID, userID, role, decision, ts)
}

// VerifyEntryHash checks whether a stored hash matches the recomputed hash.
func VerifyEntryHash(stored, traceID, userID, role, decision string, ts time.Time) bool {
	if !strings.HasPrefix(stored, hashV1Prefix) {
		return false
	}
	return stored == hashV1Prefix+computeHash(traceID, userID, role, decision, ts)
}

// computeHash encodes each field as a 4-byte big-endian length prefix followed
// by the field bytes, then digests the stream.
func computeHash(traceID, userID, role, decision string, ts time.Time) string {
	h := sha256.New()
	writeField := func(s string) {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
		h.Write(lenBuf[:])
		h.Write([]byte(s))
	}
	writeField(traceID)
	writeField(userID)
	writeField(role)
	writeField(decision)
	writeField(ts.UTC().Format(time.RFC3339Nano))
	return hex.EncodeToString(h.Sum(nil))
}

// hashPair produces SHA-256(0x01 || a || b) as a hex string. The 0x01 prefix
// is a domain separator for internal Merkle nodes (per RFC 6962), so internal
// node hashes can never collide with leaf entry hashes.
func hashPair(a, b string) string {
	h := sha256.New()
	h.Write([]byte{0x01})
	h.Write([]byte(a))
	h.Write([]byte(b))
	return hex.EncodeToString(h.Sum(nil))
}

// BuildMerkleRoot constructs a Merkle tree from leaf hashes in the order
// given and returns the root. For an append-only log the order is delivery
// order. If leaves is empty, returns an empty string. If leaves has one
// element, the root is that element. Odd-length levels hash the last node
// with itself for structural binding.
func BuildMerkleRoot(leaves []string) string {
	if len(leaves) == 0 {
		return ""
	}
	if len(leaves) == 1 {
		return leaves[0]
	}

	level := make([]string, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		var next []string
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, hashPair(level[i], level[i]))
			}
		}
		level = next
	}

	return level[0]
}
