package doc

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainDocument separates document hashes from any other hash computed
// over the same canonical bytes. The version suffix allows migration.
const DomainDocument = "writegood/document/v1"

// Hash computes the content hash of a tree: SHA256(domain + 0x00 + canonical JSON).
// Structurally equal trees have equal hashes.
func Hash(n Node) (string, error) {
	canonical, err := Encode(n)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainDocument))
	h.Write([]byte{0x00})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when the tree is known to be encodable.
func MustHash(n Node) string {
	h, err := Hash(n)
	if err != nil {
		panic(err)
	}
	return h
}
