// Package documents provides the content-hashing helper that stamps each
// extracted GraphQL block with a hash of its source, independent of its
// byte offsets within the host file.
package documents

import (
	"crypto/sha256"
	"encoding/hex"
)

// ComputeDocumentHash hashes one extracted block's or document's
// effective source. internal/syntax stores the result in Block.Hash; no
// query reads it, so an edit to a host file re-parses all of its blocks.
func ComputeDocumentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
