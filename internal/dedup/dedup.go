// Package dedup suppresses duplicate provider results by content hash.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ca-srg/webgate/internal/types"
)

// ComputeHash returns a stable SHA-256 digest over the normalized title and
// content. Normalization lowercases and trims whitespace so trivially
// reformatted copies of the same result collapse to one hash.
func ComputeHash(title, content string) string {
	normalized := normalize(title) + "\n" + normalize(content)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// HashResult computes the content hash for a single result item.
func HashResult(item types.ResultItem) string {
	return ComputeHash(item.Title, item.Content)
}

// Deduplicate filters results, keeping the first occurrence of each distinct
// content hash and preserving the original order.
func Deduplicate(items []types.ResultItem) []types.ResultItem {
	if len(items) <= 1 {
		return items
	}

	seen := make(map[string]bool, len(items))
	deduped := make([]types.ResultItem, 0, len(items))
	for _, item := range items {
		hash := HashResult(item)
		if seen[hash] {
			continue
		}
		seen[hash] = true
		deduped = append(deduped, item)
	}
	return deduped
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
