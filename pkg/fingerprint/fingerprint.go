// Package fingerprint derives deterministic keys from structured data
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// Generate returns the SHA256 of the canonical JSON form of data.
// Map keys are sorted at every level so equal data always hashes the same.
func Generate(data map[string]any) string {
	var b strings.Builder
	canonicalize(&b, data)
	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}

// MatchKey identifies a canonical entity by tenant, type and normalized name.
func MatchKey(tenantID, entityType, normalizedName string) string {
	return Generate(map[string]any{
		"tenant": tenantID,
		"type":   strings.ToLower(entityType),
		"name":   normalizedName,
	})
}

func canonicalize(b *strings.Builder, data any) {
	switch v := data.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			key, _ := json.Marshal(k)
			b.Write(key)
			b.WriteByte(':')
			canonicalize(b, v[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			canonicalize(b, item)
		}
		b.WriteByte(']')
	default:
		raw, _ := json.Marshal(v)
		b.Write(raw)
	}
}
