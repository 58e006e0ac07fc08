package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// CanonicalJSON renders a decoded JSON value in a deterministic form:
// object keys sorted lexicographically at every level, array order
// preserved, primitives encoded with encoding/json. Two structurally equal
// values always produce the same string, regardless of original key order
// or of a serialize/deserialize round-trip through the database.
func CanonicalJSON(v interface{}) (string, error) {
	var b strings.Builder
	if err := writeCanonical(&b, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeCanonical(b *strings.Builder, v interface{}) error {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			encodedKey, err := json.Marshal(k)
			if err != nil {
				return err
			}
			b.Write(encodedKey)
			b.WriteByte(':')
			if err := writeCanonical(b, val[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
		return nil

	case []interface{}:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := writeCanonical(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
		return nil

	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		b.Write(raw)
		return nil
	}
}

// Fingerprint derives the dedup fingerprint for a save request (or for a
// stored draft, using its persisted fields). The fingerprint covers every
// field that affects what the user would see on reload.
func Fingerprint(payload, editorState interface{}, backgroundImage *string, isDraft bool) (string, error) {
	doc := map[string]interface{}{
		"payload":         payload,
		"editorState":     editorState,
		"backgroundImage": backgroundImage,
		"isDraft":         isDraft,
	}

	canonical, err := CanonicalJSON(doc)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:]), nil
}
