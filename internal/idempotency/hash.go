package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// RequestHash returns a hex SHA-256 digest of the request body in canonical
// JSON form, so that retries that differ only in whitespace or key order
// still hash the same. Empty bodies hash like the empty JSON object.
func RequestHash(body []byte) (string, error) {
	canonical := []byte("{}")
	if len(body) > 0 {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err != nil {
			return "", fmt.Errorf("failed to parse request body: %w", err)
		}
		var err error
		// encoding/json marshals map keys in sorted order.
		canonical, err = json.Marshal(decoded)
		if err != nil {
			return "", fmt.Errorf("failed to canonicalize request body: %w", err)
		}
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
