// Package identity maps archive-relative file paths to opaque, stable,
// URL-transportable identifiers and back. The mapping is a reversible
// encoding, not a hash: the path must always be recoverable from the id.
package identity

import (
	"encoding/base64"
	"fmt"
	"strings"

	"slide-archive/internal/domain"
)

// Encode returns the identifier for an archive-relative path. The id is
// stable across restarts and changes exactly when the file is renamed.
func Encode(relPath string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(relPath))
}

// Decode recovers the relative path from an identifier. Malformed input
// fails with domain.ErrInvalidID; callers treat that as item-not-found.
func Decode(id string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(id, "="))
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return string(raw), nil
}
