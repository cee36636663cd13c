package verification

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

const tokenBytes = 32

// NewToken returns a random single-use token and the hash to store for it.
func NewToken() (raw string, hash string, err error) {
	const op = "verification.NewToken"

	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	raw = hex.EncodeToString(buf)

	return raw, HashToken(raw), nil
}

func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Link builds a frontend link such as {base}/verify-email?token=...
func Link(base, path, token string) string {
	return fmt.Sprintf("%s/%s?token=%s",
		strings.TrimRight(base, "/"),
		strings.TrimLeft(path, "/"),
		url.QueryEscape(token),
	)
}
