package common

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// MakeRandHexString returns size random bytes encoded as hex, so the result
// is 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray zeroes b in place. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// BearerToken extracts the token from an authorization value. The "Bearer"
// scheme is matched case-insensitively; a value without a scheme is returned
// as is. An empty result means no token was supplied.
func BearerToken(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, strings.TrimSpace(BearerPrefix)) {
		return ""
	}
	if len(value) >= len(BearerPrefix) && strings.EqualFold(value[:len(BearerPrefix)], BearerPrefix) {
		return strings.TrimSpace(value[len(BearerPrefix):])
	}
	if strings.ContainsRune(value, ' ') {
		return ""
	}
	return value
}
