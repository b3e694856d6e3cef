// Package utils holds small helpers shared across packages.
package utils

import (
	"crypto/rand"
	"encoding/hex"
	"unicode/utf8"
)

// RandomHex returns n random bytes hex encoded, used to tag stream connections in logs
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Truncate shortens s to at most n bytes without splitting a UTF-8 sequence
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
