package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomHex(t *testing.T) {
	a, b := RandomHex(4), RandomHex(4)
	require.Len(t, a, 8)
	require.NotEqual(t, a, b)
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", Truncate("abc", 10))
	require.Equal(t, "ab", Truncate("abcdef", 2))
	require.Equal(t, "", Truncate("abc", 0))
	// "é" is two bytes; cutting inside it backs off to the rune start
	require.Equal(t, "a", Truncate("aé", 2))
}
