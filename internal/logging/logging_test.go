package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDebugfRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	Debugf("hidden %d", 1)
	require.Empty(t, buf.String())

	Init(Config{Level: "debug", Output: &buf})
	Debugf("shown %d", 2)
	require.Contains(t, buf.String(), "shown 2")

	Init(Config{})
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Output: &buf})
	Info().Str("match", "m1").Msg("selected")
	require.Contains(t, buf.String(), `"match":"m1"`)
	require.Contains(t, buf.String(), `"message":"selected"`)

	Init(Config{})
}
