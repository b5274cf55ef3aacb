package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	logger.Info("hidden %d", 1)
	require.Empty(t, buf.String())

	logger.Warn("shown %d", 2)
	require.Contains(t, buf.String(), "shown 2")
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("chatty", &buf)

	logger.Debug("debug line")
	logger.Info("info line")
	require.NotContains(t, buf.String(), "debug line")
	require.Contains(t, buf.String(), "info line")
}

func TestPanelFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf).With("envisalink")

	logger.Panel("armed", "65210", "partition 1 armed, mode = Away")
	out := buf.String()
	require.Contains(t, out, "partition 1 armed, mode = Away")
	require.Contains(t, out, "65210")
	require.Contains(t, out, "envisalink")
}
