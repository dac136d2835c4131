package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_StderrLevelGating(t *testing.T) {
	var buf bytes.Buffer

	logger, closeFn, err := New(Options{Level: "warn", Stderr: &buf})
	require.NoError(t, err)
	defer closeFn()

	logger.Info("should not appear")
	require.Empty(t, buf.String())

	logger.Warn("should appear")
	require.Contains(t, buf.String(), "should appear")
}

func TestNew_FileHandlerAlwaysDebug(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer

	logger, closeFn, err := New(Options{Level: "error", Stderr: &buf, LogDir: dir})
	require.NoError(t, err)

	logger.Debug("debug record")
	require.NoError(t, closeFn())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(data), "debug record")
}

func TestParseLevel_Trace(t *testing.T) {
	require.Equal(t, LevelTrace, parseLevel("trace"))
	require.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}
