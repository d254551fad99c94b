package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "warn", Stderr: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "key=value")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	assert.ErrorContains(t, err, `invalid log level "loud"`)
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cardsync.log")
	var buf bytes.Buffer
	logger, closer, err := New(Options{File: path, Stderr: &buf})
	require.NoError(t, err)

	logger.Info("synced", "set", "FIN")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "synced")
	assert.Contains(t, buf.String(), "synced")
}
