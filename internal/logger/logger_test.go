package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_WritesRotatedFile(t *testing.T) {
	dir := t.TempDir()

	log, err := New(dir, "flyeazy", false)
	require.NoError(t, err)

	log.Info("flight fetched", zap.String("flightId", "F1"))
	_ = log.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "flyeazy.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"flightId":"F1"`)
	assert.Contains(t, string(data), `"timestamp"`)
}

func TestNew_WithoutFileSink(t *testing.T) {
	log, err := New("", "flyeazy", true)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))
}

func TestTemporalAdapter_KeyvalsBecomeFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	adapter := NewTemporalAdapter(zap.New(core))

	adapter.With("Namespace", "default").Info("Started Worker", "TaskQueue", "flight-cancellation-queue")
	adapter.Warn("odd keyvals", "dangling")

	entries := logs.All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, "default", fields["Namespace"])
	assert.Equal(t, "flight-cancellation-queue", fields["TaskQueue"])
	assert.Contains(t, entries[1].ContextMap(), "keyvals")
}
