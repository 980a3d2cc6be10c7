package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileStore_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	s, err := OpenFileStore(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyToken, "t1"))
	require.NoError(t, s.Set(KeyUserID, "u1"))
	require.NoError(t, s.Remove(KeyUserID))

	reopened, err := OpenFileStore(path, zap.NewNop())
	require.NoError(t, err)

	token, ok := reopened.Get(KeyToken)
	assert.True(t, ok)
	assert.Equal(t, "t1", token)
	_, ok = reopened.Get(KeyUserID)
	assert.False(t, ok)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := OpenFileStore(path, zap.NewNop())
	assert.Error(t, err)
}

func TestFileStore_WatchSeesOtherProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := OpenFileStore(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyIsLoggedIn, "true"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	ready := make(chan struct{})
	go func() {
		close(ready)
		_ = s.Watch(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()
	<-ready
	time.Sleep(100 * time.Millisecond)

	// A second handle stands in for another client process.
	other, err := OpenFileStore(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, other.Set(KeyIsLoggedIn, "false"))

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not report the external change")
	}

	v, _ := s.Get(KeyIsLoggedIn)
	assert.Equal(t, "false", v)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Set(KeyIsAdmin, "true"))

	v, ok := s.Get(KeyIsAdmin)
	assert.True(t, ok)
	assert.Equal(t, "true", v)

	require.NoError(t, s.Remove(KeyIsAdmin, KeyToken))
	_, ok = s.Get(KeyIsAdmin)
	assert.False(t, ok)
}
