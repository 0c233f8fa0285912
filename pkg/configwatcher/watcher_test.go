package configwatcher

import (
	"context"
	"mentorhub_backend/internal/config"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, path string, maxPageSize int) {
	t.Helper()
	content, err := yaml.Marshal(map[string]interface{}{
		"server":   map[string]interface{}{"mode": "test"},
		"database": map[string]interface{}{"driver": "sqlite", "path": "test.db"},
		"jwt":      map[string]interface{}{"secret": "watcher-test-secret"},
		"review":   map[string]interface{}{"max_page_size": maxPageSize},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func TestWatchConfig_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, 20)

	var latest atomic.Value
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, path, func(cfg *config.Config) {
			latest.Store(cfg.Review.MaxPageSize)
		})
	}()

	// 等待监听建立
	time.Sleep(300 * time.Millisecond)
	writeConfig(t, path, 40)

	require.Eventually(t, func() bool {
		v, ok := latest.Load().(int)
		return ok && v == 40
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatchConfig_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, 20)

	var reloads int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = WatchConfig(ctx, path, func(*config.Config) {
			atomic.AddInt32(&reloads, 1)
		})
	}()

	time.Sleep(300 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))

	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&reloads))
}

func TestWatchConfig_MissingDirectory(t *testing.T) {
	err := WatchConfig(context.Background(), filepath.Join(t.TempDir(), "absent", "config.yaml"), func(*config.Config) {})
	assert.Error(t, err)
}
