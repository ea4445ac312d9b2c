package xlogreg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

const watchYAML = `
log:
  prefix: %s
  split_format: "_%%n"
  instances:
    - "a, text, a.log, 0, %s"
`

type reloadResult struct {
	cfg Config
	err error
}

func writeWatchConfig(t *testing.T, path, dir, level string) {
	t.Helper()
	data := []byte(fmt.Sprintf(watchYAML, dir, level))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func startWatch(t *testing.T, r *Registry, path string) <-chan reloadResult {
	t.Helper()
	results := make(chan reloadResult, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Watch(ctx, path, func(cfg Config, err error) {
			results <- reloadResult{cfg: cfg, err: err}
		})
	}()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return results
}

func waitReload(t *testing.T, results <-chan reloadResult) reloadResult {
	t.Helper()
	select {
	case res := <-results:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("等待重新加载超时")
		return reloadResult{}
	}
}

func TestWatchAppliesLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.yaml")
	writeWatchConfig(t, path, dir, "info")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	r := newRegistry(t, cfg, WithDebounce(50*time.Millisecond))
	require.NoError(t, r.Start())
	results := startWatch(t, r, path)

	// 等待监视建立
	time.Sleep(50 * time.Millisecond)
	writeWatchConfig(t, path, dir, "error")

	res := waitReload(t, results)
	require.NoError(t, res.err)
	assert.Equal(t, xlog.LevelError, r.Logger("a").GetLevel())
}

func TestWatchRejectsBrokenConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.yaml")
	writeWatchConfig(t, path, dir, "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	r := newRegistry(t, cfg, WithDebounce(50*time.Millisecond))
	results := startWatch(t, r, path)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("log: ["), 0o600))

	res := waitReload(t, results)
	require.ErrorIs(t, res.err, ErrParseFailed)
	assert.Equal(t, xlog.LevelWarn, r.Logger("a").GetLevel(), "解析失败时不修改")
}

// 其他文件的变更不触发重新加载
func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.yaml")
	writeWatchConfig(t, path, dir, "info")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	r := newRegistry(t, cfg, WithDebounce(10*time.Millisecond))
	results := startWatch(t, r, path)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0o600))

	select {
	case res := <-results:
		t.Fatalf("不应重新加载: %+v", res)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchErrors(t *testing.T) {
	r := newRegistry(t, testConfig(t.TempDir(), false))

	err := r.Watch(context.Background(), "", nil)
	require.ErrorIs(t, err, ErrEmptyPath)

	err = r.Watch(context.Background(), filepath.Join(t.TempDir(), "missing", "log.yaml"), nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, context.Canceled))
}
