package xrotate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 编译时检查
var _ Rotator = (*lumberjackRotator)(nil)

func TestNewLumberjackValidation(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		opts    []LumberjackOption
		wantErr error
	}{
		{"空文件名", "", nil, ErrEmptyFilename},
		{"备份数量为负", "a.log", []LumberjackOption{WithMaxBackups(-1)}, ErrInvalidMaxBackups},
		{"备份数量超限", "a.log", []LumberjackOption{WithMaxBackups(maxBackups + 1)}, ErrInvalidMaxBackups},
		{"保留天数超限", "a.log", []LumberjackOption{WithMaxAge(maxAgeDays + 1)}, ErrInvalidMaxAge},
		{"没有清理策略", "a.log", []LumberjackOption{WithMaxBackups(0), WithMaxAge(0)}, ErrNoCleanupPolicy},
		{"非法文件权限", "a.log", []LumberjackOption{WithLumberjackFileMode(os.ModeDir | 0o644)}, ErrInvalidFileMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := tt.file
			if file != "" {
				file = filepath.Join(dir, file)
			}
			r, err := NewLumberjack(file, 0, tt.opts...)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSplitSizeMiB(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want int
	}{
		{"默认值", 0, 500},
		{"不足 1 MiB 向上取整", 100, 1},
		{"恰好 1 MiB", mib, 1},
		{"略超 1 MiB", mib + 1, 2},
		{"超过上限", MaxSplitSize * 2, 10240},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSizeMiB(tt.in))
		})
	}
}

func TestLumberjackWriteRotateReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lj.log")

	r, err := NewLumberjack(path, 0,
		WithMaxBackups(3),
		WithMaxAge(1),
		WithCompress(false),
		WithLocalTime(true),
		nil,
	)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, path, r.Path())

	_, err = r.Write([]byte("one\n"))
	require.NoError(t, err)

	require.NoError(t, r.Rotate())
	backups, err := filepath.Glob(filepath.Join(dir, "lj-*.log"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	_, err = r.Write([]byte("two\n"))
	require.NoError(t, err)

	require.NoError(t, os.Rename(path, path+".moved"))
	require.NoError(t, r.Reopen())
	_, err = r.Write([]byte("three\n"))
	require.NoError(t, err)

	assert.Equal(t, "two\n", readFile(t, path+".moved"))
	assert.Equal(t, "three\n", readFile(t, path))
}

func TestLumberjackFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mode.log")

	r, err := NewLumberjack(path, 0, WithLumberjackFileMode(0o640))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("x\n"))
	require.NoError(t, err)
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), fi.Mode().Perm())

	require.NoError(t, r.Rotate())
	fi, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), fi.Mode().Perm())
}

func TestLumberjackOnErrorPanicIsolated(t *testing.T) {
	r := &lumberjackRotator{cfg: lumberjackConfig{onError: func(error) { panic("boom") }}}
	assert.NotPanics(t, func() { r.report(errors.New("x")) })
}

func TestLumberjackClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed.log")

	r, err := NewLumberjack(path, 0)
	require.NoError(t, err)

	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Close(), ErrClosed)

	_, err = r.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Rotate(), ErrClosed)
	assert.ErrorIs(t, r.Reopen(), ErrClosed)
}
