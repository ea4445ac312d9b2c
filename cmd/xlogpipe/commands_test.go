package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// newTestApp 创建使用内存输入输出的应用
func newTestApp(input string) (*cli.Command, *bytes.Buffer, *bytes.Buffer) {
	app := createApp()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	app.Reader = strings.NewReader(input)
	app.Writer = stdout
	app.ErrWriter = stderr
	return app, stdout, stderr
}

func TestCreateCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range createCommands() {
		names[cmd.Name] = true
	}
	for _, name := range []string{"pipe", "run", "render"} {
		assert.True(t, names[name], "缺少命令 %q", name)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"成功", nil, 0},
		{"参数错误", usagef("--path 不能为空"), 2},
		{"包装的参数错误", errors.Join(errors.New("x"), usagef("bad")), 2},
		{"未知 flag", errors.New("flag provided but not defined: -nope"), 2},
		{"缺少必需 flag", errors.New(`Required flag "path" not set`), 2},
		{"运行失败", errors.New("open /root/x.log: permission denied"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "默认模板",
			args: []string{"--base", "/var/log/app.log", "--time", "2024-03-05T10:20:30Z", "--seq", "7", "--pid", "42"},
			want: "/var/log/app.log_20240305_102030_42_007\n",
		},
		{
			name: "只有序号",
			args: []string{"-b", "app.log", "-t", "_%n", "--seq", "12"},
			want: "app.log_012\n",
		},
		{
			name: "按给定时区输出",
			args: []string{"-b", "a.log", "-t", ".%H", "--time", "2024-03-05T23:00:00+08:00"},
			want: "a.log.23\n",
		},
		{
			name: "无占位符",
			args: []string{"-b", "a.log", "-t", ".old"},
			want: "a.log.old\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, stdout, _ := newTestApp("")
			err := app.Run(context.Background(), append([]string{"xlogpipe", "render"}, tt.args...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, stdout.String())
		})
	}
}

func TestRenderUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args renderArgs
	}{
		{"缺少 base", renderArgs{template: "_%n"}},
		{"负序号", renderArgs{base: "a.log", seq: -1}},
		{"序号过大", renderArgs{base: "a.log", seq: 1000}},
		{"时间格式错误", renderArgs{base: "a.log", time: "2024-03-05 10:20"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cmdRender(io.Discard, tt.args)
			var usageErr *usageError
			require.ErrorAs(t, err, &usageErr)
			assert.Equal(t, 2, exitCode(err))
		})
	}
}

func TestUnknownFlag(t *testing.T) {
	app, _, _ := newTestApp("")
	err := app.Run(context.Background(), []string{"xlogpipe", "render", "--nope"})
	require.Error(t, err)
	assert.True(t, isCLIUsageError(err), "err = %v", err)
}

func TestPipe(t *testing.T) {
	for _, async := range []bool{false, true} {
		t.Run(map[bool]string{false: "同步", true: "异步"}[async], func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "app.log")
			app, _, stderr := newTestApp("first\nsecond\n\nlast without newline")
			args := []string{"xlogpipe", "pipe", "--path", path, "--check-interval", "0"}
			if async {
				args = append(args, "--async")
			}

			require.NoError(t, app.Run(context.Background(), args))
			assert.Empty(t, stderr.String())

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "first\nsecond\n\nlast without newline\n", string(data))
		})
	}
}

func TestPipeSplits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	line := strings.Repeat("x", 63)
	input := strings.Repeat(line+"\n", 4)

	err := cmdPipe(context.Background(), strings.NewReader(input), io.Discard, pipeArgs{
		path:      path,
		splitSize: 64,
		template:  "_%n",
	})
	require.NoError(t, err)

	rotated, err := filepath.Glob(path + "_*")
	require.NoError(t, err)
	assert.NotEmpty(t, rotated, "超过切分大小后应产生切分文件")
}

func TestPipeUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args pipeArgs
	}{
		{"缺少路径", pipeArgs{}},
		{"负切分大小", pipeArgs{path: "a.log", splitSize: -1}},
		{"负检查间隔", pipeArgs{path: "a.log", checkInterval: -time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cmdPipe(context.Background(), strings.NewReader(""), io.Discard, tt.args)
			var usageErr *usageError
			require.ErrorAs(t, err, &usageErr)
		})
	}
}

func TestPipeInvalidPath(t *testing.T) {
	err := cmdPipe(context.Background(), strings.NewReader("x\n"), io.Discard, pipeArgs{
		path: "bad\x00path.log",
	})
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

// 取消后不再等待输入
func TestPipeCanceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close() //nolint:errcheck // 测试

	path := filepath.Join(t.TempDir(), "app.log")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- cmdPipe(ctx, pr, io.Discard, pipeArgs{
			path:     path,
			template: "_%n",
			async:    true,
		})
	}()

	_, err := pw.Write([]byte("one\n"))
	require.NoError(t, err)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("取消后 pipe 未退出")
	}
}

func TestPumpReadError(t *testing.T) {
	in := io.MultiReader(strings.NewReader("a\n"), errReader{})
	var got []string
	err := pump(context.Background(), in, func(line []byte) {
		got = append(got, string(line))
	})
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, got)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("broken input") }

func writeRunConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "log.yaml")
	data := "log:\n" +
		"  prefix: " + dir + "\n" +
		"  split_format: \"_%n\"\n" +
		"  instances:\n" +
		"    - \"access, text, access.log, 0, info\"\n" +
		"    - \"audit, json, audit.log, 0, info\"\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		instance string
		file     string
		want     string
	}{
		{"默认实例", "", "access.log", "instance=access"},
		{"指定实例", "audit", "audit.log", `"instance":"audit"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfgPath := writeRunConfig(t, dir)

			app, _, _ := newTestApp("hello\nworld\n")
			args := []string{"xlogpipe", "run", "--config", cfgPath}
			if tt.instance != "" {
				args = append(args, "--instance", tt.instance)
			}
			require.NoError(t, app.Run(context.Background(), args))

			data, err := os.ReadFile(filepath.Join(dir, tt.file))
			require.NoError(t, err)
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			require.Len(t, lines, 2)
			assert.Contains(t, lines[0], "hello")
			assert.Contains(t, lines[1], "world")
			assert.Contains(t, lines[0], tt.want)
		})
	}
}

// 输入结束后监视随之退出
func TestRunWatchStopsOnEOF(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeRunConfig(t, dir)

	done := make(chan error, 1)
	go func() {
		done <- cmdRun(context.Background(), strings.NewReader("x\n"), io.Discard, runArgs{
			config: cfgPath,
			watch:  true,
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("输入结束后 run 未退出")
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeRunConfig(t, dir)

	err := cmdRun(context.Background(), strings.NewReader(""), io.Discard, runArgs{})
	var usageErr *usageError
	require.ErrorAs(t, err, &usageErr)

	err = cmdRun(context.Background(), strings.NewReader(""), io.Discard, runArgs{config: cfgPath, instance: "nope"})
	require.ErrorAs(t, err, &usageErr)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("log: {}\n"), 0o600))
	err = cmdRun(context.Background(), strings.NewReader(""), io.Discard, runArgs{config: empty})
	require.ErrorAs(t, err, &usageErr)

	err = cmdRun(context.Background(), strings.NewReader(""), io.Discard, runArgs{config: filepath.Join(dir, "missing.yaml")})
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestStderrReporter(t *testing.T) {
	var buf bytes.Buffer
	report := stderrReporter(&buf)
	report(errors.New("disk full"))
	report(errors.New("rename failed"))
	assert.Equal(t, "xlogpipe: disk full\nxlogpipe: rename failed\n", buf.String())
}
