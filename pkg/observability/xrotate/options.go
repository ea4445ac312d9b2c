package xrotate

import (
	"fmt"
	"os"
	"time"
)

// FileWriter 默认配置值
const (
	// DefaultCheckInterval 默认的切分检查间隔
	DefaultCheckInterval = time.Second

	// DefaultFileMode 默认的日志文件权限
	DefaultFileMode os.FileMode = 0o644
)

// fileConfig FileWriter 配置
type fileConfig struct {
	// checkInterval 两次切分检查的最小间隔，0 表示每次写入都检查
	checkInterval time.Duration

	// perm 新建日志文件的权限，仅允许低 9 位
	perm os.FileMode

	// onError 内部错误回调
	onError func(error)

	// loc 渲染轮转文件名使用的时区
	loc *time.Location

	// now 时钟，仅用于测试
	now func() time.Time

	// pid 渲染 %P 使用的进程号
	pid int
}

// FileOption FileWriter 配置选项函数
type FileOption func(*fileConfig)

// WithCheckInterval 设置切分检查间隔
//
// 检查需要两次 stat 系统调用，间隔内的写入直接落盘不做检查。
// d <= 0 时每次写入前都检查。
func WithCheckInterval(d time.Duration) FileOption {
	return func(c *fileConfig) {
		if d < 0 {
			d = 0
		}
		c.checkInterval = d
	}
}

// WithFileMode 设置新建日志文件的权限，默认 0644
func WithFileMode(perm os.FileMode) FileOption {
	return func(c *fileConfig) {
		c.perm = perm
	}
}

// WithOnError 设置内部错误回调
//
// 写入失败、打开失败、切分失败都通过回调上报，默认输出一行到标准错误。
// 回调不得向同一写入器写入数据，否则会递归。
func WithOnError(fn func(error)) FileOption {
	return func(c *fileConfig) {
		if fn != nil {
			c.onError = fn
		}
	}
}

// WithLocation 设置渲染轮转文件名使用的时区，默认 time.Local
func WithLocation(loc *time.Location) FileOption {
	return func(c *fileConfig) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithClock 替换时钟
func WithClock(now func() time.Time) FileOption {
	return func(c *fileConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithPID 设置渲染 %P 使用的进程号，默认 os.Getpid()
func WithPID(pid int) FileOption {
	return func(c *fileConfig) {
		c.pid = pid
	}
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		checkInterval: DefaultCheckInterval,
		perm:          DefaultFileMode,
		onError:       stderrOnError,
		loc:           time.Local,
		now:           time.Now,
		pid:           os.Getpid(),
	}
}

func (c *fileConfig) validate() error {
	if c.perm&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed", ErrInvalidFileMode, c.perm)
	}
	return nil
}

// stderrOnError 默认错误回调
func stderrOnError(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "xrotate: error=%v\n", err)
}
