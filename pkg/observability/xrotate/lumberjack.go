package xrotate

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/omeyang/xlogkit/pkg/util/xfile"

	"gopkg.in/natefinch/lumberjack.v2"
)

// lumberjack 后端默认值和取值范围
const (
	// DefaultMaxBackups 默认保留的备份文件数量
	DefaultMaxBackups = 7

	// DefaultMaxAgeDays 默认保留备份的天数
	DefaultMaxAgeDays = 30

	maxBackups = 1024
	maxAgeDays = 3650

	mib = 1 << 20
)

// lumberjackConfig lumberjack 后端配置
type lumberjackConfig struct {
	maxBackups int
	maxAgeDays int
	compress   bool
	localTime  bool
	perm       os.FileMode // 0 表示保留 lumberjack 的 0600
	onError    func(error)
}

// LumberjackOption lumberjack 后端配置选项函数
type LumberjackOption func(*lumberjackConfig)

// WithMaxBackups 设置保留的备份文件数量，0 表示不按数量清理
func WithMaxBackups(n int) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.maxBackups = n
	}
}

// WithMaxAge 设置保留备份的天数，0 表示不按天数清理
func WithMaxAge(days int) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.maxAgeDays = days
	}
}

// WithCompress 设置是否 gzip 压缩备份文件
func WithCompress(compress bool) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.compress = compress
	}
}

// WithLocalTime 设置备份文件名是否使用本地时间（默认 UTC）
func WithLocalTime(local bool) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.localTime = local
	}
}

// WithLumberjackFileMode 设置日志文件权限
//
// lumberjack 以 0600 创建文件，这里在打开和切分后通过 chmod 调整，
// 存在短暂的时间窗口权限仍为 0600。
func WithLumberjackFileMode(perm os.FileMode) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.perm = perm
	}
}

// WithLumberjackOnError 设置内部错误回调（chmod 失败等），默认静默
func WithLumberjackOnError(fn func(error)) LumberjackOption {
	return func(c *lumberjackConfig) {
		c.onError = fn
	}
}

// lumberjackRotator 基于 lumberjack 的 Rotator 实现
//
// 与 FileWriter 的区别：切分后的文件名由 lumberjack 决定（name-时间戳.ext），
// 支持按数量/天数清理和 gzip 压缩，不支持文件名模板。
type lumberjackRotator struct {
	logger *lumberjack.Logger
	path   string
	cfg    lumberjackConfig

	mu          sync.Mutex // 保护 Stat+Chmod
	modeApplied atomic.Bool
	closed      atomic.Bool
}

// NewLumberjack 创建基于 lumberjack 的日志写入器
//
// splitSize 与 [NewFileWriter] 含义相同（字节），按 MiB 向上取整，最小 1 MiB。
// MaxBackups 和 MaxAgeDays 不能同时为 0，否则备份会无限增长。
func NewLumberjack(filename string, splitSize int64, opts ...LumberjackOption) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := lumberjackConfig{
		maxBackups: DefaultMaxBackups,
		maxAgeDays: DefaultMaxAgeDays,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, err
	}

	return &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   safePath,
			MaxSize:    splitSizeMiB(splitSize),
			MaxBackups: cfg.maxBackups,
			MaxAge:     cfg.maxAgeDays,
			Compress:   cfg.compress,
			LocalTime:  cfg.localTime,
		},
		path: safePath,
		cfg:  cfg,
	}, nil
}

// splitSizeMiB 把切分字节数换算为 lumberjack 使用的 MiB
func splitSizeMiB(size int64) int {
	size = clampSplitSize(size)
	n := (size + mib - 1) / mib
	if n < 1 {
		n = 1
	}
	return int(n)
}

func (c *lumberjackConfig) validate() error {
	if c.maxBackups < 0 || c.maxBackups > maxBackups {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxBackups, c.maxBackups, maxBackups)
	}
	if c.maxAgeDays < 0 || c.maxAgeDays > maxAgeDays {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxAge, c.maxAgeDays, maxAgeDays)
	}
	if c.maxBackups == 0 && c.maxAgeDays == 0 {
		return fmt.Errorf("%w: MaxBackups and MaxAgeDays cannot both be 0", ErrNoCleanupPolicy)
	}
	if c.perm&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed", ErrInvalidFileMode, c.perm)
	}
	return nil
}

// Write 实现 io.Writer
func (r *lumberjackRotator) Write(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	n, err := r.logger.Write(p)
	if err != nil {
		// Close 可能在 logger.Write 期间完成
		if r.closed.Load() {
			return n, ErrClosed
		}
		return n, err
	}
	if r.cfg.perm != 0 && !r.modeApplied.Load() {
		r.report(r.ensureFileMode())
	}
	return n, nil
}

// ensureFileMode 把当前文件权限调整为配置值
func (r *lumberjackRotator) ensureFileMode() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := os.Stat(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			// lumberjack 延迟创建文件
			return nil
		}
		return err
	}
	if info.Mode().Perm() != r.cfg.perm {
		//#nosec G302 -- 日志文件权限由调用方配置决定
		if err := os.Chmod(r.path, r.cfg.perm); err != nil {
			return err
		}
	}
	r.modeApplied.Store(true)
	return nil
}

func (r *lumberjackRotator) report(err error) {
	if err != nil && r.cfg.onError != nil {
		defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
		r.cfg.onError(err)
	}
}

// Rotate 立即切分
func (r *lumberjackRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.logger.Rotate(); err != nil {
		if r.closed.Load() {
			return ErrClosed
		}
		return err
	}
	r.resetFileMode()
	return nil
}

// Reopen 关闭当前文件，下次写入时 lumberjack 重新打开 Path
func (r *lumberjackRotator) Reopen() error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.logger.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReopen, r.path, err)
	}
	r.resetFileMode()
	return nil
}

// resetFileMode 新文件以 0600 创建，需要重新调整
func (r *lumberjackRotator) resetFileMode() {
	if r.cfg.perm != 0 {
		r.modeApplied.Store(false)
		r.report(r.ensureFileMode())
	}
}

// Close 关闭写入器，重复调用返回 [ErrClosed]
func (r *lumberjackRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return r.logger.Close()
}

// Path 返回日志文件路径
func (r *lumberjackRotator) Path() string {
	return r.path
}
