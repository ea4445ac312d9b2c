package xrotate

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xlogkit/pkg/util/xfile"
)

// 切分大小的默认值和取值范围
const (
	// DefaultSplitSize 切分大小 <= 0 时使用的默认值（500 MiB）
	DefaultSplitSize int64 = 500 << 20

	// MinSplitSize 切分大小下限
	MinSplitSize int64 = 64

	// MaxSplitSize 切分大小上限（10 GiB）
	MaxSplitSize int64 = 10 << 30
)

// openFlags 日志文件的打开方式，追加写入保证多个写入器不会互相覆盖
const openFlags = os.O_CREATE | os.O_WRONLY | os.O_APPEND

// 编译时断言
var _ Rotator = (*FileWriter)(nil)

// Stats FileWriter 累计统计
type Stats struct {
	Writes      int64 // 完整写入的记录数
	Bytes       int64 // 写入的字节数（含失败记录中已写入的部分）
	WriteErrors int64 // 写入失败的记录数
	Rotations   int64 // 成功重命名的次数
	Reopens     int64 // 描述符替换的次数
	RotateSkips int64 // 因文件名耗尽放弃切分的次数
}

// FileWriter 按大小切分的日志文件写入器
//
// 写入前按检查间隔做一次切分检查：
//  1. 比较已打开文件和路径当前指向文件的 (设备号, inode)，不一致或路径不存在时重新打开
//  2. 文件大小未达到切分大小时结束
//  3. 否则按模板寻找序号最小的空闲文件名，重命名当前文件后重新打开
//
// 检查由持有 rotateMu 的一个写入者执行，其他写入者跳过检查直接写入。
type FileWriter struct {
	path      string
	splitSize int64
	tmpl      *Template
	cfg       fileConfig

	slot *fileSlot

	// checkMu 保护检查时间戳，临界区只有一次比较和赋值
	checkMu   sync.Mutex
	lastCheck time.Time
	checked   bool

	// rotateMu 串行化重新打开和切分
	rotateMu sync.Mutex

	closed atomic.Bool

	writes      atomic.Int64
	bytes       atomic.Int64
	writeErrors atomic.Int64
	rotations   atomic.Int64
	reopens     atomic.Int64
	rotateSkips atomic.Int64
}

// NewFileWriter 创建按大小切分的日志文件写入器
//
// 参数:
//   - path: 日志文件路径，父目录不存在时自动创建
//   - splitSize: 切分大小（字节），<= 0 时使用 [DefaultSplitSize]，
//     超出 [MinSplitSize, MaxSplitSize] 时取边界值
//   - tmpl: 轮转文件名模板，为空时使用 [DefaultTemplate]
//
// 只有路径本身不可用（空路径、空字节、目录路径等）时返回错误。
// 文件无法打开时写入标准错误的副本并通过 OnError 上报 [ErrFallbackStderr]，
// 之后每个检查周期都会尝试重新打开。
func NewFileWriter(path string, splitSize int64, tmpl string, opts ...FileOption) (*FileWriter, error) {
	if path == "" {
		return nil, ErrEmptyFilename
	}
	safePath, err := xfile.SanitizePath(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultFileConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if tmpl == "" {
		tmpl = DefaultTemplate
	}

	w := &FileWriter{
		path:      safePath,
		splitSize: clampSplitSize(splitSize),
		tmpl:      CompileTemplate(tmpl),
		cfg:       cfg,
	}

	f, openErr := w.openFile()
	if openErr == nil {
		w.slot = newFileSlot(f)
		return w, nil
	}

	slot, err := stderrSlot()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFallbackStderr, errors.Join(openErr, err))
	}
	w.slot = slot
	w.report(fmt.Errorf("%w: %w", ErrFallbackStderr, openErr))
	return w, nil
}

// clampSplitSize 把切分大小限制在 [MinSplitSize, MaxSplitSize]
func clampSplitSize(size int64) int64 {
	switch {
	case size <= 0:
		return DefaultSplitSize
	case size < MinSplitSize:
		return MinSplitSize
	case size > MaxSplitSize:
		return MaxSplitSize
	default:
		return size
	}
}

// openFile 以追加方式打开日志文件，父目录不存在时先创建
func (w *FileWriter) openFile() (*os.File, error) {
	f, err := os.OpenFile(w.path, openFlags, w.cfg.perm) //#nosec G304 -- 路径已经过 SanitizePath
	if errors.Is(err, fs.ErrNotExist) {
		if derr := xfile.EnsureDir(w.path); derr != nil {
			return nil, fmt.Errorf("create parent dir of %s: %w", w.path, derr)
		}
		f, err = os.OpenFile(w.path, openFlags, w.cfg.perm) //#nosec G304 -- 同上
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Write 写入一条记录
//
// 写入前执行限频的切分检查。部分写入时重试剩余字节，直到全部写完或出错；
// 出错时丢弃剩余字节，通过 OnError 上报 [*WriteError] 并同时返回。
func (w *FileWriter) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, ErrClosed
	}

	if err := w.Check(); err != nil && !errors.Is(err, ErrClosed) {
		w.report(err)
	}

	written := 0
	for written < len(p) {
		n, err := w.slot.write(p[written:])
		written += n
		if err == nil && n == 0 {
			err = io.ErrShortWrite
		}
		if err != nil {
			w.bytes.Add(int64(written))
			if w.closed.Load() {
				return written, ErrClosed
			}
			w.writeErrors.Add(1)
			werr := &WriteError{Path: w.path, Written: written, Dropped: len(p) - written, Err: err}
			w.report(werr)
			return written, werr
		}
	}

	w.writes.Add(1)
	w.bytes.Add(int64(written))
	return written, nil
}

// Check 执行一次限频的切分检查
//
// 距上次检查不足检查间隔、或其他 goroutine 正在检查时直接返回 nil。
// 返回的错误不会通过 OnError 上报，由调用方处理。
func (w *FileWriter) Check() error {
	if !w.due() {
		return nil
	}
	if !w.rotateMu.TryLock() {
		return nil
	}
	defer w.rotateMu.Unlock()

	if w.closed.Load() {
		return ErrClosed
	}
	return w.check(false)
}

// due 判断是否到了检查时间，到了则记录本次检查时间
func (w *FileWriter) due() bool {
	w.checkMu.Lock()
	defer w.checkMu.Unlock()

	now := w.cfg.now()
	if w.checked && now.Sub(w.lastCheck) < w.cfg.checkInterval {
		return false
	}
	w.lastCheck = now
	w.checked = true
	return true
}

// Rotate 立即切分，不受检查间隔和切分大小限制
//
// 当前文件为空时不切分。路径已被外部移走时先重新打开，再按新文件判断。
func (w *FileWriter) Rotate() error {
	if w.closed.Load() {
		return ErrClosed
	}
	w.rotateMu.Lock()
	defer w.rotateMu.Unlock()

	if w.closed.Load() {
		return ErrClosed
	}
	return w.check(true)
}

// Reopen 立即重新打开 Path 指向的文件
func (w *FileWriter) Reopen() error {
	if w.closed.Load() {
		return ErrClosed
	}
	w.rotateMu.Lock()
	defer w.rotateMu.Unlock()

	if w.closed.Load() {
		return ErrClosed
	}
	return w.reopen()
}

// check 切分检查主体，调用方持有 rotateMu
func (w *FileWriter) check(force bool) error {
	cur, curErr := w.slot.stat()
	onDisk, diskErr := os.Stat(w.path)
	if curErr != nil || diskErr != nil || !sameFile(cur, onDisk) {
		if err := w.reopen(); err != nil {
			return err
		}
		if cur, curErr = w.slot.stat(); curErr != nil {
			return fmt.Errorf("xrotate: stat %s: %w", w.path, curErr)
		}
	}

	size := cur.Size()
	if force {
		if size == 0 {
			return nil
		}
	} else if size < w.splitSize {
		return nil
	}
	return w.rotate()
}

// rotate 重命名当前文件并重新打开，调用方持有 rotateMu
func (w *FileWriter) rotate() error {
	target, ok := w.freeName()
	if !ok {
		w.rotateSkips.Add(1)
		return fmt.Errorf("%w: %s%s", ErrRotateExhausted, w.path, w.tmpl)
	}
	if err := os.Rename(w.path, target); err != nil {
		return fmt.Errorf("%w: %s -> %s: %w", ErrRename, w.path, target, err)
	}
	w.rotations.Add(1)
	return w.reopen()
}

// freeName 按序号 0~MaxSeq 渲染候选文件名，返回第一个不存在的
//
// 模板不含 %n 时所有候选相同，只探测一次。
func (w *FileWriter) freeName() (string, bool) {
	ts := w.cfg.now().In(w.cfg.loc)
	for seq := 0; seq <= MaxSeq; seq++ {
		name := w.tmpl.Render(w.path, ts, seq, w.cfg.pid)
		if name != w.path {
			if _, err := os.Lstat(name); errors.Is(err, fs.ErrNotExist) {
				return name, true
			}
		}
		if !w.tmpl.HasSeq() {
			break
		}
	}
	return "", false
}

// reopen 打开 Path 指向的文件并替换到槽位上，调用方持有 rotateMu
func (w *FileWriter) reopen() error {
	f, err := w.openFile()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReopen, w.path, err)
	}
	if err := w.slot.substitute(f); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReopen, w.path, err)
	}
	w.reopens.Add(1)
	return nil
}

// Close 关闭文件描述符
//
// 等待正在进行的检查结束后关闭。重复调用返回 [ErrClosed]。
func (w *FileWriter) Close() error {
	if w.closed.Swap(true) {
		return ErrClosed
	}
	w.rotateMu.Lock()
	defer w.rotateMu.Unlock()
	return w.slot.close()
}

// Path 返回日志文件路径（已规范化）
func (w *FileWriter) Path() string {
	return w.path
}

// SplitSize 返回生效的切分大小
func (w *FileWriter) SplitSize() int64 {
	return w.splitSize
}

// Template 返回编译后的文件名模板
func (w *FileWriter) Template() *Template {
	return w.tmpl
}

// Stats 返回累计统计
func (w *FileWriter) Stats() Stats {
	return Stats{
		Writes:      w.writes.Load(),
		Bytes:       w.bytes.Load(),
		WriteErrors: w.writeErrors.Load(),
		Rotations:   w.rotations.Load(),
		Reopens:     w.reopens.Load(),
		RotateSkips: w.rotateSkips.Load(),
	}
}

// report 通过回调上报内部错误
//
// 回调 panic 被 recover 隔离，不会中断写入。
func (w *FileWriter) report(err error) {
	if err == nil || w.cfg.onError == nil {
		return
	}
	defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
	w.cfg.onError(err)
}
