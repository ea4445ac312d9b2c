package xlog

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var (
	_ Logger          = (*xlogger)(nil)
	_ LoggerWithLevel = (*xlogger)(nil)
)

const (
	initialStackSize = 4096
	maxStackSize     = 64 << 10
)

var stackPool = sync.Pool{
	New: func() any {
		buf := make([]byte, initialStackSize)
		return &buf
	},
}

// shared 派生 Logger 之间共享的状态
type shared struct {
	levelVar  *slog.LevelVar
	onError   func(error)
	addSource bool

	errorCount     atomic.Uint64
	inErrorHandler atomic.Bool
}

// xlogger Logger 的实现
type xlogger struct {
	handler slog.Handler
	*shared
}

func newLogger(h slog.Handler, s *shared) *xlogger {
	return &xlogger{handler: h, shared: s}
}

// Discard 返回不输出任何内容的 Logger，级别控制仍然可用
func Discard() LoggerWithLevel {
	lv := new(slog.LevelVar)
	lv.Set(slog.Level(LevelOff))
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: lv})
	return newLogger(h, &shared{levelVar: lv})
}

// caller 调用方位置，skip 从 log 的调用方算起
//
//go:noinline
func (l *xlogger) caller(skip int) uintptr {
	if !l.addSource {
		return 0
	}
	var pcs [1]uintptr
	// runtime.Callers -> caller -> log/Stack -> 导出方法 -> 业务代码
	runtime.Callers(skip+3, pcs[:])
	return pcs[0]
}

//go:noinline
func (l *xlogger) log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	if !l.handler.Enabled(ctx, level) {
		return
	}
	r := slog.NewRecord(time.Now(), level, msg, l.caller(1))
	r.AddAttrs(attrs...)
	l.handle(ctx, r)
}

func (l *xlogger) handle(ctx context.Context, r slog.Record) {
	if err := l.handler.Handle(ctx, r); err != nil {
		l.handleError(err)
	}
}

// handleError 处理 Handler.Handle 失败
//
// 回调内部再次出错时不会递归调用；并发期间部分错误只计数不回调。
func (l *xlogger) handleError(err error) {
	l.errorCount.Add(1)
	if l.onError == nil {
		return
	}
	if !l.inErrorHandler.CompareAndSwap(false, true) {
		return
	}
	defer l.inErrorHandler.Store(false)
	defer func() {
		if recover() != nil {
			l.errorCount.Add(1)
		}
	}()
	l.onError(err)
}

func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs)
}

func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs)
}

func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs)
}

func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs)
}

// Stack 记录带调用栈的错误日志
//
//go:noinline
func (l *xlogger) Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	if !l.handler.Enabled(ctx, slog.LevelError) {
		return
	}
	r := slog.NewRecord(time.Now(), slog.LevelError, msg, l.caller(0))
	r.AddAttrs(attrs...)
	r.AddAttrs(slog.String(KeyStack, captureStack()))
	l.handle(ctx, r)
}

// captureStack 获取当前 goroutine 的调用栈，缓冲区不足时翻倍直到 maxStackSize
func captureStack() string {
	bufp, ok := stackPool.Get().(*[]byte)
	if !ok {
		buf := make([]byte, initialStackSize)
		bufp = &buf
	}
	buf := *bufp
	n := runtime.Stack(buf, false)
	for n == len(buf) && len(buf) < maxStackSize {
		buf = make([]byte, min(len(buf)*2, maxStackSize))
		n = runtime.Stack(buf, false)
	}
	// 归还前拷贝，池中缓冲区随后可能被复用
	s := string(buf[:n])
	stackPool.Put(bufp)
	return s
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return newLogger(l.handler.WithAttrs(attrs), l.shared)
}

func (l *xlogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	return newLogger(l.handler.WithGroup(name), l.shared)
}

func (l *xlogger) SetLevel(level Level) {
	l.levelVar.Set(slog.Level(level))
}

func (l *xlogger) GetLevel() Level {
	return Level(l.levelVar.Level())
}

func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	return l.handler.Enabled(ctx, slog.Level(level))
}
