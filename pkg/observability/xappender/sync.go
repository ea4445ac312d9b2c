package xappender

import "github.com/omeyang/xlogkit/pkg/observability/xrotate"

// syncAppender 在调用方 goroutine 中直接写入
type syncAppender struct {
	*sink
	closed atomicFlag
}

// NewSync 创建同步 Appender：Output 在调用方 goroutine 中写入 r。
// Start/Stop 不做任何事。r 为 nil 时 panic。
func NewSync(r xrotate.Rotator, opts ...Option) Appender {
	o := buildOptions(opts)
	return &syncAppender{sink: newSink(r, o, modeSync, nil)}
}

func (a *syncAppender) Start() error {
	if a.closed.isSet() {
		return ErrClosed
	}
	return nil
}

func (a *syncAppender) Stop() {}

func (a *syncAppender) Output(rec *Record) {
	if rec == nil {
		return
	}
	if a.closed.isSet() {
		a.drop(rec)
		return
	}
	a.write(rec)
}

func (a *syncAppender) Flush() error {
	if a.closed.isSet() {
		return ErrClosed
	}
	return nil
}

func (a *syncAppender) Close() error {
	if !a.closed.set() {
		return ErrClosed
	}
	return a.closeRotator()
}
