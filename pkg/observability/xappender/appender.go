package xappender

import (
	"errors"
	"fmt"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

//go:generate mockgen -source=../xrotate/rotator.go -destination=mock_rotator_test.go -package=xappender

// Appender 接收格式化好的日志记录并写入 Rotator
//
// 所有方法并发安全。
type Appender interface {
	// Start 启动后台写入（异步实现）。幂等；Close 之后返回 [ErrClosed]
	Start() error

	// Stop 停止后台写入并等待已接受的记录写完。幂等；
	// 从未启动时不做任何事
	Stop()

	// Output 接收一条记录，所有权随调用转移。
	// 异步实现只入队，不做 I/O
	Output(rec *Record)

	// Flush 等待此前 Output 的所有记录写完
	Flush() error

	// Close 停止后台写入，写完剩余记录并关闭 Rotator。
	// 重复调用返回 [ErrClosed]
	Close() error

	// Rotator 返回底层写入器
	Rotator() xrotate.Rotator
}

// New 按 (path, splitSize, template) 创建 FileWriter，并包装为同步或异步 Appender
//
// 异步 Appender 创建后未启动，需要调用 Start。
func New(path string, splitSize int64, tmpl string, async bool, opts ...Option) (Appender, error) {
	o := buildOptions(opts)

	fileOpts := make([]xrotate.FileOption, 0, len(o.fileOpts)+1)
	if o.userOnError {
		fileOpts = append(fileOpts, xrotate.WithOnError(o.onError))
	}
	fileOpts = append(fileOpts, o.fileOpts...)

	w, err := xrotate.NewFileWriter(path, splitSize, tmpl, fileOpts...)
	if err != nil {
		return nil, fmt.Errorf("xappender: %w", err)
	}
	if async {
		return NewAsync(w, opts...), nil
	}
	return NewSync(w, opts...), nil
}

// sink Appender 共用的写入逻辑
type sink struct {
	r       xrotate.Rotator
	onError func(error)
	metrics *appenderMetrics

	// dropReported 关闭后丢弃记录只上报一次
	dropReported atomicFlag
}

func newSink(r xrotate.Rotator, o options, mode string, pending func() int64) *sink {
	if r == nil {
		panic("xappender: rotator cannot be nil")
	}
	s := &sink{r: r, onError: o.onError}
	m, err := newMetrics(o.meterProvider, r, mode, pending)
	s.metrics = m
	s.report(err)
	return s
}

// write 写入并释放一条记录
func (s *sink) write(rec *Record) {
	defer rec.Release()
	defer func() {
		if p := recover(); p != nil {
			s.metrics.recordError()
			s.report(fmt.Errorf("%w: %v", ErrPanic, p))
		}
	}()

	_, err := s.r.Write(rec.Bytes())
	if err == nil {
		s.metrics.recordOK()
		return
	}
	if errors.Is(err, xrotate.ErrClosed) {
		s.drop(nil)
		return
	}
	s.metrics.recordError()
	// *WriteError 已由 FileWriter 的 OnError 上报
	var werr *xrotate.WriteError
	if !errors.As(err, &werr) {
		s.report(err)
	}
}

// drop 丢弃一条记录
func (s *sink) drop(rec *Record) {
	rec.Release()
	s.metrics.recordDropped()
	if s.dropReported.set() {
		s.report(fmt.Errorf("%w: dropping records for %s", ErrClosed, s.r.Path()))
	}
}

// report 通过回调上报内部错误，回调 panic 被隔离
func (s *sink) report(err error) {
	if err == nil || s.onError == nil {
		return
	}
	defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
	s.onError(err)
}

// closeRotator 注销指标并关闭 Rotator
func (s *sink) closeRotator() error {
	return errors.Join(s.metrics.unregister(), s.r.Close())
}

func (s *sink) Rotator() xrotate.Rotator {
	return s.r
}
