package xappender

import (
	"errors"
	"sync"
	"time"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// memRotator 把写入记录在内存中的 Rotator
type memRotator struct {
	mu     sync.Mutex
	writes []string
	closed bool
	delay  time.Duration
}

var _ xrotate.Rotator = (*memRotator)(nil)

func (r *memRotator) Write(p []byte) (int, error) {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, xrotate.ErrClosed
	}
	r.writes = append(r.writes, string(p))
	return len(p), nil
}

func (r *memRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return xrotate.ErrClosed
	}
	r.closed = true
	return nil
}

func (r *memRotator) Rotate() error { return nil }
func (r *memRotator) Reopen() error { return nil }
func (r *memRotator) Path() string  { return "/mem/app.log" }

func (r *memRotator) lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.writes...)
}

func (r *memRotator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

func (r *memRotator) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// errorRecorder 收集 OnError 上报的错误
type errorRecorder struct {
	mu   sync.Mutex
	errs []error
}

func (e *errorRecorder) record(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errs = append(e.errs, err)
}

func (e *errorRecorder) all() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]error(nil), e.errs...)
}

func (e *errorRecorder) count(target error) int {
	n := 0
	for _, err := range e.all() {
		if errors.Is(err, target) {
			n++
		}
	}
	return n
}
