package xappender

import (
	"sync"
	"time"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// asyncAppender 批量交换队列 + 单个后台写入 goroutine
type asyncAppender struct {
	*sink
	idle time.Duration

	// queueMu 只保护 pending 的追加和交换
	queueMu sync.Mutex
	pending []*Record
	shut    bool // Close 之后不再接受记录

	// drainMu 串行化交换和写入，保证批次之间有序
	drainMu sync.Mutex
	spare   []*Record

	// runMu 保护启动和停止
	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	flushCh chan chan struct{}
	doneCh  chan struct{}

	closed atomicFlag
}

// NewAsync 创建异步 Appender：Output 只入队，由后台 goroutine 写入 r。
//
// 创建后未启动，Start 之前 Output 的记录留在队列中。r 为 nil 时 panic。
func NewAsync(r xrotate.Rotator, opts ...Option) Appender {
	o := buildOptions(opts)
	a := &asyncAppender{idle: o.idle}
	a.sink = newSink(r, o, modeAsync, a.pendingLen)
	return a
}

// Start 启动后台写入 goroutine，已启动时直接返回
func (a *asyncAppender) Start() error {
	if a.closed.isSet() {
		return ErrClosed
	}
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.closed.isSet() {
		return ErrClosed
	}
	if a.running {
		return nil
	}
	a.running = true
	a.stopCh = make(chan struct{})
	a.flushCh = make(chan chan struct{})
	a.doneCh = make(chan struct{})
	go a.run(a.stopCh, a.flushCh, a.doneCh)
	return nil
}

// Stop 清除运行标志并等待后台 goroutine 退出。
// 后台 goroutine 退出前会再做一次交换和写入。
func (a *asyncAppender) Stop() {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if !a.running {
		return
	}
	a.running = false
	close(a.stopCh)
	<-a.doneCh
}

// Output 把记录追加到队列，不做 I/O
func (a *asyncAppender) Output(rec *Record) {
	if rec == nil {
		return
	}
	a.queueMu.Lock()
	if a.shut {
		a.queueMu.Unlock()
		a.drop(rec)
		return
	}
	a.pending = append(a.pending, rec)
	a.queueMu.Unlock()
}

// Flush 等待此前 Output 的记录全部写完
//
// 未启动时在调用方 goroutine 中写入；已启动时请后台 goroutine 立即做一轮交换，
// 并等待这一轮写完。
func (a *asyncAppender) Flush() error {
	if a.closed.isSet() {
		return ErrClosed
	}
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if !a.running {
		a.drain()
		return nil
	}
	reply := make(chan struct{})
	a.flushCh <- reply
	<-reply
	return nil
}

// Close 停止后台写入，写完队列中剩余的记录（包括从未启动时积压的）并关闭 Rotator
func (a *asyncAppender) Close() error {
	if !a.closed.set() {
		return ErrClosed
	}
	a.Stop()

	a.queueMu.Lock()
	a.shut = true
	a.queueMu.Unlock()

	a.drain()
	return a.closeRotator()
}

// run 后台写入循环
func (a *asyncAppender) run(stop <-chan struct{}, flush <-chan chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(a.idle)
	defer timer.Stop()

	for {
		a.drain()
		timer.Reset(a.idle)

		select {
		case <-stop:
			// 运行标志已清除：最后一轮交换，写完 Stop 之前接受的记录
			a.drain()
			return
		case reply := <-flush:
			a.drain()
			close(reply)
		case <-timer.C:
		}
	}
}

// drain 交换队列并写完交换出的批次，返回写入的记录数
func (a *asyncAppender) drain() int {
	a.drainMu.Lock()
	defer a.drainMu.Unlock()

	a.queueMu.Lock()
	batch := a.pending
	a.pending = a.spare[:0]
	a.queueMu.Unlock()

	for i, rec := range batch {
		a.write(rec)
		batch[i] = nil
	}
	a.spare = batch[:0]

	if n := len(batch); n > 0 {
		a.metrics.recordBatch(n)
	}
	return len(batch)
}

// pendingLen 当前队列长度
func (a *asyncAppender) pendingLen() int64 {
	a.queueMu.Lock()
	defer a.queueMu.Unlock()
	return int64(len(a.pending))
}
