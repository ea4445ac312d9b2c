package xappender

import "sync"

const (
	// defaultRecordCap 池中新缓冲的初始容量
	defaultRecordCap = 512

	// maxPooledCap 超过该容量的缓冲释放后不放回池中
	maxPooledCap = 64 << 10
)

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, defaultRecordCap)
		return &b
	},
}

// Record 一条待写入的日志记录，独占一段字节缓冲。
//
// 通过 Output 把 *Record 交给 Appender 后，调用方不得再使用它。
// Appender 在写入尝试之后调用 Release 释放缓冲。
type Record struct {
	buf []byte
}

// NewRecord 复制 p 创建记录，缓冲取自内部池
func NewRecord(p []byte) *Record {
	bp := bufPool.Get().(*[]byte)
	return &Record{buf: append((*bp)[:0], p...)}
}

// TakeRecord 直接接管 p 创建记录，不复制。
// 调用方之后不得再读写 p。
func TakeRecord(p []byte) *Record {
	return &Record{buf: p}
}

// Bytes 返回记录内容，释放后返回 nil
func (r *Record) Bytes() []byte {
	if r == nil {
		return nil
	}
	return r.buf
}

// Len 返回记录长度
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.buf)
}

// Release 释放缓冲，重复调用无效果
func (r *Record) Release() {
	if r == nil || r.buf == nil {
		return
	}
	b := r.buf[:0]
	r.buf = nil
	if cap(b) > 0 && cap(b) <= maxPooledCap {
		bufPool.Put(&b)
	}
}
