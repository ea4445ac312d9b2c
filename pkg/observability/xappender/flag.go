package xappender

import "sync/atomic"

// atomicFlag 只能从 false 变为 true 一次的标记
type atomicFlag struct {
	v atomic.Bool
}

// set 设置标记，首次设置返回 true
func (f *atomicFlag) set() bool {
	return f.v.CompareAndSwap(false, true)
}

func (f *atomicFlag) isSet() bool {
	return f.v.Load()
}
