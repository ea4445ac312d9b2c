package xappender

import "errors"

var (
	// ErrClosed Appender 已关闭
	ErrClosed = errors.New("xappender: appender is closed")

	// ErrPanic 写入时 Rotator panic，该条记录被丢弃
	ErrPanic = errors.New("xappender: rotator panicked")
)
