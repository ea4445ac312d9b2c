package xrotate

import "io"

// 编译时断言：Rotator 接口是 io.WriteCloser 的超集
var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志文件写入器接口
//
// 隐式实现 [io.WriteCloser]。所有实现都必须是并发安全的。
//
// 约定：
//   - Close 后调用 Write、Rotate、Reopen 返回 [ErrClosed]
//   - Rotate、Reopen 可以在任意时刻调用
type Rotator interface {
	// Write 写入一条记录
	// 满足切分条件时自动切分
	Write(p []byte) (n int, err error)

	// Close 关闭写入器，释放文件描述符
	// 重复调用返回 [ErrClosed]
	Close() error

	// Rotate 立即切分：重命名当前文件并打开新文件
	Rotate() error

	// Reopen 重新打开 Path 指向的文件
	// 用于文件被外部移走或删除后的恢复
	Reopen() error

	// Path 返回写入目标的路径
	Path() string
}
