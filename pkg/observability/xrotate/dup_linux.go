//go:build linux

package xrotate

import "golang.org/x/sys/unix"

// dupInto 让 newfd 指向 oldfd 的打开文件，关闭 newfd 原目标与重新指向是一次系统调用。
// linux/arm64 没有 dup2，统一使用 dup3。
func dupInto(oldfd, newfd int) error {
	return unix.Dup3(oldfd, newfd, unix.O_CLOEXEC)
}
