//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package xrotate

import "golang.org/x/sys/unix"

// dupInto 让 newfd 指向 oldfd 的打开文件。dup2 不继承 close-on-exec，需要重新设置。
func dupInto(oldfd, newfd int) error {
	if err := unix.Dup2(oldfd, newfd); err != nil {
		return err
	}
	unix.CloseOnExec(newfd)
	return nil
}
