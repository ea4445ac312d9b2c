//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package xrotate

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// inPlaceSwap 本平台支持把新文件原子覆盖到已有描述符号上
const inPlaceSwap = true

// 系统调用函数变量，测试中可替换以覆盖错误路径。
var dupFd = unix.Dup

// fileSlot 写入器唯一的描述符槽位。
//
// 描述符号在整个生命周期内不变：重新打开时通过 dupInto 覆盖其内核目标，
// 并发写入无需加锁。
type fileSlot struct {
	f  *os.File
	fd int
}

func newFileSlot(f *os.File) *fileSlot {
	return &fileSlot{f: f, fd: int(f.Fd())}
}

// stderrSlot 复制标准错误得到一个自有描述符，作为打开失败时的写入目标。
func stderrSlot() (*fileSlot, error) {
	fd, err := dupFd(unix.Stderr)
	if err != nil {
		return nil, fmt.Errorf("dup stderr: %w", err)
	}
	unix.CloseOnExec(fd)
	return newFileSlot(os.NewFile(uintptr(fd), "/dev/stderr")), nil
}

func (s *fileSlot) write(p []byte) (int, error) {
	return s.f.Write(p)
}

func (s *fileSlot) stat() (os.FileInfo, error) {
	return s.f.Stat()
}

// substitute 把 tmp 覆盖到槽位上并关闭 tmp。
// 无论覆盖是否成功 tmp 都会被关闭。
func (s *fileSlot) substitute(tmp *os.File) error {
	err := dupInto(int(tmp.Fd()), s.fd)
	cerr := tmp.Close()
	if err != nil {
		return fmt.Errorf("dup onto fd %d: %w", s.fd, err)
	}
	return cerr
}

func (s *fileSlot) close() error {
	return s.f.Close()
}
