//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package xrotate

import (
	"os"
	"sync"
)

// inPlaceSwap 本平台没有 dup2/dup3，改为在写入路径上加锁
const inPlaceSwap = false

// fileSlot 写入器唯一的文件槽位。
//
// 写入持有读锁，替换持有写锁，保证写入不会落在已关闭的文件上。
type fileSlot struct {
	mu       sync.RWMutex
	f        *os.File
	borrowed bool // f 是 os.Stderr 本身，不能关闭
}

func newFileSlot(f *os.File) *fileSlot {
	return &fileSlot{f: f}
}

// stderrSlot 直接借用 os.Stderr，替换或关闭时不会关闭它。
func stderrSlot() (*fileSlot, error) {
	return &fileSlot{f: os.Stderr, borrowed: true}, nil
}

func (s *fileSlot) write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.Write(p)
}

func (s *fileSlot) stat() (os.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.f.Stat()
}

// substitute 用 tmp 替换当前文件并关闭旧文件，tmp 的所有权转移给槽位。
func (s *fileSlot) substitute(tmp *os.File) error {
	s.mu.Lock()
	old, borrowed := s.f, s.borrowed
	s.f, s.borrowed = tmp, false
	s.mu.Unlock()

	if borrowed {
		return nil
	}
	return old.Close()
}

func (s *fileSlot) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.borrowed {
		return nil
	}
	return s.f.Close()
}
