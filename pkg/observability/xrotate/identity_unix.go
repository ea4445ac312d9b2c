//go:build unix

package xrotate

import (
	"os"
	"syscall"
)

// FileIdentity 文件的 (设备号, inode) 标识，用于识别路径是否已指向另一个文件
type FileIdentity struct {
	Dev uint64
	Ino uint64
}

// IdentityOf 从文件状态中取出 (设备号, inode)。
// 平台不提供该信息时 ok 为 false。
func IdentityOf(fi os.FileInfo) (id FileIdentity, ok bool) {
	if fi == nil {
		return FileIdentity{}, false
	}
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok || st == nil {
		return FileIdentity{}, false
	}
	return FileIdentity{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}, true //nolint:unconvert // Dev/Ino 的类型随平台变化
}

// sameFile 判断两个文件状态是否对应同一个文件
func sameFile(a, b os.FileInfo) bool {
	ia, okA := IdentityOf(a)
	ib, okB := IdentityOf(b)
	if !okA || !okB {
		return os.SameFile(a, b)
	}
	return ia == ib
}
