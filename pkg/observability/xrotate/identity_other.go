//go:build !unix

package xrotate

import "os"

// FileIdentity 文件的 (设备号, inode) 标识。
// 本平台不提供该信息，比较时退化为 [os.SameFile]。
type FileIdentity struct {
	Dev uint64
	Ino uint64
}

// IdentityOf 本平台始终返回 ok == false
func IdentityOf(os.FileInfo) (FileIdentity, bool) {
	return FileIdentity{}, false
}

func sameFile(a, b os.FileInfo) bool {
	if a == nil || b == nil {
		return false
	}
	return os.SameFile(a, b)
}
