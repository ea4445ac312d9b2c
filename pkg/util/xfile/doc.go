// Package xfile 提供日志文件路径相关的文件系统工具。
//
//   - [SanitizePath]: 路径格式净化（空路径、空字节、相对路径穿越、目录路径）
//   - [EnsureDir]: 创建文件的父目录（默认权限 0750）
//   - [ResolveLogPath]: 按日志根目录和默认文件名解析实例的日志文件绝对路径
//
// 预定义错误变量支持 [errors.Is] 判断：
//
//	_, err := xfile.SanitizePath("../etc/passwd")
//	if errors.Is(err, xfile.ErrPathTraversal) {
//	    // 处理路径穿越
//	}
package xfile
