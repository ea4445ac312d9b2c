package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// containsNullByte 检测路径是否包含空字节。
func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// hasDotDotSegment 检测路径中是否包含 ".." 作为独立路径段。
// '/' 和 '\' 都视为分隔符；"..config" 这类文件名不算穿越。
func hasDotDotSegment(path string) bool {
	i := 0
	for i < len(path) {
		if path[i] == '/' || path[i] == '\\' {
			i++
			continue
		}
		j := i
		for j < len(path) && path[j] != '/' && path[j] != '\\' {
			j++
		}
		if j-i == 2 && path[i] == '.' && path[i+1] == '.' {
			return true
		}
		i = j
	}
	return false
}

// isDirPath 判断路径是否以分隔符结尾（显式目录）。
func isDirPath(path string) bool {
	return strings.HasSuffix(path, "/") || strings.HasSuffix(path, "\\")
}

// SanitizePath 对日志文件路径进行格式检查和规范化
//
// 拒绝空路径、空字节、显式目录路径（尾随 "/" 或 "\"），
// 以及规范化后仍包含 ".." 段的相对路径。
// 绝对路径中的 ".." 由 filepath.Clean 正常解析（"/var/log/../x" -> "/x"）。
//
// 本函数只做格式净化，不限制路径所在目录。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// 必须在 Clean 之前检查，Clean 会移除尾部斜杠
	if isDirPath(filename) {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// ResolveLogPath 解析日志实例的文件绝对路径
//
// 规则：
//   - file 为绝对路径时忽略 prefix
//   - file 为相对路径时拼接到 prefix 下；prefix 为空时使用当前目录
//   - file 为空或以分隔符结尾（目录）时，在该目录下使用 defaultName
//
// 先转换为绝对路径再经 [SanitizePath] 校验（prefix 可以是 "../logs" 这类相对目录），
// 多个实例是否共享同一个输出文件即以此结果为准。
func ResolveLogPath(prefix, file, defaultName string) (string, error) {
	if containsNullByte(prefix) || containsNullByte(file) || containsNullByte(defaultName) {
		return "", fmt.Errorf("log path contains null byte: %w", ErrNullByte)
	}
	if file == "" || isDirPath(file) {
		if defaultName == "" {
			return "", fmt.Errorf("no file name for directory %q: %w", file, ErrEmptyPath)
		}
		file = filepath.Join(file, defaultName)
	}
	if !filepath.IsAbs(file) {
		if prefix == "" {
			prefix = "."
		}
		file = filepath.Join(prefix, file)
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", file, err)
	}
	return SanitizePath(abs)
}
