package xlog

import (
	"log/slog"
	"time"
)

// 常用属性 Key
const (
	// KeyError 错误字段
	KeyError = "error"

	// KeyStack 堆栈字段
	KeyStack = "stack"

	// KeyDuration 耗时字段
	KeyDuration = "duration"

	// KeyCount 计数字段
	KeyCount = "count"

	// KeyComponent 组件名称字段
	KeyComponent = "component"

	// KeyInstance 日志实例名称字段
	KeyInstance = "instance"

	// KeyPath 日志文件路径字段
	KeyPath = "path"

	// KeyLevel 配置的日志级别字段，与 slog 内置的 level 区分
	KeyLevel = "log_level"
)

// Err 创建错误属性，err 为 nil 时返回空属性（slog 会忽略）
//
//	if err != nil {
//	    logger.Error(ctx, "rotate failed", xlog.Err(err))
//	}
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Duration 创建耗时属性，输出 "1.5s" 这类可读格式
func Duration(d time.Duration) slog.Attr {
	return slog.String(KeyDuration, d.String())
}

// Count 创建计数属性
func Count(n int64) slog.Attr {
	return slog.Int64(KeyCount, n)
}

// Component 创建组件名属性
func Component(name string) slog.Attr {
	return slog.String(KeyComponent, name)
}

// Instance 创建日志实例名属性
func Instance(name string) slog.Attr {
	return slog.String(KeyInstance, name)
}

// Path 创建日志文件路径属性
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// LevelAttr 创建配置级别属性
func LevelAttr(l Level) slog.Attr {
	return slog.String(KeyLevel, l.String())
}
