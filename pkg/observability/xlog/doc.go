// Package xlog 基于 log/slog 的结构化日志库，输出端可以接到 xappender。
//
// # 创建 Logger
//
// Builder 一次性使用，遇到的第一个配置错误由 [Builder.Build] 返回。
// 输出目标三选一：
//
//   - [Builder.SetOutput]: 任意 io.Writer
//   - [Builder.SetAppender]: 已有的 xappender.Appender，生命周期由调用方管理，可被多个 Logger 共享
//   - [Builder.SetRotation] / [Builder.SetLumberjack]: 由 Builder 创建切分文件 Appender，
//     Build 启动它，cleanup 关闭它
//
// 其余配置：SetLevel、SetLevelString、SetFormat（text/json）、SetAddSource、
// SetOnError、SetReplaceAttr、SetAttrs。
//
// # 日志级别
//
// LevelDebug(-4)、LevelInfo(0)、LevelWarn(4)、LevelError(8)、LevelOff。
// [ParseLevel] 接受 all（等价 debug）和 off/none。
// 派生 Logger（With/WithGroup）与父级共享级别，SetLevel 同步生效。
//
// # 错误处理
//
// 写日志永远不向调用方返回错误。Handler 失败时计数并调用 SetOnError 设置的回调，
// 回调内部再出错不会递归。
//
// # 与 Appender 配合
//
// slog Handler 每条记录调用一次 Write，xappender.Writer 把它复制为一条 Record。
// 异步 Appender 下 Write 只入队，I/O 在后台 goroutine 中完成。
package xlog
