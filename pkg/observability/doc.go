// Package observability 提供日志输出相关的子包。
//
// 子包列表：
//   - xrotate: 日志文件写入与按大小切分，文件被外部删除或替换时自动重新打开
//   - xappender: 同步/异步日志记录投递，异步模式按批写入
//   - xlog: 结构化日志，基于 log/slog 扩展，输出到 io.Writer 或 Appender
//   - xlogreg: 按配置创建的命名日志实例注册表，支持配置热加载和定时切分
//
// 依赖方向：xrotate <- xappender <- xlog <- xlogreg。
package observability
