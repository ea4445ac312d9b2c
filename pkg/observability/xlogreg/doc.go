// Package xlogreg 命名日志实例注册表。
//
// 配置（koanf，YAML 或 JSON，顶层键 log）列出若干实例行：
//
//	name, format, file, split_size, level
//
// 每个实例的文件路径按 prefix 解析为绝对路径，解析结果相同的实例共享同一个
// xappender.Appender（同一个文件只有一个写入器）。全局配置决定同步/异步、
// 切分文件名模板、检查间隔和后端（native 或 lumberjack）。
//
// # 生命周期
//
//	cfg, err := xlogreg.LoadConfig("/etc/app/log.yaml")
//	reg, err := xlogreg.New(cfg)
//	if err := reg.Start(); err != nil { ... }
//	defer reg.Close()
//
//	reg.Logger("access").Info(ctx, "request done")
//
// 未配置的实例名得到不输出任何内容的 Logger。level 可以写名称，也可以写数字 0~8
// （0 不输出，8 全部输出）。
//
// 名为 [WFInstance]（wf）的实例收集其他实例 warn 及以上的记录。
//
// # 运行时调整
//
//   - [Registry.Watch]: 监视配置文件，变更后 [Registry.Apply]，只有级别可以热更新
//   - [Registry.RotateAll]: 立即切分所有文件；rotate_schedule 配置 cron 表达式时定时执行
//
// 注册表自身的生命周期事件通过 [WithLogger] 设置的 *slog.Logger 输出，
// Appender 的内部错误通过 [WithOnError] 回调上报，两者都不经过注册表管理的文件。
package xlogreg
