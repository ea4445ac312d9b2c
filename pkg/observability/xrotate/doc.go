// Package xrotate 提供按大小切分的日志文件写入器。
//
// [Rotator] 接口定义写入器的核心行为（Write/Close/Rotate/Reopen），所有实现并发安全。
//
// # 当前实现
//
//   - [NewFileWriter]: 原生实现。周期性检查文件是否被外部移走/删除（比较设备号和 inode），
//     超过切分大小时按文件名模板重命名当前文件并重新打开
//   - [NewLumberjack]: 基于 lumberjack v2，额外提供备份数量/天数清理和 gzip 压缩
//
// # 文件名模板
//
// 轮转后的文件名为 "<path><模板渲染结果>"，默认模板为 [DefaultTemplate]：
//
//	%Y 年(4) %m 月(2) %d 日(2) %H 时(2) %M 分(2) %S 秒(2) %P 进程号 %n 序号(000~999)
//
// 其他字符（包括无法识别的 %x）原样输出。同名文件已存在时序号递增，
// 000~999 全部被占用时本轮放弃切分，下一个检查周期重试。
//
// # 描述符替换
//
// FileWriter 在整个生命周期内只持有一个文件描述符号。重新打开时先打开新文件，
// 再通过 dup3/dup2 把新文件原子地覆盖到这个描述符号上，正在进行的写入
// 要么落在旧文件，要么落在新文件，写入路径无需加锁。
// 不支持该系统调用的平台改为在写入路径上持有读锁，替换时持有写锁。
//
// # 内部错误
//
// 写入失败、打开失败、切分失败都不会中断调用方，而是通过 OnError 回调上报，
// 默认输出到标准错误。回调不得向同一写入器写入数据。
package xrotate
