// Package xappender 把格式化好的日志记录交给 [xrotate.Rotator] 落盘。
//
// # 两种实现
//
//   - [NewSync]: Output 在调用方 goroutine 中直接写入
//   - [NewAsync]: Output 只把记录追加到共享队列，由一个后台 goroutine 批量写入
//
// 两者由同一组 (path, splitSize, template) 参数通过 [New] 构造，可以互相替换。
//
// # 记录所有权
//
// [Record] 持有一段字节缓冲。调用 Output 后所有权转移给 Appender，
// 调用方不得再读写该记录；Appender 在写入尝试之后释放它，无论写入是否成功。
//
// # 异步队列
//
// 生产者在 queueMu 下把记录追加到 pending；后台 goroutine 在同一把锁下
// 把整个 pending 与空闲切片交换，然后在锁外逐条写入。锁内只有切片头的交换，
// 从不做 I/O。同一生产者的记录按追加顺序写入；批次之间严格有序。
//
// Stop 清除运行标志后，后台 goroutine 会再做一次独立的交换和写入，
// 保证 Stop 返回前所有已被接受的记录都已写入。
// 从未 Start 的 Appender 调用 Stop 不做任何事，记录留在队列中，
// 之后 Start、Flush 或 Close 时写入。
//
// # 内部错误
//
// 写入失败由 Rotator 自身上报（FileWriter 的 OnError），Appender 只上报
// Rotator 未上报的错误和关闭后被丢弃的记录，不会把错误返回给日志调用方。
package xappender
