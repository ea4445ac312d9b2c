package xappender

import "io"

// appenderWriter 把 Appender 适配为 io.Writer
type appenderWriter struct {
	a Appender
}

// Writer 把 Appender 适配为 io.Writer，可作为 slog Handler 的输出。
//
// 每次 Write 复制 p 为一条记录（slog 会复用 p 的底层数组），
// 总是返回 len(p), nil：日志写入失败不影响调用方。
func Writer(a Appender) io.Writer {
	return appenderWriter{a: a}
}

func (w appenderWriter) Write(p []byte) (int, error) {
	w.a.Output(NewRecord(p))
	return len(p), nil
}
