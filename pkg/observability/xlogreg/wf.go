package xlogreg

import (
	"context"
	"log/slog"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// WFInstance 保留的实例名。配置后其他实例 warn 及以上的记录同时写入该实例，
// 记录带有来源实例名，按该实例自己的级别过滤。
const WFInstance = "wf"

// wfTee 把 warn 及以上的记录同时交给 wf
type wfTee struct {
	xlog.Logger
	wf xlog.Logger
}

func (l wfTee) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Logger.Warn(ctx, msg, attrs...)
	l.wf.Warn(ctx, msg, attrs...)
}

func (l wfTee) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Logger.Error(ctx, msg, attrs...)
	l.wf.Error(ctx, msg, attrs...)
}

func (l wfTee) Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.Logger.Stack(ctx, msg, attrs...)
	l.wf.Stack(ctx, msg, attrs...)
}

func (l wfTee) With(attrs ...slog.Attr) xlog.Logger {
	return wfTee{Logger: l.Logger.With(attrs...), wf: l.wf.With(attrs...)}
}

func (l wfTee) WithGroup(name string) xlog.Logger {
	return wfTee{Logger: l.Logger.WithGroup(name), wf: l.wf.WithGroup(name)}
}

// wfLogger 实例 Logger 加上 wf 副本，级别控制只作用于实例自身
type wfLogger struct {
	wfTee
	xlog.Leveler
}

func newWFLogger(l xlog.LoggerWithLevel, wf xlog.Logger) xlog.LoggerWithLevel {
	return wfLogger{wfTee: wfTee{Logger: l, wf: wf}, Leveler: l}
}
