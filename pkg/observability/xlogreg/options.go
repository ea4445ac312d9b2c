package xlogreg

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// DefaultDebounce 配置文件变更的默认防抖时间
const DefaultDebounce = 100 * time.Millisecond

// Option 注册表配置选项函数
type Option func(*options)

type options struct {
	logger        *slog.Logger
	onError       func(error)
	meterProvider metric.MeterProvider
	debounce      time.Duration
}

func defaultOptions() *options {
	return &options{
		logger:   slog.Default(),
		debounce: DefaultDebounce,
	}
}

// WithLogger 设置记录注册表生命周期事件的 Logger，默认 slog.Default()
//
// 这个 Logger 不应输出到注册表管理的文件。
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithOnError 设置 Appender 和写入器的内部错误回调，默认输出到标准错误
func WithOnError(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithMeterProvider 设置 Appender 指标使用的 MeterProvider，默认全局 Provider
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// WithDebounce 设置 Watch 的防抖时间，d <= 0 时忽略
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}
