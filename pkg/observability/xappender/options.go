package xappender

import (
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// DefaultIdleInterval 异步队列两轮写入之间的默认休眠时间
const DefaultIdleInterval = time.Millisecond

// Option Appender 配置选项函数
type Option func(*options)

type options struct {
	idle          time.Duration
	onError       func(error)
	userOnError   bool
	meterProvider metric.MeterProvider
	fileOpts      []xrotate.FileOption
}

func defaultOptions() options {
	return options{
		idle:          DefaultIdleInterval,
		onError:       stderrOnError,
		meterProvider: otel.GetMeterProvider(),
	}
}

// WithIdleInterval 设置异步队列两轮写入之间的休眠时间，默认 1ms。
// d <= 0 时忽略。
func WithIdleInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.idle = d
		}
	}
}

// WithOnError 设置内部错误回调，默认输出一行到标准错误。
//
// 通过 [New] 构造时，该回调同时作为 FileWriter 的 OnError。
// 回调不得向同一 Appender 输出记录，否则会递归。
// 异步 Appender 的回调在后台写入协程中执行，回调中调用同一 Appender 的 Flush 会死锁。
func WithOnError(fn func(error)) Option {
	return func(o *options) {
		if fn != nil {
			o.onError = fn
			o.userOnError = true
		}
	}
}

// WithMeterProvider 设置 MeterProvider，默认 otel.GetMeterProvider()
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// WithFileOptions 设置 [New] 构造 FileWriter 时使用的选项
func WithFileOptions(opts ...xrotate.FileOption) Option {
	return func(o *options) {
		o.fileOpts = append(o.fileOpts, opts...)
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// stderrOnError 默认错误回调
func stderrOnError(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "xappender: error=%v\n", err)
}
