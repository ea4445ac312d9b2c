package xappender

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

const (
	instrumentationName = "github.com/omeyang/xlogkit/xappender"

	metricRecords      = "xlogkit.appender.records"
	metricBatchSize    = "xlogkit.appender.batch.size"
	metricQueuePending = "xlogkit.appender.queue.pending"
	metricRotations    = "xlogkit.appender.rotations"
	metricReopens      = "xlogkit.appender.reopens"

	modeSync  = "sync"
	modeAsync = "async"

	resultOK      = "ok"
	resultError   = "error"
	resultDropped = "dropped"
)

// statsProvider 能提供切分统计的 Rotator（*xrotate.FileWriter）
type statsProvider interface {
	Stats() xrotate.Stats
}

// appenderMetrics Appender 的 OTel 指标
type appenderMetrics struct {
	records metric.Int64Counter
	batch   metric.Int64Histogram
	reg     metric.Registration

	attrs      metric.MeasurementOption
	okOpt      metric.MeasurementOption
	errOpt     metric.MeasurementOption
	droppedOpt metric.MeasurementOption
}

// newMetrics 创建指标。pending 为 nil 时不注册队列长度指标（同步模式）。
//
// 任一 instrument 创建失败时退化为 noop 并返回错误，调用方上报后继续运行。
func newMetrics(mp metric.MeterProvider, r xrotate.Rotator, mode string, pending func() int64) (*appenderMetrics, error) {
	m, err := buildMetrics(mp, r, mode, pending)
	if err != nil {
		fallback, _ := buildMetrics(noop.NewMeterProvider(), r, mode, pending) //nolint:errcheck // noop 不会失败
		return fallback, err
	}
	return m, nil
}

func buildMetrics(mp metric.MeterProvider, r xrotate.Rotator, mode string, pending func() int64) (*appenderMetrics, error) {
	meter := mp.Meter(instrumentationName)

	base := []attribute.KeyValue{
		attribute.String("path", r.Path()),
		attribute.String("mode", mode),
	}
	withResult := func(result string) metric.MeasurementOption {
		kvs := append(append([]attribute.KeyValue(nil), base...), attribute.String("result", result))
		return metric.WithAttributeSet(attribute.NewSet(kvs...))
	}

	m := &appenderMetrics{
		attrs:      metric.WithAttributeSet(attribute.NewSet(base...)),
		okOpt:      withResult(resultOK),
		errOpt:     withResult(resultError),
		droppedOpt: withResult(resultDropped),
	}

	var err error
	m.records, err = meter.Int64Counter(metricRecords,
		metric.WithDescription("log records handled by the appender"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("xappender: create counter failed: %w", err)
	}

	m.batch, err = meter.Int64Histogram(metricBatchSize,
		metric.WithDescription("records written per async batch"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("xappender: create histogram failed: %w", err)
	}

	var observables []metric.Observable
	var pendingGauge metric.Int64ObservableGauge
	if pending != nil {
		pendingGauge, err = meter.Int64ObservableGauge(metricQueuePending,
			metric.WithDescription("records queued and not yet written"),
			metric.WithUnit("{record}"),
		)
		if err != nil {
			return nil, fmt.Errorf("xappender: create gauge failed: %w", err)
		}
		observables = append(observables, pendingGauge)
	}

	sp, hasStats := r.(statsProvider)
	var rotations, reopens metric.Int64ObservableCounter
	if hasStats {
		rotations, err = meter.Int64ObservableCounter(metricRotations,
			metric.WithDescription("log file rotations"),
		)
		if err != nil {
			return nil, fmt.Errorf("xappender: create counter failed: %w", err)
		}
		reopens, err = meter.Int64ObservableCounter(metricReopens,
			metric.WithDescription("log file reopens"),
		)
		if err != nil {
			return nil, fmt.Errorf("xappender: create counter failed: %w", err)
		}
		observables = append(observables, rotations, reopens)
	}

	if len(observables) > 0 {
		m.reg, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
			if pending != nil {
				o.ObserveInt64(pendingGauge, pending(), m.attrs)
			}
			if hasStats {
				st := sp.Stats()
				o.ObserveInt64(rotations, st.Rotations, m.attrs)
				o.ObserveInt64(reopens, st.Reopens, m.attrs)
			}
			return nil
		}, observables...)
		if err != nil {
			return nil, fmt.Errorf("xappender: register callback failed: %w", err)
		}
	}
	return m, nil
}

func (m *appenderMetrics) recordOK() {
	m.records.Add(context.Background(), 1, m.okOpt)
}

func (m *appenderMetrics) recordError() {
	m.records.Add(context.Background(), 1, m.errOpt)
}

func (m *appenderMetrics) recordDropped() {
	m.records.Add(context.Background(), 1, m.droppedOpt)
}

func (m *appenderMetrics) recordBatch(n int) {
	m.batch.Record(context.Background(), int64(n), m.attrs)
}

// unregister 注销回调，Close 之后不再观测
func (m *appenderMetrics) unregister() error {
	if m.reg == nil {
		return nil
	}
	return m.reg.Unregister()
}
