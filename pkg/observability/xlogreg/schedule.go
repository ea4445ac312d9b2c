package xlogreg

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// scheduleParser rotate_schedule 使用标准 5 段表达式，支持 @daily 等描述符
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// cronLogger 把 cron 的内部日志转到 slog
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Warn("cron: "+msg, append(keysAndValues, xlog.KeyError, err)...)
}

// newSchedule 创建定时强制切分任务，spec 为空时返回 nil
//
// 上一轮切分未结束时跳过本轮。
func newSchedule(spec string, logger *slog.Logger, rotate func()) (*cron.Cron, error) {
	if spec == "" {
		return nil, nil
	}
	cl := cronLogger{l: logger}
	c := cron.New(
		cron.WithParser(scheduleParser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(spec, rotate); err != nil {
		return nil, err
	}
	return c, nil
}
