package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/omeyang/xlogkit/pkg/observability/xappender"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// ReplaceAttrFunc 属性替换函数，用于字段重命名、脱敏、过滤。
// 返回空 Key 的 Attr 时该属性被移除。
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// Builder 日志配置构建器
//
// 遇到第一个配置错误后，后续错误不再覆盖，Build 返回该错误。
// Builder 为一次性使用。
type Builder struct {
	output      io.Writer
	levelVar    *slog.LevelVar
	format      string
	addSource   bool
	replaceAttr ReplaceAttrFunc
	attrs       []slog.Attr
	onError     func(error)

	// appender 由 Builder 创建时 owned 为 true，cleanup 负责关闭
	appender xappender.Appender
	owned    bool

	err error
}

// New 创建配置构建器，默认输出到 stderr、Info 级别、text 格式
func New() *Builder {
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelInfo)
	return &Builder{
		output:   os.Stderr,
		levelVar: lv,
		format:   "text",
	}
}

func (b *Builder) setErr(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// SetOutput 设置日志输出目标
func (b *Builder) SetOutput(w io.Writer) *Builder {
	b.releaseOwned()
	b.output = w
	return b
}

// SetAppender 把日志输出到已有的 Appender
//
// Appender 的生命周期由调用方管理：Build 不会启动它，cleanup 也不会关闭它。
// 多个 Logger 可以共享同一个 Appender。
func (b *Builder) SetAppender(a xappender.Appender) *Builder {
	if a == nil {
		return b.setErr(ErrNilAppender)
	}
	b.releaseOwned()
	b.appender = a
	b.output = xappender.Writer(a)
	return b
}

// SetRotation 输出到按大小切分的日志文件
//
// 参数与 xappender.New 相同。async 为 true 时 Build 会启动后台写入；
// cleanup 关闭 Appender，写完剩余记录。
func (b *Builder) SetRotation(path string, splitSize int64, tmpl string, async bool, opts ...xappender.Option) *Builder {
	a, err := xappender.New(path, splitSize, tmpl, async, opts...)
	if err != nil {
		return b.setErr(err)
	}
	return b.own(a)
}

// SetLumberjack 输出到 lumberjack 管理的日志文件，支持按数量和天数清理备份
func (b *Builder) SetLumberjack(path string, splitSize int64, opts ...xrotate.LumberjackOption) *Builder {
	r, err := xrotate.NewLumberjack(path, splitSize, opts...)
	if err != nil {
		return b.setErr(err)
	}
	return b.own(xappender.NewSync(r))
}

func (b *Builder) own(a xappender.Appender) *Builder {
	b.releaseOwned()
	b.appender = a
	b.owned = true
	b.output = xappender.Writer(a)
	return b
}

// releaseOwned 输出目标被替换时关闭之前创建的 Appender
func (b *Builder) releaseOwned() {
	if b.owned && b.appender != nil {
		_ = b.appender.Close() //nolint:errcheck // 尚未写入任何记录
	}
	b.appender = nil
	b.owned = false
}

// SetLevel 设置日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 通过字符串设置日志级别，见 [ParseLevel]
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		return b.setErr(err)
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json，空值使用 text
func (b *Builder) SetFormat(format string) *Builder {
	switch normalized := strings.ToLower(strings.TrimSpace(format)); normalized {
	case "":
		b.format = "text"
	case "text", "json":
		b.format = normalized
	default:
		b.setErr(fmt.Errorf("%w: %q", ErrUnknownFormat, format))
	}
	return b
}

// SetAddSource 是否在日志中添加源码位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetOnError 设置 Handler.Handle 失败时的回调
//
// 回调在写日志的 goroutine 中同步执行，应保持轻量。
// 回调内部再写日志出错不会递归，回调 panic 被隔离。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// SetReplaceAttr 设置属性替换函数
//
//	logger, _, _ := xlog.New().
//		SetReplaceAttr(func(groups []string, a slog.Attr) slog.Attr {
//			if a.Key == "password" {
//				return slog.String(a.Key, "***")
//			}
//			return a
//		}).
//		Build()
func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	b.replaceAttr = fn
	return b
}

// SetAttrs 设置附加到每条日志的固定属性，在 Build 时注入 Handler
func (b *Builder) SetAttrs(attrs ...slog.Attr) *Builder {
	b.attrs = append(b.attrs, attrs...)
	return b
}

// Build 构建 Logger
//
// 返回的 cleanup 关闭 Builder 自己创建的 Appender（SetRotation/SetLumberjack），
// 可重复调用，只有第一次生效。配置错误时已创建的 Appender 会被关闭。
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		b.releaseOwned()
		return nil, nil, b.err
	}
	if b.owned {
		if err := b.appender.Start(); err != nil {
			b.releaseOwned()
			return nil, nil, err
		}
	}

	opts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}
	if b.replaceAttr != nil {
		opts.ReplaceAttr = b.replaceAttr
	}

	var handler slog.Handler
	if b.format == "json" {
		handler = slog.NewJSONHandler(b.output, opts)
	} else {
		handler = slog.NewTextHandler(b.output, opts)
	}
	if len(b.attrs) > 0 {
		handler = handler.WithAttrs(b.attrs)
	}

	logger := newLogger(handler, &shared{
		levelVar:  b.levelVar,
		onError:   b.onError,
		addSource: b.addSource,
	})
	return logger, b.cleanup(), nil
}

func (b *Builder) cleanup() func() error {
	var (
		once sync.Once
		err  error
	)
	a, owned := b.appender, b.owned
	return func() error {
		once.Do(func() {
			if owned {
				err = a.Close()
				if errors.Is(err, xappender.ErrClosed) {
					err = nil
				}
			}
		})
		return err
	}
}
