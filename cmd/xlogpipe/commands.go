package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xlogkit/pkg/observability/xappender"
	"github.com/omeyang/xlogkit/pkg/observability/xlogreg"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// maxLineSize 单行输入上限，超过时读取失败
const maxLineSize = 1 << 20

// usageError 参数错误，退出码 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createPipeCommand(),
		createRunCommand(),
		createRenderCommand(),
	}
}

func createPipeCommand() *cli.Command {
	return &cli.Command{
		Name:  "pipe",
		Usage: "把标准输入逐行写入文件，按大小切分",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "日志文件路径",
			},
			&cli.Int64Flag{
				Name:    "split-size",
				Aliases: []string{"s"},
				Usage:   "切分大小（字节），0 使用默认值",
			},
			&cli.StringFlag{
				Name:    "template",
				Aliases: []string{"t"},
				Usage:   "切分文件名模板",
				Value:   xrotate.DefaultTemplate,
			},
			&cli.BoolFlag{
				Name:    "async",
				Aliases: []string{"a"},
				Usage:   "异步写入",
			},
			&cli.DurationFlag{
				Name:  "check-interval",
				Usage: "文件状态检查间隔，0 表示每次写入都检查",
				Value: xrotate.DefaultCheckInterval,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdPipe(ctx, cmd.Root().Reader, cmd.Root().ErrWriter, pipeArgs{
				path:          cmd.String("path"),
				splitSize:     cmd.Int64("split-size"),
				template:      cmd.String("template"),
				async:         cmd.Bool("async"),
				checkInterval: cmd.Duration("check-interval"),
			})
		},
	}
}

func createRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "按配置文件写入指定日志实例",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（.yaml/.yml/.json）",
			},
			&cli.StringFlag{
				Name:    "instance",
				Aliases: []string{"i"},
				Usage:   "实例名称，默认使用按名称排序的第一个实例",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "监视配置文件，变更时更新级别",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdRun(ctx, cmd.Root().Reader, cmd.Root().ErrWriter, runArgs{
				config:   cmd.String("config"),
				instance: cmd.String("instance"),
				watch:    cmd.Bool("watch"),
			})
		},
	}
}

func createRenderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "输出渲染后的切分文件名",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base",
				Aliases: []string{"b"},
				Usage:   "日志文件路径",
			},
			&cli.StringFlag{
				Name:    "template",
				Aliases: []string{"t"},
				Usage:   "切分文件名模板",
				Value:   xrotate.DefaultTemplate,
			},
			&cli.StringFlag{
				Name:  "time",
				Usage: "RFC3339 时间，默认当前时间",
			},
			&cli.IntFlag{
				Name:  "seq",
				Usage: fmt.Sprintf("序号 (0-%d)", xrotate.MaxSeq),
			},
			&cli.IntFlag{
				Name:  "pid",
				Usage: "进程号，默认当前进程",
				Value: os.Getpid(),
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return cmdRender(cmd.Root().Writer, renderArgs{
				base:     cmd.String("base"),
				template: cmd.String("template"),
				time:     cmd.String("time"),
				seq:      cmd.Int("seq"),
				pid:      cmd.Int("pid"),
			})
		},
	}
}

type pipeArgs struct {
	path          string
	splitSize     int64
	template      string
	async         bool
	checkInterval time.Duration
}

// cmdPipe 把 in 的每一行（补上换行）作为一条记录写入 Appender，
// 输入结束或 ctx 取消后写完已接收的记录并关闭。
func cmdPipe(ctx context.Context, in io.Reader, errOut io.Writer, args pipeArgs) error {
	if args.path == "" {
		return usagef("--path 不能为空")
	}
	if args.splitSize < 0 {
		return usagef("--split-size 不能为负数: %d", args.splitSize)
	}
	if args.checkInterval < 0 {
		return usagef("--check-interval 不能为负数: %s", args.checkInterval)
	}

	a, err := xappender.New(args.path, args.splitSize, args.template, args.async,
		xappender.WithOnError(stderrReporter(errOut)),
		xappender.WithFileOptions(xrotate.WithCheckInterval(args.checkInterval)),
	)
	if err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		return errors.Join(err, a.Close())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pump(gctx, in, func(line []byte) {
			a.Output(xappender.TakeRecord(withNewline(line)))
		})
	})
	return errors.Join(g.Wait(), a.Close())
}

type runArgs struct {
	config   string
	instance string
	watch    bool
}

// cmdRun 按配置构建注册表，把 in 的每一行以 info 级别写入指定实例。
func cmdRun(ctx context.Context, in io.Reader, errOut io.Writer, args runArgs) (err error) {
	if args.config == "" {
		return usagef("--config 不能为空")
	}
	cfg, err := xlogreg.LoadConfig(args.config)
	if err != nil {
		return err
	}

	diag := slog.New(slog.NewTextHandler(errOut, nil))
	reg, err := xlogreg.New(cfg,
		xlogreg.WithLogger(diag),
		xlogreg.WithOnError(stderrReporter(errOut)),
	)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, reg.Close())
	}()

	name := args.instance
	if name == "" {
		names := reg.Names()
		if len(names) == 0 {
			return usagef("配置 %s 中没有日志实例", args.config)
		}
		name = names[0]
	}
	if _, _, ok := reg.Lookup(name); !ok {
		return usagef("未知实例: %s", name)
	}
	if err := reg.Start(); err != nil {
		return err
	}
	logger := reg.Logger(name)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// 输入结束后停止监视
		defer cancel()
		return pump(gctx, in, func(line []byte) {
			logger.Info(gctx, string(line))
		})
	})
	if args.watch {
		g.Go(func() error {
			return reg.Watch(gctx, args.config, nil)
		})
	}
	return g.Wait()
}

type renderArgs struct {
	base     string
	template string
	time     string
	seq      int
	pid      int
}

func cmdRender(out io.Writer, args renderArgs) error {
	if args.base == "" {
		return usagef("--base 不能为空")
	}
	if args.seq < 0 || args.seq > xrotate.MaxSeq {
		return usagef("--seq 超出范围 [0, %d]: %d", xrotate.MaxSeq, args.seq)
	}
	ts := time.Now()
	if args.time != "" {
		var err error
		ts, err = time.Parse(time.RFC3339, args.time)
		if err != nil {
			return usagef("--time 不是 RFC3339 时间: %q", args.time)
		}
	}

	name := xrotate.CompileTemplate(args.template).Render(args.base, ts, args.seq, args.pid)
	_, err := fmt.Fprintln(out, name)
	return err
}

// pump 逐行读取 in 并交给 emit，行内容不含换行符。
// 读到 EOF 返回 nil；ctx 取消时立即返回 nil，读取协程在下一行或 EOF 后退出。
func pump(ctx context.Context, in io.Reader, emit func(line []byte)) error {
	lines := make(chan []byte)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-errc; err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				return nil
			}
			emit(line)
		}
	}
}

// withNewline 在行尾追加换行，复用 line 的底层数组
func withNewline(line []byte) []byte {
	return append(line, '\n')
}

// stderrReporter 把内部错误输出到 w
func stderrReporter(w io.Writer) func(error) {
	return func(err error) {
		_, _ = fmt.Fprintf(w, "xlogpipe: %v\n", err)
	}
}
