// xlogpipe 把标准输入的日志行写入可切分的日志文件。
//
// 用法:
//
//	xlogpipe <命令> [命令参数]
//
// 命令:
//
//	pipe       把标准输入的每一行原样写入 --path 指定的文件，按大小切分
//	run        按配置文件构建日志注册表，把标准输入的每一行作为 info 日志写入指定实例
//	render     输出按模板渲染的切分文件名
//	help       显示帮助信息
//
// 信号:
//
//	SIGINT、SIGTERM、SIGHUP 触发退出：停止读取输入，写完已接收的记录后关闭文件。
//
// 退出码:
//
//	0: 执行成功
//	1: 运行失败（打开文件失败、配置加载失败等）
//	2: 参数错误（缺少必需参数、参数值无效、未知 flag 等）
//
// 示例:
//
//	tail -F app.out | xlogpipe pipe --path /var/log/app.log --split-size 104857600 --async
//	xlogpipe run --config log.yaml --instance access --watch < access.out
//	xlogpipe render --base /var/log/app.log --template "_%Y%m%d_%n" --seq 3
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:     "xlogpipe",
		Usage:    "把标准输入写入可切分的日志文件",
		Version:  fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Commands: createCommands(),
		// 退出码由 run() 统一映射，urfave/cli 不得直接调用 os.Exit
		ExitErrHandler: func(_ context.Context, cmd *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				_, _ = fmt.Fprintln(cmd.Root().ErrWriter, err)
			}
		},
	}
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	return exitCode(createApp().Run(ctx, os.Args))
}

// exitCode 把命令返回的错误映射为退出码并输出错误信息
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		_, _ = fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	if isCLIUsageError(err) {
		// 详情已由 flag 解析器或 ExitErrHandler 输出
		return 2
	}
	_, _ = fmt.Fprintf(os.Stderr, "错误: %v\n", err)
	return 1
}

// cliUsageMessages urfave/cli 与 flag 包参数错误的消息特征
var cliUsageMessages = []string{
	"flag provided but not defined",
	"flag needs an argument",
	"invalid value",
	"invalid boolean",
	"Required flag",
	"No help topic",
}

// isCLIUsageError 判断错误是否来自命令行解析（未知 flag、缺少参数值、未知命令）
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, m := range cliUsageMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
