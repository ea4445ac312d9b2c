package xlog_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// 去掉时间字段，使输出稳定
func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

func Example() {
	logger, cleanup, err := xlog.New().
		SetOutput(os.Stdout).
		SetReplaceAttr(dropTime).
		Build()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer cleanup() //nolint:errcheck // 示例

	logger.Info(context.Background(), "service started", xlog.Component("api"))
	// Output:
	// level=INFO msg="service started" component=api
}

func Example_dynamicLevel() {
	logger, cleanup, _ := xlog.New().
		SetOutput(os.Stdout).
		SetReplaceAttr(dropTime).
		SetLevel(xlog.LevelWarn).
		Build()
	defer cleanup() //nolint:errcheck // 示例

	ctx := context.Background()
	logger.Info(ctx, "hidden")
	logger.SetLevel(xlog.LevelInfo)
	logger.Info(ctx, "shown")
	// Output:
	// level=INFO msg=shown
}

func Example_rotation() {
	dir, _ := os.MkdirTemp("", "xlog-example")
	defer os.RemoveAll(dir) //nolint:errcheck // 示例

	path := filepath.Join(dir, "app.log")
	logger, cleanup, err := xlog.New().
		SetRotation(path, 100<<20, "_%Y%m%d_%n", true).
		SetFormat("json").
		SetAttrs(xlog.Instance("app")).
		Build()
	if err != nil {
		fmt.Println(err)
		return
	}

	logger.Info(context.Background(), "written by the async appender")
	// cleanup 关闭 Appender，写完队列中的记录
	if err := cleanup(); err != nil {
		fmt.Println(err)
	}

	data, _ := os.ReadFile(path) //#nosec G304 -- 示例临时目录
	fmt.Println(len(data) > 0)
	// Output:
	// true
}
