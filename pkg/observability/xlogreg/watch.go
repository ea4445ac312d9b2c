package xlogreg

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// ReloadFunc 配置重新加载后的回调，err 为 nil 表示全部生效
//
// err 可能包含 [ErrReloadTopology]：级别已更新，其余变化需要重启。
type ReloadFunc func(cfg Config, err error)

// Watch 监视配置文件，变更后重新解析并 [Registry.Apply]
//
// 监视的是配置文件所在目录，编辑器先删除再创建、或写临时文件后 rename 的保存方式同样生效。
// 防抖时间内的多次变更只触发一次加载。阻塞直到 ctx 结束，返回 nil；
// 无法建立监视时立即返回错误。
func (r *Registry) Watch(ctx context.Context, path string, onReload ReloadFunc) error {
	if path == "" {
		return ErrEmptyPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("xlogreg: create watcher: %w", err)
	}
	defer w.Close() //nolint:errcheck // 退出时关闭

	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("xlogreg: watch %s: %w", dir, err)
	}

	filename := filepath.Base(abs)
	timer := time.NewTimer(r.opts.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(r.opts.debounce)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.opts.logger.Warn("config watch error", xlog.Err(err))
			if onReload != nil {
				onReload(Config{}, fmt.Errorf("xlogreg: watch error: %w", err))
			}

		case <-timer.C:
			cfg, err := r.reload(abs)
			if onReload != nil {
				onReload(cfg, err)
			}
		}
	}
}

// reload 重新读取配置并应用
func (r *Registry) reload(path string) (Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		r.opts.logger.Warn("config reload failed", xlog.Path(path), xlog.Err(err))
		return Config{}, err
	}
	err = r.Apply(cfg)
	switch {
	case err == nil:
		r.opts.logger.Info("config reloaded", xlog.Path(path))
	case errors.Is(err, ErrReloadTopology):
		r.opts.logger.Warn("config reloaded partially", xlog.Path(path), xlog.Err(err))
	default:
		r.opts.logger.Warn("config reload rejected", xlog.Path(path), xlog.Err(err))
	}
	return cfg, err
}
