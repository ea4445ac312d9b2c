package xlogreg

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/omeyang/xlogkit/pkg/observability/xappender"
	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
	"github.com/omeyang/xlogkit/pkg/util/xfile"
)

// entry 一个已配置的实例
type entry struct {
	inst   Instance
	path   string
	logger xlog.LoggerWithLevel
}

// Registry 命名日志实例注册表
//
// 每个实例按 (prefix, file) 解析出绝对路径，相同路径的实例共享一个 Appender。
// 未配置的实例名得到不输出任何内容的 Logger。
// 配置了 [WFInstance] 时，其他实例 warn 及以上的记录同时写入 wf 实例。
type Registry struct {
	cfg  Config
	opts *options

	mu        sync.RWMutex
	entries   map[string]*entry
	appenders map[string]xappender.Appender
	dummy     xlog.LoggerWithLevel

	// wf 实例 [WFInstance] 不带实例名的 Logger，未配置时为 dummy
	wf xlog.Logger

	schedule *cron.Cron

	started bool
	closed  bool
}

// New 按配置创建注册表和所有 Appender
//
// 创建后 Appender 未启动（异步模式下记录留在队列中），需要调用 Start。
// 任何实例出错时已创建的 Appender 全部关闭并返回错误。
func New(cfg Config, opts ...Option) (*Registry, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	insts, err := parseInstances(cfg.Instances)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		cfg:       cfg,
		opts:      o,
		entries:   make(map[string]*entry, len(insts)),
		appenders: make(map[string]xappender.Appender),
		dummy:     xlog.Discard(),
	}
	r.wf = r.dummy
	// wf 先于其他实例创建
	slices.SortStableFunc(insts, func(a, b Instance) int {
		return boolOrder(b.Name == WFInstance) - boolOrder(a.Name == WFInstance)
	})
	for _, inst := range insts {
		if err := r.add(inst); err != nil {
			return nil, errors.Join(err, r.closeAppenders())
		}
	}

	r.schedule, err = newSchedule(cfg.RotateSchedule, o.logger, r.scheduledRotate)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%w: %w", ErrInvalidConfig, err), r.closeAppenders())
	}
	return r, nil
}

// add 创建实例的 Logger，Appender 按路径复用
func (r *Registry) add(inst Instance) error {
	path, err := xfile.ResolveLogPath(r.cfg.Prefix, inst.File, inst.Name+".log")
	if err != nil {
		return fmt.Errorf("xlogreg: instance %q: %w", inst.Name, err)
	}

	a, ok := r.appenders[path]
	if !ok {
		if a, err = r.newAppender(path, inst.SplitSize); err != nil {
			return fmt.Errorf("xlogreg: instance %q: %w", inst.Name, err)
		}
		r.appenders[path] = a
	}

	base, _, err := xlog.New().
		SetAppender(a).
		SetFormat(inst.Format).
		SetLevel(inst.Level).
		Build()
	if err != nil {
		return fmt.Errorf("xlogreg: instance %q: %w", inst.Name, err)
	}
	// With 得到的 Logger 与 base 共享级别
	logger := base.With(xlog.Instance(inst.Name)).(xlog.LoggerWithLevel)
	switch {
	case inst.Name == WFInstance:
		r.wf = base
	case r.wf != r.dummy:
		logger = newWFLogger(logger, r.wf.With(xlog.Instance(inst.Name)))
	}

	r.entries[inst.Name] = &entry{inst: inst, path: path, logger: logger}
	r.opts.logger.Debug("log instance configured",
		xlog.Instance(inst.Name),
		xlog.Path(path),
		xlog.LevelAttr(inst.Level),
	)
	return nil
}

func boolOrder(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newAppender 按后端创建 Appender
func (r *Registry) newAppender(path string, splitSize int64) (xappender.Appender, error) {
	var appOpts []xappender.Option
	if r.opts.onError != nil {
		appOpts = append(appOpts, xappender.WithOnError(r.opts.onError))
	}
	if r.opts.meterProvider != nil {
		appOpts = append(appOpts, xappender.WithMeterProvider(r.opts.meterProvider))
	}

	if r.cfg.Backend != BackendLumberjack {
		appOpts = append(appOpts, xappender.WithFileOptions(xrotate.WithCheckInterval(r.cfg.CheckInterval)))
		return xappender.New(path, splitSize, r.cfg.SplitFormat, r.cfg.Async, appOpts...)
	}

	ljOpts := []xrotate.LumberjackOption{
		xrotate.WithMaxBackups(r.cfg.MaxBackups),
		xrotate.WithMaxAge(r.cfg.MaxAgeDays),
		xrotate.WithCompress(r.cfg.Compress),
		xrotate.WithLocalTime(true),
	}
	if r.opts.onError != nil {
		ljOpts = append(ljOpts, xrotate.WithLumberjackOnError(r.opts.onError))
	}
	lj, err := xrotate.NewLumberjack(path, splitSize, ljOpts...)
	if err != nil {
		return nil, err
	}
	if r.cfg.Async {
		return xappender.NewAsync(lj, appOpts...), nil
	}
	return xappender.NewSync(lj, appOpts...), nil
}

// Start 启动所有 Appender 和定时切分，已启动时直接返回
func (r *Registry) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.started {
		return nil
	}

	var errs []error
	for path, a := range r.appenders {
		if err := a.Start(); err != nil {
			errs = append(errs, fmt.Errorf("xlogreg: start %s: %w", path, err))
		}
	}
	if r.schedule != nil {
		r.schedule.Start()
	}
	r.started = true
	r.opts.logger.Info("log registry started",
		xlog.Count(int64(len(r.entries))),
		slog.Int("appenders", len(r.appenders)),
	)
	return errors.Join(errs...)
}

// Logger 返回实例的 Logger，未配置的实例返回不输出任何内容的 Logger
func (r *Registry) Logger(name string) xlog.LoggerWithLevel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.entries[name]; ok {
		return e.logger
	}
	return r.dummy
}

// Lookup 返回实例配置和解析后的路径
func (r *Registry) Lookup(name string) (Instance, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Instance{}, "", false
	}
	return e.inst, e.path, true
}

// Names 返回所有实例名，按字典序
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Appender 返回路径对应的共享 Appender，path 可以是相对路径
func (r *Registry) Appender(path string) (xappender.Appender, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appenders[abs]
	return a, ok
}

// Config 返回当前生效的配置
func (r *Registry) Config() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// Apply 热加载配置
//
// 只有已有实例的级别会更新。实例增删、格式、文件、切分大小，以及 Appender 相关的全局配置
// 变化时返回 [ErrReloadTopology]，这些变化需要重建注册表才能生效，
// 但同一次调用中的级别变化仍然生效。配置本身不合法时不做任何修改。
func (r *Registry) Apply(cfg Config) error {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	insts, err := parseInstances(cfg.Instances)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	var changes []string
	seen := make(map[string]struct{}, len(insts))
	for _, inst := range insts {
		seen[inst.Name] = struct{}{}
		e, ok := r.entries[inst.Name]
		if !ok {
			changes = append(changes, "added "+inst.Name)
			continue
		}
		if inst.Format != e.inst.Format || inst.File != e.inst.File || inst.SplitSize != e.inst.SplitSize {
			changes = append(changes, "changed "+inst.Name)
		}
		if inst.Level != e.inst.Level {
			e.logger.SetLevel(inst.Level)
			e.inst.Level = inst.Level
			r.opts.logger.Info("log level changed", xlog.Instance(inst.Name), xlog.LevelAttr(inst.Level))
		}
	}
	for name := range r.entries {
		if _, ok := seen[name]; !ok {
			changes = append(changes, "removed "+name)
		}
	}
	if !sameAppenderConfig(r.cfg, cfg) {
		changes = append(changes, "appender settings")
	}

	if len(changes) == 0 {
		return nil
	}
	slices.Sort(changes)
	return fmt.Errorf("%w: %v", ErrReloadTopology, changes)
}

// sameAppenderConfig 比较影响 Appender 创建的全局配置
func sameAppenderConfig(a, b Config) bool {
	return a.Prefix == b.Prefix &&
		a.Async == b.Async &&
		a.SplitFormat == b.SplitFormat &&
		a.CheckInterval == b.CheckInterval &&
		a.Backend == b.Backend &&
		a.MaxBackups == b.MaxBackups &&
		a.MaxAgeDays == b.MaxAgeDays &&
		a.Compress == b.Compress &&
		a.RotateSchedule == b.RotateSchedule
}

// RotateAll 对所有 Appender 立即切分，空文件不切分
func (r *Registry) RotateAll() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrClosed
	}
	var errs []error
	for _, a := range r.appenders {
		if err := a.Rotator().Rotate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) scheduledRotate() {
	if err := r.RotateAll(); err != nil && !errors.Is(err, ErrClosed) {
		r.opts.logger.Warn("scheduled rotation failed", xlog.Err(err))
		return
	}
	r.opts.logger.Debug("scheduled rotation done")
}

// Close 停止定时切分，并行关闭所有 Appender（写完队列中的记录）
//
// 重复调用返回 nil。关闭后 Logger 仍可调用，记录被丢弃。
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	schedule := r.schedule
	r.mu.Unlock()

	if schedule != nil {
		<-schedule.Stop().Done()
	}
	err := r.closeAppenders()
	r.opts.logger.Info("log registry closed", xlog.Err(err))
	return err
}

// closeAppenders 并行关闭所有 Appender，返回全部错误
func (r *Registry) closeAppenders() error {
	paths := make([]string, 0, len(r.appenders))
	for path := range r.appenders {
		paths = append(paths, path)
	}

	errs := make([]error, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		a := r.appenders[path]
		g.Go(func() error {
			if err := a.Close(); err != nil && !errors.Is(err, xappender.ErrClosed) {
				errs[i] = fmt.Errorf("xlogreg: close %s: %w", path, err)
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // 错误收集在 errs 中
	return errors.Join(errs...)
}
