package xlogreg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// Format 配置文件格式
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Backend 切分文件的实现
type Backend string

const (
	// BackendNative 按模板命名的 FileWriter
	BackendNative Backend = "native"

	// BackendLumberjack lumberjack，支持备份清理和压缩，不支持模板
	BackendLumberjack Backend = "lumberjack"
)

// rootKey 配置所在的顶层键
const rootKey = "log"

// DefaultPrefix 相对路径实例的默认目录
const DefaultPrefix = "./"

// Config 日志注册表配置，位于配置文件的 log 键下
//
//	log:
//	  prefix: /var/log/app
//	  async: true
//	  split_format: "_%Y%m%d_%H%M%S_%P_%n"
//	  check_interval: 1s
//	  rotate_schedule: "0 0 * * *"
//	  instances:
//	    - "access, json, access.log, 104857600, info"
//	    - "error, text, errors/, 0, warn"
type Config struct {
	Prefix         string        `koanf:"prefix"`
	Async          bool          `koanf:"async"`
	SplitFormat    string        `koanf:"split_format"`
	CheckInterval  time.Duration `koanf:"check_interval"`
	Backend        Backend       `koanf:"backend"`
	MaxBackups     int           `koanf:"max_backups"`
	MaxAgeDays     int           `koanf:"max_age_days"`
	Compress       bool          `koanf:"compress"`
	RotateSchedule string        `koanf:"rotate_schedule"`
	Instances      []string      `koanf:"instances"`
}

// DefaultConfig 返回默认配置，没有任何实例
func DefaultConfig() Config {
	return Config{
		Prefix:        DefaultPrefix,
		SplitFormat:   xrotate.DefaultTemplate,
		CheckInterval: xrotate.DefaultCheckInterval,
		Backend:       BackendNative,
		MaxBackups:    xrotate.DefaultMaxBackups,
		MaxAgeDays:    xrotate.DefaultMaxAgeDays,
	}
}

// LoadConfig 读取配置文件，按扩展名（.yaml/.yml/.json）选择解析器
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path) //#nosec G304 -- 配置文件路径由调用方指定
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return ParseConfig(data, format)
}

// ParseConfig 解析配置数据，未出现的键使用 [DefaultConfig] 的值
//
// 空数据得到默认配置。
func ParseConfig(data []byte, format Format) (Config, error) {
	parser, err := parserFor(format)
	if err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	if len(data) == 0 {
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if err := k.UnmarshalWithConf(rootKey, &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalize 把显式写成空值的字段恢复为默认值
func (c *Config) normalize() {
	c.Prefix = strings.TrimSpace(c.Prefix)
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.SplitFormat == "" {
		c.SplitFormat = xrotate.DefaultTemplate
	}
	c.Backend = Backend(strings.ToLower(strings.TrimSpace(string(c.Backend))))
	if c.Backend == "" {
		c.Backend = BackendNative
	}
	c.RotateSchedule = strings.TrimSpace(c.RotateSchedule)
}

// Validate 检查配置值和实例行
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendNative, BackendLumberjack, "":
	default:
		return fmt.Errorf("%w: backend %q", ErrInvalidConfig, c.Backend)
	}
	if c.CheckInterval < 0 {
		return fmt.Errorf("%w: check_interval %s", ErrInvalidConfig, c.CheckInterval)
	}
	if c.RotateSchedule != "" {
		if _, err := scheduleParser.Parse(c.RotateSchedule); err != nil {
			return fmt.Errorf("%w: rotate_schedule %q: %w", ErrInvalidConfig, c.RotateSchedule, err)
		}
	}
	_, err := parseInstances(c.Instances)
	return err
}

func detectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func parserFor(format Format) (koanf.Parser, error) {
	switch format {
	case FormatYAML:
		return yaml.Parser(), nil
	case FormatJSON:
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
