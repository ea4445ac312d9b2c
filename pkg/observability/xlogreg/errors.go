package xlogreg

import "errors"

// 配置加载和解析相关错误
var (
	// ErrEmptyPath 配置文件路径为空
	ErrEmptyPath = errors.New("xlogreg: empty config path")

	// ErrUnsupportedFormat 不支持的配置格式
	ErrUnsupportedFormat = errors.New("xlogreg: unsupported config format")

	// ErrLoadFailed 读取配置文件失败
	ErrLoadFailed = errors.New("xlogreg: failed to load config")

	// ErrParseFailed 配置解析失败
	ErrParseFailed = errors.New("xlogreg: failed to parse config")

	// ErrInvalidConfig 配置值不合法（后端、定时表达式等）
	ErrInvalidConfig = errors.New("xlogreg: invalid config")

	// ErrMalformedInstance 实例行格式错误
	ErrMalformedInstance = errors.New("xlogreg: malformed instance")
)

// 注册表相关错误
var (
	// ErrDuplicateInstance 实例名重复
	ErrDuplicateInstance = errors.New("xlogreg: duplicate instance")

	// ErrReloadTopology 热加载时实例集合或输出发生变化，需要重启才能生效
	ErrReloadTopology = errors.New("xlogreg: instance topology changed, restart required")

	// ErrClosed 注册表已关闭
	ErrClosed = errors.New("xlogreg: registry is closed")
)
