package xrotate

import (
	"errors"
	"fmt"
)

// 配置校验错误
var (
	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidMaxBackups MaxBackups 值无效（必须在 0~1024 范围内）
	ErrInvalidMaxBackups = errors.New("xrotate: invalid MaxBackups")

	// ErrInvalidMaxAge MaxAgeDays 值无效（必须在 0~3650 范围内）
	ErrInvalidMaxAge = errors.New("xrotate: invalid MaxAgeDays")

	// ErrNoCleanupPolicy MaxBackups 和 MaxAgeDays 不能同时为 0
	ErrNoCleanupPolicy = errors.New("xrotate: no cleanup policy configured")

	// ErrInvalidFileMode FileMode 包含非权限位（仅允许低 9 位 0000~0777）
	ErrInvalidFileMode = errors.New("xrotate: invalid FileMode")

	// ErrClosed 写入器已关闭
	ErrClosed = errors.New("xrotate: rotator is closed")
)

// 运行期错误，仅通过 OnError 回调上报
var (
	// ErrFallbackStderr 目标文件无法打开，暂时写入标准错误的副本
	ErrFallbackStderr = errors.New("xrotate: open failed, falling back to stderr")

	// ErrReopen 重新打开目标文件失败，继续写入原描述符
	ErrReopen = errors.New("xrotate: reopen failed")

	// ErrRename 切分时重命名当前文件失败
	ErrRename = errors.New("xrotate: rename failed")

	// ErrRotateExhausted 000~999 序号对应的文件名全部被占用，本轮放弃切分
	ErrRotateExhausted = errors.New("xrotate: no free rotation name")
)

// WriteError 描述一次未完整写入的记录。
// 已写入的部分保留在文件中，剩余字节被丢弃。
type WriteError struct {
	Path    string
	Written int
	Dropped int
	Err     error
}

// Error 实现 error 接口。
func (e *WriteError) Error() string {
	return fmt.Sprintf("xrotate: write %s: wrote %d bytes, dropped %d: %v", e.Path, e.Written, e.Dropped, e.Err)
}

// Unwrap 返回底层错误。
func (e *WriteError) Unwrap() error {
	return e.Err
}
