package xlogreg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// instanceFields 实例行的字段数：name, format, file, split_size, level
const instanceFields = 5

// numericLevels 数字级别 0~8 对应的级别。
// 数字依次表示 none, fatal, warn, error, notice, trace, log, info, debug。
var numericLevels = [...]xlog.Level{
	xlog.LevelOff,
	xlog.LevelError,
	xlog.LevelWarn,
	xlog.LevelError,
	xlog.LevelInfo,
	xlog.LevelDebug,
	xlog.LevelInfo,
	xlog.LevelInfo,
	xlog.LevelDebug,
}

// Instance 一个命名日志实例
type Instance struct {
	Name      string
	Format    string // text 或 json
	File      string // 相对 prefix 的路径、绝对路径，或以分隔符结尾的目录（使用 <name>.log）
	SplitSize int64  // <= 0 时使用写入器默认值
	Level     xlog.Level
}

// ParseInstance 解析实例行 "name, format, file, split_size, level"
//
// 按逗号切成 5 段，最后一段保留剩余内容，每段去掉两端空白。
// name、format、file 必填，format 只能是 text 或 json。
// split_size 无法解析时为 0。level 可以是名称（见 [xlog.ParseLevel]）或数字 0~8
// （0 不输出，8 全部输出）；为空、超出范围或无法识别时为 debug（全部输出）。
func ParseInstance(line string) (Instance, error) {
	parts := strings.SplitN(line, ",", instanceFields)
	if len(parts) != instanceFields {
		return Instance{}, fmt.Errorf("%w: want %d fields, got %d: %q", ErrMalformedInstance, instanceFields, len(parts), line)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	inst := Instance{
		Name:   parts[0],
		Format: strings.ToLower(parts[1]),
		File:   parts[2],
	}
	if inst.Name == "" || inst.Format == "" || inst.File == "" {
		return Instance{}, fmt.Errorf("%w: name, format and file are required: %q", ErrMalformedInstance, line)
	}
	if inst.Format != "text" && inst.Format != "json" {
		return Instance{}, fmt.Errorf("%w: format %q, want text or json", ErrMalformedInstance, parts[1])
	}

	if size, err := strconv.ParseInt(parts[3], 10, 64); err == nil && size > 0 {
		inst.SplitSize = size
	}

	inst.Level = parseInstanceLevel(parts[4])
	return inst, nil
}

// parseInstanceLevel 解析实例行的级别字段
func parseInstanceLevel(s string) xlog.Level {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n < len(numericLevels) {
			return numericLevels[n]
		}
		return xlog.LevelDebug
	}
	level, err := xlog.ParseLevel(s)
	if err != nil {
		return xlog.LevelDebug
	}
	return level
}

// parseInstances 解析全部实例行，跳过空行，检查重名
func parseInstances(lines []string) ([]Instance, error) {
	insts := make([]Instance, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		inst, err := ParseInstance(line)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[inst.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateInstance, inst.Name)
		}
		seen[inst.Name] = struct{}{}
		insts = append(insts, inst)
	}
	return insts, nil
}
