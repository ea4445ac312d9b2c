package xrotate

import (
	"strconv"
	"strings"
	"time"
)

// DefaultTemplate 默认的轮转文件名模板
const DefaultTemplate = "_%Y%m%d_%H%M%S_%P_%n"

// templateMarker 占位符起始字符
const templateMarker = '%'

// MaxSeq 序号占位符 %n 的上限（含）
const MaxSeq = 999

type tokenKind uint8

const (
	tokenLiteral tokenKind = iota
	tokenYear
	tokenMonth
	tokenDay
	tokenHour
	tokenMinute
	tokenSecond
	tokenPID
	tokenSeq
)

// placeholderKind 返回占位符字符对应的 token 类型
func placeholderKind(c byte) (tokenKind, bool) {
	switch c {
	case 'Y':
		return tokenYear, true
	case 'm':
		return tokenMonth, true
	case 'd':
		return tokenDay, true
	case 'H':
		return tokenHour, true
	case 'M':
		return tokenMinute, true
	case 'S':
		return tokenSecond, true
	case 'P':
		return tokenPID, true
	case 'n':
		return tokenSeq, true
	default:
		return tokenLiteral, false
	}
}

// token 模板中的一个片段：先输出 prefix，再输出占位符的值（literal 无值）
type token struct {
	kind   tokenKind
	prefix string
}

// Template 编译后的文件名模板，构造后只读，可并发使用。
type Template struct {
	src    string
	tokens []token
	hasSeq bool
}

// CompileTemplate 编译文件名模板，不会失败。
//
// 从左到右扫描 '%'：后一个字符是已知占位符时，之前的文本成为该占位符的前缀；
// 未知字符按普通文本处理并从该字符继续扫描；结尾单独的 '%' 原样保留；
// 最后一个占位符之后的文本成为末尾的 literal 片段。
func CompileTemplate(src string) *Template {
	t := &Template{src: src}

	pos, from := 0, 0
	for from < len(src) {
		i := strings.IndexByte(src[from:], templateMarker)
		if i < 0 {
			break
		}
		use := from + i
		if use+1 >= len(src) {
			// "_%Y%m%d_xxx%"：marker 是最后一个字符
			t.tokens = append(t.tokens, token{kind: tokenLiteral, prefix: src[pos:]})
			pos = len(src)
			break
		}
		kind, ok := placeholderKind(src[use+1])
		if !ok {
			from = use + 1
			continue
		}
		t.tokens = append(t.tokens, token{kind: kind, prefix: src[pos:use]})
		if kind == tokenSeq {
			t.hasSeq = true
		}
		pos = use + 2
		from = pos
	}
	if pos < len(src) {
		t.tokens = append(t.tokens, token{kind: tokenLiteral, prefix: src[pos:]})
	}
	return t
}

// String 返回模板原文
func (t *Template) String() string {
	return t.src
}

// HasSeq 模板是否包含序号占位符 %n
//
// 不含 %n 时同一时刻的所有候选文件名相同，探测一次即可。
func (t *Template) HasSeq() bool {
	return t.hasSeq
}

// Render 渲染轮转文件名：base 之后依次输出每个片段的前缀和占位符值。
//
// 纯函数，结果只取决于参数。时间按 ts 自身的时区输出，调用方负责转换。
func (t *Template) Render(base string, ts time.Time, seq, pid int) string {
	buf := make([]byte, 0, len(base)+len(t.src)+16)
	buf = append(buf, base...)
	for _, tk := range t.tokens {
		buf = append(buf, tk.prefix...)
		switch tk.kind {
		case tokenYear:
			buf = appendPadded(buf, ts.Year(), 4)
		case tokenMonth:
			buf = appendPadded(buf, int(ts.Month()), 2)
		case tokenDay:
			buf = appendPadded(buf, ts.Day(), 2)
		case tokenHour:
			buf = appendPadded(buf, ts.Hour(), 2)
		case tokenMinute:
			buf = appendPadded(buf, ts.Minute(), 2)
		case tokenSecond:
			buf = appendPadded(buf, ts.Second(), 2)
		case tokenPID:
			buf = strconv.AppendInt(buf, int64(pid), 10)
		case tokenSeq:
			buf = appendPadded(buf, seq, 3)
		}
	}
	return string(buf)
}

// appendPadded 以十进制追加 v，不足 width 位时左侧补零；负数不补零。
func appendPadded(buf []byte, v, width int) []byte {
	if v < 0 {
		return strconv.AppendInt(buf, int64(v), 10)
	}
	var tmp [20]byte
	digits := strconv.AppendInt(tmp[:0], int64(v), 10)
	for i := len(digits); i < width; i++ {
		buf = append(buf, '0')
	}
	return append(buf, digits...)
}
