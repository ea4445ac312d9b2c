package xlog

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErr(t *testing.T) {
	attr := Err(errors.New("disk full"))
	assert.Equal(t, KeyError, attr.Key)
	assert.Equal(t, "disk full", attr.Value.String())

	assert.True(t, Err(nil).Equal(slog.Attr{}), "nil 错误返回空属性")
}

func TestAttrBuilders(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"耗时", Duration(1500 * time.Millisecond), KeyDuration, "1.5s"},
		{"计数", Count(42), KeyCount, "42"},
		{"组件", Component("xlogreg"), KeyComponent, "xlogreg"},
		{"实例", Instance("access"), KeyInstance, "access"},
		{"路径", Path("/var/log/app.log"), KeyPath, "/var/log/app.log"},
		{"级别", LevelAttr(LevelWarn), KeyLevel, "WARN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKey, tt.attr.Key)
			assert.Equal(t, tt.wantVal, tt.attr.Value.String())
		})
	}
}
