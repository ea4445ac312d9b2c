package xrotate

import (
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// 性能测试（Benchmark）
// =============================================================================

func BenchmarkFileWriterWrite(b *testing.B) {
	w, err := NewFileWriter(filepath.Join(b.TempDir(), "bench.log"), 0, "")
	if err != nil {
		b.Fatal(err)
	}
	defer w.Close()

	data := []byte("benchmark log line with some content\n")

	b.ReportAllocs()
	for b.Loop() {
		_, _ = w.Write(data)
	}
}

func BenchmarkFileWriterWriteParallel(b *testing.B) {
	w, err := NewFileWriter(filepath.Join(b.TempDir(), "bench.log"), 0, "")
	if err != nil {
		b.Fatal(err)
	}
	defer w.Close()

	data := []byte("benchmark log line with some content\n")

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = w.Write(data)
		}
	})
}

func BenchmarkRender(b *testing.B) {
	tmpl := CompileTemplate(DefaultTemplate)
	ts := time.Now()

	b.ReportAllocs()
	for b.Loop() {
		_ = tmpl.Render("/var/log/app.log", ts, 42, 1234)
	}
}
