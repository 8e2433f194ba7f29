package service

import (
	"os"
	"path/filepath"
	"testing"
)

// wavBytes 最小的 WAV 文件内容：RIFF/WAVE 头加静音数据
func wavBytes() []byte {
	data := make([]byte, 256)
	copy(data, "RIFF")
	copy(data[8:], "WAVE")
	return data
}

func mustWriteFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
