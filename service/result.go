package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/difyz9/word2video/model"
)

// ResultFileName 每个单词目录下的结果记录
const ResultFileName = "result.json"

// ErrMissingArtifact 必需的产物不存在
var ErrMissingArtifact = errors.New("缺少必需的产物")

// StageError 单词某个阶段的失败
type StageError struct {
	Word  string
	Stage model.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("单词 %q 的 %s 阶段失败: %v", e.Word, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ResultPath 单词目录下 result.json 的路径
func ResultPath(dir string) string {
	return filepath.Join(dir, ResultFileName)
}

// SaveWordResult 写入 result.json，先写临时文件再替换
func SaveWordResult(r *model.WordResult) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化结果失败: %w", err)
	}
	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	path := ResultPath(r.Dir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("写入结果失败: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadWordResult 读取 result.json
func LoadWordResult(path string) (*model.WordResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r model.WordResult
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", path, err)
	}
	return &r, nil
}
