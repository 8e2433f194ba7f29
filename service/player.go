package service

import (
	"fmt"
	"os"

	"github.com/pkg/browser"
)

// openFile 便于测试替换
var openFile = browser.OpenFile

// PlayVideo 用系统默认程序打开视频
func PlayVideo(path string) error {
	if path == "" {
		return fmt.Errorf("没有可播放的视频")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("视频不存在: %w", err)
	}
	if err := openFile(path); err != nil {
		return fmt.Errorf("打开视频失败: %w", err)
	}
	return nil
}
