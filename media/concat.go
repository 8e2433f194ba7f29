package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Concatenator 使用 concat demuxer 流复制拼接视频，不重新编码
type Concatenator struct {
	ffmpeg string
	runner CommandRunner
	logger *zap.Logger
}

// NewConcatenator 创建视频拼接器
func NewConcatenator(ffmpegPath string, runner CommandRunner, logger *zap.Logger) *Concatenator {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Concatenator{ffmpeg: ffmpegPath, runner: runner, logger: logger}
}

// Concat 按给定顺序拼接，清单文件用完即删
func (c *Concatenator) Concat(ctx context.Context, videos []string, output string) error {
	if len(videos) == 0 {
		return fmt.Errorf("没有可拼接的视频")
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	manifest, err := writeManifest(filepath.Dir(output), videos)
	if err != nil {
		return err
	}
	defer os.Remove(manifest)

	begin := time.Now()
	_, err = run(ctx, c.runner, "拼接视频", c.ffmpeg,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c", "copy",
		output,
	)
	if err != nil {
		return err
	}

	c.logger.Info("视频拼接完成",
		zap.String("文件", output),
		zap.Int("视频数", len(videos)),
		zap.Duration("耗时", time.Since(begin)))
	return nil
}

// writeManifest 每行一个 file '<绝对路径>'
func writeManifest(dir string, videos []string) (string, error) {
	f, err := os.CreateTemp(dir, "video_list_*.txt")
	if err != nil {
		return "", fmt.Errorf("创建拼接清单失败: %w", err)
	}
	defer f.Close()

	for _, v := range videos {
		abs, err := filepath.Abs(v)
		if err != nil {
			abs = v
		}
		if _, err := fmt.Fprintf(f, "file '%s'\n", escapeConcatPath(abs)); err != nil {
			os.Remove(f.Name())
			return "", fmt.Errorf("写入拼接清单失败: %w", err)
		}
	}
	return f.Name(), nil
}

func escapeConcatPath(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}
