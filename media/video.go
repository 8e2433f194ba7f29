package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Quality 视频质量档位
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// QualityPreset 编码参数
type QualityPreset struct {
	Bitrate string
	Preset  string
	CRF     int
}

var qualityPresets = map[Quality]QualityPreset{
	QualityLow:    {Bitrate: "1M", Preset: "ultrafast", CRF: 28},
	QualityMedium: {Bitrate: "2M", Preset: "medium", CRF: 23},
	QualityHigh:   {Bitrate: "4M", Preset: "slow", CRF: 18},
}

// ParseQuality 解析质量档位，空值为 medium
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if q == "" {
		return QualityMedium, nil
	}
	if _, ok := qualityPresets[q]; !ok {
		return "", fmt.Errorf("不支持的视频质量: %s (可选: low, medium, high)", s)
	}
	return q, nil
}

// Preset 返回档位对应的编码参数，未知档位按 medium 处理
func (q Quality) Preset() QualityPreset {
	if p, ok := qualityPresets[q]; ok {
		return p
	}
	return qualityPresets[QualityMedium]
}

// VideoCompositor 静态图片 + 音轨合成视频
type VideoCompositor struct {
	opts   EncoderOptions
	runner CommandRunner
	logger *zap.Logger
}

// NewVideoCompositor 创建视频合成器
func NewVideoCompositor(opts EncoderOptions, runner CommandRunner, logger *zap.Logger) *VideoCompositor {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoCompositor{opts: opts.withDefaults(), runner: runner, logger: logger}
}

// Compose 图片保持 audio.Duration 秒，输出时长显式传给编码器
func (c *VideoCompositor) Compose(ctx context.Context, image string, audio ComposedAudio, quality Quality, output string) (string, error) {
	if _, err := os.Stat(image); err != nil {
		return "", fmt.Errorf("图片不存在: %s: %w", image, err)
	}
	if _, err := os.Stat(audio.Path); err != nil {
		return "", fmt.Errorf("音频不存在: %s: %w", audio.Path, err)
	}
	if audio.Duration <= 0 {
		return "", fmt.Errorf("无效的视频时长: %.3f", audio.Duration)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	begin := time.Now()
	if _, err := run(ctx, c.runner, "合成视频", c.opts.FFmpegPath, c.args(image, audio, quality, output)...); err != nil {
		return "", err
	}

	c.logger.Info("视频合成完成",
		zap.String("文件", output),
		zap.String("质量", string(quality)),
		zap.Float64("时长", audio.Duration),
		zap.Duration("耗时", time.Since(begin)))
	return output, nil
}

func (c *VideoCompositor) args(image string, audio ComposedAudio, quality Quality, output string) []string {
	p := quality.Preset()
	return []string{
		"-y",
		"-loop", "1",
		"-i", image,
		"-i", audio.Path,
		"-c:v", c.opts.VideoCodec,
		"-preset", p.Preset,
		"-crf", strconv.Itoa(p.CRF),
		"-b:v", p.Bitrate,
		"-tune", "stillimage",
		"-c:a", c.opts.AudioCodec,
		"-b:a", c.opts.AudioBitrate,
		"-pix_fmt", c.opts.PixelFormat,
		"-vf", fmt.Sprintf("scale=-2:%d,format=%s", c.opts.Height, c.opts.PixelFormat),
		"-t", formatSeconds(audio.Duration),
		output,
	}
}
