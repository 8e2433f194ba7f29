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

// EncoderOptions ffmpeg 编码参数
type EncoderOptions struct {
	FFmpegPath   string
	VideoCodec   string
	AudioCodec   string
	AudioBitrate string
	PixelFormat  string
	Height       int
	TempDir      string // 为空时使用系统临时目录
}

func (o EncoderOptions) withDefaults() EncoderOptions {
	if o.FFmpegPath == "" {
		o.FFmpegPath = "ffmpeg"
	}
	if o.VideoCodec == "" {
		o.VideoCodec = "libx264"
	}
	if o.AudioCodec == "" {
		o.AudioCodec = "aac"
	}
	if o.AudioBitrate == "" {
		o.AudioBitrate = "192k"
	}
	if o.PixelFormat == "" {
		o.PixelFormat = "yuv420p"
	}
	if o.Height <= 0 {
		o.Height = 1080
	}
	return o
}

// ComposedAudio 合成后的音轨
type ComposedAudio struct {
	Path     string
	Duration float64 // 等于时间线总时长
}

// AudioCompositor 按时间线拼接静音与音频片段
type AudioCompositor struct {
	opts      EncoderOptions
	runner    CommandRunner
	logger    *zap.Logger
	mkdirTemp func(dir, pattern string) (string, error)
	removeAll func(path string) error
}

// NewAudioCompositor 创建音频合成器
func NewAudioCompositor(opts EncoderOptions, runner CommandRunner, logger *zap.Logger) *AudioCompositor {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AudioCompositor{
		opts:      opts.withDefaults(),
		runner:    runner,
		logger:    logger,
		mkdirTemp: os.MkdirTemp,
		removeAll: os.RemoveAll,
	}
}

// Compose 输出顺序为 [前导静音, 片段1, 间隔, 片段2, …, 片段N, 结尾停顿]
func (c *AudioCompositor) Compose(ctx context.Context, tl Timeline, output string) (ComposedAudio, error) {
	if tl.Empty() {
		return ComposedAudio{}, ErrEmptyTimeline
	}
	begin := time.Now()

	workDir, err := c.mkdirTemp(c.opts.TempDir, "word2video-audio-*")
	if err != nil {
		return ComposedAudio{}, fmt.Errorf("创建临时目录失败: %w", err)
	}
	defer func() {
		if err := c.removeAll(workDir); err != nil {
			c.logger.Warn("清理临时目录失败", zap.String("目录", workDir), zap.Error(err))
		}
	}()

	var inputs []string
	if tl.LeadSilence > 0 {
		lead := filepath.Join(workDir, "lead_silence.aac")
		if err := c.silence(ctx, tl.LeadSilence, lead); err != nil {
			return ComposedAudio{}, err
		}
		inputs = append(inputs, lead)
	}

	var gap string
	if tl.Gap > 0 && len(tl.Entries) > 1 {
		gap = filepath.Join(workDir, "gap_silence.aac")
		if err := c.silence(ctx, tl.Gap, gap); err != nil {
			return ComposedAudio{}, err
		}
	}

	for i, p := range tl.Entries {
		if i > 0 && gap != "" {
			inputs = append(inputs, gap)
		}
		inputs = append(inputs, p.Segment.Path)
	}

	if tl.EndPause > 0 {
		tail := filepath.Join(workDir, "end_pause.aac")
		if err := c.silence(ctx, tl.EndPause, tail); err != nil {
			return ComposedAudio{}, err
		}
		inputs = append(inputs, tail)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return ComposedAudio{}, fmt.Errorf("创建输出目录失败: %w", err)
	}
	if _, err := run(ctx, c.runner, "合并音频", c.opts.FFmpegPath, c.concatArgs(inputs, output)...); err != nil {
		return ComposedAudio{}, err
	}

	c.logger.Info("音频合成完成",
		zap.String("文件", output),
		zap.Int("输入数", len(inputs)),
		zap.Float64("时长", tl.TotalDuration),
		zap.Duration("耗时", time.Since(begin)))
	return ComposedAudio{Path: output, Duration: tl.TotalDuration}, nil
}

func (c *AudioCompositor) silence(ctx context.Context, seconds float64, path string) error {
	_, err := run(ctx, c.runner, "生成静音", c.opts.FFmpegPath,
		"-y",
		"-f", "lavfi",
		"-i", "anullsrc=r=44100:cl=stereo",
		"-t", formatSeconds(seconds),
		"-c:a", c.opts.AudioCodec,
		"-b:a", c.opts.AudioBitrate,
		path,
	)
	return err
}

func (c *AudioCompositor) concatArgs(inputs []string, output string) []string {
	args := []string{"-y"}
	var filter strings.Builder
	for i, in := range inputs {
		args = append(args, "-i", in)
		fmt.Fprintf(&filter, "[%d:a]", i)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=0:a=1[out]", len(inputs))

	return append(args,
		"-filter_complex", filter.String(),
		"-map", "[out]",
		"-c:a", c.opts.AudioCodec,
		"-b:a", c.opts.AudioBitrate,
		output,
	)
}
