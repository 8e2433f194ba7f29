package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// EmbedMode 字幕嵌入方式
type EmbedMode string

const (
	EmbedNone EmbedMode = "none"
	EmbedSoft EmbedMode = "soft" // mov_text 字幕流
	EmbedHard EmbedMode = "hard" // 烧录到画面
)

// DefaultForceStyle 烧录字幕的默认样式
const DefaultForceStyle = "FontName=Arial,FontSize=36,PrimaryColour=&HFFFFFF,OutlineColour=&H000000,Outline=2,BorderStyle=3,Alignment=2,MarginV=30"

// ParseEmbedMode 解析字幕嵌入方式，空值为 none
func ParseEmbedMode(s string) (EmbedMode, error) {
	switch EmbedMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", EmbedNone:
		return EmbedNone, nil
	case EmbedSoft:
		return EmbedSoft, nil
	case EmbedHard:
		return EmbedHard, nil
	default:
		return "", fmt.Errorf("不支持的字幕嵌入方式: %s (可选: none, soft, hard)", s)
	}
}

// SubtitleMuxer 把 SRT 字幕加入视频
type SubtitleMuxer struct {
	ffmpeg     string
	forceStyle string
	runner     CommandRunner
	logger     *zap.Logger
}

// NewSubtitleMuxer 创建字幕合成器
func NewSubtitleMuxer(ffmpegPath, forceStyle string, runner CommandRunner, logger *zap.Logger) *SubtitleMuxer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if forceStyle == "" {
		forceStyle = DefaultForceStyle
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubtitleMuxer{ffmpeg: ffmpegPath, forceStyle: forceStyle, runner: runner, logger: logger}
}

// Attach 生成带字幕的视频；EmbedNone 时直接返回空路径
func (m *SubtitleMuxer) Attach(ctx context.Context, video, srt string, mode EmbedMode, output string) (string, error) {
	if mode == EmbedNone || mode == "" {
		return "", nil
	}
	for _, p := range []string{video, srt} {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("文件不存在: %s: %w", p, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	var args []string
	switch mode {
	case EmbedSoft:
		args = []string{
			"-y",
			"-i", video,
			"-i", srt,
			"-map", "0",
			"-map", "1",
			"-c:v", "copy",
			"-c:a", "copy",
			"-c:s", "mov_text",
			"-metadata:s:s:0", "language=eng",
			output,
		}
	case EmbedHard:
		args = []string{
			"-y",
			"-i", video,
			"-vf", fmt.Sprintf("subtitles=%s:force_style='%s'", escapeFilterPath(srt), m.forceStyle),
			"-c:a", "copy",
			output,
		}
	default:
		return "", fmt.Errorf("不支持的字幕嵌入方式: %s", mode)
	}

	if _, err := run(ctx, m.runner, "嵌入字幕", m.ffmpeg, args...); err != nil {
		return "", err
	}
	m.logger.Info("字幕嵌入完成", zap.String("文件", output), zap.String("方式", string(mode)))
	return output, nil
}

// escapeFilterPath 转义 filtergraph 参数中的特殊字符
func escapeFilterPath(p string) string {
	r := strings.NewReplacer(`:`, `\:`, `'`, `\'`, `,`, `\,`)
	return r.Replace(filepath.ToSlash(p))
}
