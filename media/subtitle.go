package media

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// SubtitlePolicy 字幕生成策略
type SubtitlePolicy string

const (
	// PolicyConsolidated 每个阶段一条字幕，原文与译文上下叠放
	PolicyConsolidated SubtitlePolicy = "consolidated"
	// PolicySegment 每个音频片段一条字幕
	PolicySegment SubtitlePolicy = "segment"
)

// ParseSubtitlePolicy 解析字幕策略，空值为 consolidated
func ParseSubtitlePolicy(s string) (SubtitlePolicy, error) {
	switch SubtitlePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyConsolidated:
		return PolicyConsolidated, nil
	case PolicySegment:
		return PolicySegment, nil
	default:
		return "", fmt.Errorf("不支持的字幕策略: %s (可选: consolidated, segment)", s)
	}
}

// Cue 一条字幕
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// EmitCues 根据时间线生成字幕，按开始时间顺序编号（从1开始）
func EmitCues(tl Timeline, policy SubtitlePolicy) []Cue {
	var cues []Cue
	switch policy {
	case PolicySegment:
		for _, p := range tl.Entries {
			text := strings.TrimSpace(p.Segment.Text)
			if text == "" || p.End <= p.Start {
				continue
			}
			cues = append(cues, Cue{Start: p.Start, End: p.End, Text: text})
		}
	default:
		var lines []string
		for _, p := range tl.Entries {
			if text := strings.TrimSpace(p.Segment.Text); text != "" {
				lines = append(lines, text)
			}
		}
		start, end := tl.Span()
		if len(lines) > 0 && end > start {
			cues = append(cues, Cue{Start: start, End: end, Text: strings.Join(lines, "\n")})
		}
	}

	for i := range cues {
		cues[i].Index = i + 1
	}
	return cues
}

// FormatSRTTime 格式化为 HH:MM:SS,mmm，向下取整到毫秒
func FormatSRTTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	// 加一个极小量，避免 5.3*1000 = 5299.999… 这类浮点误差被截断
	totalMs := int64(math.Floor(seconds*1000 + 1e-6))
	hours := totalMs / 3_600_000
	minutes := totalMs % 3_600_000 / 60_000
	secs := totalMs % 60_000 / 1000
	ms := totalMs % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, ms)
}

// SerializeSRT 序列化为 SRT 文本
func SerializeSRT(cues []Cue) string {
	var b strings.Builder
	for _, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", c.Index, FormatSRTTime(c.Start), FormatSRTTime(c.End), c.Text)
	}
	return b.String()
}

// WriteSRT 写入 UTF-8 字幕文件
func WriteSRT(path string, cues []Cue) error {
	if len(cues) == 0 {
		return fmt.Errorf("没有可写入的字幕: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建字幕目录失败: %w", err)
	}
	if err := os.WriteFile(path, []byte(SerializeSRT(cues)), 0644); err != nil {
		return fmt.Errorf("写入字幕文件失败: %w", err)
	}
	return nil
}
