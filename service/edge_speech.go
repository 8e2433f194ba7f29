package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/difyz9/edge-tts-go/pkg/communicate"
	"github.com/difyz9/edge-tts-go/pkg/types"
	"github.com/difyz9/edge-tts-go/pkg/voices"
	"github.com/difyz9/word2video/model"
	"github.com/samber/lo"
)

// EdgeSpeechProvider Edge TTS提供商
type EdgeSpeechProvider struct {
	config model.EdgeTTSConfig
}

// NewEdgeSpeechProvider 创建Edge TTS提供商
func NewEdgeSpeechProvider(config model.EdgeTTSConfig) *EdgeSpeechProvider {
	if config.VoiceEn == "" {
		config.VoiceEn = "en-US-JennyNeural"
	}
	if config.VoiceZh == "" {
		config.VoiceZh = "zh-CN-XiaoxiaoNeural"
	}
	if config.Rate == "" {
		config.Rate = "+0%"
	}
	if config.Volume == "" {
		config.Volume = "+0%"
	}
	if config.Pitch == "" {
		config.Pitch = "+0Hz"
	}
	return &EdgeSpeechProvider{config: config}
}

// Name 提供商名称
func (p *EdgeSpeechProvider) Name() string {
	return "EdgeTTS"
}

// MaxTextLength Edge TTS 支持较长文本
func (p *EdgeSpeechProvider) MaxTextLength() int {
	return 1000
}

// RecommendedRateLimit 每秒请求数
func (p *EdgeSpeechProvider) RecommendedRateLimit() int {
	return 10
}

// AudioFormat Edge TTS 只输出 MP3
func (p *EdgeSpeechProvider) AudioFormat() string {
	return "mp3"
}

// Synthesize 合成语音，Edge TTS 输出为 MP3 数据
func (p *EdgeSpeechProvider) Synthesize(ctx context.Context, req model.SpeechRequest) error {
	voice := p.config.VoiceEn
	if req.Language == model.LangZh {
		voice = p.config.VoiceZh
	}

	comm, err := communicate.NewCommunicate(
		req.Text,
		voice,
		p.config.Rate,
		p.config.Volume,
		p.config.Pitch,
		"", // proxy
		10, // connectTimeout
		60, // receiveTimeout
	)
	if err != nil {
		return fmt.Errorf("创建Edge TTS通信失败: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	if err := comm.Save(ctx, req.OutputPath, ""); err != nil {
		return fmt.Errorf("保存音频文件失败: %w", err)
	}
	return nil
}

// ListEdgeVoices 列出可用的 Edge TTS 语音，languageFilter 按区域前缀过滤（如 en, zh-CN）
func ListEdgeVoices(ctx context.Context, languageFilter string, out io.Writer) error {
	voiceList, err := voices.ListVoices(ctx, "")
	if err != nil {
		return fmt.Errorf("获取语音列表失败: %w", err)
	}

	filtered := FilterVoices(voiceList, languageFilter)
	if len(filtered) == 0 {
		return fmt.Errorf("没有找到匹配的语音")
	}

	if languageFilter != "" {
		fmt.Fprintf(out, "\n找到 %d 个 '%s' 语言的语音:\n\n", len(filtered), languageFilter)
	} else {
		fmt.Fprintf(out, "\n找到 %d 个可用语音:\n\n", len(filtered))
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "音色\t区域")
	fmt.Fprintln(w, "--------\t--------")
	for _, voice := range filtered {
		fmt.Fprintf(w, "%s\t%s\n", voice.ShortName, voice.Locale)
	}
	w.Flush()

	example := filtered[0].ShortName
	fmt.Fprintf(out, "\n在 config.yaml 中设置:\n")
	fmt.Fprintf(out, "  edge_tts:\n    voice_en: %s\n\n", example)
	return nil
}

// FilterVoices 按区域前缀过滤语音，filter 为空时返回全部
func FilterVoices(list []types.Voice, filter string) []types.Voice {
	if filter == "" {
		return list
	}
	filter = strings.ToLower(filter)
	return lo.Filter(list, func(voice types.Voice, _ int) bool {
		return strings.HasPrefix(strings.ToLower(voice.Locale), filter)
	})
}
