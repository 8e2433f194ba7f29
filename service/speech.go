package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/difyz9/word2video/model"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SpeechProvider 语音合成提供商接口
type SpeechProvider interface {
	// Synthesize 合成语音并写入 req.OutputPath
	Synthesize(ctx context.Context, req model.SpeechRequest) error

	// Name 提供商名称
	Name() string

	// MaxTextLength 单次请求最大文本长度（字符），0 表示不限
	MaxTextLength() int

	// RecommendedRateLimit 推荐的速率限制（每秒请求数）
	RecommendedRateLimit() int
}

// SpeechService 统一的语音服务：限速、重试、文本清理和结果校验
type SpeechService struct {
	provider      SpeechProvider
	limiter       *rate.Limiter
	maxRetries    int
	backoff       func(attempt int) time.Duration
	textProcessor *TextProcessor
	logger        *zap.Logger
}

// NewSpeechService 创建语音服务
func NewSpeechService(provider SpeechProvider, config model.TTSConfig, logger *zap.Logger) *SpeechService {
	rateLimit := config.RateLimit
	if rateLimit <= 0 {
		rateLimit = provider.RecommendedRateLimit()
	}
	if rateLimit <= 0 {
		rateLimit = 1
	}
	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SpeechService{
		provider:   provider,
		limiter:    rate.NewLimiter(rate.Every(time.Second/time.Duration(rateLimit)), rateLimit),
		maxRetries: maxRetries,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * time.Second
		},
		textProcessor: NewTextProcessor(),
		logger:        logger.With(zap.String("provider", provider.Name())),
	}
}

// ProviderName 当前提供商
func (s *SpeechService) ProviderName() string {
	return s.provider.Name()
}

// AudioFormat 提供商输出的音频格式，未声明时为 wav
func (s *SpeechService) AudioFormat() string {
	if f, ok := s.provider.(AudioFormatter); ok {
		if ext := f.AudioFormat(); ext != "" {
			return ext
		}
	}
	return "wav"
}

// Generate 合成 (text, kind, language) 到 outputPath，失败时线性退避重试
func (s *SpeechService) Generate(ctx context.Context, text string, kind model.SpeechKind, lang model.Language, outputPath string) (string, error) {
	processed := s.textProcessor.ProcessText(text)
	if !s.textProcessor.IsValidTextForTTS(processed) {
		return "", fmt.Errorf("无效的朗读文本: %q", text)
	}
	if limit := s.provider.MaxTextLength(); limit > 0 && len([]rune(processed)) > limit {
		return "", fmt.Errorf("文本长度 %d 超过 %s 限制 %d", len([]rune(processed)), s.provider.Name(), limit)
	}

	req := model.SpeechRequest{Text: processed, Kind: kind, Language: lang, OutputPath: outputPath}
	var lastErr error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}

		err := s.provider.Synthesize(ctx, req)
		if err == nil {
			err = validateAudioFile(outputPath)
			if err != nil {
				os.Remove(outputPath)
			}
		}
		if err == nil {
			if attempt > 1 {
				s.logger.Info("语音重试成功", zap.String("文本", processed), zap.Int("尝试次数", attempt))
			}
			return outputPath, nil
		}

		lastErr = err
		var cfgErr *model.ConfigError
		if errors.As(err, &cfgErr) || ctx.Err() != nil {
			break
		}
		s.logger.Warn("语音合成失败",
			zap.String("文本", processed),
			zap.String("语言", string(lang)),
			zap.Int("尝试次数", attempt),
			zap.Error(err))

		if attempt < s.maxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.backoff(attempt)):
			}
		}
	}
	return "", fmt.Errorf("%s 语音合成失败: %w", s.provider.Name(), lastErr)
}
