package service

import (
	"fmt"
	"strings"

	"github.com/difyz9/word2video/model"
	"go.uber.org/zap"
)

// NewSpeechProvider 根据名称创建语音合成提供商
func NewSpeechProvider(providerType string, config *model.Config, logger *zap.Logger) (SpeechProvider, error) {
	switch strings.ToLower(providerType) {
	case "tencent", "tencentcloud":
		return NewTencentSpeechProvider(config.TencentCloud, config.TencentTTS, logger)
	case "moyin", "mobvoi":
		return NewMoyinSpeechProvider(config.Moyin, logger)
	case "edge", "edgetts":
		return NewEdgeSpeechProvider(config.EdgeTTS), nil
	default:
		return nil, fmt.Errorf("不支持的TTS提供商: %s", providerType)
	}
}

// NewSpeechServiceFromConfig 创建带限速与重试的语音服务
func NewSpeechServiceFromConfig(providerType string, config *model.Config, logger *zap.Logger) (*SpeechService, error) {
	if providerType == "" {
		providerType = config.TTS.Provider
	}
	provider, err := NewSpeechProvider(providerType, config, logger)
	if err != nil {
		return nil, err
	}
	return NewSpeechService(provider, config.TTS, logger), nil
}
