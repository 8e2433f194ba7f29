package service

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/difyz9/word2video/model"
	"gopkg.in/yaml.v3"
)

// 配置文件中未修改的占位符视为未配置
const (
	placeholderSecretID  = "your_secret_id"
	placeholderSecretKey = "your_secret_key"
	placeholderAPIKey    = "your_api_key"
)

// DefaultConfig 默认配置
func DefaultConfig() *model.Config {
	return &model.Config{
		OutputDir: "output",
		Log: model.LogConfig{
			Level: "info",
		},
		AzureOpenAI: model.AzureOpenAIConfig{
			APIVersion:  "2024-02-15-preview",
			PromptsFile: "prompts.json",
			Temperature: 0.7,
			Timeout:     60 * time.Second,
		},
		ComfyUI: model.ComfyUIConfig{
			APIURL:       "http://127.0.0.1:8188",
			WorkflowFile: "workflow.json",
			Timeout:      120 * time.Second,
			PollInterval: time.Second,
		},
		TTS: model.TTSConfig{
			Provider:   "tencent",
			RateLimit:  5,
			MaxRetries: 3,
		},
		TencentCloud: model.TencentCloudConfig{
			Region: "ap-guangzhou",
		},
		TencentTTS: model.TencentTTSConfig{
			Mode:        "sync",
			VoiceTypeEn: 501009, // WeWinny
			VoiceTypeZh: 101051, // WeRose
			ModelType:   1,
			Volume:      5,
			Speed:       0,
			SampleRate:  16000,
			Codec:       "wav",
			MaxWait:     60 * time.Second,
		},
		Moyin: model.MoyinConfig{
			APIURL: "https://open.mobvoi.com/api/tts/v1",
			Speed:  0.8,
			Pitch:  1,
			Volume: 1,
			Rate:   16000,
		},
		EdgeTTS: model.EdgeTTSConfig{
			VoiceEn: "en-US-JennyNeural",
			VoiceZh: "zh-CN-XiaoxiaoNeural",
			Rate:    "-10%",
			Volume:  "+0%",
			Pitch:   "+0Hz",
		},
		FFmpeg: model.FFmpegConfig{
			FFmpegPath:   "ffmpeg",
			FFprobePath:  "ffprobe",
			VideoCodec:   "libx264",
			AudioCodec:   "aac",
			AudioBitrate: "192k",
			PixelFormat:  "yuv420p",
			Height:       1080,
		},
		Timeline: model.TimelineConfig{
			LeadSilence:      0.3,
			AudioGap:         0.3,
			EndPause:         0,
			FallbackDuration: 2.0,
		},
		Video: model.VideoConfig{
			Quality: "medium",
		},
		Subtitle: model.SubtitleConfig{
			Policy: "consolidated",
			Embed:  "none",
		},
		Concurrent: model.ConcurrentConfig{
			MaxWorkers: 1,
		},
	}
}

// ConfigService 配置服务
type ConfigService struct {
	config *model.Config
}

// NewConfigService 加载配置文件，文件不存在时使用默认配置
func NewConfigService(configPath string) (*ConfigService, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return &ConfigService{config: config}, nil
}

// GetConfig 获取配置
func (cs *ConfigService) GetConfig() *model.Config {
	return cs.config
}

// LoadConfig 在默认配置上叠加配置文件，并从环境变量补全密钥
func LoadConfig(configPath string) (*model.Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// 使用默认配置
	case err != nil:
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	applyEnv(config)
	return config, nil
}

// applyEnv 配置文件未填写的密钥从环境变量读取
func applyEnv(config *model.Config) {
	fill := func(dst *string, placeholder string, keys ...string) {
		if *dst != "" && *dst != placeholder {
			return
		}
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	fill(&config.AzureOpenAI.APIKey, placeholderAPIKey, "AZURE_OPENAI_API_KEY")
	fill(&config.AzureOpenAI.Endpoint, "", "AZURE_OPENAI_ENDPOINT")
	fill(&config.TencentCloud.SecretID, placeholderSecretID, "TENCENTCLOUD_SECRET_ID", "TENCENT_SECRET_ID")
	fill(&config.TencentCloud.SecretKey, placeholderSecretKey, "TENCENTCLOUD_SECRET_KEY", "TENCENT_SECRET_KEY")
	fill(&config.Moyin.APIKey, placeholderAPIKey, "MOYIN_API_KEY")
	fill(&config.Moyin.APISecret, placeholderSecretKey, "MOYIN_API_SECRET")
}

func missing(value string, placeholders ...string) bool {
	if value == "" {
		return true
	}
	for _, p := range placeholders {
		if value == p {
			return true
		}
	}
	return false
}

// ValidateAzureOpenAI 校验提示词服务配置
func ValidateAzureOpenAI(c model.AzureOpenAIConfig) error {
	const svc = "azure_openai"
	switch {
	case missing(c.Endpoint):
		return &model.ConfigError{Service: svc, Key: "endpoint"}
	case missing(c.APIKey, placeholderAPIKey):
		return &model.ConfigError{Service: svc, Key: "api_key"}
	case missing(c.Deployment):
		return &model.ConfigError{Service: svc, Key: "deployment_name"}
	case missing(c.PromptsFile):
		return &model.ConfigError{Service: svc, Key: "prompts_file"}
	}
	return nil
}

// ValidateComfyUI 校验图片服务配置
func ValidateComfyUI(c model.ComfyUIConfig) error {
	const svc = "comfyui"
	switch {
	case missing(c.APIURL):
		return &model.ConfigError{Service: svc, Key: "api_url"}
	case missing(c.WorkflowFile):
		return &model.ConfigError{Service: svc, Key: "workflow_file"}
	}
	return nil
}

// ValidateTencentCloud 校验腾讯云配置
func ValidateTencentCloud(c model.TencentCloudConfig) error {
	const svc = "tencent_cloud"
	switch {
	case missing(c.SecretID, placeholderSecretID):
		return &model.ConfigError{Service: svc, Key: "secret_id"}
	case missing(c.SecretKey, placeholderSecretKey):
		return &model.ConfigError{Service: svc, Key: "secret_key"}
	case missing(c.Region):
		return &model.ConfigError{Service: svc, Key: "region"}
	}
	return nil
}

// ValidateMoyin 校验魔音工坊配置
func ValidateMoyin(c model.MoyinConfig) error {
	const svc = "moyin"
	switch {
	case missing(c.APIURL):
		return &model.ConfigError{Service: svc, Key: "api_url"}
	case missing(c.APIKey, placeholderAPIKey):
		return &model.ConfigError{Service: svc, Key: "api_key"}
	case missing(c.APISecret, placeholderSecretKey):
		return &model.ConfigError{Service: svc, Key: "api_secret"}
	case missing(c.SpeakerEn):
		return &model.ConfigError{Service: svc, Key: "speaker_en"}
	case missing(c.SpeakerZh):
		return &model.ConfigError{Service: svc, Key: "speaker_zh"}
	}
	return nil
}
