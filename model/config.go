package model

import "time"

// Config 总配置结构
type Config struct {
	OutputDir    string             `yaml:"output_dir"`
	Log          LogConfig          `yaml:"log"`
	AzureOpenAI  AzureOpenAIConfig  `yaml:"azure_openai"`
	ComfyUI      ComfyUIConfig      `yaml:"comfyui"`
	TTS          TTSConfig          `yaml:"tts"`
	TencentCloud TencentCloudConfig `yaml:"tencent_cloud"`
	TencentTTS   TencentTTSConfig   `yaml:"tencent_tts"`
	Moyin        MoyinConfig        `yaml:"moyin"`
	EdgeTTS      EdgeTTSConfig      `yaml:"edge_tts"`
	FFmpeg       FFmpegConfig       `yaml:"ffmpeg"`
	Timeline     TimelineConfig     `yaml:"timeline"`
	Video        VideoConfig        `yaml:"video"`
	Subtitle     SubtitleConfig     `yaml:"subtitle"`
	Concurrent   ConcurrentConfig   `yaml:"concurrent"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // 为空时只输出到终端
}

// AzureOpenAIConfig 提示词生成（Azure OpenAI）配置
type AzureOpenAIConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"api_key"`
	Deployment  string        `yaml:"deployment_name"`
	PromptsFile string        `yaml:"prompts_file"`
	APIVersion  string        `yaml:"api_version"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ComfyUIConfig 图片生成（ComfyUI）配置
type ComfyUIConfig struct {
	APIURL              string        `yaml:"api_url"`
	WorkflowFile        string        `yaml:"workflow_file"`
	PositivePromptNodes []string      `yaml:"positive_prompt_nodes"`
	NegativePromptNodes []string      `yaml:"negative_prompt_nodes"`
	NegativePrompt      string        `yaml:"negative_prompt"`
	Timeout             time.Duration `yaml:"timeout"`
	PollInterval        time.Duration `yaml:"poll_interval"`
}

// TTSConfig 语音合成公共配置
type TTSConfig struct {
	Provider   string `yaml:"provider"` // tencent, moyin, edge
	RateLimit  int    `yaml:"rate_limit"`
	MaxRetries int    `yaml:"max_retries"`
}

// TencentCloudConfig 腾讯云配置
type TencentCloudConfig struct {
	SecretID  string `yaml:"secret_id"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
}

// TencentTTSConfig 腾讯云TTS音频参数配置
type TencentTTSConfig struct {
	Mode        string        `yaml:"mode"` // sync: TextToVoice, async: CreateTtsTask
	VoiceTypeEn int64         `yaml:"voice_type_en"`
	VoiceTypeZh int64         `yaml:"voice_type_zh"`
	ModelType   int64         `yaml:"model_type"`
	Volume      float64       `yaml:"volume"`
	Speed       float64       `yaml:"speed"`
	SampleRate  int64         `yaml:"sample_rate"`
	Codec       string        `yaml:"codec"`
	MaxWait     time.Duration `yaml:"max_wait"`
}

// MoyinConfig 魔音工坊配置
type MoyinConfig struct {
	APIURL    string  `yaml:"api_url"`
	APIKey    string  `yaml:"api_key"`
	APISecret string  `yaml:"api_secret"`
	SpeakerEn string  `yaml:"speaker_en"`
	SpeakerZh string  `yaml:"speaker_zh"`
	Speed     float64 `yaml:"speed"`
	Pitch     float64 `yaml:"pitch"`
	Volume    float64 `yaml:"volume"`
	Rate      int     `yaml:"rate"`
}

// EdgeTTSConfig Edge TTS配置
type EdgeTTSConfig struct {
	VoiceEn string `yaml:"voice_en"` // 如 en-US-JennyNeural
	VoiceZh string `yaml:"voice_zh"` // 如 zh-CN-XiaoxiaoNeural
	Rate    string `yaml:"rate"`     // 如 +10%, +0%, -10%
	Volume  string `yaml:"volume"`
	Pitch   string `yaml:"pitch"` // 如 +0Hz
}

// FFmpegConfig 编码后端配置
type FFmpegConfig struct {
	FFmpegPath   string `yaml:"ffmpeg_path"`
	FFprobePath  string `yaml:"ffprobe_path"`
	VideoCodec   string `yaml:"video_codec"`
	AudioCodec   string `yaml:"audio_codec"`
	AudioBitrate string `yaml:"audio_bitrate"`
	PixelFormat  string `yaml:"pixel_format"`
	Height       int    `yaml:"height"`
	TempDir      string `yaml:"temp_dir"`
}

// TimelineConfig 时间线参数（秒）
type TimelineConfig struct {
	LeadSilence      float64 `yaml:"lead_silence"`
	AudioGap         float64 `yaml:"audio_gap"`
	EndPause         float64 `yaml:"end_pause"`
	FallbackDuration float64 `yaml:"fallback_duration"`
}

// VideoConfig 视频配置
type VideoConfig struct {
	Quality string `yaml:"quality"` // low, medium, high
}

// SubtitleConfig 字幕配置
type SubtitleConfig struct {
	Policy     string `yaml:"policy"` // consolidated, segment
	Embed      string `yaml:"embed"`  // none, soft, hard
	ForceStyle string `yaml:"force_style"`
}

// ConcurrentConfig 并发配置
type ConcurrentConfig struct {
	MaxWorkers int `yaml:"max_workers"`
}
