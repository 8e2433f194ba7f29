package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/difyz9/word2video/model"
	"github.com/google/uuid"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tts "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tts/v20190823"
	"go.uber.org/zap"
)

// 腾讯云 PrimaryLanguage
const (
	tencentLangChinese int64 = 1
	tencentLangEnglish int64 = 2
)

// TencentSpeechProvider 腾讯云TTS提供商
type TencentSpeechProvider struct {
	client       *tts.Client
	config       model.TencentTTSConfig
	httpClient   *http.Client
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewTencentSpeechProvider 创建腾讯云TTS提供商，密钥缺失时返回 *model.ConfigError
func NewTencentSpeechProvider(cloud model.TencentCloudConfig, config model.TencentTTSConfig, logger *zap.Logger) (*TencentSpeechProvider, error) {
	if err := ValidateTencentCloud(cloud); err != nil {
		return nil, err
	}

	credential := common.NewCredential(cloud.SecretID, cloud.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tts.tencentcloudapi.com"

	client, err := tts.NewClient(credential, cloud.Region, cpf)
	if err != nil {
		return nil, fmt.Errorf("创建腾讯云TTS客户端失败: %w", err)
	}
	if config.MaxWait <= 0 {
		config.MaxWait = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TencentSpeechProvider{
		client:       client,
		config:       config,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

// Name 提供商名称
func (p *TencentSpeechProvider) Name() string {
	return "TencentCloud"
}

// MaxTextLength 基础语音合成单次最多 150 个汉字
func (p *TencentSpeechProvider) MaxTextLength() int {
	return 150
}

// RecommendedRateLimit 腾讯云TTS建议每秒不超过5个请求
func (p *TencentSpeechProvider) RecommendedRateLimit() int {
	return 5
}

// AudioFormat 与请求的 codec 一致
func (p *TencentSpeechProvider) AudioFormat() string {
	if p.config.Codec == "" {
		return "wav"
	}
	return strings.ToLower(p.config.Codec)
}

// Synthesize sync 模式调用 TextToVoice，async 模式创建长文本任务并轮询
func (p *TencentSpeechProvider) Synthesize(ctx context.Context, req model.SpeechRequest) error {
	if p.config.Mode == "async" {
		return p.synthesizeAsync(ctx, req)
	}
	return p.synthesizeSync(ctx, req)
}

func (p *TencentSpeechProvider) voiceFor(lang model.Language) (int64, int64) {
	if lang == model.LangZh {
		return p.config.VoiceTypeZh, tencentLangChinese
	}
	return p.config.VoiceTypeEn, tencentLangEnglish
}

func (p *TencentSpeechProvider) synthesizeSync(ctx context.Context, req model.SpeechRequest) error {
	voiceType, primaryLanguage := p.voiceFor(req.Language)

	request := tts.NewTextToVoiceRequest()
	request.Text = common.StringPtr(req.Text)
	request.SessionId = common.StringPtr(uuid.NewString())
	request.Volume = common.Float64Ptr(p.config.Volume)
	request.Speed = common.Float64Ptr(p.config.Speed)
	request.ModelType = common.Int64Ptr(p.config.ModelType)
	request.VoiceType = common.Int64Ptr(voiceType)
	request.PrimaryLanguage = common.Int64Ptr(primaryLanguage)
	request.SampleRate = common.Uint64Ptr(uint64(p.config.SampleRate))
	request.Codec = common.StringPtr(p.config.Codec)

	response, err := p.client.TextToVoiceWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("调用腾讯云TTS失败: %w", err)
	}
	if response.Response == nil || response.Response.Audio == nil {
		return fmt.Errorf("腾讯云TTS未返回音频")
	}

	audio, err := base64.StdEncoding.DecodeString(*response.Response.Audio)
	if err != nil {
		return fmt.Errorf("解码音频失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	return os.WriteFile(req.OutputPath, audio, 0644)
}

func (p *TencentSpeechProvider) synthesizeAsync(ctx context.Context, req model.SpeechRequest) error {
	voiceType, primaryLanguage := p.voiceFor(req.Language)

	request := tts.NewCreateTtsTaskRequest()
	request.Text = common.StringPtr(req.Text)
	request.Volume = common.Float64Ptr(p.config.Volume)
	request.Speed = common.Float64Ptr(p.config.Speed)
	request.ModelType = common.Int64Ptr(p.config.ModelType)
	request.VoiceType = common.Int64Ptr(voiceType)
	request.PrimaryLanguage = common.Int64Ptr(primaryLanguage)
	request.SampleRate = common.Uint64Ptr(uint64(p.config.SampleRate))
	request.Codec = common.StringPtr(p.config.Codec)

	response, err := p.client.CreateTtsTaskWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("创建TTS任务失败: %w", err)
	}
	if response.Response == nil || response.Response.Data == nil || response.Response.Data.TaskId == nil {
		return fmt.Errorf("腾讯云TTS未返回任务ID")
	}

	audioURL, err := p.waitForTask(ctx, *response.Response.Data.TaskId)
	if err != nil {
		return err
	}
	return p.downloadAudio(ctx, audioURL, req.OutputPath)
}

// waitForTask 轮询任务状态直到完成，超过 max_wait 视为失败
func (p *TencentSpeechProvider) waitForTask(ctx context.Context, taskID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.MaxWait)
	defer cancel()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		status, err := p.describeTask(ctx, taskID)
		if err != nil {
			return "", err
		}

		switch status.Status {
		case 2: // 完成
			if status.AudioURL == "" {
				return "", fmt.Errorf("任务完成但没有获取到音频URL")
			}
			return status.AudioURL, nil
		case 3: // 失败
			return "", fmt.Errorf("TTS任务失败: %s", status.ErrorMsg)
		case 0, 1: // 排队中或处理中
			p.logger.Debug("TTS任务等待中", zap.String("task_id", taskID), zap.String("状态", status.StatusStr))
		default:
			return "", fmt.Errorf("未知任务状态: %d", status.Status)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("TTS任务 %s 超时，等待时间超过 %v: %w", taskID, p.config.MaxWait, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (p *TencentSpeechProvider) describeTask(ctx context.Context, taskID string) (model.TencentTaskStatus, error) {
	request := tts.NewDescribeTtsTaskStatusRequest()
	request.TaskId = common.StringPtr(taskID)

	response, err := p.client.DescribeTtsTaskStatusWithContext(ctx, request)
	if err != nil {
		return model.TencentTaskStatus{}, fmt.Errorf("查询TTS任务状态失败: %w", err)
	}
	if response.Response == nil {
		return model.TencentTaskStatus{}, fmt.Errorf("查询TTS任务状态失败: 响应为空")
	}
	data := response.Response.Data
	if data == nil || data.Status == nil {
		return model.TencentTaskStatus{}, fmt.Errorf("查询TTS任务状态失败: 响应为空")
	}

	status := model.TencentTaskStatus{Status: *data.Status}
	if data.StatusStr != nil {
		status.StatusStr = *data.StatusStr
	}
	if data.ResultUrl != nil {
		status.AudioURL = *data.ResultUrl
	}
	if data.ErrorMsg != nil {
		status.ErrorMsg = *data.ErrorMsg
	}
	return status, nil
}

func (p *TencentSpeechProvider) downloadAudio(ctx context.Context, audioURL, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("下载音频失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("下载音频失败，HTTP状态码: %d", resp.StatusCode)
	}
	return writeStream(resp.Body, outputPath)
}
