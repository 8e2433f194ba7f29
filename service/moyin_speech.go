package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/difyz9/word2video/model"
	"go.uber.org/zap"
)

// MoyinSpeechProvider 魔音工坊TTS提供商
type MoyinSpeechProvider struct {
	config     model.MoyinConfig
	httpClient *http.Client
	now        func() time.Time
	logger     *zap.Logger
}

type moyinRequest struct {
	Signature string  `json:"signature"`
	Timestamp int64   `json:"timestamp"`
	AppKey    string  `json:"appkey"`
	Speaker   string  `json:"speaker"`
	Text      string  `json:"text"`
	AudioType string  `json:"audio_type"`
	Speed     float64 `json:"speed"`
	Pitch     float64 `json:"pitch"`
	Volume    float64 `json:"volume"`
	Rate      int     `json:"rate"`
}

// NewMoyinSpeechProvider 创建魔音工坊提供商，密钥缺失时返回 *model.ConfigError
func NewMoyinSpeechProvider(config model.MoyinConfig, logger *zap.Logger) (*MoyinSpeechProvider, error) {
	if err := ValidateMoyin(config); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MoyinSpeechProvider{
		config:     config,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		now:        time.Now,
		logger:     logger,
	}, nil
}

// Name 提供商名称
func (p *MoyinSpeechProvider) Name() string {
	return "Moyin"
}

// MaxTextLength 单次请求最大文本长度
func (p *MoyinSpeechProvider) MaxTextLength() int {
	return 500
}

// RecommendedRateLimit 每秒请求数
func (p *MoyinSpeechProvider) RecommendedRateLimit() int {
	return 2
}

// moyinSignature md5(appkey + secret + timestamp) 的十六进制串
func moyinSignature(appKey, secret string, timestamp int64) string {
	sum := md5.Sum([]byte(appKey + secret + strconv.FormatInt(timestamp, 10)))
	return hex.EncodeToString(sum[:])
}

// AudioFormat 请求固定为 wav
func (p *MoyinSpeechProvider) AudioFormat() string {
	return "wav"
}

// Synthesize 合成语音，响应必须是音频内容
func (p *MoyinSpeechProvider) Synthesize(ctx context.Context, req model.SpeechRequest) error {
	speaker := p.config.SpeakerEn
	if req.Language == model.LangZh {
		speaker = p.config.SpeakerZh
	}

	timestamp := p.now().Unix()
	payload := moyinRequest{
		Signature: moyinSignature(p.config.APIKey, p.config.APISecret, timestamp),
		Timestamp: timestamp,
		AppKey:    p.config.APIKey,
		Speaker:   speaker,
		Text:      req.Text,
		AudioType: "wav",
		Speed:     p.config.Speed,
		Pitch:     p.config.Pitch,
		Volume:    p.config.Volume,
		Rate:      p.config.Rate,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	p.logger.Debug("发送语音合成请求", zap.String("speaker", speaker), zap.String("文本", req.Text))
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("魔音API请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("魔音API请求失败，状态码 %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if contentType != "audio/mpeg" && contentType != "audio/wav" {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("魔音API返回错误: %s", strings.TrimSpace(string(data)))
	}

	return writeStream(resp.Body, req.OutputPath)
}
