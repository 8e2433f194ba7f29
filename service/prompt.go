package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/difyz9/word2video/model"
	"go.uber.org/zap"
)

// PromptService 单词 -> 结构化文本
type PromptService interface {
	Generate(ctx context.Context, word string) (model.PromptRecord, error)
}

// PromptTemplates prompts.json 的内容
type PromptTemplates struct {
	SystemPrompt    string             `json:"system_prompt"`
	AssistantPrompt model.PromptRecord `json:"assistant_prompt"`
}

// LoadPromptTemplates 读取提示词模板
func LoadPromptTemplates(path string) (PromptTemplates, error) {
	var t PromptTemplates
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("读取提示词模板失败: %w", err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("解析提示词模板失败: %w", err)
	}
	if strings.TrimSpace(t.SystemPrompt) == "" {
		return t, errors.New("提示词模板缺少 system_prompt")
	}
	return t, nil
}

// PromptGenerator 基于 Azure OpenAI 的提示词生成
type PromptGenerator struct {
	config    model.AzureOpenAIConfig
	templates PromptTemplates
	client    *http.Client
	logger    *zap.Logger
}

// NewPromptGenerator 创建提示词生成器，缺少配置时返回 *model.ConfigError
func NewPromptGenerator(config model.AzureOpenAIConfig, logger *zap.Logger) (*PromptGenerator, error) {
	if err := ValidateAzureOpenAI(config); err != nil {
		return nil, err
	}
	templates, err := LoadPromptTemplates(config.PromptsFile)
	if err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromptGenerator{
		config:    config,
		templates: templates,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate 调用 chat completions 并解析为 PromptRecord
func (pg *PromptGenerator) Generate(ctx context.Context, word string) (model.PromptRecord, error) {
	example, err := json.Marshal(pg.templates.AssistantPrompt)
	if err != nil {
		return model.PromptRecord{}, err
	}
	messages := []chatMessage{
		{Role: "system", Content: pg.templates.SystemPrompt},
		{Role: "user", Content: word},
		{Role: "assistant", Content: string(example)},
	}

	content, err := pg.complete(ctx, messages)
	if err != nil {
		return model.PromptRecord{}, err
	}

	record, err := ParsePromptRecord(content)
	if err != nil {
		return model.PromptRecord{}, err
	}
	pg.logger.Debug("提示词生成完成", zap.String("单词", word), zap.String("短语", record.Phrase))
	return record, nil
}

func (pg *PromptGenerator) complete(ctx context.Context, messages []chatMessage) (string, error) {
	body, err := json.Marshal(map[string]any{
		"messages":        messages,
		"temperature":     pg.config.Temperature,
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(pg.config.Endpoint, "/"),
		url.PathEscape(pg.config.Deployment),
		url.QueryEscape(pg.config.APIVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("api-key", pg.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := pg.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("请求 Azure OpenAI 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("Azure OpenAI 请求失败: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("解析 Azure OpenAI 响应失败: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("Azure OpenAI 未返回结果")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// ParsePromptRecord 解析模型返回的 JSON，兼容 ```json 代码块包裹
func ParsePromptRecord(content string) (model.PromptRecord, error) {
	var record model.PromptRecord
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &record); err != nil {
		return record, fmt.Errorf("解析提示词 JSON 失败: %w", err)
	}
	if strings.TrimSpace(record.Word) == "" || strings.TrimSpace(record.WordPrompt) == "" {
		return record, errors.New("提示词结果缺少 word 或 word_prompt")
	}
	return record, nil
}

// StaticPromptService 跳过提示词生成时使用：沿用已有 result.json，否则用单词或自定义提示词填充
type StaticPromptService struct {
	CustomPrompt string
	ResultPath   func(word string) string
}

// Generate 不访问网络
func (s StaticPromptService) Generate(ctx context.Context, word string) (model.PromptRecord, error) {
	if s.ResultPath != nil {
		if prev, err := LoadWordResult(s.ResultPath(word)); err == nil && prev.Prompt.Word != "" {
			return prev.Prompt, nil
		}
	}
	prompt := s.CustomPrompt
	if prompt == "" {
		prompt = word
	}
	return model.PromptRecord{
		Word:         word,
		WordPrompt:   prompt,
		Phrase:       word,
		PhrasePrompt: prompt,
	}, nil
}
