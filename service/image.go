package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/difyz9/word2video/model"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ImageService 提示词 -> 图片文件
type ImageService interface {
	Generate(ctx context.Context, prompt, outputPath string) (string, error)
}

// ComfyImageGenerator 通过 ComfyUI 工作流生成图片
type ComfyImageGenerator struct {
	config  model.ComfyUIConfig
	baseURL string
	client  *http.Client
	dialer  *websocket.Dialer
	limiter *rate.Limiter
	logger  *zap.Logger

	mu       sync.Mutex
	workflow []byte
}

// NewComfyImageGenerator 创建 ComfyUI 图片生成器
func NewComfyImageGenerator(config model.ComfyUIConfig, logger *zap.Logger) (*ComfyImageGenerator, error) {
	if err := ValidateComfyUI(config); err != nil {
		return nil, err
	}
	if config.Timeout <= 0 {
		config.Timeout = 120 * time.Second
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComfyImageGenerator{
		config:  config,
		baseURL: strings.TrimRight(config.APIURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		dialer:  &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		// 每 500ms 最多提交一次
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		logger:  logger,
	}, nil
}

// Generate 提交工作流并等待图片，等待时间受 comfyui.timeout 限制。
// ComfyUI 每个 clientId 只保留一个 websocket，所以每次调用使用独立的 clientId
func (g *ComfyImageGenerator) Generate(ctx context.Context, prompt, outputPath string) (string, error) {
	workflow, err := g.loadWorkflow()
	if err != nil {
		return "", err
	}
	g.applyPrompt(workflow, prompt)

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	clientID := uuid.NewString()

	// 先连接 websocket，避免错过执行完成的消息
	conn := g.connect(ctx, clientID)
	if conn != nil {
		defer conn.Close()
	}

	promptID, err := g.submit(ctx, workflow, clientID)
	if err != nil {
		return "", err
	}
	g.logger.Debug("工作流已提交", zap.String("prompt_id", promptID))

	if conn != nil {
		if err := g.waitWebsocket(ctx, conn, promptID); err != nil {
			return "", err
		}
	}

	image, err := g.waitHistory(ctx, promptID)
	if err != nil {
		return "", err
	}
	if err := g.download(ctx, image, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}

func (g *ComfyImageGenerator) loadWorkflow() (map[string]map[string]any, error) {
	g.mu.Lock()
	if g.workflow == nil {
		data, err := os.ReadFile(g.config.WorkflowFile)
		if err != nil {
			g.mu.Unlock()
			return nil, fmt.Errorf("读取工作流文件失败: %w", err)
		}
		g.workflow = data
	}
	raw := g.workflow
	g.mu.Unlock()

	// 每次重新解析，得到独立副本
	var workflow map[string]map[string]any
	if err := json.Unmarshal(raw, &workflow); err != nil {
		return nil, fmt.Errorf("解析工作流文件失败: %w", err)
	}
	return workflow, nil
}

// applyPrompt 写入正向/负向提示词并随机化采样种子
func (g *ComfyImageGenerator) applyPrompt(workflow map[string]map[string]any, prompt string) {
	positive := toSet(g.config.PositivePromptNodes)
	negative := toSet(g.config.NegativePromptNodes)
	noneConfigured := len(positive) == 0 && len(negative) == 0

	ids := make([]string, 0, len(workflow))
	for id := range workflow {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	textSet := false
	for _, id := range ids {
		node := workflow[id]
		inputs, ok := node["inputs"].(map[string]any)
		if !ok {
			continue
		}
		switch node["class_type"] {
		case "CLIPTextEncode":
			switch {
			case positive[id]:
				inputs["text"] = prompt
			case negative[id] && g.config.NegativePrompt != "":
				inputs["text"] = g.config.NegativePrompt
			case noneConfigured && !textSet:
				inputs["text"] = prompt
				textSet = true
			}
		case "KSampler", "KSamplerAdvanced":
			if _, ok := inputs["seed"]; ok {
				inputs["seed"] = rand.Int63n(1 << 48)
			}
			if _, ok := inputs["noise_seed"]; ok {
				inputs["noise_seed"] = rand.Int63n(1 << 48)
			}
		}
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}

func (g *ComfyImageGenerator) connect(ctx context.Context, clientID string) *websocket.Conn {
	wsURL := g.baseURL
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}
	wsURL += "/ws?clientId=" + url.QueryEscape(clientID)

	conn, _, err := g.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		g.logger.Debug("websocket 连接失败，改为轮询", zap.Error(err))
		return nil
	}
	return conn
}

func (g *ComfyImageGenerator) submit(ctx context.Context, workflow map[string]map[string]any, clientID string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"prompt":    workflow,
		"client_id": clientID,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("提交工作流失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("提交工作流失败: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var result struct {
		PromptID string `json:"prompt_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("解析提交结果失败: %w", err)
	}
	if result.PromptID == "" {
		return "", errors.New("ComfyUI 未返回 prompt_id")
	}
	return result.PromptID, nil
}

type comfyMessage struct {
	Type string `json:"type"`
	Data struct {
		PromptID         string  `json:"prompt_id"`
		Node             *string `json:"node"`
		ExceptionMessage string  `json:"exception_message"`
	} `json:"data"`
}

// waitWebsocket 等待 executing(node=null) 消息；连接中断时交给轮询处理
func (g *ComfyImageGenerator) waitWebsocket(ctx context.Context, conn *websocket.Conn, promptID string) error {
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("等待图片生成超时: %w", ctx.Err())
			}
			g.logger.Debug("websocket 读取失败，改为轮询", zap.Error(err))
			return nil
		}
		if msgType != websocket.TextMessage {
			continue // 预览图
		}

		var msg comfyMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Data.PromptID != promptID {
			continue
		}
		switch msg.Type {
		case "executing":
			if msg.Data.Node == nil {
				return nil
			}
		case "execution_error":
			return fmt.Errorf("ComfyUI 执行失败: %s", msg.Data.ExceptionMessage)
		}
	}
}

type comfyImage struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// waitHistory 轮询 /history/<id> 直到出现输出图片
func (g *ComfyImageGenerator) waitHistory(ctx context.Context, promptID string) (comfyImage, error) {
	ticker := time.NewTicker(g.config.PollInterval)
	defer ticker.Stop()

	for {
		image, found, err := g.fetchHistory(ctx, promptID)
		if err != nil {
			return comfyImage{}, err
		}
		if found {
			return image, nil
		}
		select {
		case <-ctx.Done():
			return comfyImage{}, fmt.Errorf("等待图片生成超时: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (g *ComfyImageGenerator) fetchHistory(ctx context.Context, promptID string) (comfyImage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/history/"+url.PathEscape(promptID), nil)
	if err != nil {
		return comfyImage{}, false, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return comfyImage{}, false, fmt.Errorf("等待图片生成超时: %w", ctx.Err())
		}
		g.logger.Debug("查询历史失败", zap.Error(err))
		return comfyImage{}, false, nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return comfyImage{}, false, nil
	}

	var history map[string]struct {
		Outputs map[string]struct {
			Images []comfyImage `json:"images"`
		} `json:"outputs"`
		Status struct {
			StatusStr string `json:"status_str"`
		} `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return comfyImage{}, false, fmt.Errorf("解析历史记录失败: %w", err)
	}
	entry, ok := history[promptID]
	if !ok {
		return comfyImage{}, false, nil
	}
	if entry.Status.StatusStr == "error" {
		return comfyImage{}, false, errors.New("ComfyUI 工作流执行出错")
	}

	nodeIDs := make([]string, 0, len(entry.Outputs))
	for id := range entry.Outputs {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)
	for _, id := range nodeIDs {
		if images := entry.Outputs[id].Images; len(images) > 0 {
			return images[0], true, nil
		}
	}
	return comfyImage{}, false, errors.New("工作流完成但未找到图像输出")
}

func (g *ComfyImageGenerator) download(ctx context.Context, image comfyImage, outputPath string) error {
	q := url.Values{}
	q.Set("filename", image.Filename)
	q.Set("subfolder", image.Subfolder)
	q.Set("type", image.Type)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/view?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("下载图片失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("下载图片失败，HTTP状态码: %d", resp.StatusCode)
	}
	return writeStream(resp.Body, outputPath)
}

// writeStream 写入 path.part 后重命名为 path
func writeStream(r io.Reader, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("保存文件失败: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("保存文件失败: %w", err)
	}
	return os.Rename(tmp, path)
}
