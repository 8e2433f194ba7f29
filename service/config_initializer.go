package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/difyz9/word2video/media"
	"github.com/difyz9/word2video/model"
	"gopkg.in/yaml.v3"
)

// ConfigInitializer 配置初始化器
type ConfigInitializer struct {
	force bool
}

// NewConfigInitializer 创建配置初始化器，force 为 true 时覆盖已存在的文件
func NewConfigInitializer(force bool) *ConfigInitializer {
	return &ConfigInitializer{force: force}
}

// InitializeConfig 写入默认配置文件
func (ci *ConfigInitializer) InitializeConfig(configPath string) error {
	config := ci.createDefaultConfig()
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	return ci.writeFile(configPath, data, "配置文件")
}

// createDefaultConfig 默认配置，密钥使用占位符
func (ci *ConfigInitializer) createDefaultConfig() *model.Config {
	config := DefaultConfig()
	config.AzureOpenAI.Endpoint = "https://your-resource.openai.azure.com"
	config.AzureOpenAI.APIKey = placeholderAPIKey
	config.AzureOpenAI.Deployment = "gpt-4o"
	config.ComfyUI.PositivePromptNodes = []string{"6"}
	config.ComfyUI.NegativePromptNodes = []string{"7"}
	config.ComfyUI.NegativePrompt = "text, watermark, blurry, lowres"
	config.TencentCloud.SecretID = placeholderSecretID
	config.TencentCloud.SecretKey = placeholderSecretKey
	config.Moyin.APIKey = placeholderAPIKey
	config.Moyin.APISecret = placeholderSecretKey
	config.Moyin.SpeakerEn = "cissy_meet"
	config.Moyin.SpeakerZh = "xiaoyi_meet"
	config.Subtitle.ForceStyle = media.DefaultForceStyle
	return config
}

// CreatePromptsFile 写入提示词模板
func (ci *ConfigInitializer) CreatePromptsFile(path string) error {
	templates := PromptTemplates{
		SystemPrompt: "你是一名英语词汇老师。用户给出一个英文单词，请返回 JSON 对象，字段为 " +
			"word, word_zh, word_prompt, phrase, phrase_zh, phrase_prompt。" +
			"word_prompt 和 phrase_prompt 是用于生成插图的英文画面描述，phrase 是包含该单词的常用短语。",
		AssistantPrompt: model.PromptRecord{
			Word:         "apple",
			WordZh:       "苹果",
			WordPrompt:   "a shiny red apple on a wooden table, soft daylight, children's book illustration",
			Phrase:       "an apple a day",
			PhraseZh:     "一天一苹果",
			PhrasePrompt: "a smiling child eating an apple in a sunny kitchen, children's book illustration",
		},
	}
	data, err := json.MarshalIndent(templates, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化提示词模板失败: %w", err)
	}
	return ci.writeFile(path, data, "提示词模板")
}

// CreateSampleWordsFile 写入示例单词列表
func (ci *ConfigInitializer) CreateSampleWordsFile(path string) error {
	sample := `# 每行一个单词，# 开头的行会被忽略
apple
cat
dog
`
	return ci.writeFile(path, []byte(sample), "示例单词列表")
}

// CreateSampleWorkflow 写入一个基础的 ComfyUI 文生图工作流（API 格式）
func (ci *ConfigInitializer) CreateSampleWorkflow(path string) error {
	return ci.writeFile(path, []byte(sampleWorkflow), "ComfyUI 工作流")
}

func (ci *ConfigInitializer) writeFile(path string, data []byte, what string) error {
	if _, err := os.Stat(path); err == nil && !ci.force {
		fmt.Printf("%s %s 已存在，跳过\n", what, path)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入%s失败: %w", what, err)
	}
	fmt.Printf("✅ %s已创建: %s\n", what, path)
	return nil
}

// ShowQuickStart 显示快速开始指南
func (ci *ConfigInitializer) ShowQuickStart(configPath string) {
	fmt.Println()
	fmt.Println("🚀 快速开始指南:")
	fmt.Println()
	fmt.Printf("1. 编辑 %s，填写 azure_openai、comfyui 以及所选 TTS 的密钥\n", configPath)
	fmt.Println("2. 生成单个单词视频:")
	fmt.Println("   word2video generate -w apple")
	fmt.Println("3. 批量生成并拼接:")
	fmt.Println("   word2video generate --words-file words.txt --combine")
	fmt.Println("4. 不调用任何外部服务，仅用已有素材合成:")
	fmt.Println("   word2video generate -w apple --skip-prompt --image-path apple.png --audio-path apple.wav --tts edge")
	fmt.Println()
}

const sampleWorkflow = `{
  "3": {
    "class_type": "KSampler",
    "inputs": {
      "seed": 42,
      "steps": 25,
      "cfg": 7,
      "sampler_name": "euler_ancestral",
      "scheduler": "normal",
      "denoise": 1,
      "model": ["4", 0],
      "positive": ["6", 0],
      "negative": ["7", 0],
      "latent_image": ["5", 0]
    }
  },
  "4": {
    "class_type": "CheckpointLoaderSimple",
    "inputs": {"ckpt_name": "dreamshaper_8.safetensors"}
  },
  "5": {
    "class_type": "EmptyLatentImage",
    "inputs": {"width": 1024, "height": 1024, "batch_size": 1}
  },
  "6": {
    "class_type": "CLIPTextEncode",
    "inputs": {"text": "", "clip": ["4", 1]}
  },
  "7": {
    "class_type": "CLIPTextEncode",
    "inputs": {"text": "", "clip": ["4", 1]}
  },
  "8": {
    "class_type": "VAEDecode",
    "inputs": {"samples": ["3", 0], "vae": ["4", 2]}
  },
  "9": {
    "class_type": "SaveImage",
    "inputs": {"filename_prefix": "word2video", "images": ["8", 0]}
  }
}
`
