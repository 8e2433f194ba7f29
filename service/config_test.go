package service

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/difyz9/word2video/model"
)

func TestLoadConfigMissingFile(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.OutputDir != "output" || config.Video.Quality != "medium" || config.Concurrent.MaxWorkers != 1 {
		t.Fatalf("defaults not applied: %+v", config)
	}
	if config.Timeline.LeadSilence != 0.3 || config.Timeline.AudioGap != 0.3 || config.Timeline.FallbackDuration != 2.0 {
		t.Fatalf("timeline defaults = %+v", config.Timeline)
	}
}

func TestLoadConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	mustWriteFile(t, path, []byte(`
output_dir: videos
comfyui:
  timeout: 90s
tts:
  provider: edge
timeline:
  end_pause: 1.5
subtitle:
  policy: segment
`))

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.OutputDir != "videos" || config.TTS.Provider != "edge" || config.Subtitle.Policy != "segment" {
		t.Fatalf("overlay not applied: %+v", config)
	}
	if config.ComfyUI.Timeout != 90*time.Second {
		t.Fatalf("comfyui.timeout = %v, want 90s", config.ComfyUI.Timeout)
	}
	if config.Timeline.EndPause != 1.5 || config.Timeline.AudioGap != 0.3 {
		t.Fatalf("timeline = %+v", config.Timeline)
	}
	// 未出现的字段保持默认
	if config.ComfyUI.APIURL != "http://127.0.0.1:8188" {
		t.Fatalf("comfyui.api_url = %q", config.ComfyUI.APIURL)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	mustWriteFile(t, path, []byte("output_dir: [unclosed"))

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() error = nil, want parse error")
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("AZURE_OPENAI_API_KEY", "env-key")
	t.Setenv("TENCENT_SECRET_ID", "env-id")
	t.Setenv("TENCENTCLOUD_SECRET_KEY", "env-secret")
	t.Setenv("MOYIN_API_KEY", "env-moyin")

	path := filepath.Join(t.TempDir(), "config.yaml")
	mustWriteFile(t, path, []byte(`
azure_openai:
  api_key: your_api_key
moyin:
  api_key: file-moyin
`))

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.AzureOpenAI.APIKey != "env-key" {
		t.Errorf("placeholder not replaced: %q", config.AzureOpenAI.APIKey)
	}
	if config.TencentCloud.SecretID != "env-id" || config.TencentCloud.SecretKey != "env-secret" {
		t.Errorf("tencent = %+v", config.TencentCloud)
	}
	if config.Moyin.APIKey != "file-moyin" {
		t.Errorf("file value overridden: %q", config.Moyin.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantKey string
	}{
		{"azure ok", ValidateAzureOpenAI(model.AzureOpenAIConfig{Endpoint: "https://x", APIKey: "k", Deployment: "d", PromptsFile: "p.json"}), ""},
		{"azure deployment", ValidateAzureOpenAI(model.AzureOpenAIConfig{Endpoint: "https://x", APIKey: "k"}), "deployment_name"},
		{"comfy workflow", ValidateComfyUI(model.ComfyUIConfig{APIURL: "http://x"}), "workflow_file"},
		{"tencent placeholder", ValidateTencentCloud(model.TencentCloudConfig{SecretID: placeholderSecretID, SecretKey: "s", Region: "r"}), "secret_id"},
		{"tencent region", ValidateTencentCloud(model.TencentCloudConfig{SecretID: "i", SecretKey: "s"}), "region"},
		{"moyin speaker", ValidateMoyin(model.MoyinConfig{APIURL: "u", APIKey: "k", APISecret: "s", SpeakerEn: "en"}), "speaker_zh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantKey == "" {
				if tt.err != nil {
					t.Fatalf("err = %v, want nil", tt.err)
				}
				return
			}
			var cfgErr *model.ConfigError
			if !errors.As(tt.err, &cfgErr) || cfgErr.Key != tt.wantKey {
				t.Fatalf("err = %v, want ConfigError key %s", tt.err, tt.wantKey)
			}
		})
	}
}
