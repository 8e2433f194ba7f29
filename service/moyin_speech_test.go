package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/difyz9/word2video/model"
)

func testMoyinConfig(url string) model.MoyinConfig {
	return model.MoyinConfig{
		APIURL:    url,
		APIKey:    "key",
		APISecret: "secret",
		SpeakerEn: "cissy_meet",
		SpeakerZh: "xiaoyi_meet",
		Speed:     0.8,
		Pitch:     1,
		Volume:    1,
		Rate:      16000,
	}
}

func TestMoyinSpeechProvider(t *testing.T) {
	var got moyinRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(wavBytes())
	}))
	defer server.Close()

	p, err := NewMoyinSpeechProvider(testMoyinConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("NewMoyinSpeechProvider() error = %v", err)
	}
	p.now = func() time.Time { return time.Unix(1700000000, 0) }

	out := filepath.Join(t.TempDir(), "word_zh_audio.wav")
	err = p.Synthesize(context.Background(), model.SpeechRequest{Text: "苹果", Language: model.LangZh, OutputPath: out})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if got.Speaker != "xiaoyi_meet" {
		t.Fatalf("speaker = %q, want xiaoyi_meet", got.Speaker)
	}
	if got.Timestamp != 1700000000 || got.AppKey != "key" || got.AudioType != "wav" {
		t.Fatalf("request = %+v", got)
	}
	if want := moyinSignature("key", "secret", 1700000000); got.Signature != want {
		t.Fatalf("signature = %q, want %q", got.Signature, want)
	}
	if err := validateAudioFile(out); err != nil {
		t.Fatalf("output not written: %v", err)
	}
}

func TestMoyinSpeechProviderErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"errcode":1001,"errmsg":"invalid signature"}`))
	}))
	defer server.Close()

	p, err := NewMoyinSpeechProvider(testMoyinConfig(server.URL), nil)
	if err != nil {
		t.Fatalf("NewMoyinSpeechProvider() error = %v", err)
	}

	out := filepath.Join(t.TempDir(), "a.wav")
	err = p.Synthesize(context.Background(), model.SpeechRequest{Text: "apple", Language: model.LangEn, OutputPath: out})
	if err == nil || !strings.Contains(err.Error(), "invalid signature") {
		t.Fatalf("Synthesize() error = %v, want API body in error", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatal("output file written for error response")
	}
}

func TestMoyinSignature(t *testing.T) {
	// md5("key" + "secret" + "1700000000")
	got := moyinSignature("key", "secret", 1700000000)
	if len(got) != 32 || strings.ToLower(got) != got {
		t.Fatalf("signature = %q, want 32 lowercase hex chars", got)
	}
	if moyinSignature("key", "secret", 1700000001) == got {
		t.Fatal("signature does not depend on timestamp")
	}
}

func TestNewMoyinSpeechProviderConfigError(t *testing.T) {
	cfg := testMoyinConfig("http://localhost")
	cfg.APIKey = placeholderAPIKey
	_, err := NewMoyinSpeechProvider(cfg, nil)
	cfgErr, ok := err.(*model.ConfigError)
	if !ok || cfgErr.Key != "api_key" {
		t.Fatalf("err = %v, want ConfigError for api_key", err)
	}
}
