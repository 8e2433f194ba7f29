package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConcatenatorManifestOrder(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "cat", "word_video.mp4")
	b := filepath.Join(dir, "dog", "word_video.mp4")
	out := filepath.Join(dir, "combined.mp4")

	var manifest, content string
	runner := &fakeRunner{
		run: func(name string, args []string) (CommandResult, error) {
			manifest = argValue(args, "-i")
			data, err := os.ReadFile(manifest)
			if err != nil {
				t.Fatalf("read manifest: %v", err)
			}
			content = string(data)
			return CommandResult{}, nil
		},
	}

	if err := NewConcatenator("", runner, nil).Concat(context.Background(), []string{a, b}, out); err != nil {
		t.Fatalf("Concat() error = %v", err)
	}

	want := "file '" + a + "'\nfile '" + b + "'\n"
	if content != want {
		t.Fatalf("manifest = %q, want %q", content, want)
	}
	call := runner.Calls()[0]
	if argValue(call, "-c") != "copy" || argValue(call, "-f") != "concat" || argValue(call, "-safe") != "0" {
		t.Fatalf("unexpected concat args: %v", call)
	}
	if _, err := os.Stat(manifest); !os.IsNotExist(err) {
		t.Fatalf("manifest %s not removed", manifest)
	}
}

func TestConcatenatorFailureRemovesManifest(t *testing.T) {
	dir := t.TempDir()
	var manifest string
	runner := &fakeRunner{
		run: func(name string, args []string) (CommandResult, error) {
			manifest = argValue(args, "-i")
			return CommandResult{Stderr: "Invalid data", ExitCode: 1}, nil
		},
	}
	err := NewConcatenator("", runner, nil).Concat(context.Background(), []string{"a.mp4"}, filepath.Join(dir, "out.mp4"))
	if err == nil || !strings.Contains(err.Error(), "Invalid data") {
		t.Fatalf("err = %v, want stderr in error", err)
	}
	if _, err := os.Stat(manifest); !os.IsNotExist(err) {
		t.Fatalf("manifest %s not removed", manifest)
	}
}

func TestEscapeConcatPath(t *testing.T) {
	if got := escapeConcatPath("/tmp/it's.mp4"); got != `/tmp/it'\''s.mp4` {
		t.Fatalf("escapeConcatPath() = %q", got)
	}
}

func TestConcatenatorEmpty(t *testing.T) {
	if err := NewConcatenator("", &fakeRunner{}, nil).Concat(context.Background(), nil, "out.mp4"); err == nil {
		t.Fatal("expected error for empty list")
	}
}
