package media

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestSubtitleMuxerSoft(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "word_video.mp4")
	srt := filepath.Join(dir, "word_subtitle.srt")
	mustWriteFile(t, video, "mp4")
	mustWriteFile(t, srt, "1\n")

	runner := &fakeRunner{}
	out := filepath.Join(dir, "word_video_subtitled.mp4")
	got, err := NewSubtitleMuxer("", "", runner, nil).Attach(context.Background(), video, srt, EmbedSoft, out)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if got != out {
		t.Fatalf("Attach() = %q, want %q", got, out)
	}
	call := runner.Calls()[0]
	if argValue(call, "-c:s") != "mov_text" || argValue(call, "-c:v") != "copy" {
		t.Fatalf("unexpected soft args: %v", call)
	}
	if argValue(call, "-metadata:s:s:0") != "language=eng" {
		t.Fatalf("missing language metadata: %v", call)
	}
}

func TestSubtitleMuxerHard(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "v.mp4")
	srt := filepath.Join(dir, "s.srt")
	mustWriteFile(t, video, "mp4")
	mustWriteFile(t, srt, "1\n")

	runner := &fakeRunner{}
	if _, err := NewSubtitleMuxer("", "FontSize=20", runner, nil).Attach(context.Background(), video, srt, EmbedHard, filepath.Join(dir, "o.mp4")); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	vf := argValue(runner.Calls()[0], "-vf")
	if !strings.HasPrefix(vf, "subtitles=") || !strings.HasSuffix(vf, ":force_style='FontSize=20'") {
		t.Fatalf("-vf = %q", vf)
	}
}

func TestSubtitleMuxerNone(t *testing.T) {
	runner := &fakeRunner{}
	got, err := NewSubtitleMuxer("", "", runner, nil).Attach(context.Background(), "v.mp4", "s.srt", EmbedNone, "o.mp4")
	if err != nil || got != "" {
		t.Fatalf("Attach() = %q, %v; want empty, nil", got, err)
	}
	if len(runner.Calls()) != 0 {
		t.Fatal("ffmpeg should not run")
	}
}

func TestEscapeFilterPath(t *testing.T) {
	if got := escapeFilterPath("/out/a:b'c.srt"); got != `/out/a\:b\'c.srt` {
		t.Fatalf("escapeFilterPath() = %q", got)
	}
}
