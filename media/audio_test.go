package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestAudioCompositor(t *testing.T, runner CommandRunner) (*AudioCompositor, *string) {
	t.Helper()
	c := NewAudioCompositor(EncoderOptions{TempDir: t.TempDir()}, runner, nil)
	var workDir string
	c.mkdirTemp = func(dir, pattern string) (string, error) {
		d, err := os.MkdirTemp(dir, pattern)
		workDir = d
		return d, err
	}
	return c, &workDir
}

func TestAudioCompositorOrder(t *testing.T) {
	out := filepath.Join(t.TempDir(), "cat", "word_audio.aac")
	runner := &fakeRunner{}
	c, workDir := newTestAudioCompositor(t, runner)

	tl := Layout(
		[]AudioSegment{{Label: "word_en", Path: "en.wav"}, {Label: "word_zh", Path: "zh.wav"}, {Label: "phrase_en", Path: "p.wav"}},
		[]float64{1, 1, 1},
		TimelineOptions{LeadSilence: 0.3, Gap: 0.5, EndPause: 1},
	)

	got, err := c.Compose(context.Background(), tl, out)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if got.Path != out || got.Duration != tl.TotalDuration {
		t.Fatalf("Compose() = %+v, want path %s duration %v", got, out, tl.TotalDuration)
	}

	calls := runner.Calls()
	// lead, gap, end pause, concat
	if len(calls) != 4 {
		t.Fatalf("ffmpeg calls = %d, want 4", len(calls))
	}
	if d := argValue(calls[0], "-t"); d != "0.300" {
		t.Fatalf("lead silence -t = %q, want 0.300", d)
	}
	if d := argValue(calls[1], "-t"); d != "0.500" {
		t.Fatalf("gap silence -t = %q, want 0.500", d)
	}
	if d := argValue(calls[2], "-t"); d != "1.000" {
		t.Fatalf("end pause -t = %q, want 1.000", d)
	}

	concat := calls[3]
	inputs := argValues(concat, "-i")
	lead := filepath.Join(*workDir, "lead_silence.aac")
	gap := filepath.Join(*workDir, "gap_silence.aac")
	tail := filepath.Join(*workDir, "end_pause.aac")
	want := []string{lead, "en.wav", gap, "zh.wav", gap, "p.wav", tail}
	if strings.Join(inputs, ",") != strings.Join(want, ",") {
		t.Fatalf("concat inputs = %v, want %v", inputs, want)
	}
	if f := argValue(concat, "-filter_complex"); f != "[0:a][1:a][2:a][3:a][4:a][5:a][6:a]concat=n=7:v=0:a=1[out]" {
		t.Fatalf("filter = %q", f)
	}
	if concat[len(concat)-1] != out {
		t.Fatalf("output = %q, want %q", concat[len(concat)-1], out)
	}

	if _, err := os.Stat(*workDir); !os.IsNotExist(err) {
		t.Fatalf("temp dir %s not removed", *workDir)
	}
}

func TestAudioCompositorSingleSegmentNoGapClip(t *testing.T) {
	runner := &fakeRunner{}
	c, _ := newTestAudioCompositor(t, runner)
	tl := Layout([]AudioSegment{{Label: "word_en", Path: "en.wav"}}, []float64{1}, TimelineOptions{Gap: 0.3})

	if _, err := c.Compose(context.Background(), tl, filepath.Join(t.TempDir(), "a.aac")); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	calls := runner.Calls()
	if len(calls) != 1 {
		t.Fatalf("ffmpeg calls = %d, want 1 (concat only)", len(calls))
	}
	if inputs := argValues(calls[0], "-i"); len(inputs) != 1 || inputs[0] != "en.wav" {
		t.Fatalf("inputs = %v", inputs)
	}
}

func TestAudioCompositorFailureCleansUp(t *testing.T) {
	runner := &fakeRunner{
		run: func(name string, args []string) (CommandResult, error) {
			if argValue(args, "-filter_complex") != "" {
				return CommandResult{Stderr: "Error while filtering", ExitCode: 1}, nil
			}
			return CommandResult{}, nil
		},
	}
	c, workDir := newTestAudioCompositor(t, runner)
	tl := Layout([]AudioSegment{{Path: "a.wav"}, {Path: "b.wav"}}, []float64{1, 1}, TimelineOptions{LeadSilence: 0.3, Gap: 0.3})

	_, err := c.Compose(context.Background(), tl, filepath.Join(t.TempDir(), "a.aac"))
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("err = %v, want *CommandError", err)
	}
	if !strings.Contains(cmdErr.Stderr, "Error while filtering") {
		t.Fatalf("stderr = %q", cmdErr.Stderr)
	}
	if _, err := os.Stat(*workDir); !os.IsNotExist(err) {
		t.Fatalf("temp dir %s not removed after failure", *workDir)
	}
}

func TestAudioCompositorEmptyTimeline(t *testing.T) {
	runner := &fakeRunner{}
	c, _ := newTestAudioCompositor(t, runner)
	_, err := c.Compose(context.Background(), Timeline{}, "out.aac")
	if !errors.Is(err, ErrEmptyTimeline) {
		t.Fatalf("err = %v, want ErrEmptyTimeline", err)
	}
	if len(runner.Calls()) != 0 {
		t.Fatal("no ffmpeg call expected for an empty timeline")
	}
}
