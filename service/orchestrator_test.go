package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/difyz9/word2video/model"
)

// fakeProcessor 按单词返回结果，delays 用于打乱完成顺序
type fakeProcessor struct {
	fail      map[string]model.Stage
	delays    map[string]time.Duration
	subtitled bool // 为 true 时两个单元都有字幕版本，否则只有短语有
}

func (f fakeProcessor) Process(ctx context.Context, index int, taskID, word, dir string) (*model.WordResult, error) {
	time.Sleep(f.delays[word])
	r := model.NewWordResult(index, taskID, word, dir)
	if stage, ok := f.fail[word]; ok {
		r.SetStage(stage, model.StatusFailed)
		r.Error = "boom"
		return r, &StageError{Word: word, Stage: stage, Err: errors.New("boom")}
	}
	for _, s := range model.Stages {
		r.SetStage(s, model.StatusDone)
	}
	r.WordUnit.Video = filepath.Join(dir, "word_video.mp4")
	r.PhraseUnit.Video = filepath.Join(dir, "phrase_video.mp4")
	r.PhraseUnit.SubtitledVideo = filepath.Join(dir, "phrase_video_subtitled.mp4")
	if f.subtitled {
		r.WordUnit.SubtitledVideo = filepath.Join(dir, "word_video_subtitled.mp4")
	}
	return r, nil
}

type fakeConcat struct {
	mu     sync.Mutex
	videos []string
	output string
	err    error
}

func (f *fakeConcat) Concat(ctx context.Context, videos []string, output string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos = videos
	f.output = output
	return f.err
}

func newTestOrchestrator(t *testing.T, p WordProcessor, c VideoConcatenator, workers int) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(p, c, BatchOptions{OutputDir: t.TempDir(), MaxWorkers: workers, Combine: true}, nil)
	o.newTaskID = func() string { return "1700000000" }
	return o
}

func TestOrchestratorIsolatesFailures(t *testing.T) {
	concat := &fakeConcat{}
	o := newTestOrchestrator(t, fakeProcessor{fail: map[string]model.Stage{"dog": model.StageImage}}, concat, 1)

	batch, err := o.Run(context.Background(), []string{"cat", "dog"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(batch.Results) != 1 || batch.Results[0].Word() != "cat" {
		t.Fatalf("Results = %+v, want only cat", batch.Results)
	}
	if len(batch.Failed) != 1 || batch.Failed[0].Word() != "dog" {
		t.Fatalf("Failed = %+v, want dog", batch.Failed)
	}
	if batch.Failed[0].Stages[model.StageImage] != model.StatusFailed {
		t.Fatalf("dog stages = %v", batch.Failed[0].Stages)
	}
	if len(concat.videos) != 2 {
		t.Fatalf("combined videos = %v, want cat's two videos", concat.videos)
	}
}

func TestOrchestratorPreservesOrder(t *testing.T) {
	concat := &fakeConcat{}
	words := []string{"alpha", "bravo", "charlie", "delta"}
	p := fakeProcessor{delays: map[string]time.Duration{
		"alpha":   40 * time.Millisecond,
		"bravo":   5 * time.Millisecond,
		"charlie": 20 * time.Millisecond,
	}}
	o := newTestOrchestrator(t, p, concat, 4)

	batch, err := o.Run(context.Background(), words)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for i, r := range batch.Results {
		if r.Word() != words[i] || r.Index != i {
			t.Fatalf("Results[%d] = %s (index %d), want %s", i, r.Word(), r.Index, words[i])
		}
	}

	if len(concat.videos) != 8 {
		t.Fatalf("combined videos = %d, want 8", len(concat.videos))
	}
	for i, w := range words {
		word, phrase := concat.videos[2*i], concat.videos[2*i+1]
		if !strings.Contains(word, w) || filepath.Base(word) != "word_video.mp4" {
			t.Fatalf("video %d = %s, want %s word video", 2*i, word, w)
		}
		if !strings.Contains(phrase, w) || filepath.Base(phrase) != "phrase_video.mp4" {
			t.Fatalf("video %d = %s, want %s phrase video", 2*i+1, phrase, w)
		}
	}
	if batch.Combined != filepath.Join(batch.Dir, "combined.mp4") || concat.output != batch.Combined {
		t.Fatalf("Combined = %q, concat output = %q", batch.Combined, concat.output)
	}
}

func TestOrchestratorCombineFailureIsNotFatal(t *testing.T) {
	concat := &fakeConcat{err: errors.New("Non-monotonous DTS")}
	o := newTestOrchestrator(t, fakeProcessor{}, concat, 1)

	batch, err := o.Run(context.Background(), []string{"cat"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if batch.CombineErr == nil || batch.Combined != "" {
		t.Fatalf("CombineErr = %v, Combined = %q", batch.CombineErr, batch.Combined)
	}
	if len(batch.Results) != 1 {
		t.Fatalf("Results = %d, want 1", len(batch.Results))
	}
	if got := batch.LastVideo(); filepath.Base(got) != "phrase_video_subtitled.mp4" {
		t.Fatalf("LastVideo() = %q", got)
	}
}

func TestOrchestratorNoResults(t *testing.T) {
	o := newTestOrchestrator(t, fakeProcessor{fail: map[string]model.Stage{"cat": model.StageAudio}}, &fakeConcat{}, 2)

	batch, err := o.Run(context.Background(), []string{"cat"})
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("err = %v, want ErrNoResults", err)
	}
	if len(batch.Failed) != 1 {
		t.Fatalf("Failed = %d, want 1", len(batch.Failed))
	}

	if _, err := o.Run(context.Background(), nil); !errors.Is(err, ErrNoResults) {
		t.Fatalf("Run(nil) err = %v, want ErrNoResults", err)
	}
}

func TestOrchestratorCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := newTestOrchestrator(t, fakeProcessor{}, &fakeConcat{}, 1)

	batch, err := o.Run(ctx, []string{"cat", "dog"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(batch.Results) != 0 || len(batch.Failed) != 2 {
		t.Fatalf("Results = %d, Failed = %d", len(batch.Results), len(batch.Failed))
	}
}

func TestOrchestratorDirLayout(t *testing.T) {
	o := newTestOrchestrator(t, fakeProcessor{}, nil, 1)
	o.opts.Combine = false

	batch, err := o.Run(context.Background(), []string{"ice cream"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := filepath.Join(batch.Dir, "ice_cream")
	if batch.Results[0].Dir != want {
		t.Fatalf("Dir = %q, want %q", batch.Results[0].Dir, want)
	}
	if batch.TaskID != "1700000000" || filepath.Base(batch.Dir) != "1700000000" {
		t.Fatalf("TaskID = %q, Dir = %q", batch.TaskID, batch.Dir)
	}
}

func TestOrchestratorCombineUsesOneVariant(t *testing.T) {
	tests := []struct {
		name      string
		subtitled bool
		want      []string
	}{
		{"mixed falls back to plain", false, []string{"word_video.mp4", "phrase_video.mp4"}},
		{"all subtitled", true, []string{"word_video_subtitled.mp4", "phrase_video_subtitled.mp4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			concat := &fakeConcat{}
			o := newTestOrchestrator(t, fakeProcessor{subtitled: tt.subtitled}, concat, 2)

			if _, err := o.Run(context.Background(), []string{"cat", "dog"}); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if len(concat.videos) != 4 {
				t.Fatalf("combined videos = %v, want 4", concat.videos)
			}
			for i, v := range concat.videos {
				if filepath.Base(v) != tt.want[i%2] {
					t.Fatalf("video %d = %s, want %s", i, v, tt.want[i%2])
				}
			}
		})
	}
}
