package media

import (
	"context"
	"math"
	"path/filepath"
	"testing"
)

// mapProber 按路径返回固定时长
type mapProber map[string]float64

func (m mapProber) Duration(ctx context.Context, path string) (float64, bool) {
	if d, ok := m[path]; ok {
		return d, true
	}
	return DefaultFallbackDuration, false
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLayout(t *testing.T) {
	segs := []AudioSegment{{Label: "word_en"}, {Label: "word_zh"}, {Label: "phrase_en"}}
	durations := []float64{1.2, 0.8, 2.5}
	opts := TimelineOptions{LeadSilence: 0.3, Gap: 0.5}

	tl := Layout(segs, durations, opts)
	if len(tl.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(tl.Entries))
	}
	if !almostEqual(tl.Entries[0].Start, 0.3) {
		t.Fatalf("start[0] = %v, want 0.3", tl.Entries[0].Start)
	}
	for i, p := range tl.Entries {
		if !almostEqual(p.End, p.Start+durations[i]) {
			t.Fatalf("end[%d] = %v, want start+%v", i, p.End, durations[i])
		}
		if i > 0 && !almostEqual(p.Start, tl.Entries[i-1].End+opts.Gap) {
			t.Fatalf("start[%d] = %v, want previous end + gap", i, p.Start)
		}
	}
	if !almostEqual(tl.TotalDuration, tl.Entries[2].End) {
		t.Fatalf("total = %v, want last end %v (no trailing gap)", tl.TotalDuration, tl.Entries[2].End)
	}
}

func TestLayoutEndPause(t *testing.T) {
	tl := Layout([]AudioSegment{{Label: "a"}}, []float64{2}, TimelineOptions{LeadSilence: 0.3, Gap: 0.3, EndPause: 1})
	if !almostEqual(tl.TotalDuration, 3.3) {
		t.Fatalf("total = %v, want 3.3", tl.TotalDuration)
	}
}

func TestLayoutEmpty(t *testing.T) {
	tl := Layout(nil, nil, TimelineOptions{LeadSilence: 0.3, Gap: 0.3, EndPause: 0.7})
	if !tl.Empty() {
		t.Fatal("timeline should be empty")
	}
	if !almostEqual(tl.TotalDuration, 1.0) {
		t.Fatalf("total = %v, want lead + end pause = 1.0", tl.TotalDuration)
	}
}

func TestLayoutDeterministic(t *testing.T) {
	segs := []AudioSegment{{Label: "a"}, {Label: "b"}}
	opts := TimelineOptions{LeadSilence: 0.25, Gap: 0.4, EndPause: 0.1}
	a := Layout(segs, []float64{1.1, 2.2}, opts)
	b := Layout(segs, []float64{1.1, 2.2}, opts)
	for i := range a.Entries {
		if a.Entries[i].Start != b.Entries[i].Start || a.Entries[i].End != b.Entries[i].End {
			t.Fatalf("entry %d differs between runs", i)
		}
	}
	if a.TotalDuration != b.TotalDuration {
		t.Fatalf("total differs: %v vs %v", a.TotalDuration, b.TotalDuration)
	}
}

func TestTimelineBuilderSkipsMissingSegment(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "word_audio.wav")
	missing := filepath.Join(dir, "word_zh_audio.wav")
	third := filepath.Join(dir, "phrase_audio.wav")
	mustWriteFile(t, first, "RIFF")
	mustWriteFile(t, third, "RIFF")

	prober := mapProber{first: 2.0, third: 1.5}
	builder := NewTimelineBuilder(prober, nil)
	tl := builder.Build(context.Background(), []AudioSegment{
		{Label: "word_en", Path: first},
		{Label: "word_zh", Path: missing},
		{Label: "phrase_en", Path: third},
	}, TimelineOptions{LeadSilence: 0.3, Gap: 0.3})

	if len(tl.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(tl.Entries))
	}
	if tl.Entries[0].Segment.Label != "word_en" || tl.Entries[1].Segment.Label != "phrase_en" {
		t.Fatalf("unexpected order: %q, %q", tl.Entries[0].Segment.Label, tl.Entries[1].Segment.Label)
	}
	if !almostEqual(tl.Entries[0].Start, 0.3) {
		t.Fatalf("start[0] = %v, want 0.3", tl.Entries[0].Start)
	}
	if !almostEqual(tl.Entries[1].Start, 2.6) {
		t.Fatalf("start[1] = %v, want 2.6", tl.Entries[1].Start)
	}
	if !almostEqual(tl.TotalDuration, 4.1) {
		t.Fatalf("total = %v, want 4.1", tl.TotalDuration)
	}
}

func TestTimelineBuilderProbeFallback(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.wav")
	mustWriteFile(t, clip, "RIFF")

	tl := NewTimelineBuilder(mapProber{}, nil).Build(context.Background(),
		[]AudioSegment{{Label: "word_en", Path: clip}}, TimelineOptions{})
	if !almostEqual(tl.TotalDuration, DefaultFallbackDuration) {
		t.Fatalf("total = %v, want fallback %v", tl.TotalDuration, DefaultFallbackDuration)
	}
}

func TestTimelineBuilderAllMissing(t *testing.T) {
	tl := NewTimelineBuilder(mapProber{}, nil).Build(context.Background(),
		[]AudioSegment{{Label: "word_en", Path: filepath.Join(t.TempDir(), "nope.wav")}},
		TimelineOptions{LeadSilence: 0.3})
	if !tl.Empty() {
		t.Fatalf("entries = %d, want 0", len(tl.Entries))
	}
}
