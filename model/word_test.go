package model

import (
	"reflect"
	"testing"
)

func TestNewWordResult(t *testing.T) {
	r := NewWordResult(2, "1700000000", "cat", "output/1700000000/cat")
	if r.Word() != "cat" || r.Index != 2 {
		t.Fatalf("NewWordResult() = %+v", r)
	}
	for _, s := range Stages {
		if r.Stages[s] != StatusPending {
			t.Errorf("stage %s = %s, want pending", s, r.Stages[s])
		}
	}
	if r.Failed() {
		t.Fatal("Failed() = true for a new result")
	}

	r.SetStage(StageImage, StatusFailed)
	if !r.Failed() {
		t.Fatal("Failed() = false after image failure")
	}
}

func TestSetStageNilMap(t *testing.T) {
	var r WordResult
	r.SetStage(StageVideo, StatusDone)
	if r.Stages[StageVideo] != StatusDone {
		t.Fatalf("Stages = %v", r.Stages)
	}
}

func TestVideos(t *testing.T) {
	r := WordResult{
		WordUnit:   UnitAssets{Video: "word_video.mp4", SubtitledVideo: "word_video_subtitled.mp4"},
		PhraseUnit: UnitAssets{Video: "phrase_video.mp4"},
	}
	want := []string{"word_video_subtitled.mp4", "phrase_video.mp4"}
	if got := r.Videos(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Videos() = %v, want %v", got, want)
	}

	if got := (&WordResult{}).Videos(); len(got) != 0 {
		t.Fatalf("Videos() = %v, want none", got)
	}
}
