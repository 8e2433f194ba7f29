package model

import "time"

// Stage 单词处理阶段
type Stage string

const (
	StagePrompt   Stage = "prompt"
	StageImage    Stage = "image"
	StageAudio    Stage = "audio"
	StageSubtitle Stage = "subtitle"
	StageVideo    Stage = "video"
)

// Stages 按执行顺序排列的阶段
var Stages = []Stage{StagePrompt, StageImage, StageAudio, StageSubtitle, StageVideo}

// StageStatus 阶段状态
type StageStatus string

const (
	StatusPending StageStatus = "pending"
	StatusDone    StageStatus = "done"
	StatusSkipped StageStatus = "skipped"
	StatusFailed  StageStatus = "failed"
)

// PromptRecord 提示词服务返回的结构化文本
type PromptRecord struct {
	Word         string `json:"word"`
	WordZh       string `json:"word_zh"`
	WordPrompt   string `json:"word_prompt"`
	Phrase       string `json:"phrase"`
	PhraseZh     string `json:"phrase_zh"`
	PhrasePrompt string `json:"phrase_prompt"`
}

// UnitAssets 一个渲染单元（单词或短语）的产物路径
type UnitAssets struct {
	Image          string  `json:"image,omitempty"`
	AudioEn        string  `json:"audio_en,omitempty"`
	AudioZh        string  `json:"audio_zh,omitempty"`
	Audio          string  `json:"audio,omitempty"` // 合成后的音轨
	Duration       float64 `json:"duration,omitempty"`
	Subtitle       string  `json:"subtitle,omitempty"`
	Video          string  `json:"video,omitempty"`
	SubtitledVideo string  `json:"subtitled_video,omitempty"`
}

// PreferredVideo 优先返回带字幕的视频
func (u UnitAssets) PreferredVideo() string {
	if u.SubtitledVideo != "" {
		return u.SubtitledVideo
	}
	return u.Video
}

// WordResult 单个单词的处理结果，每个阶段完成后写入 result.json
type WordResult struct {
	Index      int                   `json:"index"`
	TaskID     string                `json:"task_id"`
	Dir        string                `json:"dir"`
	Prompt     PromptRecord          `json:"prompt"`
	WordUnit   UnitAssets            `json:"word_unit"`
	PhraseUnit UnitAssets            `json:"phrase_unit"`
	Stages     map[Stage]StageStatus `json:"stages"`
	Error      string                `json:"error,omitempty"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at,omitempty"`
}

// NewWordResult 创建所有阶段均为 pending 的结果
func NewWordResult(index int, taskID, word, dir string) *WordResult {
	r := &WordResult{
		Index:     index,
		TaskID:    taskID,
		Dir:       dir,
		Prompt:    PromptRecord{Word: word},
		Stages:    make(map[Stage]StageStatus, len(Stages)),
		StartedAt: time.Now(),
	}
	for _, s := range Stages {
		r.Stages[s] = StatusPending
	}
	return r
}

// Word 单词文本
func (r *WordResult) Word() string {
	return r.Prompt.Word
}

// SetStage 更新阶段状态
func (r *WordResult) SetStage(stage Stage, status StageStatus) {
	if r.Stages == nil {
		r.Stages = make(map[Stage]StageStatus, len(Stages))
	}
	r.Stages[stage] = status
}

// Failed 是否有阶段失败
func (r *WordResult) Failed() bool {
	for _, status := range r.Stages {
		if status == StatusFailed {
			return true
		}
	}
	return false
}

// RenderedUnits 已生成视频的单元，单词在前短语在后
func (r *WordResult) RenderedUnits() []UnitAssets {
	var units []UnitAssets
	for _, u := range []UnitAssets{r.WordUnit, r.PhraseUnit} {
		if u.Video != "" {
			units = append(units, u)
		}
	}
	return units
}

// Videos 单词在前短语在后，带字幕版本优先
func (r *WordResult) Videos() []string {
	var videos []string
	for _, u := range r.RenderedUnits() {
		videos = append(videos, u.PreferredVideo())
	}
	return videos
}
