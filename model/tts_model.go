package model

// SpeechKind 朗读内容类型
type SpeechKind string

const (
	KindWord   SpeechKind = "word"
	KindPhrase SpeechKind = "phrase"
)

// Language 语言标记
type Language string

const (
	LangEn Language = "en"
	LangZh Language = "zh"
)

// SpeechRequest 语音合成请求
type SpeechRequest struct {
	Text       string
	Kind       SpeechKind
	Language   Language
	OutputPath string
}

// TencentTaskStatus 腾讯云长文本合成任务状态
type TencentTaskStatus struct {
	Status    int64
	StatusStr string
	AudioURL  string
	ErrorMsg  string
}
