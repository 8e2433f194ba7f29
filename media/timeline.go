package media

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"
)

// ErrEmptyTimeline 时间线中没有任何可用音频片段
var ErrEmptyTimeline = errors.New("时间线为空，没有可用的音频片段")

// AudioSegment 时间线中的一个音频片段
type AudioSegment struct {
	Label    string // word_en, word_zh, phrase_en, phrase_zh
	Path     string
	Text     string
	Language string
}

// Placement 片段在时间线上的位置
type Placement struct {
	Segment AudioSegment
	Start   float64
	End     float64
}

// Duration 片段时长
func (p Placement) Duration() float64 {
	return p.End - p.Start
}

// TimelineOptions 时间线参数（秒）
type TimelineOptions struct {
	LeadSilence float64
	Gap         float64
	EndPause    float64
}

// Timeline 一个渲染单元（单词或短语）的时间布局，构建后不再修改
type Timeline struct {
	LeadSilence   float64
	Gap           float64
	EndPause      float64
	Entries       []Placement
	TotalDuration float64
}

// Empty 是否没有任何片段
func (t Timeline) Empty() bool {
	return len(t.Entries) == 0
}

// Span 第一个片段开始到最后一个片段结束
func (t Timeline) Span() (start, end float64) {
	if t.Empty() {
		return 0, 0
	}
	return t.Entries[0].Start, t.Entries[len(t.Entries)-1].End
}

// Layout 根据已知时长计算时间线，纯函数
//
// 第一个片段从 LeadSilence 开始，之后每个片段在上一个结束后间隔 Gap 开始；
// 最后一个片段之后不加 Gap，总时长为最后结束时间加 EndPause。
func Layout(segments []AudioSegment, durations []float64, opts TimelineOptions) Timeline {
	opts = opts.normalized()
	tl := Timeline{
		LeadSilence: opts.LeadSilence,
		Gap:         opts.Gap,
		EndPause:    opts.EndPause,
		Entries:     make([]Placement, 0, len(segments)),
	}

	cursor := opts.LeadSilence
	end := opts.LeadSilence
	for i, seg := range segments {
		d := 0.0
		if i < len(durations) && durations[i] > 0 {
			d = durations[i]
		}
		start := cursor
		end = start + d
		tl.Entries = append(tl.Entries, Placement{Segment: seg, Start: start, End: end})
		cursor = end + opts.Gap
	}

	tl.TotalDuration = end + opts.EndPause
	return tl
}

func (o TimelineOptions) normalized() TimelineOptions {
	if o.LeadSilence < 0 {
		o.LeadSilence = 0
	}
	if o.Gap < 0 {
		o.Gap = 0
	}
	if o.EndPause < 0 {
		o.EndPause = 0
	}
	return o
}

// TimelineBuilder 探测片段时长并构建时间线
type TimelineBuilder struct {
	prober DurationProber
	stat   func(string) (os.FileInfo, error)
	logger *zap.Logger
}

// NewTimelineBuilder 创建时间线构建器
func NewTimelineBuilder(prober DurationProber, logger *zap.Logger) *TimelineBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimelineBuilder{
		prober: prober,
		stat:   os.Stat,
		logger: logger,
	}
}

// Build 按顺序探测片段并计算时间线，文件不存在的片段直接跳过
func (b *TimelineBuilder) Build(ctx context.Context, segments []AudioSegment, opts TimelineOptions) Timeline {
	present := make([]AudioSegment, 0, len(segments))
	durations := make([]float64, 0, len(segments))

	for _, seg := range segments {
		if !b.exists(seg.Path) {
			b.logger.Warn("音频片段不存在，已跳过",
				zap.String("片段", seg.Label),
				zap.String("文件", seg.Path))
			continue
		}
		d, _ := b.prober.Duration(ctx, seg.Path)
		present = append(present, seg)
		durations = append(durations, d)
	}

	tl := Layout(present, durations, opts)
	b.logger.Debug("时间线构建完成",
		zap.Int("片段数", len(tl.Entries)),
		zap.Float64("总时长", tl.TotalDuration))
	return tl
}

func (b *TimelineBuilder) exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := b.stat(path)
	return err == nil && !info.IsDir()
}
