package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/difyz9/word2video/media"
	"github.com/difyz9/word2video/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SpeechGenerator 语音合成服务
type SpeechGenerator interface {
	Generate(ctx context.Context, text string, kind model.SpeechKind, lang model.Language, outputPath string) (string, error)
}

// AudioFormatter 声明输出音频格式（文件扩展名，不含点）
type AudioFormatter interface {
	AudioFormat() string
}

// 复用已有音频时依次查找的扩展名
var audioExts = []string{"wav", "mp3"}

// TimelineSource 由音频片段计算时间线
type TimelineSource interface {
	Build(ctx context.Context, segments []media.AudioSegment, opts media.TimelineOptions) media.Timeline
}

// AudioComposer 按时间线合成音轨
type AudioComposer interface {
	Compose(ctx context.Context, tl media.Timeline, output string) (media.ComposedAudio, error)
}

// VideoComposer 图片加音轨合成视频
type VideoComposer interface {
	Compose(ctx context.Context, image string, audio media.ComposedAudio, quality media.Quality, output string) (string, error)
}

// SubtitleAttacher 为视频嵌入字幕
type SubtitleAttacher interface {
	Attach(ctx context.Context, video, srt string, mode media.EmbedMode, output string) (string, error)
}

// PipelineOptions 单词流水线选项
type PipelineOptions struct {
	SkipPrompt   bool
	SkipImage    bool
	SkipAudio    bool
	SkipSubtitle bool
	SkipVideo    bool

	ImagePath    string // 跳过图片生成时使用的图片
	AudioPath    string // 跳过语音合成时使用的音频
	CustomPrompt string

	Timeline       media.TimelineOptions
	Quality        media.Quality
	SubtitlePolicy media.SubtitlePolicy
	SubtitleEmbed  media.EmbedMode
}

// PipelineDeps 流水线依赖，跳过的阶段对应的服务可以为 nil
type PipelineDeps struct {
	Prompts   PromptService
	Images    ImageService
	Speech    SpeechGenerator
	Timelines TimelineSource
	Audio     AudioComposer
	Video     VideoComposer
	Subtitles SubtitleAttacher
}

// WordPipeline 单个单词的处理流程 PROMPT → IMAGE → AUDIO → SUBTITLE → VIDEO
type WordPipeline struct {
	deps   PipelineDeps
	opts   PipelineOptions
	logger *zap.Logger
}

// NewWordPipeline 创建单词流水线
func NewWordPipeline(deps PipelineDeps, opts PipelineOptions, logger *zap.Logger) *WordPipeline {
	if opts.Quality == "" {
		opts.Quality = media.QualityMedium
	}
	if opts.SubtitlePolicy == "" {
		opts.SubtitlePolicy = media.PolicyConsolidated
	}
	if opts.SubtitleEmbed == "" {
		opts.SubtitleEmbed = media.EmbedNone
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WordPipeline{deps: deps, opts: opts, logger: logger}
}

// renderUnit 单词单元或短语单元
type renderUnit struct {
	name   string
	kind   model.SpeechKind
	assets *model.UnitAssets
	textEn string
	textZh string
	prompt string
}

func (p *WordPipeline) units(r *model.WordResult) []renderUnit {
	phrasePrompt := r.Prompt.PhrasePrompt
	if phrasePrompt == "" {
		phrasePrompt = r.Prompt.WordPrompt
	}
	return []renderUnit{
		{name: "word", kind: model.KindWord, assets: &r.WordUnit, textEn: r.Prompt.Word, textZh: r.Prompt.WordZh, prompt: r.Prompt.WordPrompt},
		{name: "phrase", kind: model.KindPhrase, assets: &r.PhraseUnit, textEn: r.Prompt.Phrase, textZh: r.Prompt.PhraseZh, prompt: phrasePrompt},
	}
}

// Process 处理一个单词；返回的结果总是非 nil，失败时 error 为 *StageError
func (p *WordPipeline) Process(ctx context.Context, index int, taskID, word, dir string) (*model.WordResult, error) {
	result := model.NewWordResult(index, taskID, word, dir)
	log := p.logger.With(zap.String("word", word))

	if err := os.MkdirAll(dir, 0755); err != nil {
		result.Error = err.Error()
		return result, &StageError{Word: word, Stage: model.StagePrompt, Err: err}
	}

	timelines := make(map[string]media.Timeline)
	stages := []struct {
		stage model.Stage
		skip  bool
		run   func(context.Context, *model.WordResult) error
	}{
		{model.StagePrompt, p.opts.SkipPrompt, p.promptStage},
		{model.StageImage, p.opts.SkipImage, p.imageStage},
		{model.StageAudio, p.opts.SkipAudio, p.audioStage},
		{model.StageSubtitle, p.opts.SkipSubtitle, func(ctx context.Context, r *model.WordResult) error {
			return p.subtitleStage(ctx, r, timelines)
		}},
		{model.StageVideo, p.opts.SkipVideo, func(ctx context.Context, r *model.WordResult) error {
			return p.videoStage(ctx, r, timelines)
		}},
	}

	for _, s := range stages {
		if err := p.runStage(ctx, log, result, s.stage, s.skip, s.run); err != nil {
			result.FinishedAt = time.Now()
			p.save(log, result)
			return result, err
		}
	}

	result.FinishedAt = time.Now()
	p.save(log, result)
	log.Info("单词处理完成", zap.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)))
	return result, nil
}

func (p *WordPipeline) runStage(ctx context.Context, log *zap.Logger, result *model.WordResult, stage model.Stage, skip bool, fn func(context.Context, *model.WordResult) error) error {
	log = log.With(zap.String("stage", string(stage)))

	if err := ctx.Err(); err != nil {
		result.SetStage(stage, model.StatusFailed)
		result.Error = err.Error()
		return &StageError{Word: result.Word(), Stage: stage, Err: err}
	}

	if skip {
		// 跳过的阶段仍要填充后续阶段需要的字段
		if err := p.fallback(ctx, result, stage); err != nil {
			result.SetStage(stage, model.StatusFailed)
			result.Error = err.Error()
			log.Error("阶段失败", zap.Error(err))
			return &StageError{Word: result.Word(), Stage: stage, Err: err}
		}
		result.SetStage(stage, model.StatusSkipped)
		p.save(log, result)
		log.Info("跳过阶段")
		return nil
	}

	log.Info("阶段开始")
	start := time.Now()
	err := fn(ctx, result)
	elapsed := time.Since(start)
	if err != nil {
		result.SetStage(stage, model.StatusFailed)
		result.Error = err.Error()
		log.Error("阶段失败", zap.Duration("elapsed", elapsed), zap.Error(err))
		return &StageError{Word: result.Word(), Stage: stage, Err: err}
	}

	result.SetStage(stage, model.StatusDone)
	p.save(log, result)
	log.Info("阶段完成", zap.Duration("elapsed", elapsed))
	return nil
}

func (p *WordPipeline) save(log *zap.Logger, result *model.WordResult) {
	if err := SaveWordResult(result); err != nil {
		log.Warn("保存结果失败", zap.Error(err))
	}
}

// fallback 处理被跳过的阶段：提示词沿用旧结果，图片和音频使用指定文件或已有文件
func (p *WordPipeline) fallback(ctx context.Context, r *model.WordResult, stage model.Stage) error {
	switch stage {
	case model.StagePrompt:
		static := StaticPromptService{
			CustomPrompt: p.opts.CustomPrompt,
			ResultPath:   func(string) string { return ResultPath(r.Dir) },
		}
		record, err := static.Generate(ctx, r.Word())
		if err != nil {
			return err
		}
		r.Prompt = record
	case model.StageImage:
		if p.opts.ImagePath != "" {
			if !fileExists(p.opts.ImagePath) {
				return fmt.Errorf("%w: 图片 %s", ErrMissingArtifact, p.opts.ImagePath)
			}
			r.WordUnit.Image = p.opts.ImagePath
			r.PhraseUnit.Image = p.opts.ImagePath
			return nil
		}
		for _, u := range p.units(r) {
			if path := filepath.Join(r.Dir, u.name+"_image.png"); fileExists(path) {
				u.assets.Image = path
			}
		}
	case model.StageAudio:
		if p.opts.AudioPath != "" {
			if !fileExists(p.opts.AudioPath) {
				return fmt.Errorf("%w: 音频 %s", ErrMissingArtifact, p.opts.AudioPath)
			}
			r.WordUnit.AudioEn = p.opts.AudioPath
			r.PhraseUnit.AudioEn = p.opts.AudioPath
			return nil
		}
		for _, u := range p.units(r) {
			u.assets.AudioEn = existingAudio(r.Dir, u.name, model.LangEn)
			u.assets.AudioZh = existingAudio(r.Dir, u.name, model.LangZh)
		}
	}
	return nil
}

func (p *WordPipeline) promptStage(ctx context.Context, r *model.WordResult) error {
	if p.deps.Prompts == nil {
		return errors.New("提示词服务未配置")
	}
	record, err := p.deps.Prompts.Generate(ctx, r.Word())
	if err != nil {
		return err
	}
	if record.Word == "" {
		record.Word = r.Word()
	}
	r.Prompt = record
	return nil
}

func (p *WordPipeline) imageStage(ctx context.Context, r *model.WordResult) error {
	if p.deps.Images == nil {
		return errors.New("图片服务未配置")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, u := range p.units(r) {
		if u.prompt == "" {
			continue
		}
		g.Go(func() error {
			path, err := p.deps.Images.Generate(gctx, u.prompt, filepath.Join(r.Dir, u.name+"_image.png"))
			if err != nil {
				return fmt.Errorf("%s 图片生成失败: %w", u.name, err)
			}
			u.assets.Image = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if r.WordUnit.Image == "" {
		return fmt.Errorf("%w: 单词图片", ErrMissingArtifact)
	}
	return nil
}

func audioFileName(dir, unit string, lang model.Language, ext string) string {
	if lang == model.LangZh {
		return filepath.Join(dir, unit+"_zh_audio."+ext)
	}
	return filepath.Join(dir, unit+"_audio."+ext)
}

// existingAudio 查找之前合成的音频，不存在时返回空
func existingAudio(dir, unit string, lang model.Language) string {
	for _, ext := range audioExts {
		if path := audioFileName(dir, unit, lang, ext); fileExists(path) {
			return path
		}
	}
	return ""
}

// audioFormat 语音服务的输出格式，未声明时为 wav
func (p *WordPipeline) audioFormat() string {
	if f, ok := p.deps.Speech.(AudioFormatter); ok {
		if ext := f.AudioFormat(); ext != "" {
			return ext
		}
	}
	return "wav"
}

func (p *WordPipeline) audioStage(ctx context.Context, r *model.WordResult) error {
	if p.deps.Speech == nil {
		return errors.New("语音服务未配置")
	}

	ext := p.audioFormat()
	g, gctx := errgroup.WithContext(ctx)
	for _, u := range p.units(r) {
		clips := []struct {
			text string
			lang model.Language
			dst  *string
		}{
			{u.textEn, model.LangEn, &u.assets.AudioEn},
			{u.textZh, model.LangZh, &u.assets.AudioZh},
		}
		for _, c := range clips {
			if c.text == "" {
				continue
			}
			g.Go(func() error {
				path, err := p.deps.Speech.Generate(gctx, c.text, u.kind, c.lang, audioFileName(r.Dir, u.name, c.lang, ext))
				if err != nil {
					return fmt.Errorf("%s_%s 语音合成失败: %w", u.name, c.lang, err)
				}
				*c.dst = path
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if r.WordUnit.AudioEn == "" && r.WordUnit.AudioZh == "" {
		return fmt.Errorf("%w: 单词音频", ErrMissingArtifact)
	}
	return nil
}

// timeline 每个单元只计算一次，字幕和视频共用同一份结果
func (p *WordPipeline) timeline(ctx context.Context, u renderUnit, cache map[string]media.Timeline) media.Timeline {
	if tl, ok := cache[u.name]; ok {
		return tl
	}
	segments := []media.AudioSegment{
		{Label: u.name + "_en", Path: u.assets.AudioEn, Text: u.textEn, Language: string(model.LangEn)},
		{Label: u.name + "_zh", Path: u.assets.AudioZh, Text: u.textZh, Language: string(model.LangZh)},
	}
	tl := p.deps.Timelines.Build(ctx, segments, p.opts.Timeline)
	cache[u.name] = tl
	return tl
}

func (p *WordPipeline) subtitleStage(ctx context.Context, r *model.WordResult, cache map[string]media.Timeline) error {
	if p.deps.Timelines == nil {
		return errors.New("时间线服务未配置")
	}

	for _, u := range p.units(r) {
		tl := p.timeline(ctx, u, cache)
		if tl.Empty() {
			if u.kind == model.KindWord {
				return fmt.Errorf("%s 字幕: %w", u.name, media.ErrEmptyTimeline)
			}
			continue
		}
		cues := media.EmitCues(tl, p.opts.SubtitlePolicy)
		if len(cues) == 0 {
			p.logger.Warn("没有字幕文本", zap.String("word", r.Word()), zap.String("unit", u.name))
			continue
		}
		path := filepath.Join(r.Dir, u.name+"_subtitle.srt")
		if err := media.WriteSRT(path, cues); err != nil {
			return err
		}
		u.assets.Subtitle = path
	}
	return nil
}

func (p *WordPipeline) videoStage(ctx context.Context, r *model.WordResult, cache map[string]media.Timeline) error {
	if p.deps.Timelines == nil || p.deps.Audio == nil || p.deps.Video == nil {
		return errors.New("视频合成服务未配置")
	}

	for _, u := range p.units(r) {
		tl := p.timeline(ctx, u, cache)
		if tl.Empty() || u.assets.Image == "" {
			if u.kind == model.KindWord {
				if tl.Empty() {
					return fmt.Errorf("%s 视频: %w", u.name, media.ErrEmptyTimeline)
				}
				return fmt.Errorf("%w: %s 图片", ErrMissingArtifact, u.name)
			}
			continue
		}

		audio, err := p.deps.Audio.Compose(ctx, tl, filepath.Join(r.Dir, u.name+"_audio.aac"))
		if err != nil {
			return err
		}
		u.assets.Audio = audio.Path
		u.assets.Duration = audio.Duration

		video, err := p.deps.Video.Compose(ctx, u.assets.Image, audio, p.opts.Quality, filepath.Join(r.Dir, u.name+"_video.mp4"))
		if err != nil {
			return err
		}
		u.assets.Video = video

		if u.assets.Subtitle == "" || p.opts.SubtitleEmbed == media.EmbedNone || p.deps.Subtitles == nil {
			continue
		}
		subtitled, err := p.deps.Subtitles.Attach(ctx, video, u.assets.Subtitle, p.opts.SubtitleEmbed,
			filepath.Join(r.Dir, u.name+"_video_subtitled.mp4"))
		if err != nil {
			return err
		}
		u.assets.SubtitledVideo = subtitled
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
