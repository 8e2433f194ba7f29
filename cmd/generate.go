package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/difyz9/word2video/media"
	"github.com/difyz9/word2video/model"
	"github.com/difyz9/word2video/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// generateFlags generate 命令参数
type generateFlags struct {
	word      string
	words     []string
	wordsFile string

	skipPrompt   bool
	skipImage    bool
	skipAudio    bool
	skipSubtitle bool
	skipVideo    bool

	imagePath    string
	audioPath    string
	customPrompt string
	outputDir    string
	tts          string

	leadSilence float64
	audioGap    float64
	endPause    float64

	quality        string
	subtitlePolicy string
	subtitleEmbed  string

	combine bool
	play    bool
	workers int
}

var genFlags generateFlags

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "为单词生成讲解视频",
	Long: `为一个或多个单词依次执行 提示词 → 插图 → 语音 → 字幕 → 视频，
每个单词的产物保存在 <output_dir>/<task_id>/<word>/ 下。

单词来源三选一：--word、--words、--words-file（支持 .txt 和 .md）。
单个单词失败不会中断批处理；没有任何单词成功时退出码为 1。

示例:
  word2video generate -w apple
  word2video generate --words apple --words banana --combine
  word2video generate --words-file words.txt --workers 3 -c --play
  # 不调用外部服务，使用已有素材
  word2video generate -w apple --skip-prompt --image-path apple.png --audio-path apple.wav`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, &genFlags)
	},
}

func runGenerate(cmd *cobra.Command, f *generateFlags) error {
	config, err := service.LoadConfig(configFile)
	if err != nil {
		return err
	}
	applyGenerateFlags(cmd, f, config)

	logger, cleanup, err := newLogger(config.Log)
	if err != nil {
		return err
	}
	defer cleanup()

	words, err := collectWords(f)
	if err != nil {
		return err
	}

	opts, err := pipelineOptions(f, config)
	if err != nil {
		return err
	}

	deps, err := buildPipelineDeps(f, config, logger)
	if err != nil {
		var cfgErr *model.ConfigError
		if errors.As(err, &cfgErr) {
			logger.Error("配置错误", zap.String("service", cfgErr.Service), zap.String("key", cfgErr.Key))
		}
		return err
	}

	fmt.Printf("🎬 开始生成 %d 个单词的视频\n", len(words))
	fmt.Printf("- 输出目录: %s\n", config.OutputDir)
	fmt.Printf("- 视频质量: %s\n", opts.Quality)
	fmt.Printf("- 并发数: %d\n", config.Concurrent.MaxWorkers)
	fmt.Println()

	runner := media.ExecRunner{}
	pipeline := service.NewWordPipeline(deps, opts, logger)
	orchestrator := service.NewOrchestrator(
		pipeline,
		media.NewConcatenator(config.FFmpeg.FFmpegPath, runner, logger),
		service.BatchOptions{
			OutputDir:  config.OutputDir,
			MaxWorkers: config.Concurrent.MaxWorkers,
			Combine:    f.combine,
		},
		logger,
	)

	start := time.Now()
	batch, runErr := orchestrator.Run(cmd.Context(), words)
	printSummary(batch, time.Since(start))

	if runErr != nil {
		return runErr
	}

	if f.play {
		if err := service.PlayVideo(batch.LastVideo()); err != nil {
			logger.Warn("自动播放失败", zap.Error(err))
		}
	}
	return nil
}

// applyGenerateFlags 命令行参数覆盖配置文件
func applyGenerateFlags(cmd *cobra.Command, f *generateFlags, config *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		config.OutputDir = f.outputDir
	}
	if flags.Changed("tts") {
		config.TTS.Provider = f.tts
	}
	if flags.Changed("lead-silence") {
		config.Timeline.LeadSilence = f.leadSilence
	}
	if flags.Changed("audio-gap") {
		config.Timeline.AudioGap = f.audioGap
	}
	if flags.Changed("end-pause") {
		config.Timeline.EndPause = f.endPause
	}
	if flags.Changed("quality") {
		config.Video.Quality = f.quality
	}
	if flags.Changed("subtitle-policy") {
		config.Subtitle.Policy = f.subtitlePolicy
	}
	if flags.Changed("subtitle-embed") {
		config.Subtitle.Embed = f.subtitleEmbed
	}
	if flags.Changed("workers") {
		config.Concurrent.MaxWorkers = f.workers
	}
}

// collectWords 读取单词来源并去重
func collectWords(f *generateFlags) ([]string, error) {
	var raw []string
	switch {
	case f.word != "":
		raw = []string{f.word}
	case len(f.words) > 0:
		raw = f.words
	case f.wordsFile != "":
		lines, err := service.LoadWordList(f.wordsFile)
		if err != nil {
			return nil, err
		}
		raw = lines
	}

	words := service.NormalizeWords(raw)
	if len(words) == 0 {
		return nil, fmt.Errorf("没有可处理的单词，请使用 --word、--words 或 --words-file")
	}
	return words, nil
}

func pipelineOptions(f *generateFlags, config *model.Config) (service.PipelineOptions, error) {
	quality, err := media.ParseQuality(config.Video.Quality)
	if err != nil {
		return service.PipelineOptions{}, err
	}
	policy, err := media.ParseSubtitlePolicy(config.Subtitle.Policy)
	if err != nil {
		return service.PipelineOptions{}, err
	}
	embed, err := media.ParseEmbedMode(config.Subtitle.Embed)
	if err != nil {
		return service.PipelineOptions{}, err
	}

	return service.PipelineOptions{
		SkipPrompt:   f.skipPrompt,
		SkipImage:    f.skipImage || f.imagePath != "",
		SkipAudio:    f.skipAudio || f.audioPath != "",
		SkipSubtitle: f.skipSubtitle,
		SkipVideo:    f.skipVideo,
		ImagePath:    f.imagePath,
		AudioPath:    f.audioPath,
		CustomPrompt: f.customPrompt,
		Timeline: media.TimelineOptions{
			LeadSilence: config.Timeline.LeadSilence,
			Gap:         config.Timeline.AudioGap,
			EndPause:    config.Timeline.EndPause,
		},
		Quality:        quality,
		SubtitlePolicy: policy,
		SubtitleEmbed:  embed,
	}, nil
}

// buildPipelineDeps 只创建未被跳过的阶段需要的服务，缺少的配置在这里报错
func buildPipelineDeps(f *generateFlags, config *model.Config, logger *zap.Logger) (service.PipelineDeps, error) {
	runner := media.ExecRunner{}
	encoder := media.EncoderOptions{
		FFmpegPath:   config.FFmpeg.FFmpegPath,
		VideoCodec:   config.FFmpeg.VideoCodec,
		AudioCodec:   config.FFmpeg.AudioCodec,
		AudioBitrate: config.FFmpeg.AudioBitrate,
		PixelFormat:  config.FFmpeg.PixelFormat,
		Height:       config.FFmpeg.Height,
		TempDir:      config.FFmpeg.TempDir,
	}
	oracle := media.NewDurationOracle(config.FFmpeg.FFprobePath, config.Timeline.FallbackDuration, runner, logger)

	deps := service.PipelineDeps{
		Timelines: media.NewTimelineBuilder(oracle, logger),
		Audio:     media.NewAudioCompositor(encoder, runner, logger),
		Video:     media.NewVideoCompositor(encoder, runner, logger),
		Subtitles: media.NewSubtitleMuxer(config.FFmpeg.FFmpegPath, config.Subtitle.ForceStyle, runner, logger),
	}

	if !f.skipPrompt {
		prompts, err := service.NewPromptGenerator(config.AzureOpenAI, logger)
		if err != nil {
			return deps, err
		}
		deps.Prompts = prompts
	}
	if !f.skipImage && f.imagePath == "" {
		images, err := service.NewComfyImageGenerator(config.ComfyUI, logger)
		if err != nil {
			return deps, err
		}
		deps.Images = images
	}
	if !f.skipAudio && f.audioPath == "" {
		speech, err := service.NewSpeechServiceFromConfig(config.TTS.Provider, config, logger)
		if err != nil {
			return deps, err
		}
		deps.Speech = speech
	}
	return deps, nil
}

func printSummary(batch *service.BatchResult, elapsed time.Duration) {
	if batch == nil {
		return
	}
	fmt.Println()
	fmt.Printf("📊 处理完成: 成功 %d, 失败 %d, 耗时 %s\n", len(batch.Results), len(batch.Failed), elapsed.Round(time.Millisecond))
	for _, r := range batch.Results {
		fmt.Printf("  ✅ %s → %s\n", r.Word(), r.Dir)
	}
	for _, r := range batch.Failed {
		fmt.Printf("  ❌ %s: %s\n", r.Word(), r.Error)
	}
	if batch.Combined != "" {
		fmt.Printf("🎞️  拼接视频: %s\n", filepath.Clean(batch.Combined))
	}
	if batch.CombineErr != nil {
		fmt.Printf("⚠️  视频拼接失败: %v\n", batch.CombineErr)
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)

	flags := generateCmd.Flags()
	flags.StringVarP(&genFlags.word, "word", "w", "", "单个单词")
	flags.StringArrayVar(&genFlags.words, "words", nil, "多个单词（可重复）")
	flags.StringVar(&genFlags.wordsFile, "words-file", "", "单词列表文件（.txt 每行一个，或 .md）")

	flags.BoolVar(&genFlags.skipPrompt, "skip-prompt", false, "跳过提示词生成")
	flags.BoolVar(&genFlags.skipImage, "skip-image", false, "跳过图片生成")
	flags.BoolVar(&genFlags.skipAudio, "skip-audio", false, "跳过语音合成")
	flags.BoolVar(&genFlags.skipSubtitle, "skip-subtitle", false, "跳过字幕生成")
	flags.BoolVar(&genFlags.skipVideo, "skip-video", false, "跳过视频合成")

	flags.StringVar(&genFlags.imagePath, "image-path", "", "使用指定图片代替生成")
	flags.StringVar(&genFlags.audioPath, "audio-path", "", "使用指定音频代替合成")
	flags.StringVar(&genFlags.customPrompt, "custom-prompt", "", "跳过提示词生成时使用的图片提示词")
	flags.StringVarP(&genFlags.outputDir, "output-dir", "o", "", "输出目录（覆盖配置）")
	flags.StringVar(&genFlags.tts, "tts", "", "语音合成提供商: tencent, moyin, edge")

	flags.Float64Var(&genFlags.leadSilence, "lead-silence", 0, "开头静音（秒）")
	flags.Float64Var(&genFlags.audioGap, "audio-gap", 0, "片段间隔（秒）")
	flags.Float64Var(&genFlags.endPause, "end-pause", 0, "结尾停顿（秒）")

	flags.StringVar(&genFlags.quality, "quality", "", "视频质量: low, medium, high")
	flags.StringVar(&genFlags.subtitlePolicy, "subtitle-policy", "", "字幕方式: consolidated（每单元一条）, segment（每片段一条）")
	flags.StringVar(&genFlags.subtitleEmbed, "subtitle-embed", "", "字幕嵌入: none, soft, hard")

	flags.BoolVarP(&genFlags.combine, "combine", "c", false, "拼接所有单词视频")
	flags.BoolVar(&genFlags.play, "play", false, "完成后自动播放")
	flags.IntVar(&genFlags.workers, "workers", 0, "并发处理的单词数")

	generateCmd.MarkFlagsMutuallyExclusive("word", "words", "words-file")
	generateCmd.MarkFlagsOneRequired("word", "words", "words-file")
}
