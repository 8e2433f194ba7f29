package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/difyz9/word2video/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ErrNoResults 没有任何单词处理成功
var ErrNoResults = errors.New("没有单词生成成功")

// WordProcessor 处理单个单词
type WordProcessor interface {
	Process(ctx context.Context, index int, taskID, word, dir string) (*model.WordResult, error)
}

// VideoConcatenator 视频无重编码拼接
type VideoConcatenator interface {
	Concat(ctx context.Context, videos []string, output string) error
}

// BatchOptions 批处理选项
type BatchOptions struct {
	OutputDir  string
	MaxWorkers int
	Combine    bool
}

// BatchResult 批处理结果，Results 按输入顺序排列且只包含成功的单词
type BatchResult struct {
	TaskID     string
	Dir        string
	Results    []*model.WordResult
	Failed     []*model.WordResult
	Combined   string
	CombineErr error
}

// wordTask 一个待处理单词
type wordTask struct {
	Index int
	Word  string
}

// wordOutcome 处理结果
type wordOutcome struct {
	Index  int
	Result *model.WordResult
	Err    error
}

// Orchestrator 批量处理单词并可选拼接最终视频
type Orchestrator struct {
	processor WordProcessor
	concat    VideoConcatenator
	opts      BatchOptions
	newTaskID func() string
	logger    *zap.Logger
}

// NewOrchestrator 创建批处理编排器
func NewOrchestrator(processor WordProcessor, concat VideoConcatenator, opts BatchOptions, logger *zap.Logger) *Orchestrator {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 1
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "output"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		processor: processor,
		concat:    concat,
		opts:      opts,
		newTaskID: func() string { return strconv.FormatInt(time.Now().Unix(), 10) },
		logger:    logger,
	}
}

// Run 处理单词列表。单个单词失败不会中断批处理；全部失败时返回 ErrNoResults
func (o *Orchestrator) Run(ctx context.Context, words []string) (*BatchResult, error) {
	batch := &BatchResult{TaskID: o.newTaskID()}
	batch.Dir = filepath.Join(o.opts.OutputDir, batch.TaskID)

	if len(words) == 0 {
		return batch, ErrNoResults
	}

	tasks := make([]wordTask, len(words))
	for i, w := range words {
		tasks[i] = wordTask{Index: i, Word: w}
	}

	o.logger.Info("开始批量处理",
		zap.String("task_id", batch.TaskID),
		zap.Int("单词数", len(words)),
		zap.Int("workers", min(o.opts.MaxWorkers, len(tasks))))

	start := time.Now()
	outcomes := o.process(ctx, batch, tasks)

	for _, out := range outcomes {
		if out.Err != nil {
			batch.Failed = append(batch.Failed, out.Result)
			continue
		}
		batch.Results = append(batch.Results, out.Result)
	}

	o.logger.Info("批量处理完成",
		zap.Int("成功", len(batch.Results)),
		zap.Int("失败", len(batch.Failed)),
		zap.Duration("elapsed", time.Since(start)))

	if err := ctx.Err(); err != nil {
		return batch, err
	}
	if len(batch.Results) == 0 {
		return batch, ErrNoResults
	}

	if o.opts.Combine {
		o.combine(ctx, batch)
	}
	return batch, nil
}

// process 按 worker 池并发处理，结果按输入顺序返回
func (o *Orchestrator) process(ctx context.Context, batch *BatchResult, tasks []wordTask) []wordOutcome {
	taskChan := make(chan wordTask, len(tasks))
	resultChan := make(chan wordOutcome, len(tasks))

	for _, task := range tasks {
		taskChan <- task
	}
	close(taskChan)

	numWorkers := min(o.opts.MaxWorkers, len(tasks))
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			o.worker(ctx, workerID, batch, taskChan, resultChan)
		}(i)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	outcomes := make([]wordOutcome, 0, len(tasks))
	for out := range resultChan {
		outcomes = append(outcomes, out)
	}

	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Index < outcomes[j].Index
	})
	return outcomes
}

func (o *Orchestrator) worker(ctx context.Context, workerID int, batch *BatchResult, taskChan <-chan wordTask, resultChan chan<- wordOutcome) {
	for task := range taskChan {
		dir := filepath.Join(batch.Dir, SanitizeDirName(task.Word))
		if err := ctx.Err(); err != nil {
			result := model.NewWordResult(task.Index, batch.TaskID, task.Word, dir)
			result.Error = err.Error()
			resultChan <- wordOutcome{Index: task.Index, Result: result, Err: err}
			continue
		}

		o.logger.Debug("处理单词", zap.Int("worker", workerID), zap.Int("index", task.Index), zap.String("word", task.Word))
		result, err := o.processor.Process(ctx, task.Index, batch.TaskID, task.Word, dir)
		if result == nil {
			result = model.NewWordResult(task.Index, batch.TaskID, task.Word, dir)
		}
		if err == nil && result.Failed() {
			err = fmt.Errorf("单词 %q 处理失败: %s", task.Word, result.Error)
		}
		if err != nil {
			o.logger.Error("单词处理失败", zap.String("word", task.Word), zap.Error(err))
		}
		resultChan <- wordOutcome{Index: task.Index, Result: result, Err: err}
	}
}

// combine 拼接所有成功单词的视频；失败只记录，不影响已生成的视频
func (o *Orchestrator) combine(ctx context.Context, batch *BatchResult) {
	videos := combineVideos(batch.Results, o.logger)
	if len(videos) == 0 {
		batch.CombineErr = fmt.Errorf("%w: 没有可拼接的视频", ErrMissingArtifact)
		o.logger.Warn("跳过视频拼接", zap.Error(batch.CombineErr))
		return
	}
	if o.concat == nil {
		batch.CombineErr = errors.New("视频拼接服务未配置")
		return
	}

	output := filepath.Join(batch.Dir, "combined.mp4")
	o.logger.Info("开始拼接视频", zap.Int("视频数", len(videos)), zap.String("输出", output))
	start := time.Now()
	if err := o.concat.Concat(ctx, videos, output); err != nil {
		batch.CombineErr = err
		o.logger.Error("视频拼接失败", zap.Error(err))
		return
	}
	batch.Combined = output
	o.logger.Info("视频拼接完成", zap.String("文件", output), zap.Duration("elapsed", time.Since(start)))
}

// combineVideos 按输入顺序收集视频。concat 使用流复制，所有片段的流结构必须一致，
// 只有全部单元都有字幕版本时才使用字幕版本
func combineVideos(results []*model.WordResult, logger *zap.Logger) []string {
	units := lo.FlatMap(results, func(r *model.WordResult, _ int) []model.UnitAssets {
		return r.RenderedUnits()
	})
	subtitled := lo.EveryBy(units, func(u model.UnitAssets) bool {
		return u.SubtitledVideo != ""
	})
	if !subtitled && lo.SomeBy(units, func(u model.UnitAssets) bool { return u.SubtitledVideo != "" }) {
		logger.Warn("部分视频没有字幕，拼接使用无字幕版本")
	}
	return lo.Map(units, func(u model.UnitAssets, _ int) string {
		if subtitled {
			return u.SubtitledVideo
		}
		return u.Video
	})
}

// LastVideo 拼接视频优先，否则返回最后一个单词的视频
func (b *BatchResult) LastVideo() string {
	if b.Combined != "" {
		return b.Combined
	}
	for i := len(b.Results) - 1; i >= 0; i-- {
		if videos := b.Results[i].Videos(); len(videos) > 0 {
			return videos[len(videos)-1]
		}
	}
	return ""
}
