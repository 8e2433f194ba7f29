package media

import (
	"context"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DefaultFallbackDuration 探测失败时使用的时长（秒）
const DefaultFallbackDuration = 2.0

// DurationProber 媒体时长探测接口
type DurationProber interface {
	// Duration 返回时长；ok=false 表示探测失败，返回的是回退值
	Duration(ctx context.Context, path string) (seconds float64, ok bool)
}

// DurationOracle 通过 ffprobe 获取媒体时长
type DurationOracle struct {
	ffprobe  string
	fallback float64
	runner   CommandRunner
	logger   *zap.Logger
}

// NewDurationOracle 创建时长探测器
func NewDurationOracle(ffprobePath string, fallback float64, runner CommandRunner, logger *zap.Logger) *DurationOracle {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if fallback <= 0 {
		fallback = DefaultFallbackDuration
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DurationOracle{
		ffprobe:  ffprobePath,
		fallback: fallback,
		runner:   runner,
		logger:   logger,
	}
}

// Duration 探测时长，任何失败都回退到固定值并记录警告，不返回错误
func (o *DurationOracle) Duration(ctx context.Context, path string) (float64, bool) {
	result, err := run(ctx, o.runner, "探测时长", o.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		o.logger.Warn("获取音频时长失败，使用默认时长",
			zap.String("文件", path),
			zap.Float64("默认时长", o.fallback),
			zap.Error(err))
		return o.fallback, false
	}

	value := strings.TrimSpace(result.Stdout)
	if i := strings.IndexByte(value, '\n'); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		o.logger.Warn("无法解析音频时长，使用默认时长",
			zap.String("文件", path),
			zap.String("输出", value),
			zap.Float64("默认时长", o.fallback))
		return o.fallback, false
	}
	return seconds, true
}
