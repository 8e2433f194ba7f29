/*
word2video - 根命令定义
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// 版本信息
var (
	appVersion   = "dev"
	appBuildTime = "unknown"
	appGitCommit = "unknown"
)

// 全局标志
var (
	configFile string
	verbose    bool
	debugMode  bool
	noColor    bool
)

// 退出码
const (
	exitOK        = 0
	exitFailure   = 1
	exitInterrupt = 130
)

// SetVersionInfo 设置版本信息
func SetVersionInfo(version, buildTime, gitCommit string) {
	appVersion = version
	appBuildTime = buildTime
	appGitCommit = gitCommit

	rootCmd.Version = getVersionString()
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "word2video",
	Short: "🎬 单词视频生成工具 - 提示词、插图、双语语音、字幕一键合成",
	Long: `🎬 单词视频生成工具

为每个英文单词生成讲解短视频：提示词 → 插图 → 双语语音 → 字幕 → 视频，
可选将所有单词视频无损拼接成一个。

✨ 核心特色：
  🧠 提示词生成    - Azure OpenAI 生成释义、短语和画面描述
  🖼️  插图生成      - ComfyUI 工作流
  🔊 多引擎语音    - 腾讯云TTS / 魔音工坊 / Microsoft Edge TTS
  ⏱️  精确对齐      - 字幕、音轨、视频时长共用同一条时间线
  🚀 并发处理      - 多单词并行，输出顺序不变

🚀 快速开始：
  # 初始化配置（新用户）
  word2video init

  # 生成单个单词
  word2video generate -w apple

  # 批量生成并拼接
  word2video generate --words-file words.txt --combine

  # 查看 Edge TTS 语音
  word2video voices --list en`,
	Version:       getVersionString(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// getVersionString 获取版本字符串
func getVersionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appGitCommit, appBuildTime)
}

// Execute 执行根命令；SIGINT/SIGTERM 退出码 130，其他失败退出码 1
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "⚠️  已中断")
		return exitInterrupt
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return exitInterrupt
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func init() {
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "输出调试日志")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "调试模式：输出调试日志、调用位置和错误堆栈")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "禁用彩色日志")
}
