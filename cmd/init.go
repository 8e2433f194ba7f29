package cmd

import (
	"fmt"

	"github.com/difyz9/word2video/service"
	"github.com/spf13/cobra"
)

var (
	initPromptsFile  string
	initWordsFile    string
	initWorkflowFile string
	force            bool
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "初始化配置文件和示例文件",
	Long: `初始化单词视频生成所需的文件。

该命令会创建：
1. config.yaml   - 主配置文件
2. prompts.json  - 提示词模板
3. words.txt     - 示例单词列表
4. workflow.json - ComfyUI 示例工作流

如果文件已存在，默认会跳过。使用 --force 强制覆盖。

示例:
  word2video init                        # 使用默认文件名初始化
  word2video init --config custom.yaml   # 指定配置文件名
  word2video init --force                # 强制覆盖已存在的文件`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	fmt.Println("🎬 word2video 初始化")
	fmt.Println("====================")
	fmt.Println()

	initializer := service.NewConfigInitializer(force)
	if force {
		fmt.Println("⚠️  强制模式：将覆盖已存在的文件")
	}

	steps := []struct {
		name string
		path string
		fn   func(string) error
	}{
		{"配置文件", configFile, initializer.InitializeConfig},
		{"提示词模板", initPromptsFile, initializer.CreatePromptsFile},
		{"示例单词列表", initWordsFile, initializer.CreateSampleWordsFile},
		{"示例工作流", initWorkflowFile, initializer.CreateSampleWorkflow},
	}
	for _, s := range steps {
		fmt.Printf("📝 初始化%s: %s\n", s.name, s.path)
		if err := s.fn(s.path); err != nil {
			return fmt.Errorf("初始化%s失败: %w", s.name, err)
		}
	}

	initializer.ShowQuickStart(configFile)
	fmt.Println("🎉 初始化完成！")
	return nil
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initPromptsFile, "prompts", "prompts.json", "提示词模板文件路径")
	initCmd.Flags().StringVar(&initWordsFile, "words", "words.txt", "示例单词列表路径")
	initCmd.Flags().StringVar(&initWorkflowFile, "workflow", "workflow.json", "ComfyUI 工作流路径")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "强制覆盖已存在的文件")
}
