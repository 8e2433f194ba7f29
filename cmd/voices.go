package cmd

import (
	"os"

	"github.com/difyz9/word2video/service"
	"github.com/spf13/cobra"
)

var voicesLanguage string

// voicesCmd represents the voices command
var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "列出可用的 Edge TTS 语音",
	Long: `列出 Microsoft Edge TTS 的可用语音，可按区域前缀过滤。

示例:
  word2video voices              # 列出所有语音
  word2video voices --list en    # 列出英文语音
  word2video voices --list zh-CN # 列出简体中文语音`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return service.ListEdgeVoices(cmd.Context(), voicesLanguage, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(voicesCmd)

	voicesCmd.Flags().StringVarP(&voicesLanguage, "list", "l", "", "按语言过滤（如 en, zh, en-US）")
}
