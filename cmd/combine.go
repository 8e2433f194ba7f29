package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/difyz9/word2video/media"
	"github.com/spf13/cobra"
)

var (
	combineInputDir   string
	combineOutputFile string
)

// combineCmd represents the combine command
var combineCmd = &cobra.Command{
	Use:   "combine",
	Short: "拼接指定目录下的视频文件",
	Long: `将指定目录下的视频文件按照文件名中的数字顺序无损拼接成一个视频。

自动提取文件名中的数字进行排序，例如：
- video_001.mp4, video_002.mp4, video_010.mp4
- 1_apple.mp4, 2_banana.mp4, 10_cherry.mp4

所有视频需使用相同的编码参数（generate 生成的视频满足该条件）。

示例:
  word2video combine --input ./output/1718000000 --output all.mp4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCombine(cmd)
	},
}

func runCombine(cmd *cobra.Command) error {
	if _, err := os.Stat(combineInputDir); os.IsNotExist(err) {
		return fmt.Errorf("输入目录不存在: %s", combineInputDir)
	}

	logger, cleanup, err := newLogger(loadLogConfig())
	if err != nil {
		return err
	}
	defer cleanup()

	videos, err := scanVideoFiles(combineInputDir, combineOutputFile)
	if err != nil {
		return fmt.Errorf("扫描视频文件失败: %w", err)
	}
	if len(videos) == 0 {
		return fmt.Errorf("在目录 %s 中没有找到视频文件", combineInputDir)
	}

	sortVideoFilesByNumber(videos)

	fmt.Printf("找到 %d 个视频文件（按数字顺序）:\n", len(videos))
	paths := make([]string, len(videos))
	for i, v := range videos {
		fmt.Printf("%d. %s (数字: %d)\n", i+1, v.Name, v.Number)
		paths[i] = v.Path
	}
	fmt.Println()

	ffmpegPath := "ffmpeg"
	if cfg, err := loadConfigQuietly(); err == nil && cfg.FFmpeg.FFmpegPath != "" {
		ffmpegPath = cfg.FFmpeg.FFmpegPath
	}

	concat := media.NewConcatenator(ffmpegPath, media.ExecRunner{}, logger)
	if err := concat.Concat(cmd.Context(), paths, combineOutputFile); err != nil {
		return fmt.Errorf("拼接视频失败: %w", err)
	}

	fmt.Printf("✅ 视频拼接完成: %s\n", combineOutputFile)
	return nil
}

// VideoFileInfo 视频文件信息
type VideoFileInfo struct {
	Path   string
	Name   string
	Number int // 从文件名提取的数字，用于排序
}

var videoExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".mkv": true,
	".m4v": true,
}

// scanVideoFiles 扫描目录中的视频文件，跳过输出文件本身
func scanVideoFiles(dir, output string) ([]VideoFileInfo, error) {
	var videos []VideoFileInfo
	absOutput, _ := filepath.Abs(output)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !videoExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == absOutput {
			return nil
		}

		videos = append(videos, VideoFileInfo{
			Path:   path,
			Name:   info.Name(),
			Number: extractNumberFromFilename(info.Name()),
		})
		return nil
	})

	return videos, err
}

var digitsPattern = regexp.MustCompile(`\d+`)

// extractNumberFromFilename 取文件名中最长的数字串，没有数字时排在最后
func extractNumberFromFilename(filename string) int {
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	matches := digitsPattern.FindAllString(nameWithoutExt, -1)
	if len(matches) == 0 {
		return 999999
	}

	bestMatch := matches[0]
	for _, match := range matches[1:] {
		if len(match) > len(bestMatch) {
			bestMatch = match
		}
	}

	number, err := strconv.Atoi(bestMatch)
	if err != nil {
		return 999999
	}
	return number
}

// sortVideoFilesByNumber 按文件名中的数字排序，数字相同时按文件名排序
func sortVideoFilesByNumber(videos []VideoFileInfo) {
	sort.Slice(videos, func(i, j int) bool {
		if videos[i].Number != videos[j].Number {
			return videos[i].Number < videos[j].Number
		}
		return videos[i].Name < videos[j].Name
	})
}

func init() {
	rootCmd.AddCommand(combineCmd)

	combineCmd.Flags().StringVarP(&combineInputDir, "input", "i", "", "输入目录路径（必需）")
	combineCmd.Flags().StringVarP(&combineOutputFile, "output", "o", "", "输出文件路径（必需）")

	combineCmd.MarkFlagRequired("input")
	combineCmd.MarkFlagRequired("output")
}
