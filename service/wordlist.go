package service

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/russross/blackfriday/v2"
	"github.com/samber/lo"
)

// LoadWordList 读取单词列表；.md 文件取列表项和段落行，其他文件每行一个单词
func LoadWordList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取单词文件失败: %w", err)
	}

	var lines []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		lines = extractMarkdownWords(data)
	default:
		lines, err = readPlainLines(data)
		if err != nil {
			return nil, fmt.Errorf("读取单词文件失败: %w", err)
		}
	}

	words := NormalizeWords(lines)
	if len(words) == 0 {
		return nil, fmt.Errorf("单词文件 %s 中没有有效单词", path)
	}
	return words, nil
}

// NormalizeWords 清理、过滤并去重，保持原有顺序
func NormalizeWords(lines []string) []string {
	tp := NewTextProcessor()
	words := lo.FilterMap(lines, func(line string, _ int) (string, bool) {
		w := tp.ProcessText(strings.TrimSpace(line))
		return w, tp.IsValidTextForTTS(w)
	})
	return lo.Uniq(words)
}

func readPlainLines(data []byte) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// extractMarkdownWords 遍历 Markdown AST，收集列表项和段落中的每一行，跳过标题和代码
func extractMarkdownWords(data []byte) []string {
	doc := blackfriday.New(blackfriday.WithExtensions(blackfriday.CommonExtensions)).Parse(data)

	var (
		words   []string
		current strings.Builder
	)
	flush := func() {
		for _, line := range strings.Split(current.String(), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				words = append(words, line)
			}
		}
		current.Reset()
	}

	doc.Walk(func(node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		switch node.Type {
		case blackfriday.Heading, blackfriday.CodeBlock, blackfriday.HTMLBlock, blackfriday.Image, blackfriday.Table:
			return blackfriday.SkipChildren
		case blackfriday.Paragraph:
			if !entering {
				flush()
			}
		case blackfriday.Text, blackfriday.Code:
			if entering {
				current.Write(node.Literal)
			}
		case blackfriday.Softbreak, blackfriday.Hardbreak:
			current.WriteByte('\n')
		}
		return blackfriday.GoToNext
	})
	flush()
	return words
}
