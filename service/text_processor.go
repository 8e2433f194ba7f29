package service

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	boldRegex    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRegex  = regexp.MustCompile(`\*([^*]+)\*`)
	codeRegex    = regexp.MustCompile("`([^`]+)`")
	headerRegex  = regexp.MustCompile(`^#+\s*(.+)$`)
	linkRegex    = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	spaceRegex   = regexp.MustCompile(`\s+`)
	escapeRegex  = regexp.MustCompile(`\\([*_#\[\]()<>{}|~^+=!?"'&%$@-])`)
	invalidRunes = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
)

// TextProcessor 文本预处理器，清理送入 TTS 的文本
type TextProcessor struct {
	normalizeWhitespace bool
	spaceMixedLanguage  bool
}

// NewTextProcessor 创建新的文本处理器
func NewTextProcessor() *TextProcessor {
	return &TextProcessor{
		normalizeWhitespace: true,
		spaceMixedLanguage:  true,
	}
}

// ProcessText 处理文本，优化TTS语音合成效果
func (tp *TextProcessor) ProcessText(text string) string {
	if text == "" {
		return text
	}

	text = escapeRegex.ReplaceAllString(text, "$1")
	text = tp.processMarkdownFormatting(text)

	if tp.normalizeWhitespace {
		text = spaceRegex.ReplaceAllString(text, " ")
		text = strings.TrimSpace(text)
	}
	if tp.spaceMixedLanguage {
		text = tp.processMixedLanguageText(text)
	}
	return text
}

// processMarkdownFormatting 去掉 Markdown 标记，保留内容
func (tp *TextProcessor) processMarkdownFormatting(text string) string {
	text = boldRegex.ReplaceAllString(text, "$1")
	text = italicRegex.ReplaceAllString(text, "$1")
	text = codeRegex.ReplaceAllString(text, "$1")
	text = headerRegex.ReplaceAllString(text, "$1")
	text = linkRegex.ReplaceAllString(text, "$1")
	return text
}

// processMixedLanguageText 中英文之间补空格
func (tp *TextProcessor) processMixedLanguageText(text string) string {
	var result strings.Builder
	runes := []rune(text)

	for i, r := range runes {
		if i > 0 {
			prev := runes[i-1]
			if (isChinese(prev) && isEnglish(r)) || (isEnglish(prev) && isChinese(r)) {
				result.WriteRune(' ')
			}
		}
		result.WriteRune(r)
	}
	return result.String()
}

// IsValidTextForTTS 至少包含一个字母、数字或汉字；单个汉字也是有效单词
func (tp *TextProcessor) IsValidTextForTTS(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || isChinese(r) {
			return true
		}
	}
	return false
}

// SanitizeDirName 把单词转换为可用作目录名的字符串
func SanitizeDirName(name string) string {
	clean := strings.ReplaceAll(name, ":", "-")
	clean = invalidRunes.ReplaceAllString(clean, " ")
	clean = spaceRegex.ReplaceAllString(strings.TrimSpace(clean), "_")
	clean = strings.Trim(clean, ".")
	if clean == "" {
		return "untitled"
	}
	return clean
}

func isChinese(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

func isEnglish(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
