package utils

import (
	"strings"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// TruncateSuffix 截断文本时追加的后缀
const TruncateSuffix = ".."

// WrapText 将文本按指定宽度自动换行
//
// 换行规则:
//   - 在空白处断行，连续空白合并为一个空格
//   - 单词本身超过最大宽度时按字符强制断行
func WrapText(str string, face text.Face, maxWidth float64) []string {
	if str == "" || face == nil || maxWidth <= 0 {
		return []string{str}
	}
	if measure(str, face) <= maxWidth {
		return []string{str}
	}

	var lines []string
	line := ""
	for _, word := range strings.Fields(str) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if measure(candidate, face) <= maxWidth {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
		if measure(word, face) <= maxWidth {
			line = word
			continue
		}
		chunks := splitRunes(word, face, maxWidth)
		lines = append(lines, chunks[:len(chunks)-1]...)
		line = chunks[len(chunks)-1]
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// splitRunes 按字符把单词切成不超过 maxWidth 的片段，单个字符超宽时独占一段
func splitRunes(word string, face text.Face, maxWidth float64) []string {
	var chunks []string
	current := ""
	for _, r := range word {
		candidate := current + string(r)
		if current != "" && measure(candidate, face) > maxWidth {
			chunks = append(chunks, current)
			current = string(r)
			continue
		}
		current = candidate
	}
	return append(chunks, current)
}

// TruncateText 截断过长的文本并追加 ".."，连后缀都放不下时返回空字符串
func TruncateText(str string, face text.Face, maxWidth float64) string {
	if measure(str, face) <= maxWidth {
		return str
	}
	runes := []rune(str)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + TruncateSuffix
		if measure(candidate, face) <= maxWidth {
			return candidate
		}
	}
	return ""
}

func measure(str string, face text.Face) float64 {
	if str == "" || face == nil {
		return 0
	}
	width, _ := text.Measure(str, face, 0)
	return width
}
