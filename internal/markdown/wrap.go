package markdown

import "strings"

// Wrap 将文本按最大列宽拆分为行。
// 先按已有换行拆分以保留段落边界，再把单词贪心地装入行内；
// 超过列宽的单词被硬切成定宽片段。对任何输入都保证终止，
// 且每一行的长度不超过 width。宽度按 rune 计数，兼容西里尔字母。
func Wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Split(paragraph, " ")
		var current []string
		currentLen := 0

		for _, word := range words {
			wordLen := len([]rune(word))

			if wordLen > width {
				// 单词超宽：先冲刷当前行，再硬切
				if len(current) > 0 {
					lines = append(lines, strings.Join(current, " "))
					current = nil
					currentLen = 0
				}
				runes := []rune(word)
				for i := 0; i < len(runes); i += width {
					end := i + width
					if end > len(runes) {
						end = len(runes)
					}
					lines = append(lines, string(runes[i:end]))
				}
				continue
			}

			// len(current) 作为空格开销参与宽度预算
			if currentLen+wordLen+len(current) > width {
				lines = append(lines, strings.Join(current, " "))
				current = []string{word}
				currentLen = wordLen
			} else {
				current = append(current, word)
				currentLen += wordLen
			}
		}

		if len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
		}
	}
	return lines
}
