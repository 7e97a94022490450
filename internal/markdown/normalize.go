// Package markdown 负责应答文本的规范化与两种有损渲染：
// 纯文本（用于分页文档）与样式化 HTML（用于网页文档）。
package markdown

import (
	"regexp"
	"strings"
)

// 占位符用于在替换内联反引号时保护围栏标记。
const fencePlaceholder = "\x00fence\x00"

// 匹配独占一行的围栏结束标记，保证其后存在换行。
var fenceTailRe = regexp.MustCompile("(?m)^```[ \t]*$\n?")

// Normalize 清洗并规范化一段 Markdown 文本：
// 统一行结束符、制表符替换为 4 个空格、围栏代码块后保留段落分隔、
// 内联反引号替换为普通引号以避免破坏定宽渲染。
// 纯函数，对任意输入都不会失败；幂等。
func Normalize(raw string) string {
	text := raw

	// 统一行结束符为 \n
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	// 制表符替换为固定 4 个空格
	text = strings.ReplaceAll(text, "\t", "    ")

	// 先保护围栏标记，再中和剩余的内联反引号。
	// 顺序不可调换，否则围栏会被当成三个内联反引号破坏掉。
	text = strings.ReplaceAll(text, "```", fencePlaceholder)
	text = strings.ReplaceAll(text, "`", "'")
	text = strings.ReplaceAll(text, fencePlaceholder, "```")

	// 围栏代码块结束后保留段落分隔
	text = fenceTailRe.ReplaceAllString(text, "```\n")

	return text
}
