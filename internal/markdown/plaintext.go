package markdown

import "regexp"

// stage 是纯文本渲染管线中的一个命名替换阶段。
// 阶段顺序是不变量：围栏代码必须先于内联反引号剥离，
// 图片必须先于链接剥离，粗体必须先于斜体剥离。
type stage struct {
	name string
	re   *regexp.Regexp
	repl string
}

// plainStages 按固定顺序应用；调整顺序会破坏渲染结果。
var plainStages = []stage{
	{"fenced-code", regexp.MustCompile("(?s)```.*?\n(.*?)```"), "$1"},
	{"heading", regexp.MustCompile(`(?m)^#{1,6}[ \t]*`), ""},
	{"bold", regexp.MustCompile(`\*\*(.*?)\*\*`), "$1"},
	{"italic", regexp.MustCompile(`\*(.*?)\*`), "$1"},
	{"inline-code", regexp.MustCompile("`(.*?)`"), "$1"},
	{"image", regexp.MustCompile(`!\[.*?\]\(.*?\)`), ""},
	{"link", regexp.MustCompile(`\[(.*?)\]\(.*?\)`), "$1"},
	{"bullet", regexp.MustCompile(`(?m)^[ \t]*[-*][ \t]+`), "• "},
	{"ordered-list", regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`), ""},
}

// ToPlainText 将 Markdown 文本渲染为不含结构化标记的纯文本。
// 标题、强调、代码围栏与图片被剥离，链接保留可见文字，
// 列表符号统一为 • ，有序列表编号被移除。
func ToPlainText(md string) string {
	text := md
	for _, s := range plainStages {
		text = s.re.ReplaceAllString(text, s.repl)
	}
	return text
}

// ApplyStage 单独应用一个命名阶段，供阶段级测试使用。
// 未知的阶段名返回原文本。
func ApplyStage(name, text string) string {
	for _, s := range plainStages {
		if s.name == name {
			return s.re.ReplaceAllString(text, s.repl)
		}
	}
	return text
}
