package markdown

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"gemini-duck-go/pkg/log"
)

// 启用表格与围栏代码的转换器，与应答提示词约定的 Markdown 子集对应。
var converter = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// ToHTML 将规范化后的 Markdown 转换为 HTML 片段。
// 转换失败时回退为转义后的 <pre> 块，渲染永远不会让应答管线失败。
func ToHTML(md string) string {
	var buf bytes.Buffer
	if err := converter.Convert([]byte(md), &buf); err != nil {
		log.Error("Markdown 转换 HTML 失败，回退为预格式化文本", err)
		return "<pre>" + html.EscapeString(md) + "</pre>"
	}
	return buf.String()
}
