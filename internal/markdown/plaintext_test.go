package markdown

import (
	"strings"
	"testing"
)

func TestToPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"标题被剥离", "# Заголовок\nтекст", "Заголовок\nтекст"},
		{"二级标题被剥离", "## Раздел", "Раздел"},
		{"粗体展开", "это **важно** знать", "это важно знать"},
		{"斜体展开", "это *курсив* текст", "это курсив текст"},
		{"内联代码展开", "вызов `foo()` функции", "вызов foo() функции"},
		{"图片被移除", "до ![alt](http://x/y.png) после", "до  после"},
		{"链接保留可见文字", "см. [документацию](http://example.com)", "см. документацию"},
		{"无序列表统一为圆点", "- первый\n- второй", "• первый\n• второй"},
		{"星号列表统一为圆点", "* пункт", "• пункт"},
		{"有序列表编号移除", "1. один\n2. два", "один\nдва"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToPlainText(tt.in); got != tt.want {
				t.Errorf("ToPlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToPlainTextFencedCode(t *testing.T) {
	in := "до\n```go\nfmt.Println(1)\n```\nпосле"
	got := ToPlainText(in)
	if strings.Contains(got, "```") {
		t.Errorf("围栏标记未被剥离: %q", got)
	}
	if !strings.Contains(got, "fmt.Println(1)") {
		t.Errorf("围栏内容丢失: %q", got)
	}
}

// 阶段顺序是不变量：围栏剥离必须先于内联反引号剥离，
// 否则内联规则会吃掉围栏边界并破坏代码块内容。
func TestStageOrderFencedBeforeInline(t *testing.T) {
	in := "```\ncode line\n```"

	// 正确顺序：先 fenced-code，内容完整保留
	good := ApplyStage("inline-code", ApplyStage("fenced-code", in))
	if !strings.Contains(good, "code line") {
		t.Errorf("正确顺序下围栏内容丢失: %q", good)
	}

	// 颠倒顺序：inline-code 先吃掉成对反引号，fenced-code 失配
	bad := ApplyStage("fenced-code", ApplyStage("inline-code", in))
	if !strings.Contains(bad, "`") {
		t.Errorf("预期颠倒顺序留下残余反引号, got %q", bad)
	}
}

// 图片剥离必须先于链接剥离，否则 ![alt](url) 会留下孤立的感叹号标记。
func TestStageOrderImageBeforeLink(t *testing.T) {
	in := "![картинка](http://x/p.png)"
	good := ApplyStage("link", ApplyStage("image", in))
	if good != "" {
		t.Errorf("正确顺序下图片未被完全移除: %q", good)
	}
	bad := ApplyStage("image", ApplyStage("link", in))
	if !strings.Contains(bad, "!") {
		t.Errorf("预期颠倒顺序留下感叹号残余, got %q", bad)
	}
}

// 任意输入经过完整管线后不应残留结构化标记。
func TestNoStructuralMarkersSurvive(t *testing.T) {
	inputs := []string{
		"# H1\n## H2\n**b** *i* `c`\n- a\n1. b\n[l](u) ![i](u)",
		"```\nblock\n```\nи `инлайн`",
		"### Глубокий *уровень* **вложенности**",
	}
	for _, in := range inputs {
		got := ToPlainText(in)
		for _, marker := range []string{"#", "**", "`", "]("} {
			if strings.Contains(got, marker) {
				t.Errorf("残留结构化标记 %q: 输入 %q, 输出 %q", marker, in, got)
			}
		}
	}
}
