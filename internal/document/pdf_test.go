package document

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"gemini-duck-go/internal/config"
)

func testDocConfig() config.DocumentConfig {
	return config.DocumentConfig{
		WrapWidth:         80,
		MaxLines:          200,
		PDFQuestionChars:  300,
		HTMLQuestionChars: 500,
		FontRegular:       "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		FontBold:          "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	}
}

func TestComposeAnswerLinesWithinLimit(t *testing.T) {
	b := NewPDFBuilder(testDocConfig(), "GeminiDuck Bot")
	lines := b.composeAnswerLines("строка один\nстрока два")
	for _, line := range lines {
		if strings.Contains(line, "[Document truncated") {
			t.Errorf("短文本不应出现截断标记: %v", lines)
		}
	}
}

func TestComposeAnswerLinesTruncates(t *testing.T) {
	cfg := testDocConfig()
	cfg.MaxLines = 10
	b := NewPDFBuilder(cfg, "GeminiDuck Bot")

	lines := b.composeAnswerLines(strings.TrimSuffix(strings.Repeat("слово\n", 50), "\n"))
	if len(lines) != 12 { // 10 行内容 + 空行 + 标记
		t.Fatalf("期望 12 行, 实际 %d", len(lines))
	}
	last := lines[len(lines)-1]
	if !strings.Contains(last, "[Document truncated. Full text has 50 lines]") {
		t.Errorf("缺少截断标记: %q", last)
	}
}

func TestQuestionExcerpt(t *testing.T) {
	long := strings.Repeat("д", 400)
	if got := questionExcerpt(long, 300); len([]rune(got)) != 300 {
		t.Errorf("摘录长度 %d, 期望 300", len([]rune(got)))
	}
	if got := questionExcerpt("короткий", 300); got != "короткий" {
		t.Errorf("短问题不应被截断: %q", got)
	}
}

func TestPDFBuildMissingFont(t *testing.T) {
	cfg := testDocConfig()
	cfg.FontRegular = "/nonexistent/font.ttf"
	b := NewPDFBuilder(cfg, "GeminiDuck Bot")

	if _, err := b.Build("текст", "вопрос", "1"); err == nil {
		t.Error("字体缺失时构建应当失败")
	}
}

func TestPDFBuild(t *testing.T) {
	cfg := testDocConfig()
	if _, err := os.Stat(cfg.FontRegular); err != nil {
		t.Skipf("跳过: DejaVu 字体不可用 (%v)", err)
	}
	b := NewPDFBuilder(cfg, "GeminiDuck Bot")

	data, err := b.Build("Ответ на вопрос.\nВторая строка.", "Что такое Go?", "1001")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("PDF 为空")
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("输出不是 PDF 文件: %q", data[:8])
	}
}
