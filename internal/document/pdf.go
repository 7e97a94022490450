// Package document 包含两种文档构建器：分页 PDF 与样式化 HTML 页面。
// 构建是同步的 CPU 密集操作，不做任何网络访问。
package document

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"gemini-duck-go/internal/config"
	"gemini-duck-go/internal/markdown"
)

// PDFBuilder 把纯文本应答构建为分页 PDF 文档。
type PDFBuilder struct {
	cfg     config.DocumentConfig
	botName string
}

// NewPDFBuilder 创建一个 PDF 构建器。
func NewPDFBuilder(cfg config.DocumentConfig, botName string) *PDFBuilder {
	return &PDFBuilder{cfg: cfg, botName: botName}
}

// composeAnswerLines 把纯文本按列宽换行并施加最大行数限制。
// 超限时追加显式的截断标记，保证产物永远不会无声地丢内容。
func (b *PDFBuilder) composeAnswerLines(plainText string) []string {
	lines := markdown.Wrap(plainText, b.cfg.WrapWidth)
	if len(lines) <= b.cfg.MaxLines {
		return lines
	}
	total := len(lines)
	lines = lines[:b.cfg.MaxLines]
	lines = append(lines, "", fmt.Sprintf("[Document truncated. Full text has %d lines]", total))
	return lines
}

// questionExcerpt 返回按 rune 截断后的问题摘录。
func questionExcerpt(question string, limit int) string {
	runes := []rune(question)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return question
}

// Build 生成 PDF 字节。字体资源加载失败视为本次构建失败，
// 由调用方记录并向用户报告，不会影响进程。
func (b *PDFBuilder) Build(plainText, question, userID string) ([]byte, error) {
	// Unicode 字体是硬前提：目标用户群使用西里尔字母
	if _, err := os.Stat(b.cfg.FontRegular); err != nil {
		return nil, fmt.Errorf("常规字体不可用: %w", err)
	}
	if _, err := os.Stat(b.cfg.FontBold); err != nil {
		return nil, fmt.Errorf("粗体字体不可用: %w", err)
	}

	// 字体目录设为根，配置里的绝对字体路径才不会被 fpdf 按相对路径拼接
	pdf := fpdf.New("P", "mm", "A4", "/")
	pdf.AddUTF8Font("DejaVu", "", b.cfg.FontRegular)
	pdf.AddUTF8Font("DejaVu", "B", b.cfg.FontBold)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// 标题块
	pdf.SetFont("DejaVu", "", 16)
	pdf.CellFormat(200, 10, b.botName, "", 1, "C", false, 0, "")

	// 元信息块
	pdf.SetFontSize(10)
	pdf.CellFormat(200, 8, "Generated: "+time.Now().Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	pdf.CellFormat(200, 8, "User ID: "+userID, "", 1, "L", false, 0, "")

	// 分隔线
	pdf.Ln(5)
	pdf.CellFormat(200, 1, "", "T", 1, "L", false, 0, "")
	pdf.Ln(10)

	// 问题段（可选，截断到固定长度后按列宽换行）
	if question != "" {
		pdf.SetFont("DejaVu", "B", 12)
		pdf.CellFormat(200, 10, "Question:", "", 1, "L", false, 0, "")
		pdf.SetFont("DejaVu", "", 10)
		for _, line := range markdown.Wrap(questionExcerpt(question, b.cfg.PDFQuestionChars), b.cfg.WrapWidth) {
			pdf.MultiCell(0, 8, line, "", "L", false)
		}
		pdf.Ln(5)
	}

	// 应答段
	pdf.SetFont("DejaVu", "B", 12)
	pdf.CellFormat(200, 10, "Answer:", "", 1, "L", false, 0, "")
	pdf.SetFont("DejaVu", "", 10)
	for _, line := range b.composeAnswerLines(plainText) {
		// 列表行缩进
		if strings.HasPrefix(line, "• ") || strings.HasPrefix(line, "- ") {
			pdf.SetX(pdf.GetX() + 4)
		}
		pdf.MultiCell(0, 8, line, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("生成 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}
