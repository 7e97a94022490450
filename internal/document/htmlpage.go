package document

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gemini-duck-go/internal/config"
)

// HTMLBuilder 把渲染好的标记包装为一个自包含的样式化页面。
// 页面不引用任何外部资源，可以独立投递与离线打开。
type HTMLBuilder struct {
	cfg      config.DocumentConfig
	botName  string
	username string
}

// NewHTMLBuilder 创建一个 HTML 构建器。
func NewHTMLBuilder(cfg config.DocumentConfig, botName, username string) *HTMLBuilder {
	return &HTMLBuilder{cfg: cfg, botName: botName, username: username}
}

type htmlPageData struct {
	BotName   string
	Username  string
	Timestamp string
	UserID    string
	Question  string
	Answer    template.HTML // 已渲染的标记，其余字段全部走模板转义
}

// Build 生成自包含 HTML 文档的字节。
// 所有用户提供的文本都经过模板转义，防止破坏页面结构。
func (b *HTMLBuilder) Build(answerHTML, question, userID string) ([]byte, error) {
	data := htmlPageData{
		BotName:   b.botName,
		Username:  b.username,
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
		UserID:    userID,
		Question:  questionExcerpt(question, b.cfg.HTMLQuestionChars),
		Answer:    template.HTML(answerHTML),
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("渲染 HTML 页面失败: %w", err)
	}
	return buf.Bytes(), nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="ru">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Ответ {{.BotName}}</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            line-height: 1.6;
            color: #333;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            min-height: 100vh;
            padding: 20px;
        }
        .container {
            max-width: 900px;
            margin: 0 auto;
            background: white;
            border-radius: 20px;
            box-shadow: 0 20px 60px rgba(0,0,0,0.3);
            overflow: hidden;
        }
        .header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 40px;
            text-align: center;
        }
        .header h1 { font-size: 2.5em; margin-bottom: 10px; font-weight: 300; }
        .header .subtitle { font-size: 1.1em; opacity: 0.9; }
        .content { padding: 40px; }
        .info-bar {
            background: #f8f9fa;
            padding: 20px;
            border-radius: 10px;
            margin-bottom: 30px;
            display: flex;
            justify-content: space-between;
            flex-wrap: wrap;
            gap: 15px;
        }
        .info-item { flex: 1; min-width: 200px; }
        .info-label { font-weight: 600; color: #667eea; margin-bottom: 5px; }
        .question-box {
            background: #e8f4fd;
            border-left: 5px solid #2196F3;
            padding: 20px;
            margin-bottom: 30px;
            border-radius: 0 10px 10px 0;
        }
        .question-box h3 { color: #1976D2; margin-bottom: 10px; }
        .response-content { line-height: 1.8; }
        .response-content h1,
        .response-content h2,
        .response-content h3 { color: #333; margin: 25px 0 15px 0; }
        .response-content p { margin-bottom: 15px; }
        .response-content code {
            background: #f4f4f4;
            padding: 2px 6px;
            border-radius: 4px;
            font-family: 'Courier New', monospace;
            font-size: 0.9em;
        }
        .response-content pre {
            background: #2d2d2d;
            color: #f8f8f2;
            padding: 20px;
            border-radius: 10px;
            overflow-x: auto;
            margin: 20px 0;
        }
        .response-content ul,
        .response-content ol { margin-left: 20px; margin-bottom: 15px; }
        .response-content li { margin-bottom: 5px; }
        .footer {
            background: #f8f9fa;
            padding: 30px;
            text-align: center;
            border-top: 1px solid #eee;
        }
        .footer a { color: #667eea; text-decoration: none; }
        .footer a:hover { text-decoration: underline; }
        @media (max-width: 768px) {
            .header { padding: 30px 20px; }
            .content { padding: 20px; }
            .info-bar { flex-direction: column; }
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.BotName}}</h1>
            <p class="subtitle">AI-powered assistant</p>
        </div>
        <div class="content">
            <div class="info-bar">
                <div class="info-item">
                    <div class="info-label">Дата и время</div>
                    <div>{{.Timestamp}}</div>
                </div>
                <div class="info-item">
                    <div class="info-label">ID пользователя</div>
                    <div>{{.UserID}}</div>
                </div>
                <div class="info-item">
                    <div class="info-label">Формат</div>
                    <div>HTML документ</div>
                </div>
            </div>
            {{if .Question}}
            <div class="question-box">
                <h3>Вопрос:</h3>
                <p>{{.Question}}</p>
            </div>
            {{end}}
            <div class="response-content">
                {{.Answer}}
            </div>
        </div>
        <div class="footer">
            <p>Создано с помощью <a href="https://t.me/{{.Username}}">{{.BotName}}</a> • {{.Timestamp}}</p>
            <p>Для новых запросов перейдите в Telegram: @{{.Username}}</p>
        </div>
    </div>
</body>
</html>`))
