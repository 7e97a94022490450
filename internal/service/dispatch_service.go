package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gemini-duck-go/internal/config"
	"gemini-duck-go/internal/markdown"
	"gemini-duck-go/internal/model"
	"gemini-duck-go/internal/storage"
	"gemini-duck-go/pkg/log"
)

// 应答超过硬上限时附加的截断标记。
const hardCapMarker = "\n\n[Ответ обрезан из-за ограничения длины]"

// PaginatedBuilder 构建分页文档（PDF）。
type PaginatedBuilder interface {
	Build(plainText, question, userID string) ([]byte, error)
}

// StyledBuilder 构建样式化页面（HTML）。
type StyledBuilder interface {
	Build(answerHTML, question, userID string) ([]byte, error)
}

// DispatchService 决定一条应答的投递方式并按需驱动文档构建与存储。
// 对每条应答只评估一次，三种终态：内联、分块、提供格式选择。
type DispatchService interface {
	// Dispatch 规范化并分类一条应答，返回投递意图。
	// 无论走哪条路径，历史记录都在返回投递意图之前落盘。
	Dispatch(event model.InboundEvent, question, answer string) model.Reply
	// Classify 返回规范化文本的投递方式；分类是确定性的。
	Classify(normalized string) model.DeliveryMode
	// BuildDocument 按用户选择的格式构建文档并写入工作区。
	// 构建失败不清除待定应答，用户可以换一种格式重试。
	BuildDocument(ctx context.Context, userID, sessionID, format string) (*model.FileReply, error)
}

type dispatchService struct {
	cfg      config.DispatchConfig
	sessions SessionService
	store    storage.ArtifactStore
	pdf      PaginatedBuilder
	html     StyledBuilder
	workers  chan struct{} // 有界渲染工作池
}

// NewDispatchService 创建一个新的 DispatchService 实例。
func NewDispatchService(
	cfg config.DispatchConfig,
	sessions SessionService,
	store storage.ArtifactStore,
	pdf PaginatedBuilder,
	html StyledBuilder,
) DispatchService {
	workers := cfg.RenderWorkers
	if workers < 1 {
		workers = 1
	}
	return &dispatchService{
		cfg:      cfg,
		sessions: sessions,
		store:    store,
		pdf:      pdf,
		html:     html,
		workers:  make(chan struct{}, workers),
	}
}

// hardCap 在任何渲染之前对超长应答施加硬上限并附加显式标记。
func (s *dispatchService) hardCap(text string) string {
	runes := []rune(text)
	if len(runes) <= s.cfg.HardAnswerCap {
		return text
	}
	return string(runes[:s.cfg.HardAnswerCap]) + hardCapMarker
}

func (s *dispatchService) Classify(normalized string) model.DeliveryMode {
	n := len([]rune(normalized))
	switch {
	case n <= s.cfg.ShortThreshold && strings.Contains(normalized, "\n"):
		// 短的多行应答仍走分块投递
		return model.ModeChunked
	case n <= s.cfg.ShortThreshold:
		return model.ModeInline
	case n <= s.cfg.MediumThreshold:
		return model.ModeInline
	default:
		return model.ModeOffered
	}
}

func (s *dispatchService) Dispatch(event model.InboundEvent, question, answer string) model.Reply {
	normalized := s.hardCap(markdown.Normalize(answer))

	// 历史记录先于投递落盘：即使后续投递失败，这轮交互也有迹可循
	s.store.WriteTranscript(event.UserID, question, normalized)

	switch s.Classify(normalized) {
	case model.ModeChunked:
		return model.Reply{
			Mode:       model.ModeChunked,
			Chunks:     s.splitChunks(normalized),
			ChunkDelay: time.Duration(s.cfg.ChunkDelayMs) * time.Millisecond,
		}
	case model.ModeInline:
		return model.Reply{Mode: model.ModeInline, Text: normalized}
	default:
		s.sessions.SetPending(event.SessionID, question, normalized)
		return model.Reply{
			Mode: model.ModeOffered,
			Offer: &model.FileOffer{
				Prompt: fmt.Sprintf(
					"✅ Ответ готов!\n\nДлина ответа: %d символов\nИстория сохранена в файл\n\nВыберите формат для просмотра:\n• HTML-документ — красивое оформление в браузере\n• PDF-документ — удобно для печати и сохранения",
					len([]rune(normalized)),
				),
				Choices: []string{"html", "pdf"},
				Length:  len([]rune(normalized)),
			},
		}
	}
}

// splitChunks 把文本切成定长窗口（不按词边界），并限制窗口数量。
func (s *dispatchService) splitChunks(text string) []string {
	runes := []rune(text)
	size := s.cfg.ChunkSize
	if size < 1 {
		size = 1
	}
	var chunks []string
	for i := 0; i < len(runes) && len(chunks) < s.cfg.MaxChunks; i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

func (s *dispatchService) BuildDocument(ctx context.Context, userID, sessionID, format string) (*model.FileReply, error) {
	pending, ok := s.sessions.Pending(sessionID)
	if !ok {
		return nil, fmt.Errorf("ответ не найден, задайте вопрос снова")
	}

	// 渲染是 CPU 密集的同步工作，放入有界工作池，避免一个用户的
	// 大文档构建阻塞其他用户的消息处理
	select {
	case s.workers <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	type buildResult struct {
		reply *model.FileReply
		err   error
	}
	ch := make(chan buildResult, 1)
	go func() {
		defer func() { <-s.workers }()
		reply, err := s.buildAndStore(pending, userID, format)
		ch <- buildResult{reply, err}
	}()

	timeout := time.Duration(s.cfg.RenderTimeoutS) * time.Second
	select {
	case r := <-ch:
		return r.reply, r.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("превышено время построения документа")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *dispatchService) buildAndStore(pending model.PendingResponse, userID, format string) (*model.FileReply, error) {
	stamp := time.Now().Format("20060102_1504")

	switch format {
	case "pdf":
		// 标记源先落盘，成品生成后它即被取代
		source, err := s.store.CreateArtifact(userID, model.ArtifactMarkdown)
		if err == nil {
			if werr := s.store.WriteArtifact(source, []byte(pending.Answer)); werr != nil {
				log.Error("保存标记源失败", werr)
				source = nil
			}
		} else {
			source = nil
		}

		plain := markdown.ToPlainText(pending.Answer)
		data, err := s.pdf.Build(plain, pending.Question, userID)
		if err != nil {
			return nil, fmt.Errorf("построить PDF-документ не удалось: %w", err)
		}
		if err := s.storeArtifact(userID, model.ArtifactPDF, data); err != nil {
			return nil, err
		}
		if source != nil {
			s.store.RemoveArtifact(source)
		}
		return &model.FileReply{
			FileName: "ответ_geminiduck_" + stamp + ".pdf",
			Caption:  "📊 PDF-версия ответа GeminiDuck",
			MimeType: "application/pdf",
			Data:     data,
		}, nil

	case "html":
		answerHTML := markdown.ToHTML(pending.Answer)
		data, err := s.html.Build(answerHTML, pending.Question, userID)
		if err != nil {
			return nil, fmt.Errorf("построить HTML-документ не удалось: %w", err)
		}
		if err := s.storeArtifact(userID, model.ArtifactHTML, data); err != nil {
			return nil, err
		}
		return &model.FileReply{
			FileName: "ответ_geminiduck_" + stamp + ".html",
			Caption:  "📄 HTML-версия ответа GeminiDuck",
			MimeType: "text/html",
			Data:     data,
		}, nil

	default:
		return nil, fmt.Errorf("неизвестный формат документа: %s", format)
	}
}

func (s *dispatchService) storeArtifact(userID string, kind model.ArtifactKind, data []byte) error {
	artifact, err := s.store.CreateArtifact(userID, kind)
	if err != nil {
		return fmt.Errorf("создать файл не удалось: %w", err)
	}
	if err := s.store.WriteArtifact(artifact, data); err != nil {
		return fmt.Errorf("сохранить файл не удалось: %w", err)
	}
	log.Infow("产物已生成",
		"userId", userID,
		"kind", string(kind),
		"path", artifact.Path,
		"size", len(data),
	)
	return nil
}
