package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gemini-duck-go/internal/config"
	"gemini-duck-go/internal/model"
	"gemini-duck-go/internal/storage"
	"gemini-duck-go/pkg/llm"
	"gemini-duck-go/pkg/log"
)

// 上游失败时的固定应答文本，经由正常的分发路径投递。
const upstreamErrorAnswer = "❌ **Ошибка при обращении к AI.**\n\nПожалуйста, попробуйте еще раз или используйте /clear для очистки истории."

// 提示词中只带入最近 3 轮问答。
const promptHistoryMessages = 6

// ChatService 协调一次完整的问答交互：注册校验、提示词组装、
// 模型调用与应答分发。
type ChatService interface {
	// HandleMessage 处理一条入站消息并返回投递意图。
	// 返回的 Reply 零值（Mode 为空）表示无需回复。
	HandleMessage(ctx context.Context, event model.InboundEvent) model.Reply
	// RegisterUser 注册用户并返回问候意图。
	RegisterUser(event model.InboundEvent) model.Reply
	// ChooseFormat 按用户选择的格式构建并返回文件意图。
	ChooseFormat(ctx context.Context, userID, sessionID, format string) (*model.FileReply, error)
	// Clear 清空会话上下文与用户工作区；历史记录保留。
	Clear(userID, sessionID string) error
	// Status 返回机器人运行状态。
	Status() model.StatusReport
	// History 返回用户最近的历史记录概览。
	History(userID string) (model.HistorySummary, error)
}

type chatService struct {
	botCfg    config.BotConfig
	llmClient llm.Client
	sessions  SessionService
	dispatch  DispatchService
	store     storage.ArtifactStore

	mentionRe *regexp.Regexp
	aliasRe   *regexp.Regexp
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	botCfg config.BotConfig,
	llmClient llm.Client,
	sessions SessionService,
	dispatch DispatchService,
	store storage.ArtifactStore,
) ChatService {
	return &chatService{
		botCfg:    botCfg,
		llmClient: llmClient,
		sessions:  sessions,
		dispatch:  dispatch,
		store:     store,
		mentionRe: regexp.MustCompile(`(?i)@` + regexp.QuoteMeta(botCfg.Username) + `\b`),
		aliasRe:   regexp.MustCompile(`(?i)` + regexp.QuoteMeta(botCfg.Alias)),
	}
}

func (s *chatService) HandleMessage(ctx context.Context, event model.InboundEvent) model.Reply {
	question := strings.TrimSpace(event.Text)
	if question == "" {
		return model.Reply{}
	}

	// 群聊门控：未注册用户只提醒一次，之后保持沉默
	if event.GroupChat {
		if !s.sessions.IsRegistered(event.UserID) {
			if s.sessions.WarnOnce(event.UserID) {
				return model.Reply{
					Mode: model.ModeInline,
					Text: "Для взаимодействия со мной отправь мне личное сообщение с командой /start 🤝",
				}
			}
			return model.Reply{}
		}
		question = s.stripMention(question)
		if question == "" {
			return model.Reply{Mode: model.ModeInline, Text: "Я слушаю 👂, но ты ничего не спросил."}
		}
	}

	log.Infow("处理入站消息",
		"userId", event.UserID,
		"sessionId", event.SessionID,
		"length", len(question),
	)

	answer, err := s.llmClient.Generate(ctx, s.composeMessages(event.SessionID, question))
	if err != nil {
		// 上游失败转换为固定错误应答，仍然走正常分发（长度规则同样适用）
		log.Error("上游模型调用失败", err)
		answer = upstreamErrorAnswer
	} else {
		s.sessions.AppendExchange(event.SessionID, question, answer)
	}

	return s.dispatch.Dispatch(event, question, answer)
}

// stripMention 去掉群聊消息中的 @用户名 与别名前缀。
func (s *chatService) stripMention(text string) string {
	text = s.mentionRe.ReplaceAllString(text, "")
	text = s.aliasRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// composeMessages 组装 role-based 消息序列：系统指令 + 有界历史 + 当前问题。
func (s *chatService) composeMessages(sessionID, question string) []llm.Message {
	system := strings.Join([]string{
		"Ты - полезный AI-ассистент " + s.botCfg.Name + ".",
		"Отвечай подробно и информативно.",
		"Используй Markdown форматирование для улучшения читаемости:",
		"заголовки, **жирный**, *курсив*, списки, `код`, > цитаты.",
		"Разделяй ответ на логические части с помощью заголовков.",
		"Будь точным и информативным.",
	}, "\n")

	history := s.sessions.History(sessionID)
	if len(history) > promptHistoryMessages {
		history = history[len(history)-promptHistoryMessages:]
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: "system", Content: system})
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: question})
	return msgs
}

func (s *chatService) RegisterUser(event model.InboundEvent) model.Reply {
	first := s.sessions.Register(event.UserID)
	s.sessions.ClearWarning(event.UserID)
	if _, err := s.store.Namespace(event.UserID); err != nil {
		log.Error("创建用户命名空间失败", err)
	}
	if first {
		log.Infof("✅ 新用户注册: %s", event.UserID)
	}
	return model.Reply{
		Mode: model.ModeInline,
		Text: fmt.Sprintf(
			"👋 Привет!\n\nЯ — **%s** 🦆, твой AI-помощник.\n\nЗадавайте вопросы — я помогу! 💡\nКороткие ответы приходят текстом, длинные можно выгрузить в HTML или PDF.\n\nКоманды: /help /clear /status /history",
			s.botCfg.Name,
		),
	}
}

func (s *chatService) ChooseFormat(ctx context.Context, userID, sessionID, format string) (*model.FileReply, error) {
	reply, err := s.dispatch.BuildDocument(ctx, userID, sessionID, format)
	if err != nil {
		// 待定应答保留，用户可以换一种格式重试
		log.Error("构建文档失败", err)
		return nil, err
	}
	return reply, nil
}

func (s *chatService) Clear(userID, sessionID string) error {
	s.sessions.ClearSession(sessionID)
	if err := s.store.ClearWorkingArea(userID); err != nil {
		return fmt.Errorf("очистить файлы не удалось: %w", err)
	}
	log.Infof("用户 %s 的会话与工作区已清空", userID)
	return nil
}

func (s *chatService) Status() model.StatusReport {
	return model.StatusReport{
		Model:           s.llmClient.ActiveModel(),
		RegisteredUsers: s.sessions.RegisteredCount(),
		ActiveSessions:  s.sessions.ActiveSessions(),
		ShortThreshold:  config.Conf.Dispatch.ShortThreshold,
		HardAnswerCap:   config.Conf.Dispatch.HardAnswerCap,
		SweepEveryHours: config.Conf.Retention.SweepIntervalHours,
		HistoryDays:     config.Conf.Retention.HistoryMaxAgeDays,
	}
}

func (s *chatService) History(userID string) (model.HistorySummary, error) {
	latest, total, err := s.store.ListTranscripts(userID, 5)
	if err != nil {
		return model.HistorySummary{}, err
	}
	var size int64
	for _, info := range latest {
		size += info.Size
	}
	return model.HistorySummary{Total: total, TotalSize: size, Latest: latest}, nil
}
