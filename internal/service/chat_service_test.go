package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gemini-duck-go/internal/config"
	"gemini-duck-go/internal/model"
	"gemini-duck-go/internal/storage"
	"gemini-duck-go/pkg/llm"
)

type fakeLLM struct {
	answer string
	err    error
	gotMsg []llm.Message
}

func (f *fakeLLM) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	f.gotMsg = messages
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeLLM) ActiveModel() string { return "fake-model" }

func testBotConfig() config.BotConfig {
	return config.BotConfig{Name: "GeminiDuck Bot", Username: "geminiduck_bot", Alias: "геминидак"}
}

func newTestChat(t *testing.T, fake *fakeLLM) (ChatService, SessionService) {
	t.Helper()
	store, err := storage.NewArtifactStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	sessions := NewSessionService()
	dispatch := NewDispatchService(testDispatchConfig(), sessions, store, &fakePDFBuilder{}, &fakeHTMLBuilder{})
	return NewChatService(testBotConfig(), fake, sessions, dispatch, store), sessions
}

func TestHandleMessageInline(t *testing.T) {
	fake := &fakeLLM{answer: "короткий ответ"}
	chat, sessions := newTestChat(t, fake)

	reply := chat.HandleMessage(context.Background(), model.InboundEvent{
		UserID: "u1", SessionID: "s1", Text: "вопрос?",
	})
	if reply.Mode != model.ModeInline {
		t.Fatalf("mode = %s", reply.Mode)
	}
	if reply.Text != "короткий ответ" {
		t.Errorf("text = %q", reply.Text)
	}
	if len(sessions.History("s1")) != 2 {
		t.Error("成功的交互应写入会话历史")
	}
}

func TestHandleMessageComposesPrompt(t *testing.T) {
	fake := &fakeLLM{answer: "ok"}
	chat, sessions := newTestChat(t, fake)
	sessions.AppendExchange("s1", "старый вопрос", "старый ответ")

	chat.HandleMessage(context.Background(), model.InboundEvent{UserID: "u", SessionID: "s1", Text: "новый"})

	if len(fake.gotMsg) != 4 { // system + 2 条历史 + 当前问题
		t.Fatalf("消息数 %d", len(fake.gotMsg))
	}
	if fake.gotMsg[0].Role != "system" {
		t.Errorf("首条应为 system, 实际 %s", fake.gotMsg[0].Role)
	}
	if fake.gotMsg[3].Content != "новый" {
		t.Errorf("末条应为当前问题, 实际 %q", fake.gotMsg[3].Content)
	}
}

func TestHandleMessageUpstreamFailure(t *testing.T) {
	fake := &fakeLLM{err: errors.New("api down")}
	chat, sessions := newTestChat(t, fake)

	reply := chat.HandleMessage(context.Background(), model.InboundEvent{
		UserID: "u1", SessionID: "s1", Text: "вопрос",
	})
	// 固定错误应答本身带换行且低于短阈值，按分发规则走分块路径
	if reply.Mode != model.ModeChunked {
		t.Fatalf("mode = %s", reply.Mode)
	}
	if !strings.Contains(strings.Join(reply.Chunks, ""), "Ошибка") {
		t.Error("缺少用户可见的错误文本")
	}
	if len(sessions.History("s1")) != 0 {
		t.Error("失败的交互不应污染会话历史")
	}
}

func TestHandleMessageEmptyText(t *testing.T) {
	chat, _ := newTestChat(t, &fakeLLM{answer: "x"})
	reply := chat.HandleMessage(context.Background(), model.InboundEvent{UserID: "u", SessionID: "s", Text: "   "})
	if reply.Mode != "" {
		t.Errorf("空消息不应产生回复: %+v", reply)
	}
}

func TestGroupGatingUnregistered(t *testing.T) {
	chat, _ := newTestChat(t, &fakeLLM{answer: "x"})
	event := model.InboundEvent{UserID: "u1", SessionID: "s1", Text: "привет", GroupChat: true}

	first := chat.HandleMessage(context.Background(), event)
	if first.Mode != model.ModeInline || !strings.Contains(first.Text, "/start") {
		t.Fatalf("首次应提醒注册: %+v", first)
	}
	second := chat.HandleMessage(context.Background(), event)
	if second.Mode != "" {
		t.Errorf("重复消息应保持沉默: %+v", second)
	}
}

func TestGroupGatingStripsMention(t *testing.T) {
	fake := &fakeLLM{answer: "ответ"}
	chat, sessions := newTestChat(t, fake)
	sessions.Register("u1")

	chat.HandleMessage(context.Background(), model.InboundEvent{
		UserID: "u1", SessionID: "s1", Text: "@geminiduck_bot как дела?", GroupChat: true,
	})
	got := fake.gotMsg[len(fake.gotMsg)-1].Content
	if got != "как дела?" {
		t.Errorf("提及未被剥离: %q", got)
	}

	chat.HandleMessage(context.Background(), model.InboundEvent{
		UserID: "u1", SessionID: "s1", Text: "Геминидак, сколько времени?", GroupChat: true,
	})
	got = fake.gotMsg[len(fake.gotMsg)-1].Content
	if strings.Contains(strings.ToLower(got), "геминидак") {
		t.Errorf("别名未被剥离: %q", got)
	}
}

func TestGroupGatingEmptyAfterStrip(t *testing.T) {
	chat, sessions := newTestChat(t, &fakeLLM{answer: "x"})
	sessions.Register("u1")

	reply := chat.HandleMessage(context.Background(), model.InboundEvent{
		UserID: "u1", SessionID: "s1", Text: "@geminiduck_bot", GroupChat: true,
	})
	if reply.Mode != model.ModeInline || !strings.Contains(reply.Text, "слушаю") {
		t.Errorf("剥离后为空应提示继续提问: %+v", reply)
	}
}

func TestRegisterUser(t *testing.T) {
	chat, sessions := newTestChat(t, &fakeLLM{answer: "x"})
	reply := chat.RegisterUser(model.InboundEvent{UserID: "u1", SessionID: "s1"})
	if reply.Mode != model.ModeInline || !strings.Contains(reply.Text, "GeminiDuck Bot") {
		t.Errorf("问候意图异常: %+v", reply)
	}
	if !sessions.IsRegistered("u1") {
		t.Error("用户未被注册")
	}
}

func TestClearKeepsTranscripts(t *testing.T) {
	fake := &fakeLLM{answer: "ответ"}
	chat, sessions := newTestChat(t, fake)

	chat.HandleMessage(context.Background(), model.InboundEvent{UserID: "u1", SessionID: "s1", Text: "q"})
	if err := chat.Clear("u1", "s1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(sessions.History("s1")) != 0 {
		t.Error("会话历史未清空")
	}
	summary, err := chat.History("u1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if summary.Total != 1 {
		t.Errorf("历史记录应保留, total = %d", summary.Total)
	}
}

func TestStatus(t *testing.T) {
	chat, sessions := newTestChat(t, &fakeLLM{answer: "x"})
	sessions.Register("a")
	sessions.Register("b")

	st := chat.Status()
	if st.Model != "fake-model" {
		t.Errorf("model = %q", st.Model)
	}
	if st.RegisteredUsers != 2 {
		t.Errorf("registered = %d", st.RegisteredUsers)
	}
}
