// Package service 包含了应用的业务逻辑层。
package service

import (
	"sync"
	"time"

	"gemini-duck-go/internal/model"
	"gemini-duck-go/pkg/log"
)

// SessionService 管理进程内的会话状态：注册用户集合、群聊提醒计数、
// 每个会话的待定应答与有限长度的对话历史。
// 所有状态只通过本接口修改，调度器的每日重置是唯一的全局清空入口。
type SessionService interface {
	// Register 注册用户，返回该用户是否首次注册。
	Register(userID string) bool
	IsRegistered(userID string) bool
	RegisteredCount() int

	// WarnOnce 为未注册用户记一次群聊提醒，仅第一次返回 true。
	WarnOnce(userID string) bool
	// ClearWarning 清除用户的提醒计数（注册成功后调用）。
	ClearWarning(userID string)

	// SetPending 记录会话最近一次应答；新应答覆盖旧应答。
	SetPending(sessionID, question, answer string)
	// Pending 返回会话的待定应答。
	Pending(sessionID string) (model.PendingResponse, bool)

	// AppendExchange 追加一轮问答到会话历史，历史长度有界。
	AppendExchange(sessionID, question, answer string)
	// History 返回会话历史的副本。
	History(sessionID string) []model.ChatMessage

	// ClearSession 清空单个会话的历史与待定应答。
	ClearSession(sessionID string)
	ActiveSessions() int
	// ResetAll 清空所有会话状态（由调度器每日触发）。
	ResetAll()
}

// 每个会话保留的最大消息数（5 轮问答）。
const maxHistoryMessages = 10

type sessionState struct {
	pending *model.PendingResponse
	history []model.ChatMessage
}

type sessionService struct {
	mu         sync.RWMutex
	registered map[string]bool
	warned     map[string]int
	sessions   map[string]*sessionState
}

// NewSessionService 创建一个新的 SessionService 实例。
func NewSessionService() SessionService {
	return &sessionService{
		registered: make(map[string]bool),
		warned:     make(map[string]int),
		sessions:   make(map[string]*sessionState),
	}
}

func (s *sessionService) Register(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registered[userID] {
		return false
	}
	s.registered[userID] = true
	delete(s.warned, userID)
	return true
}

func (s *sessionService) IsRegistered(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registered[userID]
}

func (s *sessionService) RegisteredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registered)
}

func (s *sessionService) WarnOnce(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.warned[userID] > 0 {
		return false
	}
	s.warned[userID] = 1
	return true
}

func (s *sessionService) ClearWarning(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.warned, userID)
}

func (s *sessionService) state(sessionID string) *sessionState {
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{}
		s.sessions[sessionID] = st
	}
	return st
}

func (s *sessionService) SetPending(sessionID, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// 最后写入者胜出，不做合并
	s.state(sessionID).pending = &model.PendingResponse{
		Question:  question,
		Answer:    answer,
		CreatedAt: time.Now(),
	}
}

func (s *sessionService) Pending(sessionID string) (model.PendingResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[sessionID]
	if !ok || st.pending == nil {
		return model.PendingResponse{}, false
	}
	return *st.pending, true
}

func (s *sessionService) AppendExchange(sessionID, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(sessionID)
	now := time.Now()
	st.history = append(st.history,
		model.ChatMessage{Role: "user", Content: question, Timestamp: now},
		model.ChatMessage{Role: "assistant", Content: answer, Timestamp: now},
	)
	if len(st.history) > maxHistoryMessages {
		st.history = st.history[len(st.history)-maxHistoryMessages:]
	}
}

func (s *sessionService) History(sessionID string) []model.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]model.ChatMessage, len(st.history))
	copy(out, st.history)
	return out
}

func (s *sessionService) ClearSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *sessionService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *sessionService) ResetAll() {
	s.mu.Lock()
	cleared := len(s.sessions)
	s.sessions = make(map[string]*sessionState)
	s.mu.Unlock()
	log.Infof("会话状态已全局重置, 清空 %d 个会话", cleared)
}
