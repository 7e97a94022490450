package service

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegister(t *testing.T) {
	s := NewSessionService()
	if !s.Register("u1") {
		t.Error("首次注册应返回 true")
	}
	if s.Register("u1") {
		t.Error("重复注册应返回 false")
	}
	if !s.IsRegistered("u1") {
		t.Error("用户应处于已注册状态")
	}
	if s.RegisteredCount() != 1 {
		t.Errorf("注册数 %d", s.RegisteredCount())
	}
}

func TestWarnOnce(t *testing.T) {
	s := NewSessionService()
	if !s.WarnOnce("u1") {
		t.Error("第一次提醒应返回 true")
	}
	if s.WarnOnce("u1") {
		t.Error("第二次提醒应返回 false")
	}
	s.ClearWarning("u1")
	if !s.WarnOnce("u1") {
		t.Error("清除计数后应重新提醒")
	}
}

func TestPendingLastWriteWins(t *testing.T) {
	s := NewSessionService()
	if _, ok := s.Pending("sess"); ok {
		t.Error("新会话不应有待定应答")
	}
	s.SetPending("sess", "q1", "a1")
	s.SetPending("sess", "q2", "a2")
	p, ok := s.Pending("sess")
	if !ok {
		t.Fatal("待定应答丢失")
	}
	if p.Question != "q2" || p.Answer != "a2" {
		t.Errorf("应保留最后一次写入: %+v", p)
	}
}

func TestHistoryBounded(t *testing.T) {
	s := NewSessionService()
	for i := 0; i < 20; i++ {
		s.AppendExchange("sess", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}
	h := s.History("sess")
	if len(h) != maxHistoryMessages {
		t.Fatalf("历史长度 %d, 期望 %d", len(h), maxHistoryMessages)
	}
	if h[len(h)-1].Content != "a19" {
		t.Errorf("应保留最新消息, 末尾为 %q", h[len(h)-1].Content)
	}
}

func TestClearSessionAndResetAll(t *testing.T) {
	s := NewSessionService()
	s.SetPending("a", "q", "ans")
	s.AppendExchange("b", "q", "ans")

	s.ClearSession("a")
	if _, ok := s.Pending("a"); ok {
		t.Error("清空会话后待定应答仍在")
	}
	if s.ActiveSessions() != 1 {
		t.Errorf("活跃会话数 %d", s.ActiveSessions())
	}

	s.ResetAll()
	if s.ActiveSessions() != 0 {
		t.Error("全局重置后仍有活跃会话")
	}
	if len(s.History("b")) != 0 {
		t.Error("全局重置后历史仍在")
	}
}

// 并发读写不应竞争；配合 -race 运行。
func TestConcurrentAccess(t *testing.T) {
	s := NewSessionService()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("sess%d", n%2)
			for j := 0; j < 100; j++ {
				s.SetPending(id, "q", "a")
				s.Pending(id)
				s.AppendExchange(id, "q", "a")
				s.History(id)
			}
		}(i)
	}
	wg.Wait()
}
