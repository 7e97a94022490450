// Package scheduler 负责周期性的后台维护任务：
// 定时清理工作区过期产物，以及每日一次的全局大扫除。
package scheduler

import (
	"context"
	"time"

	"gemini-duck-go/internal/config"
	"gemini-duck-go/internal/model"
	"gemini-duck-go/internal/service"
	"gemini-duck-go/internal/storage"
	"gemini-duck-go/pkg/log"
)

// Scheduler 持有清理任务所需的依赖与策略。
type Scheduler struct {
	cfg      config.RetentionConfig
	store    storage.ArtifactStore
	sessions service.SessionService
}

// New 创建一个新的 Scheduler 实例。
func New(cfg config.RetentionConfig, store storage.ArtifactStore, sessions service.SessionService) *Scheduler {
	return &Scheduler{cfg: cfg, store: store, sessions: sessions}
}

// Start 启动两个后台循环，直到 ctx 取消。
// 周期清理按 SweepIntervalHours 执行；每日清理在本地时间午夜执行。
func (s *Scheduler) Start(ctx context.Context) {
	go s.sweepLoop(ctx)
	go s.dailyLoop(ctx)
	log.Infof("清理调度已启动: 每 %d 小时扫描工作区, 每日执行全局清理", s.cfg.SweepIntervalHours)
}

func (s *Scheduler) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(s.cfg.SweepIntervalHours) * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunSweep()
		}
	}
}

func (s *Scheduler) dailyLoop(ctx context.Context) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).Add(24 * time.Hour)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.RunDailyCleanup()
		}
	}
}

// RunSweep 执行一次周期清理：删除所有用户工作区内的过期产物，
// 同时回收超龄的历史记录。
func (s *Scheduler) RunSweep() {
	reclaimed := s.store.SweepAll(model.RetentionPolicy{
		TempMaxAge:    time.Duration(s.cfg.TempMaxAgeHours) * time.Hour,
		HistoryMaxAge: time.Duration(s.cfg.HistoryMaxAgeDays) * 24 * time.Hour,
	})
	if reclaimed > 0 {
		log.Infof("周期清理完成, 回收历史记录 %d 条", reclaimed)
	}
}

// RunDailyCleanup 执行每日大扫除：重置所有会话上下文，
// 并用更宽松的工作区存活期做一次全量清理。
func (s *Scheduler) RunDailyCleanup() {
	s.sessions.ResetAll()
	reclaimed := s.store.SweepAll(model.RetentionPolicy{
		TempMaxAge:    time.Duration(s.cfg.DailyTempHours) * time.Hour,
		HistoryMaxAge: time.Duration(s.cfg.HistoryMaxAgeDays) * 24 * time.Hour,
	})
	log.Infof("每日清理完成: 会话上下文已重置, 回收历史记录 %d 条", reclaimed)
}
