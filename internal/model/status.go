package model

// StatusReport 汇总 /status 展示所需的运行信息。
type StatusReport struct {
	Model           string `json:"model"`
	RegisteredUsers int    `json:"registeredUsers"`
	ActiveSessions  int    `json:"activeSessions"`
	ShortThreshold  int    `json:"shortThreshold"`
	HardAnswerCap   int    `json:"hardAnswerCap"`
	SweepEveryHours int    `json:"sweepEveryHours"`
	HistoryDays     int    `json:"historyDays"`
}

// HistorySummary 汇总 /history 展示所需的历史信息。
type HistorySummary struct {
	Total     int              `json:"total"`
	TotalSize int64            `json:"totalSize"`
	Latest    []TranscriptInfo `json:"latest"`
}
