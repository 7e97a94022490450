package model

import "time"

// ChatMessage 代表会话历史中的单条消息。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// InboundEvent 是消息传输层交给核心的入站事件。
// 核心不关心消息来自哪种通道，只依赖这些字段。
type InboundEvent struct {
	UserID    string `json:"userId"`
	ChatID    string `json:"chatId"`
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
	GroupChat bool   `json:"groupChat"` // 群聊消息需要注册校验
}

// PendingResponse 是会话内最近一次应答的内存缓存，
// 用于延迟的格式选择。每个会话至多一份，新应答覆盖旧应答。
type PendingResponse struct {
	Question  string
	Answer    string
	CreatedAt time.Time
}

// DeliveryMode 表示一次应答的投递方式。
type DeliveryMode string

const (
	ModeInline  DeliveryMode = "inline"
	ModeChunked DeliveryMode = "chunked"
	ModeOffered DeliveryMode = "offered"
)

// Reply 是核心返回给传输层的投递意图。
// 四种互斥形态：单条文本、分块文本、格式选择、文件。
type Reply struct {
	Mode DeliveryMode `json:"mode"`

	// Mode == inline
	Text string `json:"text,omitempty"`

	// Mode == chunked
	Chunks     []string      `json:"chunks,omitempty"`
	ChunkDelay time.Duration `json:"chunkDelay,omitempty"`

	// Mode == offered
	Offer *FileOffer `json:"offer,omitempty"`
}

// FileOffer 描述长应答的格式选择提示。
type FileOffer struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices"` // "html", "pdf"
	Length  int      `json:"length"`  // 应答长度（字符）
}

// FileReply 是格式选择后返回的文件投递意图。
type FileReply struct {
	FileName string `json:"fileName"`
	Caption  string `json:"caption"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// RetentionPolicy 描述三个互相独立的 TTL。
// 工作区清理永不触碰历史记录，反之亦然。
type RetentionPolicy struct {
	TempMaxAge    time.Duration // 工作区文件最大存活
	HistoryMaxAge time.Duration // 历史记录最大存活
}
