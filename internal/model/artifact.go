// Package model 包含了应用的数据模型定义。
package model

import "time"

// ArtifactKind 表示工作区内产物的逻辑类型。
type ArtifactKind string

const (
	ArtifactPDF      ArtifactKind = "pdf"  // 分页文档
	ArtifactHTML     ArtifactKind = "html" // 样式页面
	ArtifactMarkdown ArtifactKind = "md"   // 原始标记源
)

// Prefix 返回产物文件名的前缀。
func (k ArtifactKind) Prefix() string {
	switch k {
	case ArtifactPDF:
		return "pdf_"
	case ArtifactHTML:
		return "html_response_"
	case ArtifactMarkdown:
		return "md_source_"
	default:
		return "file_"
	}
}

// Ext 返回产物文件的扩展名。
func (k ArtifactKind) Ext() string {
	return string(k)
}

// Artifact 代表一次渲染产物在某个用户工作区内的句柄。
// 文件在写入前尚不存在于磁盘上；写入后不可变。
type Artifact struct {
	UserID    string
	Kind      ArtifactKind
	Path      string
	CreatedAt time.Time
}

// TranscriptRecord 代表一次问答交互的持久化记录。
// 只追加，从不修改；按天粒度的 TTL 独立于工作区清理。
type TranscriptRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
}

// TranscriptInfo 描述一个历史记录文件的元信息，用于 /history 展示。
type TranscriptInfo struct {
	Name    string    `json:"name"`
	ModTime time.Time `json:"modTime"`
	Size    int64     `json:"size"`
}
