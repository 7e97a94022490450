// Package storage 提供了基于文件系统的产物存储层。
// 每个用户拥有相互隔离的命名空间：temp/ 存放短期渲染产物，
// history/ 存放按天保留的问答记录。
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"gemini-duck-go/internal/model"
	"gemini-duck-go/pkg/log"
)

// ArtifactStore 定义了产物与历史记录的存储操作接口。
type ArtifactStore interface {
	// Namespace 返回用户命名空间的根目录，目录不存在时创建；幂等。
	Namespace(userID string) (string, error)
	// CreateArtifact 返回工作区内一个唯一且无冲突的产物句柄，
	// 文件在 WriteArtifact 之前不存在于磁盘上。
	CreateArtifact(userID string, kind model.ArtifactKind) (*model.Artifact, error)
	// WriteArtifact 原子写入产物内容：先写临时名，成功后改名。
	// 失败的构建不会留下看似完整的半成品文件。
	WriteArtifact(artifact *model.Artifact, data []byte) error
	// RemoveArtifact 删除一个被取代的产物；文件已不存在不算错误。
	RemoveArtifact(artifact *model.Artifact)
	// WriteTranscript 追加一条问答记录；失败只记日志，不向调用方抛出。
	WriteTranscript(userID, question, answer string)
	// ListTranscripts 返回用户最近的历史记录文件（新在前），最多 limit 条。
	ListTranscripts(userID string, limit int) ([]model.TranscriptInfo, int, error)
	// SweepWorkingArea 删除工作区内早于 maxAge 的文件，
	// 容忍扫描期间文件的并发创建与删除。
	SweepWorkingArea(userID string, maxAge time.Duration)
	// ClearWorkingArea 删除并重建整个工作区；历史记录不受影响。
	ClearWorkingArea(userID string) error
	// SweepAll 按保留策略遍历所有命名空间，返回回收的历史记录数。
	SweepAll(policy model.RetentionPolicy) int
}

type fileStore struct {
	baseDir string
	seq     uint64 // 单调递增的文件名消歧计数器
}

// NewArtifactStore 创建一个基于 baseDir 的存储实例。
// baseDir 为空时使用系统临时目录下的 geminiduck 子目录。
func NewArtifactStore(baseDir string) (ArtifactStore, error) {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "geminiduck")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建基础目录失败: %w", err)
	}
	log.Infof("产物存储基础目录: %s", baseDir)
	return &fileStore{baseDir: baseDir}, nil
}

// sanitizeID 把任意用户标识映射为安全且单射的目录名片段。
func sanitizeID(userID string) string {
	var b strings.Builder
	for _, r := range userID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			fmt.Fprintf(&b, "_%04x", r)
		}
	}
	return b.String()
}

func (s *fileStore) userDir(userID string) string {
	return filepath.Join(s.baseDir, "user_"+sanitizeID(userID))
}

func (s *fileStore) tempDir(userID string) string {
	return filepath.Join(s.userDir(userID), "temp")
}

func (s *fileStore) historyDir(userID string) string {
	return filepath.Join(s.userDir(userID), "history")
}

func (s *fileStore) Namespace(userID string) (string, error) {
	dir := s.userDir(userID)
	for _, d := range []string{dir, filepath.Join(dir, "temp"), filepath.Join(dir, "history")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return "", fmt.Errorf("创建用户目录失败: %w", err)
		}
	}
	return dir, nil
}

func (s *fileStore) CreateArtifact(userID string, kind model.ArtifactKind) (*model.Artifact, error) {
	if _, err := s.Namespace(userID); err != nil {
		return nil, err
	}
	now := time.Now()
	// 时间戳精确到微秒，加单调计数器，保证同一进程节拍内不冲突
	name := fmt.Sprintf("%s%s_%d.%s",
		kind.Prefix(),
		now.Format("20060102_150405.000000"),
		atomic.AddUint64(&s.seq, 1),
		kind.Ext(),
	)
	name = strings.Replace(name, ".", "_", 1) // 秒与微秒之间用下划线
	return &model.Artifact{
		UserID:    userID,
		Kind:      kind,
		Path:      filepath.Join(s.tempDir(userID), name),
		CreatedAt: now,
	}, nil
}

func (s *fileStore) WriteArtifact(artifact *model.Artifact, data []byte) error {
	tmp := artifact.Path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("写入产物失败: %w", err)
	}
	if err := os.Rename(tmp, artifact.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("产物落盘失败: %w", err)
	}
	return nil
}

func (s *fileStore) RemoveArtifact(artifact *model.Artifact) {
	if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
		log.Error("删除产物失败: "+artifact.Path, err)
	}
}

func (s *fileStore) WriteTranscript(userID, question, answer string) {
	if _, err := s.Namespace(userID); err != nil {
		log.Error("保存历史记录失败", err)
		return
	}
	ts := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("session_%s_%d.txt", ts, atomic.AddUint64(&s.seq, 1))

	var b strings.Builder
	fmt.Fprintf(&b, "Вопрос (%s):\n%s\n\n", ts, question)
	fmt.Fprintf(&b, "Ответ:\n%s\n", answer)
	b.WriteString(strings.Repeat("-", 50) + "\n")

	path := filepath.Join(s.historyDir(userID), name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		log.Error("保存历史记录失败", err)
	}
}

func (s *fileStore) ListTranscripts(userID string, limit int) ([]model.TranscriptInfo, int, error) {
	entries, err := os.ReadDir(s.historyDir(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("读取历史目录失败: %w", err)
	}

	var infos []model.TranscriptInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			// 文件在扫描期间消失，跳过
			continue
		}
		infos = append(infos, model.TranscriptInfo{
			Name:    entry.Name(),
			ModTime: fi.ModTime(),
			Size:    fi.Size(),
		})
	}
	total := len(infos)
	sort.Slice(infos, func(i, j int) bool { return infos[i].ModTime.After(infos[j].ModTime) })
	if limit > 0 && len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, total, nil
}

func (s *fileStore) SweepWorkingArea(userID string, maxAge time.Duration) {
	s.sweepDir(s.tempDir(userID), maxAge)
}

// sweepDir 删除目录下早于 maxAge 的普通文件，返回删除数。
// 逐文件容错：某个文件的失败不影响其余文件。
func (s *fileStore) sweepDir(dir string, maxAge time.Duration) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error("扫描目录失败: "+dir, err)
		}
		return 0
	}

	now := time.Now()
	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			// 并发删除导致文件消失，跳过而不是报错
			continue
		}
		if now.Sub(fi.ModTime()) <= maxAge {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			log.Error("删除过期文件失败: "+entry.Name(), err)
			continue
		}
		deleted++
	}
	return deleted
}

func (s *fileStore) ClearWorkingArea(userID string) error {
	dir := s.tempDir(userID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("清空工作区失败: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("重建工作区失败: %w", err)
	}
	return nil
}

func (s *fileStore) SweepAll(policy model.RetentionPolicy) int {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		log.Error("扫描基础目录失败", err)
		return 0
	}

	reclaimed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "user_") {
			continue
		}
		userDir := filepath.Join(s.baseDir, entry.Name())
		// 单个用户的失败不中断其他用户的清理
		s.sweepDir(filepath.Join(userDir, "temp"), policy.TempMaxAge)
		reclaimed += s.sweepDir(filepath.Join(userDir, "history"), policy.HistoryMaxAge)
	}
	return reclaimed
}
