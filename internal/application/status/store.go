// Package status 维护服务运行状态：启动时间与最近一次索引时间。
package status

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Snapshot 服务状态快照。
type Snapshot struct {
	Status string
	Uptime string

	// LastIndexed 最近一次成功索引的时间（RFC3339）。从未索引过则为空。
	LastIndexed string
}

// Store 并发安全的状态存储。
type Store struct {
	mu          sync.RWMutex
	startedAt   time.Time
	lastIndexed time.Time

	now func() time.Time
}

func NewStore() *Store {
	s := &Store{now: time.Now}
	s.startedAt = s.now()
	return s
}

// MarkIndexed 记录一次成功的索引。
func (s *Store) MarkIndexed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastIndexed = s.now()
}

// Snapshot 返回当前状态快照。
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Status: "healthy",
		Uptime: formatUptime(s.now().Sub(s.startedAt)),
	}
	if !s.lastIndexed.IsZero() {
		snap.LastIndexed = s.lastIndexed.UTC().Format(time.RFC3339)
	}
	return snap
}

// formatUptime 将时长格式化为 "2 days, 3 hours, 5 minutes, 1 seconds" 的形式。
// 为零的单位省略，不足一秒时固定输出 "0 seconds"。
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Seconds())
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	parts := make([]string, 0, 4)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%d days", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hours", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%d minutes", minutes))
	}
	if seconds > 0 {
		parts = append(parts, fmt.Sprintf("%d seconds", seconds))
	}
	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, ", ")
}
