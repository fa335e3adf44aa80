package clock

import (
	"sync"
	"time"
)

// TimeSource 毫秒时间戳来源
type TimeSource interface {
	NowMillis() int64
}

// System 系统时钟
type System struct{}

// NowMillis 获取当前毫秒时间戳
func (System) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Manual 手动时钟，用于测试和回放
type Manual struct {
	mu  sync.Mutex
	now int64
}

// NewManual 创建手动时钟
func NewManual(start int64) *Manual {
	return &Manual{now: start}
}

// NowMillis 获取当前毫秒时间戳
func (m *Manual) NowMillis() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance 前进指定毫秒数
func (m *Manual) Advance(millis int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += millis
}

// Set 设置当前时间戳
func (m *Manual) Set(millis int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = millis
}
