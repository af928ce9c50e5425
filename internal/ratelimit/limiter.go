package ratelimit

import (
	"context"
	"sync"
	"time"
)

// 默认限流参数：每个邮箱每小时最多 5 次提交
const (
	DefaultMax    = 5
	DefaultWindow = time.Hour
)

// Limiter 按键计数的固定窗口限流器
//
// CheckAndIncrement 返回 true 表示已被限流，请求必须拒绝。
type Limiter interface {
	CheckAndIncrement(ctx context.Context, key string) (bool, error)
}

type bucket struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter 进程内限流器
//
// 计数只在当前实例内有效，多实例部署时限额按实例计算。
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*bucket
	max     int
	window  time.Duration
	now     func() time.Time

	sweep    time.Duration
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Option 配置 MemoryLimiter
type Option func(*MemoryLimiter)

// WithClock 替换时间源，用于测试
func WithClock(now func() time.Time) Option {
	return func(l *MemoryLimiter) {
		l.now = now
	}
}

// WithSweep 启动后台协程按间隔清理过期窗口，调用方需要 Close
func WithSweep(interval time.Duration) Option {
	return func(l *MemoryLimiter) {
		l.sweep = interval
	}
}

// NewMemoryLimiter 创建进程内限流器
//
// 参数:
//   - max: 窗口内允许的最大次数
//   - window: 窗口长度
func NewMemoryLimiter(max int, window time.Duration, opts ...Option) *MemoryLimiter {
	if max <= 0 {
		max = DefaultMax
	}
	if window <= 0 {
		window = DefaultWindow
	}

	l := &MemoryLimiter{
		entries: make(map[string]*bucket),
		max:     max,
		window:  window,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.sweep > 0 {
		l.stop = make(chan struct{})
		l.done = make(chan struct{})
		go l.sweepLoop()
	}

	return l
}

// CheckAndIncrement 检查并累加计数
//
// 窗口不存在或已过期时重新开窗并计为 1；计数达到上限时直接返回限流且不再累加。
func (l *MemoryLimiter) CheckAndIncrement(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]
	if !ok || now.After(entry.resetAt) {
		l.entries[key] = &bucket{count: 1, resetAt: now.Add(l.window)}
		return false, nil
	}

	if entry.count >= l.max {
		return true, nil
	}

	entry.count++
	return false, nil
}

// Count 返回键在当前窗口内的计数，窗口过期时返回 0
func (l *MemoryLimiter) Count(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || l.now().After(entry.resetAt) {
		return 0
	}
	return entry.count
}

// Len 返回当前保存的窗口数量
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Prune 删除所有已过期的窗口，返回删除数量
func (l *MemoryLimiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, entry := range l.entries {
		if now.After(entry.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Close 停止后台清理协程，可重复调用
func (l *MemoryLimiter) Close() error {
	if l.stop == nil {
		return nil
	}
	l.stopOnce.Do(func() {
		close(l.stop)
		<-l.done
	})
	return nil
}

func (l *MemoryLimiter) sweepLoop() {
	defer close(l.done)

	ticker := time.NewTicker(l.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.Prune()
		}
	}
}
