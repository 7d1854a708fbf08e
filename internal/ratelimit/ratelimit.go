// Package ratelimit 玩家交互限流
package ratelimit

import (
	"log"
	"sync"
	"time"
)

// RateLimiter 按用户限流，超限后封禁一段时间
type RateLimiter struct {
	requests map[string]*userRate
	mu       sync.Mutex

	maxPerSecond    int
	maxPerMinute    int
	banDuration     time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

type userRate struct {
	secondCount int
	minuteCount int
	lastSecond  time.Time
	lastMinute  time.Time
	bannedUntil time.Time
}

// New 创建限流器。maxPerSecond 或 maxPerMinute 小于等于 0 表示不限制。
func New(maxPerSecond, maxPerMinute int, banDuration time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests:        make(map[string]*userRate),
		maxPerSecond:    maxPerSecond,
		maxPerMinute:    maxPerMinute,
		banDuration:     banDuration,
		cleanupInterval: 5 * time.Minute,
		now:             time.Now,
		stop:            make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow 记录一次操作并返回是否放行
func (rl *RateLimiter) Allow(userID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rate, exists := rl.requests[userID]
	if !exists {
		rate = &userRate{lastSecond: now, lastMinute: now}
		rl.requests[userID] = rate
	}

	if now.Before(rate.bannedUntil) {
		return false
	}

	if now.Sub(rate.lastSecond) >= time.Second {
		rate.secondCount = 0
		rate.lastSecond = now
	}
	if now.Sub(rate.lastMinute) >= time.Minute {
		rate.minuteCount = 0
		rate.lastMinute = now
	}

	rate.secondCount++
	rate.minuteCount++

	if (rl.maxPerSecond > 0 && rate.secondCount > rl.maxPerSecond) ||
		(rl.maxPerMinute > 0 && rate.minuteCount > rl.maxPerMinute) {
		rate.bannedUntil = now.Add(rl.banDuration)
		log.Printf("⚠️ 用户 %s 操作过于频繁，暂时封禁 %v", userID, rl.banDuration)
		return false
	}
	return true
}

// IsBanned 用户是否处于封禁中
func (rl *RateLimiter) IsBanned(userID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rate, exists := rl.requests[userID]
	return exists && rl.now().Before(rate.bannedUntil)
}

// Close 停止后台清理
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

// cleanup 删除 10 分钟内无操作且未封禁的记录
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for id, rate := range rl.requests {
		if now.Sub(rate.lastMinute) > 10*time.Minute && now.After(rate.bannedUntil) {
			delete(rl.requests, id)
		}
	}
}
