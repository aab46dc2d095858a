package auth

import (
	"sync"
	"time"
)

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// Limiter はクライアントごとのログイン失敗回数を数え、上限に達したら一定時間ロックします。
// maxAttempts が 0 以下の場合は何も制限しません。
type Limiter struct {
	maxAttempts  int
	window       time.Duration
	lockDuration time.Duration

	lock     sync.Mutex
	attempts map[string]*attemptState
	now      func() time.Time
}

// NewLimiter は Limiter を作成します。
func NewLimiter(maxAttempts int, window, lockDuration time.Duration) *Limiter {
	return &Limiter{
		maxAttempts:  maxAttempts,
		window:       window,
		lockDuration: lockDuration,
		attempts:     make(map[string]*attemptState),
		now:          time.Now,
	}
}

func (l *Limiter) enabled() bool {
	return l != nil && l.maxAttempts > 0
}

// RetryAfter はロック中であれば解除までの残り時間を返します。
func (l *Limiter) RetryAfter(key string) time.Duration {
	if !l.enabled() {
		return 0
	}
	l.lock.Lock()
	defer l.lock.Unlock()

	state, ok := l.attempts[key]
	if !ok {
		return 0
	}
	now := l.now()
	if !now.Before(state.lockedUntil) {
		return 0
	}
	return state.lockedUntil.Sub(now)
}

// RecordFailure は失敗を記録し、ロックまでの残り回数を返します。
func (l *Limiter) RecordFailure(key string) int {
	if !l.enabled() {
		return 0
	}
	l.lock.Lock()
	defer l.lock.Unlock()

	now := l.now()
	l.prune(now)
	state, ok := l.attempts[key]
	if !ok || now.Sub(state.firstAttempt) > l.window {
		state = &attemptState{firstAttempt: now}
		l.attempts[key] = state
	}

	state.count++
	if state.count >= l.maxAttempts {
		state.lockedUntil = now.Add(l.lockDuration)
		state.count = l.maxAttempts
	}

	remaining := l.maxAttempts - state.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// prune は集計期間もロックも終わったエントリを削除します。呼び出し側でロックを取得していること。
func (l *Limiter) prune(now time.Time) {
	for key, state := range l.attempts {
		if now.Sub(state.firstAttempt) > l.window && !now.Before(state.lockedUntil) {
			delete(l.attempts, key)
		}
	}
}

// Len は追跡中のクライアント数を返します。
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.attempts)
}

// Reset はログイン成功時に失敗記録を消去します。
func (l *Limiter) Reset(key string) {
	if !l.enabled() {
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	delete(l.attempts, key)
}
