package session

import (
	"context"
	"log"
	"sync"
	"time"
)

type entry struct {
	userID    string
	createdAt time.Time
}

// MemoryRegistry はプロセス内メモリにセッションを保持する Registry 実装です。
// ttl が 0 の場合、セッションは明示的に削除されるまで有効です。
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[string]entry
	ttl      time.Duration

	now   func() time.Time
	newID func() (string, error)
}

// NewMemoryRegistry は MemoryRegistry を作成します。
func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryRegistry{
		sessions: make(map[string]entry),
		ttl:      ttl,
		now:      time.Now,
		newID:    GenerateID,
	}
}

// Create は未使用のIDを発行してメモリに登録します。
func (r *MemoryRegistry) Create(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		id, err := r.newID()
		if err != nil {
			return "", err
		}

		r.mu.Lock()
		if _, taken := r.sessions[id]; taken {
			r.mu.Unlock()
			continue
		}
		r.sessions[id] = entry{userID: userID, createdAt: r.now()}
		r.mu.Unlock()
		return id, nil
	}
	return "", ErrIDExhausted
}

// Lookup はセッションIDに対応するユーザーIDを返します。期限切れは存在しない扱いです。
func (r *MemoryRegistry) Lookup(ctx context.Context, sessionID string) (string, bool, error) {
	if sessionID == "" {
		return "", false, nil
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	r.mu.RLock()
	e, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok || r.expired(e, r.now()) {
		return "", false, nil
	}
	return e.userID, true, nil
}

// Delete はセッションを削除し、有効なセッションだったかを返します。
func (r *MemoryRegistry) Delete(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sessionID]
	if !ok {
		return false, nil
	}
	delete(r.sessions, sessionID)
	// 期限切れのエントリは既に無効なので「存在しなかった」扱いにする
	return !r.expired(e, r.now()), nil
}

// Len は保持しているエントリ数（期限切れで未掃除のものを含む）を返します。
func (r *MemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep は期限切れのセッションを削除し、削除した件数を返します。
func (r *MemoryRegistry) Sweep() int {
	if r.ttl == 0 {
		return 0
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.sessions {
		if r.expired(e, now) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper は ctx が終了するまで interval ごとに Sweep を実行します。
func (r *MemoryRegistry) StartSweeper(ctx context.Context, interval time.Duration, logger *log.Logger) {
	if r.ttl == 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := r.Sweep(); n > 0 && logger != nil {
					logger.Printf("session sweeper removed %d expired sessions", n)
				}
			}
		}
	}()
}

func (r *MemoryRegistry) expired(e entry, now time.Time) bool {
	if r.ttl == 0 {
		return false
	}
	return now.Sub(e.createdAt) > r.ttl
}
