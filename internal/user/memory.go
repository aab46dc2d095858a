package user

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MemoryStore はプロセス内メモリにユーザーを保持する Store 実装です。
type MemoryStore struct {
	mu    sync.RWMutex
	users []*User
	byID  map[string]*User
}

// NewMemoryStore は空の MemoryStore を作成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*User)}
}

// FindByEmail はメールアドレスが一致するユーザーを登録順で返します。
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) ([]*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]*User, 0, 1)
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			matches = append(matches, &clone)
		}
	}
	return matches, nil
}

// Get は ID でユーザーを取得します。
func (s *MemoryStore) Get(ctx context.Context, id string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *u
	return &clone, nil
}

// Create はユーザーを登録します。ID が重複する場合はエラーです。
func (s *MemoryStore) Create(ctx context.Context, u *User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if u == nil {
		return errors.New("user is nil")
	}
	if u.ID == "" {
		return errors.New("user id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[u.ID]; exists {
		return fmt.Errorf("user %s already exists", u.ID)
	}
	clone := *u
	s.users = append(s.users, &clone)
	s.byID[clone.ID] = &clone
	return nil
}
