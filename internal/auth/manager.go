// Package auth はセッションによるログイン・ログアウト処理を提供します。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/session-auth/internal/session"
	"github.com/yourusername/session-auth/internal/user"
)

// Manager は資格情報の検証とセッションの発行・破棄をまとめた構造体です。
type Manager struct {
	users    user.Store
	sessions session.Registry
	logger   *log.Logger
}

// NewManager は認証マネージャーを作成します。
func NewManager(users user.Store, sessions session.Registry, logger *log.Logger) (*Manager, error) {
	if users == nil {
		return nil, errors.New("user store is nil")
	}
	if sessions == nil {
		return nil, errors.New("session registry is nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		users:    users,
		sessions: sessions,
		logger:   logger,
	}, nil
}

// Login はメールアドレスとパスワードを検証し、新しいセッションを発行します。
// 失敗した場合、セッションは作成されません。
func (m *Manager) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	if strings.TrimSpace(email) == "" {
		return nil, "", ErrEmailMissing
	}
	if strings.TrimSpace(password) == "" {
		return nil, "", ErrPasswordMissing
	}

	users, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		// ストア障害の詳細はクライアントに返さない
		m.logger.Printf("auth: user lookup failed: %v", err)
		user.CompareDummy(password)
		return nil, "", ErrUserNotFound
	}
	if len(users) == 0 {
		user.CompareDummy(password)
		return nil, "", ErrUserNotFound
	}

	u := users[0]
	if !u.VerifyPassword(password) {
		return nil, "", ErrWrongPassword
	}

	sessionID, err := m.sessions.Create(ctx, u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}
	return u, sessionID, nil
}

// Logout はセッションを破棄し、破棄できたかどうかを返します。
func (m *Manager) Logout(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	deleted, err := m.sessions.Delete(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return deleted, nil
}

// CurrentUser はセッションIDに結び付いたユーザーを返します。
func (m *Manager) CurrentUser(ctx context.Context, sessionID string) (*user.User, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}
	userID, ok, err := m.sessions.Lookup(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if !ok {
		return nil, ErrNoSession
	}
	u, err := m.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}
