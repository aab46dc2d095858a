// Package session はセッションIDとユーザーIDの対応表（レジストリ）と、
// セッションIDをクッキーで受け渡すためのバインディングを提供します。
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// idBytes はセッションIDの乱数バイト数です（256 bit）。
const idBytes = 32

// maxCreateAttempts は ID 衝突時に再生成する上限回数です。
const maxCreateAttempts = 8

var (
	// ErrEmptyUserID は空のユーザーIDでセッションを作ろうとした場合に返されます。
	ErrEmptyUserID = errors.New("session: user id is required")
	// ErrIDExhausted は未使用の ID を規定回数内に生成できなかった場合に返されます。
	ErrIDExhausted = errors.New("session: could not allocate an unused id")
)

// Registry はセッションIDからユーザーIDへの対応を管理します。
type Registry interface {
	// Create は未使用のセッションIDを発行し userID と結び付けます。
	Create(ctx context.Context, userID string) (string, error)
	// Lookup はセッションIDに結び付いたユーザーIDを返します。状態は変更しません。
	Lookup(ctx context.Context, sessionID string) (userID string, found bool, err error)
	// Delete はセッションを削除し、有効なエントリが存在したかを返します。
	Delete(ctx context.Context, sessionID string) (bool, error)
}

// GenerateID は暗号論的に安全なセッションIDを生成します。
func GenerateID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
