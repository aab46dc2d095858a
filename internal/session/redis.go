package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// RedisRegistry はセッションを Redis に保存する Registry 実装です。
// ttl が 0 の場合、キーに有効期限を設定しません。
type RedisRegistry struct {
	rdb *redis.Client
	ttl time.Duration

	newID func() (string, error)
}

// NewRedisRegistry は RedisRegistry を作成します。
func NewRedisRegistry(rdb *redis.Client, ttl time.Duration) *RedisRegistry {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisRegistry{
		rdb:   rdb,
		ttl:   ttl,
		newID: GenerateID,
	}
}

// Create は SET NX で未使用のIDを確保し、ユーザーIDを保存します。
func (r *RedisRegistry) Create(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		id, err := r.newID()
		if err != nil {
			return "", err
		}
		// SET NX なので既存の ID を上書きすることはない
		ok, err := r.rdb.SetNX(ctx, sessionKey(id), userID, r.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("session: redis setnx: %w", err)
		}
		if ok {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

// Lookup は Redis からユーザーIDを取得します。キーがなければ見つからない扱いです。
func (r *RedisRegistry) Lookup(ctx context.Context, sessionID string) (string, bool, error) {
	if sessionID == "" {
		return "", false, nil
	}
	userID, err := r.rdb.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("session: redis get: %w", err)
	}
	return userID, true, nil
}

// Delete はキーを削除し、削除できたかを返します。
func (r *RedisRegistry) Delete(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	n, err := r.rdb.Del(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("session: redis del: %w", err)
	}
	return n > 0, nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}
