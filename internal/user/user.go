// Package user はログイン対象となるユーザーとその資格情報ストアを提供します。
package user

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrNotFound は指定したユーザーが存在しない場合に返されます。
var ErrNotFound = errors.New("user not found")

// User はログイン可能なユーザーを表します。
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store は資格情報ストアの契約です。
type Store interface {
	// FindByEmail はメールアドレスが一致するユーザーを作成順で返します。
	// 一致しない場合は空スライスを返します。
	FindByEmail(ctx context.Context, email string) ([]*User, error)
	// Get は ID でユーザーを取得します。存在しない場合は ErrNotFound です。
	Get(ctx context.Context, id string) (*User, error)
	// Create はユーザーを保存します。
	Create(ctx context.Context, u *User) error
}

// New はパスワードをハッシュ化したユーザーを作成します。
func New(email, password, firstName, lastName string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("email is required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// VerifyPassword は候補のパスワードが保存済みのハッシュと一致するかを返します。
func (u *User) VerifyPassword(candidate string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(candidate)) == nil
}

// HashPassword はパスワードを bcrypt でハッシュ化します。
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

var (
	dummyMu   sync.Mutex
	dummyHash []byte
	// generateDummyHash はダミー比較用のハッシュを作ります。テストで差し替えます。
	generateDummyHash = func() ([]byte, error) {
		return bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	}
)

// CompareDummy は存在しないユーザーに対しても検証と同程度の時間をかけるための比較です。
// 結果は常に false です。
func CompareDummy(candidate string) bool {
	hash, err := loadDummyHash()
	if err != nil {
		// ハッシュが用意できなくても bcrypt 1 回分の時間はかける
		log.Printf("user: dummy hash unavailable: %v", err)
		_, _ = bcrypt.GenerateFromPassword([]byte(candidate), bcrypt.DefaultCost)
		return false
	}
	_ = bcrypt.CompareHashAndPassword(hash, []byte(candidate))
	return false
}

// loadDummyHash は生成済みのダミーハッシュを返します。失敗した場合は次回また生成を試みます。
func loadDummyHash() ([]byte, error) {
	dummyMu.Lock()
	defer dummyMu.Unlock()
	if dummyHash != nil {
		return dummyHash, nil
	}
	hash, err := generateDummyHash()
	if err != nil {
		return nil, err
	}
	dummyHash = hash
	return dummyHash, nil
}
