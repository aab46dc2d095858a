// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// セッションレジストリのバックエンド種別
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// 信頼するリバースプロキシ（カンマ区切りの IP / CIDR）。空ならどのプロキシも信頼しない
	TrustedProxies string

	// セッション設定
	SessionName          string // セッションIDを載せるクッキー名
	SessionDuration      int    // セッションの有効期間（秒）。0 は無期限
	SessionStore         string // memory または redis
	SessionRedisURL      string // SessionStore=redis のときの接続URL
	SessionSweepInterval int    // メモリストアの期限切れ掃除間隔（秒）

	// ユーザーストア設定
	UserDBPath string // SQLite ファイルのパス。空ならメモリ上のストア

	// 起動時に作成する初期ユーザー（メールが未登録の場合のみ）
	SeedUserEmail     string
	SeedUserPassword  string
	SeedUserFirstName string
	SeedUserLastName  string

	// ログイン試行制限
	LoginMaxAttempts   int // ロックまでの失敗回数。0 で無効
	LoginWindowMinutes int // 失敗回数を数える期間（分）
	LoginLockMinutes   int // ロック時間（分）
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		TrustedProxies:     getEnv("TRUSTED_PROXIES", ""),

		SessionName:          getEnv("SESSION_NAME", "_my_session_id"),
		SessionDuration:      getEnvAsInt("SESSION_DURATION", 0),
		SessionStore:         strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
		SessionRedisURL:      getEnv("SESSION_REDIS_URL", "redis://127.0.0.1:6379/0"),
		SessionSweepInterval: getEnvAsInt("SESSION_SWEEP_SECONDS", 60),

		UserDBPath:        getEnv("USER_DB_PATH", ""),
		SeedUserEmail:     getEnv("SEED_USER_EMAIL", ""),
		SeedUserPassword:  getEnv("SEED_USER_PASSWORD", ""),
		SeedUserFirstName: getEnv("SEED_USER_FIRST_NAME", ""),
		SeedUserLastName:  getEnv("SEED_USER_LAST_NAME", ""),

		LoginMaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginWindowMinutes: getEnvAsInt("LOGIN_WINDOW_MINUTES", 15),
		LoginLockMinutes:   getEnvAsInt("LOGIN_LOCK_MINUTES", 10),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SessionName) == "" {
		return fmt.Errorf("SESSION_NAME must not be empty")
	}
	if c.SessionDuration < 0 {
		return fmt.Errorf("SESSION_DURATION must be >= 0, got %d", c.SessionDuration)
	}
	switch c.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.SessionRedisURL == "" {
			return fmt.Errorf("SESSION_REDIS_URL is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}
	if c.LoginMaxAttempts < 0 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be >= 0, got %d", c.LoginMaxAttempts)
	}

	if (strings.TrimSpace(c.SeedUserEmail) == "") != (strings.TrimSpace(c.SeedUserPassword) == "") {
		return fmt.Errorf("SEED_USER_EMAIL and SEED_USER_PASSWORD must be set together")
	}

	// 本番環境ではユーザーを永続化していないと再起動で消えてしまう
	if c.GinMode == "release" && c.UserDBPath == "" {
		return fmt.Errorf("USER_DB_PATH is required in release mode")
	}

	return nil
}

// SessionTTL はセッションの有効期間を time.Duration で返します。0 は無期限です。
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionDuration) * time.Second
}

// TrustedProxyList は TrustedProxies を分割して返します。空の場合は nil です。
func (c *Config) TrustedProxyList() []string {
	var proxies []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return proxies
}

// HasSeedUser は初期ユーザーの作成が設定されているかを返します。
func (c *Config) HasSeedUser() bool {
	return strings.TrimSpace(c.SeedUserEmail) != ""
}

// SecureCookies は Secure 属性付きのクッキーを発行すべきかを返します。
func (c *Config) SecureCookies() bool {
	return c.GinMode == "release"
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
