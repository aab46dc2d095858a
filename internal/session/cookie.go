package session

import (
	"net/http"
	"time"
)

// CookieBinding はセッションIDをクッキーとして読み書きします。
type CookieBinding struct {
	Name     string
	Path     string
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration // 0 の場合はブラウザセッション限りのクッキー
}

// NewCookieBinding は既定値（Path=/, SameSite=Lax）を埋めた CookieBinding を返します。
func NewCookieBinding(name string, secure bool, maxAge time.Duration) CookieBinding {
	return CookieBinding{
		Name:     name,
		Path:     "/",
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

// Extract はリクエストのクッキーからセッションIDを取り出します。
func (b CookieBinding) Extract(r *http.Request) (string, bool) {
	if r == nil || b.Name == "" {
		return "", false
	}
	cookie, err := r.Cookie(b.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Attach はレスポンスにセッションIDのクッキーを設定します。
func (b CookieBinding) Attach(w http.ResponseWriter, sessionID string) {
	cookie := b.cookie(sessionID)
	if b.MaxAge > 0 {
		cookie.MaxAge = int(b.MaxAge.Seconds())
		cookie.Expires = time.Now().Add(b.MaxAge)
	}
	http.SetCookie(w, cookie)
}

// Clear はクライアント側のセッションクッキーを削除させます。
func (b CookieBinding) Clear(w http.ResponseWriter) {
	cookie := b.cookie("")
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)
}

func (b CookieBinding) cookie(value string) *http.Cookie {
	path := b.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:     b.Name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   b.Secure,
		SameSite: b.SameSite,
	}
}
