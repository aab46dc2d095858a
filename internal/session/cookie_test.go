package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCookieBindingAttachAndExtract(t *testing.T) {
	binding := NewCookieBinding("_my_session_id", true, time.Hour)

	rec := httptest.NewRecorder()
	binding.Attach(rec, "abc123")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != "_my_session_id" || c.Value != "abc123" {
		t.Fatalf("unexpected cookie %s=%s", c.Name, c.Value)
	}
	if !c.HttpOnly || !c.Secure || c.Path != "/" {
		t.Fatalf("unexpected cookie attributes: %+v", c)
	}
	if c.MaxAge != 3600 {
		t.Fatalf("MaxAge = %d, want 3600", c.MaxAge)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "_my_session_id", Value: "abc123"})
	id, ok := binding.Extract(req)
	if !ok || id != "abc123" {
		t.Fatalf("Extract = (%q, %v)", id, ok)
	}
}

func TestCookieBindingExtractMissing(t *testing.T) {
	binding := NewCookieBinding("sid", false, 0)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := binding.Extract(req); ok {
		t.Fatal("expected no session id without cookie")
	}

	req.AddCookie(&http.Cookie{Name: "other", Value: "x"})
	if _, ok := binding.Extract(req); ok {
		t.Fatal("expected cookie with another name to be ignored")
	}

	empty := httptest.NewRequest(http.MethodGet, "/", nil)
	empty.Header.Set("Cookie", "sid=")
	if _, ok := binding.Extract(empty); ok {
		t.Fatal("expected empty cookie value to be treated as absent")
	}
}

func TestCookieBindingSessionCookieWithoutMaxAge(t *testing.T) {
	binding := NewCookieBinding("sid", false, 0)
	rec := httptest.NewRecorder()
	binding.Attach(rec, "v")

	header := rec.Header().Get("Set-Cookie")
	if strings.Contains(header, "Max-Age") || strings.Contains(header, "Expires") {
		t.Fatalf("expected browser-session cookie, got %q", header)
	}
}

func TestCookieBindingClear(t *testing.T) {
	binding := NewCookieBinding("sid", false, 0)
	rec := httptest.NewRecorder()
	binding.Clear(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sid" || cookies[0].MaxAge >= 0 {
		t.Fatalf("unexpected clearing cookie: %+v", cookies)
	}
}

func TestGenerateIDIsURLSafe(t *testing.T) {
	id, err := GenerateID()
	if err != nil {
		t.Fatalf("GenerateID: %v", err)
	}
	if len(id) != 43 {
		t.Fatalf("len(id) = %d, want 43", len(id))
	}
	if strings.ContainsAny(id, "+/=") {
		t.Fatalf("id is not url-safe: %q", id)
	}
}
