package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/steady/internal/model"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", 0, false)

	raw, err := tokens.Issue(42, model.RolePatient)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	ac, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ac.AccountID != 42 {
		t.Errorf("AccountID = %d, want 42", ac.AccountID)
	}
	if ac.Role != model.RolePatient {
		t.Errorf("Role = %q, want %q", ac.Role, model.RolePatient)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	raw, _ := NewTokens("secret", 0, false).Issue(1, model.RoleDoctor)

	_, err := NewTokens("other", 0, false).Parse(raw)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenExpired(t *testing.T) {
	tokens := NewTokens("secret", time.Hour, false)
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issued }

	raw, err := tokens.Issue(1, model.RolePatient)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tokens.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := tokens.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	if _, err := NewTokens("secret", 0, false).Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestSetCookie(t *testing.T) {
	tokens := NewTokens("secret", 0, true)
	rec := httptest.NewRecorder()

	if err := tokens.SetCookie(rec, 5, model.RoleDoctor); err != nil {
		t.Fatalf("set cookie: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieName {
		t.Errorf("name = %q, want %q", c.Name, CookieName)
	}
	if !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteStrictMode {
		t.Errorf("cookie flags = httpOnly:%v secure:%v sameSite:%v", c.HttpOnly, c.Secure, c.SameSite)
	}
	if c.MaxAge != int(DefaultTokenTTL.Seconds()) {
		t.Errorf("max age = %d, want %d", c.MaxAge, int(DefaultTokenTTL.Seconds()))
	}

	ac, err := tokens.Parse(c.Value)
	if err != nil {
		t.Fatalf("parse cookie token: %v", err)
	}
	if ac.AccountID != 5 {
		t.Errorf("AccountID = %d, want 5", ac.AccountID)
	}
}

func TestClearCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	NewTokens("secret", 0, false).ClearCookie(rec)

	c := rec.Result().Cookies()[0]
	if c.Value != "" || c.MaxAge >= 0 {
		t.Errorf("cookie = %+v, want cleared", c)
	}
}
