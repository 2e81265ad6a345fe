package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowUpToLimit(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Stop()

	if !l.Allow("k") || !l.Allow("k") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("k") {
		t.Error("third request should be limited")
	}
	if l.Remaining("k") != 0 {
		t.Errorf("Remaining = %d, want 0", l.Remaining("k"))
	}
	if l.RetryAfter("k") <= 0 {
		t.Error("RetryAfter should be positive once limited")
	}
	if !l.Allow("other") {
		t.Error("keys must be independent")
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := New(1, 20*time.Millisecond)
	defer l.Stop()

	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("second request in window should be limited")
	}
	time.Sleep(30 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("request after window should be allowed")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Stop()

	l.Allow("k")
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("Allow after Reset should succeed")
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	l := New(1, time.Minute)
	l.Stop()
	l.Stop()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, "9.9.9.9:1234", "1.1.1.1"},
		{"real ip", map[string]string{"X-Real-IP": " 3.3.3.3 "}, "9.9.9.9:1234", "3.3.3.3"},
		{"remote addr", nil, "9.9.9.9:1234", "9.9.9.9"},
		{"remote no port", nil, "9.9.9.9", "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_EmailCaseFolded(t *testing.T) {
	ll := NewLoginLimiter(100, 1, time.Minute)
	defer ll.Stop()

	r := httptest.NewRequest("POST", "/auth/login", nil)
	if ok, _ := ll.Check(r, "A@x.com"); !ok {
		t.Fatal("first attempt should pass")
	}
	if ok, reason := ll.Check(r, " a@X.com "); ok || reason == "" {
		t.Error("second attempt for same email should be limited with a reason")
	}
	ll.ResetEmail("a@x.com")
	if ok, _ := ll.Check(r, "a@x.com"); !ok {
		t.Error("attempt after ResetEmail should pass")
	}
}
