package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "token-secret-that-is-at-least-32-chars"

func TestNewTokenIssuer_ShortSecret(t *testing.T) {
	if _, err := NewTokenIssuer("short", time.Hour); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ti, err := NewTokenIssuer(testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	tok, exp, err := ti.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Error("expiry should be in the future")
	}
	id, err := ti.Parse(tok)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if id != "user-1" {
		t.Errorf("subject = %q, want user-1", id)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	ti, _ := NewTokenIssuer(testSecret, time.Minute)
	ti.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err := ti.Issue("user-1")
	if err != nil {
		t.Fatal(err)
	}
	ti.now = time.Now
	if _, err := ti.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenIssuer_WrongSecret(t *testing.T) {
	a, _ := NewTokenIssuer(testSecret, time.Hour)
	b, _ := NewTokenIssuer(testSecret+"-other", time.Hour)
	tok, _, _ := a.Issue("user-1")
	if _, err := b.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenIssuer_RejectsNoneAlg(t *testing.T) {
	ti, _ := NewTokenIssuer(testSecret, time.Hour)
	claims := jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ti.Parse(raw); err == nil {
		t.Error("unsigned token must be rejected")
	}
}
