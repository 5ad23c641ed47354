package auth

import (
	"errors"
	"testing"
	"time"
)

func testTokenService(now time.Time) TokenService {
	return TokenService{
		Secret:    []byte("unit-test-secret"),
		Issuer:    "pawkart",
		Audience:  "pawkart-web",
		AccessTTL: 15 * time.Minute,
		ClockSkew: time.Second,
		Now:       func() time.Time { return now },
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := testTokenService(time.Now())
	signed, expiry, err := svc.Sign("user-1", "subscription")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !expiry.After(time.Now()) {
		t.Fatalf("expiry not in the future: %v", expiry)
	}
	sub, err := svc.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sub != "user-1" {
		t.Fatalf("subject = %q, want user-1", sub)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	signed, _, err := testTokenService(past).Sign("user-1", "regular")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := testTokenService(time.Now()).Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	now := time.Now()
	signed, _, err := testTokenService(now).Sign("user-1", "regular")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	other := testTokenService(now)
	other.Secret = []byte("a-different-secret")
	if _, err := other.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	svc := testTokenService(time.Now())
	for _, raw := range []string{"", "   ", "not.a.jwt", "a.b"} {
		if _, err := svc.Parse(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Parse(%q): expected ErrInvalidToken, got %v", raw, err)
		}
	}
}
