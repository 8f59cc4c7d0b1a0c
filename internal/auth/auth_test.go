package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	v := NewVerifier("s3cret")
	tok, err := v.Issue("alice", time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	userID, err := v.Verify(tok)
	if err != nil || userID != "alice" {
		t.Fatalf("Verify = %q, %v", userID, err)
	}
}

func TestVerifyRejects(t *testing.T) {
	v := NewVerifier("s3cret")
	other, _ := NewVerifier("other").Issue("alice", time.Hour)

	expiredVerifier := NewVerifier("s3cret")
	expiredVerifier.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := expiredVerifier.Issue("alice", time.Hour)

	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "x"}).SignedString([]byte("s3cret"))
	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS384, claims{UserID: "alice"}).SignedString([]byte("s3cret"))

	cases := map[string]string{
		"wrong secret": other,
		"expired":      expired,
		"no user id":   noUser,
		"wrong alg":    wrongAlg,
		"garbage":      "not-a-jwt",
	}
	for name, tok := range cases {
		if _, err := v.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: err = %v, want ErrInvalidToken", name, err)
		}
	}
	if _, err := v.Verify(""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("empty token err = %v", err)
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=q", nil)
	if got := TokenFromRequest(r); got != "q" {
		t.Fatalf("query token = %q", got)
	}
	r.Header.Set("Authorization", "Bearer h")
	if got := TokenFromRequest(r); got != "h" {
		t.Fatalf("header token = %q", got)
	}
}
