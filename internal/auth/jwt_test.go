package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/videotube/internal/model"
)

func testTokenConfig() TokenConfig {
	return TokenConfig{
		AccessSecret:  "access-secret-at-least-16-chars",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret-at-least-16-chars",
		RefreshTTL:    240 * time.Hour,
		Issuer:        "videotube-test",
	}
}

// newTestTokenService creates a TokenService with fixed, known secrets so
// tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testTokenConfig())
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

var testUser = &model.User{
	ID:       "cv37pbdbgk1g0ps0hrm0",
	Username: "jane",
	Email:    "jane@gmail.com",
	FullName: "Jane Doe",
}

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *TokenConfig)
	}{
		{"short access secret", func(c *TokenConfig) { c.AccessSecret = "short" }},
		{"short refresh secret", func(c *TokenConfig) { c.RefreshSecret = "short" }},
		{"identical secrets", func(c *TokenConfig) { c.RefreshSecret = c.AccessSecret }},
		{"zero access TTL", func(c *TokenConfig) { c.AccessTTL = 0 }},
		{"negative refresh TTL", func(c *TokenConfig) { c.RefreshTTL = -time.Hour }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testTokenConfig()
			tt.mutate(&cfg)
			if _, err := NewTokenService(cfg); err == nil {
				t.Fatal("NewTokenService() should have failed")
			}
		})
	}
}

func TestNewTokenService_DefaultIssuer(t *testing.T) {
	cfg := testTokenConfig()
	cfg.Issuer = ""
	ts, err := NewTokenService(cfg)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	if ts.issuer != "videotube" {
		t.Errorf("issuer = %q, want %q", ts.issuer, "videotube")
	}
}

// =========================================================================
// ISSUE / VERIFY TESTS
// =========================================================================

func TestIssueAccess_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.IssueAccess(testUser)
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	// header.payload.signature
	if got := strings.Count(token, "."); got != 2 {
		t.Fatalf("token doesn't look like a JWT (expected 2 dots, got %d)", got)
	}

	claims, err := ts.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess() error = %v", err)
	}
	if claims.Subject != testUser.ID {
		t.Errorf("Subject = %q, want %q", claims.Subject, testUser.ID)
	}
	if claims.Email != testUser.Email || claims.Username != testUser.Username || claims.FullName != testUser.FullName {
		t.Errorf("identity claims = %+v, want values from %+v", claims, testUser)
	}
	if claims.ID == "" {
		t.Error("access token has no jti")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 15*time.Minute {
		t.Errorf("lifetime = %v, want 15m", got)
	}
}

func TestIssueRefresh_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.IssueRefresh(testUser)
	if err != nil {
		t.Fatalf("IssueRefresh() error = %v", err)
	}

	claims, err := ts.VerifyRefresh(token)
	if err != nil {
		t.Fatalf("VerifyRefresh() error = %v", err)
	}
	if claims.Subject != testUser.ID {
		t.Errorf("Subject = %q, want %q", claims.Subject, testUser.ID)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 240*time.Hour {
		t.Errorf("lifetime = %v, want 240h", got)
	}
}

func TestIssueRefresh_UniqueWithinSameSecond(t *testing.T) {
	ts := newTestTokenService(t)
	fixed := time.Now()
	ts.now = func() time.Time { return fixed }

	first, _ := ts.IssueRefresh(testUser)
	second, _ := ts.IssueRefresh(testUser)

	if first == second {
		t.Error("two refresh tokens issued at the same instant are identical")
	}
}

// The two token kinds must never be interchangeable.
func TestVerify_CrossKindRejected(t *testing.T) {
	ts := newTestTokenService(t)

	access, _ := ts.IssueAccess(testUser)
	refresh, _ := ts.IssueRefresh(testUser)

	if _, err := ts.VerifyRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyRefresh(access token) error = %v, want ErrInvalidToken", err)
	}
	if _, err := ts.VerifyAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyAccess(refresh token) error = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	ts := newTestTokenService(t)

	// Issue "two hours ago" so the 15m access token is long expired.
	ts.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := ts.IssueAccess(testUser)
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}
	ts.now = time.Now

	_, err = ts.VerifyAccess(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("VerifyAccess() error = %v, want ErrInvalidToken", err)
	}
	t.Logf("Expired token error (expected): %v", err)
}

func TestVerify_Tampered(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.IssueAccess(testUser)

	// Replace the tail of the signature segment.
	tampered := token[:len(token)-3] + "xxx"

	if _, err := ts.VerifyAccess(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("VerifyAccess() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	ts1 := newTestTokenService(t)

	cfg := testTokenConfig()
	cfg.AccessSecret = "a-completely-different-secret!!"
	ts2, err := NewTokenService(cfg)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, _ := ts1.IssueAccess(testUser)
	if _, err := ts2.VerifyAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("VerifyAccess() with another secret error = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_WrongIssuer(t *testing.T) {
	ts1 := newTestTokenService(t)

	cfg := testTokenConfig()
	cfg.Issuer = "someone-else"
	ts2, _ := NewTokenService(cfg)

	token, _ := ts2.IssueAccess(testUser)
	if _, err := ts1.VerifyAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("VerifyAccess() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_MissingSubject(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.IssueAccess(&model.User{Username: "ghost"})

	if _, err := ts.VerifyAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("VerifyAccess() error = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	ts := newTestTokenService(t)

	for _, in := range []string{"", "not.a.jwt.token", "garbage", "a.b.c"} {
		if _, err := ts.VerifyAccess(in); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("VerifyAccess(%q) error = %v, want ErrInvalidToken", in, err)
		}
		if _, err := ts.VerifyRefresh(in); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("VerifyRefresh(%q) error = %v, want ErrInvalidToken", in, err)
		}
	}
}
