package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// =========================================================================
// HELPER
// =========================================================================

// newTestPasswordService returns a PasswordService at bcrypt.MinCost so each
// hash takes milliseconds instead of ~250ms.
func newTestPasswordService(t *testing.T) *PasswordService {
	t.Helper()
	ps, err := NewPasswordService(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordService: %v", err)
	}
	return ps
}

func TestNewPasswordService_Cost(t *testing.T) {
	ps, err := NewPasswordService(0)
	if err != nil {
		t.Fatalf("NewPasswordService(0) error = %v", err)
	}
	if ps.cost != DefaultCost {
		t.Errorf("cost = %d, want %d", ps.cost, DefaultCost)
	}

	for _, bad := range []int{1, 3, 32} {
		if _, err := NewPasswordService(bad); err == nil {
			t.Errorf("NewPasswordService(%d) should fail", bad)
		}
	}
}

// =========================================================================
// Hash TESTS
// =========================================================================

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService(t)

	hash, err := ps.Hash("Password1!")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
	if strings.Contains(hash, "Password1!") {
		t.Error("Hash() output contains the plaintext")
	}
}

func TestHash_SamePasswordProducesDifferentHashes(t *testing.T) {
	ps := newTestPasswordService(t)

	// Random salt: equal inputs must not produce equal hashes.
	hash1, _ := ps.Hash("Same-Password1")
	hash2, _ := ps.Hash("Same-Password1")

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password")
	}
}

func TestHash_Length(t *testing.T) {
	ps := newTestPasswordService(t)

	if _, err := ps.Hash(strings.Repeat("a", 73)); err == nil {
		t.Fatal("Hash() should reject passwords longer than 72 bytes")
	}
	if _, err := ps.Hash(strings.Repeat("a", 72)); err != nil {
		t.Fatalf("Hash() should accept a 72-byte password, got %v", err)
	}
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestPasswordVerify(t *testing.T) {
	ps := newTestPasswordService(t)
	hash, err := ps.Hash("Abc123!@")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name     string
		hash     string
		password string
		wantErr  error // nil means match
		anyError bool
	}{
		{name: "correct password", hash: hash, password: "Abc123!@"},
		{name: "wrong password", hash: hash, password: "Abc123!#", wantErr: ErrPasswordMismatch},
		{name: "empty password", hash: hash, password: "", wantErr: ErrPasswordMismatch},
		{name: "case matters", hash: hash, password: "abc123!@", wantErr: ErrPasswordMismatch},
		{name: "garbage hash", hash: "not-a-bcrypt-hash", password: "Abc123!@", anyError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ps.Verify(tt.hash, tt.password)
			switch {
			case tt.anyError:
				if err == nil {
					t.Fatal("Verify() should fail")
				}
				if errors.Is(err, ErrPasswordMismatch) {
					t.Errorf("Verify() = ErrPasswordMismatch for a broken hash, want a distinct error")
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
				}
			default:
				if err != nil {
					t.Errorf("Verify() error = %v, want nil", err)
				}
			}
		})
	}
}
