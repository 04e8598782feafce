// Package auth holds the credential machinery of the API: identifier
// classification, password hashing and policy, token issuing, and the
// middleware that turns a token into an authenticated user.
//
// SESSION FLOW OVERVIEW:
//  1. POST /users/login → credentials checked, an access + refresh pair issued
//  2. The refresh token is stored on the user row (one live session per user)
//  3. Both tokens go back as HttpOnly cookies AND in the JSON body
//  4. Protected routes read the access token (cookie or Bearer header)
//  5. When the access token expires, POST /users/refresh-token swaps the
//     stored refresh token for a brand-new pair
//
// TWO TOKENS, TWO SECRETS:
// Access and refresh tokens are signed with different secrets and carry a
// different audience. A refresh token can therefore never pass as an access
// token, and vice versa, even if a client mixes them up.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<userID>","aud":["access"],"exp":...,"jti":"..."}
//	- Signature: HMAC-SHA256(header+"."+payload, secret)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/sakif/videotube/internal/model"
)

// Audiences distinguish the two token kinds.
const (
	AudienceAccess  = "access"
	AudienceRefresh = "refresh"
)

const minSecretLen = 16

// ErrInvalidToken is returned for every verification failure: bad
// signature, wrong secret or audience, malformed input, expiry, or a
// missing subject. Callers only need to know the token is unusable.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenConfig carries the signing parameters, usually straight from config.Tokens.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenService issues and verifies access and refresh tokens.
// It has no storage side effects; persisting the refresh token is the
// session manager's job.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string

	// now is swapped in tests to mint already-expired tokens.
	now func() time.Time
}

// NewTokenService validates cfg and builds a TokenService.
// Secrets must be at least 16 characters and must differ from each other.
// Example: ACCESS_TOKEN_SECRET=$(openssl rand -hex 32)
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.AccessSecret) < minSecretLen || len(cfg.RefreshSecret) < minSecretLen {
		return nil, fmt.Errorf("auth: token secrets must be at least %d characters", minSecretLen)
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: token TTLs must be positive")
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "videotube"
	}

	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        issuer,
		now:           time.Now,
	}, nil
}

// AccessTTL is the lifetime of issued access tokens (used for cookie MaxAge).
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL is the lifetime of issued refresh tokens.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// AccessClaims is the access token payload. The identity fields let
// clients render "logged in as ..." without another request.
type AccessClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// RefreshClaims is the refresh token payload: subject and registered claims only.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// IssueAccess signs a short-lived access token for u.
func (s *TokenService) IssueAccess(u *model.User) (string, error) {
	c := AccessClaims{
		Email:            u.Email,
		Username:         u.Username,
		FullName:         u.FullName,
		RegisteredClaims: s.registered(u.ID, AudienceAccess, s.accessTTL),
	}
	return s.sign(c, s.accessSecret)
}

// IssueRefresh signs a long-lived refresh token for u.
//
// Every token carries a fresh jti, so two tokens issued for the same user
// in the same second still differ. Rotation relies on that: the stored
// token must never equal the one it replaced.
func (s *TokenService) IssueRefresh(u *model.User) (string, error) {
	c := RefreshClaims{RegisteredClaims: s.registered(u.ID, AudienceRefresh, s.refreshTTL)}
	return s.sign(c, s.refreshSecret)
}

func (s *TokenService) registered(subject, audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        xid.New().String(),
	}
}

func (s *TokenService) sign(c jwt.Claims, secret []byte) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// VerifyAccess checks an access token and returns its claims.
func (s *TokenService) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	c := &AccessClaims{}
	if err := s.parse(tokenStr, c, s.accessSecret, AudienceAccess); err != nil {
		return nil, err
	}
	return c, nil
}

// VerifyRefresh checks a refresh token and returns its claims.
func (s *TokenService) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	c := &RefreshClaims{}
	if err := s.parse(tokenStr, c, s.refreshSecret, AudienceRefresh); err != nil {
		return nil, err
	}
	return c, nil
}

// parse runs the shared checks: HS256 only (blocks alg=none and
// algorithm-confusion tricks), issuer, audience, and a mandatory exp.
func (s *TokenService) parse(tokenStr string, c jwt.Claims, secret []byte, audience string) error {
	if tokenStr == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		c,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}

	sub, err := c.GetSubject()
	if err != nil || sub == "" {
		return fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	return nil
}
