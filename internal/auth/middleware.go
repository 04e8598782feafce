package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/model"
)

// Cookie names used for dual token delivery.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// contextKey is unexported so no other package can read or shadow our
// context values by accident.
type contextKey string

const userKey contextKey = "user"

// UserLookup is the slice of the user repository the gate needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth rejects requests without a valid access token with 401.
//
// The token comes from the accessToken cookie (browsers) or an
// "Authorization: Bearer <token>" header (other clients). After the
// signature check the subject is loaded from storage, so tokens of deleted
// users stop working immediately. The sanitized user is stored in the
// request context.
//
// The gate only reads: it never touches the stored refresh token.
func RequireAuth(tokens *TokenService, users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(r, tokens, users)
			if err != nil {
				if errors.Is(err, apperror.ErrInternal) {
					logger.Error("auth gate: loading user", "error", err)
					writeGateError(w, r, http.StatusInternalServerError, "internal_error", "an internal error occurred")
					return
				}
				writeGateError(w, r, http.StatusUnauthorized, "unauthorized", err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// OptionalAuth attaches the user when a valid token is present and
// otherwise lets the request through anonymously.
//
// Use it on public routes whose output depends on the viewer, e.g. the
// isSubscribed flag of a channel profile or private videos for their owner.
func OptionalAuth(tokens *TokenService, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, err := authenticate(r, tokens, users); err == nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying the sanitized user.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u.Sanitized())
}

// UserFromContext returns the authenticated user, or (nil, false) for an
// anonymous request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// UserIDFromContext returns the authenticated user's ID, or ("", false).
func UserIDFromContext(ctx context.Context) (string, bool) {
	u, ok := UserFromContext(ctx)
	if !ok || u.ID == "" {
		return "", false
	}
	return u.ID, true
}

// TokenFromRequest returns the access token from the cookie, falling back
// to the Authorization header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// authenticate returns an *apperror.AppError: Unauthorized for anything the
// client got wrong, Internal when storage fails.
func authenticate(r *http.Request, tokens *TokenService, users UserLookup) (*model.User, error) {
	raw := TokenFromRequest(r)
	if raw == "" {
		return nil, apperror.Unauthorized("unauthorized request")
	}

	claims, err := tokens.VerifyAccess(raw)
	if err != nil {
		return nil, apperror.Unauthorized("invalid access token")
	}

	user, err := users.GetUserByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid access token")
		}
		return nil, apperror.Internal("loading user", err)
	}
	return user, nil
}

type gateError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeGateError(w http.ResponseWriter, r *http.Request, status int, kind, msg string) {
	render.Status(r, status)
	render.JSON(w, r, gateError{Error: kind, Message: msg})
}
