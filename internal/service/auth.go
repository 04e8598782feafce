package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/auth"
	"github.com/sakif/videotube/internal/media"
	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

// invalidCredentials is the one message for an unknown identifier and a
// wrong password, so the response does not reveal which accounts exist.
const invalidCredentials = "invalid credentials"

// AuthService is the session manager: registration, login, logout, refresh
// rotation and password change.
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// SESSION MODEL:
// A user holds at most one live refresh token, stored on the user row.
// Login overwrites it, refresh swaps it for a new one, logout and password
// change clear it. Access tokens are never stored; they simply expire.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	ids       *auth.IdentityResolver
	media     media.Store
	metrics   *AuthMetrics
	logger    *slog.Logger
}

// NewAuthService creates an AuthService. metrics may be nil.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	ids *auth.IdentityResolver,
	store media.Store,
	metrics *AuthMetrics,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		ids:       ids,
		media:     store,
		metrics:   metrics,
		logger:    logger,
	}
}

// Session is what a successful login or refresh hands to the handler, which
// sets the cookies and writes the body.
type Session struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// RegisterInput holds the fields of a registration. Avatar and CoverImage
// are optional uploads.
type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     *media.Object
	CoverImage *media.Object
}

// =========================================================================
// REGISTER
// =========================================================================

// Register validates the input, stores any uploaded images, hashes the
// password and creates the account without a session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	user, err := s.register(ctx, in)
	switch {
	case err == nil:
		s.metrics.observe(eventRegister, outcomeSuccess)
	case isRejection(err):
		s.metrics.observe(eventRegister, outcomeRejected)
	default:
		s.metrics.observe(eventRegister, outcomeError)
	}
	return user, err
}

func (s *AuthService) register(ctx context.Context, in RegisterInput) (*model.User, error) {
	fullName, err := required("fullName", in.FullName)
	if err != nil {
		return nil, err
	}
	if err := maxLen("fullName", fullName, MaxTitleLength); err != nil {
		return nil, err
	}
	if _, err := required("email", in.Email); err != nil {
		return nil, err
	}
	if _, err := required("username", in.Username); err != nil {
		return nil, err
	}
	password, err := required("password", in.Password)
	if err != nil {
		return nil, err
	}

	username := auth.Normalize(in.Username)
	if !auth.ValidUsername(username) {
		return nil, apperror.ValidationFailed("username", "username may only contain lowercase letters and digits")
	}
	email := auth.Normalize(in.Email)
	if !s.ids.ValidEmail(email) {
		return nil, apperror.ValidationFailed("email",
			fmt.Sprintf("email must be a lowercase letters-and-digits @%s address", s.ids.Domain()))
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	// Pre-check for a friendly error; the unique indexes still decide races.
	if err := s.ensureUnclaimed(ctx, "username", username, s.users.GetUserByUsername); err != nil {
		return nil, err
	}
	if err := s.ensureUnclaimed(ctx, "email", email, s.users.GetUserByEmail); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.Internal("could not process password", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		AvatarURL:    model.DefaultAvatarURL,
		CoverURL:     model.DefaultCoverURL,
		PasswordHash: hash,
	}

	var stored []string
	cleanup := func() {
		for _, key := range stored {
			discard(ctx, s.media, s.logger, key)
		}
	}
	if in.Avatar != nil {
		in.Avatar.Kind = media.KindAvatar
		asset, err := storeImage(ctx, s.media, "avatar", *in.Avatar)
		if err != nil {
			return nil, err
		}
		stored = append(stored, asset.Key)
		user.AvatarURL, user.AvatarKey = asset.URL, asset.Key
	}
	if in.CoverImage != nil {
		in.CoverImage.Kind = media.KindCover
		asset, err := storeImage(ctx, s.media, "coverImage", *in.CoverImage)
		if err != nil {
			cleanup()
			return nil, err
		}
		stored = append(stored, asset.Key)
		user.CoverURL, user.CoverKey = asset.URL, asset.Key
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		cleanup()
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user %q: %w", username, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user.Sanitized(), nil
}

// ensureUnclaimed returns Conflict when lookup finds a user for value.
func (s *AuthService) ensureUnclaimed(
	ctx context.Context,
	field, value string,
	lookup func(context.Context, string) (*model.User, error),
) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return apperror.Conflict(field, value)
	case errors.Is(err, apperror.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("service/auth: checking %s: %w", field, err)
	}
}

// =========================================================================
// LOGIN / LOGOUT
// =========================================================================

// Login authenticates by username or email and opens a new session,
// replacing any previous refresh token.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*Session, error) {
	sess, err := s.login(ctx, identifier, password)
	switch {
	case err == nil:
		s.metrics.observe(eventLogin, outcomeSuccess)
	case isRejection(err):
		s.metrics.observe(eventLogin, outcomeRejected)
	default:
		s.metrics.observe(eventLogin, outcomeError)
	}
	return sess, err
}

func (s *AuthService) login(ctx context.Context, identifier, password string) (*Session, error) {
	if strings.TrimSpace(identifier) == "" {
		return nil, apperror.ValidationFailed("identifier", "username or email is required")
	}
	password, err := required("password", password)
	if err != nil {
		return nil, err
	}

	// Classification happens before any lookup: a malformed identifier
	// never reaches storage.
	id := s.ids.Resolve(identifier)
	if !id.Valid() {
		return nil, apperror.ValidationFailed("identifier", "invalid username or email format")
	}

	var user *model.User
	switch id.Kind {
	case auth.IdentifierEmail:
		user, err = s.users.GetUserByEmail(ctx, id.Value)
	default:
		user, err = s.users.GetUserByUsername(ctx, id.Value)
	}
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("login rejected", slog.String("by", id.Kind.String()), slog.String("reason", "unknown identifier"))
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", id.Kind, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("login rejected", slog.String("userID", user.ID), slog.String("reason", "wrong password"))
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, apperror.Internal("could not verify password", err)
	}

	access, refresh, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, fmt.Errorf("service/auth: storing refresh token for %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID), slog.String("by", id.Kind.String()))
	return &Session{User: user.Sanitized(), AccessToken: access, RefreshToken: refresh}, nil
}

// Logout ends the user's session. Repeating it is harmless.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.SetRefreshToken(ctx, userID, ""); err != nil {
		s.metrics.observe(eventLogout, outcomeError)
		return fmt.Errorf("service/auth: clearing session of %s: %w", userID, err)
	}
	s.metrics.observe(eventLogout, outcomeSuccess)
	s.logger.Info("user logged out", slog.String("userID", userID))
	return nil
}

// =========================================================================
// REFRESH
// =========================================================================

// RefreshAccessToken trades a live refresh token for a brand-new pair.
//
// The stored token is swapped with a compare-and-swap, so of two requests
// presenting the same token exactly one wins; the other, and any later
// replay of a superseded token, gets Unauthorized.
func (s *AuthService) RefreshAccessToken(ctx context.Context, token string) (*Session, error) {
	sess, err := s.refresh(ctx, token)
	switch {
	case err == nil:
		s.metrics.observe(eventRefresh, outcomeSuccess)
	case isRejection(err):
		s.metrics.observe(eventRefresh, outcomeRejected)
	default:
		s.metrics.observe(eventRefresh, outcomeError)
	}
	return sess, err
}

func (s *AuthService) refresh(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperror.Unauthorized("unauthorized request")
	}
	claims, err := s.tokens.VerifyRefresh(token)
	if err != nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	user, err := s.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: loading user %s: %w", claims.Subject, err)
	}

	access, refresh, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.RotateRefreshToken(ctx, user.ID, token, refresh); err != nil {
		if errors.Is(err, repository.ErrTokenMismatch) {
			s.logger.Warn("refresh rejected", slog.String("userID", user.ID), slog.String("reason", "token superseded"))
			return nil, apperror.Unauthorized("refresh token is expired or used")
		}
		return nil, fmt.Errorf("service/auth: rotating refresh token for %s: %w", user.ID, err)
	}

	s.logger.Debug("session refreshed", slog.String("userID", user.ID))
	return &Session{User: user.Sanitized(), AccessToken: access, RefreshToken: refresh}, nil
}

// =========================================================================
// CHANGE PASSWORD
// =========================================================================

// ChangePassword verifies the old password, stores the new hash and ends
// the current session so every client has to log in again.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error {
	err := s.changePassword(ctx, userID, oldPassword, newPassword, confirmPassword)
	switch {
	case err == nil:
		s.metrics.observe(eventChangePassword, outcomeSuccess)
	case isRejection(err):
		s.metrics.observe(eventChangePassword, outcomeRejected)
	default:
		s.metrics.observe(eventChangePassword, outcomeError)
	}
	return err
}

func (s *AuthService) changePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) error {
	oldPassword, err := required("oldPassword", oldPassword)
	if err != nil {
		return err
	}
	newPassword, err = required("newPassword", newPassword)
	if err != nil {
		return err
	}
	confirmPassword, err = required("confirmPassword", confirmPassword)
	if err != nil {
		return err
	}
	if newPassword != confirmPassword {
		return apperror.ValidationFailed("confirmPassword", "new password and confirmation do not match")
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return apperror.ValidationFailed("newPassword", err.Error())
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service/auth: loading user %s: %w", userID, err)
	}
	if err := s.passwords.Verify(user.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperror.Unauthorized("invalid old password")
		}
		return apperror.Internal("could not verify password", err)
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return apperror.Internal("could not process password", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("service/auth: updating password of %s: %w", userID, err)
	}

	s.logger.Info("password changed", slog.String("userID", userID))
	return nil
}

// issuePair signs a fresh access and refresh token for user.
func (s *AuthService) issuePair(user *model.User) (string, string, error) {
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return "", "", apperror.Internal("could not issue access token", err)
	}
	refresh, err := s.tokens.IssueRefresh(user)
	if err != nil {
		return "", "", apperror.Internal("could not issue refresh token", err)
	}
	return access, refresh, nil
}

// isRejection reports whether err is a client-caused outcome rather than a
// server failure.
func isRejection(err error) bool {
	for _, target := range []error{
		apperror.ErrValidation, apperror.ErrUnauthorized, apperror.ErrConflict,
		apperror.ErrNotFound, apperror.ErrForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
