package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/auth"
	"github.com/sakif/videotube/internal/media"
	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/service"
)

// CookieConfig controls the session cookies.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// UserHandler serves /users: the session endpoints and the account pages.
//
// TOKEN TRANSPORT:
// Login and refresh deliver both tokens twice: as HttpOnly cookies for
// browsers and in the JSON body for other clients. Logout and password
// change expire both cookies.
type UserHandler struct {
	auth      *service.AuthService
	users     *service.UserService
	cookies   CookieConfig
	maxUpload int64
	logger    *slog.Logger
}

func NewUserHandler(
	authService *service.AuthService,
	users *service.UserService,
	cookies CookieConfig,
	maxUpload int64,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		auth:      authService,
		users:     users,
		cookies:   cookies,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// =========================================================================
// REQUEST BODIES
// =========================================================================

type registerRequest struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// loginRequest accepts the identifier under "username" or "email".
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required"`
}

// =========================================================================
// SESSION ENDPOINTS
// =========================================================================

// HandleRegister creates an account.
//
// HTTP: POST /api/v1/users/register
// BODY: JSON, or multipart/form-data with optional "avatar" and
// "coverImage" files.
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var (
		req registerRequest
		in  service.RegisterInput
	)
	if isMultipart(r) {
		if err := parseMultipart(w, r, h.maxUpload); err != nil {
			writeError(w, r, err)
			return
		}
		req = registerRequest{
			FullName: r.FormValue("fullName"),
			Email:    r.FormValue("email"),
			Username: r.FormValue("username"),
			Password: r.FormValue("password"),
		}
		if err := validateStruct(&req); err != nil {
			writeError(w, r, err)
			return
		}
		var err error
		if in.Avatar, err = formFile(r, "avatar"); err != nil {
			writeError(w, r, err)
			return
		}
		defer closeUpload(in.Avatar)
		if in.CoverImage, err = formFile(r, "coverImage"); err != nil {
			writeError(w, r, err)
			return
		}
		defer closeUpload(in.CoverImage)
	} else if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	in.FullName, in.Email, in.Username, in.Password = req.FullName, req.Email, req.Username, req.Password
	user, err := h.auth.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, user)
}

// HandleLogin opens a session and sets both cookies. A failed login sets
// no cookies.
//
// HTTP: POST /api/v1/users/login
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	identifier := req.Username
	if strings.TrimSpace(identifier) == "" {
		identifier = req.Email
	}

	sess, err := h.auth.Login(r.Context(), identifier, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.setSessionCookies(w, sess)
	writeJSON(w, r, http.StatusOK, sess)
}

// HandleLogout clears the stored refresh token and both cookies.
//
// HTTP: POST /api/v1/users/logout (authenticated)
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), currentUserID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	h.clearSessionCookies(w)
	writeJSON(w, r, http.StatusOK, MessageResponse{Message: "user logged out"})
}

// HandleRefreshToken rotates the session. The refresh token comes from the
// cookie, or from the JSON body when there is no cookie.
//
// HTTP: POST /api/v1/users/refresh-token
func (h *UserHandler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(auth.RefreshTokenCookie); err == nil {
		token = c.Value
	}
	if token == "" {
		// An empty body, chunked or not, just means no token.
		var req refreshRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, r, apperror.ValidationFailed("", "request body must be valid JSON"))
			return
		}
		token = req.RefreshToken
	}

	sess, err := h.auth.RefreshAccessToken(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.setSessionCookies(w, sess)
	writeJSON(w, r, http.StatusOK, sess)
}

// HandleChangePassword ends the session on success; the client logs in
// again with the new password.
//
// HTTP: POST /api/v1/users/change-password (authenticated)
func (h *UserHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	err := h.auth.ChangePassword(r.Context(), currentUserID(r), req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.clearSessionCookies(w)
	writeJSON(w, r, http.StatusOK, MessageResponse{Message: "password changed, please log in again"})
}

func (h *UserHandler) setSessionCookies(w http.ResponseWriter, sess *service.Session) {
	http.SetCookie(w, h.cookie(auth.AccessTokenCookie, sess.AccessToken, h.cookies.AccessTTL))
	http.SetCookie(w, h.cookie(auth.RefreshTokenCookie, sess.RefreshToken, h.cookies.RefreshTTL))
}

func (h *UserHandler) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, h.cookie(auth.AccessTokenCookie, "", -1))
	http.SetCookie(w, h.cookie(auth.RefreshTokenCookie, "", -1))
}

// cookie builds a session cookie. A negative ttl expires it.
func (h *UserHandler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	maxAge := int(ttl / time.Second)
	if ttl < 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// =========================================================================
// ACCOUNT ENDPOINTS
// =========================================================================

// HTTP: GET /api/v1/users/current-user (authenticated)
func (h *UserHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetCurrentUser(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

// HTTP: PATCH /api/v1/users/update-account (authenticated)
func (h *UserHandler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.users.UpdateAccountDetails(r.Context(), currentUserID(r), req.FullName, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

// HTTP: PATCH /api/v1/users/avatar (authenticated, multipart "avatar")
func (h *UserHandler) HandleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.users.UpdateAvatar)
}

// HTTP: PATCH /api/v1/users/cover-image (authenticated, multipart "coverImage")
func (h *UserHandler) HandleUpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.users.UpdateCoverImage)
}

func (h *UserHandler) updateImage(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	update func(ctx context.Context, userID string, obj media.Object) (*model.User, error),
) {
	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		writeError(w, r, err)
		return
	}
	obj, err := formFile(r, field)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if obj == nil {
		writeError(w, r, apperror.ValidationFailed(field, field+" file is required"))
		return
	}
	defer closeUpload(obj)

	user, err := update(r.Context(), currentUserID(r), *obj)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

// HandleChannelProfile returns a public channel page.
//
// HTTP: GET /api/v1/users/c/{username} (optional auth: sets isSubscribed)
func (h *UserHandler) HandleChannelProfile(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())
	profile, err := h.users.GetUserChannelProfile(r.Context(), chi.URLParam(r, "username"), viewerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, profile)
}

// HTTP: GET /api/v1/users/history (authenticated)
func (h *UserHandler) HandleWatchHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.users.GetWatchHistory(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, history)
}

// currentUserID is the caller on routes behind auth.RequireAuth.
func currentUserID(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}
