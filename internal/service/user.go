package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/auth"
	"github.com/sakif/videotube/internal/media"
	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

// UserService covers the signed-in user's account and public channel pages.
type UserService struct {
	users  repository.UserRepository
	ids    *auth.IdentityResolver
	media  media.Store
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, ids *auth.IdentityResolver, store media.Store, logger *slog.Logger) *UserService {
	return &UserService{users: users, ids: ids, media: store, logger: logger}
}

// GetCurrentUser returns the sanitized account of userID.
func (s *UserService) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: loading %s: %w", userID, err)
	}
	return u.Sanitized(), nil
}

// UpdateAccountDetails changes full name and email. The password hash is
// never touched here.
func (s *UserService) UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (*model.User, error) {
	fullName, err := required("fullName", fullName)
	if err != nil {
		return nil, err
	}
	if err := maxLen("fullName", fullName, MaxTitleLength); err != nil {
		return nil, err
	}
	if _, err := required("email", email); err != nil {
		return nil, err
	}
	email = auth.Normalize(email)
	if !s.ids.ValidEmail(email) {
		return nil, apperror.ValidationFailed("email",
			fmt.Sprintf("email must be a lowercase letters-and-digits @%s address", s.ids.Domain()))
	}

	u, err := s.users.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		return nil, fmt.Errorf("service/user: updating account %s: %w", userID, err)
	}
	s.logger.Info("account updated", slog.String("userID", userID))
	return u.Sanitized(), nil
}

// UpdateAvatar stores a new avatar image and deletes the previous one.
func (s *UserService) UpdateAvatar(ctx context.Context, userID string, obj media.Object) (*model.User, error) {
	obj.Kind = media.KindAvatar
	return s.replaceImage(ctx, userID, "avatar", obj,
		func(u *model.User) string { return u.AvatarKey },
		s.users.UpdateAvatar)
}

// UpdateCoverImage stores a new cover image and deletes the previous one.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID string, obj media.Object) (*model.User, error) {
	obj.Kind = media.KindCover
	return s.replaceImage(ctx, userID, "coverImage", obj,
		func(u *model.User) string { return u.CoverKey },
		s.users.UpdateCoverImage)
}

// replaceImage is the shared avatar/cover flow: store the new file, point
// the row at it, then delete the old file. If the row update fails the new
// file is deleted instead.
func (s *UserService) replaceImage(
	ctx context.Context,
	userID, field string,
	obj media.Object,
	oldKey func(*model.User) string,
	update func(ctx context.Context, userID, url, key string) (*model.User, error),
) (*model.User, error) {
	current, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: loading %s: %w", userID, err)
	}
	asset, err := storeImage(ctx, s.media, field, obj)
	if err != nil {
		return nil, err
	}
	updated, err := update(ctx, userID, asset.URL, asset.Key)
	if err != nil {
		discard(ctx, s.media, s.logger, asset.Key)
		return nil, fmt.Errorf("service/user: updating %s of %s: %w", field, userID, err)
	}
	discard(ctx, s.media, s.logger, oldKey(current))

	s.logger.Info("image updated", slog.String("userID", userID), slog.String("field", field))
	return updated.Sanitized(), nil
}

// GetUserChannelProfile returns the public channel page of username as seen
// by viewerID ("" for anonymous viewers).
func (s *UserService) GetUserChannelProfile(ctx context.Context, username, viewerID string) (*model.ChannelProfile, error) {
	if _, err := required("username", username); err != nil {
		return nil, err
	}
	p, err := s.users.GetChannelProfile(ctx, auth.Normalize(username), viewerID)
	if err != nil {
		return nil, fmt.Errorf("service/user: channel %q: %w", username, err)
	}
	return p, nil
}

// GetWatchHistory lists the videos userID watched, most recent first.
func (s *UserService) GetWatchHistory(ctx context.Context, userID string) ([]model.WatchedVideo, error) {
	h, err := s.users.GetWatchHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: watch history of %s: %w", userID, err)
	}
	return h, nil
}
