// Package service contains the business rules of the API.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces ownership, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept primitives and small input structs, never *http.Request,
// and return apperror values that the handler layer maps to status codes.
// Their dependencies are interfaces (repository.*, media.Store), so tests
// swap in fakes or an in-memory SQLite database.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/media"
	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

// Content limits.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 5000
	MaxCommentLength     = 1000
	MaxTweetLength       = 280
	MaxPlaylistName      = 100
)

// required trims value and fails with a ValidationFailed naming field when
// nothing is left.
func required(field, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	return v, nil
}

// maxLen fails when value is longer than limit characters.
func maxLen(field, value string, limit int) error {
	if utf8.RuneCountInString(value) > limit {
		return apperror.ValidationFailed(field, fmt.Sprintf("%s must be %d characters or less", field, limit))
	}
	return nil
}

// visibleVideo loads a video as viewerID sees it: an unpublished video is
// NotFound to everyone but its owner.
func visibleVideo(ctx context.Context, videos repository.VideoRepository, videoID, viewerID string) (*model.Video, error) {
	v, err := videos.GetVideoByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !v.IsPublished && v.OwnerID != viewerID {
		return nil, apperror.NotFound("video", videoID)
	}
	return v, nil
}

// mustOwn returns Forbidden unless userID owns the resource.
func mustOwn(ownerID, userID, action string) error {
	if ownerID == "" || ownerID != userID {
		return apperror.Forbidden("you are not allowed to " + action)
	}
	return nil
}

// storeImage validates an uploaded image and stores it.
func storeImage(ctx context.Context, store media.Store, field string, obj media.Object) (media.Asset, error) {
	if obj.Body == nil {
		return media.Asset{}, apperror.ValidationFailed(field, field+" file is required")
	}
	if _, err := media.InspectImage(obj.Body); err != nil {
		if errors.Is(err, media.ErrNotImage) {
			return media.Asset{}, apperror.ValidationFailed(field, field+" must be a png, jpeg, gif, webp, bmp or tiff image")
		}
		return media.Asset{}, fmt.Errorf("service: inspecting %s: %w", field, err)
	}
	asset, err := store.Put(ctx, obj)
	if err != nil {
		return media.Asset{}, apperror.Internal("could not store "+field, err)
	}
	return asset, nil
}

// discard deletes a stored object whose owning write failed or that was
// replaced. Failures are logged, never returned: the row is the source of
// truth and an orphaned file is harmless.
func discard(ctx context.Context, store media.Store, logger *slog.Logger, key string) {
	if key == "" {
		return
	}
	if err := store.Delete(ctx, key); err != nil {
		logger.Warn("could not delete stored media", slog.String("key", key), slog.Any("error", err))
	}
}
