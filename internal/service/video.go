package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/media"
	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

// VideoService publishes, lists and manages videos.
type VideoService struct {
	videos repository.VideoRepository
	users  repository.UserRepository
	media  media.Store
	logger *slog.Logger
}

func NewVideoService(videos repository.VideoRepository, users repository.UserRepository, store media.Store, logger *slog.Logger) *VideoService {
	return &VideoService{videos: videos, users: users, media: store, logger: logger}
}

// ListVideosInput carries the query string of a listing request.
type ListVideosInput struct {
	Query    string
	SortBy   string // createdAt (default), views, duration, title
	SortType string // asc or desc (default)
	Page     int
	Limit    int
	OwnerID  string // "" lists every owner
	ViewerID string // "" for anonymous viewers
}

var validSorts = map[string]bool{
	model.VideoSortCreatedAt: true,
	model.VideoSortViews:     true,
	model.VideoSortDuration:  true,
	model.VideoSortTitle:     true,
}

// ListVideos returns one page of published videos. When OwnerID is the
// viewer, their unpublished videos are included.
func (s *VideoService) ListVideos(ctx context.Context, in ListVideosInput) (model.Page[model.Video], error) {
	sortBy := strings.TrimSpace(in.SortBy)
	if sortBy == "" {
		sortBy = model.VideoSortCreatedAt
	}
	if !validSorts[sortBy] {
		return model.Page[model.Video]{}, apperror.ValidationFailed("sortBy", "sortBy must be one of createdAt, views, duration, title")
	}
	var desc bool
	switch strings.ToLower(strings.TrimSpace(in.SortType)) {
	case "", "desc":
		desc = true
	case "asc":
	default:
		return model.Page[model.Video]{}, apperror.ValidationFailed("sortType", "sortType must be asc or desc")
	}

	if in.OwnerID != "" {
		if _, err := s.users.GetUserByID(ctx, in.OwnerID); err != nil {
			return model.Page[model.Video]{}, fmt.Errorf("service/video: owner %s: %w", in.OwnerID, err)
		}
	}

	page, limit := model.NormalizePage(in.Page, in.Limit)
	videos, total, err := s.videos.ListVideos(ctx, model.VideoQuery{
		Search:             in.Query,
		OwnerID:            in.OwnerID,
		SortBy:             sortBy,
		SortDesc:           desc,
		IncludeUnpublished: in.OwnerID != "" && in.OwnerID == in.ViewerID,
		Page:               page,
		Limit:              limit,
	})
	if err != nil {
		return model.Page[model.Video]{}, fmt.Errorf("service/video: listing: %w", err)
	}
	return model.NewPage(videos, total, page, limit), nil
}

// PublishVideoInput is a new upload. Video and Thumbnail are required.
type PublishVideoInput struct {
	Title       string
	Description string
	Duration    float64
	IsPublished *bool // nil publishes immediately
	Video       *media.Object
	Thumbnail   *media.Object
}

// PublishVideo stores the video file and thumbnail and creates the record.
func (s *VideoService) PublishVideo(ctx context.Context, ownerID string, in PublishVideoInput) (*model.Video, error) {
	title, err := required("title", in.Title)
	if err != nil {
		return nil, err
	}
	if err := maxLen("title", title, MaxTitleLength); err != nil {
		return nil, err
	}
	description, err := required("description", in.Description)
	if err != nil {
		return nil, err
	}
	if err := maxLen("description", description, MaxDescriptionLength); err != nil {
		return nil, err
	}
	if in.Duration < 0 || math.IsNaN(in.Duration) || math.IsInf(in.Duration, 0) {
		return nil, apperror.ValidationFailed("duration", "duration must be a non-negative number of seconds")
	}
	if in.Video == nil || in.Video.Body == nil {
		return nil, apperror.ValidationFailed("videoFile", "videoFile is required")
	}
	if in.Thumbnail == nil {
		return nil, apperror.ValidationFailed("thumbnail", "thumbnail file is required")
	}
	if err := media.CheckVideo(in.Video.Filename, in.Video.ContentType); err != nil {
		return nil, apperror.ValidationFailed("videoFile", "videoFile must be a video (mp4, m4v, mov, webm, mkv or avi)")
	}

	in.Thumbnail.Kind = media.KindThumbnail
	thumb, err := storeImage(ctx, s.media, "thumbnail", *in.Thumbnail)
	if err != nil {
		return nil, err
	}
	in.Video.Kind = media.KindVideo
	file, err := s.media.Put(ctx, *in.Video)
	if err != nil {
		discard(ctx, s.media, s.logger, thumb.Key)
		return nil, apperror.Internal("could not store videoFile", err)
	}

	published := true
	if in.IsPublished != nil {
		published = *in.IsPublished
	}
	v := &model.Video{
		OwnerID:      ownerID,
		VideoURL:     file.URL,
		VideoKey:     file.Key,
		ThumbnailURL: thumb.URL,
		ThumbnailKey: thumb.Key,
		Title:        title,
		Description:  description,
		Duration:     in.Duration,
		IsPublished:  published,
	}
	if err := s.videos.CreateVideo(ctx, v); err != nil {
		discard(ctx, s.media, s.logger, file.Key)
		discard(ctx, s.media, s.logger, thumb.Key)
		return nil, fmt.Errorf("service/video: creating video: %w", err)
	}

	s.logger.Info("video published",
		slog.String("videoID", v.ID),
		slog.String("ownerID", ownerID),
		slog.Bool("isPublished", published),
	)
	return s.get(ctx, v.ID)
}

// GetVideo returns a video to viewerID ("" for anonymous). Unpublished
// videos are visible to their owner only. Every successful read counts a
// view and, for a signed-in viewer, moves the video to the top of their
// watch history.
func (s *VideoService) GetVideo(ctx context.Context, videoID, viewerID string) (*model.Video, error) {
	v, err := s.get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !v.IsPublished && v.OwnerID != viewerID {
		return nil, apperror.NotFound("video", videoID)
	}

	if err := s.videos.IncrementViews(ctx, videoID); err != nil {
		return nil, fmt.Errorf("service/video: counting view: %w", err)
	}
	v.Views++
	if viewerID != "" {
		if err := s.users.AddToWatchHistory(ctx, viewerID, videoID); err != nil {
			s.logger.Warn("could not record watch history",
				slog.String("userID", viewerID), slog.String("videoID", videoID), slog.Any("error", err))
		}
	}
	return v, nil
}

// UpdateVideoInput holds the optional changes of an update; at least one
// must be set.
type UpdateVideoInput struct {
	Title       *string
	Description *string
	Thumbnail   *media.Object
}

// UpdateVideo changes title, description or thumbnail. Owner only.
func (s *VideoService) UpdateVideo(ctx context.Context, userID, videoID string, in UpdateVideoInput) (*model.Video, error) {
	if in.Title == nil && in.Description == nil && in.Thumbnail == nil {
		return nil, apperror.ValidationFailed("", "provide a title, description or thumbnail to update")
	}
	v, err := s.get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := mustOwn(v.OwnerID, userID, "update this video"); err != nil {
		return nil, err
	}

	if in.Title != nil {
		title, err := required("title", *in.Title)
		if err != nil {
			return nil, err
		}
		if err := maxLen("title", title, MaxTitleLength); err != nil {
			return nil, err
		}
		v.Title = title
	}
	if in.Description != nil {
		description, err := required("description", *in.Description)
		if err != nil {
			return nil, err
		}
		if err := maxLen("description", description, MaxDescriptionLength); err != nil {
			return nil, err
		}
		v.Description = description
	}

	oldThumb := ""
	if in.Thumbnail != nil {
		in.Thumbnail.Kind = media.KindThumbnail
		asset, err := storeImage(ctx, s.media, "thumbnail", *in.Thumbnail)
		if err != nil {
			return nil, err
		}
		oldThumb = v.ThumbnailKey
		v.ThumbnailURL, v.ThumbnailKey = asset.URL, asset.Key
	}

	if err := s.videos.UpdateVideo(ctx, v); err != nil {
		if in.Thumbnail != nil {
			discard(ctx, s.media, s.logger, v.ThumbnailKey)
		}
		return nil, fmt.Errorf("service/video: updating %s: %w", videoID, err)
	}
	discard(ctx, s.media, s.logger, oldThumb)

	s.logger.Info("video updated", slog.String("videoID", videoID))
	return v, nil
}

// DeleteVideo removes the video, everything attached to it, and its files.
// Owner only.
func (s *VideoService) DeleteVideo(ctx context.Context, userID, videoID string) error {
	v, err := s.get(ctx, videoID)
	if err != nil {
		return err
	}
	if err := mustOwn(v.OwnerID, userID, "delete this video"); err != nil {
		return err
	}
	if err := s.videos.DeleteVideo(ctx, videoID); err != nil {
		return fmt.Errorf("service/video: deleting %s: %w", videoID, err)
	}
	discard(ctx, s.media, s.logger, v.VideoKey)
	discard(ctx, s.media, s.logger, v.ThumbnailKey)

	s.logger.Info("video deleted", slog.String("videoID", videoID), slog.String("ownerID", userID))
	return nil
}

// TogglePublishStatus flips IsPublished. Owner only.
func (s *VideoService) TogglePublishStatus(ctx context.Context, userID, videoID string) (*model.Video, error) {
	v, err := s.get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := mustOwn(v.OwnerID, userID, "change this video"); err != nil {
		return nil, err
	}
	if err := s.videos.SetVideoPublished(ctx, videoID, !v.IsPublished); err != nil {
		return nil, fmt.Errorf("service/video: toggling %s: %w", videoID, err)
	}
	v.IsPublished = !v.IsPublished
	return v, nil
}

func (s *VideoService) get(ctx context.Context, videoID string) (*model.Video, error) {
	v, err := s.videos.GetVideoByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/video: loading %s: %w", videoID, err)
	}
	return v, nil
}
