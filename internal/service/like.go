package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

// LikeService toggles likes on videos, comments and tweets.
type LikeService struct {
	likes    repository.LikeRepository
	videos   repository.VideoRepository
	comments repository.CommentRepository
	tweets   repository.TweetRepository
	logger   *slog.Logger
}

func NewLikeService(
	likes repository.LikeRepository,
	videos repository.VideoRepository,
	comments repository.CommentRepository,
	tweets repository.TweetRepository,
	logger *slog.Logger,
) *LikeService {
	return &LikeService{likes: likes, videos: videos, comments: comments, tweets: tweets, logger: logger}
}

// ToggleVideoLike likes the video, or removes the like if there is one.
// It reports whether the video is now liked.
func (s *LikeService) ToggleVideoLike(ctx context.Context, userID, videoID string) (bool, error) {
	return s.toggle(ctx, userID, model.LikeVideo, videoID, func(ctx context.Context, id string) error {
		_, err := visibleVideo(ctx, s.videos, id, userID)
		return err
	})
}

func (s *LikeService) ToggleCommentLike(ctx context.Context, userID, commentID string) (bool, error) {
	return s.toggle(ctx, userID, model.LikeComment, commentID, func(ctx context.Context, id string) error {
		_, err := s.comments.GetCommentByID(ctx, id)
		return err
	})
}

func (s *LikeService) ToggleTweetLike(ctx context.Context, userID, tweetID string) (bool, error) {
	return s.toggle(ctx, userID, model.LikeTweet, tweetID, func(ctx context.Context, id string) error {
		_, err := s.tweets.GetTweetByID(ctx, id)
		return err
	})
}

func (s *LikeService) toggle(
	ctx context.Context,
	userID string,
	target model.LikeTarget,
	targetID string,
	exists func(context.Context, string) error,
) (bool, error) {
	if err := exists(ctx, targetID); err != nil {
		return false, fmt.Errorf("service/like: %s %s: %w", target, targetID, err)
	}
	liked, err := s.likes.ToggleLike(ctx, userID, target, targetID)
	if err != nil {
		return false, fmt.Errorf("service/like: toggling %s %s: %w", target, targetID, err)
	}
	s.logger.Debug("like toggled",
		slog.String("userID", userID),
		slog.String("target", string(target)),
		slog.String("targetID", targetID),
		slog.Bool("liked", liked),
	)
	return liked, nil
}

// GetLikedVideos lists the published videos userID liked, newest like first.
func (s *LikeService) GetLikedVideos(ctx context.Context, userID string) ([]model.LikedVideo, error) {
	videos, err := s.likes.ListLikedVideos(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/like: liked videos of %s: %w", userID, err)
	}
	return videos, nil
}
