package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

type CommentService struct {
	comments repository.CommentRepository
	videos   repository.VideoRepository
	logger   *slog.Logger
}

func NewCommentService(comments repository.CommentRepository, videos repository.VideoRepository, logger *slog.Logger) *CommentService {
	return &CommentService{comments: comments, videos: videos, logger: logger}
}

// ListComments pages through a video's comments, newest first. viewerID is
// "" for anonymous readers.
func (s *CommentService) ListComments(ctx context.Context, videoID, viewerID string, page, limit int) (model.Page[model.Comment], error) {
	if _, err := visibleVideo(ctx, s.videos, videoID, viewerID); err != nil {
		return model.Page[model.Comment]{}, fmt.Errorf("service/comment: video %s: %w", videoID, err)
	}
	page, limit = model.NormalizePage(page, limit)
	comments, total, err := s.comments.ListComments(ctx, videoID, page, limit)
	if err != nil {
		return model.Page[model.Comment]{}, fmt.Errorf("service/comment: listing: %w", err)
	}
	return model.NewPage(comments, total, page, limit), nil
}

func (s *CommentService) AddComment(ctx context.Context, userID, videoID, content string) (*model.Comment, error) {
	content, err := validComment(content)
	if err != nil {
		return nil, err
	}
	if _, err := visibleVideo(ctx, s.videos, videoID, userID); err != nil {
		return nil, fmt.Errorf("service/comment: video %s: %w", videoID, err)
	}

	c := &model.Comment{VideoID: videoID, OwnerID: userID, Content: content}
	if err := s.comments.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("service/comment: creating: %w", err)
	}
	s.logger.Info("comment added", slog.String("commentID", c.ID), slog.String("videoID", videoID))

	created, err := s.comments.GetCommentByID(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("service/comment: reloading %s: %w", c.ID, err)
	}
	return created, nil
}

// UpdateComment replaces the content. Owner only.
func (s *CommentService) UpdateComment(ctx context.Context, userID, commentID, content string) (*model.Comment, error) {
	content, err := validComment(content)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, commentID, "update this comment"); err != nil {
		return nil, err
	}
	c, err := s.comments.UpdateComment(ctx, commentID, content)
	if err != nil {
		return nil, fmt.Errorf("service/comment: updating %s: %w", commentID, err)
	}
	return c, nil
}

// DeleteComment removes a comment and its likes. Owner only.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID string) error {
	if err := s.authorize(ctx, userID, commentID, "delete this comment"); err != nil {
		return err
	}
	if err := s.comments.DeleteComment(ctx, commentID); err != nil {
		return fmt.Errorf("service/comment: deleting %s: %w", commentID, err)
	}
	s.logger.Info("comment deleted", slog.String("commentID", commentID))
	return nil
}

func (s *CommentService) authorize(ctx context.Context, userID, commentID, action string) error {
	c, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service/comment: loading %s: %w", commentID, err)
	}
	return mustOwn(c.OwnerID, userID, action)
}

func validComment(content string) (string, error) {
	content, err := required("content", content)
	if err != nil {
		return "", err
	}
	return content, maxLen("content", content, MaxCommentLength)
}
