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

type TweetService struct {
	tweets repository.TweetRepository
	users  repository.UserRepository
	logger *slog.Logger
}

func NewTweetService(tweets repository.TweetRepository, users repository.UserRepository, logger *slog.Logger) *TweetService {
	return &TweetService{tweets: tweets, users: users, logger: logger}
}

func (s *TweetService) CreateTweet(ctx context.Context, userID, content string) (*model.Tweet, error) {
	content, err := validTweet(content)
	if err != nil {
		return nil, err
	}
	t := &model.Tweet{OwnerID: userID, Content: content}
	if err := s.tweets.CreateTweet(ctx, t); err != nil {
		return nil, fmt.Errorf("service/tweet: creating: %w", err)
	}
	s.logger.Info("tweet created", slog.String("tweetID", t.ID), slog.String("ownerID", userID))

	created, err := s.tweets.GetTweetByID(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("service/tweet: reloading %s: %w", t.ID, err)
	}
	return created, nil
}

// GetUserTweets lists a user's tweets, newest first.
func (s *TweetService) GetUserTweets(ctx context.Context, userID string) ([]model.Tweet, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("service/tweet: user %s: %w", userID, err)
	}
	tweets, err := s.tweets.ListTweetsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/tweet: listing: %w", err)
	}
	return tweets, nil
}

// UpdateTweet replaces the content. Owner only.
func (s *TweetService) UpdateTweet(ctx context.Context, userID, tweetID, content string) (*model.Tweet, error) {
	content, err := validTweet(content)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, tweetID, "update this tweet"); err != nil {
		return nil, err
	}
	t, err := s.tweets.UpdateTweet(ctx, tweetID, content)
	if err != nil {
		return nil, fmt.Errorf("service/tweet: updating %s: %w", tweetID, err)
	}
	return t, nil
}

// DeleteTweet removes a tweet and its likes. Owner only.
func (s *TweetService) DeleteTweet(ctx context.Context, userID, tweetID string) error {
	if err := s.authorize(ctx, userID, tweetID, "delete this tweet"); err != nil {
		return err
	}
	if err := s.tweets.DeleteTweet(ctx, tweetID); err != nil {
		return fmt.Errorf("service/tweet: deleting %s: %w", tweetID, err)
	}
	s.logger.Info("tweet deleted", slog.String("tweetID", tweetID))
	return nil
}

func (s *TweetService) authorize(ctx context.Context, userID, tweetID, action string) error {
	t, err := s.tweets.GetTweetByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service/tweet: loading %s: %w", tweetID, err)
	}
	return mustOwn(t.OwnerID, userID, action)
}

func validTweet(content string) (string, error) {
	content, err := required("content", content)
	if err != nil {
		return "", err
	}
	return content, maxLen("content", content, MaxTweetLength)
}
