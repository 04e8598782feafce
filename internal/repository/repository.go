// Package repository declares the storage contracts the service layer
// depends on. Services accept these interfaces; internal/repository/sqlite
// provides the production implementation and tests supply in-memory fakes.
//
// Conventions shared by every implementation:
//   - missing rows are reported as apperror.NotFound
//   - unique-constraint violations are reported as apperror.Conflict
//   - Create methods fill in ID and timestamps on the passed struct
package repository

import (
	"context"
	"errors"

	"github.com/sakif/videotube/internal/model"
)

// ErrTokenMismatch is returned by RotateRefreshToken when the stored
// refresh token is no longer the one presented (rotated, cleared, or never
// issued).
var ErrTokenMismatch = errors.New("repository: refresh token does not match")

// UserRepository is the credential store plus channel read models.
type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)

	// SetRefreshToken overwrites the stored token; "" clears it.
	SetRefreshToken(ctx context.Context, userID, token string) error
	// RotateRefreshToken replaces current with next in one conditional
	// update and returns ErrTokenMismatch if current is not what is stored.
	RotateRefreshToken(ctx context.Context, userID, current, next string) error
	// UpdatePassword stores a new hash and clears the refresh token.
	UpdatePassword(ctx context.Context, userID, hash string) error
	UpdateAccount(ctx context.Context, userID, fullName, email string) (*model.User, error)
	UpdateAvatar(ctx context.Context, userID, url, key string) (*model.User, error)
	UpdateCoverImage(ctx context.Context, userID, url, key string) (*model.User, error)

	GetChannelProfile(ctx context.Context, username, viewerID string) (*model.ChannelProfile, error)
	AddToWatchHistory(ctx context.Context, userID, videoID string) error
	GetWatchHistory(ctx context.Context, userID string) ([]model.WatchedVideo, error)
}

type VideoRepository interface {
	CreateVideo(ctx context.Context, v *model.Video) error
	// GetVideoByID returns the video with its Owner summary filled.
	GetVideoByID(ctx context.Context, id string) (*model.Video, error)
	// ListVideos returns one page of videos and the total match count.
	ListVideos(ctx context.Context, q model.VideoQuery) ([]model.Video, int, error)
	UpdateVideo(ctx context.Context, v *model.Video) error
	SetVideoPublished(ctx context.Context, id string, published bool) error
	IncrementViews(ctx context.Context, id string) error
	DeleteVideo(ctx context.Context, id string) error
}

type CommentRepository interface {
	CreateComment(ctx context.Context, c *model.Comment) error
	GetCommentByID(ctx context.Context, id string) (*model.Comment, error)
	ListComments(ctx context.Context, videoID string, page, limit int) ([]model.Comment, int, error)
	UpdateComment(ctx context.Context, id, content string) (*model.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

type LikeRepository interface {
	// ToggleLike adds the like when absent and removes it when present,
	// in one transaction. It reports whether the target is now liked.
	ToggleLike(ctx context.Context, userID string, target model.LikeTarget, targetID string) (bool, error)
	ListLikedVideos(ctx context.Context, userID string) ([]model.LikedVideo, error)
}

type SubscriptionRepository interface {
	// ToggleSubscription reports whether subscriber is now subscribed.
	ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error)
	ListSubscribers(ctx context.Context, channelID string) ([]model.Subscriber, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]model.SubscribedChannel, error)
}

type PlaylistRepository interface {
	CreatePlaylist(ctx context.Context, p *model.Playlist) error
	GetPlaylistByID(ctx context.Context, id string) (*model.Playlist, error)
	GetPlaylistDetail(ctx context.Context, id string) (*model.PlaylistDetail, error)
	ListPlaylistsByOwner(ctx context.Context, ownerID string) ([]model.Playlist, error)
	UpdatePlaylist(ctx context.Context, p *model.Playlist) error
	DeletePlaylist(ctx context.Context, id string) error
	// AddVideoToPlaylist reports false when the video was already present.
	AddVideoToPlaylist(ctx context.Context, playlistID, videoID string) (bool, error)
	// RemoveVideoFromPlaylist returns NotFound when the video is not in the playlist.
	RemoveVideoFromPlaylist(ctx context.Context, playlistID, videoID string) error
}

type TweetRepository interface {
	CreateTweet(ctx context.Context, t *model.Tweet) error
	GetTweetByID(ctx context.Context, id string) (*model.Tweet, error)
	ListTweetsByOwner(ctx context.Context, ownerID string) ([]model.Tweet, error)
	UpdateTweet(ctx context.Context, id, content string) (*model.Tweet, error)
	DeleteTweet(ctx context.Context, id string) error
}

type DashboardRepository interface {
	GetChannelStats(ctx context.Context, userID string) (*model.ChannelStats, error)
}
