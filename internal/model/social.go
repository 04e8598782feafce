package model

import "time"

// DeletedUserName stands in for the owner of a comment whose account is gone.
const DeletedUserName = "Deleted User"

type Comment struct {
	ID        string       `json:"id"`
	VideoID   string       `json:"videoId"`
	OwnerID   string       `json:"ownerId"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Owner     *UserSummary `json:"owner,omitempty"`
}

type Tweet struct {
	ID        string       `json:"id"`
	OwnerID   string       `json:"ownerId"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Owner     *UserSummary `json:"owner,omitempty"`
}

// LikeTarget names what a like points at.
type LikeTarget string

const (
	LikeVideo   LikeTarget = "video"
	LikeComment LikeTarget = "comment"
	LikeTweet   LikeTarget = "tweet"
)

// Like links a user to exactly one video, comment or tweet.
type Like struct {
	ID        string     `json:"id"`
	LikedBy   string     `json:"likedBy"`
	Target    LikeTarget `json:"target"`
	TargetID  string     `json:"targetId"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Subscriber is one row of a channel's subscriber list.
type Subscriber struct {
	UserSummary
	// SubscribedToSubscriber reports whether the channel subscribes back.
	SubscribedToSubscriber bool      `json:"subscribedToSubscriber"`
	SubscribedAt           time.Time `json:"subscribedAt"`
}

// SubscribedChannel is one row of a user's subscriptions list.
type SubscribedChannel struct {
	UserSummary
	SubscribedAt time.Time `json:"subscribedAt"`
}

type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistDetail is a playlist with its owner and videos, newest first.
type PlaylistDetail struct {
	Playlist
	Owner       *UserSummary `json:"owner"`
	Videos      []Video      `json:"videos"`
	TotalVideos int          `json:"totalVideos"`
}

// ChannelStats backs the dashboard stats view.
type ChannelStats struct {
	Channel          UserSummary `json:"channel"`
	TotalSubscribers int         `json:"totalSubscribers"`
	TotalVideos      int         `json:"totalVideos"`
	TotalViews       int64       `json:"totalViews"`
	TotalLikes       int         `json:"totalLikes"`
}
