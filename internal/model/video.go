package model

import "time"

// Video is an uploaded video owned by a channel (user).
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	VideoURL     string    `json:"videoFile"`
	VideoKey     string    `json:"-"`
	ThumbnailURL string    `json:"thumbnail"`
	ThumbnailKey string    `json:"-"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     float64   `json:"duration"` // seconds
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Owner is filled by read queries that join the owning user.
	Owner *UserSummary `json:"owner,omitempty"`
}

// Sort fields accepted by video listings.
const (
	VideoSortCreatedAt = "createdAt"
	VideoSortViews     = "views"
	VideoSortDuration  = "duration"
	VideoSortTitle     = "title"
)

// VideoQuery filters and orders a video listing.
type VideoQuery struct {
	Search   string // case-insensitive match in title or description
	OwnerID  string // "" for all owners
	SortBy   string // one of the VideoSort* constants
	SortDesc bool
	// IncludeUnpublished also lists private videos; only set for the owner.
	IncludeUnpublished bool
	Page               int
	Limit              int
}

// WatchedVideo is a watch-history entry.
type WatchedVideo struct {
	Video
	WatchedAt time.Time `json:"watchedAt"`
}

// LikedVideo is a liked-videos entry.
type LikedVideo struct {
	Video
	LikedAt time.Time `json:"likedAt"`
}
