// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User is a registered account, which doubles as a channel.
//
// Username and Email are stored trimmed and lowercased; the database keeps
// both unique. PasswordHash and RefreshToken carry `json:"-"` so they can
// never reach a response body, and Sanitized() clears them for callers that
// hand the struct further on.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	AvatarURL    string    `json:"avatar"`
	AvatarKey    string    `json:"-"` // media store key, used to delete the old file
	CoverURL     string    `json:"coverImage"`
	CoverKey     string    `json:"-"`
	PasswordHash string    `json:"-"`
	RefreshToken string    `json:"-"` // current refresh token; "" when logged out
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Default images used when a user registers without uploading one.
const (
	DefaultAvatarURL = "https://example.com/default-avatar.png"
	DefaultCoverURL  = "https://example.com/default-cover.png"
)

// Sanitized returns a copy without the password hash, refresh token and
// media keys.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	c.RefreshToken = ""
	c.AvatarKey = ""
	c.CoverKey = ""
	return &c
}

// UserSummary is the owner block embedded in videos, comments and lists.
type UserSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatar"`
}

// ChannelProfile is the public view of a user as a channel.
type ChannelProfile struct {
	ID                        string `json:"id"`
	Username                  string `json:"username"`
	Email                     string `json:"email"`
	FullName                  string `json:"fullName"`
	AvatarURL                 string `json:"avatar"`
	CoverURL                  string `json:"coverImage"`
	SubscribersCount          int    `json:"subscribersCount"`
	ChannelsSubscribedToCount int    `json:"channelsSubscribedToCount"`
	// IsSubscribed reports whether the viewer subscribes to this channel.
	IsSubscribed bool `json:"isSubscribed"`
}
