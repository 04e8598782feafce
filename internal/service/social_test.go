package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/videotube/internal/apperror"
)

const missingID = "cv37pbdbgk1g0ps0zzzz"

// =========================================================================
// COMMENTS
// =========================================================================

func TestComments(t *testing.T) {
	f := newResourceFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	v := f.publish(t, alice, "intro", true)
	svc := NewCommentService(f.db, f.db, testLogger())
	ctx := context.Background()

	c, err := svc.AddComment(ctx, bob.ID, v.ID, "  great video ")
	require.NoError(t, err)
	assert.Equal(t, "great video", c.Content)
	require.NotNil(t, c.Owner)
	assert.Equal(t, "bob", c.Owner.Username)

	_, err = svc.AddComment(ctx, bob.ID, v.ID, " ")
	assertAppError(t, err, apperror.ErrValidation, "content")
	_, err = svc.AddComment(ctx, bob.ID, missingID, "hello")
	assertAppError(t, err, apperror.ErrNotFound, "")

	_, err = svc.UpdateComment(ctx, alice.ID, c.ID, "edited by alice")
	assertAppError(t, err, apperror.ErrForbidden, "")
	updated, err := svc.UpdateComment(ctx, bob.ID, c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	page, err := svc.ListComments(ctx, v.ID, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalDocs)

	assertAppError(t, svc.DeleteComment(ctx, alice.ID, c.ID), apperror.ErrForbidden, "")
	require.NoError(t, svc.DeleteComment(ctx, bob.ID, c.ID))
	assertAppError(t, svc.DeleteComment(ctx, bob.ID, c.ID), apperror.ErrNotFound, "")
}

func TestUnpublishedVideoHiddenFromCommentsAndLikes(t *testing.T) {
	f := newResourceFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	v := f.publish(t, alice, "draft", false)
	comments := NewCommentService(f.db, f.db, testLogger())
	likes := NewLikeService(f.db, f.db, f.db, f.db, testLogger())
	ctx := context.Background()

	_, err := comments.ListComments(ctx, v.ID, "", 1, 10)
	assertAppError(t, err, apperror.ErrNotFound, "")
	_, err = comments.ListComments(ctx, v.ID, bob.ID, 1, 10)
	assertAppError(t, err, apperror.ErrNotFound, "")
	_, err = comments.AddComment(ctx, bob.ID, v.ID, "sneaky")
	assertAppError(t, err, apperror.ErrNotFound, "")
	_, err = likes.ToggleVideoLike(ctx, bob.ID, v.ID)
	assertAppError(t, err, apperror.ErrNotFound, "")

	_, err = comments.AddComment(ctx, alice.ID, v.ID, "note to self")
	require.NoError(t, err)
	page, err := comments.ListComments(ctx, v.ID, alice.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalDocs)
	liked, err := likes.ToggleVideoLike(ctx, alice.ID, v.ID)
	require.NoError(t, err)
	assert.True(t, liked)
}

// =========================================================================
// LIKES
// =========================================================================

func TestToggleVideoLike(t *testing.T) {
	f := newResourceFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	v := f.publish(t, alice, "intro", true)
	svc := NewLikeService(f.db, f.db, f.db, f.db, testLogger())
	ctx := context.Background()

	liked, err := svc.ToggleVideoLike(ctx, bob.ID, v.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	list, err := svc.GetLikedVideos(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].Owner.Username)

	liked, err = svc.ToggleVideoLike(ctx, bob.ID, v.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	list, err = svc.GetLikedVideos(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.ToggleVideoLike(ctx, bob.ID, missingID)
	assertAppError(t, err, apperror.ErrNotFound, "")
}

func TestToggleCommentAndTweetLike(t *testing.T) {
	f := newResourceFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	v := f.publish(t, alice, "intro", true)
	ctx := context.Background()

	c, err := NewCommentService(f.db, f.db, testLogger()).AddComment(ctx, alice.ID, v.ID, "first")
	require.NoError(t, err)
	tw, err := NewTweetService(f.db, f.db, testLogger()).CreateTweet(ctx, alice.ID, "hello")
	require.NoError(t, err)
	svc := NewLikeService(f.db, f.db, f.db, f.db, testLogger())

	liked, err := svc.ToggleCommentLike(ctx, bob.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = svc.ToggleTweetLike(ctx, bob.ID, tw.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	_, err = svc.ToggleCommentLike(ctx, bob.ID, missingID)
	assertAppError(t, err, apperror.ErrNotFound, "")
	_, err = svc.ToggleTweetLike(ctx, bob.ID, missingID)
	assertAppError(t, err, apperror.ErrNotFound, "")
}

// =========================================================================
// SUBSCRIPTIONS
// =========================================================================

func TestSubscriptions(t *testing.T) {
	f := newResourceFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")
	svc := NewSubscriptionService(f.db, f.db, testLogger())
	ctx := context.Background()

	_, err := svc.ToggleSubscription(ctx, alice.ID, alice.ID)
	assertAppError(t, err, apperror.ErrValidation, "channelId")
	_, err = svc.ToggleSubscription(ctx, alice.ID, missingID)
	assertAppError(t, err, apperror.ErrNotFound, "")

	for _, sub := range []string{bob.ID, carol.ID} {
		on, err := svc.ToggleSubscription(ctx, sub, alice.ID)
		require.NoError(t, err)
		assert.True(t, on)
	}
	// alice subscribes back to bob only
	_, err = svc.ToggleSubscription(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	subs, err := svc.GetChannelSubscribers(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, subs.TotalSubscribers)
	back := map[string]bool{}
	for _, s := range subs.Subscribers {
		back[s.Username] = s.SubscribedToSubscriber
	}
	assert.Equal(t, map[string]bool{"bob": true, "carol": false}, back)

	channels, err := svc.GetSubscribedChannels(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, channels.TotalChannels)
	assert.Equal(t, "alice", channels.Channels[0].Username)

	profile, err := NewUserService(f.db, nil, f.store, testLogger()).GetUserChannelProfile(ctx, "alice", bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, profile.SubscribersCount)
	assert.Equal(t, 1, profile.ChannelsSubscribedToCount)
	assert.True(t, profile.IsSubscribed)

	off, err := svc.ToggleSubscription(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, off)
	subs, err = svc.GetChannelSubscribers(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, subs.TotalSubscribers)
}

// =========================================================================
// PLAYLISTS
// =========================================================================

func TestPlaylists(t *testing.T) {
	f := newResourceFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	v := f.publish(t, alice, "intro", true)
	svc := NewPlaylistService(f.db, f.db, f.db, testLogger())
	ctx := context.Background()

	_, err := svc.CreatePlaylist(ctx, alice.ID, "", "desc")
	assertAppError(t, err, apperror.ErrValidation, "name")
	p, err := svc.CreatePlaylist(ctx, alice.ID, "Favourites", "best videos")
	require.NoError(t, err)

	d, err := svc.AddVideoToPlaylist(ctx, alice.ID, v.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.TotalVideos)
	d, err = svc.AddVideoToPlaylist(ctx, alice.ID, v.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.TotalVideos, "adding twice keeps one entry")

	_, err = svc.AddVideoToPlaylist(ctx, bob.ID, v.ID, p.ID)
	assertAppError(t, err, apperror.ErrForbidden, "")
	_, err = svc.AddVideoToPlaylist(ctx, alice.ID, missingID, p.ID)
	assertAppError(t, err, apperror.ErrNotFound, "")

	name := "Renamed"
	_, err = svc.UpdatePlaylist(ctx, bob.ID, p.ID, &name, nil)
	assertAppError(t, err, apperror.ErrForbidden, "")
	_, err = svc.UpdatePlaylist(ctx, alice.ID, p.ID, nil, nil)
	assertAppError(t, err, apperror.ErrValidation, "")
	updated, err := svc.UpdatePlaylist(ctx, alice.ID, p.ID, &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "best videos", updated.Description)

	list, err := svc.GetUserPlaylists(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	d, err = svc.RemoveVideoFromPlaylist(ctx, alice.ID, v.ID, p.ID)
	require.NoError(t, err)
	assert.Zero(t, d.TotalVideos)
	_, err = svc.RemoveVideoFromPlaylist(ctx, alice.ID, v.ID, p.ID)
	assertAppError(t, err, apperror.ErrNotFound, "")

	assertAppError(t, svc.DeletePlaylist(ctx, bob.ID, p.ID), apperror.ErrForbidden, "")
	require.NoError(t, svc.DeletePlaylist(ctx, alice.ID, p.ID))
	_, err = svc.GetPlaylist(ctx, p.ID)
	assertAppError(t, err, apperror.ErrNotFound, "")
}

// =========================================================================
// TWEETS
// =========================================================================

func TestTweets(t *testing.T) {
	f := newResourceFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	svc := NewTweetService(f.db, f.db, testLogger())
	ctx := context.Background()

	_, err := svc.CreateTweet(ctx, alice.ID, strings.Repeat("a", MaxTweetLength+1))
	assertAppError(t, err, apperror.ErrValidation, "content")
	_, err = svc.CreateTweet(ctx, alice.ID, strings.Repeat("é", MaxTweetLength))
	require.NoError(t, err, "the limit counts characters, not bytes")

	tw, err := svc.CreateTweet(ctx, alice.ID, "hello world")
	require.NoError(t, err)
	assert.Equal(t, "alice", tw.Owner.Username)

	tweets, err := svc.GetUserTweets(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, tweets, 2)
	assert.Equal(t, tw.ID, tweets[0].ID, "newest first")

	_, err = svc.GetUserTweets(ctx, missingID)
	assertAppError(t, err, apperror.ErrNotFound, "")

	_, err = svc.UpdateTweet(ctx, bob.ID, tw.ID, "mine now")
	assertAppError(t, err, apperror.ErrForbidden, "")
	updated, err := svc.UpdateTweet(ctx, alice.ID, tw.ID, "hello again")
	require.NoError(t, err)
	assert.Equal(t, "hello again", updated.Content)

	assertAppError(t, svc.DeleteTweet(ctx, bob.ID, tw.ID), apperror.ErrForbidden, "")
	require.NoError(t, svc.DeleteTweet(ctx, alice.ID, tw.ID))
}

// =========================================================================
// DASHBOARD
// =========================================================================

func TestDashboard(t *testing.T) {
	f := newResourceFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	v1 := f.publish(t, alice, "one", true)
	f.publish(t, alice, "two", false)
	ctx := context.Background()

	_, err := f.videos().GetVideo(ctx, v1.ID, bob.ID)
	require.NoError(t, err)
	_, err = NewLikeService(f.db, f.db, f.db, f.db, testLogger()).ToggleVideoLike(ctx, bob.ID, v1.ID)
	require.NoError(t, err)
	_, err = NewSubscriptionService(f.db, f.db, testLogger()).ToggleSubscription(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	svc := NewDashboardService(f.db, f.db, f.db)
	stats, err := svc.GetChannelStats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stats.Channel.Username)
	assert.Equal(t, 1, stats.TotalSubscribers)
	assert.Equal(t, 2, stats.TotalVideos)
	assert.EqualValues(t, 1, stats.TotalViews)
	assert.Equal(t, 1, stats.TotalLikes)

	videos, err := svc.GetChannelVideos(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", videos.VideoInfo.ChannelName)
	assert.Len(t, videos.Videos, 2, "dashboard includes unpublished videos")
}
