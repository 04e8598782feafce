package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/model"
)

func TestGetVideoByID(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	v := createTestVideo(t, db, owner, "intro", true)

	got, err := db.GetVideoByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "intro", got.Title)
	assert.Equal(t, 42.5, got.Duration)
	assert.True(t, got.IsPublished)
	require.NotNil(t, got.Owner)
	assert.Equal(t, owner.ID, got.Owner.ID)
	assert.Equal(t, "owner", got.Owner.Username)

	_, err = db.GetVideoByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListVideos(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	createTestVideo(t, db, alice, "Go Concurrency", true)
	createTestVideo(t, db, alice, "cooking pasta", true)
	createTestVideo(t, db, alice, "private draft", false)
	createTestVideo(t, db, bob, "golang generics", true)
	createTestVideo(t, db, bob, "100% real", true)

	tests := []struct {
		name       string
		query      model.VideoQuery
		wantTotal  int
		wantTitles []string // nil skips the order check
	}{
		{
			name:      "all published",
			query:     model.VideoQuery{Limit: 10},
			wantTotal: 4,
		},
		{
			name:       "search is case-insensitive",
			query:      model.VideoQuery{Search: "GO", SortBy: model.VideoSortTitle, Limit: 10},
			wantTotal:  2,
			wantTitles: []string{"Go Concurrency", "golang generics"},
		},
		{
			name:       "percent sign is literal",
			query:      model.VideoQuery{Search: "100%", Limit: 10},
			wantTotal:  1,
			wantTitles: []string{"100% real"},
		},
		{
			name:      "owner without private",
			query:     model.VideoQuery{OwnerID: alice.ID, Limit: 10},
			wantTotal: 2,
		},
		{
			name:      "owner with private",
			query:     model.VideoQuery{OwnerID: alice.ID, IncludeUnpublished: true, Limit: 10},
			wantTotal: 3,
		},
		{
			name:       "newest first by default order flag",
			query:      model.VideoQuery{OwnerID: bob.ID, SortBy: model.VideoSortCreatedAt, SortDesc: true, Limit: 10},
			wantTotal:  2,
			wantTitles: []string{"100% real", "golang generics"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			videos, total, err := db.ListVideos(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			if tt.wantTitles != nil {
				var titles []string
				for _, v := range videos {
					titles = append(titles, v.Title)
				}
				assert.Equal(t, tt.wantTitles, titles)
			}
		})
	}
}

func TestListVideos_Pagination(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		createTestVideo(t, db, owner, title, true)
	}

	page1, total, err := db.ListVideos(ctx, model.VideoQuery{SortBy: model.VideoSortTitle, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page1, 2)
	assert.Equal(t, "a", page1[0].Title)

	page3, _, err := db.ListVideos(ctx, model.VideoQuery{SortBy: model.VideoSortTitle, Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "e", page3[0].Title)
}

func TestUpdateVideoAndPublish(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	v := createTestVideo(t, db, owner, "old", true)

	v.Title = "new"
	v.ThumbnailURL = "https://cdn/new.png"
	v.ThumbnailKey = "thumbnail/new.png"
	require.NoError(t, db.UpdateVideo(ctx, v))
	require.NoError(t, db.SetVideoPublished(ctx, v.ID, false))
	require.NoError(t, db.IncrementViews(ctx, v.ID))
	require.NoError(t, db.IncrementViews(ctx, v.ID))

	got, err := db.GetVideoByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, "thumbnail/new.png", got.ThumbnailKey)
	assert.False(t, got.IsPublished)
	assert.Equal(t, int64(2), got.Views)

	assert.ErrorIs(t, db.IncrementViews(ctx, "missing"), apperror.ErrNotFound)
}

func TestDeleteVideo_Cascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner")
	fan := createTestUser(t, db, "fan")
	v := createTestVideo(t, db, owner, "doomed", true)

	c := &model.Comment{VideoID: v.ID, OwnerID: fan.ID, Content: "nice"}
	require.NoError(t, db.CreateComment(ctx, c))
	_, err := db.ToggleLike(ctx, fan.ID, model.LikeVideo, v.ID)
	require.NoError(t, err)
	_, err = db.ToggleLike(ctx, owner.ID, model.LikeComment, c.ID)
	require.NoError(t, err)
	p := &model.Playlist{OwnerID: fan.ID, Name: "faves", Description: "d"}
	require.NoError(t, db.CreatePlaylist(ctx, p))
	_, err = db.AddVideoToPlaylist(ctx, p.ID, v.ID)
	require.NoError(t, err)
	require.NoError(t, db.AddToWatchHistory(ctx, fan.ID, v.ID))

	require.NoError(t, db.DeleteVideo(ctx, v.ID))

	_, err = db.GetCommentByID(ctx, c.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	var likes int
	require.NoError(t, db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes`).Scan(&likes))
	assert.Zero(t, likes)

	detail, err := db.GetPlaylistDetail(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, detail.TotalVideos)

	history, err := db.GetWatchHistory(ctx, fan.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.ErrorIs(t, db.DeleteVideo(ctx, v.ID), apperror.ErrNotFound)
}
