package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/videotube/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" gives every test its own empty, migrated database. Because the
// pool holds exactly one connection, the database lives until Close.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test db")
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        username + "@gmail.com",
		FullName:     "User " + username,
		AvatarURL:    "https://cdn.example.com/" + username + ".png",
		PasswordHash: "$2a$04$not-a-real-hash",
	}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func createTestVideo(t *testing.T, db *DB, owner *model.User, title string, published bool) *model.Video {
	t.Helper()
	v := &model.Video{
		OwnerID:      owner.ID,
		VideoURL:     "https://cdn.example.com/v/" + title + ".mp4",
		ThumbnailURL: "https://cdn.example.com/t/" + title + ".png",
		Title:        title,
		Description:  "about " + title,
		Duration:     42.5,
		IsPublished:  published,
	}
	require.NoError(t, db.CreateVideo(context.Background(), v))
	return v
}

func TestNew_FileDatabaseMigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "videotube.db")

	db, err := New(path)
	require.NoError(t, err)
	createTestUser(t, db, "persisted")
	require.NoError(t, db.Close())

	// Reopening must skip the already-applied migration and keep the data.
	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()

	u, err := db.GetUserByUsername(context.Background(), "persisted")
	require.NoError(t, err)
	assert.Equal(t, "persisted@gmail.com", u.Email)
	assert.NoError(t, db.Ping(context.Background()))
}

func TestNew_ConcurrentOpens(t *testing.T) {
	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			db, err := New(":memory:")
			if err != nil {
				errs <- err
				return
			}
			defer db.Close()
			u := &model.User{
				Username:     fmt.Sprintf("user%d", i),
				Email:        fmt.Sprintf("user%d@gmail.com", i),
				FullName:     "User",
				AvatarURL:    "https://cdn.example.com/a.png",
				PasswordHash: "$2a$04$not-a-real-hash",
			}
			errs <- db.CreateUser(context.Background(), u)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.withTx(ctx, func(tx dbtx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, username, email, full_name, password_hash, created_at, updated_at)
			 VALUES ('x', 'ghost', 'ghost@gmail.com', 'Ghost', 'h', ?, ?)`, now(), now())
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = db.GetUserByID(ctx, "x")
	assert.Error(t, err, "insert should have been rolled back")
}
