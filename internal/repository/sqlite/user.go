package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, full_name, avatar_url, avatar_key,
	cover_url, cover_key, password_hash, refresh_token, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u       model.User
		refresh sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName,
		&u.AvatarURL, &u.AvatarKey, &u.CoverURL, &u.CoverKey,
		&u.PasswordHash, &refresh, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.RefreshToken = refresh.String
	return &u, nil
}

// CreateUser inserts a new user. Username and email must already be
// normalized; the UNIQUE constraints turn a duplicate into apperror.Conflict
// even when two registrations race past the service's pre-check.
func (db *DB) CreateUser(ctx context.Context, u *model.User) error {
	u.ID = xid.New().String()
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, full_name, avatar_url, avatar_key,
			cover_url, cover_key, password_hash, refresh_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		u.ID, u.Username, u.Email, u.FullName, u.AvatarURL, u.AvatarKey,
		u.CoverURL, u.CoverKey, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if field, ok := uniqueViolation(err); ok {
			return conflictFor(field, u)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", u.Username, err)
	}
	u.RefreshToken = ""
	return nil
}

func conflictFor(field string, u *model.User) error {
	switch field {
	case "email":
		return apperror.Conflict("email", u.Email)
	default:
		return apperror.Conflict("username", u.Username)
	}
}

// GetUserByID returns apperror.ErrNotFound if no user has that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "user", id)
	}
	return u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUserBy(ctx, "email", email)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return db.getUserBy(ctx, "username", username)
}

// getUserBy looks a user up by a unique column. column is never user input.
func (db *DB) getUserBy(ctx context.Context, column, value string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("user does not exist")
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", column, err)
	}
	return u, nil
}

// SetRefreshToken stores token as the user's single live refresh token.
// An empty token stores NULL, which no presented token can ever match.
func (db *DB) SetRefreshToken(ctx context.Context, userID, token string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ?`,
		nullIfEmpty(token), now(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting refresh token for %s: %w", userID, err)
	}
	return expectOne(res, "user", userID)
}

// RotateRefreshToken is a compare-and-swap on the stored token.
//
// Two concurrent refreshes presenting the same token both run this UPDATE;
// SQLite serializes them, the first one changes the stored value, and the
// second matches zero rows and gets ErrTokenMismatch. A separate
// read-compare-write would let both through.
func (db *DB) RotateRefreshToken(ctx context.Context, userID, current, next string) error {
	if current == "" || next == "" {
		return repository.ErrTokenMismatch
	}
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET refresh_token = ?, updated_at = ?
		 WHERE id = ? AND refresh_token = ?`,
		next, now(), userID, current,
	)
	if err != nil {
		return fmt.Errorf("sqlite: rotating refresh token for %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrTokenMismatch
	}
	return nil
}

// UpdatePassword replaces the hash and ends the current session.
func (db *DB) UpdatePassword(ctx context.Context, userID, hash string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, refresh_token = NULL, updated_at = ? WHERE id = ?`,
		hash, now(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating password for %s: %w", userID, err)
	}
	return expectOne(res, "user", userID)
}

// UpdateAccount changes full name and email; a taken email is a Conflict.
func (db *DB) UpdateAccount(ctx context.Context, userID, fullName, email string) (*model.User, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET full_name = ?, email = ?, updated_at = ? WHERE id = ?`,
		fullName, email, now(), userID,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return nil, apperror.Conflict("email", email)
		}
		return nil, fmt.Errorf("sqlite: updating account %s: %w", userID, err)
	}
	if err := expectOne(res, "user", userID); err != nil {
		return nil, err
	}
	return db.GetUserByID(ctx, userID)
}

func (db *DB) UpdateAvatar(ctx context.Context, userID, url, key string) (*model.User, error) {
	return db.updateImage(ctx, "avatar", userID, url, key)
}

func (db *DB) UpdateCoverImage(ctx context.Context, userID, url, key string) (*model.User, error) {
	return db.updateImage(ctx, "cover", userID, url, key)
}

// updateImage sets <prefix>_url and <prefix>_key. prefix is never user input.
func (db *DB) updateImage(ctx context.Context, prefix, userID, url, key string) (*model.User, error) {
	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %[1]s_url = ?, %[1]s_key = ?, updated_at = ? WHERE id = ?`, prefix),
		url, key, now(), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating %s for %s: %w", prefix, userID, err)
	}
	if err := expectOne(res, "user", userID); err != nil {
		return nil, err
	}
	return db.GetUserByID(ctx, userID)
}

// GetChannelProfile joins a user with subscription counts and whether
// viewerID (may be "") subscribes to them.
func (db *DB) GetChannelProfile(ctx context.Context, username, viewerID string) (*model.ChannelProfile, error) {
	var p model.ChannelProfile
	err := db.conn.QueryRowContext(ctx,
		`SELECT u.id, u.username, u.email, u.full_name, u.avatar_url, u.cover_url,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
			(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
			EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = ?)
		 FROM users u WHERE u.username = ?`,
		viewerID, username,
	).Scan(
		&p.ID, &p.Username, &p.Email, &p.FullName, &p.AvatarURL, &p.CoverURL,
		&p.SubscribersCount, &p.ChannelsSubscribedToCount, &p.IsSubscribed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("channel does not exist")
		}
		return nil, fmt.Errorf("sqlite: getting channel %q: %w", username, err)
	}
	return &p, nil
}

// AddToWatchHistory records a view; watching again moves the video to the top.
func (db *DB) AddToWatchHistory(ctx context.Context, userID, videoID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO watch_history (user_id, video_id, watched_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, video_id) DO UPDATE SET watched_at = excluded.watched_at`,
		userID, videoID, now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding %s to watch history of %s: %w", videoID, userID, err)
	}
	return nil
}

// GetWatchHistory lists watched videos, most recent first, each with its owner.
// Videos that went private are hidden unless the viewer owns them.
func (db *DB) GetWatchHistory(ctx context.Context, userID string) ([]model.WatchedVideo, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+videoColumns+`, wh.watched_at`+videoFrom+`
		 JOIN watch_history wh ON wh.video_id = v.id
		 WHERE wh.user_id = ? AND (v.is_published = 1 OR v.owner_id = wh.user_id)
		 ORDER BY wh.watched_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing watch history of %s: %w", userID, err)
	}
	defer rows.Close()

	history := []model.WatchedVideo{}
	for rows.Next() {
		var w model.WatchedVideo
		if err := scanVideoInto(rows, &w.Video, &w.WatchedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning watch history: %w", err)
		}
		history = append(history, w)
	}
	return history, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
