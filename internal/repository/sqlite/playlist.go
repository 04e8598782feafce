package sqlite

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

var _ repository.PlaylistRepository = (*DB)(nil)

const playlistColumns = `id, owner_id, name, description, created_at, updated_at`

func scanPlaylist(row rowScanner) (*model.Playlist, error) {
	var p model.Playlist
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) CreatePlaylist(ctx context.Context, p *model.Playlist) error {
	p.ID = xid.New().String()
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO playlists (`+playlistColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Name, p.Description, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting playlist: %w", err)
	}
	return nil
}

func (db *DB) GetPlaylistByID(ctx context.Context, id string) (*model.Playlist, error) {
	p, err := scanPlaylist(db.conn.QueryRowContext(ctx,
		`SELECT `+playlistColumns+` FROM playlists WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "playlist", id)
	}
	return p, nil
}

// GetPlaylistDetail loads the playlist, its owner and its videos (most
// recently added first). Private videos are only listed in their owner's
// playlists.
func (db *DB) GetPlaylistDetail(ctx context.Context, id string) (*model.PlaylistDetail, error) {
	var (
		d     model.PlaylistDetail
		owner model.UserSummary
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at,
			o.id, o.username, o.full_name, o.avatar_url
		 FROM playlists p JOIN users o ON o.id = p.owner_id
		 WHERE p.id = ?`, id,
	).Scan(&d.ID, &d.OwnerID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt,
		&owner.ID, &owner.Username, &owner.FullName, &owner.AvatarURL)
	if err != nil {
		return nil, notFoundOr(err, "playlist", id)
	}
	d.Owner = &owner

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+videoColumns+videoFrom+`
		 JOIN playlist_videos pv ON pv.video_id = v.id
		 WHERE pv.playlist_id = ? AND (v.is_published = 1 OR v.owner_id = ?)
		 ORDER BY pv.added_at DESC, v.id DESC`,
		id, d.OwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing playlist videos: %w", err)
	}
	defer rows.Close()

	d.Videos = []model.Video{}
	for rows.Next() {
		var v model.Video
		if err := scanVideoInto(rows, &v); err != nil {
			return nil, fmt.Errorf("sqlite: scanning playlist video: %w", err)
		}
		d.Videos = append(d.Videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating playlist videos: %w", err)
	}
	d.TotalVideos = len(d.Videos)
	return &d, nil
}

// ListPlaylistsByOwner returns a user's playlists, newest first.
func (db *DB) ListPlaylistsByOwner(ctx context.Context, ownerID string) ([]model.Playlist, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+playlistColumns+` FROM playlists WHERE owner_id = ? ORDER BY created_at DESC, id DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing playlists: %w", err)
	}
	defer rows.Close()

	playlists := []model.Playlist{}
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning playlist: %w", err)
		}
		playlists = append(playlists, *p)
	}
	return playlists, rows.Err()
}

func (db *DB) UpdatePlaylist(ctx context.Context, p *model.Playlist) error {
	p.UpdatedAt = now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE playlists SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Description, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating playlist %s: %w", p.ID, err)
	}
	return expectOne(res, "playlist", p.ID)
}

func (db *DB) DeletePlaylist(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting playlist %s: %w", id, err)
	}
	return expectOne(res, "playlist", id)
}

// AddVideoToPlaylist is idempotent: adding a video twice keeps one entry
// and reports false the second time.
func (db *DB) AddVideoToPlaylist(ctx context.Context, playlistID, videoID string) (bool, error) {
	var added bool
	err := db.withTx(ctx, func(tx dbtx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO playlist_videos (playlist_id, video_id, added_at) VALUES (?, ?, ?)
			 ON CONFLICT (playlist_id, video_id) DO NOTHING`,
			playlistID, videoID, now(),
		)
		if err != nil {
			return fmt.Errorf("sqlite: adding video to playlist: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		added = n > 0
		if !added {
			return nil
		}
		_, err = tx.ExecContext(ctx, `UPDATE playlists SET updated_at = ? WHERE id = ?`, now(), playlistID)
		return err
	})
	return added, err
}

func (db *DB) RemoveVideoFromPlaylist(ctx context.Context, playlistID, videoID string) error {
	return db.withTx(ctx, func(tx dbtx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM playlist_videos WHERE playlist_id = ? AND video_id = ?`, playlistID, videoID)
		if err != nil {
			return fmt.Errorf("sqlite: removing video from playlist: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.NotFoundMessage("video is not in the playlist")
		}
		_, err = tx.ExecContext(ctx, `UPDATE playlists SET updated_at = ? WHERE id = ?`, now(), playlistID)
		return err
	})
}
