package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

var _ repository.VideoRepository = (*DB)(nil)

// videoColumns and videoFrom select a video joined with its owner summary.
// Use them with scanVideoInto.
const (
	videoColumns = `v.id, v.owner_id, v.video_url, v.video_key, v.thumbnail_url, v.thumbnail_key,
	v.title, v.description, v.duration, v.views, v.is_published, v.created_at, v.updated_at,
	o.id, o.username, o.full_name, o.avatar_url`
	videoFrom = ` FROM videos v JOIN users o ON o.id = v.owner_id`
)

// scanVideoInto scans videoColumns into v, followed by any extra columns.
func scanVideoInto(row rowScanner, v *model.Video, extra ...any) error {
	owner := &model.UserSummary{}
	dest := []any{
		&v.ID, &v.OwnerID, &v.VideoURL, &v.VideoKey, &v.ThumbnailURL, &v.ThumbnailKey,
		&v.Title, &v.Description, &v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
		&owner.ID, &owner.Username, &owner.FullName, &owner.AvatarURL,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	v.Owner = owner
	return nil
}

// sortColumns whitelists sortable fields; user input never reaches the SQL.
var sortColumns = map[string]string{
	model.VideoSortCreatedAt: "v.created_at",
	model.VideoSortViews:     "v.views",
	model.VideoSortDuration:  "v.duration",
	model.VideoSortTitle:     "v.title COLLATE NOCASE",
}

func (db *DB) CreateVideo(ctx context.Context, v *model.Video) error {
	v.ID = xid.New().String()
	v.CreatedAt = now()
	v.UpdatedAt = v.CreatedAt

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO videos (id, owner_id, video_url, video_key, thumbnail_url, thumbnail_key,
			title, description, duration, views, is_published, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		v.ID, v.OwnerID, v.VideoURL, v.VideoKey, v.ThumbnailURL, v.ThumbnailKey,
		v.Title, v.Description, v.Duration, v.IsPublished, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting video: %w", err)
	}
	v.Views = 0
	return nil
}

func (db *DB) GetVideoByID(ctx context.Context, id string) (*model.Video, error) {
	var v model.Video
	err := scanVideoInto(db.conn.QueryRowContext(ctx,
		`SELECT `+videoColumns+videoFrom+` WHERE v.id = ?`, id), &v)
	if err != nil {
		return nil, notFoundOr(err, "video", id)
	}
	return &v, nil
}

// ListVideos filters, sorts and paginates. The count and the page are two
// queries; the count ignores LIMIT/OFFSET.
func (db *DB) ListVideos(ctx context.Context, q model.VideoQuery) ([]model.Video, int, error) {
	var (
		where []string
		args  []any
	)
	if q.OwnerID != "" {
		where = append(where, "v.owner_id = ?")
		args = append(args, q.OwnerID)
	}
	if !q.IncludeUnpublished {
		where = append(where, "v.is_published = 1")
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		// LIKE is case-insensitive for ASCII in SQLite.
		pattern := "%" + escapeLike(s) + "%"
		where = append(where, `(v.title LIKE ? ESCAPE '\' OR v.description LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM videos v`+whereSQL, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting videos: %w", err)
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = sortColumns[model.VideoSortCreatedAt]
	}
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	page, limit := model.NormalizePage(q.Page, q.Limit)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+videoColumns+videoFrom+whereSQL+
			` ORDER BY `+col+` `+dir+`, v.id `+dir+` LIMIT ? OFFSET ?`,
		append(args, limit, model.Offset(page, limit))...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing videos: %w", err)
	}
	defer rows.Close()

	videos := []model.Video{}
	for rows.Next() {
		var v model.Video
		if err := scanVideoInto(rows, &v); err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating videos: %w", err)
	}
	return videos, total, nil
}

// UpdateVideo writes title, description and thumbnail.
func (db *DB) UpdateVideo(ctx context.Context, v *model.Video) error {
	v.UpdatedAt = now()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE videos SET title = ?, description = ?, thumbnail_url = ?, thumbnail_key = ?, updated_at = ?
		 WHERE id = ?`,
		v.Title, v.Description, v.ThumbnailURL, v.ThumbnailKey, v.UpdatedAt, v.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating video %s: %w", v.ID, err)
	}
	return expectOne(res, "video", v.ID)
}

func (db *DB) SetVideoPublished(ctx context.Context, id string, published bool) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE videos SET is_published = ?, updated_at = ? WHERE id = ?`,
		published, now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: publishing video %s: %w", id, err)
	}
	return expectOne(res, "video", id)
}

func (db *DB) IncrementViews(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE videos SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: counting view of %s: %w", id, err)
	}
	return expectOne(res, "video", id)
}

// DeleteVideo removes the row; likes, comments, history and playlist
// entries go with it through ON DELETE CASCADE.
func (db *DB) DeleteVideo(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting video %s: %w", id, err)
	}
	return expectOne(res, "video", id)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
