package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

var _ repository.CommentRepository = (*DB)(nil)

// Owners are LEFT JOINed: a comment outlives its author's account and is
// then shown as written by model.DeletedUserName.
const commentSelect = `SELECT c.id, c.video_id, c.owner_id, c.content, c.created_at, c.updated_at,
	o.id, o.username, o.full_name, o.avatar_url
	FROM comments c LEFT JOIN users o ON o.id = c.owner_id`

func scanComment(row rowScanner) (*model.Comment, error) {
	var (
		c                                     model.Comment
		ownerID                               sql.NullString
		oID, oUsername, oFullName, oAvatarURL sql.NullString
	)
	err := row.Scan(&c.ID, &c.VideoID, &ownerID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
		&oID, &oUsername, &oFullName, &oAvatarURL)
	if err != nil {
		return nil, err
	}
	c.OwnerID = ownerID.String
	if oID.Valid {
		c.Owner = &model.UserSummary{ID: oID.String, Username: oUsername.String, FullName: oFullName.String, AvatarURL: oAvatarURL.String}
	} else {
		c.Owner = &model.UserSummary{Username: model.DeletedUserName}
	}
	return &c, nil
}

func (db *DB) CreateComment(ctx context.Context, c *model.Comment) error {
	c.ID = xid.New().String()
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.VideoID, c.OwnerID, c.Content, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting comment: %w", err)
	}
	return nil
}

func (db *DB) GetCommentByID(ctx context.Context, id string) (*model.Comment, error) {
	c, err := scanComment(db.conn.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "comment", id)
	}
	return c, nil
}

// ListComments pages through a video's comments, newest first.
func (db *DB) ListComments(ctx context.Context, videoID string, page, limit int) ([]model.Comment, int, error) {
	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE video_id = ?`, videoID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlite: counting comments: %w", err)
	}

	page, limit = model.NormalizePage(page, limit)
	rows, err := db.conn.QueryContext(ctx,
		commentSelect+` WHERE c.video_id = ? ORDER BY c.created_at DESC, c.id DESC LIMIT ? OFFSET ?`,
		videoID, limit, model.Offset(page, limit),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlite: listing comments: %w", err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlite: scanning comment: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return comments, total, nil
}

func (db *DB) UpdateComment(ctx context.Context, id, content string) (*model.Comment, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`, content, now(), id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating comment %s: %w", id, err)
	}
	if err := expectOne(res, "comment", id); err != nil {
		return nil, err
	}
	return db.GetCommentByID(ctx, id)
}

func (db *DB) DeleteComment(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting comment %s: %w", id, err)
	}
	return expectOne(res, "comment", id)
}
