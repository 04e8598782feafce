package sqlite

import (
	"context"

	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

var _ repository.DashboardRepository = (*DB)(nil)

// GetChannelStats aggregates a channel's subscribers, videos, views and the
// likes its videos received.
func (db *DB) GetChannelStats(ctx context.Context, userID string) (*model.ChannelStats, error) {
	var s model.ChannelStats
	err := db.conn.QueryRowContext(ctx,
		`SELECT u.id, u.username, u.full_name, u.avatar_url,
			(SELECT COUNT(*) FROM subscriptions WHERE channel_id = u.id),
			(SELECT COUNT(*) FROM videos WHERE owner_id = u.id),
			(SELECT COALESCE(SUM(views), 0) FROM videos WHERE owner_id = u.id),
			(SELECT COUNT(*) FROM likes l JOIN videos v ON v.id = l.video_id WHERE v.owner_id = u.id)
		 FROM users u WHERE u.id = ?`,
		userID,
	).Scan(&s.Channel.ID, &s.Channel.Username, &s.Channel.FullName, &s.Channel.AvatarURL,
		&s.TotalSubscribers, &s.TotalVideos, &s.TotalViews, &s.TotalLikes)
	if err != nil {
		return nil, notFoundOr(err, "user", userID)
	}
	return &s, nil
}
