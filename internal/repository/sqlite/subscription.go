package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

var _ repository.SubscriptionRepository = (*DB)(nil)

// ToggleSubscription subscribes or unsubscribes in one transaction.
func (db *DB) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	var subscribed bool
	err := db.withTx(ctx, func(tx dbtx) error {
		var id string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM subscriptions WHERE subscriber_id = ? AND channel_id = ?`,
			subscriberID, channelID,
		).Scan(&id)
		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id); err != nil {
				return fmt.Errorf("sqlite: unsubscribing: %w", err)
			}
			subscribed = false
			return nil
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at) VALUES (?, ?, ?, ?)`,
				xid.New().String(), subscriberID, channelID, now(),
			); err != nil {
				return fmt.Errorf("sqlite: subscribing: %w", err)
			}
			subscribed = true
			return nil
		default:
			return fmt.Errorf("sqlite: looking up subscription: %w", err)
		}
	})
	return subscribed, err
}

// ListSubscribers returns a channel's subscribers, newest first, each
// flagged with whether the channel subscribes back.
func (db *DB) ListSubscribers(ctx context.Context, channelID string) ([]model.Subscriber, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.username, u.full_name, u.avatar_url, s.created_at,
			EXISTS (SELECT 1 FROM subscriptions b
			        WHERE b.subscriber_id = s.channel_id AND b.channel_id = s.subscriber_id)
		 FROM subscriptions s JOIN users u ON u.id = s.subscriber_id
		 WHERE s.channel_id = ?
		 ORDER BY s.created_at DESC, s.id DESC`,
		channelID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing subscribers: %w", err)
	}
	defer rows.Close()

	subs := []model.Subscriber{}
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Username, &s.FullName, &s.AvatarURL,
			&s.SubscribedAt, &s.SubscribedToSubscriber); err != nil {
			return nil, fmt.Errorf("sqlite: scanning subscriber: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// ListSubscribedChannels returns the channels a user follows, newest first.
func (db *DB) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]model.SubscribedChannel, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.username, u.full_name, u.avatar_url, s.created_at
		 FROM subscriptions s JOIN users u ON u.id = s.channel_id
		 WHERE s.subscriber_id = ?
		 ORDER BY s.created_at DESC, s.id DESC`,
		subscriberID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing subscribed channels: %w", err)
	}
	defer rows.Close()

	channels := []model.SubscribedChannel{}
	for rows.Next() {
		var c model.SubscribedChannel
		if err := rows.Scan(&c.ID, &c.Username, &c.FullName, &c.AvatarURL, &c.SubscribedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning channel: %w", err)
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}
