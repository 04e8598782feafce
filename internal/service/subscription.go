package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

type SubscriptionService struct {
	subs   repository.SubscriptionRepository
	users  repository.UserRepository
	logger *slog.Logger
}

func NewSubscriptionService(subs repository.SubscriptionRepository, users repository.UserRepository, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{subs: subs, users: users, logger: logger}
}

// SubscriberList is a channel's subscribers, newest first.
type SubscriberList struct {
	TotalSubscribers int                `json:"totalSubscribers"`
	Subscribers      []model.Subscriber `json:"subscribers"`
}

// ChannelList is the channels a user subscribes to, newest first.
type ChannelList struct {
	TotalChannels int                       `json:"totalChannels"`
	Channels      []model.SubscribedChannel `json:"channels"`
}

// ToggleSubscription subscribes subscriberID to channelID, or unsubscribes
// if already subscribed. It reports whether the subscription now exists.
func (s *SubscriptionService) ToggleSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, apperror.ValidationFailed("channelId", "you cannot subscribe to your own channel")
	}
	if _, err := s.users.GetUserByID(ctx, channelID); err != nil {
		return false, fmt.Errorf("service/subscription: channel %s: %w", channelID, err)
	}
	subscribed, err := s.subs.ToggleSubscription(ctx, subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("service/subscription: toggling %s: %w", channelID, err)
	}
	s.logger.Info("subscription toggled",
		slog.String("subscriberID", subscriberID),
		slog.String("channelID", channelID),
		slog.Bool("subscribed", subscribed),
	)
	return subscribed, nil
}

func (s *SubscriptionService) GetChannelSubscribers(ctx context.Context, channelID string) (*SubscriberList, error) {
	if _, err := s.users.GetUserByID(ctx, channelID); err != nil {
		return nil, fmt.Errorf("service/subscription: channel %s: %w", channelID, err)
	}
	subs, err := s.subs.ListSubscribers(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("service/subscription: subscribers of %s: %w", channelID, err)
	}
	return &SubscriberList{TotalSubscribers: len(subs), Subscribers: subs}, nil
}

func (s *SubscriptionService) GetSubscribedChannels(ctx context.Context, subscriberID string) (*ChannelList, error) {
	if _, err := s.users.GetUserByID(ctx, subscriberID); err != nil {
		return nil, fmt.Errorf("service/subscription: subscriber %s: %w", subscriberID, err)
	}
	channels, err := s.subs.ListSubscribedChannels(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("service/subscription: channels of %s: %w", subscriberID, err)
	}
	return &ChannelList{TotalChannels: len(channels), Channels: channels}, nil
}
