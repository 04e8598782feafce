package service

import (
	"context"
	"fmt"

	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

type DashboardService struct {
	stats  repository.DashboardRepository
	videos repository.VideoRepository
	users  repository.UserRepository
}

func NewDashboardService(stats repository.DashboardRepository, videos repository.VideoRepository, users repository.UserRepository) *DashboardService {
	return &DashboardService{stats: stats, videos: videos, users: users}
}

func (s *DashboardService) GetChannelStats(ctx context.Context, userID string) (*model.ChannelStats, error) {
	st, err := s.stats.GetChannelStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: stats of %s: %w", userID, err)
	}
	return st, nil
}

// ChannelVideos is every video of a channel, newest first, published or not.
type ChannelVideos struct {
	VideoInfo struct {
		ChannelName string `json:"channelName"`
		Avatar      string `json:"avatar"`
	} `json:"videoInfo"`
	Videos []model.Video `json:"videos"`
}

func (s *DashboardService) GetChannelVideos(ctx context.Context, userID string) (*ChannelVideos, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/dashboard: loading %s: %w", userID, err)
	}

	out := &ChannelVideos{Videos: []model.Video{}}
	out.VideoInfo.ChannelName = u.Username
	out.VideoInfo.Avatar = u.AvatarURL

	q := model.VideoQuery{
		OwnerID:            userID,
		SortBy:             model.VideoSortCreatedAt,
		SortDesc:           true,
		IncludeUnpublished: true,
		Limit:              model.MaxPageSize,
	}
	for q.Page = 1; ; q.Page++ {
		page, total, err := s.videos.ListVideos(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("service/dashboard: videos of %s: %w", userID, err)
		}
		out.Videos = append(out.Videos, page...)
		if len(page) == 0 || len(out.Videos) >= total {
			break
		}
	}
	return out, nil
}
