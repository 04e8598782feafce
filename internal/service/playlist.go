package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/model"
	"github.com/sakif/videotube/internal/repository"
)

type PlaylistService struct {
	playlists repository.PlaylistRepository
	videos    repository.VideoRepository
	users     repository.UserRepository
	logger    *slog.Logger
}

func NewPlaylistService(
	playlists repository.PlaylistRepository,
	videos repository.VideoRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *PlaylistService {
	return &PlaylistService{playlists: playlists, videos: videos, users: users, logger: logger}
}

// PlaylistList is a user's playlists, newest first.
type PlaylistList struct {
	Total     int              `json:"total"`
	Playlists []model.Playlist `json:"playlists"`
}

func (s *PlaylistService) CreatePlaylist(ctx context.Context, userID, name, description string) (*model.Playlist, error) {
	name, err := required("name", name)
	if err != nil {
		return nil, err
	}
	if err := maxLen("name", name, MaxPlaylistName); err != nil {
		return nil, err
	}
	description, err = required("description", description)
	if err != nil {
		return nil, err
	}
	if err := maxLen("description", description, MaxDescriptionLength); err != nil {
		return nil, err
	}

	p := &model.Playlist{OwnerID: userID, Name: name, Description: description}
	if err := s.playlists.CreatePlaylist(ctx, p); err != nil {
		return nil, fmt.Errorf("service/playlist: creating: %w", err)
	}
	s.logger.Info("playlist created", slog.String("playlistID", p.ID), slog.String("ownerID", userID))
	return p, nil
}

func (s *PlaylistService) GetUserPlaylists(ctx context.Context, userID string) (*PlaylistList, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("service/playlist: user %s: %w", userID, err)
	}
	playlists, err := s.playlists.ListPlaylistsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/playlist: listing: %w", err)
	}
	return &PlaylistList{Total: len(playlists), Playlists: playlists}, nil
}

// GetPlaylist returns the playlist with its owner and videos.
func (s *PlaylistService) GetPlaylist(ctx context.Context, playlistID string) (*model.PlaylistDetail, error) {
	d, err := s.playlists.GetPlaylistDetail(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("service/playlist: loading %s: %w", playlistID, err)
	}
	return d, nil
}

// UpdatePlaylist changes name and/or description. Owner only.
func (s *PlaylistService) UpdatePlaylist(ctx context.Context, userID, playlistID string, name, description *string) (*model.Playlist, error) {
	if name == nil && description == nil {
		return nil, apperror.ValidationFailed("", "provide a name or description to update")
	}
	p, err := s.owned(ctx, userID, playlistID, "update this playlist")
	if err != nil {
		return nil, err
	}
	if name != nil {
		v, err := required("name", *name)
		if err != nil {
			return nil, err
		}
		if err := maxLen("name", v, MaxPlaylistName); err != nil {
			return nil, err
		}
		p.Name = v
	}
	if description != nil {
		v, err := required("description", *description)
		if err != nil {
			return nil, err
		}
		if err := maxLen("description", v, MaxDescriptionLength); err != nil {
			return nil, err
		}
		p.Description = v
	}
	if err := s.playlists.UpdatePlaylist(ctx, p); err != nil {
		return nil, fmt.Errorf("service/playlist: updating %s: %w", playlistID, err)
	}
	return p, nil
}

func (s *PlaylistService) DeletePlaylist(ctx context.Context, userID, playlistID string) error {
	if _, err := s.owned(ctx, userID, playlistID, "delete this playlist"); err != nil {
		return err
	}
	if err := s.playlists.DeletePlaylist(ctx, playlistID); err != nil {
		return fmt.Errorf("service/playlist: deleting %s: %w", playlistID, err)
	}
	s.logger.Info("playlist deleted", slog.String("playlistID", playlistID))
	return nil
}

// AddVideoToPlaylist adds a video once; adding it again changes nothing.
// Owner only. The updated playlist is returned either way.
func (s *PlaylistService) AddVideoToPlaylist(ctx context.Context, userID, videoID, playlistID string) (*model.PlaylistDetail, error) {
	if _, err := s.owned(ctx, userID, playlistID, "change this playlist"); err != nil {
		return nil, err
	}
	if _, err := s.videos.GetVideoByID(ctx, videoID); err != nil {
		return nil, fmt.Errorf("service/playlist: video %s: %w", videoID, err)
	}
	added, err := s.playlists.AddVideoToPlaylist(ctx, playlistID, videoID)
	if err != nil {
		return nil, fmt.Errorf("service/playlist: adding %s to %s: %w", videoID, playlistID, err)
	}
	if !added {
		s.logger.Debug("video already in playlist", slog.String("playlistID", playlistID), slog.String("videoID", videoID))
	}
	return s.GetPlaylist(ctx, playlistID)
}

// RemoveVideoFromPlaylist returns NotFound when the video is not in the
// playlist. Owner only.
func (s *PlaylistService) RemoveVideoFromPlaylist(ctx context.Context, userID, videoID, playlistID string) (*model.PlaylistDetail, error) {
	if _, err := s.owned(ctx, userID, playlistID, "change this playlist"); err != nil {
		return nil, err
	}
	if err := s.playlists.RemoveVideoFromPlaylist(ctx, playlistID, videoID); err != nil {
		return nil, fmt.Errorf("service/playlist: removing %s from %s: %w", videoID, playlistID, err)
	}
	return s.GetPlaylist(ctx, playlistID)
}

func (s *PlaylistService) owned(ctx context.Context, userID, playlistID, action string) (*model.Playlist, error) {
	p, err := s.playlists.GetPlaylistByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/playlist: loading %s: %w", playlistID, err)
	}
	if err := mustOwn(p.OwnerID, userID, action); err != nil {
		return nil, err
	}
	return p, nil
}
