package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/service"
)

// PlaylistHandler serves /playlists.
type PlaylistHandler struct {
	playlists *service.PlaylistService
	logger    *slog.Logger
}

func NewPlaylistHandler(playlists *service.PlaylistService, logger *slog.Logger) *PlaylistHandler {
	return &PlaylistHandler{playlists: playlists, logger: logger}
}

type createPlaylistRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type updatePlaylistRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// HTTP: POST /api/v1/playlists
func (h *PlaylistHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	playlist, err := h.playlists.CreatePlaylist(r.Context(), currentUserID(r), req.Name, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, playlist)
}

// HTTP: GET /api/v1/playlists/user/{userId}
func (h *PlaylistHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.playlists.GetUserPlaylists(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

// HTTP: GET /api/v1/playlists/{playlistId}
func (h *PlaylistHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	playlistID, err := idParam(r, "playlistId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := h.playlists.GetPlaylist(r.Context(), playlistID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, detail)
}

// HTTP: PATCH /api/v1/playlists/{playlistId}
func (h *PlaylistHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	playlistID, err := idParam(r, "playlistId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updatePlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == nil && req.Description == nil {
		writeError(w, r, apperror.ValidationFailed("", "provide a name or description to update"))
		return
	}
	playlist, err := h.playlists.UpdatePlaylist(r.Context(), currentUserID(r), playlistID, req.Name, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, playlist)
}

// HTTP: DELETE /api/v1/playlists/{playlistId}
func (h *PlaylistHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	playlistID, err := idParam(r, "playlistId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.playlists.DeletePlaylist(r.Context(), currentUserID(r), playlistID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, MessageResponse{Message: "playlist deleted"})
}

// HTTP: PATCH /api/v1/playlists/add/{videoId}/{playlistId}
func (h *PlaylistHandler) HandleAddVideo(w http.ResponseWriter, r *http.Request) {
	videoID, playlistID, err := videoAndPlaylist(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := h.playlists.AddVideoToPlaylist(r.Context(), currentUserID(r), videoID, playlistID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, detail)
}

// HTTP: PATCH /api/v1/playlists/remove/{videoId}/{playlistId}
func (h *PlaylistHandler) HandleRemoveVideo(w http.ResponseWriter, r *http.Request) {
	videoID, playlistID, err := videoAndPlaylist(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	detail, err := h.playlists.RemoveVideoFromPlaylist(r.Context(), currentUserID(r), videoID, playlistID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, detail)
}

func videoAndPlaylist(r *http.Request) (string, string, error) {
	videoID, err := idParam(r, "videoId")
	if err != nil {
		return "", "", err
	}
	playlistID, err := idParam(r, "playlistId")
	if err != nil {
		return "", "", err
	}
	return videoID, playlistID, nil
}
