package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/videotube/internal/service"
)

// LikeHandler serves /likes.
type LikeHandler struct {
	likes  *service.LikeService
	logger *slog.Logger
}

func NewLikeHandler(likes *service.LikeService, logger *slog.Logger) *LikeHandler {
	return &LikeHandler{likes: likes, logger: logger}
}

// LikeResponse reports the state after a toggle.
type LikeResponse struct {
	Liked bool `json:"liked"`
}

// HTTP: POST /api/v1/likes/toggle/v/{videoId}
func (h *LikeHandler) HandleToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "videoId", h.likes.ToggleVideoLike)
}

// HTTP: POST /api/v1/likes/toggle/c/{commentId}
func (h *LikeHandler) HandleToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "commentId", h.likes.ToggleCommentLike)
}

// HTTP: POST /api/v1/likes/toggle/t/{tweetId}
func (h *LikeHandler) HandleToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, "tweetId", h.likes.ToggleTweetLike)
}

// toggle answers 201 when a like was created and 200 when one was removed.
func (h *LikeHandler) toggle(
	w http.ResponseWriter,
	r *http.Request,
	param string,
	fn func(ctx context.Context, userID, targetID string) (bool, error),
) {
	targetID, err := idParam(r, param)
	if err != nil {
		writeError(w, r, err)
		return
	}
	liked, err := fn(r.Context(), currentUserID(r), targetID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if liked {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, LikeResponse{Liked: liked})
}

// HTTP: GET /api/v1/likes/videos
func (h *LikeHandler) HandleLikedVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.likes.GetLikedVideos(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, videos)
}
