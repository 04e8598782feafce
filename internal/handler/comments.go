package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/videotube/internal/service"
)

// CommentHandler serves /comments.
type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

type commentRequest struct {
	Content string `json:"content" validate:"required"`
}

// HTTP: GET /api/v1/comments/{videoId}?page=&limit=
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	videoID, err := idParam(r, "videoId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.comments.ListComments(r.Context(), videoID, currentUserID(r), page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// HTTP: POST /api/v1/comments/{videoId}
func (h *CommentHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	videoID, err := idParam(r, "videoId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	comment, err := h.comments.AddComment(r.Context(), currentUserID(r), videoID, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, comment)
}

// HTTP: PATCH /api/v1/comments/c/{commentId}
func (h *CommentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	commentID, err := idParam(r, "commentId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	comment, err := h.comments.UpdateComment(r.Context(), currentUserID(r), commentID, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, comment)
}

// HTTP: DELETE /api/v1/comments/c/{commentId}
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	commentID, err := idParam(r, "commentId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.comments.DeleteComment(r.Context(), currentUserID(r), commentID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, MessageResponse{Message: "comment deleted"})
}
