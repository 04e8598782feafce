package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/videotube/internal/service"
)

// TweetHandler serves /tweets.
type TweetHandler struct {
	tweets *service.TweetService
	logger *slog.Logger
}

func NewTweetHandler(tweets *service.TweetService, logger *slog.Logger) *TweetHandler {
	return &TweetHandler{tweets: tweets, logger: logger}
}

type tweetRequest struct {
	Content string `json:"content" validate:"required"`
}

// HTTP: POST /api/v1/tweets
func (h *TweetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tweet, err := h.tweets.CreateTweet(r.Context(), currentUserID(r), req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, tweet)
}

// HTTP: GET /api/v1/tweets/user/{userId}
func (h *TweetHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tweets, err := h.tweets.GetUserTweets(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tweets)
}

// HTTP: PATCH /api/v1/tweets/{tweetId}
func (h *TweetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	tweetID, err := idParam(r, "tweetId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tweet, err := h.tweets.UpdateTweet(r.Context(), currentUserID(r), tweetID, req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tweet)
}

// HTTP: DELETE /api/v1/tweets/{tweetId}
func (h *TweetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	tweetID, err := idParam(r, "tweetId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.tweets.DeleteTweet(r.Context(), currentUserID(r), tweetID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, MessageResponse{Message: "tweet deleted"})
}
