package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/videotube/internal/service"
)

// SubscriptionHandler serves /subscriptions.
type SubscriptionHandler struct {
	subs   *service.SubscriptionService
	logger *slog.Logger
}

func NewSubscriptionHandler(subs *service.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs, logger: logger}
}

// SubscriptionResponse reports the state after a toggle.
type SubscriptionResponse struct {
	Subscribed bool `json:"subscribed"`
}

// HTTP: POST /api/v1/subscriptions/c/{channelId}
func (h *SubscriptionHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	channelID, err := idParam(r, "channelId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	subscribed, err := h.subs.ToggleSubscription(r.Context(), currentUserID(r), channelID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if subscribed {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, SubscriptionResponse{Subscribed: subscribed})
}

// HTTP: GET /api/v1/subscriptions/c/{channelId}
func (h *SubscriptionHandler) HandleSubscribers(w http.ResponseWriter, r *http.Request) {
	channelID, err := idParam(r, "channelId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.subs.GetChannelSubscribers(r.Context(), channelID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

// HTTP: GET /api/v1/subscriptions/u/{subscriberId}
func (h *SubscriptionHandler) HandleSubscribedChannels(w http.ResponseWriter, r *http.Request) {
	subscriberID, err := idParam(r, "subscriberId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.subs.GetSubscribedChannels(r.Context(), subscriberID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}
