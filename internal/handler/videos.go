package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/videotube/internal/apperror"
	"github.com/sakif/videotube/internal/auth"
	"github.com/sakif/videotube/internal/service"
)

// VideoHandler serves /videos.
type VideoHandler struct {
	videos    *service.VideoService
	maxUpload int64
	logger    *slog.Logger
}

func NewVideoHandler(videos *service.VideoService, maxUpload int64, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{videos: videos, maxUpload: maxUpload, logger: logger}
}

// HandleList lists published videos.
//
// HTTP: GET /api/v1/videos?page=&limit=&query=&sortBy=&sortType=
func (h *VideoHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "")
}

// HandleListByOwner lists one channel's videos. The owner also sees their
// unpublished ones.
//
// HTTP: GET /api/v1/videos/user/{userId}
func (h *VideoHandler) HandleListByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID, err := idParam(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.list(w, r, ownerID)
}

func (h *VideoHandler) list(w http.ResponseWriter, r *http.Request, ownerID string) {
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	viewerID, _ := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()

	result, err := h.videos.ListVideos(r.Context(), service.ListVideosInput{
		Query:    q.Get("query"),
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
		Page:     page,
		Limit:    limit,
		OwnerID:  ownerID,
		ViewerID: viewerID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// HandlePublish uploads a video.
//
// HTTP: POST /api/v1/videos
// BODY: multipart/form-data: videoFile, thumbnail, title, description,
// duration (seconds), isPublished (optional, default true).
func (h *VideoHandler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxUpload); err != nil {
		writeError(w, r, err)
		return
	}

	in := service.PublishVideoInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	var err error
	if in.Duration, err = parseDuration(r.FormValue("duration")); err != nil {
		writeError(w, r, err)
		return
	}
	if in.IsPublished, err = parseOptionalBool("isPublished", formValue(r, "isPublished")); err != nil {
		writeError(w, r, err)
		return
	}
	if in.Video, err = formFile(r, "videoFile"); err != nil {
		writeError(w, r, err)
		return
	}
	defer closeUpload(in.Video)
	if in.Thumbnail, err = formFile(r, "thumbnail"); err != nil {
		writeError(w, r, err)
		return
	}
	defer closeUpload(in.Thumbnail)

	video, err := h.videos.PublishVideo(r.Context(), currentUserID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, video)
}

// HandleGet returns one video and counts the view.
//
// HTTP: GET /api/v1/videos/{videoId}
func (h *VideoHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	videoID, err := idParam(r, "videoId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	viewerID, _ := auth.UserIDFromContext(r.Context())
	video, err := h.videos.GetVideo(r.Context(), videoID, viewerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, video)
}

// HandleUpdate changes title, description or thumbnail. Accepts JSON for
// text-only changes and multipart when a new thumbnail is sent.
//
// HTTP: PATCH /api/v1/videos/{videoId}
func (h *VideoHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	videoID, err := idParam(r, "videoId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var in service.UpdateVideoInput
	if isMultipart(r) {
		if err := parseMultipart(w, r, h.maxUpload); err != nil {
			writeError(w, r, err)
			return
		}
		in.Title = formValue(r, "title")
		in.Description = formValue(r, "description")
		if in.Thumbnail, err = formFile(r, "thumbnail"); err != nil {
			writeError(w, r, err)
			return
		}
		defer closeUpload(in.Thumbnail)
	} else {
		var req struct {
			Title       *string `json:"title"`
			Description *string `json:"description"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		in.Title, in.Description = req.Title, req.Description
	}

	video, err := h.videos.UpdateVideo(r.Context(), currentUserID(r), videoID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, video)
}

// HTTP: DELETE /api/v1/videos/{videoId}
func (h *VideoHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	videoID, err := idParam(r, "videoId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.videos.DeleteVideo(r.Context(), currentUserID(r), videoID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, MessageResponse{Message: "video deleted"})
}

// HTTP: PATCH /api/v1/videos/toggle/publish/{videoId}
func (h *VideoHandler) HandleTogglePublish(w http.ResponseWriter, r *http.Request) {
	videoID, err := idParam(r, "videoId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	video, err := h.videos.TogglePublishStatus(r.Context(), currentUserID(r), videoID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, video)
}

// parseDuration reads the duration form field in seconds. Empty means 0.
func parseDuration(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	d, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, apperror.ValidationFailed("duration", "duration must be a number of seconds")
	}
	return d, nil
}

func parseOptionalBool(field string, v *string) (*bool, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(*v))
	if err != nil {
		return nil, apperror.ValidationFailed(field, field+" must be true or false")
	}
	return &b, nil
}
