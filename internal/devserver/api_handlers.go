package devserver

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adscity/dashboard/internal/httputil"
)

// profilePayload is the wire shape of GET /api/users/me.
type profilePayload struct {
	UID                string   `json:"uid"`
	Email              string   `json:"email"`
	Role               string   `json:"role"`
	DisplayName        string   `json:"displayName,omitempty"`
	City               string   `json:"city,omitempty"`
	Country            string   `json:"country,omitempty"`
	ProfilURL          string   `json:"profilURL,omitempty"`
	VerificationStatus string   `json:"verificationStatus,omitempty"`
	AdsSaved           []string `json:"adsSaved,omitempty"`
	IsOnline           bool     `json:"isOnline"`
}

func toProfile(u *User) profilePayload {
	return profilePayload{
		UID:                u.UID,
		Email:              u.Email,
		Role:               u.Role,
		DisplayName:        u.DisplayName,
		City:               u.City,
		Country:            u.Country,
		ProfilURL:          u.ProfilURL,
		VerificationStatus: u.VerificationStatus,
		AdsSaved:           u.AdsSaved,
		IsOnline:           u.Online,
	}
}

// requireSelf rejects requests whose claimed user does not match the
// authenticated token. Clients may only touch their own records, no
// matter whose ID they put in the body or the URL.
func requireSelf(w http.ResponseWriter, r *http.Request, userID string) bool {
	uid, ok := GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return false
	}
	if userID != uid {
		httputil.Error(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}
	user, err := h.store.UserByUID(uid)
	if err != nil {
		httputil.Error(w, http.StatusUnauthorized, "unknown user")
		return
	}
	httputil.Success(w, "", toProfile(user))
}

// Status updates the user's presence flag.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"userID"`
		IsOnline  bool   `json:"isOnline"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !requireSelf(w, r, req.UserID) {
		return
	}
	if err := h.store.SetOnline(req.UserID, req.IsOnline, timeNow()); err != nil {
		httputil.Error(w, http.StatusNotFound, "unknown user")
		return
	}
	httputil.Success(w, "status updated", nil)
}

// Notifications returns the user's unread feed.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if !requireSelf(w, r, userID) {
		return
	}
	unread := h.store.UnreadNotifications(userID)
	httputil.Success(w, "", map[string]any{"unReadNotifs": unread})
}

// MarkNotificationRead flags one notification as read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	notifID := chi.URLParam(r, "notifID")
	if !requireSelf(w, r, userID) {
		return
	}
	if err := h.store.MarkNotificationRead(userID, notifID); err != nil {
		httputil.Error(w, http.StatusNotFound, "unknown notification")
		return
	}
	httputil.Success(w, "notification read", nil)
}

// ToggleFavorite flips a post in the user's saved ads.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userID"`
		PostID string `json:"postID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !requireSelf(w, r, req.UserID) {
		return
	}
	saved, err := h.store.ToggleFavorite(req.UserID, req.PostID)
	if err != nil {
		httputil.Error(w, http.StatusNotFound, "unknown user")
		return
	}
	httputil.Success(w, "", map[string]any{"adsSaved": saved})
}

// Payments returns the user's payment records. The dev stack has none.
func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	if !requireSelf(w, r, chi.URLParam(r, "userID")) {
		return
	}
	httputil.Success(w, "", []any{})
}

// FetchPost returns one post.
func (h *Handler) FetchPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.store.PostByID(chi.URLParam(r, "postID"))
	if err != nil {
		httputil.Error(w, http.StatusNotFound, "unknown post")
		return
	}
	httputil.Success(w, "", post)
}

// UpdatePost applies edits on behalf of the post's owner.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UpdatedData struct {
			Title    string `json:"title"`
			Category string `json:"category"`
		} `json:"updatedData"`
		UserID string `json:"userID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !requireSelf(w, r, req.UserID) {
		return
	}
	if err := h.store.UpdatePost(chi.URLParam(r, "postID"), req.UserID, req.UpdatedData.Title, req.UpdatedData.Category); err != nil {
		httputil.Error(w, http.StatusNotFound, "unknown post")
		return
	}
	httputil.Success(w, "post updated", nil)
}

// DeletePost removes the owner's post.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !requireSelf(w, r, req.UserID) {
		return
	}
	if err := h.store.DeletePost(chi.URLParam(r, "postID"), req.UserID); err != nil {
		httputil.Error(w, http.StatusNotFound, "unknown post")
		return
	}
	httputil.Success(w, "post deleted", nil)
}

// MarkSold flags the owner's post as sold.
func (h *Handler) MarkSold(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !requireSelf(w, r, req.UserID) {
		return
	}
	if err := h.store.MarkSold(chi.URLParam(r, "postID"), req.UserID); err != nil {
		httputil.Error(w, http.StatusNotFound, "unknown post")
		return
	}
	httputil.Success(w, "post marked as sold", nil)
}

// ReportPost records an abuse report. The dev stack just acknowledges.
func (h *Handler) ReportPost(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.PostByID(chi.URLParam(r, "postID")); err != nil {
		httputil.Error(w, http.StatusNotFound, "unknown post")
		return
	}
	httputil.Success(w, "report received", nil)
}

// ViewCount returns a post's engagement counters.
func (h *Handler) ViewCount(w http.ResponseWriter, r *http.Request) {
	post, err := h.store.PostByID(chi.URLParam(r, "postID"))
	if err != nil {
		httputil.Error(w, http.StatusNotFound, "unknown post")
		return
	}
	httputil.Success(w, "", map[string]int{
		"views":  post.Views,
		"clicks": post.Clicks,
		"shares": post.Shares,
	})
}

// Increment bumps one engagement counter.
func (h *Handler) Increment(w http.ResponseWriter, r *http.Request) {
	metric := chi.URLParam(r, "metric")
	if _, err := h.store.Increment(chi.URLParam(r, "postID"), metric); err != nil {
		httputil.Error(w, http.StatusNotFound, "unknown post or metric")
		return
	}
	httputil.Success(w, "counter updated", nil)
}

// UploadImage accepts a post image and returns a fake CDN URL.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "image")
}

// UploadProfilePhoto accepts an avatar and returns a fake CDN URL.
func (h *Handler) UploadProfilePhoto(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "profilURL")
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, field string) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	_, header, err := r.FormFile(field)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "missing file")
		return
	}

	url := "https://cdn.adscity.net/dev/" + uuid.NewString() + filepath.Ext(header.Filename)
	httputil.Success(w, "uploaded", map[string]string{"url": url})
}
