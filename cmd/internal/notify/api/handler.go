// Package notifyapi exposes the notification inbox over HTTP: listing,
// unread counts, mark-all-read, and per-category preference management.
// Every endpoint requires an authenticated session.
package notifyapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	authapi "sociofeed/cmd/internal/auth/api"
	"sociofeed/cmd/internal/notify"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Handler serves the notification HTTP endpoints.
type Handler struct {
	log   *slog.Logger
	store notify.Store
}

// NewHandler constructs the notifications API handler.
func NewHandler(log *slog.Logger, store notify.Store) (*Handler, error) {
	if store == nil {
		return nil, errors.New("notifyapi: nil store")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, store: store}, nil
}

// Register mounts the endpoints on mux, all behind the auth middleware.
func (h *Handler) Register(mux *http.ServeMux, mw *authapi.Middleware) {
	mux.Handle("/notifications", mw.VerifyRequest(http.HandlerFunc(h.handleList)))
	mux.Handle("/notifications/unread_count", mw.VerifyRequest(http.HandlerFunc(h.handleUnreadCount)))
	mux.Handle("/notifications/read_all", mw.VerifyRequest(http.HandlerFunc(h.handleReadAll)))
	mux.Handle("/notifications/preferences", mw.VerifyRequest(http.HandlerFunc(h.handlePreferences)))
}

type notificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	ActorID   string    `json:"actor_id,omitempty"`
	PostID    string    `json:"post_id,omitempty"`
	CommentID string    `json:"comment_id,omitempty"`
	GroupID   string    `json:"group_id,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

type listResponse struct {
	Notifications []notificationResponse `json:"notifications"`
}

type unreadCountResponse struct {
	Count int64 `json:"count"`
}

type preferencesBody struct {
	NotifyOnNewFollower   bool `json:"notify_on_new_follower"`
	NotifyOnPostLike      bool `json:"notify_on_post_like"`
	NotifyOnPostComment   bool `json:"notify_on_post_comment"`
	NotifyOnCommentLike   bool `json:"notify_on_comment_like"`
	NotifyOnGroupMessage  bool `json:"notify_on_group_message"`
	NotifyOnDirectMessage bool `json:"notify_on_direct_message"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	claims, ok := authapi.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		limit = n
	}

	items, err := h.store.ListForUser(r.Context(), claims.UserID, limit)
	if err != nil {
		h.log.Error("notify.api.list.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not list notifications")
		return
	}

	out := listResponse{Notifications: make([]notificationResponse, 0, len(items))}
	for _, n := range items {
		out.Notifications = append(out.Notifications, notificationResponse{
			ID:        n.ID,
			Type:      string(n.Type),
			ActorID:   n.ActorID,
			PostID:    n.PostID,
			CommentID: n.CommentID,
			GroupID:   n.GroupID,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	claims, ok := authapi.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	count, err := h.store.UnreadCount(r.Context(), claims.UserID)
	if err != nil {
		h.log.Error("notify.api.unread_count.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not count notifications")
		return
	}
	writeJSON(w, http.StatusOK, unreadCountResponse{Count: count})
}

func (h *Handler) handleReadAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}
	claims, ok := authapi.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	if err := h.store.MarkAllRead(r.Context(), claims.UserID); err != nil {
		h.log.Error("notify.api.read_all.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not mark notifications read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePreferences(w http.ResponseWriter, r *http.Request) {
	claims, ok := authapi.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		prefs, found, err := h.store.GetPreferences(r.Context(), claims.UserID)
		if err != nil {
			h.log.Error("notify.api.preferences.get.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal", "could not load preferences")
			return
		}
		if !found {
			prefs = notify.DefaultPreferences(claims.UserID)
		}
		writeJSON(w, http.StatusOK, toPreferencesBody(prefs))

	case http.MethodPut:
		var body preferencesBody
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", "malformed preferences payload")
			return
		}

		prefs := notify.Preferences{
			UserID:                claims.UserID,
			NotifyOnNewFollower:   body.NotifyOnNewFollower,
			NotifyOnPostLike:      body.NotifyOnPostLike,
			NotifyOnPostComment:   body.NotifyOnPostComment,
			NotifyOnCommentLike:   body.NotifyOnCommentLike,
			NotifyOnGroupMessage:  body.NotifyOnGroupMessage,
			NotifyOnDirectMessage: body.NotifyOnDirectMessage,
		}
		if err := h.store.UpsertPreferences(r.Context(), prefs); err != nil {
			h.log.Error("notify.api.preferences.put.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal", "could not save preferences")
			return
		}
		writeJSON(w, http.StatusOK, toPreferencesBody(prefs))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET or PUT")
	}
}

func toPreferencesBody(p notify.Preferences) preferencesBody {
	return preferencesBody{
		NotifyOnNewFollower:   p.NotifyOnNewFollower,
		NotifyOnPostLike:      p.NotifyOnPostLike,
		NotifyOnPostComment:   p.NotifyOnPostComment,
		NotifyOnCommentLike:   p.NotifyOnCommentLike,
		NotifyOnGroupMessage:  p.NotifyOnGroupMessage,
		NotifyOnDirectMessage: p.NotifyOnDirectMessage,
	}
}
