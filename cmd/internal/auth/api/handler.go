package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"sociofeed/cmd/identity"
	"sociofeed/cmd/internal/auth/session"
)

// Handler wires the HTTP credential endpoints to the session service.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	sessions *session.Service
	users    identity.Directory
	cookies  webCookies
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, sessions *session.Service, users identity.Directory) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if sessions == nil {
		return nil, errors.New("auth: nil session service")
	}
	if users == nil {
		return nil, errors.New("auth: nil user directory")
	}
	return &Handler{
		log:      log,
		cfg:      cfg,
		sessions: sessions,
		users:    users,
		cookies:  webCookies{cfg: cfg},
	}, nil
}

// Register wires auth routes onto the provided mux. Routes that require an
// authenticated caller are wrapped with mw.VerifyRequest.
func (h *Handler) Register(mux *http.ServeMux, mw *Middleware) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/refresh", h.handleRefresh)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	if mw != nil {
		mux.Handle("/auth/logout_all", mw.VerifyRequest(http.HandlerFunc(h.handleLogoutAll)))
		mux.Handle("/me", mw.VerifyRequest(http.HandlerFunc(h.handleMe)))
	}
}

// ---- handlers ----

// handleRefresh is the explicit rotation endpoint. The refresh credential is
// reused, not re-issued; only the access cookie changes value.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	refresh, ok := h.cookies.value(r, RefreshCookieName)
	if !ok {
		h.cookies.clearSession(w)
		writeError(w, http.StatusUnauthorized, "no_session", "no refresh credential")
		return
	}

	ctx := r.Context()
	now := time.Now().UTC()

	issued, err := h.sessions.Rotate(ctx, refresh, now)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidToken),
			errors.Is(err, session.ErrSessionNotFound),
			errors.Is(err, session.ErrSessionExpired),
			errors.Is(err, session.ErrUserNotFound):
			_ = h.sessions.Revoke(ctx, refresh)
			h.cookies.clearSession(w)
			writeError(w, http.StatusUnauthorized, "session_not_active", "session not active")
		default:
			h.log.Error("auth.refresh.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	h.cookies.setSession(w, issued.AccessToken, issued.AccessExp, issued.RefreshToken, issued.RefreshExp)
	writeJSON(w, http.StatusOK, refreshResponse{
		AccessExpiresAt:  issued.AccessExp,
		RefreshExpiresAt: issued.RefreshExp,
		User:             toUserResponse(issued.User),
	})
}

// handleLogout revokes the presented refresh credential and clears cookies.
// Logging out an already dead session still succeeds.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	if refresh, ok := h.cookies.value(r, RefreshCookieName); ok {
		if err := h.sessions.Revoke(ctx, refresh); err != nil {
			h.log.Error("auth.logout.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
			return
		}
	}

	h.cookies.clearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleLogoutAll revokes every session of the authenticated user.
func (h *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	if err := h.sessions.RevokeAllForUser(r.Context(), claims.UserID); err != nil {
		h.log.Error("auth.logout_all.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.cookies.clearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	u, err := h.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if identity.IsNotFound(err) {
			h.cookies.clearSession(w)
			writeError(w, http.StatusUnauthorized, "user_gone", "user no longer exists")
			return
		}
		h.log.Error("auth.me.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{User: toUserResponse(u)})
}
