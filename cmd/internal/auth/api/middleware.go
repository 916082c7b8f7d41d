package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"sociofeed/cmd/internal/auth/session"
	"sociofeed/cmd/security/token"
)

type contextKey uint8

const claimsContextKey contextKey = iota

// ClaimsFromContext extracts the verified access claims set by VerifyRequest.
func ClaimsFromContext(ctx context.Context) (session.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(session.Claims)
	return claims, ok
}

// freshAccess is the result of one rotation, shared with the gate's waiters so
// each waiter's response can carry the same newly issued credential.
type freshAccess struct {
	token string
	exp   time.Time
}

// sessionFlight is the per-refresh-credential gate plus the latest rotation
// result for waiters to pick up after the leader's drain.
type sessionFlight struct {
	gate  *session.RefreshGate
	mu    sync.Mutex
	fresh freshAccess
	ok    bool
}

// Middleware authenticates HTTP requests from the credential cookies and
// transparently rotates expired access credentials.
//
// Concurrency model: rotations are single-flight per refresh credential. The
// first request arriving with an expired access credential becomes the leader
// and performs the rotation; requests for the same session arriving mid-flight
// wait and then reuse the leader's result. Sessions of different users never
// contend with each other.
type Middleware struct {
	log      *slog.Logger
	cfg      Config
	sessions *session.Service
	cookies  webCookies

	mu      sync.Mutex
	flights map[string]*sessionFlight // refresh credential hash -> flight
}

// NewMiddleware constructs the auth middleware.
func NewMiddleware(log *slog.Logger, cfg Config, sessions *session.Service) *Middleware {
	if log == nil {
		log = slog.Default()
	}
	return &Middleware{
		log:      log,
		cfg:      cfg,
		sessions: sessions,
		cookies:  webCookies{cfg: cfg},
		flights:  make(map[string]*sessionFlight),
	}
}

// VerifyRequest wraps next with cookie authentication.
//
// Outcomes:
//   - valid access credential: next runs with claims in context.
//   - expired (or absent) access credential with a refresh credential:
//     rotation through the per-session gate; on success next runs and the
//     response re-sets the access cookie.
//   - anything else: every credential cookie is cleared and 401 is returned,
//     so a broken session never wedges the client in a refresh loop.
func (m *Middleware) VerifyRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()

		if r.Body != nil && m.cfg.MaxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, m.cfg.MaxBodyBytes)
		}

		if access, ok := m.cookies.value(r, AccessCookieName); ok {
			claims, err := m.sessions.VerifyAccess(access, now)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsContextKey, claims)))
				return
			}
			if !errors.Is(err, session.ErrTokenExpired) {
				// Tampered or foreign credential. Not recoverable by refresh.
				m.reject(w)
				return
			}
		}

		refresh, ok := m.cookies.value(r, RefreshCookieName)
		if !ok {
			m.reject(w)
			return
		}

		key := token.HashRefreshTokenHex(refresh)
		flight := m.flight(key)

		leader, err := flight.gate.Do(r.Context(), func() error {
			issued, rerr := m.sessions.Rotate(r.Context(), refresh, now)
			if rerr != nil {
				return rerr
			}
			flight.mu.Lock()
			flight.fresh = freshAccess{token: issued.AccessToken, exp: issued.AccessExp}
			flight.ok = true
			flight.mu.Unlock()
			return nil
		})
		if err != nil {
			if leader {
				// Rotation failures invalidate the whole session: drop the
				// durable record so later attempts fail fast, and forget the
				// flight.
				_ = m.sessions.Revoke(r.Context(), refresh)
				m.dropFlight(key)
				m.log.Info("auth.middleware.rotate.fail", "err", err)
			}
			m.reject(w)
			return
		}

		flight.mu.Lock()
		fresh, ok := flight.fresh, flight.ok
		flight.mu.Unlock()
		if !ok {
			m.reject(w)
			return
		}

		// Re-verify against the newly issued credential. Leader and waiters
		// take the same path so a defective rotation result cannot slip
		// through.
		claims, err := m.sessions.VerifyAccess(fresh.token, now)
		if err != nil {
			m.reject(w)
			return
		}

		m.cookies.setAccess(w, fresh.token, fresh.exp)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsContextKey, claims)))
	})
}

// flight returns the gate for one refresh credential, creating it on first
// use. Stale flights are pruned opportunistically.
func (m *Middleware) flight(key string) *sessionFlight {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for k, f := range m.flights {
		if k == key {
			continue
		}
		f.mu.Lock()
		stale := f.ok && !f.fresh.exp.After(now)
		f.mu.Unlock()
		if stale && !f.gate.Refreshing() {
			delete(m.flights, k)
		}
	}

	f := m.flights[key]
	if f == nil {
		f = &sessionFlight{gate: session.NewRefreshGate()}
		m.flights[key] = f
	}
	return f
}

func (m *Middleware) dropFlight(key string) {
	m.mu.Lock()
	delete(m.flights, key)
	m.mu.Unlock()
}

func (m *Middleware) reject(w http.ResponseWriter) {
	m.cookies.clearSession(w)
	writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
}
