// Package app wires the SocioFeed server runtime: config, logging, HTTP
// routes, the realtime gateway and the notification engine.
//
// It is intentionally small and deterministic to keep CI gates strict and behavior predictable.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sociofeed/cmd/identity"
	authapi "sociofeed/cmd/internal/auth/api"
	"sociofeed/cmd/internal/auth/session"
	"sociofeed/cmd/internal/notify"
	notifyapi "sociofeed/cmd/internal/notify/api"
	"sociofeed/cmd/internal/realtime"
	"sociofeed/cmd/internal/social"
	"sociofeed/cmd/security/token"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a small app-level lifecycle abstraction.
// It exists to allow DB-backed resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// nopStore is used for in-memory store mode.
type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

// stores groups the per-domain persistence surfaces behind one wiring seam so
// memory and Postgres mode plug in identically.
type stores struct {
	sessions session.Store
	users    identity.Directory
	notifs   notify.Store
	chats    realtime.ChatStore
	social   social.Store
}

// App is the SocioFeed server runtime: it owns HTTP server wiring and the
// realtime gateway dependencies.
type App struct {
	cfg Config
	log Logger

	store Store

	dbPool    *pgxpool.Pool
	dbEnabled bool

	sessions *session.Service
	authMW   *authapi.Middleware
	auth     *authapi.Handler
	notifAPI *notifyapi.Handler

	hub    *realtime.Hub
	router *realtime.Router
	ws     *realtime.WSGateway

	notifier *notify.Engine
	social   *social.Service
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	if cfg.RequireTokenHMAC {
		if _, err := token.HMACKeyFromEnv(32); err != nil {
			return nil, err
		}
	}

	st, dbPool, dbEnabled, s, err := newStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	tokens, err := session.NewHS256Manager(sessCfg)
	if err != nil {
		return nil, err
	}
	sessions := session.NewService(sessCfg, s.sessions, tokens, s.users)

	hub := realtime.NewHub(log)
	notifier := notify.NewEngine(log, s.notifs, hub)
	router := realtime.NewRouter(log, s.chats, hub, notifier)
	socialSvc := social.NewService(log, s.social, notifier)

	authCfg := authapi.LoadConfigFromEnv()
	authMW := authapi.NewMiddleware(log, authCfg, sessions)
	authHandler, err := authapi.NewHandler(log, authCfg, sessions, s.users)
	if err != nil {
		return nil, err
	}
	notifHandler, err := notifyapi.NewHandler(log, s.notifs)
	if err != nil {
		return nil, err
	}

	ws := realtime.NewWSGateway(log, hub, router, sessions)

	return &App{
		cfg:       cfg,
		log:       log,
		store:     st,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		sessions:  sessions,
		authMW:    authMW,
		auth:      authHandler,
		notifAPI:  notifHandler,
		hub:       hub,
		router:    router,
		ws:        ws,
		notifier:  notifier,
		social:    socialSvc,
	}, nil
}

// SocialService exposes the social graph service for API layers built on top.
func (a *App) SocialService() *social.Service {
	if a == nil {
		return nil
	}
	return a.social
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()

	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.ws, a.auth, a.notifAPI, a.authMW)

	handler := WithRequestLogging(mux, a.log)
	handler = WithCORS(handler, a.cfg, a.log)
	handler = WithSecurityHeaders(handler)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	// Close store resources (pool etc).
	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between Postgres-backed persistence and the in-memory dev
// stores. Every domain store comes from the same mode; mixing is not
// supported.
func newStore(ctx context.Context, cfg Config, log Logger) (Store, *pgxpool.Pool, bool, stores, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")

		notifMem := notify.NewMemoryStore()
		return nopStore{}, nil, false, stores{
			sessions: session.NewMemoryStore(),
			users:    identity.NewMemoryDirectory(),
			notifs:   notifMem,
			chats:    realtime.NewMemoryChatStore(),
			social:   social.NewMemoryStore(notifMem),
		}, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, stores{}, err
	}

	log.Info("db.enabled.postgres_store")

	// Ownership model: app owns the pool lifecycle; the domain stores hold a
	// reference and never close it.
	users, err := identity.NewPostgresDirectory(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, stores{}, err
	}
	notifs, err := notify.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, stores{}, err
	}
	chats, err := realtime.NewPostgresChatStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, stores{}, err
	}
	socialStore, err := social.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, stores{}, err
	}

	return dbStore{pool: pool}, pool, true, stores{
		sessions: session.NewPostgresStore(pool),
		users:    users,
		notifs:   notifs,
		chats:    chats,
		social:   socialStore,
	}, nil
}

type dbStore struct {
	pool *pgxpool.Pool
}

func (s dbStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
