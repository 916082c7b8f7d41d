package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"sociofeed/cmd/identity/ids"
	v1 "sociofeed/shared/contracts/realtime/v1"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sociofeed_notifications_created_total",
		Help: "Notifications persisted, by type.",
	}, []string{"type"})

	notificationsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sociofeed_notifications_suppressed_total",
		Help: "Notifications skipped by recipient preference, by type.",
	}, []string{"type"})
)

// Pusher delivers a realtime envelope to every live connection of a user.
// A recipient with no live connection is a silent no-op.
type Pusher interface {
	PushUser(userID string, env v1.Envelope)
}

// Event describes one notification trigger.
//
// ChatID is only set for message events and is forwarded to the client so it
// can focus the right conversation; it plays no role in persistence.
type Event struct {
	Type        Type
	RecipientID string
	ActorID     string

	PostID    string
	CommentID string
	GroupID   string
	ChatID    string
}

// Engine is the notification fan-out engine.
type Engine struct {
	log    *slog.Logger
	store  Store
	pusher Pusher
}

// NewEngine constructs an Engine. pusher may be nil (no realtime delivery,
// e.g. batch backfills); store must not be.
func NewEngine(log *slog.Logger, store Store, pusher Pusher) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{log: log, store: store, pusher: pusher}
}

// Notify runs the full fan-out path for a single recipient:
// self-action check, preference check (default-allow on absent row), atomic
// persist+counter, then realtime push after the transaction has committed.
func (e *Engine) Notify(ctx context.Context, ev Event) error {
	// Self-actions never notify.
	if ev.RecipientID == "" || ev.RecipientID == ev.ActorID {
		return nil
	}

	prefs, found, err := e.store.GetPreferences(ctx, ev.RecipientID)
	if err != nil {
		return err
	}
	if !found {
		prefs = DefaultPreferences(ev.RecipientID)
	}
	if !prefs.Allows(ev.Type) {
		notificationsSuppressed.WithLabelValues(string(ev.Type)).Inc()
		return nil
	}

	stored, err := e.store.CreateNotification(ctx, Notification{
		Type:      ev.Type,
		UserID:    ev.RecipientID,
		ActorID:   ev.ActorID,
		PostID:    ev.PostID,
		CommentID: ev.CommentID,
		GroupID:   ev.GroupID,
	})
	if err != nil {
		return err
	}
	notificationsCreated.WithLabelValues(string(ev.Type)).Inc()

	e.push(stored, ev.ChatID)
	return nil
}

// NotifyEach fans one event out to several recipients, evaluating preferences
// per recipient. Per-recipient failures are logged and do not abort the rest
// of the fan-out; the first error is returned.
func (e *Engine) NotifyEach(ctx context.Context, recipients []string, ev Event) error {
	var firstErr error
	for _, r := range recipients {
		per := ev
		per.RecipientID = r
		if err := e.Notify(ctx, per); err != nil {
			e.log.Error("notify.fanout.fail", "type", string(ev.Type), "recipient", r, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// push happens only after the notification transaction has committed.
func (e *Engine) push(n Notification, chatID string) {
	if e.pusher == nil {
		return
	}

	payload, _ := json.Marshal(v1.NotificationPayload{
		Type:   string(n.Type),
		ChatID: chatID,
	})

	now := time.Now().UTC()
	id, _ := ids.NewULID(now)
	e.pusher.PushUser(n.UserID, v1.Envelope{
		V:       v1.Version,
		Type:    v1.TypeNotification,
		ID:      id,
		TS:      now,
		Payload: payload,
	})

	e.log.Debug("notify.push", "type", string(n.Type), "recipient", n.UserID)
}
