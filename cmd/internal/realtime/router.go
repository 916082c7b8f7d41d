package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"sociofeed/cmd/internal/notify"
	v1 "sociofeed/shared/contracts/realtime/v1"
)

// Broadcaster is the fan-out surface the router needs from the connection
// registry.
type Broadcaster interface {
	BroadcastRoom(roomID string, env v1.Envelope)
}

// Router owns conversation semantics: canonical chat ids, message persistence,
// room broadcasts and notification triggers.
//
// Ordering: for every accepted operation the durable write happens first, then
// the room broadcast, then notification fan-out. A crash between the write and
// the broadcast loses only the realtime echo, never the message.
type Router struct {
	log      *slog.Logger
	store    ChatStore
	hub      Broadcaster
	notifier *notify.Engine
}

// NewRouter constructs a Router. notifier may be nil (no notification fan-out).
func NewRouter(log *slog.Logger, store ChatStore, hub Broadcaster, notifier *notify.Engine) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{log: log, store: store, hub: hub, notifier: notifier}
}

// Send validates, persists and fans out a new message.
//
// For direct messages the chat id is always recomputed server-side from the
// sender and receiver; the client-supplied chat id is advisory only. For group
// messages the chat id is the group id and the sender must be a member.
func (r *Router) Send(ctx context.Context, now time.Time, senderID string, p v1.SendMessagePayload) (Message, error) {
	content := strings.TrimSpace(p.Content)
	if senderID == "" || content == "" || utf8.RuneCountInString(content) > maxMessageChars {
		return Message{}, ErrInvalidInput
	}

	id, err := NewMessageID(now)
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		ID:        id,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if p.IsGroup {
		if p.ChatID == "" {
			return Message{}, ErrInvalidInput
		}
		members, err := r.store.GroupMemberIDs(ctx, p.ChatID)
		if err != nil {
			return Message{}, err
		}
		if !contains(members, senderID) {
			return Message{}, ErrUnauthorized
		}

		msg.GroupID = p.ChatID
		msg.ChatID = p.ChatID

		if err := r.store.CreateMessage(ctx, msg); err != nil {
			return Message{}, err
		}
		if err := r.store.TouchGroupActivity(ctx, p.ChatID, now); err != nil {
			r.log.Error("router.group.touch.fail", "group_id", p.ChatID, "err", err)
		}

		r.broadcastMessage(v1.TypeReceiveMessage, msg, now)

		if r.notifier != nil {
			// NotifyEach skips the sender via the self-action check.
			if err := r.notifier.NotifyEach(ctx, members, notify.Event{
				Type:    notify.TypeGroupMessage,
				ActorID: senderID,
				GroupID: p.ChatID,
				ChatID:  msg.ChatID,
			}); err != nil {
				r.log.Error("router.notify.fail", "chat_id", msg.ChatID, "err", err)
			}
		}
		return msg, nil
	}

	if p.ReceiverID == "" || p.ReceiverID == senderID {
		return Message{}, ErrInvalidInput
	}

	msg.ReceiverID = p.ReceiverID
	msg.ChatID = CanonicalDirectID(senderID, p.ReceiverID)

	if err := r.store.CreateMessage(ctx, msg); err != nil {
		return Message{}, err
	}

	r.broadcastMessage(v1.TypeReceiveMessage, msg, now)

	if r.notifier != nil {
		if err := r.notifier.Notify(ctx, notify.Event{
			Type:        notify.TypeDirectMessage,
			RecipientID: p.ReceiverID,
			ActorID:     senderID,
			ChatID:      msg.ChatID,
		}); err != nil {
			r.log.Error("router.notify.fail", "chat_id", msg.ChatID, "err", err)
		}
	}
	return msg, nil
}

// Edit rewrites a message's content in place.
//
// Only the original sender may edit, and only within the edit window measured
// from creation. The target room is recomputed from the stored message, never
// taken from the client.
func (r *Router) Edit(ctx context.Context, now time.Time, requesterID string, p v1.UpdateMessagePayload) (Message, error) {
	content := strings.TrimSpace(p.Content)
	if requesterID == "" || p.MessageID == "" || content == "" || utf8.RuneCountInString(content) > maxMessageChars {
		return Message{}, ErrInvalidInput
	}

	msg, err := r.authorize(ctx, requesterID, p.MessageID)
	if err != nil {
		return Message{}, err
	}
	if now.Sub(msg.CreatedAt) > EditWindow {
		return Message{}, ErrEditWindowExpired
	}

	if err := r.store.UpdateMessageContent(ctx, msg.ID, content, now); err != nil {
		return Message{}, err
	}
	msg.Content = content
	msg.UpdatedAt = now

	r.broadcastMessage(v1.TypeMessageUpdated, msg, now)
	return msg, nil
}

// Delete removes a message. Only the original sender may delete; there is no
// time window. The target room is recomputed from the stored message.
func (r *Router) Delete(ctx context.Context, now time.Time, requesterID string, p v1.DeleteMessagePayload) error {
	if requesterID == "" || p.MessageID == "" {
		return ErrInvalidInput
	}

	msg, err := r.authorize(ctx, requesterID, p.MessageID)
	if err != nil {
		return err
	}

	if err := r.store.DeleteMessage(ctx, msg.ID); err != nil {
		return err
	}

	payload, _ := json.Marshal(v1.MessageDeletedPayload{
		MessageID: msg.ID,
		ChatID:    msg.ChatID,
	})
	r.broadcast(v1.TypeMessageDeleted, msg.ChatID, payload, now)
	return nil
}

// History returns recent messages for a chat and marks those addressed to the
// requester as read.
func (r *Router) History(ctx context.Context, chatID, requesterID string, limit int) ([]Message, error) {
	if chatID == "" || requesterID == "" {
		return nil, ErrInvalidInput
	}
	msgs, err := r.store.ListMessages(ctx, chatID, limit)
	if err != nil {
		return nil, err
	}
	if err := r.store.MarkRead(ctx, chatID, requesterID); err != nil {
		r.log.Error("router.markread.fail", "chat_id", chatID, "err", err)
	}
	return msgs, nil
}

// authorize fetches the message and checks ownership. Absent messages come
// back as ErrUnauthorized so ownership cannot be probed.
func (r *Router) authorize(ctx context.Context, requesterID, messageID string) (Message, error) {
	msg, err := r.store.GetMessage(ctx, messageID)
	if err != nil {
		if err == ErrNotFound {
			return Message{}, ErrUnauthorized
		}
		return Message{}, err
	}
	if msg.SenderID != requesterID {
		return Message{}, ErrUnauthorized
	}
	return msg, nil
}

func (r *Router) broadcastMessage(typ string, msg Message, now time.Time) {
	payload, _ := json.Marshal(v1.MessagePayload{
		MessageID:  msg.ID,
		ChatID:     msg.ChatID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		GroupID:    msg.GroupID,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt,
		UpdatedAt:  msg.UpdatedAt,
	})
	r.broadcast(typ, msg.ChatID, payload, now)
}

func (r *Router) broadcast(typ, chatID string, payload json.RawMessage, now time.Time) {
	if r.hub == nil {
		return
	}
	id, _ := NewEnvelopeID(now)
	r.hub.BroadcastRoom(ChatRoom(chatID), v1.Envelope{
		V:       v1.Version,
		Type:    typ,
		ID:      id,
		TS:      now,
		Payload: payload,
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
