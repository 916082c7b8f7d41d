// Package v1 defines the SocioFeed Realtime Protocol v1 contract.
//
// This package is intentionally stable and dependency-light.
// It is shared between server and clients to keep the wire protocol authoritative.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Version is the protocol version identifier embedded into every envelope.
const Version = "v1"

// Type constants (wire-stable).
const (
	// TypeJoinChat joins a conversation room (client -> server).
	TypeJoinChat = "join_chat"
	// TypeLeaveChat leaves a conversation room (client -> server).
	TypeLeaveChat = "leave_chat"

	// TypeSendMessage requests sending a new message (client -> server).
	TypeSendMessage = "send_message"
	// TypeUpdateMessage requests an in-place content edit (client -> server).
	TypeUpdateMessage = "update_message"
	// TypeDeleteMessage requests a message deletion (client -> server).
	TypeDeleteMessage = "delete_message"

	// TypeReceiveMessage broadcasts an accepted message (server -> room members).
	TypeReceiveMessage = "receive_message"
	// TypeMessageUpdated broadcasts an accepted edit (server -> room members).
	TypeMessageUpdated = "message_updated"
	// TypeMessageDeleted broadcasts an accepted deletion (server -> room members).
	TypeMessageDeleted = "message_deleted"

	// TypeNotification pushes a new notification (server -> recipient sessions).
	TypeNotification = "notification"

	// TypeError is a generic error envelope (server -> client).
	TypeError = "error"
)

// Envelope is the canonical wire wrapper.
type Envelope struct {
	V       string          `json:"v"`
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	TS      time.Time       `json:"ts,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Validate performs strict structural validation for an Envelope.
func (e Envelope) Validate() error {
	if strings.TrimSpace(e.V) == "" {
		return errors.New("missing field: v")
	}
	if e.V != Version {
		return fmt.Errorf("unsupported protocol version: %q", e.V)
	}
	if strings.TrimSpace(e.Type) == "" {
		return errors.New("missing field: type")
	}

	switch e.Type {
	case TypeJoinChat,
		TypeLeaveChat,
		TypeSendMessage,
		TypeUpdateMessage,
		TypeDeleteMessage,
		TypeReceiveMessage,
		TypeMessageUpdated,
		TypeMessageDeleted,
		TypeNotification,
		TypeError:
		return nil
	default:
		return fmt.Errorf("unknown type: %q", e.Type)
	}
}

// ---- Payloads ----

// JoinChatPayload requests membership in a conversation room.
type JoinChatPayload struct {
	ChatID string `json:"chat_id"`
}

// LeaveChatPayload leaves a conversation room.
type LeaveChatPayload struct {
	ChatID string `json:"chat_id"`
}

// SendMessagePayload requests sending a message into a conversation.
// For direct chats ReceiverID is required and ChatID must be the canonical
// direct conversation id; for group chats ChatID is the group id.
type SendMessagePayload struct {
	ChatID     string `json:"chat_id"`
	Content    string `json:"content"`
	IsGroup    bool   `json:"is_group"`
	ReceiverID string `json:"receiver_id,omitempty"`
}

// UpdateMessagePayload requests an in-place edit of a previously sent message.
type UpdateMessagePayload struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

// DeleteMessagePayload requests a message deletion.
type DeleteMessagePayload struct {
	MessageID string `json:"message_id"`
}

// MessagePayload is the broadcast form of a stored message.
type MessagePayload struct {
	MessageID  string    `json:"message_id"`
	ChatID     string    `json:"chat_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id,omitempty"`
	GroupID    string    `json:"group_id,omitempty"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// MessageDeletedPayload announces a deletion to room members.
type MessageDeletedPayload struct {
	MessageID string `json:"message_id"`
	ChatID    string `json:"chat_id"`
}

// NotificationPayload pushes a freshly created notification to a user session.
// ChatID is set for message notifications so clients can focus the right
// conversation.
type NotificationPayload struct {
	Type   string `json:"type"`
	ChatID string `json:"chat_id,omitempty"`
}

// ErrorPayload is a generic error response payload.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
