package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sociofeed/cmd/internal/notify"
	v1 "sociofeed/shared/contracts/realtime/v1"
)

// captureBroadcaster records room broadcasts for assertions.
type captureBroadcaster struct {
	mu    sync.Mutex
	rooms []string
	envs  []v1.Envelope
}

func (c *captureBroadcaster) BroadcastRoom(roomID string, env v1.Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms = append(c.rooms, roomID)
	c.envs = append(c.envs, env)
}

func (c *captureBroadcaster) last(t *testing.T) (string, v1.Envelope) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.envs) == 0 {
		t.Fatalf("no broadcast recorded")
	}
	return c.rooms[len(c.rooms)-1], c.envs[len(c.envs)-1]
}

func newTestRouter(t *testing.T) (*Router, *MemoryChatStore, *captureBroadcaster, *notify.MemoryStore) {
	t.Helper()
	chats := NewMemoryChatStore()
	bc := &captureBroadcaster{}
	notifications := notify.NewMemoryStore()
	engine := notify.NewEngine(testLogger(), notifications, nil)
	return NewRouter(testLogger(), chats, bc, engine), chats, bc, notifications
}

func TestCanonicalDirectIDIsSymmetric(t *testing.T) {
	if got, want := CanonicalDirectID("bob", "alice"), "alice:bob"; got != want {
		t.Fatalf("CanonicalDirectID = %q, want %q", got, want)
	}
	if CanonicalDirectID("alice", "bob") != CanonicalDirectID("bob", "alice") {
		t.Fatalf("canonical id differs by initiator")
	}
}

func TestSendDirectMessage(t *testing.T) {
	router, chats, bc, notifications := newTestRouter(t)
	ctx := context.Background()
	now := time.Now().UTC()

	msg, err := router.Send(ctx, now, "bob", v1.SendMessagePayload{
		ReceiverID: "alice",
		Content:    "  hello  ",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.ChatID != "alice:bob" {
		t.Fatalf("ChatID = %q, want canonical alice:bob", msg.ChatID)
	}
	if msg.Content != "hello" {
		t.Fatalf("Content = %q, want trimmed", msg.Content)
	}

	stored, err := chats.GetMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if stored.ReceiverID != "alice" || stored.GroupID != "" {
		t.Fatalf("stored = %+v, want direct message to alice", stored)
	}

	room, env := bc.last(t)
	if room != ChatRoom("alice:bob") {
		t.Fatalf("broadcast room = %q", room)
	}
	if env.Type != v1.TypeReceiveMessage {
		t.Fatalf("broadcast type = %q", env.Type)
	}

	if got := notifications.Counter("alice"); got != 1 {
		t.Fatalf("alice notification counter = %d, want 1", got)
	}
	if got := notifications.Counter("bob"); got != 0 {
		t.Fatalf("sender notification counter = %d, want 0", got)
	}
}

func TestSendRejectsInvalidInput(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	ctx := context.Background()
	now := time.Now().UTC()

	cases := []v1.SendMessagePayload{
		{ReceiverID: "alice", Content: "   "},      // blank content
		{ReceiverID: "", Content: "hi"},            // no receiver
		{ReceiverID: "bob", Content: "hi"},         // self-message
		{IsGroup: true, ChatID: "", Content: "hi"}, // group without id
	}
	for i, p := range cases {
		if _, err := router.Send(ctx, now, "bob", p); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: err = %v, want ErrInvalidInput", i, err)
		}
	}

	long := make([]rune, maxMessageChars+1)
	for i := range long {
		long[i] = 'x'
	}
	if _, err := router.Send(ctx, now, "bob", v1.SendMessagePayload{ReceiverID: "alice", Content: string(long)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("oversize content: err = %v, want ErrInvalidInput", err)
	}
}

func TestSendGroupMessage(t *testing.T) {
	router, chats, bc, notifications := newTestRouter(t)
	ctx := context.Background()
	now := time.Now().UTC()

	chats.PutGroup(Group{ID: "g1", Name: "hikers", OwnerID: "alice"}, []string{"alice", "bob", "carol"})

	msg, err := router.Send(ctx, now, "alice", v1.SendMessagePayload{
		ChatID:  "g1",
		IsGroup: true,
		Content: "trailhead at nine",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.GroupID != "g1" || msg.ChatID != "g1" {
		t.Fatalf("msg = %+v, want group g1", msg)
	}

	room, env := bc.last(t)
	if room != ChatRoom("g1") || env.Type != v1.TypeReceiveMessage {
		t.Fatalf("broadcast = %q/%q", room, env.Type)
	}

	if err := chats.TouchGroupActivity(ctx, "g1", now); err != nil {
		t.Fatalf("group missing after send: %v", err)
	}

	// Every member except the sender is notified.
	if got := notifications.Counter("bob"); got != 1 {
		t.Fatalf("bob counter = %d, want 1", got)
	}
	if got := notifications.Counter("carol"); got != 1 {
		t.Fatalf("carol counter = %d, want 1", got)
	}
	if got := notifications.Counter("alice"); got != 0 {
		t.Fatalf("alice (sender) counter = %d, want 0", got)
	}
}

func TestSendGroupRequiresMembership(t *testing.T) {
	router, chats, _, _ := newTestRouter(t)
	chats.PutGroup(Group{ID: "g1", OwnerID: "alice"}, []string{"alice"})

	_, err := router.Send(context.Background(), time.Now().UTC(), "mallory", v1.SendMessagePayload{
		ChatID:  "g1",
		IsGroup: true,
		Content: "let me in",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestEditWithinWindow(t *testing.T) {
	router, chats, bc, _ := newTestRouter(t)
	ctx := context.Background()
	now := time.Now().UTC()

	msg, err := router.Send(ctx, now, "bob", v1.SendMessagePayload{ReceiverID: "alice", Content: "helo"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	at := now.Add(EditWindow - time.Second)
	edited, err := router.Edit(ctx, at, "bob", v1.UpdateMessagePayload{MessageID: msg.ID, Content: "hello"})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if edited.Content != "hello" || !edited.UpdatedAt.Equal(at) {
		t.Fatalf("edited = %+v", edited)
	}

	stored, _ := chats.GetMessage(ctx, msg.ID)
	if stored.Content != "hello" {
		t.Fatalf("stored content = %q", stored.Content)
	}

	room, env := bc.last(t)
	if room != ChatRoom(msg.ChatID) || env.Type != v1.TypeMessageUpdated {
		t.Fatalf("broadcast = %q/%q", room, env.Type)
	}
}

func TestEditRejectedAfterWindow(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	ctx := context.Background()
	now := time.Now().UTC()

	msg, err := router.Send(ctx, now, "bob", v1.SendMessagePayload{ReceiverID: "alice", Content: "typo"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	at := now.Add(EditWindow + time.Second)
	if _, err := router.Edit(ctx, at, "bob", v1.UpdateMessagePayload{MessageID: msg.ID, Content: "fixed"}); !errors.Is(err, ErrEditWindowExpired) {
		t.Fatalf("err = %v, want ErrEditWindowExpired", err)
	}
}

func TestEditAndDeleteRequireOwnership(t *testing.T) {
	router, _, _, _ := newTestRouter(t)
	ctx := context.Background()
	now := time.Now().UTC()

	msg, err := router.Send(ctx, now, "bob", v1.SendMessagePayload{ReceiverID: "alice", Content: "mine"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if _, err := router.Edit(ctx, now, "alice", v1.UpdateMessagePayload{MessageID: msg.ID, Content: "hijack"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("foreign edit: err = %v, want ErrUnauthorized", err)
	}
	if err := router.Delete(ctx, now, "alice", v1.DeleteMessagePayload{MessageID: msg.ID}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("foreign delete: err = %v, want ErrUnauthorized", err)
	}

	// Absent messages are indistinguishable from foreign ones.
	if _, err := router.Edit(ctx, now, "bob", v1.UpdateMessagePayload{MessageID: "nope", Content: "x"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("absent edit: err = %v, want ErrUnauthorized", err)
	}
}

func TestDeleteBroadcastsToStoredRoom(t *testing.T) {
	router, chats, bc, _ := newTestRouter(t)
	ctx := context.Background()
	now := time.Now().UTC()

	msg, err := router.Send(ctx, now, "bob", v1.SendMessagePayload{ReceiverID: "alice", Content: "gone soon"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	// Deletion has no time window.
	at := now.Add(48 * time.Hour)
	if err := router.Delete(ctx, at, "bob", v1.DeleteMessagePayload{MessageID: msg.ID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := chats.GetMessage(ctx, msg.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("message still stored: %v", err)
	}

	room, env := bc.last(t)
	if room != ChatRoom("alice:bob") || env.Type != v1.TypeMessageDeleted {
		t.Fatalf("broadcast = %q/%q", room, env.Type)
	}
}

func TestHistoryMarksRead(t *testing.T) {
	router, chats, _, _ := newTestRouter(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		if _, err := router.Send(ctx, now.Add(time.Duration(i)*time.Second), "bob", v1.SendMessagePayload{ReceiverID: "alice", Content: "m"}); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}

	msgs, err := router.History(ctx, "alice:bob", "alice", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	if !msgs[0].CreatedAt.Before(msgs[2].CreatedAt) {
		t.Fatalf("history not oldest-first")
	}

	after, _ := chats.ListMessages(ctx, "alice:bob", 10)
	for _, m := range after {
		if !m.IsRead {
			t.Fatalf("message %s unread after history fetch", m.ID)
		}
	}
}
