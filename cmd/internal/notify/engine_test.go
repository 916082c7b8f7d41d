package notify

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	v1 "sociofeed/shared/contracts/realtime/v1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePusher struct {
	mu     sync.Mutex
	pushes map[string][]v1.Envelope
}

func newCapturePusher() *capturePusher {
	return &capturePusher{pushes: make(map[string][]v1.Envelope)}
}

func (p *capturePusher) PushUser(userID string, env v1.Envelope) {
	p.mu.Lock()
	p.pushes[userID] = append(p.pushes[userID], env)
	p.mu.Unlock()
}

func (p *capturePusher) count(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushes[userID])
}

func newTestEngine(t *testing.T) (*Engine, *MemoryStore, *capturePusher) {
	t.Helper()
	store := NewMemoryStore()
	pusher := newCapturePusher()
	return NewEngine(slog.Default(), store, pusher), store, pusher
}

func TestNotify_SelfActionIsNoOp(t *testing.T) {
	engine, store, pusher := newTestEngine(t)

	err := engine.Notify(context.Background(), Event{
		Type:        TypePostLike,
		RecipientID: "u1",
		ActorID:     "u1",
	})
	require.NoError(t, err)

	rows, err := store.ListForUser(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, store.Counter("u1"))
	assert.Zero(t, pusher.count("u1"))
}

func TestNotify_DefaultPreferencesAllow(t *testing.T) {
	engine, store, pusher := newTestEngine(t)
	ctx := context.Background()

	// No preference row for the recipient: default-allow applies.
	err := engine.Notify(ctx, Event{Type: TypeFollow, RecipientID: "y", ActorID: "x"})
	require.NoError(t, err)

	rows, err := store.ListForUser(ctx, "y", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, TypeFollow, rows[0].Type)
	assert.Equal(t, "x", rows[0].ActorID)
	assert.False(t, rows[0].IsRead)

	assert.EqualValues(t, 1, store.Counter("y"))
	assert.Equal(t, 1, pusher.count("y"))
}

func TestNotify_DisabledPreferenceSuppresses(t *testing.T) {
	engine, store, pusher := newTestEngine(t)
	ctx := context.Background()

	prefs := DefaultPreferences("y")
	prefs.NotifyOnPostLike = false
	require.NoError(t, store.UpsertPreferences(ctx, prefs))

	err := engine.Notify(ctx, Event{Type: TypePostLike, RecipientID: "y", ActorID: "x", PostID: "p1"})
	require.NoError(t, err)

	rows, err := store.ListForUser(ctx, "y", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, store.Counter("y"))
	assert.Zero(t, pusher.count("y"))
}

func TestNotify_TagReusesPostCommentCategory(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	prefs := DefaultPreferences("y")
	prefs.NotifyOnPostComment = false
	require.NoError(t, store.UpsertPreferences(ctx, prefs))

	for _, typ := range []Type{TypeTagInPost, TypeTagInComment, TypePostComment} {
		err := engine.Notify(ctx, Event{Type: typ, RecipientID: "y", ActorID: "x"})
		require.NoError(t, err)
	}

	rows, err := store.ListForUser(ctx, "y", 10)
	require.NoError(t, err)
	assert.Empty(t, rows, "disabled post-comment preference must cover tags too")
}

func TestNotifyEach_GroupFanOutPerMemberPreference(t *testing.T) {
	engine, store, pusher := newTestEngine(t)
	ctx := context.Background()

	// 3-member group; sender is "sender"; "muted" disabled group messages.
	prefs := DefaultPreferences("muted")
	prefs.NotifyOnGroupMessage = false
	require.NoError(t, store.UpsertPreferences(ctx, prefs))

	err := engine.NotifyEach(ctx, []string{"m1", "m2", "muted"}, Event{
		Type:    TypeGroupMessage,
		ActorID: "sender",
		GroupID: "g1",
		ChatID:  "g1",
	})
	require.NoError(t, err)

	for _, member := range []string{"m1", "m2"} {
		rows, err := store.ListForUser(ctx, member, 10)
		require.NoError(t, err)
		require.Len(t, rows, 1, member)
		assert.Equal(t, TypeGroupMessage, rows[0].Type)
		assert.EqualValues(t, 1, store.Counter(member))
		assert.Equal(t, 1, pusher.count(member))
	}

	rows, err := store.ListForUser(ctx, "muted", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, pusher.count("muted"))
}

func TestNotify_CounterMatchesRowCount(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	events := []Event{
		{Type: TypeFollow, RecipientID: "y", ActorID: "a"},
		{Type: TypePostLike, RecipientID: "y", ActorID: "b", PostID: "p1"},
		{Type: TypePostComment, RecipientID: "y", ActorID: "c", PostID: "p1", CommentID: "c1"},
		{Type: TypeDirectMessage, RecipientID: "y", ActorID: "d", ChatID: "d:y"},
	}
	for _, ev := range events {
		require.NoError(t, engine.Notify(ctx, ev))
	}

	rows, err := store.ListForUser(ctx, "y", 100)
	require.NoError(t, err)
	assert.EqualValues(t, len(rows), store.Counter("y"))

	unread, err := store.UnreadCount(ctx, "y")
	require.NoError(t, err)
	assert.EqualValues(t, len(events), unread)

	require.NoError(t, store.MarkAllRead(ctx, "y"))
	unread, err = store.UnreadCount(ctx, "y")
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestDeleteByCommentIDsSettlesCounters(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	events := []Event{
		{Type: TypePostComment, RecipientID: "owner", ActorID: "a", PostID: "p1", CommentID: "c1"},
		{Type: TypeCommentLike, RecipientID: "owner", ActorID: "b", PostID: "p1", CommentID: "c2"},
		{Type: TypeTagInComment, RecipientID: "tagged", ActorID: "a", PostID: "p1", CommentID: "c1"},
		{Type: TypeFollow, RecipientID: "owner", ActorID: "c"},
	}
	for _, ev := range events {
		require.NoError(t, engine.Notify(ctx, ev))
	}
	require.EqualValues(t, 3, store.Counter("owner"))
	require.EqualValues(t, 1, store.Counter("tagged"))

	require.NoError(t, store.DeleteByCommentIDs(ctx, []string{"c1", "c2"}))

	// Counters track the surviving rows exactly; the follow notification is
	// untouched by a comment purge.
	rows, err := store.ListForUser(ctx, "owner", 100)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, TypeFollow, rows[0].Type)
	assert.EqualValues(t, len(rows), store.Counter("owner"))

	rows, err = store.ListForUser(ctx, "tagged", 100)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Zero(t, store.Counter("tagged"))
}
