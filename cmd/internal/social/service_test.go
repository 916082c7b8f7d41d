package social

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"sociofeed/cmd/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *MemoryStore, *notify.MemoryStore) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifications := notify.NewMemoryStore()
	store := NewMemoryStore(notifications)
	engine := notify.NewEngine(log, notifications, nil)
	return NewService(log, store, engine), store, notifications
}

func TestFollowUpdatesCountersAndNotifies(t *testing.T) {
	svc, store, notifications := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, "ada", "lin"))

	followers, following := store.Counters("lin")
	assert.Equal(t, int64(1), followers)
	assert.Equal(t, int64(0), following)

	followers, following = store.Counters("ada")
	assert.Equal(t, int64(0), followers)
	assert.Equal(t, int64(1), following)

	assert.Equal(t, int64(1), notifications.Counter("lin"))
	assert.Equal(t, int64(0), notifications.Counter("ada"))

	rows, err := notifications.ListForUser(ctx, "lin", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, notify.TypeFollow, rows[0].Type)
	assert.Equal(t, "ada", rows[0].ActorID)
}

func TestFollowRejectsDuplicateAndSelf(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, "ada", "lin"))
	assert.ErrorIs(t, svc.Follow(ctx, "ada", "lin"), ErrConflict)
	assert.ErrorIs(t, svc.Follow(ctx, "ada", "ada"), ErrInvalidInput)
}

func TestUnfollowDecrementsCounters(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Follow(ctx, "ada", "lin"))
	require.NoError(t, svc.Unfollow(ctx, "ada", "lin"))

	followers, _ := store.Counters("lin")
	assert.Equal(t, int64(0), followers)
	_, following := store.Counters("ada")
	assert.Equal(t, int64(0), following)

	assert.ErrorIs(t, svc.Unfollow(ctx, "ada", "lin"), ErrNotFound)
}

func TestLikePostNotifiesAuthorOnce(t *testing.T) {
	svc, store, notifications := newTestService(t)
	ctx := context.Background()

	store.PutPost(Post{ID: "p1", AuthorID: "lin"})

	require.NoError(t, svc.LikePost(ctx, "ada", "p1"))

	post, err := store.GetPost(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.TotalLikes)
	assert.Equal(t, int64(1), notifications.Counter("lin"))

	assert.ErrorIs(t, svc.LikePost(ctx, "ada", "p1"), ErrConflict)
	assert.Equal(t, int64(1), notifications.Counter("lin"), "duplicate like must not notify again")
}

func TestLikeOwnPostDoesNotNotify(t *testing.T) {
	svc, store, notifications := newTestService(t)
	ctx := context.Background()

	store.PutPost(Post{ID: "p1", AuthorID: "lin"})
	require.NoError(t, svc.LikePost(ctx, "lin", "p1"))

	post, _ := store.GetPost(ctx, "p1")
	assert.Equal(t, int64(1), post.TotalLikes, "the like itself still counts")
	assert.Equal(t, int64(0), notifications.Counter("lin"))
}

func TestLikePostHonorsLikePreference(t *testing.T) {
	svc, store, notifications := newTestService(t)
	ctx := context.Background()

	store.PutPost(Post{ID: "p1", AuthorID: "lin"})

	// The like toggle alone controls like notifications; the follower toggle
	// is irrelevant here.
	prefs := notify.DefaultPreferences("lin")
	prefs.NotifyOnPostLike = false
	prefs.NotifyOnNewFollower = true
	require.NoError(t, notifications.UpsertPreferences(ctx, prefs))

	require.NoError(t, svc.LikePost(ctx, "ada", "p1"))
	assert.Equal(t, int64(0), notifications.Counter("lin"))

	post, _ := store.GetPost(ctx, "p1")
	assert.Equal(t, int64(1), post.TotalLikes, "suppression affects delivery, not the like")
}

func TestUnlikePost(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	store.PutPost(Post{ID: "p1", AuthorID: "lin"})
	require.NoError(t, svc.LikePost(ctx, "ada", "p1"))
	require.NoError(t, svc.UnlikePost(ctx, "ada", "p1"))

	post, _ := store.GetPost(ctx, "p1")
	assert.Equal(t, int64(0), post.TotalLikes)

	assert.ErrorIs(t, svc.UnlikePost(ctx, "ada", "p1"), ErrNotFound)
}

func TestCreateCommentNotifiesAuthorAndTags(t *testing.T) {
	svc, store, notifications := newTestService(t)
	ctx := context.Background()

	store.PutPost(Post{ID: "p1", AuthorID: "lin"})

	created, err := svc.CreateComment(ctx, "ada", "p1", "", "nice one @grace", []string{"grace", "grace", "ada"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	post, _ := store.GetPost(ctx, "p1")
	assert.Equal(t, int64(1), post.TotalComments)

	assert.Equal(t, int64(1), notifications.Counter("lin"), "post author notified")
	assert.Equal(t, int64(1), notifications.Counter("grace"), "tagged user notified once")
	assert.Equal(t, int64(0), notifications.Counter("ada"), "self-tag dropped")

	rows, err := notifications.ListForUser(ctx, "grace", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, notify.TypeTagInComment, rows[0].Type)
}

func TestTagNotificationUsesCommentPreference(t *testing.T) {
	svc, store, notifications := newTestService(t)
	ctx := context.Background()

	store.PutPost(Post{ID: "p1", AuthorID: "lin"})

	prefs := notify.DefaultPreferences("grace")
	prefs.NotifyOnPostComment = false
	require.NoError(t, notifications.UpsertPreferences(ctx, prefs))

	_, err := svc.CreateComment(ctx, "ada", "p1", "", "hey @grace", []string{"grace"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), notifications.Counter("grace"))
}

func TestCreateCommentValidation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	store.PutPost(Post{ID: "p1", AuthorID: "lin"})

	_, err := svc.CreateComment(ctx, "ada", "p1", "", "   ", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CreateComment(ctx, "ada", "missing", "", "hello", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CreateComment(ctx, "ada", "p1", "no-such-parent", "hello", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTagInPost(t *testing.T) {
	svc, store, notifications := newTestService(t)
	ctx := context.Background()

	store.PutPost(Post{ID: "p1", AuthorID: "ada"})

	require.NoError(t, svc.TagInPost(ctx, "ada", "p1", []string{"grace", "lin", "ada"}))
	assert.Equal(t, int64(1), notifications.Counter("grace"))
	assert.Equal(t, int64(1), notifications.Counter("lin"))
	assert.Equal(t, int64(0), notifications.Counter("ada"))

	// Re-tagging is silently skipped, not an error.
	require.NoError(t, svc.TagInPost(ctx, "ada", "p1", []string{"grace"}))
	assert.Equal(t, int64(1), notifications.Counter("grace"))
}

func TestDeleteCommentCascade(t *testing.T) {
	svc, store, notifications := newTestService(t)
	ctx := context.Background()

	store.PutPost(Post{ID: "p1", AuthorID: "lin"})

	top, err := svc.CreateComment(ctx, "ada", "p1", "", "root", nil)
	require.NoError(t, err)
	reply1, err := svc.CreateComment(ctx, "grace", "p1", top.ID, "reply 1", nil)
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, "lin", "p1", top.ID, "reply 2", nil)
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, "ada", "p1", reply1.ID, "nested", nil)
	require.NoError(t, err)

	// An unrelated comment survives the cascade.
	other, err := svc.CreateComment(ctx, "grace", "p1", "", "unrelated", nil)
	require.NoError(t, err)

	post, _ := store.GetPost(ctx, "p1")
	require.Equal(t, int64(5), post.TotalComments)

	require.NoError(t, svc.DeleteComment(ctx, "ada", top.ID))

	post, _ = store.GetPost(ctx, "p1")
	assert.Equal(t, int64(1), post.TotalComments, "counter drops by the whole subtree")

	_, err = store.GetComment(ctx, top.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetComment(ctx, reply1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetComment(ctx, other.ID)
	assert.NoError(t, err)

	// Notifications referencing removed comments are purged and each
	// recipient's counter tracks the surviving rows exactly.
	for _, user := range []string{"ada", "grace", "lin"} {
		rows, err := notifications.ListForUser(ctx, user, 20)
		require.NoError(t, err)
		for _, n := range rows {
			assert.NotEqual(t, top.ID, n.CommentID)
			assert.NotEqual(t, reply1.ID, n.CommentID)
		}
		assert.EqualValues(t, len(rows), notifications.Counter(user), "counter for %s", user)
	}
}

func TestDeleteCommentRequiresOwnership(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	store.PutPost(Post{ID: "p1", AuthorID: "lin"})
	c, err := svc.CreateComment(ctx, "ada", "p1", "", "mine", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteComment(ctx, "grace", c.ID), ErrUnauthorized)
	assert.ErrorIs(t, svc.DeleteComment(ctx, "ada", "absent"), ErrUnauthorized)
	require.NoError(t, svc.DeleteComment(ctx, "ada", c.ID))
}
