package social

import (
	"context"
	"time"
)

// Store is the durable surface for the social graph.
//
// Every method is one atomic step: the row write and any counter update it
// implies either both happen or neither does. Counter updates are single
// atomic field updates in the store, never read-modify-write at the
// application layer.
type Store interface {
	// CreateFollow records follower -> followee and bumps both users'
	// follower/following counters. A duplicate follow is ErrConflict.
	CreateFollow(ctx context.Context, followerID, followeeID string) error

	// DeleteFollow removes the edge and decrements both counters.
	// An absent edge is ErrNotFound.
	DeleteFollow(ctx context.Context, followerID, followeeID string) error

	// GetPost fetches a post. Absence is ErrNotFound.
	GetPost(ctx context.Context, postID string) (Post, error)

	// CreatePostLike records a like and bumps the post's like counter.
	// A duplicate like is ErrConflict.
	CreatePostLike(ctx context.Context, postID, userID string) error

	// DeletePostLike removes a like and decrements the counter.
	// An absent like is ErrNotFound.
	DeletePostLike(ctx context.Context, postID, userID string) error

	// GetComment fetches a comment. Absence is ErrNotFound.
	GetComment(ctx context.Context, commentID string) (Comment, error)

	// CreateCommentLike records a like on a comment. Duplicate is ErrConflict.
	CreateCommentLike(ctx context.Context, commentID, userID string) error

	// DeleteCommentLike removes a like on a comment. Absent is ErrNotFound.
	DeleteCommentLike(ctx context.Context, commentID, userID string) error

	// CreateComment inserts the comment, its user tags, and bumps the post's
	// comment counter in one step.
	CreateComment(ctx context.Context, c Comment, taggedUserIDs []string, now time.Time) (Comment, error)

	// CreatePostTag records a user tag on a post. Duplicate is ErrConflict.
	CreatePostTag(ctx context.Context, postID, taggedUserID string) error

	// DeleteCommentCascade removes the comment and its entire reply subtree:
	// every descendant's likes, tags and notifications go with it, and the
	// post's comment counter is decremented by the total number of comments
	// removed. It returns the removed comment ids, target first.
	DeleteCommentCascade(ctx context.Context, commentID string) ([]string, error)
}
