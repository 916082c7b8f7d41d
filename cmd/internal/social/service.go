package social

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"sociofeed/cmd/internal/notify"
)

const maxCommentChars = 2000

// Service orchestrates social graph operations: durable write first, then
// notification fan-out. A notification failure never rolls back the social
// write; it is logged and surfaced to the caller.
type Service struct {
	log      *slog.Logger
	store    Store
	notifier *notify.Engine
}

// NewService constructs a Service. notifier may be nil (no fan-out).
func NewService(log *slog.Logger, store Store, notifier *notify.Engine) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{log: log, store: store, notifier: notifier}
}

// Follow records follower -> followee and notifies the followee.
// Following yourself is invalid; a duplicate follow is ErrConflict.
func (s *Service) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == "" || followeeID == "" || followerID == followeeID {
		return ErrInvalidInput
	}

	if err := s.store.CreateFollow(ctx, followerID, followeeID); err != nil {
		return err
	}

	s.notify(ctx, notify.Event{
		Type:        notify.TypeFollow,
		RecipientID: followeeID,
		ActorID:     followerID,
	})
	return nil
}

// Unfollow removes the edge. No notification is sent.
func (s *Service) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if followerID == "" || followeeID == "" {
		return ErrInvalidInput
	}
	return s.store.DeleteFollow(ctx, followerID, followeeID)
}

// LikePost records a like and notifies the post author.
func (s *Service) LikePost(ctx context.Context, userID, postID string) error {
	if userID == "" || postID == "" {
		return ErrInvalidInput
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.store.CreatePostLike(ctx, postID, userID); err != nil {
		return err
	}

	s.notify(ctx, notify.Event{
		Type:        notify.TypePostLike,
		RecipientID: post.AuthorID,
		ActorID:     userID,
		PostID:      postID,
	})
	return nil
}

// UnlikePost removes a like. No notification is sent.
func (s *Service) UnlikePost(ctx context.Context, userID, postID string) error {
	if userID == "" || postID == "" {
		return ErrInvalidInput
	}
	return s.store.DeletePostLike(ctx, postID, userID)
}

// LikeComment records a like and notifies the comment author.
func (s *Service) LikeComment(ctx context.Context, userID, commentID string) error {
	if userID == "" || commentID == "" {
		return ErrInvalidInput
	}

	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if err := s.store.CreateCommentLike(ctx, commentID, userID); err != nil {
		return err
	}

	s.notify(ctx, notify.Event{
		Type:        notify.TypeCommentLike,
		RecipientID: comment.AuthorID,
		ActorID:     userID,
		PostID:      comment.PostID,
		CommentID:   commentID,
	})
	return nil
}

// UnlikeComment removes a like on a comment.
func (s *Service) UnlikeComment(ctx context.Context, userID, commentID string) error {
	if userID == "" || commentID == "" {
		return ErrInvalidInput
	}
	return s.store.DeleteCommentLike(ctx, commentID, userID)
}

// CreateComment validates and persists a comment (optionally a reply,
// optionally tagging users), then notifies the post author and every tagged
// user. Tag notifications fall under the post-comment preference category.
func (s *Service) CreateComment(ctx context.Context, authorID, postID, parentID, content string, taggedUserIDs []string) (Comment, error) {
	content = strings.TrimSpace(content)
	if authorID == "" || postID == "" || content == "" || utf8.RuneCountInString(content) > maxCommentChars {
		return Comment{}, ErrInvalidInput
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return Comment{}, err
	}

	tags := dedupe(taggedUserIDs, authorID)
	now := time.Now().UTC()

	created, err := s.store.CreateComment(ctx, Comment{
		PostID:   postID,
		AuthorID: authorID,
		ParentID: strings.TrimSpace(parentID),
		Content:  content,
	}, tags, now)
	if err != nil {
		return Comment{}, err
	}

	s.notify(ctx, notify.Event{
		Type:        notify.TypePostComment,
		RecipientID: post.AuthorID,
		ActorID:     authorID,
		PostID:      postID,
		CommentID:   created.ID,
	})
	for _, tagged := range tags {
		// The post author already got the comment notification.
		if tagged == post.AuthorID {
			continue
		}
		s.notify(ctx, notify.Event{
			Type:        notify.TypeTagInComment,
			RecipientID: tagged,
			ActorID:     authorID,
			PostID:      postID,
			CommentID:   created.ID,
		})
	}

	return created, nil
}

// TagInPost records user tags on a post and notifies each tagged user.
// Duplicate tags are skipped silently.
func (s *Service) TagInPost(ctx context.Context, actorID, postID string, taggedUserIDs []string) error {
	if actorID == "" || postID == "" {
		return ErrInvalidInput
	}

	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return err
	}

	for _, tagged := range dedupe(taggedUserIDs, actorID) {
		err := s.store.CreatePostTag(ctx, postID, tagged)
		if err == ErrConflict {
			continue
		}
		if err != nil {
			return err
		}
		s.notify(ctx, notify.Event{
			Type:        notify.TypeTagInPost,
			RecipientID: tagged,
			ActorID:     actorID,
			PostID:      postID,
		})
	}
	return nil
}

// DeleteComment removes a comment and its whole reply subtree. Only the
// comment's author may delete it; absent comments are indistinguishable from
// foreign ones.
func (s *Service) DeleteComment(ctx context.Context, requesterID, commentID string) error {
	if requesterID == "" || commentID == "" {
		return ErrInvalidInput
	}

	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		if err == ErrNotFound {
			return ErrUnauthorized
		}
		return err
	}
	if comment.AuthorID != requesterID {
		return ErrUnauthorized
	}

	removed, err := s.store.DeleteCommentCascade(ctx, commentID)
	if err != nil {
		return err
	}

	s.log.Info("social.comment.cascade", "comment_id", commentID, "removed", len(removed))
	return nil
}

func (s *Service) notify(ctx context.Context, ev notify.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.log.Error("social.notify.fail", "type", string(ev.Type), "recipient", ev.RecipientID, "err", err)
	}
}

// dedupe drops duplicates, empties and the actor from a tag list, keeping
// the original order.
func dedupe(userIDs []string, actorID string) []string {
	if len(userIDs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(userIDs))
	out := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		id = strings.TrimSpace(id)
		if id == "" || id == actorID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
