package social

import (
	"context"
	"sync"
	"time"

	"sociofeed/cmd/identity/ids"
)

// NotificationPurger removes notification rows referencing deleted comments.
// The in-memory notification store implements it; in Postgres mode the
// cascade deletes those rows inside its own transaction instead.
type NotificationPurger interface {
	DeleteByCommentIDs(ctx context.Context, commentIDs []string) error
}

// followCounters mirrors the denormalized user counters in memory mode.
type followCounters struct {
	Followers int64
	Following int64
}

// MemoryStore is an in-process Store used in tests and in-memory mode.
type MemoryStore struct {
	mu sync.Mutex

	follows      map[string]map[string]struct{} // followerID -> followeeIDs
	counters     map[string]followCounters
	posts        map[string]Post
	postLikes    map[string]map[string]struct{} // postID -> userIDs
	postTags     map[string]map[string]struct{} // postID -> tagged userIDs
	comments     map[string]Comment
	commentLikes map[string]map[string]struct{} // commentID -> userIDs
	commentTags  map[string][]string            // commentID -> tagged userIDs

	purger NotificationPurger
}

// NewMemoryStore constructs an empty in-memory social store. purger may be
// nil when no notification cleanup is wanted.
func NewMemoryStore(purger NotificationPurger) *MemoryStore {
	return &MemoryStore{
		follows:      make(map[string]map[string]struct{}),
		counters:     make(map[string]followCounters),
		posts:        make(map[string]Post),
		postLikes:    make(map[string]map[string]struct{}),
		postTags:     make(map[string]map[string]struct{}),
		comments:     make(map[string]Comment),
		commentLikes: make(map[string]map[string]struct{}),
		commentTags:  make(map[string][]string),
		purger:       purger,
	}
}

// PutPost seeds a post. Intended for tests and in-memory mode.
func (s *MemoryStore) PutPost(p Post) {
	s.mu.Lock()
	s.posts[p.ID] = p
	s.mu.Unlock()
}

// Counters exposes the mirrored user counters for invariant checks in tests.
func (s *MemoryStore) Counters(userID string) (followers, following int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counters[userID]
	return c.Followers, c.Following
}

func (s *MemoryStore) CreateFollow(ctx context.Context, followerID, followeeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if followerID == "" || followeeID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.follows[followerID]
	if set == nil {
		set = make(map[string]struct{})
		s.follows[followerID] = set
	}
	if _, dup := set[followeeID]; dup {
		return ErrConflict
	}
	set[followeeID] = struct{}{}

	fc := s.counters[followeeID]
	fc.Followers++
	s.counters[followeeID] = fc

	fg := s.counters[followerID]
	fg.Following++
	s.counters[followerID] = fg
	return nil
}

func (s *MemoryStore) DeleteFollow(ctx context.Context, followerID, followeeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := s.follows[followerID]
	if set == nil {
		return ErrNotFound
	}
	if _, ok := set[followeeID]; !ok {
		return ErrNotFound
	}
	delete(set, followeeID)

	fc := s.counters[followeeID]
	fc.Followers--
	s.counters[followeeID] = fc

	fg := s.counters[followerID]
	fg.Following--
	s.counters[followerID] = fg
	return nil
}

func (s *MemoryStore) GetPost(ctx context.Context, postID string) (Post, error) {
	if err := ctx.Err(); err != nil {
		return Post{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return Post{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) CreatePostLike(ctx context.Context, postID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return ErrNotFound
	}

	likes := s.postLikes[postID]
	if likes == nil {
		likes = make(map[string]struct{})
		s.postLikes[postID] = likes
	}
	if _, dup := likes[userID]; dup {
		return ErrConflict
	}
	likes[userID] = struct{}{}

	p.TotalLikes++
	s.posts[postID] = p
	return nil
}

func (s *MemoryStore) DeletePostLike(ctx context.Context, postID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	likes := s.postLikes[postID]
	if likes == nil {
		return ErrNotFound
	}
	if _, ok := likes[userID]; !ok {
		return ErrNotFound
	}
	delete(likes, userID)

	p := s.posts[postID]
	p.TotalLikes--
	s.posts[postID] = p
	return nil
}

func (s *MemoryStore) GetComment(ctx context.Context, commentID string) (Comment, error) {
	if err := ctx.Err(); err != nil {
		return Comment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) CreateCommentLike(ctx context.Context, commentID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok {
		return ErrNotFound
	}

	likes := s.commentLikes[commentID]
	if likes == nil {
		likes = make(map[string]struct{})
		s.commentLikes[commentID] = likes
	}
	if _, dup := likes[userID]; dup {
		return ErrConflict
	}
	likes[userID] = struct{}{}

	c.TotalLikes++
	s.comments[commentID] = c
	return nil
}

func (s *MemoryStore) DeleteCommentLike(ctx context.Context, commentID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	likes := s.commentLikes[commentID]
	if likes == nil {
		return ErrNotFound
	}
	if _, ok := likes[userID]; !ok {
		return ErrNotFound
	}
	delete(likes, userID)

	c := s.comments[commentID]
	c.TotalLikes--
	s.comments[commentID] = c
	return nil
}

func (s *MemoryStore) CreateComment(ctx context.Context, c Comment, taggedUserIDs []string, now time.Time) (Comment, error) {
	if err := ctx.Err(); err != nil {
		return Comment{}, err
	}
	if c.PostID == "" || c.AuthorID == "" || c.Content == "" {
		return Comment{}, ErrInvalidInput
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Comment{}, err
	}
	c.ID = id
	c.CreatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[c.PostID]
	if !ok {
		return Comment{}, ErrNotFound
	}
	if c.ParentID != "" {
		parent, ok := s.comments[c.ParentID]
		if !ok || parent.PostID != c.PostID {
			return Comment{}, ErrNotFound
		}
	}

	s.comments[c.ID] = c
	if len(taggedUserIDs) > 0 {
		s.commentTags[c.ID] = append([]string(nil), taggedUserIDs...)
	}

	p.TotalComments++
	s.posts[c.PostID] = p
	return c, nil
}

func (s *MemoryStore) CreatePostTag(ctx context.Context, postID, taggedUserID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if postID == "" || taggedUserID == "" {
		return ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return ErrNotFound
	}
	tags := s.postTags[postID]
	if tags == nil {
		tags = make(map[string]struct{})
		s.postTags[postID] = tags
	}
	if _, dup := tags[taggedUserID]; dup {
		return ErrConflict
	}
	tags[taggedUserID] = struct{}{}
	return nil
}

// DeleteCommentCascade removes the subtree with an explicit worklist: reply
// depth is user-controlled, so recursion is off the table.
func (s *MemoryStore) DeleteCommentCascade(ctx context.Context, commentID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()

	target, ok := s.comments[commentID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	removed := []string{commentID}
	work := []string{commentID}
	for len(work) > 0 {
		cur := work[0]
		work = work[1:]
		for id, c := range s.comments {
			if c.ParentID == cur {
				removed = append(removed, id)
				work = append(work, id)
			}
		}
	}

	for _, id := range removed {
		delete(s.comments, id)
		delete(s.commentLikes, id)
		delete(s.commentTags, id)
	}

	p := s.posts[target.PostID]
	p.TotalComments -= int64(len(removed))
	s.posts[target.PostID] = p

	purger := s.purger
	s.mu.Unlock()

	if purger != nil {
		if err := purger.DeleteByCommentIDs(ctx, removed); err != nil {
			return removed, err
		}
	}
	return removed, nil
}
