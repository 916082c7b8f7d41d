package social

import "time"

// Post carries the fields the social operations need. Feed rendering reads
// more columns; they are out of scope here.
//
// TotalLikes and TotalComments are denormalized and maintained by the store:
// TotalComments counts every comment on the post, replies included.
type Post struct {
	ID       string
	AuthorID string

	TotalLikes    int64
	TotalComments int64

	CreatedAt time.Time
}

// Comment is one comment or reply. ParentID is empty for top-level comments.
type Comment struct {
	ID       string
	PostID   string
	AuthorID string
	ParentID string
	Content  string

	TotalLikes int64

	CreatedAt time.Time
}
