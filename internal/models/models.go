package models

import "time"

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

type Post struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"authorId"`
	Content       string    `json:"content"`
	AllowComments bool      `json:"allowComments"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Comment is a persisted comment row. ParentID is nil for a root comment.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	ParentID  *string   `json:"parentId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentNode wraps a comment with the replies attached to it by a tree build.
// Nodes are built per call and never written back to storage.
type CommentNode struct {
	Comment
	Children []*CommentNode `json:"children"`
}

// Like targets exactly one of PostID or CommentID. TargetAuthorID is the author
// of the liked post or comment, resolved by the store when likes are listed.
type Like struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	PostID         *string   `json:"postId"`
	CommentID      *string   `json:"commentId"`
	TargetAuthorID string    `json:"targetAuthorId"`
	CreatedAt      time.Time `json:"createdAt"`
}

type LeaderboardEntry struct {
	UserID string `json:"userId"`
	Score  int    `json:"score"`
}

type PaginatedPosts struct {
	Posts      []Post  `json:"posts"`
	TotalCount int     `json:"totalCount"`
	NextCursor *string `json:"nextCursor"`
}
