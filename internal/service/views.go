package service

import (
	"time"

	"github.com/ButyrinIA/socialfeed/internal/models"
)

type PostView struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"author_id"`
	Author        string    `json:"author"`
	Content       string    `json:"content"`
	AllowComments bool      `json:"allow_comments"`
	CreatedAt     time.Time `json:"created_at"`
}

type CommentView struct {
	ID        string         `json:"id"`
	PostID    string         `json:"post_id"`
	ParentID  *string        `json:"parent_id"`
	AuthorID  string         `json:"author_id"`
	Author    string         `json:"author"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	Children  []*CommentView `json:"children"`
}

type PostDetail struct {
	PostView
	Comments []*CommentView `json:"comments"`
}

type PostPage struct {
	Posts      []PostView `json:"posts"`
	TotalCount int        `json:"total_count"`
	NextCursor *string    `json:"next_cursor"`
}

type LeaderboardRow struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

func newPostView(p models.Post, names map[string]string) PostView {
	return PostView{
		ID:            p.ID,
		AuthorID:      p.AuthorID,
		Author:        names[p.AuthorID],
		Content:       p.Content,
		AllowComments: p.AllowComments,
		CreatedAt:     p.CreatedAt,
	}
}

func newCommentView(c models.Comment, names map[string]string) *CommentView {
	return &CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		ParentID:  c.ParentID,
		AuthorID:  c.AuthorID,
		Author:    names[c.AuthorID],
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
		Children:  []*CommentView{},
	}
}

// commentViews converts a built forest without recursion so that arbitrarily
// deep reply chains are safe.
func commentViews(forest []*models.CommentNode, names map[string]string) []*CommentView {
	type pending struct {
		node *models.CommentNode
		view *CommentView
	}

	roots := make([]*CommentView, len(forest))
	stack := make([]pending, 0, len(forest))
	for i, node := range forest {
		roots[i] = newCommentView(node.Comment, names)
		stack = append(stack, pending{node: node, view: roots[i]})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		top.view.Children = make([]*CommentView, len(top.node.Children))
		for i, child := range top.node.Children {
			top.view.Children[i] = newCommentView(child.Comment, names)
			stack = append(stack, pending{node: child, view: top.view.Children[i]})
		}
	}
	return roots
}
