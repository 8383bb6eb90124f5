// Package feed holds the pure computations behind the feed: comment threading and
// the like leaderboard. Nothing here performs I/O; callers fetch rows and pass
// them in.
package feed

import "github.com/ButyrinIA/socialfeed/internal/models"

// BuildCommentTree arranges the comments of one post into a forest of root
// comments. Replies keep the relative input order of their siblings.
//
// A comment is only reachable if its parent chain ends at a root that is also in
// the input, so orphans, self-parented comments and parent cycles are left out.
// Every id is attached at most once. The input slice is not modified; the
// returned nodes hold copies of the comments.
func BuildCommentTree(comments []models.Comment) []*models.CommentNode {
	roots := make([]int, 0)
	children := make(map[string][]int)

	for i := range comments {
		if comments[i].ParentID == nil {
			roots = append(roots, i)
			continue
		}
		parentID := *comments[i].ParentID
		children[parentID] = append(children[parentID], i)
	}

	forest := make([]*models.CommentNode, 0, len(roots))
	visited := make(map[string]struct{}, len(comments))
	stack := make([]*models.CommentNode, 0)

	for _, idx := range roots {
		id := comments[idx].ID
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}

		root := newNode(comments[idx])
		forest = append(forest, root)
		stack = append(stack, root)

		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			for _, childIdx := range children[node.ID] {
				childID := comments[childIdx].ID
				if _, seen := visited[childID]; seen {
					continue
				}
				visited[childID] = struct{}{}

				child := newNode(comments[childIdx])
				node.Children = append(node.Children, child)
				stack = append(stack, child)
			}
		}
	}

	return forest
}

// CountNodes returns the number of comments held by a forest.
func CountNodes(forest []*models.CommentNode) int {
	count := 0
	stack := append([]*models.CommentNode(nil), forest...)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		stack = append(stack, node.Children...)
	}
	return count
}

func newNode(c models.Comment) *models.CommentNode {
	if c.ParentID != nil {
		parentID := *c.ParentID
		c.ParentID = &parentID
	}
	return &models.CommentNode{Comment: c, Children: []*models.CommentNode{}}
}
