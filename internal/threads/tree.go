package threads

import (
	"sort"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

// Node is one comment with its direct replies.
type Node struct {
	models.Comment
	Replies []*Node `json:"replies"`
}

// Tree groups comments under their parents: roots newest first, each
// parent's replies oldest first. Comments whose parent is not in the slice
// are promoted to roots so nothing is dropped.
func Tree(comments []models.Comment) []*Node {
	nodes := make(map[int]*Node, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &Node{Comment: comments[i], Replies: []*Node{}}
	}

	roots := []*Node{}
	for i := range comments {
		n := nodes[comments[i].ID]
		if pid := n.ParentCommentID; pid != nil {
			if parent, ok := nodes[*pid]; ok && parent != n {
				parent.Replies = append(parent.Replies, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	sort.SliceStable(roots, func(i, j int) bool {
		a, b := roots[i], roots[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	for _, n := range nodes {
		sort.SliceStable(n.Replies, func(i, j int) bool {
			a, b := n.Replies[i], n.Replies[j]
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		})
	}
	return roots
}
