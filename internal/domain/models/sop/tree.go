package sop

// TreeNode is a node with its resolved children, ordered ascending by
// sort_order within every sibling group.
type TreeNode struct {
	Node
	Children []*TreeNode `json:"children"`
}

// Tree is the built forest for one document: the root-level nodes in order.
type Tree struct {
	DocumentID string      `json:"document_id"`
	Roots      []*TreeNode `json:"roots"`
}

// Flatten returns the tree's nodes in depth-first order, parents before
// children, siblings in sort order.
func (t *Tree) Flatten() []Node {
	var out []Node
	var walk func(nodes []*TreeNode)
	walk = func(nodes []*TreeNode) {
		for _, n := range nodes {
			out = append(out, n.Node)
			walk(n.Children)
		}
	}
	walk(t.Roots)
	return out
}
