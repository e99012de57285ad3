package filter

import "github.com/steve-z-wang/webtask/internal/ax"

// ApplyAccessibility runs the four accessibility-tree reduction stages
// in sequence: ignored nodes, generic-role wrappers, none-role wrappers,
// duplicate-name nodes. Each stage is a specialization of the same
// bottom-up predicate filter (filterByPredicate).
func ApplyAccessibility(tree *ax.Tree) *ax.Tree {
	tree = filterByPredicate(tree, func(_ ax.NodeRef, n *ax.Node) bool {
		return n.Ignored
	})
	tree = filterByPredicate(tree, func(_ ax.NodeRef, n *ax.Node) bool {
		return n.RoleName() == "generic"
	})
	tree = filterByPredicate(tree, func(_ ax.NodeRef, n *ax.Node) bool {
		return n.RoleName() == "none"
	})
	tree = filterByPredicate(tree, hasDuplicateName(tree))
	return tree
}

// hasDuplicateName returns a predicate that drops a node whose
// accessible name is contained in the name of its nearest named
// ancestor — walked on the *original* tree's parent chain, since
// filterByPredicate evaluates the predicate against pre-filter nodes
// before rebuilding the arena.
func hasDuplicateName(tree *ax.Tree) func(ref ax.NodeRef, n *ax.Node) bool {
	return func(ref ax.NodeRef, n *ax.Node) bool {
		name := n.NameText()
		if name == "" {
			return false
		}
		parent := n.Parent
		for parent != ax.NoNode {
			pn := tree.Node(parent)
			if pn == nil {
				break
			}
			if ancestorName := pn.NameText(); ancestorName != "" {
				return containsSubstring(ancestorName, name)
			}
			parent = pn.Parent
		}
		return false
	}
}

func containsSubstring(haystack, needle string) bool {
	return len(needle) > 0 && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	n, m := len(haystack), len(needle)
	if m > n {
		return -1
	}
	for i := 0; i+m <= n; i++ {
		if haystack[i:i+m] == needle {
			return i
		}
	}
	return -1
}

// filterByPredicate implements the reference filter_by_predicate
// algorithm: recursively filter children bottom-up first, then if the
// node itself matches shouldRemove, apply promotion rules (no surviving
// children -> delete; one surviving child -> promote it; multiple ->
// keep as a wrapper); otherwise keep the node with its filtered children.
func filterByPredicate(tree *ax.Tree, shouldRemove func(ref ax.NodeRef, n *ax.Node) bool) *ax.Tree {
	if tree == nil || tree.Root == ax.NoNode {
		return tree
	}
	b := ax.NewBuilder()

	var visit func(ref ax.NodeRef) ax.NodeRef
	visit = func(ref ax.NodeRef) ax.NodeRef {
		n := tree.Node(ref)
		if n == nil {
			return ax.NoNode
		}

		var filteredChildren []ax.NodeRef
		for _, c := range n.Children {
			if cr := visit(c); cr != ax.NoNode {
				filteredChildren = append(filteredChildren, cr)
			}
		}

		if shouldRemove(ref, n) {
			switch len(filteredChildren) {
			case 0:
				return ax.NoNode
			case 1:
				return filteredChildren[0]
			}
		}

		clone := cloneAXNode(n)
		clone.Children = filteredChildren
		return b.Add(clone)
	}

	newRoot := visit(tree.Root)
	if newRoot == ax.NoNode {
		return ax.EmptyTree()
	}
	out := b.Build(newRoot)
	ax.RelinkParents(out)
	return out
}

func cloneAXNode(n *ax.Node) ax.Node {
	clone := *n
	clone.Children = nil
	clone.Parent = ax.NoNode
	return clone
}
