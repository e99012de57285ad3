package filter

import "github.com/steve-z-wang/webtask/internal/dom"

// cloneNode makes a value copy of n suitable for inserting into a new
// arena: maps are duplicated so later in-place edits (e.g. filterAttributes)
// never touch the source tree, and Children/Parent are reset for the
// caller to fill in.
func cloneNode(n *dom.Node) dom.Node {
	clone := *n
	if n.Attributes != nil {
		clone.Attributes = make(map[string]string, len(n.Attributes))
		for k, v := range n.Attributes {
			clone.Attributes[k] = v
		}
	}
	if n.Extra != nil {
		clone.Extra = make(map[string]string, len(n.Extra))
		for k, v := range n.Extra {
			clone.Extra[k] = v
		}
	}
	clone.Children = nil
	clone.Parent = dom.NoNode
	return clone
}

// deleteSubtreeIf rebuilds tree into a new arena, dropping any element
// node (and its entire subtree) for which remove returns true. Text
// leaves are never passed to remove and are always kept. remove is
// evaluated bottom-up, so by the time it runs on a node its children have
// already been filtered — but remove only sees the *original* node, not
// which children survived; see deleteSubtreeIfChildren for predicates
// that need that (zero-dimensions).
func deleteSubtreeIf(tree *dom.Tree, remove func(n *dom.Node) bool) *dom.Tree {
	return deleteSubtreeIfChildren(tree, func(n *dom.Node, survivingChildren []*dom.Node) bool {
		return remove(n)
	})
}

// deleteSubtreeIfChildren is deleteSubtreeIf's general form: remove is
// given the node and the (already-filtered) nodes of the children that
// survived recursion, so a predicate can condition on what remains below
// it (e.g. "drop this zero-size node unless it has a surviving element
// child").
func deleteSubtreeIfChildren(tree *dom.Tree, remove func(n *dom.Node, survivingChildren []*dom.Node) bool) *dom.Tree {
	if tree == nil || tree.Root == dom.NoNode {
		return tree
	}
	b := dom.NewBuilder()

	var visit func(ref dom.NodeRef) (dom.NodeRef, bool)
	visit = func(ref dom.NodeRef) (dom.NodeRef, bool) {
		n := tree.Node(ref)
		if n == nil {
			return dom.NoNode, false
		}
		if n.IsText() {
			newRef := b.Add(cloneNode(n))
			return newRef, true
		}

		var newChildRefs []dom.NodeRef
		var newChildNodes []*dom.Node
		for _, c := range n.Children {
			if cr, ok := visit(c); ok {
				newChildRefs = append(newChildRefs, cr)
			}
		}
		for _, cr := range newChildRefs {
			newChildNodes = append(newChildNodes, b.Peek(cr))
		}

		if remove(n, newChildNodes) {
			return dom.NoNode, false
		}

		clone := cloneNode(n)
		clone.Children = newChildRefs
		newRef := b.Add(clone)
		return newRef, true
	}

	newRoot, ok := visit(tree.Root)
	if !ok {
		return &dom.Tree{Root: dom.NoNode}
	}
	out := b.Build(newRoot)
	dom.RelinkParents(out)
	return out
}

// transformEachElement rebuilds tree applying transform to every element
// node's attributes (text leaves and tree structure are unchanged). Used
// by the attribute whitelist and presentational-role stages.
func transformEachElement(tree *dom.Tree, transform func(n *dom.Node)) *dom.Tree {
	if tree == nil || tree.Root == dom.NoNode {
		return tree
	}
	b := dom.NewBuilder()
	var visit func(ref dom.NodeRef) dom.NodeRef
	visit = func(ref dom.NodeRef) dom.NodeRef {
		n := tree.Node(ref)
		clone := cloneNode(n)
		if n.IsElement() {
			transform(&clone)
		}
		for _, c := range n.Children {
			clone.Children = append(clone.Children, visit(c))
		}
		return b.Add(clone)
	}
	newRoot := visit(tree.Root)
	out := b.Build(newRoot)
	dom.RelinkParents(out)
	return out
}
