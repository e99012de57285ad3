// Package dom implements the DOM Tree intermediate representation (C1):
// an in-memory tree of element nodes and text leaves built from a browser
// snapshot, with bounds/styles/attributes attached and stable parent
// back-references.
//
// Trees are arena-backed: a Tree owns a flat slice of nodes, and parent/
// child links are indices into that slice rather than pointers. This
// sidesteps cyclic-ownership problems a parent-pointer tree would create
// in a systems language without a tracing GC (see DESIGN NOTES in
// SPEC_FULL.md); Go does have a GC, but the arena shape is kept anyway so
// that Filter Pipeline stages can produce a new Tree (a new arena) for
// each transform instead of patching shared nodes in place.
package dom

// NodeRef indexes into a Tree's node arena. The zero value, NoNode, means
// "no node" (e.g. a node with no parent).
type NodeRef int

const NoNode NodeRef = -1

// Bounds are CSS-pixel layout bounds for a node, or nil when the node was
// never laid out.
type Bounds struct {
	X, Y, Width, Height float64
}

// IsZero reports whether the bounds collapse to zero width or height —
// the trigger condition for the visibility pipeline's zero-dimensions
// stage.
func (b *Bounds) IsZero() bool {
	return b == nil || b.Width == 0 || b.Height == 0
}

// Styles holds the three computed style properties the visibility
// pipeline inspects. Other computed styles are not retained.
type Styles struct {
	Display    string
	Visibility string
	Opacity    string
}

// Present reports whether any style or bounds information was attached —
// used by the "no layout" visibility stage to drop nodes that were never
// rendered at all.
func (s *Styles) Present() bool {
	return s != nil && (s.Display != "" || s.Visibility != "" || s.Opacity != "")
}

// Node is one element in the DOM tree arena. Either Tag is non-empty (an
// element node) or Text is non-nil (a text leaf, which never has children
// or attributes).
type Node struct {
	Tag        string
	Attributes map[string]string
	Styles     *Styles
	Bounds     *Bounds

	Text *string // non-nil for text leaves; Tag is empty for these

	Parent   NodeRef
	Children []NodeRef

	// Metadata mirrors spec.md's DomNode.metadata map; CDPIndex and
	// BackendDOMNodeID are tracked as first-class fields since every
	// parser and indexer needs them, with any remaining metadata in Extra.
	CDPIndex         int
	BackendDOMNodeID int64
	Extra            map[string]string
}

// IsText reports whether n is a text leaf rather than an element.
func (n *Node) IsText() bool {
	return n.Text != nil
}

// IsElement reports whether n is an element node (has a tag).
func (n *Node) IsElement() bool {
	return n.Text == nil
}

// Tree is an arena of Nodes plus the index of the root node.
type Tree struct {
	Nodes []Node
	Root  NodeRef
}

// EmptyTree returns a Tree with no nodes, the parse result for a
// DOMSnapshot with no documents (e.g. a page that hasn't navigated yet).
func EmptyTree() *Tree {
	return &Tree{Root: NoNode}
}

// Node returns the node at ref. Callers must only pass refs obtained from
// this same Tree.
func (t *Tree) Node(ref NodeRef) *Node {
	if ref < 0 || int(ref) >= len(t.Nodes) {
		return nil
	}
	return &t.Nodes[ref]
}

// RootNode returns the tree's root node, or nil for an empty tree.
func (t *Tree) RootNode() *Node {
	return t.Node(t.Root)
}

// Walk performs a depth-first preorder traversal starting at the root,
// invoking visit(ref, node, depth) for every node. Traversal is purely
// read-only; it is safe to call concurrently on an immutable Tree.
func (t *Tree) Walk(visit func(ref NodeRef, n *Node, depth int)) {
	if t.Root == NoNode {
		return
	}
	var walk func(ref NodeRef, depth int)
	walk = func(ref NodeRef, depth int) {
		n := t.Node(ref)
		if n == nil {
			return
		}
		visit(ref, n, depth)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	walk(t.Root, 0)
}

// RelinkParents walks t from its root and sets every node's Parent field
// to match the Children edges recorded by its ancestor. Filter Pipeline
// stages build a new arena bottom-up, so a child's ref is known before
// its parent's ref is allocated; calling RelinkParents once after the
// whole tree is built is simpler than patching Parent mid-construction.
func RelinkParents(t *Tree) {
	if t.Root == NoNode {
		return
	}
	t.Nodes[t.Root].Parent = NoNode
	var walk func(ref NodeRef)
	walk = func(ref NodeRef) {
		n := t.Node(ref)
		if n == nil {
			return
		}
		for _, c := range n.Children {
			if child := t.Node(c); child != nil {
				child.Parent = ref
			}
			walk(c)
		}
	}
	walk(t.Root)
}

// NewBuilder returns an empty arena builder used by parsers and filters
// to construct a new Tree.
func NewBuilder() *Builder {
	return &Builder{}
}

// Builder accumulates Nodes for a new Tree. Filters use it to build a
// fresh arena rather than mutating an existing Tree's node slice, which
// is what guarantees filter purity (spec.md §4.2 / §8).
type Builder struct {
	nodes []Node
}

// Add appends n to the arena and returns its new ref. Children/Parent on
// n should already use refs consistent with this builder's emerging
// arena (callers typically build bottom-up, so children are added before
// their parent).
func (b *Builder) Add(n Node) NodeRef {
	b.nodes = append(b.nodes, n)
	return NodeRef(len(b.nodes) - 1)
}

// Build finalizes the arena into a Tree rooted at root.
func (b *Builder) Build(root NodeRef) *Tree {
	return &Tree{Nodes: b.nodes, Root: root}
}

// Peek returns a pointer to the already-added node at ref, for callers
// that need to inspect a just-built child before adding its parent (e.g.
// a predicate conditioned on which children survived filtering). The
// pointer is only valid until the next Add call, since Add may grow and
// reallocate the underlying slice.
func (b *Builder) Peek(ref NodeRef) *Node {
	if ref < 0 || int(ref) >= len(b.nodes) {
		return nil
	}
	return &b.nodes[ref]
}
