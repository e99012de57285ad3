// Package ax implements the Accessibility Tree intermediate representation
// (C2): a tree of AXNodes carrying semantic role/name/description/value
// information from a browser's accessibility snapshot, used to complement
// the DOM Tree (internal/dom) with information the DOM alone does not
// carry (ARIA roles, ignored/ignoredReasons, computed accessible name).
//
// Like internal/dom, trees here are arena-backed: a Tree owns a flat node
// slice and parent/child links are indices, so the Filter Pipeline (C3)
// can build a brand-new arena per transform instead of mutating a shared
// tree in place.
package ax

// NodeRef indexes into a Tree's node arena.
type NodeRef int

const NoNode NodeRef = -1

// Value is a typed accessibility value (role, name, description, or any
// other AXValue-shaped property), mirroring the CDP AXValue shape: a type
// tag, an opaque value, and — for values of type "idref"/"idrefList" and
// similar — the backing element sources.
type Value struct {
	Type    string
	Value   string
	Sources []string
}

// HasValue reports whether v carries a non-empty value.
func (v *Value) HasValue() bool {
	return v != nil && v.Value != ""
}

// Property is one CDP AXProperty: a name plus its typed value.
type Property struct {
	Name  string
	Value Value
}

// Node is one accessibility-tree node.
type Node struct {
	NodeID           string
	BackendDOMNodeID int64

	Ignored        bool
	IgnoredReasons []string

	Role        Value
	ChromeRole  *Value
	Name        *Value
	Description *Value
	Value       *Value
	Properties  []Property

	FrameID string

	Parent   NodeRef
	Children []NodeRef
}

// RoleName returns the node's role string, defaulting to "unknown" to
// match the parser's default-on-missing-role rule.
func (n *Node) RoleName() string {
	if n.Role.Value == "" {
		return "unknown"
	}
	return n.Role.Value
}

// NameText returns the node's accessible name, or "" if it has none.
func (n *Node) NameText() string {
	if n.Name == nil {
		return ""
	}
	return n.Name.Value
}

// Tree is an arena of Nodes plus the root index.
type Tree struct {
	Nodes []Node
	Root  NodeRef
}

func (t *Tree) Node(ref NodeRef) *Node {
	if ref < 0 || int(ref) >= len(t.Nodes) {
		return nil
	}
	return &t.Nodes[ref]
}

func (t *Tree) RootNode() *Node {
	return t.Node(t.Root)
}

// Parent returns n's parent node, or nil at the root.
func (t *Tree) Parent(ref NodeRef) *Node {
	n := t.Node(ref)
	if n == nil || n.Parent == NoNode {
		return nil
	}
	return t.Node(n.Parent)
}

// Walk performs a depth-first preorder traversal from the root.
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

// EmptyTree returns a single synthetic RootWebArea node, the fallback
// used when a snapshot carries no nodes at all.
func EmptyTree() *Tree {
	return &Tree{
		Nodes: []Node{{NodeID: "root", Role: Value{Type: "role", Value: "RootWebArea"}, Parent: NoNode}},
		Root:  0,
	}
}

// RelinkParents walks t from its root and sets every node's Parent field
// to match the Children edges recorded by its ancestor, mirroring
// dom.RelinkParents for the same bottom-up-build reason.
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

// NewBuilder returns an empty arena builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Builder accumulates Nodes for a new Tree, used by parsers and by the
// Filter Pipeline's bottom-up predicate filter to construct a fresh arena.
type Builder struct {
	nodes []Node
}

func (b *Builder) Add(n Node) NodeRef {
	b.nodes = append(b.nodes, n)
	return NodeRef(len(b.nodes) - 1)
}

func (b *Builder) Build(root NodeRef) *Tree {
	return &Tree{Nodes: b.nodes, Root: root}
}

// Peek returns a pointer to the already-added node at ref. The pointer
// is only valid until the next Add call.
func (b *Builder) Peek(ref NodeRef) *Node {
	if ref < 0 || int(ref) >= len(b.nodes) {
		return nil
	}
	return &b.nodes[ref]
}
