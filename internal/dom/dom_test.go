package dom

import "testing"

func TestBuilderAddPeekBuild(t *testing.T) {
	b := NewBuilder()
	leaf := b.Add(Node{Tag: "span"})
	root := b.Add(Node{Tag: "div", Children: []NodeRef{leaf}})

	if peeked := b.Peek(leaf); peeked == nil || peeked.Tag != "span" {
		t.Fatalf("Peek(leaf) = %+v, want the span node", peeked)
	}

	tree := b.Build(root)
	RelinkParents(tree)

	if tree.RootNode().Tag != "div" {
		t.Fatalf("RootNode().Tag = %q, want div", tree.RootNode().Tag)
	}
	if tree.Node(leaf).Parent != root {
		t.Errorf("leaf.Parent = %v, want root ref %v", tree.Node(leaf).Parent, root)
	}
}

func TestWalkVisitsPreorderWithDepth(t *testing.T) {
	b := NewBuilder()
	grandchild := b.Add(Node{Tag: "span"})
	child := b.Add(Node{Tag: "p", Children: []NodeRef{grandchild}})
	root := b.Add(Node{Tag: "div", Children: []NodeRef{child}})
	tree := b.Build(root)
	RelinkParents(tree)

	var tags []string
	var depths []int
	tree.Walk(func(_ NodeRef, n *Node, depth int) {
		tags = append(tags, n.Tag)
		depths = append(depths, depth)
	})

	wantTags := []string{"div", "p", "span"}
	wantDepths := []int{0, 1, 2}
	for i := range wantTags {
		if tags[i] != wantTags[i] || depths[i] != wantDepths[i] {
			t.Fatalf("Walk order/depth mismatch at %d: got (%s, %d), want (%s, %d)", i, tags[i], depths[i], wantTags[i], wantDepths[i])
		}
	}
}

func TestEmptyTreeHasNoRootAndWalkIsNoop(t *testing.T) {
	tree := EmptyTree()
	if tree.RootNode() != nil {
		t.Error("expected RootNode() to be nil for an empty tree")
	}
	visited := false
	tree.Walk(func(_ NodeRef, _ *Node, _ int) { visited = true })
	if visited {
		t.Error("expected Walk to visit nothing on an empty tree")
	}
}

func TestBoundsIsZero(t *testing.T) {
	cases := []struct {
		name string
		b    *Bounds
		want bool
	}{
		{"nil", nil, true},
		{"zero width", &Bounds{Width: 0, Height: 10}, true},
		{"zero height", &Bounds{Width: 10, Height: 0}, true},
		{"non-zero", &Bounds{Width: 10, Height: 10}, false},
	}
	for _, c := range cases {
		if got := c.b.IsZero(); got != c.want {
			t.Errorf("%s: IsZero() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestStylesPresent(t *testing.T) {
	if (&Styles{}).Present() {
		t.Error("an all-empty Styles should not be Present")
	}
	if !(&Styles{Display: "block"}).Present() {
		t.Error("a Styles with a non-empty field should be Present")
	}
	var nilStyles *Styles
	if nilStyles.Present() {
		t.Error("a nil *Styles should not be Present")
	}
}

func TestParseOpacityDefaultsToOpaque(t *testing.T) {
	if got := ParseOpacity(""); got != 1 {
		t.Errorf("ParseOpacity(\"\") = %v, want 1", got)
	}
	if got := ParseOpacity("not-a-number"); got != 1 {
		t.Errorf("ParseOpacity(garbage) = %v, want 1", got)
	}
	if got := ParseOpacity("0.5"); got != 0.5 {
		t.Errorf("ParseOpacity(\"0.5\") = %v, want 0.5", got)
	}
}

func TestStringResolverOutOfRangeResolvesEmpty(t *testing.T) {
	r := stringResolver{strings: []string{"div", "button"}}
	if got := r.resolve(-1); got != "" {
		t.Errorf("resolve(-1) = %q, want empty", got)
	}
	if got := r.resolve(5); got != "" {
		t.Errorf("resolve(5) = %q, want empty", got)
	}
	if got := r.resolve(1); got != "button" {
		t.Errorf("resolve(1) = %q, want button", got)
	}
}

func TestParseBoundsRejectsShortRect(t *testing.T) {
	if got := parseBounds([]float64{1, 2}); got != nil {
		t.Errorf("parseBounds(short rect) = %+v, want nil", got)
	}
	got := parseBounds([]float64{1, 2, 30, 40})
	if got == nil || got.X != 1 || got.Y != 2 || got.Width != 30 || got.Height != 40 {
		t.Errorf("parseBounds = %+v, want {1 2 30 40}", got)
	}
}

func TestParseStylesMapsIndexOrder(t *testing.T) {
	resolver := stringResolver{strings: []string{"none", "hidden", "0.3"}}
	s := parseStyles([]int32{0, 1, 2}, resolver)
	if s.Display != "none" || s.Visibility != "hidden" || s.Opacity != "0.3" {
		t.Errorf("parseStyles = %+v, want {none hidden 0.3}", s)
	}
}
