package index

import (
	"testing"

	"github.com/steve-z-wang/webtask/internal/dom"
)

func buildFixture() *dom.Tree {
	b := dom.NewBuilder()
	button1 := b.Add(dom.Node{Tag: "button", Bounds: &dom.Bounds{X: 0, Y: 0, Width: 10, Height: 10}})
	link := b.Add(dom.Node{Tag: "a", Attributes: map[string]string{"href": "/x"}})
	button2 := b.Add(dom.Node{Tag: "button", Bounds: &dom.Bounds{X: 100, Y: 200, Width: 20, Height: 4}})
	div := b.Add(dom.Node{Tag: "div"}) // not interactive
	root := b.Add(dom.Node{Tag: "body", Children: []dom.NodeRef{button1, link, div, button2}})
	tree := b.Build(root)
	dom.RelinkParents(tree)
	return tree
}

func TestBuildAssignsPerTagSequentialIDs(t *testing.T) {
	tree := buildFixture()
	idx := Build(tree, DefaultInteractive(defaultTags(), defaultRoles()))

	if idx.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (2 buttons + 1 link, div excluded)", idx.Len())
	}

	entries := idx.Entries()
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	want := []string{"button-0", "a-0", "button-1"}
	for i, w := range want {
		if ids[i] != w {
			t.Errorf("Entries()[%d].ID = %q, want %q (got order %v)", i, ids[i], w, ids)
		}
	}
}

// TestBuildIsStableAcrossRepeatedIndexing covers spec.md §8's named
// invariant: indexing the same tree twice yields identical IDs.
func TestBuildIsStableAcrossRepeatedIndexing(t *testing.T) {
	tree := buildFixture()
	pred := DefaultInteractive(defaultTags(), defaultRoles())

	first := Build(tree, pred)
	second := Build(tree, pred)

	if first.Len() != second.Len() {
		t.Fatalf("Len() differs across runs: %d vs %d", first.Len(), second.Len())
	}
	for _, e := range first.Entries() {
		again, ok := second.Lookup(e.ID)
		if !ok {
			t.Fatalf("id %q present in first index but missing from second", e.ID)
		}
		if again.Ref != e.Ref || again.Tag != e.Tag {
			t.Errorf("entry for %q changed across runs: %+v vs %+v", e.ID, e, again)
		}
	}
}

func TestLookupMissingIDReturnsFalse(t *testing.T) {
	tree := buildFixture()
	idx := Build(tree, DefaultInteractive(defaultTags(), defaultRoles()))

	if _, ok := idx.Lookup("button-99"); ok {
		t.Error("expected Lookup to report false for an ID never assigned")
	}
}

func TestBuildComputesCenterFromBounds(t *testing.T) {
	tree := buildFixture()
	idx := Build(tree, DefaultInteractive(defaultTags(), defaultRoles()))

	entry, ok := idx.Lookup("button-1")
	if !ok {
		t.Fatal("expected button-1 to be indexed")
	}
	if entry.Center.X != 110 || entry.Center.Y != 202 {
		t.Errorf("Center = %+v, want {110 202}", entry.Center)
	}
}

func defaultTags() map[string]struct{} {
	return map[string]struct{}{"a": {}, "button": {}, "input": {}, "select": {}, "textarea": {}, "label": {}}
}

func defaultRoles() map[string]struct{} {
	return map[string]struct{}{"button": {}, "link": {}}
}
