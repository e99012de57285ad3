// Package index implements the Element Indexer (C4): it walks a
// filtered DOM tree and assigns stable-within-one-snapshot IDs to every
// interactive element, so the LLM can refer to elements by a short
// opaque token ("button-0") instead of a selector or coordinate.
package index

import (
	"fmt"

	"github.com/steve-z-wang/webtask/internal/dom"
)

// Point is a 2D coordinate in CSS pixels.
type Point struct {
	X, Y float64
}

// Entry is one indexed element: its ID, the DOM node it refers to, and
// the node's center point (used by pixel-action tools as a click target
// when no more specific anchor is given).
type Entry struct {
	ID     string
	Ref    dom.NodeRef
	Tag    string
	Center Point
}

// Index maps element IDs to their Entry. Two consecutive snapshots of
// the same page may assign different IDs to the same logical element —
// callers must not cache an Index across steps.
type Index struct {
	entries map[string]Entry
	order   []string
}

// Lookup returns the entry for id, or false if id is not present in this
// snapshot (e.g. it was valid last step but the page has changed).
func (idx *Index) Lookup(id string) (Entry, bool) {
	e, ok := idx.entries[id]
	return e, ok
}

// Entries returns all entries in traversal (document) order.
func (idx *Index) Entries() []Entry {
	out := make([]Entry, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.entries[id])
	}
	return out
}

// Len reports how many elements were indexed.
func (idx *Index) Len() int {
	return len(idx.order)
}

// InteractivePredicate decides whether a DOM node counts as interactive
// for indexing purposes (tag, ARIA role, or attribute-driven).
type InteractivePredicate func(n *dom.Node) bool

// DefaultInteractive matches spec.md's interactive-element rule: tag in
// the interactive tag set, ARIA role in the interactive role set, or one
// of tabindex/aria-haspopup/onclick present.
func DefaultInteractive(tags, roles map[string]struct{}) InteractivePredicate {
	return func(n *dom.Node) bool {
		if n.IsText() {
			return false
		}
		if _, ok := tags[n.Tag]; ok {
			return true
		}
		if role, ok := n.Attributes["role"]; ok {
			if _, ok := roles[role]; ok {
				return true
			}
		}
		if _, ok := n.Attributes["tabindex"]; ok {
			return true
		}
		if _, ok := n.Attributes["aria-haspopup"]; ok {
			return true
		}
		if _, ok := n.Attributes["onclick"]; ok {
			return true
		}
		return false
	}
}

// Build walks tree depth-first preorder, assigning "tag-N" IDs (N is a
// zero-based, per-tag counter) to every node isInteractive accepts.
func Build(tree *dom.Tree, isInteractive InteractivePredicate) *Index {
	idx := &Index{entries: make(map[string]Entry)}
	counters := make(map[string]int)

	tree.Walk(func(ref dom.NodeRef, n *dom.Node, depth int) {
		if !isInteractive(n) {
			return
		}
		id := fmt.Sprintf("%s-%d", n.Tag, counters[n.Tag])
		counters[n.Tag]++

		center := Point{}
		if n.Bounds != nil {
			center = Point{X: n.Bounds.X + n.Bounds.Width/2, Y: n.Bounds.Y + n.Bounds.Height/2}
		}

		idx.entries[id] = Entry{ID: id, Ref: ref, Tag: n.Tag, Center: center}
		idx.order = append(idx.order, id)
	})

	return idx
}
