package dom

import (
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/domsnapshot"
)

// nodeTypeElement and nodeTypeText are DOM nodeType values (CDP/DOM spec
// constants, not exported by cdproto as a typed enum for this use).
const (
	nodeTypeElement = 1
	nodeTypeText    = 3
)

// styleIndex names the computed-style entries captured by
// CaptureSnapshotParams.ComputedStyles; callers must request exactly
// these three, in this order, for FromSnapshot to attach Styles.
var styleIndex = []string{"display", "visibility", "opacity"}

// stringResolver closes over a snapshot's string table. Out-of-range or
// negative indices resolve to the empty string rather than panicking,
// per spec.md §4.1's "String resolver" rule — browser snapshots routinely
// carry sentinel -1 indices for "no value".
type stringResolver struct {
	strings []string
}

func (r stringResolver) resolve(i int32) string {
	if i < 0 || int(i) >= len(r.strings) {
		return ""
	}
	return r.strings[i]
}

// FromSnapshot builds a Tree from one document of a CDP
// DOMSnapshot.captureSnapshot response, implementing the three-pass
// algorithm from spec.md §4.1: a node-creation pass over the flat node
// array (elements only), a tree-wiring pass linking each element to its
// parent via parentIndex, and a text-materialization pass that appends a
// Text leaf to its nearest element ancestor for every non-whitespace
// nodeType==3 entry.
func FromSnapshot(doc *domsnapshot.DocumentSnapshot, strTable []string) (*Tree, error) {
	resolver := stringResolver{strings: strTable}
	b := NewBuilder()

	nodes := doc.Nodes
	count := len(nodes.NodeType)

	// layoutByNode maps a DOM node-array index to its layout-table entry,
	// since DOMSnapshot reports layout only for nodes that were actually
	// laid out, keyed by the parallel NodeIndex array.
	type layoutEntry struct {
		bounds *Bounds
		styles *Styles
	}
	layoutByNode := make(map[int]layoutEntry, len(doc.Layout.NodeIndex))
	for i, nodeIdx := range doc.Layout.NodeIndex {
		entry := layoutEntry{}
		if i < len(doc.Layout.Bounds) {
			entry.bounds = parseBounds(doc.Layout.Bounds[i])
		}
		if i < len(doc.Layout.Styles) {
			entry.styles = parseStyles(doc.Layout.Styles[i], resolver)
		}
		layoutByNode[int(nodeIdx)] = entry
	}

	// Pass 1: node creation. refByIndex maps a snapshot node-array index
	// to the arena ref we created for it; non-element indices are left
	// unset (zero value NoNode is not distinguishable from ref 0, so we
	// track presence separately).
	refByIndex := make(map[int]NodeRef, count)
	for i := 0; i < count; i++ {
		if nodes.NodeType[i] != nodeTypeElement {
			continue
		}
		tag := strings_ToLower(resolver.resolve(int32(nodes.NodeName[i])))
		attrs := map[string]string{}
		if i < len(nodes.Attributes) {
			flat := nodes.Attributes[i]
			for j := 0; j+1 < len(flat); j += 2 {
				key := resolver.resolve(int32(flat[j]))
				val := resolver.resolve(int32(flat[j+1]))
				attrs[key] = val
			}
		}

		n := Node{
			Tag:        tag,
			Attributes: attrs,
			Parent:     NoNode,
			CDPIndex:   i,
		}
		if i < len(nodes.BackendNodeID) {
			n.BackendDOMNodeID = int64(nodes.BackendNodeID[i])
		}
		if entry, ok := layoutByNode[i]; ok {
			n.Bounds = entry.bounds
			n.Styles = entry.styles
		}

		ref := b.Add(n)
		refByIndex[i] = ref
	}

	// Pass 2: tree wiring. Link each element to its parent by walking
	// parentIndex; non-element ancestors are skipped by following
	// parentIndex until an element (or the snapshot root) is reached,
	// since only element nodes exist in the arena.
	var root NodeRef = NoNode
	for i, ref := range refByIndex {
		parentIdx := i
		for {
			if parentIdx < 0 || parentIdx >= len(nodes.ParentIndex) {
				parentIdx = -1
				break
			}
			parentIdx = int(nodes.ParentIndex[parentIdx])
			if parentIdx < 0 {
				break
			}
			if parentRef, ok := refByIndex[parentIdx]; ok {
				parentNode := &b.nodes[parentRef]
				parentNode.Children = append(parentNode.Children, ref)
				b.nodes[ref].Parent = parentRef
				break
			}
			// parentIdx exists but is not an element (e.g. #document);
			// keep walking up until we find an element ancestor or run
			// out of parents.
		}
	}

	// Pass 3: text materialization. Each nodeType==3 entry becomes a Text
	// leaf appended to its nearest element ancestor, mirroring the
	// reference parser's _add_text_nodes: whitespace-only content is
	// dropped (matching the reference's own test_skips_empty_text), and a
	// text node whose walk-up finds no element ancestor is dropped too
	// (matching test_handles_missing_parent's "should not raise error").
	for i := 0; i < count; i++ {
		if nodes.NodeType[i] != nodeTypeText {
			continue
		}
		if i >= len(nodes.NodeValue) {
			continue
		}
		text := resolver.resolve(int32(nodes.NodeValue[i]))
		if strings.TrimSpace(text) == "" {
			continue
		}

		parentIdx := i
		parentRef := NoNode
		for {
			if parentIdx < 0 || parentIdx >= len(nodes.ParentIndex) {
				break
			}
			parentIdx = int(nodes.ParentIndex[parentIdx])
			if parentIdx < 0 {
				break
			}
			if ref, ok := refByIndex[parentIdx]; ok {
				parentRef = ref
				break
			}
		}
		if parentRef == NoNode {
			continue
		}

		textRef := b.Add(Node{Text: &text, Parent: parentRef})
		parentNode := &b.nodes[parentRef]
		parentNode.Children = append(parentNode.Children, textRef)
	}

	// Root selection: the first node whose walk-up found no element
	// ancestor; fall back to the first created node if none qualify.
	var firstRef NodeRef = NoNode
	for i := 0; i < len(b.nodes); i++ {
		ref := NodeRef(i)
		if firstRef == NoNode {
			firstRef = ref
		}
		if b.nodes[i].Parent == NoNode {
			root = ref
			break
		}
	}
	if root == NoNode {
		root = firstRef
	}

	return b.Build(root), nil
}

func parseBounds(rect []float64) *Bounds {
	if len(rect) < 4 {
		return nil
	}
	return &Bounds{X: rect[0], Y: rect[1], Width: rect[2], Height: rect[3]}
}

func parseStyles(flat []int32, resolver stringResolver) *Styles {
	s := &Styles{}
	for i, name := range styleIndex {
		if i >= len(flat) {
			break
		}
		v := resolver.resolve(flat[i])
		switch name {
		case "display":
			s.Display = v
		case "visibility":
			s.Visibility = v
		case "opacity":
			s.Opacity = v
		}
	}
	return s
}

func strings_ToLower(s string) string {
	return strings.ToLower(s)
}

// ParseOpacity interprets a CSS opacity string as the visibility
// pipeline does: an unparseable or missing value is treated as fully
// opaque (1), never as hidden.
func ParseOpacity(v string) float64 {
	if v == "" {
		return 1
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 1
	}
	return f
}
