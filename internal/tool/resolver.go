package tool

import (
	"fmt"
	"sync"

	"github.com/steve-z-wang/webtask/internal/browser"
	"github.com/steve-z-wang/webtask/internal/dom"
	"github.com/steve-z-wang/webtask/internal/index"
)

// ElementResolver holds the current step's DOM tree and Element Index so
// element-action tools (click/fill/type/upload) can turn an `element_id`
// string like "button-3" into a CDP backend node id. Both are rebuilt
// from scratch every step (spec.md: IDs are snapshot-local only), so the
// resolver is a single mutable slot the Step Loop overwrites with Set
// before dispatching each assistant message's tool calls — never a
// per-tool-call snapshot.
type ElementResolver struct {
	mu       sync.RWMutex
	tree     *dom.Tree
	idx      *index.Index
	viewport browser.Viewport
}

// NewElementResolver returns a resolver with no snapshot set yet.
func NewElementResolver() *ElementResolver {
	return &ElementResolver{}
}

// Set installs tree and idx as what element-action tools resolve against
// until the next Set call. tree must be the same tree idx was built
// from. viewport is the page's viewport size when this snapshot's
// screenshot was captured — the reference frame pixel-action tools scale
// their x/y arguments against.
func (r *ElementResolver) Set(tree *dom.Tree, idx *index.Index, viewport browser.Viewport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree = tree
	r.idx = idx
	r.viewport = viewport
}

// Viewport returns the reference viewport from the most recent Set call.
func (r *ElementResolver) Viewport() browser.Viewport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.viewport
}

// Resolve looks up id in the current index, returning the node's CDP
// backend DOM node id. It fails with a message safe to surface directly
// in a ToolResult when id isn't present in this snapshot — most commonly
// because the page changed since the LLM last saw an observation.
func (r *ElementResolver) Resolve(id string) (int64, error) {
	r.mu.RLock()
	tree, idx := r.tree, r.idx
	r.mu.RUnlock()

	if idx == nil || tree == nil {
		return 0, fmt.Errorf("no element index available yet")
	}
	entry, ok := idx.Lookup(id)
	if !ok {
		return 0, fmt.Errorf("element %q not found in the current page snapshot", id)
	}
	node := tree.Node(entry.Ref)
	if node == nil {
		return 0, fmt.Errorf("element %q no longer resolves in the current page snapshot", id)
	}
	return node.BackendDOMNodeID, nil
}
