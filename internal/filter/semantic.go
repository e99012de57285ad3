package filter

import (
	"strings"

	"github.com/steve-z-wang/webtask/internal/dom"
)

// ApplySemantic runs the four semantic-reduction stages in sequence:
// attribute whitelist, presentational-role strip, empty-element drop,
// then wrapper collapse. Each is independently toggleable via cfg.
func ApplySemantic(tree *dom.Tree, cfg *Config) *dom.Tree {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.FilterAttributes {
		tree = filterAttributes(tree, cfg.SemanticAttrs)
	}
	if cfg.FilterPresentationalRole {
		tree = filterPresentationalRoles(tree)
	}
	if cfg.FilterEmpty {
		tree = filterEmpty(tree, cfg)
	}
	if cfg.CollapseWrappers {
		tree = collapseWrappers(tree)
	}
	return tree
}

// filterAttributes strips every attribute not in keep from every
// element, matched case-sensitively and exactly (no prefix matching).
func filterAttributes(tree *dom.Tree, keep map[string]struct{}) *dom.Tree {
	return transformEachElement(tree, func(n *dom.Node) {
		kept := make(map[string]string, len(n.Attributes))
		for k, v := range n.Attributes {
			if _, ok := keep[k]; ok {
				kept[k] = v
			}
		}
		n.Attributes = kept
	})
}

// filterPresentationalRoles removes role="none"/role="presentation"
// (case-insensitive, unstripped — leading/trailing whitespace in the
// value defeats the match, matching the reference implementation) since
// those roles carry no semantic information for an LLM.
func filterPresentationalRoles(tree *dom.Tree) *dom.Tree {
	return transformEachElement(tree, func(n *dom.Node) {
		role, ok := n.Attributes["role"]
		if !ok {
			return
		}
		lower := strings.ToLower(role)
		if lower == "none" || lower == "presentation" {
			delete(n.Attributes, "role")
		}
	})
}

// filterEmpty drops elements that carry no attributes, no non-whitespace
// text, and no surviving element children — unless the tag or its role
// marks it interactive, in which case it is always kept (an empty
// <button> is still something the agent can click).
func filterEmpty(tree *dom.Tree, cfg *Config) *dom.Tree {
	return deleteSubtreeIfChildren(tree, func(n *dom.Node, survivingChildren []*dom.Node) bool {
		if isInteractive(cfg, n.Tag, n.Attributes) {
			return false
		}
		if len(n.Attributes) > 0 {
			return false
		}
		for _, c := range survivingChildren {
			if c.IsElement() {
				return false
			}
			if c.IsText() && strings.TrimSpace(*c.Text) != "" {
				return false
			}
		}
		return true
	})
}

// collapseWrappers recursively collapses an attribute-less element with
// exactly one surviving element child and no meaningful (non-whitespace)
// text among its other children, replacing it with that child directly.
// Collapsing happens bottom-up so chains of nested wrappers reduce to
// the innermost meaningful element in one pass.
func collapseWrappers(tree *dom.Tree) *dom.Tree {
	if tree == nil || tree.Root == dom.NoNode {
		return tree
	}
	b := dom.NewBuilder()

	var visit func(ref dom.NodeRef) dom.NodeRef
	visit = func(ref dom.NodeRef) dom.NodeRef {
		n := tree.Node(ref)
		if n.IsText() {
			return b.Add(cloneNode(n))
		}

		var childRefs []dom.NodeRef
		for _, c := range n.Children {
			childRefs = append(childRefs, visit(c))
		}

		var elementChildRefs []dom.NodeRef
		hasMeaningfulText := false
		for _, cr := range childRefs {
			cn := b.Peek(cr)
			if cn.IsElement() {
				elementChildRefs = append(elementChildRefs, cr)
			} else if cn.IsText() && strings.TrimSpace(*cn.Text) != "" {
				hasMeaningfulText = true
			}
		}

		if len(n.Attributes) == 0 && len(elementChildRefs) == 1 && !hasMeaningfulText {
			return elementChildRefs[0]
		}

		clone := cloneNode(n)
		clone.Children = childRefs
		return b.Add(clone)
	}

	newRoot := visit(tree.Root)
	out := b.Build(newRoot)
	dom.RelinkParents(out)
	return out
}
