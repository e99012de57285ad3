package filter

import (
	"strconv"
	"strings"

	"github.com/steve-z-wang/webtask/internal/dom"
)

// ApplyVisibility runs the four visibility stages in sequence — non-
// visible tags, CSS-hidden, no-layout, zero-dimensions — each consuming
// the previous stage's output tree. Every stage is independently
// toggleable via cfg and is a no-op pass-through when disabled, matching
// apply_visibility_filters's behavior.
func ApplyVisibility(tree *dom.Tree, cfg *Config) *dom.Tree {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.FilterNonVisibleTags {
		tree = filterNonVisibleTags(tree, cfg.NonVisibleTags)
	}
	if cfg.FilterCSSHidden {
		tree = filterCSSHidden(tree)
	}
	if cfg.FilterNoLayout {
		tree = filterNoLayout(tree)
	}
	if cfg.FilterZeroDimensions {
		tree = filterZeroDimensions(tree)
	}
	return tree
}

// filterNonVisibleTags drops any element whose tag is in tags, along
// with its entire subtree (descendants are never promoted).
func filterNonVisibleTags(tree *dom.Tree, tags map[string]struct{}) *dom.Tree {
	return deleteSubtreeIf(tree, func(n *dom.Node) bool {
		_, hidden := tags[n.Tag]
		return hidden
	})
}

// filterCSSHidden drops elements that CSS or HTML marks as hidden:
// display:none, visibility:hidden, opacity:0, the boolean hidden
// attribute, or <input type="hidden">. Matching is case-insensitive for
// style values and the hidden input's type attribute.
func filterCSSHidden(tree *dom.Tree) *dom.Tree {
	return deleteSubtreeIf(tree, func(n *dom.Node) bool {
		if n.Styles != nil {
			if strings.EqualFold(n.Styles.Display, "none") {
				return true
			}
			if strings.EqualFold(n.Styles.Visibility, "hidden") {
				return true
			}
			if opacity, err := strconv.ParseFloat(n.Styles.Opacity, 64); err == nil && opacity == 0 {
				return true
			}
		}
		if _, ok := n.Attributes["hidden"]; ok {
			return true
		}
		if n.Tag == "input" && strings.EqualFold(n.Attributes["type"], "hidden") {
			return true
		}
		return false
	})
}

// filterNoLayout drops elements the browser never laid out at all — no
// style and no bounds recorded by the snapshot.
func filterNoLayout(tree *dom.Tree) *dom.Tree {
	return deleteSubtreeIf(tree, func(n *dom.Node) bool {
		return !n.Styles.Present() && n.Bounds == nil
	})
}

// filterZeroDimensions drops elements whose bounds collapsed to zero
// width or height, unless at least one surviving element child (not a
// text leaf) remains after recursively filtering — a zero-size wrapper
// around real content is kept, but a zero-size leaf or a zero-size
// wrapper whose children were all filtered away is not.
func filterZeroDimensions(tree *dom.Tree) *dom.Tree {
	return deleteSubtreeIfChildren(tree, func(n *dom.Node, survivingChildren []*dom.Node) bool {
		if n.Bounds == nil || !n.Bounds.IsZero() {
			return false
		}
		for _, c := range survivingChildren {
			if c.IsElement() {
				return false
			}
		}
		return true
	})
}
