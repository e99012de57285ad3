// Package filter implements the Filter Pipeline (C3): a sequence of pure
// transforms that strip a DOM Tree (internal/dom) and an Accessibility
// Tree (internal/ax) down to the subset of information worth spending
// context-window tokens on. Every stage returns a brand-new tree rather
// than mutating its input, grounded on the arena-Builder purity guarantee
// documented in internal/dom and internal/ax.
package filter

// Config toggles the visibility and semantic filter stages, mirroring
// the reference implementation's DomFilterConfig.
type Config struct {
	FilterNonVisibleTags bool
	FilterCSSHidden      bool
	FilterNoLayout       bool
	FilterZeroDimensions bool

	FilterAttributes         bool
	FilterPresentationalRole bool
	FilterEmpty              bool
	CollapseWrappers         bool

	NonVisibleTags    map[string]struct{}
	SemanticAttrs     map[string]struct{}
	InteractiveTags   map[string]struct{}
	InteractiveRoles  map[string]struct{}
}

// DefaultConfig enables every stage with the default knowledge sets.
func DefaultConfig() *Config {
	return &Config{
		FilterNonVisibleTags:     true,
		FilterCSSHidden:          true,
		FilterNoLayout:           true,
		FilterZeroDimensions:     true,
		FilterAttributes:         true,
		FilterPresentationalRole: true,
		FilterEmpty:              true,
		CollapseWrappers:         true,
		NonVisibleTags:           defaultNonVisibleTags,
		SemanticAttrs:            defaultSemanticAttributes,
		InteractiveTags:          defaultInteractiveTags,
		InteractiveRoles:         defaultInteractiveRoles,
	}
}
