package filter

// defaultNonVisibleTags names elements that never render visible content,
// grounded on the reference non_visible_tags filter's default set.
var defaultNonVisibleTags = set(
	"script", "style", "meta", "link", "noscript", "template", "head", "title",
)

// defaultSemanticAttributes are the attributes worth keeping for an LLM's
// understanding of an element's behavior, purpose, or state — grounded on
// dom_processing/knowledge/attributes.go's SEMANTIC_ATTRIBUTES set.
var defaultSemanticAttributes = set(
	"role", "aria-label", "aria-labelledby", "aria-describedby", "aria-checked",
	"aria-selected", "aria-expanded", "aria-hidden", "aria-disabled", "aria-haspopup",
	"type", "name", "placeholder", "value", "accept", "alt", "title",
	"disabled", "checked", "selected", "tabindex", "onclick",
)

// defaultInteractiveTags are standard interactive HTML elements, grounded
// on dom/knowledge/interactive.go's INTERACTIVE_TAGS.
var defaultInteractiveTags = set("a", "button", "input", "select", "textarea", "label")

// defaultInteractiveRoles are standard interactive ARIA roles, grounded on
// dom/knowledge/interactive.go's INTERACTIVE_ROLES.
var defaultInteractiveRoles = set(
	"button", "link", "checkbox", "radio", "switch", "tab", "menuitem",
	"menuitemcheckbox", "menuitemradio", "option", "textbox", "searchbox",
	"combobox", "slider", "spinbutton",
)

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, s := range items {
		m[s] = struct{}{}
	}
	return m
}

// isInteractive reports whether a tag/attribute combination marks an
// element as interactive, following is_interactive's five criteria.
func isInteractive(cfg *Config, tag string, attrs map[string]string) bool {
	if _, ok := cfg.InteractiveTags[tag]; ok {
		return true
	}
	if role, ok := attrs["role"]; ok {
		if _, ok := cfg.InteractiveRoles[role]; ok {
			return true
		}
	}
	if _, ok := attrs["tabindex"]; ok {
		return true
	}
	if _, ok := attrs["aria-haspopup"]; ok {
		return true
	}
	if _, ok := attrs["onclick"]; ok {
		return true
	}
	return false
}
