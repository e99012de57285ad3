package ax

import (
	"encoding/json"

	"github.com/chromedp/cdproto/accessibility"
)

// FromCDPNodes builds a Tree from a CDP Accessibility.getFullAXTree
// response, following the exact two-pass algorithm and fallback chain of
// the reference parser this package is grounded on: a node-creation pass
// that defaults a missing/empty role to "unknown", then a parent/child
// wiring pass that finds the root as the first node whose parentId is
// absent or not present in the tree, falling back to the first node
// created, and finally to a synthetic RootWebArea node if the input had
// no nodes at all.
func FromCDPNodes(nodes []*accessibility.Node) *Tree {
	if len(nodes) == 0 {
		return EmptyTree()
	}

	b := NewBuilder()
	refByID := make(map[string]NodeRef, len(nodes))
	parentOf := make(map[string]string, len(nodes))
	childrenOf := make(map[string][]string, len(nodes))

	for _, nd := range nodes {
		role := parseValue(nd.Role)
		if role == nil || role.Value == "" {
			role = &Value{Type: "role", Value: "unknown"}
		}

		n := Node{
			NodeID:         string(nd.NodeID),
			Ignored:        nd.Ignored,
			IgnoredReasons: parseIgnoredReasons(nd.IgnoredReasons),
			Role:           *role,
			ChromeRole:     parseValue(nd.ChromeRole),
			Name:           parseValue(nd.Name),
			Description:    parseValue(nd.Description),
			Value:          parseValue(nd.Value),
			Properties:     parseProperties(nd.Properties),
			FrameID:        string(nd.FrameID),
			Parent:         NoNode,
		}
		if nd.BackendDOMNodeID != 0 {
			n.BackendDOMNodeID = int64(nd.BackendDOMNodeID)
		}

		ref := b.Add(n)
		refByID[string(nd.NodeID)] = ref

		var childIDs []string
		for _, c := range nd.ChildIds {
			childIDs = append(childIDs, string(c))
		}
		childrenOf[string(nd.NodeID)] = childIDs
	}

	for _, nd := range nodes {
		if nd.ParentID != "" {
			parentOf[string(nd.NodeID)] = string(nd.ParentID)
		}
	}

	// Wire children using each node's own childIds list, not a reverse
	// lookup from parentId, matching the reference parser's behavior.
	for id, ref := range refByID {
		for _, childID := range childrenOf[id] {
			childRef, ok := refByID[childID]
			if !ok {
				continue
			}
			b.nodes[ref].Children = append(b.nodes[ref].Children, childRef)
			b.nodes[childRef].Parent = ref
		}
	}

	var root NodeRef = NoNode
	for _, nd := range nodes {
		id := string(nd.NodeID)
		parentID, hasParent := parentOf[id]
		if !hasParent {
			root = refByID[id]
			break
		}
		if _, parentExists := refByID[parentID]; !parentExists {
			root = refByID[id]
			break
		}
	}
	if root == NoNode {
		root = refByID[string(nodes[0].NodeID)]
	}

	return b.Build(root)
}

func parseValue(v *accessibility.AXValue) *Value {
	if v == nil {
		return nil
	}
	out := &Value{Type: string(v.Type)}
	if len(v.Value) > 0 {
		out.Value = rawToString(v.Value)
	}
	for _, s := range v.Sources {
		if s == nil || s.Value == nil || len(s.Value.Value) == 0 {
			continue
		}
		out.Sources = append(out.Sources, rawToString(s.Value.Value))
	}
	return out
}

func parseProperties(props []*accessibility.AXProperty) []Property {
	if len(props) == 0 {
		return nil
	}
	out := make([]Property, 0, len(props))
	for _, p := range props {
		if p == nil {
			continue
		}
		prop := Property{Name: string(p.Name)}
		if v := parseValue(p.Value); v != nil {
			prop.Value = *v
		}
		out = append(out, prop)
	}
	return out
}

func parseIgnoredReasons(reasons []*accessibility.AXProperty) []string {
	if len(reasons) == 0 {
		return nil
	}
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r == nil {
			continue
		}
		out = append(out, string(r.Name))
	}
	return out
}

// rawToString unwraps a JSON-encoded scalar (CDP ships AXValue.Value as
// raw JSON, usually a quoted string, sometimes a bare number/bool) into
// its plain text form; values that fail to decode are passed through
// verbatim rather than dropped.
func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
