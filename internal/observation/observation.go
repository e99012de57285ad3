// Package observation implements the Observation Builder (C5): it turns
// a filtered DOM tree and the Element Indexer's output into the text +
// screenshot snapshot that gets appended to the conversation each step.
package observation

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/steve-z-wang/webtask/internal/dom"
	"github.com/steve-z-wang/webtask/internal/index"
	"github.com/steve-z-wang/webtask/internal/model"
)

// ObservationTag is stamped on both content items this package produces
// so the Message Log's purger (internal/message) can find and strip them
// once newer observations have arrived. Exported so the step loop can
// pass the same literal to message.Purge without duplicating it.
const ObservationTag = "observation"

const observationTag = ObservationTag

// observationLifespan bounds how many user-visible messages an
// observation survives in full before the purger strips it.
const observationLifespan = 2

// Screenshot is a single PNG capture plus its MIME type, kept this
// narrow so callers (internal/browser implementations) don't need to
// depend on this package just to produce one.
type Screenshot struct {
	PNG []byte
}

// Build serializes tree into one TextContent and screenshot into one
// ImageContent, both tagged "observation" with lifespan 2. idx supplies
// the `[id]` prefixes for indexed (interactive) elements.
func Build(tree *dom.Tree, idx *index.Index, shot *Screenshot) []model.Content {
	idByRef := make(map[dom.NodeRef]string, idx.Len())
	for _, e := range idx.Entries() {
		idByRef[e.Ref] = e.ID
	}

	var b lineBuilder
	if tree != nil && tree.Root != dom.NoNode {
		serializeNode(&b, tree, tree.Root, idByRef, 0)
	}

	items := []model.Content{
		model.TextContent(b.String()).WithTag(observationTag).WithLifespan(observationLifespan),
	}
	if shot != nil {
		items = append(items, model.ImageContent(shot.PNG, "image/png").WithTag(observationTag).WithLifespan(observationLifespan))
	}
	return items
}

// serializeNode writes one line per kept node in document order, each
// indented two spaces per depth: "[id] <tag attr=val…> text" for
// elements, bare text for text leaves. Output is purely a function of
// the tree and index, so two calls on the same inputs always agree.
func serializeNode(b *lineBuilder, tree *dom.Tree, ref dom.NodeRef, idByRef map[dom.NodeRef]string, depth int) {
	n := tree.Node(ref)
	if n == nil {
		return
	}
	indent := strings.Repeat("  ", depth)

	if n.IsText() {
		text := strings.TrimSpace(*n.Text)
		if text != "" {
			b.add(indent + text)
		}
		return
	}

	var line strings.Builder
	line.WriteString(indent)
	if id, ok := idByRef[ref]; ok {
		line.WriteString("[" + id + "] ")
	}
	line.WriteString("<" + n.Tag)
	for _, k := range sortedKeys(n.Attributes) {
		fmt.Fprintf(&line, " %s=%q", k, n.Attributes[k])
	}
	line.WriteString(">")
	b.add(line.String())

	for _, c := range n.Children {
		serializeNode(b, tree, c, idByRef, depth+1)
	}
}

// sortedKeys returns m's keys in a stable, deterministic order so
// serialization never depends on Go's randomized map iteration.
func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// lineBuilder accumulates lines joined by newlines, the same small
// pattern the reference prompt builder uses for markdown composition.
type lineBuilder struct {
	lines []string
}

func (b *lineBuilder) add(line string) {
	b.lines = append(b.lines, line)
}

func (b *lineBuilder) String() string {
	return strings.Join(b.lines, "\n")
}

// Base64PNG is a convenience for callers that need the raw base64 form
// (e.g. constructing a provider-specific image block outside this
// package's Content representation).
func Base64PNG(shot *Screenshot) string {
	if shot == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(shot.PNG)
}
