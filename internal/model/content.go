// Package model defines the shared data types passed between the agent's
// components: conversation content, messages, tool calls/results, and run
// outcomes. Types here are plain data — no behavior beyond small helpers —
// so every other package in this module can depend on them without
// import cycles.
package model

// ContentKind discriminates the Content tagged variant.
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentImage ContentKind = "image"
)

// Content is a sum type of {Text, Image}, implemented as a tagged struct
// rather than an interface with dynamic dispatch so the purger (see
// internal/message) can pattern-match on Kind directly. Exactly one of
// Text/ImageData is meaningful, selected by Kind.
//
// Tag and Lifespan are optional purge metadata: Tag is a free-form string
// the purger matches against; Lifespan is "keep this item in at most the
// last N user-visible messages, then strip it but keep the message". A
// zero Lifespan means unbounded (never stripped by lifespan alone).
type Content struct {
	Kind ContentKind

	Text string

	ImageData []byte
	MimeType  string

	Tag      string
	Lifespan int
}

// TextContent builds an untagged, unbounded-lifespan text content item.
func TextContent(text string) Content {
	return Content{Kind: ContentText, Text: text}
}

// ImageContent builds an untagged, unbounded-lifespan image content item.
func ImageContent(data []byte, mimeType string) Content {
	return Content{Kind: ContentImage, ImageData: data, MimeType: mimeType}
}

// WithTag returns a copy of c stamped with the given tag.
func (c Content) WithTag(tag string) Content {
	c.Tag = tag
	return c
}

// WithLifespan returns a copy of c stamped with the given lifespan.
func (c Content) WithLifespan(n int) Content {
	c.Lifespan = n
	return c
}

// HasTag reports whether c carries a non-empty tag equal to tag.
func (c Content) HasTag(tag string) bool {
	return c.Tag != "" && c.Tag == tag
}

// Stripped returns a copy of c with its payload removed but Kind/Tag
// preserved — used by the purger, which strips tagged content but keeps
// a placeholder so positional/role invariants on the enclosing message
// are undisturbed.
func (c Content) Stripped(placeholder string) Content {
	switch c.Kind {
	case ContentImage:
		return Content{Kind: ContentText, Text: placeholder, Tag: c.Tag}
	default:
		return Content{Kind: ContentText, Text: placeholder, Tag: c.Tag}
	}
}
