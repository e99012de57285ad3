package message

import "github.com/steve-z-wang/webtask/internal/model"

// Purge bounds the message log to keep at most keepLast messages'
// worth of tagged content intact, stripping the same tagged content
// items from every earlier message that carries them. roleFilter, if
// non-empty, restricts which messages are even considered for the
// cutoff scan (the reference's `message_types` parameter); when empty,
// every message is considered. Messages that never carried tagged
// content pass through untouched regardless of role.
//
// Grounded on original_source's purge_messages_content: find every
// (optionally role-filtered) message carrying at least one content item
// whose tag is in tags; keep the tagged content of the last keepLast
// such messages as-is; for every earlier one, drop just the tagged
// content items (the message itself, and any untagged content, survives
// with its role intact) — this is what lets a purged message "retain
// role but have no tagged content" (spec.md §8 scenario 3).
func Purge(messages []*model.Message, tags []string, keepLast int, roleFilter ...model.Role) []*model.Message {
	if len(messages) == 0 {
		return messages
	}

	tagSet := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tagSet[t] = struct{}{}
	}

	roleSet := make(map[model.Role]struct{}, len(roleFilter))
	for _, r := range roleFilter {
		roleSet[r] = struct{}{}
	}

	hasTaggedContent := func(msg *model.Message) bool {
		for _, c := range msg.Content {
			if _, ok := tagSet[c.Tag]; ok && c.Tag != "" {
				return true
			}
		}
		return false
	}

	var taggedIndices []int
	for i, msg := range messages {
		if len(roleSet) > 0 {
			if _, ok := roleSet[msg.Role]; !ok {
				continue
			}
		}
		if hasTaggedContent(msg) {
			taggedIndices = append(taggedIndices, i)
		}
	}

	cutoff := 0
	if keepLast <= 0 {
		if len(taggedIndices) > 0 {
			cutoff = len(messages)
		}
	} else if len(taggedIndices) > keepLast {
		cutoff = taggedIndices[len(taggedIndices)-keepLast]
	}

	taggedBeforeCutoff := make(map[int]bool, len(taggedIndices))
	for _, i := range taggedIndices {
		if i < cutoff {
			taggedBeforeCutoff[i] = true
		}
	}

	out := make([]*model.Message, len(messages))
	for i, msg := range messages {
		if taggedBeforeCutoff[i] {
			out[i] = stripTaggedContent(msg, tagSet)
		} else {
			out[i] = msg
		}
	}
	return out
}

func stripTaggedContent(msg *model.Message, tagSet map[string]struct{}) *model.Message {
	if len(msg.Content) == 0 {
		return msg
	}

	kept := make([]model.Content, 0, len(msg.Content))
	for _, c := range msg.Content {
		if _, ok := tagSet[c.Tag]; ok && c.Tag != "" {
			continue
		}
		kept = append(kept, c)
	}

	clone := *msg
	clone.Content = kept
	return &clone
}
