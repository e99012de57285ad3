// Package message implements the Message Log (C5/C9 support): an
// append-only conversation history plus the purger that bounds how much
// tagged content (observations) the log carries in full (spec.md §4.6).
package message

import "github.com/steve-z-wang/webtask/internal/model"

// Log is the append-only list of messages making up one run's
// conversation. Purge returns a new, purged copy rather than mutating
// messages in place — callers that need the bounded view hand it
// straight to the LLM Adapter, while Log itself keeps the full history
// for any caller that wants it (e.g. a fixture recorder).
type Log struct {
	messages []*model.Message
}

// NewLog returns an empty message log.
func NewLog() *Log {
	return &Log{}
}

// Append adds msg to the end of the log.
func (l *Log) Append(msg *model.Message) {
	l.messages = append(l.messages, msg)
}

// Messages returns every message appended so far, in order. The returned
// slice is owned by the caller; mutating it does not affect the log.
func (l *Log) Messages() []*model.Message {
	out := make([]*model.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len reports how many messages are in the log.
func (l *Log) Len() int {
	return len(l.messages)
}
