// Package transcript holds the ordered chat between the user and the assistant.
package transcript

import "slices"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// User builds a user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant builds an assistant message.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Transcript is an append-only list of messages. Append never mutates the receiver's
// backing array, so earlier values stay valid snapshots.
type Transcript []Message

// Append returns the transcript with msgs added at the end.
func (t Transcript) Append(msgs ...Message) Transcript {
	return append(slices.Clip(t), msgs...)
}

// Len returns the number of messages.
func (t Transcript) Len() int {
	return len(t)
}

// Last returns the newest message.
func (t Transcript) Last() (Message, bool) {
	if len(t) == 0 {
		return Message{}, false
	}
	return t[len(t)-1], true
}

// Since returns the messages after the first n.
func (t Transcript) Since(n int) Transcript {
	if n < 0 {
		n = 0
	}
	if n >= len(t) {
		return nil
	}
	return slices.Clone(t[n:])
}

// Messages returns a copy safe to hand to other goroutines.
func (t Transcript) Messages() []Message {
	return slices.Clone(t)
}
