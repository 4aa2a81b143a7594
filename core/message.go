package core

import "strings"

// UserSender is the sender recorded for messages typed by the human participant.
const UserSender = "User"

// Message is one immutable entry of a Session history. Sender is either
// UserSender or an agent identifier. Its position in the history is implicit.
type Message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// NewUserMessage creates a message authored by the user.
func NewUserMessage(text string) Message {
	return Message{Sender: UserSender, Text: text}
}

// NewAgentMessage creates a message authored by the agent with the given id.
func NewAgentMessage(agentID, text string) Message {
	return Message{Sender: agentID, Text: text}
}

// String renders the message as a single "sender: text" context line.
func (m Message) String() string {
	return m.Sender + ": " + m.Text
}

// RenderContext joins the rendered messages in order, one per line. An empty
// slice renders as the empty string.
func RenderContext(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}

	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Sender)
		b.WriteString(": ")
		b.WriteString(m.Text)
	}

	return b.String()
}
