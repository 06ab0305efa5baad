package core

import "github.com/google/uuid"

// Event is an inbound gateway event. Concrete event types implement the
// unexported isEvent marker enabling a closed set; consumers switch on the
// concrete type exhaustively.
type Event interface {
	isEvent()
	// Guild returns the community the event belongs to.
	Guild() string
}

// Author identifies the sender of a message.
type Author struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Roles []string `json:"roles,omitempty"`
}

// InteractionCreate is a platform-native command invocation addressed by a
// one-time response token.
type InteractionCreate struct {
	ID        string
	Token     string
	ChannelID string
	GuildID   string
	Command   Command
	Name      string // raw command name as received
	Options   []CommandOption
}

// isEvent implements the Event interface for InteractionCreate.
func (InteractionCreate) isEvent() {}

// Guild implements Event.
func (e InteractionCreate) Guild() string { return e.GuildID }

// Option returns the value of the named option.
func (e InteractionCreate) Option(name string) (string, bool) {
	for _, o := range e.Options {
		if o.Name == name {
			return o.Value, true
		}
	}
	return "", false
}

// CommandOption is one typed parameter supplied with a command. Values are
// carried in their string form.
type CommandOption struct {
	Name  string
	Value string
}

// MessageCreate is an ordinary channel message. Author is nil when the
// platform delivered the message without one.
type MessageCreate struct {
	ID        string
	GuildID   string
	ChannelID string
	Author    *Author
	Content   string
	Mentions  []Author
}

// isEvent implements the Event interface for MessageCreate.
func (MessageCreate) isEvent() {}

// Guild implements Event.
func (e MessageCreate) Guild() string { return e.GuildID }

// MentionedNames returns the display names of all mentioned users
// preserving their original order.
func (e MessageCreate) MentionedNames() []string {
	names := make([]string, 0, len(e.Mentions))
	for _, m := range e.Mentions {
		names = append(names, m.Name)
	}
	return names
}

// NewID generates a new unique identifier used to correlate log lines of a
// single event or outbound call.
func NewID() string { return uuid.NewString() }
