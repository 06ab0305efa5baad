package testutil

import (
	"encoding/json"

	"github.com/hupe1980/jeeves/core"
)

// MessageBuilder provides a fluent helper for constructing message events in
// tests. Example:
//
//	msg := NewMessageBuilder("m1").In("g1", "c1").From("bertie").Text("hello").Build()
//
// Chain only the parts you need; defaults are guild "g1", channel "c1" and
// author "bertie".
type MessageBuilder struct {
	msg      core.MessageCreate
	noAuthor bool
}

// NewMessageBuilder creates a builder for a message with the given id.
func NewMessageBuilder(id string) *MessageBuilder {
	return &MessageBuilder{msg: core.MessageCreate{
		ID:        id,
		GuildID:   "g1",
		ChannelID: "c1",
		Author:    &core.Author{ID: "u-bertie", Name: "bertie"},
	}}
}

// In sets guild and channel (chainable).
func (b *MessageBuilder) In(guildID, channelID string) *MessageBuilder {
	b.msg.GuildID, b.msg.ChannelID = guildID, channelID
	return b
}

// From sets the author display name; the author id becomes "u-"+name (chainable).
func (b *MessageBuilder) From(name string) *MessageBuilder {
	b.msg.Author = &core.Author{ID: "u-" + name, Name: name}
	b.noAuthor = false
	return b
}

// Roles sets the author's roles (chainable).
func (b *MessageBuilder) Roles(roles ...string) *MessageBuilder {
	if b.msg.Author != nil {
		b.msg.Author.Roles = roles
	}
	return b
}

// NoAuthor drops the author (chainable).
func (b *MessageBuilder) NoAuthor() *MessageBuilder {
	b.msg.Author = nil
	b.noAuthor = true
	return b
}

// Text sets the message content (chainable).
func (b *MessageBuilder) Text(t string) *MessageBuilder { b.msg.Content = t; return b }

// Mention adds a mentioned user by display name (chainable).
func (b *MessageBuilder) Mention(name string) *MessageBuilder {
	b.msg.Mentions = append(b.msg.Mentions, core.Author{ID: "u-" + name, Name: name})
	return b
}

// Build returns the event value.
func (b *MessageBuilder) Build() core.MessageCreate {
	msg := b.msg
	if msg.Author != nil {
		a := *msg.Author
		msg.Author = &a
	}
	return msg
}

// Payload returns the event as a raw MESSAGE_CREATE dispatch payload.
func (b *MessageBuilder) Payload() []byte {
	d := map[string]any{
		"id":         b.msg.ID,
		"guild_id":   b.msg.GuildID,
		"channel_id": b.msg.ChannelID,
		"content":    b.msg.Content,
	}
	if !b.noAuthor && b.msg.Author != nil {
		d["author"] = map[string]any{"id": b.msg.Author.ID, "username": b.msg.Author.Name}
		if len(b.msg.Author.Roles) > 0 {
			d["member"] = map[string]any{"roles": b.msg.Author.Roles}
		}
	}
	mentions := make([]map[string]any, 0, len(b.msg.Mentions))
	for _, m := range b.msg.Mentions {
		mentions = append(mentions, map[string]any{"id": m.ID, "username": m.Name})
	}
	d["mentions"] = mentions
	return envelope("MESSAGE_CREATE", d)
}

// InteractionBuilder provides a fluent helper for constructing command
// interactions in tests. Example:
//
//	ev := NewInteractionBuilder("model").In("g1", "c1").Option("model", "gpt-4").Build()
type InteractionBuilder struct {
	ev core.InteractionCreate
}

// NewInteractionBuilder creates a builder for the named command. Defaults are
// interaction "i-<name>", token "tok", guild "g1" and channel "c1".
func NewInteractionBuilder(name string) *InteractionBuilder {
	return &InteractionBuilder{ev: core.InteractionCreate{
		ID:        "i-" + name,
		Token:     "tok",
		GuildID:   "g1",
		ChannelID: "c1",
		Command:   core.ParseCommand(name),
		Name:      name,
	}}
}

// ID overrides the interaction id (chainable).
func (b *InteractionBuilder) ID(id string) *InteractionBuilder { b.ev.ID = id; return b }

// Token overrides the interaction token (chainable).
func (b *InteractionBuilder) Token(tok string) *InteractionBuilder { b.ev.Token = tok; return b }

// In sets guild and channel (chainable).
func (b *InteractionBuilder) In(guildID, channelID string) *InteractionBuilder {
	b.ev.GuildID, b.ev.ChannelID = guildID, channelID
	return b
}

// Option adds a command option (chainable).
func (b *InteractionBuilder) Option(name, value string) *InteractionBuilder {
	b.ev.Options = append(b.ev.Options, core.CommandOption{Name: name, Value: value})
	return b
}

// Build returns the event value.
func (b *InteractionBuilder) Build() core.InteractionCreate {
	ev := b.ev
	ev.Options = append([]core.CommandOption(nil), b.ev.Options...)
	return ev
}

// Payload returns the event as a raw INTERACTION_CREATE dispatch payload.
func (b *InteractionBuilder) Payload() []byte {
	opts := make([]map[string]any, 0, len(b.ev.Options))
	for _, o := range b.ev.Options {
		opts = append(opts, map[string]any{"name": o.Name, "type": core.OptionTypeString, "value": o.Value})
	}
	return envelope("INTERACTION_CREATE", map[string]any{
		"id":         b.ev.ID,
		"token":      b.ev.Token,
		"type":       2,
		"guild_id":   b.ev.GuildID,
		"channel_id": b.ev.ChannelID,
		"data":       map[string]any{"name": b.ev.Name, "options": opts},
	})
}

func envelope(name string, d any) []byte {
	raw, err := json.Marshal(map[string]any{"op": 0, "t": name, "d": d})
	if err != nil {
		panic(err)
	}
	return raw
}
