package gateway

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hupe1980/jeeves/core"
)

var (
	// ErrMalformedEvent is returned for payloads that are not valid dispatch
	// envelopes or lack required fields.
	ErrMalformedEvent = fmt.Errorf("malformed gateway event")
	// ErrUnsupportedEvent is returned for well-formed payloads the relay does
	// not consume.
	ErrUnsupportedEvent = fmt.Errorf("unsupported gateway event")
)

// Dispatch event names consumed by the relay.
const (
	EventInteractionCreate = "INTERACTION_CREATE"
	EventMessageCreate     = "MESSAGE_CREATE"
)

// interactionTypeCommand is the platform code for an application command.
const interactionTypeCommand = 2

// envelope is the gateway dispatch frame: {"op":0,"t":"NAME","d":{...}}.
type envelope struct {
	Op int             `json:"op"`
	T  string          `json:"t"`
	D  json.RawMessage `json:"d"`
}

type wireUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name,omitempty"`
	Bot        bool   `json:"bot,omitempty"`
}

type wireMember struct {
	User  *wireUser `json:"user,omitempty"`
	Roles []string  `json:"roles,omitempty"`
}

type wireOption struct {
	Name  string          `json:"name"`
	Type  int             `json:"type"`
	Value json.RawMessage `json:"value"`
}

type wireInteraction struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	Type      int         `json:"type"`
	ChannelID string      `json:"channel_id"`
	GuildID   string      `json:"guild_id"`
	Member    *wireMember `json:"member,omitempty"`
	Data      *struct {
		Name    string       `json:"name"`
		Options []wireOption `json:"options,omitempty"`
	} `json:"data"`
}

type wireMessage struct {
	ID        string      `json:"id"`
	ChannelID string      `json:"channel_id"`
	GuildID   string      `json:"guild_id"`
	Author    *wireUser   `json:"author,omitempty"`
	Member    *wireMember `json:"member,omitempty"`
	Content   string      `json:"content"`
	Mentions  []wireUser  `json:"mentions,omitempty"`
}

// Decode parses one raw dispatch payload into a core.Event.
func Decode(raw []byte) (core.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.T == "" || len(env.D) == 0 {
		return nil, fmt.Errorf("%w: missing event name or data", ErrMalformedEvent)
	}

	switch env.T {
	case EventInteractionCreate:
		return decodeInteraction(env.D)
	case EventMessageCreate:
		return decodeMessage(env.D)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEvent, env.T)
	}
}

func decodeInteraction(d json.RawMessage) (core.Event, error) {
	var w wireInteraction
	if err := json.Unmarshal(d, &w); err != nil {
		return nil, fmt.Errorf("%w: interaction: %v", ErrMalformedEvent, err)
	}
	if w.Type != 0 && w.Type != interactionTypeCommand {
		return nil, fmt.Errorf("%w: interaction type %d", ErrUnsupportedEvent, w.Type)
	}
	if w.ID == "" || w.Token == "" || w.ChannelID == "" || w.Data == nil {
		return nil, fmt.Errorf("%w: interaction missing id, token, channel or data", ErrMalformedEvent)
	}
	if w.GuildID == "" {
		return nil, fmt.Errorf("%w: interaction outside a guild", ErrUnsupportedEvent)
	}

	opts := make([]core.CommandOption, 0, len(w.Data.Options))
	for _, o := range w.Data.Options {
		opts = append(opts, core.CommandOption{Name: o.Name, Value: optionValue(o.Value)})
	}

	return core.InteractionCreate{
		ID:        w.ID,
		Token:     w.Token,
		ChannelID: w.ChannelID,
		GuildID:   w.GuildID,
		Command:   core.ParseCommand(w.Data.Name),
		Name:      w.Data.Name,
		Options:   opts,
	}, nil
}

func decodeMessage(d json.RawMessage) (core.Event, error) {
	var w wireMessage
	if err := json.Unmarshal(d, &w); err != nil {
		return nil, fmt.Errorf("%w: message: %v", ErrMalformedEvent, err)
	}
	if w.ID == "" || w.ChannelID == "" {
		return nil, fmt.Errorf("%w: message missing id or channel", ErrMalformedEvent)
	}
	if w.GuildID == "" {
		return nil, fmt.Errorf("%w: message outside a guild", ErrUnsupportedEvent)
	}

	ev := core.MessageCreate{
		ID:        w.ID,
		GuildID:   w.GuildID,
		ChannelID: w.ChannelID,
		Content:   w.Content,
	}
	if w.Author != nil {
		ev.Author = &core.Author{ID: w.Author.ID, Name: w.Author.Username}
		if w.Member != nil {
			ev.Author.Roles = w.Member.Roles
		}
	}
	for _, m := range w.Mentions {
		ev.Mentions = append(ev.Mentions, core.Author{ID: m.ID, Name: m.Username})
	}
	return ev, nil
}

// optionValue renders an option value in its string form. Strings are
// unquoted; numbers and booleans keep their literal text.
func optionValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if unquoted, err := strconv.Unquote(string(raw)); err == nil {
		return unquoted
	}
	return string(raw)
}
