package core

import "slices"

// PolicyKind selects the trigger condition of a ResponsePolicy.
type PolicyKind string

const (
	// RespondOnMention triggers when the persona is named or mentioned.
	RespondOnMention PolicyKind = "mention"
	// RespondOnKeyword triggers on a substring match of Pattern.
	RespondOnKeyword PolicyKind = "keyword"
	// RespondToEveryMessage always triggers.
	RespondToEveryMessage PolicyKind = "every_message"
)

// ResponsePolicy determines when an ordinary message warrants a reply.
type ResponsePolicy struct {
	Kind    PolicyKind `json:"kind"`
	Pattern string     `json:"pattern,omitempty"` // only used by RespondOnKeyword
}

// Valid reports whether the policy is one of the known kinds.
func (p ResponsePolicy) Valid() bool {
	switch p.Kind {
	case RespondOnMention, RespondToEveryMessage:
		return true
	case RespondOnKeyword:
		return p.Pattern != ""
	default:
		return false
	}
}

// Filter is an allow-list / deny-list pair of role or user identifiers.
// An empty Listen list admits everyone not explicitly ignored.
type Filter struct {
	Listen []string `json:"listen,omitempty"`
	Ignore []string `json:"ignore,omitempty"`
}

// Ignores reports whether any of ids is on the deny-list.
func (f Filter) Ignores(ids ...string) bool {
	for _, id := range ids {
		if slices.Contains(f.Ignore, id) {
			return true
		}
	}
	return false
}

// Listens reports whether any of ids is on the allow-list.
func (f Filter) Listens(ids ...string) bool {
	for _, id := range ids {
		if slices.Contains(f.Listen, id) {
			return true
		}
	}
	return false
}

// Utterance is one recorded line of conversation. ExternalID is the platform
// message id for externally sourced lines and empty for lines the relay
// generated itself.
type Utterance struct {
	ExternalID string `json:"external_id,omitempty"`
	Speaker    string `json:"speaker"`
	Text       string `json:"text"`
}

// IsExternal reports whether the utterance originated on the platform.
func (u Utterance) IsExternal() bool { return u.ExternalID != "" }

// Community is the per-guild unit of configuration and history isolation.
//
// Contract:
//   - ActiveChannels is the sole gate for ordinary message processing
//   - ConversationLog keeps insertion (chronological) order per channel
//   - a channel log never holds two external utterances with the same id
type Community struct {
	ID              string                 `json:"id"`
	ActiveChannels  []string               `json:"active_channels"`
	ConversationLog map[string][]Utterance `json:"conversation_log"`
	Cooldown        uint32                 `json:"cooldown"`
	Debug           bool                   `json:"debug"`
	Model           string                 `json:"model"`
	SystemPrompt    string                 `json:"system_prompt"`
	ResponsePolicy  ResponsePolicy         `json:"response_policy"`
	RoleFilter      Filter                 `json:"role_filter"`
	UserFilter      Filter                 `json:"user_filter"`
}

// Defaults seeds newly created communities.
type Defaults struct {
	Model          string
	SystemPrompt   string
	ResponsePolicy ResponsePolicy
}

// NewCommunity creates a community whose only active channel is the one that
// triggered its creation. An empty channelID yields no active channels.
func NewCommunity(id, channelID string, d Defaults) *Community {
	c := &Community{
		ID:              id,
		ActiveChannels:  []string{},
		ConversationLog: map[string][]Utterance{},
		Model:           d.Model,
		SystemPrompt:    d.SystemPrompt,
		ResponsePolicy:  d.ResponsePolicy,
	}
	if channelID != "" {
		c.ActiveChannels = append(c.ActiveChannels, channelID)
	}
	return c
}

// IsActive reports whether the relay may respond in channelID.
func (c *Community) IsActive(channelID string) bool {
	return slices.Contains(c.ActiveChannels, channelID)
}

// Activate adds channelID to the active set. It returns false if the channel
// was already active.
func (c *Community) Activate(channelID string) bool {
	if c.IsActive(channelID) {
		return false
	}
	c.ActiveChannels = append(c.ActiveChannels, channelID)
	return true
}

// Deactivate removes channelID from the active set. It returns false if the
// channel was not active.
func (c *Community) Deactivate(channelID string) bool {
	if !c.IsActive(channelID) {
		return false
	}
	c.ActiveChannels = slices.DeleteFunc(c.ActiveChannels, func(id string) bool { return id == channelID })
	return true
}

// Log returns the channel's utterances in chronological order. The returned
// slice must not be mutated by callers.
func (c *Community) Log(channelID string) []Utterance {
	return c.ConversationLog[channelID]
}

// HasExternal reports whether the channel log already contains an external
// utterance with the given id.
func (c *Community) HasExternal(channelID, externalID string) bool {
	if externalID == "" {
		return false
	}
	for _, u := range c.ConversationLog[channelID] {
		if u.ExternalID == externalID {
			return true
		}
	}
	return false
}

// Append adds an utterance to the end of the channel log. External
// utterances whose id is already present are dropped; the return value
// reports whether the log changed.
func (c *Community) Append(channelID string, u Utterance) bool {
	if u.IsExternal() && c.HasExternal(channelID, u.ExternalID) {
		return false
	}
	if c.ConversationLog == nil {
		c.ConversationLog = map[string][]Utterance{}
	}
	c.ConversationLog[channelID] = append(c.ConversationLog[channelID], u)
	return true
}

// ClearLog empties the channel log without removing the channel entry.
func (c *Community) ClearLog(channelID string) {
	if c.ConversationLog == nil {
		c.ConversationLog = map[string][]Utterance{}
	}
	c.ConversationLog[channelID] = []Utterance{}
}

// Clone returns a deep copy safe for independent mutation.
func (c *Community) Clone() *Community {
	clone := *c
	clone.ActiveChannels = slices.Clone(c.ActiveChannels)
	clone.ConversationLog = make(map[string][]Utterance, len(c.ConversationLog))
	for ch, log := range c.ConversationLog {
		clone.ConversationLog[ch] = slices.Clone(log)
	}
	clone.RoleFilter = Filter{Listen: slices.Clone(c.RoleFilter.Listen), Ignore: slices.Clone(c.RoleFilter.Ignore)}
	clone.UserFilter = Filter{Listen: slices.Clone(c.UserFilter.Listen), Ignore: slices.Clone(c.UserFilter.Ignore)}
	return &clone
}
