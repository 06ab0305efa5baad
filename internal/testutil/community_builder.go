package testutil

import (
	"github.com/hupe1980/jeeves/core"
)

// CommunityBuilder helps construct seeded communities with fluent chaining.
// Example:
//
//	c := NewCommunityBuilder("g1").Active("c1").Policy(core.RespondOnMention, "").Build()
type CommunityBuilder struct {
	c *core.Community
}

// NewCommunityBuilder creates a builder for a community with the given id,
// model "gpt-3.5-turbo", system prompt "be a butler" and the
// RespondToEveryMessage policy.
func NewCommunityBuilder(id string) *CommunityBuilder {
	return &CommunityBuilder{c: core.NewCommunity(id, "", core.Defaults{
		Model:          "gpt-3.5-turbo",
		SystemPrompt:   "be a butler",
		ResponsePolicy: core.ResponsePolicy{Kind: core.RespondToEveryMessage},
	})}
}

// Active activates channels (chainable).
func (b *CommunityBuilder) Active(channels ...string) *CommunityBuilder {
	for _, ch := range channels {
		b.c.Activate(ch)
	}
	return b
}

// Utterance appends a logged utterance (chainable). An empty externalID marks
// it as generated by the relay.
func (b *CommunityBuilder) Utterance(channelID, externalID, speaker, text string) *CommunityBuilder {
	b.c.Append(channelID, core.Utterance{ExternalID: externalID, Speaker: speaker, Text: text})
	return b
}

// Cooldown sets the cooldown counter (chainable).
func (b *CommunityBuilder) Cooldown(n uint32) *CommunityBuilder { b.c.Cooldown = n; return b }

// Model sets the model id (chainable).
func (b *CommunityBuilder) Model(m string) *CommunityBuilder { b.c.Model = m; return b }

// SystemPrompt sets the system prompt (chainable).
func (b *CommunityBuilder) SystemPrompt(p string) *CommunityBuilder { b.c.SystemPrompt = p; return b }

// Policy sets the response policy (chainable).
func (b *CommunityBuilder) Policy(kind core.PolicyKind, pattern string) *CommunityBuilder {
	b.c.ResponsePolicy = core.ResponsePolicy{Kind: kind, Pattern: pattern}
	return b
}

// Users sets the user filter (chainable).
func (b *CommunityBuilder) Users(listen, ignore []string) *CommunityBuilder {
	b.c.UserFilter = core.Filter{Listen: listen, Ignore: ignore}
	return b
}

// Roles sets the role filter (chainable).
func (b *CommunityBuilder) Roles(listen, ignore []string) *CommunityBuilder {
	b.c.RoleFilter = core.Filter{Listen: listen, Ignore: ignore}
	return b
}

// Build returns a copy of the community.
func (b *CommunityBuilder) Build() *core.Community { return b.c.Clone() }

// Snapshot returns a snapshot holding the community and any others given.
func (b *CommunityBuilder) Snapshot(others ...*core.Community) *core.Snapshot {
	snap := core.EmptySnapshot()
	snap.Communities[b.c.ID] = b.Build()
	for _, o := range others {
		snap.Communities[o.ID] = o.Clone()
	}
	return snap
}
