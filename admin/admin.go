// Package admin applies operator requests to the state store.
//
// Requests cover what the slash-command surface does not: joining and
// leaving guilds, editing the system prompt, response policy, role and user
// filters, the active channel set, the cooldown counter and the debug flag.
// Each request is one whole-store read-modify-write round trip.
package admin

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/hupe1980/jeeves/core"
)

var (
	// ErrNoState is returned when the target guild has no community and the
	// request does not create one.
	ErrNoState = fmt.Errorf("no state found for guild")
	// ErrInvalidRequest is returned for requests failing validation.
	ErrInvalidRequest = fmt.Errorf("invalid admin request")
)

// Kind names an admin request.
type Kind string

// Request kinds.
const (
	JoinGuild            Kind = "join_guild"
	LeaveGuild           Kind = "leave_guild"
	ChangeSystemPrompt   Kind = "change_system_prompt"
	ChangeModel          Kind = "change_model"
	AddChannel           Kind = "add_channel"
	RemoveChannel        Kind = "remove_channel"
	DefineResponsePolicy Kind = "define_response_policy"
	DefineRoles          Kind = "define_roles"
	DefineUsers          Kind = "define_users"
	DefineChannels       Kind = "define_channels"
	SetCooldown          Kind = "set_cooldown"
	SetDebug             Kind = "set_debug"
)

// Kinds returns every supported request kind.
func Kinds() []Kind {
	return []Kind{
		JoinGuild, LeaveGuild, ChangeSystemPrompt, ChangeModel, AddChannel, RemoveChannel,
		DefineResponsePolicy, DefineRoles, DefineUsers, DefineChannels, SetCooldown, SetDebug,
	}
}

// Request is one operator request. Only the fields relevant to Kind are read.
type Request struct {
	Kind     Kind                `json:"kind"`
	Guild    string              `json:"guild"`
	Value    string              `json:"value,omitempty"`    // prompt, model or channel id
	Listen   []string            `json:"listen,omitempty"`   // DefineRoles / DefineUsers
	Ignore   []string            `json:"ignore,omitempty"`   // DefineRoles / DefineUsers
	Channels []string            `json:"channels,omitempty"` // DefineChannels
	Policy   core.ResponsePolicy `json:"policy,omitempty"`
	Cooldown uint32              `json:"cooldown,omitempty"`
	Debug    bool                `json:"debug,omitempty"`
}

// ParseRequest decodes a JSON request.
func ParseRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return req, nil
}

// Validate checks the request against the model allow-list.
func (r Request) Validate(allowedModels []string) error {
	if r.Guild == "" {
		return fmt.Errorf("%w: guild is required", ErrInvalidRequest)
	}
	switch r.Kind {
	case JoinGuild, LeaveGuild, DefineRoles, DefineUsers, DefineChannels, SetCooldown, SetDebug:
		return nil
	case ChangeSystemPrompt:
		if r.Value == "" {
			return fmt.Errorf("%w: system prompt must not be empty", ErrInvalidRequest)
		}
	case ChangeModel:
		if !slices.Contains(allowedModels, r.Value) {
			return fmt.Errorf("%w: model %q is not allowed", ErrInvalidRequest, r.Value)
		}
	case AddChannel, RemoveChannel:
		if r.Value == "" {
			return fmt.Errorf("%w: channel is required", ErrInvalidRequest)
		}
	case DefineResponsePolicy:
		if !r.Policy.Valid() {
			return fmt.Errorf("%w: response policy %q", ErrInvalidRequest, r.Policy.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, r.Kind)
	}
	return nil
}

// Apply validates and executes req against store and returns the resulting
// community. JoinGuild creates the community from d when absent; every other
// kind requires it to exist.
func Apply(store core.StateStore, req Request, d core.Defaults, allowedModels []string) (*core.Community, error) {
	if err := req.Validate(allowedModels); err != nil {
		return nil, err
	}

	snap := store.Load()
	if req.Kind == JoinGuild {
		c, created := snap.EnsureCommunity(req.Guild, req.Value, d)
		if !created && req.Value != "" {
			c.Activate(req.Value)
		}
		return c, store.Save(snap)
	}

	c, ok := snap.Community(req.Guild)
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNoState, req.Guild)
	}

	switch req.Kind {
	case LeaveGuild:
		// communities are never deleted; leaving silences every channel
		c.ActiveChannels = []string{}
	case ChangeSystemPrompt:
		c.SystemPrompt = req.Value
	case ChangeModel:
		c.Model = req.Value
	case AddChannel:
		c.Activate(req.Value)
	case RemoveChannel:
		c.Deactivate(req.Value)
	case DefineResponsePolicy:
		c.ResponsePolicy = req.Policy
	case DefineRoles:
		c.RoleFilter = core.Filter{Listen: slices.Clone(req.Listen), Ignore: slices.Clone(req.Ignore)}
	case DefineUsers:
		c.UserFilter = core.Filter{Listen: slices.Clone(req.Listen), Ignore: slices.Clone(req.Ignore)}
	case DefineChannels:
		c.ActiveChannels = []string{}
		for _, ch := range req.Channels {
			c.Activate(ch)
		}
	case SetCooldown:
		c.Cooldown = req.Cooldown
	case SetDebug:
		c.Debug = req.Debug
	}
	return c, store.Save(snap)
}
