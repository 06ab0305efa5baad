// Package command routes administrative interactions to state transitions
// and acknowledgements.
//
// Every acknowledgement is sent through the interaction-response path of the
// triggering interaction. Commands that need a community create it lazily,
// with the triggering channel as its first active channel.
package command

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/jeeves/core"
	"github.com/hupe1980/jeeves/internal/util"
	"github.com/hupe1980/jeeves/logging"
	"github.com/hupe1980/jeeves/state"
)

// Acknowledgement texts.
const (
	ClearedText      = "Conversation history cleared."
	InitText         = "Thank you, sir. I shall endeavor to respond to messages in this channel."
	LeaveText        = "Thank you, sir. No longer shall I respond to messages in this channel."
	ModelChangedText = "LLM has been changed to %s"
	InvalidModelText = "Invalid model: %s. Valid models are: %s"
	NoStateText      = "[ERROR: no state found for this guild.]"
	statusFormat     = "\n**Guild**: %s\n**Channels**: %s\n**Message Count (this channel)**: %d\n**Model**: %s"
)

const helpTemplate = "Greetings, sir. I am {{.Persona}}, your most humble assistant.\n" +
	"In order to utilize my features, you may avail your esteemed self of one of the following commands.\n" +
	"\n" +
	"`/help`: Show this help message\n" +
	"`/clear`: Make {{.Persona}} forget the conversation thus far\n" +
	"`/init`: Tell {{.Persona}} to start responding to messages in this channel\n" +
	"`/leave`: Tell {{.Persona}} to stop responding to messages in this channel\n" +
	"`/model`: Change the language model {{.Persona}} is using ({{code .Models}})\n" +
	"`/status`: See what channels {{.Persona}} is in, the size of message logs, model data, etc.\n"

// DefaultAllowedModels is the model allow-list used when none is configured.
var DefaultAllowedModels = []string{
	"local",
	"gpt-3.5-turbo",
	"gpt-4",
	"gpt-4-1106-preview",
	"gpt-4-turbo-preview",
}

// Options configures the Router.
type Options struct {
	Persona       string
	Defaults      core.Defaults
	AllowedModels []string
	Logger        logging.Logger
}

// Router handles InteractionCreate events.
type Router struct {
	store   core.StateStore
	replier core.Replier
	opts    Options
}

// New constructs a Router.
func New(store core.StateStore, replier core.Replier, optFns ...func(o *Options)) *Router {
	opts := Options{
		Persona: "Jeeves",
		Defaults: core.Defaults{
			Model:          "gpt-3.5-turbo",
			ResponsePolicy: core.ResponsePolicy{Kind: core.RespondToEveryMessage},
		},
		AllowedModels: DefaultAllowedModels,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Router{store: store, replier: replier, opts: opts}
}

// Handle executes one interaction. Unknown commands are ignored without an
// acknowledgement. The returned error reports persistence or delivery
// problems; user-facing rejections are replies, not errors.
func (r *Router) Handle(ctx context.Context, ev core.InteractionCreate) error {
	log := logging.ForGuild(r.opts.Logger, ev.GuildID, ev.ChannelID)
	var (
		text string
		err  error
	)
	switch ev.Command {
	case core.CommandHelp:
		text, err = r.help()
	case core.CommandClear:
		text, err = r.clear(ev)
	case core.CommandInit:
		text, err = r.init(ev)
	case core.CommandLeave:
		text, err = r.leave(ev)
	case core.CommandModel:
		text, err = r.model(ev)
	case core.CommandStatus:
		text = r.status(ev)
	case core.CommandUnknown:
		log.Debug("ignoring unknown command", "command", ev.Name)
		return nil
	default:
		return fmt.Errorf("command %v has no handler", ev.Command)
	}
	if err != nil {
		// state errors are logged; the acknowledgement still goes out
		log.Error("command state update failed", "command", ev.Command.String(), "error", err)
	}
	if text == "" {
		return err
	}
	if rerr := r.replier.Reply(ctx, core.InteractionTarget(ev.ID, ev.Token), text); rerr != nil {
		return fmt.Errorf("acknowledge %s: %w", ev.Command, rerr)
	}
	return err
}

// Help renders the help text.
func (r *Router) help() (string, error) {
	return util.RenderTemplate(helpTemplate, map[string]any{
		"Persona": r.opts.Persona,
		"Models":  r.opts.AllowedModels,
	})
}

func (r *Router) clear(ev core.InteractionCreate) (string, error) {
	snap, c, err := state.EnsureCommunity(r.store, ev.GuildID, ev.ChannelID, r.opts.Defaults)
	if err != nil {
		return ClearedText, err
	}
	c.ClearLog(ev.ChannelID)
	return ClearedText, r.store.Save(snap)
}

func (r *Router) init(ev core.InteractionCreate) (string, error) {
	snap, c, err := state.EnsureCommunity(r.store, ev.GuildID, ev.ChannelID, r.opts.Defaults)
	if err != nil {
		return InitText, err
	}
	if c.Activate(ev.ChannelID) {
		return InitText, r.store.Save(snap)
	}
	return InitText, nil
}

func (r *Router) leave(ev core.InteractionCreate) (string, error) {
	snap, c, err := state.EnsureCommunity(r.store, ev.GuildID, ev.ChannelID, r.opts.Defaults)
	if err != nil {
		return LeaveText, err
	}
	if c.Deactivate(ev.ChannelID) {
		return LeaveText, r.store.Save(snap)
	}
	return LeaveText, nil
}

// model validates before touching state, so a rejected value creates and
// changes nothing.
func (r *Router) model(ev core.InteractionCreate) (string, error) {
	value, _ := ev.Option(core.ModelOption)
	if !slices.Contains(r.opts.AllowedModels, value) {
		return fmt.Sprintf(InvalidModelText, value, strings.Join(r.opts.AllowedModels, ", ")), nil
	}
	snap, c, err := state.EnsureCommunity(r.store, ev.GuildID, ev.ChannelID, r.opts.Defaults)
	if err != nil {
		return fmt.Sprintf(ModelChangedText, value), err
	}
	c.Model = value
	return fmt.Sprintf(ModelChangedText, value), r.store.Save(snap)
}

func (r *Router) status(ev core.InteractionCreate) string {
	c, ok := r.store.Load().Community(ev.GuildID)
	if !ok {
		return NoStateText
	}
	return StatusText(c, ev.ChannelID)
}

// StatusText renders the status report for a community as seen from
// channelID.
func StatusText(c *core.Community, channelID string) string {
	channels := "none"
	if len(c.ActiveChannels) > 0 {
		channels = "#" + strings.Join(c.ActiveChannels, ", #")
	}
	return fmt.Sprintf(statusFormat, c.ID, channels, len(c.Log(channelID)), c.Model)
}

// Definitions returns the command surface registered with the platform at
// startup, in registration order.
func Definitions(persona string) []core.CommandDefinition {
	descriptions := map[core.Command]string{
		core.CommandHelp:   "Show help",
		core.CommandClear:  fmt.Sprintf("Make %s forget the conversation thus far", persona),
		core.CommandInit:   fmt.Sprintf("Tell %s to respond to posts in this channel", persona),
		core.CommandLeave:  fmt.Sprintf("Tell %s to leave this channel", persona),
		core.CommandStatus: fmt.Sprintf("See what channels %s is in, the size of message logs, model data, etc.", persona),
		core.CommandModel:  fmt.Sprintf("Change the LLM that %s will use", persona),
	}

	defs := make([]core.CommandDefinition, 0, len(descriptions))
	for _, cmd := range core.Commands() {
		def := core.CommandDefinition{Name: cmd.String(), Description: descriptions[cmd]}
		if cmd == core.CommandModel {
			def.Options = []core.CommandOptionDefinition{{
				Name:        core.ModelOption,
				Description: "The model to use",
				Type:        core.OptionTypeString,
				Required:    true,
			}}
		}
		defs = append(defs, def)
	}
	return defs
}
