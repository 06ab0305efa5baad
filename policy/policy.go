// Package policy implements the response policy engine for ordinary channel
// messages.
//
// For each message the Engine runs, in order: the rejection gates, the
// community's role/user filters, the trigger, deduplication, persisting the
// user's utterance, prompt assembly, the completion call, and finally either
// recording and sending the reply or sending a visible error message.
package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/jeeves/completion"
	"github.com/hupe1980/jeeves/core"
	"github.com/hupe1980/jeeves/logging"
	"github.com/hupe1980/jeeves/metrics"
)

// Outcome reports what the Engine did with a message.
type Outcome int

const (
	// OutcomeUnknownCommunity: the guild has no state yet.
	OutcomeUnknownCommunity Outcome = iota
	// OutcomeInactiveChannel: the channel is not active.
	OutcomeInactiveChannel
	// OutcomeCooldown: the community cooldown counter is positive.
	OutcomeCooldown
	// OutcomeNoAuthor: the message carried no author.
	OutcomeNoAuthor
	// OutcomeSelf: the author is the persona itself.
	OutcomeSelf
	// OutcomeEmpty: the message has no text.
	OutcomeEmpty
	// OutcomeFiltered: the role/user filters rejected the author.
	OutcomeFiltered
	// OutcomeNotTriggered: the response policy did not match.
	OutcomeNotTriggered
	// OutcomeDuplicate: the message id is already logged.
	OutcomeDuplicate
	// OutcomeReplied: a completion was recorded and sent.
	OutcomeReplied
	// OutcomeCompletionFailed: the backend failed and an error reply was sent.
	OutcomeCompletionFailed
)

var outcomeNames = map[Outcome]string{
	OutcomeUnknownCommunity: "unknown_community",
	OutcomeInactiveChannel:  "inactive_channel",
	OutcomeCooldown:         "cooldown",
	OutcomeNoAuthor:         "no_author",
	OutcomeSelf:             "self",
	OutcomeEmpty:            "empty",
	OutcomeFiltered:         "filtered",
	OutcomeNotTriggered:     "not_triggered",
	OutcomeDuplicate:        "duplicate",
	OutcomeReplied:          "replied",
	OutcomeCompletionFailed: "completion_failed",
}

// String returns a stable label used in logs and metrics.
func (o Outcome) String() string {
	if n, ok := outcomeNames[o]; ok {
		return n
	}
	return "unknown"
}

// Rejected reports whether the message was dropped without any effect.
func (o Outcome) Rejected() bool {
	return o != OutcomeReplied && o != OutcomeCompletionFailed
}

// CompletionErrorFormat renders a failed completion as a visible reply.
const CompletionErrorFormat = "[ERROR: fetching completion failed: %s]"

// Options configures the Engine.
type Options struct {
	// Persona is the relay's own display name.
	Persona string
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Engine decides whether ordinary messages warrant a reply and produces it.
type Engine struct {
	store     core.StateStore
	completer completion.Completer
	replier   core.Replier
	opts      Options
}

// New constructs an Engine. All collaborators are injected.
func New(store core.StateStore, completer completion.Completer, replier core.Replier, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Persona: "Jeeves",
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Engine{store: store, completer: completer, replier: replier, opts: opts}
}

// Handle processes one message. Rejections are not errors; the returned
// error only reports persistence or delivery problems.
func (e *Engine) Handle(ctx context.Context, msg core.MessageCreate) (Outcome, error) {
	log := logging.ForGuild(e.opts.Logger, msg.GuildID, msg.ChannelID)
	outcome, err := e.handle(ctx, log, msg)
	e.opts.Metrics.Outcome(outcome.String())
	if outcome.Rejected() {
		log.Debug("message not answered", "message_id", msg.ID, "outcome", outcome.String())
	}
	return outcome, err
}

func (e *Engine) handle(ctx context.Context, log logging.Logger, msg core.MessageCreate) (Outcome, error) {
	snap := e.store.Load()
	c, ok := snap.Community(msg.GuildID)
	if !ok {
		return OutcomeUnknownCommunity, nil
	}
	if outcome, ok := Gate(c, msg, e.opts.Persona); !ok {
		return outcome, nil
	}
	if !Admits(c, msg.Author) {
		return OutcomeFiltered, nil
	}
	if !Triggered(c.ResponsePolicy, msg, e.opts.Persona) {
		return OutcomeNotTriggered, nil
	}
	if c.HasExternal(msg.ChannelID, msg.ID) {
		return OutcomeDuplicate, nil
	}

	c.Append(msg.ChannelID, core.Utterance{
		ExternalID: msg.ID,
		Speaker:    msg.Author.Name,
		Text:       msg.Content,
	})
	if err := e.store.Save(snap); err != nil {
		log.Error("persisting user utterance failed", "error", err)
	}

	prompt := BuildPrompt(c, msg.ChannelID, e.opts.Persona)
	target := core.ChannelTarget(msg.ChannelID)

	reply, err := e.completer.Complete(ctx, c.Model, prompt)
	if err != nil {
		if rerr := e.replier.Reply(ctx, target, fmt.Sprintf(CompletionErrorFormat, err.Error())); rerr != nil {
			return OutcomeCompletionFailed, fmt.Errorf("send completion error reply: %w", rerr)
		}
		return OutcomeCompletionFailed, nil
	}

	// second independent read-modify-write round trip
	snap = e.store.Load()
	if c, ok := snap.Community(msg.GuildID); ok {
		c.Append(msg.ChannelID, core.Utterance{Speaker: e.opts.Persona, Text: reply})
		if err := e.store.Save(snap); err != nil {
			log.Error("persisting reply failed", "error", err)
		}
	}

	if err := e.replier.Reply(ctx, target, reply); err != nil {
		return OutcomeReplied, fmt.Errorf("send reply: %w", err)
	}
	return OutcomeReplied, nil
}

// Gate applies the rejection gates that need no trigger evaluation. It
// returns false together with the reason when msg must be dropped.
func Gate(c *core.Community, msg core.MessageCreate, persona string) (Outcome, bool) {
	switch {
	case !c.IsActive(msg.ChannelID):
		return OutcomeInactiveChannel, false
	case c.Cooldown > 0:
		return OutcomeCooldown, false
	case msg.Author == nil:
		return OutcomeNoAuthor, false
	case msg.Author.Name == persona:
		return OutcomeSelf, false
	case strings.TrimSpace(msg.Content) == "":
		return OutcomeEmpty, false
	}
	return 0, true
}

// Admits applies the community's role and user filters. An id on either
// ignore list rejects. If either listen list is non-empty the author must be
// listened to by user id or by one of their roles.
func Admits(c *core.Community, author *core.Author) bool {
	if author == nil {
		return false
	}
	if c.UserFilter.Ignores(author.ID) || c.RoleFilter.Ignores(author.Roles...) {
		return false
	}
	if len(c.UserFilter.Listen) == 0 && len(c.RoleFilter.Listen) == 0 {
		return true
	}
	return c.UserFilter.Listens(author.ID) || c.RoleFilter.Listens(author.Roles...)
}

// Triggered evaluates the response policy against msg.
func Triggered(p core.ResponsePolicy, msg core.MessageCreate, persona string) bool {
	switch p.Kind {
	case core.RespondToEveryMessage:
		return true
	case core.RespondOnKeyword:
		return p.Pattern != "" && strings.Contains(msg.Content, p.Pattern)
	case core.RespondOnMention:
		if persona != "" && strings.Contains(strings.ToLower(msg.Content), strings.ToLower(persona)) {
			return true
		}
		for _, name := range msg.MentionedNames() {
			if name == persona {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// BuildPrompt renders the system prompt followed by the channel log, oldest
// first. Utterances are attributed inline as "[speaker]: text".
func BuildPrompt(c *core.Community, channelID, persona string) []core.Message {
	log := c.Log(channelID)
	msgs := make([]core.Message, 0, len(log)+1)
	msgs = append(msgs, core.SystemMessage(c.SystemPrompt))
	for _, u := range log {
		text := fmt.Sprintf("[%s]: %s", u.Speaker, u.Text)
		if !u.IsExternal() && u.Speaker == persona {
			msgs = append(msgs, core.AssistantMessage(text))
			continue
		}
		msgs = append(msgs, core.UserMessage(text))
	}
	return msgs
}
