// Package jeeves provides the relay façade: a single serial event loop that
// decodes gateway payloads, routes commands and ordinary messages, and
// replies through the gateway. Most applications interact with this package
// by:
//  1. Creating a Relay via New() with a gateway and a model resolver
//  2. Registering the command surface once at startup (RegisterCommands)
//  3. Running the loop over an event source (Run), or feeding payloads
//     one at a time (HandleEvent)
//
// Events are processed strictly one after another in arrival order, including
// any completion call; there is no parallel processing. All defaults are safe
// for local development; production deployments supply a durable state store
// and a structured logger.
package jeeves

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/jeeves/command"
	"github.com/hupe1980/jeeves/completion"
	"github.com/hupe1980/jeeves/core"
	"github.com/hupe1980/jeeves/dispatch"
	"github.com/hupe1980/jeeves/gateway"
	"github.com/hupe1980/jeeves/logging"
	"github.com/hupe1980/jeeves/metrics"
	"github.com/hupe1980/jeeves/policy"
	"github.com/hupe1980/jeeves/state"
)

// Options configures the Relay.
type Options struct {
	// Persona is the relay's display name.
	Persona string
	// AllowedModels is the allow-list accepted by the model command.
	AllowedModels []string
	// Defaults seed communities created lazily by commands.
	Defaults core.Defaults

	// CompletionTimeout bounds a single backend call.
	CompletionTimeout time.Duration
	MaxTokens         int64
	Temperature       float64

	// ChunkSize is the maximum byte length of one outbound call.
	ChunkSize int
	// AckTimeout is the acknowledgement window of one outbound call.
	AckTimeout time.Duration
	// Limiter paces outbound calls (nil = unlimited).
	Limiter *rate.Limiter

	// Store defaults to an in-memory store if not provided.
	Store core.StateStore
	// Completer overrides the resolver-backed completion client.
	Completer completion.Completer
	// Replier overrides the chunking dispatcher.
	Replier core.Replier

	// Logger defaults to NoOp logger if nil.
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// CommandRegistrar registers the command surface with the platform.
type CommandRegistrar interface {
	RegisterCommands(ctx context.Context, defs []core.CommandDefinition) error
}

// Relay is the high-level façade aggregating router, policy engine and
// dispatcher over one state store.
type Relay struct {
	opts   Options
	router *command.Router
	engine *policy.Engine
	logger logging.Logger
}

// New creates a Relay sending through gw and completing through models
// resolved by resolver. Any unset collaborator gets a default. resolver is
// only consulted by the default completion client; it may be nil when
// Options.Completer is set. Without either, every triggered message gets
// the completion error reply.
func New(gw core.Gateway, resolver completion.Resolver, optFns ...func(o *Options)) *Relay {
	opts := Options{
		Persona:       "Jeeves",
		AllowedModels: command.DefaultAllowedModels,
		Defaults: core.Defaults{
			Model:          "gpt-3.5-turbo",
			ResponsePolicy: core.ResponsePolicy{Kind: core.RespondToEveryMessage},
		},
		CompletionTimeout: 30 * time.Second,
		MaxTokens:         900,
		Temperature:       1.25,
		ChunkSize:         900,
		AckTimeout:        5 * time.Second,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	if opts.Store == nil {
		opts.Store = state.NewInMemoryStore(func(o *state.Options) {
			o.Logger = logging.ForComponent(opts.Logger, "state")
		})
	}
	if opts.Completer == nil {
		opts.Completer = completion.NewClient(resolver, func(o *completion.Options) {
			o.Timeout = opts.CompletionTimeout
			o.MaxTokens = opts.MaxTokens
			o.Temperature = opts.Temperature
			o.Persona = opts.Persona
			o.DefaultModel = opts.Defaults.Model
			o.Logger = logging.ForComponent(opts.Logger, "completion")
			o.Metrics = opts.Metrics
		})
	}
	if opts.Replier == nil {
		opts.Replier = dispatch.New(gw, func(o *dispatch.Options) {
			o.ChunkSize = opts.ChunkSize
			o.AckTimeout = opts.AckTimeout
			o.Limiter = opts.Limiter
			o.Logger = logging.ForComponent(opts.Logger, "dispatch")
			o.Metrics = opts.Metrics
		})
	}

	router := command.New(opts.Store, opts.Replier, func(o *command.Options) {
		o.Persona = opts.Persona
		o.Defaults = opts.Defaults
		o.AllowedModels = opts.AllowedModels
		o.Logger = logging.ForComponent(opts.Logger, "command")
	})
	engine := policy.New(opts.Store, opts.Completer, opts.Replier, func(o *policy.Options) {
		o.Persona = opts.Persona
		o.Logger = logging.ForComponent(opts.Logger, "policy")
		o.Metrics = opts.Metrics
	})

	return &Relay{
		opts:   opts,
		router: router,
		engine: engine,
		logger: logging.ForComponent(opts.Logger, "relay"),
	}
}

// Store returns the state store the relay operates on.
func (r *Relay) Store() core.StateStore { return r.opts.Store }

// RegisterCommands registers the command surface. Failure is fatal at
// startup.
func (r *Relay) RegisterCommands(ctx context.Context, reg CommandRegistrar) error {
	if err := reg.RegisterCommands(ctx, command.Definitions(r.opts.Persona)); err != nil {
		return fmt.Errorf("register commands: %w", err)
	}
	return nil
}

// Run processes events from src one at a time until src is exhausted
// (io.EOF, returns nil) or fails. Per-event failures, including payloads the
// source reports as gateway.ErrMalformedEvent, are logged and never stop the
// loop.
func (r *Relay) Run(ctx context.Context, src core.EventSource) error {
	r.logger.Info("relay started", "persona", r.opts.Persona)
	for {
		raw, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.logger.Info("event source exhausted")
				return nil
			}
			if errors.Is(err, gateway.ErrMalformedEvent) {
				r.opts.Metrics.Event("dropped")
				r.logger.Warn("dropping malformed event", "error", err)
				continue
			}
			return fmt.Errorf("next event: %w", err)
		}
		if err := r.HandleEvent(ctx, raw); err != nil {
			r.logger.Error("event handling failed", "error", err)
		}
	}
}

// HandleEvent decodes and dispatches one raw payload. Malformed and
// unsupported payloads are logged and dropped; they never produce an error.
func (r *Relay) HandleEvent(ctx context.Context, raw []byte) error {
	ev, err := gateway.Decode(raw)
	if err != nil {
		r.opts.Metrics.Event("dropped")
		if errors.Is(err, gateway.ErrUnsupportedEvent) {
			r.logger.Debug("dropping unsupported event", "error", err)
		} else {
			r.logger.Warn("dropping malformed event", "error", err)
		}
		return nil
	}
	return r.Dispatch(ctx, ev)
}

// Dispatch routes an already decoded event.
func (r *Relay) Dispatch(ctx context.Context, ev core.Event) error {
	switch e := ev.(type) {
	case core.InteractionCreate:
		r.opts.Metrics.Event("interaction")
		if err := r.router.Handle(ctx, e); err != nil {
			return fmt.Errorf("command %s in guild %s: %w", e.Command, e.GuildID, err)
		}
		return nil
	case core.MessageCreate:
		r.opts.Metrics.Event("message")
		outcome, err := r.engine.Handle(ctx, e)
		if err != nil {
			return fmt.Errorf("message %s in guild %s (%s): %w", e.ID, e.GuildID, outcome, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
}
