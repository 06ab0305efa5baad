// Package completion turns a prompt context into a single completion string.
//
// The Client issues exactly one backend call per request and waits at most
// Options.Timeout for it. Timeouts, transport failures and malformed
// responses all surface as an *Error that matches ErrCompletionFailed; none
// are retried here.
package completion

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hupe1980/jeeves/core"
	"github.com/hupe1980/jeeves/logging"
	"github.com/hupe1980/jeeves/metrics"
	"github.com/hupe1980/jeeves/model"
)

var (
	// ErrCompletionFailed matches every error returned by Client.Complete.
	ErrCompletionFailed = fmt.Errorf("completion failed")
	// ErrNoResolver is the cause reported by a Client built without a
	// Resolver.
	ErrNoResolver = fmt.Errorf("no model resolver configured")
)

// Reason classifies a completion failure.
type Reason string

const (
	// ReasonTimeout means the backend did not answer within the timeout.
	ReasonTimeout Reason = "timeout"
	// ReasonTransport covers backend resolution and network/API failures.
	ReasonTransport Reason = "transport"
	// ReasonMalformed means the backend answered without a usable completion.
	ReasonMalformed Reason = "malformed response"
)

// Error is the single error type surfaced by the Client.
type Error struct {
	Model  string
	Reason Reason
	Err    error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

// Is makes every *Error match ErrCompletionFailed.
func (e *Error) Is(target error) bool { return target == ErrCompletionFailed }

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Completer produces one completion for a prompt context.
type Completer interface {
	Complete(ctx context.Context, modelID string, msgs []core.Message) (string, error)
}

// Resolver maps a model id to the backend serving it.
type Resolver interface {
	Resolve(id string) (model.Model, error)
}

// Options configures the Client.
type Options struct {
	Timeout      time.Duration
	MaxTokens    int64
	Temperature  float64
	Persona      string
	DefaultModel string
	Logger       logging.Logger
	Metrics      *metrics.Metrics
}

// Client is the default Completer backed by a model Resolver.
type Client struct {
	resolver Resolver
	opts     Options
}

// NewClient constructs a Client. A nil resolver yields a Client whose every
// call fails with ErrNoResolver.
func NewClient(resolver Resolver, optFns ...func(o *Options)) *Client {
	opts := Options{
		Timeout:      30 * time.Second,
		MaxTokens:    900,
		Temperature:  1.25,
		Persona:      "Jeeves",
		DefaultModel: "gpt-3.5-turbo",
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Client{resolver: resolver, opts: opts}
}

// Complete implements Completer.
func (c *Client) Complete(ctx context.Context, modelID string, msgs []core.Message) (string, error) {
	if modelID == "" {
		modelID = c.opts.DefaultModel
	}
	start := time.Now()
	text, err := c.complete(ctx, modelID, msgs)
	dur := time.Since(start)

	c.opts.Metrics.Completion(modelID, dur, err)
	if rl, ok := c.opts.Logger.(*logging.RelayLogger); ok {
		rl.LogCompletion(modelID, dur, err)
	} else if err != nil {
		c.opts.Logger.Error("completion failed", "model", modelID, "error", err)
	}
	return text, err
}

func (c *Client) complete(ctx context.Context, modelID string, msgs []core.Message) (string, error) {
	if c.resolver == nil {
		return "", &Error{Model: modelID, Reason: ReasonTransport, Err: ErrNoResolver}
	}
	backend, err := c.resolver.Resolve(modelID)
	if err != nil {
		return "", &Error{Model: modelID, Reason: ReasonTransport, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	respCh, errCh := backend.Generate(ctx, model.Request{
		Model:       modelID,
		Messages:    msgs,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})

	var final *model.Response
	for {
		select {
		case <-ctx.Done():
			return "", c.classify(modelID, ctx.Err())

		case resp, ok := <-respCh:
			if !ok {
				// Response channel closed - check for terminal error
				select {
				case err := <-errCh:
					if err != nil {
						return "", c.classify(modelID, err)
					}
				default:
				}
				if final == nil {
					return "", &Error{Model: modelID, Reason: ReasonMalformed, Err: model.ErrMalformedResponse}
				}
				// a reply consisting only of the persona tag is as empty as no reply
				text := StripPersonaTag(final.Text, c.opts.Persona)
				if text == "" {
					return "", &Error{Model: modelID, Reason: ReasonMalformed, Err: model.ErrMalformedResponse}
				}
				return text, nil
			}
			if !resp.Partial {
				r := resp
				final = &r
			}

		case err, ok := <-errCh:
			if ok && err != nil {
				return "", c.classify(modelID, err)
			}
			if !ok {
				errCh = nil
			}
		}
	}
}

func (c *Client) classify(modelID string, err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Model: modelID, Reason: ReasonTimeout, Err: fmt.Errorf("no completion within %s", c.opts.Timeout)}
	case errors.Is(err, model.ErrMalformedResponse):
		return &Error{Model: modelID, Reason: ReasonMalformed, Err: err}
	default:
		return &Error{Model: modelID, Reason: ReasonTransport, Err: err}
	}
}

// StripPersonaTag removes a leading "[persona]:" role tag that backends tend
// to echo from the flat prompt format, then trims surrounding whitespace.
func StripPersonaTag(text, persona string) string {
	text = strings.TrimSpace(text)
	if persona == "" {
		return text
	}
	re := regexp.MustCompile(`(?i)^\[` + regexp.QuoteMeta(persona) + `\]:\s*`)
	return strings.TrimSpace(re.ReplaceAllString(text, ""))
}
