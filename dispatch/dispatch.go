// Package dispatch delivers reply text to the chat platform.
//
// Text longer than the chunk size is split into sequential chunks, each sent
// as its own outbound call in order. Every call is given an acknowledgement
// window; a call that fails or is not acknowledged in time is reported but
// not retried, and the remaining chunks are still sent.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/hupe1980/jeeves/core"
	"github.com/hupe1980/jeeves/logging"
	"github.com/hupe1980/jeeves/metrics"
)

// Options configures the Dispatcher.
type Options struct {
	// ChunkSize is the maximum byte length of a single outbound call.
	ChunkSize int
	// AckTimeout bounds how long a single call may wait for the transport.
	AckTimeout time.Duration
	// Limiter paces outbound calls. Nil means unlimited.
	Limiter *rate.Limiter
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Dispatcher implements core.Replier on top of a core.Gateway.
type Dispatcher struct {
	gateway core.Gateway
	opts    Options
}

// New constructs a Dispatcher sending through gw.
func New(gw core.Gateway, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		ChunkSize:  900,
		AckTimeout: 5 * time.Second,
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &Dispatcher{gateway: gw, opts: opts}
}

// Reply implements core.Replier. Empty text sends nothing.
func (d *Dispatcher) Reply(ctx context.Context, target core.Target, text string) error {
	chunks := Split(text, d.opts.ChunkSize)
	if len(chunks) == 0 {
		return nil
	}

	replyID := core.NewID()
	start := time.Now()
	var errs []error
	for i, chunk := range chunks {
		err := d.send(ctx, target.Call(chunk))
		d.opts.Metrics.Chunk(target.Kind.String(), err)
		if err != nil {
			d.opts.Logger.Error("dispatch chunk failed",
				"reply_id", replyID, "target", target.Kind.String(), "chunk", i+1, "chunks", len(chunks), "error", err)
			errs = append(errs, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err))
		}
	}
	err := errors.Join(errs...)

	if rl, ok := d.opts.Logger.(*logging.RelayLogger); ok {
		rl.WithContext("reply_id", replyID).LogDispatch(target.Kind.String(), len(chunks), time.Since(start), err)
	}
	return err
}

func (d *Dispatcher) send(ctx context.Context, call core.Call) error {
	if d.opts.Limiter != nil {
		if err := d.opts.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("pacing: %w", err)
		}
	}
	ctx, cancel := context.WithTimeout(ctx, d.opts.AckTimeout)
	defer cancel()
	return d.gateway.Send(ctx, call)
}

// Split cuts text into chunks of at most limit bytes. Cuts are moved back to
// the nearest rune boundary so no UTF-8 sequence is split; concatenating the
// chunks yields text exactly. A limit <= 0 returns text as a single chunk.
func Split(text string, limit int) []string {
	if text == "" {
		return nil
	}
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}
	chunks := make([]string, 0, len(text)/limit+1)
	for len(text) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			// limit smaller than one rune; emit the rune whole
			_, size := utf8.DecodeRuneInString(text)
			cut = size
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
