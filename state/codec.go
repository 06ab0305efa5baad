package state

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/jeeves/core"
	"github.com/hupe1980/jeeves/logging"
)

var (
	// ErrEncode is returned by Save when the snapshot could not be serialized
	// and the empty placeholder was persisted instead.
	ErrEncode = fmt.Errorf("state: snapshot encoding failed")
)

// Codec converts snapshots to and from their persisted blob form.
type Codec interface {
	Marshal(s *core.Snapshot) ([]byte, error)
	Unmarshal(data []byte) (*core.Snapshot, error)
}

// JSONCodec is the default Codec.
type JSONCodec struct{}

// Marshal implements Codec.
func (JSONCodec) Marshal(s *core.Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// Unmarshal implements Codec.
func (JSONCodec) Unmarshal(data []byte) (*core.Snapshot, error) {
	s := core.EmptySnapshot()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	if s.Communities == nil {
		s.Communities = map[string]*core.Community{}
	}
	for id, c := range s.Communities {
		if c == nil {
			delete(s.Communities, id)
			continue
		}
		if c.ConversationLog == nil {
			c.ConversationLog = map[string][]core.Utterance{}
		}
		if c.ActiveChannels == nil {
			c.ActiveChannels = []string{}
		}
	}
	return s, nil
}

// Options configures the shared encode/decode behaviour of all stores.
type Options struct {
	// Codec serializes snapshots. Defaults to JSONCodec.
	Codec Codec
	// Logger receives decode/encode failures. Defaults to NoOpLogger.
	Logger logging.Logger
}

func newOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Codec:  JSONCodec{},
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = JSONCodec{}
	}
	opts.Logger = logging.OrNoOp(opts.Logger)
	return opts
}

// encode serializes s. On failure it returns the empty placeholder together
// with a wrapped ErrEncode; callers persist the placeholder regardless.
func (o Options) encode(s *core.Snapshot) ([]byte, error) {
	if s == nil {
		s = core.EmptySnapshot()
	}
	data, err := o.Codec.Marshal(s)
	if err != nil {
		o.Logger.Error("snapshot encoding failed, persisting empty placeholder", "error", err)
		return []byte{}, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return data, nil
}

// decode deserializes data, falling back to an empty snapshot.
func (o Options) decode(data []byte) *core.Snapshot {
	if len(data) == 0 {
		return core.EmptySnapshot()
	}
	s, err := o.Codec.Unmarshal(data)
	if err != nil || s == nil {
		o.Logger.Warn("snapshot decoding failed, starting from empty state", "error", err)
		return core.EmptySnapshot()
	}
	return s
}
