package main

import (
	"fmt"
	"io"

	"github.com/hupe1980/jeeves/config"
	"github.com/hupe1980/jeeves/core"
	"github.com/hupe1980/jeeves/logging"
	"github.com/hupe1980/jeeves/model"
	"github.com/hupe1980/jeeves/model/anthropic"
	"github.com/hupe1980/jeeves/model/openai"
	"github.com/hupe1980/jeeves/state"
)

// openStore opens the configured state backend. The returned closer is
// never nil.
func openStore(cfg *config.Config, logger logging.Logger) (core.StateStore, io.Closer, error) {
	withLogger := func(o *state.Options) { o.Logger = logger }
	switch cfg.State.Backend {
	case "memory":
		return state.NewInMemoryStore(withLogger), nopCloser{}, nil
	case "file":
		s, err := state.NewFileStore(cfg.State.Path, withLogger)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	case "pebble":
		s, err := state.OpenPebbleStore(cfg.State.Path, withLogger)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", cfg.State.Backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newRegistry routes model ids to backends: "local" to the self-hosted
// OpenAI-compatible server, "gpt-" to OpenAI and "claude-" to Anthropic
// when a key is configured.
func newRegistry(cfg *config.Config) *model.Registry {
	reg := model.NewRegistry(nil)

	reg.Register("local", openai.NewModel(func(o *openai.Options) {
		o.Model = "local"
		o.BaseURL = cfg.LLM.LocalBaseURL
		o.APIKey = "local"
		o.Provider = "local"
	}))

	reg.RegisterPrefix("gpt-", openai.NewModel(func(o *openai.Options) {
		o.APIKey = cfg.LLM.OpenAIAPIKey
		o.BaseURL = cfg.LLM.OpenAIBaseURL
	}))

	if cfg.LLM.AnthropicAPIKey != "" {
		reg.RegisterPrefix("claude-", anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.LLM.AnthropicAPIKey
		}))
	}
	return reg
}
