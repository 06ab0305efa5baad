package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/jeeves/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ Model = (*MockModel)(nil)

func generate(t *testing.T, ctx context.Context, m Model, prompt string) (string, error) {
	t.Helper()
	respCh, errCh := m.Generate(ctx, Request{Messages: []core.Message{core.UserMessage(prompt)}})
	var text string
	for r := range respCh {
		if !r.Partial {
			text = r.Text
		}
	}
	return text, <-errCh
}

func TestMockModel_CannedAndDefaultResponses(t *testing.T) {
	m := NewMockModel("mock", "test")
	m.AddResponse("[bertie]: hello", "Good morning, sir.")

	text, err := generate(t, context.Background(), m, "[bertie]: hello")
	require.NoError(t, err)
	assert.Equal(t, "Good morning, sir.", text)

	text, err = generate(t, context.Background(), m, "other")
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: other", text)
	assert.Len(t, m.Requests(), 2)
}

func TestMockModel_ErrorAndDelay(t *testing.T) {
	m := NewMockModel("mock", "test")
	m.SetError(errors.New("boom"))
	_, err := generate(t, context.Background(), m, "x")
	assert.EqualError(t, err, "boom")

	m.SetError(nil)
	m.SetDelay(time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = generate(t, ctx, m, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRegistry_Resolve(t *testing.T) {
	fallback := NewMockModel("fallback", "openai")
	claude := NewMockModel("claude", "anthropic")
	sonnet := NewMockModel("sonnet", "anthropic")
	local := NewMockModel("local", "local")

	r := NewRegistry(fallback)
	r.Register("local", local)
	r.RegisterPrefix("claude-", claude)
	r.RegisterPrefix("claude-3-5-sonnet", sonnet)

	tests := []struct {
		id   string
		want Model
	}{
		{"local", local},
		{"claude-3-opus", claude},
		{"claude-3-5-sonnet-latest", sonnet},
		{"gpt-4", fallback},
	}
	for _, tt := range tests {
		got, err := r.Resolve(tt.id)
		require.NoError(t, err, tt.id)
		assert.Same(t, tt.want, got, tt.id)
	}

	empty := NewRegistry(nil)
	_, err := empty.Resolve("gpt-4")
	assert.Error(t, err)
}
