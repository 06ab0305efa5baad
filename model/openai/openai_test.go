package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/jeeves/core"
	"github.com/hupe1980/jeeves/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ model.Model = (*Model)(nil)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "gpt-4",
  "choices": [{"index": 0, "finish_reason": "stop", "logprobs": null,
    "message": {"role": "assistant", "content": "Very good, sir."}}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
}`

func generate(t *testing.T, m *Model, req model.Request) (model.Response, error) {
	t.Helper()
	respCh, errCh := m.Generate(context.Background(), req)
	var last model.Response
	for r := range respCh {
		last = r
	}
	return last, <-errCh
}

func TestModel_GenerateSendsPromptAndParsesCompletion(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.APIKey = "test-key"
		o.BaseURL = srv.URL + "/"
	})
	resp, err := generate(t, m, model.Request{
		Model: "gpt-4",
		Messages: []core.Message{
			core.SystemMessage("be a butler"),
			core.UserMessage("[bertie]: tea?"),
			core.AssistantMessage("[Jeeves]: at once"),
		},
		MaxTokens:   900,
		Temperature: 1.25,
	})
	require.NoError(t, err)
	assert.Equal(t, "Very good, sir.", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 16, resp.Usage.TotalTokens)

	assert.Equal(t, "gpt-4", got["model"])
	assert.Equal(t, float64(900), got["max_tokens"])
	assert.Equal(t, 1.25, got["temperature"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 3)
	roles := []string{}
	for _, raw := range msgs {
		roles = append(roles, raw.(map[string]any)["role"].(string))
	}
	assert.Equal(t, []string{"system", "user", "assistant"}, roles)
}

func TestModel_GenerateSurfacesErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.APIKey = "k"
		o.BaseURL = srv.URL + "/"
	})
	_, err := generate(t, m, model.Request{Messages: []core.Message{core.UserMessage("hi")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai api error")
	assert.Equal(t, 1, calls, "adapter must not retry")
}

func TestModel_GenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-4","choices":[]}`)
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.APIKey = "k"
		o.BaseURL = srv.URL + "/"
	})
	_, err := generate(t, m, model.Request{Messages: []core.Message{core.UserMessage("hi")}})
	assert.ErrorIs(t, err, model.ErrMalformedResponse)
}

func TestModel_Info(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.APIKey = "k"
		o.Model = "local"
		o.Provider = "local"
	})
	assert.Equal(t, model.Info{Name: "local", Provider: "local"}, m.Info())
}
