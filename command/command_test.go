package command

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/jeeves/core"
	"github.com/hupe1980/jeeves/internal/testutil"
	"github.com/hupe1980/jeeves/state"
)

type reply struct {
	Target core.Target
	Text   string
}

type recordingReplier struct {
	replies []reply
	err     error
}

func (r *recordingReplier) Reply(_ context.Context, target core.Target, text string) error {
	r.replies = append(r.replies, reply{Target: target, Text: text})
	return r.err
}

func newRouter(t *testing.T, snap *core.Snapshot) (*Router, *state.InMemoryStore, *recordingReplier) {
	t.Helper()
	store := state.NewInMemoryStore()
	if snap != nil {
		require.NoError(t, store.Save(snap))
	}
	rep := &recordingReplier{}
	return New(store, rep, func(o *Options) { o.Defaults.SystemPrompt = "be a butler" }), store, rep
}

func lastText(t *testing.T, rep *recordingReplier) string {
	t.Helper()
	require.NotEmpty(t, rep.replies)
	return rep.replies[len(rep.replies)-1].Text
}

func TestRouter_InitLazilyCreatesCommunity(t *testing.T) {
	r, store, rep := newRouter(t, nil)

	ev := testutil.NewInteractionBuilder("init").ID("i1").Token("tok1").In("g1", "c1").Build()
	require.NoError(t, r.Handle(context.Background(), ev))

	c, ok := store.Load().Community("g1")
	require.True(t, ok)
	assert.Equal(t, []string{"c1"}, c.ActiveChannels)
	assert.Equal(t, "gpt-3.5-turbo", c.Model)
	assert.Equal(t, "be a butler", c.SystemPrompt)
	assert.Equal(t, core.RespondToEveryMessage, c.ResponsePolicy.Kind)
	assert.Zero(t, c.Cooldown)

	require.Len(t, rep.replies, 1)
	assert.Equal(t, core.InteractionTarget("i1", "tok1"), rep.replies[0].Target)
	assert.Equal(t, InitText, rep.replies[0].Text)
}

func TestRouter_InitIsIdempotent(t *testing.T) {
	r, store, _ := newRouter(t, testutil.NewCommunityBuilder("g1").Active("c1").Snapshot())

	require.NoError(t, r.Handle(context.Background(), testutil.NewInteractionBuilder("init").Build()))
	require.NoError(t, r.Handle(context.Background(), testutil.NewInteractionBuilder("init").In("g1", "c2").Build()))
	require.NoError(t, r.Handle(context.Background(), testutil.NewInteractionBuilder("init").In("g1", "c2").Build()))

	c, _ := store.Load().Community("g1")
	assert.Equal(t, []string{"c1", "c2"}, c.ActiveChannels)
}

func TestRouter_Leave(t *testing.T) {
	r, store, rep := newRouter(t, testutil.NewCommunityBuilder("g1").Active("c1", "c2").Snapshot())

	require.NoError(t, r.Handle(context.Background(), testutil.NewInteractionBuilder("leave").In("g1", "c1").Build()))
	c, _ := store.Load().Community("g1")
	assert.Equal(t, []string{"c2"}, c.ActiveChannels)
	assert.Equal(t, LeaveText, lastText(t, rep))

	// leaving an inactive channel still acknowledges
	require.NoError(t, r.Handle(context.Background(), testutil.NewInteractionBuilder("leave").In("g1", "c1").Build()))
	assert.Equal(t, LeaveText, lastText(t, rep))
}

func TestRouter_Clear(t *testing.T) {
	r, store, rep := newRouter(t, testutil.NewCommunityBuilder("g1").Active("c1").
		Utterance("c1", "m1", "bertie", "hello").
		Utterance("c2", "m2", "bertie", "elsewhere").
		Snapshot())

	require.NoError(t, r.Handle(context.Background(), testutil.NewInteractionBuilder("clear").Build()))

	c, _ := store.Load().Community("g1")
	assert.Empty(t, c.Log("c1"))
	assert.Contains(t, c.ConversationLog, "c1")
	assert.Len(t, c.Log("c2"), 1)
	assert.Equal(t, ClearedText, lastText(t, rep))
}

func TestRouter_ModelValidation(t *testing.T) {
	r, store, rep := newRouter(t, testutil.NewCommunityBuilder("g1").Active("c1").Snapshot())

	require.NoError(t, r.Handle(context.Background(), testutil.NewInteractionBuilder("model").Option("model", "gpt-5-ultra").Build()))
	c, _ := store.Load().Community("g1")
	assert.Equal(t, "gpt-3.5-turbo", c.Model)
	text := lastText(t, rep)
	assert.True(t, strings.HasPrefix(text, "Invalid model: gpt-5-ultra."))
	for _, m := range DefaultAllowedModels {
		assert.Contains(t, text, m)
	}

	require.NoError(t, r.Handle(context.Background(), testutil.NewInteractionBuilder("model").Option("model", "gpt-4").Build()))
	c, _ = store.Load().Community("g1")
	assert.Equal(t, "gpt-4", c.Model)
	assert.Equal(t, "LLM has been changed to gpt-4", lastText(t, rep))
}

func TestRouter_InvalidModelCreatesNothing(t *testing.T) {
	r, store, rep := newRouter(t, nil)

	require.NoError(t, r.Handle(context.Background(), testutil.NewInteractionBuilder("model").Build()))
	assert.Empty(t, store.Load().Communities)
	assert.True(t, strings.HasPrefix(lastText(t, rep), "Invalid model: ."))
}

func TestRouter_ModelOnUnknownCommunity(t *testing.T) {
	r, store, _ := newRouter(t, nil)

	require.NoError(t, r.Handle(context.Background(), testutil.NewInteractionBuilder("model").Option("model", "local").Build()))
	c, ok := store.Load().Community("g1")
	require.True(t, ok)
	assert.Equal(t, "local", c.Model)
}

func TestRouter_Status(t *testing.T) {
	r, _, rep := newRouter(t, testutil.NewCommunityBuilder("g1").Active("c1", "c2").Model("gpt-4").
		Utterance("c1", "m1", "bertie", "a").
		Utterance("c1", "", "Jeeves", "b").
		Snapshot())

	require.NoError(t, r.Handle(context.Background(), testutil.NewInteractionBuilder("status").Build()))
	assert.Equal(t, "\n**Guild**: g1\n**Channels**: #c1, #c2\n**Message Count (this channel)**: 2\n**Model**: gpt-4", lastText(t, rep))
}

func TestRouter_StatusWithoutState(t *testing.T) {
	r, store, rep := newRouter(t, nil)

	require.NoError(t, r.Handle(context.Background(), testutil.NewInteractionBuilder("status").Build()))
	assert.Equal(t, NoStateText, lastText(t, rep))
	assert.Empty(t, store.Load().Communities)
}

func TestRouter_Help(t *testing.T) {
	r, store, rep := newRouter(t, nil)

	require.NoError(t, r.Handle(context.Background(), testutil.NewInteractionBuilder("help").Build()))
	text := lastText(t, rep)
	assert.True(t, strings.HasPrefix(text, "Greetings, sir. I am Jeeves, your most humble assistant."))
	for _, name := range []string{"/help", "/clear", "/init", "/leave", "/model", "/status"} {
		assert.Contains(t, text, name)
	}
	assert.Contains(t, text, "`gpt-4`")
	assert.Empty(t, store.Load().Communities)
}

func TestRouter_UnknownCommandIgnored(t *testing.T) {
	r, store, rep := newRouter(t, nil)

	require.NoError(t, r.Handle(context.Background(), testutil.NewInteractionBuilder("dance").Build()))
	assert.Empty(t, rep.replies)
	assert.Empty(t, store.Load().Communities)
}

func TestRouter_AckFailureReturned(t *testing.T) {
	r, store, rep := newRouter(t, nil)
	rep.err = errors.New("no ack")

	err := r.Handle(context.Background(), testutil.NewInteractionBuilder("init").Build())
	assert.ErrorContains(t, err, "no ack")
	// state change is kept even if the acknowledgement is lost
	_, ok := store.Load().Community("g1")
	assert.True(t, ok)
}

func TestDefinitions(t *testing.T) {
	defs := Definitions("Jeeves")
	require.Len(t, defs, 6)

	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
		assert.NotEmpty(t, d.Description)
		if d.Name != "model" {
			assert.Empty(t, d.Options)
		}
	}
	assert.Equal(t, []string{"help", "clear", "init", "leave", "status", "model"}, names)

	model := defs[5]
	require.Len(t, model.Options, 1)
	assert.Equal(t, "model", model.Options[0].Name)
	assert.True(t, model.Options[0].Required)
	assert.Equal(t, core.OptionTypeString, model.Options[0].Type)
	assert.Equal(t, "Make Jeeves forget the conversation thus far", defs[1].Description)
}
