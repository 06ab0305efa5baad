package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/hupe1980/jeeves/core"
)

// Interface compliance (compile-time assertion)
var _ core.Replier = (*Dispatcher)(nil)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Send(ctx context.Context, call core.Call) error {
	args := m.Called(ctx, call)
	return args.Error(0)
}

func sentContents(gw *mockGateway) []string {
	var out []string
	for _, c := range gw.Calls {
		switch call := c.Arguments.Get(1).(type) {
		case core.CreateChannelMessage:
			out = append(out, call.Content)
		case core.CreateInteractionResponse:
			out = append(out, call.Content)
		}
	}
	return out
}

func TestSplit(t *testing.T) {
	text := strings.Repeat("a", 1850)
	chunks := Split(text, 900)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 900)
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplit_RuneBoundaries(t *testing.T) {
	// 3-byte runes never align with 900 once offset by one byte
	text := "x" + strings.Repeat("€", 700)
	chunks := Split(text, 900)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 900)
		assert.True(t, utf8.ValidString(c))
	}
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestSplit_EdgeCases(t *testing.T) {
	assert.Nil(t, Split("", 900))
	assert.Equal(t, []string{"short"}, Split("short", 900))
	assert.Equal(t, []string{strings.Repeat("b", 900)}, Split(strings.Repeat("b", 900), 900))
	assert.Equal(t, []string{"abc"}, Split("abc", 0))
	assert.Equal(t, []string{"€", "€"}, Split("€€", 1))
}

func TestDispatcher_ChunksChannelReply(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Send", mock.Anything, mock.AnythingOfType("core.CreateChannelMessage")).Return(nil)

	d := New(gw)
	text := strings.Repeat("z", 1850)
	require.NoError(t, d.Reply(context.Background(), core.ChannelTarget("c1"), text))

	gw.AssertNumberOfCalls(t, "Send", 3)
	assert.Equal(t, text, strings.Join(sentContents(gw), ""))
	for _, c := range gw.Calls {
		assert.Equal(t, "c1", c.Arguments.Get(1).(core.CreateChannelMessage).ChannelID)
	}
}

func TestDispatcher_InteractionTarget(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Send", mock.Anything, core.CreateInteractionResponse{
		InteractionID:    "i1",
		InteractionToken: "tok",
		Type:             core.InteractionResponseChannelMessage,
		Content:          "Conversation history cleared.",
	}).Return(nil).Once()

	d := New(gw)
	require.NoError(t, d.Reply(context.Background(), core.InteractionTarget("i1", "tok"), "Conversation history cleared."))
	gw.AssertExpectations(t)
}

func TestDispatcher_EmptyTextSendsNothing(t *testing.T) {
	gw := new(mockGateway)
	require.NoError(t, New(gw).Reply(context.Background(), core.ChannelTarget("c1"), ""))
	gw.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatcher_ContinuesAfterFailure(t *testing.T) {
	gw := new(mockGateway)
	boom := errors.New("boom")
	gw.On("Send", mock.Anything, mock.Anything).Return(boom).Once()
	gw.On("Send", mock.Anything, mock.Anything).Return(nil)

	err := New(gw, func(o *Options) { o.ChunkSize = 2 }).Reply(context.Background(), core.ChannelTarget("c1"), "abcdef")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "chunk 1/3")
	gw.AssertNumberOfCalls(t, "Send", 3)
}

func TestDispatcher_AckWindow(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Send", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 40*time.Millisecond)
	})

	d := New(gw, func(o *Options) { o.AckTimeout = 50 * time.Millisecond })
	require.NoError(t, d.Reply(context.Background(), core.ChannelTarget("c1"), "hi"))
}

func TestDispatcher_PacingHonoursContext(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Send", mock.Anything, mock.Anything).Return(nil)

	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	d := New(gw, func(o *Options) {
		o.ChunkSize = 1
		o.Limiter = limiter
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.Reply(ctx, core.ChannelTarget("c1"), "ab")
	require.Error(t, err)
	gw.AssertNumberOfCalls(t, "Send", 1)
}
