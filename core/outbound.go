package core

import "context"

// InteractionResponseChannelMessage is the interaction callback type for a
// message-with-source response.
const InteractionResponseChannelMessage = 4

// TargetKind distinguishes the two reply paths.
type TargetKind int

const (
	// TargetInteraction replies to a command via its one-time token.
	TargetInteraction TargetKind = iota
	// TargetChannel posts a plain message to a channel.
	TargetChannel
)

// String returns a short label used in logs and metrics.
func (k TargetKind) String() string {
	if k == TargetInteraction {
		return "interaction"
	}
	return "channel"
}

// Target addresses a reply.
type Target struct {
	Kind             TargetKind
	InteractionID    string
	InteractionToken string
	ChannelID        string
}

// InteractionTarget addresses the response to an interaction.
func InteractionTarget(id, token string) Target {
	return Target{Kind: TargetInteraction, InteractionID: id, InteractionToken: token}
}

// ChannelTarget addresses a plain channel message.
func ChannelTarget(channelID string) Target {
	return Target{Kind: TargetChannel, ChannelID: channelID}
}

// Call builds the outbound call carrying content to this target.
func (t Target) Call(content string) Call {
	if t.Kind == TargetInteraction {
		return CreateInteractionResponse{
			InteractionID:    t.InteractionID,
			InteractionToken: t.InteractionToken,
			Type:             InteractionResponseChannelMessage,
			Content:          content,
		}
	}
	return CreateChannelMessage{ChannelID: t.ChannelID, Content: content}
}

// Call is an outbound gateway call. Concrete types implement the unexported
// isCall marker enabling a closed set.
type Call interface{ isCall() }

// CreateInteractionResponse answers an interaction.
type CreateInteractionResponse struct {
	InteractionID    string
	InteractionToken string
	Type             int
	Content          string
}

// isCall implements the Call interface for CreateInteractionResponse.
func (CreateInteractionResponse) isCall() {}

// CreateChannelMessage posts a message to a channel.
type CreateChannelMessage struct {
	ChannelID string
	Content   string
}

// isCall implements the Call interface for CreateChannelMessage.
func (CreateChannelMessage) isCall() {}

// Gateway delivers outbound calls to the chat platform. Send returns once the
// transport acknowledged the call or ctx expired.
type Gateway interface {
	Send(ctx context.Context, call Call) error
}

// Replier sends reply text to a target, taking care of size limits.
type Replier interface {
	Reply(ctx context.Context, target Target, text string) error
}

// EventSource yields raw inbound payloads one at a time. Next blocks until a
// payload is available and returns io.EOF once the source is exhausted.
type EventSource interface {
	Next(ctx context.Context) ([]byte, error)
}
