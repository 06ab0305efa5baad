package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/jeeves/core"
	"github.com/hupe1980/jeeves/logging"
)

// DefaultBaseURL is the platform REST API root.
const DefaultBaseURL = "https://discord.com/api/v10"

// Options configures the RESTGateway.
type Options struct {
	BaseURL       string
	BotToken      string
	ApplicationID string
	HTTPClient    *http.Client
	Logger        logging.Logger
}

// RESTGateway implements core.Gateway over the platform HTTP API. The
// acknowledgement window is the deadline of the context passed to Send.
type RESTGateway struct {
	opts Options
}

// NewRESTGateway constructs a RESTGateway.
func NewRESTGateway(optFns ...func(o *Options)) *RESTGateway {
	opts := Options{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	opts.Logger = logging.OrNoOp(opts.Logger)
	return &RESTGateway{opts: opts}
}

type interactionResponse struct {
	Type int `json:"type"`
	Data struct {
		Content string `json:"content"`
	} `json:"data"`
}

type channelMessage struct {
	Content string `json:"content"`
}

// Send implements core.Gateway.
func (g *RESTGateway) Send(ctx context.Context, call core.Call) error {
	switch c := call.(type) {
	case core.CreateInteractionResponse:
		body := interactionResponse{Type: c.Type}
		body.Data.Content = c.Content
		// interaction callbacks are authenticated by the token in the path
		return g.post(ctx, fmt.Sprintf("/interactions/%s/%s/callback", c.InteractionID, c.InteractionToken), body, false)
	case core.CreateChannelMessage:
		return g.post(ctx, fmt.Sprintf("/channels/%s/messages", c.ChannelID), channelMessage{Content: c.Content}, true)
	default:
		return fmt.Errorf("gateway: unsupported call %T", call)
	}
}

// RegisterCommands registers every definition with the platform, one
// request per command. Any failure aborts registration.
func (g *RESTGateway) RegisterCommands(ctx context.Context, defs []core.CommandDefinition) error {
	if g.opts.ApplicationID == "" {
		return fmt.Errorf("gateway: application id is required to register commands")
	}
	path := fmt.Sprintf("/applications/%s/commands", g.opts.ApplicationID)
	for _, def := range defs {
		if err := g.post(ctx, path, def, true); err != nil {
			return fmt.Errorf("register command %q: %w", def.Name, err)
		}
		g.opts.Logger.Info("command registered", "command", def.Name)
	}
	return nil
}

func (g *RESTGateway) post(ctx context.Context, path string, payload any, auth bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gateway: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.opts.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if auth && g.opts.BotToken != "" {
		req.Header.Set("Authorization", "Bot "+g.opts.BotToken)
	}

	resp, err := g.opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: post %s: %w", redact(path), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("gateway: post %s: %d %s", redact(path), resp.StatusCode, strings.TrimSpace(string(b)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// redact hides interaction tokens in error messages and logs.
func redact(path string) string {
	if !strings.HasPrefix(path, "/interactions/") {
		return path
	}
	parts := strings.Split(path, "/")
	if len(parts) >= 4 {
		parts[3] = "***"
	}
	return strings.Join(parts, "/")
}
