// Package chat sends one user message to the assistant and normalizes the
// reply, whatever envelope or field names the backend chose.
package chat

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/csheth/studybot/internal/api"
)

const messagePath = "/chat/message"

// replyFields are equally valid names for the assistant's text.
var replyFields = []string{"reply", "message", "response"}

// Payload is the canonical form of an assistant response.
type Payload struct {
	Reply       string
	Suggestions []string
	// Metrics holds the raw metric objects; nil when the response had none.
	Metrics   []json.RawMessage
	Metadata  map[string]any
	SessionID string
}

// Client posts messages to the chat endpoint.
type Client struct {
	api *api.Client
	log *zap.Logger
}

func NewClient(client *api.Client, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{api: client, log: log}
}

type messageRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// Send posts message under sessionID. Only transport failures and
// non-success statuses are errors; a malformed body yields an empty payload.
func (c *Client) Send(ctx context.Context, sessionID, message string) (Payload, error) {
	resp, err := c.api.PostJSON(ctx, messagePath, messageRequest{SessionID: sessionID, Message: message})
	if err != nil {
		return Payload{}, err
	}
	payload := Normalize(resp.Object, sessionID)
	c.log.Debug("chat reply",
		zap.String("session", payload.SessionID),
		zap.Int("replyChars", len(payload.Reply)),
		zap.Int("suggestions", len(payload.Suggestions)),
		zap.Int("metrics", len(payload.Metrics)))
	return payload, nil
}

// Normalize maps an already-unwrapped response object onto Payload.
func Normalize(obj api.Object, fallbackSessionID string) Payload {
	payload := Payload{
		Reply:       replyText(obj),
		Suggestions: suggestions(obj),
		SessionID:   fallbackSessionID,
	}
	if items, ok := obj.Array("metrics"); ok {
		payload.Metrics = items
	}
	if meta, ok := obj.Map("metadata"); ok {
		payload.Metadata = meta
	}
	if id, ok := obj.String("sessionId"); ok && strings.TrimSpace(id) != "" {
		payload.SessionID = id
	}
	return payload
}

func replyText(obj api.Object) string {
	for _, field := range replyFields {
		raw, ok := obj.Present(field)
		if !ok {
			continue
		}
		if text, isString := obj.String(field); isString {
			return text
		}
		return string(raw)
	}
	return ""
}

func suggestions(obj api.Object) []string {
	items, ok := obj.Array("suggestions")
	result := make([]string, 0, len(items))
	if !ok {
		return result
	}
	for _, raw := range items {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		result = append(result, s)
	}
	return result
}
