package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/davidbz/tokenmeter/internal/observability"
)

// wideEncoderMarkers select the wide encoder when found anywhere in a model
// name. The match is a case-sensitive substring test.
//
//nolint:gochecknoglobals // Read-only dispatch table
var wideEncoderMarkers = []string{"o1", "4o"}

// TokenCounter counts tokens of chat or raw payloads, picking one of two
// encoders by model name.
type TokenCounter struct {
	wide   Encoder
	legacy Encoder
	events EventPublisher
}

// NewTokenCounter creates a counter. wide serves the o1 and 4o model
// families, legacy serves everything else.
func NewTokenCounter(wide, legacy Encoder, events EventPublisher) *TokenCounter {
	return &TokenCounter{
		wide:   wide,
		legacy: legacy,
		events: events,
	}
}

// EncoderFor returns the encoder used for model.
func (c *TokenCounter) EncoderFor(model string) Encoder {
	for _, marker := range wideEncoderMarkers {
		if strings.Contains(model, marker) {
			return c.wide
		}
	}
	return c.legacy
}

// Count returns the token count of the request payload.
func (c *TokenCounter) Count(ctx context.Context, req TokenizeRequest) (int, error) {
	text, err := payloadText(req.Payload, req.Kind)
	if err != nil {
		return 0, err
	}

	encoder := c.EncoderFor(req.Model)

	tokens, err := encoder.Count(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %s encoding failed: %w", ErrInvalidPayload, encoder.Name(), err)
	}

	observability.FromContext(ctx).Debug("tokens counted",
		zap.String("model", req.Model),
		zap.String("kind", string(req.Kind)),
		zap.String("encoding", encoder.Name()),
		zap.Int("tokens", tokens),
	)
	if c.events != nil {
		c.events.Publish(ctx, EventTokensCounted, map[string]interface{}{
			"encoding": encoder.Name(),
			"tokens":   tokens,
		})
	}

	return tokens, nil
}

type chatMessage struct {
	Content *string `json:"content"`
}

// payloadText turns a payload into the text handed to the encoder.
func payloadText(payload json.RawMessage, kind PayloadKind) (string, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return "", fmt.Errorf("%w: payload is empty", ErrInvalidPayload)
	}

	if kind == PayloadChat {
		return chatText(trimmed)
	}

	return rawText(trimmed)
}

// chatText concatenates message contents in order, without a separator.
func chatText(payload []byte) (string, error) {
	if payload[0] != '[' {
		return "", fmt.Errorf("%w: chat payload must be an array of messages", ErrInvalidPayload)
	}

	var messages []chatMessage
	if err := json.Unmarshal(payload, &messages); err != nil {
		return "", fmt.Errorf("%w: chat payload must be an array of messages: %w", ErrInvalidPayload, err)
	}

	var sb strings.Builder
	for i, msg := range messages {
		if msg.Content == nil {
			return "", fmt.Errorf("%w: message %d has no content", ErrInvalidPayload, i)
		}
		sb.WriteString(*msg.Content)
	}

	return sb.String(), nil
}

// rawText returns a JSON string as is and any other value in canonical
// compact form: numbers normalized, non-ASCII unescaped, object keys sorted.
func rawText(payload []byte) (string, error) {
	if payload[0] == '"' {
		var text string
		if err := json.Unmarshal(payload, &text); err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		return text, nil
	}

	var value interface{}
	if err := json.Unmarshal(payload, &value); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}
