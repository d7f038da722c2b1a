// Package telegram implements the notification delivery channel. Alert
// messages are sent as plain text to a fixed chat via the Telegram Bot API
// sendMessage method.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"duskwatch/internal/external"
	"duskwatch/internal/types"
)

// maxResponseBodyRead limits how much of a response body we read for error
// messages.
const maxResponseBodyRead = 4096

// DeliveryResult describes a completed delivery attempt.
type DeliveryResult struct {
	MessageID int64
	ChatID    string
}

// sendMessageRequest is the Bot API sendMessage payload.
type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// sendMessageResponse is the Bot API response envelope.
type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// Channel delivers notification text over the Telegram Bot API. A delivery
// failure is reported to the caller for logging but is never retried; the
// technical log of the run is produced either way.
type Channel struct {
	base   *external.BaseClient
	apiURL string
	token  types.SecretString
	chatID string
	logger *slog.Logger
}

// ChannelConfig holds the configuration for creating a Channel.
type ChannelConfig struct {
	Base   *external.BaseClient
	APIURL string // e.g. https://api.telegram.org
	Token  types.SecretString
	ChatID string
	Logger *slog.Logger
}

// NewChannel creates a Channel.
func NewChannel(cfg ChannelConfig) *Channel {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{
		base:   cfg.Base,
		apiURL: cfg.APIURL,
		token:  cfg.Token,
		chatID: cfg.ChatID,
		logger: logger,
	}
}

// ValidateConfig checks that the channel has the credentials it needs.
func (c *Channel) ValidateConfig() error {
	if c.token.Unmask() == "" {
		return fmt.Errorf("telegram channel: missing bot token")
	}
	if c.chatID == "" {
		return fmt.Errorf("telegram channel: missing chat ID")
	}
	return nil
}

// Format transforms the notification text into the sendMessage JSON payload.
func (c *Channel) Format(text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("telegram channel: empty message text")
	}
	return json.Marshal(sendMessageRequest{ChatID: c.chatID, Text: text})
}

// Deliver posts the payload to the Bot API. Any non-success response is a
// delivery failure expressed as an upstream AppError.
func (c *Channel) Deliver(ctx context.Context, payload []byte) (*DeliveryResult, error) {
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiURL, c.token.Unmask())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamTelegram, "failed to build sendMessage request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamTelegram, "sendMessage request failed", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyRead))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamTelegram,
			fmt.Sprintf("sendMessage returned %d: %s", resp.StatusCode, truncate(body, 200)),
			nil,
		)
	}

	var apiResp sendMessageResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamTelegram, "failed to decode sendMessage response", err)
	}
	if !apiResp.OK {
		return nil, types.NewAppError(
			types.ErrCodeUpstreamTelegram,
			fmt.Sprintf("sendMessage rejected: %s", apiResp.Description),
			nil,
		)
	}

	return &DeliveryResult{MessageID: apiResp.Result.MessageID, ChatID: c.chatID}, nil
}

// truncate shortens a byte slice for inclusion in error messages.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
