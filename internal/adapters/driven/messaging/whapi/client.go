// Package whapi provides a Messenger adapter for the Whapi.Cloud
// WhatsApp gateway.
package whapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oasisprop/concierge/internal/core/domain"
	"github.com/oasisprop/concierge/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.Messenger = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://gate.whapi.cloud"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the Whapi client.
type Config struct {
	// Token is the channel API token (required).
	Token string

	// BaseURL is the gateway base URL (default: https://gate.whapi.cloud).
	BaseURL string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Client sends WhatsApp messages through the Whapi gateway.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

type sendTextRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Interactive message payload, matching the gateway's
// /messages/interactive schema.
type sendInteractiveRequest struct {
	To       string                `json:"to"`
	Type     string                `json:"type"`
	ViewOnce bool                  `json:"view_once"`
	Header   *interactiveText      `json:"header,omitempty"`
	Body     interactiveText       `json:"body"`
	Footer   *interactiveText      `json:"footer,omitempty"`
	Action   sendInteractiveAction `json:"action"`
}

type interactiveText struct {
	Text string `json:"text"`
}

type sendInteractiveAction struct {
	Buttons []interactiveButton `json:"buttons"`
}

type interactiveButton struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	ID    string `json:"id"`
}

type sendResponse struct {
	Sent  bool `json:"sent"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// NewClient creates a new Whapi client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("whapi: API token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
	}, nil
}

// SendText sends a plain text message to the given recipient.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient is empty: %w", domain.ErrInvalidInput)
	}
	return c.post(ctx, "/messages/text", sendTextRequest{To: to, Body: text})
}

// SendInteractive sends a quick-reply button message.
func (c *Client) SendInteractive(ctx context.Context, to string, msg domain.InteractiveMessage) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient is empty: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(msg.Body) == "" {
		return fmt.Errorf("interactive message has no body: %w", domain.ErrInvalidInput)
	}
	if len(msg.Buttons) == 0 {
		return fmt.Errorf("interactive message has no buttons: %w", domain.ErrInvalidInput)
	}

	payload := sendInteractiveRequest{
		To:   to,
		Type: "button",
		Body: interactiveText{Text: msg.Body},
	}
	if msg.Header != "" {
		payload.Header = &interactiveText{Text: msg.Header}
	}
	if msg.Footer != "" {
		payload.Footer = &interactiveText{Text: msg.Footer}
	}
	for _, btn := range msg.Buttons {
		payload.Action.Buttons = append(payload.Action.Buttons, interactiveButton{
			Type:  "quick_reply",
			Title: btn.Title,
			ID:    btn.ID,
		})
	}

	return c.post(ctx, "/messages/interactive", payload)
}

// post sends a JSON payload to the gateway and surfaces non-2xx
// responses as errors.
func (c *Client) post(ctx context.Context, path string, payload any) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+path,
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var parsed sendResponse
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
			return fmt.Errorf("whapi error (status %d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return fmt.Errorf("whapi error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}
