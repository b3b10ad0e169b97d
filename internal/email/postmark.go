package email

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultAPIURL is the Postmark REST endpoint.
const DefaultAPIURL = "https://api.postmarkapp.com"

type Client struct {
	serverToken string
	fromEmail   string
	baseURL     string
	http        *resty.Client
}

type Option func(*Client)

// WithAPIURL points the client at a different Postmark-compatible endpoint.
func WithAPIURL(url string) Option {
	return func(cl *Client) {
		cl.http.SetBaseURL(url)
	}
}

// NewClient creates a Postmark client. baseURL is the public URL of this
// service, used for links in message bodies.
func NewClient(serverToken, fromEmail, baseURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     baseURL,
		http: resty.New().
			SetBaseURL(DefaultAPIURL).
			SetTimeout(10*time.Second).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
	Tag      string `json:"Tag,omitempty"`
}

type postmarkError struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// Send delivers one message through Postmark.
func (c *Client) Send(ctx context.Context, msg postmarkEmail) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}
	if msg.From == "" {
		msg.From = c.fromEmail
	}

	var apiErr postmarkError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Postmark-Server-Token", c.serverToken).
		SetBody(msg).
		SetError(&apiErr).
		Post("/email")
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.IsError() {
		if apiErr.Message != "" {
			return fmt.Errorf("postmark API error: status %d: %s", resp.StatusCode(), apiErr.Message)
		}
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode())
	}
	return nil
}

// SendEmergencyAlert emails an emergency contact that a patient asked for help.
// The message is escaped in the HTML part.
func (c *Client) SendEmergencyAlert(ctx context.Context, toEmail, message string) error {
	link := c.baseURL + "/notifications"
	textBody := fmt.Sprintf("%s\n\nOpen Steady to respond:\n\n%s", message, link)
	htmlBody := fmt.Sprintf(
		`<p><strong>%s</strong></p><p><a href="%s">Open Steady to respond</a></p>`,
		html.EscapeString(message), html.EscapeString(link),
	)

	return c.Send(ctx, postmarkEmail{
		To:       toEmail,
		Subject:  "Emergency alert from Steady",
		HtmlBody: htmlBody,
		TextBody: textBody,
		Tag:      "emergency",
	})
}
