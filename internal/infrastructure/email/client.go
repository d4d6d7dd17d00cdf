// Package email implements the outbound email collaborator: an HTTP API
// that accepts sender, recipient, subject and both body variants.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// Client talks to a Postmark-style transactional email HTTP API.
type Client struct {
	http      *http.Client
	baseURL   string
	sender    string
	authToken string
}

// NewClient builds a Client. timeout bounds each send end-to-end; zero
// falls back to defaultTimeout so a stuck transport cannot hang a request
// indefinitely.
func NewClient(baseURL, sender, authToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		sender:    sender,
		authToken: authToken,
	}
}

type sendEmailRequest struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HTMLBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// Send posts one email to the delivery API. Any non-2xx reply is an error.
func (c *Client) Send(ctx context.Context, recipient, subject, htmlBody, textBody string) error {
	payload, err := json.Marshal(sendEmailRequest{
		From:     c.sender,
		To:       recipient,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
	if err != nil {
		return fmt.Errorf("encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/email", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("email API returned status %d", resp.StatusCode)
	}
	return nil
}
