package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const postmarkAPIURL = "https://api.postmarkapp.com/email"

// Client sends mail through the Postmark HTTP API.
type Client struct {
	serverToken string
	from        string
	apiURL      string
	stream      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithStream selects the Postmark message stream. Announcements go to the
// "broadcast" stream unless told otherwise.
func WithStream(stream string) Option {
	return func(cl *Client) {
		cl.stream = stream
	}
}

// WithAPIURL overrides the Postmark endpoint.
func WithAPIURL(url string) Option {
	return func(cl *Client) {
		cl.apiURL = url
	}
}

func NewClient(serverToken, from string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		from:        from,
		apiURL:      postmarkAPIURL,
		stream:      "broadcast",
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	TextBody      string `json:"TextBody"`
	MessageStream string `json:"MessageStream"`
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	if !c.Configured() {
		return errors.New("postmark: missing server token")
	}

	payload := postmarkEmail{
		From:          c.from,
		To:            msg.To,
		Subject:       msg.Subject,
		TextBody:      msg.Text,
		MessageStream: c.stream,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr postmarkError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Message == "" {
			return fmt.Errorf("postmark: status %d", resp.StatusCode)
		}
		return &apiErr
	}

	return nil
}

// postmarkError is the body Postmark returns with a 4xx or 5xx status.
// ErrorCode 406 means the recipient is marked inactive after a bounce.
type postmarkError struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

func (e *postmarkError) Error() string {
	return fmt.Sprintf("postmark: error %d: %s", e.ErrorCode, e.Message)
}
