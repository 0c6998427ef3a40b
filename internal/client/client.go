// Package client talks to a running chatbox server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hay-kot/chatbox/internal/core/chat"
)

// DefaultTimeout bounds a single request when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client is a chat API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL, e.g. http://localhost:4173.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the server URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Messages returns messages with an ID greater than since, oldest first.
func (c *Client) Messages(ctx context.Context, since int64) ([]chat.Message, error) {
	path := "/api/messages"
	if since > 0 {
		path += "?since=" + url.QueryEscape(strconv.FormatInt(since, 10))
	}

	var resp struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return resp.Messages, nil
}

type postRequest struct {
	User         string `json:"user"`
	Text         string `json:"text,omitempty"`
	ImageDataURL string `json:"imageDataUrl,omitempty"`
}

// PostText sends a text message.
func (c *Client) PostText(ctx context.Context, user, text string) (chat.Message, error) {
	msg, err := c.post(ctx, postRequest{User: user, Text: text})
	if err != nil {
		return chat.Message{}, fmt.Errorf("post text: %w", err)
	}
	return msg, nil
}

// PostImage sends an image encoded as a base64 data URL, with an optional caption.
func (c *Client) PostImage(ctx context.Context, user, caption, mimeType string, data []byte) (chat.Message, error) {
	req := postRequest{
		User:         user,
		Text:         caption,
		ImageDataURL: EncodeDataURL(mimeType, data),
	}

	msg, err := c.post(ctx, req)
	if err != nil {
		return chat.Message{}, fmt.Errorf("post image: %w", err)
	}
	return msg, nil
}

// EncodeDataURL builds "data:<mime>;base64,<payload>".
func EncodeDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func (c *Client) post(ctx context.Context, req postRequest) (chat.Message, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return chat.Message{}, err
	}

	var resp struct {
		Message chat.Message `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/messages", body, &resp); err != nil {
		return chat.Message{}, err
	}

	return resp.Message, nil
}

// Health reports whether the server answers /api/health.
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &resp); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("health: server reported not ok")
	}
	return nil
}

// do performs an HTTP request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &errResp)
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
