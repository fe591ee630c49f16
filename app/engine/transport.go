package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jessetrippe/clarify-rss/app/sync"
)

// API is the wire transport to the sync server.
type API interface {
	Pull(ctx context.Context, req sync.PullRequest) (*sync.PullResponse, error)
	Push(ctx context.Context, req sync.PushRequest) (*sync.PushResponse, error)
}

const requestTimeout = 30 * time.Second

var _ API = (*Client)(nil)

// Client talks JSON over HTTP to the sync endpoints with bearer-token auth.
type Client struct {
	baseURL    string
	authToken  string
	userAgent  string
	httpClient *http.Client
}

func NewClient(baseURL, authToken, userAgent string) *Client {
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

func (c *Client) Pull(ctx context.Context, req sync.PullRequest) (*sync.PullResponse, error) {
	var resp sync.PullResponse
	if err := c.post(ctx, "/api/sync/pull", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Push(ctx context.Context, req sync.PushRequest) (*sync.PushResponse, error) {
	var resp sync.PushResponse
	if err := c.post(ctx, "/api/sync/push", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		message := ""
		var errBody struct {
			Error string `json:"error"`
		}
		if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
			if json.Unmarshal(data, &errBody) == nil {
				message = errBody.Error
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	return nil
}
