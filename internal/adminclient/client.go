package adminclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dwizi/autobot/internal/commands"
	"github.com/dwizi/autobot/internal/config"
	"github.com/dwizi/autobot/internal/heartbeat"
)

// Client talks to a running bot's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

type ChatRequest struct {
	Connector string `json:"connector"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
}

type ChatResponse struct {
	Handled   bool            `json:"handled"`
	Command   string          `json:"command"`
	Outcome   string          `json:"outcome"`
	Posts     []commands.Post `json:"posts"`
	Truncated bool            `json:"truncated"`
}

type Invocation struct {
	ID            string `json:"id"`
	Connector     string `json:"connector"`
	ChannelID     string `json:"channel_id"`
	UserID        string `json:"user_id"`
	Command       string `json:"command"`
	Outcome       string `json:"outcome"`
	Detail        string `json:"detail"`
	DurationMS    int64  `json:"duration_ms"`
	CreatedAtUnix int64  `json:"created_at_unix"`
}

type CommandCount struct {
	Command  string `json:"command"`
	Total    int    `json:"total"`
	Failures int    `json:"failures"`
}

type ListInvocationsResponse struct {
	Invocations []Invocation   `json:"invocations"`
	Counts      []CommandCount `json:"counts"`
}

type ListInvocationsInput struct {
	Connector string
	ChannelID string
	Command   string
	Limit     int
}

func New(cfg config.Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.AdminAPIURL), "/")
	if baseURL == "" {
		return nil, errors.New("admin api url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse admin api url: %w", err)
	}

	timeout := time.Duration(cfg.AdminHTTPTimeoutSec) * time.Second
	if timeout < time.Second {
		timeout = 60 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion:         tls.VersionTLS12,
					InsecureSkipVerify: cfg.AdminTLSSkipVerify,
				},
			},
			Timeout: timeout,
		},
	}, nil
}

func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if c == nil {
		return nil
	}
	if timeout < time.Second {
		return c
	}
	clone := *c
	if c.http == nil {
		clone.http = &http.Client{Timeout: timeout}
		return &clone
	}
	httpClone := *c.http
	httpClone.Timeout = timeout
	clone.http = &httpClone
	return &clone
}

func (c *Client) Chat(ctx context.Context, input ChatRequest) (ChatResponse, error) {
	if strings.TrimSpace(input.Text) == "" {
		return ChatResponse{}, fmt.Errorf("text is required")
	}
	requestBody, err := json.Marshal(input)
	if err != nil {
		return ChatResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/chat", bytes.NewReader(requestBody))
	if err != nil {
		return ChatResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	var response ChatResponse
	if err := c.doJSON(req, &response); err != nil {
		return ChatResponse{}, err
	}
	return response, nil
}

func (c *Client) ListInvocations(ctx context.Context, input ListInvocationsInput) (ListInvocationsResponse, error) {
	query := url.Values{}
	if value := strings.TrimSpace(input.Connector); value != "" {
		query.Set("connector", value)
	}
	if value := strings.TrimSpace(input.ChannelID); value != "" {
		query.Set("channel_id", value)
	}
	if value := strings.TrimSpace(input.Command); value != "" {
		query.Set("command", value)
	}
	if input.Limit > 0 {
		query.Set("limit", strconv.Itoa(input.Limit))
	}
	target := c.baseURL + "/api/v1/invocations"
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return ListInvocationsResponse{}, err
	}
	var response ListInvocationsResponse
	if err := c.doJSON(req, &response); err != nil {
		return ListInvocationsResponse{}, err
	}
	return response, nil
}

// Heartbeat fetches the bot's component health snapshot.
func (c *Client) Heartbeat(ctx context.Context) (heartbeat.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/heartbeat", nil)
	if err != nil {
		return heartbeat.Snapshot{}, err
	}
	var snapshot heartbeat.Snapshot
	if err := c.doJSON(req, &snapshot); err != nil {
		return heartbeat.Snapshot{}, err
	}
	return snapshot, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		var apiError struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&apiError)
		if strings.TrimSpace(apiError.Error) == "" {
			apiError.Error = res.Status
		}
		return errors.New(apiError.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
