package codeexec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/dwizi/autobot/internal/boterr"
)

const DefaultEndpoint = "http://coliru.stacked-crooked.com/compile"

// Request is one submission to the execution service.
type Request struct {
	Command string `json:"cmd"`
	Source  string `json:"src"`
}

// sharedHTTPClient is created on first use and reused by every Client that was
// not given its own.
var sharedHTTPClient = sync.OnceValue(func() *http.Client {
	return &http.Client{}
})

type Client struct {
	endpoint   string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func New(endpoint string, opts ...Option) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	client := &Client{endpoint: strings.TrimSpace(endpoint)}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = sharedHTTPClient()
	}
	return client
}

// Execute sends the request once and returns the raw response body. Every
// failure is reported as boterr.ErrTransport; nothing is retried.
func (c *Client) Execute(ctx context.Context, request Request) (string, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", boterr.ErrTransport, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", boterr.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "autobot/0.1")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", boterr.ErrTransport, err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", boterr.ErrTransport, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("%w: execution service returned status %d: %s", boterr.ErrTransport, res.StatusCode, strings.TrimSpace(clip(string(body), 200)))
	}
	return string(body), nil
}

func clip(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
