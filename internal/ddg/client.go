package ddg

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/dwizi/autobot/internal/boterr"
)

const (
	DefaultAPIBase = "https://api.duckduckgo.com/"
	DefaultHTMLURL = "https://html.duckduckgo.com/html/"
	DefaultAppName = "autobotrobot"

	siteBase = "https://duckduckgo.com"
)

var sharedHTTPClient = sync.OnceValue(func() *http.Client {
	return &http.Client{}
})

// Client queries the DuckDuckGo Instant Answer API and the HTML results page.
type Client struct {
	apiBase    string
	htmlURL    string
	appName    string
	httpClient *http.Client
}

type Option func(*Client)

func WithAPIBase(base string) Option {
	return func(c *Client) {
		if strings.TrimSpace(base) != "" {
			c.apiBase = strings.TrimSpace(base)
		}
	}
}

func WithHTMLURL(target string) Option {
	return func(c *Client) {
		if strings.TrimSpace(target) != "" {
			c.htmlURL = strings.TrimSpace(target)
		}
	}
}

// WithAppName sets the "t" client identifier sent with every API query.
func WithAppName(name string) Option {
	return func(c *Client) {
		if strings.TrimSpace(name) != "" {
			c.appName = strings.TrimSpace(name)
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func New(opts ...Option) *Client {
	client := &Client{
		apiBase: DefaultAPIBase,
		htmlURL: DefaultHTMLURL,
		appName: DefaultAppName,
	}
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

// Search runs one Instant Answer query. Failures wrap boterr.ErrTransport.
func (c *Client) Search(ctx context.Context, query string) (Response, error) {
	endpoint, err := url.Parse(c.apiBase)
	if err != nil {
		return Response{}, fmt.Errorf("%w: parse api base: %v", boterr.ErrTransport, err)
	}
	params := endpoint.Query()
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("t", c.appName)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("%w: build request: %v", boterr.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", boterr.ErrTransport, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return Response{}, fmt.Errorf("%w: search service returned status %d: %s", boterr.ErrTransport, res.StatusCode, strings.TrimSpace(string(body)))
	}

	var response Response
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return Response{}, fmt.Errorf("%w: decode search response: %v", boterr.ErrTransport, err)
	}
	response.Image = absoluteURL(response.Image)
	absoluteIcons(response.RelatedTopics)
	return response, nil
}

// Icon and image paths come back relative to the site root.
func absoluteURL(value string) string {
	if strings.HasPrefix(value, "/") {
		return siteBase + value
	}
	return value
}

func absoluteIcons(topics []Topic) {
	for index := range topics {
		if topics[index].IsGroup() {
			absoluteIcons(topics[index].Topics)
			continue
		}
		topics[index].Leaf.Icon.URL = absoluteURL(topics[index].Leaf.Icon.URL)
	}
}
