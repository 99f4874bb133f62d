package commands

import (
	"context"
	"sync"
)

const (
	ColorError  = 0xFF0000
	ColorResult = 0x00FF00
	ColorSearch = 0x00FFFF
)

type Embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Color       int     `json:"color"`
	URL         *string `json:"url,omitempty"`
	Image       *string `json:"image,omitempty"`
}

// Post is one outbound chat message: plain content, an embed, or both.
type Post struct {
	Content string `json:"content,omitempty"`
	Embed   *Embed `json:"embed,omitempty"`
}

// Poster delivers posts to a channel. Implementations must be safe for
// concurrent use across messages.
type Poster interface {
	Post(ctx context.Context, channelID string, post Post) error
}

func textPost(content string) Post {
	return Post{Content: content}
}

func errorPost(description string) Post {
	return Post{Embed: &Embed{Title: "Error", Description: description, Color: ColorError}}
}

func resultPost(description string) Post {
	return Post{Embed: &Embed{Title: "Result", Description: description, Color: ColorResult}}
}

// Collector is a Poster that keeps posts in memory. Used by the HTTP API, the
// CLI and tests.
type Collector struct {
	mu        sync.Mutex
	limit     int
	posts     []Post
	truncated bool
}

// NewCollector returns a collector that keeps at most limit posts and drops
// the rest. A limit of zero or less means unbounded.
func NewCollector(limit int) *Collector {
	return &Collector{limit: limit}
}

func (c *Collector) Post(ctx context.Context, channelID string, post Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.limit > 0 && len(c.posts) >= c.limit {
		c.truncated = true
		return nil
	}
	c.posts = append(c.posts, post)
	return nil
}

func (c *Collector) Posts() []Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Post(nil), c.posts...)
}

// Truncated reports whether any post was dropped at the limit.
func (c *Collector) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncated
}
