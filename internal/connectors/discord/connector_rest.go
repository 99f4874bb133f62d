package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dwizi/autobot/internal/commands"
)

// Post sends one reply to a channel over the REST API.
func (c *Connector) Post(ctx context.Context, channelID string, post commands.Post) error {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return fmt.Errorf("discord channel id is required")
	}
	message := outboundMessage{Content: clipRunes(post.Content, maxContentRunes)}
	if post.Embed != nil {
		message.Embeds = []discordEmbed{toDiscordEmbed(*post.Embed)}
	}
	if message.Content == "" && len(message.Embeds) == 0 {
		return nil
	}
	return c.sendChannelMessage(ctx, channelID, message)
}

func toDiscordEmbed(embed commands.Embed) discordEmbed {
	out := discordEmbed{
		Title:       clipRunes(embed.Title, maxTitleRunes),
		Description: clipRunes(embed.Description, maxDescriptionRunes),
		Color:       embed.Color,
	}
	if embed.URL != nil {
		out.URL = *embed.URL
	}
	if embed.Image != nil {
		out.Image = &discordEmbedImage{URL: *embed.Image}
	}
	return out
}

func (c *Connector) sendChannelMessage(ctx context.Context, channelID string, message outboundMessage) error {
	endpoint := fmt.Sprintf("%s/channels/%s/messages", c.apiBase, channelID)
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("User-Agent", "autobot/0.1")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("discord send message failed: status=%d body=%s", res.StatusCode, string(bodyBytes))
	}
	return nil
}
