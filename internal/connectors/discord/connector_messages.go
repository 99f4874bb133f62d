package discord

import (
	"context"
	"strings"

	"github.com/dwizi/autobot/internal/commands"
)

func (c *Connector) handleMessageCreate(ctx context.Context, message discordMessageCreate) error {
	if message.Author.Bot {
		return nil
	}
	if strings.TrimSpace(message.Content) == "" {
		return nil
	}
	output, err := c.dispatcher.HandleMessage(ctx, commands.MessageInput{
		Connector: c.Name(),
		ChannelID: message.ChannelID,
		UserID:    message.Author.ID,
		BotUserID: c.BotUserID(),
		FromBot:   message.Author.Bot,
		Text:      message.Content,
	}, c)
	if err != nil {
		return err
	}
	if output.Handled {
		c.logger.Info(
			"discord command handled",
			"channel_id", message.ChannelID,
			"message_id", message.ID,
			"command", output.Command,
			"outcome", output.Outcome,
		)
	}
	return nil
}
