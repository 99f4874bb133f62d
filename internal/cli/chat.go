package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/dwizi/autobot/internal/adminclient"
	"github.com/dwizi/autobot/internal/commands"
	"github.com/dwizi/autobot/internal/config"
)

type chatClient interface {
	Chat(ctx context.Context, input adminclient.ChatRequest) (adminclient.ChatResponse, error)
}

func newChatCommand() *cobra.Command {
	var (
		connector  string
		channelID  string
		userID     string
		message    string
		timeoutSec int
	)

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Send messages to a running bot over its HTTP API",
		Long:  "Sends one message, or reads messages from stdin until /exit, and prints the bot's posts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := adminclient.New(config.FromEnv())
			if err != nil {
				return err
			}

			text := strings.TrimSpace(message)
			if text == "" && len(args) > 0 {
				text = strings.TrimSpace(strings.Join(args, " "))
			}
			request := adminclient.ChatRequest{
				Connector: strings.ToLower(strings.TrimSpace(connector)),
				ChannelID: strings.TrimSpace(channelID),
				UserID:    strings.TrimSpace(userID),
			}

			if text != "" {
				request.Text = text
				return sendChat(cmd, client, request, timeoutSec)
			}
			cmd.Printf("Connected as %s on %s. Type /exit to quit.\n", request.Connector, request.ChannelID)
			return runInteractiveChat(cmd, client, request, timeoutSec)
		},
	}
	cmd.Flags().StringVar(&connector, "connector", "cli", "connector identity for this chat session")
	cmd.Flags().StringVar(&channelID, "channel-id", "cli", "channel id recorded with each invocation")
	cmd.Flags().StringVar(&userID, "user-id", "", "user id (defaults to channel-id)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "single message to send (non-interactive mode)")
	cmd.Flags().IntVar(&timeoutSec, "timeout-sec", 60, "request timeout in seconds")
	return cmd
}

func sendChat(cmd *cobra.Command, client chatClient, request adminclient.ChatRequest, timeoutSec int) error {
	ctx, cancel := context.WithTimeout(context.Background(), boundedTimeout(timeoutSec))
	defer cancel()
	response, err := client.Chat(ctx, request)
	if err != nil {
		return err
	}
	printPosts(cmd, response)
	return nil
}

func runInteractiveChat(cmd *cobra.Command, client chatClient, request adminclient.ChatRequest, timeoutSec int) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// Lines accumulate while a code fence is open so a multi-line exec block
	// goes out as one message.
	var pending []string
	for {
		if len(pending) == 0 {
			cmd.Print("you> ")
		} else {
			cmd.Print("...> ")
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if len(pending) == 0 {
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if text == "/exit" || text == "/quit" {
				return nil
			}
		}
		pending = append(pending, line)
		text := strings.Join(pending, "\n")
		if fenceOpen(text) {
			continue
		}
		pending = nil
		request.Text = strings.TrimSpace(text)
		if err := sendChat(cmd, client, request, timeoutSec); err != nil {
			cmd.PrintErrf("chat request failed: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if len(pending) > 0 {
		request.Text = strings.TrimSpace(strings.Join(pending, "\n"))
		if err := sendChat(cmd, client, request, timeoutSec); err != nil {
			cmd.PrintErrf("chat request failed: %v\n", err)
		}
	}
	return nil
}

func fenceOpen(text string) bool {
	return strings.Count(text, "```")%2 == 1
}

func printPosts(cmd *cobra.Command, response adminclient.ChatResponse) {
	if !response.Handled {
		cmd.Println("bot> (not a command)")
		return
	}
	if len(response.Posts) == 0 {
		cmd.Println("bot> (no reply)")
		return
	}
	for _, post := range response.Posts {
		for index, line := range strings.Split(renderPost(post), "\n") {
			if index == 0 {
				cmd.Printf("bot> %s\n", line)
				continue
			}
			cmd.Printf("     %s\n", line)
		}
	}
	if response.Truncated {
		cmd.Println("bot> (more posts omitted)")
	}
}

// renderPost flattens a post for a terminal.
func renderPost(post commands.Post) string {
	lines := []string{}
	if content := strings.TrimRight(post.Content, "\n"); content != "" {
		lines = append(lines, content)
	}
	if embed := post.Embed; embed != nil {
		if embed.Title != "" {
			lines = append(lines, "["+embed.Title+"]")
		}
		if embed.Description != "" {
			lines = append(lines, embed.Description)
		}
		if embed.URL != nil {
			lines = append(lines, *embed.URL)
		}
		if embed.Image != nil {
			lines = append(lines, "image: "+*embed.Image)
		}
	}
	return strings.Join(lines, "\n")
}

func newInvocationsCommand() *cobra.Command {
	var (
		connector  string
		channelID  string
		command    string
		limit      int
		timeoutSec int
	)
	cmd := &cobra.Command{
		Use:   "invocations",
		Short: "List recorded command invocations from a running bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := adminclient.New(config.FromEnv())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), boundedTimeout(timeoutSec))
			defer cancel()
			response, err := client.ListInvocations(ctx, adminclient.ListInvocationsInput{
				Connector: connector,
				ChannelID: channelID,
				Command:   command,
				Limit:     limit,
			})
			if err != nil {
				return err
			}
			return printInvocations(cmd, response)
		},
	}
	cmd.Flags().StringVar(&connector, "connector", "", "filter by connector")
	cmd.Flags().StringVar(&channelID, "channel-id", "", "filter by channel id")
	cmd.Flags().StringVar(&command, "command", "", "filter by command")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows")
	cmd.Flags().IntVar(&timeoutSec, "timeout-sec", 30, "request timeout in seconds")
	return cmd
}

func printInvocations(cmd *cobra.Command, response adminclient.ListInvocationsResponse) error {
	rows := make([][]string, 0, len(response.Invocations))
	for _, item := range response.Invocations {
		rows = append(rows, []string{
			time.Unix(item.CreatedAtUnix, 0).UTC().Format(time.RFC3339),
			item.Connector,
			item.ChannelID,
			item.Command,
			item.Outcome,
			(time.Duration(item.DurationMS) * time.Millisecond).String(),
		})
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintln(out, plainTable([]string{"TIME", "CONNECTOR", "CHANNEL", "COMMAND", "OUTCOME", "DURATION"}, rows)); err != nil {
		return err
	}
	if len(response.Counts) == 0 {
		return nil
	}
	counts := make([][]string, 0, len(response.Counts))
	for _, count := range response.Counts {
		counts = append(counts, []string{count.Command, strconv.Itoa(count.Total), strconv.Itoa(count.Failures)})
	}
	_, err := fmt.Fprintln(out, plainTable([]string{"COMMAND", "TOTAL", "FAILURES"}, counts))
	return err
}

// plainTable renders without color or visible borders.
func plainTable(headers []string, rows [][]string) string {
	cell := lipgloss.NewStyle().PaddingRight(2)
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		StyleFunc(func(row, col int) lipgloss.Style { return cell }).
		Headers(headers...).
		Rows(rows...).
		String()
}
