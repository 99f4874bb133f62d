package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwizi/autobot/internal/app"
	"github.com/dwizi/autobot/internal/config"
	"github.com/dwizi/autobot/internal/mcpserver"
	"github.com/dwizi/autobot/internal/tui"
)

var version = "0.1.0"

func NewRoot(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "autobot",
		Short: "autobot is a chat bot that runs code and searches the web",
	}

	root.AddCommand(newServeCommand(logger))
	root.AddCommand(newExecCommand(logger))
	root.AddCommand(newSearchCommand(logger))
	root.AddCommand(newMCPCommand())
	root.AddCommand(newChatCommand())
	root.AddCommand(newInvocationsCommand())
	root.AddCommand(newTUICommand(logger))
	root.AddCommand(newVersionCommand())

	return root
}

func newServeCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Discord connector and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			runtime, err := app.New(cfg, logger, version)
			if err != nil {
				return err
			}
			defer runtime.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runtime.Run(ctx)
		},
	}
}

func newMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve exec_code and web_search as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol, so logs go to stderr.
			logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), nil))
			service := app.NewService(config.FromEnv(), nil, nil, logger)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return mcpserver.New(service, version, logger).Run(ctx)
		},
	}
}

func newTUICommand(logger *slog.Logger) *cobra.Command {
	var refreshSec int
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the operations dashboard for a running bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(config.FromEnv(), time.Duration(refreshSec)*time.Second, logger)
		},
	}
	cmd.Flags().IntVar(&refreshSec, "refresh-sec", 5, "seconds between automatic refreshes")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	}
}
