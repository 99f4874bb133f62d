package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dwizi/autobot/internal/app"
	"github.com/dwizi/autobot/internal/boterr"
	"github.com/dwizi/autobot/internal/codeexec"
	"github.com/dwizi/autobot/internal/config"
	"github.com/dwizi/autobot/internal/ddg"
)

type executor interface {
	Execute(ctx context.Context, language, source string) (string, error)
}

type searcher interface {
	Search(ctx context.Context, query string) (ddg.Outcome, error)
}

func newExecCommand(logger *slog.Logger) *cobra.Command {
	var (
		language   string
		timeoutSec int
	)
	cmd := &cobra.Command{
		Use:   "exec <file>",
		Short: "Run a source file on the remote compiler service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := app.NewService(config.FromEnv(), nil, nil, logger)
			ctx, cancel := context.WithTimeout(cmd.Context(), boundedTimeout(timeoutSec))
			defer cancel()
			return runExec(ctx, cmd, service, args[0], language)
		},
	}
	cmd.Flags().StringVarP(&language, "lang", "l", "", "language tag (defaults to the file extension)")
	cmd.Flags().IntVar(&timeoutSec, "timeout-sec", 60, "request timeout in seconds")
	return cmd
}

func runExec(ctx context.Context, cmd *cobra.Command, service executor, path, language string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	language = strings.TrimSpace(language)
	if language == "" {
		language = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	if language == "" {
		return fmt.Errorf("%w: pass --lang for files without an extension", boterr.ErrUnknownLanguage)
	}
	output, err := service.Execute(ctx, language, string(source))
	if errors.Is(err, boterr.ErrUnknownLanguage) {
		return errors.New(codeexec.UnknownLanguageMessage(language))
	}
	if err != nil {
		return err
	}
	cmd.Println(output)
	return nil
}

func newSearchCommand(logger *slog.Logger) *cobra.Command {
	var timeoutSec int
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Look up a query with the DuckDuckGo instant answer API",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := app.NewService(config.FromEnv(), nil, nil, logger)
			ctx, cancel := context.WithTimeout(cmd.Context(), boundedTimeout(timeoutSec))
			defer cancel()
			return runSearch(ctx, cmd, service, strings.Join(args, " "))
		},
	}
	cmd.Flags().IntVar(&timeoutSec, "timeout-sec", 30, "request timeout in seconds")
	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, service searcher, query string) error {
	outcome, err := service.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		return err
	}
	if outcome.Err != nil {
		return outcome.Err
	}
	if outcome.Notice != "" {
		cmd.Println(outcome.Notice)
		return nil
	}
	for index, result := range outcome.Results {
		if index > 0 {
			cmd.Println()
		}
		if result.Title != "" {
			cmd.Println(result.Title)
		}
		if result.Text != "" {
			cmd.Println(result.Text)
		}
		if result.URL != nil {
			cmd.Println(*result.URL)
		}
	}
	return nil
}

func boundedTimeout(input int) time.Duration {
	if input < 1 {
		return 60 * time.Second
	}
	if input > 600 {
		return 600 * time.Second
	}
	return time.Duration(input) * time.Second
}
