// Package mcpserver exposes the bot's code execution and web search as MCP
// tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dwizi/autobot/internal/codeexec"
	"github.com/dwizi/autobot/internal/ddg"
)

const (
	ToolExecCode  = "exec_code"
	ToolWebSearch = "web_search"
)

type Toolbox interface {
	Execute(ctx context.Context, language, source string) (string, error)
	Search(ctx context.Context, query string) (ddg.Outcome, error)
}

type Server struct {
	toolbox Toolbox
	logger  *slog.Logger
	sdk     *sdkmcp.Server
}

func New(toolbox Toolbox, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if strings.TrimSpace(version) == "" {
		version = "dev"
	}
	server := &Server{
		toolbox: toolbox,
		logger:  logger.With("component", "mcpserver"),
		sdk:     sdkmcp.NewServer(&sdkmcp.Implementation{Name: "autobot", Version: version}, nil),
	}
	server.sdk.AddTool(&sdkmcp.Tool{
		Name:        ToolExecCode,
		Description: "Run a snippet on the remote compiler service. Supported languages: " + strings.Join(codeexec.Aliases(), ", ") + ".",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"language": map[string]any{"type": "string", "description": "language tag, for example py or sh"},
				"code":     map[string]any{"type": "string", "description": "program source"},
			},
			"required": []string{"language", "code"},
		},
	}, server.handleExecCode)
	server.sdk.AddTool(&sdkmcp.Tool{
		Name:        ToolWebSearch,
		Description: "Look up a query with the DuckDuckGo instant answer API.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string"},
			},
			"required": []string{"query"},
		},
	}, server.handleWebSearch)
	return server
}

// SDK returns the underlying server for custom transports.
func (s *Server) SDK() *sdkmcp.Server {
	return s.sdk
}

// Run serves over stdin/stdout until ctx is cancelled or the client hangs up.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio")
	if err := s.sdk.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run mcp server: %w", err)
	}
	return nil
}

type execArgs struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

type searchArgs struct {
	Query string `json:"query"`
}

func (s *Server) handleExecCode(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
	var args execArgs
	if err := decodeArguments(req, &args); err != nil {
		return errorResult(err.Error()), nil
	}
	if strings.TrimSpace(args.Language) == "" {
		return errorResult("language is required"), nil
	}
	output, err := s.toolbox.Execute(ctx, args.Language, args.Code)
	if err != nil {
		s.logger.Warn("exec_code failed", "language", args.Language, "error", err)
		return errorResult(err.Error()), nil
	}
	return textResult(output), nil
}

func (s *Server) handleWebSearch(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
	var args searchArgs
	if err := decodeArguments(req, &args); err != nil {
		return errorResult(err.Error()), nil
	}
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return errorResult("query is required"), nil
	}
	outcome, err := s.toolbox.Search(ctx, query)
	if err != nil {
		s.logger.Warn("web_search failed", "error", err)
		return errorResult(err.Error()), nil
	}
	if outcome.Err != nil {
		return errorResult(outcome.Err.Error()), nil
	}
	if outcome.Notice != "" {
		return textResult(outcome.Notice), nil
	}
	return textResult(RenderResults(outcome.Results)), nil
}

// RenderResults formats search results as plain text blocks separated by a
// blank line.
func RenderResults(results []ddg.Result) string {
	blocks := make([]string, 0, len(results))
	for _, result := range results {
		lines := []string{}
		if result.Title != "" {
			lines = append(lines, "# "+result.Title)
		}
		if result.Text != "" {
			lines = append(lines, result.Text)
		}
		if result.URL != nil {
			lines = append(lines, *result.URL)
		}
		if len(lines) > 0 {
			blocks = append(blocks, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func decodeArguments(req *sdkmcp.CallToolRequest, target any) error {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, target); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}}}
}

func errorResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{IsError: true, Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: text}}}
}
