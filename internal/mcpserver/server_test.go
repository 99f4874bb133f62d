package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dwizi/autobot/internal/boterr"
	"github.com/dwizi/autobot/internal/codeexec"
	"github.com/dwizi/autobot/internal/ddg"
)

type fakeToolbox struct {
	language string
	source   string
	output   string
	execErr  error
	outcome  ddg.Outcome
	query    string
}

func (f *fakeToolbox) Execute(ctx context.Context, language, source string) (string, error) {
	f.language = language
	f.source = source
	return f.output, f.execErr
}

func (f *fakeToolbox) Search(ctx context.Context, query string) (ddg.Outcome, error) {
	f.query = query
	return f.outcome, nil
}

func connect(t *testing.T, toolbox Toolbox) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	server := New(toolbox, "test", nil)
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.SDK().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("connect server: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callText(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if len(result.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(*sdkmcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text, result.IsError
}

func TestListsBothTools(t *testing.T) {
	session := connect(t, &fakeToolbox{})
	tools, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := []string{}
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	if diff := cmp.Diff([]string{ToolExecCode, ToolWebSearch}, names); diff != "" {
		t.Fatalf("unexpected tools (-want +got):\n%s", diff)
	}
}

func TestExecCodeLanguageExamplesAreSupported(t *testing.T) {
	session := connect(t, &fakeToolbox{})
	tools, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	var described string
	for _, tool := range tools.Tools {
		if tool.Name != ToolExecCode {
			continue
		}
		raw, err := json.Marshal(tool.InputSchema)
		if err != nil {
			t.Fatalf("marshal schema: %v", err)
		}
		var schema struct {
			Properties map[string]struct {
				Description string `json:"description"`
			} `json:"properties"`
		}
		if err := json.Unmarshal(raw, &schema); err != nil {
			t.Fatalf("decode schema: %v", err)
		}
		described = schema.Properties["language"].Description
	}
	_, examples, found := strings.Cut(described, "for example ")
	if !found {
		t.Fatalf("expected language examples in %q", described)
	}
	supported := map[string]bool{}
	for _, alias := range codeexec.Aliases() {
		supported[alias] = true
	}
	for _, example := range strings.Split(examples, " or ") {
		if !supported[example] {
			t.Fatalf("language example %q is not a supported alias", example)
		}
	}
}

func TestExecCodeTool(t *testing.T) {
	toolbox := &fakeToolbox{output: "```\n1\n\n```"}
	session := connect(t, toolbox)

	text, isError := callText(t, session, ToolExecCode, map[string]any{"language": "py", "code": "print(1)\n"})
	if isError {
		t.Fatalf("expected success, got error %q", text)
	}
	if text != "```\n1\n\n```" {
		t.Fatalf("unexpected output %q", text)
	}
	if toolbox.language != "py" || toolbox.source != "print(1)\n" {
		t.Fatalf("unexpected toolbox input: %+v", toolbox)
	}
}

func TestExecCodeToolReportsErrors(t *testing.T) {
	toolbox := &fakeToolbox{execErr: fmt.Errorf("%w: brainfuck", boterr.ErrUnknownLanguage)}
	session := connect(t, toolbox)

	text, isError := callText(t, session, ToolExecCode, map[string]any{"language": "brainfuck", "code": "+"})
	if !isError || !strings.Contains(text, "unknown language") {
		t.Fatalf("expected unknown language error, got %q (error=%v)", text, isError)
	}

	text, isError = callText(t, session, ToolExecCode, map[string]any{"code": "+"})
	if !isError || text != "language is required" {
		t.Fatalf("expected missing language error, got %q", text)
	}
}

func TestWebSearchTool(t *testing.T) {
	url := "https://go.dev/"
	toolbox := &fakeToolbox{outcome: ddg.Outcome{Results: []ddg.Result{
		{Title: "Go", Text: "Go is a language.", URL: &url},
		{Text: "Go (game)"},
	}}}
	session := connect(t, toolbox)

	text, isError := callText(t, session, ToolWebSearch, map[string]any{"query": " golang "})
	if isError {
		t.Fatalf("expected success, got error %q", text)
	}
	want := "# Go\nGo is a language.\nhttps://go.dev/\n\nGo (game)"
	if text != want {
		t.Fatalf("unexpected rendering:\n%s", text)
	}
	if toolbox.query != "golang" {
		t.Fatalf("expected trimmed query, got %q", toolbox.query)
	}
}

func TestWebSearchToolNoticeAndErrors(t *testing.T) {
	toolbox := &fakeToolbox{outcome: ddg.Outcome{Notice: ddg.NoResultsNotice}}
	session := connect(t, toolbox)
	text, isError := callText(t, session, ToolWebSearch, map[string]any{"query": "zzzz"})
	if isError || text != ddg.NoResultsNotice {
		t.Fatalf("expected notice, got %q", text)
	}

	toolbox.outcome = ddg.Outcome{Err: errors.New("Category - unrecognized result type")}
	text, isError = callText(t, session, ToolWebSearch, map[string]any{"query": "cats"})
	if !isError || text != "Category - unrecognized result type" {
		t.Fatalf("expected routing error, got %q", text)
	}

	text, isError = callText(t, session, ToolWebSearch, map[string]any{"query": "  "})
	if !isError || text != "query is required" {
		t.Fatalf("expected missing query error, got %q", text)
	}
}

func TestRenderResultsSkipsEmpty(t *testing.T) {
	if got := RenderResults([]ddg.Result{{}, {Title: "Only"}}); got != "# Only" {
		t.Fatalf("unexpected rendering %q", got)
	}
}
