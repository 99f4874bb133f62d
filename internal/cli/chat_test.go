package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/dwizi/autobot/internal/adminclient"
	"github.com/dwizi/autobot/internal/boterr"
	"github.com/dwizi/autobot/internal/commands"
	"github.com/dwizi/autobot/internal/ddg"
)

func newTestCommand(stdin string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	return cmd, out, errOut
}

type fakeChatClient struct {
	requests []adminclient.ChatRequest
	response adminclient.ChatResponse
	err      error
}

func (f *fakeChatClient) Chat(ctx context.Context, input adminclient.ChatRequest) (adminclient.ChatResponse, error) {
	f.requests = append(f.requests, input)
	return f.response, f.err
}

func TestRootRegistersCommands(t *testing.T) {
	root := NewRoot(slog.New(slog.NewTextHandler(io.Discard, nil)))
	want := map[string]bool{"serve": false, "exec": false, "search": false, "mcp": false, "chat": false, "invocations": false, "tui": false, "version": false}
	for _, child := range root.Commands() {
		if _, ok := want[child.Name()]; ok {
			want[child.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("expected %s command to be registered", name)
		}
	}
}

func TestInteractiveChatPrintsPosts(t *testing.T) {
	url := "https://go.dev/"
	client := &fakeChatClient{response: adminclient.ChatResponse{
		Handled: true,
		Command: "search",
		Posts: []commands.Post{
			{Embed: &commands.Embed{Title: "Go", Description: "A language.", URL: &url}},
		},
	}}
	cmd, out, _ := newTestCommand("\n++search go\n/exit\n++ping\n")

	request := adminclient.ChatRequest{Connector: "cli", ChannelID: "term"}
	if err := runInteractiveChat(cmd, client, request, 5); err != nil {
		t.Fatalf("interactive chat: %v", err)
	}
	if len(client.requests) != 1 {
		t.Fatalf("expected one request before /exit, got %d", len(client.requests))
	}
	if client.requests[0].Text != "++search go" || client.requests[0].ChannelID != "term" {
		t.Fatalf("unexpected request: %+v", client.requests[0])
	}
	text := out.String()
	if !strings.Contains(text, "bot> [Go]\n     A language.\n     https://go.dev/\n") {
		t.Fatalf("unexpected output:\n%s", text)
	}
}

func TestInteractiveChatJoinsFencedBlock(t *testing.T) {
	client := &fakeChatClient{response: adminclient.ChatResponse{Handled: true, Command: "exec"}}
	cmd, out, _ := newTestCommand("++exec ```py\nprint(1)\n```\n/exit\n")

	if err := runInteractiveChat(cmd, client, adminclient.ChatRequest{Connector: "cli"}, 5); err != nil {
		t.Fatalf("interactive chat: %v", err)
	}
	if len(client.requests) != 1 {
		t.Fatalf("expected one request for the fenced block, got %d", len(client.requests))
	}
	if got := client.requests[0].Text; got != "++exec ```py\nprint(1)\n```" {
		t.Fatalf("expected embedded newlines, got %q", got)
	}
	if strings.Count(out.String(), "...> ") != 2 {
		t.Fatalf("expected continuation prompts while the fence was open:\n%s", out.String())
	}
}

func TestInteractiveChatSendsUnclosedFenceAtEOF(t *testing.T) {
	client := &fakeChatClient{response: adminclient.ChatResponse{Handled: true}}
	cmd, _, _ := newTestCommand("++exec ```py\n/exit\n")

	if err := runInteractiveChat(cmd, client, adminclient.ChatRequest{}, 5); err != nil {
		t.Fatalf("interactive chat: %v", err)
	}
	if len(client.requests) != 1 || client.requests[0].Text != "++exec ```py\n/exit" {
		t.Fatalf("expected unclosed block sent at EOF, got %+v", client.requests)
	}
}

func TestInteractiveChatReportsErrorsAndContinues(t *testing.T) {
	client := &fakeChatClient{err: errors.New("connection refused")}
	cmd, _, errOut := newTestCommand("++ping\n++ping\n")

	if err := runInteractiveChat(cmd, client, adminclient.ChatRequest{}, 5); err != nil {
		t.Fatalf("interactive chat: %v", err)
	}
	if len(client.requests) != 2 {
		t.Fatalf("expected both lines sent, got %d", len(client.requests))
	}
	if strings.Count(errOut.String(), "chat request failed: connection refused") != 2 {
		t.Fatalf("unexpected error output: %s", errOut.String())
	}
}

func TestPrintPostsUnhandledAndEmpty(t *testing.T) {
	cmd, out, _ := newTestCommand("")
	printPosts(cmd, adminclient.ChatResponse{})
	printPosts(cmd, adminclient.ChatResponse{Handled: true})
	if out.String() != "bot> (not a command)\nbot> (no reply)\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestPrintPostsMarksTruncation(t *testing.T) {
	cmd, out, _ := newTestCommand("")
	printPosts(cmd, adminclient.ChatResponse{
		Handled:   true,
		Truncated: true,
		Posts:     []commands.Post{{Content: "first"}},
	})
	if out.String() != "bot> first\nbot> (more posts omitted)\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRenderPost(t *testing.T) {
	image := "https://duckduckgo.com/i/go.png"
	got := renderPost(commands.Post{
		Content: "```\n1\n\n```",
		Embed:   &commands.Embed{Title: "Error", Description: "Invalid format", Image: &image},
	})
	want := "```\n1\n\n```\n[Error]\nInvalid format\nimage: https://duckduckgo.com/i/go.png"
	if got != want {
		t.Fatalf("unexpected rendering:\n%s", got)
	}
}

type fakeExecutor struct {
	language string
	source   string
	err      error
}

func (f *fakeExecutor) Execute(ctx context.Context, language, source string) (string, error) {
	f.language = language
	f.source = source
	if f.err != nil {
		return "", f.err
	}
	return "```\nok\n```", nil
}

func TestRunExecInfersLanguageFromExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.py")
	if err := os.WriteFile(path, []byte("print('ok')\n"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	executor := &fakeExecutor{}
	cmd, out, _ := newTestCommand("")

	if err := runExec(context.Background(), cmd, executor, path, ""); err != nil {
		t.Fatalf("run exec: %v", err)
	}
	if executor.language != "py" || executor.source != "print('ok')\n" {
		t.Fatalf("unexpected executor input: %+v", executor)
	}
	if out.String() != "```\nok\n```\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	if err := runExec(context.Background(), cmd, executor, path, "python3"); err != nil {
		t.Fatalf("run exec: %v", err)
	}
	if executor.language != "python3" {
		t.Fatalf("expected explicit language to win, got %s", executor.language)
	}
}

func TestRunExecErrors(t *testing.T) {
	dir := t.TempDir()
	cmd, _, _ := newTestCommand("")

	if err := runExec(context.Background(), cmd, &fakeExecutor{}, filepath.Join(dir, "missing.py"), ""); err == nil {
		t.Fatal("expected read error")
	}

	bare := filepath.Join(dir, "script")
	if err := os.WriteFile(bare, []byte("echo hi"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := runExec(context.Background(), cmd, &fakeExecutor{}, bare, ""); !errors.Is(err, boterr.ErrUnknownLanguage) {
		t.Fatalf("expected unknown language for bare file, got %v", err)
	}

	executor := &fakeExecutor{err: boterr.ErrUnknownLanguage}
	err := runExec(context.Background(), cmd, executor, bare, "cobol")
	if err == nil || !strings.Contains(err.Error(), "cobol") {
		t.Fatalf("expected unknown language message naming cobol, got %v", err)
	}
}

type fakeSearcher struct {
	outcome ddg.Outcome
	err     error
}

func (f fakeSearcher) Search(ctx context.Context, query string) (ddg.Outcome, error) {
	return f.outcome, f.err
}

func TestRunSearchPrintsResults(t *testing.T) {
	url := "https://go.dev/"
	searcher := fakeSearcher{outcome: ddg.Outcome{Results: []ddg.Result{
		{Title: "Go", Text: "A language.", URL: &url},
		{Text: "Go (game)"},
	}}}
	cmd, out, _ := newTestCommand("")
	if err := runSearch(context.Background(), cmd, searcher, "go"); err != nil {
		t.Fatalf("run search: %v", err)
	}
	if out.String() != "Go\nA language.\nhttps://go.dev/\n\nGo (game)\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunSearchNoticeAndErrors(t *testing.T) {
	cmd, out, _ := newTestCommand("")
	if err := runSearch(context.Background(), cmd, fakeSearcher{outcome: ddg.Outcome{Notice: ddg.NoResultsNotice}}, "zz"); err != nil {
		t.Fatalf("run search: %v", err)
	}
	if out.String() != "No results.\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	routing := errors.New("Category - unrecognized result type")
	if err := runSearch(context.Background(), cmd, fakeSearcher{outcome: ddg.Outcome{Err: routing}}, "cats"); !errors.Is(err, routing) {
		t.Fatalf("expected routing error, got %v", err)
	}
	if err := runSearch(context.Background(), cmd, fakeSearcher{err: boterr.ErrTransport}, "cats"); !errors.Is(err, boterr.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestPrintInvocations(t *testing.T) {
	cmd, out, _ := newTestCommand("")
	err := printInvocations(cmd, adminclient.ListInvocationsResponse{
		Invocations: []adminclient.Invocation{{
			Connector:     "discord",
			ChannelID:     "c1",
			Command:       "exec",
			Outcome:       "ok",
			DurationMS:    1500,
			CreatedAtUnix: 1730000000,
		}},
		Counts: []adminclient.CommandCount{{Command: "exec", Total: 3, Failures: 1}},
	})
	if err != nil {
		t.Fatalf("print invocations: %v", err)
	}
	text := out.String()
	for _, want := range []string{"2024-10-27T03:33:20Z", "discord", "1.5s", "FAILURES"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
	if !regexp.MustCompile(`(?m)^exec\s+3\s+1\s*$`).MatchString(text) {
		t.Fatalf("expected exec totals row in output:\n%s", text)
	}
}

func TestBoundedTimeout(t *testing.T) {
	if got := boundedTimeout(0).Seconds(); got != 60 {
		t.Fatalf("expected default 60s, got %v", got)
	}
	if got := boundedTimeout(9999).Seconds(); got != 600 {
		t.Fatalf("expected cap 600s, got %v", got)
	}
	if got := boundedTimeout(5).Seconds(); got != 5 {
		t.Fatalf("expected 5s, got %v", got)
	}
}
