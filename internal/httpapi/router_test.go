package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dwizi/autobot/internal/commands"
	"github.com/dwizi/autobot/internal/config"
	"github.com/dwizi/autobot/internal/ddg"
	"github.com/dwizi/autobot/internal/heartbeat"
	"github.com/dwizi/autobot/internal/metrics"
	"github.com/dwizi/autobot/internal/store"
)

func newRouterTestStore(t *testing.T) *store.Store {
	t.Helper()
	sqlStore, err := store.New(filepath.Join(t.TempDir(), "router_test.sqlite"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = sqlStore.Close() })
	if err := sqlStore.AutoMigrate(context.Background()); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}
	return sqlStore
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeDispatcher struct {
	calls int
	last  commands.MessageInput
	posts []commands.Post
	err   error
}

func (f *fakeDispatcher) HandleMessage(ctx context.Context, input commands.MessageInput, poster commands.Poster) (commands.MessageOutput, error) {
	f.calls++
	f.last = input
	for _, post := range f.posts {
		if err := poster.Post(ctx, input.ChannelID, post); err != nil {
			return commands.MessageOutput{Handled: true, Command: "search", Outcome: "post_failed"}, err
		}
	}
	if f.err != nil {
		return commands.MessageOutput{Handled: true, Command: "search", Outcome: "post_failed"}, f.err
	}
	return commands.MessageOutput{Handled: true, Command: "search", Outcome: "ok"}, nil
}

type chatResponse struct {
	Handled bool            `json:"handled"`
	Command string          `json:"command"`
	Outcome string          `json:"outcome"`
	Error     string          `json:"error"`
	Posts     []commands.Post `json:"posts"`
	Truncated bool            `json:"truncated"`
}

func postChat(t *testing.T, handler http.Handler, body string) (*httptest.ResponseRecorder, chatResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	var decoded chatResponse
	if err := json.Unmarshal(res.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode chat response: %v body=%s", err, res.Body.String())
	}
	return res, decoded
}

func TestChatEndpointRunsCommandAndRecordsInvocation(t *testing.T) {
	sqlStore := newRouterTestStore(t)
	service := commands.New(commands.NewRouter(nil, true), nil, nil, nil,
		commands.WithLedger(sqlStore),
		commands.WithLogger(testLogger()),
	)
	handler := NewRouter(Dependencies{
		Store:      sqlStore,
		Dispatcher: service,
		Logger:     testLogger(),
	})

	res, decoded := postChat(t, handler, `{"channel_id":"session-1","user_id":"user-1","text":"++ping"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", res.Code, res.Body.String())
	}
	if !decoded.Handled || decoded.Command != commands.CommandPing || decoded.Outcome != "ok" {
		t.Fatalf("unexpected chat response: %+v", decoded)
	}
	if len(decoded.Posts) != 1 || decoded.Posts[0].Content != "Pong!" {
		t.Fatalf("expected pong post, got %+v", decoded.Posts)
	}

	invocations, err := sqlStore.ListInvocations(context.Background(), store.ListInvocationsInput{Connector: "http"})
	if err != nil {
		t.Fatalf("list invocations: %v", err)
	}
	if len(invocations) != 1 || invocations[0].ChannelID != "session-1" || invocations[0].Command != "ping" {
		t.Fatalf("expected recorded ping invocation, got %+v", invocations)
	}
}

func TestChatEndpointUnhandledText(t *testing.T) {
	dispatcher := commands.New(nil, nil, nil, nil, commands.WithLogger(testLogger()))
	handler := NewRouter(Dependencies{Dispatcher: dispatcher, Logger: testLogger()})

	res, decoded := postChat(t, handler, `{"text":"just chatting"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	if decoded.Handled || len(decoded.Posts) != 0 {
		t.Fatalf("expected unhandled message, got %+v", decoded)
	}
}

func TestChatEndpointDefaultsIdentity(t *testing.T) {
	dispatcher := &fakeDispatcher{posts: []commands.Post{{Content: "one"}}}
	handler := NewRouter(Dependencies{Dispatcher: dispatcher, Logger: testLogger()})

	res, _ := postChat(t, handler, `{"connector":" CLI ","text":"++search go"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	if dispatcher.last.Connector != "cli" || dispatcher.last.ChannelID != "http-api" || dispatcher.last.UserID != "http-api" {
		t.Fatalf("unexpected dispatcher input: %+v", dispatcher.last)
	}
}

func TestChatEndpointReportsPostFailure(t *testing.T) {
	dispatcher := &fakeDispatcher{posts: []commands.Post{{Content: "first"}}, err: errors.New("post search reply: channel gone")}
	handler := NewRouter(Dependencies{Dispatcher: dispatcher, Logger: testLogger()})

	res, decoded := postChat(t, handler, `{"text":"++search go"}`)
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", res.Code)
	}
	if len(decoded.Posts) != 1 || decoded.Posts[0].Content != "first" {
		t.Fatalf("expected posts made before the failure, got %+v", decoded.Posts)
	}
	if !strings.Contains(decoded.Error, "channel gone") {
		t.Fatalf("expected post error, got %q", decoded.Error)
	}
}

type manyLeavesSearcher struct {
	leaves int
}

func (s manyLeavesSearcher) Search(ctx context.Context, query string) (ddg.Response, error) {
	topics := make([]ddg.Topic, s.leaves)
	for index := range topics {
		topics[index] = ddg.LeafTopic(ddg.TopicResult{Text: fmt.Sprintf("%s %d", query, index)})
	}
	return ddg.Response{Type: ddg.TypeDisambiguation, RelatedTopics: topics}, nil
}

func (s manyLeavesSearcher) FirstLink(ctx context.Context, query string) (string, error) {
	return "", nil
}

func TestChatEndpointTruncatesLongSearch(t *testing.T) {
	sqlStore := newRouterTestStore(t)
	service := commands.New(commands.NewRouter(nil, true), nil, manyLeavesSearcher{leaves: maxChatPosts + 10}, nil,
		commands.WithLedger(sqlStore),
		commands.WithLogger(testLogger()),
	)
	handler := NewRouter(Dependencies{Store: sqlStore, Dispatcher: service, Logger: testLogger()})

	res, decoded := postChat(t, handler, `{"text":"++search mercury"}`)
	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", res.Code, res.Body.String())
	}
	if !decoded.Truncated {
		t.Fatal("expected truncated response")
	}
	if decoded.Outcome != "ok" || len(decoded.Posts) != maxChatPosts {
		t.Fatalf("expected ok with %d posts, got %s with %d", maxChatPosts, decoded.Outcome, len(decoded.Posts))
	}
	if got := decoded.Posts[0].Embed; got == nil || got.Description != "mercury 0" {
		t.Fatalf("expected first leaf first, got %+v", decoded.Posts[0])
	}

	invocations, err := sqlStore.ListInvocations(context.Background(), store.ListInvocationsInput{})
	if err != nil {
		t.Fatalf("list invocations: %v", err)
	}
	if len(invocations) != 1 || invocations[0].Outcome != "ok" {
		t.Fatalf("expected ok invocation, got %+v", invocations)
	}
}

func TestChatEndpointRejectsMissingText(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	handler := NewRouter(Dependencies{Dispatcher: dispatcher, Logger: testLogger()})

	res, _ := postChat(t, handler, `{"text":"   "}`)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", res.Code)
	}
	if dispatcher.calls != 0 {
		t.Fatalf("expected no dispatcher calls, got %d", dispatcher.calls)
	}
}

func TestChatEndpointUnavailableWithoutDispatcher(t *testing.T) {
	handler := NewRouter(Dependencies{Logger: testLogger()})
	res, _ := postChat(t, handler, `{"text":"++ping"}`)
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", res.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", recorder.Code)
	}
}

func TestInvocationsEndpoint(t *testing.T) {
	sqlStore := newRouterTestStore(t)
	ctx := context.Background()
	for _, input := range []store.RecordInvocationInput{
		{Connector: "discord", ChannelID: "c1", Command: "exec", Outcome: "ok", Duration: 40 * time.Millisecond},
		{Connector: "discord", ChannelID: "c1", Command: "exec", Outcome: "transport", Detail: "timeout"},
		{Connector: "discord", ChannelID: "c2", Command: "search", Outcome: "ok"},
	} {
		if _, err := sqlStore.RecordInvocation(ctx, input); err != nil {
			t.Fatalf("record invocation: %v", err)
		}
	}
	handler := NewRouter(Dependencies{Store: sqlStore, Logger: testLogger()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invocations?command=exec&limit=5", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", res.Code, res.Body.String())
	}
	var payload struct {
		Invocations []invocationResource   `json:"invocations"`
		Counts      []commandCountResource `json:"counts"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Invocations) != 2 {
		t.Fatalf("expected two exec invocations, got %+v", payload.Invocations)
	}
	if len(payload.Counts) != 2 || payload.Counts[0].Command != "exec" || payload.Counts[0].Failures != 1 {
		t.Fatalf("unexpected counts: %+v", payload.Counts)
	}

	bad := httptest.NewRecorder()
	handler.ServeHTTP(bad, httptest.NewRequest(http.MethodGet, "/api/v1/invocations?limit=zero", nil))
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for bad limit, got %d", bad.Code)
	}
}

func TestInvocationsEndpointDisabledWithoutStore(t *testing.T) {
	handler := NewRouter(Dependencies{Logger: testLogger()})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/v1/invocations", nil))
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", res.Code)
	}
}

type failingLedger struct {
	Ledger
}

func (failingLedger) Ping(ctx context.Context) error {
	return errors.New("database is locked")
}

func TestReadyzReflectsStoreAndHeartbeat(t *testing.T) {
	registry := heartbeat.NewRegistry()
	registry.Beat("api", "listening")
	handler := NewRouter(Dependencies{
		Store:     newRouterTestStore(t),
		Heartbeat: registry,
		Logger:    testLogger(),
	})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d body=%s", res.Code, res.Body.String())
	}

	registry.Degrade("connector:discord", "gateway session error", errors.New("EOF"))
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected not ready on degraded heartbeat, got %d", res.Code)
	}

	handler = NewRouter(Dependencies{Store: failingLedger{}, Logger: testLogger()})
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if res.Code != http.StatusServiceUnavailable || !strings.Contains(res.Body.String(), "database is locked") {
		t.Fatalf("expected store failure, got %d body=%s", res.Code, res.Body.String())
	}
}

func TestHeartbeatAndInfoEndpoints(t *testing.T) {
	handler := NewRouter(Dependencies{
		Config:  config.Config{Environment: "test", CommandPrefixes: []string{"++"}},
		Logger:  testLogger(),
		Version: "1.2.3",
	})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/v1/heartbeat", nil))
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected heartbeat unavailable, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/v1/info", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected info 200, got %d", res.Code)
	}
	var info map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info["version"] != "1.2.3" || info["environment"] != "test" || info["ledger"] != false {
		t.Fatalf("unexpected info payload: %+v", info)
	}
	languages, ok := info["languages"].([]any)
	if !ok || len(languages) == 0 {
		t.Fatalf("expected language aliases, got %+v", info["languages"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	m.CommandInvoked("exec")
	handler := NewRouter(Dependencies{Metrics: m, Logger: testLogger()})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), `autobot_command_invocations_total{command="exec"} 1`) {
		t.Fatalf("expected exec counter in metrics output")
	}

	res = httptest.NewRecorder()
	NewRouter(Dependencies{Logger: testLogger()}).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without metrics, got %d", res.Code)
	}
}
