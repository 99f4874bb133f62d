package adminclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dwizi/autobot/internal/config"
)

func TestClientChat(t *testing.T) {
	t.Parallel()

	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/v1/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"handled":true,"command":"eval","outcome":"ok","posts":[{"embed":{"title":"Result","description":"3","color":65280}}]}`))
	}))
	defer server.Close()

	client := &Client{baseURL: server.URL, http: server.Client()}
	response, err := client.Chat(context.Background(), ChatRequest{Connector: "cli", ChannelID: "term", Text: "++eval 1+2"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if got.Connector != "cli" || got.ChannelID != "term" || got.Text != "++eval 1+2" {
		t.Fatalf("unexpected request payload: %+v", got)
	}
	if !response.Handled || response.Command != "eval" || len(response.Posts) != 1 {
		t.Fatalf("unexpected response: %+v", response)
	}
	if embed := response.Posts[0].Embed; embed == nil || embed.Description != "3" || embed.Color != 0x00FF00 {
		t.Fatalf("unexpected embed: %+v", response.Posts[0])
	}
}

func TestClientChatRequiresText(t *testing.T) {
	t.Parallel()

	client := &Client{baseURL: "http://127.0.0.1:1", http: http.DefaultClient}
	if _, err := client.Chat(context.Background(), ChatRequest{Text: "  "}); err == nil {
		t.Fatal("expected text required error")
	}
}

func TestClientListInvocations(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/invocations" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("command") != "exec" || r.URL.Query().Get("limit") != "5" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"invocations":[{"id":"inv_1","connector":"discord","channel_id":"c1","command":"exec","outcome":"ok","duration_ms":12,"created_at_unix":1730000000}],"counts":[{"command":"exec","total":1,"failures":0}]}`))
	}))
	defer server.Close()

	client := &Client{baseURL: server.URL, http: server.Client()}
	response, err := client.ListInvocations(context.Background(), ListInvocationsInput{Command: " exec ", Limit: 5})
	if err != nil {
		t.Fatalf("list invocations: %v", err)
	}
	if len(response.Invocations) != 1 || response.Invocations[0].ID != "inv_1" || response.Invocations[0].DurationMS != 12 {
		t.Fatalf("unexpected invocations: %+v", response.Invocations)
	}
	if len(response.Counts) != 1 || response.Counts[0].Total != 1 {
		t.Fatalf("unexpected counts: %+v", response.Counts)
	}
}

func TestClientChatDecodesTruncatedFlag(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"handled":true,"command":"search","outcome":"ok","truncated":true,"posts":[{"content":"one"}]}`))
	}))
	defer server.Close()

	client := &Client{baseURL: server.URL, http: server.Client()}
	response, err := client.Chat(context.Background(), ChatRequest{Text: "++search mercury"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !response.Truncated {
		t.Fatalf("expected truncated response, got %+v", response)
	}
}

func TestClientHeartbeat(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/heartbeat" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"generated_at_unix":1730000000,"overall":"degraded","components":[{"name":"discord","state":"degraded","base_state":"degraded","error":"gateway closed","updated_at_unix":1730000000},{"name":"api","state":"healthy","base_state":"healthy","updated_at_unix":1730000000}]}`))
	}))
	defer server.Close()

	client := &Client{baseURL: server.URL, http: server.Client()}
	snapshot, err := client.Heartbeat(context.Background())
	if err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	if snapshot.Overall != "degraded" || len(snapshot.Components) != 2 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if snapshot.Components[0].Name != "discord" || snapshot.Components[0].Error != "gateway closed" {
		t.Fatalf("unexpected component: %+v", snapshot.Components[0])
	}
}

func TestClientSurfacesAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"invocation ledger is disabled"}`))
	}))
	defer server.Close()

	client := &Client{baseURL: server.URL, http: server.Client()}
	_, err := client.ListInvocations(context.Background(), ListInvocationsInput{})
	if err == nil || err.Error() != "invocation ledger is disabled" {
		t.Fatalf("expected api error, got %v", err)
	}
}

func TestClientWithTimeoutClonesClient(t *testing.T) {
	t.Parallel()

	base := &Client{
		baseURL: "https://example.com",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	updated := base.WithTimeout(3 * time.Second)
	if updated == nil {
		t.Fatal("expected updated client")
	}
	if updated == base {
		t.Fatal("expected timeout update to clone client")
	}
	if updated.http == base.http {
		t.Fatal("expected timeout update to clone http client")
	}
	if updated.http.Timeout != 3*time.Second {
		t.Fatalf("expected timeout 3s, got %s", updated.http.Timeout)
	}
	if base.http.Timeout != 15*time.Second {
		t.Fatalf("expected original timeout unchanged, got %s", base.http.Timeout)
	}
}

func TestNewRespectsAdminHTTPTimeoutConfig(t *testing.T) {
	t.Parallel()

	client, err := New(config.Config{
		AdminAPIURL:         "https://example.com/",
		AdminHTTPTimeoutSec: 42,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.http.Timeout != 42*time.Second {
		t.Fatalf("expected timeout 42s, got %s", client.http.Timeout)
	}
	if client.baseURL != "https://example.com" {
		t.Fatalf("expected trimmed base url, got %s", client.baseURL)
	}

	if _, err := New(config.Config{}); err == nil {
		t.Fatal("expected missing url error")
	}
}
