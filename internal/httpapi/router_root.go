package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dwizi/autobot/internal/commands"
	"github.com/dwizi/autobot/internal/config"
	"github.com/dwizi/autobot/internal/heartbeat"
	"github.com/dwizi/autobot/internal/metrics"
	"github.com/dwizi/autobot/internal/store"
)

type Dispatcher interface {
	HandleMessage(ctx context.Context, input commands.MessageInput, poster commands.Poster) (commands.MessageOutput, error)
}

// Ledger is the read side of the invocation store.
type Ledger interface {
	Ping(ctx context.Context) error
	ListInvocations(ctx context.Context, input store.ListInvocationsInput) ([]store.Invocation, error)
	CountByCommand(ctx context.Context) ([]store.CommandCount, error)
}

type Dependencies struct {
	Config              config.Config
	Store               Ledger
	Dispatcher          Dispatcher
	Metrics             *metrics.Metrics
	Logger              *slog.Logger
	Heartbeat           *heartbeat.Registry
	HeartbeatStaleAfter time.Duration
	Version             string
}

type router struct {
	deps Dependencies
}

func NewRouter(deps Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	rt := &router{deps: deps}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.handleHealth)
	mux.HandleFunc("/readyz", rt.handleReady)
	mux.HandleFunc("/api/v1/heartbeat", rt.handleHeartbeat)
	mux.HandleFunc("/api/v1/info", rt.handleInfo)
	mux.HandleFunc("/api/v1/chat", rt.handleChat)
	mux.HandleFunc("/api/v1/invocations", rt.handleInvocations)
	mux.Handle("/metrics", deps.Metrics.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
