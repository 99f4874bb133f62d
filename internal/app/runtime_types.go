package app

import (
	"log/slog"
	"net/http"

	"github.com/dwizi/autobot/internal/commands"
	"github.com/dwizi/autobot/internal/config"
	"github.com/dwizi/autobot/internal/connectors"
	"github.com/dwizi/autobot/internal/heartbeat"
	"github.com/dwizi/autobot/internal/metrics"
	"github.com/dwizi/autobot/internal/orchestrator"
	"github.com/dwizi/autobot/internal/store"
)

type Runtime struct {
	cfg              config.Config
	logger           *slog.Logger
	store            *store.Store
	metrics          *metrics.Metrics
	service          *commands.Service
	httpServer       *http.Server
	connectors       []connectors.Connector
	dispatch         *orchestrator.Engine
	pruner           *pruner
	heartbeat        *heartbeat.Registry
	heartbeatMonitor *heartbeat.Monitor
}

type heartbeatAware interface {
	SetHeartbeatReporter(reporter heartbeat.Reporter)
}
