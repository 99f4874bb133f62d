package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dwizi/autobot/internal/calc"
	"github.com/dwizi/autobot/internal/codeexec"
	"github.com/dwizi/autobot/internal/commands"
	"github.com/dwizi/autobot/internal/config"
	"github.com/dwizi/autobot/internal/connectors"
	"github.com/dwizi/autobot/internal/connectors/discord"
	"github.com/dwizi/autobot/internal/ddg"
	"github.com/dwizi/autobot/internal/heartbeat"
	"github.com/dwizi/autobot/internal/httpapi"
	"github.com/dwizi/autobot/internal/metrics"
	"github.com/dwizi/autobot/internal/orchestrator"
	"github.com/dwizi/autobot/internal/store"
)

// New wires the full bot. version is reported by /api/v1/info.
func New(cfg config.Config, logger *slog.Logger, version string) (*Runtime, error) {
	var sqlStore *store.Store
	if cfg.LedgerEnabled {
		opened, err := openStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		sqlStore = opened
	}

	var heartbeatRegistry *heartbeat.Registry
	if cfg.HeartbeatEnabled {
		heartbeatRegistry = heartbeat.NewRegistry()
		heartbeatRegistry.Starting("api", "initializing")
	}

	botMetrics := metrics.New()
	service := NewService(cfg, sqlStore, botMetrics, logger)

	// A nil *store.Store must not reach the interface fields below.
	var ledger httpapi.Ledger
	if sqlStore != nil {
		ledger = sqlStore
	}
	handler := httpapi.NewRouter(httpapi.Dependencies{
		Config:              cfg,
		Store:               ledger,
		Dispatcher:          service,
		Metrics:             botMetrics,
		Logger:              logger.With("component", "api"),
		Heartbeat:           heartbeatRegistry,
		HeartbeatStaleAfter: time.Duration(cfg.HeartbeatStaleSec) * time.Second,
		Version:             version,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	dispatchEngine := orchestrator.New(cfg.DispatchWorkers, cfg.DispatchQueueDepth, logger.With("component", "dispatch"))
	dispatchEngine.SetObserver(dispatchObserver{metrics: botMetrics})
	queue := &dispatchQueue{engine: dispatchEngine, metrics: botMetrics}

	connectorList := []connectors.Connector{
		discord.New(cfg.DiscordToken, cfg.DiscordAPI, cfg.DiscordWSURL, service, logger.With("connector", "discord"), discord.WithQueue(queue)),
	}
	if heartbeatRegistry != nil {
		for _, connector := range connectorList {
			if aware, ok := connector.(heartbeatAware); ok {
				aware.SetHeartbeatReporter(heartbeatRegistry)
			}
		}
	}

	var ledgerPruner *pruner
	if sqlStore != nil {
		built, err := newPruner(sqlStore, cfg.LedgerPruneCron, time.Duration(cfg.LedgerRetentionDays)*24*time.Hour, logger.With("component", "ledger-pruner"))
		if err != nil {
			sqlStore.Close()
			return nil, err
		}
		if heartbeatRegistry != nil {
			built.reporter = heartbeatRegistry
		}
		ledgerPruner = built
	}

	var monitor *heartbeat.Monitor
	if heartbeatRegistry != nil {
		monitor = heartbeat.NewMonitor(heartbeatRegistry, heartbeat.MonitorConfig{
			Interval:   time.Duration(cfg.HeartbeatIntervalSec) * time.Second,
			StaleAfter: time.Duration(cfg.HeartbeatStaleSec) * time.Second,
			Logger:     logger.With("component", "heartbeat"),
			OnSnapshot: func(snapshot heartbeat.Snapshot) {
				for _, component := range snapshot.Components {
					botMetrics.SetComponentDegraded(component.Name, heartbeat.IsDegradedState(component.State))
				}
			},
		})
	}

	return &Runtime{
		cfg:              cfg,
		logger:           logger,
		store:            sqlStore,
		metrics:          botMetrics,
		service:          service,
		httpServer:       httpServer,
		connectors:       connectorList,
		dispatch:         dispatchEngine,
		pruner:           ledgerPruner,
		heartbeat:        heartbeatRegistry,
		heartbeatMonitor: monitor,
	}, nil
}

// NewService builds the command dispatcher from configuration. ledger may be
// nil, which disables stats.
func NewService(cfg config.Config, ledger *store.Store, botMetrics *metrics.Metrics, logger *slog.Logger) *commands.Service {
	executor := codeexec.New(cfg.ExecEndpoint)
	searcher := ddg.New(
		ddg.WithAPIBase(cfg.SearchAPIBase),
		ddg.WithHTMLURL(cfg.SearchHTMLURL),
		ddg.WithAppName(cfg.SearchAppName),
	)
	evaluator := calc.New(time.Duration(cfg.EvalTimeoutSec) * time.Second)

	opts := []commands.Option{
		commands.WithMetrics(botMetrics),
		commands.WithLogger(logger.With("component", "commands")),
	}
	if ledger != nil {
		opts = append(opts, commands.WithLedger(ledger))
	}
	return commands.New(
		commands.NewRouter(cfg.CommandPrefixes, cfg.MentionEnabled),
		executor,
		searcher,
		evaluator,
		opts...,
	)
}

func openStore(path string) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	sqlStore, err := store.New(path)
	if err != nil {
		return nil, err
	}
	if err := sqlStore.AutoMigrate(context.Background()); err != nil {
		sqlStore.Close()
		return nil, err
	}
	return sqlStore, nil
}
