package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dwizi/autobot/internal/heartbeat"
)

const prunerComponent = "ledger:pruner"

var pruneScheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type invocationPruner interface {
	PruneInvocationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// pruner deletes ledger rows older than retention on a cron schedule.
type pruner struct {
	store     invocationPruner
	schedule  cron.Schedule
	retention time.Duration
	logger    *slog.Logger
	reporter  heartbeat.Reporter
	now       func() time.Time
}

func newPruner(store invocationPruner, expression string, retention time.Duration, logger *slog.Logger) (*pruner, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		expression = "@daily"
	}
	schedule, err := pruneScheduleParser.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("parse ledger prune schedule %q: %w", expression, err)
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &pruner{
		store:     store,
		schedule:  schedule,
		retention: retention,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (p *pruner) Start(ctx context.Context) error {
	p.logger.Info("ledger pruner started", "retention", p.retention.String())
	for {
		now := p.now()
		next := p.schedule.Next(now)
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			p.logger.Info("ledger pruner stopped")
			return nil
		case <-timer.C:
		}
		if _, err := p.pruneOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Error("ledger prune failed", "error", err)
		}
	}
}

func (p *pruner) pruneOnce(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)
	removed, err := p.store.PruneInvocationsBefore(ctx, cutoff)
	if err != nil {
		if p.reporter != nil {
			p.reporter.Degrade(prunerComponent, "prune failed", err)
		}
		return 0, err
	}
	if p.reporter != nil {
		p.reporter.Beat(prunerComponent, fmt.Sprintf("pruned %d invocations", removed))
	}
	p.logger.Info("ledger pruned", "removed", removed, "cutoff_unix", cutoff.Unix())
	return removed, nil
}
