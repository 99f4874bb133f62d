package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Invocation struct {
	ID        string
	Connector string
	ChannelID string
	UserID    string
	Command   string
	Outcome   string
	Detail    string
	Duration  time.Duration
	CreatedAt time.Time
}

type RecordInvocationInput struct {
	Connector string
	ChannelID string
	UserID    string
	Command   string
	Outcome   string
	Detail    string
	Duration  time.Duration
}

type ListInvocationsInput struct {
	Connector string
	ChannelID string
	Command   string
	Limit     int
}

type CommandCount struct {
	Command  string
	Total    int
	Failures int
}

func (s *Store) RecordInvocation(ctx context.Context, input RecordInvocationInput) (Invocation, error) {
	record := Invocation{
		ID:        "inv_" + uuid.NewString(),
		Connector: strings.ToLower(strings.TrimSpace(input.Connector)),
		ChannelID: strings.TrimSpace(input.ChannelID),
		UserID:    strings.TrimSpace(input.UserID),
		Command:   strings.ToLower(strings.TrimSpace(input.Command)),
		Outcome:   strings.ToLower(strings.TrimSpace(input.Outcome)),
		Detail:    strings.TrimSpace(input.Detail),
		Duration:  input.Duration,
		CreatedAt: time.Now().UTC(),
	}
	if record.Connector == "" || record.ChannelID == "" || record.Command == "" || record.Outcome == "" {
		return Invocation{}, fmt.Errorf("missing required invocation fields")
	}

	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO command_invocations (
			id, connector, channel_id, user_id, command, outcome, detail, duration_ms, created_at_unix
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Connector,
		record.ChannelID,
		nullIfEmpty(record.UserID),
		record.Command,
		record.Outcome,
		nullIfEmpty(record.Detail),
		record.Duration.Milliseconds(),
		record.CreatedAt.Unix(),
	); err != nil {
		return Invocation{}, fmt.Errorf("insert invocation: %w", err)
	}
	return record, nil
}

func (s *Store) ListInvocations(ctx context.Context, input ListInvocationsInput) ([]Invocation, error) {
	limit := input.Limit
	if limit < 1 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	whereParts := []string{"1=1"}
	args := make([]any, 0, 4)

	if connector := strings.ToLower(strings.TrimSpace(input.Connector)); connector != "" {
		whereParts = append(whereParts, "connector = ?")
		args = append(args, connector)
	}
	if channelID := strings.TrimSpace(input.ChannelID); channelID != "" {
		whereParts = append(whereParts, "channel_id = ?")
		args = append(args, channelID)
	}
	if command := strings.ToLower(strings.TrimSpace(input.Command)); command != "" {
		whereParts = append(whereParts, "command = ?")
		args = append(args, command)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, connector, channel_id, COALESCE(user_id, ''), command, outcome, COALESCE(detail, ''), duration_ms, created_at_unix
		 FROM command_invocations
		 WHERE `+strings.Join(whereParts, " AND ")+`
		 ORDER BY created_at_unix DESC, rowid DESC
		 LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query invocations: %w", err)
	}
	defer rows.Close()

	invocations := make([]Invocation, 0, limit)
	for rows.Next() {
		var invocation Invocation
		var durationMS, createdAtUnix int64
		if err := rows.Scan(
			&invocation.ID,
			&invocation.Connector,
			&invocation.ChannelID,
			&invocation.UserID,
			&invocation.Command,
			&invocation.Outcome,
			&invocation.Detail,
			&durationMS,
			&createdAtUnix,
		); err != nil {
			return nil, err
		}
		invocation.Duration = time.Duration(durationMS) * time.Millisecond
		if createdAtUnix > 0 {
			invocation.CreatedAt = time.Unix(createdAtUnix, 0).UTC()
		}
		invocations = append(invocations, invocation)
	}
	return invocations, rows.Err()
}

// CountByCommand totals invocations per command, most used first. An empty
// search is not a failure.
func (s *Store) CountByCommand(ctx context.Context) ([]CommandCount, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT command, COUNT(*), SUM(CASE WHEN outcome IN ('ok', 'no_results') THEN 0 ELSE 1 END)
		 FROM command_invocations
		 GROUP BY command
		 ORDER BY COUNT(*) DESC, command ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("count invocations: %w", err)
	}
	defer rows.Close()

	counts := []CommandCount{}
	for rows.Next() {
		var count CommandCount
		if err := rows.Scan(&count.Command, &count.Total, &count.Failures); err != nil {
			return nil, err
		}
		counts = append(counts, count)
	}
	return counts, rows.Err()
}

// PruneInvocationsBefore deletes ledger rows older than cutoff and reports how
// many were removed.
func (s *Store) PruneInvocationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(
		ctx,
		`DELETE FROM command_invocations WHERE created_at_unix < ?`,
		cutoff.UTC().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("prune invocations: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune invocations: %w", err)
	}
	return removed, nil
}
