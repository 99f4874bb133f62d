package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dwizi/autobot/internal/store"
)

type invocationResource struct {
	ID            string `json:"id"`
	Connector     string `json:"connector"`
	ChannelID     string `json:"channel_id"`
	UserID        string `json:"user_id,omitempty"`
	Command       string `json:"command"`
	Outcome       string `json:"outcome"`
	Detail        string `json:"detail,omitempty"`
	DurationMS    int64  `json:"duration_ms"`
	CreatedAtUnix int64  `json:"created_at_unix"`
}

type commandCountResource struct {
	Command  string `json:"command"`
	Total    int    `json:"total"`
	Failures int    `json:"failures"`
}

func (r *router) handleInvocations(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if r.deps.Store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "invocation ledger is disabled"})
		return
	}

	query := req.URL.Query()
	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	invocations, err := r.deps.Store.ListInvocations(req.Context(), store.ListInvocationsInput{
		Connector: query.Get("connector"),
		ChannelID: query.Get("channel_id"),
		Command:   query.Get("command"),
		Limit:     limit,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	counts, err := r.deps.Store.CountByCommand(req.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	items := make([]invocationResource, 0, len(invocations))
	for _, invocation := range invocations {
		items = append(items, invocationResource{
			ID:            invocation.ID,
			Connector:     invocation.Connector,
			ChannelID:     invocation.ChannelID,
			UserID:        invocation.UserID,
			Command:       invocation.Command,
			Outcome:       invocation.Outcome,
			Detail:        invocation.Detail,
			DurationMS:    invocation.Duration.Milliseconds(),
			CreatedAtUnix: invocation.CreatedAt.Unix(),
		})
	}
	totals := make([]commandCountResource, 0, len(counts))
	for _, count := range counts {
		totals = append(totals, commandCountResource(count))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"invocations": items,
		"counts":      totals,
	})
}
