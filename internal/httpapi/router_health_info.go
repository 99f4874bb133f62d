package httpapi

import (
	"net/http"

	"github.com/dwizi/autobot/internal/codeexec"
	"github.com/dwizi/autobot/internal/commands"
)

func (r *router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *router) handleReady(w http.ResponseWriter, req *http.Request) {
	if r.deps.Store != nil {
		if err := r.deps.Store.Ping(req.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not-ready", "error": err.Error()})
			return
		}
	}
	if r.deps.Heartbeat != nil {
		snapshot := r.deps.Heartbeat.Snapshot(r.deps.HeartbeatStaleAfter)
		if !snapshot.Ready() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not-ready", "heartbeat": snapshot.Overall})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (r *router) handleHeartbeat(w http.ResponseWriter, req *http.Request) {
	if r.deps.Heartbeat == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  "heartbeat is disabled",
		})
		return
	}
	snapshot := r.deps.Heartbeat.Snapshot(r.deps.HeartbeatStaleAfter)
	writeJSON(w, http.StatusOK, snapshot)
}

func (r *router) handleInfo(w http.ResponseWriter, req *http.Request) {
	version := r.deps.Version
	if version == "" {
		version = "dev"
	}
	names := make([]string, 0, len(commands.Definitions()))
	for _, definition := range commands.Definitions() {
		names = append(names, definition.Name)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "autobot",
		"version":     version,
		"environment": r.deps.Config.Environment,
		"prefixes":    r.deps.Config.CommandPrefixes,
		"mention":     r.deps.Config.MentionEnabled,
		"commands":    names,
		"languages":   codeexec.Aliases(),
		"ledger":      r.deps.Store != nil,
	})
}
