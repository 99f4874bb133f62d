package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dwizi/autobot/internal/commands"
)

// maxChatPosts bounds a single HTTP chat exchange. Posts past it are dropped
// and the response is marked truncated.
const maxChatPosts = 50

type chatRequest struct {
	Connector string `json:"connector"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
}

func (r *router) handleChat(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if r.deps.Dispatcher == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "command dispatcher is unavailable"})
		return
	}

	var payload chatRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text is required"})
		return
	}

	connector := strings.ToLower(strings.TrimSpace(payload.Connector))
	if connector == "" {
		connector = "http"
	}
	channelID := strings.TrimSpace(payload.ChannelID)
	if channelID == "" {
		channelID = "http-api"
	}
	userID := strings.TrimSpace(payload.UserID)
	if userID == "" {
		userID = channelID
	}

	collector := commands.NewCollector(maxChatPosts)
	output, err := r.deps.Dispatcher.HandleMessage(req.Context(), commands.MessageInput{
		Connector: connector,
		ChannelID: channelID,
		UserID:    userID,
		Text:      payload.Text,
	}, collector)
	if err != nil {
		r.deps.Logger.Warn("api chat dispatch failed", "error", err, "connector", connector, "channel_id", channelID)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   err.Error(),
			"command": output.Command,
			"posts":   collector.Posts(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"handled":   output.Handled,
		"command":   output.Command,
		"outcome":   output.Outcome,
		"posts":     collector.Posts(),
		"truncated": collector.Truncated(),
	})
}
