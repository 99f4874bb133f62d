package discord

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dwizi/autobot/internal/commands"
	"github.com/dwizi/autobot/internal/heartbeat"
	"github.com/dwizi/autobot/internal/orchestrator"
)

const (
	componentName = "connector:discord"

	discordIntentGuilds          = 1 << 0
	discordIntentGuildMessages   = 1 << 9
	discordIntentDirectMessages  = 1 << 12
	discordIntentMessageContents = 1 << 15
)

// Dispatcher handles one inbound message and posts its replies through poster.
type Dispatcher interface {
	HandleMessage(ctx context.Context, input commands.MessageInput, poster commands.Poster) (commands.MessageOutput, error)
}

// Queue hands message jobs to a worker pool so slow commands do not stall the
// gateway read loop.
type Queue interface {
	Enqueue(job orchestrator.Job) (orchestrator.Job, error)
}

type Connector struct {
	token      string
	apiBase    string
	gatewayURL string
	dispatcher Dispatcher
	httpClient *http.Client
	logger     *slog.Logger
	reporter   heartbeat.Reporter
	queue      Queue

	mu        sync.RWMutex
	botUserID string
}

type Option func(*Connector)

func WithHTTPClient(client *http.Client) Option {
	return func(connector *Connector) {
		if client != nil {
			connector.httpClient = client
		}
	}
}

// WithQueue runs MESSAGE_CREATE handling on queue instead of inline.
func WithQueue(queue Queue) Option {
	return func(connector *Connector) {
		if queue != nil {
			connector.queue = queue
		}
	}
}

func New(token, apiBase, gatewayURL string, dispatcher Dispatcher, logger *slog.Logger, opts ...Option) *Connector {
	if strings.TrimSpace(apiBase) == "" {
		apiBase = "https://discord.com/api/v10"
	}
	if strings.TrimSpace(gatewayURL) == "" {
		gatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"
	}
	connector := &Connector{
		token:      strings.TrimSpace(token),
		apiBase:    strings.TrimRight(strings.TrimSpace(apiBase), "/"),
		gatewayURL: strings.TrimSpace(gatewayURL),
		dispatcher: dispatcher,
		httpClient: &http.Client{Timeout: 12 * time.Second},
		logger:     logger,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(connector)
		}
	}
	return connector
}

func (c *Connector) Name() string {
	return "discord"
}

func (c *Connector) SetHeartbeatReporter(reporter heartbeat.Reporter) {
	c.reporter = reporter
}

func (c *Connector) BotUserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.botUserID
}

func (c *Connector) setBotUserID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.botUserID = strings.TrimSpace(id)
}
