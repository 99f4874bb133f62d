package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	Environment string
	HTTPAddr    string
	DataDir     string
	DBPath      string

	DiscordToken    string
	DiscordAPI      string
	DiscordWSURL    string
	CommandPrefixes []string
	MentionEnabled  bool
	ExecEndpoint    string
	SearchAPIBase   string
	SearchHTMLURL   string
	SearchAppName   string
	EvalTimeoutSec  int

	DispatchWorkers    int
	DispatchQueueDepth int

	LedgerEnabled       bool
	LedgerRetentionDays int
	LedgerPruneCron     string

	HeartbeatEnabled     bool
	HeartbeatIntervalSec int
	HeartbeatStaleSec    int

	AdminAPIURL         string
	AdminHTTPTimeoutSec int
	AdminTLSSkipVerify  bool
}

func FromEnv() Config {
	dataDir := stringOrDefault("AUTOBOT_DATA_DIR", "/data")
	dbPath := stringOrDefault("AUTOBOT_DB_PATH", filepath.Join(dataDir, "autobot", "ledger.sqlite"))

	return Config{
		Environment: stringOrDefault("AUTOBOT_ENV", "development"),
		HTTPAddr:    stringOrDefault("AUTOBOT_HTTP_ADDR", ":8080"),
		DataDir:     dataDir,
		DBPath:      dbPath,

		DiscordToken:    stringOrDefault("AUTOBOT_DISCORD_TOKEN", strings.TrimSpace(os.Getenv("DISCORD_TOKEN"))),
		DiscordAPI:      stringOrDefault("AUTOBOT_DISCORD_API_BASE", "https://discord.com/api/v10"),
		DiscordWSURL:    stringOrDefault("AUTOBOT_DISCORD_GATEWAY_URL", "wss://gateway.discord.gg/?v=10&encoding=json"),
		CommandPrefixes: csvOrDefault("AUTOBOT_COMMAND_PREFIXES", []string{"++", "$", ">"}),
		MentionEnabled:  boolOrDefault("AUTOBOT_MENTION_ENABLED", true),
		ExecEndpoint:    stringOrDefault("AUTOBOT_EXEC_ENDPOINT", "http://coliru.stacked-crooked.com/compile"),
		SearchAPIBase:   stringOrDefault("AUTOBOT_SEARCH_API_BASE", "https://api.duckduckgo.com/"),
		SearchHTMLURL:   stringOrDefault("AUTOBOT_SEARCH_HTML_URL", "https://html.duckduckgo.com/html/"),
		SearchAppName:   stringOrDefault("AUTOBOT_SEARCH_APP_NAME", "autobotrobot"),
		EvalTimeoutSec:  intOrDefault("AUTOBOT_EVAL_TIMEOUT_SECONDS", 2),

		DispatchWorkers:    intOrDefault("AUTOBOT_DISPATCH_WORKERS", 4),
		DispatchQueueDepth: intOrDefault("AUTOBOT_DISPATCH_QUEUE_DEPTH", 50),

		LedgerEnabled:       boolOrDefault("AUTOBOT_LEDGER_ENABLED", true),
		LedgerRetentionDays: intOrDefault("AUTOBOT_LEDGER_RETENTION_DAYS", 30),
		LedgerPruneCron:     stringOrDefault("AUTOBOT_LEDGER_PRUNE_CRON", "@daily"),

		HeartbeatEnabled:     boolOrDefault("AUTOBOT_HEARTBEAT_ENABLED", true),
		HeartbeatIntervalSec: intOrDefault("AUTOBOT_HEARTBEAT_INTERVAL_SECONDS", 30),
		HeartbeatStaleSec:    intOrDefault("AUTOBOT_HEARTBEAT_STALE_SECONDS", 120),

		AdminAPIURL:         stringOrDefault("AUTOBOT_ADMIN_API_URL", "http://127.0.0.1:8080"),
		AdminHTTPTimeoutSec: intOrDefault("AUTOBOT_ADMIN_HTTP_TIMEOUT_SECONDS", 60),
		AdminTLSSkipVerify:  boolOrDefault("AUTOBOT_ADMIN_TLS_SKIP_VERIFY", false),
	}
}

func stringOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

func boolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// csvOrDefault splits a comma separated list and drops blank entries.
func csvOrDefault(name string, fallback []string) []string {
	value := os.Getenv(name)
	if strings.TrimSpace(value) == "" {
		return append([]string(nil), fallback...)
	}
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return append([]string(nil), fallback...)
	}
	return items
}
