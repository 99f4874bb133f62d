package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/dwizi/autobot/internal/adminclient"
	"github.com/dwizi/autobot/internal/config"
	"github.com/dwizi/autobot/internal/heartbeat"
)

const (
	defaultRefreshInterval = 5 * time.Second
	requestTimeout         = 8 * time.Second
	invocationLimit        = 100
)

type viewID string

const (
	viewOverview    viewID = "overview"
	viewInvocations viewID = "invocations"
	viewCommands    viewID = "commands"
)

func allViews() []viewID {
	return []viewID{viewOverview, viewInvocations, viewCommands}
}

// dashboardClient is the slice of the HTTP API the dashboard reads.
type dashboardClient interface {
	Heartbeat(ctx context.Context) (heartbeat.Snapshot, error)
	ListInvocations(ctx context.Context, input adminclient.ListInvocationsInput) (adminclient.ListInvocationsResponse, error)
}

type refreshTickMsg time.Time

type dashboardLoadedMsg struct {
	snapshot     heartbeat.Snapshot
	heartbeatErr error
	invocations  adminclient.ListInvocationsResponse
	ledgerErr    error
	at           time.Time
}

type model struct {
	cfg          config.Config
	logger       *slog.Logger
	client       dashboardClient
	keys         keyMap
	help         help.Model
	refreshEvery time.Duration

	width  int
	height int

	activeView viewID
	cursor     int

	snapshot    heartbeat.Snapshot
	invocations []adminclient.Invocation
	counts      []adminclient.CommandCount
	lastRefresh time.Time

	loading    bool
	statusText string
	errorText  string
	quitting   bool
}

// Run opens the dashboard against the bot at cfg.AdminAPIURL and blocks until
// the user quits.
func Run(cfg config.Config, refreshEvery time.Duration, logger *slog.Logger) error {
	client, err := adminclient.New(cfg)
	if err != nil {
		return err
	}
	program := tea.NewProgram(newModel(cfg, client, refreshEvery, logger))
	_, err = program.Run()
	return err
}

func newModel(cfg config.Config, client dashboardClient, refreshEvery time.Duration, logger *slog.Logger) model {
	if refreshEvery < time.Second {
		refreshEvery = defaultRefreshInterval
	}
	return model{
		cfg:          cfg,
		logger:       logger.With("component", "tui"),
		client:       client,
		keys:         newKeyMap(),
		help:         help.New(),
		refreshEvery: refreshEvery,
		width:        120,
		height:       36,
		activeView:   viewOverview,
		loading:      true,
		statusText:   "loading",
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.height = typed.Height
		return m, nil
	case refreshTickMsg:
		if m.loading {
			return m, m.tickCmd()
		}
		m.loading = true
		return m, tea.Batch(m.loadCmd(), m.tickCmd())
	case dashboardLoadedMsg:
		m.applyDashboard(typed)
		return m, nil
	case tea.KeyPressMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m model) View() tea.View {
	view := tea.NewView(m.renderView())
	view.AltScreen = true
	return view
}

func (m model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Refresh):
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.statusText = "refreshing"
		return m, m.loadCmd()
	case key.Matches(msg, m.keys.PrevView):
		m.switchView(-1)
	case key.Matches(msg, m.keys.NextView):
		m.switchView(1)
	case key.Matches(msg, m.keys.View1):
		m.setView(viewOverview)
	case key.Matches(msg, m.keys.View2):
		m.setView(viewInvocations)
	case key.Matches(msg, m.keys.View3):
		m.setView(viewCommands)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	}
	return m, nil
}

func (m *model) switchView(step int) {
	views := allViews()
	index := 0
	for i, view := range views {
		if view == m.activeView {
			index = i
			break
		}
	}
	index = (index + step + len(views)) % len(views)
	m.setView(views[index])
}

// setView switches views. Each view keeps its own row list, so the cursor
// starts over.
func (m *model) setView(view viewID) {
	if view != m.activeView {
		m.cursor = 0
	}
	m.activeView = view
}

func (m *model) moveCursor(step int) {
	var rows int
	switch m.activeView {
	case viewInvocations:
		rows = len(m.invocations)
	case viewCommands:
		rows = len(m.counts)
	default:
		return
	}
	m.cursor = clampInt(m.cursor+step, 0, maxInt(0, rows-1))
}

func (m *model) applyDashboard(msg dashboardLoadedMsg) {
	m.loading = false
	m.lastRefresh = msg.at

	problems := []string{}
	if msg.heartbeatErr != nil {
		problems = append(problems, "heartbeat: "+msg.heartbeatErr.Error())
	} else {
		m.snapshot = msg.snapshot
	}
	if msg.ledgerErr != nil {
		problems = append(problems, "invocations: "+msg.ledgerErr.Error())
	} else {
		m.invocations = msg.invocations.Invocations
		m.counts = msg.invocations.Counts
	}

	rows := len(m.invocations)
	if m.activeView == viewCommands {
		rows = len(m.counts)
	}
	m.cursor = clampInt(m.cursor, 0, maxInt(0, rows-1))

	if len(problems) > 0 {
		m.errorText = strings.Join(problems, "; ")
		m.statusText = ""
		m.logger.Debug("dashboard refresh incomplete", "error", m.errorText)
		return
	}
	m.errorText = ""
	m.statusText = "refreshed " + msg.at.UTC().Format("15:04:05")
}

func (m model) loadCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		loaded := dashboardLoadedMsg{at: time.Now()}
		if client == nil {
			err := errors.New("admin client is not configured")
			loaded.heartbeatErr = err
			loaded.ledgerErr = err
			return loaded
		}
		loaded.snapshot, loaded.heartbeatErr = client.Heartbeat(ctx)
		loaded.invocations, loaded.ledgerErr = client.ListInvocations(ctx, adminclient.ListInvocationsInput{Limit: invocationLimit})
		return loaded
	}
}

func (m model) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshEvery, func(at time.Time) tea.Msg {
		return refreshTickMsg(at)
	})
}

func (m model) selectedInvocation() (adminclient.Invocation, bool) {
	if m.cursor < 0 || m.cursor >= len(m.invocations) {
		return adminclient.Invocation{}, false
	}
	return m.invocations[m.cursor], true
}

func (m model) selectedCount() (adminclient.CommandCount, bool) {
	if m.cursor < 0 || m.cursor >= len(m.counts) {
		return adminclient.CommandCount{}, false
	}
	return m.counts[m.cursor], true
}

func viewLabel(view viewID) string {
	return string(view)
}

func fallbackText(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func failureRate(count adminclient.CommandCount) string {
	if count.Total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", float64(count.Failures)*100/float64(count.Total))
}
