// Package live implements the `kinera live` terminal dashboard: rep count,
// last-rep summary, and live metrics for the running session.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/knivier/kinera/internal/bus"
	"github.com/knivier/kinera/internal/session"
	"github.com/knivier/kinera/internal/statefiles"
	"github.com/knivier/kinera/pkg/daemon"
	"github.com/knivier/kinera/tui/theme"
)

const pollInterval = time.Second
const recentReps = 8

type tickMsg time.Time

type snapshotMsg struct {
	status  session.Status
	reps    statefiles.RepCountResult
	metrics json.RawMessage
	err     error
}

type eventMsg bus.Event

type streamOpenedMsg struct {
	ch <-chan bus.Event
}

type streamClosedMsg struct{}

// Model is the bubbletea model behind `kinera live`.
type Model struct {
	client  *daemon.Client
	spinner spinner.Model
	repTbl  table.Model

	status  session.Status
	reps    statefiles.RepCountResult
	metrics map[string]interface{}
	err     error

	events <-chan bus.Event
	ctx    context.Context
	cancel context.CancelFunc

	width int
	ready bool
}

// NewModel builds the live dashboard model around a daemon client.
func NewModel(client *daemon.Client) Model {
	t := theme.DefaultTheme
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = t.Accent

	tbl := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 4},
			{Title: "Time", Width: 12},
		}),
		table.WithHeight(recentReps),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true)
	styles.Selected = styles.Cell
	tbl.SetStyles(styles)

	return Model{
		client:  client,
		spinner: sp,
		repTbl:  tbl,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Init starts the poll ticker, the spinner, and the daemon event stream.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.fetchSnapshot(),
		m.openStream(),
		tick(),
	)
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchSnapshot pulls status, reps, and metrics in one command.
func (m Model) fetchSnapshot() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		status, err := client.SessionStatus(ctx)
		if err != nil {
			return snapshotMsg{err: err}
		}
		reps, err := client.RepCount(ctx)
		if err != nil {
			return snapshotMsg{status: status, err: err}
		}
		metrics, _ := client.LiveMetrics(ctx)
		return snapshotMsg{status: status, reps: reps, metrics: metrics}
	}
}

// openStream subscribes to rep and metrics updates so the dashboard reacts
// between poll ticks. Stream loss is tolerated; polling still refreshes.
func (m Model) openStream() tea.Cmd {
	ctx := m.ctx
	client := m.client
	return func() tea.Msg {
		ch, err := client.StreamEvents(ctx, bus.TopicRepUpdate, bus.TopicMetricsUpdate)
		if err != nil {
			return streamClosedMsg{}
		}
		return streamOpenedMsg{ch: ch}
	}
}

func waitForEvent(ch <-chan bus.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(event)
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetchSnapshot(), tick())

	case snapshotMsg:
		m.ready = true
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
			m.reps = msg.reps
			m.metrics = decodeMetrics(msg.metrics)
			m.repTbl.SetRows(repRows(msg.reps))
		}
		return m, nil

	case streamOpenedMsg:
		m.events = msg.ch
		return m, waitForEvent(m.events)

	case eventMsg:
		switch msg.Topic {
		case bus.TopicRepUpdate:
			if reps, ok := decodeRepUpdate(msg.Data); ok {
				m.reps = reps
				m.repTbl.SetRows(repRows(reps))
			}
		case bus.TopicMetricsUpdate:
			m.metrics = decodeMetrics(toRawMessage(msg.Data))
		}
		return m, waitForEvent(m.events)

	case streamClosedMsg:
		// Keep polling; no stream means slightly staler numbers, not failure.
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	t := theme.DefaultTheme
	var b strings.Builder

	b.WriteString(t.Header.Render("KINERA LIVE") + "\n\n")

	if !m.ready {
		b.WriteString(m.spinner.View() + " connecting to daemon...\n")
		return b.String()
	}
	if m.err != nil {
		b.WriteString(t.Error.Render("daemon unreachable") + "\n")
		b.WriteString(t.Muted.Render(m.err.Error()) + "\n")
		b.WriteString("\n" + t.Muted.Render("q to quit") + "\n")
		return b.String()
	}

	if m.status.Active {
		state := theme.Status("running", "● session active")
		if !m.status.PIDAlive {
			state = theme.Status("warn", "● pipeline exited (handle held)")
		}
		b.WriteString(fmt.Sprintf("%s  %s\n\n", state,
			t.Muted.Render(fmt.Sprintf("pid %d, %d auxiliary", m.status.PID, m.status.AuxCount))))
	} else {
		b.WriteString(theme.Status("off", "○ session inactive") + "\n\n")
	}

	b.WriteString(fmt.Sprintf("%s %s\n\n",
		t.Title.Render("Reps"),
		t.Metric.Render(fmt.Sprintf("%d", m.reps.Count))))

	if len(m.reps.RepTimestamps) > 0 {
		b.WriteString(m.repTbl.View() + "\n\n")
	}

	if len(m.reps.LastSummary) > 0 {
		b.WriteString(t.Title.Render("Last rep") + "\n")
		b.WriteString("  " + string(m.reps.LastSummary) + "\n\n")
	}

	if len(m.metrics) > 0 {
		b.WriteString(t.Title.Render("Live metrics") + "\n")
		keys := make([]string, 0, len(m.metrics))
		for k := range m.metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("  %s %v\n", t.Muted.Render(k+":"), m.metrics[k]))
		}
		b.WriteString("\n")
	}

	b.WriteString(t.Muted.Render("q to quit") + "\n")
	return b.String()
}

// Run starts the dashboard program and blocks until it exits.
func Run(client *daemon.Client) error {
	m := NewModel(client)
	defer m.cancel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func repRows(reps statefiles.RepCountResult) []table.Row {
	n := len(reps.RepTimestamps)
	start := 0
	if n > recentReps {
		start = n - recentReps
	}
	rows := make([]table.Row, 0, n-start)
	for i := start; i < n; i++ {
		ts := time.UnixMilli(int64(reps.RepTimestamps[i]))
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			ts.Format("15:04:05"),
		})
	}
	return rows
}

func decodeMetrics(raw json.RawMessage) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// decodeRepUpdate converts a bus event payload back into a rep result. The
// payload arrives as generic JSON when it crosses the SSE boundary.
func decodeRepUpdate(data interface{}) (statefiles.RepCountResult, bool) {
	raw, err := json.Marshal(data)
	if err != nil {
		return statefiles.RepCountResult{}, false
	}
	var reps statefiles.RepCountResult
	if err := json.Unmarshal(raw, &reps); err != nil {
		return statefiles.RepCountResult{}, false
	}
	return reps, true
}

func toRawMessage(data interface{}) json.RawMessage {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return raw
}
