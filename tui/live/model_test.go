package live

import (
	"encoding/json"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/knivier/kinera/internal/bus"
	"github.com/knivier/kinera/internal/session"
	"github.com/knivier/kinera/internal/statefiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(active bool, count uint32) snapshotMsg {
	return snapshotMsg{
		status: session.Status{Active: active, PID: 4242, PIDAlive: active},
		reps: statefiles.RepCountResult{
			Count:         count,
			RepTimestamps: []uint64{1000, 2000},
		},
	}
}

func TestViewBeforeFirstSnapshot(t *testing.T) {
	m := NewModel(nil)
	assert.Contains(t, m.View(), "connecting to daemon")
}

func TestSnapshotRendersCounts(t *testing.T) {
	m := NewModel(nil)

	updated, _ := m.Update(snapshot(true, 7))
	view := updated.View()

	assert.Contains(t, view, "session active")
	assert.Contains(t, view, "7")
	assert.Contains(t, view, "pid 4242")
}

func TestSnapshotInactiveSession(t *testing.T) {
	m := NewModel(nil)

	updated, _ := m.Update(snapshot(false, 0))
	assert.Contains(t, updated.View(), "session inactive")
}

func TestOrphanedHandleShownAsWarning(t *testing.T) {
	m := NewModel(nil)

	updated, _ := m.Update(snapshotMsg{
		status: session.Status{Active: true, PID: 4242, PIDAlive: false},
	})
	assert.Contains(t, updated.View(), "pipeline exited")
}

func TestRepUpdateEventRefreshesCount(t *testing.T) {
	m := NewModel(nil)
	updated, _ := m.Update(snapshot(true, 1))

	// Simulate a rep-update arriving over the SSE stream: the payload is
	// generic JSON after crossing the wire.
	payload := map[string]interface{}{
		"count":          float64(2),
		"rep_timestamps": []interface{}{float64(1000), float64(2000)},
	}
	updated, _ = updated.Update(eventMsg(bus.Event{Topic: bus.TopicRepUpdate, Data: payload}))

	assert.Contains(t, updated.View(), "2")
}

func TestMetricsEventRendered(t *testing.T) {
	m := NewModel(nil)
	updated, _ := m.Update(snapshot(true, 1))

	updated, _ = updated.Update(eventMsg(bus.Event{
		Topic: bus.TopicMetricsUpdate,
		Data:  map[string]interface{}{"form_score": 0.91},
	}))

	view := updated.View()
	assert.Contains(t, view, "form_score")
	assert.Contains(t, view, "0.91")
}

func TestQuitKeysStopProgram(t *testing.T) {
	m := NewModel(nil)

	keys := []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	}
	for _, key := range keys {
		_, cmd := m.Update(key)
		require.NotNil(t, cmd, "key %q should quit", key.String())
		assert.Equal(t, tea.Quit(), cmd())
	}
}

func TestSnapshotErrorShown(t *testing.T) {
	m := NewModel(nil)

	updated, _ := m.Update(snapshotMsg{err: assert.AnError})
	assert.Contains(t, updated.View(), "daemon unreachable")
}

func TestDecodeRepUpdateRejectsGarbage(t *testing.T) {
	_, ok := decodeRepUpdate(make(chan int))
	assert.False(t, ok)

	reps, ok := decodeRepUpdate(map[string]interface{}{"count": float64(3)})
	require.True(t, ok)
	assert.Equal(t, uint32(3), reps.Count)
}

func TestDecodeMetrics(t *testing.T) {
	assert.Nil(t, decodeMetrics(nil))
	assert.Nil(t, decodeMetrics(json.RawMessage(`[1,2]`)))

	m := decodeMetrics(json.RawMessage(`{"phase": "eccentric"}`))
	require.NotNil(t, m)
	assert.Equal(t, "eccentric", m["phase"])
}

func TestLastSummaryRendered(t *testing.T) {
	m := NewModel(nil)

	msg := snapshot(true, 3)
	msg.reps.LastSummary = json.RawMessage(`{"quality": "good"}`)
	updated, _ := m.Update(msg)

	view := updated.View()
	assert.True(t, strings.Contains(view, "Last rep"))
	assert.Contains(t, view, `"quality"`)
}
