package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/knivier/kinera/command"
	"github.com/knivier/kinera/config"
	"github.com/knivier/kinera/internal/bus"
	"github.com/knivier/kinera/internal/session"
	"github.com/knivier/kinera/internal/statefiles"
	"github.com/knivier/kinera/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	return l.WithField("component", "test")
}

// newTestServer wires a server around a real supervisor whose pipeline is a
// shell script, plus state files rooted in a temp dir.
func newTestServer(t *testing.T, script string) (*Server, *httptest.Server, *bus.Bus, string) {
	t.Helper()
	root := testutil.NewSessionRoot(t, script)

	b := bus.New(10)
	sup := session.NewSupervisor(root, &config.SessionSettings{
		Script:    "cv/pipeline.sh",
		Launchers: []string{"sh"},
	}, b, &command.RealExecutor{}, testLogger())

	srv := New(testLogger(), sup, b, Paths{
		WorkoutID:   filepath.Join(root, "workout_id.json"),
		RepsLog:     filepath.Join(root, "cv", "reps_log.jsonl"),
		LiveMetrics: filepath.Join(root, "cv", "session_live.json"),
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		sup.Stop()
		ts.Close()
		b.Close()
	})
	return srv, ts, b, root
}

func TestHealth(t *testing.T) {
	_, ts, _, _ := newTestServer(t, "#!/bin/sh\nsleep 30\n")

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionLifecycle(t *testing.T) {
	_, ts, _, _ := newTestServer(t, "#!/bin/sh\nsleep 30\n")

	// Status before start: inactive.
	resp, err := http.Get(ts.URL + "/api/session/status")
	require.NoError(t, err)
	var status session.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.False(t, status.Active)

	resp, err = http.Post(ts.URL+"/api/session/start", "application/json", nil)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, status.Active)
	assert.NotZero(t, status.PID)

	resp, err = http.Post(ts.URL+"/api/session/stop", "application/json", nil)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.False(t, status.Active)
}

func TestSessionStartRequiresPost(t *testing.T) {
	_, ts, _, _ := newTestServer(t, "#!/bin/sh\nsleep 30\n")

	resp, err := http.Get(ts.URL + "/api/session/start")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRepsEndpoint(t *testing.T) {
	_, ts, _, root := newTestServer(t, "#!/bin/sh\nsleep 30\n")

	testutil.WriteRepsLog(t, root, []string{
		`{"timestamp_ms": 100, "reps": 1}`,
		`{"timestamp_ms": 200, "reps": 2}`,
	})

	resp, err := http.Get(ts.URL + "/api/reps")
	require.NoError(t, err)
	defer resp.Body.Close()

	var result statefiles.RepCountResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, uint32(2), result.Count)
	assert.Equal(t, []uint64{100, 200}, result.RepTimestamps)
}

func TestMetricsEndpointMissingFile(t *testing.T) {
	_, ts, _, _ := newTestServer(t, "#!/bin/sh\nsleep 30\n")

	resp, err := http.Get(ts.URL + "/api/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "null", strings.TrimSpace(body.String()))
}

func TestWorkoutEndpoint(t *testing.T) {
	_, ts, _, root := newTestServer(t, "#!/bin/sh\nsleep 30\n")

	body := `{"workout_id": "squat-01", "session": "ON"}`
	resp, err := http.Post(ts.URL+"/api/workout", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := os.ReadFile(filepath.Join(root, "workout_id.json"))
	require.NoError(t, err)
	var record statefiles.WorkoutIDRecord
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "squat-01", record.WorkoutID)
	assert.Equal(t, "on", record.Session)
}

func TestWorkoutEndpointRejectsBadID(t *testing.T) {
	_, ts, _, _ := newTestServer(t, "#!/bin/sh\nsleep 30\n")

	body := `{"workout_id": "../../etc/passwd", "session": "on"}`
	resp, err := http.Post(ts.URL+"/api/workout", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStreamDeliversEvents(t *testing.T) {
	_, ts, b, _ := newTestServer(t, "#!/bin/sh\nsleep 30\n")

	resp, err := http.Get(ts.URL + "/api/stream?topics=cv-frame")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	// First line is the connection comment.
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, ":"))
	_, _ = reader.ReadString('\n')

	// Subscription races the publish slightly, so retry briefly.
	require.Eventually(t, func() bool {
		return b.SubscriberCount() > 0
	}, 2*time.Second, 10*time.Millisecond)
	b.Publish(bus.TopicFrame, "frame-data")

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var event bus.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event))
	assert.Equal(t, bus.TopicFrame, event.Topic)
	assert.Equal(t, "frame-data", event.Data)
}

func TestWebsocketDeliversEvents(t *testing.T) {
	_, ts, b, _ := newTestServer(t, "#!/bin/sh\nsleep 30\n")

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return b.SubscriberCount() > 0
	}, 2*time.Second, 10*time.Millisecond)
	b.Publish(bus.TopicRepUpdate, map[string]interface{}{"count": 3})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event bus.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, bus.TopicRepUpdate, event.Topic)
}
