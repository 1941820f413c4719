// Package daemon provides the client for the kinera daemon's HTTP API
// over a Unix socket.
package daemon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/knivier/kinera/errors"
	"github.com/knivier/kinera/internal/bus"
	"github.com/knivier/kinera/internal/daemon/server"
	"github.com/knivier/kinera/internal/session"
	"github.com/knivier/kinera/internal/statefiles"
)

// baseURL is the dummy host used for Unix socket HTTP requests.
// The actual connection goes through the Unix socket, not this URL.
const baseURL = "http://unix"

// Client calls the daemon's HTTP API over a Unix socket.
type Client struct {
	httpClient *http.Client
	socketPath string
}

// NewClient creates a Client for the daemon socket at socketPath.
func NewClient(socketPath string) *Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
		DisableKeepAlives: false,
		MaxIdleConns:      10,
		IdleConnTimeout:   90 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   10 * time.Second,
		},
		socketPath: socketPath,
	}
}

// IsRunning returns true if the daemon is available and responding.
func (c *Client) IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// do runs a request and decodes the JSON response into out (when out is
// non-nil). Daemon error payloads are surfaced as structured errors.
func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.DaemonNotRunning(c.socketPath).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode daemon response: %w", err)
	}
	return nil
}

// decodeError maps a non-200 response to a structured error when the daemon
// sent one, falling back to the status code.
func decodeError(resp *http.Response) error {
	var kerr errors.KineraError
	if err := json.NewDecoder(resp.Body).Decode(&kerr); err == nil && kerr.Code != "" {
		return &kerr
	}
	return fmt.Errorf("daemon returned status %d", resp.StatusCode)
}

// StartSession asks the daemon to start the CV session.
func (c *Client) StartSession(ctx context.Context) (session.Status, error) {
	var status session.Status
	err := c.do(ctx, "POST", "/api/session/start", &status)
	return status, err
}

// StopSession asks the daemon to stop the CV session.
func (c *Client) StopSession(ctx context.Context) (session.Status, error) {
	var status session.Status
	err := c.do(ctx, "POST", "/api/session/stop", &status)
	return status, err
}

// SessionStatus returns the daemon's view of the session.
func (c *Client) SessionStatus(ctx context.Context) (session.Status, error) {
	var status session.Status
	err := c.do(ctx, "GET", "/api/session/status", &status)
	return status, err
}

// RepCount returns the rep counter state read from the session's rep log.
func (c *Client) RepCount(ctx context.Context) (statefiles.RepCountResult, error) {
	var result statefiles.RepCountResult
	err := c.do(ctx, "GET", "/api/reps", &result)
	return result, err
}

// LiveMetrics returns the latest live-metrics snapshot, or nil when the
// pipeline has not written one yet.
func (c *Client) LiveMetrics(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "GET", "/api/metrics", &raw); err != nil {
		return nil, err
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	return raw, nil
}

// RunningConfig returns the daemon's active configuration.
func (c *Client) RunningConfig(ctx context.Context) (*server.RunningConfig, error) {
	var rc server.RunningConfig
	if err := c.do(ctx, "GET", "/api/config", &rc); err != nil {
		return nil, err
	}
	return &rc, nil
}

// SetWorkout writes the selected workout id and session flag through the
// daemon. The returned record shows the normalized values that hit disk.
func (c *Client) SetWorkout(ctx context.Context, workoutID, sessionFlag string) (statefiles.WorkoutIDRecord, error) {
	var record statefiles.WorkoutIDRecord

	body, err := json.Marshal(map[string]string{
		"workout_id": workoutID,
		"session":    sessionFlag,
	})
	if err != nil {
		return record, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/api/workout", bytes.NewReader(body))
	if err != nil {
		return record, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return record, errors.DaemonNotRunning(c.socketPath).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return record, decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return record, fmt.Errorf("failed to decode daemon response: %w", err)
	}
	return record, nil
}

// StreamEvents subscribes to the daemon's event stream via Server-Sent
// Events. The channel closes when the context is cancelled or the
// connection is lost. With no topics, all events are delivered.
func (c *Client) StreamEvents(ctx context.Context, topics ...string) (<-chan bus.Event, error) {
	url := baseURL + "/api/stream"
	if len(topics) > 0 {
		url += "?topics=" + strings.Join(topics, ",")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream request: %w", err)
	}

	// Use a separate client with no timeout for streaming
	streamTransport := &http.Transport{
		DialContext: func(dialCtx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(dialCtx, "unix", c.socketPath)
		},
	}
	streamClient := &http.Client{Transport: streamTransport}

	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, errors.DaemonNotRunning(c.socketPath).WithCause(err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	ch := make(chan bus.Event, 10)

	go func() {
		defer resp.Body.Close()
		defer close(ch)
		defer streamTransport.CloseIdleConnections()

		scanner := bufio.NewScanner(resp.Body)
		// Frames can be large; match the pump's generous line budget.
		buf := make([]byte, 0, 1024*1024)
		scanner.Buffer(buf, 16*1024*1024)
		for scanner.Scan() {
			line := scanner.Text()

			// Skip comments and empty lines
			if strings.HasPrefix(line, ":") || line == "" {
				continue
			}

			if strings.HasPrefix(line, "data: ") {
				var event bus.Event
				if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
					continue // Skip malformed data
				}

				select {
				case ch <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

// Close cleans up any resources used by the client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
