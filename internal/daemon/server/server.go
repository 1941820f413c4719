// Package server provides the HTTP API for the kinera daemon, served over
// a Unix socket.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/knivier/kinera/command"
	"github.com/knivier/kinera/config"
	kerrors "github.com/knivier/kinera/errors"
	"github.com/knivier/kinera/internal/bus"
	"github.com/knivier/kinera/internal/session"
	"github.com/knivier/kinera/internal/statefiles"
	"github.com/sirupsen/logrus"
)

// RunningConfig holds the active daemon settings, exposed via /api/config
// so clients can verify what the daemon is actually using.
type RunningConfig struct {
	StreamBuffer    int       `json:"stream_buffer"`
	WatchDebounceMS int       `json:"watch_debounce_ms"`
	SessionScript   string    `json:"session_script"`
	StartedAt       time.Time `json:"started_at"`
}

// Paths collects the state-file locations the API reads and writes.
type Paths struct {
	WorkoutID   string
	RepsLog     string
	LiveMetrics string
}

// Server manages the daemon's HTTP server over a Unix socket.
type Server struct {
	logger        *logrus.Entry
	server        *http.Server
	supervisor    *session.Supervisor
	bus           *bus.Bus
	paths         Paths
	runningConfig *RunningConfig
	upgrader      websocket.Upgrader
}

// New creates a new Server instance.
func New(logger *logrus.Entry, sup *session.Supervisor, b *bus.Bus, paths Paths) *Server {
	return &Server{
		logger:     logger,
		supervisor: sup,
		bus:        b,
		paths:      paths,
		// The socket is mode 0600; anyone who can connect is trusted.
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SetRunningConfig sets the running configuration for the server.
func (s *Server) SetRunningConfig(dc *config.DaemonConfig, sessionScript string) {
	s.runningConfig = &RunningConfig{
		StreamBuffer:    dc.StreamBuffer,
		WatchDebounceMS: dc.WatchDebounceMS,
		SessionScript:   sessionScript,
		StartedAt:       time.Now(),
	}
}

// ListenAndServe starts the daemon on the given unix socket path.
// It blocks until the server stops or fails.
func (s *Server) ListenAndServe(socketPath string) error {
	// Cleanup stale socket
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}

	// Set restrictive permissions on socket
	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.server = &http.Server{Handler: s.Handler()}

	s.logger.WithField("socket", socketPath).Info("Daemon listening")
	return s.server.Serve(listener)
}

// Handler returns the daemon's route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/session/start", s.handleSessionStart)
	mux.HandleFunc("/api/session/stop", s.handleSessionStop)
	mux.HandleFunc("/api/session/status", s.handleSessionStatus)
	mux.HandleFunc("/api/reps", s.handleReps)
	mux.HandleFunc("/api/metrics", s.handleMetrics)
	mux.HandleFunc("/api/workout", s.handleWorkout)
	mux.HandleFunc("/api/config", s.handleGetConfig)
	mux.HandleFunc("/api/stream", s.handleStream)
	mux.HandleFunc("/ws", s.handleWebsocket)

	return mux
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	if kerr, ok := err.(*kerrors.KineraError); ok {
		writeJSON(w, status, kerr)
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.supervisor.Start(); err != nil {
		s.logger.WithError(err).Error("Session start failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, s.supervisor.Status())
}

func (s *Server) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.supervisor.Stop()
	writeJSON(w, http.StatusOK, s.supervisor.Status())
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.supervisor.Status())
}

func (s *Server) handleReps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statefiles.ReadRepCount(s.paths.RepsLog))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	metrics := statefiles.ReadLiveMetrics(s.paths.LiveMetrics)
	if metrics == nil {
		// No metrics yet is normal state, not an error.
		writeJSON(w, http.StatusOK, nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(metrics)
}

func (s *Server) handleWorkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		WorkoutID string `json:"workout_id"`
		Session   string `json:"session"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := command.ValidateWorkoutID(req.WorkoutID); err != nil {
		writeError(w, http.StatusBadRequest,
			kerrors.Wrap(err, kerrors.ErrCodeInvalidInput, "invalid workout id"))
		return
	}

	if err := statefiles.WriteWorkoutID(s.paths.WorkoutID, req.WorkoutID, req.Session); err != nil {
		s.logger.WithError(err).Error("Workout-id write failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"workout_id": req.WorkoutID,
		"session":    statefiles.NormalizeSessionFlag(req.Session),
	}).Info("Workout id written")
	writeJSON(w, http.StatusOK, statefiles.WorkoutIDRecord{
		WorkoutID: req.WorkoutID,
		Session:   statefiles.NormalizeSessionFlag(req.Session),
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.runningConfig == nil {
		http.Error(w, "config not initialized", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, s.runningConfig)
}

// topicsFromQuery parses the optional ?topics=a,b filter.
func topicsFromQuery(r *http.Request) []string {
	raw := r.URL.Query().Get("topics")
	if raw == "" {
		return nil
	}
	var topics []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// handleStream provides Server-Sent Events for bus subscribers. Clients
// receive frames and state updates as they are published; a slow client
// misses events instead of stalling the pump.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := s.bus.Subscribe(topicsFromQuery(r)...)
	defer s.bus.Unsubscribe(sub)

	// Send initial ping to confirm connection
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	s.logger.WithField("subscriber", sub.ID).Debug("SSE client connected")

	for {
		select {
		case <-r.Context().Done():
			s.logger.WithField("subscriber", sub.ID).Debug("SSE client disconnected")
			return
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				s.logger.WithError(err).Error("Failed to marshal event")
				continue
			}
			// SSE format: "data: {json}\n\n"
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

// handleWebsocket streams bus events over a websocket, for front ends that
// want a bidirectional-capable connection instead of SSE.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Debug("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := s.bus.Subscribe(topicsFromQuery(r)...)
	defer s.bus.Unsubscribe(sub)

	s.logger.WithField("subscriber", sub.ID).Debug("Websocket client connected")

	// Reader goroutine: the client sends nothing we care about, but the
	// read loop notices disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				s.logger.WithField("subscriber", sub.ID).Debug("Websocket client disconnected")
				return
			}
		}
	}
}
