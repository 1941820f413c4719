// Package session owns the lifecycle of the CV pipeline process and its
// auxiliary session scripts: idempotent start, group teardown on stop, and
// the pump that bridges pipeline stdout onto the event bus.
package session

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/knivier/kinera/command"
	"github.com/knivier/kinera/config"
	"github.com/knivier/kinera/errors"
	"github.com/knivier/kinera/internal/bus"
	"github.com/knivier/kinera/pkg/process"
	"github.com/sirupsen/logrus"
)

// Status is a point-in-time snapshot of the supervisor's state.
type Status struct {
	Active    bool      `json:"active"`
	PID       int       `json:"pid,omitempty"`
	PIDAlive  bool      `json:"pid_alive,omitempty"`
	AuxCount  int       `json:"aux_count"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

// Supervisor is the single authority over the primary CV process and the
// auxiliary script processes started with it. All handles live here; no
// other component signals or inspects them.
type Supervisor struct {
	root     string
	settings *config.SessionSettings
	bus      *bus.Bus
	executor command.Executor
	logger   *logrus.Entry

	mu        sync.Mutex
	primary   *exec.Cmd
	aux       []*exec.Cmd
	starting  bool
	startedAt time.Time
}

// NewSupervisor creates a supervisor rooted at the given session directory.
func NewSupervisor(root string, settings *config.SessionSettings, b *bus.Bus, exe command.Executor, logger *logrus.Entry) *Supervisor {
	if settings == nil {
		settings = &config.SessionSettings{}
	}
	cfg := *settings
	if cfg.Script == "" {
		cfg.Script = "cv/cv_stdout_frames.py"
	}
	if len(cfg.Launchers) == 0 {
		cfg.Launchers = []string{"python3", "python"}
	}
	return &Supervisor{
		root:     root,
		settings: &cfg,
		bus:      b,
		executor: exe,
		logger:   logger,
	}
}

// Start launches the CV pipeline and its session scripts. Idempotent: with
// a session already live (or another Start in flight), it returns nil
// without spawning anything. Only a primary-process spawn failure is an
// error; session scripts are best-effort and a missing or malformed
// session_config.json means no scripts.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	if s.primary != nil || s.starting {
		s.mu.Unlock()
		return nil
	}
	// Transient Starting state: blocks concurrent Starts without holding
	// the lock across the spawn syscall.
	s.starting = true
	s.mu.Unlock()

	script := filepath.Join(s.root, s.settings.Script)
	cmd, stdout, err := s.spawnPrimary(script)
	if err != nil {
		s.mu.Lock()
		s.starting = false
		s.mu.Unlock()
		return errors.SpawnFailed(script, s.settings.Launchers, err)
	}

	s.mu.Lock()
	s.primary = cmd
	s.startedAt = time.Now()
	s.starting = false
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"pid":    cmd.Process.Pid,
		"script": s.settings.Script,
	}).Info("CV pipeline started")

	pump := NewPump(s.bus, s.logger)
	go func() {
		pump.Run(stdout)
		// Reap the process once the stream is drained. This does not
		// clear the handle: an organically dead pipeline still counts
		// as a live session until Stop is called.
		_ = cmd.Wait()
	}()

	s.startSessionScripts()
	return nil
}

// spawnPrimary tries each launcher in order, returning the first that
// spawns together with its stdout pipe.
func (s *Supervisor) spawnPrimary(script string) (*exec.Cmd, io.ReadCloser, error) {
	var lastErr error
	for _, launcher := range s.settings.Launchers {
		cmd := s.executor.Command(launcher, script)
		cmd.Dir = s.root
		// Operator diagnostics stay visible on our stderr.
		cmd.Stderr = os.Stderr

		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, nil, err
		}

		if err := cmd.Start(); err != nil {
			stdout.Close()
			lastErr = err
			continue
		}
		return cmd, stdout, nil
	}
	return nil, nil, lastErr
}

// startSessionScripts spawns every command listed in session_config.json.
// Failed spawns are skipped; whatever spawned is recorded for teardown.
func (s *Supervisor) startSessionScripts() {
	cfg := LoadConfig(filepath.Join(s.root, "session_config.json"))

	var started []*exec.Cmd
	for _, line := range cfg.SessionScripts {
		prog, args, ok := command.SplitLine(line)
		if !ok {
			continue
		}

		cmd := s.executor.Command(prog, args...)
		cmd.Dir = s.root
		cmd.Stdout = nil
		cmd.Stderr = nil

		if err := cmd.Start(); err != nil {
			s.logger.WithError(err).WithField("script", line).Debug("Session script failed to start")
			continue
		}
		// Reaper; handle ownership stays with the supervisor.
		go func(c *exec.Cmd) { _ = c.Wait() }(cmd)

		s.logger.WithFields(logrus.Fields{
			"pid":    cmd.Process.Pid,
			"script": line,
		}).Info("Session script started")
		started = append(started, cmd)
	}

	s.mu.Lock()
	s.aux = append(s.aux, started...)
	s.mu.Unlock()
}

// Stop kills the primary process and every session script, then clears all
// handles. Idempotent, and termination failures are swallowed: once the
// kill signals have been issued the session is over. Stop does not wait
// for the processes to exit.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	primary := s.primary
	aux := s.aux
	s.primary = nil
	s.aux = nil
	s.startedAt = time.Time{}
	s.mu.Unlock()

	if primary != nil && primary.Process != nil {
		if err := primary.Process.Kill(); err != nil {
			s.logger.WithError(err).Debug("CV pipeline kill failed")
		} else {
			s.logger.WithField("pid", primary.Process.Pid).Info("CV pipeline stopped")
		}
	}

	for _, cmd := range aux {
		if cmd.Process == nil {
			continue
		}
		if err := cmd.Process.Kill(); err != nil {
			s.logger.WithError(err).WithField("pid", cmd.Process.Pid).Debug("Session script kill failed")
		}
	}
}

// Status reports whether a session is live and what it looks like. A
// primary handle whose process has died organically still reports Active
// (Start stays a no-op until an explicit Stop); PIDAlive exposes the
// discrepancy to operators.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{AuxCount: len(s.aux)}
	if s.primary != nil && s.primary.Process != nil {
		st.Active = true
		st.PID = s.primary.Process.Pid
		st.PIDAlive = process.IsProcessAlive(st.PID)
		st.StartedAt = s.startedAt
	}
	return st
}
