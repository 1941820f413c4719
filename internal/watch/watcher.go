// Package watch turns CV state-file writes into bus events so streaming
// clients refresh without polling.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/knivier/kinera/internal/bus"
	"github.com/knivier/kinera/internal/statefiles"
	"github.com/sirupsen/logrus"
)

// Watcher observes the rep log and live metrics files and publishes a
// fresh read of each on the bus whenever it changes. Writes are debounced:
// the CV pipeline rewrites session_live.json on every frame, and clients
// only need the latest snapshot.
type Watcher struct {
	fsw         *fsnotify.Watcher
	bus         *bus.Bus
	logger      *logrus.Entry
	debounce    time.Duration
	repsPath    string
	metricsPath string
}

// New creates a watcher over the two CV state files. The files themselves
// may not exist yet; their directories are watched, with the cv/ directory
// picked up on creation if the pipeline has not made it yet.
func New(b *bus.Bus, repsPath, metricsPath string, debounce time.Duration, logger *logrus.Entry) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:         fsw,
		bus:         b,
		logger:      logger,
		debounce:    debounce,
		repsPath:    repsPath,
		metricsPath: metricsPath,
	}

	watched := make(map[string]bool)
	for _, path := range []string{repsPath, metricsPath} {
		dir := filepath.Dir(path)
		if watched[dir] {
			continue
		}
		if _, err := os.Stat(dir); err != nil {
			// Watch the parent so the directory is picked up when the
			// pipeline creates it.
			dir = filepath.Dir(dir)
			if watched[dir] {
				continue
			}
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
		watched[dir] = true
	}

	return w, nil
}

// Run processes filesystem events until the context is canceled. Each
// state file gets its own debounce window; when a window closes, the file
// is re-read and the result published.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	var (
		repsTimer    = time.NewTimer(time.Hour)
		metricsTimer = time.NewTimer(time.Hour)
	)
	repsTimer.Stop()
	metricsTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event, repsTimer, metricsTimer)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Debug("State watcher error")

		case <-repsTimer.C:
			w.bus.Publish(bus.TopicRepUpdate, statefiles.ReadRepCount(w.repsPath))

		case <-metricsTimer.C:
			if metrics := statefiles.ReadLiveMetrics(w.metricsPath); metrics != nil {
				w.bus.Publish(bus.TopicMetricsUpdate, metrics)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, repsTimer, metricsTimer *time.Timer) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	switch event.Name {
	case w.repsPath:
		repsTimer.Reset(w.debounce)
	case w.metricsPath:
		metricsTimer.Reset(w.debounce)
	default:
		// The cv/ directory appearing after startup: start watching it.
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if event.Name == filepath.Dir(w.repsPath) || event.Name == filepath.Dir(w.metricsPath) {
				if err := w.fsw.Add(event.Name); err != nil {
					w.logger.WithError(err).Debug("Failed to watch created state directory")
				}
			}
		}
	}
}
