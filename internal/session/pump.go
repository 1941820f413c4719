package session

import (
	"bufio"
	"io"

	"github.com/knivier/kinera/internal/bus"
	"github.com/sirupsen/logrus"
)

// Frame lines are base64-encoded JPEGs, so a single record can run to
// several megabytes.
const (
	pumpScannerBufSize = 1024 * 1024
	pumpScannerMaxSize = 16 * 1024 * 1024
)

// Pump streams the CV pipeline's stdout onto the bus, one event per line.
// It runs on its own goroutine, started once per session start, and stops
// when the stream closes. It never restarts the pipeline and never signals
// the supervisor; a dead stream simply ends the pump.
type Pump struct {
	bus    *bus.Bus
	logger *logrus.Entry
}

// NewPump creates a pump publishing to the given bus.
func NewPump(b *bus.Bus, logger *logrus.Entry) *Pump {
	return &Pump{bus: b, logger: logger}
}

// Run reads newline-delimited records from r until EOF or a read error,
// publishing each verbatim on the frame topic. Records are published in
// read order; publish failures (full subscriber buffers) are invisible
// here and never stall the read loop.
func (p *Pump) Run(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, pumpScannerBufSize), pumpScannerMaxSize)

	var frames uint64
	for scanner.Scan() {
		p.bus.Publish(bus.TopicFrame, scanner.Text())
		frames++
	}

	if err := scanner.Err(); err != nil {
		p.logger.WithError(err).WithField("frames", frames).Debug("Frame stream ended with error")
		return
	}
	p.logger.WithField("frames", frames).Debug("Frame stream closed")
}
