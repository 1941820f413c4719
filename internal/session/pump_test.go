package session

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/knivier/kinera/internal/bus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger.WithField("component", "test")
}

func drainFrames(t *testing.T, sub *bus.Subscription, n int) []string {
	t.Helper()
	frames := make([]string, 0, n)
	for len(frames) < n {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				t.Fatalf("subscription closed after %d frames, want %d", len(frames), n)
			}
			frames = append(frames, ev.Data.(string))
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d frames, want %d", len(frames), n)
		}
	}
	return frames
}

func TestPumpPublishesLinesInOrder(t *testing.T) {
	b := bus.New(10)
	sub := b.Subscribe(bus.TopicFrame)
	defer b.Unsubscribe(sub)

	pump := NewPump(b, testLogger())
	pump.Run(strings.NewReader("A\nB\nC\n"))

	frames := drainFrames(t, sub, 3)
	assert.Equal(t, []string{"A", "B", "C"}, frames)

	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected extra frame: %+v", ev)
	default:
	}
}

func TestPumpHandlesMissingTrailingNewline(t *testing.T) {
	b := bus.New(10)
	sub := b.Subscribe(bus.TopicFrame)
	defer b.Unsubscribe(sub)

	pump := NewPump(b, testLogger())
	pump.Run(strings.NewReader("only-line"))

	frames := drainFrames(t, sub, 1)
	assert.Equal(t, "only-line", frames[0])
}

func TestPumpLargeRecord(t *testing.T) {
	b := bus.New(10)
	sub := b.Subscribe(bus.TopicFrame)
	defer b.Unsubscribe(sub)

	// Larger than the initial scanner buffer; the pump must grow to hold
	// full base64 frames.
	big := strings.Repeat("x", 2*1024*1024)
	pump := NewPump(b, testLogger())
	pump.Run(strings.NewReader(big + "\n"))

	frames := drainFrames(t, sub, 1)
	require.Len(t, frames[0], len(big))
}

func TestPumpEmptyStream(t *testing.T) {
	b := bus.New(10)
	sub := b.Subscribe(bus.TopicFrame)
	defer b.Unsubscribe(sub)

	pump := NewPump(b, testLogger())
	pump.Run(strings.NewReader(""))

	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected frame from empty stream: %+v", ev)
	default:
	}
}
