package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadimbarashkov/shortlink/internal/geo"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

type recordingClickWriter struct {
	mu     sync.Mutex
	events []models.ClickEvent
	failOn func(event models.ClickEvent) error
}

func (w *recordingClickWriter) Insert(_ context.Context, event models.ClickEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.failOn != nil {
		if err := w.failOn(event); err != nil {
			return err
		}
	}

	w.events = append(w.events, event)
	return nil
}

func (w *recordingClickWriter) recorded() []models.ClickEvent {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]models.ClickEvent, len(w.events))
	copy(out, w.events)
	return out
}

func (w *recordingClickWriter) waitFor(t *testing.T, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		w.mu.Lock()
		got := len(w.events)
		w.mu.Unlock()

		if got >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for %d click events", n)
}

// startWorker runs a worker goroutine and returns a stop function that
// cancels it and waits for the loop to exit.
func startWorker(t *testing.T, q *Queue, writer ClickWriter) func() {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	worker := NewWorker(q, writer, geo.NoopResolver{}, discardLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	stop := func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not stop after cancellation")
		}
	}

	t.Cleanup(stop)

	return stop
}

func TestWorker_DrainsQueueInOrder(t *testing.T) {
	q := NewQueue(16, discardLogger())
	writer := &recordingClickWriter{}
	startWorker(t, q, writer)

	const n = 10
	for i := 1; i <= n; i++ {
		require.True(t, q.Enqueue(models.ClickTrackingJob{
			ShortURLID: int64(i),
			ClickedAt:  time.Now(),
		}))
	}

	writer.waitFor(t, n)

	events := writer.recorded()
	require.Len(t, events, n)
	for i, event := range events {
		assert.Equal(t, int64(i+1), event.ShortURLID)
	}
}

func TestWorker_EnrichesJobs(t *testing.T) {
	q := NewQueue(4, discardLogger())
	writer := &recordingClickWriter{}
	startWorker(t, q, writer)

	q.Enqueue(models.ClickTrackingJob{
		ShortURLID: 42,
		ClickedAt:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		IP:         "203.0.113.10",
		SessionID:  "sess-1",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) " +
			"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
		Referrer: "https://m.facebook.com/some/post",
	})

	writer.waitFor(t, 1)

	event := writer.recorded()[0]
	assert.Equal(t, int64(42), event.ShortURLID)
	assert.Equal(t, "Safari", event.Browser)
	assert.Equal(t, "Mobile", event.DeviceType)
	assert.Equal(t, geo.Unknown, event.Country)
	assert.Equal(t, models.TrafficSourceSocial, event.TrafficSource)
	assert.Equal(t, "m.facebook.com", event.ReferrerDomain)
}

func TestWorker_BadJobDoesNotStopLoop(t *testing.T) {
	q := NewQueue(16, discardLogger())

	errPoison := errors.New("poison job")
	writer := &recordingClickWriter{
		failOn: func(event models.ClickEvent) error {
			if event.ShortURLID == 2 {
				return errPoison
			}
			return nil
		},
	}
	startWorker(t, q, writer)

	for i := 1; i <= 3; i++ {
		q.Enqueue(models.ClickTrackingJob{ShortURLID: int64(i), ClickedAt: time.Now()})
	}

	writer.waitFor(t, 2)

	events := writer.recorded()
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].ShortURLID)
	assert.Equal(t, int64(3), events[1].ShortURLID)
}

func TestWorker_MalformedUserAgentDoesNotBlockQueue(t *testing.T) {
	q := NewQueue(16, discardLogger())
	writer := &recordingClickWriter{}
	startWorker(t, q, writer)

	q.Enqueue(models.ClickTrackingJob{ShortURLID: 1, UserAgent: "\x00\x01 garbage \xff"})
	q.Enqueue(models.ClickTrackingJob{ShortURLID: 2, UserAgent: ""})

	writer.waitFor(t, 2)

	events := writer.recorded()
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[1].ShortURLID)
	assert.Equal(t, "Unknown", events[1].Browser)
}

func TestWorker_StopsOnCancellation(t *testing.T) {
	q := NewQueue(4, discardLogger())
	writer := &recordingClickWriter{}
	stop := startWorker(t, q, writer)

	q.Enqueue(models.ClickTrackingJob{ShortURLID: 1, ClickedAt: time.Now()})
	writer.waitFor(t, 1)

	stop()

	// After cancellation new jobs are never picked up.
	q.Enqueue(models.ClickTrackingJob{ShortURLID: 2, ClickedAt: time.Now()})
	time.Sleep(50 * time.Millisecond)

	assert.Len(t, writer.recorded(), 1)
}
