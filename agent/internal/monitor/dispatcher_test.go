package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"mooncall/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	appLogger, err := logger.NewLogger(logger.Config{Level: "error", Environment: "development"})
	require.NoError(t, err)
	return appLogger
}

type recordingPoster struct {
	mu    sync.Mutex
	posts []string
	done  chan struct{}
}

func newRecordingPoster() *recordingPoster {
	return &recordingPoster{done: make(chan struct{}, 16)}
}

func (p *recordingPoster) Post(_ context.Context, text string) error {
	p.mu.Lock()
	p.posts = append(p.posts, text)
	p.mu.Unlock()
	p.done <- struct{}{}
	return nil
}

func (p *recordingPoster) delivered() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.posts...)
}

func TestDispatcherSpacing(t *testing.T) {
	poster := newRecordingPoster()
	d := NewDispatcher(poster, 10*time.Second, time.Hour, newTestLogger(t))
	defer d.Stop()

	clock := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	d.SetClock(func() time.Time { return clock })

	assert.True(t, d.TrySchedule("first"), "first detection should schedule")

	clock = clock.Add(3 * time.Second)
	assert.False(t, d.TrySchedule("second"), "detection 3s later must be deferred")

	clock = clock.Add(7 * time.Second)
	assert.True(t, d.TrySchedule("second retry"), "spacing satisfied after 10s")

	assert.Equal(t, 2, d.PendingCount())
	assert.Empty(t, poster.delivered(), "nothing delivers before the delay elapses")
}

func TestDispatcherDelayedDelivery(t *testing.T) {
	poster := newRecordingPoster()
	d := NewDispatcher(poster, time.Millisecond, 20*time.Millisecond, newTestLogger(t))
	defer d.Stop()

	require.True(t, d.TrySchedule("hello"))

	select {
	case <-poster.done:
	case <-time.After(2 * time.Second):
		t.Fatal("delayed delivery never fired")
	}
	assert.Equal(t, []string{"hello"}, poster.delivered())

	// pending count settles back to zero after delivery
	assert.Eventually(t, func() bool { return d.PendingCount() == 0 },
		time.Second, 5*time.Millisecond)
}

func TestDispatcherStopCancelsPending(t *testing.T) {
	poster := newRecordingPoster()
	d := NewDispatcher(poster, time.Millisecond, time.Hour, newTestLogger(t))

	require.True(t, d.TrySchedule("never sent"))
	require.Equal(t, 1, d.PendingCount())

	d.Stop()

	assert.Equal(t, 0, d.PendingCount())
	assert.False(t, d.TrySchedule("after stop"), "stopped dispatcher refuses new alerts")
	assert.Empty(t, poster.delivered())
}
