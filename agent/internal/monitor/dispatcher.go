package monitor

import (
	"context"
	"sync"
	"time"

	"mooncall/shared/logger"
)

// Poster delivers one formatted message to the outside world.
type Poster interface {
	Post(ctx context.Context, text string) error
}

// postTimeout bounds the delayed delivery call itself.
const postTimeout = 15 * time.Second

// Dispatcher schedules outbound alerts. Two rules, both from the posting
// API's per-process rate policy:
//   - detection-time decisions that lead to a scheduled send are spaced at
//     least minInterval apart; a later detection inside the interval is
//     deferred to the next polling cycle instead of being queued;
//   - nothing is ever sent synchronously; delivery happens delay after the
//     decision, leaving a human veto/edit window in the posting system.
//
// lastDispatch lives on the instance and the clock is injected, so tests can
// drive spacing deterministically.
type Dispatcher struct {
	poster      Poster
	appLogger   *logger.Logger
	minInterval time.Duration
	delay       time.Duration
	now         func() time.Time

	mu           sync.Mutex
	lastDispatch time.Time
	pending      int
	timers       map[*time.Timer]struct{}
	stopped      bool
}

func NewDispatcher(poster Poster, minInterval, delay time.Duration, appLogger *logger.Logger) *Dispatcher {
	return &Dispatcher{
		poster:      poster,
		appLogger:   appLogger,
		minInterval: minInterval,
		delay:       delay,
		now:         time.Now,
		timers:      make(map[*time.Timer]struct{}),
	}
}

// SetClock replaces the wall clock. Test hook.
func (d *Dispatcher) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// TrySchedule applies the spacing rule and, when it passes, schedules the
// message for delivery at now + delay. Returns false when the detection falls
// inside the minimum interval: the caller skips the tier this cycle and the
// next polling pass retries it.
func (d *Dispatcher) TrySchedule(text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		d.appLogger.Warn("Dispatcher stopped, dropping scheduled alert")
		return false
	}

	n := d.now()
	if !d.lastDispatch.IsZero() && n.Sub(d.lastDispatch) < d.minInterval {
		wait := d.minInterval - n.Sub(d.lastDispatch)
		d.appLogger.Info("Dispatch spacing not met, deferring alert to next cycle",
			"sinceLast", n.Sub(d.lastDispatch), "wait", wait)
		return false
	}
	d.lastDispatch = n
	d.pending++

	d.appLogger.Info("Alert queued for delayed delivery",
		"sendAt", n.Add(d.delay).Format("2006-01-02 15:04:05"), "delay", d.delay)

	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {
		d.deliver(text)
		d.mu.Lock()
		delete(d.timers, timer)
		d.pending--
		d.mu.Unlock()
	})
	d.timers[timer] = struct{}{}
	return true
}

// deliver performs the actual send. Failures are logged and not retried; the
// ledger write made at schedule time stands either way.
func (d *Dispatcher) deliver(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
	defer cancel()
	if err := d.poster.Post(ctx, text); err != nil {
		d.appLogger.Error("Alert delivery failed", "error", err)
	}
}

// PendingCount reports alerts scheduled but not yet delivered.
func (d *Dispatcher) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop cancels undelivered timers. Alerts already recorded in the ledger are
// intentionally not rolled back.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for timer := range d.timers {
		timer.Stop()
		delete(d.timers, timer)
	}
	d.pending = 0
}
