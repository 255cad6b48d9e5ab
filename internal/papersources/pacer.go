package papersources

import (
	"context"
	"time"
)

// Clock abstracts time so pacing can be simulated in tests.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock is the wall clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// Sleep waits for d, respecting context cancellation.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pacer inserts the fixed delays required between upstream calls.
type Pacer struct {
	clock    Clock
	observer PaceObserver
}

// PaceObserver is notified of every pacing wait.
type PaceObserver interface {
	RecordPacingWait(reason string, d time.Duration)
}

// NewPacer creates a pacer. A nil clock means RealClock; observer may be nil.
func NewPacer(clock Clock, observer PaceObserver) *Pacer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Pacer{clock: clock, observer: observer}
}

// Wait blocks for d before the next upstream call. reason labels the wait
// ("page", "query", "hydrate").
func (p *Pacer) Wait(ctx context.Context, reason string, d time.Duration) error {
	if p.observer != nil {
		p.observer.RecordPacingWait(reason, d)
	}
	return p.clock.Sleep(ctx, d)
}

// Now returns the pacer clock's current time.
func (p *Pacer) Now() time.Time {
	return p.clock.Now()
}
