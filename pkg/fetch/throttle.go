package fetch

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Bounds of the random multiplier applied to a base politeness delay
const (
	MinDelayMultiplier = 0.5
	MaxDelayMultiplier = 2.0
)

// Throttle inserts randomized politeness pauses between network calls
// The pause is base * U[0.5, 2.0] so the request cadence is never fixed
type Throttle struct {
	mu    sync.Mutex
	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration) error
	log   *logrus.Entry
}

// NewThrottle creates a Throttle seeded from the current time
func NewThrottle(log *logrus.Entry) *Throttle {
	return &Throttle{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: sleepContext,
		log:   log,
	}
}

// NewThrottleWith creates a Throttle with an injected random source and sleep function
// Pass a nil sleep to use a real, context-aware sleep
func NewThrottleWith(rng *rand.Rand, sleep func(ctx context.Context, d time.Duration) error, log *logrus.Entry) *Throttle {
	if sleep == nil {
		sleep = sleepContext
	}
	return &Throttle{rng: rng, sleep: sleep, log: log}
}

// Jitter returns base scaled by a uniform random multiplier in [0.5, 2.0]
func (t *Throttle) Jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	t.mu.Lock()
	f := t.rng.Float64()
	t.mu.Unlock()
	multiplier := MinDelayMultiplier + f*(MaxDelayMultiplier-MinDelayMultiplier)
	return time.Duration(float64(base) * multiplier)
}

// Wait sleeps for a jittered base delay
// Returns ctx.Err() if the context ends first; a zero base returns immediately
func (t *Throttle) Wait(ctx context.Context, base time.Duration) error {
	d := t.Jitter(base)
	if d <= 0 {
		return nil
	}
	t.log.WithFields(logrus.Fields{"sleep": d, "base_delay": base}).Debug("Politeness delay")
	return t.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
