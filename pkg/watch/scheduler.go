package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// JobName is the state key under which pipeline runs are recorded
const JobName = "pipeline"

// RunFunc executes one full run and reports how many new URIs it surfaced
type RunFunc func(ctx context.Context) (newURIs int, err error)

// Scheduler re-runs a job on a fixed interval
// Runs are strictly sequential; a run that overlaps the next due time delays it
type Scheduler struct {
	interval     time.Duration
	run          RunFunc
	stateManager *StateManager
	now          func() time.Time
	log          *logrus.Entry
}

// NewScheduler creates a scheduler that persists its state under stateDir
func NewScheduler(stateDir string, interval time.Duration, run RunFunc, log *logrus.Entry) *Scheduler {
	return &Scheduler{
		interval:     interval,
		run:          run,
		stateManager: NewStateManager(stateDir),
		now:          time.Now,
		log:          log,
	}
}

// Run blocks, executing the job whenever it is due, until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("watch interval must be positive, got %v", s.interval)
	}
	if err := s.stateManager.Load(); err != nil {
		s.log.Warnf("Failed to load watch state: %v (starting fresh)", err)
	}
	s.log.Infof("Starting watch mode with interval %s", FormatInterval(s.interval))

	for {
		next := s.stateManager.NextRunTime(JobName, s.interval, s.now())
		wait := next.Sub(s.now())
		if wait > 0 {
			s.log.Infof("Next run in %v (at %s)", wait.Round(time.Second), next.Format("15:04:05"))
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				s.log.Info("Watch scheduler shutting down...")
				return nil
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			s.log.Info("Watch scheduler shutting down...")
			return nil
		}
		s.runOnce(ctx)
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	started := s.now()
	newURIs, err := s.run(ctx)
	if err != nil {
		s.log.Errorf("Scheduled run failed: %v", err)
	} else {
		s.log.Infof("Scheduled run finished: %d new URIs", newURIs)
	}

	s.stateManager.RecordRun(JobName, started, newURIs, err)
	if saveErr := s.stateManager.Save(); saveErr != nil {
		s.log.Errorf("Failed to save watch state: %v", saveErr)
	}
}

// FormatInterval formats a duration for display
func FormatInterval(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		if mins > 0 {
			return fmt.Sprintf("%dh%dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}

// ParseInterval parses a duration string with support for a leading day count, e.g. "1d12h"
func ParseInterval(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	var days int
	var remaining string
	n, _ := fmt.Sscanf(s, "%dd%s", &days, &remaining)
	if n >= 1 {
		d = time.Duration(days) * 24 * time.Hour
		if remaining != "" {
			extra, err := time.ParseDuration(remaining)
			if err != nil {
				return 0, fmt.Errorf("invalid interval format: %s", s)
			}
			d += extra
		}
		return d, nil
	}

	return 0, fmt.Errorf("invalid interval format: %s (examples: 30m, 1h, 24h, 7d)", s)
}
