package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const stateFileName = "watch_state.json"

// RunState contains the last run information for a scheduled job
type RunState struct {
	LastRunTime    time.Time `json:"last_run_time"`
	LastRunSuccess bool      `json:"last_run_success"`
	NewURIs        int       `json:"new_uris"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}

// WatchState contains the persistent state for the watch scheduler
type WatchState struct {
	Jobs      map[string]RunState `json:"jobs"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// StateManager handles persisting and loading watch state
type StateManager struct {
	stateDir  string
	statePath string
	state     WatchState
	mu        sync.RWMutex
}

// NewStateManager creates a new state manager
func NewStateManager(stateDir string) *StateManager {
	return &StateManager{
		stateDir:  stateDir,
		statePath: filepath.Join(stateDir, stateFileName),
		state:     WatchState{Jobs: make(map[string]RunState)},
	}
}

// Load loads the state from disk; a missing file is a fresh start
func (m *StateManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = WatchState{Jobs: make(map[string]RunState)}
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(data, &m.state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}
	if m.state.Jobs == nil {
		m.state.Jobs = make(map[string]RunState)
	}
	return nil
}

// Save saves the state to disk
func (m *StateManager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.UpdatedAt = time.Now()

	if err := os.MkdirAll(m.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(m.statePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// GetRunState returns the state for a specific job
func (m *StateManager) GetRunState(job string) (RunState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.state.Jobs[job]
	return state, ok
}

// RecordRun stores the outcome of a finished run
func (m *StateManager) RecordRun(job string, at time.Time, newURIs int, runErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := RunState{LastRunTime: at, LastRunSuccess: runErr == nil, NewURIs: newURIs}
	if runErr != nil {
		state.ErrorMessage = runErr.Error()
	}
	m.state.Jobs[job] = state
}

// NextRunTime returns when the job should next run; a job that never ran is due now
func (m *StateManager) NextRunTime(job string, interval time.Duration, now time.Time) time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.state.Jobs[job]
	if !ok {
		return now
	}
	return state.LastRunTime.Add(interval)
}
