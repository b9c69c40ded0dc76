// Package monitor reports how far the recording pipeline is behind: the
// recorder queue, the backend write queues and the active session.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jamiegrech/RSBot-API/internal/recorder"
	"github.com/jamiegrech/RSBot-API/pkg/core"
)

// DefaultInterval is how often the status file is rewritten.
const DefaultInterval = time.Second

// QueueReporter is implemented by backends that buffer writes.
type QueueReporter interface {
	QueuedStates() int
	QueuedInteractions() int
}

// Dependencies holds all dependencies for the monitor service. Everything
// but Logger is optional.
type Dependencies struct {
	Recorder *recorder.Recorder
	Backend  any
	Session  func() (core.Session, bool)
	Logger   *slog.Logger
	// StatusPath receives the latest status as JSON; empty disables it.
	StatusPath string
	Interval   time.Duration
}

// Status is one reading of the pipeline.
type Status struct {
	Time               time.Time `json:"time"`
	SessionID          uint      `json:"sessionId,omitempty"`
	SessionName        string    `json:"sessionName,omitempty"`
	RecorderRunning    bool      `json:"recorderRunning"`
	Tracked            int       `json:"tracked"`
	Pending            int       `json:"pending"`
	Dropped            int       `json:"dropped"`
	QueuedStates       int       `json:"queuedStates"`
	QueuedInteractions int       `json:"queuedInteractions"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	now       func() time.Time
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps, now: time.Now}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus reads every counter once.
func (s *Service) GetStatus() Status {
	st := Status{Time: s.now()}

	if s.deps.Session != nil {
		if session, ok := s.deps.Session(); ok {
			st.SessionID = session.ID
			st.SessionName = session.Name
		}
	}
	if r := s.deps.Recorder; r != nil {
		st.RecorderRunning = r.Running()
		st.Tracked = len(r.Tracked())
		st.Pending = r.Pending()
		st.Dropped = r.Dropped()
	}
	if q, ok := s.deps.Backend.(QueueReporter); ok {
		st.QueuedStates = q.QueuedStates()
		st.QueuedInteractions = q.QueuedInteractions()
	}
	return st
}

// WriteStatus replaces the status file with the current reading.
func (s *Service) WriteStatus() error {
	if s.deps.StatusPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.GetStatus(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	if err := os.WriteFile(s.deps.StatusPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write status file: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				st := s.GetStatus()
				if st.Dropped > 0 || st.QueuedStates > 0 {
					logger.Debug("Pipeline status",
						"pending", st.Pending,
						"dropped", st.Dropped,
						"queuedStates", st.QueuedStates,
						"queuedInteractions", st.QueuedInteractions)
				}
				if err := s.WriteStatus(); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
