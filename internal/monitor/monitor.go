// Package monitor reports the progress of a long running watch.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/vaultcoh/vault/internal/cache"
)

const defaultInterval = 30 * time.Second

// Counters are the running totals of a watch.
type Counters struct {
	Handled int `json:"handled"`
	Stored  int `json:"stored"`
	Failed  int `json:"failed"`
}

// Status is one snapshot written to the status file.
type Status struct {
	Time        time.Time `json:"time"`
	Uptime      string    `json:"uptime"`
	Counters    Counters  `json:"counters"`
	CacheSize   int       `json:"cacheSize"`
	CacheHits   int       `json:"cacheHits"`
	CacheMisses int       `json:"cacheMisses"`
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Logger   *slog.Logger
	Cache    *cache.ReplayCache
	Counters func() Counters
	// StatusPath, when set, is rewritten with the latest Status on every tick.
	StatusPath string
	Interval   time.Duration
}

// Service manages status monitoring
type Service struct {
	deps    Dependencies
	started time.Time

	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = defaultInterval
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return &Service{deps: deps, started: time.Now()}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current status
func (s *Service) GetStatus() Status {
	st := Status{
		Time:   time.Now().UTC(),
		Uptime: time.Since(s.started).Round(time.Second).String(),
	}
	if s.deps.Counters != nil {
		st.Counters = s.deps.Counters()
	}
	if s.deps.Cache != nil {
		st.CacheSize = s.deps.Cache.Len()
		st.CacheHits, st.CacheMisses = s.deps.Cache.Stats()
	}
	return st
}

// WriteStatus replaces the status file with st.
func (s *Service) WriteStatus(st Status) error {
	if s.deps.StatusPath == "" {
		return nil
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.deps.StatusPath + ".tmp"
	if err := os.WriteFile(tmp, b, 0644); err != nil {
		return fmt.Errorf("writing status file: %w", err)
	}
	return os.Rename(tmp, s.deps.StatusPath)
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
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		var last Counters
		for {
			select {
			case <-stop:
				// final snapshot so the file matches what was logged last
				if err := s.WriteStatus(s.GetStatus()); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
				return
			case <-ticker.C:
				st := s.GetStatus()
				if err := s.WriteStatus(st); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
				if st.Counters != last {
					logger.Info("watch status",
						"handled", st.Counters.Handled,
						"stored", st.Counters.Stored,
						"failed", st.Counters.Failed,
						"cache_hits", st.CacheHits)
					last = st.Counters
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for its last write.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.isRunning = false
	s.mu.Unlock()
	<-done
}
