// Package cache provides the LRU+TTL store and the per-session resource
// cache built on it.
package cache

import (
	"time"

	"vbudget/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Session-scoped caches the manager can clear when a session ends.
type Forgetter interface {
	Forget(session string)
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// StatsReporter is implemented by resources exposing counters.
type StatsReporter interface {
	Stats() Stats
}

// Manager handles cache lifecycle and cleanup
type Manager struct {
	logger      *log.Logger
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewManager creates a new cache manager
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{
		logger:      logger.WithComponent(log.ComponentCache),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds caches to the manager for cleanup
func (m *Manager) Register(caches ...Cleaner) {
	m.caches = append(m.caches, caches...)
}

// ForgetSession clears a session from every registered cache that tracks
// sessions.
func (m *Manager) ForgetSession(session string) {
	for _, c := range m.caches {
		if f, ok := c.(Forgetter); ok {
			f.Forget(session)
		}
	}
}

// Stats collects counters from every registered resource.
func (m *Manager) Stats() []Stats {
	var out []Stats
	for _, c := range m.caches {
		if r, ok := c.(StatsReporter); ok {
			out = append(out, r.Stats())
		}
	}
	return out
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			total := 0
			for _, c := range m.caches {
				total += c.CleanExpired()
			}
			if total > 0 {
				m.logger.Debug("Expired cache entries removed", "count", total)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop gracefully stops the cleanup routine. Safe to call once, and only
// after StartCleanup.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
