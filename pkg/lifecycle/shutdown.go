// Package lifecycle lets long-running commands finish in-flight discoveries
// and release their resources on shutdown.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/logflow/alphaminer/pkg/errors"
	"github.com/logflow/alphaminer/pkg/logging"
)

// DefaultDrainTimeout bounds how long Shutdown waits for in-flight runs.
const DefaultDrainTimeout = 30 * time.Second

// CloseFunc releases a resource. Telemetry shutdown functions and cache
// Close methods both fit after a small adapter.
type CloseFunc func(ctx context.Context) error

// Manager tracks in-flight work and closes registered resources in reverse
// registration order.
type Manager struct {
	mu       sync.Mutex
	draining bool
	inFlight sync.WaitGroup
	active   int
	closers  []namedCloser
	drain    time.Duration
	logger   logrus.FieldLogger
}

type namedCloser struct {
	name string
	fn   CloseFunc
}

// NewManager creates a manager. A zero drain uses DefaultDrainTimeout and a
// nil logger discards.
func NewManager(drain time.Duration, logger logrus.FieldLogger) *Manager {
	if drain <= 0 {
		drain = DefaultDrainTimeout
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{drain: drain, logger: logger}
}

// Register adds a resource to close on shutdown.
func (m *Manager) Register(name string, fn CloseFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closers = append(m.closers, namedCloser{name: name, fn: fn})
}

// RegisterCloser adapts an io.Closer style resource.
func (m *Manager) RegisterCloser(name string, c interface{ Close() error }) {
	m.Register(name, func(context.Context) error { return c.Close() })
}

// Begin marks the start of a unit of work. It returns false once shutdown has
// started; callers must then skip the work. Every true result needs a
// matching End.
func (m *Manager) Begin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draining {
		return false
	}
	m.active++
	m.inFlight.Add(1)
	return true
}

// End marks a unit of work started by Begin as finished.
func (m *Manager) End() {
	m.mu.Lock()
	m.active--
	m.mu.Unlock()
	m.inFlight.Done()
}

// Active returns the number of in-flight units.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Shutdown stops accepting work, waits for in-flight units up to the drain
// timeout and then closes every registered resource. Calls after the first
// are no-ops.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		return nil
	}
	m.draining = true
	closers := m.closers
	m.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		m.inFlight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(m.drain):
		m.logger.WithField("in_flight", m.Active()).Warn("drain timeout reached")
	case <-ctx.Done():
	}

	var errs errors.MultiError
	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.fn(ctx); err != nil {
			m.logger.WithError(err).WithField("resource", c.name).Warn("close failed")
			errs.Add(err)
		}
	}
	return errs.Combined()
}

// SignalContext returns a context that is canceled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
