package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Stats collects statement counters for every connection opened from a
// Driver it is attached to. A nil *Stats records nothing.
type Stats struct {
	queries  atomic.Int64
	execs    atomic.Int64
	duration atomic.Int64 // nanoseconds
	slow     atomic.Int64
	errors   atomic.Int64

	mu        sync.RWMutex
	threshold time.Duration
	hook      SlowQueryHook
}

// SlowQueryHook is called for every statement slower than the threshold.
type SlowQueryHook func(ctx context.Context, query string, duration time.Duration)

// StatsOption configures Stats.
type StatsOption func(*Stats)

// WithSlowThreshold sets the threshold for slow statement detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *Stats) {
		s.threshold = d
	}
}

// WithSlowQueryHook sets a callback for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *Stats) {
		s.hook = hook
	}
}

// WithSlowQueryLog logs slow statements with the given logger, or the
// default logger when l is nil.
func WithSlowQueryLog(l *slog.Logger) StatsOption {
	if l == nil {
		l = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, query string, duration time.Duration) {
		l.WarnContext(ctx, "slow query detected", "duration", duration, "query", query)
	})
}

// NewStats returns an empty collector.
func NewStats(opts ...StatsOption) *Stats {
	s := &Stats{threshold: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithStats attaches s to the driver. Sessions and transactions opened
// afterwards report to s as well.
func (d *Driver) WithStats(s *Stats) *Driver {
	d.Conn.stats = s
	return d
}

// SlowThreshold returns the current slow statement threshold.
func (s *Stats) SlowThreshold() time.Duration {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threshold
}

// SetSlowThreshold updates the slow statement threshold.
func (s *Stats) SetSlowThreshold(threshold time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = threshold
}

func (s *Stats) track(ctx context.Context, query string, start time.Time, isQuery bool, errp *error) {
	if s == nil {
		return
	}
	duration := time.Since(start)
	if isQuery {
		s.queries.Add(1)
	} else {
		s.execs.Add(1)
	}
	s.duration.Add(int64(duration))
	if errp != nil && *errp != nil {
		s.errors.Add(1)
	}

	s.mu.RLock()
	threshold, hook := s.threshold, s.hook
	s.mu.RUnlock()

	if duration > threshold {
		s.slow.Add(1)
		if hook != nil {
			hook(ctx, query, duration)
		}
	}
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	if s == nil {
		return StatsSnapshot{}
	}
	return StatsSnapshot{
		TotalQueries:  s.queries.Load(),
		TotalExecs:    s.execs.Load(),
		TotalDuration: time.Duration(s.duration.Load()),
		SlowQueries:   s.slow.Load(),
		Errors:        s.errors.Load(),
	}
}

// Reset resets all counters to zero.
func (s *Stats) Reset() {
	if s == nil {
		return
	}
	s.queries.Store(0)
	s.execs.Store(0)
	s.duration.Store(0)
	s.slow.Store(0)
	s.errors.Store(0)
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgDuration returns the average statement duration.
func (s StatsSnapshot) AvgDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgDuration(),
		s.SlowQueries, s.Errors,
	)
}
