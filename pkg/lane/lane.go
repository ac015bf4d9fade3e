// Package lane bounds how much work of one kind runs at once.
//
// A Lane admits up to Capacity waiting calls plus MaxConcurrency running
// calls. Calls beyond that either block or are dropped, depending on the
// backpressure strategy, and an optional token bucket spaces out starts.
// The generation gateway runs every model call through a lane so a burst
// of card requests cannot exceed the provider's concurrency quota.
//
//	l, err := lane.New(lane.Config{
//	    Name:           "genai",
//	    Capacity:       32,
//	    MaxConcurrency: 4,
//	    Backpressure:   lane.Block,
//	})
//	if err != nil {
//	    return err
//	}
//	defer l.Close(context.Background())
//
//	err = l.Do(ctx, func(ctx context.Context) error {
//	    return callModel(ctx)
//	})
package lane

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// BackpressureStrategy defines how to handle overload situations.
type BackpressureStrategy int

const (
	// Block blocks the caller until space is available or its context ends.
	Block BackpressureStrategy = iota
	// Drop rejects the call immediately when the queue is full.
	Drop
)

// String returns the string representation of BackpressureStrategy.
func (s BackpressureStrategy) String() string {
	switch s {
	case Block:
		return "block"
	case Drop:
		return "drop"
	default:
		return "unknown"
	}
}

// ParseBackpressure maps a configuration value to a strategy. An empty
// string selects Block.
func ParseBackpressure(s string) (BackpressureStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "block":
		return Block, nil
	case "drop":
		return Drop, nil
	default:
		return Block, fmt.Errorf("unknown backpressure strategy %q", s)
	}
}

// Config holds the configuration for a Lane.
type Config struct {
	// Name labels the lane in errors and metrics.
	Name string

	// Capacity is the maximum number of calls waiting for a slot.
	Capacity int

	// MaxConcurrency is the maximum number of calls running at once.
	MaxConcurrency int

	// Backpressure is the strategy when the queue is full.
	Backpressure BackpressureStrategy

	// RateLimit caps call starts per second; 0 means unlimited.
	RateLimit float64

	// Burst is the token bucket size. Defaults to MaxConcurrency.
	Burst int
}

// Validate validates the lane configuration.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("lane name cannot be empty")
	}
	if c.Capacity < 0 {
		return fmt.Errorf("lane capacity cannot be negative, got %d", c.Capacity)
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive, got %d", c.MaxConcurrency)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}
	if c.Burst < 0 {
		return fmt.Errorf("burst cannot be negative, got %d", c.Burst)
	}
	return nil
}

// MetricsRecorder receives lane queue observations.
type MetricsRecorder interface {
	IncQueueDepth(laneName string)
	DecQueueDepth(laneName string)
	RecordWaitDuration(laneName string, duration time.Duration)
	RecordThroughput(laneName string)
	RecordDropped(laneName string)
}

type nopMetrics struct{}

func (nopMetrics) IncQueueDepth(string)                     {}
func (nopMetrics) DecQueueDepth(string)                     {}
func (nopMetrics) RecordWaitDuration(string, time.Duration) {}
func (nopMetrics) RecordThroughput(string)                  {}
func (nopMetrics) RecordDropped(string)                     {}

// Option configures a Lane.
type Option func(*Lane)

// WithMetrics sets the metrics recorder for the lane.
func WithMetrics(m MetricsRecorder) Option {
	return func(l *Lane) {
		if m != nil {
			l.metrics = m
		}
	}
}

// Lane is a bounded execution queue. Calls run on the caller's goroutine.
type Lane struct {
	cfg     Config
	slots   chan struct{}
	workers chan struct{}
	limiter *rate.Limiter
	metrics MetricsRecorder

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup

	pending   atomic.Int64
	running   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	totalWait    atomic.Int64
	totalProcess atomic.Int64
	started      atomic.Int64
}

// New creates a lane.
func New(cfg Config, opts ...Option) (*Lane, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Lane{
		cfg:     cfg,
		slots:   make(chan struct{}, cfg.Capacity+cfg.MaxConcurrency),
		workers: make(chan struct{}, cfg.MaxConcurrency),
		metrics: nopMetrics{},
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst == 0 {
			burst = cfg.MaxConcurrency
		}
		l.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Name returns the lane name.
func (l *Lane) Name() string {
	return l.cfg.Name
}

// Do runs fn once a slot is free. It returns fn's error, a
// *TaskDroppedError when the queue is full under Drop, a *LaneClosedError
// after Close, or the context error if ctx ends while waiting.
func (l *Lane) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.inflight.Done()

	enqueued := time.Now()
	if err := l.admit(ctx); err != nil {
		return err
	}
	defer func() { <-l.slots }()

	if err := l.acquire(ctx); err != nil {
		return err
	}
	defer func() { <-l.workers }()

	wait := time.Since(enqueued)
	l.totalWait.Add(int64(wait))
	l.started.Add(1)
	l.metrics.RecordWaitDuration(l.cfg.Name, wait)

	return l.execute(ctx, fn)
}

func (l *Lane) enter() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return &LaneClosedError{LaneName: l.cfg.Name}
	}
	l.inflight.Add(1)
	return nil
}

func (l *Lane) admit(ctx context.Context) error {
	if l.cfg.Backpressure == Drop {
		select {
		case l.slots <- struct{}{}:
			return nil
		default:
			l.dropped.Add(1)
			l.metrics.RecordDropped(l.cfg.Name)
			return &TaskDroppedError{LaneName: l.cfg.Name, Capacity: l.cfg.Capacity}
		}
	}

	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("lane %s: %w", l.cfg.Name, ctx.Err())
	}
}

// acquire waits for a worker slot and a rate limit token.
func (l *Lane) acquire(ctx context.Context) error {
	l.pending.Add(1)
	l.metrics.IncQueueDepth(l.cfg.Name)
	defer func() {
		l.pending.Add(-1)
		l.metrics.DecQueueDepth(l.cfg.Name)
	}()

	select {
	case l.workers <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("lane %s: %w", l.cfg.Name, ctx.Err())
	}

	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			<-l.workers
			return fmt.Errorf("lane %s: %w", l.cfg.Name, err)
		}
	}
	return nil
}

func (l *Lane) execute(ctx context.Context, fn func(context.Context) error) (err error) {
	start := time.Now()
	returned := false
	l.running.Add(1)
	defer func() {
		l.running.Add(-1)
		l.totalProcess.Add(int64(time.Since(start)))
		if err != nil || !returned {
			l.failed.Add(1)
		} else {
			l.completed.Add(1)
		}
		l.metrics.RecordThroughput(l.cfg.Name)
	}()

	if fn == nil {
		return fmt.Errorf("lane %s: nil function", l.cfg.Name)
	}
	err = fn(ctx)
	returned = true
	return err
}

// Close stops admitting calls and waits for admitted ones to finish or
// for ctx to end.
func (l *Lane) Close(ctx context.Context) error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsClosed returns true if the lane is closed.
func (l *Lane) IsClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Stats returns current lane statistics.
func (l *Lane) Stats() Stats {
	stats := Stats{
		Name:           l.cfg.Name,
		Pending:        int(l.pending.Load()),
		Running:        int(l.running.Load()),
		Completed:      l.completed.Load(),
		Failed:         l.failed.Load(),
		Dropped:        l.dropped.Load(),
		Capacity:       l.cfg.Capacity,
		MaxConcurrency: l.cfg.MaxConcurrency,
	}

	if n := l.started.Load(); n > 0 {
		stats.WaitTime = time.Duration(l.totalWait.Load() / n)
	}
	if n := stats.Completed + stats.Failed; n > 0 {
		stats.ProcessTime = time.Duration(l.totalProcess.Load() / n)
	}
	return stats
}

// Stats holds statistics for a Lane.
type Stats struct {
	Name string

	// Pending is the number of admitted calls waiting for a worker slot.
	Pending int

	// Running is the number of calls currently executing.
	Running int

	Completed int64
	Failed    int64
	Dropped   int64

	Capacity       int
	MaxConcurrency int

	// WaitTime is the average time between Do and the call starting.
	WaitTime time.Duration

	// ProcessTime is the average call duration.
	ProcessTime time.Duration
}

// Utilization returns the current utilization ratio (0.0 - 1.0).
func (s Stats) Utilization() float64 {
	total := s.Capacity + s.MaxConcurrency
	if total == 0 {
		return 0
	}
	return float64(s.Pending+s.Running) / float64(total)
}

// String returns a human-readable string representation of Stats.
func (s Stats) String() string {
	return fmt.Sprintf(
		"Stats{Name: %s, Pending: %d, Running: %d, Completed: %d, Failed: %d, Dropped: %d, Utilization: %.2f%%}",
		s.Name, s.Pending, s.Running, s.Completed, s.Failed, s.Dropped, s.Utilization()*100,
	)
}
