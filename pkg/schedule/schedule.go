// Package schedule runs recurring tasks in-process.
//
// Usage:
//
//	s := schedule.New()
//	s.Every(24 * time.Hour).Name("ledger:export").WithoutOverlapping().Run(exportLedger)
//	s.Cron("0 3 * * *").Name("nightly").Run(task)
//	s.Start(ctx) // blocks until ctx is cancelled and running tasks finish
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/vendo/pkg/logger"
)

// Task is the function signature for a scheduled task.
type Task func(ctx context.Context) error

// entry represents a single scheduled job.
type entry struct {
	id        string
	interval  time.Duration
	cronExpr  string // "" unless using Cron()
	task      Task
	lastRun   time.Time
	running   bool
	noOverlap bool
	mu        sync.Mutex
}

// Scheduler holds the registered entries and dispatches them.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	wg      sync.WaitGroup
}

func New() *Scheduler { return &Scheduler{} }

// Schedule is a fluent builder for a single entry before it is registered.
type Schedule struct {
	s *Scheduler
	e *entry
}

// Every runs the task on start and then every d.
func (s *Scheduler) Every(d time.Duration) *Schedule {
	return &Schedule{s: s, e: &entry{interval: d}}
}

// Cron schedules using a 5-field cron expression (min hour dom mon dow).
// Each field is *, */step, a-b, n or a comma list of those.
func (s *Scheduler) Cron(expr string) *Schedule {
	return &Schedule{s: s, e: &entry{cronExpr: expr}}
}

// WithoutOverlapping prevents a new run if the previous one is still executing.
func (sc *Schedule) WithoutOverlapping() *Schedule {
	sc.e.noOverlap = true
	return sc
}

// Name gives the entry an identifier for logging.
func (sc *Schedule) Name(id string) *Schedule {
	sc.e.id = id
	return sc
}

// Run registers the task. It returns an error for an invalid cron
// expression or a non-positive interval.
func (sc *Schedule) Run(fn Task) error {
	if sc.e.cronExpr != "" {
		if err := validCron(sc.e.cronExpr); err != nil {
			return err
		}
	} else if sc.e.interval <= 0 {
		return fmt.Errorf("schedule: interval must be positive, got %s", sc.e.interval)
	}

	sc.e.task = fn

	sc.s.mu.Lock()
	defer sc.s.mu.Unlock()
	if sc.e.id == "" {
		sc.e.id = fmt.Sprintf("task-%d", len(sc.s.entries)+1)
	}
	sc.s.entries = append(sc.s.entries, sc.e)
	return nil
}

// Start ticks every second and dispatches due tasks until ctx is done, then
// waits for running tasks to return.
func (s *Scheduler) Start(ctx context.Context) {
	logger.Info("schedule: scheduler started", "tasks", len(s.List()))

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	s.Tick(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("schedule: scheduler stopped")
			return
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Tick dispatches every entry due at now.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	current := make([]*entry, len(s.entries))
	copy(current, s.entries)
	s.mu.Unlock()

	for _, e := range current {
		s.dispatch(ctx, e, now)
	}
}

// Wait blocks until every dispatched task has returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (e *entry) due(now time.Time) bool {
	if e.cronExpr != "" {
		// At most once per matching minute.
		if !e.lastRun.IsZero() && e.lastRun.Truncate(time.Minute).Equal(now.Truncate(time.Minute)) {
			return false
		}
		return matchCron(e.cronExpr, now)
	}
	if e.lastRun.IsZero() {
		return true
	}
	return now.Sub(e.lastRun) >= e.interval
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) {
	e.mu.Lock()
	if !e.due(now) {
		e.mu.Unlock()
		return
	}
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping task", "id", e.id)
		return
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r)
			}
		}()

		logger.Info("schedule: running task", "id", e.id)
		if err := e.task(ctx); err != nil {
			logger.Error("schedule: task failed", "id", e.id, "err", err)
		}
	}()
}

// List returns the registered entries for CLI display.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		freq := e.cronExpr
		if freq == "" {
			freq = "every " + e.interval.String()
		}
		out = append(out, fmt.Sprintf("%s  [%s]", e.id, freq))
	}
	return out
}

// ------------------- Minimal cron parser -------------------

var cronRanges = [5][2]int{{0, 59}, {0, 23}, {1, 31}, {1, 12}, {0, 6}}

func validCron(expr string) error {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return fmt.Errorf("schedule: cron %q needs 5 fields", expr)
	}
	for i, f := range fields {
		for _, part := range strings.Split(f, ",") {
			if _, err := parsePart(part, cronRanges[i][0], cronRanges[i][1]); err != nil {
				return fmt.Errorf("schedule: cron %q: %w", expr, err)
			}
		}
	}
	return nil
}

func matchCron(expr string, t time.Time) bool {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return false
	}
	vals := [5]int{t.Minute(), t.Hour(), t.Day(), int(t.Month()), int(t.Weekday())}
	for i, f := range fields {
		if !matchField(f, vals[i], cronRanges[i][0], cronRanges[i][1]) {
			return false
		}
	}
	return true
}

func matchField(field string, val, lo, hi int) bool {
	for _, part := range strings.Split(field, ",") {
		match, err := parsePart(part, lo, hi)
		if err == nil && match(val) {
			return true
		}
	}
	return false
}

// parsePart parses one of *, */step, a-b, n.
func parsePart(part string, lo, hi int) (func(int) bool, error) {
	inRange := func(n int) error {
		if n < lo || n > hi {
			return fmt.Errorf("%d out of range %d-%d", n, lo, hi)
		}
		return nil
	}

	switch {
	case part == "*":
		return func(int) bool { return true }, nil
	case strings.HasPrefix(part, "*/"):
		step, err := strconv.Atoi(part[2:])
		if err != nil || step <= 0 {
			return nil, fmt.Errorf("bad step %q", part)
		}
		return func(v int) bool { return v%step == 0 }, nil
	case strings.Contains(part, "-"):
		a, b, _ := strings.Cut(part, "-")
		from, err1 := strconv.Atoi(a)
		to, err2 := strconv.Atoi(b)
		if err1 != nil || err2 != nil || from > to {
			return nil, fmt.Errorf("bad range %q", part)
		}
		if err := inRange(from); err != nil {
			return nil, err
		}
		if err := inRange(to); err != nil {
			return nil, err
		}
		return func(v int) bool { return v >= from && v <= to }, nil
	default:
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad value %q", part)
		}
		if err := inRange(n); err != nil {
			return nil, err
		}
		return func(v int) bool { return v == n }, nil
	}
}
