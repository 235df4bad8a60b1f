// Package jobs runs the periodic maintenance tasks on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"localmart/internal/logx"
)

// Schedules. Times are in the scheduler's location.
const (
	SpecRemindPending   = "@midnight"
	SpecExpireProxy     = "@every 10m"
	SpecExpireBargains  = "@every 5m"
	SpecGenerateFees    = "5 0 1 * *"
	SpecMarkOverdueFees = "30 0 * * *"
)

const jobTimeout = 5 * time.Minute

type PendingReminder interface {
	RemindPending(ctx context.Context, now time.Time) (int, error)
}

type ProxyExpirer interface {
	ExpireOpen(ctx context.Context, now time.Time) (int64, error)
}

type BargainExpirer interface {
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}

type FeeBiller interface {
	GenerateMonthly(ctx context.Context, now time.Time) (int, error)
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}

// Services are the use cases driven by the scheduler.
type Services struct {
	Orders   PendingReminder
	Proxy    ProxyExpirer
	Bargains BargainExpirer
	Fees     FeeBiller
}

type task func(ctx context.Context, now time.Time) (int64, error)

// Scheduler wraps a cron runner with named tasks that can also be run on demand.
type Scheduler struct {
	cron  *cron.Cron
	loc   *time.Location
	log   *logx.Logger
	now   func() time.Time
	tasks map[string]task
}

func New(loc *time.Location, log *logx.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logx.Default()
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
	)
	return &Scheduler{cron: c, loc: loc, log: log, now: time.Now, tasks: make(map[string]task)}
}

// Register schedules every task whose service is set.
func (s *Scheduler) Register(svc Services) error {
	if svc.Orders != nil {
		if err := s.add("remind-pending-orders", SpecRemindPending, func(ctx context.Context, now time.Time) (int64, error) {
			n, err := svc.Orders.RemindPending(ctx, now)
			return int64(n), err
		}); err != nil {
			return err
		}
	}
	if svc.Proxy != nil {
		if err := s.add("expire-proxy-requests", SpecExpireProxy, svc.Proxy.ExpireOpen); err != nil {
			return err
		}
	}
	if svc.Bargains != nil {
		if err := s.add("expire-bargains", SpecExpireBargains, svc.Bargains.ExpirePending); err != nil {
			return err
		}
	}
	if svc.Fees != nil {
		if err := s.add("generate-market-fees", SpecGenerateFees, func(ctx context.Context, now time.Time) (int64, error) {
			n, err := svc.Fees.GenerateMonthly(ctx, now)
			return int64(n), err
		}); err != nil {
			return err
		}
		if err := s.add("mark-overdue-fees", SpecMarkOverdueFees, svc.Fees.MarkOverdue); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) add(name, spec string, t task) error {
	if _, err := s.cron.AddFunc(spec, func() { _ = s.Run(context.Background(), name) }); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.tasks[name] = t
	return nil
}

// Run executes a task immediately and logs its outcome.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	t, ok := s.tasks[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := t(ctx, s.now().In(s.loc))
	fields := map[string]any{"job": name, "affected": n, "duration_ms": time.Since(start).Milliseconds()}
	if err != nil {
		s.log.Error("jobs", "job_failed", err, fields)
		return err
	}
	s.log.Info("jobs", "job_done", fields)
	return nil
}

// Names lists the registered tasks.
func (s *Scheduler) Names() []string {
	names := make([]string, 0, len(s.tasks))
	for n := range s.tasks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for running tasks until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger routes cron's own messages to logx.
type cronLogger struct{ log *logx.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info("cron", msg, kv(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron", msg, err, kv(keysAndValues))
}

func kv(pairs []interface{}) map[string]any {
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out[fmt.Sprint(pairs[i])] = pairs[i+1]
	}
	return out
}
