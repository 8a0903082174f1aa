// Package scheduler fires periodic scoring passes on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is the work run on every tick of the schedule.
type Job func(ctx context.Context) error

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger overrides the scheduler logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithLocation evaluates the schedule in loc.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Scheduler runs a Job on a cron expression. Runs never overlap; a tick that
// fires while the previous run is still going is skipped.
type Scheduler struct {
	expr     string
	schedule cron.Schedule
	job      Job
	logger   *log.Logger
	loc      *time.Location
	runs     atomic.Int64
}

// New parses expr and returns a Scheduler for job.
func New(expr string, job Job, opts ...Option) (*Scheduler, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	s := &Scheduler{
		expr:     expr,
		schedule: schedule,
		job:      job,
		logger:   log.New(log.Writer(), "[scheduler] ", log.LstdFlags|log.Lshortfile),
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Next reports when the schedule fires after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}

// Runs reports how many job runs have completed.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// Run blocks until ctx is cancelled, then waits for an in-flight job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(s.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() {
		start := time.Now()
		if err := s.job(ctx); err != nil && ctx.Err() == nil {
			s.logger.Printf("scheduled run failed: %v", err)
			runFailures.Inc()
		}
		s.runs.Add(1)
		runDuration.Observe(time.Since(start).Seconds())
	}))

	s.logger.Printf("scheduled scoring (schedule=%s)", s.expr)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}
