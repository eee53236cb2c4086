package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
)

// Logger is the subset of a sugared zap logger the scheduler reports through.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

type Scheduler struct {
	cron *cron.Cron
}

// New creates a scheduler evaluating standard five-field cron expressions in
// loc. A trigger that fires while the previous run of the same job is still
// active is skipped, and a panicking job is recovered and logged.
func New(loc *time.Location, log Logger) *Scheduler {
	l := cronLogger{log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
	}
}

func (s *Scheduler) AddJob(spec string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx := context.Background()
		_ = job(ctx)
	})
	return err
}

// Next returns the next activation time of spec in the scheduler's location.
func (s *Scheduler) Next(spec string) (time.Time, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(time.Now().In(s.cron.Location())), nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts new triggers and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

type cronLogger struct {
	log Logger
}

// Info receives cron's chatty lifecycle events; only skipped triggers are
// worth surfacing above debug level.
func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		l.log.Warnw("Skipping trigger, previous run still in progress", keysAndValues...)
		return
	}
	l.log.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
