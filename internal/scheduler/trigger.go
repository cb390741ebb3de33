package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cashday-ledger/internal/config"
	"github.com/cashday-ledger/internal/domain/execution"
	"github.com/robfig/cron/v3"
)

// Runner is what the trigger fires
type Runner interface {
	Run(ctx context.Context, anchor time.Time) (execution.RunSummary, error)
}

// Trigger fires Runner on a cron schedule evaluated in the configured timezone
type Trigger struct {
	cron     *cron.Cron
	spec     string
	schedule cron.Schedule
	loc      *time.Location
	runner   Runner
	logger   *slog.Logger
}

// maxLookback bounds the search for the previous activation
const maxLookback = 2 * 366 * 24 * time.Hour

func NewTrigger(logger *slog.Logger, cfg config.SchedulerConfig, runner Runner) (*Trigger, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
	}

	schedule, err := cron.ParseStandard(cfg.Cron)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler cron %q: %w", cfg.Cron, err)
	}

	return &Trigger{
		cron:     cron.New(cron.WithLocation(loc)),
		spec:     cfg.Cron,
		schedule: schedule,
		loc:      loc,
		runner:   runner,
		logger:   logger,
	}, nil
}

// Start schedules runs until ctx is cancelled, then waits for an in-flight run
func (t *Trigger) Start(ctx context.Context) error {
	t.cron.Schedule(t.schedule, cron.FuncJob(func() {
		t.fire(ctx, time.Now())
	}))

	t.cron.Start()
	t.logger.Info("Scheduler trigger started", "cron", t.spec)

	<-ctx.Done()
	t.logger.Info("Scheduler trigger stopping")
	<-t.cron.Stop().Done()
	return nil
}

// fire runs one pass. The anchor is the activation the schedule was due at,
// so every replica contends for the same lock key however late it wakes.
func (t *Trigger) fire(ctx context.Context, at time.Time) {
	anchor := t.lastFire(at)

	run, err := t.runner.Run(ctx, anchor)
	if err != nil {
		if errors.Is(err, ErrRunAlreadyInProgress) {
			return
		}
		t.logger.Error("Scheduler run failed", "anchor", anchor, "error", err)
		return
	}
	if !run.Success {
		t.logger.Warn("Scheduler run finished with errors",
			"anchor", anchor, "error", run.Error, "errors", run.Errors)
	}
}

// lastFire returns the latest activation of the schedule at or before now
func (t *Trigger) lastFire(now time.Time) time.Time {
	now = now.In(t.loc)
	for back := time.Minute; back <= maxLookback; back *= 2 {
		prev := t.schedule.Next(now.Add(-back))
		if prev.IsZero() || prev.After(now) {
			continue
		}
		for {
			next := t.schedule.Next(prev)
			if next.IsZero() || next.After(now) {
				return prev
			}
			prev = next
		}
	}
	return now.Truncate(time.Minute)
}
