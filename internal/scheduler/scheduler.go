// Package scheduler runs the daily auto-open / auto-close pass over every business
// and exposes the same register automation for on-demand use.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cashday-ledger/internal/config"
	"github.com/cashday-ledger/internal/domain/business"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/execution"
	"github.com/cashday-ledger/internal/domain/summary"
	"github.com/cashday-ledger/internal/platform/lock"
	"github.com/panjf2000/ants/v2"
)

// ErrRunAlreadyInProgress is returned when another replica holds the run lock
var ErrRunAlreadyInProgress = errors.New("scheduler run already in progress")

// Deps wires the scheduler to storage and the ledger writer
type Deps struct {
	Businesses Businesses
	Aggregator DayAggregator
	Closures   ClosureFinder
	Writer     RecordAppender
	Summaries  summary.Repository
	Streak     StreakTracker
	Locker     RunLocker
	Sink       execution.Sink
	Exporter   execution.RunExporter // optional
	Resolver   *businessday.Resolver
}

type Scheduler struct {
	businesses Businesses
	aggregator DayAggregator
	closures   ClosureFinder
	writer     RecordAppender
	summaries  summary.Repository
	streak     StreakTracker
	locker     RunLocker
	sink       execution.Sink
	exporter   execution.RunExporter
	resolver   *businessday.Resolver
	cfg        config.SchedulerConfig
	logger     *slog.Logger
	now        func() time.Time
}

func New(logger *slog.Logger, cfg config.SchedulerConfig, deps Deps) *Scheduler {
	resolver := deps.Resolver
	if resolver == nil {
		resolver = businessday.NewResolver()
	}
	return &Scheduler{
		businesses: deps.Businesses,
		aggregator: deps.Aggregator,
		closures:   deps.Closures,
		writer:     deps.Writer,
		summaries:  deps.Summaries,
		streak:     deps.Streak,
		locker:     deps.Locker,
		sink:       deps.Sink,
		exporter:   deps.Exporter,
		resolver:   resolver,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Run processes every business for the day containing anchor in its own timezone.
// Only one run per anchor proceeds across replicas.
func (s *Scheduler) Run(ctx context.Context, anchor time.Time) (execution.RunSummary, error) {
	started := s.now()
	key := anchor.UTC().Format(time.RFC3339)

	release, err := s.locker.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			s.logger.Info("Scheduler run skipped, lock held elsewhere", "anchor", key)
			return execution.RunSummary{}, ErrRunAlreadyInProgress
		}
		return execution.RunSummary{}, err
	}
	defer func() {
		_ = release(context.WithoutCancel(ctx))
	}()

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunDeadline)
	defer cancel()

	run := execution.RunSummary{Type: execution.RunTypeAutoClose, Anchor: anchor}

	s.logger.Info("Scheduler run started", "anchor", key)

	businesses, err := s.businesses.List(runCtx)
	if err != nil {
		run.Error = fmt.Sprintf("list businesses: %v", err)
		s.logger.Error("Failed to list businesses", "anchor", key, "error", err)
	} else {
		run.Total = len(businesses)
		if err := s.fanOut(runCtx, anchor, businesses, &run); err != nil {
			run.Error = err.Error()
		}
	}

	if run.Error == "" && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		run.Error = "run deadline exceeded"
	}
	run.Success = run.Error == ""
	run.ExecutedAt = s.now()
	run.DurationMs = run.ExecutedAt.Sub(started).Milliseconds()

	// audit writes must outlive the run deadline
	auditCtx := context.WithoutCancel(ctx)
	if err := s.sink.RecordRun(auditCtx, run); err != nil {
		s.logger.Error("Failed to record run summary", "anchor", key, "error", err)
	}
	if s.exporter != nil {
		if err := s.exporter.Export(auditCtx, run); err != nil {
			s.logger.Warn("Failed to export run summary", "anchor", key, "error", err)
		}
	}

	s.logger.Info("Scheduler run finished",
		"anchor", key,
		"total", run.Total,
		"processed", run.Processed,
		"auto_opened", run.AutoOpened,
		"auto_closed", run.AutoClosed,
		"streak_increased", run.StreakIncreased,
		"skipped", run.Skipped,
		"errors", run.Errors,
		"duration_ms", run.DurationMs)

	return run, nil
}

func (s *Scheduler) fanOut(ctx context.Context, anchor time.Time, businesses []*business.Business, run *execution.RunSummary) error {
	if len(businesses) == 0 {
		return nil
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	pool, err := ants.NewPoolWithFunc(max(s.cfg.Concurrency, 1), func(arg interface{}) {
		defer wg.Done()
		b := arg.(*business.Business)
		actions := s.processSafely(ctx, b, anchor)

		mu.Lock()
		run.Record(actions...)
		mu.Unlock()
	})
	if err != nil {
		return fmt.Errorf("failed to create scheduler pool: %w", err)
	}
	defer pool.Release()

	for _, b := range businesses {
		wg.Add(1)
		if err := pool.Invoke(b); err != nil {
			wg.Done()
			s.logger.Error("Failed to dispatch business", "business_id", b.ID, "error", err)
			mu.Lock()
			run.Record(execution.ActionError)
			mu.Unlock()
		}
	}
	wg.Wait()
	return nil
}

// processSafely isolates one business so a failure or panic never aborts the run
func (s *Scheduler) processSafely(ctx context.Context, b *business.Business, anchor time.Time) (actions []execution.Action) {
	defer func() {
		if r := recover(); r != nil {
			s.fail(ctx, b, "", fmt.Errorf("panic: %v", r), string(debug.Stack()))
			actions = []execution.Action{execution.ActionError}
		}
	}()

	actions, day, err := s.ProcessBusiness(ctx, b, anchor)
	if err != nil {
		s.fail(ctx, b, day, err, "")
		return append(actions, execution.ActionError)
	}
	return actions
}

func (s *Scheduler) fail(ctx context.Context, b *business.Business, day businessday.Day, err error, stack string) {
	s.logger.Error("Failed to process business",
		"business_id", b.ID,
		"day", day,
		"error", err)
	s.recordError(ctx, execution.ErrorLog{
		Type:       execution.ErrorTypeScheduledAutoClose,
		BusinessID: b.ID,
		Day:        day,
		Error:      err.Error(),
		Stack:      stack,
		Timestamp:  s.now(),
	})
}

func (s *Scheduler) recordError(ctx context.Context, entry execution.ErrorLog) {
	if err := s.sink.RecordError(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("Failed to write error log", "business_id", entry.BusinessID, "error", err)
	}
}

// ProcessBusiness opens, closes or credits the streak for the business day containing anchor.
// It returns the actions taken so far even when a later step fails.
func (s *Scheduler) ProcessBusiness(ctx context.Context, b *business.Business, anchor time.Time) ([]execution.Action, businessday.Day, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	day, err := s.resolver.DayOf(anchor, b.TZ())
	if err != nil {
		return nil, "", err
	}

	doc, err := s.summaries.Get(ctx, b.ID, day)
	if err != nil {
		if !errors.Is(err, summary.ErrSummaryNotFound{}) {
			return nil, day, err
		}
		empty := summary.Empty(b.ID, day)
		doc = &empty
	}

	var actions []execution.Action

	if !doc.HasOpening {
		opened, err := s.AutoOpen(ctx, b, day, summary.ReasonScheduled)
		if err != nil {
			return actions, day, fmt.Errorf("auto-open: %w", err)
		}
		if opened.Reason == ReasonNoPreviousClosure {
			return []execution.Action{execution.ActionSkipped}, day, nil
		}
		if opened.Opened {
			actions = append(actions, execution.ActionAutoOpened)
		}
		if opened.aggregate != nil {
			doc.Aggregate = *opened.aggregate
		}
	}

	if doc.HasOpening && !doc.HasClosure {
		closed, err := s.AutoClose(ctx, b, day, summary.ReasonScheduled)
		if err != nil {
			return actions, day, fmt.Errorf("auto-close: %w", err)
		}
		if closed.Closed {
			return append(actions, execution.ActionAutoClosed), day, nil
		}
		if closed.aggregate != nil {
			doc.Aggregate = *closed.aggregate
		}
	}

	if doc.Organic() {
		if _, err := s.streak.IncrementIfConsecutive(ctx, b.ID, day); err != nil {
			s.logger.Error("Failed to credit streak",
				"business_id", b.ID, "day", day, "error", err)
			return append(actions, execution.ActionNoAction), day, nil
		}
		return append(actions, execution.ActionStreakIncreased), day, nil
	}

	if len(actions) == 0 {
		actions = append(actions, execution.ActionNoAction)
	}
	return actions, day, nil
}
