package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/execution"
	"github.com/cashday-ledger/internal/scheduler"
)

// RegisterServiceImpl implements the RegisterService interface
type RegisterServiceImpl struct {
	automation Automation
	history    execution.RunHistory
	logger     *slog.Logger
	now        func() time.Time
}

func NewRegisterService(logger *slog.Logger, automation Automation, history execution.RunHistory) RegisterService {
	return &RegisterServiceImpl{
		automation: automation,
		history:    history,
		logger:     logger,
		now:        time.Now,
	}
}

// LazyClose closes yesterday if it was left open
func (s *RegisterServiceImpl) LazyClose(ctx context.Context, businessID string) (scheduler.CloseOutcome, error) {
	outcome, err := s.automation.LazyClose(ctx, businessID, s.now())
	if err != nil {
		s.logger.Error("Lazy close failed", "business_id", businessID, "error", err)
		return scheduler.CloseOutcome{}, err
	}
	return outcome, nil
}

// OpenDay opens day, or today when day is empty, from the latest closure
func (s *RegisterServiceImpl) OpenDay(ctx context.Context, businessID string, day businessday.Day) (scheduler.OpenOutcome, error) {
	return s.automation.OpenDay(ctx, businessID, day)
}

// RunNow runs the scheduler pass anchored at the current minute
func (s *RegisterServiceImpl) RunNow(ctx context.Context) (execution.RunSummary, error) {
	anchor := s.now().Truncate(time.Minute)
	s.logger.Info("Manual scheduler run requested", "anchor", anchor)
	return s.automation.Run(ctx, anchor)
}

func (s *RegisterServiceImpl) RecentRuns(ctx context.Context, limit int) ([]execution.RunSummary, error) {
	return s.history.RecentRuns(ctx, limit)
}
