package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cashday-ledger/internal/domain/business"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const businessColumns = `id, name, timezone, streak_current, streak_max, streak_last_completed_day, streak_last_active_day,
		streak_copilot_days, streak_broken_at, streak_updated_at, streak_version, created_at`

// BusinessRepository implements the business.Repository interface for PostgreSQL
type BusinessRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewBusinessRepository creates a new PostgreSQL business repository
func NewBusinessRepository(logger *slog.Logger, db *persistence.PostgresDB) business.Repository {
	return &BusinessRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetByID retrieves a business with its streak
func (r *BusinessRepository) GetByID(ctx context.Context, id string) (*business.Business, error) {
	query := `
		SELECT ` + businessColumns + `
		FROM businesses
		WHERE id = $1
	`

	b, err := scanBusiness(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, business.ErrBusinessNotFound{BusinessID: id}
		}
		r.logger.Error("Failed to get business", "business_id", id, "error", err)
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	return b, nil
}

// List returns every business, ordered by id
func (r *BusinessRepository) List(ctx context.Context) ([]*business.Business, error) {
	query := `
		SELECT ` + businessColumns + `
		FROM businesses
		ORDER BY id ASC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list businesses", "error", err)
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	defer rows.Close()

	var businesses []*business.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			r.logger.Error("Failed to scan business", "error", err)
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}
		businesses = append(businesses, b)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over businesses", "error", err)
		return nil, fmt.Errorf("error iterating over businesses: %w", err)
	}

	return businesses, nil
}

// UpdateStreak writes the streak only if nobody changed it since version was read.
// Returns ErrConcurrentModification when the version moved.
func (r *BusinessRepository) UpdateStreak(ctx context.Context, id string, s business.Streak, version int) error {
	query := `
		UPDATE businesses
		SET streak_current = $1, streak_max = $2, streak_last_completed_day = $3, streak_last_active_day = $4,
			streak_copilot_days = $5, streak_broken_at = $6, streak_updated_at = $7, streak_version = streak_version + 1
		WHERE id = $8 AND streak_version = $9
	`

	result, err := r.querier.Exec(ctx, query,
		s.Current,
		s.Max,
		string(s.LastCompletedDay),
		string(s.LastActiveDay),
		s.CopilotDays,
		s.BrokenAt,
		s.UpdatedAt,
		id,
		version,
	)
	if err != nil {
		r.logger.Error("Failed to update streak", "business_id", id, "error", err)
		return fmt.Errorf("failed to update streak: %w", err)
	}

	if result.RowsAffected() == 0 {
		return business.ErrConcurrentModification{BusinessID: id}
	}

	return nil
}

func scanBusiness(row pgx.Row) (*business.Business, error) {
	var (
		b                     business.Business
		lastCompleted, active string
	)

	err := row.Scan(
		&b.ID,
		&b.Name,
		&b.Timezone,
		&b.Streak.Current,
		&b.Streak.Max,
		&lastCompleted,
		&active,
		&b.Streak.CopilotDays,
		&b.Streak.BrokenAt,
		&b.Streak.UpdatedAt,
		&b.Streak.Version,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Streak.LastCompletedDay = businessday.Day(lastCompleted)
	b.Streak.LastActiveDay = businessday.Day(active)
	return &b, nil
}
