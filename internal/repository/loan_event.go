package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shelfmark/shelfmark/internal/model"
)

// LoanEventRepository provides database access for circulation events.
type LoanEventRepository struct {
	repo *Repository
}

// NewLoanEventRepository creates a new LoanEventRepository.
func NewLoanEventRepository(repo *Repository) *LoanEventRepository {
	return &LoanEventRepository{repo: repo}
}

// BulkInsert inserts multiple loan events with idempotency via ON CONFLICT DO NOTHING.
func (r *LoanEventRepository) BulkInsert(ctx context.Context, events []*model.LoanEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	query := `
		INSERT INTO loan_events (id, event_id, loan_id, book_id, user_id, event_type, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (event_id) DO NOTHING
	`

	for _, event := range events {
		batch.Queue(query,
			event.ID,
			event.EventID,
			event.LoanID,
			event.BookID,
			event.UserID,
			event.EventType,
			event.OccurredAt,
		)
	}

	results := r.repo.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(events); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert event %d: %w", i, err)
		}
	}

	return nil
}

// UpdateDailyStats refreshes the daily_circulation rows touched by a batch.
// Counts are recalculated from loan_events so replays stay idempotent.
func (r *LoanEventRepository) UpdateDailyStats(ctx context.Context, events []*model.LoanEvent) error {
	if len(events) == 0 {
		return nil
	}

	for _, day := range uniqueEventDays(events) {
		stat, err := r.recalculateDay(ctx, day)
		if err != nil {
			return fmt.Errorf("recalculate circulation %s: %w", day.Format("2006-01-02"), err)
		}
		if err := r.upsertDailyStat(ctx, stat); err != nil {
			return fmt.Errorf("upsert circulation %s: %w", day.Format("2006-01-02"), err)
		}
	}

	return nil
}

func uniqueEventDays(events []*model.LoanEvent) []time.Time {
	seen := make(map[string]time.Time)
	for _, event := range events {
		day := event.OccurredAt.UTC().Truncate(24 * time.Hour)
		seen[day.Format("2006-01-02")] = day
	}

	days := make([]time.Time, 0, len(seen))
	for _, day := range seen {
		days = append(days, day)
	}
	return days
}

func (r *LoanEventRepository) recalculateDay(ctx context.Context, day time.Time) (*model.DailyCirculationStats, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	query := `
		SELECT
			COUNT(*) FILTER (WHERE event_type = $3),
			COUNT(*) FILTER (WHERE event_type = $4)
		FROM loan_events
		WHERE occurred_at >= $1 AND occurred_at < $2
	`

	stat := &model.DailyCirculationStats{
		ID:   start.Format("2006-01-02"),
		Date: start,
	}
	err := r.repo.pool.QueryRow(ctx, query, start, end,
		model.LoanEventCheckedOut, model.LoanEventReturned,
	).Scan(&stat.Checkouts, &stat.Returns)
	if err != nil {
		return nil, fmt.Errorf("count loan events: %w", err)
	}

	return stat, nil
}

func (r *LoanEventRepository) upsertDailyStat(ctx context.Context, stat *model.DailyCirculationStats) error {
	query := `
		INSERT INTO daily_circulation (id, date, checkouts, returns, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (date) DO UPDATE SET
			checkouts = EXCLUDED.checkouts,
			returns = EXCLUDED.returns,
			updated_at = NOW()
	`

	_, err := r.repo.pool.Exec(ctx, query, stat.ID, stat.Date, stat.Checkouts, stat.Returns)
	return err
}

// GetDailyStats retrieves daily circulation within a date range.
func (r *LoanEventRepository) GetDailyStats(ctx context.Context, from, to time.Time) ([]*model.DailyCirculationStats, error) {
	query := `
		SELECT id, date, checkouts, returns, created_at, updated_at
		FROM daily_circulation
		WHERE date >= $1 AND date <= $2
		ORDER BY date DESC
	`

	rows, err := r.repo.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query daily circulation: %w", err)
	}
	defer rows.Close()

	var stats []*model.DailyCirculationStats
	for rows.Next() {
		var stat model.DailyCirculationStats
		if err := rows.Scan(&stat.ID, &stat.Date, &stat.Checkouts, &stat.Returns, &stat.CreatedAt, &stat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan daily circulation: %w", err)
		}
		stats = append(stats, &stat)
	}

	return stats, rows.Err()
}

// GetCirculationSummary retrieves aggregated circulation over a date range.
func (r *LoanEventRepository) GetCirculationSummary(ctx context.Context, from, to time.Time) (*model.CirculationSummary, error) {
	query := `
		SELECT COALESCE(SUM(checkouts), 0), COALESCE(SUM(returns), 0)
		FROM daily_circulation
		WHERE date >= $1 AND date <= $2
	`

	var summary model.CirculationSummary
	err := r.repo.pool.QueryRow(ctx, query, from, to).Scan(&summary.TotalCheckouts, &summary.TotalReturns)
	if err != nil {
		return nil, fmt.Errorf("query circulation summary: %w", err)
	}

	return &summary, nil
}
