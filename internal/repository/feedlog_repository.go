package repository

import (
	"context"
	"database/sql"

	"dairy-order-service/internal/entity"
)

type FeedLogRepository struct {
	db *sql.DB
}

func NewFeedLogRepository(db *sql.DB) *FeedLogRepository {
	return &FeedLogRepository{db}
}

// ReplaceDailyFeedLogs deletes every log of the cow for the date and inserts logs, atomically.
func (r *FeedLogRepository) ReplaceDailyFeedLogs(ctx context.Context, cowID, date string, logs []entity.FeedLog) error {
	// Start a transaction
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM feed_logs WHERE cow_id = ? AND log_date = ?`, cowID, date)
	if err != nil {
		tx.Rollback()
		return err
	}

	if len(logs) > 0 {
		query := `INSERT INTO feed_logs (id, cow_id, log_date, food_name, quantity_kg, notes, date_added, last_updated) VALUES `

		var values []interface{}
		for _, log := range logs {
			query += "(?, ?, ?, ?, ?, ?, ?, ?),"
			values = append(values, log.ID, log.CowID, log.Date, log.FoodName, log.QuantityKg, log.Notes, log.DateAdded, log.LastUpdated)
		}

		// Remove the trailing comma
		query = query[:len(query)-1]

		if _, err := tx.ExecContext(ctx, query, values...); err != nil {
			tx.Rollback()
			return err
		}
	}

	// Commit the transaction
	return tx.Commit()
}

// DeleteFeedLogsForDay reports false when the cow had no logs for the date.
func (r *FeedLogRepository) DeleteFeedLogsForDay(ctx context.Context, cowID, date string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM feed_logs WHERE cow_id = ? AND log_date = ?`, cowID, date)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *FeedLogRepository) GetFeedLogsByCowAndDate(ctx context.Context, cowID, date string) ([]entity.FeedLog, error) {
	query := `SELECT id, cow_id, log_date, food_name, quantity_kg, notes, date_added, last_updated
		FROM feed_logs WHERE cow_id = ? AND log_date = ? ORDER BY food_name`
	rows, err := r.db.QueryContext(ctx, query, cowID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []entity.FeedLog{}
	for rows.Next() {
		var log entity.FeedLog
		if err := rows.Scan(&log.ID, &log.CowID, &log.Date, &log.FoodName, &log.QuantityKg, &log.Notes, &log.DateAdded, &log.LastUpdated); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}
