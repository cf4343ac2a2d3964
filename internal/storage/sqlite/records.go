package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pinghanh/ledgerbot/internal/models"
	"github.com/pinghanh/ledgerbot/internal/storage"
)

// InsertRecord persists a new record and populates its stable ID.
func (s *SQLiteStore) InsertRecord(ctx context.Context, record *models.Record) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO records (user_id, chat_id, item, amount, record_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.UserID, record.ChatID, record.Item, record.Amount,
		record.RecordType, toDBTime(record.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted record id: %w", err)
	}
	record.ID = id
	return nil
}

func scanRecord(row *sql.Row) (*models.Record, error) {
	record := &models.Record{}
	var createdAt string
	err := row.Scan(&record.ID, &record.ChatID, &record.UserID,
		&record.Item, &record.Amount, &record.RecordType, &createdAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan record: %w", err)
	}
	if record.CreatedAt, err = fromDBTime(createdAt); err != nil {
		return nil, err
	}
	return record, nil
}

// GetRecord fetches a record by its stable id within a conversation.
func (s *SQLiteStore) GetRecord(ctx context.Context, chatID string, id int64) (*models.Record, error) {
	return scanRecord(s.db.QueryRowContext(ctx,
		`SELECT id, chat_id, user_id, item, amount, record_type, created_at
		 FROM records WHERE chat_id = ? AND id = ?`,
		chatID, id,
	))
}

// GetRecordByRank fetches the rank-th most recent record of a conversation.
func (s *SQLiteStore) GetRecordByRank(ctx context.Context, chatID string, rank int) (*models.Record, error) {
	if rank <= 0 {
		return nil, storage.ErrNotFound
	}
	return scanRecord(s.db.QueryRowContext(ctx,
		`SELECT id, chat_id, user_id, item, amount, record_type, created_at
		 FROM records WHERE chat_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1 OFFSET ?`,
		chatID, rank-1,
	))
}

// UpdateRecord rewrites item, amount, type and timestamp of a record.
func (s *SQLiteStore) UpdateRecord(ctx context.Context, record *models.Record) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE records SET item = ?, amount = ?, record_type = ?, created_at = ?
		 WHERE chat_id = ? AND id = ?`,
		record.Item, record.Amount, record.RecordType, toDBTime(record.CreatedAt),
		record.ChatID, record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update count: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteRecord removes a record by stable id.
func (s *SQLiteStore) DeleteRecord(ctx context.Context, chatID string, id int64) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE chat_id = ? AND id = ?", chatID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete count: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountRecords returns the number of records in a conversation.
func (s *SQLiteStore) CountRecords(ctx context.Context, chatID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records WHERE chat_id = ?", chatID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// SumByType sums amounts of the given record type over a window.
func (s *SQLiteStore) SumByType(ctx context.Context, chatID, recordType string, w models.Window) (int64, error) {
	clause, windowArgs := windowClause(w)
	args := append([]any{chatID, recordType}, windowArgs...)

	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM records
		 WHERE chat_id = ? AND record_type = ?`+clause,
		args...,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum records: %w", err)
	}
	return total, nil
}

// PaidByContributor sums expense amounts per contributor over a window.
func (s *SQLiteStore) PaidByContributor(ctx context.Context, chatID string, w models.Window) ([]models.ContributorTotal, error) {
	clause, windowArgs := windowClause(w)
	args := append([]any{chatID, models.TypeExpense}, windowArgs...)

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, COALESCE(SUM(amount), 0) AS paid
		 FROM records
		 WHERE chat_id = ? AND record_type = ?`+clause+`
		 GROUP BY user_id
		 ORDER BY paid DESC, user_id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to sum by contributor: %w", err)
	}
	defer rows.Close()

	var totals []models.ContributorTotal
	for rows.Next() {
		var t models.ContributorTotal
		if err := rows.Scan(&t.UserID, &t.Paid); err != nil {
			return nil, fmt.Errorf("failed to scan contributor total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributor totals: %w", err)
	}
	return totals, nil
}

// ListRecords returns up to limit records in a window, most recent first.
// The display id is the record's rank within the whole conversation, so a
// range-filtered listing still shows the ids delete/modify commands expect.
func (s *SQLiteStore) ListRecords(ctx context.Context, chatID string, w models.Window, limit int) ([]models.RankedRecord, error) {
	clause, windowArgs := windowClause(w)
	args := append([]any{chatID}, windowArgs...)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT
		     r.id, r.chat_id, r.user_id, r.item, r.amount, r.record_type, r.created_at,
		     (
		         SELECT COUNT(*)
		         FROM records AS seq
		         WHERE seq.chat_id = r.chat_id
		           AND (
		               seq.created_at > r.created_at
		               OR (seq.created_at = r.created_at AND seq.id >= r.id)
		           )
		     ) AS display_id
		 FROM records AS r
		 WHERE r.chat_id = ?`+clause+`
		 ORDER BY r.created_at DESC, r.id DESC
		 LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []models.RankedRecord
	for rows.Next() {
		var rec models.RankedRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.ChatID, &rec.UserID, &rec.Item,
			&rec.Amount, &rec.RecordType, &createdAt, &rec.DisplayID); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if rec.CreatedAt, err = fromDBTime(createdAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}
