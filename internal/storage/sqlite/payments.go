package sqlite

import (
	"context"
	"fmt"

	"github.com/pinghanh/ledgerbot/internal/models"
)

// InsertPayment records a settlement payment and populates its ID.
func (s *SQLiteStore) InsertPayment(ctx context.Context, payment *models.SettlementPayment) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO settlement_payments (chat_id, from_user_id, to_name, amount, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		payment.ChatID, payment.FromUserID, payment.ToName,
		payment.Amount, toDBTime(payment.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted payment id: %w", err)
	}
	payment.ID = id
	return nil
}

// ListPayments lists settlement payments over a window, oldest first.
func (s *SQLiteStore) ListPayments(ctx context.Context, chatID string, w models.Window) ([]models.SettlementPayment, error) {
	clause, windowArgs := windowClause(w)
	args := append([]any{chatID}, windowArgs...)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, chat_id, from_user_id, to_name, amount, created_at
		 FROM settlement_payments
		 WHERE chat_id = ?`+clause+`
		 ORDER BY created_at, id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.SettlementPayment
	for rows.Next() {
		var p models.SettlementPayment
		var createdAt string
		if err := rows.Scan(&p.ID, &p.ChatID, &p.FromUserID, &p.ToName,
			&p.Amount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		if p.CreatedAt, err = fromDBTime(createdAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}
