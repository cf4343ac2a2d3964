package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/pinghanh/ledgerbot/internal/models"
	"github.com/pinghanh/ledgerbot/internal/storage"
)

// UpsertMember registers a manual member; re-registering is a no-op.
func (s *SQLiteStore) UpsertMember(ctx context.Context, chatID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO manual_members (chat_id, name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (chat_id, name) DO NOTHING`,
		chatID, name, toDBTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

// ListMembers lists manual members in registration order.
func (s *SQLiteStore) ListMembers(ctx context.Context, chatID string) ([]models.ManualMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, name, created_at FROM manual_members
		 WHERE chat_id = ? ORDER BY created_at, name`,
		chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.ManualMember
	for rows.Next() {
		var member models.ManualMember
		var createdAt string
		if err := rows.Scan(&member.ChatID, &member.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		if member.CreatedAt, err = fromDBTime(createdAt); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// DeleteMember removes a manual member by name.
func (s *SQLiteStore) DeleteMember(ctx context.Context, chatID, name string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM manual_members WHERE chat_id = ? AND name = ?", chatID, name,
	)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
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
