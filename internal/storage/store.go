// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/pinghanh/ledgerbot/internal/models"
)

// ErrNotFound is returned when a lookup resolves to no row.
var ErrNotFound = errors.New("not found")

// Store defines the narrow get/put/query contract the bot runs against.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the bot layer.
type Store interface {
	// InsertRecord persists a new record and populates its stable ID.
	InsertRecord(ctx context.Context, record *models.Record) error

	// GetRecord fetches a record by its stable id within a conversation.
	// Returns ErrNotFound when absent.
	GetRecord(ctx context.Context, chatID string, id int64) (*models.Record, error)

	// GetRecordByRank fetches the rank-th most recent record of a
	// conversation (1-based, ties broken by stable id descending).
	// Returns ErrNotFound when the conversation has fewer records.
	GetRecordByRank(ctx context.Context, chatID string, rank int) (*models.Record, error)

	// UpdateRecord rewrites item, amount, type and timestamp of a record.
	// Returns ErrNotFound when the record no longer exists.
	UpdateRecord(ctx context.Context, record *models.Record) error

	// DeleteRecord removes a record by stable id. Returns ErrNotFound
	// when nothing was deleted.
	DeleteRecord(ctx context.Context, chatID string, id int64) error

	// CountRecords returns the number of records in a conversation.
	CountRecords(ctx context.Context, chatID string) (int, error)

	// SumByType sums amounts of the given record type over a window.
	SumByType(ctx context.Context, chatID, recordType string, w models.Window) (int64, error)

	// PaidByContributor sums expense amounts per contributor over a
	// window, ordered by paid amount descending.
	PaidByContributor(ctx context.Context, chatID string, w models.Window) ([]models.ContributorTotal, error)

	// ListRecords returns up to limit records in a window, most recent
	// first, each with its display id computed against the full
	// conversation history.
	ListRecords(ctx context.Context, chatID string, w models.Window, limit int) ([]models.RankedRecord, error)

	// UpsertMember registers a manual member; inserting an existing name
	// is a no-op.
	UpsertMember(ctx context.Context, chatID, name string) error

	// ListMembers lists manual members in registration order.
	ListMembers(ctx context.Context, chatID string) ([]models.ManualMember, error)

	// DeleteMember removes a manual member by name. Returns ErrNotFound
	// when absent.
	DeleteMember(ctx context.Context, chatID, name string) error

	// InsertPayment records a settlement payment and populates its ID.
	InsertPayment(ctx context.Context, payment *models.SettlementPayment) error

	// ListPayments lists settlement payments over a window, oldest first.
	ListPayments(ctx context.Context, chatID string, w models.Window) ([]models.SettlementPayment, error)

	// Close releases any resources held by the store.
	Close() error
}
