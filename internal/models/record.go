package models

import "time"

// Record types. Stored verbatim; English synonyms are normalized to these
// at parse time.
const (
	TypeExpense = "支出"
	TypeIncome  = "收入"
)

// Record represents one ledger entry in a conversation.
type Record struct {
	// ID is the stable identifier, assigned once at creation (monotonic).
	ID int64

	// ChatID is the conversation this record belongs to.
	ChatID string

	// UserID is the contributor: the message author's platform id, or a
	// "manual:<name>" placeholder for people booked via @名字.
	UserID string

	// Item is the free-text label for the entry.
	Item string

	// Amount is the value in the smallest currency unit. Always > 0.
	Amount int64

	// RecordType is TypeExpense or TypeIncome.
	RecordType string

	// CreatedAt is the entry timestamp, local time, second precision.
	CreatedAt time.Time
}

// RankedRecord is a record joined with its display id: the 1-based rank of
// the record within its conversation, most-recent-first, ties broken by
// stable id descending. Recomputed per query, never stored.
type RankedRecord struct {
	Record
	DisplayID int
}

// ContributorTotal is one contributor's summed expense over a window.
type ContributorTotal struct {
	UserID string
	Paid   int64
}

// Window is a half-open [Start, End) time window. A nil bound is unbounded.
type Window struct {
	Start *time.Time
	End   *time.Time
}
