package models

import "time"

// ManualMember is a name-only placeholder participant, used when a human is
// part of the ledger but not reachable through the platform directory.
// Conversation-scoped and keyed by name; upserted on first use.
type ManualMember struct {
	ChatID    string
	Name      string
	CreatedAt time.Time
}

// ManualUserID returns the contributor id under which records booked for a
// manual member are stored.
func ManualUserID(name string) string {
	return "manual:" + name
}

// SettlementPayment is a manually recorded transfer from a contributor to a
// named member. Purely additive bookkeeping consumed by the settlement
// engine as a netting adjustment; never mutated.
type SettlementPayment struct {
	ID         int64
	ChatID     string
	FromUserID string
	ToName     string
	Amount     int64
	CreatedAt  time.Time
}
