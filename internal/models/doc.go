// Package models defines the core domain models for the ledger bot.
//
// # Models
//
//   - Record: one ledger entry (expense or income) in a conversation
//   - RankedRecord: a record joined with its display id for listings
//   - ManualMember: a name-only participant with no platform identity
//   - SettlementPayment: a recorded peer-to-peer transfer used to net
//     against computed settlement deltas
//   - Window: a half-open [start, end) time window for queries
//
// # Design Principles
//
//  1. **Integer money**: amounts are int64 in the smallest currency unit.
//     No floating-point value is ever persisted or compared for equality.
//  2. **Conversation scoping**: every row carries the chat id
//     ("group:<id>", "room:<id>" or "user:<id>"); nothing is visible
//     across conversations.
//  3. **Stable vs display identity**: Record.ID is permanent; the display
//     id users type is a recency rank recomputed per query and therefore
//     lives on RankedRecord, never on Record.
package models
