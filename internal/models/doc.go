// Package models defines the core domain models for SplitLedger.
//
// # Records
//
//   - User: registered account; its public Profile is what other users see
//   - Group: named set of members; membership authorizes group-scoped writes
//   - Expense: one shared cost with an ordered list of Splits
//   - Settlement: direct payment between two users that reduces a balance
//
// # Design Principles
//
// 1. **IDs, not pointers**: relationships are expressed as ID strings
// 2. **Explicit absence**: an empty GroupID or ReceiptStorageID means "none"
// and is stored as NULL so queries can filter on it deterministically
// 3. **Caller-supplied facts stay as supplied**: Expense.Date and Split.Paid
// come from the client and are not re-derived by the store
package models
