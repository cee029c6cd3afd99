// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

// ErrNotFound is returned (possibly wrapped) when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ExpenseDeletion reports what changed when an expense was removed.
type ExpenseDeletion struct {
	ExpenseID string

	// PatchedSettlementIDs lost the expense from their related list but
	// still reference other expenses.
	PatchedSettlementIDs []string

	// DeletedSettlementIDs referenced only the expense and were removed.
	DeletedSettlementIDs []string
}

// ExpenseStore persists expenses and their splits.
type ExpenseStore interface {
	// CreateExpense persists a new expense with its splits.
	// The expense.ID and CreatedAt fields are populated by the store when empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense by ID. Returns ErrNotFound if missing.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListIndividualExpensesPaidBy returns the non-group expenses paid by userID.
	// Backed by the (paid_by_user_id, group_id) index.
	ListIndividualExpensesPaidBy(ctx context.Context, userID string) ([]*models.Expense, error)

	// ListExpensesByGroup returns all expenses of a group.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// ListExpensesInvolving returns the expenses, group or individual, that
	// userID paid or holds a split in, dated at or after since (Unix ms).
	ListExpensesInvolving(ctx context.Context, userID string, since int64) ([]*models.Expense, error)

	// DeleteExpense removes an expense and, in the same transaction, drops it
	// from every settlement's related list. Settlements left with no related
	// expenses are deleted. Returns ErrNotFound if the expense is gone.
	DeleteExpense(ctx context.Context, expenseID string) (*ExpenseDeletion, error)
}

// SettlementStore persists settlements.
type SettlementStore interface {
	// CreateSettlement persists a new settlement.
	// The settlement.ID and CreatedAt fields are populated by the store when empty.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// GetSettlement retrieves a settlement by ID. Returns ErrNotFound if missing.
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)

	// ListIndividualSettlementsBetween returns non-group settlements paid
	// in either direction between a and b.
	ListIndividualSettlementsBetween(ctx context.Context, a, b string) ([]*models.Settlement, error)

	// ListSettlementsByGroup returns all settlements of a group.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// ListIndividualSettlementsInvolving returns the non-group settlements
	// userID paid or received.
	ListIndividualSettlementsInvolving(ctx context.Context, userID string) ([]*models.Settlement, error)
}

// GroupStore persists groups and their memberships.
type GroupStore interface {
	// CreateGroup persists a new group with its members.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members. Returns ErrNotFound if missing.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns every group userID is a member of.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrNotFound if no account uses email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns ErrNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Store is the full record store used by the server.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	ExpenseStore
	SettlementStore
	GroupStore
	UserStore

	// Close releases any resources held by the store.
	Close() error
}
