package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const expenseColumns = `id, description, amount, category, occurred_at, paid_by_user_id, split_type,
	group_id, created_by, receipt_storage_id, created_at`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// CreateExpense persists a new expense and its splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Description, expense.Amount, expense.Category, expense.Date,
		expense.PaidByUserID, string(expense.SplitType), nullable(expense.GroupID),
		expense.CreatedBy, nullable(expense.ReceiptStorageID), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, split := range expense.Splits {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, position, user_id, amount, paid) VALUES (?, ?, ?, ?, ?)",
			expense.ID, i, split.UserID, split.Amount, split.Paid,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?",
		expenseID,
	)
	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := loadSplits(ctx, s.db, []*models.Expense{expense}); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListIndividualExpensesPaidBy returns the expenses without a group paid by userID.
func (s *SQLiteStore) ListIndividualExpensesPaidBy(ctx context.Context, userID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE paid_by_user_id = ? AND group_id IS NULL",
		userID,
	)
}

// ListExpensesByGroup returns all expenses of a group, most recent first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY occurred_at DESC",
		groupID,
	)
}

// ListExpensesInvolving returns the expenses userID paid or has a split in
// dated at or after since, most recent first.
func (s *SQLiteStore) ListExpensesInvolving(ctx context.Context, userID string, since int64) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE occurred_at >= ?
		   AND (paid_by_user_id = ? OR id IN (SELECT expense_id FROM expense_splits WHERE user_id = ?))
		 ORDER BY occurred_at DESC`,
		since, userID, userID,
	)
}

func (s *SQLiteStore) listExpenses(ctx context.Context, query string, args ...interface{}) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	if err := loadSplits(ctx, s.db, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// DeleteExpense removes an expense and its settlement links in one
// transaction. The first statement is a write, so the write lock is held
// before any link is read and concurrent deletions run one after the other.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) (*storage.ExpenseDeletion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	affected, err := unlinkExpense(ctx, tx, expenseID)
	if err != nil {
		return nil, err
	}

	deletion := &storage.ExpenseDeletion{ExpenseID: expenseID}
	for _, settlementID := range affected {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM settlements WHERE id = ?
			 AND NOT EXISTS (SELECT 1 FROM settlement_expenses WHERE settlement_id = ?)`,
			settlementID, settlementID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to delete settlement: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			deletion.DeletedSettlementIDs = append(deletion.DeletedSettlementIDs, settlementID)
		} else {
			deletion.PatchedSettlementIDs = append(deletion.PatchedSettlementIDs, settlementID)
		}
	}

	// Splits go with the expense through ON DELETE CASCADE.
	res, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to delete expense: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return deletion, nil
}

// unlinkExpense removes expenseID from every settlement's related list and
// returns the distinct settlements that referenced it, in first-seen order.
func unlinkExpense(ctx context.Context, q queryer, expenseID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"DELETE FROM settlement_expenses WHERE expense_id = ? RETURNING settlement_id",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to unlink settlements: %w", err)
	}
	defer rows.Close()

	var ids []string
	seen := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan settlement id: %w", err)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlement ids: %w", err)
	}
	return ids, nil
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var splitType string
	var groupID, receiptID sql.NullString

	err := row.Scan(
		&expense.ID,
		&expense.Description,
		&expense.Amount,
		&expense.Category,
		&expense.Date,
		&expense.PaidByUserID,
		&splitType,
		&groupID,
		&expense.CreatedBy,
		&receiptID,
		&expense.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	expense.SplitType = models.SplitType(splitType)
	expense.GroupID = groupID.String
	expense.ReceiptStorageID = receiptID.String
	return expense, nil
}

// loadSplits fills in the splits of every expense with a single query.
func loadSplits(ctx context.Context, q queryer, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	byID := make(map[string]*models.Expense, len(expenses))
	ids := make([]string, len(expenses))
	for i, e := range expenses {
		byID[e.ID] = e
		ids[i] = e.ID
	}

	rows, err := q.QueryContext(ctx,
		`SELECT expense_id, user_id, amount, paid FROM expense_splits
		 WHERE expense_id IN (`+placeholders(len(ids))+`)
		 ORDER BY expense_id, position`,
		stringArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("failed to get splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID string
		var split models.Split
		if err := rows.Scan(&expenseID, &split.UserID, &split.Amount, &split.Paid); err != nil {
			return fmt.Errorf("failed to scan split: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.Splits = append(e.Splits, split)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate splits: %w", err)
	}
	return nil
}
