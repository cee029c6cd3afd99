// Package postgres provides a PostgreSQL-backed implementation of the storage.Store interface.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store implements storage.Store on a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and applies migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate applies the embedded schema migrations through a database/sql
// handle borrowed from pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	fsys, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	_, err = provider.Up(ctx)
	return err
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// === Expenses ===

const expenseColumns = `id, description, amount, category, occurred_at, paid_by_user_id, split_type,
	group_id, created_by, receipt_storage_id, created_at`

func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(
		`INSERT INTO expenses (`+expenseColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		expense.ID, expense.Description, expense.Amount, expense.Category, expense.Date,
		expense.PaidByUserID, string(expense.SplitType), nullable(expense.GroupID),
		expense.CreatedBy, nullable(expense.ReceiptStorageID), expense.CreatedAt,
	)
	for i, split := range expense.Splits {
		batch.Queue(
			"INSERT INTO expense_splits (expense_id, position, user_id, amount, paid) VALUES ($1, $2, $3, $4, $5)",
			expense.ID, i, split.UserID, split.Amount, split.Paid,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.pool.QueryRow(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = $1", expenseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	if err := s.loadSplits(ctx, []*models.Expense{expense}); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *Store) ListIndividualExpensesPaidBy(ctx context.Context, userID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE paid_by_user_id = $1 AND group_id IS NULL",
		userID)
}

func (s *Store) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = $1 ORDER BY occurred_at DESC",
		groupID)
}

func (s *Store) ListExpensesInvolving(ctx context.Context, userID string, since int64) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE occurred_at >= $2
		   AND (paid_by_user_id = $1 OR id IN (SELECT expense_id FROM expense_splits WHERE user_id = $1))
		 ORDER BY occurred_at DESC`,
		userID, since)
}

func (s *Store) listExpenses(ctx context.Context, query string, args ...interface{}) ([]*models.Expense, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	expenses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Expense, error) {
		return scanExpense(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan expenses: %w", err)
	}
	if err := s.loadSplits(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) DeleteExpense(ctx context.Context, expenseID string) (*storage.ExpenseDeletion, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id string
	err = tx.QueryRow(ctx, "SELECT id FROM expenses WHERE id = $1 FOR UPDATE", expenseID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock expense: %w", err)
	}

	// Settlement rows are locked in id order so two deletions sharing a
	// settlement queue on it instead of each seeing the other's link.
	rows, err := tx.Query(ctx,
		`SELECT id FROM settlements
		 WHERE id IN (SELECT settlement_id FROM settlement_expenses WHERE expense_id = $1)
		 ORDER BY id FOR UPDATE`,
		expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock settlements: %w", err)
	}
	affected, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to lock settlements: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM settlement_expenses WHERE expense_id = $1", expenseID); err != nil {
		return nil, fmt.Errorf("failed to unlink settlements: %w", err)
	}

	deletion := &storage.ExpenseDeletion{ExpenseID: expenseID}
	if len(affected) > 0 {
		rows, err := tx.Query(ctx,
			`DELETE FROM settlements s WHERE s.id = ANY($1)
			 AND NOT EXISTS (SELECT 1 FROM settlement_expenses se WHERE se.settlement_id = s.id)
			 RETURNING s.id`,
			affected)
		if err != nil {
			return nil, fmt.Errorf("failed to delete settlements: %w", err)
		}
		deleted, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return nil, fmt.Errorf("failed to delete settlements: %w", err)
		}
		gone := make(map[string]bool, len(deleted))
		for _, id := range deleted {
			gone[id] = true
		}
		for _, id := range affected {
			if gone[id] {
				deletion.DeletedSettlementIDs = append(deletion.DeletedSettlementIDs, id)
			} else {
				deletion.PatchedSettlementIDs = append(deletion.PatchedSettlementIDs, id)
			}
		}
	}

	if _, err := tx.Exec(ctx, "DELETE FROM expenses WHERE id = $1", expenseID); err != nil {
		return nil, fmt.Errorf("failed to delete expense: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return deletion, nil
}

func scanExpense(row pgx.Row) (*models.Expense, error) {
	expense := &models.Expense{}
	var splitType string
	var groupID, receiptID *string
	err := row.Scan(
		&expense.ID, &expense.Description, &expense.Amount, &expense.Category, &expense.Date,
		&expense.PaidByUserID, &splitType, &groupID, &expense.CreatedBy, &receiptID, &expense.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	expense.SplitType = models.SplitType(splitType)
	expense.GroupID = deref(groupID)
	expense.ReceiptStorageID = deref(receiptID)
	return expense, nil
}

func (s *Store) loadSplits(ctx context.Context, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	byID := make(map[string]*models.Expense, len(expenses))
	ids := make([]string, len(expenses))
	for i, e := range expenses {
		byID[e.ID] = e
		ids[i] = e.ID
	}

	rows, err := s.pool.Query(ctx,
		`SELECT expense_id, user_id, amount, paid FROM expense_splits
		 WHERE expense_id = ANY($1) ORDER BY expense_id, position`, ids)
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
	return rows.Err()
}

// === Settlements ===

const settlementColumns = `id, paid_by_user_id, received_by_user_id, amount, occurred_at,
	group_id, note, created_by, created_at`

func (s *Store) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(
		`INSERT INTO settlements (`+settlementColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		settlement.ID, settlement.PaidByUserID, settlement.ReceivedByUserID,
		settlement.Amount, settlement.Date, nullable(settlement.GroupID),
		nullable(settlement.Note), settlement.CreatedBy, settlement.CreatedAt,
	)
	for i, expenseID := range settlement.RelatedExpenseIDs {
		batch.Queue(
			"INSERT INTO settlement_expenses (settlement_id, position, expense_id) VALUES ($1, $2, $3)",
			settlement.ID, i, expenseID,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	settlement, err := scanSettlement(s.pool.QueryRow(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE id = $1", settlementID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	if err := s.loadRelatedExpenses(ctx, []*models.Settlement{settlement}); err != nil {
		return nil, err
	}
	return settlement, nil
}

func (s *Store) ListIndividualSettlementsBetween(ctx context.Context, a, b string) ([]*models.Settlement, error) {
	return s.listSettlements(ctx,
		`SELECT `+settlementColumns+` FROM settlements
		 WHERE group_id IS NULL
		   AND ((paid_by_user_id = $1 AND received_by_user_id = $2)
		     OR (paid_by_user_id = $2 AND received_by_user_id = $1))`,
		a, b)
}

func (s *Store) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	return s.listSettlements(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE group_id = $1 ORDER BY occurred_at DESC",
		groupID)
}

func (s *Store) ListIndividualSettlementsInvolving(ctx context.Context, userID string) ([]*models.Settlement, error) {
	return s.listSettlements(ctx,
		`SELECT `+settlementColumns+` FROM settlements
		 WHERE group_id IS NULL AND (paid_by_user_id = $1 OR received_by_user_id = $1)
		 ORDER BY occurred_at DESC`,
		userID)
}

func (s *Store) listSettlements(ctx context.Context, query string, args ...interface{}) ([]*models.Settlement, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	settlements, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Settlement, error) {
		return scanSettlement(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan settlements: %w", err)
	}
	if err := s.loadRelatedExpenses(ctx, settlements); err != nil {
		return nil, err
	}
	return settlements, nil
}

func scanSettlement(row pgx.Row) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var groupID, note *string
	err := row.Scan(
		&settlement.ID, &settlement.PaidByUserID, &settlement.ReceivedByUserID, &settlement.Amount,
		&settlement.Date, &groupID, &note, &settlement.CreatedBy, &settlement.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	settlement.GroupID = deref(groupID)
	settlement.Note = deref(note)
	return settlement, nil
}

func (s *Store) loadRelatedExpenses(ctx context.Context, settlements []*models.Settlement) error {
	if len(settlements) == 0 {
		return nil
	}
	byID := make(map[string]*models.Settlement, len(settlements))
	ids := make([]string, len(settlements))
	for i, st := range settlements {
		byID[st.ID] = st
		ids[i] = st.ID
	}

	rows, err := s.pool.Query(ctx,
		`SELECT settlement_id, expense_id FROM settlement_expenses
		 WHERE settlement_id = ANY($1) ORDER BY settlement_id, position`, ids)
	if err != nil {
		return fmt.Errorf("failed to get related expenses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var settlementID, expenseID string
		if err := rows.Scan(&settlementID, &expenseID); err != nil {
			return fmt.Errorf("failed to scan related expense: %w", err)
		}
		if st, ok := byID[settlementID]; ok {
			st.RelatedExpenseIDs = append(st.RelatedExpenseIDs, expenseID)
		}
	}
	return rows.Err()
}

// === Groups ===

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(
		"INSERT INTO expense_groups (id, name, description, created_by, created_at) VALUES ($1, $2, $3, $4, $5)",
		group.ID, group.Name, nullable(group.Description), group.CreatedBy, group.CreatedAt,
	)
	for i := range group.Members {
		member := &group.Members[i]
		if member.Role == "" {
			member.Role = models.RoleMember
		}
		if member.JoinedAt == 0 {
			member.JoinedAt = group.CreatedAt
		}
		batch.Queue(
			"INSERT INTO group_members (group_id, user_id, role, joined_at, position) VALUES ($1, $2, $3, $4, $5)",
			group.ID, member.UserID, member.Role, member.JoinedAt, i,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := scanGroup(s.pool.QueryRow(ctx,
		"SELECT id, name, description, created_by, created_at FROM expense_groups WHERE id = $1", groupID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	if err := s.loadMembers(ctx, []*models.Group{group}); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *Store) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT g.id, g.name, g.description, g.created_by, g.created_at
		 FROM expense_groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = $1
		 ORDER BY g.created_at DESC, g.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	groups, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Group, error) {
		return scanGroup(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan groups: %w", err)
	}
	if err := s.loadMembers(ctx, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func scanGroup(row pgx.Row) (*models.Group, error) {
	group := &models.Group{}
	var description *string
	if err := row.Scan(&group.ID, &group.Name, &description, &group.CreatedBy, &group.CreatedAt); err != nil {
		return nil, err
	}
	group.Description = deref(description)
	return group, nil
}

func (s *Store) loadMembers(ctx context.Context, groups []*models.Group) error {
	if len(groups) == 0 {
		return nil
	}
	byID := make(map[string]*models.Group, len(groups))
	ids := make([]string, len(groups))
	for i, g := range groups {
		byID[g.ID] = g
		ids[i] = g.ID
	}

	rows, err := s.pool.Query(ctx,
		`SELECT group_id, user_id, role, joined_at FROM group_members
		 WHERE group_id = ANY($1) ORDER BY group_id, position`, ids)
	if err != nil {
		return fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var groupID string
		var member models.GroupMember
		if err := rows.Scan(&groupID, &member.UserID, &member.Role, &member.JoinedAt); err != nil {
			return fmt.Errorf("failed to scan member: %w", err)
		}
		if g, ok := byID[groupID]; ok {
			g.Members = append(g.Members, member)
		}
	}
	return rows.Err()
}

// === Users ===

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, image_url, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.Name, nullable(user.ImageURL), user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

// getUser looks a user up by a unique column. column is never user input.
func (s *Store) getUser(ctx context.Context, column, value string) (*models.User, error) {
	user := &models.User{}
	var imageURL *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, image_url, password_hash, created_at, updated_at
		 FROM users WHERE `+column+` = $1`, value,
	).Scan(&user.ID, &user.Email, &user.Name, &imageURL, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", value, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	user.ImageURL = deref(imageURL)
	return user, nil
}
