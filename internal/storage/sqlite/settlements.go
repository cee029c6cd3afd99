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

const settlementColumns = `id, paid_by_user_id, received_by_user_id, amount, occurred_at,
	group_id, note, created_by, created_at`

// CreateSettlement persists a new settlement to the database.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	// Generate ID if not set
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO settlements (`+settlementColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.PaidByUserID, settlement.ReceivedByUserID,
		settlement.Amount, settlement.Date, nullable(settlement.GroupID),
		nullable(settlement.Note), settlement.CreatedBy, settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	if err := insertRelatedExpenses(ctx, tx, settlement.ID, settlement.RelatedExpenseIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE id = ?",
		settlementID,
	)
	settlement, err := scanSettlement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	if err := loadRelatedExpenses(ctx, s.db, []*models.Settlement{settlement}); err != nil {
		return nil, err
	}
	return settlement, nil
}

// ListIndividualSettlementsBetween retrieves the non-group settlements between two users.
func (s *SQLiteStore) ListIndividualSettlementsBetween(ctx context.Context, a, b string) ([]*models.Settlement, error) {
	return s.listSettlements(ctx,
		`SELECT `+settlementColumns+` FROM settlements
		 WHERE group_id IS NULL
		   AND ((paid_by_user_id = ? AND received_by_user_id = ?)
		     OR (paid_by_user_id = ? AND received_by_user_id = ?))`,
		a, b, b, a,
	)
}

// ListSettlementsByGroup retrieves all settlements for a group.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	return s.listSettlements(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE group_id = ? ORDER BY occurred_at DESC",
		groupID,
	)
}

// ListIndividualSettlementsInvolving retrieves the non-group settlements userID paid or received.
func (s *SQLiteStore) ListIndividualSettlementsInvolving(ctx context.Context, userID string) ([]*models.Settlement, error) {
	return s.listSettlements(ctx,
		`SELECT `+settlementColumns+` FROM settlements
		 WHERE group_id IS NULL AND (paid_by_user_id = ? OR received_by_user_id = ?)
		 ORDER BY occurred_at DESC`,
		userID, userID,
	)
}

func (s *SQLiteStore) listSettlements(ctx context.Context, query string, args ...interface{}) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	if err := loadRelatedExpenses(ctx, s.db, settlements); err != nil {
		return nil, err
	}
	return settlements, nil
}

func scanSettlement(row rowScanner) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var groupID, note sql.NullString

	err := row.Scan(
		&settlement.ID,
		&settlement.PaidByUserID,
		&settlement.ReceivedByUserID,
		&settlement.Amount,
		&settlement.Date,
		&groupID,
		&note,
		&settlement.CreatedBy,
		&settlement.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	settlement.GroupID = groupID.String
	settlement.Note = note.String
	return settlement, nil
}

func insertRelatedExpenses(ctx context.Context, q queryer, settlementID string, expenseIDs []string) error {
	for i, expenseID := range expenseIDs {
		_, err := q.ExecContext(ctx,
			"INSERT INTO settlement_expenses (settlement_id, position, expense_id) VALUES (?, ?, ?)",
			settlementID, i, expenseID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert related expense: %w", err)
		}
	}
	return nil
}

func loadRelatedExpenses(ctx context.Context, q queryer, settlements []*models.Settlement) error {
	if len(settlements) == 0 {
		return nil
	}

	byID := make(map[string]*models.Settlement, len(settlements))
	ids := make([]string, len(settlements))
	for i, st := range settlements {
		byID[st.ID] = st
		ids[i] = st.ID
	}

	rows, err := q.QueryContext(ctx,
		`SELECT settlement_id, expense_id FROM settlement_expenses
		 WHERE settlement_id IN (`+placeholders(len(ids))+`)
		 ORDER BY settlement_id, position`,
		stringArgs(ids)...,
	)
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
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate related expenses: %w", err)
	}
	return nil
}
