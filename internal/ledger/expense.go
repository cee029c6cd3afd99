package ledger

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

// NewExpense holds the caller-supplied fields of an expense.
type NewExpense struct {
	Description      string
	Amount           float64
	Category         string
	Date             int64
	PaidByUserID     string
	SplitType        models.SplitType
	Splits           []models.Split
	GroupID          string
	ReceiptStorageID string
}

// CreateExpense validates and stores a new expense on behalf of callerID.
//
// Checks run in order and the first failure is returned: authentication,
// group existence and membership (group expenses only), a non-empty split
// list, and a split total within 0.01 of Amount.
//
// Split.Paid is stored exactly as supplied. A flag that disagrees with
// PaidByUserID is logged but not corrected.
func (l *Ledger) CreateExpense(ctx context.Context, callerID string, in NewExpense) (*models.Expense, error) {
	if callerID == "" {
		return nil, ErrAuthenticationRequired
	}

	if in.GroupID != "" {
		if _, err := l.requireMember(ctx, callerID, in.GroupID); err != nil {
			return nil, err
		}
	}

	if len(in.Splits) == 0 {
		return nil, ErrEmptySplitSet
	}

	if !calculator.WithinTolerance(in.Splits, in.Amount) {
		return nil, &SplitMismatchError{
			SplitTotal: calculator.SplitTotal(in.Splits).InexactFloat64(),
			Amount:     in.Amount,
		}
	}

	for _, s := range in.Splits {
		if s.Paid != (s.UserID == in.PaidByUserID) {
			slog.Warn("CreateExpense: split paid flag disagrees with payer",
				"user_id", s.UserID,
				"paid_by", in.PaidByUserID,
				"paid", s.Paid,
			)
		}
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.DefaultCategory
	}

	expense := &models.Expense{
		Description:      in.Description,
		Amount:           in.Amount,
		Category:         category,
		Date:             in.Date,
		PaidByUserID:     in.PaidByUserID,
		SplitType:        in.SplitType,
		Splits:           append([]models.Split(nil), in.Splits...),
		GroupID:          in.GroupID,
		CreatedBy:        callerID,
		ReceiptStorageID: in.ReceiptStorageID,
	}

	if err := l.store.CreateExpense(ctx, expense); err != nil {
		return nil, persistenceFailure("CreateExpense", err, "created_by", callerID)
	}

	l.metrics.ExpenseCreated()
	slog.Info("Expense created",
		"expense_id", expense.ID,
		"created_by", callerID,
		"group_id", expense.GroupID,
		"amount", expense.Amount,
		"splits", len(expense.Splits),
	)
	return expense, nil
}
