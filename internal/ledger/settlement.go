package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// NewSettlement holds the caller-supplied fields of a settlement.
type NewSettlement struct {
	PaidByUserID      string
	ReceivedByUserID  string
	Amount            float64
	Date              int64
	GroupID           string
	Note              string
	RelatedExpenseIDs []string
}

// CreateSettlement records a payment between two users. The caller must be
// one of the two parties, and a member of the group when one is given.
// Every related expense must exist.
func (l *Ledger) CreateSettlement(ctx context.Context, callerID string, in NewSettlement) (*models.Settlement, error) {
	if callerID == "" {
		return nil, ErrAuthenticationRequired
	}
	if in.PaidByUserID == in.ReceivedByUserID {
		return nil, ErrSelfSettlement
	}
	if callerID != in.PaidByUserID && callerID != in.ReceivedByUserID {
		return nil, ErrNotASettlementParty
	}

	if in.GroupID != "" {
		if _, err := l.requireMember(ctx, callerID, in.GroupID); err != nil {
			return nil, err
		}
	}

	for _, id := range in.RelatedExpenseIDs {
		_, err := l.store.GetExpense(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrExpenseNotFound, id)
		}
		if err != nil {
			return nil, persistenceFailure("CreateSettlement", err, "expense_id", id)
		}
	}

	settlement := &models.Settlement{
		PaidByUserID:      in.PaidByUserID,
		ReceivedByUserID:  in.ReceivedByUserID,
		Amount:            in.Amount,
		Date:              in.Date,
		GroupID:           in.GroupID,
		Note:              in.Note,
		RelatedExpenseIDs: append([]string(nil), in.RelatedExpenseIDs...),
		CreatedBy:         callerID,
	}
	if err := l.store.CreateSettlement(ctx, settlement); err != nil {
		return nil, persistenceFailure("CreateSettlement", err, "created_by", callerID)
	}

	l.metrics.SettlementCreated()
	slog.Info("Settlement recorded",
		"settlement_id", settlement.ID,
		"paid_by", settlement.PaidByUserID,
		"received_by", settlement.ReceivedByUserID,
		"amount", settlement.Amount,
		"group_id", settlement.GroupID,
	)
	return settlement, nil
}
