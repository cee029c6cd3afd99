package ledger

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Between is the shared history of two users outside any group.
type Between struct {
	// Expenses involving both users, most recent first.
	Expenses []*models.Expense

	// Settlements between the two users in either direction, most recent first.
	Settlements []*models.Settlement

	// OtherUser is the public profile of the target user.
	OtherUser models.Profile

	// Balance is positive when the target owes the caller and negative
	// when the caller owes the target.
	Balance float64
}

// GetExpensesBetweenUsers returns the individual expenses and settlements
// shared by callerID and targetID along with the net balance between them.
func (l *Ledger) GetExpensesBetweenUsers(ctx context.Context, callerID, targetID string) (*Between, error) {
	if callerID == "" {
		return nil, ErrAuthenticationRequired
	}
	if targetID == callerID {
		return nil, ErrSelfQuery
	}

	var paidByCaller, paidByTarget []*models.Expense
	var settlements []*models.Settlement

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		paidByCaller, err = l.store.ListIndividualExpensesPaidBy(gctx, callerID)
		return err
	})
	g.Go(func() error {
		var err error
		paidByTarget, err = l.store.ListIndividualExpensesPaidBy(gctx, targetID)
		return err
	})
	g.Go(func() error {
		var err error
		settlements, err = l.store.ListIndividualSettlementsBetween(gctx, callerID, targetID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, persistenceFailure("GetExpensesBetweenUsers", err, "caller_id", callerID, "target_id", targetID)
	}

	expenses := make([]*models.Expense, 0, len(paidByCaller)+len(paidByTarget))
	for _, candidates := range [][]*models.Expense{paidByCaller, paidByTarget} {
		for _, e := range candidates {
			if e.Involves(callerID) && e.Involves(targetID) {
				expenses = append(expenses, e)
			}
		}
	}

	sort.SliceStable(expenses, func(i, j int) bool {
		return expenses[i].Date > expenses[j].Date
	})
	sort.SliceStable(settlements, func(i, j int) bool {
		return settlements[i].Date > settlements[j].Date
	})

	balance := netBalance(callerID, targetID, expenses, settlements)

	target, err := l.store.GetUserByID(ctx, targetID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, persistenceFailure("GetExpensesBetweenUsers", err, "target_id", targetID)
	}

	if settlements == nil {
		settlements = []*models.Settlement{}
	}
	return &Between{
		Expenses:    expenses,
		Settlements: settlements,
		OtherUser:   target.Profile(),
		Balance:     balance.InexactFloat64(),
	}, nil
}

// netBalance computes what target owes caller. Paid splits are the payer's
// own share and never count.
func netBalance(callerID, targetID string, expenses []*models.Expense, settlements []*models.Settlement) decimal.Decimal {
	balance := decimal.Zero

	for _, e := range expenses {
		if e.PaidByUserID == callerID {
			if s, ok := e.SplitFor(targetID); ok && !s.Paid {
				balance = balance.Add(decimal.NewFromFloat(s.Amount))
			}
		} else {
			if s, ok := e.SplitFor(callerID); ok && !s.Paid {
				balance = balance.Sub(decimal.NewFromFloat(s.Amount))
			}
		}
	}

	for _, s := range settlements {
		if s.PaidByUserID == callerID {
			balance = balance.Add(decimal.NewFromFloat(s.Amount))
		} else {
			balance = balance.Sub(decimal.NewFromFloat(s.Amount))
		}
	}

	return balance
}
