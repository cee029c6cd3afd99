package ledger

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
)

// GroupBalances summarizes who owes whom inside a group.
type GroupBalances struct {
	GroupID  string
	Balances []calculator.MemberBalance
	Debts    []calculator.DebtEdge
}

// GetGroupBalances aggregates a group's expenses and settlements into
// per-member balances and a simplified list of debts.
func (l *Ledger) GetGroupBalances(ctx context.Context, callerID, groupID string) (*GroupBalances, error) {
	if callerID == "" {
		return nil, ErrAuthenticationRequired
	}
	group, err := l.requireMember(ctx, callerID, groupID)
	if err != nil {
		return nil, err
	}

	var expenses []*models.Expense
	var settlements []*models.Settlement

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = l.store.ListExpensesByGroup(gctx, groupID)
		return err
	})
	g.Go(func() error {
		var err error
		settlements, err = l.store.ListSettlementsByGroup(gctx, groupID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, persistenceFailure("GetGroupBalances", err, "group_id", groupID)
	}

	balances, debts := calculator.CalculateGroupBalances(group.MemberIDs(), expenses, settlements)
	return &GroupBalances{GroupID: groupID, Balances: balances, Debts: debts}, nil
}
