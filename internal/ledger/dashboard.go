package ledger

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// profileLookups caps concurrent user lookups for one request.
const profileLookups = 8

// Counterparty is a user the caller has an open individual balance with.
type Counterparty struct {
	User models.Profile

	// Amount is always positive; the list it sits in gives the direction.
	Amount float64
}

// UserBalances is the caller's position across all individual expenses.
type UserBalances struct {
	YouOwe       float64
	YouAreOwed   float64
	TotalBalance float64

	// OweTo lists the users the caller owes, largest debt first.
	OweTo []Counterparty

	// OwedBy lists the users who owe the caller, largest debt first.
	OwedBy []Counterparty
}

// GroupSummary is a group the caller belongs to with the caller's net
// position in it. Balance is positive when the group owes the caller.
type GroupSummary struct {
	Group   *models.Group
	Balance float64
}

// MonthlySpending is the caller's share of expenses dated in one month.
type MonthlySpending struct {
	// Month is the first instant of the month in Unix milliseconds, UTC.
	Month int64
	Total float64
}

// GetUserBalances nets the caller's individual expenses and settlements
// against every other user. Each counterparty's balance is computed the
// same way as GetExpensesBetweenUsers, so the two always agree.
func (l *Ledger) GetUserBalances(ctx context.Context, callerID string) (*UserBalances, error) {
	if callerID == "" {
		return nil, ErrAuthenticationRequired
	}

	var expenses []*models.Expense
	var settlements []*models.Settlement

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = l.store.ListExpensesInvolving(gctx, callerID, 0)
		return err
	})
	g.Go(func() error {
		var err error
		settlements, err = l.store.ListIndividualSettlementsInvolving(gctx, callerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, persistenceFailure("GetUserBalances", err, "caller_id", callerID)
	}

	expensesWith := make(map[string][]*models.Expense)
	var order []string
	track := func(id string) {
		if _, ok := expensesWith[id]; !ok {
			expensesWith[id] = nil
			order = append(order, id)
		}
	}
	for _, e := range expenses {
		if e.GroupID != "" {
			continue
		}
		if e.PaidByUserID == callerID {
			for _, s := range e.Splits {
				if s.UserID != callerID {
					track(s.UserID)
					expensesWith[s.UserID] = append(expensesWith[s.UserID], e)
				}
			}
			continue
		}
		if e.Involves(callerID) {
			track(e.PaidByUserID)
			expensesWith[e.PaidByUserID] = append(expensesWith[e.PaidByUserID], e)
		}
	}

	settlementsWith := make(map[string][]*models.Settlement)
	for _, s := range settlements {
		other := s.ReceivedByUserID
		if other == callerID {
			other = s.PaidByUserID
		}
		track(other)
		settlementsWith[other] = append(settlementsWith[other], s)
	}

	type open struct {
		userID string
		net    decimal.Decimal
	}
	var balances []open
	for _, other := range order {
		net := netBalance(callerID, other, expensesWith[other], settlementsWith[other]).Round(2)
		if !net.IsZero() {
			balances = append(balances, open{userID: other, net: net})
		}
	}

	profiles := make([]models.Profile, len(balances))
	lg, lctx := errgroup.WithContext(ctx)
	lg.SetLimit(profileLookups)
	for i, b := range balances {
		lg.Go(func() error {
			u, err := l.store.GetUserByID(lctx, b.userID)
			if errors.Is(err, storage.ErrNotFound) {
				profiles[i] = models.Profile{ID: b.userID}
				return nil
			}
			if err != nil {
				return err
			}
			profiles[i] = u.Profile()
			return nil
		})
	}
	if err := lg.Wait(); err != nil {
		return nil, persistenceFailure("GetUserBalances", err, "caller_id", callerID)
	}

	out := &UserBalances{OweTo: []Counterparty{}, OwedBy: []Counterparty{}}
	owe, owed := decimal.Zero, decimal.Zero
	for i, b := range balances {
		if b.net.IsPositive() {
			owed = owed.Add(b.net)
			out.OwedBy = append(out.OwedBy, Counterparty{User: profiles[i], Amount: b.net.InexactFloat64()})
		} else {
			owe = owe.Add(b.net.Neg())
			out.OweTo = append(out.OweTo, Counterparty{User: profiles[i], Amount: b.net.Neg().InexactFloat64()})
		}
	}
	byAmount := func(list []Counterparty) func(i, j int) bool {
		return func(i, j int) bool { return list[i].Amount > list[j].Amount }
	}
	sort.SliceStable(out.OweTo, byAmount(out.OweTo))
	sort.SliceStable(out.OwedBy, byAmount(out.OwedBy))

	out.YouOwe = owe.InexactFloat64()
	out.YouAreOwed = owed.InexactFloat64()
	out.TotalBalance = owed.Sub(owe).InexactFloat64()
	return out, nil
}

// GetUserGroups lists the caller's groups with the caller's net balance in each.
func (l *Ledger) GetUserGroups(ctx context.Context, callerID string) ([]GroupSummary, error) {
	if callerID == "" {
		return nil, ErrAuthenticationRequired
	}

	groups, err := l.store.ListGroupsForUser(ctx, callerID)
	if err != nil {
		return nil, persistenceFailure("GetUserGroups", err, "caller_id", callerID)
	}

	summaries := make([]GroupSummary, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(profileLookups)
	for i, group := range groups {
		g.Go(func() error {
			expenses, err := l.store.ListExpensesByGroup(gctx, group.ID)
			if err != nil {
				return err
			}
			settlements, err := l.store.ListSettlementsByGroup(gctx, group.ID)
			if err != nil {
				return err
			}
			summaries[i] = GroupSummary{Group: group}
			balances, _ := calculator.CalculateGroupBalances(group.MemberIDs(), expenses, settlements)
			for _, b := range balances {
				if b.UserID == callerID {
					summaries[i].Balance = b.NetBalance
					break
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, persistenceFailure("GetUserGroups", err, "caller_id", callerID)
	}
	return summaries, nil
}

// GetTotalSpent sums the caller's own share of every expense dated in the
// current calendar year (UTC), group expenses included.
func (l *Ledger) GetTotalSpent(ctx context.Context, callerID string) (float64, error) {
	if callerID == "" {
		return 0, ErrAuthenticationRequired
	}

	expenses, err := l.store.ListExpensesInvolving(ctx, callerID, l.yearStart().UnixMilli())
	if err != nil {
		return 0, persistenceFailure("GetTotalSpent", err, "caller_id", callerID)
	}

	total := decimal.Zero
	for _, e := range expenses {
		if s, ok := e.SplitFor(callerID); ok {
			total = total.Add(decimal.NewFromFloat(s.Amount))
		}
	}
	return total.Round(2).InexactFloat64(), nil
}

// GetMonthlySpending breaks GetTotalSpent down by month. It always returns
// twelve entries, January first, with zero for months without expenses.
func (l *Ledger) GetMonthlySpending(ctx context.Context, callerID string) ([]MonthlySpending, error) {
	if callerID == "" {
		return nil, ErrAuthenticationRequired
	}

	start := l.yearStart()
	expenses, err := l.store.ListExpensesInvolving(ctx, callerID, start.UnixMilli())
	if err != nil {
		return nil, persistenceFailure("GetMonthlySpending", err, "caller_id", callerID)
	}

	var totals [12]decimal.Decimal
	for _, e := range expenses {
		s, ok := e.SplitFor(callerID)
		if !ok {
			continue
		}
		date := time.UnixMilli(e.Date).UTC()
		if date.Year() != start.Year() {
			continue
		}
		m := date.Month() - time.January
		totals[m] = totals[m].Add(decimal.NewFromFloat(s.Amount))
	}

	months := make([]MonthlySpending, 12)
	for i := range months {
		months[i] = MonthlySpending{
			Month: start.AddDate(0, i, 0).UnixMilli(),
			Total: totals[i].Round(2).InexactFloat64(),
		}
	}
	return months, nil
}

func (l *Ledger) yearStart() time.Time {
	now := l.now().UTC()
	return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}
