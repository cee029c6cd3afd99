package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// MemberBalance represents the balance information for one group member.
type MemberBalance struct {
	UserID     string
	NetBalance float64 // Positive = owed money, Negative = owes money
	TotalPaid  float64 // Amount fronted for others plus settlements paid
	TotalOwed  float64 // Unpaid shares plus settlements received
}

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount float64
}

type tally struct {
	paid decimal.Decimal
	owed decimal.Decimal
}

func (t *tally) net() decimal.Decimal {
	return t.paid.Sub(t.owed)
}

// CalculateGroupBalances computes balances across a group's expenses and settlements.
//
// Algorithm:
//   - For each expense: every unpaid split not belonging to the payer is owed
//     to the payer (payer paid +amount, participant owes +amount)
//   - For each settlement: payer's balance improves, receiver's balance decreases
//   - Aggregate: net_balance = total_paid - total_owed
//   - Debt list: simplified using greedy largest-first matching
//
// members lists users in display order; anyone else appearing in the records
// (a former member, say) is appended sorted by ID.
func CalculateGroupBalances(members []string, expenses []*models.Expense, settlements []*models.Settlement) ([]MemberBalance, []DebtEdge) {
	tallies := make(map[string]*tally)
	order := make([]string, 0, len(members))
	get := func(userID string) *tally {
		t, ok := tallies[userID]
		if !ok {
			t = &tally{}
			tallies[userID] = t
		}
		return t
	}

	for _, m := range members {
		if _, ok := tallies[m]; !ok {
			get(m)
			order = append(order, m)
		}
	}

	var extras []string
	track := func(userID string) *tally {
		if _, ok := tallies[userID]; !ok {
			extras = append(extras, userID)
		}
		return get(userID)
	}

	for _, e := range expenses {
		for _, s := range e.Splits {
			if s.Paid || s.UserID == e.PaidByUserID {
				continue
			}
			amt := decimal.NewFromFloat(s.Amount)
			payer := track(e.PaidByUserID)
			payer.paid = payer.paid.Add(amt)
			debtor := track(s.UserID)
			debtor.owed = debtor.owed.Add(amt)
		}
	}

	for _, s := range settlements {
		amt := decimal.NewFromFloat(s.Amount)
		from := track(s.PaidByUserID)
		from.paid = from.paid.Add(amt)
		to := track(s.ReceivedByUserID)
		to.owed = to.owed.Add(amt)
	}

	sort.Strings(extras)
	order = append(order, extras...)

	balances := make([]MemberBalance, 0, len(order))
	for _, id := range order {
		t := tallies[id]
		balances = append(balances, MemberBalance{
			UserID:     id,
			NetBalance: t.net().Round(2).InexactFloat64(),
			TotalPaid:  t.paid.Round(2).InexactFloat64(),
			TotalOwed:  t.owed.Round(2).InexactFloat64(),
		})
	}

	return balances, simplifyDebts(order, tallies)
}

type position struct {
	userID string
	amount decimal.Decimal
}

// simplifyDebts matches the largest debtor with the largest creditor until
// everyone is within a cent of zero.
func simplifyDebts(order []string, tallies map[string]*tally) []DebtEdge {
	var creditors, debtors []position
	for _, id := range order {
		net := tallies[id].net()
		if net.GreaterThan(Tolerance) {
			creditors = append(creditors, position{id, net})
		} else if net.LessThan(Tolerance.Neg()) {
			debtors = append(debtors, position{id, net.Neg()})
		}
	}

	byAmount := func(p []position) func(i, j int) bool {
		return func(i, j int) bool {
			if c := p[i].amount.Cmp(p[j].amount); c != 0 {
				return c > 0
			}
			return p[i].userID < p[j].userID
		}
	}
	sort.SliceStable(creditors, byAmount(creditors))
	sort.SliceStable(debtors, byAmount(debtors))

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].amount, creditors[j].amount)

		if amount.GreaterThan(Tolerance) {
			edges = append(edges, DebtEdge{
				From:   debtors[i].userID,
				To:     creditors[j].userID,
				Amount: amount.Round(2).InexactFloat64(),
			})
		}

		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)

		if debtors[i].amount.LessThanOrEqual(Tolerance) {
			i++
		}
		if creditors[j].amount.LessThanOrEqual(Tolerance) {
			j++
		}
	}
	return edges
}
