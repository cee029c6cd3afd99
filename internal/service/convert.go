package service

import (
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
)

func toAPISplits(splits []models.Split) []api.Split {
	out := make([]api.Split, len(splits))
	for i, s := range splits {
		out[i] = api.Split{UserID: s.UserID, Amount: s.Amount, Paid: s.Paid}
	}
	return out
}

func fromAPISplits(splits []api.Split) []models.Split {
	out := make([]models.Split, len(splits))
	for i, s := range splits {
		out[i] = models.Split{UserID: s.UserID, Amount: s.Amount, Paid: s.Paid}
	}
	return out
}

func toAPIExpense(e *models.Expense) *api.Expense {
	return &api.Expense{
		ID:               e.ID,
		Description:      e.Description,
		Amount:           e.Amount,
		Category:         e.Category,
		Date:             e.Date,
		PaidByUserID:     e.PaidByUserID,
		SplitType:        string(e.SplitType),
		Splits:           toAPISplits(e.Splits),
		GroupID:          e.GroupID,
		CreatedBy:        e.CreatedBy,
		ReceiptStorageID: e.ReceiptStorageID,
		CreatedAt:        e.CreatedAt,
	}
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		ID:                s.ID,
		PaidByUserID:      s.PaidByUserID,
		ReceivedByUserID:  s.ReceivedByUserID,
		Amount:            s.Amount,
		Date:              s.Date,
		GroupID:           s.GroupID,
		Note:              s.Note,
		RelatedExpenseIDs: s.RelatedExpenseIDs,
		CreatedBy:         s.CreatedBy,
		CreatedAt:         s.CreatedAt,
	}
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		ImageURL:  u.ImageURL,
		CreatedAt: u.CreatedAt,
	}
}

func toAPIGroup(g *models.Group) *api.Group {
	members := make([]api.GroupMember, len(g.Members))
	for i, m := range g.Members {
		members[i] = api.GroupMember{UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt}
	}
	return &api.Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		Members:     members,
		CreatedAt:   g.CreatedAt,
	}
}

func toAPIBalances(balances []calculator.MemberBalance) []*api.MemberBalance {
	out := make([]*api.MemberBalance, len(balances))
	for i, b := range balances {
		out[i] = &api.MemberBalance{
			UserID:     b.UserID,
			NetBalance: b.NetBalance,
			TotalPaid:  b.TotalPaid,
			TotalOwed:  b.TotalOwed,
		}
	}
	return out
}

func toAPIDebts(debts []calculator.DebtEdge) []*api.DebtEdge {
	out := make([]*api.DebtEdge, len(debts))
	for i, d := range debts {
		out[i] = &api.DebtEdge{From: d.From, To: d.To, Amount: d.Amount}
	}
	return out
}

func toAPICounterparties(list []ledger.Counterparty) []*api.CounterpartyBalance {
	out := make([]*api.CounterpartyBalance, len(list))
	for i, c := range list {
		out[i] = &api.CounterpartyBalance{
			UserID:   c.User.ID,
			Name:     c.User.Name,
			ImageURL: c.User.ImageURL,
			Amount:   c.Amount,
		}
	}
	return out
}
