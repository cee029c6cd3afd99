package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/pkg/api"
)

// DashboardService implements the Connect DashboardService: the caller's
// totals across every user and group.
type DashboardService struct {
	ledger *ledger.Ledger
}

var _ api.DashboardServiceHandler = (*DashboardService)(nil)

func NewDashboardService(l *ledger.Ledger) *DashboardService {
	return &DashboardService{ledger: l}
}

// GetUserBalances returns what the caller owes and is owed, per user.
func (s *DashboardService) GetUserBalances(ctx context.Context, req *connect.Request[api.GetUserBalancesRequest]) (*connect.Response[api.GetUserBalancesResponse], error) {
	balances, err := s.ledger.GetUserBalances(ctx, middleware.GetUserID(ctx))
	if err != nil {
		return nil, toConnectError("GetUserBalances", err)
	}

	slog.Info("GetUserBalances successful",
		"you_owe", balances.YouOwe,
		"you_are_owed", balances.YouAreOwed,
		"counterparties", len(balances.OweTo)+len(balances.OwedBy),
	)
	return connect.NewResponse(&api.GetUserBalancesResponse{
		YouOwe:       balances.YouOwe,
		YouAreOwed:   balances.YouAreOwed,
		TotalBalance: balances.TotalBalance,
		OweDetails: &api.OweDetails{
			YouOwe:       toAPICounterparties(balances.OweTo),
			YouAreOwedBy: toAPICounterparties(balances.OwedBy),
		},
	}), nil
}

// GetUserGroups lists the caller's groups with the caller's balance in each.
func (s *DashboardService) GetUserGroups(ctx context.Context, req *connect.Request[api.GetUserGroupsRequest]) (*connect.Response[api.GetUserGroupsResponse], error) {
	summaries, err := s.ledger.GetUserGroups(ctx, middleware.GetUserID(ctx))
	if err != nil {
		return nil, toConnectError("GetUserGroups", err)
	}

	resp := &api.GetUserGroupsResponse{Groups: make([]*api.GroupSummary, len(summaries))}
	for i, sum := range summaries {
		resp.Groups[i] = &api.GroupSummary{Group: toAPIGroup(sum.Group), Balance: sum.Balance}
	}
	return connect.NewResponse(resp), nil
}

func (s *DashboardService) GetTotalSpent(ctx context.Context, req *connect.Request[api.GetTotalSpentRequest]) (*connect.Response[api.GetTotalSpentResponse], error) {
	total, err := s.ledger.GetTotalSpent(ctx, middleware.GetUserID(ctx))
	if err != nil {
		return nil, toConnectError("GetTotalSpent", err)
	}
	return connect.NewResponse(&api.GetTotalSpentResponse{Total: total}), nil
}

func (s *DashboardService) GetMonthlySpending(ctx context.Context, req *connect.Request[api.GetMonthlySpendingRequest]) (*connect.Response[api.GetMonthlySpendingResponse], error) {
	months, err := s.ledger.GetMonthlySpending(ctx, middleware.GetUserID(ctx))
	if err != nil {
		return nil, toConnectError("GetMonthlySpending", err)
	}

	resp := &api.GetMonthlySpendingResponse{Months: make([]*api.MonthlySpending, len(months))}
	for i, m := range months {
		resp.Months[i] = &api.MonthlySpending{Month: m.Month, Total: m.Total}
	}
	return connect.NewResponse(resp), nil
}
