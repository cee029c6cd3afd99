package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/pkg/api"
)

// LedgerService implements the Connect LedgerService.
type LedgerService struct {
	ledger *ledger.Ledger
}

var _ api.LedgerServiceHandler = (*LedgerService)(nil)

// NewLedgerService creates a LedgerService over l.
func NewLedgerService(l *ledger.Ledger) *LedgerService {
	return &LedgerService{ledger: l}
}

// CreateExpense records a new expense.
func (s *LedgerService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	slog.Info("CreateExpense request received",
		"amount", req.Msg.Amount,
		"splits_count", len(req.Msg.Splits),
		"group_id", req.Msg.GroupID,
	)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}
	callerID := middleware.GetUserID(ctx)
	if err := checkReceiptOwner(callerID, req.Msg.ReceiptStorageID); err != nil {
		return nil, err
	}

	expense, err := s.ledger.CreateExpense(ctx, callerID, ledger.NewExpense{
		Description:      req.Msg.Description,
		Amount:           req.Msg.Amount,
		Category:         req.Msg.Category,
		Date:             req.Msg.Date,
		PaidByUserID:     req.Msg.PaidByUserID,
		SplitType:        models.SplitType(req.Msg.SplitType),
		Splits:           fromAPISplits(req.Msg.Splits),
		GroupID:          req.Msg.GroupID,
		ReceiptStorageID: req.Msg.ReceiptStorageID,
	})
	if err != nil {
		return nil, toConnectError("CreateExpense", err)
	}

	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// GetExpensesBetweenUsers returns the shared history with another user.
func (s *LedgerService) GetExpensesBetweenUsers(ctx context.Context, req *connect.Request[api.GetExpensesBetweenUsersRequest]) (*connect.Response[api.GetExpensesBetweenUsersResponse], error) {
	slog.Info("GetExpensesBetweenUsers request received", "other_user_id", req.Msg.OtherUserID)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	between, err := s.ledger.GetExpensesBetweenUsers(ctx, middleware.GetUserID(ctx), req.Msg.OtherUserID)
	if err != nil {
		return nil, toConnectError("GetExpensesBetweenUsers", err)
	}

	resp := &api.GetExpensesBetweenUsersResponse{
		Expenses:    make([]*api.Expense, len(between.Expenses)),
		Settlements: make([]*api.Settlement, len(between.Settlements)),
		OtherUser: &api.UserProfile{
			ID:       between.OtherUser.ID,
			Name:     between.OtherUser.Name,
			Email:    between.OtherUser.Email,
			ImageURL: between.OtherUser.ImageURL,
		},
		Balance: between.Balance,
	}
	for i, e := range between.Expenses {
		resp.Expenses[i] = toAPIExpense(e)
	}
	for i, st := range between.Settlements {
		resp.Settlements[i] = toAPISettlement(st)
	}

	slog.Info("GetExpensesBetweenUsers successful",
		"expenses_count", len(resp.Expenses),
		"settlements_count", len(resp.Settlements),
		"balance", resp.Balance,
	)
	return connect.NewResponse(resp), nil
}

// DeleteExpense removes an expense and updates the settlements that referenced it.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseID)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	if err := s.ledger.DeleteExpense(ctx, middleware.GetUserID(ctx), req.Msg.ExpenseID); err != nil {
		return nil, toConnectError("DeleteExpense", err)
	}
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// CreateSettlement records a payment between two users.
func (s *LedgerService) CreateSettlement(ctx context.Context, req *connect.Request[api.CreateSettlementRequest]) (*connect.Response[api.CreateSettlementResponse], error) {
	slog.Info("CreateSettlement request received",
		"amount", req.Msg.Amount,
		"group_id", req.Msg.GroupID,
		"related_count", len(req.Msg.RelatedExpenseIDs),
	)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	settlement, err := s.ledger.CreateSettlement(ctx, middleware.GetUserID(ctx), ledger.NewSettlement{
		PaidByUserID:      req.Msg.PaidByUserID,
		ReceivedByUserID:  req.Msg.ReceivedByUserID,
		Amount:            req.Msg.Amount,
		Date:              req.Msg.Date,
		GroupID:           req.Msg.GroupID,
		Note:              req.Msg.Note,
		RelatedExpenseIDs: req.Msg.RelatedExpenseIDs,
	})
	if err != nil {
		return nil, toConnectError("CreateSettlement", err)
	}

	return connect.NewResponse(&api.CreateSettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

// GetGroupBalances computes balances and simplified debts for a group.
func (s *LedgerService) GetGroupBalances(ctx context.Context, req *connect.Request[api.GetGroupBalancesRequest]) (*connect.Response[api.GetGroupBalancesResponse], error) {
	slog.Info("GetGroupBalances request received", "group_id", req.Msg.GroupID)
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	balances, err := s.ledger.GetGroupBalances(ctx, middleware.GetUserID(ctx), req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError("GetGroupBalances", err)
	}

	slog.Info("GetGroupBalances successful",
		"group_id", req.Msg.GroupID,
		"members_count", len(balances.Balances),
		"debts_count", len(balances.Debts),
	)
	return connect.NewResponse(&api.GetGroupBalancesResponse{
		Balances: toAPIBalances(balances.Balances),
		Debts:    toAPIDebts(balances.Debts),
	}), nil
}

// CalculateSplit previews the split list for an expense without storing anything.
func (s *LedgerService) CalculateSplit(ctx context.Context, req *connect.Request[api.CalculateSplitRequest]) (*connect.Response[api.CalculateSplitResponse], error) {
	if err := validateRequest(req.Msg); err != nil {
		return nil, err
	}

	participants := make([]calculator.Participant, len(req.Msg.Participants))
	for i, p := range req.Msg.Participants {
		participants[i] = calculator.Participant{UserID: p.UserID, Percentage: p.Percentage, Amount: p.Amount}
	}

	splits, err := calculator.Splits(models.SplitType(req.Msg.SplitType), req.Msg.Amount, req.Msg.PaidByUserID, participants)
	if err != nil {
		return nil, toConnectError("CalculateSplit", err)
	}
	return connect.NewResponse(&api.CalculateSplitResponse{Splits: toAPISplits(splits)}), nil
}
