package service

import (
	"context"
	"math"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/pkg/api"
)

func TestExpenseLifecycle(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	alice := c.register(t, "alice@example.com", "Alice")
	bob := c.register(t, "bob@example.com", "Bob")

	created, err := c.ledger.CreateExpense(ctx, withToken(alice, halfAndHalf(alice.userID, bob.userID, 100)))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	expense := created.Msg.Expense
	if expense.ID == "" {
		t.Fatal("expected non-empty expense ID")
	}
	if expense.Category != "Other" {
		t.Errorf("category: expected Other, got %s", expense.Category)
	}
	if expense.CreatedBy != alice.userID {
		t.Errorf("createdBy: expected %s, got %s", alice.userID, expense.CreatedBy)
	}

	between, err := c.ledger.GetExpensesBetweenUsers(ctx, withToken(alice, &api.GetExpensesBetweenUsersRequest{OtherUserID: bob.userID}))
	if err != nil {
		t.Fatalf("GetExpensesBetweenUsers failed: %v", err)
	}
	if len(between.Msg.Expenses) != 1 {
		t.Fatalf("expenses: expected 1, got %d", len(between.Msg.Expenses))
	}
	if between.Msg.Balance != 50 {
		t.Errorf("balance: expected 50, got %v", between.Msg.Balance)
	}
	if between.Msg.OtherUser.Name != "Bob" {
		t.Errorf("other user: expected Bob, got %s", between.Msg.OtherUser.Name)
	}

	// Bob pays back part of it.
	_, err = c.ledger.CreateSettlement(ctx, withToken(bob, &api.CreateSettlementRequest{
		PaidByUserID:      bob.userID,
		ReceivedByUserID:  alice.userID,
		Amount:            20,
		Date:              testDate + 1,
		RelatedExpenseIDs: []string{expense.ID},
	}))
	if err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}

	fromBob, err := c.ledger.GetExpensesBetweenUsers(ctx, withToken(bob, &api.GetExpensesBetweenUsersRequest{OtherUserID: alice.userID}))
	if err != nil {
		t.Fatalf("GetExpensesBetweenUsers failed: %v", err)
	}
	if fromBob.Msg.Balance != -30 {
		t.Errorf("balance from bob: expected -30, got %v", fromBob.Msg.Balance)
	}
	if len(fromBob.Msg.Settlements) != 1 {
		t.Errorf("settlements: expected 1, got %d", len(fromBob.Msg.Settlements))
	}

	if _, err := c.ledger.DeleteExpense(ctx, withToken(alice, &api.DeleteExpenseRequest{ExpenseID: expense.ID})); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}

	after, err := c.ledger.GetExpensesBetweenUsers(ctx, withToken(alice, &api.GetExpensesBetweenUsersRequest{OtherUserID: bob.userID}))
	if err != nil {
		t.Fatalf("GetExpensesBetweenUsers failed: %v", err)
	}
	if len(after.Msg.Expenses) != 0 || len(after.Msg.Settlements) != 0 {
		t.Errorf("expected expense and its only settlement gone, got %d expenses, %d settlements",
			len(after.Msg.Expenses), len(after.Msg.Settlements))
	}
	if after.Msg.Balance != 0 {
		t.Errorf("balance: expected 0, got %v", after.Msg.Balance)
	}

	_, err = c.ledger.DeleteExpense(ctx, withToken(alice, &api.DeleteExpenseRequest{ExpenseID: expense.ID}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestCreateExpenseErrors(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	alice := c.register(t, "alice@example.com", "Alice")
	bob := c.register(t, "bob@example.com", "Bob")
	carol := c.register(t, "carol@example.com", "Carol")

	group, err := c.groups.CreateGroup(ctx, withToken(alice, &api.CreateGroupRequest{
		Name:      "Flat",
		MemberIDs: []string{bob.userID},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	tests := []struct {
		name   string
		caller session
		mutate func(r *api.CreateExpenseRequest)
		want   connect.Code
	}{
		{"no token", session{}, func(r *api.CreateExpenseRequest) {}, connect.CodeUnauthenticated},
		{"zero amount", alice, func(r *api.CreateExpenseRequest) { r.Amount = 0 }, connect.CodeInvalidArgument},
		{"unknown split type", alice, func(r *api.CreateExpenseRequest) { r.SplitType = "shares" }, connect.CodeInvalidArgument},
		{"missing date", alice, func(r *api.CreateExpenseRequest) { r.Date = 0 }, connect.CodeInvalidArgument},
		{"empty split user", alice, func(r *api.CreateExpenseRequest) { r.Splits[1].UserID = "" }, connect.CodeInvalidArgument},
		{"no splits", alice, func(r *api.CreateExpenseRequest) { r.Splits = nil }, connect.CodeInvalidArgument},
		{"splits off by more than a cent", alice, func(r *api.CreateExpenseRequest) { r.Splits[1].Amount = 50.02 }, connect.CodeInvalidArgument},
		{"unknown group", alice, func(r *api.CreateExpenseRequest) { r.GroupID = "no-such-group" }, connect.CodeNotFound},
		{"not a group member", carol, func(r *api.CreateExpenseRequest) { r.GroupID = group.Msg.Group.ID }, connect.CodePermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := halfAndHalf(alice.userID, bob.userID, 100)
			tt.mutate(req)
			_, err := c.ledger.CreateExpense(ctx, withToken(tt.caller, req))
			assertCode(t, err, tt.want)
		})
	}

	// Nothing above should have been stored.
	between, err := c.ledger.GetExpensesBetweenUsers(ctx, withToken(alice, &api.GetExpensesBetweenUsersRequest{OtherUserID: bob.userID}))
	if err != nil {
		t.Fatalf("GetExpensesBetweenUsers failed: %v", err)
	}
	if len(between.Msg.Expenses) != 0 {
		t.Errorf("expected no expenses, got %d", len(between.Msg.Expenses))
	}
}

func TestCreateExpenseTolerance(t *testing.T) {
	c := setupTestServer(t)
	alice := c.register(t, "alice@example.com", "Alice")
	bob := c.register(t, "bob@example.com", "Bob")

	req := halfAndHalf(alice.userID, bob.userID, 100)
	req.Splits[1].Amount = 50.009
	if _, err := c.ledger.CreateExpense(context.Background(), withToken(alice, req)); err != nil {
		t.Fatalf("split total within a cent should be accepted: %v", err)
	}
}

func TestDeleteExpensePermissions(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	alice := c.register(t, "alice@example.com", "Alice")
	bob := c.register(t, "bob@example.com", "Bob")

	created, err := c.ledger.CreateExpense(ctx, withToken(alice, halfAndHalf(alice.userID, bob.userID, 40)))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	_, err = c.ledger.DeleteExpense(ctx, withToken(bob, &api.DeleteExpenseRequest{ExpenseID: created.Msg.Expense.ID}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = c.ledger.DeleteExpense(ctx, withToken(bob, &api.DeleteExpenseRequest{ExpenseID: "missing"}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestGetExpensesBetweenUsersErrors(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	alice := c.register(t, "alice@example.com", "Alice")

	_, err := c.ledger.GetExpensesBetweenUsers(ctx, withToken(alice, &api.GetExpensesBetweenUsersRequest{OtherUserID: alice.userID}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = c.ledger.GetExpensesBetweenUsers(ctx, withToken(alice, &api.GetExpensesBetweenUsersRequest{OtherUserID: "ghost"}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = c.ledger.GetExpensesBetweenUsers(ctx, withToken(alice, &api.GetExpensesBetweenUsersRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestCreateSettlementErrors(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	alice := c.register(t, "alice@example.com", "Alice")
	bob := c.register(t, "bob@example.com", "Bob")
	carol := c.register(t, "carol@example.com", "Carol")

	tests := []struct {
		name   string
		caller session
		req    *api.CreateSettlementRequest
		want   connect.Code
	}{
		{"self settlement", alice, &api.CreateSettlementRequest{PaidByUserID: alice.userID, ReceivedByUserID: alice.userID, Amount: 5, Date: testDate}, connect.CodeInvalidArgument},
		{"third party", carol, &api.CreateSettlementRequest{PaidByUserID: alice.userID, ReceivedByUserID: bob.userID, Amount: 5, Date: testDate}, connect.CodePermissionDenied},
		{"unknown related expense", alice, &api.CreateSettlementRequest{PaidByUserID: alice.userID, ReceivedByUserID: bob.userID, Amount: 5, Date: testDate, RelatedExpenseIDs: []string{"missing"}}, connect.CodeNotFound},
		{"negative amount", alice, &api.CreateSettlementRequest{PaidByUserID: alice.userID, ReceivedByUserID: bob.userID, Amount: -5, Date: testDate}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ledger.CreateSettlement(ctx, withToken(tt.caller, tt.req))
			assertCode(t, err, tt.want)
		})
	}
}

func TestGetGroupBalances(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	alice := c.register(t, "alice@example.com", "Alice")
	bob := c.register(t, "bob@example.com", "Bob")
	carol := c.register(t, "carol@example.com", "Carol")

	group, err := c.groups.CreateGroup(ctx, withToken(alice, &api.CreateGroupRequest{
		Name:      "Trip",
		MemberIDs: []string{bob.userID},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := group.Msg.Group.ID

	req := halfAndHalf(alice.userID, bob.userID, 60)
	req.GroupID = groupID
	if _, err := c.ledger.CreateExpense(ctx, withToken(alice, req)); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	resp, err := c.ledger.GetGroupBalances(ctx, withToken(bob, &api.GetGroupBalancesRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetGroupBalances failed: %v", err)
	}
	if len(resp.Msg.Balances) != 2 {
		t.Fatalf("balances: expected 2, got %d", len(resp.Msg.Balances))
	}
	if len(resp.Msg.Debts) != 1 {
		t.Fatalf("debts: expected 1, got %d", len(resp.Msg.Debts))
	}
	debt := resp.Msg.Debts[0]
	if debt.From != bob.userID || debt.To != alice.userID || math.Abs(debt.Amount-30) > 0.001 {
		t.Errorf("unexpected debt: %+v", debt)
	}

	_, err = c.ledger.GetGroupBalances(ctx, withToken(carol, &api.GetGroupBalancesRequest{GroupID: groupID}))
	assertCode(t, err, connect.CodePermissionDenied)
}

func TestCalculateSplit(t *testing.T) {
	c := setupTestServer(t)
	alice := c.register(t, "alice@example.com", "Alice")

	resp, err := c.ledger.CalculateSplit(context.Background(), withToken(alice, &api.CalculateSplitRequest{
		SplitType:    "equal",
		Amount:       100,
		PaidByUserID: "a",
		Participants: []api.Participant{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}},
	}))
	if err != nil {
		t.Fatalf("CalculateSplit failed: %v", err)
	}
	splits := resp.Msg.Splits
	if len(splits) != 3 {
		t.Fatalf("splits: expected 3, got %d", len(splits))
	}
	if splits[0].Amount != 33.34 || !splits[0].Paid {
		t.Errorf("first split: expected 33.34 paid, got %+v", splits[0])
	}

	_, err = c.ledger.CalculateSplit(context.Background(), withToken(alice, &api.CalculateSplitRequest{
		SplitType:    "percentage",
		Amount:       10,
		Participants: []api.Participant{{UserID: "a", Percentage: 50}, {UserID: "b", Percentage: 30}},
	}))
	assertCode(t, err, connect.CodeInvalidArgument)
}
