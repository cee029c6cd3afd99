package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// newTestStore connects to SPLITLEDGER_TEST_DATABASE_URL, skipping when unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("SPLITLEDGER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SPLITLEDGER_TEST_DATABASE_URL not set")
	}
	store, err := New(context.Background(), url)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestExpenseLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Unique user ids keep repeated runs against the same database independent.
	payer, debtor := uuid.NewString(), uuid.NewString()

	e1 := &models.Expense{Description: "Dinner", Amount: 100, Category: "Food", Date: 1700000000000,
		PaidByUserID: payer, SplitType: models.SplitEqual, CreatedBy: payer,
		Splits: []models.Split{{UserID: payer, Amount: 50, Paid: true}, {UserID: debtor, Amount: 50}}}
	e2 := &models.Expense{Description: "Taxi", Amount: 10, Category: "Travel", Date: 1700000001000,
		PaidByUserID: payer, SplitType: models.SplitExact, CreatedBy: payer,
		Splits: []models.Split{{UserID: debtor, Amount: 10}}}
	for _, e := range []*models.Expense{e1, e2} {
		if err := store.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
	}

	got, err := store.ListIndividualExpensesPaidBy(ctx, payer)
	if err != nil {
		t.Fatalf("ListIndividualExpensesPaidBy failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 expenses, got %d", len(got))
	}

	only := &models.Settlement{PaidByUserID: debtor, ReceivedByUserID: payer, Amount: 20,
		RelatedExpenseIDs: []string{e1.ID}, CreatedBy: debtor}
	shared := &models.Settlement{PaidByUserID: debtor, ReceivedByUserID: payer, Amount: 5,
		RelatedExpenseIDs: []string{e1.ID, e2.ID}, CreatedBy: debtor}
	for _, s := range []*models.Settlement{only, shared} {
		if err := store.CreateSettlement(ctx, s); err != nil {
			t.Fatalf("CreateSettlement failed: %v", err)
		}
	}

	between, err := store.ListIndividualSettlementsBetween(ctx, payer, debtor)
	if err != nil {
		t.Fatalf("ListIndividualSettlementsBetween failed: %v", err)
	}
	if len(between) != 2 {
		t.Errorf("Expected 2 settlements, got %d", len(between))
	}

	involving, err := store.ListExpensesInvolving(ctx, debtor, 1700000000500)
	if err != nil {
		t.Fatalf("ListExpensesInvolving failed: %v", err)
	}
	if len(involving) != 1 || involving[0].ID != e2.ID {
		t.Errorf("Expected only the later expense, got %d", len(involving))
	}
	mine, err := store.ListIndividualSettlementsInvolving(ctx, debtor)
	if err != nil {
		t.Fatalf("ListIndividualSettlementsInvolving failed: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("Expected 2 settlements, got %d", len(mine))
	}

	deletion, err := store.DeleteExpense(ctx, e1.ID)
	if err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if len(deletion.DeletedSettlementIDs) != 1 || deletion.DeletedSettlementIDs[0] != only.ID {
		t.Errorf("Expected deleted settlements [%s], got %v", only.ID, deletion.DeletedSettlementIDs)
	}
	if len(deletion.PatchedSettlementIDs) != 1 || deletion.PatchedSettlementIDs[0] != shared.ID {
		t.Errorf("Expected patched settlements [%s], got %v", shared.ID, deletion.PatchedSettlementIDs)
	}

	if _, err := store.GetExpense(ctx, e1.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetSettlement(ctx, only.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	patched, err := store.GetSettlement(ctx, shared.ID)
	if err != nil {
		t.Fatalf("GetSettlement failed: %v", err)
	}
	if len(patched.RelatedExpenseIDs) != 1 || patched.RelatedExpenseIDs[0] != e2.ID {
		t.Errorf("Expected related expenses [%s], got %v", e2.ID, patched.RelatedExpenseIDs)
	}

	if _, err := store.DeleteExpense(ctx, e2.ID); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if _, err := store.GetSettlement(ctx, shared.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected settlement to go with its last expense, got %v", err)
	}
	if _, err := store.DeleteExpense(ctx, e1.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second deletion, got %v", err)
	}
}

func TestGroupsAndUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	owner := uuid.NewString()
	group := &models.Group{Name: "Trip", CreatedBy: owner,
		Members: []models.GroupMember{{UserID: owner, Role: models.RoleAdmin}, {UserID: uuid.NewString()}}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groups, err := store.ListGroupsForUser(ctx, owner)
	if err != nil {
		t.Fatalf("ListGroupsForUser failed: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Members) != 2 {
		t.Errorf("Expected one group with two members, got %d groups", len(groups))
	}

	user := models.NewUser(uuid.NewString()+"@example.com", "Pat", "hash")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := store.GetUserByID(ctx, user.ID); err != nil {
		t.Errorf("GetUserByID failed: %v", err)
	}
	if _, err := store.GetUserByEmail(ctx, "nobody-"+uuid.NewString()+"@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
