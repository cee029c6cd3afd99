package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmynk/splitledger/internal/blob"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// DeleteExpense deletes an expense created or paid by callerID.
//
// Settlements that list the expense among their related expenses lose that
// reference; a settlement left with no related expenses is deleted. The store
// works out and applies the settlement changes in the same transaction that
// deletes the expense.
// A receipt blob is removed afterwards; failing to remove it is logged and
// does not fail the call.
func (l *Ledger) DeleteExpense(ctx context.Context, callerID, expenseID string) error {
	if callerID == "" {
		return ErrAuthenticationRequired
	}

	expense, err := l.store.GetExpense(ctx, expenseID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrExpenseNotFound
	}
	if err != nil {
		return persistenceFailure("DeleteExpense", err, "expense_id", expenseID)
	}

	if callerID != expense.CreatedBy && callerID != expense.PaidByUserID {
		return ErrNotAuthorizedToDelete
	}

	deletion, err := l.store.DeleteExpense(ctx, expenseID)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted concurrently between the read above and the transaction.
		return ErrExpenseNotFound
	}
	if err != nil {
		return persistenceFailure("DeleteExpense", err, "expense_id", expenseID)
	}

	l.metrics.ExpenseDeleted(len(deletion.PatchedSettlementIDs), len(deletion.DeletedSettlementIDs))
	slog.Info("Expense deleted",
		"expense_id", expenseID,
		"deleted_by", callerID,
		"settlements_patched", len(deletion.PatchedSettlementIDs),
		"settlements_deleted", len(deletion.DeletedSettlementIDs),
	)

	l.deleteReceipt(ctx, expense)
	return nil
}

func (l *Ledger) deleteReceipt(ctx context.Context, expense *models.Expense) {
	if expense.ReceiptStorageID == "" || l.blobs == nil {
		return
	}
	err := l.blobs.Delete(ctx, expense.ReceiptStorageID)
	if err == nil || errors.Is(err, blob.ErrNotFound) {
		return
	}
	l.metrics.BlobFailed("delete")
	slog.Warn("DeleteExpense: failed to delete receipt",
		"expense_id", expense.ID,
		"receipt_storage_id", expense.ReceiptStorageID,
		"error", err,
	)
}
