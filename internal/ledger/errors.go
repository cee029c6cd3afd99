package ledger

import (
	"errors"
	"fmt"
	"log/slog"
)

// Authorization errors.
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrNotAGroupMember        = errors.New("not a member of this group")
	ErrNotAuthorizedToDelete  = errors.New("only the creator or payer can delete this expense")
	ErrNotASettlementParty    = errors.New("only the payer or receiver can record a settlement")
)

// Validation errors.
var (
	ErrEmptySplitSet  = errors.New("expense must have at least one split")
	ErrSplitMismatch  = errors.New("split amounts do not add up to the expense amount")
	ErrSelfQuery      = errors.New("cannot query expenses with yourself")
	ErrSelfSettlement = errors.New("payer and receiver must be different users")
)

// Not-found errors.
var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrExpenseNotFound = errors.New("expense not found")
)

// ErrPersistenceFailure hides store failures from callers. The cause is logged.
var ErrPersistenceFailure = errors.New("failed to access the ledger store")

// SplitMismatchError reports the computed split total next to the stated amount.
type SplitMismatchError struct {
	SplitTotal float64
	Amount     float64
}

func (e *SplitMismatchError) Error() string {
	return fmt.Sprintf("%s: splits total %.2f, expense amount %.2f", ErrSplitMismatch, e.SplitTotal, e.Amount)
}

// Is makes errors.Is(err, ErrSplitMismatch) hold.
func (e *SplitMismatchError) Is(target error) bool {
	return target == ErrSplitMismatch
}

// persistenceFailure logs a store error and replaces it with ErrPersistenceFailure.
func persistenceFailure(op string, err error, args ...any) error {
	slog.Error(op+": store failure", append(args, "error", err)...)
	return ErrPersistenceFailure
}
