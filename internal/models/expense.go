package models

// SplitType describes how an expense's splits were derived.
// It is informational: only the split sum is validated.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitPercentage SplitType = "percentage"
	SplitExact      SplitType = "exact"
)

// DefaultCategory is used when an expense is created without a category.
const DefaultCategory = "Other"

// Valid reports whether t is one of the known split types.
func (t SplitType) Valid() bool {
	switch t {
	case SplitEqual, SplitPercentage, SplitExact:
		return true
	}
	return false
}

// Expense is a record of one shared cost.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is a free-text label (e.g., "Groceries").
	Description string

	// Amount is the total cost. Always positive.
	Amount float64

	// Category is a classification tag. Defaults to DefaultCategory.
	Category string

	// Date is when the expense happened, in Unix milliseconds.
	// Supplied by the caller, not the server clock.
	Date int64

	// PaidByUserID is the participant who fronted the money.
	PaidByUserID string

	// SplitType records how Splits were derived.
	SplitType SplitType

	// Splits is the ordered list of shares. Their amounts sum to Amount
	// within a 0.01 tolerance.
	Splits []Split

	// GroupID links the expense to a group. Empty for individual expenses.
	GroupID string

	// CreatedBy is the user who submitted the record. May differ from PaidByUserID.
	CreatedBy string

	// ReceiptStorageID references a receipt blob. Empty when there is none.
	ReceiptStorageID string

	// CreatedAt is the Unix timestamp when the record was stored.
	CreatedAt int64
}

// Split is one participant's share of an expense.
type Split struct {
	UserID string
	Amount float64

	// Paid marks the payer's own share. It is set by the caller and
	// excluded from balances.
	Paid bool
}

// SplitFor returns the first split belonging to userID.
func (e *Expense) SplitFor(userID string) (Split, bool) {
	for _, s := range e.Splits {
		if s.UserID == userID {
			return s, true
		}
	}
	return Split{}, false
}

// Involves reports whether userID paid the expense or appears in its splits.
func (e *Expense) Involves(userID string) bool {
	if e.PaidByUserID == userID {
		return true
	}
	_, ok := e.SplitFor(userID)
	return ok
}
