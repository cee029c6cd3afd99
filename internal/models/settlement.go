package models

// Settlement represents a direct payment between two users that reduces
// an outstanding balance.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// PaidByUserID is the user who paid.
	PaidByUserID string

	// ReceivedByUserID is the user who received the payment.
	ReceivedByUserID string

	// Amount is the payment amount. Always positive.
	Amount float64

	// Date is when the payment happened, in Unix milliseconds.
	Date int64

	// GroupID is the group this settlement belongs to. Empty for individual settlements.
	GroupID string

	// Note is an optional description.
	Note string

	// RelatedExpenseIDs lists the expenses this settlement was recorded against.
	// Used only to clean up when one of those expenses is deleted.
	RelatedExpenseIDs []string

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}

// Between reports whether the settlement was paid from a to b or from b to a.
func (s *Settlement) Between(a, b string) bool {
	return (s.PaidByUserID == a && s.ReceivedByUserID == b) ||
		(s.PaidByUserID == b && s.ReceivedByUserID == a)
}
