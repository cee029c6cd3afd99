package api

// Split is one participant's share of an expense.
type Split struct {
	UserID string  `json:"userId" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
	Paid   bool    `json:"paid"`
}

// Expense is a shared cost as returned to clients.
type Expense struct {
	ID               string  `json:"id"`
	Description      string  `json:"description"`
	Amount           float64 `json:"amount"`
	Category         string  `json:"category"`
	Date             int64   `json:"date"`
	PaidByUserID     string  `json:"paidByUserId"`
	SplitType        string  `json:"splitType"`
	Splits           []Split `json:"splits"`
	GroupID          string  `json:"groupId,omitempty"`
	CreatedBy        string  `json:"createdBy"`
	ReceiptStorageID string  `json:"receiptStorageId,omitempty"`
	CreatedAt        int64   `json:"createdAt"`
}

// Settlement is a direct payment between two users.
type Settlement struct {
	ID                string   `json:"id"`
	PaidByUserID      string   `json:"paidByUserId"`
	ReceivedByUserID  string   `json:"receivedByUserId"`
	Amount            float64  `json:"amount"`
	Date              int64    `json:"date"`
	GroupID           string   `json:"groupId,omitempty"`
	Note              string   `json:"note,omitempty"`
	RelatedExpenseIDs []string `json:"relatedExpenseIds,omitempty"`
	CreatedBy         string   `json:"createdBy"`
	CreatedAt         int64    `json:"createdAt"`
}

// UserProfile is the public view of a user.
type UserProfile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// User is the caller's own account.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	ImageURL  string `json:"imageUrl,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

type GroupMember struct {
	UserID   string `json:"userId"`
	Role     string `json:"role"`
	JoinedAt int64  `json:"joinedAt"`
}

type Group struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	CreatedBy   string        `json:"createdBy"`
	Members     []GroupMember `json:"members"`
	CreatedAt   int64         `json:"createdAt"`
}

// MemberBalance is one member's position within a group.
type MemberBalance struct {
	UserID     string  `json:"userId"`
	NetBalance float64 `json:"netBalance"`
	TotalPaid  float64 `json:"totalPaid"`
	TotalOwed  float64 `json:"totalOwed"`
}

// DebtEdge says From should pay To the given amount.
type DebtEdge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

// Participant is an input row for CalculateSplit. Percentage is read for
// percentage splits and Amount for exact splits.
type Participant struct {
	UserID     string  `json:"userId" validate:"required"`
	Percentage float64 `json:"percentage,omitempty" validate:"gte=0,lte=100"`
	Amount     float64 `json:"amount,omitempty" validate:"gte=0"`
}

// Ledger messages.

type CreateExpenseRequest struct {
	Description      string  `json:"description" validate:"max=500"`
	Amount           float64 `json:"amount" validate:"gt=0"`
	Category         string  `json:"category,omitempty" validate:"max=64"`
	Date             int64   `json:"date" validate:"gt=0"`
	PaidByUserID     string  `json:"paidByUserId" validate:"required"`
	SplitType        string  `json:"splitType" validate:"oneof=equal percentage exact"`
	Splits           []Split `json:"splits" validate:"dive"`
	GroupID          string  `json:"groupId,omitempty"`
	ReceiptStorageID string  `json:"receiptStorageId,omitempty" validate:"omitempty,receipt_id"`
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpensesBetweenUsersRequest struct {
	OtherUserID string `json:"otherUserId" validate:"required"`
}

type GetExpensesBetweenUsersResponse struct {
	Expenses    []*Expense    `json:"expenses"`
	Settlements []*Settlement `json:"settlements"`
	OtherUser   *UserProfile  `json:"otherUser"`
	// Balance is positive when the other user owes the caller.
	Balance float64 `json:"balance"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expenseId" validate:"required"`
}

type DeleteExpenseResponse struct{}

type CreateSettlementRequest struct {
	PaidByUserID      string   `json:"paidByUserId" validate:"required"`
	ReceivedByUserID  string   `json:"receivedByUserId" validate:"required"`
	Amount            float64  `json:"amount" validate:"gt=0"`
	Date              int64    `json:"date" validate:"gt=0"`
	GroupID           string   `json:"groupId,omitempty"`
	Note              string   `json:"note,omitempty" validate:"max=500"`
	RelatedExpenseIDs []string `json:"relatedExpenseIds,omitempty" validate:"dive,required"`
}

type CreateSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

type GetGroupBalancesResponse struct {
	Balances []*MemberBalance `json:"balances"`
	Debts    []*DebtEdge      `json:"debts"`
}

type CalculateSplitRequest struct {
	SplitType    string        `json:"splitType" validate:"oneof=equal percentage exact"`
	Amount       float64       `json:"amount" validate:"gt=0"`
	PaidByUserID string        `json:"paidByUserId"`
	Participants []Participant `json:"participants" validate:"min=1,dive"`
}

type CalculateSplitResponse struct {
	Splits []Split `json:"splits"`
}

// Group messages.

type CreateGroupRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description,omitempty" validate:"max=500"`
	MemberIDs   []string `json:"memberIds,omitempty" validate:"dive,required"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId" validate:"required"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

// Auth messages.

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

type RegisterResponse struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// Receipt messages.

type UploadReceiptRequest struct {
	// Data is base64 encoded on the wire.
	Data []byte `json:"data" validate:"required"`
}

type UploadReceiptResponse struct {
	StorageID string `json:"storageId"`
}

type GetReceiptRequest struct {
	StorageID string `json:"storageId" validate:"required,receipt_id"`
}

type GetReceiptResponse struct {
	Data []byte `json:"data"`
}

// Dashboard messages.

// CounterpartyBalance is an open balance with one user. Amount is positive;
// the list it appears in gives the direction.
type CounterpartyBalance struct {
	UserID   string  `json:"userId"`
	Name     string  `json:"name"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Amount   float64 `json:"amount"`
}

type OweDetails struct {
	YouOwe       []*CounterpartyBalance `json:"youOwe"`
	YouAreOwedBy []*CounterpartyBalance `json:"youAreOwedBy"`
}

type GetUserBalancesRequest struct{}

type GetUserBalancesResponse struct {
	YouOwe       float64     `json:"youOwe"`
	YouAreOwed   float64     `json:"youAreOwed"`
	TotalBalance float64     `json:"totalBalance"`
	OweDetails   *OweDetails `json:"oweDetails"`
}

// GroupSummary is a group with the caller's net balance in it.
type GroupSummary struct {
	Group   *Group  `json:"group"`
	Balance float64 `json:"balance"`
}

type GetUserGroupsRequest struct{}

type GetUserGroupsResponse struct {
	Groups []*GroupSummary `json:"groups"`
}

type GetTotalSpentRequest struct{}

type GetTotalSpentResponse struct {
	Total float64 `json:"total"`
}

type MonthlySpending struct {
	// Month is the first instant of the month in Unix milliseconds, UTC.
	Month int64   `json:"month"`
	Total float64 `json:"total"`
}

type GetMonthlySpendingRequest struct{}

type GetMonthlySpendingResponse struct {
	Months []*MonthlySpending `json:"months"`
}
