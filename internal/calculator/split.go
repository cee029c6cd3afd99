package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
)

// Tolerance is the largest absolute difference accepted between a split
// total and the amount it divides.
var Tolerance = decimal.New(1, -2)

var hundred = decimal.NewFromInt(100)

var (
	ErrNoParticipants   = errors.New("must have at least one participant")
	ErrNonPositiveTotal = errors.New("amount must be positive")
	ErrUnknownSplitType = errors.New("unknown split type")
	ErrPercentageTotal  = errors.New("percentages must add up to 100")
	ErrExactTotal       = errors.New("exact amounts must add up to the expense amount")
)

// Participant is one person taking part in a split.
// Percentage is read for percentage splits and Amount for exact splits.
type Participant struct {
	UserID     string
	Percentage float64
	Amount     float64
}

// Splits derives the split list for an expense of amount paid by payer.
//
// Equal and percentage shares are rounded down to cents and the remainder
// goes to the first participant, so the result always sums to amount exactly.
// Exact shares are returned as given once their total is within Tolerance.
// The payer's own entry, if any, is marked Paid.
func Splits(splitType models.SplitType, amount float64, payer string, participants []Participant) ([]models.Split, error) {
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}
	total := decimal.NewFromFloat(amount)
	if !total.IsPositive() {
		return nil, ErrNonPositiveTotal
	}

	var shares []decimal.Decimal
	switch splitType {
	case models.SplitEqual:
		shares = equalShares(total, len(participants))
	case models.SplitPercentage:
		var err error
		if shares, err = percentageShares(total, participants); err != nil {
			return nil, err
		}
	case models.SplitExact:
		var err error
		if shares, err = exactShares(total, participants); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSplitType, splitType)
	}

	splits := make([]models.Split, len(participants))
	for i, p := range participants {
		splits[i] = models.Split{
			UserID: p.UserID,
			Amount: shares[i].InexactFloat64(),
			Paid:   p.UserID == payer,
		}
	}
	return splits, nil
}

func equalShares(total decimal.Decimal, n int) []decimal.Decimal {
	each := total.Div(decimal.NewFromInt(int64(n))).Truncate(2)
	shares := make([]decimal.Decimal, n)
	for i := range shares {
		shares[i] = each
	}
	shares[0] = shares[0].Add(total.Sub(each.Mul(decimal.NewFromInt(int64(n)))))
	return shares
}

func percentageShares(total decimal.Decimal, participants []Participant) ([]decimal.Decimal, error) {
	pctSum := decimal.Zero
	for _, p := range participants {
		pctSum = pctSum.Add(decimal.NewFromFloat(p.Percentage))
	}
	if pctSum.Sub(hundred).Abs().GreaterThan(Tolerance) {
		return nil, fmt.Errorf("%w: got %s", ErrPercentageTotal, pctSum.String())
	}

	shares := make([]decimal.Decimal, len(participants))
	assigned := decimal.Zero
	for i, p := range participants {
		shares[i] = total.Mul(decimal.NewFromFloat(p.Percentage)).Div(hundred).Truncate(2)
		assigned = assigned.Add(shares[i])
	}
	shares[0] = shares[0].Add(total.Sub(assigned))
	return shares, nil
}

func exactShares(total decimal.Decimal, participants []Participant) ([]decimal.Decimal, error) {
	shares := make([]decimal.Decimal, len(participants))
	sum := decimal.Zero
	for i, p := range participants {
		shares[i] = decimal.NewFromFloat(p.Amount)
		sum = sum.Add(shares[i])
	}
	if sum.Sub(total).Abs().GreaterThan(Tolerance) {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrExactTotal, sum.String(), total.String())
	}
	return shares, nil
}

// SplitTotal sums split amounts in decimal arithmetic.
func SplitTotal(splits []models.Split) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range splits {
		sum = sum.Add(decimal.NewFromFloat(s.Amount))
	}
	return sum
}

// WithinTolerance reports whether splits sum to amount within Tolerance.
func WithinTolerance(splits []models.Split, amount float64) bool {
	return SplitTotal(splits).Sub(decimal.NewFromFloat(amount)).Abs().LessThanOrEqual(Tolerance)
}
