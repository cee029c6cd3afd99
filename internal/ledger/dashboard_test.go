package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
)

var dashboardNow = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

func ms(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 9, 0, 0, 0, time.UTC).UnixMilli()
}

func TestGetUserBalances(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.CreateExpense(ctx, f.alice.ID, equalSplit(f.alice.ID, f.bob.ID, 100))
	require.NoError(t, err)
	_, err = f.ledger.CreateExpense(ctx, f.carol.ID, equalSplit(f.carol.ID, f.alice.ID, 30))
	require.NoError(t, err)
	_, err = f.ledger.CreateSettlement(ctx, f.bob.ID, NewSettlement{
		PaidByUserID: f.bob.ID, ReceivedByUserID: f.alice.ID, Amount: 20, Date: 1700000000000,
	})
	require.NoError(t, err)

	// Group expenses stay out of individual balances.
	g := f.group(t, f.alice.ID, f.bob.ID)
	in := equalSplit(f.alice.ID, f.bob.ID, 500)
	in.GroupID = g.ID
	_, err = f.ledger.CreateExpense(ctx, f.alice.ID, in)
	require.NoError(t, err)

	got, err := f.ledger.GetUserBalances(ctx, f.alice.ID)
	require.NoError(t, err)

	assert.Equal(t, 30.0, got.YouAreOwed)
	assert.Equal(t, 15.0, got.YouOwe)
	assert.Equal(t, 15.0, got.TotalBalance)
	require.Len(t, got.OwedBy, 1)
	assert.Equal(t, f.bob.ID, got.OwedBy[0].User.ID)
	assert.Equal(t, "Bob", got.OwedBy[0].User.Name)
	assert.Equal(t, 30.0, got.OwedBy[0].Amount)
	require.Len(t, got.OweTo, 1)
	assert.Equal(t, f.carol.ID, got.OweTo[0].User.ID)
	assert.Equal(t, 15.0, got.OweTo[0].Amount)

	between, err := f.ledger.GetExpensesBetweenUsers(ctx, f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, got.OwedBy[0].Amount, between.Balance)

	mirror, err := f.ledger.GetUserBalances(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, -30.0, mirror.TotalBalance)
	assert.Empty(t, mirror.OwedBy)
}

func TestGetUserBalancesSettledUp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.CreateExpense(ctx, f.alice.ID, equalSplit(f.alice.ID, f.bob.ID, 40))
	require.NoError(t, err)
	_, err = f.ledger.CreateSettlement(ctx, f.bob.ID, NewSettlement{
		PaidByUserID: f.bob.ID, ReceivedByUserID: f.alice.ID, Amount: 20, Date: 1700000000000,
	})
	require.NoError(t, err)

	got, err := f.ledger.GetUserBalances(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Zero(t, got.TotalBalance)
	assert.Empty(t, got.OwedBy)
	assert.Empty(t, got.OweTo)

	_, err = f.ledger.GetUserBalances(ctx, "")
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
}

func TestGetUserGroups(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	flat := f.group(t, f.alice.ID, f.bob.ID)
	trip := f.group(t, f.bob.ID, f.alice.ID, f.carol.ID)
	f.group(t, f.bob.ID, f.carol.ID)

	in := equalSplit(f.alice.ID, f.bob.ID, 40)
	in.GroupID = flat.ID
	_, err := f.ledger.CreateExpense(ctx, f.alice.ID, in)
	require.NoError(t, err)

	got, err := f.ledger.GetUserGroups(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	balances := map[string]float64{}
	for _, s := range got {
		balances[s.Group.ID] = s.Balance
	}
	assert.Equal(t, map[string]float64{flat.ID: 20, trip.ID: 0}, balances)

	bobs, err := f.ledger.GetUserGroups(ctx, f.bob.ID)
	require.NoError(t, err)
	for _, s := range bobs {
		if s.Group.ID == flat.ID {
			assert.Equal(t, -20.0, s.Balance)
		}
	}

	_, err = f.ledger.GetUserGroups(ctx, "")
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
}

func TestSpending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := New(f.store, WithClock(func() time.Time { return dashboardNow }))
	g := f.group(t, f.alice.ID, f.bob.ID)

	add := func(caller string, in NewExpense, date int64) {
		t.Helper()
		in.Date = date
		_, err := l.CreateExpense(ctx, caller, in)
		require.NoError(t, err)
	}
	add(f.alice.ID, equalSplit(f.alice.ID, f.bob.ID, 100), ms(2026, time.February, 10))
	grouped := equalSplit(f.bob.ID, f.alice.ID, 20)
	grouped.GroupID = g.ID
	add(f.bob.ID, grouped, ms(2026, time.February, 20))
	add(f.carol.ID, equalSplit(f.carol.ID, f.alice.ID, 30), ms(2026, time.May, 1))
	add(f.alice.ID, equalSplit(f.alice.ID, f.bob.ID, 1000), ms(2025, time.December, 31))
	// Paid for others only; alice has no share.
	add(f.alice.ID, NewExpense{Amount: 8, PaidByUserID: f.alice.ID, SplitType: models.SplitExact,
		Splits: []models.Split{{UserID: f.bob.ID, Amount: 8}}}, ms(2026, time.March, 3))

	total, err := l.GetTotalSpent(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, total)

	months, err := l.GetMonthlySpending(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, months, 12)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), months[0].Month)
	assert.Equal(t, time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), months[11].Month)

	want := make([]float64, 12)
	want[time.February-time.January] = 60
	want[time.May-time.January] = 15
	var sum float64
	for i, m := range months {
		assert.Equal(t, want[i], m.Total, "month %d", i+1)
		sum += m.Total
	}
	assert.Equal(t, total, sum)

	_, err = l.GetTotalSpent(ctx, "")
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	_, err = l.GetMonthlySpending(ctx, "")
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
}
