package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

func money(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func assertMoney(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, got.Equal(money(want)), append([]any{"want %d, got %s", want, got}, msgAndArgs...)...)
}

func TestCreateFine_Additive(t *testing.T) {
	store := newMockStore()
	svc := NewFineService(store, testOptions()...)
	ctx := context.Background()

	first, err := svc.CreateFine(ctx, "U1", money(30))
	require.NoError(t, err)
	second, err := svc.CreateFine(ctx, "U1", money(10))
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.Paid)
	require.Len(t, store.fines, 2)

	balance, err := svc.OutstandingBalance(ctx, "U1")
	require.NoError(t, err)
	assertMoney(t, 40, balance)
}

func TestCreateFine_RejectsNonPositive(t *testing.T) {
	store := newMockStore()
	svc := NewFineService(store, testOptions()...)

	_, err := svc.CreateFine(context.Background(), "U1", decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.CreateFine(context.Background(), "U1", money(-5))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Empty(t, store.fines)
}

func TestCreateFineForOverdue(t *testing.T) {
	store := newMockStore()
	svc := NewFineService(store, testOptions()...)
	ctx := context.Background()

	fine, err := svc.CreateFineForOverdue(ctx, "U1", domain.CategoryBook, 0)
	require.NoError(t, err)
	assert.Nil(t, fine)
	assert.Zero(t, store.saveCount())

	fine, err = svc.CreateFineForOverdue(ctx, "U1", domain.CategoryCD, 9)
	require.NoError(t, err)
	require.NotNil(t, fine)
	assertMoney(t, 20, fine.Amount)

	_, err = svc.CreateFineForOverdue(ctx, "U1", "VHS", 9)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Len(t, store.fines, 1)
}

func TestPayFine_OldestFirstPartial(t *testing.T) {
	store := newMockStore()
	store.fines = []domain.Fine{
		{ID: "F1", PatronID: "U1", Amount: money(30)},
		{ID: "F2", PatronID: "U1", Amount: money(10)},
	}
	svc := NewFineService(store, testOptions()...)

	balance, err := svc.PayFine(context.Background(), "U1", money(25))
	require.NoError(t, err)

	assertMoney(t, 15, balance)
	assertMoney(t, 5, store.fines[0].Amount)
	assert.False(t, store.fines[0].Paid)
	assertMoney(t, 10, store.fines[1].Amount)
	assert.False(t, store.fines[1].Paid)
}

func TestPayFine_CoversEverything(t *testing.T) {
	store := newMockStore()
	store.fines = []domain.Fine{
		{ID: "F1", PatronID: "U1", Amount: money(30)},
		{ID: "F2", PatronID: "U1", Amount: money(10)},
	}
	svc := NewFineService(store, testOptions()...)
	ctx := context.Background()

	_, err := svc.PayFine(ctx, "U1", money(25))
	require.NoError(t, err)
	balance, err := svc.PayFine(ctx, "U1", money(25))
	require.NoError(t, err)

	assert.True(t, balance.IsZero())
	for _, f := range store.fines {
		assert.True(t, f.Paid, f.ID)
		assert.True(t, f.Amount.IsZero(), f.ID)
	}

	unpaid, err := svc.HasUnpaidFines(ctx, "U1")
	require.NoError(t, err)
	assert.False(t, unpaid)
}

func TestPayFine_SinglePaymentOfFifty(t *testing.T) {
	store := newMockStore()
	store.fines = []domain.Fine{
		{ID: "F1", PatronID: "U1", Amount: money(30)},
		{ID: "F2", PatronID: "U1", Amount: money(10)},
	}
	svc := NewFineService(store, testOptions()...)

	balance, err := svc.PayFine(context.Background(), "U1", money(50))
	require.NoError(t, err)

	assert.True(t, balance.IsZero())
	assert.True(t, store.fines[0].Paid)
	assert.True(t, store.fines[1].Paid)
}

func TestPayFine_NonPositiveIsNoop(t *testing.T) {
	store := newMockStore()
	store.fines = []domain.Fine{{ID: "F1", PatronID: "U1", Amount: money(30)}}
	svc := NewFineService(store, testOptions()...)

	for _, amount := range []decimal.Decimal{decimal.Zero, money(-10)} {
		balance, err := svc.PayFine(context.Background(), "U1", amount)
		require.NoError(t, err)
		assertMoney(t, 30, balance)
	}
	assert.Zero(t, store.saveCount())
	assertMoney(t, 30, store.fines[0].Amount)
}

func TestPayFine_SkipsOtherPatronsAndPaidFines(t *testing.T) {
	store := newMockStore()
	store.fines = []domain.Fine{
		{ID: "F1", PatronID: "U2", Amount: money(15)},
		{ID: "F2", PatronID: "U1", Amount: decimal.Zero, Paid: true},
		{ID: "F3", PatronID: "U1", Amount: money(10)},
		{ID: "F4", PatronID: "U1", Amount: money(10)},
	}
	svc := NewFineService(store, testOptions()...)

	balance, err := svc.PayFine(context.Background(), "U1", money(12))
	require.NoError(t, err)

	assertMoney(t, 8, balance)
	assertMoney(t, 15, store.fines[0].Amount, "other patron untouched")
	assert.True(t, store.fines[2].Paid)
	assertMoney(t, 8, store.fines[3].Amount)
}

func TestFinesForPatron(t *testing.T) {
	store := newMockStore()
	store.fines = []domain.Fine{
		{ID: "F1", PatronID: "U1", Amount: money(10)},
		{ID: "F2", PatronID: "U2", Amount: money(20)},
		{ID: "F3", PatronID: "U1", Amount: decimal.Zero, Paid: true},
	}
	svc := NewFineService(store, testOptions()...)

	fines, err := svc.FinesForPatron(context.Background(), "U1")
	require.NoError(t, err)
	require.Len(t, fines, 2)
	assert.Equal(t, "F1", fines[0].ID)
	assert.Equal(t, "F3", fines[1].ID)
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount(" 12.50 ")
	require.NoError(t, err)
	assert.Equal(t, "12.50", d.StringFixed(2))

	_, err = ParseAmount("twelve")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = ParseAmount("")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
