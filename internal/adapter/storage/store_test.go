package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/library-ledger/internal/core/domain"
	"github.com/rl1809/library-ledger/internal/port"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// exerciseRecordStore runs the same round trips against every backend.
func exerciseRecordStore(t *testing.T, store port.RecordStore) {
	t.Helper()
	ctx := context.Background()

	books := []domain.Book{
		{ID: "B2", Title: "Refactoring", Author: "Martin Fowler", ISBN: "0201485672"},
		{ID: "B1", Title: "Clean Code", Author: "Robert C. Martin", ISBN: "1234567890", Borrowed: true},
	}
	require.NoError(t, store.SaveBooks(ctx, books))
	gotBooks, err := store.LoadBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, books, gotBooks)

	returnedOn := date(2025, 3, 2)
	loans := []domain.Loan{
		{ID: "L1", PatronID: "U1", ItemID: "B1", Category: domain.CategoryBook,
			BorrowedOn: date(2025, 2, 1), DueOn: date(2025, 3, 1)},
		{ID: "L2", PatronID: "U2", ItemID: "CD1", Category: domain.CategoryCD,
			BorrowedOn: date(2025, 2, 20), DueOn: date(2025, 2, 27), ReturnedOn: &returnedOn},
	}
	require.NoError(t, store.SaveLoans(ctx, loans))
	gotLoans, err := store.LoadLoans(ctx)
	require.NoError(t, err)
	require.Len(t, gotLoans, 2)
	assert.Equal(t, loans[0], gotLoans[0])
	assert.Equal(t, "L2", gotLoans[1].ID)
	require.NotNil(t, gotLoans[1].ReturnedOn)
	assert.True(t, returnedOn.Equal(*gotLoans[1].ReturnedOn))

	fines := []domain.Fine{
		{ID: "F1", PatronID: "U1", Amount: decimal.RequireFromString("12.50")},
		{ID: "F2", PatronID: "U1", Amount: decimal.Zero, Paid: true},
	}
	require.NoError(t, store.SaveFines(ctx, fines))
	gotFines, err := store.LoadFines(ctx)
	require.NoError(t, err)
	require.Len(t, gotFines, 2)
	for i := range fines {
		assert.Equal(t, fines[i].ID, gotFines[i].ID)
		assert.Equal(t, fines[i].Paid, gotFines[i].Paid)
		assert.True(t, fines[i].Amount.Equal(gotFines[i].Amount), "fine %s amount %s", fines[i].ID, gotFines[i].Amount)
	}

	patrons := []domain.Patron{{ID: "U1", Name: "Ada", Email: "ada@example.com", PasswordHash: "$2a$04$hash"}}
	require.NoError(t, store.SavePatrons(ctx, patrons))
	gotPatrons, err := store.LoadPatrons(ctx)
	require.NoError(t, err)
	assert.Equal(t, patrons, gotPatrons)

	// a save replaces the whole collection
	require.NoError(t, store.SaveBooks(ctx, books[:1]))
	gotBooks, err = store.LoadBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, books[:1], gotBooks)

	require.NoError(t, store.SaveFines(ctx, nil))
	gotFines, err = store.LoadFines(ctx)
	require.NoError(t, err)
	assert.Empty(t, gotFines)
}
