package port

import (
	"context"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

// Each Save replaces the whole collection. A failed save must leave the
// previously stored collection intact.

type LoanRepository interface {
	LoadLoans(ctx context.Context) ([]domain.Loan, error)
	SaveLoans(ctx context.Context, loans []domain.Loan) error
}

type FineRepository interface {
	// LoadFines returns fines in ledger (creation) order.
	LoadFines(ctx context.Context) ([]domain.Fine, error)
	SaveFines(ctx context.Context, fines []domain.Fine) error
}

type BookRepository interface {
	LoadBooks(ctx context.Context) ([]domain.Book, error)
	SaveBooks(ctx context.Context, books []domain.Book) error
}

type PatronRepository interface {
	LoadPatrons(ctx context.Context) ([]domain.Patron, error)
	SavePatrons(ctx context.Context, patrons []domain.Patron) error
}

// CirculationRepository is what the loan ledger needs: loans plus the book
// catalog whose borrowed flags follow them.
type CirculationRepository interface {
	LoanRepository
	BookRepository
}

type RecordStore interface {
	LoanRepository
	FineRepository
	BookRepository
	PatronRepository
}
