package service

import (
	"context"
	"fmt"

	"github.com/rl1809/library-ledger/internal/core/domain"
	"github.com/rl1809/library-ledger/internal/port"
)

type LoanService struct {
	store port.CirculationRepository
	opts  options
}

func NewLoanService(store port.CirculationRepository, opts ...Option) *LoanService {
	return &LoanService{
		store: store,
		opts:  newOptions(opts),
	}
}

// Borrow lends an item without checking the patron's standing. Books must be
// in the catalog and available; CDs are lent by reference.
func (s *LoanService) Borrow(ctx context.Context, patronID, itemID string, category domain.Category) (domain.Loan, error) {
	unlock, err := s.opts.locker.Lock(ctx)
	if err != nil {
		return domain.Loan{}, fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	return s.borrowLocked(ctx, patronID, itemID, category)
}

func (s *LoanService) borrowLocked(ctx context.Context, patronID, itemID string, category domain.Category) (domain.Loan, error) {
	policy, ok := domain.PolicyFor(category)
	if !ok {
		return domain.Loan{}, fmt.Errorf("unknown category %q: %w", category, ErrInvalidArgument)
	}

	var (
		books   []domain.Book
		bookIdx = -1
	)
	if category == domain.CategoryBook {
		var err error
		books, err = s.store.LoadBooks(ctx)
		if err != nil {
			return domain.Loan{}, fmt.Errorf("load books: %w", err)
		}
		bookIdx = indexOfBook(books, itemID)
		if bookIdx < 0 {
			return domain.Loan{}, fmt.Errorf("book %s: %w", itemID, ErrNotFound)
		}
		if books[bookIdx].Borrowed {
			return domain.Loan{}, fmt.Errorf("book %s: %w", itemID, ErrAlreadyBorrowed)
		}
	}

	loans, err := s.store.LoadLoans(ctx)
	if err != nil {
		return domain.Loan{}, fmt.Errorf("load loans: %w", err)
	}

	today := domain.Day(s.opts.now())
	loan := domain.Loan{
		ID:         s.opts.newID("L"),
		PatronID:   patronID,
		ItemID:     itemID,
		Category:   category,
		BorrowedOn: today,
		DueOn:      today.AddDate(0, 0, policy.LoanDays),
	}

	if bookIdx >= 0 {
		books[bookIdx].Borrowed = true
		if err := s.store.SaveBooks(ctx, books); err != nil {
			return domain.Loan{}, fmt.Errorf("save books: %w", err)
		}
	}

	if err := s.store.SaveLoans(ctx, append(loans, loan)); err != nil {
		if bookIdx >= 0 {
			s.releaseBook(ctx, books, bookIdx, loan.ID)
		}
		return domain.Loan{}, fmt.Errorf("save loans: %w", err)
	}

	s.opts.logger.Info("item borrowed",
		"loan_id", loan.ID, "patron_id", patronID, "item_id", itemID,
		"category", category, "due_on", loan.DueOn.Format(dateLayout))
	return loan, nil
}

// releaseBook undoes the borrowed flag after the loan itself failed to persist.
func (s *LoanService) releaseBook(ctx context.Context, books []domain.Book, idx int, loanID string) {
	books[idx].Borrowed = false
	if err := s.store.SaveBooks(ctx, books); err != nil {
		s.opts.logger.Error("CRITICAL book flag rollback failed",
			"loan_id", loanID, "book_id", books[idx].ID, "error", err)
		return
	}
	s.opts.logger.Warn("rolled back book flag", "loan_id", loanID, "book_id", books[idx].ID)
}

// ReturnItem closes a loan. Returning an already returned loan changes no
// loan, but still clears a catalog flag left set by an earlier failed save.
// The flag of any catalog entry matching the item is cleared, whatever the
// loan's category, once no active loan references it.
func (s *LoanService) ReturnItem(ctx context.Context, loanID string) error {
	unlock, err := s.opts.locker.Lock(ctx)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	_, _, err = s.returnLocked(ctx, loanID)
	return err
}

// returnLocked reports the loan and whether this call is the one that marked
// it returned.
func (s *LoanService) returnLocked(ctx context.Context, loanID string) (domain.Loan, bool, error) {
	loans, err := s.store.LoadLoans(ctx)
	if err != nil {
		return domain.Loan{}, false, fmt.Errorf("load loans: %w", err)
	}

	idx := -1
	for i := range loans {
		if loans[i].ID == loanID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Loan{}, false, fmt.Errorf("loan %s: %w", loanID, ErrNotFound)
	}

	returnedNow := false
	if loans[idx].Active() {
		today := domain.Day(s.opts.now())
		loans[idx].ReturnedOn = &today
		if err := s.store.SaveLoans(ctx, loans); err != nil {
			return domain.Loan{}, false, fmt.Errorf("save loans: %w", err)
		}
		returnedNow = true
		s.opts.logger.Info("item returned", "loan_id", loans[idx].ID, "item_id", loans[idx].ItemID)
	}

	loan := loans[idx]
	if err := s.releaseIfIdle(ctx, loans, loan.ItemID); err != nil {
		return loan, returnedNow, err
	}
	return loan, returnedNow, nil
}

// releaseIfIdle clears the catalog flag of itemID when no active loan holds it.
func (s *LoanService) releaseIfIdle(ctx context.Context, loans []domain.Loan, itemID string) error {
	for _, l := range loans {
		if l.ItemID == itemID && l.Active() {
			return nil
		}
	}

	books, err := s.store.LoadBooks(ctx)
	if err != nil {
		return fmt.Errorf("load books: %w", err)
	}
	bookIdx := indexOfBook(books, itemID)
	if bookIdx < 0 || !books[bookIdx].Borrowed {
		return nil
	}
	books[bookIdx].Borrowed = false
	if err := s.store.SaveBooks(ctx, books); err != nil {
		return fmt.Errorf("save books: %w", err)
	}
	return nil
}

// OverdueLoans evaluates overdue state against the clock at call time.
func (s *LoanService) OverdueLoans(ctx context.Context) ([]domain.Loan, error) {
	today := s.opts.now()
	return s.filter(ctx, func(l domain.Loan) bool { return l.Overdue(today) })
}

func (s *LoanService) LoansForPatron(ctx context.Context, patronID string) ([]domain.Loan, error) {
	return s.filter(ctx, func(l domain.Loan) bool { return l.PatronID == patronID })
}

func (s *LoanService) AllLoans(ctx context.Context) ([]domain.Loan, error) {
	loans, err := s.store.LoadLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("load loans: %w", err)
	}
	return loans, nil
}

func (s *LoanService) HasOverdueLoans(ctx context.Context, patronID string) (bool, error) {
	today := s.opts.now()
	return s.exists(ctx, func(l domain.Loan) bool {
		return l.PatronID == patronID && l.Overdue(today)
	})
}

func (s *LoanService) HasActiveLoans(ctx context.Context, patronID string) (bool, error) {
	return s.exists(ctx, func(l domain.Loan) bool {
		return l.PatronID == patronID && l.Active()
	})
}

func (s *LoanService) filter(ctx context.Context, keep func(domain.Loan) bool) ([]domain.Loan, error) {
	loans, err := s.store.LoadLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("load loans: %w", err)
	}
	var out []domain.Loan
	for _, l := range loans {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *LoanService) exists(ctx context.Context, match func(domain.Loan) bool) (bool, error) {
	loans, err := s.store.LoadLoans(ctx)
	if err != nil {
		return false, fmt.Errorf("load loans: %w", err)
	}
	for _, l := range loans {
		if match(l) {
			return true, nil
		}
	}
	return false, nil
}

func indexOfBook(books []domain.Book, id string) int {
	for i := range books {
		if books[i].ID == id {
			return i
		}
	}
	return -1
}

const dateLayout = "2006-01-02"
