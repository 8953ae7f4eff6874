package service

import (
	"context"
	"fmt"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

// BorrowingService decides whether a patron may borrow before any loan is
// created. It holds the loan ledger's lock across the checks and the loan.
type BorrowingService struct {
	loans *LoanService
	fines *FineService
}

func NewBorrowingService(loans *LoanService, fines *FineService) *BorrowingService {
	return &BorrowingService{loans: loans, fines: fines}
}

func (s *BorrowingService) Borrow(ctx context.Context, patronID, itemID string, category domain.Category) (domain.Loan, error) {
	unlock, err := s.loans.opts.locker.Lock(ctx)
	if err != nil {
		return domain.Loan{}, fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	overdue, err := s.loans.HasOverdueLoans(ctx, patronID)
	if err != nil {
		return domain.Loan{}, err
	}
	if overdue {
		return domain.Loan{}, fmt.Errorf("patron %s: %w", patronID, ErrOverdueBlock)
	}

	unpaid, err := s.fines.HasUnpaidFines(ctx, patronID)
	if err != nil {
		return domain.Loan{}, err
	}
	if unpaid {
		return domain.Loan{}, fmt.Errorf("patron %s: %w", patronID, ErrUnpaidFineBlock)
	}

	return s.loans.borrowLocked(ctx, patronID, itemID, category)
}

// Return closes a loan and, when the item came back late, charges the
// category's overdue fine. Retrying a return never charges twice.
func (s *BorrowingService) Return(ctx context.Context, loanID string) (*domain.Fine, error) {
	unlock, err := s.loans.opts.locker.Lock(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	loan, returnedNow, err := s.loans.returnLocked(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !returnedNow {
		return nil, nil
	}

	amount, err := s.fines.calc.Calculate(loan.Category, loan.OverdueDays(*loan.ReturnedOn))
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, nil
	}
	fine, err := s.fines.createFineLocked(ctx, loan.PatronID, amount)
	if err != nil {
		return nil, fmt.Errorf("charge overdue fine for loan %s: %w", loan.ID, err)
	}
	return &fine, nil
}
