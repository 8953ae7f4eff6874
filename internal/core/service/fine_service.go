package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rl1809/library-ledger/internal/core/domain"
	"github.com/rl1809/library-ledger/internal/port"
)

type FineService struct {
	store port.FineRepository
	calc  FineCalculator
	opts  options
}

func NewFineService(store port.FineRepository, opts ...Option) *FineService {
	return &FineService{
		store: store,
		opts:  newOptions(opts),
	}
}

// CreateFine appends a new unpaid fine. Fines are never merged with earlier
// ones for the same patron.
func (s *FineService) CreateFine(ctx context.Context, patronID string, amount decimal.Decimal) (domain.Fine, error) {
	amount = domain.RoundMoney(amount)
	if !amount.IsPositive() {
		return domain.Fine{}, fmt.Errorf("fine amount %s: %w", amount, ErrInvalidArgument)
	}

	unlock, err := s.opts.locker.Lock(ctx)
	if err != nil {
		return domain.Fine{}, fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	return s.createFineLocked(ctx, patronID, amount)
}

func (s *FineService) createFineLocked(ctx context.Context, patronID string, amount decimal.Decimal) (domain.Fine, error) {
	fines, err := s.store.LoadFines(ctx)
	if err != nil {
		return domain.Fine{}, fmt.Errorf("load fines: %w", err)
	}

	fine := domain.Fine{
		ID:       s.opts.newID("F"),
		PatronID: patronID,
		Amount:   amount,
	}
	if err := s.store.SaveFines(ctx, append(fines, fine)); err != nil {
		return domain.Fine{}, fmt.Errorf("save fines: %w", err)
	}

	s.opts.logger.Info("fine created", "fine_id", fine.ID, "patron_id", patronID, "amount", amount.StringFixed(2))
	return fine, nil
}

// CreateFineForOverdue returns nil without creating anything when the item is
// not late.
func (s *FineService) CreateFineForOverdue(ctx context.Context, patronID string, category domain.Category, overdueDays int) (*domain.Fine, error) {
	amount, err := s.calc.Calculate(category, overdueDays)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, nil
	}
	fine, err := s.CreateFine(ctx, patronID, amount)
	if err != nil {
		return nil, err
	}
	return &fine, nil
}

func (s *FineService) OutstandingBalance(ctx context.Context, patronID string) (decimal.Decimal, error) {
	fines, err := s.store.LoadFines(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load fines: %w", err)
	}
	return balanceOf(fines, patronID), nil
}

// PayFine applies a payment to the patron's unpaid fines, oldest first, and
// returns the remaining balance. Any excess over the balance is not kept.
func (s *FineService) PayFine(ctx context.Context, patronID string, amount decimal.Decimal) (decimal.Decimal, error) {
	amount = domain.RoundMoney(amount)
	if !amount.IsPositive() {
		return s.OutstandingBalance(ctx, patronID)
	}

	unlock, err := s.opts.locker.Lock(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("acquire lock: %w", err)
	}
	defer unlock()

	fines, err := s.store.LoadFines(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load fines: %w", err)
	}

	excess := allocatePayment(fines, patronID, amount)
	if err := s.store.SaveFines(ctx, fines); err != nil {
		return decimal.Zero, fmt.Errorf("save fines: %w", err)
	}

	balance := balanceOf(fines, patronID)
	s.opts.logger.Info("fine payment applied",
		"patron_id", patronID, "paid", amount.StringFixed(2),
		"excess", excess.StringFixed(2), "balance", balance.StringFixed(2))
	return balance, nil
}

func (s *FineService) HasUnpaidFines(ctx context.Context, patronID string) (bool, error) {
	balance, err := s.OutstandingBalance(ctx, patronID)
	if err != nil {
		return false, err
	}
	return balance.IsPositive(), nil
}

func (s *FineService) FinesForPatron(ctx context.Context, patronID string) ([]domain.Fine, error) {
	fines, err := s.store.LoadFines(ctx)
	if err != nil {
		return nil, fmt.Errorf("load fines: %w", err)
	}
	var out []domain.Fine
	for _, f := range fines {
		if f.PatronID == patronID {
			out = append(out, f)
		}
	}
	return out, nil
}

// allocatePayment settles fines in ledger order and returns what was left of
// the payment.
func allocatePayment(fines []domain.Fine, patronID string, amount decimal.Decimal) decimal.Decimal {
	remaining := amount
	for i := range fines {
		if !remaining.IsPositive() {
			break
		}
		f := &fines[i]
		if f.PatronID != patronID || f.Paid {
			continue
		}
		if remaining.GreaterThanOrEqual(f.Amount) {
			remaining = remaining.Sub(f.Amount)
			f.Amount = decimal.Zero
			f.Paid = true
			continue
		}
		f.Amount = f.Amount.Sub(remaining)
		remaining = decimal.Zero
	}
	return remaining
}

func balanceOf(fines []domain.Fine, patronID string) decimal.Decimal {
	total := decimal.Zero
	for _, f := range fines {
		if f.PatronID == patronID {
			total = total.Add(f.Outstanding())
		}
	}
	return total
}

// ParseAmount reads a money amount typed by an operator.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", s, ErrInvalidArgument)
	}
	return domain.RoundMoney(d), nil
}
