package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rl1809/library-ledger/internal/core/domain"
)

// FineCalculator applies the flat overdue fee of each category. The fee is a
// one-time penalty and does not grow with the number of days late.
type FineCalculator struct{}

func (FineCalculator) Calculate(category domain.Category, overdueDays int) (decimal.Decimal, error) {
	policy, ok := domain.PolicyFor(category)
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown category %q: %w", category, ErrInvalidArgument)
	}
	if overdueDays <= 0 {
		return decimal.Zero, nil
	}
	return policy.FlatFee, nil
}
