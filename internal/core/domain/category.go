package domain

import "github.com/shopspring/decimal"

type Category string

const (
	CategoryBook Category = "BOOK"
	CategoryCD   Category = "CD"
)

// Policy holds the lending terms for one item category.
type Policy struct {
	LoanDays int
	FlatFee  decimal.Decimal
}

var policies = map[Category]Policy{
	CategoryBook: {LoanDays: 28, FlatFee: decimal.NewFromInt(10)},
	CategoryCD:   {LoanDays: 7, FlatFee: decimal.NewFromInt(20)},
}

// PolicyFor returns the lending terms for c, false for an unknown category.
func PolicyFor(c Category) (Policy, bool) {
	p, ok := policies[c]
	return p, ok
}

func (c Category) Valid() bool {
	_, ok := policies[c]
	return ok
}
